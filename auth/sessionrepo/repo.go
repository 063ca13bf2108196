package sessionrepo

// Repo is the access-token cell for a browser session. The token is opaque;
// absence of a stored token is the sole "logged out" signal.
type Repo interface {
	Set(sessionID, accessToken string) error
	Get(sessionID string) (string, error)
	Clear(sessionID string) error
}
