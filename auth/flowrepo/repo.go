package flowrepo

import "time"

// PendingLogin is the state of one login attempt between leaving for the
// authorization server and coming back with a code. There is at most one
// per session; starting a new login overwrites it.
type PendingLogin struct {
	Verifier  string    `json:"verifier"`
	State     string    `json:"state"`
	CreatedAt time.Time `json:"created_at"`
}

type Repo interface {
	Upsert(sessionID string, pending *PendingLogin) error
	// Consume returns the pending login and removes it in the same step.
	// A second Consume without an intervening Upsert fails.
	Consume(sessionID string) (*PendingLogin, error)
	Delete(sessionID string) error
}
