package config

import (
	"strings"
	"time"
)

type OAuthConfig interface {
	GetAuthServerURL() string
	GetClientID() string
	GetScopes() []string
	GetCallbackPath() string
	GetVerifierTTL() time.Duration
	GetTokenTTL() time.Duration
}

type OAuth struct{}

var _ OAuthConfig = OAuth{}

func (OAuth) GetAuthServerURL() string {
	return GetEnv("AUTH_SERVER_URL", "http://localhost:9000")
}

func (OAuth) GetClientID() string {
	return GetEnv("OAUTH_CLIENT_ID", "alt-shop_mobile")
}

func (OAuth) GetScopes() []string {
	scopes := GetEnv("OAUTH_SCOPES", "openid profile email message.read")
	return strings.Fields(scopes)
}

// GetCallbackPath is the path on the storefront origin registered as the
// OAuth redirect URI.
func (OAuth) GetCallbackPath() string {
	return GetEnv("OAUTH_CALLBACK_PATH", "/callback")
}

// GetVerifierTTL bounds how long a pending login may wait for the user to
// come back from the authorization server.
func (OAuth) GetVerifierTTL() time.Duration {
	return 15 * time.Minute
}

func (OAuth) GetTokenTTL() time.Duration {
	return 1 * time.Hour
}
