package session

import (
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/figuroforge/authkit/pkg/config"
)

// GoogleOAuthConfig holds configuration for the Google OAuth entry point.
type GoogleOAuthConfig struct {
	ClientID     string   `env:"GOOGLE_OAUTH_CLIENT_ID,required"`
	ClientSecret string   `env:"GOOGLE_OAUTH_CLIENT_SECRET,required"`
	RedirectURL  string   `env:"GOOGLE_OAUTH_REDIRECT_URL,required"`
	Scopes       []string `env:"GOOGLE_OAUTH_SCOPES" envSeparator:"," envDefault:"https://www.googleapis.com/auth/userinfo.email,https://www.googleapis.com/auth/userinfo.profile"`
}

// GoogleOAuth builds Google authorization URLs for the OAuth handshake.
// Token exchange and profile resolution happen on the callback side of the
// session store; the client flow only needs the redirect URL.
type GoogleOAuth struct {
	conf *oauth2.Config
}

// NewGoogleOAuth creates a Google OAuth adapter.
func NewGoogleOAuth(cfg GoogleOAuthConfig) *GoogleOAuth {
	return &GoogleOAuth{
		conf: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       cfg.Scopes,
			Endpoint:     google.Endpoint,
		},
	}
}

// NewGoogleOAuthFromEnv creates a Google OAuth adapter configured from
// environment variables.
func NewGoogleOAuthFromEnv() (*GoogleOAuth, error) {
	var cfg GoogleOAuthConfig
	if err := config.Load(&cfg); err != nil {
		return nil, err
	}
	return NewGoogleOAuth(cfg), nil
}

// AuthURL builds the authorization URL with the given CSRF state token.
// redirectTo overrides the configured return address when non-empty.
func (a *GoogleOAuth) AuthURL(state, redirectTo string) string {
	opts := []oauth2.AuthCodeOption{oauth2.AccessTypeOffline}
	if redirectTo != "" {
		conf := *a.conf
		conf.RedirectURL = redirectTo
		return conf.AuthCodeURL(state, opts...)
	}
	return a.conf.AuthCodeURL(state, opts...)
}
