package config

import (
	"time"

	"github.com/GoUserDesk/GoUserDesk/internal/logger"
)

const (
	defaultSessionExpiry    = 24 * time.Hour
	defaultGuardWaitTimeout = 5 * time.Second
	defaultTokenExpiry      = time.Hour
)

// Session settings.
type Session struct {
	ExpiryTime time.Duration
}

// Config overall data structure.
type Config struct {
	DevMode   bool // enable dev mode for development
	DB        DB
	Log       logger.Log
	Title     string
	Webserver Webserver
	Auth      Auth
	Guard     Guard
	Mailer    Mailer
}

// Webserver implement webserver settings.
type Webserver struct {
	Domain       string  // domain name for the webserver
	Port         int     // listening port for the webserver
	ShutDownTime int     // wait time for shutdown
	URL          string  // base url for the webserver
	Session      Session // session settings
}

// Auth holds authentication settings.
type Auth struct {
	OIDC  OIDC
	Token Token
}

// OIDC holds OpenID Connect settings for the remote identity provider.
type OIDC struct {
	Enabled      bool
	ProviderURL  string
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Scopes       []string
}

// Token holds ID-token settings for the callable API.
type Token struct {
	Secret string
	Expiry time.Duration
	Issuer string
}

// Guard holds route guard settings.
type Guard struct {
	// WaitTimeout bounds how long a navigation may wait for the
	// session's auth state to become initialized.
	WaitTimeout time.Duration
}

// Mailer holds SMTP settings for outgoing email.
type Mailer struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}
