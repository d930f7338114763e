package identity

import (
	"context"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"golang.org/x/oauth2"
	"gorm.io/gorm"

	"github.com/GoUserDesk/GoUserDesk/internal/config"
	"github.com/GoUserDesk/GoUserDesk/internal/db/models"
	"github.com/GoUserDesk/GoUserDesk/internal/uniuri"
)

// ErrOIDCDisabled is returned when OIDC is disabled via configuration.
var ErrOIDCDisabled = errors.New("oidc authentication is disabled")

const stateTokenLength = 32

// OIDCProvider handles sign-in through a remote OpenID Connect provider.
type OIDCProvider struct {
	cfg      *config.OIDC
	provider *oidc.Provider
	verifier *oidc.IDTokenVerifier
	oauth2   oauth2.Config
	svc      *Service
}

// NewOIDCProvider creates a new OIDC provider bound to the identity service.
func NewOIDCProvider(ctx context.Context, cfg *config.OIDC, svc *Service) (*OIDCProvider, error) {
	if !cfg.Enabled {
		return nil, ErrOIDCDisabled
	}

	provider, err := oidc.NewProvider(ctx, cfg.ProviderURL)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create OIDC provider")
	}

	verifier := provider.Verifier(&oidc.Config{
		ClientID: cfg.ClientID,
	})

	scopes := cfg.Scopes
	if len(scopes) == 0 {
		scopes = []string{oidc.ScopeOpenID, "profile", "email"}
	}

	oauth2Config := oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURL,
		Endpoint:     provider.Endpoint(),
		Scopes:       scopes,
	}

	return &OIDCProvider{
		cfg:      cfg,
		provider: provider,
		verifier: verifier,
		oauth2:   oauth2Config,
		svc:      svc,
	}, nil
}

// GenerateStateToken generates a random state token for CSRF protection.
func GenerateStateToken() string {
	return uniuri.NewLen(stateTokenLength)
}

// GetAuthURL returns the OIDC authorization URL with state token.
func (p *OIDCProvider) GetAuthURL(state string) string {
	return p.oauth2.AuthCodeURL(state)
}

// HandleCallback exchanges the authorization code, verifies the ID
// token, finds or creates the matching account and publishes the
// resulting identity for the session.
func (p *OIDCProvider) HandleCallback(ctx context.Context, sessionID, code string) (*Identity, error) {
	oauth2Token, err := p.oauth2.Exchange(ctx, code)
	if err != nil {
		return nil, errors.Wrap(err, "failed to exchange token")
	}

	rawIDToken, ok := oauth2Token.Extra("id_token").(string)
	if !ok {
		return nil, ErrNoIDToken
	}

	idToken, err := p.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return nil, errors.Wrap(err, "failed to verify ID token")
	}

	var claims struct {
		Sub           string `json:"sub"`
		Email         string `json:"email"`
		EmailVerified bool   `json:"email_verified"`
		Name          string `json:"name"`
	}

	if err = idToken.Claims(&claims); err != nil {
		return nil, errors.Wrap(err, "failed to parse claims")
	}

	account, err := p.findOrCreateAccount(claims.Sub, claims.Email, claims.Name, claims.EmailVerified)
	if err != nil {
		return nil, err
	}

	ident := identityOf(account)
	p.svc.publish(sessionID, ident)

	return ident, nil
}

func (p *OIDCProvider) findOrCreateAccount(sub, email, name string, verified bool) (*models.Account, error) {
	var account models.Account

	err := p.svc.db.Where("external_id = ?", sub).First(&account).Error

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		now := time.Now()
		account = models.Account{
			UID:           uuid.NewString(),
			Email:         email,
			DisplayName:   name,
			EmailVerified: verified,
			ExternalID:    sub,
			LastSignInAt:  &now,
		}

		if err = p.svc.db.Create(&account).Error; err != nil {
			return nil, errors.Wrap(err, "failed to create account")
		}
	case err != nil:
		return nil, errors.Wrap(err, "failed to query account")
	default:
		now := time.Now()
		account.Email = email
		account.DisplayName = name
		account.EmailVerified = verified
		account.LastSignInAt = &now

		if err = p.svc.db.Save(&account).Error; err != nil {
			return nil, errors.Wrap(err, "failed to update account")
		}
	}

	return &account, nil
}

// VerifyToken verifies the signature and claims of an OIDC ID token.
func (p *OIDCProvider) VerifyToken(ctx context.Context, rawToken string) (*oidc.IDToken, error) {
	return p.verifier.Verify(ctx, rawToken) //nolint:wrapcheck
}
