// Package auth supplies OAuth tokens for linked accounts.
package auth

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	oauth2api "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"

	"tasksync/internal/service"
	"tasksync/internal/store"
)

// Scopes requested at login: task access plus the profile used to identify
// the account.
var Scopes = []string{
	"https://www.googleapis.com/auth/tasks",
	oauth2api.UserinfoEmailScope,
	oauth2api.UserinfoProfileScope,
}

// ErrNoRefreshToken is returned when an account cannot be refreshed silently.
var ErrNoRefreshToken = errors.New("no refresh token stored")

// LoadOAuthConfig reads a Google OAuth client file.
func LoadOAuthConfig(path string) (*oauth2.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read oauth client: %w", err)
	}
	conf, err := google.ConfigFromJSON(data, Scopes...)
	if err != nil {
		return nil, fmt.Errorf("invalid oauth client: %w", err)
	}
	return conf, nil
}

// Tokens hands out the access tokens stored on accounts and refreshes them
// through the OAuth client.
type Tokens struct {
	accounts *store.Accounts
	oauth    *oauth2.Config
}

// NewTokens creates a token provider over the account store.
func NewTokens(accounts *store.Accounts, conf *oauth2.Config) *Tokens {
	return &Tokens{accounts: accounts, oauth: conf}
}

// Token returns the stored access token of an account.
func (t *Tokens) Token(ctx context.Context, accountID string) (string, error) {
	a, ok := t.accounts.Get(accountID)
	if !ok {
		return "", fmt.Errorf("unknown account: %s", accountID)
	}
	if a.AccessToken == "" {
		return "", fmt.Errorf("account %s has no access token", a.Email)
	}
	return a.AccessToken, nil
}

// Refresh exchanges the account's refresh token for a new access token and
// stores it on the account.
func (t *Tokens) Refresh(ctx context.Context, accountID string) (string, error) {
	a, ok := t.accounts.Get(accountID)
	if !ok {
		return "", fmt.Errorf("unknown account: %s", accountID)
	}
	if a.RefreshToken == "" {
		return "", ErrNoRefreshToken
	}
	if t.oauth == nil {
		return "", errors.New("oauth client not configured")
	}

	// An already expired token forces the source to hit the token endpoint.
	src := t.oauth.TokenSource(ctx, &oauth2.Token{
		RefreshToken: a.RefreshToken,
		Expiry:       time.Unix(1, 0),
	})
	tok, err := src.Token()
	if err != nil {
		return "", fmt.Errorf("failed to refresh token: %w", err)
	}

	a.AccessToken = tok.AccessToken
	a.ExpiresAt = tok.Expiry
	if tok.RefreshToken != "" {
		a.RefreshToken = tok.RefreshToken
	}
	if _, err := t.accounts.Upsert(a); err != nil {
		return "", err
	}
	return tok.AccessToken, nil
}

// Link fetches the profile behind tok and returns an account ready to be
// upserted.
func Link(ctx context.Context, conf *oauth2.Config, tok *oauth2.Token, opts ...option.ClientOption) (service.Account, error) {
	opts = append([]option.ClientOption{option.WithTokenSource(conf.TokenSource(ctx, tok))}, opts...)
	svc, err := oauth2api.NewService(ctx, opts...)
	if err != nil {
		return service.Account{}, fmt.Errorf("failed to create userinfo service: %w", err)
	}

	info, err := svc.Userinfo.Get().Context(ctx).Do()
	if err != nil {
		return service.Account{}, fmt.Errorf("failed to fetch profile: %w", err)
	}
	if info.Email == "" {
		return service.Account{}, errors.New("profile has no email")
	}

	return service.Account{
		Email:        info.Email,
		Name:         info.Name,
		Image:        info.Picture,
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		ExpiresAt:    tok.Expiry,
	}, nil
}
