package youtube

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"quizreel/internal/services"
)

// Settings keys for persisted OAuth state. SettingRefreshToken is exported
// so callers can check whether a token has been stored.
const (
	SettingRefreshToken = "youtube.refresh_token"
	settingAccessToken  = "youtube.access_token"
	settingTokenExpiry  = "youtube.token_expiry"
)

// tokenExpirySlack refreshes slightly early so an upload never starts with a
// token about to lapse mid-request.
const tokenExpirySlack = 2 * time.Minute

// TokenStore persists OAuth state between runs. questionbank.Store satisfies
// it.
type TokenStore interface {
	Setting(ctx context.Context, key string) (string, bool, error)
	SetSetting(ctx context.Context, key, value string) error
}

// SaveRefreshToken stores the long-lived refresh token obtained out of band
// and clears any cached access token derived from a previous grant.
func SaveRefreshToken(ctx context.Context, store TokenStore, refreshToken string) error {
	refreshToken = strings.TrimSpace(refreshToken)
	if refreshToken == "" {
		return services.Wrap(services.ErrValidation, "youtube", "save-token", "refresh token must not be empty", nil)
	}
	if err := store.SetSetting(ctx, SettingRefreshToken, refreshToken); err != nil {
		return err
	}
	if err := store.SetSetting(ctx, settingAccessToken, ""); err != nil {
		return err
	}
	return store.SetSetting(ctx, settingTokenExpiry, "")
}

// accessToken returns a valid bearer token, refreshing through the OAuth
// endpoint when the cached one is missing or stale. Refreshed tokens are
// written back to the store.
func (c *Client) accessToken(ctx context.Context) (string, error) {
	cached, _, err := c.store.Setting(ctx, settingAccessToken)
	if err != nil {
		return "", err
	}
	expiryRaw, _, err := c.store.Setting(ctx, settingTokenExpiry)
	if err != nil {
		return "", err
	}
	if cached != "" && expiryRaw != "" {
		if expiry, parseErr := time.Parse(time.RFC3339, expiryRaw); parseErr == nil {
			if time.Now().Add(tokenExpirySlack).Before(expiry) {
				return cached, nil
			}
		}
	}

	refreshToken, ok, err := c.store.Setting(ctx, SettingRefreshToken)
	if err != nil {
		return "", err
	}
	if !ok || strings.TrimSpace(refreshToken) == "" {
		return "", services.Wrap(services.ErrAuthExpired, "youtube", "token", "no refresh token stored, run authorization first", nil)
	}

	conf := &oauth2.Config{
		ClientID:     c.clientID,
		ClientSecret: c.clientSecret,
		Endpoint: oauth2.Endpoint{
			AuthURL:  "https://accounts.google.com/o/oauth2/auth",
			TokenURL: c.tokenURL,
		},
	}
	tokenCtx := context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
	token, err := conf.TokenSource(tokenCtx, &oauth2.Token{RefreshToken: refreshToken}).Token()
	if err != nil {
		return "", classifyTokenError(err)
	}

	if err := c.store.SetSetting(ctx, settingAccessToken, token.AccessToken); err != nil {
		return "", err
	}
	if err := c.store.SetSetting(ctx, settingTokenExpiry, token.Expiry.UTC().Format(time.RFC3339)); err != nil {
		return "", err
	}
	return token.AccessToken, nil
}

func classifyTokenError(err error) error {
	var retrieve *oauth2.RetrieveError
	if errors.As(err, &retrieve) {
		status := retrieve.Response.StatusCode
		if status == http.StatusBadRequest || status == http.StatusUnauthorized {
			return services.Wrap(services.ErrAuthExpired, "youtube", "token", "refresh rejected", err)
		}
	}
	return services.Wrap(services.ErrTransient, "youtube", "token", "refresh failed", err)
}
