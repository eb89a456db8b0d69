// Package backend talks to the content-management backend: authentication
// with a persisted token, existing-post listing, post submission behind the
// schema gate, and best-effort execution logs.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"dailybrief/internal/config"
	"dailybrief/internal/logger"
	"dailybrief/internal/retry"
)

// tokenReuseMargin: a cached token is only reused while it stays valid for
// at least this long.
const tokenReuseMargin = 5 * time.Minute

// CredentialStore persists the backend token between runs.
type CredentialStore interface {
	// Load returns the stored token, or an empty string when none exists.
	Load() (string, error)
	// Save durably replaces the stored token.
	Save(token string) error
}

// FileStore keeps the token in a single file, written atomically via a
// temp-file rename.
type FileStore struct {
	Path string
}

// Load implements CredentialStore.
func (s *FileStore) Load() (string, error) {
	data, err := os.ReadFile(s.Path)
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read token file %s: %w", s.Path, err)
	}
	return strings.TrimSpace(string(data)), nil
}

// Save implements CredentialStore.
func (s *FileStore) Save(token string) error {
	dir := filepath.Dir(s.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create token dir %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, "token-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp token file: %w", err)
	}
	if _, err := tmp.WriteString(token); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write token file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to close token file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.Path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to replace token file: %w", err)
	}
	return nil
}

// Authenticator produces Authorization headers for backend calls, reusing
// the stored token until shortly before it expires.
type Authenticator struct {
	authURL  string
	email    string
	password string
	store    CredentialStore
	client   *http.Client
	policy   retry.Policy
	now      func() time.Time
}

// NewAuthenticator creates an authenticator from the backend configuration.
func NewAuthenticator(cfg config.Backend, store CredentialStore) *Authenticator {
	return &Authenticator{
		authURL:  cfg.AuthURL,
		email:    cfg.AdminEmail,
		password: cfg.AdminPassword,
		store:    store,
		client:   &http.Client{Timeout: cfg.RequestTimeout()},
		policy: retry.Policy{
			MaxAttempts: 3,
			Delay:       5 * time.Second,
		},
		now: time.Now,
	}
}

// AuthHeaders returns the Authorization header for backend calls. A stored
// token still valid past the reuse margin wins; otherwise a fresh token is
// requested (with retries) and persisted. Exhaustion of the retry bound is
// fatal for the run.
func (a *Authenticator) AuthHeaders(ctx context.Context) (map[string]string, error) {
	token, err := a.store.Load()
	if err != nil {
		logger.Warn("Failed to read stored token, requesting a new one", "error", err.Error())
	} else if token != "" && a.tokenUsable(token) {
		return bearerHeaders(token), nil
	}

	token, err = retry.Do(ctx, a.policy, a.requestToken)
	if err != nil {
		return nil, fmt.Errorf("backend authentication failed: %w", err)
	}

	if err := a.store.Save(token); err != nil {
		logger.Warn("Failed to persist backend token", "error", err.Error())
	}
	return bearerHeaders(token), nil
}

// tokenUsable decodes the token without verifying its signature (the backend
// owns the key) and checks the expiry claim against the reuse margin.
func (a *Authenticator) tokenUsable(token string) bool {
	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		logger.Warn("Stored token is not a valid JWT, requesting a new one", "error", err.Error())
		return false
	}
	exp, err := parsed.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		logger.Warn("Stored token has no expiry claim, requesting a new one")
		return false
	}
	if exp.Time.Before(a.now().Add(tokenReuseMargin)) {
		logger.Info("Stored token expired or close to expiry, requesting a new one",
			"expires_at", exp.Time.UTC().Format(time.RFC3339))
		return false
	}
	return true
}

func (a *Authenticator) requestToken(ctx context.Context) (string, error) {
	if a.email == "" || a.password == "" {
		return "", fmt.Errorf("admin credentials are not configured")
	}

	body, err := json.Marshal(map[string]string{
		"email":    a.email,
		"password": a.password,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.authURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create auth request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("auth request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("auth request failed with status %d", resp.StatusCode)
	}

	var payload struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("failed to parse auth response: %w", err)
	}
	if payload.Token == "" {
		return "", fmt.Errorf("auth response did not contain a token")
	}
	return payload.Token, nil
}

func bearerHeaders(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}
