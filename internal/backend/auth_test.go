package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"dailybrief/internal/retry"
)

// memStore is an in-memory CredentialStore for tests.
type memStore struct {
	token string
	saves int
}

func (s *memStore) Load() (string, error) { return s.token, nil }
func (s *memStore) Save(token string) error {
	s.token = token
	s.saves++
	return nil
}

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.MapClaims{
		"sub": "admin@example.com",
		"exp": exp.Unix(),
	})
	raw, err := token.SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return raw
}

func testAuthenticator(authURL string, store CredentialStore, now time.Time) *Authenticator {
	return &Authenticator{
		authURL:  authURL,
		email:    "admin@example.com",
		password: "secret",
		store:    store,
		client:   &http.Client{Timeout: 5 * time.Second},
		policy:   retry.Policy{MaxAttempts: 3, Delay: time.Millisecond},
		now:      func() time.Time { return now },
	}
}

func TestAuthHeadersReusesStoredToken(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	stored := signedToken(t, now.Add(time.Hour))
	store := &memStore{token: stored}

	calls := 0
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))
	defer ts.Close()

	headers, err := testAuthenticator(ts.URL, store, now).AuthHeaders(context.Background())
	if err != nil {
		t.Fatalf("AuthHeaders failed: %v", err)
	}
	if headers["Authorization"] != "Bearer "+stored {
		t.Errorf("Authorization = %q", headers["Authorization"])
	}
	if calls != 0 {
		t.Errorf("a valid stored token must not trigger a login, got %d calls", calls)
	}
}

func TestAuthHeadersRefreshesNearExpiry(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	// Expires in 3 minutes, inside the 5 minute reuse margin.
	store := &memStore{token: signedToken(t, now.Add(3*time.Minute))}

	fresh := signedToken(t, now.Add(time.Hour))
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var creds map[string]string
		_ = json.NewDecoder(r.Body).Decode(&creds)
		if creds["email"] != "admin@example.com" || creds["password"] != "secret" {
			t.Errorf("credentials = %v", creds)
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"token": fresh})
	}))
	defer ts.Close()

	headers, err := testAuthenticator(ts.URL, store, now).AuthHeaders(context.Background())
	if err != nil {
		t.Fatalf("AuthHeaders failed: %v", err)
	}
	if headers["Authorization"] != "Bearer "+fresh {
		t.Errorf("Authorization = %q", headers["Authorization"])
	}
	if store.saves != 1 || store.token != fresh {
		t.Errorf("fresh token should be persisted, saves=%d", store.saves)
	}
}

func TestAuthHeadersMalformedStoredToken(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	store := &memStore{token: "not-a-jwt"}

	fresh := signedToken(t, now.Add(time.Hour))
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"token": fresh})
	}))
	defer ts.Close()

	headers, err := testAuthenticator(ts.URL, store, now).AuthHeaders(context.Background())
	if err != nil {
		t.Fatalf("AuthHeaders failed: %v", err)
	}
	if headers["Authorization"] != "Bearer "+fresh {
		t.Errorf("Authorization = %q", headers["Authorization"])
	}
}

func TestAuthHeadersRetriesThenFails(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	calls := 0
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer ts.Close()

	_, err := testAuthenticator(ts.URL, &memStore{}, now).AuthHeaders(context.Background())
	if err == nil {
		t.Fatal("expected authentication failure")
	}
	if calls != 3 {
		t.Errorf("login should be retried to the bound, got %d calls", calls)
	}
}

func TestFileStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "token.txt")
	store := &FileStore{Path: path}

	if token, err := store.Load(); err != nil || token != "" {
		t.Fatalf("Load on missing file = %q, %v", token, err)
	}

	if err := store.Save("abc123"); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if token, err := store.Load(); err != nil || token != "abc123" {
		t.Errorf("Load = %q, %v", token, err)
	}

	// Overwrite is atomic via rename; the new value fully replaces the old.
	if err := store.Save("def456"); err != nil {
		t.Fatalf("second Save failed: %v", err)
	}
	if token, _ := store.Load(); token != "def456" {
		t.Errorf("Load after overwrite = %q", token)
	}
}
