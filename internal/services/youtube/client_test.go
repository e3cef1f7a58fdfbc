package youtube_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"quizreel/internal/config"
	"quizreel/internal/services"
	"quizreel/internal/services/youtube"
)

type memStore struct {
	mu sync.Mutex
	m  map[string]string
}

func newMemStore() *memStore {
	return &memStore{m: make(map[string]string)}
}

func (s *memStore) Setting(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.m[key]
	return v, ok, nil
}

func (s *memStore) SetSetting(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[key] = value
	return nil
}

func writeVideoFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "quiz.mp4")
	if err := os.WriteFile(path, []byte("fake video bytes"), 0o644); err != nil {
		t.Fatalf("write video file: %v", err)
	}
	return path
}

func newTestClient(t *testing.T, store youtube.TokenStore, handler http.Handler) (*youtube.Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := config.YouTube{
		ClientID:      "client-id",
		ClientSecret:  "client-secret",
		CategoryID:    "27",
		PrivacyStatus: "public",
		Tags:          []string{"quiz", "trivia"},
	}
	client, err := youtube.New(cfg, store, nil,
		youtube.WithBaseURLs(server.URL, server.URL+"/token"),
		youtube.WithHTTPClient(server.Client()))
	if err != nil {
		t.Fatalf("youtube.New: %v", err)
	}
	return client, server
}

func TestUploadRefreshesTokenAndPublishes(t *testing.T) {
	store := newMemStore()
	if err := youtube.SaveRefreshToken(context.Background(), store, "refresh-1"); err != nil {
		t.Fatalf("SaveRefreshToken: %v", err)
	}

	var tokenCalls, sessionCalls int
	mux := http.NewServeMux()
	var serverURL string
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		tokenCalls++
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse token form: %v", err)
		}
		if got := r.Form.Get("refresh_token"); got != "refresh-1" {
			t.Errorf("unexpected refresh token %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"access-1","token_type":"Bearer","expires_in":3600}`))
	})
	mux.HandleFunc("/upload/youtube/v3/videos", func(w http.ResponseWriter, r *http.Request) {
		sessionCalls++
		if got := r.Header.Get("Authorization"); got != "Bearer access-1" {
			t.Errorf("unexpected auth header %q", got)
		}
		w.Header().Set("Location", serverURL+"/upload-session")
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/upload-session", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			t.Errorf("expected PUT, got %s", r.Method)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"vid-123"}`))
	})

	client, server := newTestClient(t, store, mux)
	serverURL = server.URL

	videoID, err := client.Upload(context.Background(), youtube.UploadRequest{
		FilePath: writeVideoFile(t),
		Title:    "Daily Quiz #1",
	})
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if videoID != "vid-123" {
		t.Fatalf("expected vid-123, got %q", videoID)
	}
	if tokenCalls != 1 || sessionCalls != 1 {
		t.Fatalf("expected 1 token and 1 session call, got %d/%d", tokenCalls, sessionCalls)
	}

	// Refreshed access token must be persisted for the next run.
	access, ok, err := store.Setting(context.Background(), "youtube.access_token")
	if err != nil || !ok || access != "access-1" {
		t.Fatalf("expected persisted access token, got %q ok=%v err=%v", access, ok, err)
	}
}

func TestUploadReusesCachedToken(t *testing.T) {
	store := newMemStore()
	ctx := context.Background()
	if err := store.SetSetting(ctx, "youtube.access_token", "cached-token"); err != nil {
		t.Fatal(err)
	}
	expiry := time.Now().Add(time.Hour).UTC().Format(time.RFC3339)
	if err := store.SetSetting(ctx, "youtube.token_expiry", expiry); err != nil {
		t.Fatal(err)
	}

	mux := http.NewServeMux()
	var serverURL string
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		t.Error("token endpoint must not be called with a valid cached token")
	})
	mux.HandleFunc("/upload/youtube/v3/videos", func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer cached-token" {
			t.Errorf("unexpected auth header %q", got)
		}
		w.Header().Set("Location", serverURL+"/upload-session")
	})
	mux.HandleFunc("/upload-session", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id":"vid-456"}`))
	})

	client, server := newTestClient(t, store, mux)
	serverURL = server.URL

	videoID, err := client.Upload(ctx, youtube.UploadRequest{FilePath: writeVideoFile(t), Title: "Cached"})
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if videoID != "vid-456" {
		t.Fatalf("expected vid-456, got %q", videoID)
	}
}

func TestUploadWithoutRefreshTokenFailsAuth(t *testing.T) {
	client, _ := newTestClient(t, newMemStore(), http.NewServeMux())

	_, err := client.Upload(context.Background(), youtube.UploadRequest{FilePath: writeVideoFile(t), Title: "No Auth"})
	if !errors.Is(err, services.ErrAuthExpired) {
		t.Fatalf("expected ErrAuthExpired, got %v", err)
	}
}

func TestUploadClassifiesQuotaExceeded(t *testing.T) {
	store := newMemStore()
	ctx := context.Background()
	store.SetSetting(ctx, "youtube.access_token", "cached-token")
	store.SetSetting(ctx, "youtube.token_expiry", time.Now().Add(time.Hour).UTC().Format(time.RFC3339))

	mux := http.NewServeMux()
	mux.HandleFunc("/upload/youtube/v3/videos", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"error":{"message":"quota","errors":[{"reason":"quotaExceeded"}]}}`))
	})

	client, _ := newTestClient(t, store, mux)

	_, err := client.Upload(ctx, youtube.UploadRequest{FilePath: writeVideoFile(t), Title: "Quota"})
	if !errors.Is(err, services.ErrQuotaExceeded) {
		t.Fatalf("expected ErrQuotaExceeded, got %v", err)
	}
}

func TestUploadClassifiesAuthExpired(t *testing.T) {
	store := newMemStore()
	ctx := context.Background()
	store.SetSetting(ctx, "youtube.access_token", "stale-token")
	store.SetSetting(ctx, "youtube.token_expiry", time.Now().Add(time.Hour).UTC().Format(time.RFC3339))

	mux := http.NewServeMux()
	mux.HandleFunc("/upload/youtube/v3/videos", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"message":"Invalid Credentials"}}`))
	})

	client, _ := newTestClient(t, store, mux)

	_, err := client.Upload(ctx, youtube.UploadRequest{FilePath: writeVideoFile(t), Title: "Expired"})
	if !errors.Is(err, services.ErrAuthExpired) {
		t.Fatalf("expected ErrAuthExpired, got %v", err)
	}
}

func TestUploadServerErrorsAreTransient(t *testing.T) {
	store := newMemStore()
	ctx := context.Background()
	store.SetSetting(ctx, "youtube.access_token", "cached-token")
	store.SetSetting(ctx, "youtube.token_expiry", time.Now().Add(time.Hour).UTC().Format(time.RFC3339))

	mux := http.NewServeMux()
	mux.HandleFunc("/upload/youtube/v3/videos", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	client, _ := newTestClient(t, store, mux)

	_, err := client.Upload(ctx, youtube.UploadRequest{FilePath: writeVideoFile(t), Title: "Flaky"})
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected ErrTransient, got %v", err)
	}
}

func TestUploadMissingFile(t *testing.T) {
	client, _ := newTestClient(t, newMemStore(), http.NewServeMux())

	_, err := client.Upload(context.Background(), youtube.UploadRequest{FilePath: "/nonexistent/video.mp4", Title: "Missing"})
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestNewRequiresCredentials(t *testing.T) {
	_, err := youtube.New(config.YouTube{}, newMemStore(), nil)
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
}

func TestSaveRefreshTokenRejectsEmpty(t *testing.T) {
	err := youtube.SaveRefreshToken(context.Background(), newMemStore(), "  ")
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}
