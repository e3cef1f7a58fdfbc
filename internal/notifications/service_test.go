package notifications_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"quizreel/internal/config"
	"quizreel/internal/notifications"
)

func TestNewServiceReturnsNoopWhenWebhookMissing(t *testing.T) {
	cfg := config.Default()
	cfg.Notifications.DiscordWebhook = ""
	svc := notifications.NewService(&cfg)
	if err := svc.NotifyVideoUploaded(context.Background(), "Daily Quiz", "vid-1", "short", 5); err != nil {
		t.Fatalf("expected noop notifier to return nil, got %v", err)
	}
}

type captured struct {
	Embeds []struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		Color       int    `json:"color"`
		Fields      []struct {
			Name  string `json:"name"`
			Value string `json:"value"`
		} `json:"fields"`
	} `json:"embeds"`
}

func newWebhookService(t *testing.T) (notifications.Service, *[]captured) {
	t.Helper()
	var messages []captured
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			t.Errorf("read body: %v", err)
		}
		var msg captured
		if err := json.Unmarshal(body, &msg); err != nil {
			t.Errorf("decode webhook payload: %v", err)
		}
		messages = append(messages, msg)
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(server.Close)

	cfg := config.Default()
	cfg.Notifications.DiscordWebhook = server.URL
	return notifications.NewService(&cfg), &messages
}

func TestDiscordServiceSendsEmbeds(t *testing.T) {
	svc, messages := newWebhookService(t)
	ctx := context.Background()

	if err := svc.NotifyVideoUploaded(ctx, "Daily Quiz #3", "vid-789", "short", 5); err != nil {
		t.Fatalf("NotifyVideoUploaded: %v", err)
	}
	if err := svc.NotifyQuotaExhausted(ctx, 2); err != nil {
		t.Fatalf("NotifyQuotaExhausted: %v", err)
	}
	if err := svc.NotifyError(ctx, errors.New("renderer crashed"), "render"); err != nil {
		t.Fatalf("NotifyError: %v", err)
	}
	if err := svc.NotifyRunCompleted(ctx, 3, 1, 42*time.Second); err != nil {
		t.Fatalf("NotifyRunCompleted: %v", err)
	}

	got := *messages
	if len(got) != 4 {
		t.Fatalf("expected 4 webhook posts, got %d", len(got))
	}

	upload := got[0]
	if len(upload.Embeds) != 1 || upload.Embeds[0].Title != "Video Uploaded" {
		t.Fatalf("unexpected upload embed: %+v", upload)
	}
	linkFound := false
	for _, field := range upload.Embeds[0].Fields {
		if field.Name == "Link" && strings.Contains(field.Value, "vid-789") {
			linkFound = true
		}
	}
	if !linkFound {
		t.Fatalf("expected video link field, got %+v", upload.Embeds[0].Fields)
	}

	errEmbed := got[2].Embeds[0]
	if !strings.Contains(errEmbed.Description, "render") || !strings.Contains(errEmbed.Description, "renderer crashed") {
		t.Fatalf("unexpected error description %q", errEmbed.Description)
	}

	runEmbed := got[3].Embeds[0]
	if !strings.Contains(runEmbed.Description, "3 uploaded") || !strings.Contains(runEmbed.Description, "1 failed") {
		t.Fatalf("unexpected run summary %q", runEmbed.Description)
	}
}

func TestDiscordServiceSurfacesHTTPErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	t.Cleanup(server.Close)

	cfg := config.Default()
	cfg.Notifications.DiscordWebhook = server.URL
	svc := notifications.NewService(&cfg)

	if err := svc.TestNotification(context.Background()); err == nil {
		t.Fatal("expected error for rejected webhook post")
	}
}
