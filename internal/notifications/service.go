package notifications

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"quizreel/internal/config"
)

const userAgent = "quizreel/0.1.0"

// Embed colors in Discord's decimal RGB form.
const (
	colorSuccess = 0x2ecc71
	colorInfo    = 0x3498db
	colorWarning = 0xf1c40f
	colorError   = 0xe74c3c
)

// Service defines the notification surface exposed to the workflow runner.
type Service interface {
	NotifyRunStarted(ctx context.Context, kinds []string) error
	NotifyVideoUploaded(ctx context.Context, title, videoID, kind string, questionCount int) error
	NotifyQuotaExhausted(ctx context.Context, uploaded int) error
	NotifyLowSupply(ctx context.Context, topic string, eligible, needed int) error
	NotifyError(ctx context.Context, err error, contextLabel string) error
	NotifyRunCompleted(ctx context.Context, uploaded, failed int, duration time.Duration) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by Discord when configured.
// When no webhook URL is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	webhook := strings.TrimSpace(cfg.Notifications.DiscordWebhook)
	if webhook == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &discordService{
		webhook: webhook,
		client:  &http.Client{Timeout: timeout},
	}
}

type embed struct {
	Title       string       `json:"title"`
	Description string       `json:"description,omitempty"`
	Color       int          `json:"color,omitempty"`
	Fields      []embedField `json:"fields,omitempty"`
	Timestamp   string       `json:"timestamp,omitempty"`
}

type embedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline,omitempty"`
}

type webhookMessage struct {
	Embeds []embed `json:"embeds"`
}

type discordService struct {
	webhook string
	client  *http.Client
}

func (d *discordService) NotifyRunStarted(ctx context.Context, kinds []string) error {
	return d.send(ctx, embed{
		Title:       "Upload Run Started",
		Description: fmt.Sprintf("Producing: %s", strings.Join(kinds, ", ")),
		Color:       colorInfo,
	})
}

func (d *discordService) NotifyVideoUploaded(ctx context.Context, title, videoID, kind string, questionCount int) error {
	title = strings.TrimSpace(title)
	return d.send(ctx, embed{
		Title:       "Video Uploaded",
		Description: title,
		Color:       colorSuccess,
		Fields: []embedField{
			{Name: "Kind", Value: kind, Inline: true},
			{Name: "Questions", Value: fmt.Sprintf("%d", questionCount), Inline: true},
			{Name: "Link", Value: "https://youtu.be/" + videoID},
		},
	})
}

func (d *discordService) NotifyQuotaExhausted(ctx context.Context, uploaded int) error {
	return d.send(ctx, embed{
		Title:       "Upload Quota Exhausted",
		Description: fmt.Sprintf("Stopping after %d uploads, quota window is spent", uploaded),
		Color:       colorWarning,
	})
}

func (d *discordService) NotifyLowSupply(ctx context.Context, topic string, eligible, needed int) error {
	label := topic
	if label == "" {
		label = "any topic"
	}
	return d.send(ctx, embed{
		Title:       "Question Supply Low",
		Description: fmt.Sprintf("Only %d eligible questions for %s, need %d", eligible, label, needed),
		Color:       colorWarning,
	})
}

func (d *discordService) NotifyError(ctx context.Context, err error, contextLabel string) error {
	description := "unknown error"
	if err != nil {
		description = strings.TrimSpace(err.Error())
	}
	if contextLabel = strings.TrimSpace(contextLabel); contextLabel != "" {
		description = contextLabel + ": " + description
	}
	return d.send(ctx, embed{
		Title:       "Pipeline Error",
		Description: description,
		Color:       colorError,
	})
}

func (d *discordService) NotifyRunCompleted(ctx context.Context, uploaded, failed int, duration time.Duration) error {
	duration = duration.Round(time.Second)
	if duration < 0 {
		duration = 0
	}
	color := colorSuccess
	if failed > 0 {
		color = colorWarning
	}
	return d.send(ctx, embed{
		Title:       "Upload Run Complete",
		Description: fmt.Sprintf("%d uploaded, %d failed in %s", uploaded, failed, duration),
		Color:       color,
	})
}

func (d *discordService) TestNotification(ctx context.Context) error {
	return d.send(ctx, embed{
		Title:       "Test Notification",
		Description: "Discord webhook is working",
		Color:       colorInfo,
	})
}

func (d *discordService) send(ctx context.Context, e embed) error {
	e.Timestamp = time.Now().UTC().Format(time.RFC3339)
	body, err := json.Marshal(webhookMessage{Embeds: []embed{e}})
	if err != nil {
		return fmt.Errorf("encode webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.webhook, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("post webhook: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 1024))

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}

type noopService struct{}

func (noopService) NotifyRunStarted(context.Context, []string) error { return nil }
func (noopService) NotifyVideoUploaded(context.Context, string, string, string, int) error {
	return nil
}
func (noopService) NotifyQuotaExhausted(context.Context, int) error           { return nil }
func (noopService) NotifyLowSupply(context.Context, string, int, int) error   { return nil }
func (noopService) NotifyError(context.Context, error, string) error          { return nil }
func (noopService) NotifyRunCompleted(context.Context, int, int, time.Duration) error {
	return nil
}
func (noopService) TestNotification(context.Context) error { return nil }
