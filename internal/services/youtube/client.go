package youtube

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"quizreel/internal/config"
	"quizreel/internal/logging"
	"quizreel/internal/services"
)

const (
	defaultUploadBase = "https://www.googleapis.com"
	defaultTokenURL   = "https://oauth2.googleapis.com/token"
)

// UploadRequest describes one video to publish.
type UploadRequest struct {
	FilePath      string
	Title         string
	Description   string
	Tags          []string
	CategoryID    string
	PrivacyStatus string
}

// Uploader publishes a rendered video and returns its YouTube ID.
type Uploader interface {
	Upload(ctx context.Context, req UploadRequest) (string, error)
}

// Client talks to the YouTube Data API.
type Client struct {
	clientID      string
	clientSecret  string
	categoryID    string
	privacyStatus string
	tags          []string

	store      TokenStore
	httpClient *http.Client
	logger     *slog.Logger

	uploadBase string
	tokenURL   string
}

// Option configures the client.
type Option func(*Client)

// WithHTTPClient overrides the HTTP client used for API calls.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

// WithBaseURLs overrides the API and token endpoints.
func WithBaseURLs(uploadBase, tokenURL string) Option {
	return func(c *Client) {
		if uploadBase != "" {
			c.uploadBase = strings.TrimRight(uploadBase, "/")
		}
		if tokenURL != "" {
			c.tokenURL = tokenURL
		}
	}
}

// New builds an upload client from configuration. Tokens are read from and
// written to the provided store.
func New(cfg config.YouTube, store TokenStore, logger *slog.Logger, opts ...Option) (*Client, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, services.Wrap(services.ErrConfiguration, "youtube", "client", "client_id and client_secret are required", nil)
	}
	if store == nil {
		return nil, services.Wrap(services.ErrConfiguration, "youtube", "client", "token store is required", nil)
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	timeout := time.Duration(cfg.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	client := &Client{
		clientID:      cfg.ClientID,
		clientSecret:  cfg.ClientSecret,
		categoryID:    cfg.CategoryID,
		privacyStatus: cfg.PrivacyStatus,
		tags:          append([]string(nil), cfg.Tags...),
		store:         store,
		httpClient:    &http.Client{Timeout: timeout},
		logger:        logging.WithComponent(logger, "youtube"),
		uploadBase:    defaultUploadBase,
		tokenURL:      defaultTokenURL,
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

type videoMetadata struct {
	Snippet struct {
		Title       string   `json:"title"`
		Description string   `json:"description"`
		Tags        []string `json:"tags,omitempty"`
		CategoryID  string   `json:"categoryId,omitempty"`
	} `json:"snippet"`
	Status struct {
		PrivacyStatus           string `json:"privacyStatus"`
		SelfDeclaredMadeForKids bool   `json:"selfDeclaredMadeForKids"`
	} `json:"status"`
}

// Upload publishes the file using the resumable upload protocol: an initial
// metadata POST yields a session URL, then the bytes go up in one PUT.
// Returns the assigned video ID.
func (c *Client) Upload(ctx context.Context, req UploadRequest) (string, error) {
	if req.FilePath == "" {
		return "", services.Wrap(services.ErrValidation, "youtube", "upload", "file path required", nil)
	}
	if strings.TrimSpace(req.Title) == "" {
		return "", services.Wrap(services.ErrValidation, "youtube", "upload", "title required", nil)
	}

	info, err := os.Stat(req.FilePath)
	if err != nil {
		return "", services.Wrap(services.ErrNotFound, "youtube", "upload", "video file missing", err)
	}

	token, err := c.accessToken(ctx)
	if err != nil {
		return "", err
	}

	sessionURL, err := c.startSession(ctx, token, req, info.Size())
	if err != nil {
		return "", err
	}

	videoID, err := c.uploadBytes(ctx, token, sessionURL, req.FilePath, info.Size())
	if err != nil {
		return "", err
	}

	attrs := []logging.Attr{
		logging.String("title", req.Title),
		logging.String("video_id", videoID),
		logging.Int64("bytes", info.Size()),
	}
	if jobID, ok := services.JobIDFromContext(ctx); ok {
		attrs = append(attrs, logging.Int64(logging.FieldJobID, jobID))
	}
	if kind, ok := services.JobKindFromContext(ctx); ok {
		attrs = append(attrs, logging.String(logging.FieldJobKind, kind))
	}
	c.logger.Info("upload complete", logging.Args(attrs...)...)
	return videoID, nil
}

func (c *Client) startSession(ctx context.Context, token string, req UploadRequest, size int64) (string, error) {
	var meta videoMetadata
	meta.Snippet.Title = req.Title
	meta.Snippet.Description = req.Description
	meta.Snippet.Tags = req.Tags
	if len(meta.Snippet.Tags) == 0 {
		meta.Snippet.Tags = c.tags
	}
	meta.Snippet.CategoryID = req.CategoryID
	if meta.Snippet.CategoryID == "" {
		meta.Snippet.CategoryID = c.categoryID
	}
	meta.Status.PrivacyStatus = req.PrivacyStatus
	if meta.Status.PrivacyStatus == "" {
		meta.Status.PrivacyStatus = c.privacyStatus
	}

	body, err := json.Marshal(meta)
	if err != nil {
		return "", fmt.Errorf("encode metadata: %w", err)
	}

	endpoint := c.uploadBase + "/upload/youtube/v3/videos?uploadType=resumable&part=snippet,status"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build session request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+token)
	httpReq.Header.Set("Content-Type", "application/json; charset=UTF-8")
	httpReq.Header.Set("X-Upload-Content-Type", "video/*")
	httpReq.Header.Set("X-Upload-Content-Length", strconv.FormatInt(size, 10))

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", services.Wrap(services.ErrTransient, "youtube", "session", "request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", c.classifyAPIError("session", resp)
	}
	location := resp.Header.Get("Location")
	if location == "" {
		return "", services.Wrap(services.ErrTransient, "youtube", "session", "no upload session URL returned", nil)
	}
	return location, nil
}

func (c *Client) uploadBytes(ctx context.Context, token, sessionURL, filePath string, size int64) (string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return "", services.Wrap(services.ErrNotFound, "youtube", "upload", "open video file", err)
	}
	defer file.Close()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPut, sessionURL, file)
	if err != nil {
		return "", fmt.Errorf("build upload request: %w", err)
	}
	httpReq.ContentLength = size
	httpReq.Header.Set("Authorization", "Bearer "+token)
	httpReq.Header.Set("Content-Type", "video/*")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", services.Wrap(services.ErrTransient, "youtube", "upload", "byte transfer failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", c.classifyAPIError("upload", resp)
	}

	var payload struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", services.Wrap(services.ErrTransient, "youtube", "upload", "decode response", err)
	}
	if payload.ID == "" {
		return "", services.Wrap(services.ErrTransient, "youtube", "upload", "response missing video id", nil)
	}
	return payload.ID, nil
}

// classifyAPIError maps API failures onto the pipeline error markers. A 401
// means the grant is gone and retrying is pointless; quota reasons stop the
// run until the daily window resets.
func (c *Client) classifyAPIError(operation string, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	detail := fmt.Sprintf("status %d", resp.StatusCode)

	var apiErr struct {
		Error struct {
			Message string `json:"message"`
			Errors  []struct {
				Reason string `json:"reason"`
			} `json:"errors"`
		} `json:"error"`
	}
	reason := ""
	if err := json.Unmarshal(body, &apiErr); err == nil {
		if apiErr.Error.Message != "" {
			detail = fmt.Sprintf("%s: %s", detail, apiErr.Error.Message)
		}
		if len(apiErr.Error.Errors) > 0 {
			reason = apiErr.Error.Errors[0].Reason
		}
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return services.Wrap(services.ErrAuthExpired, "youtube", operation, detail, nil)
	case reason == "quotaExceeded" || reason == "uploadLimitExceeded" || reason == "dailyLimitExceeded":
		return services.Wrap(services.ErrQuotaExceeded, "youtube", operation, detail, nil)
	case resp.StatusCode == http.StatusForbidden:
		return services.Wrap(services.ErrConfiguration, "youtube", operation, detail, nil)
	case resp.StatusCode >= 500:
		return services.Wrap(services.ErrTransient, "youtube", operation, detail, nil)
	default:
		return services.Wrap(services.ErrExternalTool, "youtube", operation, detail, nil)
	}
}

var _ Uploader = (*Client)(nil)
