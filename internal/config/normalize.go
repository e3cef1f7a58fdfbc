package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeSelection()
	c.normalizeRenderer()
	c.normalizeYouTube()
	c.normalizeGenerator()
	c.normalizeWorkflow()
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.OutputDir) == "" {
		c.Paths.OutputDir = defaultOutputDir
	}
	if c.Paths.OutputDir, err = expandPath(c.Paths.OutputDir); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeSelection() {
	if c.Selection.ShortBatchSize <= 0 {
		c.Selection.ShortBatchSize = defaultShortBatchSize
	}
	if c.Selection.LongformBatchSize <= 0 {
		c.Selection.LongformBatchSize = defaultLongformBatchSize
	}
	if c.Selection.UsageCap <= 0 {
		c.Selection.UsageCap = defaultUsageCap
	}
	if c.Selection.ReservationMaxAgeMinutes <= 0 {
		c.Selection.ReservationMaxAgeMinutes = defaultReservationMaxAgeMinutes
	}
	topics := make([]string, 0, len(c.Selection.TopicRotation))
	for _, topic := range c.Selection.TopicRotation {
		topics = append(topics, strings.TrimSpace(topic))
	}
	if len(topics) == 0 {
		topics = Default().Selection.TopicRotation
	}
	c.Selection.TopicRotation = topics
}

func (c *Config) normalizeRenderer() {
	c.Renderer.Binary = strings.TrimSpace(c.Renderer.Binary)
	if c.Renderer.Binary == "" {
		c.Renderer.Binary = defaultRendererBinary
	}
	if c.Renderer.TimeoutSeconds <= 0 {
		c.Renderer.TimeoutSeconds = defaultRendererTimeout
	}
	if c.Renderer.Width <= 0 {
		c.Renderer.Width = defaultRendererWidth
	}
	if c.Renderer.Height <= 0 {
		c.Renderer.Height = defaultRendererHeight
	}
}

func (c *Config) normalizeYouTube() {
	if c.YouTube.ClientID == "" {
		if value, ok := os.LookupEnv("QUIZREEL_YT_CLIENT_ID"); ok {
			c.YouTube.ClientID = strings.TrimSpace(value)
		}
	}
	if c.YouTube.ClientSecret == "" {
		if value, ok := os.LookupEnv("QUIZREEL_YT_CLIENT_SECRET"); ok {
			c.YouTube.ClientSecret = strings.TrimSpace(value)
		}
	}
	c.YouTube.CategoryID = strings.TrimSpace(c.YouTube.CategoryID)
	if c.YouTube.CategoryID == "" {
		c.YouTube.CategoryID = defaultYouTubeCategoryID
	}
	c.YouTube.PrivacyStatus = strings.ToLower(strings.TrimSpace(c.YouTube.PrivacyStatus))
	if c.YouTube.PrivacyStatus == "" {
		c.YouTube.PrivacyStatus = defaultYouTubePrivacyStatus
	}
	if c.YouTube.UploadTimeout <= 0 {
		c.YouTube.UploadTimeout = defaultYouTubeUploadTimeout
	}
	if c.YouTube.RequestTimeout <= 0 {
		c.YouTube.RequestTimeout = defaultYouTubeRequestTimeout
	}
}

func (c *Config) normalizeGenerator() {
	if c.Generator.APIKey == "" {
		if value, ok := os.LookupEnv("QUIZREEL_LLM_API_KEY"); ok {
			c.Generator.APIKey = strings.TrimSpace(value)
		}
	}
	c.Generator.BaseURL = strings.TrimRight(strings.TrimSpace(c.Generator.BaseURL), "/")
	if c.Generator.BaseURL == "" {
		c.Generator.BaseURL = defaultGeneratorBaseURL
	}
	c.Generator.Model = strings.TrimSpace(c.Generator.Model)
	if c.Generator.Model == "" {
		c.Generator.Model = defaultGeneratorModel
	}
	if c.Generator.TimeoutSeconds <= 0 {
		c.Generator.TimeoutSeconds = defaultGeneratorTimeout
	}
}

func (c *Config) normalizeWorkflow() {
	if c.Workflow.MaxAttempts <= 0 {
		c.Workflow.MaxAttempts = defaultWorkflowMaxAttempts
	}
	if c.Workflow.RetryBaseDelaySeconds <= 0 {
		c.Workflow.RetryBaseDelaySeconds = defaultWorkflowRetryBaseDelay
	}
	if c.Workflow.PauseBetweenJobsSeconds < 0 {
		c.Workflow.PauseBetweenJobsSeconds = defaultWorkflowPauseBetween
	}
}

func (c *Config) normalizeNotifications() {
	c.Notifications.DiscordWebhook = strings.TrimSpace(c.Notifications.DiscordWebhook)
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNotifyRequestTimeout
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
