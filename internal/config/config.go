package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	DataDir   string `toml:"data_dir"`
	OutputDir string `toml:"output_dir"`
	LogDir    string `toml:"log_dir"`
}

// Selection contains batch sizing and rotation policy for question selection.
type Selection struct {
	ShortBatchSize    int `toml:"short_batch_size"`
	LongformBatchSize int `toml:"longform_batch_size"`
	// UsageCap is the number of committed uses after which a question leaves
	// the eligible pool.
	UsageCap int `toml:"usage_cap"`
	// ReservationMaxAgeMinutes bounds how long a reservation may dangle before
	// the sweep returns its questions to the eligible pool.
	ReservationMaxAgeMinutes int `toml:"reservation_max_age_minutes"`
	// TopicRotation cycles consecutive videos through these topics. An empty
	// entry means "any topic".
	TopicRotation []string `toml:"topic_rotation"`
}

// Renderer contains configuration for the external video renderer.
type Renderer struct {
	Binary         string `toml:"binary"`
	TimeoutSeconds int    `toml:"timeout"`
	Width          int    `toml:"width"`
	Height         int    `toml:"height"`
}

// YouTube contains upload client configuration. OAuth tokens themselves live
// in the settings table, not in the config file.
type YouTube struct {
	ClientID       string   `toml:"client_id"`
	ClientSecret   string   `toml:"client_secret"`
	CategoryID     string   `toml:"category_id"`
	PrivacyStatus  string   `toml:"privacy_status"`
	Tags           []string `toml:"tags"`
	UploadTimeout  int      `toml:"upload_timeout"`
	RequestTimeout int      `toml:"request_timeout"`
}

// Generator contains LLM connection settings for question generation.
type Generator struct {
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	Model          string `toml:"model"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Workflow contains retry and pacing settings for the upload pipeline.
type Workflow struct {
	// MaxAttempts bounds render/upload attempts per job, first try included.
	MaxAttempts int `toml:"max_attempts"`
	// RetryBaseDelaySeconds seeds the exponential backoff between attempts.
	RetryBaseDelaySeconds int `toml:"retry_base_delay"`
	// PauseBetweenJobsSeconds spaces consecutive uploads.
	PauseBetweenJobsSeconds int `toml:"pause_between_jobs"`
}

// Notifications contains Discord webhook settings.
type Notifications struct {
	DiscordWebhook string `toml:"discord_webhook"`
	RequestTimeout int    `toml:"request_timeout"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for quizreel.
//
// Configuration sections by subsystem:
//   - Paths: data, output, and log directories
//   - Selection: batch sizes, usage cap, reservation age, topic rotation
//   - Renderer: external renderer binary and timeout
//   - YouTube: OAuth client and upload metadata defaults
//   - Generator: LLM connection for question generation
//   - Workflow: retry attempts, backoff, pacing
//   - Notifications: Discord webhook settings
//   - Logging: log format and level
type Config struct {
	Paths         Paths         `toml:"paths"`
	Selection     Selection     `toml:"selection"`
	Renderer      Renderer      `toml:"renderer"`
	YouTube       YouTube       `toml:"youtube"`
	Generator     Generator     `toml:"generator"`
	Workflow      Workflow      `toml:"workflow"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/quizreel/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config
// has all path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("quizreel.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories required for a pipeline run.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.OutputDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// DatabasePath returns the location of the question bank database file.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Paths.DataDir, "quizreel.db")
}

// LockPath returns the location of the pipeline run lock file.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.DataDir, "quizreel.lock")
}

// SampleConfig returns the embedded sample configuration text.
func SampleConfig() string {
	return sampleConfig
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}
