package testsupport

import (
	"path/filepath"
	"testing"

	"quizreel/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.DataDir = filepath.Join(base, "data")
	cfgVal.Paths.OutputDir = filepath.Join(base, "output")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.YouTube.ClientID = "test-client"
	cfgVal.YouTube.ClientSecret = "test-secret"

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithBatchSizes overrides the short and longform batch sizes.
func WithBatchSizes(short, longform int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Selection.ShortBatchSize = short
		b.cfg.Selection.LongformBatchSize = longform
	}
}

// WithUsageCap overrides the selection usage cap.
func WithUsageCap(cap int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Selection.UsageCap = cap
	}
}

// WithTopicRotation sets the topic rotation on the test config.
func WithTopicRotation(topics ...string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Selection.TopicRotation = topics
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.DataDir)
}
