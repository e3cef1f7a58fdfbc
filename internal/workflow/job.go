package workflow

import (
	"quizreel/internal/config"
	"quizreel/internal/questionbank"
)

// Kind names the video format a job produces.
type Kind string

const (
	KindShort    Kind = "short"
	KindLongform Kind = "longform"
)

// BatchSize returns the configured question count for this kind.
func (k Kind) BatchSize(cfg *config.Config) int {
	if k == KindLongform {
		return cfg.Selection.LongformBatchSize
	}
	return cfg.Selection.ShortBatchSize
}

// State tracks a job through the pipeline.
type State string

const (
	StateSelecting State = "selecting"
	StateRendering State = "rendering"
	StateUploading State = "uploading"
	StateSucceeded State = "succeeded"
	StateFailed    State = "failed"
)

// Request asks the runner to produce one video.
type Request struct {
	Kind Kind
	// Topic restricts the batch to one topic. Empty means mixed topics with
	// the diversity policy applied.
	Topic string
}

// Job is the runner's record of one video production attempt.
type Job struct {
	ID    int64
	Kind  Kind
	Topic string
	State State

	Batch       *questionbank.Batch
	Title       string
	Description string
	OutputPath  string
	VideoRowID  int64
	VideoID     string

	Attempts int
	Err      error
}

// Succeeded reports whether the job finished with a confirmed upload.
func (j *Job) Succeeded() bool {
	return j != nil && j.State == StateSucceeded
}

// Summary aggregates one run loop's outcomes.
type Summary struct {
	Uploaded     int
	Failed       int
	QuotaStopped bool
}
