package questionbank

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Question limits enforced at insert time so every stored row is renderable.
const (
	MinQuestionLength = 10
	MaxQuestionLength = 300
	MaxOptionLength   = 100
	MinOptions        = 2
	MaxOptions        = 4
)

var (
	// ErrInsufficientSupply indicates the eligible pool cannot satisfy a
	// reservation request.
	ErrInsufficientSupply = errors.New("insufficient question supply")
	// ErrDuplicate indicates a question whose normalized text already exists.
	ErrDuplicate = errors.New("duplicate question")
	// ErrValidation indicates a question that fails insert-time checks.
	ErrValidation = errors.New("invalid question")
)

// Question is a single trivia question persisted in the bank.
type Question struct {
	ID               int64
	Topic            string
	Difficulty       int
	Text             string
	Options          []string
	CorrectIndex     int
	Source           string
	Explanation      string
	TimesUsed        int
	ReservedAt       *time.Time
	ReservationToken string
	CreatedAt        time.Time
}

// Reserved reports whether the question is claimed by an in-flight batch.
func (q Question) Reserved() bool {
	return q.ReservedAt != nil
}

// Validate checks the invariants every stored question must satisfy.
func (q Question) Validate() error {
	text := strings.TrimSpace(q.Text)
	if len(text) < MinQuestionLength || len(text) > MaxQuestionLength {
		return fmt.Errorf("%w: question text must be %d-%d characters, got %d",
			ErrValidation, MinQuestionLength, MaxQuestionLength, len(text))
	}
	if !strings.Contains(text, "?") {
		return fmt.Errorf("%w: question text must contain a question mark", ErrValidation)
	}
	if strings.Contains(text, "http") || strings.ContainsAny(text, "[]") {
		return fmt.Errorf("%w: question text must not contain URLs or markup", ErrValidation)
	}
	if len(q.Options) < MinOptions || len(q.Options) > MaxOptions {
		return fmt.Errorf("%w: expected %d-%d options, got %d",
			ErrValidation, MinOptions, MaxOptions, len(q.Options))
	}
	seen := make(map[string]struct{}, len(q.Options))
	for i, option := range q.Options {
		trimmed := strings.TrimSpace(option)
		if trimmed == "" || len(trimmed) > MaxOptionLength {
			return fmt.Errorf("%w: option %d must be 1-%d characters", ErrValidation, i, MaxOptionLength)
		}
		key := strings.ToLower(trimmed)
		if _, dup := seen[key]; dup {
			return fmt.Errorf("%w: option %q appears more than once", ErrValidation, trimmed)
		}
		seen[key] = struct{}{}
	}
	if q.CorrectIndex < 0 || q.CorrectIndex >= len(q.Options) {
		return fmt.Errorf("%w: correct index %d out of range for %d options",
			ErrValidation, q.CorrectIndex, len(q.Options))
	}
	return nil
}

// Batch is an ordered set of questions reserved for exactly one job.
// The reservation token is the batch identity: Commit and Release act on the
// token, so repeating either is a no-op once the token has been cleared.
type Batch struct {
	Token      string
	ReservedAt time.Time
	Questions  []Question
	// RelaxedTopics lists topics that appear more than once because the
	// eligible pool was too thin to honour topic diversity.
	RelaxedTopics []string
}

// Size returns the number of questions in the batch.
func (b *Batch) Size() int {
	if b == nil {
		return 0
	}
	return len(b.Questions)
}

// IDs returns the ordered question identifiers in the batch.
func (b *Batch) IDs() []int64 {
	if b == nil {
		return nil
	}
	ids := make([]int64, len(b.Questions))
	for i, q := range b.Questions {
		ids[i] = q.ID
	}
	return ids
}

// Relaxed reports whether topic diversity was relaxed while reserving.
func (b *Batch) Relaxed() bool {
	return b != nil && len(b.RelaxedTopics) > 0
}

// ReservePolicy controls how Reserve picks questions.
type ReservePolicy struct {
	// Count is the exact batch size required.
	Count int
	// UsageCap excludes questions with times_used at or above this value.
	UsageCap int
	// Topic restricts selection to one topic when non-empty.
	Topic string
	// DistinctTopics asks for no two questions sharing a topic; when the pool
	// cannot satisfy it the constraint is relaxed and reported on the batch.
	DistinctTopics bool
	// MaxAge releases reservations older than this before selecting. Zero
	// disables the inline sweep.
	MaxAge time.Duration
}

// PoolStats summarizes the bank for diagnostics.
type PoolStats struct {
	Total    int
	Eligible int
	Reserved int
	Retired  int
}

// TopicCount pairs a topic with its total and eligible row counts.
type TopicCount struct {
	Topic    string
	Total    int
	Eligible int
}

// Video records one successfully uploaded artifact.
type Video struct {
	ID            int64
	Title         string
	FilePath      string
	YouTubeID     string
	Kind          string
	QuestionCount int
	CreatedAt     time.Time
	UploadedAt    *time.Time
}
