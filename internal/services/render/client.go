package render

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"quizreel/internal/questionbank"
	"quizreel/internal/textutil"
)

var commandContext = exec.CommandContext

// ProgressUpdate captures renderer progress events.
type ProgressUpdate struct {
	Percent float64
	Stage   string
	Message string
}

// Spec describes one render invocation.
type Spec struct {
	Title     string
	Kind      string
	Width     int
	Height    int
	Questions []questionbank.Question
}

// Client defines renderer behaviour.
type Client interface {
	Render(ctx context.Context, spec Spec, outputDir string, progress func(ProgressUpdate)) (string, error)
}

// Option configures the CLI client.
type Option func(*CLI)

// WithBinary overrides the default binary name.
func WithBinary(binary string) Option {
	return func(c *CLI) {
		if binary != "" {
			c.binary = binary
		}
	}
}

// CLI wraps the quizrender command-line renderer.
type CLI struct {
	binary string
}

// NewCLI constructs a CLI client using defaults.
func NewCLI(opts ...Option) *CLI {
	cli := &CLI{binary: "quizrender"}
	for _, opt := range opts {
		opt(cli)
	}
	return cli
}

type questionPayload struct {
	Text         string   `json:"text"`
	Options      []string `json:"options"`
	CorrectIndex int      `json:"correct_index"`
	Topic        string   `json:"topic"`
	Difficulty   int      `json:"difficulty"`
}

type renderPayload struct {
	Title     string            `json:"title"`
	Kind      string            `json:"kind"`
	Questions []questionPayload `json:"questions"`
}

// Render launches the renderer with the batch on stdin and returns the output
// file path. Progress events arrive as JSON lines on stdout; lines that do not
// parse are ignored so plain diagnostics pass through harmlessly.
func (c *CLI) Render(ctx context.Context, spec Spec, outputDir string, progress func(ProgressUpdate)) (string, error) {
	if spec.Title == "" {
		return "", errors.New("render title required")
	}
	if len(spec.Questions) == 0 {
		return "", errors.New("render requires at least one question")
	}
	cleanOutputDir := strings.TrimSpace(outputDir)
	if cleanOutputDir == "" {
		return "", errors.New("output directory required")
	}

	outputPath := filepath.Join(cleanOutputDir, textutil.SanitizeFileName(spec.Title)+".mp4")

	payload := renderPayload{
		Title:     spec.Title,
		Kind:      spec.Kind,
		Questions: make([]questionPayload, 0, len(spec.Questions)),
	}
	for _, q := range spec.Questions {
		payload.Questions = append(payload.Questions, questionPayload{
			Text:         q.Text,
			Options:      q.Options,
			CorrectIndex: q.CorrectIndex,
			Topic:        q.Topic,
			Difficulty:   q.Difficulty,
		})
	}
	encoded, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("encode render payload: %w", err)
	}

	args := []string{"render", "--output", outputPath, "--progress-json"}
	if spec.Kind != "" {
		args = append(args, "--kind", spec.Kind)
	}
	if spec.Width > 0 && spec.Height > 0 {
		args = append(args, "--width", strconv.Itoa(spec.Width), "--height", strconv.Itoa(spec.Height))
	}

	cmd := commandContext(ctx, c.binary, args...) //nolint:gosec
	cmd.Stdin = bytes.NewReader(encoded)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return "", fmt.Errorf("stdout pipe: %w", err)
	}
	cmd.Stderr = cmd.Stdout
	if err := cmd.Start(); err != nil {
		return "", fmt.Errorf("start renderer: %w", err)
	}

	scanner := bufio.NewScanner(stdout)
	for scanner.Scan() {
		line := scanner.Bytes()
		var event struct {
			Percent float64 `json:"percent"`
			Stage   string  `json:"stage"`
			Message string  `json:"message"`
		}
		if err := json.Unmarshal(line, &event); err != nil {
			continue
		}
		if progress != nil {
			progress(ProgressUpdate{Percent: event.Percent, Stage: event.Stage, Message: event.Message})
		}
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("read renderer output: %w", err)
	}

	if err := cmd.Wait(); err != nil {
		return "", fmt.Errorf("renderer failed: %w", err)
	}

	return outputPath, nil
}

var _ Client = (*CLI)(nil)
