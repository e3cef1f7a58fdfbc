package render

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"quizreel/internal/questionbank"
)

func sampleSpec() Spec {
	return Spec{
		Title: "Daily Quiz #42",
		Kind:  "short",
		Questions: []questionbank.Question{
			{
				Topic:        "History",
				Difficulty:   2,
				Text:         "Which empire built the Colosseum?",
				Options:      []string{"Roman", "Greek", "Ottoman", "Persian"},
				CorrectIndex: 0,
			},
		},
	}
}

func TestNewCLIWithBinary(t *testing.T) {
	cli := NewCLI(WithBinary("/opt/quizrender"))
	if cli.binary != "/opt/quizrender" {
		t.Fatalf("expected binary override to be applied, got %q", cli.binary)
	}
}

func TestCLIRenderRequiresTitle(t *testing.T) {
	cli := NewCLI()
	spec := sampleSpec()
	spec.Title = ""
	if _, err := cli.Render(context.Background(), spec, t.TempDir(), nil); err == nil {
		t.Fatal("expected error when title is empty")
	}
}

func TestCLIRenderRequiresQuestions(t *testing.T) {
	cli := NewCLI()
	spec := sampleSpec()
	spec.Questions = nil
	if _, err := cli.Render(context.Background(), spec, t.TempDir(), nil); err == nil {
		t.Fatal("expected error when batch is empty")
	}
}

func TestCLIRenderRequiresOutputDir(t *testing.T) {
	cli := NewCLI()
	if _, err := cli.Render(context.Background(), sampleSpec(), "  ", nil); err == nil {
		t.Fatal("expected error when output directory is empty")
	}
}

func TestCLIRenderBuildsArgsAndOutputPath(t *testing.T) {
	var capturedArgs []string
	original := commandContext
	commandContext = func(ctx context.Context, name string, args ...string) *exec.Cmd {
		capturedArgs = append([]string(nil), args...)
		cmd := exec.CommandContext(ctx, os.Args[0], "-test.run=TestHelperProcess")
		cmd.Env = append(os.Environ(), "GO_WANT_HELPER_PROCESS=1", "QUIZRENDER_HELPER_MODE=success")
		return cmd
	}
	t.Cleanup(func() {
		commandContext = original
	})

	cli := NewCLI()
	spec := sampleSpec()
	spec.Width = 1080
	spec.Height = 1920
	outputDir := t.TempDir()

	outputPath, err := cli.Render(context.Background(), spec, outputDir, nil)
	if err != nil {
		t.Fatalf("Render returned error: %v", err)
	}
	if filepath.Dir(outputPath) != outputDir {
		t.Fatalf("expected output under %q, got %q", outputDir, outputPath)
	}
	if !strings.HasSuffix(outputPath, ".mp4") {
		t.Fatalf("expected mp4 output, got %q", outputPath)
	}

	if idx := findArg(capturedArgs, "--kind"); idx == -1 || capturedArgs[idx+1] != "short" {
		t.Fatalf("expected --kind short in args %v", capturedArgs)
	}
	if idx := findArg(capturedArgs, "--width"); idx == -1 || capturedArgs[idx+1] != "1080" {
		t.Fatalf("expected --width 1080 in args %v", capturedArgs)
	}
	if idx := findArg(capturedArgs, "--progress-json"); idx == -1 {
		t.Fatalf("expected --progress-json in args %v", capturedArgs)
	}
}

func TestCLIRenderReportsProgress(t *testing.T) {
	setHelperCommand(t, "success")

	cli := NewCLI()
	var updates []ProgressUpdate
	if _, err := cli.Render(context.Background(), sampleSpec(), t.TempDir(), func(update ProgressUpdate) {
		updates = append(updates, update)
	}); err != nil {
		t.Fatalf("Render returned error: %v", err)
	}
	if len(updates) != 3 {
		t.Fatalf("expected 3 progress updates, got %d", len(updates))
	}
	if updates[len(updates)-1].Percent != 100 {
		t.Fatalf("expected final update at 100 percent, got %f", updates[len(updates)-1].Percent)
	}
	if updates[1].Stage != "compositing" {
		t.Fatalf("expected compositing stage, got %q", updates[1].Stage)
	}
}

func TestCLIRenderFailure(t *testing.T) {
	setHelperCommand(t, "failure")

	cli := NewCLI()
	if _, err := cli.Render(context.Background(), sampleSpec(), t.TempDir(), nil); err == nil {
		t.Fatal("expected render failure error")
	}
}

func TestCLIRenderSkipsInvalidJSON(t *testing.T) {
	setHelperCommand(t, "badjson")

	cli := NewCLI()
	var updates []ProgressUpdate
	if _, err := cli.Render(context.Background(), sampleSpec(), t.TempDir(), func(update ProgressUpdate) {
		updates = append(updates, update)
	}); err != nil {
		t.Fatalf("Render returned error: %v", err)
	}
	if len(updates) != 1 {
		t.Fatalf("expected 1 progress update from valid json, got %d", len(updates))
	}
}

func setHelperCommand(t *testing.T, mode string) {
	t.Helper()
	original := commandContext
	commandContext = func(ctx context.Context, name string, args ...string) *exec.Cmd {
		cmd := exec.CommandContext(ctx, os.Args[0], "-test.run=TestHelperProcess")
		cmd.Env = append(os.Environ(), "GO_WANT_HELPER_PROCESS=1", fmt.Sprintf("QUIZRENDER_HELPER_MODE=%s", mode))
		return cmd
	}
	t.Cleanup(func() {
		commandContext = original
	})
}

func TestHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}

	switch os.Getenv("QUIZRENDER_HELPER_MODE") {
	case "success":
		fmt.Println(`{"percent":0,"stage":"layout","message":"begin"}`)
		fmt.Println(`{"percent":50,"stage":"compositing","message":"frames"}`)
		fmt.Println(`{"percent":100,"stage":"complete","message":"done"}`)
		os.Exit(0)
	case "failure":
		fmt.Fprintln(os.Stderr, "render failed")
		os.Exit(1)
	case "badjson":
		fmt.Println("not-json")
		fmt.Println(`{"percent":75,"stage":"compositing"}`)
		os.Exit(0)
	default:
		os.Exit(0)
	}
}

func findArg(args []string, target string) int {
	for i, arg := range args {
		if arg == target {
			return i
		}
	}
	return -1
}
