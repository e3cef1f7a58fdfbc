package generator_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"quizreel/internal/config"
	"quizreel/internal/services"
	"quizreel/internal/services/generator"
)

func newTestGenerator(t *testing.T, handler http.HandlerFunc) *generator.Generator {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	gen, err := generator.New(config.Generator{
		APIKey:  "test-key",
		BaseURL: server.URL + "/v1",
		Model:   "gpt-4o",
	}, nil)
	if err != nil {
		t.Fatalf("generator.New: %v", err)
	}
	return gen
}

func toolCallResponse(t *testing.T, arguments any) []byte {
	t.Helper()
	args, err := json.Marshal(arguments)
	if err != nil {
		t.Fatalf("marshal arguments: %v", err)
	}
	payload := map[string]any{
		"id":     "chatcmpl-1",
		"object": "chat.completion",
		"model":  "gpt-4o",
		"choices": []map[string]any{
			{
				"index": 0,
				"message": map[string]any{
					"role": "assistant",
					"tool_calls": []map[string]any{
						{
							"id":   "call-1",
							"type": "function",
							"function": map[string]any{
								"name":      "submit_questions",
								"arguments": string(args),
							},
						},
					},
				},
				"finish_reason": "tool_calls",
			},
		},
	}
	encoded, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal response: %v", err)
	}
	return encoded
}

func TestGenerateParsesToolCall(t *testing.T) {
	gen := newTestGenerator(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("unexpected auth header %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(toolCallResponse(t, map[string]any{
			"questions": []map[string]any{
				{
					"text":           "Which planet is known as the Red Planet?",
					"options":        []string{"Mars", "Venus", "Jupiter", "Mercury"},
					"correct_answer": 0,
					"explanation":    "Iron oxide gives Mars its color.",
				},
				{
					"text":           "Which gas do plants absorb during photosynthesis?",
					"options":        []string{"Oxygen", "Carbon dioxide", "Nitrogen", "Helium"},
					"correct_answer": 1,
				},
			},
		}))
	})

	questions, err := gen.Generate(context.Background(), "Science", 2, 2)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(questions) != 2 {
		t.Fatalf("expected 2 questions, got %d", len(questions))
	}
	first := questions[0]
	if first.Topic != "Science" || first.Difficulty != 2 {
		t.Fatalf("unexpected topic/difficulty: %+v", first)
	}
	if first.CorrectIndex != 0 || len(first.Options) != 4 {
		t.Fatalf("unexpected answer data: %+v", first)
	}
	if first.Source != "llm:gpt-4o" {
		t.Fatalf("unexpected source %q", first.Source)
	}
	if err := first.Validate(); err != nil {
		t.Fatalf("generated question should validate: %v", err)
	}
}

func TestGenerateRejectsEmptyTopic(t *testing.T) {
	gen := newTestGenerator(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected for invalid input")
	})
	if _, err := gen.Generate(context.Background(), "  ", 2, 5); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestGenerateAPIFailureIsTransient(t *testing.T) {
	gen := newTestGenerator(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":{"message":"overloaded"}}`))
	})
	if _, err := gen.Generate(context.Background(), "History", 3, 5); !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected ErrTransient, got %v", err)
	}
}

func TestGenerateMissingToolCallFails(t *testing.T) {
	gen := newTestGenerator(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"no tool call"}}]}`))
	})
	if _, err := gen.Generate(context.Background(), "History", 3, 5); !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected ErrTransient, got %v", err)
	}
}

func TestNewRequiresAPIKey(t *testing.T) {
	if _, err := generator.New(config.Generator{}, nil); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
}
