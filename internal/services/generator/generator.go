package generator

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"quizreel/internal/config"
	"quizreel/internal/logging"
	"quizreel/internal/questionbank"
	"quizreel/internal/services"
)

const submitQuestionsTool = "submit_questions"

// Generator asks a chat model for new multiple choice questions.
type Generator struct {
	client *openai.Client
	model  string
	logger *slog.Logger
}

// New builds a generator from configuration. BaseURL may point at any
// OpenAI-compatible endpoint.
func New(cfg config.Generator, logger *slog.Logger) (*Generator, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, services.Wrap(services.ErrConfiguration, "generator", "client", "api key required", nil)
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	if cfg.TimeoutSeconds > 0 {
		clientConfig.HTTPClient = &http.Client{Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second}
	}

	model := cfg.Model
	if model == "" {
		model = openai.GPT4o
	}

	return &Generator{
		client: openai.NewClientWithConfig(clientConfig),
		model:  model,
		logger: logging.WithComponent(logger, "generator"),
	}, nil
}

// Generate requests count questions for the topic at the given difficulty.
// The model is forced through a tool call so the payload comes back as
// structured JSON rather than prose.
func (g *Generator) Generate(ctx context.Context, topic string, difficulty, count int) ([]questionbank.Question, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return nil, services.Wrap(services.ErrValidation, "generator", "generate", "topic required", nil)
	}
	if count <= 0 {
		return nil, services.Wrap(services.ErrValidation, "generator", "generate", "count must be positive", nil)
	}
	if difficulty < 1 || difficulty > 5 {
		difficulty = 3
	}

	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: "You are an expert quiz question writer. Generate clear multiple choice questions with exactly 4 plausible options each. Questions must end with a question mark and never reference URLs or images.",
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: buildPrompt(topic, difficulty, count),
			},
		},
		Tools: []openai.Tool{
			{
				Type: openai.ToolTypeFunction,
				Function: &openai.FunctionDefinition{
					Name:        submitQuestionsTool,
					Description: "Submit generated quiz questions",
					Parameters: map[string]any{
						"type": "object",
						"properties": map[string]any{
							"questions": map[string]any{
								"type": "array",
								"items": map[string]any{
									"type": "object",
									"properties": map[string]any{
										"text": map[string]any{
											"type":        "string",
											"description": "The question text",
										},
										"options": map[string]any{
											"type":        "array",
											"items":       map[string]any{"type": "string"},
											"description": "Array of 4 multiple choice options",
										},
										"correct_answer": map[string]any{
											"type":        "integer",
											"description": "0-based index of the correct answer",
										},
										"explanation": map[string]any{
											"type":        "string",
											"description": "Brief explanation of why the answer is correct",
										},
									},
									"required": []string{"text", "options", "correct_answer"},
								},
							},
						},
						"required": []string{"questions"},
					},
				},
			},
		},
		ToolChoice: openai.ToolChoice{
			Type:     openai.ToolTypeFunction,
			Function: openai.ToolFunction{Name: submitQuestionsTool},
		},
	})
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "generator", "generate", "chat completion failed", err)
	}
	if len(resp.Choices) == 0 {
		return nil, services.Wrap(services.ErrTransient, "generator", "generate", "empty response", nil)
	}
	toolCalls := resp.Choices[0].Message.ToolCalls
	if len(toolCalls) == 0 {
		return nil, services.Wrap(services.ErrTransient, "generator", "generate", "no tool call in response", nil)
	}
	call := toolCalls[0]
	if call.Function.Name != submitQuestionsTool {
		return nil, services.Wrap(services.ErrTransient, "generator", "generate",
			fmt.Sprintf("unexpected tool call %q", call.Function.Name), nil)
	}

	var payload struct {
		Questions []struct {
			Text          string   `json:"text"`
			Options       []string `json:"options"`
			CorrectAnswer int      `json:"correct_answer"`
			Explanation   string   `json:"explanation"`
		} `json:"questions"`
	}
	if err := json.Unmarshal([]byte(call.Function.Arguments), &payload); err != nil {
		return nil, services.Wrap(services.ErrTransient, "generator", "generate", "decode tool arguments", err)
	}

	questions := make([]questionbank.Question, 0, len(payload.Questions))
	for _, item := range payload.Questions {
		questions = append(questions, questionbank.Question{
			Topic:        topic,
			Difficulty:   difficulty,
			Text:         item.Text,
			Options:      item.Options,
			CorrectIndex: item.CorrectAnswer,
			Explanation:  item.Explanation,
			Source:       "llm:" + g.model,
		})
	}
	g.logger.Info("generated questions",
		logging.String("topic", topic),
		logging.Int("requested", count),
		logging.Int("received", len(questions)))
	return questions, nil
}

func buildPrompt(topic string, difficulty, count int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Generate %d multiple choice trivia questions about %q.\n", count, topic)
	fmt.Fprintf(&b, "Difficulty level: %d of 5.\n", difficulty)
	b.WriteString("Each question needs exactly 4 options with one correct answer.\n")
	b.WriteString("Keep question text between 10 and 300 characters.\n")
	b.WriteString("Avoid questions whose answer changes over time.")
	return b.String()
}
