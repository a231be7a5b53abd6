package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// FallbackCategory is returned whenever a category suggestion cannot be
// obtained; callers treat it like any other suggestion.
const FallbackCategory = "General"

const (
	// The wire field is omitempty, so a literal 0 would never serialize
	// and the provider would fall back to its own default. The smallest
	// positive float32 round-trips as an explicit (effectively zero)
	// temperature.
	classifyTemperature = math.SmallestNonzeroFloat32
	suggestTemperature  = 0.4
)

// Config carries the settings for the external chat-completion endpoint.
// BaseURL is optional and exists mainly so tests can point the client at a
// local server; any provider with chat-completion semantics works.
type Config struct {
	APIKey  string
	Model   string
	BaseURL string
}

// SubtaskSuggestion is the structured reply of SuggestNextSubtask.
type SubtaskSuggestion struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Suggester wraps the LLM client behind the two suggestion operations. Both
// operations swallow every external failure: classification falls back to
// FallbackCategory, subtask suggestion to nil.
type Suggester struct {
	client *openai.Client
	model  string
}

func New(cfg Config) *Suggester {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	model := cfg.Model
	if model == "" {
		model = openai.GPT4oMini
	}
	return &Suggester{client: openai.NewClientWithConfig(clientCfg), model: model}
}

// SuggestCategory asks the model to classify a task into one of the candidate
// names verbatim. Deterministic (temperature 0). Never fails: any transport or
// decode error is logged and yields FallbackCategory.
func (s *Suggester) SuggestCategory(ctx context.Context, title, description string, candidates []string) string {
	prompt := fmt.Sprintf(
		"I have the following categories available: %s.\n"+
			"Classify the following task INTO ONE of those exact categories.\n"+
			"If none fits well, pick the closest one or %q.\n"+
			"Answer ONLY with the category name, no punctuation or extra explanation.\n\n"+
			"Task: %s\nDescription: %s",
		strings.Join(candidates, ", "), FallbackCategory, title, description,
	)

	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       s.model,
		Temperature: classifyTemperature,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: "You are an expert productivity assistant. Your job is to categorize tasks.",
			},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		log.Printf("ai: suggest category: %v", err)
		return FallbackCategory
	}
	if len(resp.Choices) == 0 {
		log.Printf("ai: suggest category: empty completion")
		return FallbackCategory
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content)
}

// SuggestNextSubtask asks the model for the next actionable subtask of a task,
// given the subtasks that already exist. Sampling temperature is non-zero, so
// repeated calls may differ. Returns nil when no usable suggestion could be
// obtained, including on malformed model output.
func (s *Suggester) SuggestNextSubtask(ctx context.Context, taskTitle string, existingTitles []string) *SubtaskSuggestion {
	existing := "None"
	if len(existingTitles) > 0 {
		existing = strings.Join(existingTitles, ", ")
	}

	prompt := fmt.Sprintf(
		"Task: %s\nExisting subtasks: %s\n\n"+
			"Propose the single next subtask to make progress on this task.\n"+
			"Answer with a JSON object with exactly two fields:\n"+
			`{"title": "<short actionable title>", "description": "<brief description>"}`,
		taskTitle, existing,
	)

	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       s.model,
		Temperature: suggestTemperature,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: "You are an expert productivity assistant. You break tasks into small actionable subtasks.",
			},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		log.Printf("ai: suggest subtask: %v", err)
		return nil
	}
	if len(resp.Choices) == 0 {
		log.Printf("ai: suggest subtask: empty completion")
		return nil
	}

	var suggestion SubtaskSuggestion
	raw := strings.TrimSpace(resp.Choices[0].Message.Content)
	if err := json.Unmarshal([]byte(raw), &suggestion); err != nil {
		log.Printf("ai: suggest subtask: decode %q: %v", raw, err)
		return nil
	}
	if strings.TrimSpace(suggestion.Title) == "" {
		log.Printf("ai: suggest subtask: reply without title")
		return nil
	}
	return &suggestion
}
