package ai

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// newFakeLLM starts a chat-completion endpoint that answers every request
// with the given content, and a Suggester pointed at it.
func newFakeLLM(t *testing.T, content string) (*Suggester, *[]string) {
	t.Helper()
	var prompts []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		prompts = append(prompts, string(body))
		resp := map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"role": "assistant", "content": content}},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(srv.Close)

	return New(Config{APIKey: "test-key", Model: "test-model", BaseURL: srv.URL + "/v1"}), &prompts
}

// newFailingLLM starts an endpoint that rejects every request.
func newFailingLLM(t *testing.T) *Suggester {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": {"message": "boom"}}`, http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)
	return New(Config{APIKey: "test-key", Model: "test-model", BaseURL: srv.URL + "/v1"})
}

func TestSuggestCategoryTrimsReply(t *testing.T) {
	s, _ := newFakeLLM(t, "  Work \n")
	got := s.SuggestCategory(context.Background(), "Finish report", "quarterly numbers", []string{"Work", "Home"})
	if got != "Work" {
		t.Fatalf("expected %q, got %q", "Work", got)
	}
}

func TestSuggestCategoryPromptCarriesCandidates(t *testing.T) {
	s, prompts := newFakeLLM(t, "Home")
	s.SuggestCategory(context.Background(), "Fix the sink", "", []string{"Work", "Home", "Errands"})
	if len(*prompts) != 1 {
		t.Fatalf("expected 1 request, got %d", len(*prompts))
	}
	if !strings.Contains((*prompts)[0], "Work, Home, Errands") {
		t.Fatalf("prompt does not list candidates: %s", (*prompts)[0])
	}
}

func TestSuggestCategorySendsExplicitZeroTemperature(t *testing.T) {
	s, prompts := newFakeLLM(t, "Work")
	s.SuggestCategory(context.Background(), "Finish report", "", []string{"Work"})
	if len(*prompts) != 1 {
		t.Fatalf("expected 1 request, got %d", len(*prompts))
	}

	var req struct {
		Temperature *float64 `json:"temperature"`
	}
	if err := json.Unmarshal([]byte((*prompts)[0]), &req); err != nil {
		t.Fatalf("decode request: %v", err)
	}
	if req.Temperature == nil {
		t.Fatalf("temperature field missing from request: %s", (*prompts)[0])
	}
	if *req.Temperature > 1e-6 {
		t.Fatalf("expected effectively zero temperature, got %v", *req.Temperature)
	}
}

func TestSuggestNextSubtaskSendsSamplingTemperature(t *testing.T) {
	s, prompts := newFakeLLM(t, `{"title": "Pick a topic", "description": "x"}`)
	s.SuggestNextSubtask(context.Background(), "Write blog post", nil)

	var req struct {
		Temperature *float64 `json:"temperature"`
	}
	if err := json.Unmarshal([]byte((*prompts)[0]), &req); err != nil {
		t.Fatalf("decode request: %v", err)
	}
	if req.Temperature == nil || *req.Temperature < 0.39 || *req.Temperature > 0.41 {
		t.Fatalf("expected temperature 0.4, got %v", req.Temperature)
	}
}

func TestSuggestCategoryFallsBackOnServerError(t *testing.T) {
	s := newFailingLLM(t)
	got := s.SuggestCategory(context.Background(), "Finish report", "", []string{"Work"})
	if got != FallbackCategory {
		t.Fatalf("expected fallback %q, got %q", FallbackCategory, got)
	}
}

func TestSuggestCategoryFallsBackOnUnreachableServer(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()
	s := New(Config{APIKey: "test-key", Model: "test-model", BaseURL: srv.URL + "/v1"})

	got := s.SuggestCategory(context.Background(), "Finish report", "", []string{"Work"})
	if got != FallbackCategory {
		t.Fatalf("expected fallback %q, got %q", FallbackCategory, got)
	}
}

func TestSuggestNextSubtaskParsesReply(t *testing.T) {
	s, _ := newFakeLLM(t, `{"title": "Draft outline", "description": "Sketch the main sections."}`)
	got := s.SuggestNextSubtask(context.Background(), "Write blog post", []string{"Pick a topic"})
	if got == nil {
		t.Fatal("expected a suggestion, got nil")
	}
	if got.Title != "Draft outline" {
		t.Fatalf("unexpected title %q", got.Title)
	}
	if got.Description != "Sketch the main sections." {
		t.Fatalf("unexpected description %q", got.Description)
	}
}

func TestSuggestNextSubtaskRendersNoneForEmptyList(t *testing.T) {
	s, prompts := newFakeLLM(t, `{"title": "Pick a topic", "description": "Choose something."}`)
	s.SuggestNextSubtask(context.Background(), "Write blog post", nil)
	if len(*prompts) != 1 {
		t.Fatalf("expected 1 request, got %d", len(*prompts))
	}
	if !strings.Contains((*prompts)[0], "Existing subtasks: None") {
		t.Fatalf("prompt does not render empty list as None: %s", (*prompts)[0])
	}
}

func TestSuggestNextSubtaskNilOnMalformedReply(t *testing.T) {
	s, _ := newFakeLLM(t, "sure, here is an idea: do the thing")
	if got := s.SuggestNextSubtask(context.Background(), "Write blog post", nil); got != nil {
		t.Fatalf("expected nil on malformed reply, got %+v", got)
	}
}

func TestSuggestNextSubtaskNilOnMissingTitle(t *testing.T) {
	s, _ := newFakeLLM(t, `{"title": "", "description": "no title here"}`)
	if got := s.SuggestNextSubtask(context.Background(), "Write blog post", nil); got != nil {
		t.Fatalf("expected nil on empty title, got %+v", got)
	}
}

func TestSuggestNextSubtaskNilOnServerError(t *testing.T) {
	s := newFailingLLM(t)
	if got := s.SuggestNextSubtask(context.Background(), "Write blog post", nil); got != nil {
		t.Fatalf("expected nil on server error, got %+v", got)
	}
}
