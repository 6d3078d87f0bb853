package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"stickerlab/backend/internal/models"
)

type chatRequest struct {
	Model    string `json:"model"`
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

func newChatServer(t *testing.T, reply string, seen *chatRequest) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			http.NotFound(w, r)
			return
		}
		if err := json.NewDecoder(r.Body).Decode(seen); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-test",
			"object":  "chat.completion",
			"created": 1700000000,
			"model":   seen.Model,
			"choices": []map[string]any{{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]any{"role": "assistant", "content": reply},
			}},
			"usage": map[string]any{"prompt_tokens": 1, "completion_tokens": 1, "total_tokens": 2},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestOpenAIGeneratorGenerate(t *testing.T) {
	var seen chatRequest
	srv := newChatServer(t, "<svg><title>Cat</title></svg>", &seen)

	g := NewOpenAIGenerator(OpenAIConfig{APIKey: "test", BaseURL: srv.URL + "/v1/", Model: "test-model"})
	res, err := g.Generate(context.Background(), Request{Prompt: "a cat", ContentType: models.ContentTypeSVG})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if res.Title != "Cat" || res.Content != "<svg><title>Cat</title></svg>" {
		t.Fatalf("unexpected result %+v", res)
	}

	if seen.Model != "test-model" {
		t.Fatalf("unexpected model %q", seen.Model)
	}
	if len(seen.Messages) != 2 || seen.Messages[0].Role != "system" || seen.Messages[1].Role != "user" {
		t.Fatalf("unexpected messages %+v", seen.Messages)
	}
	if !strings.Contains(seen.Messages[1].Content, "a cat") {
		t.Fatalf("prompt missing from user message: %q", seen.Messages[1].Content)
	}
}

func TestOpenAIGeneratorEdit(t *testing.T) {
	var seen chatRequest
	srv := newChatServer(t, "<svg><circle/></svg>", &seen)

	g := NewOpenAIGenerator(OpenAIConfig{APIKey: "test", BaseURL: srv.URL + "/v1/", Model: "test-model"})
	res, err := g.Edit(context.Background(), EditRequest{
		Instruction: "make it blue",
		Title:       "Cat",
		Source:      "<svg><rect/></svg>",
		ContentType: models.ContentTypeSVG,
	})
	if err != nil {
		t.Fatalf("edit: %v", err)
	}
	if res.Title != "Cat" || res.Content != "<svg><circle/></svg>" {
		t.Fatalf("unexpected result %+v", res)
	}
	user := seen.Messages[1].Content
	if !strings.Contains(user, "make it blue") || !strings.Contains(user, "<svg><rect/></svg>") {
		t.Fatalf("edit prompt missing source or instruction: %q", user)
	}
}

func TestOpenAIGeneratorUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"message":"bad","type":"invalid_request_error"}}`))
	}))
	defer srv.Close()

	g := NewOpenAIGenerator(OpenAIConfig{APIKey: "test", BaseURL: srv.URL + "/v1/", Model: "m"})
	if _, err := g.Generate(context.Background(), Request{Prompt: "x", ContentType: models.ContentTypeSVG}); err == nil {
		t.Fatal("expected an error from a failing upstream")
	}
}
