package completion

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/xiaot623/modgate/domain"
)

func TestComplete(t *testing.T) {
	var gotReq ChatCompletionRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer key" {
			t.Fatalf("missing bearer token")
		}
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"c1","object":"chat.completion","created":1,"model":"gpt-3.5-turbo","choices":[{"index":0,"message":{"role":"assistant","content":"CDB é um título bancário."},"finish_reason":"stop"}]}`)
	}))
	defer server.Close()

	client := NewClient(server.URL, "key", "gpt-3.5-turbo", time.Second)
	turns := []domain.Turn{
		{Role: domain.RoleSystem, Content: "você é um assistente"},
		{Role: domain.RoleUser, Content: "O que é CDB?"},
	}
	text, err := client.Complete(context.Background(), turns, 0.4, 600)
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if text != "CDB é um título bancário." {
		t.Fatalf("unexpected text: %q", text)
	}

	if gotReq.Model != "gpt-3.5-turbo" {
		t.Fatalf("unexpected model: %q", gotReq.Model)
	}
	if len(gotReq.Messages) != 2 || gotReq.Messages[0].Role != "system" || gotReq.Messages[1].Role != "user" {
		t.Fatalf("unexpected messages: %+v", gotReq.Messages)
	}
	if gotReq.Temperature == nil || *gotReq.Temperature != 0.4 {
		t.Fatalf("unexpected temperature: %v", gotReq.Temperature)
	}
	if gotReq.MaxTokens == nil || *gotReq.MaxTokens != 600 {
		t.Fatalf("unexpected max_tokens: %v", gotReq.MaxTokens)
	}
}

func TestCompleteAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		fmt.Fprint(w, `{"error":{"message":"rate limited","type":"rate_limit_error"}}`)
	}))
	defer server.Close()

	client := NewClient(server.URL, "key", "gpt-3.5-turbo", time.Second)
	_, err := client.Complete(context.Background(), []domain.Turn{{Role: domain.RoleUser, Content: "oi"}}, 0, 0)
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestCompleteNoChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"id":"c1","choices":[]}`)
	}))
	defer server.Close()

	client := NewClient(server.URL, "", "gpt-3.5-turbo", time.Second)
	_, err := client.Complete(context.Background(), []domain.Turn{{Role: domain.RoleUser, Content: "oi"}}, 0, 0)
	if err == nil {
		t.Fatal("expected error for empty choices")
	}
}
