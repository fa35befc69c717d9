package classifier

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestAnalyze(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Fatalf("unexpected method: %s", r.Method)
		}
		if r.Header.Get("Ocp-Apim-Subscription-Key") != "key" {
			t.Fatalf("missing subscription key header")
		}
		var req struct {
			Text string `json:"text"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Text != "texto" {
			t.Fatalf("unexpected text: %q", req.Text)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"categoriesAnalysis":[{"category":"Hate","severity":0},{"category":"Violence","severity":2}]}`)
	}))
	defer server.Close()

	client := NewClient(server.URL, "key", time.Second)
	scores, err := client.Analyze(context.Background(), "texto")
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if len(scores) != 2 {
		t.Fatalf("expected 2 scores, got %d", len(scores))
	}
	if scores[0].Category != "Hate" || scores[0].Severity != 0 {
		t.Fatalf("unexpected first score: %+v", scores[0])
	}
	if scores[1].Category != "Violence" || scores[1].Severity != 2 {
		t.Fatalf("unexpected second score: %+v", scores[1])
	}
}

func TestAnalyzeServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(server.URL, "key", time.Second)
	if _, err := client.Analyze(context.Background(), "texto"); err == nil {
		t.Fatal("expected error")
	}
}

func TestAnalyzeMalformedResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `not json`)
	}))
	defer server.Close()

	client := NewClient(server.URL, "key", time.Second)
	if _, err := client.Analyze(context.Background(), "texto"); err == nil {
		t.Fatal("expected error for malformed response")
	}
}

func TestAnalyzeUnreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	client := NewClient(server.URL, "key", 100*time.Millisecond)
	if _, err := client.Analyze(context.Background(), "texto"); err == nil {
		t.Fatal("expected error for unreachable service")
	}
}
