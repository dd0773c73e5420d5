package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestGenerateFeedback(t *testing.T) {
	var gotBody chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("unexpected auth header %q", got)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"role": "assistant", "content": "  Try adding the numbers step by step.  "}},
			},
		})
	}))
	defer srv.Close()

	client := NewClient(Config{BaseURL: srv.URL, APIKey: "test-key"})
	text, err := client.GenerateFeedback(context.Background(), "What is 2+2?", "5", "4", "es")
	if err != nil {
		t.Fatalf("generate feedback: %v", err)
	}
	if text != "Try adding the numbers step by step." {
		t.Fatalf("expected trimmed content, got %q", text)
	}
	if len(gotBody.Messages) != 1 {
		t.Fatalf("expected one message, got %d", len(gotBody.Messages))
	}
	prompt := gotBody.Messages[0].Content
	if !strings.Contains(prompt, "What is 2+2?") || !strings.Contains(prompt, "Spanish") {
		t.Fatalf("prompt missing question or language: %q", prompt)
	}
}

func TestGenerateFeedbackServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := NewClient(Config{BaseURL: srv.URL})
	if _, err := client.GenerateFeedback(context.Background(), "q", "a", "b", "en"); err == nil {
		t.Fatal("expected error on 503")
	}
}

func TestGenerateFeedbackTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	client := NewClient(Config{BaseURL: srv.URL, Timeout: 20 * time.Millisecond})
	if _, err := client.GenerateFeedback(context.Background(), "q", "a", "b", "en"); err == nil {
		t.Fatal("expected timeout error")
	}
}

func TestMatchByEmbeddings(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/embeddings" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var req embeddingRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		vectors := [][]float64{{1, 0}, {1, 0}}
		if len(req.Input) == 2 && req.Input[1] == "orthogonal" {
			vectors[1] = []float64{0, 1}
		}
		resp := map[string]interface{}{
			"data": []map[string]interface{}{
				{"embedding": vectors[0]},
				{"embedding": vectors[1]},
			},
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	client := NewClient(Config{BaseURL: srv.URL, SimilarityThreshold: 0.8})

	similar, err := client.Match(context.Background(), "identical", "identical")
	if err != nil {
		t.Fatalf("match: %v", err)
	}
	if !similar {
		t.Fatal("identical vectors must match")
	}

	similar, err = client.Match(context.Background(), "identical", "orthogonal")
	if err != nil {
		t.Fatalf("match: %v", err)
	}
	if similar {
		t.Fatal("orthogonal vectors must not match")
	}
}

func TestCosine(t *testing.T) {
	if _, err := cosine([]float64{1, 2}, []float64{1}); err == nil {
		t.Fatal("expected dimension mismatch error")
	}
	sim, err := cosine([]float64{1, 0}, []float64{1, 0})
	if err != nil {
		t.Fatalf("cosine: %v", err)
	}
	if sim < 0.999 {
		t.Fatalf("expected similarity ~1, got %f", sim)
	}
}

func TestExactMatcher(t *testing.T) {
	m := ExactMatcher{}
	if ok, _ := m.Match(context.Background(), " Homer ", "homer"); !ok {
		t.Fatal("expected normalized equality to match")
	}
	if ok, _ := m.Match(context.Background(), "homer", "hesiod"); ok {
		t.Fatal("expected different strings not to match")
	}
}
