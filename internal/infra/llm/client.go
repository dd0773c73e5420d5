package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const (
	defaultTimeout        = 15 * time.Second
	defaultChatModel      = "gpt-4o-mini"
	defaultEmbeddingModel = "text-embedding-3-small"
	defaultThreshold      = 0.8
)

// Config wires the OpenAI-compatible endpoint used for feedback generation
// and answer similarity.
type Config struct {
	BaseURL        string
	APIKey         string
	ChatModel      string
	EmbeddingModel string
	Timeout        time.Duration
	// SimilarityThreshold is the minimum cosine similarity between the two
	// answers' embeddings to count them as equivalent.
	SimilarityThreshold float64
}

// Client talks to an OpenAI-compatible API. It implements both the feedback
// generator and the similarity matcher sides of grading.
type Client struct {
	httpClient     *http.Client
	baseURL        string
	apiKey         string
	chatModel      string
	embeddingModel string
	threshold      float64
}

func NewClient(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.ChatModel == "" {
		cfg.ChatModel = defaultChatModel
	}
	if cfg.EmbeddingModel == "" {
		cfg.EmbeddingModel = defaultEmbeddingModel
	}
	if cfg.SimilarityThreshold <= 0 {
		cfg.SimilarityThreshold = defaultThreshold
	}
	return &Client{
		httpClient:     &http.Client{Timeout: cfg.Timeout},
		baseURL:        strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:         cfg.APIKey,
		chatModel:      cfg.ChatModel,
		embeddingModel: cfg.EmbeddingModel,
		threshold:      cfg.SimilarityThreshold,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// GenerateFeedback asks the model for corrective feedback on a wrong
// answer, phrased in the user's preferred language.
func (c *Client) GenerateFeedback(ctx context.Context, question, userAnswer, correctAnswer, language string) (string, error) {
	name := languageName(language)
	prompt := fmt.Sprintf(
		"You are an educational assistant helping users (5-15 years old) understand their mistakes in quizzes.\n\n"+
			"Question: %s (%s)\n"+
			"User's Answer: %s (%s)\n"+
			"Correct Answer: %s (%s)\n\n"+
			"Provide constructive and detailed feedback in %s that explains why the user's answer is incorrect "+
			"and how to arrive at the correct answer. Ensure the feedback is clear, educational, and encourages "+
			"the user to understand the concept better.\n\n"+
			"Feedback:",
		question, name, userAnswer, name, correctAnswer, name, name,
	)

	var resp chatResponse
	err := c.post(ctx, "/chat/completions", chatRequest{
		Model:    c.chatModel,
		Messages: []chatMessage{{Role: "user", Content: prompt}},
	}, &resp)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

type embeddingRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embeddingResponse struct {
	Data []struct {
		Embedding []float64 `json:"embedding"`
	} `json:"data"`
}

// Match embeds both answers and compares them by cosine similarity.
func (c *Client) Match(ctx context.Context, a, b string) (bool, error) {
	var resp embeddingResponse
	err := c.post(ctx, "/embeddings", embeddingRequest{
		Model: c.embeddingModel,
		Input: []string{a, b},
	}, &resp)
	if err != nil {
		return false, err
	}
	if len(resp.Data) != 2 {
		return false, fmt.Errorf("embeddings returned %d vectors, want 2", len(resp.Data))
	}
	sim, err := cosine(resp.Data[0].Embedding, resp.Data[1].Embedding)
	if err != nil {
		return false, err
	}
	return sim >= c.threshold, nil
}

func (c *Client) post(ctx context.Context, path string, payload, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("call %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("call %s: unexpected status %d", path, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}
