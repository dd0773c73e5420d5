package llm

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
)

func cosine(a, b []float64) (float64, error) {
	if len(a) != len(b) || len(a) == 0 {
		return 0, fmt.Errorf("embedding dimensions mismatch: %d vs %d", len(a), len(b))
	}
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0, nil
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB)), nil
}

// ExactMatcher is the no-network similarity fallback used when no embedding
// endpoint is configured: answers must match exactly after normalization.
type ExactMatcher struct{}

func (ExactMatcher) Match(_ context.Context, a, b string) (bool, error) {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b)), nil
}

// DisabledFeedback reports feedback generation as unavailable; the grading
// service degrades every miss to its fallback text.
type DisabledFeedback struct{}

func (DisabledFeedback) GenerateFeedback(context.Context, string, string, string, string) (string, error) {
	return "", errors.New("feedback generation not configured")
}
