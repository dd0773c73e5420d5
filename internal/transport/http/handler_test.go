package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"quiz-grading-service/internal/app"
	"quiz-grading-service/internal/domain"
	"quiz-grading-service/internal/infra/llm"
	"quiz-grading-service/internal/infra/memory"
)

type staticFeedback struct{}

func (staticFeedback) GenerateFeedback(context.Context, string, string, string, string) (string, error) {
	return "Study the map again.", nil
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	loader := memory.NewStaticQuizLoader(map[string]domain.Quiz{
		"quiz-geo": {
			ID:     "quiz-geo",
			UserID: "u1",
			Topic:  "Geography",
			Questions: []domain.Question{
				{ID: "q1", Type: domain.MultipleChoice, Prompt: "Capital of France?", CorrectAnswer: "Paris", Options: []string{"Paris", "Lyon"}},
				{ID: "q2", Type: domain.ShortAnswer, Prompt: "How many continents?", CorrectAnswer: "7"},
			},
		},
	})
	quizzes := memory.NewQuizRepository(loader, 5*time.Minute)
	store := memory.NewStore(quizzes)
	store.SeedUser(domain.User{ID: "u1", Username: "alice", PreferredLanguage: "en"})

	service := app.NewGradingService(quizzes, store, store, store, llm.ExactMatcher{}, staticFeedback{})
	handler := NewHandler(service)

	mux := http.NewServeMux()
	handler.Register(mux)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func postJSON(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	return resp
}

func TestSubmitEndpoint(t *testing.T) {
	srv := newTestServer(t)

	resp := postJSON(t, srv.URL+"/quizzes/quiz-geo/submissions",
		`{"user_id":"u1","answers":[{"question_id":"q1","user_answer":"paris"},{"question_id":"q2","user_answer":"7"}]}`)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var result domain.GradingResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if result.Score != 20 || result.TotalPossiblePoints != 20 || result.TotalScore != 20 {
		t.Fatalf("unexpected result: %+v", result)
	}
	if result.ResponseID == "" || len(result.Feedback) != 2 {
		t.Fatalf("incomplete response: %+v", result)
	}
}

func TestSubmitEndpointValidation(t *testing.T) {
	srv := newTestServer(t)

	cases := []struct {
		name string
		body string
		want int
	}{
		{"malformed json", `{"user_id":`, http.StatusBadRequest},
		{"missing user", `{"answers":[{"question_id":"q1","user_answer":"x"}]}`, http.StatusBadRequest},
		{"empty answers", `{"user_id":"u1","answers":[]}`, http.StatusBadRequest},
		{"incomplete", `{"user_id":"u1","answers":[{"question_id":"q1","user_answer":"x"}]}`, http.StatusBadRequest},
		{"unknown question", `{"user_id":"u1","answers":[{"question_id":"q1","user_answer":"x"},{"question_id":"zz","user_answer":"y"}]}`, http.StatusBadRequest},
		{"unknown user", `{"user_id":"nobody","answers":[{"question_id":"q1","user_answer":"x"},{"question_id":"q2","user_answer":"y"}]}`, http.StatusNotFound},
	}
	for _, tc := range cases {
		resp := postJSON(t, srv.URL+"/quizzes/quiz-geo/submissions", tc.body)
		resp.Body.Close()
		if resp.StatusCode != tc.want {
			t.Errorf("%s: expected %d, got %d", tc.name, tc.want, resp.StatusCode)
		}
	}

	resp := postJSON(t, srv.URL+"/quizzes/missing/submissions",
		`{"user_id":"u1","answers":[{"question_id":"q1","user_answer":"x"}]}`)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("missing quiz: expected 404, got %d", resp.StatusCode)
	}
}

func TestTopicScoresEndpoint(t *testing.T) {
	srv := newTestServer(t)

	resp := postJSON(t, srv.URL+"/quizzes/quiz-geo/submissions",
		`{"user_id":"u1","answers":[{"question_id":"q1","user_answer":"Paris"},{"question_id":"q2","user_answer":"7"}]}`)
	resp.Body.Close()

	res, err := http.Get(srv.URL + "/users/u1/topic-scores")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.StatusCode)
	}

	var report domain.TopicScoreReport
	if err := json.NewDecoder(res.Body).Decode(&report); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(report.TopicScores) != 1 || report.TopicScores[0].Topic != "Geography" || report.TopicScores[0].Score != 20 {
		t.Fatalf("unexpected report: %+v", report)
	}
}

func TestLeaderboardEndpoint(t *testing.T) {
	srv := newTestServer(t)

	res, err := http.Get(srv.URL + "/leaderboard")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.StatusCode)
	}

	var payload leaderboardResponse
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(payload.Leaderboard) != 0 || payload.Meta.TotalUsers != 0 {
		t.Fatalf("expected empty leaderboard, got %+v", payload)
	}
}

func TestTotalScoreEndpoint(t *testing.T) {
	srv := newTestServer(t)

	res, err := http.Get(srv.URL + "/users/u1/total-score")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.StatusCode)
	}
	var payload totalScoreResponse
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload.TotalScore != 0 {
		t.Fatalf("expected zero total, got %d", payload.TotalScore)
	}

	res, err = http.Get(srv.URL + "/users/nobody/total-score")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	res.Body.Close()
	if res.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown user, got %d", res.StatusCode)
	}
}
