package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-playground/validator/v10"

	"quiz-grading-service/internal/app"
	"quiz-grading-service/internal/domain"
)

// Handler exposes the grading use cases over JSON/HTTP. Routing stops here;
// authentication and session handling belong to the surrounding platform.
type Handler struct {
	service  *app.GradingService
	validate *validator.Validate
}

func NewHandler(service *app.GradingService) *Handler {
	return &Handler{
		service:  service,
		validate: validator.New(),
	}
}

// Register wires the grading routes onto the mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /quizzes/{quizID}/submissions", h.handleSubmit)
	mux.HandleFunc("GET /users/{userID}/topic-scores", h.handleTopicScores)
	mux.HandleFunc("GET /users/{userID}/total-score", h.handleTotalScore)
	mux.HandleFunc("GET /leaderboard", h.handleLeaderboard)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
}

type submitAnswer struct {
	QuestionID string `json:"question_id" validate:"required"`
	UserAnswer string `json:"user_answer"`
}

type submitRequest struct {
	UserID  string         `json:"user_id" validate:"required"`
	Answers []submitAnswer `json:"answers" validate:"required,min=1,dive"`
}

type leaderboardResponse struct {
	Leaderboard []domain.LeaderboardEntry `json:"leaderboard"`
	Meta        struct {
		TotalUsers int `json:"total_users"`
	} `json:"meta"`
}

type totalScoreResponse struct {
	TotalScore int `json:"total_score"`
}

type errorPayload struct {
	Error string `json:"error"`
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	quizID := r.PathValue("quizID")

	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "user_id and answers are required")
		return
	}

	answers := make([]domain.Answer, len(req.Answers))
	for i, a := range req.Answers {
		answers[i] = domain.Answer{QuestionID: a.QuestionID, UserAnswer: a.UserAnswer}
	}

	result, err := h.service.SubmitGrading(r.Context(), quizID, req.UserID, answers)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) handleTopicScores(w http.ResponseWriter, r *http.Request) {
	report, err := h.service.TopicScores(r.Context(), r.PathValue("userID"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (h *Handler) handleTotalScore(w http.ResponseWriter, r *http.Request) {
	total, err := h.service.TotalScore(r.Context(), r.PathValue("userID"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, totalScoreResponse{TotalScore: total})
}

func (h *Handler) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	board, err := h.service.Leaderboard(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	resp := leaderboardResponse{Leaderboard: board.Entries}
	resp.Meta.TotalUsers = board.TotalUsers
	writeJSON(w, http.StatusOK, resp)
}

func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrQuizNotFound), errors.Is(err, domain.ErrUserNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrIncompleteSubmission), errors.Is(err, domain.ErrUnknownQuestion):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrSubmitFailed):
		writeError(w, http.StatusInternalServerError, domain.ErrSubmitFailed.Error())
	default:
		log.Printf("internal error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorPayload{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("write response: %v", err)
	}
}
