package app

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"quiz-grading-service/internal/domain"
)

// maxFeedbackCalls bounds how many feedback generations run at once for a
// single submission.
const maxFeedbackCalls = 4

// defaultFeedbackTimeout bounds each individual feedback call; a slow model
// degrades that entry to the fallback text instead of stalling the grading.
const defaultFeedbackTimeout = 15 * time.Second

// QuizRepository loads quiz content (from cache/backing store).
type QuizRepository interface {
	GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
}

// UserDirectory resolves user accounts by ID.
type UserDirectory interface {
	GetUser(ctx context.Context, userID string) (domain.User, error)
}

// SubmissionLedger durably records a graded submission and, exactly once per
// (user, quiz) pair, credits the submission's score to the user's cumulative
// total. The whole operation is a single atomic unit: on error nothing is
// persisted. It reports the user's total after the write and whether this
// submission was counted as the pair's first.
type SubmissionLedger interface {
	Record(ctx context.Context, sub *domain.Submission) (totalScore int, first bool, err error)
}

// ScoreReporter serves the read-side rollups over the submission ledger.
// TopicScores returns the per-topic aggregates plus the user's raw
// submission count, which includes submissions whose quiz no longer resolves.
type ScoreReporter interface {
	TopicScores(ctx context.Context, userID string) ([]domain.TopicScore, int, error)
	Leaderboard(ctx context.Context) (domain.Leaderboard, error)
}

// SimilarityMatcher decides whether two normalized free-text answers are
// equivalent for grading purposes.
type SimilarityMatcher interface {
	Match(ctx context.Context, a, b string) (bool, error)
}

// FeedbackGenerator produces corrective feedback for a wrong answer in the
// user's preferred language. It may fail or time out; failures are masked by
// the grading service, never fatal.
type FeedbackGenerator interface {
	GenerateFeedback(ctx context.Context, question, userAnswer, correctAnswer, language string) (string, error)
}

// GradingService contains the quiz grading and reporting use cases.
type GradingService struct {
	quizzes  QuizRepository
	users    UserDirectory
	ledger   SubmissionLedger
	reports  ScoreReporter
	matcher  SimilarityMatcher
	feedback FeedbackGenerator

	feedbackTimeout time.Duration
	now             func() time.Time
	newID           func() string
}

func NewGradingService(quizzes QuizRepository, users UserDirectory, ledger SubmissionLedger, reports ScoreReporter, matcher SimilarityMatcher, feedback FeedbackGenerator) *GradingService {
	return &GradingService{
		quizzes:         quizzes,
		users:           users,
		ledger:          ledger,
		reports:         reports,
		matcher:         matcher,
		feedback:        feedback,
		feedbackTimeout: defaultFeedbackTimeout,
		now:             time.Now,
		newID:           uuid.NewString,
	}
}

// NewGradingServiceWithClock is test-only for deterministic timestamps and IDs.
func NewGradingServiceWithClock(quizzes QuizRepository, users UserDirectory, ledger SubmissionLedger, reports ScoreReporter, matcher SimilarityMatcher, feedback FeedbackGenerator, now func() time.Time, newID func() string) *GradingService {
	s := NewGradingService(quizzes, users, ledger, reports, matcher, feedback)
	s.now = now
	s.newID = newID
	return s
}

// gradingMiss remembers which feedback slot still needs generated text.
type gradingMiss struct {
	idx      int
	question domain.Question
}

// SubmitGrading validates and scores a submission, generates feedback for
// misses, and records the result through the ledger. Resubmissions are
// accepted and recorded but never move the cumulative score.
func (s *GradingService) SubmitGrading(ctx context.Context, quizID, userID string, answers []domain.Answer) (domain.GradingResult, error) {
	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return domain.GradingResult{}, err
	}
	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return domain.GradingResult{}, err
	}
	if err := validateAnswers(quiz, answers); err != nil {
		return domain.GradingResult{}, err
	}

	questions := make(map[string]domain.Question, len(quiz.Questions))
	for _, q := range quiz.Questions {
		questions[q.ID] = q
	}

	rawTotal := 0
	feedback := make([]domain.GradedFeedback, len(answers))
	var misses []gradingMiss
	for i, ans := range answers {
		q := questions[ans.QuestionID]
		correct, points, err := s.scoreAnswer(ctx, q, ans.UserAnswer)
		if err != nil {
			return domain.GradingResult{}, err
		}
		rawTotal += points

		feedback[i] = domain.GradedFeedback{
			QuestionID:    q.ID,
			Correct:       correct,
			CorrectAnswer: q.CorrectAnswer,
			UserAnswer:    ans.UserAnswer,
		}
		if correct {
			feedback[i].Feedback = correctFeedback
		} else {
			misses = append(misses, gradingMiss{idx: i, question: q})
		}
	}

	// Feedback generation happens before the ledger transaction opens so a
	// slow model call never holds a storage transaction.
	s.fillFeedback(ctx, user.PreferredLanguage, feedback, misses)

	score := rawTotal
	if score < 0 {
		score = 0
	}

	sub := &domain.Submission{
		ID:       s.newID(),
		QuizID:   quiz.ID,
		UserID:   user.ID,
		Answers:  answers,
		Score:    score,
		Feedback: feedback,
		GradedAt: s.now().UTC(),
	}

	total, _, err := s.ledger.Record(ctx, sub)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return domain.GradingResult{}, err
		}
		log.Printf("record submission %s: %v", sub.ID, err)
		return domain.GradingResult{}, domain.ErrSubmitFailed
	}

	return domain.GradingResult{
		ResponseID:          sub.ID,
		Score:               score,
		TotalPossiblePoints: len(quiz.Questions) * pointsCorrect,
		Feedback:            feedback,
		TotalScore:          total,
	}, nil
}

// fillFeedback generates feedback text for every miss, a bounded number of
// calls in flight at a time. Generator failures degrade the affected entry
// to the fallback string; they never fail the submission.
func (s *GradingService) fillFeedback(ctx context.Context, language string, feedback []domain.GradedFeedback, misses []gradingMiss) {
	if len(misses) == 0 {
		return
	}
	g := new(errgroup.Group)
	g.SetLimit(maxFeedbackCalls)
	for _, m := range misses {
		m := m
		g.Go(func() error {
			callCtx, cancel := context.WithTimeout(ctx, s.feedbackTimeout)
			defer cancel()
			text, err := s.feedback.GenerateFeedback(callCtx, m.question.Prompt, feedback[m.idx].UserAnswer, m.question.CorrectAnswer, language)
			if err != nil || strings.TrimSpace(text) == "" {
				if err != nil {
					log.Printf("feedback generation for question %s: %v", m.question.ID, err)
				}
				text = fallbackFeedback
			}
			feedback[m.idx].Feedback = text
			return nil
		})
	}
	_ = g.Wait()
}
