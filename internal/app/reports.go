package app

import (
	"context"

	"quiz-grading-service/internal/domain"
)

const noQuizzesMessage = "User has not completed any quizzes yet."

// TopicScores rolls up a user's submissions by quiz topic. A user with no
// submissions gets an empty list and a descriptive message, not an error.
func (s *GradingService) TopicScores(ctx context.Context, userID string) (domain.TopicScoreReport, error) {
	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return domain.TopicScoreReport{}, err
	}

	topics, submissionCount, err := s.reports.TopicScores(ctx, userID)
	if err != nil {
		return domain.TopicScoreReport{}, err
	}
	if topics == nil {
		topics = []domain.TopicScore{}
	}

	report := domain.TopicScoreReport{
		TopicScores: topics,
		TotalScore:  user.TotalScore,
		QuizCount:   submissionCount,
	}
	if submissionCount == 0 {
		report.Message = noQuizzesMessage
	}
	return report, nil
}

// Leaderboard returns the cross-user scoreboard, sorted by total descending.
// An empty ledger yields an empty board.
func (s *GradingService) Leaderboard(ctx context.Context) (domain.Leaderboard, error) {
	return s.reports.Leaderboard(ctx)
}

// TotalScore reads a user's cumulative score.
func (s *GradingService) TotalScore(ctx context.Context, userID string) (int, error) {
	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return 0, err
	}
	return user.TotalScore, nil
}
