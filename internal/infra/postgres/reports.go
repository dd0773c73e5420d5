package postgres

import (
	"context"
	"fmt"

	"quiz-grading-service/internal/domain"
)

// TopicScores aggregates a user's submissions by quiz topic. Submissions
// whose quiz row is gone drop out of the join but still show up in the raw
// submission count.
func (s *Store) TopicScores(ctx context.Context, userID string) ([]domain.TopicScore, int, error) {
	count, err := s.db.NewSelect().
		Model((*submissionRow)(nil)).
		Where("s.user_id = ?", userID).
		Count(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("count submissions: %w", err)
	}

	var topics []domain.TopicScore
	err = s.db.NewSelect().
		ColumnExpr("q.topic AS topic").
		ColumnExpr("SUM(s.score) AS score").
		ColumnExpr("COUNT(*) AS quiz_count").
		TableExpr("submissions AS s").
		Join("JOIN quizzes AS q ON q.id = s.quiz_id").
		Where("s.user_id = ?", userID).
		GroupExpr("q.topic").
		OrderExpr("q.topic ASC").
		Scan(ctx, &topics)
	if err != nil {
		return nil, 0, fmt.Errorf("topic scores: %w", err)
	}
	return topics, count, nil
}

// Leaderboard groups all submissions with a resolvable quiz by user and
// joins user identities for display names.
func (s *Store) Leaderboard(ctx context.Context) (domain.Leaderboard, error) {
	var entries []domain.LeaderboardEntry
	err := s.db.NewSelect().
		ColumnExpr("s.user_id AS user_id").
		ColumnExpr("COALESCE(u.username, 'Unknown User') AS username").
		ColumnExpr("SUM(s.score) AS total_score").
		ColumnExpr("COUNT(*) AS quiz_count").
		TableExpr("submissions AS s").
		Join("JOIN quizzes AS q ON q.id = s.quiz_id").
		Join("LEFT JOIN users AS u ON u.id = s.user_id").
		GroupExpr("s.user_id, u.username").
		OrderExpr("total_score DESC, username ASC").
		Scan(ctx, &entries)
	if err != nil {
		return domain.Leaderboard{}, fmt.Errorf("leaderboard: %w", err)
	}
	if entries == nil {
		entries = []domain.LeaderboardEntry{}
	}
	return domain.Leaderboard{Entries: entries, TotalUsers: len(entries)}, nil
}
