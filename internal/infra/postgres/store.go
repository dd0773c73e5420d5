package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"quiz-grading-service/internal/domain"
)

// Store is the durable submission ledger and user directory backed by
// Postgres via bun.
type Store struct {
	db *bun.DB
}

func NewStore(db *bun.DB) *Store {
	return &Store{db: db}
}

type userRow struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID                string `bun:"id,pk"`
	Username          string `bun:"username"`
	PreferredLanguage string `bun:"preferred_language"`
	TotalScore        int    `bun:"total_score"`
}

type submissionRow struct {
	bun.BaseModel `bun:"table:submissions,alias:s"`

	ID       string                  `bun:"id,pk"`
	QuizID   string                  `bun:"quiz_id"`
	UserID   string                  `bun:"user_id"`
	Answers  []domain.Answer         `bun:"answers,type:jsonb"`
	Score    int                     `bun:"score"`
	Feedback []domain.GradedFeedback `bun:"feedback,type:jsonb"`
	GradedAt time.Time               `bun:"graded_at"`
}

// creditRow marks a (user, quiz) pair as counted toward the cumulative
// score. Its primary key is the linearizable decision point for
// first-submission arbitration: the insert either takes or it does not,
// regardless of isolation level.
type creditRow struct {
	bun.BaseModel `bun:"table:submission_credits"`

	UserID    string    `bun:"user_id,pk"`
	QuizID    string    `bun:"quiz_id,pk"`
	CreatedAt time.Time `bun:"created_at,nullzero"`
}

// GetUser resolves a user account by ID.
func (s *Store) GetUser(ctx context.Context, userID string) (domain.User, error) {
	row := new(userRow)
	err := s.db.NewSelect().Model(row).Where("u.id = ?", userID).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.User{}, domain.ErrUserNotFound
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("load user: %w", err)
	}
	return domain.User{
		ID:                row.ID,
		Username:          row.Username,
		PreferredLanguage: row.PreferredLanguage,
		TotalScore:        row.TotalScore,
	}, nil
}

// Record persists the submission and, iff the (user, quiz) credit row was
// newly inserted, adds the submission's score to the user's total. One
// transaction; any failure rolls the whole write back.
func (s *Store) Record(ctx context.Context, sub *domain.Submission) (int, bool, error) {
	var (
		total int
		first bool
	)
	err := s.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		row := &submissionRow{
			ID:       sub.ID,
			QuizID:   sub.QuizID,
			UserID:   sub.UserID,
			Answers:  sub.Answers,
			Score:    sub.Score,
			Feedback: sub.Feedback,
			GradedAt: sub.GradedAt,
		}
		if _, err := tx.NewInsert().Model(row).Exec(ctx); err != nil {
			return fmt.Errorf("insert submission: %w", err)
		}

		res, err := tx.NewInsert().
			Model(&creditRow{UserID: sub.UserID, QuizID: sub.QuizID, CreatedAt: sub.GradedAt}).
			On("CONFLICT DO NOTHING").
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("insert credit: %w", err)
		}
		inserted, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("credit rows affected: %w", err)
		}
		first = inserted == 1

		if first {
			upd, err := tx.NewUpdate().
				Model((*userRow)(nil)).
				Set("total_score = total_score + ?", sub.Score).
				Where("id = ?", sub.UserID).
				Exec(ctx)
			if err != nil {
				return fmt.Errorf("credit score: %w", err)
			}
			affected, err := upd.RowsAffected()
			if err != nil {
				return fmt.Errorf("score rows affected: %w", err)
			}
			if affected != 1 {
				return domain.ErrUserNotFound
			}
		}

		if err := tx.NewSelect().
			Model((*userRow)(nil)).
			Column("total_score").
			Where("id = ?", sub.UserID).
			Scan(ctx, &total); err != nil {
			return fmt.Errorf("read total: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, false, err
	}
	return total, first, nil
}
