package app

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"quiz-grading-service/internal/domain"
)

const (
	pointsCorrect   = 10
	pointsIncorrect = -5

	correctFeedback  = "Correct answer! Well done."
	fallbackFeedback = "No feedback available."
)

// normalizeAnswer trims whitespace and lower-cases; both sides of every
// comparison go through it.
func normalizeAnswer(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// scoreAnswer grades one answer against its question and returns the
// correctness verdict with the point delta. Deltas may be negative; the
// floor is applied to the submission total, never per question.
func (s *GradingService) scoreAnswer(ctx context.Context, q domain.Question, rawAnswer string) (bool, int, error) {
	userAnswer := normalizeAnswer(rawAnswer)
	correctAnswer := normalizeAnswer(q.CorrectAnswer)

	switch q.Type {
	case domain.MultipleChoice:
		if userAnswer == correctAnswer {
			return true, pointsCorrect, nil
		}
		return false, pointsIncorrect, nil

	case domain.ShortAnswer:
		userNum, userErr := strconv.ParseFloat(userAnswer, 64)
		correctNum, correctErr := strconv.ParseFloat(correctAnswer, 64)
		if userErr == nil && correctErr == nil {
			if userNum == correctNum {
				return true, pointsCorrect, nil
			}
			return false, pointsIncorrect, nil
		}
		// Non-numeric free text goes through the similarity matcher.
		similar, err := s.matcher.Match(ctx, userAnswer, correctAnswer)
		if err != nil {
			return false, 0, fmt.Errorf("similarity match for question %s: %w", q.ID, err)
		}
		if similar {
			return true, pointsCorrect, nil
		}
		return false, pointsIncorrect, nil

	default:
		return false, 0, fmt.Errorf("unsupported question type %q", q.Type)
	}
}
