package app

import (
	"fmt"

	"quiz-grading-service/internal/domain"
)

// validateAnswers checks a candidate answer list for structural completeness
// against the quiz before any scoring happens. Pure check, no side effects.
func validateAnswers(quiz domain.Quiz, answers []domain.Answer) error {
	if len(answers) != len(quiz.Questions) {
		return fmt.Errorf("%w: expected %d answers, got %d",
			domain.ErrIncompleteSubmission, len(quiz.Questions), len(answers))
	}
	known := make(map[string]struct{}, len(quiz.Questions))
	for _, q := range quiz.Questions {
		known[q.ID] = struct{}{}
	}
	for _, ans := range answers {
		if _, ok := known[ans.QuestionID]; !ok {
			return fmt.Errorf("%w: %s", domain.ErrUnknownQuestion, ans.QuestionID)
		}
	}
	return nil
}
