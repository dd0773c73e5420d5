package domain

import "errors"

var (
	// ErrQuizNotFound indicates the quiz could not be loaded.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrUserNotFound indicates the user account does not exist.
	ErrUserNotFound = errors.New("user not found")
	// ErrIncompleteSubmission is returned when the answer count does not
	// match the quiz's question count.
	ErrIncompleteSubmission = errors.New("all questions must be answered")
	// ErrUnknownQuestion is returned when a submitted question ID does not
	// belong to the quiz.
	ErrUnknownQuestion = errors.New("unknown question id")
	// ErrSubmitFailed masks storage-layer failures during submission; the
	// underlying cause is logged, never surfaced.
	ErrSubmitFailed = errors.New("failed to submit answers")
)
