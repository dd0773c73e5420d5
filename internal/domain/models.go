package domain

import "time"

// QuestionType is a closed enumeration of gradable question kinds.
// The scoring engine switches exhaustively on it; adding a kind means
// extending that switch.
type QuestionType string

const (
	// MultipleChoice questions are graded by exact (case-insensitive) match.
	MultipleChoice QuestionType = "MC"
	// ShortAnswer questions are graded numerically when both sides parse
	// as numbers, otherwise by the similarity matcher.
	ShortAnswer QuestionType = "SA"
)

// Question is a single gradable item within a quiz.
type Question struct {
	ID            string       `json:"question_id"`
	Type          QuestionType `json:"question_type"`
	Prompt        string       `json:"question"`
	CorrectAnswer string       `json:"correct_answer"`
	Options       []string     `json:"options,omitempty"` // MC only; not graded here
}

// Quiz is an immutable set of questions under a topic. It is produced by
// the external question-generation service and read-only to grading.
type Quiz struct {
	ID        string     `json:"id"`
	UserID    string     `json:"user_id"` // creator
	Topic     string     `json:"topic"`
	SubTopic  string     `json:"sub_topic,omitempty"`
	Questions []Question `json:"questions"`
}

// Answer is one raw user answer as submitted.
type Answer struct {
	QuestionID string `json:"question_id"`
	UserAnswer string `json:"user_answer"`
}

// GradedFeedback is the per-question outcome echoed back to the caller and
// stored alongside the submission.
type GradedFeedback struct {
	QuestionID    string `json:"question_id"`
	Correct       bool   `json:"correct"`
	CorrectAnswer string `json:"correct_answer"`
	UserAnswer    string `json:"user_answer"`
	Feedback      string `json:"feedback"`
}

// Submission is one graded attempt at a quiz. Submissions are append-only;
// several may exist per (user, quiz) pair but only the first one counts
// toward the user's cumulative score.
type Submission struct {
	ID       string           `json:"response_id"`
	QuizID   string           `json:"quiz_id"`
	UserID   string           `json:"user_id"`
	Answers  []Answer         `json:"answers"`
	Score    int              `json:"score"` // floored at 0
	Feedback []GradedFeedback `json:"feedback"`
	GradedAt time.Time        `json:"graded_at"`
}

// User carries the identity and cumulative score of an account. TotalScore
// is mutated only by the submission ledger.
type User struct {
	ID                string `json:"user_id"`
	Username          string `json:"username"`
	PreferredLanguage string `json:"preferred_language"`
	TotalScore        int    `json:"total_score"`
}

// GradingResult is the response to a grading call.
type GradingResult struct {
	ResponseID          string           `json:"response_id"`
	Score               int              `json:"score"`
	TotalPossiblePoints int              `json:"total_possible_points"`
	Feedback            []GradedFeedback `json:"feedback"`
	TotalScore          int              `json:"total_score"`
}

// TopicScore aggregates a user's submissions under one quiz topic.
type TopicScore struct {
	Topic     string `json:"topic"`
	Score     int    `json:"score"`
	QuizCount int    `json:"quiz_count"`
}

// TopicScoreReport is the per-user rollup of submissions by topic.
// QuizCount is the raw submission count, including submissions whose quiz
// can no longer be resolved to a topic.
type TopicScoreReport struct {
	TopicScores []TopicScore `json:"topic_scores"`
	TotalScore  int          `json:"total_score"`
	QuizCount   int          `json:"quiz_count"`
	Message     string       `json:"message,omitempty"`
}

// LeaderboardEntry is one user's row on the global scoreboard.
type LeaderboardEntry struct {
	UserID     string `json:"user_id"`
	Username   string `json:"username"`
	TotalScore int    `json:"total_score"`
	QuizCount  int    `json:"quiz_count"`
}

// Leaderboard is the cross-user scoreboard, sorted by TotalScore descending.
type Leaderboard struct {
	Entries    []LeaderboardEntry `json:"leaderboard"`
	TotalUsers int                `json:"total_users"`
}
