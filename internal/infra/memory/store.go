package memory

import (
	"context"
	"sort"
	"sync"

	"quiz-grading-service/internal/domain"
)

// QuizResolver looks up quiz metadata for the reporting joins.
type QuizResolver interface {
	GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
}

// Store is the in-memory submission ledger, user directory, and score
// reporter. It backs unit tests and the no-database mode of the server,
// with the same first-submission arbitration contract as the Postgres
// store: one decision point per (user, quiz) pair, taken under the lock.
type Store struct {
	quizzes QuizResolver

	mu          sync.Mutex
	users       map[string]*domain.User
	submissions []domain.Submission
	credited    map[string]struct{}
}

func NewStore(quizzes QuizResolver) *Store {
	return &Store{
		quizzes:  quizzes,
		users:    make(map[string]*domain.User),
		credited: make(map[string]struct{}),
	}
}

// SeedUser registers or replaces a user account.
func (s *Store) SeedUser(u domain.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := u
	s.users[u.ID] = &copied
}

func (s *Store) GetUser(_ context.Context, userID string) (domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[userID]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound
	}
	return *user, nil
}

func creditKey(userID, quizID string) string {
	return userID + "\x00" + quizID
}

// Record appends the submission and credits the user's total iff the
// (user, quiz) pair has not been credited before.
func (s *Store) Record(_ context.Context, sub *domain.Submission) (int, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[sub.UserID]
	if !ok {
		return 0, false, domain.ErrUserNotFound
	}

	s.submissions = append(s.submissions, *sub)

	key := creditKey(sub.UserID, sub.QuizID)
	if _, seen := s.credited[key]; seen {
		return user.TotalScore, false, nil
	}
	s.credited[key] = struct{}{}
	user.TotalScore += sub.Score
	return user.TotalScore, true, nil
}

func (s *Store) TopicScores(ctx context.Context, userID string) ([]domain.TopicScore, int, error) {
	s.mu.Lock()
	var userSubs []domain.Submission
	for _, sub := range s.submissions {
		if sub.UserID == userID {
			userSubs = append(userSubs, sub)
		}
	}
	s.mu.Unlock()

	// Quiz resolution happens outside the lock; it may hit a backing store.
	byTopic := make(map[string]*domain.TopicScore)
	for _, sub := range userSubs {
		quiz, err := s.quizzes.GetQuiz(ctx, sub.QuizID)
		if err != nil {
			// Unresolvable quizzes stay in the raw count only.
			continue
		}
		entry, ok := byTopic[quiz.Topic]
		if !ok {
			entry = &domain.TopicScore{Topic: quiz.Topic}
			byTopic[quiz.Topic] = entry
		}
		entry.Score += sub.Score
		entry.QuizCount++
	}

	topics := make([]domain.TopicScore, 0, len(byTopic))
	for _, entry := range byTopic {
		topics = append(topics, *entry)
	}
	sort.Slice(topics, func(i, j int) bool { return topics[i].Topic < topics[j].Topic })
	return topics, len(userSubs), nil
}

func (s *Store) Leaderboard(ctx context.Context) (domain.Leaderboard, error) {
	s.mu.Lock()
	subs := make([]domain.Submission, len(s.submissions))
	copy(subs, s.submissions)
	usernames := make(map[string]string, len(s.users))
	for id, user := range s.users {
		usernames[id] = user.Username
	}
	s.mu.Unlock()

	byUser := make(map[string]*domain.LeaderboardEntry)
	for _, sub := range subs {
		if _, err := s.quizzes.GetQuiz(ctx, sub.QuizID); err != nil {
			continue
		}
		entry, ok := byUser[sub.UserID]
		if !ok {
			name, known := usernames[sub.UserID]
			if !known {
				name = "Unknown User"
			}
			entry = &domain.LeaderboardEntry{UserID: sub.UserID, Username: name}
			byUser[sub.UserID] = entry
		}
		entry.TotalScore += sub.Score
		entry.QuizCount++
	}

	entries := make([]domain.LeaderboardEntry, 0, len(byUser))
	for _, entry := range byUser {
		entries = append(entries, *entry)
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].TotalScore != entries[j].TotalScore {
			return entries[i].TotalScore > entries[j].TotalScore
		}
		return entries[i].Username < entries[j].Username
	})
	return domain.Leaderboard{Entries: entries, TotalUsers: len(entries)}, nil
}
