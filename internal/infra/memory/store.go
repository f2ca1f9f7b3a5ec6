package memory

import (
	"context"
	"sync"

	"school-competition-service/internal/domain"
)

// Store is an in-memory data store for questions, competitions and attempts
// (useful for tests/demos).
type Store struct {
	mu           sync.RWMutex
	questions    []domain.Question
	competitions map[string]domain.Competition
	attempts     []domain.Attempt
}

func NewStore() *Store {
	return &Store{competitions: make(map[string]domain.Competition)}
}

// AddQuestions appends questions to the bank.
func (s *Store) AddQuestions(questions ...domain.Question) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.questions = append(s.questions, questions...)
}

// PutCompetition inserts or replaces a competition.
func (s *Store) PutCompetition(c domain.Competition) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.competitions[c.ID] = c
}

func (s *Store) ListQuestions(_ context.Context, scope domain.QuestionScope) ([]domain.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Question, 0)
	for _, q := range s.questions {
		if q.GradeID == scope.GradeID && q.SubjectID == scope.SubjectID && q.Term == scope.Term {
			out = append(out, q)
		}
	}
	return out, nil
}

func (s *Store) GetCompetition(_ context.Context, competitionID string) (domain.Competition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.competitions[competitionID]
	if !ok {
		return domain.Competition{}, domain.ErrCompetitionNotFound
	}
	return c, nil
}

func (s *Store) CreateAttempt(_ context.Context, attempt domain.Attempt) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	attempt.QuestionsSeen = append([]string(nil), attempt.QuestionsSeen...)
	s.attempts = append(s.attempts, attempt)
	return nil
}

func (s *Store) ListAttemptsByStudent(_ context.Context, studentID string) ([]domain.Attempt, error) {
	return s.filterAttempts(func(a domain.Attempt) bool { return a.StudentID == studentID }), nil
}

func (s *Store) ListAttemptsByCompetition(_ context.Context, competitionID string) ([]domain.Attempt, error) {
	return s.filterAttempts(func(a domain.Attempt) bool {
		return a.IsCompetition() && *a.CompetitionID == competitionID
	}), nil
}

func (s *Store) ListAttemptsBySchool(_ context.Context, schoolID string) ([]domain.Attempt, error) {
	return s.filterAttempts(func(a domain.Attempt) bool { return a.SchoolID == schoolID }), nil
}

func (s *Store) filterAttempts(keep func(domain.Attempt) bool) []domain.Attempt {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Attempt, 0)
	for _, a := range s.attempts {
		if keep(a) {
			out = append(out, a)
		}
	}
	return out
}
