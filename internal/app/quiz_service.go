package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	"school-competition-service/internal/domain"
	"school-competition-service/internal/leaderboard"
	"school-competition-service/internal/selection"
)

// QuestionRepository reads the question bank. Implementations may filter by
// scope server-side; selection still applies every criterion client-side.
type QuestionRepository interface {
	ListQuestions(ctx context.Context, scope domain.QuestionScope) ([]domain.Question, error)
}

// CompetitionRepository loads competition configuration.
type CompetitionRepository interface {
	GetCompetition(ctx context.Context, competitionID string) (domain.Competition, error)
}

// AttemptRepository reads and appends attempt records.
type AttemptRepository interface {
	ListAttemptsByStudent(ctx context.Context, studentID string) ([]domain.Attempt, error)
	ListAttemptsByCompetition(ctx context.Context, competitionID string) ([]domain.Attempt, error)
	ListAttemptsBySchool(ctx context.Context, schoolID string) ([]domain.Attempt, error)
	CreateAttempt(ctx context.Context, attempt domain.Attempt) error
}

// SessionRepository abstracts where live sessions are kept (in-memory, Redis, etc).
type SessionRepository interface {
	Put(session *Session)
	Get(sessionID string) (*Session, bool)
	Delete(sessionID string)
}

// LeaderboardCache stores leaderboard snapshots per scope.
type LeaderboardCache interface {
	GetLeaderboard(ctx context.Context, key string) (domain.Leaderboard, bool, error)
	SetLeaderboard(ctx context.Context, key string, lb domain.Leaderboard) error
	InvalidateScope(ctx context.Context, scope string) error
}

// StartRequest starts a competition attempt.
type StartRequest struct {
	CompetitionID string `json:"competitionId" validate:"required"`
	StudentID     string `json:"studentId" validate:"required"`
	StudentName   string `json:"studentName"`
	SchoolID      string `json:"schoolId"`
}

// PracticeRequest starts an untimed session over a pre-fetched question list.
type PracticeRequest struct {
	StudentID   string            `json:"studentId" validate:"required"`
	StudentName string            `json:"studentName"`
	SchoolID    string            `json:"schoolId"`
	Questions   []domain.Question `json:"questions" validate:"required,min=1,dive"`
}

// LeaderboardQuery picks the attempts to rank. CompetitionID wins over SchoolID
// as the read scope; when both are set the competition attempts are narrowed to the school.
type LeaderboardQuery struct {
	CompetitionID string
	SchoolID      string
	Mode          domain.LeaderboardMode
	// Limit 0 uses the service default; negative returns everyone.
	Limit int
}

// QuizService wires selection, sessions, scoring and rankings to the data store.
type QuizService struct {
	sessions     SessionRepository
	questions    QuestionRepository
	competitions CompetitionRepository
	attempts     AttemptRepository

	clock          Clock
	selector       *selection.Selector
	cache          LeaderboardCache
	persistTimeout time.Duration
	retention      time.Duration
	defaultLimit   int
}

// Option customizes a QuizService.
type Option func(*QuizService)

// WithClock replaces the system clock.
func WithClock(clock Clock) Option {
	return func(s *QuizService) { s.clock = clock }
}

// WithSelector replaces the randomized selector.
func WithSelector(selector *selection.Selector) Option {
	return func(s *QuizService) { s.selector = selector }
}

// WithLeaderboardCache enables leaderboard snapshot caching.
func WithLeaderboardCache(cache LeaderboardCache) Option {
	return func(s *QuizService) { s.cache = cache }
}

// WithPersistTimeout bounds each attempt write.
func WithPersistTimeout(d time.Duration) Option {
	return func(s *QuizService) { s.persistTimeout = d }
}

// WithResultRetention keeps completed sessions readable for d before they are
// evicted. Zero evicts as soon as the attempt is recorded.
func WithResultRetention(d time.Duration) Option {
	return func(s *QuizService) { s.retention = d }
}

// WithLeaderboardLimit sets the default leaderboard length.
func WithLeaderboardLimit(limit int) Option {
	return func(s *QuizService) { s.defaultLimit = limit }
}

func NewQuizService(sessions SessionRepository, questions QuestionRepository, competitions CompetitionRepository, attempts AttemptRepository, opts ...Option) *QuizService {
	s := &QuizService{
		sessions:       sessions,
		questions:      questions,
		competitions:   competitions,
		attempts:       attempts,
		clock:          SystemClock{},
		selector:       selection.NewSelector(),
		persistTimeout: 10 * time.Second,
		retention:      10 * time.Minute,
		defaultLimit:   10,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// StartCompetition selects questions for the student and opens a timed session.
// Prior attempts are read first, then the question pool; a failure in either,
// or an empty selection, aborts before any session exists.
func (s *QuizService) StartCompetition(ctx context.Context, req StartRequest) (*Session, error) {
	competition, err := s.competitions.GetCompetition(ctx, req.CompetitionID)
	if err != nil {
		return nil, err
	}
	if !competition.IsActive {
		return nil, domain.ErrCompetitionInactive
	}
	if err := competition.Validate(); err != nil {
		return nil, err
	}

	prior, err := s.attempts.ListAttemptsByStudent(ctx, req.StudentID)
	if err != nil {
		return nil, fmt.Errorf("load prior attempts: %w", err)
	}
	seen, used := seenQuestions(prior, competition.ID)
	if used >= competition.MaxAttempts {
		return nil, domain.ErrMaxAttemptsReached
	}

	pool, err := s.questions.ListQuestions(ctx, competition.Scope())
	if err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}
	sel, err := s.selector.Select(pool, competition, seen)
	if err != nil {
		return nil, err
	}
	if sel.Partial() {
		log.Printf("competition %s: only %d of %d questions available for student %s", competition.ID, len(sel.Questions), sel.Requested, req.StudentID)
	}

	return s.open(SessionConfig{
		StudentID:   req.StudentID,
		StudentName: req.StudentName,
		SchoolID:    req.SchoolID,
		Competition: &competition,
		Questions:   sel.Questions,
	})
}

// StartPractice opens an untimed session over the supplied questions, skipping selection.
func (s *QuizService) StartPractice(_ context.Context, req PracticeRequest) (*Session, error) {
	if len(req.Questions) == 0 {
		return nil, domain.ErrNoQuestions
	}
	return s.open(SessionConfig{
		StudentID:   req.StudentID,
		StudentName: req.StudentName,
		SchoolID:    req.SchoolID,
		Questions:   req.Questions,
	})
}

// Session returns a live or recently completed session.
func (s *QuizService) Session(sessionID string) (*Session, error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return session, nil
}

// Submit finishes a live session. A session the timer already completed
// answers with its recorded outcome instead of an error.
func (s *QuizService) Submit(ctx context.Context, sessionID string) (Outcome, error) {
	session, err := s.Session(sessionID)
	if err != nil {
		return Outcome{}, err
	}
	outcome, err := session.Submit(ctx)
	if !errors.Is(err, domain.ErrSessionClosed) {
		return outcome, err
	}
	select {
	case <-session.Done():
	case <-ctx.Done():
		return Outcome{}, ctx.Err()
	}
	if outcome, ok := session.Outcome(); ok {
		return outcome, nil
	}
	return Outcome{}, err
}

// Cancel discards a live session.
func (s *QuizService) Cancel(sessionID string) error {
	session, err := s.Session(sessionID)
	if err != nil {
		return err
	}
	return session.Cancel()
}

// RecordAttempt persists a finished attempt and drops stale leaderboard snapshots.
func (s *QuizService) RecordAttempt(ctx context.Context, attempt domain.Attempt) error {
	if err := s.attempts.CreateAttempt(ctx, attempt); err != nil {
		return err
	}
	if s.cache == nil {
		return nil
	}
	var scopes []string
	if attempt.IsCompetition() {
		scopes = append(scopes, competitionScope(*attempt.CompetitionID))
	}
	if attempt.SchoolID != "" {
		scopes = append(scopes, schoolScope(attempt.SchoolID))
	}
	for _, scope := range scopes {
		if err := s.cache.InvalidateScope(ctx, scope); err != nil {
			log.Printf("invalidate leaderboard %s: %v", scope, err)
		}
	}
	return nil
}

// Leaderboard ranks the attempts of a competition or school.
func (s *QuizService) Leaderboard(ctx context.Context, query LeaderboardQuery) (domain.Leaderboard, error) {
	if query.Mode == "" {
		query.Mode = domain.LeaderboardBest
	}
	limit := query.Limit
	if limit == 0 {
		limit = s.defaultLimit
	}

	var scope string
	switch {
	case query.CompetitionID != "":
		scope = competitionScope(query.CompetitionID)
		if query.SchoolID != "" {
			scope += ":" + schoolScope(query.SchoolID)
		}
	case query.SchoolID != "":
		scope = schoolScope(query.SchoolID)
	default:
		return domain.Leaderboard{}, fmt.Errorf("leaderboard needs a competition or school")
	}
	key := scope + ":" + string(query.Mode) + ":" + strconv.Itoa(limit)

	if s.cache != nil {
		if lb, ok, err := s.cache.GetLeaderboard(ctx, key); err == nil && ok {
			return lb, nil
		} else if err != nil {
			log.Printf("leaderboard cache read %s: %v", key, err)
		}
	}

	var attempts []domain.Attempt
	var err error
	if query.CompetitionID != "" {
		attempts, err = s.attempts.ListAttemptsByCompetition(ctx, query.CompetitionID)
		if err == nil && query.SchoolID != "" {
			attempts = filterBySchool(attempts, query.SchoolID)
		}
	} else {
		attempts, err = s.attempts.ListAttemptsBySchool(ctx, query.SchoolID)
	}
	if err != nil {
		return domain.Leaderboard{}, fmt.Errorf("load attempts: %w", err)
	}

	lb := domain.Leaderboard{
		Scope:     scope,
		Mode:      query.Mode,
		Entries:   leaderboard.Aggregate(attempts, query.Mode, limit),
		UpdatedAt: s.clock.Now(),
	}
	if s.cache != nil {
		if err := s.cache.SetLeaderboard(ctx, key, lb); err != nil {
			log.Printf("leaderboard cache write %s: %v", key, err)
		}
	}
	return lb, nil
}

func (s *QuizService) open(cfg SessionConfig) (*Session, error) {
	cfg.Clock = s.clock
	cfg.Recorder = s
	cfg.PersistTimeout = s.persistTimeout
	cfg.OnClose = func(session *Session) {
		id := session.ID()
		if _, completed := session.Outcome(); !completed || s.retention <= 0 {
			s.sessions.Delete(id)
			return
		}
		s.clock.AfterFunc(s.retention, func() { s.sessions.Delete(id) })
	}
	session, err := NewSession(cfg)
	if err != nil {
		return nil, err
	}
	s.sessions.Put(session)
	return session, nil
}

// seenQuestions derives the already-seen set from every prior attempt and
// counts the attempts made in competitionID.
func seenQuestions(prior []domain.Attempt, competitionID string) (selection.IDSet, int) {
	seen := selection.IDSet{}
	used := 0
	for _, a := range prior {
		for _, id := range a.QuestionsSeen {
			seen[id] = struct{}{}
		}
		if a.IsCompetition() && *a.CompetitionID == competitionID {
			used++
		}
	}
	return seen, used
}

func filterBySchool(attempts []domain.Attempt, schoolID string) []domain.Attempt {
	out := attempts[:0:0]
	for _, a := range attempts {
		if a.SchoolID == schoolID {
			out = append(out, a)
		}
	}
	return out
}

func competitionScope(id string) string { return "competition:" + id }

func schoolScope(id string) string { return "school:" + id }
