package app

import (
	"context"
	"log"
	"math"
	"sync"
	"time"

	"school-competition-service/internal/domain"
	"school-competition-service/internal/scoring"

	"github.com/google/uuid"
)

// State is the lifecycle position of a quiz session.
type State string

const (
	StateInProgress State = "in_progress"
	StateRevealed   State = "revealed"
	StateCompleted  State = "completed"
	StateCancelled  State = "cancelled"
)

// AttemptRecorder persists the attempt of a finished session.
type AttemptRecorder interface {
	RecordAttempt(ctx context.Context, attempt domain.Attempt) error
}

// SessionConfig is everything needed to open a session.
type SessionConfig struct {
	ID          string
	StudentID   string
	StudentName string
	SchoolID    string
	// Competition is nil for practice sessions, which are untimed.
	Competition    *domain.Competition
	Questions      []domain.Question
	Clock          Clock
	Recorder       AttemptRecorder
	PersistTimeout time.Duration
	// OnClose runs once after the session completes or is cancelled.
	OnClose func(*Session)
}

// Outcome is the final result of a completed session.
type Outcome struct {
	Attempt   domain.Attempt `json:"attempt"`
	Result    scoring.Result `json:"result"`
	Forced    bool           `json:"forced"`
	Persisted bool           `json:"persisted"`
}

// QuestionView is a question as shown to the student.
type QuestionView struct {
	ID         string            `json:"id"`
	Text       string            `json:"questionText"`
	Options    []string          `json:"options"`
	Difficulty domain.Difficulty `json:"difficulty,omitempty"`
	// CorrectOption is only filled once the answer is revealed.
	CorrectOption string `json:"correctOption,omitempty"`
}

// SessionView is a point-in-time snapshot of a session.
type SessionView struct {
	ID               string           `json:"id"`
	StudentID        string           `json:"studentId"`
	CompetitionID    string           `json:"competitionId,omitempty"`
	State            State            `json:"state"`
	CurrentIndex     int              `json:"currentIndex"`
	TotalQuestions   int              `json:"totalQuestions"`
	Question         *QuestionView    `json:"question,omitempty"`
	SelectedOption   string           `json:"selectedOption,omitempty"`
	Correct          *bool            `json:"correct,omitempty"`
	TimerMode        domain.TimerMode `json:"timerMode,omitempty"`
	RemainingSeconds *int             `json:"remainingSeconds,omitempty"`
	LiveScore        scoring.Result   `json:"liveScore"`
	Outcome          *Outcome         `json:"outcome,omitempty"`
}

// Session is one student's attempt at a quiz. All methods are safe for
// concurrent use; the deadline callback and client calls serialize on mu.
type Session struct {
	id             string
	studentID      string
	studentName    string
	schoolID       string
	competition    *domain.Competition
	questions      []domain.Question
	clock          Clock
	recorder       AttemptRecorder
	persistTimeout time.Duration
	onClose        func(*Session)

	mu          sync.Mutex
	state       State
	current     int
	answers     map[int]string
	startedAt   time.Time
	deadline    time.Time
	timer       Timer
	timerGen    uint64
	outcome     *Outcome
	done        chan struct{}
	subscribers map[chan SessionView]struct{}
}

// NewSession opens a session on its first question and starts the countdown.
func NewSession(cfg SessionConfig) (*Session, error) {
	if len(cfg.Questions) == 0 {
		return nil, domain.ErrNoQuestions
	}
	if cfg.ID == "" {
		cfg.ID = uuid.NewString()
	}
	if cfg.Clock == nil {
		cfg.Clock = SystemClock{}
	}
	if cfg.PersistTimeout <= 0 {
		cfg.PersistTimeout = 10 * time.Second
	}
	questions := make([]domain.Question, len(cfg.Questions))
	copy(questions, cfg.Questions)

	s := &Session{
		id:             cfg.ID,
		studentID:      cfg.StudentID,
		studentName:    cfg.StudentName,
		schoolID:       cfg.SchoolID,
		competition:    cfg.Competition,
		questions:      questions,
		clock:          cfg.Clock,
		recorder:       cfg.Recorder,
		persistTimeout: cfg.PersistTimeout,
		onClose:        cfg.OnClose,
		state:          StateInProgress,
		answers:        make(map[int]string),
		done:           make(chan struct{}),
		subscribers:    make(map[chan SessionView]struct{}),
	}

	s.mu.Lock()
	s.startedAt = s.clock.Now()
	s.armLocked()
	s.mu.Unlock()
	return s, nil
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// StudentID returns the owner of the session.
func (s *Session) StudentID() string { return s.studentID }

// Done is closed once the session is completed or cancelled.
func (s *Session) Done() <-chan struct{} { return s.done }

// SelectOption records the answer for the current question. It is ignored
// once the current question has been revealed.
func (s *Session) SelectOption(option string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closedLocked() {
		return domain.ErrSessionClosed
	}
	if s.state == StateRevealed {
		return nil
	}
	if !hasOption(s.questions[s.current], option) {
		return domain.ErrOptionNotFound
	}
	s.answers[s.current] = option
	s.broadcastLocked()
	return nil
}

// Reveal locks the current answer and exposes the correct option. It is
// idempotent: revealing an already revealed question returns nil unchanged.
func (s *Session) Reveal() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closedLocked() {
		return domain.ErrSessionClosed
	}
	if s.state == StateRevealed {
		return nil
	}
	if _, ok := s.answers[s.current]; !ok {
		return domain.ErrNoAnswerSelected
	}
	s.state = StateRevealed
	s.broadcastLocked()
	return nil
}

// Advance moves from a revealed question to the next one.
func (s *Session) Advance() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closedLocked() {
		return domain.ErrSessionClosed
	}
	if s.state != StateRevealed {
		return domain.ErrNotRevealed
	}
	if s.lastLocked() {
		return domain.ErrLastQuestion
	}
	s.advanceLocked()
	s.broadcastLocked()
	return nil
}

// Submit finishes the session after the last question has been revealed.
// A failed attempt write is logged and reported through Outcome.Persisted;
// the session completes either way.
func (s *Session) Submit(ctx context.Context) (Outcome, error) {
	s.mu.Lock()
	if s.closedLocked() {
		s.mu.Unlock()
		return Outcome{}, domain.ErrSessionClosed
	}
	if !s.lastLocked() {
		s.mu.Unlock()
		return Outcome{}, domain.ErrNotLastQuestion
	}
	if s.state != StateRevealed {
		s.mu.Unlock()
		return Outcome{}, domain.ErrNotRevealed
	}
	s.completeLocked(false)
	s.mu.Unlock()
	return s.finish(ctx), nil
}

// Cancel discards the session without writing an attempt.
func (s *Session) Cancel() error {
	s.mu.Lock()
	if s.closedLocked() {
		s.mu.Unlock()
		return domain.ErrSessionClosed
	}
	s.state = StateCancelled
	s.stopTimerLocked()
	s.broadcastLocked()
	s.closeLocked()
	s.mu.Unlock()

	if s.onClose != nil {
		s.onClose(s)
	}
	return nil
}

// Outcome returns the final result once the session has completed.
func (s *Session) Outcome() (Outcome, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.outcome == nil {
		return Outcome{}, false
	}
	return *s.outcome, true
}

// View snapshots the session; remaining time is derived from the deadline.
func (s *Session) View() SessionView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewLocked()
}

// Subscribe streams a view after every transition. The channel is closed when
// the session ends; cancel detaches early.
func (s *Session) Subscribe() (<-chan SessionView, func()) {
	ch := make(chan SessionView, 8)

	s.mu.Lock()
	ch <- s.viewLocked()
	if s.isDoneLocked() {
		close(ch)
		s.mu.Unlock()
		return ch, func() {}
	}
	s.subscribers[ch] = struct{}{}
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		if _, ok := s.subscribers[ch]; ok {
			delete(s.subscribers, ch)
			close(ch)
		}
		s.mu.Unlock()
	}
	return ch, cancel
}

// expire handles a deadline callback. Stale generations and early wake-ups are ignored.
func (s *Session) expire(gen uint64) {
	s.mu.Lock()
	if gen != s.timerGen || s.closedLocked() {
		s.mu.Unlock()
		return
	}
	if s.clock.Now().Before(s.deadline) {
		s.scheduleLocked()
		s.mu.Unlock()
		return
	}
	if s.competition.TimerMode == domain.TimerPerQuestion && !s.lastLocked() {
		s.advanceLocked()
		s.broadcastLocked()
		s.mu.Unlock()
		return
	}
	s.completeLocked(true)
	s.mu.Unlock()
	s.finish(context.Background())
}

func (s *Session) advanceLocked() {
	s.current++
	s.state = StateInProgress
	if s.competition != nil && s.competition.TimerMode == domain.TimerPerQuestion {
		s.armLocked()
	}
}

// completeLocked moves to Completed and builds the attempt. Persistence happens in finish.
func (s *Session) completeLocked(forced bool) {
	s.state = StateCompleted
	s.stopTimerLocked()

	now := s.clock.Now()
	elapsed := int(now.Sub(s.startedAt) / time.Second)
	if elapsed < 0 {
		elapsed = 0
	}
	result := scoring.Score(s.questions, s.answers, s.competition != nil)

	seen := make([]string, 0, len(s.questions))
	for _, q := range s.questions {
		seen = append(seen, q.ID)
	}
	attempt := domain.Attempt{
		ID:               uuid.NewString(),
		StudentID:        s.studentID,
		StudentName:      s.studentName,
		SchoolID:         s.schoolID,
		Score:            result.Achieved,
		MaxScore:         result.Max,
		TotalQuestions:   len(s.questions),
		TimeSpentSeconds: &elapsed,
		QuestionsSeen:    seen,
		CreatedAt:        now,
	}
	if s.competition != nil {
		id := s.competition.ID
		attempt.CompetitionID = &id
	}
	s.outcome = &Outcome{Attempt: attempt, Result: result, Forced: forced}
}

// finish writes the attempt outside the lock, then releases subscribers.
func (s *Session) finish(ctx context.Context) Outcome {
	s.mu.Lock()
	attempt := s.outcome.Attempt
	s.mu.Unlock()

	persisted := false
	if s.recorder != nil {
		writeCtx, cancel := context.WithTimeout(ctx, s.persistTimeout)
		err := s.recorder.RecordAttempt(writeCtx, attempt)
		cancel()
		if err != nil {
			log.Printf("attempt %s for student %s not persisted: %v", attempt.ID, attempt.StudentID, err)
		} else {
			persisted = true
		}
	}

	s.mu.Lock()
	s.outcome.Persisted = persisted
	outcome := *s.outcome
	s.broadcastLocked()
	s.closeLocked()
	s.mu.Unlock()

	if s.onClose != nil {
		s.onClose(s)
	}
	return outcome
}

func (s *Session) armLocked() {
	if s.competition == nil || s.competition.DurationSeconds <= 0 {
		return
	}
	s.deadline = s.clock.Now().Add(time.Duration(s.competition.DurationSeconds) * time.Second)
	s.scheduleLocked()
}

func (s *Session) scheduleLocked() {
	s.stopTimerLocked()
	s.timerGen++
	gen := s.timerGen
	wait := s.deadline.Sub(s.clock.Now())
	if wait < 0 {
		wait = 0
	}
	s.timer = s.clock.AfterFunc(wait, func() { s.expire(gen) })
}

func (s *Session) stopTimerLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.timerGen++
}

func (s *Session) closedLocked() bool {
	return s.state == StateCompleted || s.state == StateCancelled
}

func (s *Session) isDoneLocked() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

func (s *Session) lastLocked() bool {
	return s.current == len(s.questions)-1
}

// closeLocked releases Done waiters and subscribers exactly once.
func (s *Session) closeLocked() {
	if s.isDoneLocked() {
		return
	}
	close(s.done)
	for ch := range s.subscribers {
		delete(s.subscribers, ch)
		close(ch)
	}
}

func (s *Session) broadcastLocked() {
	view := s.viewLocked()
	for ch := range s.subscribers {
		select {
		case ch <- view:
		default:
			// drop the stale view so a slow reader never blocks a transition
			select {
			case <-ch:
			default:
			}
			ch <- view
		}
	}
}

func (s *Session) viewLocked() SessionView {
	view := SessionView{
		ID:             s.id,
		StudentID:      s.studentID,
		State:          s.state,
		CurrentIndex:   s.current,
		TotalQuestions: len(s.questions),
		SelectedOption: s.answers[s.current],
		LiveScore:      scoring.Score(s.questions, s.lockedAnswersLocked(), s.competition != nil),
	}
	if s.competition != nil {
		view.CompetitionID = s.competition.ID
		view.TimerMode = s.competition.TimerMode
		if !s.closedLocked() && !s.deadline.IsZero() {
			remaining := int(math.Ceil(s.deadline.Sub(s.clock.Now()).Seconds()))
			if remaining < 0 {
				remaining = 0
			}
			view.RemainingSeconds = &remaining
		}
	}
	if s.outcome != nil {
		outcome := *s.outcome
		view.Outcome = &outcome
	}
	if s.state == StateCancelled || s.state == StateCompleted {
		return view
	}

	q := s.questions[s.current]
	qv := &QuestionView{
		ID:         q.ID,
		Text:       q.Text,
		Options:    q.Options,
		Difficulty: domain.NormalizeDifficulty(q.Difficulty),
	}
	if s.state == StateRevealed {
		qv.CorrectOption = scoring.CorrectOption(q)
		correct := scoring.IsCorrect(q, s.answers[s.current])
		view.Correct = &correct
	}
	view.Question = qv
	return view
}

// lockedAnswersLocked returns the answers of questions already moved past or
// revealed, so the live score never hints at an unrevealed answer.
func (s *Session) lockedAnswersLocked() map[int]string {
	locked := make(map[int]string, len(s.answers))
	for i, a := range s.answers {
		if i < s.current || s.closedLocked() || (i == s.current && s.state == StateRevealed) {
			locked[i] = a
		}
	}
	return locked
}

func hasOption(q domain.Question, option string) bool {
	for _, o := range q.Options {
		if o == option {
			return true
		}
	}
	return false
}
