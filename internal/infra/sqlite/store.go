// Package sqlite is a single-file data store for local runs and tests.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"school-competition-service/internal/domain"

	_ "modernc.org/sqlite" // driver: sqlite
)

//go:embed schema.sql
var schema string

// Store keeps questions, competitions and attempts in SQLite.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and ensures the schema exists.
func Open(ctx context.Context, path string) (*Store, error) {
	dsn := "file:" + path + "?cache=shared&mode=rwc&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// SaveQuestion inserts or replaces a question.
func (s *Store) SaveQuestion(ctx context.Context, q domain.Question) error {
	options, err := json.Marshal(q.Options)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO questions (id, grade_id, subject_id, term, week, difficulty, question_text, options_json, correct_answer, score)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		q.ID, q.GradeID, q.SubjectID, q.Term, q.Week, q.Difficulty, q.Text, string(options), q.CorrectAnswer, nullableInt(q.Score))
	if err != nil {
		return fmt.Errorf("save question: %w", err)
	}
	return nil
}

// SaveCompetition inserts or replaces a competition.
func (s *Store) SaveCompetition(ctx context.Context, c domain.Competition) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO competitions (id, name, grade_id, subject_id, term, start_week, end_week,
			easy_quota, medium_quota, hard_quota, talented_quota, timer_mode, duration_seconds, max_attempts, is_active)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.Name, c.GradeID, c.SubjectID, c.Term, c.StartWeek, c.EndWeek,
		c.EasyQuota, c.MediumQuota, c.HardQuota, c.TalentedQuota, string(c.TimerMode), c.DurationSeconds, c.MaxAttempts, c.IsActive)
	if err != nil {
		return fmt.Errorf("save competition: %w", err)
	}
	return nil
}

func (s *Store) ListQuestions(ctx context.Context, scope domain.QuestionScope) ([]domain.Question, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, grade_id, subject_id, term, week, difficulty, question_text, options_json, correct_answer, score
		FROM questions WHERE grade_id = ? AND subject_id = ? AND term = ? ORDER BY id`,
		scope.GradeID, scope.SubjectID, scope.Term)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	defer rows.Close()

	questions := make([]domain.Question, 0)
	for rows.Next() {
		var (
			q       domain.Question
			options string
			score   sql.NullInt64
		)
		if err := rows.Scan(&q.ID, &q.GradeID, &q.SubjectID, &q.Term, &q.Week, &q.Difficulty, &q.Text, &options, &q.CorrectAnswer, &score); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		if err := json.Unmarshal([]byte(options), &q.Options); err != nil {
			return nil, fmt.Errorf("unmarshal options of %s: %w", q.ID, err)
		}
		q.Score = intPtr(score)
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

func (s *Store) GetCompetition(ctx context.Context, competitionID string) (domain.Competition, error) {
	var (
		c    domain.Competition
		mode string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, grade_id, subject_id, term, start_week, end_week,
		       easy_quota, medium_quota, hard_quota, talented_quota,
		       timer_mode, duration_seconds, max_attempts, is_active
		FROM competitions WHERE id = ?`, competitionID).Scan(
		&c.ID, &c.Name, &c.GradeID, &c.SubjectID, &c.Term, &c.StartWeek, &c.EndWeek,
		&c.EasyQuota, &c.MediumQuota, &c.HardQuota, &c.TalentedQuota,
		&mode, &c.DurationSeconds, &c.MaxAttempts, &c.IsActive,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Competition{}, domain.ErrCompetitionNotFound
	}
	if err != nil {
		return domain.Competition{}, fmt.Errorf("load competition: %w", err)
	}
	c.TimerMode = domain.TimerMode(mode)
	return c, nil
}

func (s *Store) CreateAttempt(ctx context.Context, a domain.Attempt) error {
	seen := a.QuestionsSeen
	if seen == nil {
		seen = []string{}
	}
	seenJSON, err := json.Marshal(seen)
	if err != nil {
		return err
	}
	createdAt := a.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	var competitionID sql.NullString
	if a.CompetitionID != nil {
		competitionID = sql.NullString{String: *a.CompetitionID, Valid: true}
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO attempts (id, student_id, student_name, school_id, competition_id, score, max_score,
			total_questions, time_spent, time_taken, questions_seen_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.StudentID, a.StudentName, a.SchoolID, competitionID, a.Score, a.MaxScore,
		a.TotalQuestions, nullableInt(a.TimeSpentSeconds), nullableInt(a.LegacyTimeTaken), string(seenJSON), createdAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("insert attempt: %w", err)
	}
	return nil
}

func (s *Store) ListAttemptsByStudent(ctx context.Context, studentID string) ([]domain.Attempt, error) {
	return s.listAttempts(ctx, "student_id = ?", studentID)
}

func (s *Store) ListAttemptsByCompetition(ctx context.Context, competitionID string) ([]domain.Attempt, error) {
	return s.listAttempts(ctx, "competition_id = ?", competitionID)
}

func (s *Store) ListAttemptsBySchool(ctx context.Context, schoolID string) ([]domain.Attempt, error) {
	return s.listAttempts(ctx, "school_id = ?", schoolID)
}

func (s *Store) listAttempts(ctx context.Context, where, arg string) ([]domain.Attempt, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, student_id, student_name, school_id, competition_id, score, max_score,
		       total_questions, time_spent, time_taken, questions_seen_json, created_at
		FROM attempts WHERE `+where+` ORDER BY seq`, arg)
	if err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}
	defer rows.Close()

	attempts := make([]domain.Attempt, 0)
	for rows.Next() {
		var (
			a             domain.Attempt
			competitionID sql.NullString
			timeSpent     sql.NullInt64
			timeTaken     sql.NullInt64
			seen          string
			createdAt     int64
		)
		if err := rows.Scan(&a.ID, &a.StudentID, &a.StudentName, &a.SchoolID, &competitionID, &a.Score, &a.MaxScore,
			&a.TotalQuestions, &timeSpent, &timeTaken, &seen, &createdAt); err != nil {
			return nil, fmt.Errorf("scan attempt: %w", err)
		}
		if competitionID.Valid {
			id := competitionID.String
			a.CompetitionID = &id
		}
		a.TimeSpentSeconds = intPtr(timeSpent)
		a.LegacyTimeTaken = intPtr(timeTaken)
		if err := json.Unmarshal([]byte(seen), &a.QuestionsSeen); err != nil {
			return nil, fmt.Errorf("unmarshal questions seen of %s: %w", a.ID, err)
		}
		a.CreatedAt = time.UnixMilli(createdAt).UTC()
		attempts = append(attempts, a)
	}
	return attempts, rows.Err()
}

func nullableInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func intPtr(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	n := int(v.Int64)
	return &n
}
