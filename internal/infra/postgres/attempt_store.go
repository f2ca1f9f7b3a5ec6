package postgres

import (
	"context"
	"fmt"
	"time"

	"school-competition-service/internal/domain"

	"github.com/uptrace/bun"
)

type attemptRow struct {
	bun.BaseModel `bun:"table:attempts,alias:a"`

	ID             string    `bun:"id,pk"`
	StudentID      string    `bun:"student_id,notnull"`
	StudentName    string    `bun:"student_name,notnull"`
	SchoolID       string    `bun:"school_id,notnull"`
	CompetitionID  *string   `bun:"competition_id"`
	Score          int       `bun:"score,notnull"`
	MaxScore       int       `bun:"max_score,notnull"`
	TotalQuestions int       `bun:"total_questions,notnull"`
	TimeSpent      *int      `bun:"time_spent"`
	TimeTaken      *int      `bun:"time_taken"`
	QuestionsSeen  []string  `bun:"questions_seen,array"`
	CreatedAt      time.Time `bun:"created_at,notnull"`
}

func rowFromAttempt(a domain.Attempt) attemptRow {
	seen := a.QuestionsSeen
	if seen == nil {
		seen = []string{}
	}
	return attemptRow{
		ID:             a.ID,
		StudentID:      a.StudentID,
		StudentName:    a.StudentName,
		SchoolID:       a.SchoolID,
		CompetitionID:  a.CompetitionID,
		Score:          a.Score,
		MaxScore:       a.MaxScore,
		TotalQuestions: a.TotalQuestions,
		TimeSpent:      a.TimeSpentSeconds,
		TimeTaken:      a.LegacyTimeTaken,
		QuestionsSeen:  seen,
		CreatedAt:      a.CreatedAt,
	}
}

func (r attemptRow) toDomain() domain.Attempt {
	return domain.Attempt{
		ID:               r.ID,
		StudentID:        r.StudentID,
		StudentName:      r.StudentName,
		SchoolID:         r.SchoolID,
		CompetitionID:    r.CompetitionID,
		Score:            r.Score,
		MaxScore:         r.MaxScore,
		TotalQuestions:   r.TotalQuestions,
		TimeSpentSeconds: r.TimeSpent,
		LegacyTimeTaken:  r.TimeTaken,
		QuestionsSeen:    r.QuestionsSeen,
		CreatedAt:        r.CreatedAt,
	}
}

// AttemptStore appends and reads attempts through bun.
type AttemptStore struct {
	db *bun.DB
}

func NewAttemptStore(db *bun.DB) *AttemptStore {
	return &AttemptStore{db: db}
}

func (s *AttemptStore) CreateAttempt(ctx context.Context, attempt domain.Attempt) error {
	row := rowFromAttempt(attempt)
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now()
	}
	if _, err := s.db.NewInsert().Model(&row).Exec(ctx); err != nil {
		return fmt.Errorf("insert attempt: %w", err)
	}
	return nil
}

func (s *AttemptStore) ListAttemptsByStudent(ctx context.Context, studentID string) ([]domain.Attempt, error) {
	return s.list(ctx, "a.student_id = ?", studentID)
}

func (s *AttemptStore) ListAttemptsByCompetition(ctx context.Context, competitionID string) ([]domain.Attempt, error) {
	return s.list(ctx, "a.competition_id = ?", competitionID)
}

func (s *AttemptStore) ListAttemptsBySchool(ctx context.Context, schoolID string) ([]domain.Attempt, error) {
	return s.list(ctx, "a.school_id = ?", schoolID)
}

func (s *AttemptStore) list(ctx context.Context, where string, arg string) ([]domain.Attempt, error) {
	var rows []attemptRow
	err := s.db.NewSelect().
		Model(&rows).
		Where(where, arg).
		OrderExpr("a.created_at ASC, a.id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}
	attempts := make([]domain.Attempt, 0, len(rows))
	for _, r := range rows {
		attempts = append(attempts, r.toDomain())
	}
	return attempts, nil
}
