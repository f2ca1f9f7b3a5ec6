package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"school-competition-service/internal/domain"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// QuestionLoader reads the question bank and competitions from Postgres.
type QuestionLoader struct {
	pool *pgxpool.Pool
}

func NewQuestionLoader(pool *pgxpool.Pool) *QuestionLoader {
	return &QuestionLoader{pool: pool}
}

func (l *QuestionLoader) ListQuestions(ctx context.Context, scope domain.QuestionScope) ([]domain.Question, error) {
	rows, err := l.pool.Query(ctx, `
		SELECT id, grade_id, subject_id, term, week, difficulty, question_text, options, correct_answer, score
		FROM questions
		WHERE grade_id=$1 AND subject_id=$2 AND term=$3
		ORDER BY id`, scope.GradeID, scope.SubjectID, scope.Term)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	defer rows.Close()

	questions := make([]domain.Question, 0)
	for rows.Next() {
		var (
			q       domain.Question
			term    int16
			week    int32
			options []byte
			score   *int32
		)
		if err := rows.Scan(&q.ID, &q.GradeID, &q.SubjectID, &term, &week, &q.Difficulty, &q.Text, &options, &q.CorrectAnswer, &score); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		if err := json.Unmarshal(options, &q.Options); err != nil {
			return nil, fmt.Errorf("unmarshal options of %s: %w", q.ID, err)
		}
		q.Term, q.Week = int(term), int(week)
		if score != nil {
			v := int(*score)
			q.Score = &v
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

func (l *QuestionLoader) GetCompetition(ctx context.Context, competitionID string) (domain.Competition, error) {
	var (
		c    domain.Competition
		term int16
		mode string
	)
	err := l.pool.QueryRow(ctx, `
		SELECT id, name, grade_id, subject_id, term, start_week, end_week,
		       easy_quota, medium_quota, hard_quota, talented_quota,
		       timer_mode, duration_seconds, max_attempts, is_active
		FROM competitions WHERE id=$1`, competitionID).Scan(
		&c.ID, &c.Name, &c.GradeID, &c.SubjectID, &term, &c.StartWeek, &c.EndWeek,
		&c.EasyQuota, &c.MediumQuota, &c.HardQuota, &c.TalentedQuota,
		&mode, &c.DurationSeconds, &c.MaxAttempts, &c.IsActive,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Competition{}, domain.ErrCompetitionNotFound
	}
	if err != nil {
		return domain.Competition{}, fmt.Errorf("load competition: %w", err)
	}
	c.Term = int(term)
	c.TimerMode = domain.TimerMode(mode)
	return c, nil
}

// SaveQuestion upserts a question into the bank.
func (l *QuestionLoader) SaveQuestion(ctx context.Context, q domain.Question) error {
	options, err := json.Marshal(q.Options)
	if err != nil {
		return err
	}
	var score *int32
	if q.Score != nil {
		v := int32(*q.Score)
		score = &v
	}
	_, err = l.pool.Exec(ctx, `
		INSERT INTO questions (id, grade_id, subject_id, term, week, difficulty, question_text, options, correct_answer, score)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			grade_id = EXCLUDED.grade_id, subject_id = EXCLUDED.subject_id, term = EXCLUDED.term,
			week = EXCLUDED.week, difficulty = EXCLUDED.difficulty, question_text = EXCLUDED.question_text,
			options = EXCLUDED.options, correct_answer = EXCLUDED.correct_answer, score = EXCLUDED.score`,
		q.ID, q.GradeID, q.SubjectID, int16(q.Term), int32(q.Week), q.Difficulty, q.Text, string(options), q.CorrectAnswer, score)
	if err != nil {
		return fmt.Errorf("save question %s: %w", q.ID, err)
	}
	return nil
}

// SaveCompetition upserts a competition.
func (l *QuestionLoader) SaveCompetition(ctx context.Context, c domain.Competition) error {
	_, err := l.pool.Exec(ctx, `
		INSERT INTO competitions (id, name, grade_id, subject_id, term, start_week, end_week,
			easy_quota, medium_quota, hard_quota, talented_quota, timer_mode, duration_seconds, max_attempts, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name, grade_id = EXCLUDED.grade_id, subject_id = EXCLUDED.subject_id, term = EXCLUDED.term,
			start_week = EXCLUDED.start_week, end_week = EXCLUDED.end_week,
			easy_quota = EXCLUDED.easy_quota, medium_quota = EXCLUDED.medium_quota,
			hard_quota = EXCLUDED.hard_quota, talented_quota = EXCLUDED.talented_quota,
			timer_mode = EXCLUDED.timer_mode, duration_seconds = EXCLUDED.duration_seconds,
			max_attempts = EXCLUDED.max_attempts, is_active = EXCLUDED.is_active`,
		c.ID, c.Name, c.GradeID, c.SubjectID, int16(c.Term), int32(c.StartWeek), int32(c.EndWeek),
		int32(c.EasyQuota), int32(c.MediumQuota), int32(c.HardQuota), int32(c.TalentedQuota),
		string(c.TimerMode), int32(c.DurationSeconds), int32(c.MaxAttempts), c.IsActive)
	if err != nil {
		return fmt.Errorf("save competition %s: %w", c.ID, err)
	}
	return nil
}
