package cli

import (
	"context"
	"database/sql"
	"log"

	"school-competition-service/internal/app"
	"school-competition-service/internal/config"
	"school-competition-service/internal/domain"
	"school-competition-service/internal/infra/memory"
	"school-competition-service/internal/infra/postgres"
	"school-competition-service/internal/infra/sqlite"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
)

// catalogWriter is implemented by the durable stores that accept seeded questions.
type catalogWriter interface {
	SaveQuestion(ctx context.Context, q domain.Question) error
	SaveCompetition(ctx context.Context, c domain.Competition) error
}

// backend is the data store chosen from config: postgres, then sqlite, then memory.
type backend struct {
	name         string
	questions    app.QuestionRepository
	competitions app.CompetitionRepository
	attempts     app.AttemptRepository
	catalog      catalogWriter
	closers      []func()
}

func openBackend(ctx context.Context, cfg config.Config) (*backend, error) {
	switch {
	case cfg.Postgres.URL != "":
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return nil, err
		}
		db := openBun(cfg.Postgres.URL)
		loader := postgres.NewQuestionLoader(pool)
		return &backend{
			name:         "postgres",
			questions:    loader,
			competitions: loader,
			attempts:     postgres.NewAttemptStore(db),
			catalog:      loader,
			closers:      []func(){pool.Close, func() { db.Close() }},
		}, nil
	case cfg.SQLite.Path != "":
		store, err := sqlite.Open(ctx, cfg.SQLite.Path)
		if err != nil {
			return nil, err
		}
		return &backend{
			name:         "sqlite",
			questions:    store,
			competitions: store,
			attempts:     store,
			catalog:      store,
			closers:      []func(){func() { store.Close() }},
		}, nil
	}
	store := memory.NewStore()
	store.AddQuestions(sampleQuestions()...)
	for _, c := range sampleCompetitions() {
		store.PutCompetition(c)
	}
	return &backend{
		name:         "memory",
		questions:    store,
		competitions: store,
		attempts:     store,
	}, nil
}

func (b *backend) Close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
}

func openBun(url string) *bun.DB {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(url)))
	return bun.NewDB(sqldb, pgdialect.New())
}

func logBackend(b *backend) {
	log.Printf("using %s data store", b.name)
}
