package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"school-competition-service/internal/app"
	"school-competition-service/internal/config"
	"school-competition-service/internal/infra/memory"
	rediscache "school-competition-service/internal/infra/redis"
	transport "school-competition-service/internal/transport/http"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the competition server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	store, err := openBackend(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()
	logBackend(store)

	service := newService(cfg, store)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      transport.NewRouter(service, cfg.Server.CORSOrigins),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting competition service on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("shutting down server...")
	case <-ctx.Done():
		log.Println("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// newService layers the caches over the chosen data store. Redis, when
// configured, backs the question cache, session markers and leaderboard snapshots.
func newService(cfg config.Config, store *backend) *app.QuizService {
	questionTTL := config.TTLDuration(cfg.Questions.TTL, 10*time.Minute)
	opts := []app.Option{
		app.WithPersistTimeout(config.TTLDuration(cfg.Session.PersistTimeout, 10*time.Second)),
		app.WithResultRetention(config.TTLDuration(cfg.Session.ResultRetention, 10*time.Minute)),
	}
	if cfg.Leaderboard.DefaultLimit > 0 {
		opts = append(opts, app.WithLeaderboardLimit(cfg.Leaderboard.DefaultLimit))
	}

	var (
		questions app.QuestionRepository
		sessions  app.SessionRepository
	)
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		redisTTL := config.TTLDuration(cfg.Redis.TTL, 10*time.Minute)
		questions = rediscache.NewQuestionCache(client, store.questions, questionTTL)
		sessions = rediscache.NewSessionStore(client, redisTTL)
		opts = append(opts, app.WithLeaderboardCache(
			rediscache.NewLeaderboardCache(client, config.TTLDuration(cfg.Leaderboard.TTL, time.Minute)),
		))
	} else {
		questions = memory.NewQuestionCache(store.questions, questionTTL)
		sessions = memory.NewSessionStore()
	}

	return app.NewQuizService(sessions, questions, store.competitions, store.attempts, opts...)
}
