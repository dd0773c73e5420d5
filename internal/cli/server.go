package cli

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	"quiz-grading-service/internal/app"
	"quiz-grading-service/internal/config"
	"quiz-grading-service/internal/domain"
	"quiz-grading-service/internal/infra/llm"
	"quiz-grading-service/internal/infra/memory"
	pgstore "quiz-grading-service/internal/infra/postgres"
	redisinfra "quiz-grading-service/internal/infra/redis"
	transport "quiz-grading-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the grading server",
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

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}

	var pool *pgxpool.Pool
	var bunDB *bun.DB
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(cfg.Postgres.URL)))
		bunDB = bun.NewDB(sqldb, pgdialect.New())
	}

	var loader memory.QuizLoader = memory.NewStaticQuizLoader(sampleQuizzes())
	if pool != nil {
		loader = pgstore.NewQuizLoader(pool)
	}

	quizTTL := config.TTLDuration(cfg.Quiz.TTL, 10*time.Minute)
	var quizRepo app.QuizRepository
	if redisClient != nil {
		quizRepo = redisinfra.NewQuizRepository(redisClient, loader, quizTTL)
	} else {
		quizRepo = memory.NewQuizRepository(loader, quizTTL)
	}

	var (
		users   app.UserDirectory
		ledger  app.SubmissionLedger
		reports app.ScoreReporter
	)
	if bunDB != nil {
		store := pgstore.NewStore(bunDB)
		users, ledger, reports = store, store, store
	} else {
		store := memory.NewStore(quizRepo)
		for _, u := range sampleUsers() {
			store.SeedUser(u)
		}
		users, ledger, reports = store, store, store
	}

	var (
		matcher  app.SimilarityMatcher
		feedback app.FeedbackGenerator
	)
	if cfg.LLM.BaseURL != "" {
		client := llm.NewClient(llm.Config{
			BaseURL:             cfg.LLM.BaseURL,
			APIKey:              cfg.LLM.APIKey,
			ChatModel:           cfg.LLM.ChatModel,
			EmbeddingModel:      cfg.LLM.EmbeddingModel,
			Timeout:             config.TTLDuration(cfg.LLM.Timeout, 15*time.Second),
			SimilarityThreshold: cfg.LLM.SimilarityThreshold,
		})
		matcher, feedback = client, client
	} else {
		matcher = llm.ExactMatcher{}
		feedback = llm.DisabledFeedback{}
	}

	service := app.NewGradingService(quizRepo, users, ledger, reports, matcher, feedback)
	handler := transport.NewHandler(service)

	mux := http.NewServeMux()
	handler.Register(mux)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second, // feedback generation can stretch a submit
	}

	go func() {
		log.Printf("starting grading service on :%s", finalPort)
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

// sampleQuizzes provides minimal quiz data for running without Postgres;
// in production quizzes come from the question-generation service's store.
func sampleQuizzes() map[string]domain.Quiz {
	return map[string]domain.Quiz{
		"quiz-1": {
			ID:     "quiz-1",
			UserID: "u1",
			Topic:  "Geography",
			Questions: []domain.Question{
				{
					ID:            "q1",
					Type:          domain.MultipleChoice,
					Prompt:        "What is the capital of France?",
					CorrectAnswer: "Paris",
					Options:       []string{"Paris", "Lyon", "Marseille", "Nice"},
				},
				{
					ID:            "q2",
					Type:          domain.ShortAnswer,
					Prompt:        "How many continents are there?",
					CorrectAnswer: "7",
				},
			},
		},
	}
}

func sampleUsers() []domain.User {
	return []domain.User{
		{ID: "u1", Username: "alice", PreferredLanguage: "en"},
		{ID: "u2", Username: "bob", PreferredLanguage: "en"},
	}
}
