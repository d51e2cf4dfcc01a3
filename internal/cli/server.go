package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"live-quiz-service/internal/app"
	"live-quiz-service/internal/auth"
	"live-quiz-service/internal/config"
	"live-quiz-service/internal/genai"
	"live-quiz-service/internal/infra/memory"
	"live-quiz-service/internal/infra/postgres"
	infraredis "live-quiz-service/internal/infra/redis"
	transport "live-quiz-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz server",
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

	secret := cfg.Auth.Secret
	if secret == "" {
		secret = "dev-secret-change-me"
		log.Printf("auth.secret not configured, using insecure development secret")
	}
	verifier := auth.NewVerifier(secret)

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}

	var (
		pool    *pgxpool.Pool
		archive *postgres.QuestionArchive
	)
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
		archive = postgres.NewQuestionArchive(pool)
	}

	var (
		questions app.QuestionRepository
		answers   app.AnswerRepository
		state     app.StateRepository
	)
	if redisClient != nil {
		var loader infraredis.QuestionLoader
		if archive != nil {
			loader = archive
		}
		questionTTL := config.TTLDuration(cfg.Redis.TTL, 0)
		questions = infraredis.NewQuestionRepository(redisClient, loader, questionTTL)
		answers = infraredis.NewAnswerRepository(redisClient)
		state = infraredis.NewStateRepository(redisClient)
	} else {
		memQuestions := memory.NewQuestionRepository()
		if archive != nil {
			bank, err := archive.LoadQuestions(ctx)
			if err != nil {
				return err
			}
			for _, q := range bank {
				if err := memQuestions.Put(ctx, q); err != nil {
					return err
				}
			}
			log.Printf("seeded %d questions from postgres", len(bank))
		}
		questions = memQuestions
		answers = memory.NewAnswerRepository()
		state = memory.NewStateRepository()
	}

	game := app.NewGameController(state, questions, cfg.Game.ResetRevealOnClear)

	var quizArchive app.QuestionArchive
	if archive != nil {
		quizArchive = archive
	}
	service := app.NewQuizService(questions, answers, state, game, quizArchive)

	generator := genai.NewGenerator(cfg.GenAI.APIKey, cfg.GenAI.APIURL, cfg.GenAI.Model)

	wsHandler := transport.NewWSHandler(service, verifier)
	adminHandler := transport.NewAdminHandler(service, verifier, generator)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/ws", wsHandler.ServeWS)
	adminHandler.Register(mux)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting live quiz service on :%s", finalPort)
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
