package integration

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"

	"live-quiz-service/internal/app"
	"live-quiz-service/internal/domain"
	"live-quiz-service/internal/infra/postgres"
	"live-quiz-service/internal/infra/postgres/migrations"
	infraredis "live-quiz-service/internal/infra/redis"
)

func TestQuizRoundEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	seedQuestion(t, ctx, pgURL, sampleQuestion())

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()
	archive := postgres.NewQuestionArchive(pool)

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}
	questions := infraredis.NewQuestionRepository(redisClient, archive, 5*time.Minute)
	answers := infraredis.NewAnswerRepository(redisClient)
	state := infraredis.NewStateRepository(redisClient)
	game := app.NewGameController(state, questions, false)
	service := app.NewQuizService(questions, answers, state, game, archive)

	// The redis repository fills itself from the postgres archive.
	bank, err := service.Questions(ctx)
	if err != nil {
		t.Fatalf("questions: %v", err)
	}
	if len(bank) != 1 || bank[0].ID != "q1" {
		t.Fatalf("expected the seeded question, got %+v", bank)
	}

	if _, err := service.ActivateQuestion(ctx, "q1"); err != nil {
		t.Fatalf("activate: %v", err)
	}

	alice := domain.Identity{ParticipantID: "p1", DisplayName: "Alice"}
	bob := domain.Identity{ParticipantID: "p2", DisplayName: "Bob"}

	if _, err := service.SubmitAnswer(ctx, alice, "q1", 2); err != nil {
		t.Fatalf("submit alice: %v", err)
	}
	if _, err := service.SubmitAnswer(ctx, bob, "q1", 3); err != nil {
		t.Fatalf("submit bob: %v", err)
	}
	if _, err := service.SubmitAnswer(ctx, alice, "q1", 2); err == nil {
		t.Fatalf("expected duplicate submission to fail")
	}

	lb, err := service.Leaderboard(ctx)
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	if len(lb.Entries) != 2 {
		t.Fatalf("expected 2 entries, got %+v", lb.Entries)
	}
	if lb.Entries[0].ParticipantID != "p1" || lb.Entries[0].Score != 1 {
		t.Fatalf("expected alice leading with 1, got %+v", lb.Entries)
	}
	if lb.Entries[1].ParticipantID != "p2" || lb.Entries[1].Score != 0 {
		t.Fatalf("expected bob with 0, got %+v", lb.Entries)
	}

	// Admin edits flow through to the archive.
	created, err := service.CreateQuestion(ctx, "What is 3 + 3?", []domain.Option{
		{Key: 1, Text: "5"},
		{Key: 2, Text: "6"},
		{Key: 3, Text: "7"},
		{Key: 4, Text: "8"},
	}, 2)
	if err != nil {
		t.Fatalf("create question: %v", err)
	}
	archived, err := archive.LoadQuestions(ctx)
	if err != nil {
		t.Fatalf("load archive: %v", err)
	}
	if _, ok := archived[created.ID]; !ok {
		t.Fatalf("created question missing from archive: %+v", archived)
	}
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "quiz", "POSTGRES_PASSWORD": "quizpass", "POSTGRES_DB": "quizdb"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForListeningPort("5432/tcp").WithStartupTimeout(60 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start postgres: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	dsn := fmt.Sprintf("postgres://quiz:quizpass@%s:%s/quizdb?sslmode=disable", host, port.Port())
	return dsn, func() {
		_ = container.Terminate(ctx)
	}
}

func startRedis(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start redis: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("redis host: %v", err)
	}
	port, err := container.MappedPort(ctx, "6379/tcp")
	if err != nil {
		t.Fatalf("redis port: %v", err)
	}
	url := fmt.Sprintf("redis://%s:%s", host, port.Port())
	return url, func() {
		_ = container.Terminate(ctx)
	}
}

func seedQuestion(t *testing.T, ctx context.Context, dsn string, q domain.Question) {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())
	defer db.Close()

	migrator := migrate.NewMigrator(db, migrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		t.Fatalf("migrator init: %v", err)
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	data, err := json.Marshal(q)
	if err != nil {
		t.Fatalf("marshal question: %v", err)
	}
	if _, err := db.ExecContext(ctx, `INSERT INTO questions (id, data) VALUES (?, ?::jsonb) ON CONFLICT (id) DO UPDATE SET data=EXCLUDED.data`, q.ID, string(data)); err != nil {
		t.Fatalf("insert question: %v", err)
	}
}

func sampleQuestion() domain.Question {
	return domain.Question{
		ID:   "q1",
		Text: "What is 2 + 2?",
		Options: []domain.Option{
			{Key: 1, Text: "3"},
			{Key: 2, Text: "4"},
			{Key: 3, Text: "5"},
			{Key: 4, Text: "6"},
		},
		RightAnswerKey: 2,
		CreatedAt:      time.Now().UTC(),
	}
}

func redisClientFromURL(url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return goredis.NewClient(&goredis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	}), nil
}

func requireDocker(t *testing.T) {
	t.Helper()
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}
