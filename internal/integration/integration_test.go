package integration

import (
	"context"
	"database/sql"
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

	"quiz-calibration/internal/app"
	pgloader "quiz-calibration/internal/infra/postgres"
	pgmigrations "quiz-calibration/internal/infra/postgres/migrations"
	redissource "quiz-calibration/internal/infra/redis"
)

func TestAnalyzeEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	seedSubmissions(t, ctx, pgURL)

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}
	seedRedisRows(t, ctx, redisClient)

	source := app.MultiSource{
		pgloader.NewSubmissionLoader(pool),
		redissource.NewSubmissionSource(redisClient, ""),
	}
	service, err := app.NewAnalysisService(source, app.Params{Seed: 3, ReferenceSampleSize: 400})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	report, err := service.Analyze(ctx)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}

	if len(report.Respondents) != 2 {
		t.Fatalf("expected 2 respondents, got %+v", report.Respondents)
	}

	aliceIdx := -1
	for i := range report.Respondents {
		if report.Respondents[i].RespondentID == "alice" {
			aliceIdx = i
			break
		}
	}
	if aliceIdx == -1 {
		t.Fatalf("alice missing from report: %+v", report.Respondents)
	}
	// alice's earlier postgres attempt (2/3) is superseded by the later one
	// (3/3); her redis submission for unix102 counts separately.
	scores := report.Respondents[aliceIdx].FinalScores
	if len(scores) != 2 {
		t.Fatalf("expected alice on 2 quizzes, got %+v", scores)
	}
	for _, s := range scores {
		if s.QuizID == "unix101" && s.Score != 3 {
			t.Fatalf("expected latest unix101 attempt (3/3), got %+v", s)
		}
	}

	if len(report.Warnings) != 1 || !strings.Contains(report.Warnings[0], "malformed") {
		t.Fatalf("expected one malformed-row warning, got %v", report.Warnings)
	}
	if len(report.References) != 4 {
		t.Fatalf("expected perfect + 3 guessers, got %d", len(report.References))
	}
}

func seedSubmissions(t *testing.T, ctx context.Context, dsn string) {
	t.Helper()
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())
	defer db.Close()

	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		t.Fatalf("migrator init: %v", err)
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	insert := `INSERT INTO submissions (quiz_id, respondent_id, submitted_at, answers, score, total)
	           VALUES (?, ?, ?, ?::jsonb, ?, ?)`
	rows := []struct {
		quiz, respondent, answers string
		at                        time.Time
		score, total              int
	}{
		{"unix101", "alice", `[[0,1,60],[1,1,70],[2,2,80]]`, time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC), 2, 3},
		{"unix101", "alice", `[[0,0,60],[1,1,70],[2,2,80]]`, time.Date(2025, 3, 1, 11, 0, 0, 0, time.UTC), 3, 3},
		{"unix101", "bob", `[[0,0,90],[1,2,10],[2,2,50]]`, time.Date(2025, 3, 1, 10, 30, 0, 0, time.UTC), 2, 3},
		// malformed: answers are not triples
		{"unix101", "carol", `[[0,0]]`, time.Date(2025, 3, 1, 10, 45, 0, 0, time.UTC), 1, 1},
	}
	for _, r := range rows {
		if _, err := db.ExecContext(ctx, insert, r.quiz, r.respondent, r.at, r.answers, r.score, r.total); err != nil {
			t.Fatalf("insert submission: %v", err)
		}
	}
}

func seedRedisRows(t *testing.T, ctx context.Context, client *goredis.Client) {
	t.Helper()
	row := `{"timestamp":"2025-03-02T09:00:00Z","token":"alice","answers":[[1,1,90]],"score":1,"total":1}`
	if err := client.RPush(ctx, "submissions:unix102", row).Err(); err != nil {
		t.Fatalf("push redis row: %v", err)
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
