package integration

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"testing"
	"time"

	"battle-quiz-service/internal/app"
	"battle-quiz-service/internal/domain"
	infrapg "battle-quiz-service/internal/infra/postgres"
	pgmigrations "battle-quiz-service/internal/infra/postgres/migrations"
	infraredis "battle-quiz-service/internal/infra/redis"
	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"
)

func TestBattleRoundEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	seedDatabase(t, ctx, pgURL)

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}
	defer redisClient.Close()

	publisher := infraredis.NewPublisher(redisClient)
	service := app.NewGameServiceWithClock(app.Deps{
		Store:     infraredis.NewGameStore(redisClient, time.Hour),
		Publisher: publisher,
		Scorer:    essayScorerFunc(func(context.Context, string, string) (int, error) { return 80, nil }),
		AnswerLog: infrapg.NewAnswerLog(pool),
		Ledger:    infrapg.NewMemberLedger(pool),
		Rooms:     infrapg.NewRoomRegistry(pool),
		Banks:     infrapg.NewBankLoader(pool),
	}, app.Settings{
		RoundTimeout: time.Minute,
		InitialLives: 3,
	}, time.Now, func(n int) int { return 0 })

	events, cancel, err := publisher.Subscribe(ctx, domain.GameChannel(42))
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer cancel()

	if err := service.StartGame(ctx, 42, []int64{1, 2}); err != nil {
		t.Fatalf("start game: %v", err)
	}
	assertRoomStatus(t, ctx, pool, 42, "IN_PROGRESS")

	if err := service.PublishNextQuiz(ctx, 42); err != nil {
		t.Fatalf("next quiz: %v", err)
	}

	question := awaitEvent(t, events, domain.EventNextQuestionMultipleChoice)
	quizID := int64(question["quizId"].(float64))
	if quizID < 1 || quizID > 5 {
		t.Fatalf("expected a multiple-choice quiz id, got %d", quizID)
	}

	// Every seeded multiple-choice quiz marks option 2 as correct.
	if err := service.CheckAnswer(ctx, 42, 2, quizID, "2"); err != nil {
		t.Fatalf("check answer: %v", err)
	}

	result := awaitEvent(t, events, domain.EventAnswerResult)
	if result["result"] != "correct" || result["sender"] != "Bob" {
		t.Fatalf("unexpected result payload %+v", result)
	}

	attack := awaitEvent(t, events, domain.EventLifeAttack)
	if int64(attack["attackedMemberId"].(float64)) != 1 {
		t.Fatalf("expected Alice attacked, got %+v", attack)
	}

	var logged int
	row := pool.QueryRow(ctx,
		`SELECT count(*) FROM quiz_logs WHERE member_id = $1 AND quiz_id = $2 AND is_correct`, int64(2), quizID)
	if err := row.Scan(&logged); err != nil {
		t.Fatalf("count quiz_logs: %v", err)
	}
	if logged != 1 {
		t.Fatalf("expected one logged answer, got %d", logged)
	}
}

type essayScorerFunc func(ctx context.Context, question, answer string) (int, error)

func (f essayScorerFunc) Score(ctx context.Context, question, answer string) (int, error) {
	return f(ctx, question, answer)
}

func awaitEvent(t *testing.T, events <-chan domain.EventMessage, want domain.EventType) map[string]any {
	t.Helper()
	deadline := time.After(10 * time.Second)
	for {
		select {
		case msg := <-events:
			if msg.Event != want {
				continue
			}
			data, ok := msg.Data.(map[string]any)
			if !ok {
				t.Fatalf("unexpected data shape for %s: %+v", want, msg.Data)
			}
			return data
		case <-deadline:
			t.Fatalf("event %s not delivered", want)
		}
	}
}

func assertRoomStatus(t *testing.T, ctx context.Context, pool *pgxpool.Pool, roomID int64, want string) {
	t.Helper()
	var status string
	if err := pool.QueryRow(ctx, `SELECT status FROM rooms WHERE room_id = $1`, roomID).Scan(&status); err != nil {
		t.Fatalf("query room status: %v", err)
	}
	if status != want {
		t.Fatalf("expected room status %s, got %s", want, status)
	}
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "battle", "POSTGRES_PASSWORD": "battlepass", "POSTGRES_DB": "battledb"},
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
	dsn := fmt.Sprintf("postgres://battle:battlepass@%s:%s/battledb?sslmode=disable", host, port.Port())
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

func seedDatabase(t *testing.T, ctx context.Context, dsn string) {
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

	for i := 1; i <= 5; i++ {
		exec(t, ctx, db, `INSERT INTO quizzes (quiz_id, kind, question) VALUES (?, 'MULTIPLE_CHOICE', ?)`,
			i, fmt.Sprintf("multiple choice %d", i))
		exec(t, ctx, db, `INSERT INTO quiz_options (quiz_id, option_number, content, is_correct) VALUES (?, 1, 'no', FALSE)`, i)
		exec(t, ctx, db, `INSERT INTO quiz_options (quiz_id, option_number, content, is_correct) VALUES (?, 2, 'yes', TRUE)`, i)
	}
	exec(t, ctx, db, `INSERT INTO quizzes (quiz_id, kind, question, answer) VALUES (6, 'SHORT_ANSWER', 'certificate of deposit, abbreviated?', 'CD')`)
	exec(t, ctx, db, `INSERT INTO quizzes (quiz_id, kind, question, answer) VALUES (7, 'SHORT_ANSWER', 'periodic payout to shareholders?', 'dividend')`)
	exec(t, ctx, db, `INSERT INTO quizzes (quiz_id, kind, question, answer) VALUES (8, 'SHORT_ANSWER', 'general rise in prices?', 'inflation')`)
	exec(t, ctx, db, `INSERT INTO quizzes (quiz_id, kind, question) VALUES (9, 'ESSAY', 'Explain how compound interest works.')`)

	exec(t, ctx, db, `INSERT INTO members (member_id, nickname, point) VALUES (1, 'Alice', 0), (2, 'Bob', 0)`)
	exec(t, ctx, db, `INSERT INTO rooms (room_id, status) VALUES (42, 'OPEN')`)
}

func exec(t *testing.T, ctx context.Context, db *bun.DB, query string, args ...any) {
	t.Helper()
	if _, err := db.ExecContext(ctx, query, args...); err != nil {
		t.Fatalf("seed exec %q: %v", query, err)
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
