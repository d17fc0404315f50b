package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"battle-quiz-service/internal/app"
	"battle-quiz-service/internal/config"
	"battle-quiz-service/internal/domain"
	"battle-quiz-service/internal/infra/memory"
	pginfra "battle-quiz-service/internal/infra/postgres"
	redisinfra "battle-quiz-service/internal/infra/redis"
	"battle-quiz-service/internal/infra/scoring"
	transport "battle-quiz-service/internal/transport/http"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the battle quiz server",
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
	redisTTL := config.Duration(cfg.Redis.TTL, time.Hour)

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
	}

	broker := memory.NewBroker()

	var store app.GameStore = memory.NewGameStore()
	var publisher app.EventPublisher = broker
	var subscriber transport.EventSubscriber = broker
	if redisClient != nil {
		store = redisinfra.NewGameStore(redisClient, redisTTL)
		redisPub := redisinfra.NewPublisher(redisClient)
		publisher = redisPub
		subscriber = redisPub
	}

	var banks app.BankLoader = memory.NewStaticBankLoader(sampleBank())
	var answerLog app.AnswerLogSink = memory.NewAnswerLog()
	var ledger app.MemberLedger = memory.NewMemberLedger(sampleMembers()...)
	var rooms app.RoomRegistry = memory.NewRoomRegistry()
	if pool != nil {
		banks = pginfra.NewBankLoader(pool)
		answerLog = pginfra.NewAnswerLog(pool)
		ledger = pginfra.NewMemberLedger(pool)
		rooms = pginfra.NewRoomRegistry(pool)
	}

	var scorer app.EssayScorer = memory.NewWordCountScorer()
	if cfg.Scoring.URL != "" {
		scorer = scoring.NewHTTPScorer(cfg.Scoring.URL, config.Duration(cfg.Scoring.Timeout, 10*time.Second))
	}

	service := app.NewGameService(app.Deps{
		Store:     store,
		Publisher: publisher,
		Scorer:    scorer,
		AnswerLog: answerLog,
		Ledger:    ledger,
		Rooms:     rooms,
		Banks:     banks,
	}, app.Settings{
		RoundTimeout: config.Duration(cfg.Game.RoundTimeout, 30*time.Second),
		InitialLives: cfg.Game.InitialLives,
	})

	wsHandler := transport.NewWSHandler(service, subscriber)
	gameHandler := transport.NewGameHandler(service)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/ws", wsHandler.ServeWS)
	mux.HandleFunc("/games", gameHandler.CreateGame)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting battle quiz service on :%s", finalPort)
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

// sampleBank seeds the memory bank loader; swap in the Postgres loader for
// real content.
func sampleBank() domain.QuizBank {
	mc := func(id int64, question string, correct int, options ...string) domain.QuizItem {
		item := domain.QuizItem{QuizID: id, Kind: domain.KindMultipleChoice, Question: question}
		for i, content := range options {
			item.Options = append(item.Options, domain.QuizOption{
				Number:  i + 1,
				Content: content,
				Correct: i+1 == correct,
			})
		}
		return item
	}
	return domain.QuizBank{
		MultipleChoice: []domain.QuizItem{
			mc(1, "Which of these is a liability?", 2, "Savings account", "Car loan", "Stock portfolio", "Salary"),
			mc(2, "What does APR stand for?", 1, "Annual percentage rate", "Approved payment record", "Asset price ratio", "Average paid return"),
			mc(3, "Which account usually earns the most interest?", 3, "Checking", "Savings", "Fixed deposit", "Wallet"),
			mc(4, "A budget tracks what?", 4, "Only income", "Only debt", "Only savings", "Income and spending"),
			mc(5, "Diversification reduces what?", 1, "Risk", "Tax", "Income", "Inflation"),
		},
		ShortAnswer: []domain.QuizItem{
			{QuizID: 6, Kind: domain.KindShortAnswer, Question: "Two-letter abbreviation for certificate of deposit?", Answer: "CD"},
			{QuizID: 7, Kind: domain.KindShortAnswer, Question: "Money paid to shareholders from profits is called a ...?", Answer: "dividend"},
			{QuizID: 8, Kind: domain.KindShortAnswer, Question: "The general rise of prices over time is called ...?", Answer: "inflation"},
		},
		Essay: domain.QuizItem{QuizID: 9, Kind: domain.KindEssay, Question: "Explain why compound interest matters for long-term saving."},
	}
}

func sampleMembers() []domain.Member {
	return []domain.Member{
		{MemberID: 1, Nickname: "Alice"},
		{MemberID: 2, Nickname: "Bob"},
		{MemberID: 3, Nickname: "Carol"},
		{MemberID: 4, Nickname: "Dave"},
	}
}
