package cli

import (
	"context"
	"io"
	"time"

	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"timed-quiz-service/internal/app"
	"timed-quiz-service/internal/config"
	"timed-quiz-service/internal/domain"
	"timed-quiz-service/internal/events"
	"timed-quiz-service/internal/infra/memory"
	pgstore "timed-quiz-service/internal/infra/postgres"
	redisstore "timed-quiz-service/internal/infra/redis"
	"timed-quiz-service/internal/infra/sqlite"
	"timed-quiz-service/internal/logger"
)

// stack is the wired service plus everything that must be closed with it.
type stack struct {
	service *app.QuizService
	// local is set when events stay in-process instead of going to Kafka.
	local   *gochannel.GoChannel
	closers []func() error
}

func (s *stack) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		_ = s.closers[i]()
	}
}

func newLogger(cfg config.Config, out io.Writer) zerolog.Logger {
	format := cfg.Log.Format
	if format == "" {
		format = "pretty"
	}
	return logger.Setup(cfg.Log.Level, format, out)
}

// buildStack picks a backend per concern from what is configured:
// Postgres, then SQLite, then Redis, then memory for scores; Redis or memory
// for caching and active sessions; Kafka or an in-process channel for events.
func buildStack(ctx context.Context, cfg config.Config, log zerolog.Logger) (*stack, error) {
	st := &stack{}
	ok := false
	defer func() {
		if !ok {
			st.Close()
		}
	}()

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		st.closers = append(st.closers, redisClient.Close)
	}
	redisTTL := config.TTLDuration(cfg.Redis.TTL, 10*time.Minute)

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		var err error
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return nil, err
		}
		st.closers = append(st.closers, func() error { pool.Close(); return nil })
	}

	defaults := cfg.QuizDefaults()

	var loader memory.BankLoader = memory.NewStaticBankLoader(sampleQuestions())
	var configs app.ConfigStore = memory.NewConfigStore(defaults)
	if pool != nil {
		loader = pgstore.NewQuestionLoader(pool)
		configs = pgstore.NewConfigStore(pool, defaults)
	}

	quizTTL := config.TTLDuration(cfg.Quiz.TTL, 10*time.Minute)
	var questions app.QuestionProvider
	if redisClient != nil {
		questions = redisstore.NewQuestionRepository(redisClient, loader, quizTTL)
	} else {
		questions = memory.NewQuestionRepository(loader, quizTTL)
	}

	var scores app.ScoreSink
	switch {
	case pool != nil:
		scores = pgstore.NewScoreStore(pool)
	case cfg.SQLite.Path != "":
		store, err := sqlite.Open(ctx, cfg.SQLite.Path)
		if err != nil {
			return nil, err
		}
		st.closers = append(st.closers, store.Close)
		scores = store
	case redisClient != nil:
		scores = redisstore.NewScoreStore(redisClient)
	default:
		scores = memory.NewScoreStore()
	}

	var active app.ActiveSessions = memory.NewSessionStore()
	if redisClient != nil {
		active = redisstore.NewSessionStore(redisClient, redisTTL)
	}

	var publisher *events.Publisher
	if len(cfg.Kafka.Brokers) > 0 {
		var err error
		publisher, err = events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic, log)
		if err != nil {
			return nil, err
		}
	} else {
		st.local = events.NewLocal(log)
		publisher = events.NewPublisher(st.local, cfg.Kafka.Topic, log)
	}
	st.closers = append(st.closers, publisher.Close)

	collector := app.NewAnswerCollector(
		app.WithGrace(config.TTLDuration(cfg.Quiz.Grace, app.DefaultGrace)),
		app.WithCollectorLogger(log),
	)
	st.service = app.NewQuizService(questions, configs, scores,
		app.WithActiveSessions(active),
		app.WithEvents(publisher),
		app.WithServiceCollector(collector),
		app.WithLogger(log),
	)
	ok = true
	return st, nil
}

// sampleQuestions backs the service when no database is configured.
func sampleQuestions() map[int64][]domain.Question {
	course := int64(1)
	q := func(id int64, text string, correct int, difficulty domain.Difficulty, options ...string) domain.Question {
		return domain.Question{ID: id, Text: text, Options: options, CorrectOption: correct, CourseID: &course, Difficulty: difficulty}
	}
	return map[int64][]domain.Question{
		course: {
			q(1, "What is 2 + 2?", 2, domain.DifficultyEasy, "3", "4", "5", "22"),
			q(2, "Which planet is known as the Red Planet?", 3, domain.DifficultyEasy, "Venus", "Jupiter", "Mars", "Mercury"),
			q(3, "What is the boiling point of water at sea level in Celsius?", 2, domain.DifficultyEasy, "90", "100", "110", "120"),
			q(4, "Which gas do plants absorb from the atmosphere?", 4, domain.DifficultyMedium, "Oxygen", "Nitrogen", "Helium", "Carbon dioxide"),
			q(5, "How many sides does a hexagon have?", 2, domain.DifficultyEasy, "5", "6", "7", "8"),
		},
	}
}
