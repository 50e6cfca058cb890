package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/joho/godotenv"

	"github.com/oybekjon/hisobot/internal/achievements"
	"github.com/oybekjon/hisobot/internal/api"
	"github.com/oybekjon/hisobot/internal/dispatch"
	"github.com/oybekjon/hisobot/internal/flow"
	"github.com/oybekjon/hisobot/internal/genai"
	"github.com/oybekjon/hisobot/internal/importer"
	"github.com/oybekjon/hisobot/internal/messaging"
	"github.com/oybekjon/hisobot/internal/store"
	"github.com/oybekjon/hisobot/internal/util"
)

// Default configuration constants
const (
	// DefaultStateDir is the default directory for Hisobot state data
	DefaultStateDir = "/var/lib/hisobot"
	// DefaultDBFileName is the default SQLite database filename
	DefaultDBFileName = "hisobot.db"
)

func main() {
	initializeLogger()

	config := loadEnvironmentConfig()
	flags := parseCommandLineFlags(config)

	if err := run(flags); err != nil {
		slog.Error("Hisobot failed to run", "error", err)
		os.Exit(1)
	}
	slog.Info("Hisobot exited successfully")
}

// Config holds environment configuration
type Config struct {
	BotToken      string
	DbDriver      string
	DatabaseURL   string
	StateDir      string
	OpenAIKey     string
	APIAddr       string
	WebhookMode   bool
	WebhookSecret string
}

// Flags holds command line flag values
type Flags struct {
	botToken      *string
	dbDriver      *string
	dbDSN         *string
	stateDir      *string
	openaiKey     *string
	apiAddr       *string
	webhook       *bool
	webhookSecret *string
}

// initializeLogger sets up structured logging with debug level
func initializeLogger() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	slog.SetDefault(logger)
}

// loadEnvironmentConfig loads configuration from environment variables and .env file
func loadEnvironmentConfig() Config {
	if err := godotenv.Load(); err != nil {
		slog.Debug("failed to load .env file", "error", err)
	} else {
		slog.Debug("successfully loaded .env file")
	}

	config := Config{
		BotToken:      os.Getenv("TELEGRAM_BOT_TOKEN"),
		DbDriver:      os.Getenv("HISOBOT_DB_DRIVER"),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		StateDir:      util.EnvOrDefault("HISOBOT_STATE_DIR", DefaultStateDir),
		OpenAIKey:     os.Getenv("OPENAI_API_KEY"),
		APIAddr:       util.EnvOrDefault("API_ADDR", ":8080"),
		WebhookMode:   util.ParseBoolEnv("TELEGRAM_WEBHOOK", false),
		WebhookSecret: os.Getenv("TELEGRAM_WEBHOOK_SECRET"),
	}

	if config.DatabaseURL == "" {
		config.DatabaseURL = filepath.Join(config.StateDir, DefaultDBFileName)
		slog.Debug("No database DSN provided, defaulting to SQLite", "sqlite_path", config.DatabaseURL)
	}

	slog.Debug("environment variables loaded",
		"TELEGRAM_BOT_TOKEN_SET", config.BotToken != "",
		"HISOBOT_DB_DRIVER", config.DbDriver,
		"DATABASE_URL_SET", config.DatabaseURL != "",
		"HISOBOT_STATE_DIR", config.StateDir,
		"OPENAI_API_KEY_SET", config.OpenAIKey != "",
		"API_ADDR", config.APIAddr,
		"TELEGRAM_WEBHOOK", config.WebhookMode)

	return config
}

// parseCommandLineFlags parses command line arguments with environment defaults
func parseCommandLineFlags(config Config) Flags {
	flags := Flags{
		botToken:      flag.String("bot-token", config.BotToken, "Telegram bot token (overrides $TELEGRAM_BOT_TOKEN)"),
		dbDriver:      flag.String("db-driver", config.DbDriver, "database driver: sqlite3 or postgres (overrides $HISOBOT_DB_DRIVER)"),
		dbDSN:         flag.String("db-dsn", config.DatabaseURL, "database DSN (overrides $DATABASE_URL)"),
		stateDir:      flag.String("state-dir", config.StateDir, "state directory for Hisobot data (overrides $HISOBOT_STATE_DIR)"),
		openaiKey:     flag.String("openai-api-key", config.OpenAIKey, "OpenAI API key (overrides $OPENAI_API_KEY)"),
		apiAddr:       flag.String("api-addr", config.APIAddr, "API server address (overrides $API_ADDR)"),
		webhook:       flag.Bool("webhook", config.WebhookMode, "receive updates via webhook instead of long polling (overrides $TELEGRAM_WEBHOOK)"),
		webhookSecret: flag.String("webhook-secret", config.WebhookSecret, "secret token for webhook validation (overrides $TELEGRAM_WEBHOOK_SECRET)"),
	}

	flag.Parse()
	return flags
}

// openStore selects the storage backend from the driver flag, inferring
// Postgres from DSN shape when the driver is unset.
func openStore(driver, dsn string) (store.Store, error) {
	switch {
	case driver == "postgres", driver == "" && looksLikePostgresDSN(dsn):
		return store.NewPostgresStore(store.WithDSN(dsn))
	default:
		return store.NewSQLiteStore(store.WithDSN(dsn))
	}
}

func looksLikePostgresDSN(dsn string) bool {
	return len(dsn) > 11 && (dsn[:11] == "postgres://" || dsn[:13] == "postgresql://")
}

func run(flags Flags) error {
	if *flags.botToken == "" {
		slog.Error("TELEGRAM_BOT_TOKEN is required")
		os.Exit(1)
	}

	st, err := openStore(*flags.dbDriver, *flags.dbDSN)
	if err != nil {
		return err
	}
	defer st.Close()

	messenger, err := messaging.NewTelegramService(*flags.botToken, slog.Default())
	if err != nil {
		return err
	}

	var interpreter dispatch.Interpreter
	if *flags.openaiKey != "" {
		client, err := genai.NewClient(genai.WithAPIKey(*flags.openaiKey))
		if err != nil {
			slog.Warn("GenAI interpreter disabled", "error", err)
		} else {
			interpreter = client
		}
	} else {
		slog.Info("No OpenAI API key set, free-text interpretation disabled")
	}

	evaluator := achievements.NewEvaluator(st, slog.Default())
	imp := importer.New(st, messenger, slog.Default())
	executor := flow.NewExecutor(st, slog.Default())
	engine := flow.NewEngine(st, evaluator, imp, slog.Default())

	router := dispatch.NewRouter(dispatch.Opts{
		Store:        st,
		Executor:     executor,
		Engine:       engine,
		Messenger:    messenger,
		Interpreter:  interpreter,
		Achievements: evaluator,
		Logger:       slog.Default(),
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *flags.webhook {
		server := api.NewServer(router, slog.Default(),
			api.WithAddr(*flags.apiAddr),
			api.WithSecretToken(*flags.webhookSecret))
		return server.Run(ctx)
	}
	return poll(ctx, messenger, router)
}

// poll runs the long-polling update loop.
func poll(ctx context.Context, messenger *messaging.TelegramService, router *dispatch.Router) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := messenger.API().GetUpdatesChan(u)

	slog.Info("long polling for updates")
	for {
		select {
		case <-ctx.Done():
			messenger.API().StopReceivingUpdates()
			return nil
		case update := <-updates:
			if update.CallbackQuery != nil {
				messenger.AnswerCallback(update.CallbackQuery.ID)
			}
			userID, ev, ok := messaging.EventFromUpdate(update)
			if !ok {
				continue
			}
			go func() {
				if err := router.HandleEvent(ctx, userID, ev); err != nil {
					slog.Error("event handling failed", "userID", userID, "kind", ev.Kind, "error", err)
				}
			}()
		}
	}
}
