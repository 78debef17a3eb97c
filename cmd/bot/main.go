package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"phq9_screening_bot/internal/app"
	"phq9_screening_bot/internal/domain/screening"
	"phq9_screening_bot/internal/infra/cache"
	"phq9_screening_bot/internal/infra/config"
	idb "phq9_screening_bot/internal/infra/database"
	"phq9_screening_bot/internal/infra/httpapi"
	"phq9_screening_bot/internal/infra/logger"
	"phq9_screening_bot/internal/infra/memory"
	"phq9_screening_bot/internal/infra/scheduler"
	"phq9_screening_bot/internal/infra/telegram"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Log.Fatalf("FATAL: Could not load application configuration: %v", err)
	}
	logger.Init(cfg)
	mainLogger := logger.Component("main")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	repo, closeRepo, err := newSessionRepository(ctx, cfg, mainLogger)
	if err != nil {
		mainLogger.WithError(err).Fatal("Could not initialize session store")
	}
	defer closeRepo()

	router := app.NewRouter(app.RouterOptions{
		AcceptNumericReplies:   cfg.AcceptNumericReplies,
		RepromptUnclearConsent: cfg.RepromptUnclearConsent,
	})
	conversations := app.NewConversationService(repo, router, logger.Component("conversation_service"))
	mainLogger.Info("Conversation service initialized.")

	purgeScheduler := scheduler.NewPurgeScheduler(conversations, logger.Component("scheduler"), cfg.CronSpecSessionPurge, cfg.FinishedSessionRetention)
	if err := purgeScheduler.Start(); err != nil {
		mainLogger.WithError(err).Fatal("Could not start session purge scheduler")
	}

	var bot *telebot.Bot
	if cfg.TelegramToken != "" {
		bot, err = newTelegramBot(ctx, cfg, conversations)
		if err != nil {
			mainLogger.WithError(err).Fatal("Could not create Telegram bot")
		}
		go bot.Start()
		mainLogger.Info("Telegram bot started.")
	}

	var srv *http.Server
	if cfg.HTTPAddr != "" {
		if cfg.Environment == "production" {
			gin.SetMode(gin.ReleaseMode)
		}
		srv = &http.Server{
			Addr:              cfg.HTTPAddr,
			Handler:           httpapi.NewRouter(conversations, logger.Component("http")),
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			mainLogger.WithField("addr", cfg.HTTPAddr).Info("HTTP chat API listening.")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				mainLogger.WithError(err).Fatal("HTTP server failed")
			}
		}()
	}

	<-ctx.Done()

	mainLogger.Info("Shutting down application...")
	if bot != nil {
		bot.Stop()
	}
	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			mainLogger.WithError(err).Warn("HTTP server shutdown did not complete cleanly")
		}
	}
	purgeScheduler.Stop()
	mainLogger.Info("Application shut down gracefully.")
}

func newSessionRepository(ctx context.Context, cfg *config.AppConfig, log *logrus.Entry) (screening.Repository, func(), error) {
	switch cfg.SessionStore {
	case config.StorePostgres:
		db, err := idb.NewPostgresConnection(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		repo := idb.NewPostgresSessionRepository(db)
		if err := repo.EnsureSchema(ctx); err != nil {
			db.Close()
			return nil, nil, err
		}
		log.Info("Postgres session store ready.")
		return repo, func() { db.Close() }, nil

	case config.StoreRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		repo := cache.NewRedisSessionRepository(client)
		if err := repo.Ping(ctx); err != nil {
			client.Close()
			return nil, nil, err
		}
		log.WithField("addr", cfg.RedisAddr).Info("Redis session store ready.")
		return repo, func() { client.Close() }, nil

	default:
		log.Info("In-memory session store ready; sessions do not survive restarts.")
		return memory.NewSessionRepository(), func() {}, nil
	}
}

func newTelegramBot(ctx context.Context, cfg *config.AppConfig, conversations *app.ConversationService) (*telebot.Bot, error) {
	tgLogger := logger.Component("telegram")
	pref := telebot.Settings{
		Token:  cfg.TelegramToken,
		Poller: &telebot.LongPoller{Timeout: 10 * time.Second},
		OnError: func(err error, c telebot.Context) { // Global error handler
			entry := tgLogger.WithError(err)
			if c != nil && c.Chat() != nil {
				entry = entry.WithField("chat_id", c.Chat().ID)
			}
			entry.Error("Telegram handler error")
		},
	}
	bot, err := telebot.NewBot(pref)
	if err != nil {
		return nil, err
	}

	adapter := telegram.NewTelebotAdapter(bot)
	telegram.RegisterBotCommands(ctx, bot, adapter, conversations, tgLogger)
	telegram.RegisterConversationHandlers(ctx, bot, adapter, conversations, tgLogger)
	return bot, nil
}
