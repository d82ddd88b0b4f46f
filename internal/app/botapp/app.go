package botapp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/nilufaroy/FerPs-Anon-bot-2/internal/config"
	tginfra "github.com/nilufaroy/FerPs-Anon-bot-2/internal/infra/telegram"
	pgrepo "github.com/nilufaroy/FerPs-Anon-bot-2/internal/repo/postgres"
	redrepo "github.com/nilufaroy/FerPs-Anon-bot-2/internal/repo/redis"
	accesssvc "github.com/nilufaroy/FerPs-Anon-bot-2/internal/services/access"
	exportsvc "github.com/nilufaroy/FerPs-Anon-bot-2/internal/services/export"
	modsvc "github.com/nilufaroy/FerPs-Anon-bot-2/internal/services/moderation"
	ratesvc "github.com/nilufaroy/FerPs-Anon-bot-2/internal/services/rate"
	relaysvc "github.com/nilufaroy/FerPs-Anon-bot-2/internal/services/relay"
	rostersvc "github.com/nilufaroy/FerPs-Anon-bot-2/internal/services/roster"
)

type App struct {
	cfg      config.Config
	logger   *zap.Logger
	postgres *pgxpool.Pool
	redis    *goredis.Client
	bot      *tginfra.Bot
	server   *http.Server

	settingRepo    *pgrepo.SettingRepo
	submissionRepo *pgrepo.SubmissionRepo
	banRepo        *pgrepo.BanRepo

	access     *accesssvc.Service
	relay      *relaysvc.Service
	moderation *modsvc.Service
	export     *exportsvc.Service
	roster     *rostersvc.Service
}

func New(ctx context.Context, cfg config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is nil")
	}

	var pool *pgxpool.Pool
	if p, err := pgrepo.NewPool(ctx, cfg.Postgres.DSN); err != nil {
		logger.Warn("postgres init failed, continuing in degraded mode", zap.Error(err))
	} else {
		pool = p
	}

	if pool != nil {
		if err := pgrepo.EnsureSchema(ctx, pool); err != nil {
			logger.Warn("schema bootstrap failed, continuing in degraded mode", zap.Error(err))
			pool.Close()
			pool = nil
		}
	}

	settingRepo := pgrepo.NewSettingRepo(pool)
	submissionRepo := pgrepo.NewSubmissionRepo(pool)
	banRepo := pgrepo.NewBanRepo(pool)

	if pool != nil {
		if err := settingRepo.SeedDefault(ctx, pgrepo.KeyChannelUsername, cfg.Bot.DefaultChannel); err != nil {
			pool.Close()
			return nil, fmt.Errorf("seed default channel: %w", err)
		}
	}

	var bot *tginfra.Bot
	if strings.TrimSpace(cfg.Bot.Token) != "" {
		b, err := tginfra.NewBot(cfg.Bot.Token)
		if err != nil {
			if pool != nil {
				pool.Close()
			}
			return nil, fmt.Errorf("init telegram bot: %w", err)
		}
		bot = b
	} else {
		logger.Warn("BOT_TOKEN is empty, updates will be acknowledged and dropped")
	}

	access := accesssvc.NewService(cfg.Bot.AdminIDs, settingRepo, bot)
	relay := relaysvc.NewService(settingRepo, banRepo, submissionRepo, bot, access, cfg.Bot.DefaultChannel, logger)
	moderation := modsvc.NewService(submissionRepo, banRepo, bot, access, logger)
	export := exportsvc.NewService(submissionRepo, bot, bot, logger)
	roster := rostersvc.NewService(submissionRepo, bot)

	var redisClient *goredis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redrepo.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		limiter := ratesvc.NewLimiter(redrepo.NewWindowRepo(redisClient), cfg.Rate.SubmissionsPerMinute)
		relay.AttachRateGate(limiter)
	} else {
		logger.Info("redis addr is empty, submission rate gate disabled")
	}

	app := &App{
		cfg:            cfg,
		logger:         logger,
		postgres:       pool,
		redis:          redisClient,
		bot:            bot,
		settingRepo:    settingRepo,
		submissionRepo: submissionRepo,
		banRepo:        banRepo,
		access:         access,
		relay:          relay,
		moderation:     moderation,
		export:         export,
		roster:         roster,
	}

	r := chi.NewRouter()
	ApplyMiddlewares(r, logger)
	app.registerRoutes(r)

	app.server = &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      r,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	return app, nil
}

// Run registers the webhook and serves it until the context is cancelled.
func (a *App) Run(ctx context.Context) error {
	if a.bot != nil && a.cfg.Webhook.BaseURL != "" {
		url := strings.TrimRight(a.cfg.Webhook.BaseURL, "/") + a.cfg.Webhook.Path
		if err := a.bot.RegisterWebhook(ctx, url, 5); err != nil {
			return fmt.Errorf("register webhook: %w", err)
		}
		a.logger.Info("webhook registered", zap.String("url", url))
	} else {
		a.logger.Warn("webhook registration skipped, BASE_URL or bot credential missing")
	}

	a.logger.Info("bot app started", zap.String("addr", a.cfg.HTTP.Addr))

	errCh := make(chan error, 1)
	go func() {
		errCh <- a.server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown webhook server: %w", err)
		}
		a.logger.Info("bot app stopped")
		return nil
	case err := <-errCh:
		if err == nil || errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// Handler exposes the HTTP stack for tests.
func (a *App) Handler() http.Handler {
	return a.server.Handler
}

func (a *App) Close() {
	if a.postgres != nil {
		a.postgres.Close()
	}
	if a.redis != nil {
		_ = a.redis.Close()
	}
}
