package main // Entry point package

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/iliyamo/auth-service/internal/config"
	"github.com/iliyamo/auth-service/internal/database"
	"github.com/iliyamo/auth-service/internal/handler"
	"github.com/iliyamo/auth-service/internal/keys"
	"github.com/iliyamo/auth-service/internal/logging"
	"github.com/iliyamo/auth-service/internal/middleware"
	"github.com/iliyamo/auth-service/internal/queue"
	"github.com/iliyamo/auth-service/internal/repository"
	"github.com/iliyamo/auth-service/internal/router"
	"github.com/iliyamo/auth-service/internal/service"
)

const (
	shutdownTimeout = 10 * time.Second
	purgeInterval   = time.Hour
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}
	log := logging.New(cfg.App.Env, cfg.App.LogLevel)
	slog.SetDefault(log)

	if err := run(cfg, log); err != nil {
		log.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(ctx, cfg.DB.User, cfg.DB.Pass, cfg.DB.Host, cfg.DB.Port, cfg.DB.Name)
	if err != nil {
		return err
	}
	defer db.Close()
	if cfg.App.MigrateOnStart {
		if err := database.Migrate(ctx, db); err != nil {
			return err
		}
	}

	// Fail fast on a missing or unreadable signing key.
	loader := keys.NewLoader(cfg.Token.PrivateKeyPath)
	if _, err := loader.Private(); err != nil {
		return err
	}

	users := repository.NewUserRepo(db)
	records := repository.NewTokenRepo(db)

	var (
		svcDeny service.Denylist
		mwDeny  middleware.Denylist
	)
	if rdb := config.NewRedisClient(cfg.Redis); rdb != nil {
		defer rdb.Close()
		deny := repository.NewDenylistRepo(rdb, cfg.Redis.Prefix)
		svcDeny, mwDeny = deny, deny
	} else {
		log.Warn("redis unavailable; logged-out access tokens stay valid until expiry", "addr", cfg.Redis.Addr)
	}

	var events service.EventPublisher
	if cfg.Events.Enabled {
		events = queue.NewPublisher(cfg.Events.URL, cfg.Events.Queue)
	}
	if cfg.Events.ConsumerEnabled {
		consumer := &queue.AuditConsumer{URL: cfg.Events.URL, Queue: cfg.Events.Queue, Dir: cfg.Events.AuditLogDir, Log: log}
		go func() {
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("audit consumer stopped", "error", err)
			}
		}()
	}

	tokens := service.NewTokenService(loader, cfg.Token.RefreshSecret, cfg.Token.Issuer,
		cfg.Token.AccessTTL, cfg.Token.RefreshTTL, records)
	auth := service.NewAuthService(users, tokens, svcDeny, events, log, cfg.Token.BcryptCost)
	go purgeExpired(ctx, tokens, log)

	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = handler.ErrorHandler(log)
	e.Use(echomw.Recover())
	e.Use(echomw.RequestIDWithConfig(echomw.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			attrs := []any{"method", v.Method, "uri", v.URI, "status", v.Status,
				"latency", v.Latency, "request_id", v.RequestID}
			if v.Error != nil {
				attrs = append(attrs, "error", v.Error)
			}
			log.LogAttrs(c.Request().Context(), slog.LevelInfo, "request", slog.Group("http", attrs...))
			return nil
		},
	}))

	router.RegisterRoutes(e, loader)
	router.RegisterAuth(e, handler.NewAuthHandler(auth, cfg.Cookie), router.Deps{
		Keys:          loader,
		Issuer:        cfg.Token.Issuer,
		RefreshSecret: []byte(cfg.Token.RefreshSecret),
		Records:       records,
		Denylist:      mwDeny,
		Log:           log,
	})

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", "addr", cfg.Addr(), "env", cfg.App.Env)
		if err := e.Start(cfg.Addr()); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	log.Info("shutting down")
	return e.Shutdown(shutdownCtx)
}

// purgeExpired deletes expired refresh token records once per interval.
func purgeExpired(ctx context.Context, tokens *service.TokenService, log *slog.Logger) {
	t := time.NewTicker(purgeInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			n, err := tokens.PurgeExpired(ctx)
			if err != nil {
				log.Warn("purge expired refresh tokens", "error", err)
				continue
			}
			if n > 0 {
				log.Info("purged expired refresh tokens", "count", n)
			}
		}
	}
}
