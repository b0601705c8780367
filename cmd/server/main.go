package main // Entry point package

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/iliyamo/beach-lounger-reservation/internal/clock"
	"github.com/iliyamo/beach-lounger-reservation/internal/config"
	"github.com/iliyamo/beach-lounger-reservation/internal/database"
	"github.com/iliyamo/beach-lounger-reservation/internal/handler"
	"github.com/iliyamo/beach-lounger-reservation/internal/middleware"
	"github.com/iliyamo/beach-lounger-reservation/internal/queue"
	"github.com/iliyamo/beach-lounger-reservation/internal/repository"
	"github.com/iliyamo/beach-lounger-reservation/internal/router"
	"github.com/iliyamo/beach-lounger-reservation/internal/service"
	"github.com/iliyamo/beach-lounger-reservation/internal/utils"
)

func main() {
	app := &cli.App{
		Name:  "beach",
		Usage: "beach lounger booking service",
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "run the HTTP API and the lounger event audit consumer",
				Action: serve,
			},
			{
				Name:   "migrate",
				Usage:  "create the booking tables",
				Action: migrate,
			},
			{
				Name:  "token",
				Usage: "mint an access token for manual testing",
				Flags: []cli.Flag{
					&cli.Uint64Flag{Name: "user", Required: true, Usage: "user id (sub claim)"},
					&cli.StringFlag{Name: "role", Value: middleware.RoleUser, Usage: "user, moderator or admin"},
					&cli.DurationFlag{Name: "ttl", Value: time.Hour, Usage: "token lifetime"},
				},
				Action: token,
			},
		},
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newLogger(env string) *zap.Logger {
	var (
		log *zap.Logger
		err error
	)
	if env == "prod" || env == "production" {
		log, err = zap.NewProduction()
	} else {
		log, err = zap.NewDevelopment()
	}
	if err != nil {
		return zap.NewNop()
	}
	return log
}

func serve(c *cli.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.RequireJWTSecret(); err != nil {
		return err
	}
	log := newLogger(cfg.Env)
	defer func() { _ = log.Sync() }()

	db, err := database.Open(dbOptions(cfg))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	rdb := config.NewRedisClient(cfg.Redis)
	var inv service.Invalidator = service.NopInvalidator{}
	if rdb != nil {
		defer rdb.Close()
		inv = service.NewRedisInvalidator(rdb, cfg.Cache.Prefix)
	} else {
		log.Warn("redis unavailable; caching and rate limiting disabled", zap.String("addr", cfg.Redis.Address()))
	}

	var pub service.Publisher = service.DiscardPublisher{}
	if cfg.RabbitMQURL != "" {
		p := service.NewAMQPPublisher(cfg.RabbitMQURL, log)
		defer p.Close()
		pub = p
	} else {
		log.Warn("RABBITMQ_URL not set; lounger events are discarded")
	}

	svc := service.NewBookingService(repository.NewReservationRepo(db), clock.NewSystem(), pub, inv, log, service.Options{
		CancelCutoff: cfg.Booking.CancelCutoff,
		Timeout:      cfg.Booking.Timeout,
		OpenHour:     cfg.Booking.OpenHour,
		CloseHour:    cfg.Booking.CloseHour,
	})
	h := handler.NewBookingHandler(svc, log)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(echomw.Recover())
	e.Use(middleware.RequestLogger(log))

	limiter := middleware.NewTokenBucket(cfg.RateLimit, rdb, log)
	cache := middleware.NewRedisCache(cfg.Cache, rdb, log)
	router.RegisterRoutes(e)
	router.RegisterPublic(e, h, limiter, cache)
	router.RegisterBookings(e, h, cfg.JWTSecret, limiter)
	router.RegisterAdmin(e, h, cfg.JWTSecret, limiter)

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()
	g, ctx := errgroup.WithContext(ctx)

	if cfg.RabbitMQURL != "" {
		consumer := &queue.AuditConsumer{URL: cfg.RabbitMQURL, LogPath: cfg.AuditLogPath, Logger: log}
		g.Go(func() error { return consumer.Run(ctx) })
	}

	g.Go(func() error {
		addr := ":" + cfg.Port
		log.Info("listening", zap.String("addr", addr), zap.String("env", cfg.Env))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		log.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownWait)
		defer cancel()
		if err := e.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
		return nil
	})

	return g.Wait()
}

func migrate(c *cli.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := newLogger(cfg.Env)
	defer func() { _ = log.Sync() }()

	db, err := database.Open(dbOptions(cfg))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	if err := database.Migrate(c.Context, db); err != nil {
		return err
	}
	log.Info("schema up to date", zap.String("database", cfg.DB.Name))
	return nil
}

func token(c *cli.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.RequireJWTSecret(); err != nil {
		return err
	}
	tok, err := utils.NewAccessToken(cfg.JWTSecret, c.Uint64("user"), c.String("role"), c.Duration("ttl"))
	if err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, tok.Token)
	return nil
}

func dbOptions(cfg config.Config) database.Options {
	return database.Options{
		User:            cfg.DB.User,
		Pass:            cfg.DB.Pass,
		Host:            cfg.DB.Host,
		Port:            cfg.DB.Port,
		Name:            cfg.DB.Name,
		MaxOpenConns:    cfg.DB.MaxOpenConns,
		ConnMaxLifetime: cfg.DB.ConnMaxLifetime,
	}
}
