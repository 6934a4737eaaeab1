package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/iliyamo/guestlist/internal/clock"
	"github.com/iliyamo/guestlist/internal/config"
	"github.com/iliyamo/guestlist/internal/database"
	"github.com/iliyamo/guestlist/internal/guestlist"
	"github.com/iliyamo/guestlist/internal/handler"
	"github.com/iliyamo/guestlist/internal/logging"
	"github.com/iliyamo/guestlist/internal/middleware"
	"github.com/iliyamo/guestlist/internal/queue"
	"github.com/iliyamo/guestlist/internal/repository"
	"github.com/iliyamo/guestlist/internal/router"
	"github.com/iliyamo/guestlist/internal/service"
)

func main() {
	cfg := config.Load()
	logger := logging.New(os.Stdout, cfg.LogLevel, cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(ctx, database.Options{
		User:     cfg.DB.User,
		Password: cfg.DB.Pass,
		Host:     cfg.DB.Host,
		Port:     cfg.DB.Port,
		Name:     cfg.DB.Name,
		MaxConns: cfg.DB.MaxConns,
	})
	if err != nil {
		logger.Error("database unavailable", "err", err)
		os.Exit(1)
	}
	defer db.Close()
	if cfg.DB.Migrate {
		if err := database.Migrate(ctx, db); err != nil {
			logger.Error("migration failed", "err", err)
			os.Exit(1)
		}
	}

	loc, err := cfg.Location()
	if err != nil {
		logger.Error("invalid event time zone", "err", err)
		os.Exit(1)
	}
	clk := clock.NewSystem()
	tx := repository.NewTxManager(db)
	events := repository.NewEventRepo(db)
	reservations := repository.NewReservationRepo(db)
	resolver := guestlist.NewResolver(loc)

	admissions := guestlist.NewAdmissions(tx, events, reservations, resolver, clk,
		guestlist.WithMaxAttempts(cfg.AdmissionMaxAttempts),
		guestlist.WithLogger(logging.Component(logger, "admission")),
	)
	viewer := guestlist.NewViewer(events, reservations, resolver, clk)
	catalog := guestlist.NewCatalog(tx, events, events, reservations, viewer, clk, logging.Component(logger, "catalog"))
	gate := guestlist.NewGate(events, reservations, clk, logging.Component(logger, "redemption"))

	var publisher service.Publisher
	if cfg.RabbitURL != "" {
		amqpPub := service.NewAMQPPublisher(cfg.RabbitURL)
		defer amqpPub.Close()
		publisher = amqpPub
	} else {
		logger.Warn("RABBITMQ_URL not set, event publishing disabled")
	}
	notifier := service.NewNotifier(publisher, clk, logging.Component(logger, "notifier"))

	rdb := config.NewRedisClient(ctx, cfg.Redis)
	if rdb == nil {
		logger.Warn("redis unavailable, caching and rate limiting disabled", "addr", cfg.Redis.Address())
	} else {
		defer rdb.Close()
	}

	httpLog := logging.Component(logger, "http")
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(middleware.RequestLogger(httpLog))

	limit := middleware.NewTokenBucket(cfg.RateLimit, rdb, httpLog)
	cache := middleware.NewRedisCache(cfg.Cache, rdb)

	router.RegisterRoutes(e, handler.Health(db))
	router.RegisterPublic(e, handler.NewPublicHandler(viewer, httpLog), cache)
	router.RegisterPatron(e, handler.NewPatronHandler(admissions, viewer, notifier, httpLog), cfg.JWTSecret, limit)
	router.RegisterVenue(e,
		handler.NewVenueHandler(admissions, viewer, catalog, notifier, httpLog),
		handler.NewDoorHandler(gate, notifier, httpLog),
		cfg.JWTSecret, limit)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		addr := ":" + cfg.Port
		logger.Info("listening", "addr", addr, "env", cfg.Env, "event_timezone", loc.String())
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return e.Shutdown(shutdownCtx)
	})
	if cfg.RabbitURL != "" && cfg.QueueConsumerEnabled {
		consumer := queue.NewConsumer(cfg.RabbitURL, queue.NewAuditLog(cfg.AuditLogPath), logging.Component(logger, "queue"))
		g.Go(func() error {
			if err := consumer.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		logger.Error("server stopped", "err", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}
