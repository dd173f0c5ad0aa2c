package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/tableside-pos/api/internal/cache"
	"github.com/tableside-pos/api/internal/config"
	"github.com/tableside-pos/api/internal/database"
	"github.com/tableside-pos/api/internal/events"
	"github.com/tableside-pos/api/internal/kitchenbus"
	"github.com/tableside-pos/api/internal/logger"
	"github.com/tableside-pos/api/internal/payment"
	"github.com/tableside-pos/api/internal/router"
	"github.com/tableside-pos/api/internal/service"
	"github.com/tableside-pos/api/internal/ws"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log, closer, err := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		File:   cfg.LogFile,
	}, os.Stdout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer closer.Close()

	if err := run(cfg, log); err != nil {
		log.WithError(err).Error("server stopped")
		closer.Close()
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *logrus.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	policy, err := service.ParseStockPolicy(cfg.StockPolicy)
	if err != nil {
		return err
	}

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()
	if err := pool.Ping(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}

	store := cache.New()
	hub := ws.NewHub(log)
	dispatcher := events.NewDispatcher(store, log, hub)

	var bus *kitchenbus.Bus
	if cfg.AMQPURL != "" {
		bus, err = kitchenbus.Dial(cfg.AMQPURL, log)
		if err != nil {
			return err
		}
		defer bus.Close()
		dispatcher.AddSink(bus)
		log.WithField("exchange", kitchenbus.Exchange).Info("forwarding kitchen events")
	}

	var gateway payment.Gateway = payment.Noop{}
	if cfg.PaymentGatewayURL != "" {
		gateway = payment.NewHTTPGateway(cfg.PaymentGatewayURL, cfg.PaymentGatewayKey, nil)
	}

	r := router.New(router.Deps{
		Config:     cfg,
		Pool:       pool,
		Queries:    database.New(pool),
		Hub:        hub,
		Cache:      store,
		Dispatcher: dispatcher,
		Options: service.Options{
			StockPolicy: policy,
			Gateway:     gateway,
			Currency:    cfg.PaymentCurrency,
		},
		Logger: log,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return hub.Run(ctx)
	})
	if bus != nil {
		g.Go(func() error {
			return bus.Run(ctx)
		})
	}
	g.Go(func() error {
		log.WithFields(logrus.Fields{
			"port":         cfg.Port,
			"stock_policy": policy,
		}).Info("starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
