// Command recoup runs the receivables backend: the HTTP API, the
// change-log relay, the debounced WebSocket broadcaster, and the
// nightly snapshot capture job.
package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/recoupio/recoup/internal/api"
	"github.com/recoupio/recoup/internal/config"
	"github.com/recoupio/recoup/internal/db"
	"github.com/recoupio/recoup/internal/db/migrations"
	"github.com/recoupio/recoup/internal/dbpool"
	"github.com/recoupio/recoup/internal/relay"
	"github.com/recoupio/recoup/internal/service"
	"github.com/recoupio/recoup/internal/store"
	"github.com/recoupio/recoup/internal/ws"
)

const shutdownTimeout = 10 * time.Second

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("loading configuration")
	}

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.WithField("level", cfg.LogLevel).Warn("unknown log level, using info")
		level = logrus.InfoLevel
	}
	log.SetLevel(level)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.WithError(err).Fatal("server exited")
	}

	log.Info("shutdown complete")
}

func run(ctx context.Context, cfg *config.Config, log *logrus.Logger) error {
	pool, err := dbpool.NewPool(ctx, cfg.DatabaseURL.Value())
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := db.RunMigrations(ctx, pool, log, migrations.FS); err != nil {
		return err
	}

	base := store.Base{Pool: pool, Log: log}
	changeLog := store.NewChangeLogStore(base)
	debts := store.NewDebtStore(base)
	accounts := store.NewAccountStore(base)
	contacts := store.NewContactStore(base)
	snapshots := store.NewSnapshotStore(base)
	reports := store.NewReportStore(base)

	hub := ws.NewHub(log)
	debouncer := ws.NewDebouncer(hub, cfg.DebounceWindow, log)

	engine := relay.NewEngine(changeLog, debts, accounts, contacts, debouncer,
		cfg.RelayInterval, cfg.RelayBatchSize, log)

	snapshotSvc := service.NewSnapshotService(snapshots, contacts, cfg.CaptureBatchSize, cfg.CaptureBatchDelay, log)
	scheduler := service.NewCaptureScheduler(snapshotSvc, cfg.CaptureHour, cfg.CaptureMinute, log)
	reportSvc := service.NewReportService(reports, debts, contacts, cfg.RestWeekday, log)
	debtSvc := service.NewDebtService(debts, log)

	router := api.NewRouter(ctx, &api.RouterDeps{
		Log:         log,
		Pool:        pool,
		Hub:         hub,
		Reports:     reportSvc,
		Debts:       debtSvc,
		Relay:       engine,
		Capture:     snapshotSvc,
		CORSOrigins: cfg.CORSOrigins,
		Version:     config.Version,
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		hub.Run(gctx)

		return nil
	})

	g.Go(func() error {
		engine.Run(gctx)

		return nil
	})

	g.Go(func() error {
		scheduler.Run(gctx)

		return nil
	})

	g.Go(func() error {
		log.WithFields(logrus.Fields{"addr": cfg.Addr(), "version": config.Version}).Info("server listening")

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}

		return nil
	})

	// Shutdown sequencing: stop accepting HTTP, flush pending broadcasts,
	// then drain WebSocket clients. The relay and scheduler stop via gctx.
	g.Go(func() error {
		<-gctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Warn("http shutdown")
		}

		debouncer.Close()
		hub.Shutdown()

		return nil
	})

	return g.Wait()
}
