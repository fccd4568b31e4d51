package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/northriverboats/gear-inventory-check/internal/config"
	"github.com/northriverboats/gear-inventory-check/internal/repository/sqlite"
	"github.com/northriverboats/gear-inventory-check/internal/scheduler"
	"github.com/northriverboats/gear-inventory-check/internal/server/handlers"
	"github.com/northriverboats/gear-inventory-check/internal/server/router"
	"github.com/northriverboats/gear-inventory-check/internal/service/inventory"
	"github.com/northriverboats/gear-inventory-check/pkg/clients/catalog"
	"github.com/northriverboats/gear-inventory-check/pkg/clients/mail"
	"github.com/northriverboats/gear-inventory-check/pkg/logger"
)

func main() {
	var (
		debug      bool
		printOut   bool
		statusOnly bool
		noEmail    bool
		watch      bool
		serve      bool
		envFile    string
	)

	pflag.BoolVarP(&debug, "debug", "d", false, "show debug output, do not email")
	pflag.BoolVarP(&printOut, "print", "p", false, "print the formatted current snapshot")
	pflag.BoolVarP(&statusOnly, "status", "s", false, "report from stored data only, no fetch or email")
	pflag.BoolVar(&noEmail, "no-email", false, "run the pipeline but skip the email report")
	pflag.BoolVar(&watch, "watch", false, "keep running and snapshot on the configured cron schedule")
	pflag.BoolVar(&serve, "serve", false, "expose the latest snapshot over HTTP")
	pflag.StringVar(&envFile, "env-file", "", "path to a dotenv file with configuration")
	pflag.Parse()

	cfg, err := config.Load(envFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, "configuration:", err)
		os.Exit(1)
	}

	baseLogger := logger.Must(logger.New())
	defer func() { _ = baseLogger.Sync() }()

	zap.ReplaceGlobals(baseLogger)

	store, err := sqlite.New(cfg.Storage.DBFile, baseLogger.Named("repo.sqlite"))
	if err != nil {
		baseLogger.Fatal("failed to open snapshot store", zap.Error(err))
	}
	defer func() {
		if err := store.Close(); err != nil {
			baseLogger.Error("failed to close snapshot store", zap.Error(err))
		}
	}()

	catalogClient := catalog.NewClient(cfg.API)
	mailer := mail.New(cfg.Mail)
	svc := inventory.NewService(catalogClient, store, mailer, baseLogger.Named("svc.inventory"))

	opts := inventory.RunOptions{
		Debug:      debug,
		Print:      printOut,
		StatusOnly: statusOnly,
		Email:      !noEmail && !statusOnly && !debug,
	}

	if !watch && !serve {
		runOnce(svc, opts, baseLogger)
		return
	}

	runDaemon(cfg, svc, store, watch, serve, baseLogger)
}

func runOnce(svc *inventory.Service, opts inventory.RunOptions, baseLogger *zap.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	if err := svc.Run(ctx, opts); err != nil {
		baseLogger.Error("snapshot run failed", zap.Error(err))
		_ = baseLogger.Sync()
		os.Exit(1)
	}
}

func runDaemon(cfg *config.Config, svc *inventory.Service, store *sqlite.Repository, watch, serve bool, baseLogger *zap.Logger) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if watch {
		sched := scheduler.NewScheduler(cfg.Reporting, svc, baseLogger.Named("scheduler"))
		sched.Start()
		defer sched.Stop()
	}

	var srv *http.Server
	if serve {
		statusHandler := handlers.NewStatusHandler(store, baseLogger.Named("handlers.status"))
		engine := router.New(statusHandler, baseLogger.Named("router"))

		srv = &http.Server{
			Addr:         ":" + cfg.Server.Port,
			Handler:      engine,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		}

		go func() {
			baseLogger.Info("status server starting", zap.String("port", cfg.Server.Port))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				baseLogger.Fatal("status server crashed", zap.Error(err))
			}
		}()
	}

	<-ctx.Done()
	baseLogger.Info("shutdown signal received")

	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			baseLogger.Error("graceful shutdown failed", zap.Error(err))
		}
	}
}
