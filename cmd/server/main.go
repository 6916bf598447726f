package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"pongserver/internal/config"
	"pongserver/internal/httpapi"
	"pongserver/internal/hub"
	"pongserver/internal/store"
	"pongserver/internal/ws"
)

func main() {
	log, err := zap.NewProduction()
	if err != nil {
		os.Exit(1)
	}
	defer log.Sync()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("load config", zap.Error(err))
	}

	st, err := openStore(cfg, log)
	if err != nil {
		log.Fatal("open store", zap.Error(err))
	}

	h := hub.New(log)
	api := httpapi.NewAPI(h, log)
	handler := httpapi.SetupRoutes(api, ws.Deps{
		Hub:       h,
		Store:     st,
		Log:       log,
		Countdown: cfg.Countdown,
		WinScore:  cfg.WinScore,
	})

	srv := &http.Server{Addr: cfg.Addr, Handler: handler}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("listening", zap.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		log.Info("shutting down")
		h.StopAll()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Fatal("server exited", zap.Error(err))
	}
}

// openStore picks the database-backed store when DATABASE_URL is set
// and falls back to the in-memory one otherwise.
func openStore(cfg *config.Config, log *zap.Logger) (store.Store, error) {
	if cfg.DatabaseURL == "" {
		log.Info("no DATABASE_URL, using in-memory store")
		return store.NewMemoryStore(), nil
	}
	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{})
	if err != nil {
		return nil, err
	}
	return store.NewGormStore(db)
}
