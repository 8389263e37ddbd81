// Package main launches the in-memory development backend
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/UnendingLoop/ImageOrchestrator/internal/appconfig"
	"github.com/UnendingLoop/ImageOrchestrator/internal/devbackend"
	"github.com/wb-go/wbf/zlog"
)

func main() {
	// инициализировать конфиг/ считать энвы
	src, err := appconfig.FromEnv("./.env")
	if err != nil {
		log.Fatalf("Failed to load envs: %s\nExiting app...", err)
	}
	cfg, err := appconfig.Load(src)
	if err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	// стартуем логгер
	zlog.InitConsole()
	if err := zlog.SetLevel(cfg.LogLevel); err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}

	// готовим заранее слушатель прерываний - контекст для всего приложения
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store := devbackend.NewMemStore()
	handler := devbackend.NewImageHandler(store, cfg.Limits())

	srv := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           devbackend.NewRouter(handler, cfg.GinMode, cfg.AdvancedPath),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Server launch
	go func() {
		zlog.Logger.Info().Msgf("Dev backend running on http://localhost%s", srv.Addr)
		err := srv.ListenAndServe()
		if err != nil {
			switch {
			case errors.Is(err, http.ErrServerClosed):
				zlog.Logger.Info().Msg("Server gracefully stopping...")
			default:
				zlog.Logger.Error().Err(err).Msg("Server stopped")
				stop()
			}
		}
	}()

	// ждем отмены контекста для грейсфул остановки
	<-ctx.Done()

	shutdown(srv)
	zlog.Logger.Info().Int("files", store.Len()).Msg("Exiting dev backend...")
}

func shutdown(srv *http.Server) {
	zlog.Logger.Info().Msg("Interrupt received!!! Starting shutdown sequence...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		zlog.Logger.Error().Err(err).Msg("Failed to shutdown server correctly")
		return
	}
	zlog.Logger.Info().Msg("Server closed")
}
