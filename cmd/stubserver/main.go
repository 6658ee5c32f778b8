package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/smartattend/teacher-console/internal/config"
	"github.com/smartattend/teacher-console/internal/logger"
	"github.com/smartattend/teacher-console/internal/stub"
)

// stubserver runs the in-memory attendance backend on its own, so the
// console can be exercised without the real deployment. It boots with one
// demo teacher and a small roster.
func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)

	gin.SetMode(cfg.GinMode)

	// ─── Build Stub State ──────────────────────────────────────────────
	srv := stub.New(log)
	srv.SeedTeacher("100001", "demo", "demo@school.test", "password123")
	srv.SeedStudent("Asha Rao", "R001", "asha@school.test", nil)
	srv.SeedStudent("Vikram Iyer", "R002", "vikram@school.test", nil)
	srv.SeedStudent("Meera Nair", "R003", "meera@school.test", nil)
	log.Info().Str("teacher_id", "100001").Str("password", "password123").Msg("Demo teacher seeded")

	httpSrv := &http.Server{
		Addr:    ":" + cfg.StubPort,
		Handler: srv.Router(cfg.AllowedOrigins),
	}

	// ─── Start Server in Goroutine ─────────────────────────────────────
	go func() {
		log.Info().Str("addr", ":"+cfg.StubPort).Msg("Stub server listening")
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	// ─── Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
