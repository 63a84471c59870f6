package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/sladewinter/Momentum/internal/coach"
	"github.com/sladewinter/Momentum/internal/database"
	"github.com/sladewinter/Momentum/internal/gemini"
	"github.com/sladewinter/Momentum/internal/server"
	"github.com/sladewinter/Momentum/internal/session"
)

func gracefulShutdown(apiServer *http.Server, done chan bool) {
	// Create context that listens for the interrupt signal from the OS.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Listen for the interrupt signal.
	<-ctx.Done()

	log.Info().Msg("shutting down gracefully, press Ctrl+C again to force")
	stop() // Allow Ctrl+C to force shutdown

	// Give in-flight requests five seconds to finish.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := apiServer.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exiting")

	// Notify the main goroutine that the shutdown is complete
	done <- true
}

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if os.Getenv("APP_ENV") != "production" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	oracle, err := gemini.NewClient()
	if err != nil {
		log.Fatal().Err(err).Msg("Fatal error: could not initialize Gemini client")
	}

	// Snapshot storage is optional; without it the service runs memory-only.
	var db *database.Service
	if database.Configured() {
		db, err = database.New(context.Background())
		if err != nil {
			log.Fatal().Err(err).Msg("Fatal error: could not connect to snapshot store")
		}
		defer db.Close()
	} else {
		log.Warn().Msg("MOMENTUM_DB_HOST not set, running without snapshot persistence")
	}

	var snapshots session.Snapshots
	if db != nil {
		snapshots = db
	}
	sessions, err := session.NewManager(snapshots)
	if err != nil {
		log.Fatal().Err(err).Msg("Fatal error: could not initialize session manager")
	}

	apiServer := server.New(sessions, coach.NewController(oracle), db)

	// Create a done channel to signal when the shutdown is complete
	done := make(chan bool, 1)

	// Run graceful shutdown in a separate goroutine
	go gracefulShutdown(apiServer, done)

	log.Info().Str("addr", apiServer.Addr).Msg("Starting Momentum API")
	if err := apiServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("http server error")
	}

	// Wait for the graceful shutdown to complete
	<-done
	log.Info().Msg("Graceful shutdown complete.")
}
