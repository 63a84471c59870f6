/*
Package server implements the application's network transport layer.
It initializes the HTTP server, configures timeouts, and wires the
session manager, the coaching controller, and the optional snapshot store
into the route handlers.
*/
package server

import (
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	_ "github.com/joho/godotenv/autoload"

	"github.com/sladewinter/Momentum/internal/coach"
	"github.com/sladewinter/Momentum/internal/database"
	"github.com/sladewinter/Momentum/internal/session"
)

// Server holds the configuration and dependencies for the HTTP service.
type Server struct {
	// port specifies the TCP port the server will listen on.
	port int

	// sessions hands out per-user state.
	sessions *session.Manager

	// coach orchestrates plan generation and conversational turns.
	coach *coach.Controller

	// db is the snapshot store; nil in memory-only mode.
	db *database.Service

	// hub pushes refresh notifications to connected dashboards.
	hub *Hub

	// limiter throttles coach sends per user.
	limiter *sendLimiter
}

// New initializes the Server and returns a configured *http.Server with
// production network timeouts. Port comes from the PORT environment
// variable, defaulting to 8080.
func New(sessions *session.Manager, controller *coach.Controller, db *database.Service) *http.Server {
	port, err := strconv.Atoi(os.Getenv("PORT"))
	if err != nil || port == 0 {
		port = 8080
	}

	app := &Server{
		port:     port,
		sessions: sessions,
		coach:    controller,
		db:       db,
		hub:      NewHub(),
		limiter:  newSendLimiter(),
	}

	return &http.Server{
		Addr:         fmt.Sprintf(":%d", app.port),
		Handler:      app.RegisterRoutes(),
		IdleTimeout:  time.Minute,      // Time to wait for the next request on keep-alive connections.
		ReadTimeout:  10 * time.Second, // Maximum duration for reading the entire request.
		WriteTimeout: 90 * time.Second, // Generation turns can take a while; keep writes open long enough.
	}
}
