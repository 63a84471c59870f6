/*
Package database is the thin persistence wrapper for session snapshots. The
whole user state round-trips as one JSON document per user; durability
beyond that is not this service's problem.
*/
package database

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/joho/godotenv/autoload"
	"github.com/rs/zerolog/log"
)

var (
	dbname   = os.Getenv("MOMENTUM_DB_DATABASE")
	password = os.Getenv("MOMENTUM_DB_PASSWORD")
	username = os.Getenv("MOMENTUM_DB_USERNAME")
	port     = os.Getenv("MOMENTUM_DB_PORT")
	host     = os.Getenv("MOMENTUM_DB_HOST")
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS user_state (
    username   TEXT PRIMARY KEY,
    state      JSONB NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// Service wraps the connection pool and implements session.Snapshots.
type Service struct {
	pool *pgxpool.Pool
}

// Configured reports whether snapshot storage is configured at all. When it
// is not, the application runs memory-only.
func Configured() bool {
	return host != ""
}

// New connects to Postgres using the MOMENTUM_DB_* environment variables and
// ensures the state table exists.
func New(ctx context.Context) (*Service, error) {
	connStr := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", username, password, host, port, dbname)
	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}
	if _, err := pool.Exec(ctx, schemaSQL); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ensure user_state table: %w", err)
	}
	log.Info().Str("host", host).Str("database", dbname).Msg("Connected to snapshot store")
	return &Service{pool: pool}, nil
}

// Load fetches the snapshot for a username. The second return reports
// whether one exists.
func (s *Service) Load(ctx context.Context, user string) ([]byte, bool, error) {
	var state []byte
	err := s.pool.QueryRow(ctx, `SELECT state FROM user_state WHERE username = $1`, user).Scan(&state)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to load state for %q: %w", user, err)
	}
	return state, true, nil
}

// Save upserts the snapshot for a username.
func (s *Service) Save(ctx context.Context, user string, state []byte) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO user_state (username, state, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (username)
		DO UPDATE SET state = EXCLUDED.state, updated_at = now()`,
		user, state)
	if err != nil {
		return fmt.Errorf("failed to save state for %q: %w", user, err)
	}
	return nil
}

// Delete removes the snapshot for a username (account deletion).
func (s *Service) Delete(ctx context.Context, user string) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM user_state WHERE username = $1`, user); err != nil {
		return fmt.Errorf("failed to delete state for %q: %w", user, err)
	}
	return nil
}

// Health checks the health of the database connection and reports pool
// statistics.
func (s *Service) Health() map[string]string {
	ctx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
	defer cancel()

	stats := make(map[string]string)

	if err := s.pool.Ping(ctx); err != nil {
		stats["status"] = "down"
		stats["error"] = fmt.Sprintf("db down: %v", err)
		log.Error().Err(err).Msg("Snapshot store unreachable")
		return stats
	}

	poolStats := s.pool.Stat()
	stats["status"] = "up"
	stats["total_conns"] = strconv.Itoa(int(poolStats.TotalConns()))
	stats["idle_conns"] = strconv.Itoa(int(poolStats.IdleConns()))
	stats["acquired_conns"] = strconv.Itoa(int(poolStats.AcquiredConns()))
	stats["max_conns"] = strconv.Itoa(int(poolStats.MaxConns()))

	return stats
}

// Close closes the connection pool.
func (s *Service) Close() {
	log.Info().Str("database", dbname).Msg("Disconnected from snapshot store")
	s.pool.Close()
}
