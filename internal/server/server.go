// HTTP server initialization and lifecycle management.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"github.com/agrigpt/agrigpt/internal/api"
	"github.com/agrigpt/agrigpt/internal/infra/config"
)

// Config holds HTTP server configuration.
type Config struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// DefaultConfig returns default HTTP server configuration.
// WriteTimeout is generous: an advisory turn can chain several LLM round
// trips before the reply is ready.
func DefaultConfig() Config {
	return Config{
		Host:         "0.0.0.0",
		Port:         8080,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

// Server wraps the HTTP server and database.
type Server struct {
	config Config
	db     *sql.DB
	http   *http.Server
}

// NewServer creates a new HTTP server with the given database and configuration.
func NewServer(db *sql.DB, serverCfg Config, appCfg config.Config) *Server {
	router := api.NewRouter(db, appCfg)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", serverCfg.Host, serverCfg.Port),
		Handler:      router,
		ReadTimeout:  serverCfg.ReadTimeout,
		WriteTimeout: serverCfg.WriteTimeout,
		IdleTimeout:  serverCfg.IdleTimeout,
	}

	return &Server{
		config: serverCfg,
		db:     db,
		http:   httpServer,
	}
}

// Start starts the HTTP server and blocks until an error occurs.
func (s *Server) Start(ctx context.Context) error {
	fmt.Printf("Starting HTTP server on %s\n", s.http.Addr)
	return s.http.ListenAndServe()
}

// Shutdown gracefully shuts down the server and closes the database connection.
func (s *Server) Shutdown(ctx context.Context) error {
	fmt.Println("Shutting down server...")

	// Shutdown HTTP server
	if err := s.http.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	// Close database connection
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("database close error: %w", err)
	}

	fmt.Println("Server shutdown complete")
	return nil
}
