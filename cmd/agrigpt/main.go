// AgriGPT - Farm advisory backend
// Entry point: serve the HTTP API or run database migrations.

package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/agrigpt/agrigpt/internal/domain/session"
	"github.com/agrigpt/agrigpt/internal/infra/config"
	"github.com/agrigpt/agrigpt/internal/infra/sqlite"
	"github.com/agrigpt/agrigpt/internal/server"
	"github.com/agrigpt/agrigpt/internal/version"
)

// imageExpiryAge is how long an uploaded session image is kept.
const imageExpiryAge = 24 * time.Hour

// imageExpiryInterval is how often the expiry sweep runs.
const imageExpiryInterval = time.Hour

func main() {
	os.Exit(run(os.Args[1:], os.Stdout))
}

func run(args []string, out io.Writer) int {
	fs := flag.NewFlagSet("agrigpt", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	showVersion := fs.Bool("version", false, "Show version information")
	showHelp := fs.Bool("help", false, "Show help")

	if err := fs.Parse(args); err != nil {
		return 2
	}

	if *showVersion {
		fmt.Fprintln(out, version.String()) //nolint:errcheck
		return 0
	}

	if *showHelp {
		printHelp(out)
		return 0
	}

	switch fs.Arg(0) {
	case "serve":
		serveFlags := flag.NewFlagSet("agrigpt serve", flag.ContinueOnError)
		serveFlags.SetOutput(io.Discard)
		port := serveFlags.Int("port", 0, "HTTP port (overrides default 8080)")
		if err := serveFlags.Parse(fs.Args()[1:]); err != nil {
			return 2
		}
		return serve(out, *port)
	case "migrate":
		return migrate(out)
	case "":
		fmt.Fprintln(out, version.String()) //nolint:errcheck
		return 0
	default:
		fmt.Fprintf(out, "unknown command: %s\n", fs.Arg(0)) //nolint:errcheck
		printHelp(out)
		return 2
	}
}

// serve starts the HTTP server and blocks until SIGINT/SIGTERM.
func serve(out io.Writer, port int) int {
	cfg := config.Load()

	db, err := sqlite.NewDB(cfg.DBPath)
	if err != nil {
		fmt.Fprintf(out, "failed to open database: %v\n", err) //nolint:errcheck
		return 1
	}
	if err := sqlite.MigrateUp(db); err != nil {
		fmt.Fprintf(out, "failed to run migrations: %v\n", err) //nolint:errcheck
		return 1
	}

	serverCfg := server.DefaultConfig()
	if port > 0 {
		serverCfg.Port = port
	}

	srv := server.NewServer(db, serverCfg, cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Expire stale session images on a schedule. Uploads are only needed
	// while the conversation about them is live.
	sessions := session.NewStore(db, cfg.ImageDir)
	go expireImagesLoop(ctx, sessions)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start(ctx) }()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			fmt.Fprintf(out, "shutdown error: %v\n", err) //nolint:errcheck
			return 1
		}
		return 0
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			fmt.Fprintf(out, "server error: %v\n", err) //nolint:errcheck
			return 1
		}
		return 0
	}
}

// expireImagesLoop sweeps expired session images until ctx is cancelled.
func expireImagesLoop(ctx context.Context, sessions *session.Store) {
	ticker := time.NewTicker(imageExpiryInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_, _ = sessions.ExpireImages(ctx, imageExpiryAge) //nolint:errcheck
		}
	}
}

// migrate runs database migrations and exits.
func migrate(out io.Writer) int {
	cfg := config.Load()

	db, err := sqlite.NewDB(cfg.DBPath)
	if err != nil {
		fmt.Fprintf(out, "failed to open database: %v\n", err) //nolint:errcheck
		return 1
	}
	defer db.Close() //nolint:errcheck

	if err := sqlite.MigrateUp(db); err != nil {
		fmt.Fprintf(out, "migration error: %v\n", err) //nolint:errcheck
		return 1
	}

	fmt.Fprintln(out, "migrations applied") //nolint:errcheck
	return 0
}

func printHelp(out io.Writer) {
	helpText := `AgriGPT - Farm advisory backend

Usage:
  agrigpt [options] [command]

Options:
  --version    Show version information
  --help       Show this help message

Commands:
  serve        Start the HTTP API server (--port overrides 8080)
  migrate      Run database migrations

Examples:
  agrigpt --version
  agrigpt serve --port 8080
  agrigpt migrate`
	fmt.Fprintln(out, helpText) //nolint:errcheck
}
