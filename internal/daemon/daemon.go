package daemon

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/paydirt-network/paydirt/internal/api"
	"github.com/paydirt-network/paydirt/internal/app/escrow"
	"github.com/paydirt-network/paydirt/internal/app/rating"
	"github.com/paydirt-network/paydirt/internal/app/training"
	"github.com/paydirt-network/paydirt/internal/infra/ledger"
	_ "github.com/paydirt-network/paydirt/internal/infra/metrics" // Register Prometheus metrics
	"github.com/paydirt-network/paydirt/internal/infra/sqlite"
)

// Daemon is the core Paydirt runtime. It wires together all services.
type Daemon struct {
	Config    Config
	DB        *sqlite.DB
	Vault     *ledger.Ledger
	Engine    *escrow.Engine
	Trainings *training.Registry
	Ratings   *rating.Book
	Server    *api.Server
	cancel    context.CancelFunc
}

// New creates and initializes a Daemon with all services wired.
func New() (*Daemon, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	return NewWithConfig(cfg)
}

// NewWithConfig creates a Daemon with the given configuration. State is
// replayed from the SQLite snapshot so a restart resumes where the
// previous run left off.
func NewWithConfig(cfg Config) (*Daemon, error) {
	db, err := sqlite.Open(paydirtHome())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	vault := ledger.New(db)
	entries, err := db.LedgerEntries()
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("restore ledger: %w", err)
	}
	vault.Restore(entries)

	book := rating.NewBook(db)
	ratings, err := db.ListRatings()
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("restore ratings: %w", err)
	}
	book.Restore(ratings)

	engCfg := escrow.DefaultConfig()
	engCfg.CreatorOnlyAssignment = cfg.Escrow.CreatorOnlyAssignment
	if cfg.Escrow.MaxRating > 0 {
		engCfg.MaxRating = cfg.Escrow.MaxRating
	}
	engine := escrow.New(engCfg, vault, db, book, nil)
	tasks, err := db.ListTasks()
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("restore tasks: %w", err)
	}
	engine.Restore(tasks)

	trainings := training.NewRegistry(vault, db, nil)
	sessions, err := db.ListTrainings()
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("restore trainings: %w", err)
	}
	trainings.Restore(sessions)

	srv := api.NewServer(engine, trainings, book, vault)
	srv.SetDefaultGrant(cfg.Escrow.InitialGrant)
	if cfg.Telemetry.Prometheus {
		srv.EnableMetrics()
	}

	return &Daemon{
		Config:    cfg,
		DB:        db,
		Vault:     vault,
		Engine:    engine,
		Trainings: trainings,
		Ratings:   book,
		Server:    srv,
	}, nil
}

// Serve starts the HTTP server and blocks until shutdown.
func (d *Daemon) Serve(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	d.cancel = cancel

	addr := fmt.Sprintf("%s:%d", d.Config.API.Host, d.Config.API.Port)

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      d.Server.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: time.Minute,
		IdleTimeout:  2 * time.Minute,
	}

	// Graceful shutdown on signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case <-sigCh:
		case <-ctx.Done():
		}

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		_ = httpServer.Shutdown(shutdownCtx)
		_ = d.DB.Close()
	}()

	fmt.Printf("Paydirt serving on http://%s\n", addr)
	if d.Config.Telemetry.Prometheus {
		fmt.Printf("  Metrics: http://%s/metrics\n", addr)
	}

	if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Close shuts down all daemon resources.
func (d *Daemon) Close() {
	if d.cancel != nil {
		d.cancel()
	}
	if d.DB != nil {
		_ = d.DB.Close()
	}
}
