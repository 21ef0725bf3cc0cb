// Package main provides the CLI entrypoint for gamecenter.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"gamecenter/internal/catalog"
	"gamecenter/internal/config"
	"gamecenter/internal/game"
	"gamecenter/internal/game/numberguess"
	"gamecenter/internal/game/rps"
	"gamecenter/internal/logger"
	"gamecenter/internal/server"
	"gamecenter/internal/session"
	"gamecenter/internal/stats"
	"gamecenter/internal/storage"
)

var (
	configPath string
	useMemory  bool
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "gamecenter",
		Short:         "Casual games hub: catalog, guess the number, rock paper scissors",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "gamecenter.toml", "path to TOML config (missing file is fine)")
	rootCmd.PersistentFlags().BoolVar(&useMemory, "memory", false, "keep sessions and stats in memory only")

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newCatalogCmd())
	rootCmd.AddCommand(newStatsCmd())
	rootCmd.AddCommand(newPlayCmd())
	return rootCmd
}

// loadConfig reads configuration and initializes logging.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return config.Config{}, fmt.Errorf("failed to load config: %w", err)
	}
	if useMemory {
		cfg.DBPath = ":memory:"
		cfg.Stats.Backend = "memory"
	}
	logger.Init(cfg.LogLevel, cfg.LogJSON)
	return cfg, nil
}

// stores holds the open persistence backends.
type stores struct {
	db    *storage.Store
	stats stats.Store
	close func()
}

func openStores(ctx context.Context, cfg config.Config) (*stores, error) {
	db, err := storage.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	st := &stores{db: db, stats: db, close: func() { db.Close() }}

	switch cfg.Stats.Backend {
	case "memory":
		st.stats = stats.NewMemoryStore()
	case "redis":
		rs, err := stats.NewRedisStore(ctx, cfg.Stats.RedisAddr, cfg.Stats.RedisPassword, cfg.Stats.RedisDB)
		if err != nil {
			db.Close()
			return nil, err
		}
		st.stats = rs
		st.close = func() {
			rs.Close()
			db.Close()
		}
	}
	logger.Debug("stores opened", "db", cfg.DBPath, "stats", cfg.Stats.Backend)
	return st, nil
}

func newRegistry(cfg config.Config) *game.Registry {
	registry := game.NewRegistry()
	registry.Register(numberguess.New(numberguess.Range{Min: cfg.GuessMin, Max: cfg.GuessMax}))
	registry.Register(rps.New(cfg.Reveal))
	return registry
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP and WebSocket API",
		Args:  cobra.NoArgs,
		RunE:  runServeCmd,
	}
}

func runServeCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStores(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.close()

	cat := catalog.Default()
	registry := newRegistry(cfg)
	mgr := session.NewManager(cat, registry, st.db, st.stats)
	if err := mgr.Restore(ctx); err != nil {
		logger.Warn("restore sessions", "err", err)
	}
	go mgr.CleanupLoop(ctx, cfg.Cleanup, cfg.MaxAge)

	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           server.New(cat, registry, mgr, st.stats),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		httpServer.Shutdown(shutdownCtx)
	}()

	logger.Info("listening", "addr", cfg.Addr)
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server: %w", err)
	}
	return nil
}
