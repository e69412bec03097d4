// Package cmd provides the CLI commands for faqd.
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/speaksense/faqd/internal/config"
	"github.com/speaksense/faqd/internal/embed"
	"github.com/speaksense/faqd/internal/engine"
	"github.com/speaksense/faqd/internal/index"
	"github.com/speaksense/faqd/internal/logging"
	"github.com/speaksense/faqd/internal/store"
	"github.com/speaksense/faqd/pkg/version"
)

var (
	configPath string
	dataDir    string
	debugMode  bool

	loggingCleanup func()
)

// NewRootCmd creates the root command for the faqd CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "faqd",
		Short: "Hybrid FAQ and intent retrieval service",
		Long: `faqd answers free-text queries against a catalog of FAQ entries and
actionable intents using hybrid retrieval: BM25 keyword ranking fused
with embedding similarity, plus slot-grammar parameter extraction for
intents.`,
		Version:       version.Short(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.SetVersionTemplate("faqd version {{.Version}}\n")

	cmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file (default: <data-dir>/faqd.yaml)")
	cmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "Data directory (default: ~/.faqd)")
	cmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging")

	cmd.PersistentPreRunE = setupLogging
	cmd.PersistentPostRun = func(*cobra.Command, []string) {
		if loggingCleanup != nil {
			loggingCleanup()
		}
	}

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newSearchCmd())
	cmd.AddCommand(newReindexCmd())
	cmd.AddCommand(newStatsCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// Execute runs the root command with signal-aware context.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := NewRootCmd()
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}

// loadConfig resolves flags into a full configuration.
func loadConfig() (*config.Config, error) {
	path := configPath
	if path == "" && dataDir != "" {
		path = filepath.Join(dataDir, "faqd.yaml")
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if dataDir != "" {
		cfg.Store.Path = dataDir
	}
	if debugMode {
		cfg.Logging.Level = "debug"
	}
	return cfg, nil
}

func setupLogging(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	_, cleanup, err := logging.Setup(logging.Config{
		Level:         cfg.Logging.Level,
		FilePath:      cfg.Logging.File,
		WriteToStderr: true,
	})
	if err != nil {
		return err
	}
	loggingCleanup = cleanup
	return nil
}

// runtime bundles everything a command needs to serve queries.
type runtime struct {
	cfg      *config.Config
	store    *store.SQLiteStore
	lock     *store.DataLock
	embedder embed.Embedder
	engine   *engine.Engine
}

// openRuntime opens the store under an exclusive data-directory lock and
// constructs the engine. Close releases everything in reverse order.
func openRuntime(ctx context.Context) (*runtime, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(cfg.Store.Path, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	lock := store.NewDataLock(cfg.Store.Path)
	acquired, err := lock.TryLock()
	if err != nil {
		return nil, err
	}
	if !acquired {
		return nil, fmt.Errorf("data directory %s is in use by another faqd process", cfg.Store.Path)
	}

	st, err := store.NewSQLiteStore(filepath.Join(cfg.Store.Path, "faqd.db"))
	if err != nil {
		_ = lock.Unlock()
		return nil, err
	}

	embedder, err := embed.NewEmbedder(ctx, embed.FactoryConfig{
		Provider:   embed.ProviderType(cfg.Embeddings.Provider),
		Model:      cfg.Embeddings.Model,
		OllamaHost: cfg.Embeddings.OllamaHost,
		Dimensions: cfg.Embeddings.Dimensions,
		BatchSize:  cfg.Embeddings.BatchSize,
		Timeout:    cfg.Embeddings.Timeout,
		CacheSize:  cfg.Embeddings.CacheSize,
	})
	if err != nil {
		_ = st.Close()
		_ = lock.Unlock()
		return nil, err
	}

	eng := engine.New(st, embedder, engine.Config{
		BM25Weight:      cfg.Retrieval.BM25Weight,
		VectorWeight:    cfg.Retrieval.VectorWeight,
		TopKBM25:        cfg.Retrieval.TopKBM25,
		TopKVector:      cfg.Retrieval.TopKVector,
		BM25:            index.BM25Config{K1: cfg.Retrieval.BM25K1, B: cfg.Retrieval.BM25B},
		DefaultLanguage: cfg.Retrieval.DefaultLanguage,
	}, slog.Default())

	return &runtime{
		cfg:      cfg,
		store:    st,
		lock:     lock,
		embedder: embedder,
		engine:   eng,
	}, nil
}

func (r *runtime) Close() {
	_ = r.embedder.Close()
	_ = r.store.Close()
	_ = r.lock.Unlock()
}
