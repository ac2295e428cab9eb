package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/glabrego/deploytidy/internal/app"
	"github.com/glabrego/deploytidy/internal/config"
	"github.com/glabrego/deploytidy/internal/logging"
	"github.com/glabrego/deploytidy/internal/notify"
	"github.com/glabrego/deploytidy/internal/storage"
)

// screenAnnotation marks commands that own the terminal; their logs go to the
// log file or nowhere.
const screenAnnotation = "deploytidy/screen"

var (
	configFile string
	cfg        *config.Config
	logFile    io.Closer
)

// flagKeys maps command-line flags to the config keys they override.
var flagKeys = map[string]string{
	"db":          "database.path",
	"notify-addr": "notify.addr",
	"log-level":   "logging.level",
	"log-format":  "logging.format",
	"log-file":    "logging.file",
	"headless":    "browser.headless",
	"timeout-ms":  "browser.timeout_ms",
}

var rootCmd = &cobra.Command{
	Use:   "deploytidy",
	Short: "Hide deployment noise in pull request timelines",
	Long: `deploytidy curates the deployment entries of a pull request timeline.

Successful, superseded, destroyed and failed deployments can each be hidden,
the environments section can be expanded, and "Load more" can be followed a
bounded number of times.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		return setup(cmd)
	},
	PersistentPostRun: func(*cobra.Command, []string) {
		if logFile != nil {
			_ = logFile.Close()
		}
	},
}

func init() {
	defaults := config.DefaultConfig()
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configFile, "config", "", "config file (default deploytidy.yaml in the config directory)")
	pf.String("db", defaults.Database.Path, "settings database path")
	pf.String("notify-addr", defaults.Notify.Addr, "address of the settings notification channel")
	pf.String("log-level", defaults.Logging.Level, "log level (trace, debug, info, warn, error, off)")
	pf.String("log-format", defaults.Logging.Format, "log format (console, json)")
	pf.String("log-file", "", "write logs to this file instead of stderr")
}

func setup(cmd *cobra.Command) error {
	loader := config.NewLoader()
	if configFile != "" {
		loader.SetConfigFile(configFile)
	}
	for name, key := range flagKeys {
		flag := cmd.Flags().Lookup(name)
		if flag == nil {
			continue
		}
		if err := loader.BindFlag(key, flag); err != nil {
			return err
		}
	}
	loaded, err := loader.Load()
	if err != nil {
		return err
	}
	cfg = loaded

	logCfg := logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: os.Stderr,
	}
	switch {
	case cfg.Logging.File != "":
		f, err := logging.OpenFile(cfg.Logging.File)
		if err != nil {
			return err
		}
		logFile = f
		logCfg.Output = f
	case cmd.Annotations[screenAnnotation] != "":
		logCfg.Output = io.Discard
	}
	logging.Init(logCfg)

	if used := loader.ConfigFileUsed(); used != "" {
		log := logging.Component("cli")
		log.Debug().Str("file", used).Msg("loaded config")
	}
	return nil
}

func openStore(ctx context.Context) (*storage.Repository, error) {
	repo, err := storage.NewRepository(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("storage init error: %w", err)
	}
	if err := repo.Init(ctx); err != nil {
		_ = repo.Close()
		return nil, fmt.Errorf("storage schema error: %w", err)
	}
	return repo, nil
}

// openWritableStore is openStore for commands that save settings.
func openWritableStore(ctx context.Context) (*storage.Repository, error) {
	repo, err := openStore(ctx)
	if err != nil {
		return nil, err
	}
	if err := repo.CheckWritable(ctx); err != nil {
		_ = repo.Close()
		return nil, fmt.Errorf("storage write check failed (%w). Verify %s_DATABASE_PATH is writable: %s",
			err, config.EnvPrefix, cfg.Database.Path)
	}
	return repo, nil
}

// newService wires the store to running watch sessions.
func newService(repo *storage.Repository) *app.Service {
	return app.NewService(repo, notify.NewClient(cfg.Notify.Addr), logging.Component("app"))
}

func writeYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}
	return nil
}
