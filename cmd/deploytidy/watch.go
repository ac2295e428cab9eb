package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/glabrego/deploytidy/internal/app"
	"github.com/glabrego/deploytidy/internal/browser"
	"github.com/glabrego/deploytidy/internal/config"
	"github.com/glabrego/deploytidy/internal/curate"
	"github.com/glabrego/deploytidy/internal/logging"
	"github.com/glabrego/deploytidy/internal/notify"
)

var watchSkipInstall bool

func init() {
	rootCmd.AddCommand(watchCmd)

	defaults := config.DefaultConfig()
	watchCmd.Flags().Bool("headless", defaults.Browser.Headless, "run Chromium without a window")
	watchCmd.Flags().Int("timeout-ms", defaults.Browser.TimeoutMs, "timeout for each browser call in milliseconds")
	watchCmd.Flags().BoolVar(&watchSkipInstall, "skip-install", false, "assume the Playwright driver and Chromium are installed")
}

var watchCmd = &cobra.Command{
	Use:   "watch <url>",
	Short: "Open a pull request in Chromium and keep its timeline curated",
	Long: `Open a pull request in Chromium and keep its timeline curated.

Settings changed with "deploytidy settings" while the session runs are applied
to the open page without a reload.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		log := logging.Component("watch")

		repo, err := openStore(ctx)
		if err != nil {
			return err
		}
		snapshot := app.NewService(repo, nil, logging.Component("app")).LoadSettings(ctx)
		_ = repo.Close()

		session, err := browser.Open(browser.Options{
			Headless:    cfg.Browser.Headless,
			TimeoutMs:   cfg.Browser.TimeoutMs,
			SkipInstall: watchSkipInstall,
		}, logging.Component("browser"))
		if err != nil {
			return err
		}
		defer session.Close()

		engine := curate.NewEngine(session.Document(), snapshot, curate.WithLogger(logging.Component("curate")))
		server := notify.NewServer(cfg.Notify.Addr, &notify.Handler{
			OnChange: func(partial map[string]any) {
				engine.Post(curate.SettingsChangedEvent{Settings: partial})
			},
			Log: logging.Component("notify"),
		})

		log.Info().
			Str("url", args[0]).
			Str("notify", notify.Endpoint(cfg.Notify.Addr)).
			Str("page_id", engine.PageID()).
			Msg("watch session started")

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error { return engine.Run(gctx) })
		g.Go(server.Run)
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		})
		g.Go(func() error { return session.Watch(gctx, args[0], engine) })
		return g.Wait()
	},
}
