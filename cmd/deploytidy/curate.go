package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/glabrego/deploytidy/internal/app"
	"github.com/glabrego/deploytidy/internal/curate"
	"github.com/glabrego/deploytidy/internal/dom/htmldoc"
	"github.com/glabrego/deploytidy/internal/logging"
	"github.com/glabrego/deploytidy/internal/settings"
)

var (
	curateOutput   string
	curateReport   string
	curateDefaults bool
)

func init() {
	rootCmd.AddCommand(curateCmd)

	curateCmd.Flags().StringVarP(&curateOutput, "output", "o", "-", "where to write the curated page (- for stdout)")
	curateCmd.Flags().StringVar(&curateReport, "report", "", "write a YAML summary of the pass (- for stderr)")
	curateCmd.Flags().BoolVar(&curateDefaults, "defaults", false, "ignore stored settings and use the defaults")
}

var curateCmd = &cobra.Command{
	Use:   "curate <file>",
	Short: "Curate a saved pull request page offline",
	Long: `Curate a saved pull request page offline.

The page is classified and marked with the stored settings, the hiding
stylesheet is added to its head, and the result is written out. Controls are
activated in memory only, so "Load more" never fetches anything.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), 15*time.Second)
		defer cancel()

		snapshot := settings.Defaults()
		if !curateDefaults {
			repo, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer repo.Close()
			snapshot = app.NewService(repo, nil, logging.Component("app")).LoadSettings(ctx)
		}

		in, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("open page: %w", err)
		}
		defer in.Close()

		out := cmd.OutOrStdout()
		if curateOutput != "-" {
			f, err := os.Create(curateOutput)
			if err != nil {
				return fmt.Errorf("create output: %w", err)
			}
			defer f.Close()
			out = f
		}

		report, err := curateDocument(in, out, snapshot, logging.Component("curate"))
		if err != nil {
			return err
		}
		report.Source = filepath.Base(args[0])

		switch curateReport {
		case "":
			return nil
		case "-":
			return writeYAML(cmd.ErrOrStderr(), report)
		}
		f, err := os.Create(curateReport)
		if err != nil {
			return fmt.Errorf("create report: %w", err)
		}
		defer f.Close()
		return writeYAML(f, report)
	},
}

type curateSummary struct {
	Source               string       `yaml:"source"`
	Enabled              bool         `yaml:"enabled"`
	Stats                curate.Stats `yaml:"stats"`
	Hidden               int          `yaml:"hidden"`
	LoadMoreClicks       int          `yaml:"loadMoreClicks"`
	Pagination           string       `yaml:"pagination"`
	EnvironmentsExpanded bool         `yaml:"environmentsExpanded"`
	DrainRounds          int          `yaml:"drainRounds"`
}

// curateDocument runs one full pass over the page read from r, settles the
// mutations it caused and writes the marked page to w.
func curateDocument(r io.Reader, w io.Writer, snapshot settings.Snapshot, log zerolog.Logger) (curateSummary, error) {
	doc, err := htmldoc.Parse(r)
	if err != nil {
		return curateSummary{}, err
	}

	engine := curate.NewEngine(doc, snapshot, curate.WithLogger(log))
	engine.Dispatch(curate.InitEvent{})
	rounds := engine.Drain(doc.TakeRecords)
	doc.InjectStylesheet(curate.Stylesheet)

	if err := doc.Render(w); err != nil {
		return curateSummary{}, err
	}

	state := engine.State()
	stats := engine.Stats()
	return curateSummary{
		Enabled:              engine.Snapshot().Enabled,
		Stats:                stats,
		Hidden:               stats.Hidden(),
		LoadMoreClicks:       state.ExpansionCount,
		Pagination:           state.Pagination.String(),
		EnvironmentsExpanded: state.HasAutoExpandedEnvironments,
		DrainRounds:          rounds,
	}, nil
}
