package main

import (
	"fmt"
	"strconv"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/glabrego/deploytidy/internal/settings"
	"github.com/glabrego/deploytidy/internal/tui"
)

func init() {
	rootCmd.AddCommand(settingsCmd)
	settingsCmd.AddCommand(settingsShowCmd, settingsSetCmd, settingsResetCmd)
}

var settingsCmd = &cobra.Command{
	Use:         "settings",
	Short:       "Edit curation settings in a terminal panel",
	Args:        cobra.NoArgs,
	Annotations: map[string]string{screenAnnotation: "tui"},
	RunE: func(cmd *cobra.Command, _ []string) error {
		repo, err := openWritableStore(cmd.Context())
		if err != nil {
			return err
		}
		defer repo.Close()

		model := tui.NewModel(newService(repo), settings.Defaults())
		program := tea.NewProgram(model, tea.WithAltScreen())
		if _, err := program.Run(); err != nil {
			return fmt.Errorf("tui error: %w", err)
		}
		return nil
	},
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the stored settings as YAML",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		repo, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer repo.Close()
		return writeYAML(cmd.OutOrStdout(), newService(repo).LoadSettings(cmd.Context()))
	},
}

var settingsSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Change one setting and notify running watch sessions",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		value, err := parseSettingValue(args[0], args[1])
		if err != nil {
			return err
		}
		repo, err := openWritableStore(cmd.Context())
		if err != nil {
			return err
		}
		defer repo.Close()
		if err := newService(repo).UpdateSetting(cmd.Context(), args[0], value); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s = %v\n", args[0], value)
		return nil
	},
}

var settingsResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Restore every setting to its default",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		repo, err := openWritableStore(cmd.Context())
		if err != nil {
			return err
		}
		defer repo.Close()
		if _, err := newService(repo).ResetSettings(cmd.Context()); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "settings reset to defaults")
		return nil
	},
}

// parseSettingValue reads raw as the type of the field named key. Limits are
// clamped into range.
func parseSettingValue(key, raw string) (any, error) {
	for _, f := range settings.Fields() {
		if f.Key != key {
			continue
		}
		if f.Kind == settings.FieldLimit {
			n, err := strconv.Atoi(raw)
			if err != nil {
				return nil, fmt.Errorf("%s must be a whole number: %q", key, raw)
			}
			return settings.ClampLimit(n), nil
		}
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("%s must be true or false: %q", key, raw)
		}
		return b, nil
	}
	return nil, fmt.Errorf("unknown setting %q", key)
}
