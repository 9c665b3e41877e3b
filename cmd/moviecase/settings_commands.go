package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"moviecase/internal/config"
)

func newSettingsCommand(ctx *commandContext) *cobra.Command {
	settingsCmd := &cobra.Command{
		Use:   "settings",
		Short: "View and change preferences",
	}
	settingsCmd.AddCommand(newSettingsShowCommand(ctx))
	settingsCmd.AddCommand(newSettingsSetCommand(ctx))
	settingsCmd.AddCommand(newSettingsResetCommand(ctx))
	settingsCmd.AddCommand(newSettingsExportCommand(ctx))
	settingsCmd.AddCommand(newSettingsImportCommand(ctx))
	return settingsCmd
}

func printPreferences(cmd *cobra.Command, ctx *commandContext, prefs config.Preferences) error {
	if ctx.jsonOutput() {
		return writeJSON(cmd, prefs)
	}
	values := prefs.Export()
	rows := make([][]string, 0, len(values))
	for _, key := range config.PreferenceKeys() {
		rows = append(rows, []string{key, fmt.Sprint(values[key])})
	}
	fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Preference", "Value"}, rows, []columnAlignment{alignLeft, alignLeft}))
	return nil
}

func newSettingsShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show effective preferences",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(cmd, false, func(_ context.Context, a *app) error {
				return printPreferences(cmd, ctx, a.prefs)
			})
		},
	}
}

func newSettingsSetCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:       "set <key> <value>",
		Short:     "Change one preference",
		Args:      cobra.ExactArgs(2),
		ValidArgs: config.PreferenceKeys(),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(cmd, true, func(runCtx context.Context, a *app) error {
				next, err := a.prefs.Set(args[0], args[1])
				if err != nil {
					return err
				}
				if err := config.SavePreferences(runCtx, a.db, next); err != nil {
					return err
				}
				return printPreferences(cmd, ctx, next)
			})
		},
	}
}

func newSettingsResetCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Drop stored preferences and fall back to config.toml",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(cmd, true, func(runCtx context.Context, a *app) error {
				prefs, err := config.ResetPreferences(runCtx, a.db, a.cfg.Preferences)
				if err != nil {
					return err
				}
				return printPreferences(cmd, ctx, prefs)
			})
		},
	}
}

func newSettingsExportCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "export [file]",
		Short: "Write preferences as JSON to a file or stdout",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(cmd, false, func(_ context.Context, a *app) error {
				if len(args) == 0 {
					return writeJSON(cmd, a.prefs.Export())
				}
				data, err := json.MarshalIndent(a.prefs.Export(), "", "  ")
				if err != nil {
					return fmt.Errorf("encode preferences: %w", err)
				}
				if err := os.WriteFile(args[0], append(data, '\n'), 0o644); err != nil {
					return fmt.Errorf("write preferences: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Exported preferences to %s\n", args[0])
				return nil
			})
		},
	}
}

func newSettingsImportCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Apply preferences from a JSON export",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read preferences: %w", err)
			}
			var data map[string]any
			if err := json.Unmarshal(raw, &data); err != nil {
				return fmt.Errorf("parse preferences: %w", err)
			}
			return ctx.withApp(cmd, true, func(runCtx context.Context, a *app) error {
				next, err := a.prefs.Import(data)
				if err != nil {
					return err
				}
				if err := config.SavePreferences(runCtx, a.db, next); err != nil {
					return err
				}
				return printPreferences(cmd, ctx, next)
			})
		},
	}
}
