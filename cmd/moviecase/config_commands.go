package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"moviecase/internal/config"
)

func newConfigCommand(ctx *commandContext) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration utilities",
	}

	configCmd.AddCommand(newConfigValidateCommand(ctx))
	configCmd.AddCommand(newConfigInitCommand())

	return configCmd
}

func newConfigInitCommand() *cobra.Command {
	var targetPath string
	var overwrite bool

	cmd := &cobra.Command{
		Use:         "init",
		Short:       "Create a sample configuration file",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			target := strings.TrimSpace(targetPath)
			if target == "" {
				defaultPath, err := config.DefaultConfigPath()
				if err != nil {
					return fmt.Errorf("determine default config path: %w", err)
				}
				target = defaultPath
			} else {
				expanded, err := config.ExpandPath(target)
				if err != nil {
					return fmt.Errorf("resolve config path: %w", err)
				}
				target = expanded
			}

			dir := filepath.Dir(target)
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("create config directory %q: %w", dir, err)
			}

			if !overwrite {
				if _, err := os.Stat(target); err == nil {
					return fmt.Errorf("config file already exists at %s (use --overwrite to replace it)", target)
				} else if !os.IsNotExist(err) {
					return fmt.Errorf("check config path: %w", err)
				}
			}

			if err := config.CreateSample(target); err != nil {
				return fmt.Errorf("create sample config: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Wrote sample configuration to %s\n", target)
			fmt.Fprintln(out, "Set tmdb.api_key and omdb.api_key (or export TMDB_API_KEY and OMDB_API_KEY) before searching.")
			return nil
		},
	}

	cmd.Flags().StringVarP(&targetPath, "path", "p", "", "Destination for the configuration file")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Overwrite existing configuration if present")
	return cmd
}

func newConfigValidateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:         "validate",
		Short:       "Validate configuration and report provider key status",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			var flagPath string
			if ctx.configFlag != nil {
				flagPath = strings.TrimSpace(*ctx.configFlag)
			}
			cfg, path, exists, err := config.Load(flagPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if err := cfg.EnsureDirectories(); err != nil {
				return fmt.Errorf("ensure directories: %w", err)
			}

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			fmt.Fprintf(out, "Config path: %s\n", path)
			if !exists {
				fmt.Fprintln(out, "Config file did not exist; defaults were used")
			}

			for _, line := range renderSectionHeader("Providers", colorize) {
				fmt.Fprintln(out, line)
			}
			tmdbStatus := config.APIKeyStatus(cfg.TMDB.APIKey)
			omdbStatus := config.APIKeyStatus(cfg.OMDb.APIKey)
			fmt.Fprintln(out, renderStatusLine("TMDB key", keyStatusKind(tmdbStatus), tmdbStatus, colorize))
			fmt.Fprintln(out, renderStatusLine("OMDb key", keyStatusKind(omdbStatus), omdbStatus, colorize))
			upcMessage := "trial endpoint"
			if strings.TrimSpace(cfg.Barcode.UserKey) != "" {
				upcMessage = "user key set"
			}
			fmt.Fprintln(out, renderStatusLine("UPC lookup", statusInfo, upcMessage, colorize))

			for _, line := range renderSectionHeader("Storage", colorize) {
				fmt.Fprintln(out, line)
			}
			dbMessage := cfg.Library.DatabaseURL
			if cfg.IsRemoteDatabase() {
				dbMessage = "remote libsql"
			}
			fmt.Fprintln(out, renderStatusLine("Library", statusOK, dbMessage, colorize))
			fmt.Fprintln(out, renderStatusLine("Poster cache", statusOK, cfg.PosterCache.Backend, colorize))
			barcodeKind, barcodeMessage := statusInfo, "disabled"
			if cfg.Barcode.CacheEnabled {
				barcodeKind, barcodeMessage = statusOK, cfg.Barcode.CachePath
			}
			fmt.Fprintln(out, renderStatusLine("Barcode cache", barcodeKind, barcodeMessage, colorize))

			fmt.Fprintln(out, "Configuration valid")
			return nil
		},
	}
}
