package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"moviecase/internal/library/sqlitestore"
	"moviecase/internal/preflight"
)

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check directories, the library database and provider keys",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			runCtx := cmd.Context()
			if runCtx == nil {
				runCtx = context.Background()
			}

			var pinger preflight.Pinger
			db, openErr := sqlitestore.Open(runCtx, cfg)
			if openErr == nil {
				defer func() { _ = db.Close() }()
				pinger = db
			}

			results := preflight.RunAll(runCtx, cfg, pinger)
			if openErr != nil {
				for i := range results {
					if results[i].Name == "Library database" {
						results[i].Detail = openErr.Error()
					}
				}
			}

			if ctx.jsonOutput() {
				if err := writeJSON(cmd, results); err != nil {
					return err
				}
			} else {
				out := cmd.OutOrStdout()
				colorize := shouldColorize(out)
				for _, r := range results {
					fmt.Fprintln(out, renderStatusLine(r.Name, checkKind(r.Passed), r.Detail, colorize))
				}
			}

			if failed := preflight.Failed(results); failed > 0 {
				return fmt.Errorf("%d checks failed", failed)
			}
			return nil
		},
	}
}
