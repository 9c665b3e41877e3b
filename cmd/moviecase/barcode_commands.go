package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var errBarcodeCacheDisabled = errors.New("barcode cache is disabled (set barcode.cache_enabled = true)")

func newBarcodesCommand(ctx *commandContext) *cobra.Command {
	barcodesCmd := &cobra.Command{
		Use:   "barcodes",
		Short: "Inspect the scanned barcode cache",
	}
	barcodesCmd.AddCommand(newBarcodesListCommand(ctx))
	barcodesCmd.AddCommand(newBarcodesRemoveCommand(ctx))
	barcodesCmd.AddCommand(newBarcodesClearCommand(ctx))
	return barcodesCmd
}

func newBarcodesListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List cached barcode mappings, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(cmd, false, func(_ context.Context, a *app) error {
				if !a.barcodes.Enabled() {
					return errBarcodeCacheDisabled
				}
				entries := a.barcodes.List()
				if ctx.jsonOutput() {
					return writeJSON(cmd, entries)
				}
				if len(entries) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No cached barcodes")
					return nil
				}
				rows := make([][]string, 0, len(entries))
				for _, e := range entries {
					imdb := e.IMDbID
					if imdb == "" {
						imdb = "-"
					}
					rows = append(rows, []string{
						e.Barcode,
						e.Title,
						imdb,
						e.ProductTitle,
						e.CachedAt.Local().Format("2006-01-02 15:04"),
					})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"Barcode", "Title", "IMDb", "Product", "Cached"},
					rows,
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft},
				))
				return nil
			})
		},
	}
}

func newBarcodesRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <barcode>",
		Short: "Forget one cached barcode mapping",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(cmd, true, func(_ context.Context, a *app) error {
				if !a.barcodes.Enabled() {
					return errBarcodeCacheDisabled
				}
				if err := a.barcodes.Remove(args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed barcode %s from cache\n", args[0])
				return nil
			})
		},
	}
}

func newBarcodesClearCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Forget every cached barcode mapping",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(cmd, true, func(_ context.Context, a *app) error {
				if !a.barcodes.Enabled() {
					return errBarcodeCacheDisabled
				}
				count := a.barcodes.Count()
				if err := a.barcodes.Clear(); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d cached barcodes\n", count)
				return nil
			})
		},
	}
}
