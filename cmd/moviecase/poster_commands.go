package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"moviecase/internal/catalog"
	"moviecase/internal/logging"
)

func newPostersCommand(ctx *commandContext) *cobra.Command {
	postersCmd := &cobra.Command{
		Use:   "posters",
		Short: "Manage cached poster images",
	}
	postersCmd.AddCommand(newPostersFetchCommand(ctx))
	postersCmd.AddCommand(newPostersStatsCommand(ctx))
	postersCmd.AddCommand(newPostersClearCommand(ctx))
	return postersCmd
}

type fetchSummary struct {
	Candidates int `json:"candidates"`
	Downloaded int `json:"downloaded"`
	Attached   int `json:"attached"`
}

func newPostersFetchCommand(ctx *commandContext) *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "fetch [movie-id...]",
		Short: "Download posters for movies that have a poster URL",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(cmd, true, func(runCtx context.Context, a *app) error {
				var targets []catalog.Movie
				if len(args) > 0 {
					for _, ref := range args {
						movie, err := resolveMovie(a.library, ref)
						if err != nil {
							return err
						}
						targets = append(targets, movie)
					}
				} else {
					targets = a.library.Movies()
				}

				pending := make([]catalog.Movie, 0, len(targets))
				urls := make([]string, 0, len(targets))
				for _, movie := range targets {
					url := catalog.Value(movie.PosterURL)
					if url == "" || (movie.HasLocalPoster() && !all) {
						continue
					}
					pending = append(pending, movie)
					urls = append(urls, url)
				}

				downloaded, err := a.posters.Prefetch(runCtx, urls, a.cfg.PosterCache.Prefetch)
				if err != nil {
					return fmt.Errorf("prefetch posters: %w", err)
				}

				summary := fetchSummary{Candidates: len(pending), Downloaded: downloaded}
				for _, movie := range pending {
					data, ok := a.posters.Get(runCtx, *movie.PosterURL)
					if !ok {
						a.logger.Debug("poster unavailable", logging.Args(append(
							logging.MovieAttrs(movie.ID, movie.Title),
							logging.String(logging.FieldPosterURL, *movie.PosterURL))...)...)
						continue
					}
					movie.PosterData = data
					if err := a.library.Update(runCtx, movie); err != nil {
						return err
					}
					summary.Attached++
				}

				if ctx.jsonOutput() {
					return writeJSON(cmd, summary)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Posters: %d candidates, %d downloaded, %d attached\n",
					summary.Candidates, summary.Downloaded, summary.Attached)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "Refresh posters that are already stored")
	return cmd
}

func newPostersStatsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show poster cache occupancy",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(cmd, false, func(runCtx context.Context, a *app) error {
				stats := a.posters.Stats(runCtx)
				if ctx.jsonOutput() {
					return writeJSON(cmd, stats)
				}
				withPoster := 0
				for movie := range a.library.AllMovies() {
					if movie.HasLocalPoster() {
						withPoster++
					}
				}
				durable := strconv.Itoa(stats.DurableEntries)
				if stats.DurableEntries < 0 {
					durable = "unavailable"
				}
				rows := [][]string{
					{"Backend", a.cfg.PosterCache.Backend},
					{"Memory entries", fmt.Sprintf("%d / %d", stats.MemoryEntries, stats.MaxEntries)},
					{"Memory bytes", fmt.Sprintf("%d / %d", stats.MemoryBytes, stats.MaxBytes)},
					{"Durable entries", durable},
					{"Movies with poster", strconv.Itoa(withPoster)},
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Poster cache", "Value"}, rows, []columnAlignment{alignLeft, alignRight}))
				return nil
			})
		},
	}
}

func newPostersClearCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Empty both poster cache tiers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(cmd, true, func(runCtx context.Context, a *app) error {
				if err := a.posters.Clear(runCtx); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Poster cache cleared")
				return nil
			})
		},
	}
}
