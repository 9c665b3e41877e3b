package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"moviecase/internal/catalog"
	"moviecase/internal/logging"
	"moviecase/internal/lookup"
	"moviecase/internal/lookup/omdb"
	"moviecase/internal/lookup/tmdb"
	"moviecase/internal/query"
	"moviecase/internal/services"
)

type searchOutput struct {
	Query     string        `json:"query"`
	Page      int           `json:"page"`
	Results   []tmdb.Result `json:"results"`
	BestMatch *omdb.Title   `json:"best_match,omitempty"`
}

func newSearchCommand(ctx *commandContext) *cobra.Command {
	var page int
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search TMDB and OMDb for a title",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			term := strings.TrimSpace(strings.Join(args, " "))
			return ctx.withApp(cmd, false, func(runCtx context.Context, a *app) error {
				// Both providers run concurrently. One invocation issues a
				// single search, so the generation only tags the request context.
				var gen lookup.Generation
				token := gen.Begin()
				listCh := lookup.Go(runCtx, token, func(c context.Context) ([]tmdb.Result, error) {
					return a.ingest.SearchTMDB(c, term, page)
				})
				matchCh := lookup.Go(runCtx, token, func(c context.Context) (*omdb.Title, error) {
					return a.lookup.ByTitle(c, term)
				})
				list, match := <-listCh, <-matchCh
				if list.Err != nil {
					return list.Err
				}
				out := searchOutput{Query: term, Page: page, Results: list.Value}
				if match.Err == nil {
					out.BestMatch = match.Value
				} else if !errors.Is(match.Err, services.ErrNotFound) && !errors.Is(match.Err, services.ErrNotConfigured) {
					a.logger.Debug("omdb best match unavailable", logging.Error(match.Err))
				}

				if ctx.jsonOutput() {
					return writeJSON(cmd, out)
				}
				w := cmd.OutOrStdout()
				if len(out.Results) == 0 {
					fmt.Fprintf(w, "No TMDB results for %q\n", term)
				} else {
					fmt.Fprintln(w, renderSearchResults(out.Results))
				}
				if out.BestMatch != nil {
					fmt.Fprintf(w, "OMDb best match: %s (%s) %s\n", out.BestMatch.Title, out.BestMatch.Year, out.BestMatch.IMDbID)
				}
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&page, "page", 1, "Result page")
	return cmd
}

func newPopularCommand(ctx *commandContext) *cobra.Command {
	var page int
	cmd := &cobra.Command{
		Use:   "popular",
		Short: "List popular movies from TMDB",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(cmd, false, func(runCtx context.Context, a *app) error {
				results, err := a.ingest.Popular(runCtx, page)
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, results)
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderSearchResults(results))
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&page, "page", 1, "Result page")
	return cmd
}

func newListCommand(ctx *commandContext) *cobra.Command {
	var search, filter, sortKey string
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List movies in the library",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := query.ParseFilter(filter)
			if err != nil {
				return err
			}
			s, err := query.ParseSort(sortKey)
			if err != nil {
				return err
			}
			return ctx.withApp(cmd, false, func(_ context.Context, a *app) error {
				movies := query.Apply(a.library.Movies(), query.Params{Search: search, Filter: f, Sort: s})
				if ctx.jsonOutput() {
					return writeJSON(cmd, movies)
				}
				w := cmd.OutOrStdout()
				if len(movies) == 0 {
					fmt.Fprintln(w, "No movies match")
					return nil
				}
				fmt.Fprintln(w, renderMovieList(movies))
				if a.prefs.ShowMovieCount {
					fmt.Fprintf(w, "%d of %d movies\n", len(movies), a.library.MovieCount())
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&search, "search", "s", "", "Match title, director, genre, or actors")
	cmd.Flags().StringVarP(&filter, "filter", "f", "all", "all, collected, wanted, or rated")
	cmd.Flags().StringVar(&sortKey, "sort", "dateAdded", "dateAdded, title, year, or rating")
	return cmd
}

func newShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one movie",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(cmd, false, func(_ context.Context, a *app) error {
				movie, err := resolveMovie(a.library, args[0])
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, movie)
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderMovieDetail(movie, a.library.CollectionsForMovie(movie.ID)))
				return nil
			})
		},
	}
}

type editFlags struct {
	title, director, genre, plot, runtime, imdbID string
	year, rating                                  int
	wanted, owned, clearRating                    bool
}

func newEditCommand(ctx *commandContext) *cobra.Command {
	var flags editFlags
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Edit a movie's details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if flags.wanted && flags.owned {
				return errors.New("--wanted and --owned are mutually exclusive")
			}
			return ctx.withApp(cmd, true, func(runCtx context.Context, a *app) error {
				movie, err := resolveMovie(a.library, args[0])
				if err != nil {
					return err
				}
				changed := cmd.Flags().Changed
				if changed("title") {
					movie.Title = catalog.TitleOrUnknown(flags.title)
				}
				if changed("year") {
					movie.Year = nil
					if flags.year > 0 {
						movie.Year = catalog.Int(flags.year)
					}
				}
				if changed("director") {
					movie.Director = catalog.Str(flags.director)
				}
				if changed("genre") {
					movie.Genre = catalog.Str(flags.genre)
				}
				if changed("plot") {
					movie.Plot = catalog.Str(flags.plot)
				}
				if changed("runtime") {
					movie.Runtime = catalog.Str(flags.runtime)
				}
				if changed("imdb") {
					movie.IMDbID = catalog.Str(flags.imdbID)
				}
				if changed("rating") {
					movie.SetRating(catalog.Int(flags.rating))
				}
				if flags.clearRating {
					movie.UserRating = nil
				}
				if flags.wanted {
					movie.IsWanted = true
				}
				if flags.owned {
					movie.IsWanted = false
				}
				if err := a.library.Update(runCtx, movie); err != nil {
					return err
				}
				updated, _ := a.library.Movie(movie.ID)
				if ctx.jsonOutput() {
					return writeJSON(cmd, updated)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Updated %s (%s)\n", updated.Title, shortID(updated.ID))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&flags.title, "title", "", "New title")
	cmd.Flags().IntVar(&flags.year, "year", 0, "Release year (0 clears it)")
	cmd.Flags().StringVar(&flags.director, "director", "", "Director")
	cmd.Flags().StringVar(&flags.genre, "genre", "", "Genre")
	cmd.Flags().StringVar(&flags.plot, "plot", "", "Plot summary")
	cmd.Flags().StringVar(&flags.runtime, "runtime", "", "Runtime, e.g. \"120 min\"")
	cmd.Flags().StringVar(&flags.imdbID, "imdb", "", "IMDb id")
	cmd.Flags().IntVar(&flags.rating, "rating", 0, "Personal rating 1-10 (clamped)")
	cmd.Flags().BoolVar(&flags.clearRating, "clear-rating", false, "Remove the personal rating")
	cmd.Flags().BoolVar(&flags.wanted, "wanted", false, "Move to the wishlist")
	cmd.Flags().BoolVar(&flags.owned, "owned", false, "Mark as collected")
	return cmd
}

func newRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:     "remove <id>",
		Aliases: []string{"rm"},
		Short:   "Remove a movie from the library",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(cmd, true, func(runCtx context.Context, a *app) error {
				movie, err := resolveMovie(a.library, args[0])
				if err != nil {
					return err
				}
				if err := a.library.Delete(runCtx, movie.ID); err != nil {
					return err
				}
				if code := catalog.Value(movie.Barcode); code != "" && a.barcodes.Enabled() {
					if err := a.barcodes.Remove(code); err != nil && !errors.Is(err, services.ErrNotFound) {
						logging.WarnWithContext(a.logger, "failed to forget barcode mapping", "barcode_cache_remove_failed",
							logging.String("barcode", code),
							logging.Error(err),
							logging.String(logging.FieldImpact, "a rescan of this barcode will reuse the old mapping"))
					}
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %s (%s)\n", movie.Title, shortID(movie.ID))
				return nil
			})
		},
	}
}

type statsOutput struct {
	query.Stats
	Collections int `json:"collections"`
	Barcodes    int `json:"cached_barcodes"`
}

func newStatsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Summarize the library",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(cmd, false, func(_ context.Context, a *app) error {
				out := statsOutput{
					Stats:       query.Summarize(a.library.Movies()),
					Collections: len(a.library.Collections()),
					Barcodes:    a.barcodes.Count(),
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, out)
				}
				rows := [][]string{
					{"Total", strconv.Itoa(out.Total)},
					{"Collected", strconv.Itoa(out.Collected)},
					{"Wanted", strconv.Itoa(out.Wanted)},
					{"Rated", strconv.Itoa(out.Rated)},
					{"Collections", strconv.Itoa(out.Collections)},
					{"Cached barcodes", strconv.Itoa(out.Barcodes)},
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Metric", "Count"}, rows, []columnAlignment{alignLeft, alignRight}))
				return nil
			})
		},
	}
}
