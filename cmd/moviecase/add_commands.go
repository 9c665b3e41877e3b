package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"moviecase/internal/catalog"
	"moviecase/internal/ingest"
	"moviecase/internal/services"
)

// addFlags are shared by every add subcommand.
type addFlags struct {
	wanted      bool
	rating      int
	rated       bool
	collections []string
	noPoster    bool
}

func (f addFlags) options(cmd *cobra.Command, a *app) (ingest.Options, error) {
	opts := ingest.Options{
		Wanted:      f.wanted,
		FetchPoster: a.prefs.AutoFetchPosters && !f.noPoster,
	}
	switch {
	case cmd.Flags().Changed("rating"):
		opts.Rating = catalog.Int(f.rating)
	case f.rated:
		opts.Rating = catalog.Int(a.prefs.DefaultRating)
	}
	for _, ref := range f.collections {
		c, err := resolveCollection(a.library, ref)
		if err != nil {
			return opts, err
		}
		opts.CollectionIDs = append(opts.CollectionIDs, c.ID)
	}
	return opts, nil
}

func newAddCommand(ctx *commandContext) *cobra.Command {
	var flags addFlags
	addCmd := &cobra.Command{
		Use:   "add",
		Short: "Add movies to the library",
	}
	pf := addCmd.PersistentFlags()
	pf.BoolVar(&flags.wanted, "wanted", false, "Add to the wishlist instead of the collection")
	pf.IntVar(&flags.rating, "rating", 0, "Personal rating 1-10 (clamped)")
	pf.BoolVar(&flags.rated, "rated", false, "Apply the default_rating preference")
	pf.StringSliceVar(&flags.collections, "collection", nil, "Collection name or id (repeatable)")
	pf.BoolVar(&flags.noPoster, "no-poster", false, "Skip the poster download")

	addCmd.AddCommand(newAddTitleCommand(ctx, &flags))
	addCmd.AddCommand(newAddIMDbCommand(ctx, &flags))
	addCmd.AddCommand(newAddTMDBCommand(ctx, &flags))
	addCmd.AddCommand(newAddBarcodeCommand(ctx, &flags))
	addCmd.AddCommand(newAddManualCommand(ctx, &flags))
	return addCmd
}

type addFunc func(context.Context, *app, ingest.Options) (catalog.Movie, error)

// runAdd wraps one ingestion call with the library lock and the shared output.
func runAdd(ctx *commandContext, cmd *cobra.Command, flags *addFlags, fn addFunc) error {
	return ctx.withApp(cmd, true, func(runCtx context.Context, a *app) error {
		opts, err := flags.options(cmd, a)
		if err != nil {
			return err
		}
		movie, err := fn(runCtx, a, opts)
		if err != nil {
			return err
		}
		return reportAdded(cmd, ctx, movie)
	})
}

func reportAdded(cmd *cobra.Command, ctx *commandContext, movie catalog.Movie) error {
	if ctx.jsonOutput() {
		return writeJSON(cmd, movie)
	}
	list := "collection"
	if movie.IsWanted {
		list = "wishlist"
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Added %s (%s) to the %s [%s]\n", movie.Title, movie.DisplayYear(), list, shortID(movie.ID))
	return nil
}

func newAddTitleCommand(ctx *commandContext, flags *addFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "title <title>",
		Short: "Look up a title on OMDb and add it",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			title := strings.Join(args, " ")
			return runAdd(ctx, cmd, flags, func(c context.Context, a *app, opts ingest.Options) (catalog.Movie, error) {
				return a.ingest.AddByTitle(c, title, opts)
			})
		},
	}
}

func newAddIMDbCommand(ctx *commandContext, flags *addFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "imdb <id>",
		Short: "Look up an IMDb id on OMDb and add it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAdd(ctx, cmd, flags, func(c context.Context, a *app, opts ingest.Options) (catalog.Movie, error) {
				return a.ingest.AddByIMDbID(c, args[0], opts)
			})
		},
	}
}

func newAddTMDBCommand(ctx *commandContext, flags *addFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "tmdb <id>",
		Short: "Fetch TMDB details by id and add the movie",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(strings.TrimSpace(args[0]), 10, 64)
			if err != nil || id <= 0 {
				return fmt.Errorf("invalid TMDB id %q", args[0])
			}
			return runAdd(ctx, cmd, flags, func(c context.Context, a *app, opts ingest.Options) (catalog.Movie, error) {
				return a.ingest.AddByTMDBID(c, id, opts)
			})
		},
	}
}

func newAddBarcodeCommand(ctx *commandContext, flags *addFlags) *cobra.Command {
	var placeholder bool
	cmd := &cobra.Command{
		Use:   "barcode <code>",
		Short: "Resolve a UPC/EAN barcode and add the movie",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			code := args[0]
			return runAdd(ctx, cmd, flags, func(c context.Context, a *app, opts ingest.Options) (catalog.Movie, error) {
				var (
					movie catalog.Movie
					err   error
				)
				if placeholder {
					movie, err = a.ingest.AddBarcodePlaceholder(c, code, opts)
				} else {
					movie, err = a.ingest.ScanBarcode(c, code, opts)
				}
				switch {
				case errors.Is(err, services.ErrDuplicateID):
					return movie, fmt.Errorf("barcode already in library as %q [%s]: %w", movie.Title, shortID(movie.ID), err)
				case errors.Is(err, services.ErrNotFound):
					return movie, fmt.Errorf("%w (use --placeholder to save it as %q)", err, catalog.UnknownTitle)
				case err != nil:
					return movie, err
				}
				if a.prefs.EnableBarcodeSound && shouldColorize(cmd.OutOrStdout()) {
					fmt.Fprint(cmd.OutOrStdout(), "\a")
				}
				return movie, nil
			})
		},
	}
	cmd.Flags().BoolVar(&placeholder, "placeholder", false, "Save an \"Unknown Movie\" record without a lookup")
	return cmd
}

type manualFlags struct {
	title, director, genre, plot, actors, runtime, imdbID, barcode string
	year                                                         int
}

func newAddManualCommand(ctx *commandContext, flags *addFlags) *cobra.Command {
	var m manualFlags
	cmd := &cobra.Command{
		Use:   "manual",
		Short: "Add a movie from details entered by hand",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(m.title) == "" {
				return errors.New("--title is required")
			}
			input := catalog.Movie{
				Title:    m.title,
				Director: catalog.Str(m.director),
				Genre:    catalog.Str(m.genre),
				Plot:     catalog.Str(m.plot),
				Actors:   catalog.Str(m.actors),
				Runtime:  catalog.Str(m.runtime),
				IMDbID:   catalog.Str(m.imdbID),
				Barcode:  catalog.Str(m.barcode),
			}
			if m.year > 0 {
				input.Year = catalog.Int(m.year)
			}
			return runAdd(ctx, cmd, flags, func(c context.Context, a *app, opts ingest.Options) (catalog.Movie, error) {
				opts.FetchPoster = false
				return a.ingest.AddManual(c, input, opts)
			})
		},
	}
	cmd.Flags().StringVar(&m.title, "title", "", "Title (required)")
	cmd.Flags().IntVar(&m.year, "year", 0, "Release year")
	cmd.Flags().StringVar(&m.director, "director", "", "Director")
	cmd.Flags().StringVar(&m.genre, "genre", "", "Genre")
	cmd.Flags().StringVar(&m.plot, "plot", "", "Plot summary")
	cmd.Flags().StringVar(&m.actors, "actors", "", "Comma-separated cast")
	cmd.Flags().StringVar(&m.runtime, "runtime", "", "Runtime, e.g. \"120 min\"")
	cmd.Flags().StringVar(&m.imdbID, "imdb", "", "IMDb id")
	cmd.Flags().StringVar(&m.barcode, "barcode", "", "Barcode printed on the case")
	return cmd
}
