package main

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"moviecase/internal/catalog"
)

func newCollectionsCommand(ctx *commandContext) *cobra.Command {
	collectionsCmd := &cobra.Command{
		Use:     "collections",
		Aliases: []string{"collection", "col"},
		Short:   "Manage named collections",
	}
	collectionsCmd.AddCommand(newCollectionsListCommand(ctx))
	collectionsCmd.AddCommand(newCollectionsShowCommand(ctx))
	collectionsCmd.AddCommand(newCollectionsCreateCommand(ctx))
	collectionsCmd.AddCommand(newCollectionsEditCommand(ctx))
	collectionsCmd.AddCommand(newCollectionsDeleteCommand(ctx))
	collectionsCmd.AddCommand(newCollectionsMembershipCommand(ctx, true))
	collectionsCmd.AddCommand(newCollectionsMembershipCommand(ctx, false))
	collectionsCmd.AddCommand(newCollectionsSeedCommand(ctx))
	return collectionsCmd
}

func newCollectionsListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List collections",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(cmd, false, func(_ context.Context, a *app) error {
				collections := a.library.Collections()
				if ctx.jsonOutput() {
					return writeJSON(cmd, collections)
				}
				if len(collections) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No collections (run `moviecase collections seed` to add the defaults)")
					return nil
				}
				rows := make([][]string, 0, len(collections))
				for _, c := range collections {
					rows = append(rows, []string{
						shortID(c.ID),
						c.Name,
						strconv.Itoa(c.MovieCount()),
						c.DisplayDescription(),
					})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"ID", "Name", "Movies", "Description"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft},
				))
				return nil
			})
		},
	}
}

type collectionView struct {
	catalog.Collection
	Movies []catalog.Movie `json:"movies"`
}

func newCollectionsShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <name|id>",
		Short: "Show a collection and its movies",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(cmd, false, func(_ context.Context, a *app) error {
				c, err := resolveCollection(a.library, args[0])
				if err != nil {
					return err
				}
				movies, err := a.library.MoviesInCollection(c.ID)
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, collectionView{Collection: c, Movies: movies})
				}
				w := cmd.OutOrStdout()
				colorize := shouldColorize(w)
				for _, line := range renderSectionHeader(c.Name, colorize) {
					fmt.Fprintln(w, line)
				}
				fmt.Fprintln(w, c.DisplayDescription())
				if len(movies) == 0 {
					fmt.Fprintln(w, "No movies in this collection")
					return nil
				}
				fmt.Fprintln(w, renderMovieList(movies))
				return nil
			})
		},
	}
}

type collectionFlags struct {
	description, color, icon, name string
}

func (f collectionFlags) apply(cmd *cobra.Command, c *catalog.Collection) {
	changed := cmd.Flags().Changed
	if changed("name") {
		c.Name = f.name
	}
	if changed("description") {
		c.Description = catalog.Str(f.description)
	}
	if changed("color") {
		c.Color = catalog.Str(f.color)
	}
	if changed("icon") {
		c.Icon = catalog.Str(f.icon)
	}
}

func newCollectionsCreateCommand(ctx *commandContext) *cobra.Command {
	var flags collectionFlags
	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a collection",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(cmd, true, func(runCtx context.Context, a *app) error {
				if _, exists := a.library.CollectionByName(args[0]); exists {
					return fmt.Errorf("collection %q already exists", args[0])
				}
				c := catalog.NewCollection(args[0], time.Now())
				flags.apply(cmd, &c)
				if err := a.library.InsertCollection(runCtx, c); err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, c)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created collection %s [%s]\n", c.Name, shortID(c.ID))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&flags.description, "description", "", "Description")
	cmd.Flags().StringVar(&flags.color, "color", "", "Hex color, e.g. #FF6B6B")
	cmd.Flags().StringVar(&flags.icon, "icon", "", "Icon name")
	return cmd
}

func newCollectionsEditCommand(ctx *commandContext) *cobra.Command {
	var flags collectionFlags
	cmd := &cobra.Command{
		Use:   "edit <name|id>",
		Short: "Rename or describe a collection",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(cmd, true, func(runCtx context.Context, a *app) error {
				c, err := resolveCollection(a.library, args[0])
				if err != nil {
					return err
				}
				flags.apply(cmd, &c)
				if err := a.library.UpdateCollection(runCtx, c); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Updated collection %s [%s]\n", c.Name, shortID(c.ID))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&flags.name, "name", "", "New name")
	cmd.Flags().StringVar(&flags.description, "description", "", "Description")
	cmd.Flags().StringVar(&flags.color, "color", "", "Hex color, e.g. #FF6B6B")
	cmd.Flags().StringVar(&flags.icon, "icon", "", "Icon name")
	return cmd
}

func newCollectionsDeleteCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <name|id>",
		Short: "Delete a collection (its movies stay in the library)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(cmd, true, func(runCtx context.Context, a *app) error {
				c, err := resolveCollection(a.library, args[0])
				if err != nil {
					return err
				}
				if err := a.library.DeleteCollection(runCtx, c.ID); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted collection %s\n", c.Name)
				return nil
			})
		},
	}
}

func newCollectionsMembershipCommand(ctx *commandContext, add bool) *cobra.Command {
	use, short, format := "add <collection> <movie-id>...", "Add movies to a collection", "Added %s [%s] to %s\n"
	if !add {
		use, short, format = "remove <collection> <movie-id>...", "Remove movies from a collection", "Removed %s [%s] from %s\n"
	}
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(cmd, true, func(runCtx context.Context, a *app) error {
				c, err := resolveCollection(a.library, args[0])
				if err != nil {
					return err
				}
				for _, ref := range args[1:] {
					movie, err := resolveMovie(a.library, ref)
					if err != nil {
						return err
					}
					if add {
						err = a.library.AddToCollection(runCtx, c.ID, movie.ID)
					} else {
						err = a.library.RemoveFromCollection(runCtx, c.ID, movie.ID)
					}
					if err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), format, movie.Title, shortID(movie.ID), c.Name)
				}
				return nil
			})
		},
	}
}

func newCollectionsSeedCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Create the default genre collections when none exist",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// withApp seeds an empty library before running mutating commands.
			return ctx.withApp(cmd, true, func(_ context.Context, a *app) error {
				if a.seeded == 0 {
					fmt.Fprintf(cmd.OutOrStdout(), "Library already has %d collections; nothing seeded\n", len(a.library.Collections()))
					return nil
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d default collections\n", a.seeded)
				return nil
			})
		},
	}
}
