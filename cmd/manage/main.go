// Command manage runs one-off operator tasks such as migrations, scheduled
// publishing and social card rendering.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/technofatty/technofatty/internal/app"
	"github.com/technofatty/technofatty/internal/socialimage"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "manage",
		Short:         "Technofatty operator commands",
		SilenceUsage:  true,
	}
	root.AddCommand(newMigrateCmd(), newPublishScheduledCmd(), newSocialImageCmd(), newRegenSocialImagesCmd())
	return root
}

func newMigrateCmd() *cobra.Command {
	migrate := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back database migrations",
	}

	migrate.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withDB(func(db migrator, path string) error {
				return db.RunMigrations(path)
			})
		},
	})

	migrate.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Roll back every migration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withDB(func(db migrator, path string) error {
				return db.MigrateDown(path)
			})
		},
	})

	migrate.AddCommand(&cobra.Command{
		Use:   "to VERSION",
		Short: "Migrate up or down to a specific version",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			version, err := parseVersion(args[0])
			if err != nil {
				return err
			}
			return withDB(func(db migrator, path string) error {
				return db.MigrateToVersion(path, version)
			})
		},
	})

	return migrate
}

type migrator interface {
	RunMigrations(path string) error
	MigrateDown(path string) error
	MigrateToVersion(path string, version uint) error
}

func withDB(fn func(db migrator, path string) error) error {
	cfg, log, err := app.LoadConfig()
	if err != nil {
		return err
	}
	db, err := app.OpenDB(cfg, log)
	if err != nil {
		return err
	}
	defer db.Close()
	return fn(db, cfg.Server.MigrationsPath)
}

func parseVersion(raw string) (uint, error) {
	v, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || v == 0 {
		return 0, fmt.Errorf("invalid migration version %q", raw)
	}
	return uint(v), nil
}

func newPublishScheduledCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "publish-scheduled",
		Short: "Publish knowledge articles whose scheduled time has passed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := app.LoadConfig()
			if err != nil {
				return err
			}
			a, err := app.New(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			defer a.Close()

			n, err := a.Services.Scheduler.RunOnce(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Published %d article(s).\n", n)
			return nil
		},
	}
}

func newSocialImageCmd() *cobra.Command {
	var title, slug string

	cmd := &cobra.Command{
		Use:   "social-image",
		Short: "Render Open Graph and Twitter cards for a title",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := app.LoadConfig()
			if err != nil {
				return err
			}
			store, err := socialimage.NewStore(cmd.Context(), cfg.Social)
			if err != nil {
				return err
			}
			images, err := socialimage.NewGenerator(store, log).Generate(cmd.Context(), title, slug)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), images.OG)
			fmt.Fprintln(cmd.OutOrStdout(), images.Twitter)
			return nil
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "card text")
	cmd.Flags().StringVar(&slug, "slug", "", "slug used in the file name")
	_ = cmd.MarkFlagRequired("title")
	_ = cmd.MarkFlagRequired("slug")
	return cmd
}

func newRegenSocialImagesCmd() *cobra.Command {
	var slug string
	var force bool

	cmd := &cobra.Command{
		Use:   "regen-social-images",
		Short: "Regenerate social cards for blog posts and store their URLs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := app.LoadConfig()
			if err != nil {
				return err
			}
			a, err := app.New(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			defer a.Close()

			n, err := a.Services.Blog.RegenerateSocialImages(cmd.Context(), slug, force)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Regenerated images for %d post(s).\n", n)
			return nil
		},
	}

	cmd.Flags().StringVar(&slug, "slug", "", "only regenerate this post")
	cmd.Flags().BoolVar(&force, "force", false, "replace hand-set image URLs too")
	return cmd
}
