package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"impractical.co/jrblog/internal/build"
)

func buildCmd(opts *options) *cobra.Command {
	var (
		outputDir   string
		concurrency int
	)
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build the blog into static files",
		Long: `The build command renders every page of the blog: each page of the
post list, every post, page and attachment, each category, tag and author
archive, and a 404 page. Each is written to index.html below the directory
its URL names, inside the output directory.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, a, err := opts.setup(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("output") {
				a.cfg.Content.OutputDir = outputDir
			}
			repo, err := a.loadContent(ctx)
			if err != nil {
				return err
			}
			files, err := build.Builder{
				Engine:      a.engine,
				Repository:  repo,
				OutputDir:   a.cfg.Content.OutputDir,
				Concurrency: concurrency,
				Assets:      a.assets(),
				AssetPath:   a.cfg.Theme.AssetURL,
			}.Build(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d files to %s\n", len(files), a.cfg.Content.OutputDir)
			return nil
		},
	}
	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "directory to write to (default content.output_dir)")
	cmd.Flags().IntVar(&concurrency, "concurrency", 4, "pages to render at once")
	return cmd
}
