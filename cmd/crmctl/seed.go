package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"legal_intake_backend/internal/lifecycle/repository"
	"legal_intake_backend/internal/lifecycle/seed"

	"github.com/spf13/cobra"
)

var seedFile string

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load pipeline stages, task templates and stage mappings",
	Long:  "Upserts pipeline reference data. Without --file the built-in default pipelines are loaded.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		f, err := loadSeed(seedFile)
		if err != nil {
			return err
		}

		pool, err := connect(ctx)
		if err != nil {
			return err
		}
		defer pool.Close()

		return runSeed(ctx, repository.New(pool), f, cmd.OutOrStdout())
	},
}

func init() {
	seedCmd.Flags().StringVar(&seedFile, "file", "", "path to a seed YAML document")
}

func loadSeed(path string) (seed.File, error) {
	if path == "" {
		return seed.Default()
	}
	fh, err := os.Open(path)
	if err != nil {
		return seed.File{}, fmt.Errorf("open seed file: %w", err)
	}
	defer fh.Close()
	return seed.Load(fh)
}

func runSeed(ctx context.Context, repo repository.Repository, f seed.File, out io.Writer) error {
	res, err := seed.Apply(ctx, repo, f, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("seed: %w", err)
	}
	fmt.Fprintf(out, "seeded %d stages, %d templates, %d mappings\n", res.Stages, res.Templates, res.Mappings)
	return nil
}
