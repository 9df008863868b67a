package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"propwatch/config"
	"propwatch/notify"
	"propwatch/scraper"
	"propwatch/services"
	"propwatch/storage"
	"propwatch/utils"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var (
		sources     []string
		dryRun      bool
		listSources bool
	)

	root := &cobra.Command{
		Use:           "propwatch",
		Short:         "Monitor property records for sales and foreclosures",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if listSources {
				fmt.Println("Available sources:")
				for _, name := range scraper.Names() {
					fmt.Printf("  - %s\n", name)
				}
				return nil
			}
			return runMonitor(cmd.Context(), sources, dryRun)
		},
	}

	root.Flags().StringArrayVarP(&sources, "source", "s", nil,
		fmt.Sprintf("source(s) to search (can repeat), default: %s", services.DefaultSource))
	root.Flags().BoolVarP(&dryRun, "dry-run", "n", false, "don't send notifications")
	root.Flags().BoolVar(&listSources, "list-sources", false, "list available sources and exit")

	root.AddCommand(newStatsCommand())
	return root
}

func runMonitor(ctx context.Context, sources []string, dryRun bool) error {
	logger := utils.NewFileLogger(filepath.Join("logs", "monitor.log"))
	defer logger.Close()

	cfg := config.Load()

	logger.Info("Property Records Monitor - %s", time.Now().Format(time.RFC3339))

	store, err := storage.Open(cfg)
	if err != nil {
		logger.Error("Cannot open storage: %v", err)
		return err
	}
	defer store.Close()

	monitor := services.NewMonitor(cfg, store, notify.Channels(cfg, logger), logger)
	if err := monitor.Run(ctx, sources, dryRun); err != nil {
		logger.Error("%v. Available: %v", err, scraper.Names())
		return err
	}
	return nil
}

func newStatsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show database statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			store, err := storage.Open(cfg)
			if err != nil {
				return fmt.Errorf("open storage: %w", err)
			}
			defer store.Close()

			stats, err := store.Stats(cmd.Context())
			if err != nil {
				return fmt.Errorf("read statistics: %w", err)
			}
			services.PrintStats(stats)
			return nil
		},
	}
}
