package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/tomsodoge/bilary/internal/categorize"
	"github.com/tomsodoge/bilary/internal/detect"
	"github.com/tomsodoge/bilary/internal/display"
	"github.com/tomsodoge/bilary/internal/pdftext"
	"github.com/tomsodoge/bilary/internal/source"
	"github.com/tomsodoge/bilary/internal/storage"
	msync "github.com/tomsodoge/bilary/internal/sync"
)

var (
	syncAccountID  string
	syncDaysBack   int
	syncYear       int
	syncFrom       string
	syncTo         string
	syncIncludeAll bool
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Fetch invoice emails from connected mailboxes",
	Long:  "Sync scans each connected mailbox for invoice-like messages in the requested window and merges new records into the local database.",
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := msync.Options{
			AccountID:  syncAccountID,
			DaysBack:   syncDaysBack,
			Year:       syncYear,
			IncludeAll: syncIncludeAll,
		}

		var err error
		if syncFrom != "" {
			opts.Start, err = time.Parse("2006-01-02", syncFrom)
			if err != nil {
				return fmt.Errorf("parse --from: %w", err)
			}
		}
		if syncTo != "" {
			opts.End, err = time.Parse("2006-01-02", syncTo)
			if err != nil {
				return fmt.Errorf("parse --to: %w", err)
			}
		}

		level := slog.LevelInfo
		if quietFlag {
			level = slog.LevelWarn
		}
		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

		detector, err := detect.New(detect.DefaultConfig())
		if err != nil {
			return fmt.Errorf("build detector: %w", err)
		}

		opener := source.NewOpener(source.GoogleCredentials{
			ClientID:     cfg.Google.ClientID,
			ClientSecret: cfg.Google.ClientSecret,
		}, logger)

		syncer := msync.New(
			store,
			opener,
			detector,
			categorize.Default(),
			storage.New(cfg.StoragePath),
			pdftext.NewExtractor(cfg.PdftotextBin, logger),
			logger,
		).WithTimeout(time.Duration(cfg.SyncTimeoutSec) * time.Second)

		if !quietFlag {
			fmt.Println("Syncing invoices...")
		}

		summary, err := syncer.Sync(context.Background(), opts)
		if errors.Is(err, msync.ErrNoAccounts) {
			return fmt.Errorf("no mailboxes connected, run 'bilary account add' first")
		}
		if err != nil {
			return err
		}

		if jsonOutput {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(summary)
		}

		if !quietFlag {
			for _, r := range summary.Accounts {
				display.SyncAccountLine(r)
			}
			fmt.Println()
			display.SuccessMsg("Done! %d new invoices, %d duplicates skipped. Total in DB: %d",
				summary.TotalAdded, summary.TotalSkipped, summary.TotalInDB)
		}
		return nil
	},
}

func init() {
	syncCmd.Flags().StringVar(&syncAccountID, "account", "", "Sync a single account by id")
	syncCmd.Flags().IntVar(&syncDaysBack, "days", 30, "Number of days to search back")
	syncCmd.Flags().IntVar(&syncYear, "year", 0, "Sync a whole year (e.g. 2024)")
	syncCmd.Flags().StringVar(&syncFrom, "from", "", "Window start (YYYY-MM-DD)")
	syncCmd.Flags().StringVar(&syncTo, "to", "", "Window end, inclusive (YYYY-MM-DD)")
	syncCmd.Flags().BoolVar(&syncIncludeAll, "all", false, "Include every non-newsletter message (full-recall sweep)")
	rootCmd.AddCommand(syncCmd)
}
