package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tomsodoge/bilary/internal/config"
	"github.com/tomsodoge/bilary/internal/db"
	"github.com/tomsodoge/bilary/internal/display"
)

// Version is set via ldflags at build time.
var Version = "dev"

var (
	cfgPath    string
	jsonOutput bool
	quietFlag  bool

	cfg   *config.Config
	store *db.DB
)

var rootCmd = &cobra.Command{
	Use:           "bilary",
	Short:         "bilary - Pull invoices and receipts out of your mailboxes",
	Long:          "Bilary: connect IMAP or Gmail accounts, detect invoice emails, and keep a deduplicated local archive with PDF attachments.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		switch cmd.Name() {
		case "help", "version":
			return nil
		}

		path := cfgPath
		if path == "" {
			path = config.DefaultConfigPath()
		}
		var err error
		cfg, err = config.Load(path)
		if err != nil {
			return err
		}

		store, err = db.Open(cfg.DBPath)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if store != nil {
			store.Close()
		}
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("bilary version %s\n", Version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "Config file path (default: ~/.config/bilary/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().BoolVarP(&quietFlag, "quiet", "q", false, "Suppress non-essential output")

	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		display.ErrorMsg("%v", err)
		os.Exit(1)
	}
}
