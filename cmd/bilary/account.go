package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/tomsodoge/bilary/internal/display"
	"github.com/tomsodoge/bilary/internal/types"
)

var (
	accountServer   string
	accountPort     int
	accountPassword string
	accountToken    string
)

var accountCmd = &cobra.Command{
	Use:   "account",
	Short: "Manage connected mailbox accounts",
}

var accountAddCmd = &cobra.Command{
	Use:   "add <email>",
	Short: "Connect a mailbox (IMAP password or Google refresh token)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		email := args[0]
		if accountPassword == "" && accountToken == "" {
			return fmt.Errorf("either --password or --refresh-token is required")
		}

		server := accountServer
		if server == "" {
			server = cfg.IMAPServer
		}
		port := accountPort
		if port == 0 {
			port = cfg.IMAPPort
		}

		account := &types.Account{
			Email:        email,
			IMAPServer:   server,
			IMAPPort:     port,
			Password:     accountPassword,
			RefreshToken: accountToken,
		}
		// Google accounts keep a placeholder so the IMAP path knows
		// to stand down.
		if account.Password == "" {
			account.Password = "oauth:" + email
		}

		if err := store.InsertAccount(account); err != nil {
			return err
		}

		if !quietFlag {
			mode := "imap"
			if account.UsesGmailAPI() {
				mode = "gmail-api"
			}
			display.SuccessMsg("Connected %s (%s), account id %s", email, mode, account.ID)
		}
		return nil
	},
}

var accountListCmd = &cobra.Command{
	Use:   "list",
	Short: "List connected accounts",
	RunE: func(cmd *cobra.Command, args []string) error {
		accounts, err := store.ListAccounts()
		if err != nil {
			return err
		}

		if jsonOutput {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(accounts)
		}

		if len(accounts) == 0 {
			fmt.Println("No accounts connected. Run 'bilary account add' first.")
			return nil
		}

		display.Header("Connected accounts")
		for _, a := range accounts {
			mode := "imap"
			if a.UsesGmailAPI() {
				mode = "gmail-api"
			}
			added := ""
			if created, err := time.Parse(time.RFC3339, a.CreatedAt); err == nil {
				added = display.Muted.Render("added " + display.TimeAgo(created))
			}
			count, err := store.InvoiceCountByAccount(a.ID)
			if err != nil {
				return err
			}
			fmt.Printf("  %s  %-32s %-10s %d invoices  %s\n",
				display.Dim.Render(a.ID[:8]), a.Email, mode, count, added)
		}
		return nil
	},
}

func init() {
	accountAddCmd.Flags().StringVar(&accountPassword, "password", "", "IMAP password")
	accountAddCmd.Flags().StringVar(&accountToken, "refresh-token", "", "Google OAuth refresh token")
	accountAddCmd.Flags().StringVar(&accountServer, "server", "", "IMAP server (default from config)")
	accountAddCmd.Flags().IntVar(&accountPort, "port", 0, "IMAP port (default from config)")

	accountCmd.AddCommand(accountAddCmd)
	accountCmd.AddCommand(accountListCmd)
	rootCmd.AddCommand(accountCmd)
}
