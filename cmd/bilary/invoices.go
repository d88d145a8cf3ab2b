package main

import (
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/tomsodoge/bilary/internal/categorize"
	"github.com/tomsodoge/bilary/internal/db"
	"github.com/tomsodoge/bilary/internal/display"
)

var (
	listSender   string
	listCategory string
	listPrivate  string
	listFrom     string
	listTo       string
	listLimit    int
)

var invoicesCmd = &cobra.Command{
	Use:   "invoices",
	Short: "Browse and correct stored invoices",
}

var invoicesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored invoices, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		filter := db.InvoiceFilter{
			Sender:   listSender,
			Category: listCategory,
			Limit:    listLimit,
		}

		if listPrivate != "" {
			private, err := strconv.ParseBool(listPrivate)
			if err != nil {
				return fmt.Errorf("parse --private: %w", err)
			}
			filter.IsPrivate = &private
		}
		var err error
		if listFrom != "" {
			filter.Start, err = time.Parse("2006-01-02", listFrom)
			if err != nil {
				return fmt.Errorf("parse --from: %w", err)
			}
		}
		if listTo != "" {
			end, err := time.Parse("2006-01-02", listTo)
			if err != nil {
				return fmt.Errorf("parse --to: %w", err)
			}
			filter.End = end.AddDate(0, 0, 1)
		}

		invoices, err := store.ListInvoices(filter)
		if err != nil {
			return err
		}

		if jsonOutput {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(invoices)
		}

		if len(invoices) == 0 {
			fmt.Println("No invoices found.")
			return nil
		}
		for _, inv := range invoices {
			display.InvoiceRow(inv)
		}
		fmt.Printf("\n%d invoice(s)\n", len(invoices))
		return nil
	},
}

var invoicesSetCategoryCmd = &cobra.Command{
	Use:   "set-category <invoice-id> <category>",
	Short: "Correct the category of an invoice",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, category := args[0], args[1]

		valid := categorize.Default().Names()
		if !slices.Contains(valid, category) {
			return fmt.Errorf("unknown category %q (valid: %v)", category, valid)
		}

		inv, err := store.GetInvoice(id)
		if err != nil {
			return err
		}
		if inv == nil {
			return fmt.Errorf("invoice %s not found", id)
		}

		if err := store.UpdateCategory(id, category); err != nil {
			return err
		}
		if !quietFlag {
			display.SuccessMsg("Invoice %s moved to %s", id[:8], category)
		}
		return nil
	},
}

var invoicesSetPrivateCmd = &cobra.Command{
	Use:   "set-private <invoice-id> <true|false>",
	Short: "Mark an invoice as private (or public again)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id := args[0]
		private, err := strconv.ParseBool(args[1])
		if err != nil {
			return fmt.Errorf("parse flag value: %w", err)
		}

		inv, err := store.GetInvoice(id)
		if err != nil {
			return err
		}
		if inv == nil {
			return fmt.Errorf("invoice %s not found", id)
		}

		if err := store.UpdatePrivacy(id, private); err != nil {
			return err
		}
		if !quietFlag {
			state := "public"
			if private {
				state = "private"
			}
			display.SuccessMsg("Invoice %s is now %s", id[:8], state)
		}
		return nil
	},
}

func init() {
	invoicesListCmd.Flags().StringVar(&listSender, "sender", "", "Filter by sender email (substring match)")
	invoicesListCmd.Flags().StringVar(&listCategory, "category", "", "Filter by category")
	invoicesListCmd.Flags().StringVar(&listPrivate, "private", "", "Filter by privacy flag (true/false)")
	invoicesListCmd.Flags().StringVar(&listFrom, "from", "", "Received on or after (YYYY-MM-DD)")
	invoicesListCmd.Flags().StringVar(&listTo, "to", "", "Received on or before (YYYY-MM-DD)")
	invoicesListCmd.Flags().IntVar(&listLimit, "limit", 500, "Maximum number of invoices to return")

	invoicesCmd.AddCommand(invoicesListCmd)
	invoicesCmd.AddCommand(invoicesSetCategoryCmd)
	invoicesCmd.AddCommand(invoicesSetPrivateCmd)
	rootCmd.AddCommand(invoicesCmd)
}
