// Package display provides terminal formatting for bilary output.
package display

import (
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/tomsodoge/bilary/internal/types"
)

var (
	// Styles
	Muted    = lipgloss.NewStyle().Foreground(lipgloss.Color("#6b7280"))
	Dim      = lipgloss.NewStyle().Foreground(lipgloss.Color("#9ca3af"))
	Bold     = lipgloss.NewStyle().Bold(true)
	Success  = lipgloss.NewStyle().Foreground(lipgloss.Color("#16a34a"))
	ErrStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#dc2626"))

	DigitalStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#2563eb"))
	PhysicalStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#d97706"))
	CourseStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#7c3aed"))
	OtherStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#6b7280"))
	PrivateStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#db2777"))
)

// CategoryBadge returns a colored label for an invoice category.
func CategoryBadge(category string) string {
	label := fmt.Sprintf("%-16s", category)
	switch category {
	case "Digital Service":
		return DigitalStyle.Render(label)
	case "Physical Product":
		return PhysicalStyle.Render(label)
	case "Online Course":
		return CourseStyle.Render(label)
	default:
		return OtherStyle.Render(label)
	}
}

// InvoiceRow prints one invoice as a list row.
func InvoiceRow(inv *types.Invoice) {
	date := Dim.Render(inv.ReceivedAt.Format("2006-01-02"))
	sender := Bold.Render(Truncate(inv.SenderEmail, 32))
	subject := Truncate(inv.Subject, 48)
	marker := " "
	if inv.IsPrivate {
		marker = PrivateStyle.Render("P")
	}
	fmt.Printf("  %s %s  %s  %-34s %s\n", marker, date, CategoryBadge(inv.Category), sender, subject)
}

// SyncAccountLine prints the per-account outcome of a sync pass.
func SyncAccountLine(r types.SyncResult) {
	if r.Error != "" {
		fmt.Printf("  %s %s — %s\n", ErrStyle.Render("!"), r.Account, r.Error)
		return
	}
	counts := fmt.Sprintf("%d new, %d duplicates, %d rejected", r.Added, r.Duplicates, r.Rejected)
	if r.Errors > 0 {
		counts += ErrStyle.Render(fmt.Sprintf(", %d errors", r.Errors))
	}
	fmt.Printf("  %s %s — %s\n", Success.Render("✓"), r.Account, counts)
}

// TimeAgo formats a timestamp as a relative time.
func TimeAgo(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	case d < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	default:
		return t.Format("Jan 2")
	}
}

// Truncate shortens a string to maxLen, adding ellipsis if needed.
func Truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}

// SuccessMsg prints a green checkmark + message.
func SuccessMsg(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println(Success.Render("✓") + " " + msg)
}

// ErrorMsg prints a red X + message to stderr.
func ErrorMsg(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(os.Stderr, ErrStyle.Render("✗")+" "+msg)
}

// Header prints a section header.
func Header(title string) {
	fmt.Println(Bold.Render(title))
}
