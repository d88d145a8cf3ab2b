// Package types defines core data structures for bilary.
package types

import (
	"strings"
	"time"
)

// Account represents a connected mailbox.
//
// An account carries either an IMAP password or a Google OAuth refresh
// token; the refresh token wins when both are present.
type Account struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	IMAPServer   string `json:"imap_server"`
	IMAPPort     int    `json:"imap_port"`
	Password     string `json:"-"`
	RefreshToken string `json:"-"`
	CreatedAt    string `json:"created_at"`
}

// UsesGmailAPI reports whether the account should be synced through the
// Gmail API rather than IMAP.
func (a *Account) UsesGmailAPI() bool {
	return a.RefreshToken != ""
}

// HasUsablePassword reports whether the stored credential can be used
// for an IMAP login. Accounts connected via Google OAuth keep an
// "oauth:" placeholder instead of a real password.
func (a *Account) HasUsablePassword() bool {
	return a.Password != "" && !strings.HasPrefix(a.Password, "oauth:")
}

// PDFAttachment holds a decoded PDF attachment extracted from a message.
type PDFAttachment struct {
	Filename  string
	Content   []byte
	MediaType string
}

// ParsedMessage is the normalized form of one raw email message.
type ParsedMessage struct {
	SenderEmail string
	SenderName  string
	Subject     string
	ReceivedAt  time.Time
	Body        string
	Attachments []PDFAttachment
	InvoiceURL  string
}

// InvoiceCandidate is a parsed message plus the detector's signals and
// final inclusion decision.
type InvoiceCandidate struct {
	Message          *ParsedMessage
	HasPDF           bool
	HasKeyword       bool
	HasAmount        bool
	HasInvoiceNumber bool
	NewsletterLike   bool
	Accepted         bool
}

// Invoice represents a stored invoice record.
//
// The triple (AccountID, SenderEmail, ReceivedAt) identifies an invoice;
// sync never stores two records with the same triple.
type Invoice struct {
	ID          string    `json:"id"`
	AccountID   string    `json:"account_id"`
	SenderEmail string    `json:"sender_email"`
	SenderName  string    `json:"sender_name,omitempty"`
	Subject     string    `json:"subject,omitempty"`
	ReceivedAt  time.Time `json:"received_at"`
	Category    string    `json:"category"`
	FilePath    string    `json:"file_path,omitempty"`
	FileURL     string    `json:"file_url,omitempty"`
	IsPrivate   bool      `json:"is_private"`
	CreatedAt   string    `json:"created_at"`
}

// Attachment represents a stored PDF attachment row belonging to one invoice.
type Attachment struct {
	ID        string `json:"id"`
	InvoiceID string `json:"invoice_id"`
	Filename  string `json:"filename"`
	FileSize  int64  `json:"file_size"`
	MediaType string `json:"media_type"`
	CreatedAt string `json:"created_at"`
}

// SyncResult holds the result of syncing a single account.
type SyncResult struct {
	Account    string `json:"account"`
	Added      int    `json:"added"`
	Duplicates int    `json:"duplicates"`
	Rejected   int    `json:"rejected"`
	Errors     int    `json:"errors"`
	Error      string `json:"error,omitempty"`
}

// SyncSummary holds the result of syncing all accounts.
type SyncSummary struct {
	Accounts     []SyncResult `json:"accounts"`
	TotalAdded   int          `json:"total_added"`
	TotalSkipped int          `json:"total_skipped"`
	TotalInDB    int          `json:"total_in_db"`
}
