// Package sync drives connected accounts through the invoice pipeline:
// source → parse → detect → categorize → persistence.
//
// Failures are contained at the smallest possible scope. A session
// failure skips one account, a broken message skips one message, and a
// persistence failure skips one candidate; only an empty account list
// fails the run as a whole.
package sync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/tomsodoge/bilary/internal/categorize"
	"github.com/tomsodoge/bilary/internal/db"
	"github.com/tomsodoge/bilary/internal/detect"
	"github.com/tomsodoge/bilary/internal/mailparse"
	"github.com/tomsodoge/bilary/internal/source"
	"github.com/tomsodoge/bilary/internal/types"
)

// ErrNoAccounts is returned when no mailbox has ever been connected.
var ErrNoAccounts = errors.New("no mailboxes connected")

const defaultDaysBack = 30

// refineTextLimit caps how much extracted PDF text feeds the second
// categorization pass.
const refineTextLimit = 1000

// ContentStore persists attachment bytes and returns the stored path.
type ContentStore interface {
	Save(accountID, invoiceID, filename string, content []byte) (string, error)
}

// PDFExtractor returns first-page text of a stored PDF, or "".
type PDFExtractor interface {
	FirstPage(ctx context.Context, path string) string
}

// Syncer runs sync passes over connected accounts.
type Syncer struct {
	store       *db.DB
	opener      source.Opener
	detector    *detect.Detector
	categorizer *categorize.Categorizer
	content     ContentStore
	pdf         PDFExtractor
	logger      *slog.Logger
	timeout     time.Duration
}

// New wires a Syncer from its collaborators.
func New(store *db.DB, opener source.Opener, detector *detect.Detector,
	categorizer *categorize.Categorizer, content ContentStore, pdf PDFExtractor,
	logger *slog.Logger) *Syncer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Syncer{
		store:       store,
		opener:      opener,
		detector:    detector,
		categorizer: categorizer,
		content:     content,
		pdf:         pdf,
		logger:      logger,
	}
}

// WithTimeout bounds each account's session. Expiry is a recoverable
// per-account failure, not a run failure.
func (s *Syncer) WithTimeout(d time.Duration) *Syncer {
	s.timeout = d
	return s
}

// Options selects the accounts and date window of one sync pass.
type Options struct {
	// AccountID restricts the pass to one account; empty means all.
	AccountID string

	// Window selection; Year wins over Start/End wins over DaysBack.
	DaysBack int
	Year     int
	Start    time.Time
	End      time.Time

	// IncludeAll keeps every message that is not newsletter-like,
	// for manual full-recall sweeps.
	IncludeAll bool
}

// Sync runs one pass over the selected accounts and aggregates per-account
// results. Accounts are processed sequentially, in creation order.
func (s *Syncer) Sync(ctx context.Context, opts Options) (*types.SyncSummary, error) {
	accounts, err := s.selectAccounts(opts.AccountID)
	if err != nil {
		return nil, err
	}
	if len(accounts) == 0 {
		return nil, ErrNoAccounts
	}

	daysBack := opts.DaysBack
	if daysBack <= 0 {
		daysBack = defaultDaysBack
	}
	window := source.Resolve(source.WindowRequest{
		DaysBack: daysBack,
		Year:     opts.Year,
		Start:    opts.Start,
		End:      opts.End,
	}, time.Now())

	summary := &types.SyncSummary{}
	for _, account := range accounts {
		result := s.syncAccount(ctx, account, window, opts.IncludeAll)
		summary.Accounts = append(summary.Accounts, result)
		summary.TotalAdded += result.Added
		summary.TotalSkipped += result.Duplicates
	}
	total, err := s.store.InvoiceCount()
	if err != nil {
		// The per-account results are complete; only the footer count
		// is lost.
		s.logger.Warn("count invoices", "error", err)
	}
	summary.TotalInDB = total

	return summary, nil
}

func (s *Syncer) selectAccounts(accountID string) ([]*types.Account, error) {
	if accountID != "" {
		account, err := s.store.GetAccount(accountID)
		if err != nil {
			return nil, fmt.Errorf("load account %s: %w", accountID, err)
		}
		if account == nil {
			return nil, ErrNoAccounts
		}
		return []*types.Account{account}, nil
	}
	accounts, err := s.store.ListAccounts()
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	return accounts, nil
}

// syncAccount processes one account. All failures are recorded on the
// result; it never aborts the run.
func (s *Syncer) syncAccount(ctx context.Context, account *types.Account, window source.Window, includeAll bool) types.SyncResult {
	result := types.SyncResult{Account: account.Email}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	// OAuth-connected accounts without a refresh token hold a
	// placeholder password; an IMAP login attempt would be doomed.
	if !account.UsesGmailAPI() && !account.HasUsablePassword() {
		result.Error = "no usable credential"
		s.logger.Info("skipping account without usable credential", "account", account.Email)
		return result
	}

	session, err := s.opener.Open(ctx, account)
	if err != nil {
		result.Error = fmt.Sprintf("open session: %v", err)
		s.logger.Warn("session failed", "account", account.Email, "error", err)
		return result
	}
	defer session.Close()

	err = session.Messages(ctx, window, func(raw []byte) error {
		s.processMessage(ctx, account, raw, includeAll, &result)
		return nil
	})
	if err != nil {
		// Partial counts stand; only the remainder of the window is lost.
		result.Error = fmt.Sprintf("list messages: %v", err)
		s.logger.Warn("listing failed", "account", account.Email, "error", err)
	}

	s.logger.Info("account synced",
		"account", account.Email,
		"added", result.Added,
		"duplicates", result.Duplicates,
		"rejected", result.Rejected,
		"errors", result.Errors,
	)
	return result
}

func (s *Syncer) processMessage(ctx context.Context, account *types.Account, raw []byte, includeAll bool, result *types.SyncResult) {
	parsed := mailparse.Parse(raw)
	candidate := s.detector.Evaluate(parsed, includeAll)
	if !candidate.Accepted {
		result.Rejected++
		return
	}

	if err := s.persistCandidate(ctx, account, candidate, result); err != nil {
		result.Errors++
		s.logger.Error("candidate processing failed",
			"account", account.Email,
			"sender", parsed.SenderEmail,
			"error", err,
		)
	}
}

// persistCandidate merges one accepted candidate into the store:
// dedup check, insert, attachment storage, and category refinement.
func (s *Syncer) persistCandidate(ctx context.Context, account *types.Account, candidate types.InvoiceCandidate, result *types.SyncResult) error {
	msg := candidate.Message

	existing, err := s.store.FindInvoice(account.ID, msg.SenderEmail, msg.ReceivedAt)
	if err != nil {
		return fmt.Errorf("dedup lookup: %w", err)
	}
	if existing != nil {
		result.Duplicates++
		return nil
	}

	inv := &types.Invoice{
		AccountID:   account.ID,
		SenderEmail: msg.SenderEmail,
		SenderName:  msg.SenderName,
		Subject:     msg.Subject,
		ReceivedAt:  msg.ReceivedAt,
		Category:    s.categorizer.Categorize(msg.Subject, msg.Body),
		FileURL:     msg.InvoiceURL,
	}
	if err := s.store.InsertInvoice(inv); err != nil {
		return err
	}

	for _, att := range msg.Attachments {
		path, err := s.content.Save(account.ID, inv.ID, att.Filename, att.Content)
		if err != nil {
			return fmt.Errorf("store attachment: %w", err)
		}
		if err := s.store.UpdateFilePath(inv.ID, path); err != nil {
			return err
		}

		s.refineCategory(ctx, inv, msg.Subject, path)

		if err := s.store.InsertAttachment(&types.Attachment{
			InvoiceID: inv.ID,
			Filename:  att.Filename,
			FileSize:  int64(len(att.Content)),
			MediaType: att.MediaType,
		}); err != nil {
			return err
		}
	}

	result.Added++
	return nil
}

// refineCategory re-runs the categorizer on first-page PDF text. The
// refinement may upgrade the coarse result but never downgrades a
// specific category back to Other.
func (s *Syncer) refineCategory(ctx context.Context, inv *types.Invoice, subject, path string) {
	text := s.pdf.FirstPage(ctx, path)
	if text == "" {
		return
	}
	if runes := []rune(text); len(runes) > refineTextLimit {
		text = string(runes[:refineTextLimit])
	}

	better := s.categorizer.Categorize(subject, text)
	if better == categorize.Other {
		return
	}
	if err := s.store.UpdateCategory(inv.ID, better); err != nil {
		s.logger.Warn("category refinement failed", "invoice", inv.ID, "error", err)
		return
	}
	inv.Category = better
}
