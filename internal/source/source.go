// Package source retrieves raw messages from connected mailboxes.
//
// Two session implementations exist behind one interface: an IMAP
// session for password accounts and a Gmail API session for accounts
// holding an OAuth refresh token. The orchestrator never cares which
// one it got.
package source

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/tomsodoge/bilary/internal/types"
)

// Window is the half-open [Start, End) date range of one sync pass.
type Window struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t falls inside the window.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// WindowRequest describes the requested range in one of three forms:
// a whole year, an explicit start/end pair, or a days-back count.
type WindowRequest struct {
	DaysBack int
	Year     int
	Start    time.Time
	End      time.Time
}

// Resolve turns a request into a concrete window relative to now.
// A year selects [Jan 1, Jan 1 of the next year); an explicit range is
// inclusive of its end day; otherwise the window reaches from DaysBack
// days ago through tomorrow.
func Resolve(req WindowRequest, now time.Time) Window {
	switch {
	case req.Year != 0:
		start := time.Date(req.Year, time.January, 1, 0, 0, 0, 0, time.UTC)
		return Window{Start: start, End: start.AddDate(1, 0, 0)}
	case !req.Start.IsZero() && !req.End.IsZero():
		return Window{Start: req.Start, End: req.End.AddDate(0, 0, 1)}
	case !req.Start.IsZero():
		return Window{Start: req.Start, End: now.AddDate(0, 0, 1)}
	default:
		return Window{Start: now.AddDate(0, 0, -req.DaysBack), End: now.AddDate(0, 0, 1)}
	}
}

// Session lists raw messages for a window. Close must be called when
// done, on every exit path.
type Session interface {
	// Messages invokes fn once per raw message in the window, in
	// mailbox order. Individual fetch failures are skipped, not
	// surfaced; only a failure of the listing itself stops early.
	Messages(ctx context.Context, w Window, fn func(raw []byte) error) error

	Close() error
}

// GoogleCredentials identifies the OAuth client used to redeem refresh
// tokens on the Gmail path.
type GoogleCredentials struct {
	ClientID     string
	ClientSecret string
}

// Opener opens an authenticated session for an account.
type Opener interface {
	Open(ctx context.Context, account *types.Account) (Session, error)
}

// NewOpener returns the default Opener: Gmail API for accounts with a
// refresh token, IMAP for everything else.
func NewOpener(google GoogleCredentials, logger *slog.Logger) Opener {
	if logger == nil {
		logger = slog.Default()
	}
	return &accountOpener{google: google, logger: logger}
}

type accountOpener struct {
	google GoogleCredentials
	logger *slog.Logger
}

func (o *accountOpener) Open(ctx context.Context, account *types.Account) (Session, error) {
	if account.UsesGmailAPI() {
		return openGmail(ctx, account, o.google, o.logger)
	}
	if !account.HasUsablePassword() {
		return nil, fmt.Errorf("account %s has no usable password", account.Email)
	}
	return openIMAP(ctx, account, o.logger)
}
