package source

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"

	"github.com/tomsodoge/bilary/internal/types"
)

// imapSession pulls raw messages over IMAP for password accounts.
type imapSession struct {
	client  *imapclient.Client
	account string
	logger  *slog.Logger
}

// openIMAP dials the account's IMAP server over TLS and logs in.
func openIMAP(_ context.Context, account *types.Account, logger *slog.Logger) (Session, error) {
	addr := fmt.Sprintf("%s:%d", account.IMAPServer, account.IMAPPort)

	client, err := imapclient.DialTLS(addr, nil)
	if err != nil {
		return nil, fmt.Errorf("connect to IMAP %s: %w", addr, err)
	}

	if err := client.Login(account.Email, account.Password).Wait(); err != nil {
		_ = client.Logout().Wait()
		return nil, fmt.Errorf("login %s: %w", account.Email, err)
	}

	return &imapSession{client: client, account: account.Email, logger: logger}, nil
}

// Messages selects INBOX, searches the window with SINCE/BEFORE, and
// fetches each matching message individually so that one broken
// message skips only itself.
func (s *imapSession) Messages(_ context.Context, w Window, fn func(raw []byte) error) error {
	if _, err := s.client.Select("INBOX", nil).Wait(); err != nil {
		return fmt.Errorf("select INBOX: %w", err)
	}

	criteria := &imap.SearchCriteria{
		Since:  w.Start,
		Before: w.End,
	}
	searchData, err := s.client.UIDSearch(criteria, nil).Wait()
	if err != nil {
		return fmt.Errorf("search window: %w", err)
	}

	uids := searchData.AllUIDs()
	s.logger.Debug("imap search done", "account", s.account, "messages", len(uids))

	bodySection := &imap.FetchItemBodySection{Peek: true}
	fetchOpts := &imap.FetchOptions{
		UID:         true,
		BodySection: []*imap.FetchItemBodySection{bodySection},
	}

	for _, uid := range uids {
		raw, err := s.fetchOne(uid, bodySection, fetchOpts)
		if err != nil {
			s.logger.Warn("skipping message", "account", s.account, "uid", uint32(uid), "error", err)
			continue
		}
		if err := fn(raw); err != nil {
			return err
		}
	}
	return nil
}

func (s *imapSession) fetchOne(uid imap.UID, section *imap.FetchItemBodySection, opts *imap.FetchOptions) ([]byte, error) {
	fetchCmd := s.client.Fetch(imap.UIDSetNum(uid), opts)

	msg := fetchCmd.Next()
	if msg == nil {
		_ = fetchCmd.Close()
		return nil, fmt.Errorf("message UID %d not found", uid)
	}

	buf, err := msg.Collect()
	if err != nil {
		_ = fetchCmd.Close()
		return nil, fmt.Errorf("collect message data: %w", err)
	}

	if err := fetchCmd.Close(); err != nil {
		return nil, fmt.Errorf("close fetch: %w", err)
	}

	raw := buf.FindBodySection(section)
	if raw == nil {
		return nil, fmt.Errorf("no body section for UID %d", uid)
	}
	return raw, nil
}

// Close logs out of the IMAP session.
func (s *imapSession) Close() error {
	return s.client.Logout().Wait()
}
