package source

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gm "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/tomsodoge/bilary/internal/types"
)

// maxPages caps the pagination loop so a misbehaving continuation
// token can never spin forever.
const maxPages = 50

// gmailSession pulls raw messages through the Gmail API for accounts
// that hold an OAuth refresh token.
type gmailSession struct {
	svc     *gm.Service
	account string
	logger  *slog.Logger
}

// openGmail redeems the account's refresh token and builds a Gmail
// service around the resulting token source.
func openGmail(ctx context.Context, account *types.Account, creds GoogleCredentials, logger *slog.Logger) (Session, error) {
	if creds.ClientID == "" || creds.ClientSecret == "" {
		return nil, fmt.Errorf("google client credentials not configured")
	}

	config := &oauth2.Config{
		ClientID:     creds.ClientID,
		ClientSecret: creds.ClientSecret,
		Endpoint:     google.Endpoint,
		Scopes:       []string{gm.GmailReadonlyScope},
	}
	ts := config.TokenSource(ctx, &oauth2.Token{RefreshToken: account.RefreshToken})

	// Redeem eagerly so auth failures surface as session errors.
	if _, err := ts.Token(); err != nil {
		return nil, fmt.Errorf("refresh token for %s: %w", account.Email, err)
	}

	svc, err := gm.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return nil, fmt.Errorf("create gmail service: %w", err)
	}

	return &gmailSession{svc: svc, account: account.Email, logger: logger}, nil
}

// Messages pages through the listing for the window and fetches each
// message in raw RFC 822 form. A failed page or message fetch is
// skipped; the loop stops after maxPages regardless of the token.
func (s *gmailSession) Messages(ctx context.Context, w Window, fn func(raw []byte) error) error {
	query := fmt.Sprintf("after:%s before:%s",
		w.Start.Format("2006/01/02"), w.End.Format("2006/01/02"))

	pageToken := ""
	for page := 0; page < maxPages; page++ {
		call := s.svc.Users.Messages.List("me").Q(query).MaxResults(100).Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}
		resp, err := call.Do()
		if err != nil {
			s.logger.Warn("gmail listing failed", "account", s.account, "page", page, "error", err)
			return nil
		}

		for _, ref := range resp.Messages {
			raw, err := s.fetchRaw(ctx, ref.Id)
			if err != nil {
				s.logger.Warn("skipping message", "account", s.account, "id", ref.Id, "error", err)
				continue
			}
			if err := fn(raw); err != nil {
				return err
			}
		}

		pageToken = resp.NextPageToken
		if pageToken == "" {
			return nil
		}
	}

	s.logger.Warn("gmail pagination cap reached", "account", s.account, "pages", maxPages)
	return nil
}

func (s *gmailSession) fetchRaw(ctx context.Context, id string) ([]byte, error) {
	msg, err := s.svc.Users.Messages.Get("me", id).Format("raw").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("get message %s: %w", id, err)
	}
	if msg.Raw == "" {
		return nil, fmt.Errorf("message %s has no raw payload", id)
	}
	return decodeBase64URL(msg.Raw)
}

// Close is a no-op; the Gmail API is stateless between calls.
func (s *gmailSession) Close() error {
	return nil
}

// decodeBase64URL decodes Gmail's base64url-encoded content.
func decodeBase64URL(data string) ([]byte, error) {
	// Gmail uses URL-safe base64 without padding.
	data = strings.ReplaceAll(data, "-", "+")
	data = strings.ReplaceAll(data, "_", "/")
	switch len(data) % 4 {
	case 2:
		data += "=="
	case 3:
		data += "="
	}
	return base64.StdEncoding.DecodeString(data)
}
