// Package db provides SQLite storage for bilary.
package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tomsodoge/bilary/internal/types"
	_ "modernc.org/sqlite"
)

// TimeLayout is the storage format for timestamps. Dedup compares the
// formatted string, so every writer must go through FormatTime.
const TimeLayout = time.RFC3339

// DB wraps a SQLite connection for bilary operations.
type DB struct {
	conn *sql.DB
	path string
}

// Open opens (or creates) a bilary database at the given path.
func Open(dbPath string) (*DB, error) {
	if dbPath != ":memory:" {
		dir := filepath.Dir(dbPath)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create directory %s: %w", dir, err)
		}
	}

	conn, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if dbPath == ":memory:" {
		// Every pooled connection would otherwise see its own empty
		// in-memory database.
		conn.SetMaxOpenConns(1)
	}

	if _, err := conn.Exec(Schema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return &DB{conn: conn, path: dbPath}, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	if d.conn != nil {
		return d.conn.Close()
	}
	return nil
}

// Path returns the database file path.
func (d *DB) Path() string {
	return d.path
}

// GenID generates a new random row ID.
func GenID() string {
	return uuid.NewString()
}

// Now returns the current time as an ISO 8601 string.
func Now() string {
	return time.Now().UTC().Format(TimeLayout)
}

// FormatTime renders a timestamp in the storage format.
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

func parseTime(s string) time.Time {
	for _, layout := range []string{TimeLayout, time.RFC3339Nano, "2006-01-02T15:04:05Z"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// --- Account operations ---

// InsertAccount stores a new mailbox account. ID and CreatedAt are
// assigned when empty.
func (d *DB) InsertAccount(a *types.Account) error {
	if a.ID == "" {
		a.ID = GenID()
	}
	if a.CreatedAt == "" {
		a.CreatedAt = Now()
	}
	_, err := d.conn.Exec(`
		INSERT INTO accounts (id, email, imap_server, imap_port, password, refresh_token, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.Email, a.IMAPServer, a.IMAPPort, a.Password, a.RefreshToken, a.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert account %s: %w", a.Email, err)
	}
	return nil
}

// GetAccount returns a single account by ID, or nil if not found.
func (d *DB) GetAccount(id string) (*types.Account, error) {
	row := d.conn.QueryRow(`
		SELECT id, email, imap_server, imap_port, password, refresh_token, created_at
		FROM accounts WHERE id = ?`, id)
	return scanAccount(row)
}

// GetAccountByEmail returns a single account by email address, or nil if not found.
func (d *DB) GetAccountByEmail(email string) (*types.Account, error) {
	row := d.conn.QueryRow(`
		SELECT id, email, imap_server, imap_port, password, refresh_token, created_at
		FROM accounts WHERE email = ?`, email)
	return scanAccount(row)
}

// ListAccounts returns all accounts in ascending creation order.
func (d *DB) ListAccounts() ([]*types.Account, error) {
	rows, err := d.conn.Query(`
		SELECT id, email, imap_server, imap_port, password, refresh_token, created_at
		FROM accounts ORDER BY created_at ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []*types.Account
	for rows.Next() {
		a := &types.Account{}
		var password, refreshToken sql.NullString
		if err := rows.Scan(&a.ID, &a.Email, &a.IMAPServer, &a.IMAPPort,
			&password, &refreshToken, &a.CreatedAt); err != nil {
			return nil, err
		}
		a.Password = password.String
		a.RefreshToken = refreshToken.String
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

func scanAccount(row *sql.Row) (*types.Account, error) {
	a := &types.Account{}
	var password, refreshToken sql.NullString
	err := row.Scan(&a.ID, &a.Email, &a.IMAPServer, &a.IMAPPort,
		&password, &refreshToken, &a.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	a.Password = password.String
	a.RefreshToken = refreshToken.String
	return a, nil
}

// --- Invoice operations ---

// FindInvoice looks up an invoice by its identity triple. Returns nil
// when no record matches.
func (d *DB) FindInvoice(accountID, senderEmail string, receivedAt time.Time) (*types.Invoice, error) {
	row := d.conn.QueryRow(`
		SELECT id, account_id, sender_email, sender_name, subject, received_at,
		       category, file_path, file_url, is_private, created_at
		FROM invoices
		WHERE account_id = ? AND sender_email = ? AND received_at = ?`,
		accountID, senderEmail, FormatTime(receivedAt))
	return scanInvoiceRow(row)
}

// GetInvoice returns a single invoice by ID, or nil if not found.
func (d *DB) GetInvoice(id string) (*types.Invoice, error) {
	row := d.conn.QueryRow(`
		SELECT id, account_id, sender_email, sender_name, subject, received_at,
		       category, file_path, file_url, is_private, created_at
		FROM invoices WHERE id = ?`, id)
	return scanInvoiceRow(row)
}

// InsertInvoice stores a new invoice record. ID and CreatedAt are
// assigned when empty.
func (d *DB) InsertInvoice(inv *types.Invoice) error {
	if inv.ID == "" {
		inv.ID = GenID()
	}
	if inv.CreatedAt == "" {
		inv.CreatedAt = Now()
	}
	isPrivate := 0
	if inv.IsPrivate {
		isPrivate = 1
	}
	_, err := d.conn.Exec(`
		INSERT INTO invoices
			(id, account_id, sender_email, sender_name, subject, received_at,
			 category, file_path, file_url, is_private, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		inv.ID, inv.AccountID, inv.SenderEmail, inv.SenderName, inv.Subject,
		FormatTime(inv.ReceivedAt), inv.Category, inv.FilePath, inv.FileURL,
		isPrivate, inv.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert invoice from %s: %w", inv.SenderEmail, err)
	}
	return nil
}

// UpdateCategory sets the category of an invoice.
func (d *DB) UpdateCategory(id, category string) error {
	_, err := d.conn.Exec("UPDATE invoices SET category = ? WHERE id = ?", category, id)
	return err
}

// UpdateFilePath sets the stored attachment path of an invoice.
func (d *DB) UpdateFilePath(id, path string) error {
	_, err := d.conn.Exec("UPDATE invoices SET file_path = ? WHERE id = ?", path, id)
	return err
}

// UpdatePrivacy sets the privacy flag of an invoice.
func (d *DB) UpdatePrivacy(id string, private bool) error {
	v := 0
	if private {
		v = 1
	}
	_, err := d.conn.Exec("UPDATE invoices SET is_private = ? WHERE id = ?", v, id)
	return err
}

// InvoiceFilter narrows ListInvoices results. Zero values mean "no filter".
type InvoiceFilter struct {
	AccountID string
	Sender    string
	Category  string
	IsPrivate *bool
	Start     time.Time
	End       time.Time
	Limit     int
}

// ListInvoices returns invoices matching the filter, newest first.
func (d *DB) ListInvoices(f InvoiceFilter) ([]*types.Invoice, error) {
	query := `
		SELECT id, account_id, sender_email, sender_name, subject, received_at,
		       category, file_path, file_url, is_private, created_at
		FROM invoices`

	var conditions []string
	args := []any{}

	if f.AccountID != "" {
		conditions = append(conditions, "account_id = ?")
		args = append(args, f.AccountID)
	}
	if f.Sender != "" {
		conditions = append(conditions, "sender_email LIKE ?")
		args = append(args, "%"+f.Sender+"%")
	}
	if f.Category != "" {
		conditions = append(conditions, "category = ?")
		args = append(args, f.Category)
	}
	if f.IsPrivate != nil {
		v := 0
		if *f.IsPrivate {
			v = 1
		}
		conditions = append(conditions, "is_private = ?")
		args = append(args, v)
	}
	if !f.Start.IsZero() {
		conditions = append(conditions, "received_at >= ?")
		args = append(args, FormatTime(f.Start))
	}
	if !f.End.IsZero() {
		conditions = append(conditions, "received_at < ?")
		args = append(args, FormatTime(f.End))
	}

	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY received_at DESC"
	if f.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", f.Limit)
	}

	rows, err := d.conn.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanInvoices(rows)
}

// InvoiceCount returns the total number of invoices.
func (d *DB) InvoiceCount() (int, error) {
	var n int
	if err := d.conn.QueryRow("SELECT COUNT(*) FROM invoices").Scan(&n); err != nil {
		return 0, fmt.Errorf("count invoices: %w", err)
	}
	return n, nil
}

// InvoiceCountByAccount returns the invoice count for a specific account.
func (d *DB) InvoiceCountByAccount(accountID string) (int, error) {
	var n int
	if err := d.conn.QueryRow("SELECT COUNT(*) FROM invoices WHERE account_id = ?", accountID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count invoices for account %s: %w", accountID, err)
	}
	return n, nil
}

func scanInvoiceRow(row *sql.Row) (*types.Invoice, error) {
	inv := &types.Invoice{}
	var senderName, subject, filePath, fileURL sql.NullString
	var receivedAt string
	var isPrivate int
	err := row.Scan(&inv.ID, &inv.AccountID, &inv.SenderEmail, &senderName, &subject,
		&receivedAt, &inv.Category, &filePath, &fileURL, &isPrivate, &inv.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	inv.SenderName = senderName.String
	inv.Subject = subject.String
	inv.FilePath = filePath.String
	inv.FileURL = fileURL.String
	inv.ReceivedAt = parseTime(receivedAt)
	inv.IsPrivate = isPrivate == 1
	return inv, nil
}

func scanInvoices(rows *sql.Rows) ([]*types.Invoice, error) {
	var result []*types.Invoice
	for rows.Next() {
		inv := &types.Invoice{}
		var senderName, subject, filePath, fileURL sql.NullString
		var receivedAt string
		var isPrivate int
		if err := rows.Scan(&inv.ID, &inv.AccountID, &inv.SenderEmail, &senderName, &subject,
			&receivedAt, &inv.Category, &filePath, &fileURL, &isPrivate, &inv.CreatedAt); err != nil {
			return nil, err
		}
		inv.SenderName = senderName.String
		inv.Subject = subject.String
		inv.FilePath = filePath.String
		inv.FileURL = fileURL.String
		inv.ReceivedAt = parseTime(receivedAt)
		inv.IsPrivate = isPrivate == 1
		result = append(result, inv)
	}
	return result, rows.Err()
}

// --- Attachment operations ---

// InsertAttachment stores an attachment row for an invoice. ID and
// CreatedAt are assigned when empty.
func (d *DB) InsertAttachment(att *types.Attachment) error {
	if att.ID == "" {
		att.ID = GenID()
	}
	if att.CreatedAt == "" {
		att.CreatedAt = Now()
	}
	_, err := d.conn.Exec(`
		INSERT INTO attachments (id, invoice_id, filename, file_size, media_type, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		att.ID, att.InvoiceID, att.Filename, att.FileSize, att.MediaType, att.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert attachment %s: %w", att.Filename, err)
	}
	return nil
}

// AttachmentsForInvoice returns all attachment rows of an invoice.
func (d *DB) AttachmentsForInvoice(invoiceID string) ([]*types.Attachment, error) {
	rows, err := d.conn.Query(`
		SELECT id, invoice_id, filename, file_size, media_type, created_at
		FROM attachments WHERE invoice_id = ? ORDER BY created_at ASC`, invoiceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*types.Attachment
	for rows.Next() {
		att := &types.Attachment{}
		var size sql.NullInt64
		var mediaType sql.NullString
		if err := rows.Scan(&att.ID, &att.InvoiceID, &att.Filename, &size, &mediaType, &att.CreatedAt); err != nil {
			return nil, err
		}
		att.FileSize = size.Int64
		att.MediaType = mediaType.String
		result = append(result, att)
	}
	return result, rows.Err()
}
