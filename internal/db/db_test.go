package db

import (
	"testing"
	"time"

	"github.com/tomsodoge/bilary/internal/types"
)

// newTestDB opens an in-memory database with the schema applied.
func newTestDB(t *testing.T) *DB {
	t.Helper()
	d, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open(:memory:) error = %v", err)
	}
	t.Cleanup(func() { d.Close() })
	return d
}

func testAccount(t *testing.T, d *DB) *types.Account {
	t.Helper()
	a := &types.Account{
		Email:      "tom@example.com",
		IMAPServer: "imap.example.com",
		IMAPPort:   993,
		Password:   "secret",
	}
	if err := d.InsertAccount(a); err != nil {
		t.Fatalf("InsertAccount() error = %v", err)
	}
	return a
}

func TestAccounts_ListInCreationOrder(t *testing.T) {
	d := newTestDB(t)

	for i, email := range []string{"a@x.com", "b@x.com", "c@x.com"} {
		a := &types.Account{
			Email:      email,
			IMAPServer: "imap.x.com",
			IMAPPort:   993,
			CreatedAt:  time.Date(2024, 1, 1+i, 0, 0, 0, 0, time.UTC).Format(TimeLayout),
		}
		if err := d.InsertAccount(a); err != nil {
			t.Fatalf("InsertAccount(%s) error = %v", email, err)
		}
	}

	accounts, err := d.ListAccounts()
	if err != nil {
		t.Fatalf("ListAccounts() error = %v", err)
	}
	if len(accounts) != 3 {
		t.Fatalf("len(accounts) = %d, want 3", len(accounts))
	}
	for i, want := range []string{"a@x.com", "b@x.com", "c@x.com"} {
		if accounts[i].Email != want {
			t.Errorf("accounts[%d] = %s, want %s", i, accounts[i].Email, want)
		}
	}
}

func TestFindInvoice_ExactTripleMatch(t *testing.T) {
	d := newTestDB(t)
	a := testAccount(t, d)

	receivedAt := time.Date(2024, 3, 5, 9, 30, 0, 0, time.UTC)
	inv := &types.Invoice{
		AccountID:   a.ID,
		SenderEmail: "billing@acme.example",
		Subject:     "Invoice #1",
		ReceivedAt:  receivedAt,
		Category:    "Other",
	}
	if err := d.InsertInvoice(inv); err != nil {
		t.Fatalf("InsertInvoice() error = %v", err)
	}

	found, err := d.FindInvoice(a.ID, "billing@acme.example", receivedAt)
	if err != nil {
		t.Fatalf("FindInvoice() error = %v", err)
	}
	if found == nil {
		t.Fatal("FindInvoice() = nil, want the inserted record")
	}
	if found.ID != inv.ID {
		t.Errorf("found.ID = %s, want %s", found.ID, inv.ID)
	}
	if !found.ReceivedAt.Equal(receivedAt) {
		t.Errorf("found.ReceivedAt = %v, want %v", found.ReceivedAt, receivedAt)
	}

	// A different timestamp is a different identity.
	miss, err := d.FindInvoice(a.ID, "billing@acme.example", receivedAt.Add(time.Second))
	if err != nil {
		t.Fatalf("FindInvoice() error = %v", err)
	}
	if miss != nil {
		t.Error("FindInvoice() matched a different timestamp")
	}
}

func TestInsertInvoice_DuplicateTripleRejected(t *testing.T) {
	d := newTestDB(t)
	a := testAccount(t, d)

	receivedAt := time.Date(2024, 3, 5, 9, 30, 0, 0, time.UTC)
	first := &types.Invoice{
		AccountID:   a.ID,
		SenderEmail: "billing@acme.example",
		Subject:     "first",
		ReceivedAt:  receivedAt,
		Category:    "Other",
	}
	if err := d.InsertInvoice(first); err != nil {
		t.Fatalf("InsertInvoice() error = %v", err)
	}

	second := &types.Invoice{
		AccountID:   a.ID,
		SenderEmail: "billing@acme.example",
		Subject:     "different subject, same identity",
		ReceivedAt:  receivedAt,
		Category:    "Other",
	}
	if err := d.InsertInvoice(second); err == nil {
		t.Error("InsertInvoice() accepted a duplicate identity triple")
	}
	n, err := d.InvoiceCount()
	if err != nil {
		t.Fatalf("InvoiceCount() error = %v", err)
	}
	if n != 1 {
		t.Errorf("InvoiceCount() = %d, want 1", n)
	}
}

func TestUpdateOperations(t *testing.T) {
	d := newTestDB(t)
	a := testAccount(t, d)

	inv := &types.Invoice{
		AccountID:   a.ID,
		SenderEmail: "shop@example.com",
		ReceivedAt:  time.Now(),
		Category:    "Other",
	}
	if err := d.InsertInvoice(inv); err != nil {
		t.Fatalf("InsertInvoice() error = %v", err)
	}

	if err := d.UpdateCategory(inv.ID, "Digital Service"); err != nil {
		t.Fatalf("UpdateCategory() error = %v", err)
	}
	if err := d.UpdateFilePath(inv.ID, "/tmp/x.pdf"); err != nil {
		t.Fatalf("UpdateFilePath() error = %v", err)
	}
	if err := d.UpdatePrivacy(inv.ID, true); err != nil {
		t.Fatalf("UpdatePrivacy() error = %v", err)
	}

	got, err := d.GetInvoice(inv.ID)
	if err != nil {
		t.Fatalf("GetInvoice() error = %v", err)
	}
	if got.Category != "Digital Service" || got.FilePath != "/tmp/x.pdf" || !got.IsPrivate {
		t.Errorf("after updates: category=%q path=%q private=%v", got.Category, got.FilePath, got.IsPrivate)
	}
}

func TestListInvoices_Filters(t *testing.T) {
	d := newTestDB(t)
	a := testAccount(t, d)

	insert := func(sender, category string, received time.Time) {
		t.Helper()
		err := d.InsertInvoice(&types.Invoice{
			AccountID:   a.ID,
			SenderEmail: sender,
			ReceivedAt:  received,
			Category:    category,
		})
		if err != nil {
			t.Fatalf("InsertInvoice(%s) error = %v", sender, err)
		}
	}

	insert("billing@acme.example", "Digital Service", time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC))
	insert("shop@store.example", "Physical Product", time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC))
	insert("other@acme.example", "Other", time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC))

	byCategory, err := d.ListInvoices(InvoiceFilter{Category: "Digital Service"})
	if err != nil {
		t.Fatalf("ListInvoices() error = %v", err)
	}
	if len(byCategory) != 1 || byCategory[0].SenderEmail != "billing@acme.example" {
		t.Errorf("category filter returned %d rows", len(byCategory))
	}

	bySender, err := d.ListInvoices(InvoiceFilter{Sender: "acme"})
	if err != nil {
		t.Fatalf("ListInvoices() error = %v", err)
	}
	if len(bySender) != 2 {
		t.Errorf("sender substring filter returned %d rows, want 2", len(bySender))
	}

	byWindow, err := d.ListInvoices(InvoiceFilter{
		Start: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("ListInvoices() error = %v", err)
	}
	if len(byWindow) != 1 || byWindow[0].SenderEmail != "shop@store.example" {
		t.Errorf("window filter returned %d rows", len(byWindow))
	}

	limited, err := d.ListInvoices(InvoiceFilter{Limit: 2})
	if err != nil {
		t.Fatalf("ListInvoices() error = %v", err)
	}
	if len(limited) != 2 {
		t.Errorf("limit filter returned %d rows, want 2", len(limited))
	}
	// Newest first.
	if limited[0].SenderEmail != "other@acme.example" {
		t.Errorf("limited[0] = %s, want newest", limited[0].SenderEmail)
	}
}

func TestInvoiceCounts(t *testing.T) {
	d := newTestDB(t)
	a := testAccount(t, d)
	b := &types.Account{Email: "other@example.com", IMAPServer: "imap.example.com", IMAPPort: 993}
	if err := d.InsertAccount(b); err != nil {
		t.Fatalf("InsertAccount() error = %v", err)
	}

	for i, acc := range []*types.Account{a, a, b} {
		err := d.InsertInvoice(&types.Invoice{
			AccountID:   acc.ID,
			SenderEmail: "billing@acme.example",
			ReceivedAt:  time.Date(2024, 1, 1+i, 0, 0, 0, 0, time.UTC),
			Category:    "Other",
		})
		if err != nil {
			t.Fatalf("InsertInvoice() error = %v", err)
		}
	}

	total, err := d.InvoiceCount()
	if err != nil {
		t.Fatalf("InvoiceCount() error = %v", err)
	}
	if total != 3 {
		t.Errorf("InvoiceCount() = %d, want 3", total)
	}

	forA, err := d.InvoiceCountByAccount(a.ID)
	if err != nil {
		t.Fatalf("InvoiceCountByAccount() error = %v", err)
	}
	if forA != 2 {
		t.Errorf("InvoiceCountByAccount() = %d, want 2", forA)
	}
}

func TestInvoiceCount_SurfacesQueryError(t *testing.T) {
	d, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open(:memory:) error = %v", err)
	}
	d.Close()

	if _, err := d.InvoiceCount(); err == nil {
		t.Error("InvoiceCount() on a closed database returned no error")
	}
	if _, err := d.InvoiceCountByAccount("x"); err == nil {
		t.Error("InvoiceCountByAccount() on a closed database returned no error")
	}
}

func TestAttachments(t *testing.T) {
	d := newTestDB(t)
	a := testAccount(t, d)

	inv := &types.Invoice{
		AccountID:   a.ID,
		SenderEmail: "shop@example.com",
		ReceivedAt:  time.Now(),
		Category:    "Other",
	}
	if err := d.InsertInvoice(inv); err != nil {
		t.Fatalf("InsertInvoice() error = %v", err)
	}

	att := &types.Attachment{
		InvoiceID: inv.ID,
		Filename:  "rechnung.pdf",
		FileSize:  1234,
		MediaType: "application/pdf",
	}
	if err := d.InsertAttachment(att); err != nil {
		t.Fatalf("InsertAttachment() error = %v", err)
	}

	got, err := d.AttachmentsForInvoice(inv.ID)
	if err != nil {
		t.Fatalf("AttachmentsForInvoice() error = %v", err)
	}
	if len(got) != 1 || got[0].Filename != "rechnung.pdf" || got[0].FileSize != 1234 {
		t.Errorf("AttachmentsForInvoice() = %+v", got)
	}
}
