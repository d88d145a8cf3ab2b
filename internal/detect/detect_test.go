package detect

import (
	"testing"
	"time"

	"github.com/tomsodoge/bilary/internal/types"
)

func newDetector(t *testing.T) *Detector {
	t.Helper()
	d, err := New(DefaultConfig())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return d
}

func msg(sender, subject, body string) *types.ParsedMessage {
	return &types.ParsedMessage{
		SenderEmail: sender,
		Subject:     subject,
		Body:        body,
		ReceivedAt:  time.Now(),
	}
}

func TestEvaluate_AmountPatterns(t *testing.T) {
	d := newDetector(t)

	accepted := []string{
		"Gesamtbetrag: €12,50 inkl. MwSt.",
		"You were charged 12.50€ today",
		"Amount: 12.50 EUR",
		"Charged EUR 12.50 to your card",
		"$ 99.00 was billed",
		"Summe 42,00 Euro",
	}
	for _, body := range accepted {
		c := d.Evaluate(msg("shop@example.com", "Order", body), false)
		if !c.HasAmount {
			t.Errorf("Evaluate(%q): HasAmount = false, want true", body)
		}
	}

	c := d.Evaluate(msg("shop@example.com", "Order", "Total: nice day"), false)
	if c.HasAmount {
		t.Error("Evaluate: HasAmount = true for body without amounts")
	}
}

func TestEvaluate_InvoiceNumberPatterns(t *testing.T) {
	d := newDetector(t)

	for _, text := range []string{
		"Invoice #12345",
		"Rechnung Nr. 98765",
		"Invoice ID: 555",
		"Rechnungsnummer: 1001",
		"Invoice No. 77",
		"Bill #3",
		"Receipt # 400",
	} {
		c := d.Evaluate(msg("x@example.com", text, ""), false)
		if !c.HasInvoiceNumber {
			t.Errorf("Evaluate(%q): HasInvoiceNumber = false, want true", text)
		}
	}

	c := d.Evaluate(msg("x@example.com", "Invoice coming soon", ""), false)
	if c.HasInvoiceNumber {
		t.Error("Evaluate: HasInvoiceNumber = true without a digit sequence")
	}
}

func TestEvaluate_KeywordInSubjectOrBody(t *testing.T) {
	d := newDetector(t)

	c := d.Evaluate(msg("a@b.com", "Ihre Rechnung für März", ""), false)
	if !c.HasKeyword {
		t.Error("subject keyword not detected")
	}

	c = d.Evaluate(msg("a@b.com", "Hello", "please find the receipt attached"), false)
	if !c.HasKeyword {
		t.Error("body keyword not detected")
	}

	c = d.Evaluate(msg("a@b.com", "Hello", "see you tomorrow"), false)
	if c.HasKeyword {
		t.Error("keyword detected in keyword-free text")
	}
}

func TestEvaluate_StrongSignalOverridesNewsletter(t *testing.T) {
	d := newDetector(t)

	m := msg("noreply@shop.example", "Weekly update", "click unsubscribe to opt out")
	m.Attachments = []types.PDFAttachment{{Filename: "invoice.pdf", MediaType: "application/pdf"}}

	c := d.Evaluate(m, false)
	if !c.NewsletterLike {
		t.Error("NewsletterLike = false for noreply sender with unsubscribe body")
	}
	if !c.HasPDF {
		t.Error("HasPDF = false with one PDF attachment")
	}
	if !c.Accepted {
		t.Error("Accepted = false; a PDF attachment must override newsletter suppression")
	}
}

func TestEvaluate_IncludeAllMode(t *testing.T) {
	d := newDetector(t)

	// No strong signal, not a newsletter: rejected normally, kept in include-all.
	plain := msg("friend@example.com", "Dinner", "see you at eight")
	if c := d.Evaluate(plain, false); c.Accepted {
		t.Error("plain message accepted outside include-all mode")
	}
	if c := d.Evaluate(plain, true); !c.Accepted {
		t.Error("plain message rejected in include-all mode")
	}

	// Newsletter-like without strong signals stays excluded even in include-all.
	news := msg("newsletter@shop.example", "Your weekly digest", "unsubscribe here")
	if c := d.Evaluate(news, true); c.Accepted {
		t.Error("newsletter accepted in include-all mode")
	}
}

func TestEvaluate_CaseInsensitive(t *testing.T) {
	d := newDetector(t)

	c := d.Evaluate(msg("a@b.com", "INVOICE #44", "TOTAL: EUR 10,00"), false)
	if !c.HasKeyword || !c.HasAmount || !c.HasInvoiceNumber {
		t.Errorf("uppercase text missed signals: keyword=%v amount=%v number=%v",
			c.HasKeyword, c.HasAmount, c.HasInvoiceNumber)
	}
}
