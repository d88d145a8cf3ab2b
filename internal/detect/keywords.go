package detect

// DefaultConfig returns the built-in detection tables. List order is
// part of the contract and must not be reordered.
func DefaultConfig() Config {
	return Config{
		InvoiceKeywords: []string{
			// German
			"rechnung", "rechnungsnummer", "rechnung nr", "rechnung nr.", "rechnung #",
			"beleg", "zahlung", "betrag", "gesamtbetrag", "zahlungsziel",
			"quittung", "belegnummer", "bestätigung",
			// English
			"invoice", "invoice number", "invoice #", "invoice id", "invoice id:",
			"invoice no", "invoice no.",
			"bill", "bill #", "statement", "statement of account",
			"payment", "amount due", "total", "payment due",
			"receipt", "receipt number", "transaction", "order confirmation",
			// Service-specific
			"harvest", "transaction id",
		},
		NewsletterKeywords: []string{
			"newsletter", "news letter", "digest", "weekly digest", "daily digest",
			"abmelden", "unsubscribe", "melde dich ab", "update von", "ihr update",
			"wochenrückblick", "monatsrückblick", "roundup", "zusammenfassung der woche",
			"your weekly", "your daily", "top stories", "breaking news",
		},
		NewsletterSenders: []string{
			"noreply", "no-reply", "newsletter",
		},
		AmountPatterns: []string{
			`€\s*\d+[,.]\d+`,
			`\d+[,.]\d+\s*€`,
			`\$\s*\d+[,.]\d+`,
			`\d+[,.]\d+\s*\$`,
			`\d+[,.]\d+\s*(EUR|USD|GBP|CHF)`,
			`(EUR|USD|GBP|CHF)\s*\d+[,.]\d+`,
			`\d+[,.]\d{2}\s*(Euro|Dollar)`,
		},
		InvoiceNumberPatterns: []string{
			`invoice\s*#?\s*\d+`,
			`rechnung\s*nr\.?\s*\d+`,
			`invoice\s*(id|number):?\s*\d+`,
			`rechnungsnummer:?\s*\d+`,
			`invoice\s*no\.?\s*\d+`,
			`bill\s*#?\s*\d+`,
			`receipt\s*#?\s*\d+`,
		},
	}
}
