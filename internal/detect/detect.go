// Package detect computes invoice signals for parsed messages and
// decides which messages to keep.
package detect

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/tomsodoge/bilary/internal/types"
)

// Config holds the keyword lists and patterns the detector evaluates.
// Tables are injected so they stay testable and swappable per locale;
// DefaultConfig returns the built-in German/English tables.
type Config struct {
	InvoiceKeywords       []string
	NewsletterKeywords    []string
	NewsletterSenders     []string
	AmountPatterns        []string
	InvoiceNumberPatterns []string
}

// Detector evaluates parsed messages against compiled signal tables.
type Detector struct {
	keywords          []string
	newsletterWords   []string
	newsletterSenders []string
	amountRes         []*regexp.Regexp
	numberRes         []*regexp.Regexp
}

// New compiles the config's patterns into a Detector.
func New(cfg Config) (*Detector, error) {
	amountRes, err := compilePatterns(cfg.AmountPatterns)
	if err != nil {
		return nil, fmt.Errorf("compile amount pattern: %w", err)
	}
	numberRes, err := compilePatterns(cfg.InvoiceNumberPatterns)
	if err != nil {
		return nil, fmt.Errorf("compile invoice-number pattern: %w", err)
	}

	return &Detector{
		keywords:          lowercase(cfg.InvoiceKeywords),
		newsletterWords:   lowercase(cfg.NewsletterKeywords),
		newsletterSenders: lowercase(cfg.NewsletterSenders),
		amountRes:         amountRes,
		numberRes:         numberRes,
	}, nil
}

// Evaluate computes the signals for one message and the final inclusion
// decision. Any one strong signal (PDF, keyword, amount, invoice
// number) accepts the message regardless of newsletter markers; in
// include-all mode everything except newsletter-like messages is kept.
func (d *Detector) Evaluate(msg *types.ParsedMessage, includeAll bool) types.InvoiceCandidate {
	subjectLower := strings.ToLower(msg.Subject)
	bodyLower := strings.ToLower(msg.Body)
	subjectAndBody := subjectLower + " " + bodyLower

	c := types.InvoiceCandidate{Message: msg}

	c.HasPDF = len(msg.Attachments) > 0

	// Subject first; body only when the subject misses. Equivalent to
	// checking the concatenation.
	c.HasKeyword = containsAny(subjectLower, d.keywords)
	if !c.HasKeyword {
		c.HasKeyword = containsAny(bodyLower, d.keywords)
	}

	c.HasAmount = matchAny(d.amountRes, msg.Body)
	c.HasInvoiceNumber = matchAny(d.numberRes, msg.Subject+" "+msg.Body)

	senderLower := strings.ToLower(msg.SenderEmail)
	c.NewsletterLike = containsAny(subjectAndBody, d.newsletterWords) ||
		containsAny(senderLower, d.newsletterSenders)

	strongSignal := c.HasPDF || c.HasKeyword || c.HasAmount || c.HasInvoiceNumber
	c.Accepted = strongSignal || (includeAll && !c.NewsletterLike)

	return c
}

func compilePatterns(patterns []string) ([]*regexp.Regexp, error) {
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, pattern := range patterns {
		re, err := regexp.Compile("(?i)" + pattern)
		if err != nil {
			return nil, fmt.Errorf("compile %q: %w", pattern, err)
		}
		compiled = append(compiled, re)
	}
	return compiled, nil
}

func lowercase(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.ToLower(s)
	}
	return out
}

func containsAny(text string, needles []string) bool {
	for _, n := range needles {
		if n != "" && strings.Contains(text, n) {
			return true
		}
	}
	return false
}

func matchAny(patterns []*regexp.Regexp, text string) bool {
	if text == "" {
		return false
	}
	for _, re := range patterns {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}
