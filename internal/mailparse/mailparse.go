// Package mailparse decodes raw RFC 822 messages into normalized fields.
//
// Parse is a total function: malformed headers, dates, and bodies fall
// back to safe defaults instead of failing, so a single broken message
// never aborts a sync pass.
package mailparse

import (
	"bytes"
	"io"
	"mime"
	"regexp"
	"strings"
	"time"

	"github.com/emersion/go-message/mail"

	"github.com/tomsodoge/bilary/internal/types"
)

const pdfMediaType = "application/pdf"

var (
	addrPattern = regexp.MustCompile(`[\w.+-]+@[\w.-]+`)
	urlPattern  = regexp.MustCompile(`(?i)https?://[^\s<>"]+(?:invoice|rechnung|bill|payment)[^\s<>"]*`)
)

// Parse decodes one raw message into a ParsedMessage. It never fails;
// fields that cannot be decoded come back empty (or as the current time
// for the date).
func Parse(raw []byte) *types.ParsedMessage {
	parsed := &types.ParsedMessage{ReceivedAt: time.Now()}

	mr, err := mail.CreateReader(bytes.NewReader(raw))
	if err != nil {
		// Headers are unreadable; keep whatever text there is so the
		// detector can still scan it.
		parsed.Body = string(raw)
		return parsed
	}
	defer mr.Close()

	parsed.Subject = decodeHeader(mr.Header.Get("Subject"))
	parsed.SenderEmail, parsed.SenderName = parseSender(decodeHeader(mr.Header.Get("From")))

	if date, err := mr.Header.Date(); err == nil && !date.IsZero() {
		parsed.ReceivedAt = date
	}

	for {
		part, err := mr.NextPart()
		if err != nil {
			// io.EOF ends the walk; a truncated or undecodable part
			// ends it the same way, keeping whatever decoded so far.
			break
		}

		switch h := part.Header.(type) {
		case *mail.InlineHeader:
			contentType, params, _ := h.ContentType()
			content, readErr := io.ReadAll(part.Body)
			if readErr != nil {
				continue
			}

			switch {
			case strings.HasPrefix(contentType, "text/plain"):
				// First text/plain part wins as the body.
				if parsed.Body == "" {
					parsed.Body = string(content)
				}
				scanURL(parsed, content)
			case strings.HasPrefix(contentType, "text/html"):
				scanURL(parsed, content)
			case contentType == pdfMediaType:
				// PDFs are sometimes declared inline rather than as
				// attachments; collect them all the same.
				if filename := inlineFilename(h, params); filename != "" {
					parsed.Attachments = append(parsed.Attachments, types.PDFAttachment{
						Filename:  filename,
						Content:   content,
						MediaType: pdfMediaType,
					})
				}
			}

		case *mail.AttachmentHeader:
			contentType, _, _ := h.ContentType()
			filename, _ := h.Filename()
			if contentType != pdfMediaType || filename == "" {
				continue
			}
			content, readErr := io.ReadAll(part.Body)
			if readErr != nil {
				continue
			}
			parsed.Attachments = append(parsed.Attachments, types.PDFAttachment{
				Filename:  decodeHeader(filename),
				Content:   content,
				MediaType: pdfMediaType,
			})
		}
	}

	return parsed
}

// inlineFilename resolves the filename of an inline part from the
// Content-Type "name" parameter, falling back to the Content-Disposition
// filename.
func inlineFilename(h *mail.InlineHeader, params map[string]string) string {
	if name := params["name"]; name != "" {
		return decodeHeader(name)
	}
	if _, dparams, err := h.ContentDisposition(); err == nil {
		if name := dparams["filename"]; name != "" {
			return decodeHeader(name)
		}
	}
	return ""
}

// scanURL records the first invoice-like URL found across all text parts.
func scanURL(parsed *types.ParsedMessage, content []byte) {
	if parsed.InvoiceURL != "" {
		return
	}
	if m := urlPattern.Find(content); m != nil {
		parsed.InvoiceURL = string(m)
	}
}

// decodeHeader decodes RFC 2047 encoded words, concatenating fragments
// and keeping whatever decoded on error.
func decodeHeader(header string) string {
	if header == "" {
		return ""
	}
	dec := mime.WordDecoder{
		CharsetReader: func(charset string, input io.Reader) (io.Reader, error) {
			// Pass unknown charsets through undecoded rather than fail.
			return input, nil
		},
	}
	decoded, err := dec.DecodeHeader(header)
	if err != nil {
		return header
	}
	return decoded
}

// parseSender extracts the address and display name from a From header.
// The address is lower-cased for stable dedup comparison. Without a
// display name the local part of the address is used instead.
func parseSender(from string) (email, name string) {
	match := addrPattern.FindString(from)
	if match == "" {
		return strings.ToLower(strings.TrimSpace(from)), strings.TrimSpace(from)
	}

	email = strings.ToLower(match)

	name = from
	if idx := strings.Index(from, "<"); idx >= 0 {
		name = from[:idx]
	} else if strings.TrimSpace(name) == match {
		name = ""
	}
	name = strings.Trim(strings.TrimSpace(name), `"`)
	if name == "" {
		name = localPart(email)
	}
	return email, name
}

func localPart(addr string) string {
	if idx := strings.Index(addr, "@"); idx > 0 {
		return addr[:idx]
	}
	return addr
}
