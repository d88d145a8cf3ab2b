// Package pdftext extracts text from stored PDF files by shelling out
// to pdftotext.
package pdftext

import (
	"bytes"
	"context"
	"log/slog"
	"os/exec"
	"strings"
)

// Runner lets tests stub the external command.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var out, errb bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errb
	err := cmd.Run()
	return out.Bytes(), errb.Bytes(), err
}

// Extractor runs pdftotext against stored attachments.
type Extractor struct {
	bin    string
	runner Runner
	logger *slog.Logger
}

// NewExtractor builds an Extractor. An empty bin defaults to "pdftotext".
func NewExtractor(bin string, logger *slog.Logger) *Extractor {
	if bin == "" {
		bin = "pdftotext"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{bin: bin, runner: execRunner{}, logger: logger}
}

// WithRunner replaces the command runner. Used by tests.
func (e *Extractor) WithRunner(r Runner) *Extractor {
	e.runner = r
	return e
}

// FirstPage returns the text of the first PDF page, or "" when
// extraction fails. Failure is not an error for callers; category
// refinement just stays on the coarse result.
func (e *Extractor) FirstPage(ctx context.Context, path string) string {
	// pdftotext -f 1 -l 1 -enc UTF-8 -eol unix <path> -
	out, errb, err := e.runner.Run(ctx, e.bin, "-f", "1", "-l", "1", "-enc", "UTF-8", "-eol", "unix", path, "-")
	if err != nil {
		e.logger.Warn("pdftotext failed", "path", path, "error", err, "stderr", strings.TrimSpace(string(errb)))
		return ""
	}
	return strings.TrimSpace(string(out))
}
