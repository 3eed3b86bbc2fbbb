package document

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Config controls the pdftotext-backed source.
type Config struct {
	Pdftotext      string        // binary name or absolute path; if empty -> "pdftotext"
	Timeout        time.Duration // per document; 0 = no limit
	KeepBlankLines bool          // blank lines also end the bonus section when kept
	Backend        string        // auto, pdftotext or native
}

// PDFSource extracts text with poppler's pdftotext in layout mode.
type PDFSource struct {
	cfg    Config
	runner Runner
	logger *slog.Logger
}

func NewPDFSource(cfg Config, logger *slog.Logger) *PDFSource {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Pdftotext == "" {
		cfg.Pdftotext = "pdftotext"
	}
	return &PDFSource{cfg: cfg, runner: execRunner{logger: logger}, logger: logger}
}

// WithRunner swaps the command runner, mainly for tests.
func (s *PDFSource) WithRunner(r Runner) *PDFSource {
	s.runner = r
	return s
}

// Load runs pdftotext on path. Every failure wraps ErrUnreadable.
func (s *PDFSource) Load(ctx context.Context, path string) (Document, error) {
	name := filepath.Base(path)
	if _, err := os.Stat(path); err != nil {
		return Document{Name: name}, fmt.Errorf("%w: %s: %v", ErrUnreadable, name, err)
	}
	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}

	start := time.Now()
	// pdftotext -layout -enc UTF-8 -eol unix <path> -
	out, errb, err := s.runner.Run(ctx, s.cfg.Pdftotext, "-layout", "-enc", "UTF-8", "-eol", "unix", path, "-")
	if err != nil {
		msg := strings.TrimSpace(string(errb))
		if msg == "" {
			msg = err.Error()
		}
		return Document{Name: name}, fmt.Errorf("%w: %s: %s", ErrUnreadable, name, msg)
	}
	text := string(out)
	if strings.TrimSpace(strings.ReplaceAll(text, "\f", "")) == "" {
		return Document{Name: name}, fmt.Errorf("%w: %s: no extractable text", ErrUnreadable, name)
	}

	doc := FromText(name, text, s.cfg.KeepBlankLines)
	s.logger.Debug("document loaded",
		"file", name,
		"pages", 1+strings.Count(strings.TrimRight(text, "\f"), "\f"),
		"lines", len(doc.Lines),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return doc, nil
}
