package document

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/dslipak/pdf"
)

// Text extraction backends.
const (
	BackendAuto      = "auto"
	BackendPdftotext = "pdftotext"
	BackendNative    = "native"
)

// NativeSource reads PDFs in-process. It needs no external binary but keeps
// less of the page layout than pdftotext.
type NativeSource struct {
	cfg    Config
	logger *slog.Logger
}

func NewNativeSource(cfg Config, logger *slog.Logger) *NativeSource {
	if logger == nil {
		logger = slog.Default()
	}
	return &NativeSource{cfg: cfg, logger: logger}
}

// Load extracts the plain text of every page. Every failure wraps ErrUnreadable,
// including panics raised by the PDF reader on malformed files.
func (s *NativeSource) Load(ctx context.Context, path string) (doc Document, err error) {
	name := filepath.Base(path)
	if err := ctx.Err(); err != nil {
		return Document{Name: name}, fmt.Errorf("%w: %s: %v", ErrUnreadable, name, err)
	}
	defer func() {
		if r := recover(); r != nil {
			doc = Document{Name: name}
			err = fmt.Errorf("%w: %s: malformed pdf: %v", ErrUnreadable, name, r)
		}
	}()

	f, err := os.Open(path)
	if err != nil {
		return Document{Name: name}, fmt.Errorf("%w: %s: %v", ErrUnreadable, name, err)
	}
	defer func() { _ = f.Close() }()
	info, err := f.Stat()
	if err != nil {
		return Document{Name: name}, fmt.Errorf("%w: %s: %v", ErrUnreadable, name, err)
	}

	start := time.Now()
	r, err := pdf.NewReader(f, info.Size())
	if err != nil {
		return Document{Name: name}, fmt.Errorf("%w: %s: %v", ErrUnreadable, name, err)
	}
	plain, err := r.GetPlainText()
	if err != nil {
		return Document{Name: name}, fmt.Errorf("%w: %s: %v", ErrUnreadable, name, err)
	}
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(plain); err != nil {
		return Document{Name: name}, fmt.Errorf("%w: %s: %v", ErrUnreadable, name, err)
	}
	text := buf.String()
	if strings.TrimSpace(text) == "" {
		return Document{Name: name}, fmt.Errorf("%w: %s: no extractable text", ErrUnreadable, name)
	}

	doc = FromText(name, text, s.cfg.KeepBlankLines)
	s.logger.Debug("document loaded",
		"file", name,
		"backend", BackendNative,
		"pages", r.NumPage(),
		"lines", len(doc.Lines),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return doc, nil
}

// NewSource picks the extraction backend named in cfg. Auto uses pdftotext
// when the binary can be found and the native reader otherwise.
func NewSource(cfg Config, logger *slog.Logger) (Source, error) {
	if logger == nil {
		logger = slog.Default()
	}
	switch cfg.Backend {
	case BackendPdftotext:
		return NewPDFSource(cfg, logger), nil
	case BackendNative:
		return NewNativeSource(cfg, logger), nil
	case BackendAuto, "":
		bin := cfg.Pdftotext
		if bin == "" {
			bin = "pdftotext"
		}
		if _, err := exec.LookPath(bin); err == nil {
			return NewPDFSource(cfg, logger), nil
		}
		logger.Warn("pdftotext not found; using native PDF reader", "pdftotext", bin)
		return NewNativeSource(cfg, logger), nil
	default:
		return nil, fmt.Errorf("unknown document backend %q", cfg.Backend)
	}
}
