// Package document turns delivery-run documents into the text lines and table
// rows the settlement parser consumes.
package document

import (
	"context"
	"errors"
	"strings"

	"github.com/joseph-ayodele/route-settlement/internal/normalize"
)

// ErrUnreadable marks a document that could not be opened or is structurally
// invalid. Such a document contributes nothing to the run.
var ErrUnreadable = errors.New("document unreadable")

// Document is the extracted content of one file: text lines in page then line
// order, and table rows as cell strings. Only sources that see real table
// structure fill TableRows; text extraction leaves it empty.
type Document struct {
	Name      string
	Lines     []string
	TableRows [][]string
}

// Source loads a Document from a path.
type Source interface {
	Load(ctx context.Context, path string) (Document, error)
}

// FromText builds a Document from page text where pages are separated by form
// feeds. Blank lines are dropped unless keepBlank is set. Column layout stays
// inside the line text and never produces table rows.
func FromText(name, text string, keepBlank bool) Document {
	doc := Document{Name: name}
	for _, page := range strings.Split(text, "\f") {
		for _, raw := range strings.Split(page, "\n") {
			line := normalize.CleanLine(raw)
			if strings.TrimSpace(line) == "" {
				if keepBlank {
					doc.Lines = append(doc.Lines, "")
				}
				continue
			}
			doc.Lines = append(doc.Lines, line)
		}
	}
	return doc
}
