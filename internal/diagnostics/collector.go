// Package diagnostics collects the recoverable warnings and errors of a run so
// they can be persisted as a flat report once the run is over.
package diagnostics

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"
)

// Level is the severity of a diagnostic entry.
type Level string

const (
	LevelWarning Level = "WARNING"
	LevelError   Level = "ERROR"
)

// Entry is one recorded condition.
type Entry struct {
	Time    time.Time
	Level   Level
	Message string
}

// String renders the entry the way it appears in the report file.
func (e Entry) String() string {
	return fmt.Sprintf("%s - %s - %s", e.Time.Format("2006-01-02 15:04:05"), e.Level, e.Message)
}

// Collector is an append-only, concurrency-safe list of entries. Every entry is
// also logged through the collector's logger.
type Collector struct {
	mu      sync.Mutex
	entries []Entry
	logger  *slog.Logger
	now     func() time.Time
}

// New returns an empty collector. A nil logger falls back to slog.Default().
func New(logger *slog.Logger) *Collector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Collector{logger: logger, now: time.Now}
}

// Warnf records a warning.
func (c *Collector) Warnf(format string, args ...any) {
	c.add(LevelWarning, fmt.Sprintf(format, args...))
}

// Errorf records an error that did not abort the run.
func (c *Collector) Errorf(format string, args ...any) {
	c.add(LevelError, fmt.Sprintf(format, args...))
}

func (c *Collector) add(level Level, msg string) {
	c.mu.Lock()
	c.entries = append(c.entries, Entry{Time: c.now(), Level: level, Message: msg})
	c.mu.Unlock()

	slogLevel := slog.LevelWarn
	if level == LevelError {
		slogLevel = slog.LevelError
	}
	c.logger.Log(context.Background(), slogLevel, msg)
}

// Merge appends other's entries, in their order, without logging them again.
func (c *Collector) Merge(other *Collector) {
	if other == nil || other == c {
		return
	}
	entries := other.Entries()
	c.mu.Lock()
	c.entries = append(c.entries, entries...)
	c.mu.Unlock()
}

// Entries returns a copy of the recorded entries in insertion order.
func (c *Collector) Entries() []Entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Entry, len(c.entries))
	copy(out, c.entries)
	return out
}

// Len returns the number of entries.
func (c *Collector) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Count returns the number of entries at level.
func (c *Collector) Count(level Level) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, e := range c.entries {
		if e.Level == level {
			n++
		}
	}
	return n
}

// Messages returns the bare messages in insertion order.
func (c *Collector) Messages() []string {
	entries := c.Entries()
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Message
	}
	return out
}

// WriteReport writes one line per entry to path, truncating any previous report.
func (c *Collector) WriteReport(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report: %w", err)
	}
	w := bufio.NewWriter(f)
	for _, e := range c.Entries() {
		if _, err := fmt.Fprintln(w, e.String()); err != nil {
			_ = f.Close()
			return fmt.Errorf("write report: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		_ = f.Close()
		return fmt.Errorf("flush report: %w", err)
	}
	return f.Close()
}
