package diagnostics

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestCollector_RecordsInOrder(t *testing.T) {
	c := New(quietLogger())
	c.Warnf("first %d", 1)
	c.Errorf("second")
	c.Warnf("third")

	assert.Equal(t, []string{"first 1", "second", "third"}, c.Messages())
	assert.Equal(t, 3, c.Len())
	assert.Equal(t, 2, c.Count(LevelWarning))
	assert.Equal(t, 1, c.Count(LevelError))
}

func TestCollector_MergeKeepsOrder(t *testing.T) {
	run := New(quietLogger())
	run.Warnf("roster")

	docA := New(quietLogger())
	docA.Warnf("a1")
	docA.Warnf("a2")
	docB := New(quietLogger())
	docB.Errorf("b1")

	run.Merge(docA)
	run.Merge(docB)
	run.Merge(nil)
	run.Merge(run)

	assert.Equal(t, []string{"roster", "a1", "a2", "b1"}, run.Messages())
}

func TestCollector_ConcurrentAppends(t *testing.T) {
	c := New(quietLogger())
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Warnf("w")
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, c.Len())
}

func TestCollector_WriteReport(t *testing.T) {
	c := New(quietLogger())
	c.now = func() time.Time { return time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC) }
	c.Warnf("invalid date in doc.pdf")
	c.Errorf("unreadable other.pdf")

	path := filepath.Join(t.TempDir(), "report.log")
	require.NoError(t, c.WriteReport(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	assert.Equal(t, []string{
		"2024-01-02 03:04:05 - WARNING - invalid date in doc.pdf",
		"2024-01-02 03:04:05 - ERROR - unreadable other.pdf",
	}, lines)
}
