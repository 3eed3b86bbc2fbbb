package document

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/joseph-ayodele/route-settlement/constants"
	"github.com/joseph-ayodele/route-settlement/internal/common"
)

// ErrFolderNotFound is returned when the documents folder does not exist.
var ErrFolderNotFound = errors.New("documents folder not found")

// DirStats summarizes a folder scan.
type DirStats struct {
	Scanned uint32
	Matched uint32
	Skipped uint32
}

// Discover lists the documents directly inside root (no recursion), skipping
// hidden entries. Paths are returned sorted so runs are reproducible.
func Discover(root string) ([]string, DirStats, error) {
	var stats DirStats
	if strings.TrimSpace(root) == "" {
		return nil, stats, fmt.Errorf("%w: documents folder is required", common.ErrInvalidInput)
	}
	info, err := os.Stat(root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, stats, fmt.Errorf("%w: %s", ErrFolderNotFound, root)
		}
		return nil, stats, fmt.Errorf("stat %s: %w", root, err)
	}
	if !info.IsDir() {
		return nil, stats, fmt.Errorf("%w: %s is not a directory", common.ErrInvalidInput, root)
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, stats, fmt.Errorf("read dir: %w", err)
	}

	var paths []string
	for _, e := range entries {
		stats.Scanned++
		if e.IsDir() || isHidden(e.Name()) {
			stats.Skipped++
			continue
		}
		if !constants.IsDocumentExt(filepath.Ext(e.Name())) {
			stats.Skipped++
			continue
		}
		stats.Matched++
		paths = append(paths, filepath.Join(root, e.Name()))
	}
	sort.Strings(paths)
	return paths, stats, nil
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".")
}
