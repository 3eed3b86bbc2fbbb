// Package grouping gathers the documents of one driver and merges what they report.
package grouping

import (
	"path/filepath"
	"regexp"
	"strings"

	"github.com/joseph-ayodele/route-settlement/internal/extract"
)

// reSuffix matches a trailing run of digits right before the extension.
var reSuffix = regexp.MustCompile(`\d*\.pdf$`)

// GroupKey derives the driver key of a document file name: lowercased, the
// extension and any trailing number removed, so "Joao.pdf" and "joao2.PDF"
// share the key "joao".
func GroupKey(filename string) string {
	base := strings.ToLower(filepath.Base(filename))
	base = reSuffix.ReplaceAllString(base, "")
	base = strings.ReplaceAll(base, ".pdf", "")
	return strings.TrimSpace(base)
}

// Group is the set of documents attributed to one driver.
type Group struct {
	Key   string
	Paths []string
}

// ByKey groups paths by GroupKey. Groups appear in the order their first path
// appears; paths keep their input order inside a group.
func ByKey(paths []string) []Group {
	var groups []Group
	index := map[string]int{}
	for _, p := range paths {
		key := GroupKey(p)
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, Group{Key: key})
		}
		groups[i].Paths = append(groups[i].Paths, p)
	}
	return groups
}

// Merge sums deliveries and surcharges per date and unions bonus dates across
// results. The name is the first one present in input order; results without
// a name only add to the numbers.
func Merge(results []extract.Result) extract.Result {
	merged := extract.Empty()
	for _, r := range results {
		if r.HasName && !merged.HasName {
			merged.DriverName = r.DriverName
			merged.HasName = true
		}
		for d, s := range r.Deliveries {
			merged.Deliveries.Add(d, s.Delivered, s.Failed)
		}
		for d, v := range r.Surcharges {
			merged.Surcharges.Add(d, v)
		}
		for d := range r.Bonuses {
			merged.Bonuses.Add(d)
		}
	}
	return merged
}
