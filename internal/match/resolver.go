package match

import (
	"fmt"
	"strings"

	"github.com/joseph-ayodele/route-settlement/internal/common"
	"github.com/joseph-ayodele/route-settlement/internal/normalize"
	"github.com/joseph-ayodele/route-settlement/internal/roster"
)

// DefaultThreshold is the minimum similarity for a name to resolve.
const DefaultThreshold = 0.5

// ErrNoMatch is returned when no roster name reaches the threshold.
var ErrNoMatch = fmt.Errorf("roster name %w", common.ErrNotFound)

// Match is a resolved roster name and its similarity to the raw name.
type Match struct {
	Name  string
	Score float64
}

// Resolver maps free-text names to roster entries.
type Resolver struct {
	Threshold float64
}

func NewResolver(threshold float64) *Resolver {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Resolver{Threshold: threshold}
}

// Resolve folds raw and every roster name and returns the roster name with
// the highest Ratio, provided it is at least the threshold. Equal scores keep
// the entry that comes first in roster order, so reordering the roster can
// change which of two equally similar names wins.
func (r *Resolver) Resolve(raw string, ros *roster.Roster) (Match, error) {
	want := normalize.Fold(strings.ToUpper(strings.TrimSpace(raw)))
	best := Match{}
	found := false
	for _, name := range ros.Names() {
		score := Ratio(normalize.Fold(name), want)
		if score < r.Threshold {
			continue
		}
		if !found || score > best.Score {
			best = Match{Name: name, Score: score}
			found = true
		}
	}
	if !found {
		return Match{}, fmt.Errorf("%w: %q", ErrNoMatch, raw)
	}
	return best, nil
}
