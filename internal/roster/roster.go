// Package roster holds the agreed daily rate and vehicle type of every driver,
// keyed by canonical (trimmed, uppercase) name.
package roster

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/joseph-ayodele/route-settlement/constants"
)

var (
	ErrUnreadable   = errors.New("roster unreadable")
	ErrNoNameColumn = errors.New("roster has no driver name column")
	ErrNoRateColumn = errors.New("roster has no daily rate column")
	ErrNoDrivers    = errors.New("roster has no valid drivers")
	ErrInvalidEntry = errors.New("invalid roster entry")
)

// Entry is one driver of the roster.
type Entry struct {
	Name        string
	DailyRate   decimal.Decimal
	VehicleType string
}

// Roster is an ordered, read-only set of entries. Order is the order rows
// appeared in the source; it is also the tie-break order of name matching.
// A Roster is safe for concurrent readers.
type Roster struct {
	entries []Entry
	index   map[string]int
}

// CanonicalName trims and upper-cases a driver name.
func CanonicalName(name string) string {
	return strings.ToUpper(strings.TrimSpace(name))
}

// New builds a roster from entries. Names are canonicalized; a later entry with
// the same name replaces the earlier one in place.
func New(entries ...Entry) (*Roster, error) {
	r := &Roster{index: make(map[string]int, len(entries))}
	for _, e := range entries {
		if err := r.put(e); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *Roster) put(e Entry) error {
	e.Name = CanonicalName(e.Name)
	if e.Name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidEntry)
	}
	if e.DailyRate.IsNegative() {
		return fmt.Errorf("%w: negative daily rate for %s", ErrInvalidEntry, e.Name)
	}
	if strings.TrimSpace(e.VehicleType) == "" {
		e.VehicleType = constants.NotAvailable
	}
	if i, ok := r.index[e.Name]; ok {
		r.entries[i] = e
		return nil
	}
	r.index[e.Name] = len(r.entries)
	r.entries = append(r.entries, e)
	return nil
}

// Get looks up an entry by canonical name.
func (r *Roster) Get(name string) (Entry, bool) {
	i, ok := r.index[CanonicalName(name)]
	if !ok {
		return Entry{}, false
	}
	return r.entries[i], true
}

// Entries returns a copy of the entries in roster order.
func (r *Roster) Entries() []Entry {
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Names returns the canonical names in roster order.
func (r *Roster) Names() []string {
	out := make([]string, len(r.entries))
	for i, e := range r.entries {
		out[i] = e.Name
	}
	return out
}

// Len returns the number of drivers.
func (r *Roster) Len() int {
	return len(r.entries)
}
