// Package extract scans a delivery-run document and accumulates, per date, the
// deliveries, failed attempts, paid surcharges and confirmed bonuses it reports.
package extract

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// Day truncates t to a UTC calendar date, the key type of every per-date map.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// DayStats counts delivery attempts on one date.
type DayStats struct {
	Delivered int
	Failed    int
}

// DeliveryStats accumulates DayStats per date. Counts only ever grow.
type DeliveryStats map[time.Time]DayStats

// Get returns the stats for date, or zero counts.
func (s DeliveryStats) Get(date time.Time) DayStats {
	return s[Day(date)]
}

// Add adds delivered and failed to the counts of date.
func (s DeliveryStats) Add(date time.Time, delivered, failed int) {
	d := Day(date)
	cur := s[d]
	cur.Delivered += delivered
	cur.Failed += failed
	s[d] = cur
}

// Surcharges accumulates paid surcharge amounts per date.
type Surcharges map[time.Time]decimal.Decimal

// Get returns the amount for date, or zero.
func (s Surcharges) Get(date time.Time) decimal.Decimal {
	if v, ok := s[Day(date)]; ok {
		return v
	}
	return decimal.Zero
}

// Add adds amount to date.
func (s Surcharges) Add(date time.Time, amount decimal.Decimal) {
	d := Day(date)
	s[d] = s.Get(d).Add(amount)
}

// BonusDates is the set of dates with a confirmed daily bonus.
type BonusDates map[time.Time]struct{}

// Add marks date.
func (b BonusDates) Add(date time.Time) {
	b[Day(date)] = struct{}{}
}

// Has reports whether date is marked.
func (b BonusDates) Has(date time.Time) bool {
	_, ok := b[Day(date)]
	return ok
}

// Result is what one document (or a merged driver group) reports.
type Result struct {
	DriverName string
	HasName    bool
	Deliveries DeliveryStats
	Surcharges Surcharges
	Bonuses    BonusDates
}

// Empty returns a result that contributes nothing.
func Empty() Result {
	return Result{
		Deliveries: DeliveryStats{},
		Surcharges: Surcharges{},
		Bonuses:    BonusDates{},
	}
}

// IsEmpty reports whether the result carries no name and no events.
func (r Result) IsEmpty() bool {
	return !r.HasName && len(r.Deliveries) == 0 && len(r.Surcharges) == 0 && len(r.Bonuses) == 0
}

// Dates returns every date with deliveries or surcharges, ascending.
func (r Result) Dates() []time.Time {
	seen := make(map[time.Time]struct{}, len(r.Deliveries)+len(r.Surcharges))
	for d := range r.Deliveries {
		seen[d] = struct{}{}
	}
	for d := range r.Surcharges {
		seen[d] = struct{}{}
	}
	out := make([]time.Time, 0, len(seen))
	for d := range seen {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}
