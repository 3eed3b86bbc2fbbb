package grouping

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/joseph-ayodele/route-settlement/internal/extract"
)

func day(d int) time.Time {
	return time.Date(2024, time.January, d, 0, 0, 0, 0, time.UTC)
}

func TestGroupKey(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Joao.pdf", "joao"},
		{"joao2.PDF", "joao"},
		{"/tmp/docs/JOAO12.pdf", "joao"},
		{"maria souza 3.pdf", "maria souza"},
		{"rota2024.pdf", "rota"},
		{"ana.lima.pdf", "ana.lima"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, GroupKey(tt.in))
		})
	}
}

func TestByKey(t *testing.T) {
	groups := ByKey([]string{"b/Joao.pdf", "b/maria.pdf", "b/joao2.pdf", "b/MARIA3.PDF", "b/ana.pdf"})
	assert.Equal(t, []Group{
		{Key: "joao", Paths: []string{"b/Joao.pdf", "b/joao2.pdf"}},
		{Key: "maria", Paths: []string{"b/maria.pdf", "b/MARIA3.PDF"}},
		{Key: "ana", Paths: []string{"b/ana.pdf"}},
	}, groups)
}

func TestMerge_Additive(t *testing.T) {
	a := extract.Empty()
	a.Deliveries.Add(day(1), 2, 1)
	a.Deliveries.Add(day(2), 1, 0)
	a.Surcharges.Add(day(1), decimal.NewFromInt(10))
	a.Bonuses.Add(day(1))

	b := extract.Empty()
	b.DriverName, b.HasName = "JOAO", true
	b.Deliveries.Add(day(1), 3, 2)
	b.Deliveries.Add(day(3), 0, 1)
	b.Surcharges.Add(day(1), decimal.RequireFromString("2.5"))
	b.Surcharges.Add(day(4), decimal.NewFromInt(7))
	b.Bonuses.Add(day(1))
	b.Bonuses.Add(day(3))

	c := extract.Empty()
	c.DriverName, c.HasName = "JOAO SILVA", true

	merged := Merge([]extract.Result{a, b, c})

	// the first document had no name, so the second one names the group
	assert.Equal(t, "JOAO", merged.DriverName)
	for _, d := range []time.Time{day(1), day(2), day(3), day(4)} {
		want := extract.DayStats{
			Delivered: a.Deliveries.Get(d).Delivered + b.Deliveries.Get(d).Delivered,
			Failed:    a.Deliveries.Get(d).Failed + b.Deliveries.Get(d).Failed,
		}
		assert.Equal(t, want, merged.Deliveries.Get(d), d)
		assert.True(t, a.Surcharges.Get(d).Add(b.Surcharges.Get(d)).Equal(merged.Surcharges.Get(d)), d)
	}
	assert.Len(t, merged.Bonuses, 2)

	// inputs are not modified
	assert.Equal(t, extract.DayStats{Delivered: 2, Failed: 1}, a.Deliveries.Get(day(1)))
}

func TestMerge_EmptyInputs(t *testing.T) {
	merged := Merge([]extract.Result{extract.Empty(), extract.Empty()})
	assert.True(t, merged.IsEmpty())
	assert.True(t, Merge(nil).IsEmpty())
}
