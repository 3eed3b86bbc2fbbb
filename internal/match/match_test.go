package match

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/route-settlement/internal/common"
	"github.com/joseph-ayodele/route-settlement/internal/roster"
)

func newRoster(t *testing.T, names ...string) *roster.Roster {
	t.Helper()
	entries := make([]roster.Entry, len(names))
	for i, n := range names {
		entries[i] = roster.Entry{Name: n, DailyRate: decimal.NewFromInt(50)}
	}
	r, err := roster.New(entries...)
	require.NoError(t, err)
	return r
}

func TestRatio(t *testing.T) {
	tests := []struct {
		a, b string
		want float64
	}{
		{"", "", 1.0},
		{"abc", "", 0.0},
		{"abcd", "abcd", 1.0},
		{"abcd", "bcde", 0.75},
		{"abcd", "wxyz", 0.0},
		// difflib.SequenceMatcher(None, "jose da silva", "jose silva").ratio()
		{"jose da silva", "jose silva", 20.0 / 23.0},
		// not symmetric: difflib gives 0.25 for tide/diet and 0.5 for diet/tide
		{"tide", "diet", 0.25},
		{"diet", "tide", 0.5},
		// compared per rune, not per byte
		{"josé", "jose", 0.75},
	}
	for _, tt := range tests {
		t.Run(tt.a+"|"+tt.b, func(t *testing.T) {
			assert.InDelta(t, tt.want, Ratio(tt.a, tt.b), 1e-9)
		})
	}
}

func TestResolve_ExactIgnoringCaseAndAccents(t *testing.T) {
	r := newRoster(t, "MARIA SOUZA", "JOSE DA SILVA", "JOAO SILVA")
	m, err := NewResolver(0).Resolve("JOSÉ DA SILVA ", r)
	require.NoError(t, err)
	assert.Equal(t, "JOSE DA SILVA", m.Name)
	assert.Equal(t, 1.0, m.Score)
}

func TestResolve_FuzzySpelling(t *testing.T) {
	r := newRoster(t, "MARIA SOUZA", "JOAO SILVA")
	m, err := NewResolver(DefaultThreshold).Resolve("Joao da Silva", r)
	require.NoError(t, err)
	assert.Equal(t, "JOAO SILVA", m.Name)
	assert.GreaterOrEqual(t, m.Score, DefaultThreshold)
}

func TestResolve_NotFound(t *testing.T) {
	r := newRoster(t, "MARIA SOUZA")
	_, err := NewResolver(DefaultThreshold).Resolve("ZZZ QQQ", r)
	assert.ErrorIs(t, err, ErrNoMatch)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestResolve_TieKeepsRosterOrder(t *testing.T) {
	// "ab" is equally similar to "AX" and "XB"
	first := newRoster(t, "AX", "XB")
	m, err := NewResolver(DefaultThreshold).Resolve("ab", first)
	require.NoError(t, err)
	assert.Equal(t, "AX", m.Name)

	reordered := newRoster(t, "XB", "AX")
	m, err = NewResolver(DefaultThreshold).Resolve("ab", reordered)
	require.NoError(t, err)
	assert.Equal(t, "XB", m.Name)
}

func TestResolve_Deterministic(t *testing.T) {
	r := newRoster(t, "ANA LIMA", "ANA LIMO", "ANTONIO LIMA")
	res := NewResolver(DefaultThreshold)
	first, err := res.Resolve("ana lima", r)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := res.Resolve("ana lima", r)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
	assert.Equal(t, "ANA LIMA", first.Name)
}
