package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/route-settlement/internal/async"
	"github.com/joseph-ayodele/route-settlement/internal/document"
	"github.com/joseph-ayodele/route-settlement/internal/metrics"
	"github.com/joseph-ayodele/route-settlement/internal/roster"
	"github.com/joseph-ayodele/route-settlement/internal/settlement"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeSource struct {
	docs map[string]document.Document
}

func (f fakeSource) Load(_ context.Context, path string) (document.Document, error) {
	doc, ok := f.docs[path]
	if !ok {
		return document.Document{}, fmt.Errorf("%w: %s: corrupt xref table", document.ErrUnreadable, path)
	}
	return doc, nil
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func testRoster(t *testing.T) *roster.Roster {
	t.Helper()
	r, err := roster.New(
		roster.Entry{Name: "JOAO SILVA", DailyRate: dec("50"), VehicleType: "Moto"},
		roster.Entry{Name: "JOSE DA SILVA", DailyRate: dec("80"), VehicleType: "Van"},
	)
	require.NoError(t, err)
	return r
}

func newProcessor(t *testing.T, docs map[string]document.Document, opts ...Option) *Processor {
	t.Helper()
	params := settlement.Params{UnitDeliveryValue: dec("5"), DailyBonus: dec("30")}
	opts = append([]Option{WithPool(async.NewPool(quietLogger(), async.WithWorkers(3)))}, opts...)
	return NewProcessor(quietLogger(), fakeSource{docs: docs}, testRoster(t), params, opts...)
}

func TestRun_SingleDriverExample(t *testing.T) {
	p := newProcessor(t, map[string]document.Document{
		"in/joao.pdf": {
			Name: "joao.pdf",
			Lines: []string{
				"Motorista: Joao Silva",
				"01/01/2024 Entrega 1 Sim",
				"01/01/2024 Entrega 2 Nao",
			},
			TableRows: [][]string{{"01/01/2024", "R$ 10,00"}},
		},
	})

	res, err := p.Run(context.Background(), []string{"in/joao.pdf"})
	require.NoError(t, err)
	assert.Zero(t, res.Diagnostics.Len())
	require.Len(t, res.Settlements, 1)

	s := res.Settlements[0]
	assert.Equal(t, "JOAO SILVA", s.Driver)
	require.Len(t, s.Rows, 2)
	day := s.Rows[0]
	assert.Equal(t, "01/01/2024", day.Label())
	assert.Equal(t, 1, day.Delivered)
	assert.Equal(t, 1, day.Failed)
	assert.True(t, dec("5").Equal(day.DeliveryRevenue))
	assert.True(t, dec("5").Equal(day.Discount))
	assert.True(t, dec("10").Equal(day.PaidSurcharge))
	assert.True(t, dec("40").Equal(day.CalculatedSurcharge))
	assert.True(t, dec("10").Equal(day.DayTotal))
	assert.True(t, day.Bonus.IsZero())
	assert.True(t, s.Rows[1].IsTotal)
	assert.Equal(t, Stats{Documents: 1, Groups: 1, Settled: 1}, res.Stats)
}

func TestRun_UnreadableDocumentContributesNothing(t *testing.T) {
	p := newProcessor(t, map[string]document.Document{
		"in/joao.pdf": {Lines: []string{"Motorista: Joao Silva", "01/01/2024 Sim"}},
	})

	res, err := p.Run(context.Background(), []string{"in/joao.pdf", "in/joao2.pdf"})
	require.NoError(t, err)
	require.Equal(t, 1, res.Diagnostics.Len())
	assert.Contains(t, res.Diagnostics.Messages()[0], "joao2.pdf")
	assert.Equal(t, 1, res.Stats.Unreadable)

	require.Len(t, res.Settlements, 1)
	assert.Equal(t, 1, res.Settlements[0].Total().Delivered)
}

func TestRun_OnlyUnreadableDocumentDropsDriver(t *testing.T) {
	p := newProcessor(t, nil)
	res, err := p.Run(context.Background(), []string{"in/broken.pdf"})
	require.NoError(t, err)
	assert.Empty(t, res.Settlements)
	assert.Equal(t, 1, res.Stats.Unreadable)
	assert.Equal(t, 1, res.Stats.Nameless)
	require.Equal(t, 1, res.Diagnostics.Len())
	assert.Contains(t, res.Diagnostics.Messages()[0], "Could not read document broken.pdf")
}

func TestRun_UnreadableGroupWithReadableNamelessDocumentWarns(t *testing.T) {
	p := newProcessor(t, map[string]document.Document{
		"in/ana.pdf": {Lines: []string{"01/01/2024 Sim"}},
	})
	res, err := p.Run(context.Background(), []string{"in/ana.pdf", "in/ana2.pdf"})
	require.NoError(t, err)
	assert.Empty(t, res.Settlements)
	msgs := res.Diagnostics.Messages()
	require.Len(t, msgs, 2)
	assert.Contains(t, msgs[0], "ana2.pdf")
	assert.Contains(t, msgs[1], "No driver name found in ana.pdf, ana2.pdf")
}

func TestRun_MergesGroupAdditively(t *testing.T) {
	p := newProcessor(t, map[string]document.Document{
		"a/jose.pdf": {Lines: []string{
			"01/01/2024 Sim",
			"01/01/2024 Sim",
			"02/01/2024 Acréscimo R$ 7,50",
		}},
		"a/jose2.pdf": {Lines: []string{
			"Motorista: JOSÉ DA SILVA ",
			"01/01/2024 Não",
			"01/01/2024 Sim",
			"Remunerações Diárias",
			"02/01/2024 Diária R$ 30,00",
		}},
	})

	res, err := p.Run(context.Background(), []string{"a/jose.pdf", "a/jose2.pdf"})
	require.NoError(t, err)
	assert.Zero(t, res.Diagnostics.Len(), res.Diagnostics.Messages())
	require.Len(t, res.Settlements, 1)

	s := res.Settlements[0]
	assert.Equal(t, "JOSE DA SILVA", s.Driver)
	require.Len(t, s.Days(), 2)
	assert.Equal(t, 3, s.Rows[0].Delivered)
	assert.Equal(t, 1, s.Rows[0].Failed)
	assert.True(t, dec("7.5").Equal(s.Rows[1].PaidSurcharge))
	assert.True(t, dec("30").Equal(s.Rows[1].Bonus))
	assert.True(t, dec("30").Equal(s.Total().Bonus))
}

func TestRun_UnmatchedAndNamelessDriversAreDropped(t *testing.T) {
	p := newProcessor(t, map[string]document.Document{
		"x/zzz.pdf":  {Lines: []string{"Motorista: Xkq Wvb", "01/01/2024 Sim"}},
		"x/anon.pdf": {Lines: []string{"01/01/2024 Sim"}},
		"x/joao.pdf": {Lines: []string{"Motorista: Joao Silva", "01/01/2024 Sim"}},
	})

	res, err := p.Run(context.Background(), []string{"x/zzz.pdf", "x/anon.pdf", "x/joao.pdf"})
	require.NoError(t, err)
	require.Len(t, res.Settlements, 1)
	assert.Equal(t, "JOAO SILVA", res.Settlements[0].Driver)
	assert.Equal(t, Stats{Documents: 3, Groups: 3, Settled: 1, Unmatched: 1, Nameless: 1}, res.Stats)

	msgs := res.Diagnostics.Messages()
	require.Len(t, msgs, 2)
	assert.Contains(t, msgs[0], "XKQ WVB")
	assert.Contains(t, msgs[1], "anon.pdf")
}

func TestRun_DiagnosticsFollowDocumentOrder(t *testing.T) {
	docs := map[string]document.Document{}
	var paths []string
	for i := 0; i < 12; i++ {
		path := fmt.Sprintf("d/driver%c.pdf", 'a'+i)
		docs[path] = document.Document{Lines: []string{
			"Motorista: Joao Silva",
			fmt.Sprintf("32/01/2024 Sim %d", i),
		}}
		paths = append(paths, path)
	}
	m := metrics.New()
	p := newProcessor(t, docs, WithMetrics(m))

	for run := 0; run < 3; run++ {
		res, err := p.Run(context.Background(), paths)
		require.NoError(t, err)
		msgs := res.Diagnostics.Messages()
		require.Len(t, msgs, 12)
		for i, msg := range msgs {
			assert.Contains(t, msg, fmt.Sprintf("driver%c.pdf", 'a'+i))
		}
	}
}

func TestRun_CancelledContext(t *testing.T) {
	p := newProcessor(t, map[string]document.Document{"a.pdf": {}})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := p.Run(ctx, []string{"a.pdf"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRun_NoDocuments(t *testing.T) {
	p := newProcessor(t, nil)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	res, err := p.Run(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, res.Settlements)
	assert.Zero(t, res.Diagnostics.Len())
}
