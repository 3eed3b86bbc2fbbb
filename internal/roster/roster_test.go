package roster

import (
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/route-settlement/internal/common"
	"github.com/joseph-ayodele/route-settlement/internal/diagnostics"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newDiag() *diagnostics.Collector {
	return diagnostics.New(quietLogger())
}

func TestBuild_ValidRows(t *testing.T) {
	diag := newDiag()
	r, err := Build(
		[]string{" Nome do Motorista ", "Diária Combinada", "Tipo de Veículo"},
		[][]string{
			{" joão silva ", "150.5", "Moto"},
			{"Maria Souza", "R$ 1.200,00", "Van"},
		},
		"tipos.xlsx", diag,
	)
	require.NoError(t, err)
	assert.Zero(t, diag.Len())
	assert.Equal(t, []string{"JOÃO SILVA", "MARIA SOUZA"}, r.Names())

	e, ok := r.Get("joão silva")
	require.True(t, ok)
	assert.True(t, decimal.RequireFromString("150.5").Equal(e.DailyRate))
	assert.Equal(t, "Moto", e.VehicleType)

	e, ok = r.Get("MARIA SOUZA")
	require.True(t, ok)
	assert.True(t, decimal.NewFromInt(1200).Equal(e.DailyRate))
}

func TestBuild_AliasPriority(t *testing.T) {
	// "nome do motorista" wins over "nome" regardless of column position
	r, err := Build(
		[]string{"nome", "nome do motorista", "diaria"},
		[][]string{{"apelido", "Carlos Lima", "80"}},
		"x.xlsx", newDiag(),
	)
	require.NoError(t, err)
	assert.Equal(t, []string{"CARLOS LIMA"}, r.Names())
}

func TestBuild_RecoverableRowProblems(t *testing.T) {
	diag := newDiag()
	r, err := Build(
		[]string{"motorista", "diaria", "tipo"},
		[][]string{
			{"", "100", "Moto"},    // skipped
			{"Ana", "abc", "Moto"}, // rate 0
			{"Bia", "-5", ""},      // rate 0, type N/A
			{"Caio"},               // short row: rate 0, type N/A
			{"", "", ""},           // blank row, ignored silently
			{"ana", "90", "Carro"}, // replaces Ana
		},
		"tipos.xlsx", diag,
	)
	require.NoError(t, err)
	assert.Equal(t, []string{"ANA", "BIA", "CAIO"}, r.Names())
	assert.Equal(t, 7, diag.Len(), diag.Messages())

	ana, _ := r.Get("ANA")
	assert.True(t, decimal.NewFromInt(90).Equal(ana.DailyRate))
	assert.Equal(t, "Carro", ana.VehicleType)

	bia, _ := r.Get("BIA")
	assert.True(t, bia.DailyRate.IsZero())
	assert.Equal(t, "N/A", bia.VehicleType)

	caio, _ := r.Get("CAIO")
	assert.True(t, caio.DailyRate.IsZero())
	assert.Equal(t, "N/A", caio.VehicleType)
}

func TestBuild_MissingTypeColumnWarnsOnce(t *testing.T) {
	diag := newDiag()
	r, err := Build(
		[]string{"motorista", "diaria"},
		[][]string{{"Ana", "10"}, {"Bia", "20"}},
		"tipos.xlsx", diag,
	)
	require.NoError(t, err)
	assert.Equal(t, 1, diag.Len())
	for _, e := range r.Entries() {
		assert.Equal(t, "N/A", e.VehicleType)
	}
}

func TestBuild_FatalConditions(t *testing.T) {
	tests := []struct {
		name   string
		header []string
		rows   [][]string
		want   error
	}{
		{"no name column", []string{"driver", "diaria"}, [][]string{{"a", "1"}}, ErrNoNameColumn},
		{"no rate column", []string{"motorista", "rate"}, [][]string{{"a", "1"}}, ErrNoRateColumn},
		{"no header", nil, nil, ErrNoNameColumn},
		{"no valid drivers", []string{"motorista", "diaria"}, [][]string{{"", "1"}, {" ", "2"}}, ErrNoDrivers},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Build(tt.header, tt.rows, "x.xlsx", newDiag())
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestNew_RejectsInvalidEntries(t *testing.T) {
	_, err := New(Entry{Name: "  "})
	assert.ErrorIs(t, err, ErrInvalidEntry)

	_, err = New(Entry{Name: "A", DailyRate: decimal.NewFromInt(-1)})
	assert.ErrorIs(t, err, ErrInvalidEntry)

	r, err := New(Entry{Name: " jose "})
	require.NoError(t, err)
	e, ok := r.Get("JOSE")
	require.True(t, ok)
	assert.Equal(t, "N/A", e.VehicleType)
}

func writeRosterXLSX(t *testing.T, rows [][]any) string {
	t.Helper()
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()
	for r, row := range rows {
		for c, v := range row {
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			require.NoError(t, err)
			require.NoError(t, f.SetCellValue("Sheet1", cell, v))
		}
	}
	path := filepath.Join(t.TempDir(), "tipos.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func TestLoadXLSX(t *testing.T) {
	path := writeRosterXLSX(t, [][]any{
		{"Nome do Motorista", "Diária Combinada", "Tipo"},
		{"João Silva", 50, "Moto"},
		{"Maria Souza", 120.75, "Van"},
	})

	diag := newDiag()
	r, err := LoadXLSX(path, diag, quietLogger())
	require.NoError(t, err)
	assert.Zero(t, diag.Len())
	assert.Equal(t, 2, r.Len())

	e, ok := r.Get("JOÃO SILVA")
	require.True(t, ok)
	assert.True(t, decimal.NewFromInt(50).Equal(e.DailyRate))
	assert.Equal(t, "Moto", e.VehicleType)

	e, _ = r.Get("MARIA SOUZA")
	assert.True(t, decimal.RequireFromString("120.75").Equal(e.DailyRate))
}

func TestLoadXLSX_Fatal(t *testing.T) {
	_, err := LoadXLSX(filepath.Join(t.TempDir(), "missing.xlsx"), newDiag(), quietLogger())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnreadable)
	assert.True(t, common.IsFatal(err))

	path := writeRosterXLSX(t, [][]any{{"Driver", "Rate"}, {"A", 1}})
	_, err = LoadXLSX(path, newDiag(), quietLogger())
	assert.True(t, errors.Is(err, ErrNoNameColumn))
	assert.True(t, common.IsFatal(err))
}
