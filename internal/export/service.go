package export

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/route-settlement/constants"
	"github.com/joseph-ayodele/route-settlement/internal/settlement"
)

const (
	headerFill   = "ADD8E6" // light blue
	totalFill    = "FFFF00" // yellow
	amountFormat = 4        // #,##0.00
	emptySheet   = "Settlement"
)

// Service renders settlements into output documents.
type Service struct {
	logger *slog.Logger
}

func NewService(logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{logger: logger}
}

// SettlementsXLSX returns a workbook (as bytes) with one worksheet per driver.
// Each sheet has the header row, the dated rows and the highlighted total row.
func (s *Service) SettlementsXLSX(settlements []settlement.Settlement) ([]byte, error) {
	start := time.Now()
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	st, err := newStyles(f)
	if err != nil {
		return nil, fmt.Errorf("xlsx styles: %w", err)
	}

	const defaultSheet = "Sheet1"
	names := sheetNames(settlements)
	if len(settlements) == 0 {
		s.logger.Warn("no settlements to export; writing header-only workbook")
		if err := f.SetSheetName(defaultSheet, emptySheet); err != nil {
			return nil, err
		}
		if err := writeHeader(f, emptySheet, st); err != nil {
			return nil, err
		}
	}

	rows := 0
	for i, stl := range settlements {
		sheet := names[i]
		if i == 0 {
			if err := f.SetSheetName(defaultSheet, sheet); err != nil {
				return nil, fmt.Errorf("rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(sheet); err != nil {
			return nil, fmt.Errorf("new sheet %q: %w", sheet, err)
		}
		if err := writeHeader(f, sheet, st); err != nil {
			return nil, err
		}
		for r, row := range stl.Rows {
			if err := writeRow(f, sheet, r+2, row, st); err != nil {
				return nil, err
			}
		}
		rows += len(stl.Rows)
	}
	f.SetActiveSheet(0)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"drivers", len(settlements),
		"rows", rows,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

// WriteXLSX renders settlements and writes the workbook to path.
func (s *Service) WriteXLSX(path string, settlements []settlement.Settlement) error {
	data, err := s.SettlementsXLSX(settlements)
	if err != nil {
		return err
	}
	return writeFile(path, data)
}

func writeFile(path string, data []byte) error {
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

type styles struct {
	header      int
	amount      int
	total       int
	totalAmount int
}

func newStyles(f *excelize.File) (styles, error) {
	var st styles
	var err error
	fill := func(color string) excelize.Fill {
		return excelize.Fill{Type: "pattern", Color: []string{color}, Pattern: 1}
	}
	if st.header, err = f.NewStyle(&excelize.Style{Fill: fill(headerFill), Font: &excelize.Font{Bold: true}}); err != nil {
		return st, err
	}
	if st.amount, err = f.NewStyle(&excelize.Style{NumFmt: amountFormat}); err != nil {
		return st, err
	}
	if st.total, err = f.NewStyle(&excelize.Style{Fill: fill(totalFill)}); err != nil {
		return st, err
	}
	if st.totalAmount, err = f.NewStyle(&excelize.Style{Fill: fill(totalFill), NumFmt: amountFormat}); err != nil {
		return st, err
	}
	return st, nil
}

func writeHeader(f *excelize.File, sheet string, st styles) error {
	header := make([]any, len(settlement.Columns))
	for i, c := range settlement.Columns {
		header[i] = c
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	last, _ := excelize.CoordinatesToCellName(len(header), 1)
	if err := f.SetCellStyle(sheet, "A1", last, st.header); err != nil {
		return err
	}

	// Widen a few columns
	_ = f.SetColWidth(sheet, "A", "A", 12) // date
	_ = f.SetColWidth(sheet, "B", "B", 28) // driver
	_ = f.SetColWidth(sheet, "C", "C", 14) // vehicle
	_ = f.SetColWidth(sheet, "D", "E", 11) // counts
	_ = f.SetColWidth(sheet, "F", "K", 16) // amounts
	return nil
}

func writeRow(f *excelize.File, sheet string, rowNum int, row settlement.Row, st styles) error {
	values := row.Values()
	for i, v := range values {
		if d, ok := v.(decimal.Decimal); ok {
			values[i] = d.InexactFloat64()
		}
	}
	first, _ := excelize.CoordinatesToCellName(1, rowNum)
	if err := f.SetSheetRow(sheet, first, &values); err != nil {
		return fmt.Errorf("write row %d: %w", rowNum, err)
	}

	amountStyle := st.amount
	lastText, _ := excelize.CoordinatesToCellName(5, rowNum)
	firstAmount, _ := excelize.CoordinatesToCellName(6, rowNum)
	lastAmount, _ := excelize.CoordinatesToCellName(len(values), rowNum)
	if row.IsTotal {
		amountStyle = st.totalAmount
		if err := f.SetCellStyle(sheet, first, lastText, st.total); err != nil {
			return err
		}
	}
	return f.SetCellStyle(sheet, firstAmount, lastAmount, amountStyle)
}

// sheetNames derives a valid, unique worksheet name per settlement.
func sheetNames(settlements []settlement.Settlement) []string {
	used := map[string]bool{}
	out := make([]string, len(settlements))
	for i, s := range settlements {
		base := sheetName(s.Driver)
		name := base
		for n := 2; used[strings.ToLower(name)]; n++ {
			suffix := fmt.Sprintf(" (%d)", n)
			name = truncateRunes(base, constants.MaxSheetNameLength-len(suffix)) + suffix
		}
		used[strings.ToLower(name)] = true
		out[i] = name
	}
	return out
}

var sheetNameReplacer = strings.NewReplacer(
	"[", "", "]", "", ":", "", "*", "", "?", "", "/", "-", "\\", "-",
)

func sheetName(driver string) string {
	name := strings.Trim(strings.TrimSpace(sheetNameReplacer.Replace(driver)), "'")
	if name == "" {
		name = emptySheet
	}
	return truncateRunes(name, constants.MaxSheetNameLength)
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
