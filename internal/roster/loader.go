package roster

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/route-settlement/constants"
	"github.com/joseph-ayodele/route-settlement/internal/common"
	"github.com/joseph-ayodele/route-settlement/internal/diagnostics"
)

// LoadXLSX reads the first worksheet of the spreadsheet at path. The first row
// is the header. Any returned error is fatal for the run.
func LoadXLSX(path string, diag *diagnostics.Collector, logger *slog.Logger) (*Roster, error) {
	if logger == nil {
		logger = slog.Default()
	}
	source := filepath.Base(path)
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, common.NewAppError(common.CodeRoster, fmt.Sprintf("roster sheet %s not found", path), ErrUnreadable)
		}
		return nil, common.NewAppError(common.CodeRoster, fmt.Sprintf("cannot stat roster sheet %s", path), fmt.Errorf("%w: %v", ErrUnreadable, err))
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, common.NewAppError(common.CodeRoster, fmt.Sprintf("cannot open roster sheet %s", path), fmt.Errorf("%w: %v", ErrUnreadable, err))
	}
	defer func() {
		if err := f.Close(); err != nil {
			logger.Warn("failed to close roster workbook", "path", path, "error", err)
		}
	}()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, common.NewAppError(common.CodeRoster, fmt.Sprintf("roster sheet %s has no worksheets", path), ErrUnreadable)
	}
	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, common.NewAppError(common.CodeRoster, fmt.Sprintf("cannot read rows of %s", path), fmt.Errorf("%w: %v", ErrUnreadable, err))
	}

	var header []string
	if len(rows) > 0 {
		header, rows = rows[0], rows[1:]
	}
	r, err := Build(header, rows, source, diag)
	if err != nil {
		return nil, common.NewAppError(common.CodeRoster, fmt.Sprintf("invalid roster sheet %s", path), err)
	}
	logger.Info("roster loaded", "path", path, "sheet", sheets[0], "drivers", r.Len())
	return r, nil
}

// Build creates a roster from a header and data rows. Column names are matched
// after trimming and lowercasing. Bad cells are recorded in diag and defaulted;
// a missing name or rate column, or no usable driver at all, is an error.
func Build(header []string, rows [][]string, source string, diag *diagnostics.Collector) (*Roster, error) {
	cols := make([]string, len(header))
	for i, h := range header {
		cols[i] = strings.ToLower(strings.TrimSpace(h))
	}

	nameCol := findColumn(cols, constants.RosterNameColumns)
	if nameCol < 0 {
		return nil, fmt.Errorf("%w: expected one of %v", ErrNoNameColumn, constants.RosterNameColumns)
	}
	rateCol := findColumn(cols, constants.RosterRateColumns)
	if rateCol < 0 {
		return nil, fmt.Errorf("%w: expected one of %v", ErrNoRateColumn, constants.RosterRateColumns)
	}
	typeCol := -1
	for i, c := range cols {
		if strings.Contains(c, constants.RosterTypeColumnHint) {
			typeCol = i
			break
		}
	}
	if typeCol < 0 {
		diag.Warnf("no column containing %q found in %s; vehicle type will be %s for every driver",
			constants.RosterTypeColumnHint, source, constants.NotAvailable)
	}

	r := &Roster{index: make(map[string]int, len(rows))}
	for idx, row := range rows {
		if isBlankRow(row) {
			continue
		}
		line := idx + 2 // 1-based, after the header row

		name := CanonicalName(cell(row, nameCol))
		if name == "" {
			diag.Warnf("invalid or empty driver name on line %d of %s; skipping row", line, source)
			continue
		}

		rate, ok := parseRate(cell(row, rateCol))
		if !ok {
			diag.Warnf("invalid daily rate (%q) for driver %s on line %d of %s; using 0",
				cell(row, rateCol), name, line, source)
			rate = decimal.Zero
		}

		vehicle := constants.NotAvailable
		if typeCol >= 0 {
			if v := strings.TrimSpace(cell(row, typeCol)); v != "" {
				vehicle = v
			} else {
				diag.Warnf("invalid or empty vehicle type for driver %s on line %d of %s; using %s",
					name, line, source, constants.NotAvailable)
			}
		}

		if _, dup := r.index[name]; dup {
			diag.Warnf("driver %s appears again on line %d of %s; the later row replaces the earlier one", name, line, source)
		}
		if err := r.put(Entry{Name: name, DailyRate: rate, VehicleType: vehicle}); err != nil {
			return nil, err
		}
	}

	if r.Len() == 0 {
		return nil, ErrNoDrivers
	}
	return r, nil
}

func findColumn(cols []string, aliases []string) int {
	for _, alias := range aliases {
		for i, c := range cols {
			if c == alias {
				return i
			}
		}
	}
	return -1
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}

func isBlankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// parseRate accepts raw spreadsheet numbers ("150.5") and Brazilian-formatted
// text ("R$ 1.234,56"). Blank, unparsable and negative values are rejected.
func parseRate(s string) (decimal.Decimal, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, false
	}
	if d, err := decimal.NewFromString(s); err == nil {
		return d, !d.IsNegative()
	}
	s = strings.TrimSpace(strings.TrimPrefix(s, "R$"))
	s = strings.ReplaceAll(strings.ReplaceAll(s, ".", ""), ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil || d.IsNegative() {
		return decimal.Zero, false
	}
	return d, true
}
