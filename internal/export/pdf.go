package export

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/shopspring/decimal"

	"github.com/joseph-ayodele/route-settlement/internal/settlement"
)

type pdfColumn struct {
	title string
	width float64
	align string
	value func(settlement.Row) string
}

var summaryColumns = []pdfColumn{
	{"Date", 28, "C", func(r settlement.Row) string { return r.Label() }},
	{"Delivered", 24, "R", func(r settlement.Row) string { return fmt.Sprint(r.Delivered) }},
	{"Failed", 20, "R", func(r settlement.Row) string { return fmt.Sprint(r.Failed) }},
	{"Revenue", 32, "R", func(r settlement.Row) string { return money(r.DeliveryRevenue) }},
	{"Discount", 28, "R", func(r settlement.Row) string { return money(r.Discount) }},
	{"Calc. Surcharge", 34, "R", func(r settlement.Row) string { return money(r.CalculatedSurcharge) }},
	{"Paid Surcharge", 34, "R", func(r settlement.Row) string { return money(r.PaidSurcharge) }},
	{"Day Total", 32, "R", func(r settlement.Row) string { return money(r.DayTotal) }},
	{"Bonus", 26, "R", func(r settlement.Row) string { return money(r.Bonus) }},
}

// SummaryPDF renders an overview page listing each driver's totals followed by
// one page per driver with the daily rows.
func (s *Service) SummaryPDF(settlements []settlement.Settlement, generated time.Time) ([]byte, error) {
	pdf := gofpdf.New("L", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFont("Arial", "", 12)
	pdf.AddPage()
	pdf.Cell(0, 8, "Driver Settlement Summary")
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Generated: %s", generated.Format(time.RFC3339)))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Drivers: %d", len(settlements)))
	pdf.Ln(8)

	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(80, 6, "Driver", "1", 0, "C", false, 0, "")
	pdf.CellFormat(30, 6, "Vehicle", "1", 0, "C", false, 0, "")
	pdf.CellFormat(24, 6, "Days", "1", 0, "C", false, 0, "")
	pdf.CellFormat(36, 6, "Day Total", "1", 0, "C", false, 0, "")
	pdf.CellFormat(30, 6, "Bonus", "1", 0, "C", false, 0, "")
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 10)
	grand := decimal.Zero
	for _, stl := range settlements {
		total := stl.Total()
		pdf.CellFormat(80, 6, tr(stl.Driver), "1", 0, "L", false, 0, "")
		pdf.CellFormat(30, 6, tr(total.VehicleType), "1", 0, "C", false, 0, "")
		pdf.CellFormat(24, 6, fmt.Sprint(len(stl.Days())), "1", 0, "R", false, 0, "")
		pdf.CellFormat(36, 6, money(total.DayTotal), "1", 0, "R", false, 0, "")
		pdf.CellFormat(30, 6, money(total.Bonus), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
		grand = grand.Add(total.DayTotal).Add(total.Bonus)
	}
	pdf.Ln(4)
	pdf.Cell(0, 6, fmt.Sprintf("Grand total (day totals + bonus): %s", money(grand)))

	for _, stl := range settlements {
		pdf.AddPage()
		pdf.SetFont("Arial", "", 12)
		pdf.Cell(0, 8, tr(stl.Driver))
		pdf.Ln(8)
		pdf.SetFont("Arial", "", 10)
		pdf.Cell(0, 6, tr(fmt.Sprintf("Vehicle: %s", stl.Total().VehicleType)))
		pdf.Ln(8)

		pdf.SetFont("Arial", "B", 9)
		for _, c := range summaryColumns {
			pdf.CellFormat(c.width, 6, c.title, "1", 0, "C", false, 0, "")
		}
		pdf.Ln(-1)
		for _, row := range stl.Rows {
			style, fill := "", false
			if row.IsTotal {
				style, fill = "B", true
				pdf.SetFillColor(255, 255, 0)
			}
			pdf.SetFont("Arial", style, 9)
			for _, c := range summaryColumns {
				pdf.CellFormat(c.width, 6, c.value(row), "1", 0, c.align, fill, 0, "")
			}
			pdf.Ln(-1)
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("pdf output: %w", err)
	}
	s.logger.Info("export.pdf.ok", "drivers", len(settlements), "bytes", buf.Len())
	return buf.Bytes(), nil
}

// WriteSummaryPDF renders the summary and writes it to path.
func (s *Service) WriteSummaryPDF(path string, settlements []settlement.Settlement, generated time.Time) error {
	data, err := s.SummaryPDF(settlements, generated)
	if err != nil {
		return err
	}
	return writeFile(path, data)
}

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}
