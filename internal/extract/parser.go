package extract

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/joseph-ayodele/route-settlement/constants"
	"github.com/joseph-ayodele/route-settlement/internal/diagnostics"
	"github.com/joseph-ayodele/route-settlement/internal/document"
	"github.com/joseph-ayodele/route-settlement/internal/normalize"
)

var (
	reDate   = regexp.MustCompile(`\b\d{2}/\d{2}/\d{4}\b`)
	reAmount = regexp.MustCompile(`R\$\s*([\d.,]+)`)
)

// Parser extracts a Result from one document.
type Parser struct {
	logger *slog.Logger
}

func NewParser(logger *slog.Logger) *Parser {
	if logger == nil {
		logger = slog.Default()
	}
	return &Parser{logger: logger}
}

// Extract runs the table pass and then the line pass over doc. Malformed dates
// and amounts drop only the event they belong to and are recorded in diag.
func (p *Parser) Extract(doc document.Document, diag *diagnostics.Collector) Result {
	res := Empty()
	p.tablePass(doc, res, diag)
	p.linePass(doc, &res, diag)
	return res
}

func (p *Parser) tablePass(doc document.Document, res Result, diag *diagnostics.Collector) {
	for _, row := range doc.TableRows {
		flat := strings.Join(row, " ")
		dateStr := reDate.FindString(flat)
		amount := reAmount.FindStringSubmatch(flat)
		if dateStr == "" || amount == nil {
			continue
		}
		date, err := ParseDate(dateStr)
		if err != nil {
			diag.Warnf("invalid date in surcharge table row %q of %s", flat, doc.Name)
			continue
		}
		value, err := ParseAmount(amount[1])
		if err != nil {
			diag.Warnf("invalid amount in surcharge table row %q of %s", flat, doc.Name)
			continue
		}
		res.Surcharges.Add(date, value)
		p.logger.Debug("table surcharge found", "file", doc.Name, "date", date.Format(constants.DateLayout), "amount", value.String())
	}
}

func (p *Parser) linePass(doc document.Document, res *Result, diag *diagnostics.Collector) {
	state := StateScanning
	for _, line := range doc.Lines {
		folded := normalize.Fold(line)
		action, next := Step(state, res.HasName, folded)
		state = next

		switch action {
		case ActionCaptureName:
			parts := strings.Split(line, ":")
			if name := strings.ToUpper(strings.TrimSpace(parts[len(parts)-1])); name != "" {
				res.DriverName = name
				res.HasName = true
				p.logger.Info("driver identified", "file", doc.Name, "driver", name)
			}
		case ActionEnterBonus:
		case ActionBonusLine:
			p.bonusLine(doc.Name, line, res, diag)
		case ActionEvent:
			p.eventLine(doc.Name, line, res, diag)
		}
	}
}

func (p *Parser) bonusLine(name, line string, res *Result, diag *diagnostics.Collector) {
	dateStr := reDate.FindString(line)
	if dateStr == "" || !strings.Contains(line, constants.BonusAmountLiteral) {
		return
	}
	date, err := ParseDate(dateStr)
	if err != nil {
		diag.Warnf("invalid bonus date in line %q of %s", line, name)
		return
	}
	res.Bonuses.Add(date)
}

func (p *Parser) eventLine(name, line string, res *Result, diag *diagnostics.Collector) {
	dateStr := reDate.FindString(line)
	if dateStr == "" {
		return
	}
	date, err := ParseDate(dateStr)
	if err != nil {
		diag.Warnf("invalid date in line %q of %s", line, name)
		return
	}

	delivered := normalize.Contains(line, constants.MarkerDelivered)
	failed := normalize.Contains(line, constants.MarkerFailed)
	switch {
	case delivered:
		res.Deliveries.Add(date, 1, 0)
	case failed:
		res.Deliveries.Add(date, 0, 1)
	default:
		amount := reAmount.FindStringSubmatch(line)
		if amount == nil {
			return
		}
		value, err := ParseAmount(amount[1])
		if err != nil {
			diag.Warnf("invalid surcharge amount in line %q of %s", line, name)
			return
		}
		res.Surcharges.Add(date, value)
		p.logger.Debug("line surcharge found", "file", name, "date", date.Format(constants.DateLayout), "amount", value.String())
	}
}

// ParseDate parses a DD/MM/YYYY date.
func ParseDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation(constants.DateLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return Day(t), nil
}

// ParseAmount parses a Brazilian-formatted number: "." groups thousands and
// "," separates decimals, so "1.234,56" is 1234.56.
func ParseAmount(s string) (decimal.Decimal, error) {
	normalized := strings.ReplaceAll(strings.ReplaceAll(s, ".", ""), ",", ".")
	d, err := decimal.NewFromString(normalized)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse amount %q: %w", s, err)
	}
	return d, nil
}
