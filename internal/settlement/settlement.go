// Package settlement computes a driver's per-day and total settlement from the
// merged document data and the driver's roster entry.
package settlement

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/joseph-ayodele/route-settlement/constants"
	"github.com/joseph-ayodele/route-settlement/internal/extract"
	"github.com/joseph-ayodele/route-settlement/internal/roster"
)

// Columns are the output column names, in output order.
var Columns = []string{
	"Date",
	"Driver",
	"Vehicle Type",
	"Delivered",
	"Failed",
	"Delivery Revenue",
	"Discount",
	"Calculated Surcharge",
	"Paid Surcharge",
	"Day Total",
	"Bonus",
}

// Params are the monetary constants of a run.
type Params struct {
	UnitDeliveryValue decimal.Decimal
	DailyBonus        decimal.Decimal
}

// Row is one settlement line: a calendar date, or the trailing total.
type Row struct {
	Date                time.Time
	IsTotal             bool
	Driver              string
	VehicleType         string
	Delivered           int
	Failed              int
	DeliveryRevenue     decimal.Decimal
	Discount            decimal.Decimal
	CalculatedSurcharge decimal.Decimal
	PaidSurcharge       decimal.Decimal
	DayTotal            decimal.Decimal
	Bonus               decimal.Decimal
}

// Label is the Date column value: DD/MM/YYYY, or "Total".
func (r Row) Label() string {
	if r.IsTotal {
		return constants.TotalLabel
	}
	return r.Date.Format(constants.DateLayout)
}

// Values returns the row in Columns order. Amounts are decimals.
func (r Row) Values() []any {
	return []any{
		r.Label(),
		r.Driver,
		r.VehicleType,
		r.Delivered,
		r.Failed,
		r.DeliveryRevenue,
		r.Discount,
		r.CalculatedSurcharge,
		r.PaidSurcharge,
		r.DayTotal,
		r.Bonus,
	}
}

// Settlement is the result for one driver: dated rows ascending, total last.
type Settlement struct {
	Driver string
	Rows   []Row
}

// Days returns the dated rows.
func (s Settlement) Days() []Row {
	if len(s.Rows) == 0 {
		return nil
	}
	return s.Rows[:len(s.Rows)-1]
}

// Total returns the trailing total row.
func (s Settlement) Total() Row {
	if len(s.Rows) == 0 {
		return Row{IsTotal: true, Driver: s.Driver}
	}
	return s.Rows[len(s.Rows)-1]
}

// Calculator applies Params to merged document data.
type Calculator struct {
	params Params
}

func NewCalculator(p Params) *Calculator {
	return &Calculator{params: p}
}

// Compute builds the settlement of one driver. For each date with deliveries
// or surcharges:
//
//	revenue    = delivered * unit
//	discount   = failed * unit
//	calculated = max(0, dailyRate - revenue - discount)
//	dayTotal   = revenue + paid - discount
//	bonus      = dailyBonus when the date is a bonus date
//
// The total row sums every column except the calculated surcharge, which is
// a per-day figure and stays 0. Its bonus counts only bonus dates that also
// have a row.
func (c *Calculator) Compute(merged extract.Result, entry roster.Entry) Settlement {
	unit := c.params.UnitDeliveryValue
	dates := merged.Dates()

	s := Settlement{Driver: entry.Name, Rows: make([]Row, 0, len(dates)+1)}
	total := Row{
		IsTotal:             true,
		Driver:              entry.Name,
		VehicleType:         entry.VehicleType,
		DeliveryRevenue:     decimal.Zero,
		Discount:            decimal.Zero,
		CalculatedSurcharge: decimal.Zero,
		PaidSurcharge:       decimal.Zero,
		DayTotal:            decimal.Zero,
		Bonus:               decimal.Zero,
	}
	bonusDays := int64(0)

	for _, d := range dates {
		stats := merged.Deliveries.Get(d)
		revenue := unit.Mul(decimal.NewFromInt(int64(stats.Delivered)))
		discount := unit.Mul(decimal.NewFromInt(int64(stats.Failed)))
		paid := merged.Surcharges.Get(d)
		calculated := decimal.Max(decimal.Zero, entry.DailyRate.Sub(revenue).Sub(discount))
		dayTotal := revenue.Add(paid).Sub(discount)
		bonus := decimal.Zero
		if merged.Bonuses.Has(d) {
			bonus = c.params.DailyBonus
			bonusDays++
		}

		s.Rows = append(s.Rows, Row{
			Date:                d,
			Driver:              entry.Name,
			VehicleType:         entry.VehicleType,
			Delivered:           stats.Delivered,
			Failed:              stats.Failed,
			DeliveryRevenue:     revenue,
			Discount:            discount,
			CalculatedSurcharge: calculated,
			PaidSurcharge:       paid,
			DayTotal:            dayTotal,
			Bonus:               bonus,
		})

		total.Delivered += stats.Delivered
		total.Failed += stats.Failed
		total.DeliveryRevenue = total.DeliveryRevenue.Add(revenue)
		total.Discount = total.Discount.Add(discount)
		total.PaidSurcharge = total.PaidSurcharge.Add(paid)
		total.DayTotal = total.DayTotal.Add(dayTotal)
	}
	total.Bonus = c.params.DailyBonus.Mul(decimal.NewFromInt(bonusDays))

	s.Rows = append(s.Rows, total)
	return s
}
