package core

import (
	"errors"

	"github.com/shopspring/decimal"
)

// DashboardSummary is the aggregate computed by the backend for a period.
type DashboardSummary struct {
	TotalIncome  decimal.Decimal `json:"total_income"`
	TotalExpense decimal.Decimal `json:"total_expense"`
	Balance      decimal.Decimal `json:"balance"`
}

// Consistent reports whether balance == total_income - total_expense.
func (s DashboardSummary) Consistent() bool {
	return s.Balance.Equal(s.TotalIncome.Sub(s.TotalExpense))
}

// ChartPoint is one month of the yearly income/expense chart.
type ChartPoint struct {
	Month   int             `json:"month"`
	Income  decimal.Decimal `json:"income"`
	Expense decimal.Decimal `json:"expense"`
}

// ReportRow is a single transaction line of a monthly or yearly report.
type ReportRow struct {
	Date        Date            `json:"date"`
	Type        TxType          `json:"type"`
	Amount      decimal.Decimal `json:"amount"`
	Category    string          `json:"category"`
	Description string          `json:"description"`
}

// Report is the body returned by the report endpoints. Month is zero for
// yearly reports.
type Report struct {
	Month int         `json:"month,omitempty"`
	Year  int         `json:"year"`
	Rows  []ReportRow `json:"data"`
}

// ReportTotals are derived client-side from already fetched rows.
type ReportTotals struct {
	Income  decimal.Decimal
	Expense decimal.Decimal
	Balance decimal.Decimal
}

// Totals sums the report rows partitioned by type. Rows with an unknown
// type are ignored.
func (r Report) Totals() ReportTotals {
	return TotalsOf(r.Rows)
}

func TotalsOf(rows []ReportRow) ReportTotals {
	t := ReportTotals{Income: decimal.Zero, Expense: decimal.Zero}
	for _, row := range rows {
		switch row.Type {
		case Income:
			t.Income = t.Income.Add(row.Amount)
		case Expense:
			t.Expense = t.Expense.Add(row.Amount)
		}
	}
	t.Balance = t.Income.Sub(t.Expense)
	return t
}

// YearlyMonth is the month sentinel that selects the whole-year report.
const YearlyMonth = 0

var (
	ErrInvalidMonth = errors.New("month must be between 0 (whole year) and 12")
	ErrInvalidYear  = errors.New("year must be positive")
)

// ReportPeriod selects a report. Month YearlyMonth means the whole year.
type ReportPeriod struct {
	Month int
	Year  int
}

func (p ReportPeriod) IsYearly() bool {
	return p.Month == YearlyMonth
}

func (p ReportPeriod) Validate() error {
	if p.Month < 0 || p.Month > 12 {
		return ErrInvalidMonth
	}
	if p.Year <= 0 {
		return ErrInvalidYear
	}
	return nil
}

var monthLabels = [...]string{"", "Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

// MonthLabel returns the short English month name, or "" when m is out of range.
func MonthLabel(m int) string {
	if m < 1 || m > 12 {
		return ""
	}
	return monthLabels[m]
}
