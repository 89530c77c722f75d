package core

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Bar is one rendered month of the income/expense chart.
type Bar struct {
	Month      int
	Label      string
	Income     decimal.Decimal
	Expense    decimal.Decimal
	IncomePct  float64
	ExpensePct float64
	Tooltip    string
}

// Chart is the display model of the dashboard chart.
type Chart struct {
	Max  decimal.Decimal
	Bars []Bar
}

var hundred = decimal.NewFromInt(100)

// ScaleChart computes bar heights as value/max*100 where max is the largest
// income or expense value, floored at 1 so an empty year never divides by zero.
func ScaleChart(points []ChartPoint) Chart {
	maxValue := decimal.NewFromInt(1)
	for _, p := range points {
		if p.Income.GreaterThan(maxValue) {
			maxValue = p.Income
		}
		if p.Expense.GreaterThan(maxValue) {
			maxValue = p.Expense
		}
	}

	chart := Chart{Max: maxValue, Bars: make([]Bar, 0, len(points))}
	for _, p := range points {
		label := MonthLabel(p.Month)
		chart.Bars = append(chart.Bars, Bar{
			Month:      p.Month,
			Label:      label,
			Income:     p.Income,
			Expense:    p.Expense,
			IncomePct:  BarHeight(p.Income, maxValue),
			ExpensePct: BarHeight(p.Expense, maxValue),
			Tooltip: fmt.Sprintf("%s: income %s, expense %s",
				label, FormatAmount(p.Income), FormatAmount(p.Expense)),
		})
	}
	return chart
}

// BarHeight returns value/max*100 clamped to [0, 100].
func BarHeight(value, maxValue decimal.Decimal) float64 {
	if !maxValue.IsPositive() {
		return 0
	}
	pct := value.Div(maxValue).Mul(hundred).InexactFloat64()
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return pct
}
