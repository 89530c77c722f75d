package core

import (
	"math"
	"strings"
	"testing"
)

func TestScaleChart(t *testing.T) {
	chart := ScaleChart([]ChartPoint{
		{Month: 1, Income: dec("200"), Expense: dec("50")},
		{Month: 2, Income: dec("100"), Expense: dec("400")},
	})
	if !chart.Max.Equal(dec("400")) {
		t.Fatalf("max = %s, want 400", chart.Max)
	}
	want := [][2]float64{{50, 12.5}, {25, 100}}
	for i, bar := range chart.Bars {
		if math.Abs(bar.IncomePct-want[i][0]) > 1e-9 || math.Abs(bar.ExpensePct-want[i][1]) > 1e-9 {
			t.Fatalf("bar %d = %v/%v, want %v", i, bar.IncomePct, bar.ExpensePct, want[i])
		}
	}
	if chart.Bars[0].Label != "Jan" || !strings.Contains(chart.Bars[1].Tooltip, "expense 400.00") {
		t.Fatalf("unexpected bar metadata: %+v", chart.Bars)
	}
}

func TestScaleChartFloorsMaxAtOne(t *testing.T) {
	chart := ScaleChart([]ChartPoint{{Month: 1, Income: dec("0"), Expense: dec("0.5")}})
	if !chart.Max.Equal(dec("1")) {
		t.Fatalf("max = %s, want 1", chart.Max)
	}
	if chart.Bars[0].IncomePct != 0 || chart.Bars[0].ExpensePct != 50 {
		t.Fatalf("unexpected heights: %+v", chart.Bars[0])
	}

	empty := ScaleChart(nil)
	if !empty.Max.Equal(dec("1")) || len(empty.Bars) != 0 {
		t.Fatalf("unexpected empty chart: %+v", empty)
	}
}

func TestBarHeightClamps(t *testing.T) {
	cases := []struct {
		value, max string
		want       float64
	}{
		{"-10", "100", 0},
		{"150", "100", 100},
		{"10", "0", 0},
		{"33", "100", 33},
	}
	for _, tc := range cases {
		if got := BarHeight(dec(tc.value), dec(tc.max)); math.Abs(got-tc.want) > 1e-9 {
			t.Errorf("BarHeight(%s, %s) = %v, want %v", tc.value, tc.max, got, tc.want)
		}
	}
}
