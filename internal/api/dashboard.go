package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"easyfinance/internal/core"
)

// DashboardSummary fetches totals for a year, or for one month of it when
// month is non-zero.
func (c *Client) DashboardSummary(ctx context.Context, token string, month, year int) (core.DashboardSummary, error) {
	q := url.Values{}
	if month != core.YearlyMonth {
		q.Set("month", strconv.Itoa(month))
	}
	q.Set("year", strconv.Itoa(year))

	var out core.DashboardSummary
	err := c.doJSON(ctx, http.MethodGet, "/dashboard/summary", token, q, nil, &out)
	return out, err
}

// DashboardChart fetches the per-month income and expense points of a year.
func (c *Client) DashboardChart(ctx context.Context, token string, year int) ([]core.ChartPoint, error) {
	q := url.Values{}
	q.Set("year", strconv.Itoa(year))
	return getList[core.ChartPoint](ctx, c, "/dashboard/chart", token, q)
}
