package http

import (
	"errors"
	"net/http"

	"golang.org/x/sync/errgroup"

	"easyfinance/internal/api"
	"easyfinance/internal/core"
	applog "easyfinance/internal/log"
)

type dashboardPage struct {
	pageMeta
	Month        int
	Year         int
	Months       []monthOption
	Years        []int
	Summary      *core.DashboardSummary
	SummaryError string
	Chart        *core.Chart
	ChartError   string
}

// handleDashboard loads the summary and the yearly chart concurrently. A
// failure of one widget does not hide the other.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	now := s.now()
	params := ParseMonthParams(r.URL.Query(), now)
	tok := token(r)

	var (
		g                    errgroup.Group
		summary              core.DashboardSummary
		points               []core.ChartPoint
		summaryErr, chartErr error
	)
	g.Go(func() error {
		summary, summaryErr = s.backend.DashboardSummary(ctx, tok, params.Month, params.Year)
		return summaryErr
	})
	g.Go(func() error {
		points, chartErr = s.backend.DashboardChart(ctx, tok, params.Year)
		return chartErr
	})
	_ = g.Wait()

	if errors.Is(summaryErr, api.ErrUnauthorized) || errors.Is(chartErr, api.ErrUnauthorized) {
		s.expireSession(w, r)
		return
	}

	page := dashboardPage{
		pageMeta: pageMeta{Title: "Dashboard", Active: "/dashboard", Authenticated: true},
		Month:    params.Month,
		Year:     params.Year,
		Months:   monthOptions(),
		Years:    yearOptions(now.Year(), params.Year),
	}
	logger := applog.FromContext(ctx)

	if summaryErr != nil {
		s.backendFailed(ctx, applog.ComponentDashboard, applog.OpRead, summaryErr)
		page.SummaryError = api.MessageOf(summaryErr, "Summary is not available right now.")
	} else {
		if !summary.Consistent() {
			logger.WarnContext(ctx, "Dashboard balance does not match totals",
				applog.FieldMonth, params.Month,
				applog.FieldYear, params.Year,
				"balance", summary.Balance.String())
		}
		page.Summary = &summary
	}

	if chartErr != nil {
		s.backendFailed(ctx, applog.ComponentDashboard, applog.OpRead, chartErr)
		page.ChartError = api.MessageOf(chartErr, "Chart is not available right now.")
	} else {
		chart := core.ScaleChart(points)
		page.Chart = &chart
	}

	s.render(w, r, http.StatusOK, pageDashboard, page)
}
