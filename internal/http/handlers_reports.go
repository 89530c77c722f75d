package http

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	"easyfinance/internal/api"
	"easyfinance/internal/core"
	applog "easyfinance/internal/log"
)

type exportLink struct {
	Label  string
	URL    string
	NewTab bool
}

type reportsPage struct {
	pageMeta
	Period      core.ReportPeriod
	PeriodLabel string
	Months      []monthOption
	Years       []int
	Rows        []core.ReportRow
	Totals      core.ReportTotals
	Exports     []exportLink
}

func periodLabel(p core.ReportPeriod) string {
	if p.IsYearly() {
		return strconv.Itoa(p.Year)
	}
	return core.MonthLabel(p.Month) + " " + strconv.Itoa(p.Year)
}

func periodQuery(p core.ReportPeriod) string {
	q := url.Values{}
	q.Set("month", strconv.Itoa(p.Month))
	q.Set("year", strconv.Itoa(p.Year))
	return q.Encode()
}

func exportLinks(p core.ReportPeriod) []exportLink {
	q := periodQuery(p)
	return []exportLink{
		{Label: "Export Excel", URL: "/reports/export/" + string(api.ExportExcel) + "?" + q},
		{Label: "Export PDF", URL: "/reports/export/" + string(api.ExportPDF) + "?" + q, NewTab: true},
	}
}

func (s *Server) handleReports(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	now := s.now()
	page := reportsPage{
		pageMeta: pageMeta{Title: "Reports", Active: "/reports", Authenticated: true},
		Months:   monthOptions(),
		Rows:     []core.ReportRow{},
		Totals:   core.TotalsOf(nil),
	}

	period, err := ParseReportPeriod(r.URL.Query(), now)
	if err != nil {
		page.Period = core.ReportPeriod{Month: core.YearlyMonth, Year: now.Year()}
		page.PeriodLabel = periodLabel(page.Period)
		page.Years = yearOptions(now.Year(), now.Year())
		page.Error = capitalize(err.Error())
		s.render(w, r, http.StatusBadRequest, pageReports, page)
		return
	}
	page.Period = period
	page.PeriodLabel = periodLabel(period)
	page.Years = yearOptions(now.Year(), period.Year)
	page.Exports = exportLinks(period)

	report, err := s.backend.Report(ctx, token(r), period)
	if s.handleUnauthorized(w, r, err) {
		return
	}
	switch {
	case errors.Is(err, api.ErrMalformedList):
		s.backendFailed(ctx, applog.ComponentReports, applog.OpRead, err)
		page.Error = "The report returned by the server could not be read."
	case err != nil:
		s.backendFailed(ctx, applog.ComponentReports, applog.OpRead, err)
		page.Error = api.MessageOf(err, "Report is not available right now.")
	default:
		page.Rows = report.Rows
		page.Totals = report.Totals()
	}

	s.render(w, r, http.StatusOK, pageReports, page)
}

// handleExport proxies a report file from the backend. Excel files are
// downloaded, PDFs are shown inline.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	kind, err := api.ParseExportKind(chi.URLParam(r, "kind"))
	if err != nil {
		s.renderError(w, r, http.StatusNotFound, "Unknown export format.")
		return
	}
	period, err := ParseReportPeriod(r.URL.Query(), s.now())
	if err != nil {
		s.renderError(w, r, http.StatusBadRequest, capitalize(err.Error()))
		return
	}

	resp, err := s.backend.Export(ctx, token(r), kind, period)
	if s.handleUnauthorized(w, r, err) {
		return
	}
	if err != nil {
		s.backendFailed(ctx, applog.ComponentReports, applog.OpExport, err)
		s.renderError(w, r, backendStatus(err), api.MessageOf(err, "The export could not be generated."))
		return
	}
	defer resp.Body.Close()

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = exportContentType(kind)
	}
	disposition := "attachment"
	if kind == api.ExportPDF {
		disposition = "inline"
	}

	h := w.Header()
	h.Set("Content-Type", contentType)
	h.Set("Content-Disposition", mime.FormatMediaType(disposition, map[string]string{
		"filename": exportFilename(kind, period),
	}))
	h.Set("Cache-Control", "no-store")
	if cl := resp.Header.Get("Content-Length"); cl != "" {
		h.Set("Content-Length", cl)
	}
	w.WriteHeader(http.StatusOK)

	n, err := io.Copy(w, resp.Body)
	logger := applog.FromContext(ctx)
	if err != nil {
		logger.WarnContext(ctx, "Export stream interrupted", "error", err, "bytes", n)
		return
	}
	s.appMetrics.exports.Add(1)
	logger.InfoContext(ctx, "Report exported",
		applog.FieldOperation, applog.OpExport,
		applog.FieldExportKind, string(kind),
		applog.FieldMonth, period.Month,
		applog.FieldYear, period.Year,
		"bytes", n)
}

func exportContentType(kind api.ExportKind) string {
	if kind == api.ExportPDF {
		return "application/pdf"
	}
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

func exportFilename(kind api.ExportKind, p core.ReportPeriod) string {
	ext := "xlsx"
	if kind == api.ExportPDF {
		ext = "pdf"
	}
	if p.IsYearly() {
		return fmt.Sprintf("report-%d.%s", p.Year, ext)
	}
	return fmt.Sprintf("report-%d-%02d.%s", p.Year, p.Month, ext)
}
