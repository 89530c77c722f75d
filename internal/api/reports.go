package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"easyfinance/internal/core"
)

// ExportKind selects the file format of a report export.
type ExportKind string

const (
	ExportExcel ExportKind = "excel"
	ExportPDF   ExportKind = "pdf"
)

var ErrUnknownExport = errors.New("api: export kind must be excel or pdf")

func ParseExportKind(s string) (ExportKind, error) {
	switch k := ExportKind(s); k {
	case ExportExcel, ExportPDF:
		return k, nil
	}
	return "", ErrUnknownExport
}

// reportEndpoint returns the path and query for a period. The yearly
// sentinel switches both.
func reportEndpoint(p core.ReportPeriod) (string, url.Values) {
	q := url.Values{}
	q.Set("year", strconv.Itoa(p.Year))
	if p.IsYearly() {
		return "/reports/yearly", q
	}
	q.Set("month", strconv.Itoa(p.Month))
	return "/reports/monthly", q
}

// Report fetches the monthly or yearly report. A body whose data field is
// not an array yields an empty report and ErrMalformedList.
func (c *Client) Report(ctx context.Context, token string, p core.ReportPeriod) (core.Report, error) {
	if err := p.Validate(); err != nil {
		return core.Report{}, err
	}
	path, q := reportEndpoint(p)

	resp, err := c.Do(ctx, Request{Method: http.MethodGet, Path: path, Query: q, Token: token})
	if err != nil {
		return core.Report{}, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return core.Report{}, fmt.Errorf("read %s response: %w", path, err)
	}
	var raw struct {
		Month int `json:"month"`
		Year  int `json:"year"`
	}
	// The month/year echo is optional; a non-object body is caught by decodeList.
	_ = json.Unmarshal(data, &raw)

	report := core.Report{Month: p.Month, Year: p.Year}
	if raw.Year != 0 {
		report.Year = raw.Year
	}
	if raw.Month != 0 {
		report.Month = raw.Month
	}
	report.Rows, err = decodeList[core.ReportRow](data)
	return report, err
}

// ExportPath returns the backend path and query of a report file.
func ExportPath(kind ExportKind, p core.ReportPeriod) (string, url.Values) {
	path, q := reportEndpoint(p)
	return path + "/" + string(kind), q
}

// Export streams a report file. The caller must close the response body.
func (c *Client) Export(ctx context.Context, token string, kind ExportKind, p core.ReportPeriod) (*http.Response, error) {
	if _, err := ParseExportKind(string(kind)); err != nil {
		return nil, err
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	path, q := ExportPath(kind, p)
	return c.Do(ctx, Request{Method: http.MethodGet, Path: path, Query: q, Token: token, Accept: "*/*"})
}
