// Package http provides HTTP server and handler implementations.
//
// This file implements utilities for parsing and validating HTTP request data.
// It reduces code duplication by providing reusable functions for period
// extraction, form parsing and upload handling.

package http

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"easyfinance/internal/core"
)

// MonthParams holds parsed year/month values from request parameters.
type MonthParams struct {
	Year  int
	Month int
}

func queryInt(query url.Values, key string) (int, bool) {
	v := strings.TrimSpace(query.Get(key))
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

// ParseMonthParams extracts year and month from query parameters. The
// defaults are the whole year (core.YearlyMonth) of now; out of range values
// fall back to them.
func ParseMonthParams(query url.Values, now time.Time) MonthParams {
	params := MonthParams{
		Year:  now.Year(),
		Month: core.YearlyMonth,
	}

	if y, ok := queryInt(query, "year"); ok && y > 0 {
		params.Year = y
	}
	if m, ok := queryInt(query, "month"); ok && m >= core.YearlyMonth && m <= 12 {
		params.Month = m
	}

	return params
}

// ParseReportPeriod reads month and year for a report. A missing month
// selects the whole year; a missing year means the year of now. Unlike
// ParseMonthParams, bad values are reported instead of replaced.
func ParseReportPeriod(query url.Values, now time.Time) (core.ReportPeriod, error) {
	p := core.ReportPeriod{Month: core.YearlyMonth, Year: now.Year()}

	if v := strings.TrimSpace(query.Get("year")); v != "" {
		y, err := strconv.Atoi(v)
		if err != nil {
			return p, core.ErrInvalidYear
		}
		p.Year = y
	}
	if v := strings.TrimSpace(query.Get("month")); v != "" {
		m, err := strconv.Atoi(v)
		if err != nil {
			return p, core.ErrInvalidMonth
		}
		p.Month = m
	}

	return p, p.Validate()
}

// ParseFormOrFail parses the request form and returns an error response on failure.
// Returns nil on success.
func ParseFormOrFail(r *http.Request) *HTMXResponseBuilder {
	if err := r.ParseForm(); err != nil {
		if isTooLarge(err) {
			return ErrorResponse(http.StatusRequestEntityTooLarge, "Request is too large")
		}
		return BadRequestError("Invalid request format")
	}
	return nil
}

func isTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr)
}

// multipartMemory is how much of a multipart body is kept in memory before
// spilling to temporary files.
const multipartMemory = 8 << 20

// ParseMultipartForm parses a multipart or urlencoded form. A form posted
// without multipart encoding is accepted so the page still works when the
// browser drops the file input.
func ParseMultipartForm(r *http.Request) error {
	err := r.ParseMultipartForm(multipartMemory)
	if errors.Is(err, http.ErrNotMultipart) {
		return r.ParseForm()
	}
	return err
}

// ReadUpload returns the file posted as field, or nil when none was chosen.
// At most core.MaxImageSize+1 bytes are read so the size guard still sees an
// oversized file.
func ReadUpload(r *http.Request, field string) (*core.Upload, error) {
	if r.MultipartForm == nil {
		return nil, nil
	}
	file, header, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", field, err)
	}
	defer file.Close()

	if header.Filename == "" && header.Size == 0 {
		return nil, nil
	}
	return readUploadFile(file, header)
}

func readUploadFile(file multipart.File, header *multipart.FileHeader) (*core.Upload, error) {
	data, err := io.ReadAll(io.LimitReader(file, core.MaxImageSize+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	size := header.Size
	if size == 0 {
		size = int64(len(data))
	}
	return &core.Upload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        size,
		Data:        data,
	}, nil
}
