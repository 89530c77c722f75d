package http

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"strconv"

	"github.com/shopspring/decimal"

	"easyfinance/internal/core"
	applog "easyfinance/internal/log"
)

// Page template names. Each page is parsed together with the shared layout
// and partials so every page can define its own "content" block.
const (
	pageLogin        = "login"
	pageRegister     = "register"
	pageDashboard    = "dashboard"
	pageCategories   = "categories"
	pageTransactions = "transactions"
	pageReports      = "reports"
	pageConfirm      = "confirm_delete"
	pageError        = "error"
)

var pageNames = []string{
	pageLogin, pageRegister, pageDashboard, pageCategories,
	pageTransactions, pageReports, pageConfirm, pageError,
}

var errUnknownPage = errors.New("unknown page template")

type pageTemplate struct {
	name string
	tmpl *template.Template
}

var templateFuncs = template.FuncMap{
	"amount":     core.FormatAmount,
	"monthLabel": core.MonthLabel,
	"pct": func(f float64) string {
		return strconv.FormatFloat(f, 'f', 1, 64)
	},
	"negative": func(d decimal.Decimal) bool {
		return d.IsNegative()
	},
}

func loadPages(fsys fs.FS) (map[string]*pageTemplate, error) {
	pages := make(map[string]*pageTemplate, len(pageNames))
	for _, name := range pageNames {
		t, err := template.New(name).Funcs(templateFuncs).ParseFS(fsys,
			"templates/layout.html",
			"templates/partials.html",
			"templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("parse %s template: %w", name, err)
		}
		pages[name] = &pageTemplate{name: name, tmpl: t}
	}
	return pages, nil
}

// navItem is a sidebar entry.
type navItem struct {
	Path  string
	Label string
}

var sidebar = []navItem{
	{Path: "/dashboard", Label: "Dashboard"},
	{Path: "/transactions", Label: "Transactions"},
	{Path: "/categories", Label: "Categories"},
	{Path: "/reports", Label: "Reports"},
}

// pageMeta is embedded by every page view model.
type pageMeta struct {
	Title         string
	Active        string
	Authenticated bool
	Notice        string
	Error         string
}

func (p pageMeta) Nav() []navItem {
	if !p.Authenticated {
		return nil
	}
	return sidebar
}

// render executes a full page into a buffer first so a template failure
// never leaves a half-written response.
func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, page string, data any) {
	s.renderWith(w, r, NewHTMXResponse().Status(status), page, data)
}

// renderWith renders page through b, keeping any triggers set on it.
func (s *Server) renderWith(w http.ResponseWriter, r *http.Request, b *HTMXResponseBuilder, page string, data any) {
	pt, ok := s.pages[page]
	if !ok {
		s.structured.LogError(r.Context(), "Unknown page template", errUnknownPage,
			applog.ComponentTemplate, applog.OpRender,
			applog.LogFields{"template": page})
		InternalServerError("Something went wrong").Write(w)
		return
	}
	s.execute(w, r, b, pt, "layout", data)
}

// renderFragment executes a named partial without the layout.
func (s *Server) renderFragment(w http.ResponseWriter, r *http.Request, page, name string, data any) {
	pt, ok := s.pages[page]
	if !ok {
		InternalServerError("Something went wrong").Write(w)
		return
	}
	s.execute(w, r, NewHTMXResponse(), pt, name, data)
}

func (s *Server) execute(w http.ResponseWriter, r *http.Request, b *HTMXResponseBuilder, pt *pageTemplate, name string, data any) {
	var buf bytes.Buffer
	if err := pt.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		s.structured.LogError(r.Context(), "Template execution failed", err,
			applog.ComponentTemplate, applog.OpRender,
			applog.LogFields{"template": pt.name + "/" + name})
		InternalServerError("Something went wrong").Write(w)
		return
	}
	b.Header("Content-Type", "text/html; charset=utf-8").
		Body(buf.Bytes()).
		Write(w)
}

type errorPage struct {
	pageMeta
	Status  int
	Message string
}

// renderError renders the error page, or only an error fragment when an
// htmx request swaps part of a page.
func (s *Server) renderError(w http.ResponseWriter, r *http.Request, status int, message string) {
	if isFragmentRequest(r) {
		fragmentError(status, message).Write(w)
		return
	}
	_, authenticated := s.sessions.FromRequest(r)
	s.render(w, r, status, pageError, errorPage{
		pageMeta: pageMeta{Title: http.StatusText(status), Authenticated: authenticated},
		Status:   status,
		Message:  message,
	})
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	s.renderError(w, r, http.StatusNotFound, "The page you are looking for does not exist.")
}

// monthOption feeds the month selects.
type monthOption struct {
	Value int
	Label string
}

// monthOptions lists "Whole year" followed by the twelve months.
func monthOptions() []monthOption {
	opts := make([]monthOption, 0, 13)
	opts = append(opts, monthOption{Value: core.YearlyMonth, Label: "Whole year"})
	for m := 1; m <= 12; m++ {
		opts = append(opts, monthOption{Value: m, Label: core.MonthLabel(m)})
	}
	return opts
}

// yearOptions lists the selectable years around current, always including
// selected.
func yearOptions(current, selected int) []int {
	years := make([]int, 0, 8)
	for y := current - 5; y <= current+1; y++ {
		years = append(years, y)
	}
	if selected < current-5 {
		years = append([]int{selected}, years...)
	} else if selected > current+1 {
		years = append(years, selected)
	}
	return years
}

// typeSelect feeds the "type_options" partial.
type typeSelect struct {
	Types    []core.TxType
	Selected core.TxType
}
