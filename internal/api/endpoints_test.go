package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"easyfinance/internal/core"
)

var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func TestLogin(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/login", r.URL.Path)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		if body["password"] != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = io.WriteString(w, `{"token":"abc123"}`)
	})

	token, err := c.Login(context.Background(), core.Credentials{Email: " a@b.c ", Password: "secret"})
	require.NoError(t, err)
	assert.Equal(t, "abc123", token)

	_, err = c.Login(context.Background(), core.Credentials{Email: "a@b.c", Password: "wrong"})
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestLoginWithoutToken(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{}`)
	})
	_, err := c.Login(context.Background(), core.Credentials{Email: "a@b.c", Password: "x"})
	assert.ErrorIs(t, err, ErrNoToken)
}

func TestRegisterSendsConfirmation(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "secret", body["password_confirmation"])
		assert.Equal(t, "Ana", body["name"])
		w.WriteHeader(http.StatusCreated)
	})
	err := c.Register(context.Background(), core.Registration{
		Name: "Ana", Email: "a@b.c", Password: "secret", PasswordConfirmation: "secret",
	})
	assert.NoError(t, err)
}

func TestCategoryEndpoints(t *testing.T) {
	var seen []string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		seen = append(seen, r.Method+" "+r.URL.Path)
		switch r.Method {
		case http.MethodGet:
			_, _ = io.WriteString(w, `[{"id":1,"name":"Salary","type":"income"}]`)
		case http.MethodPost, http.MethodPut:
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
			var body categoryBody
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "Food", body.Name)
			assert.Equal(t, core.Expense, body.Type)
		}
	})
	ctx := context.Background()

	cats, err := c.ListCategories(ctx, "t")
	require.NoError(t, err)
	assert.Equal(t, []core.Category{{ID: 1, Name: "Salary", Type: core.Income}}, cats)

	form := core.CategoryForm{Name: " Food ", Type: core.Expense}
	require.NoError(t, c.CreateCategory(ctx, "t", form))
	require.NoError(t, c.UpdateCategory(ctx, "t", 4, form))
	require.NoError(t, c.DeleteCategory(ctx, "t", 4))

	assert.Equal(t, []string{
		"GET /api/categories",
		"POST /api/categories",
		"PUT /api/categories/4",
		"DELETE /api/categories/4",
	}, seen)
}

// fakeTransactions is a tiny in-memory backend that resolves category names
// on list, the way the real backend embeds them.
type fakeTransactions struct {
	mu    sync.Mutex
	items []map[string]any
}

func (f *fakeTransactions) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch r.Method {
	case http.MethodGet:
		_ = json.NewEncoder(w).Encode(map[string]any{"data": f.items})
	case http.MethodPost:
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		item := map[string]any{
			"id":          len(f.items) + 1,
			"category_id": 1,
			"type":        r.FormValue("type"),
			"amount":      r.FormValue("amount"),
			"date":        r.FormValue("date"),
			"description": r.FormValue("description"),
			"category":    map[string]any{"id": 1, "name": "Food"},
		}
		if _, hdr, err := r.FormFile("image"); err == nil {
			item["image_url"] = "/storage/" + hdr.Filename
		}
		f.items = append(f.items, item)
		w.WriteHeader(http.StatusCreated)
	}
}

func TestCreateTransactionThenList(t *testing.T) {
	fake := &fakeTransactions{}
	c := newTestClient(t, fake.ServeHTTP)
	ctx := context.Background()

	err := c.CreateTransaction(ctx, "t", core.TransactionForm{
		CategoryID: 1,
		Type:       core.Expense,
		Amount:     "50000",
		Date:       "2025-01-10",
	})
	require.NoError(t, err)

	items, err := c.ListTransactions(ctx, "t")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Food", items[0].CategoryName())
	assert.Equal(t, "50000", items[0].Amount.String())
	assert.Equal(t, "2025-01-10", items[0].Date.String())
	assert.Empty(t, items[0].ImageURL)
}

func TestTransactionMultipartBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/api/transactions/9", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))

		assert.Equal(t, "3", r.FormValue("category_id"))
		assert.Equal(t, "income", r.FormValue("type"))
		assert.Equal(t, "12.5", r.FormValue("amount"))
		assert.Equal(t, "2025-02-01", r.FormValue("date"))
		assert.Equal(t, "bonus", r.FormValue("description"))

		file, hdr, err := r.FormFile("image")
		require.NoError(t, err)
		defer file.Close()
		assert.Equal(t, "receipt.png", hdr.Filename)
		assert.Equal(t, "image/png", hdr.Header.Get("Content-Type"))
	})

	err := c.UpdateTransaction(context.Background(), "t", 9, core.TransactionForm{
		CategoryID:  3,
		Type:        core.Income,
		Amount:      "12,5",
		Date:        "2025-02-01",
		Description: " bonus ",
		Image:       &core.Upload{Filename: "receipt.png", Data: pngBytes},
	})
	require.NoError(t, err)
}

func TestTransactionWithoutDescriptionOmitsField(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		_, ok := r.MultipartForm.Value["description"]
		assert.False(t, ok)
		assert.Empty(t, r.MultipartForm.File["image"])
	})
	err := c.CreateTransaction(context.Background(), "t", core.TransactionForm{
		CategoryID: 1, Type: core.Expense, Amount: "1", Date: "2025-01-01",
	})
	require.NoError(t, err)
}

func TestDashboardEndpoints(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/dashboard/summary":
			assert.Equal(t, "2025", r.URL.Query().Get("year"))
			if r.URL.Query().Has("month") {
				assert.Equal(t, "3", r.URL.Query().Get("month"))
			}
			_, _ = io.WriteString(w, `{"total_income":"1000","total_expense":250.5,"balance":749.5}`)
		case "/api/dashboard/chart":
			assert.Equal(t, "2025", r.URL.Query().Get("year"))
			_, _ = io.WriteString(w, `{"data":[{"month":1,"income":100,"expense":40}]}`)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	})
	ctx := context.Background()

	sum, err := c.DashboardSummary(ctx, "t", 3, 2025)
	require.NoError(t, err)
	assert.True(t, sum.Consistent())

	_, err = c.DashboardSummary(ctx, "t", core.YearlyMonth, 2025)
	require.NoError(t, err)

	points, err := c.DashboardChart(ctx, "t", 2025)
	require.NoError(t, err)
	require.Len(t, points, 1)
	assert.Equal(t, 1, points[0].Month)
}

func TestReportMonthlyVersusYearly(t *testing.T) {
	var gotPath, gotQuery string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath, gotQuery = r.URL.Path, r.URL.RawQuery
		_, _ = io.WriteString(w, `{"year":2025,"data":[
			{"date":"2025-03-01","type":"income","amount":"100","category":"Salary","description":""},
			{"date":"2025-03-02","type":"expense","amount":"40","category":"Food","description":"lunch"}]}`)
	})
	ctx := context.Background()

	report, err := c.Report(ctx, "t", core.ReportPeriod{Month: 3, Year: 2025})
	require.NoError(t, err)
	assert.Equal(t, "/api/reports/monthly", gotPath)
	assert.Equal(t, "month=3&year=2025", gotQuery)
	assert.Equal(t, 3, report.Month)
	assert.Len(t, report.Rows, 2)
	assert.Equal(t, "60", report.Totals().Balance.String())

	report, err = c.Report(ctx, "t", core.ReportPeriod{Month: 0, Year: 2025})
	require.NoError(t, err)
	assert.Equal(t, "/api/reports/yearly", gotPath)
	assert.Equal(t, "year=2025", gotQuery)
	assert.True(t, core.ReportPeriod{Month: report.Month, Year: report.Year}.IsYearly())
}

func TestReportMalformedDataIsEmpty(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"year":2025,"data":"oops"}`)
	})
	report, err := c.Report(context.Background(), "t", core.ReportPeriod{Year: 2025})
	assert.ErrorIs(t, err, ErrMalformedList)
	assert.NotNil(t, report.Rows)
	assert.Empty(t, report.Rows)
}

func TestExportPathShape(t *testing.T) {
	path, q := ExportPath(ExportExcel, core.ReportPeriod{Month: 5, Year: 2024})
	assert.Equal(t, "/reports/monthly/excel", path)
	assert.Equal(t, "month=5&year=2024", q.Encode())

	path, q = ExportPath(ExportPDF, core.ReportPeriod{Year: 2024})
	assert.Equal(t, "/reports/yearly/pdf", path)
	assert.Equal(t, "year=2024", q.Encode())
}

func TestExportStreamsBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/reports/yearly/pdf", r.URL.Path)
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = io.WriteString(w, "%PDF-1.4")
	})

	resp, err := c.Export(context.Background(), "t", ExportPDF, core.ReportPeriod{Year: 2025})
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, "%PDF-1.4", string(body))

	_, err = c.Export(context.Background(), "t", "csv", core.ReportPeriod{Year: 2025})
	assert.ErrorIs(t, err, ErrUnknownExport)
}
