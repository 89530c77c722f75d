package http

import (
	"context"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	"easyfinance/internal/api"
	"easyfinance/internal/core"
)

// fakeBackend is an in-memory finance API. Calls with a token other than
// validToken fail with api.ErrUnauthorized.
type fakeBackend struct {
	mu sync.Mutex

	validToken   string
	categories   []core.Category
	transactions []core.Transaction
	nextID       int64

	summary       core.DashboardSummary
	summaryErr    error
	summaryMonths []int
	chart      []core.ChartPoint
	chartErr   error

	report       core.Report
	reportErr    error
	reportPeriod core.ReportPeriod

	exportBody string
	exportType string
	exportErr  error

	loginErr    error
	registerErr error
	pingErr     error
	createErr   error

	calls      []string
	lastTxForm core.TransactionForm
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		validToken: "tok-1",
		categories: []core.Category{
			{ID: 1, Name: "Salary", Type: core.Income},
			{ID: 2, Name: "Food", Type: core.Expense},
			{ID: 3, Name: "Rent", Type: core.Expense},
		},
		transactions: []core.Transaction{
			{
				ID: 10, CategoryID: 1, Type: core.Income, Amount: decimal.NewFromInt(3000),
				Date: core.NewDate(2024, 6, 1), Description: "June salary",
				Category: &core.CategoryRef{ID: 1, Name: "Salary"},
			},
			{
				ID: 11, CategoryID: 2, Type: core.Expense, Amount: decimal.RequireFromString("42.50"),
				Date: core.NewDate(2024, 6, 3), Description: "Groceries",
				ImageURL: "/storage/receipts/11.png",
			},
		},
		nextID: 100,
		summary: core.DashboardSummary{
			TotalIncome:  decimal.NewFromInt(1500),
			TotalExpense: decimal.NewFromInt(500),
			Balance:      decimal.NewFromInt(1000),
		},
		chart: []core.ChartPoint{
			{Month: 1, Income: decimal.NewFromInt(200), Expense: decimal.NewFromInt(100)},
			{Month: 2, Income: decimal.Zero, Expense: decimal.NewFromInt(50)},
		},
		exportBody: "%PDF-1.4 fake",
		exportType: "application/pdf",
	}
}

func (f *fakeBackend) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeBackend) callsTo(prefix string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if strings.HasPrefix(c, prefix) {
			n++
		}
	}
	return n
}

func (f *fakeBackend) revoke() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.validToken = "rotated"
}

func (f *fakeBackend) auth(token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if token != f.validToken {
		return api.ErrUnauthorized
	}
	return nil
}

func (f *fakeBackend) Login(_ context.Context, creds core.Credentials) (string, error) {
	f.record("login")
	if f.loginErr != nil {
		return "", f.loginErr
	}
	if creds.Email != "ana@example.com" || creds.Password != "secret1" {
		return "", api.ErrUnauthorized
	}
	return f.validToken, nil
}

func (f *fakeBackend) Register(_ context.Context, _ core.Registration) error {
	f.record("register")
	return f.registerErr
}

func (f *fakeBackend) ListCategories(_ context.Context, token string) ([]core.Category, error) {
	f.record("list categories")
	if err := f.auth(token); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]core.Category(nil), f.categories...), nil
}

func (f *fakeBackend) CreateCategory(_ context.Context, token string, form core.CategoryForm) error {
	f.record("create category")
	if err := f.auth(token); err != nil {
		return err
	}
	if f.createErr != nil {
		return f.createErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	f.categories = append(f.categories, core.Category{ID: f.nextID, Name: form.Name, Type: form.Type})
	return nil
}

func (f *fakeBackend) UpdateCategory(_ context.Context, token string, id int64, form core.CategoryForm) error {
	f.record("update category")
	if err := f.auth(token); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.categories {
		if f.categories[i].ID == id {
			f.categories[i].Name = form.Name
			f.categories[i].Type = form.Type
			return nil
		}
	}
	return &api.Error{Status: http.StatusNotFound, Message: "Category not found"}
}

func (f *fakeBackend) DeleteCategory(_ context.Context, token string, id int64) error {
	f.record("delete category")
	if err := f.auth(token); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.categories {
		if f.categories[i].ID == id {
			f.categories = append(f.categories[:i], f.categories[i+1:]...)
			return nil
		}
	}
	return &api.Error{Status: http.StatusNotFound, Message: "Category not found"}
}

func (f *fakeBackend) ListTransactions(_ context.Context, token string) ([]core.Transaction, error) {
	f.record("list transactions")
	if err := f.auth(token); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]core.Transaction(nil), f.transactions...), nil
}

func (f *fakeBackend) CreateTransaction(_ context.Context, token string, form core.TransactionForm) error {
	f.record("create transaction")
	if err := f.auth(token); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastTxForm = form
	amount, _ := core.ParseAmount(form.Amount)
	date, _ := core.ParseDate(form.Date)
	f.nextID++
	f.transactions = append(f.transactions, core.Transaction{
		ID: f.nextID, CategoryID: form.CategoryID, Type: form.Type,
		Amount: amount, Date: date, Description: form.Description,
	})
	return nil
}

func (f *fakeBackend) UpdateTransaction(_ context.Context, token string, id int64, form core.TransactionForm) error {
	f.record("update transaction")
	if err := f.auth(token); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastTxForm = form
	for i := range f.transactions {
		if f.transactions[i].ID == id {
			f.transactions[i].Description = form.Description
			return nil
		}
	}
	return &api.Error{Status: http.StatusNotFound}
}

func (f *fakeBackend) DeleteTransaction(_ context.Context, token string, id int64) error {
	f.record("delete transaction")
	if err := f.auth(token); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.transactions {
		if f.transactions[i].ID == id {
			f.transactions = append(f.transactions[:i], f.transactions[i+1:]...)
			return nil
		}
	}
	return &api.Error{Status: http.StatusNotFound}
}

func (f *fakeBackend) DashboardSummary(_ context.Context, token string, month, _ int) (core.DashboardSummary, error) {
	f.record("dashboard summary")
	if err := f.auth(token); err != nil {
		return core.DashboardSummary{}, err
	}
	f.mu.Lock()
	f.summaryMonths = append(f.summaryMonths, month)
	f.mu.Unlock()
	return f.summary, f.summaryErr
}

func (f *fakeBackend) DashboardChart(_ context.Context, token string, _ int) ([]core.ChartPoint, error) {
	f.record("dashboard chart")
	if err := f.auth(token); err != nil {
		return nil, err
	}
	return f.chart, f.chartErr
}

func (f *fakeBackend) Report(_ context.Context, token string, p core.ReportPeriod) (core.Report, error) {
	f.record("report")
	if err := f.auth(token); err != nil {
		return core.Report{}, err
	}
	f.mu.Lock()
	f.reportPeriod = p
	f.mu.Unlock()
	if f.reportErr != nil {
		return core.Report{Month: p.Month, Year: p.Year, Rows: []core.ReportRow{}}, f.reportErr
	}
	r := f.report
	r.Month, r.Year = p.Month, p.Year
	return r, nil
}

func (f *fakeBackend) Export(_ context.Context, token string, kind api.ExportKind, p core.ReportPeriod) (*http.Response, error) {
	f.record("export " + string(kind))
	if err := f.auth(token); err != nil {
		return nil, err
	}
	if f.exportErr != nil {
		return nil, f.exportErr
	}
	f.mu.Lock()
	f.reportPeriod = p
	f.mu.Unlock()
	h := make(http.Header)
	h.Set("Content-Type", f.exportType)
	return &http.Response{
		StatusCode: http.StatusOK,
		Header:     h,
		Body:       io.NopCloser(strings.NewReader(f.exportBody)),
	}, nil
}

func (f *fakeBackend) Ping(context.Context) error {
	return f.pingErr
}
