package resource

import (
	"context"
	"log/slog"

	"easyfinance/internal/core"
)

// API is the subset of the backend client used by the resource adapters.
type API interface {
	ListCategories(ctx context.Context, token string) ([]core.Category, error)
	CreateCategory(ctx context.Context, token string, f core.CategoryForm) error
	UpdateCategory(ctx context.Context, token string, id int64, f core.CategoryForm) error
	DeleteCategory(ctx context.Context, token string, id int64) error

	ListTransactions(ctx context.Context, token string) ([]core.Transaction, error)
	CreateTransaction(ctx context.Context, token string, f core.TransactionForm) error
	UpdateTransaction(ctx context.Context, token string, id int64, f core.TransactionForm) error
	DeleteTransaction(ctx context.Context, token string, id int64) error
}

// Categories adapts the category endpoints to Backend.
type Categories struct{ API API }

func (c Categories) List(ctx context.Context, token string) ([]core.Category, error) {
	return c.API.ListCategories(ctx, token)
}

func (c Categories) Create(ctx context.Context, token string, f core.CategoryForm) error {
	return c.API.CreateCategory(ctx, token, f)
}

func (c Categories) Update(ctx context.Context, token string, id int64, f core.CategoryForm) error {
	return c.API.UpdateCategory(ctx, token, id, f)
}

func (c Categories) Delete(ctx context.Context, token string, id int64) error {
	return c.API.DeleteCategory(ctx, token, id)
}

// Transactions adapts the transaction endpoints to Backend.
type Transactions struct{ API API }

func (t Transactions) List(ctx context.Context, token string) ([]core.Transaction, error) {
	return t.API.ListTransactions(ctx, token)
}

func (t Transactions) Create(ctx context.Context, token string, f core.TransactionForm) error {
	return t.API.CreateTransaction(ctx, token, f)
}

func (t Transactions) Update(ctx context.Context, token string, id int64, f core.TransactionForm) error {
	return t.API.UpdateTransaction(ctx, token, id, f)
}

func (t Transactions) Delete(ctx context.Context, token string, id int64) error {
	return t.API.DeleteTransaction(ctx, token, id)
}

func NewCategoryController(api API, logger *slog.Logger) *Controller[core.Category, core.CategoryForm] {
	return NewController[core.Category, core.CategoryForm]("categories", Categories{API: api},
		func(c core.Category) int64 { return c.ID }, logger)
}

func NewTransactionController(api API, logger *slog.Logger) *Controller[core.Transaction, core.TransactionForm] {
	return NewController[core.Transaction, core.TransactionForm]("transactions", Transactions{API: api},
		func(t core.Transaction) int64 { return t.ID }, logger)
}
