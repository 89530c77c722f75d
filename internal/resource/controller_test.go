package resource

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"easyfinance/internal/core"
)

// fakeAPI records calls and keeps categories in memory.
type fakeAPI struct {
	mu         sync.Mutex
	calls      []string
	categories []core.Category
	nextID     int64
	failWith   error
	listNil    bool
}

func (f *fakeAPI) record(call string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
	return f.failWith
}

func (f *fakeAPI) ListCategories(_ context.Context, _ string) ([]core.Category, error) {
	if err := f.record("list"); err != nil {
		return nil, err
	}
	if f.listNil {
		return nil, nil
	}
	return append([]core.Category(nil), f.categories...), nil
}

func (f *fakeAPI) CreateCategory(_ context.Context, _ string, form core.CategoryForm) error {
	if err := f.record("create"); err != nil {
		return err
	}
	f.nextID++
	f.categories = append(f.categories, core.Category{ID: f.nextID, Name: form.Name, Type: form.Type})
	return nil
}

func (f *fakeAPI) UpdateCategory(_ context.Context, _ string, id int64, form core.CategoryForm) error {
	if err := f.record("update"); err != nil {
		return err
	}
	for i := range f.categories {
		if f.categories[i].ID == id {
			f.categories[i].Name, f.categories[i].Type = form.Name, form.Type
		}
	}
	return nil
}

func (f *fakeAPI) DeleteCategory(_ context.Context, _ string, id int64) error {
	if err := f.record("delete"); err != nil {
		return err
	}
	kept := f.categories[:0]
	for _, c := range f.categories {
		if c.ID != id {
			kept = append(kept, c)
		}
	}
	f.categories = kept
	return nil
}

func (f *fakeAPI) ListTransactions(context.Context, string) ([]core.Transaction, error) {
	return nil, f.record("list transactions")
}

func (f *fakeAPI) CreateTransaction(context.Context, string, core.TransactionForm) error {
	return f.record("create transaction")
}

func (f *fakeAPI) UpdateTransaction(context.Context, string, int64, core.TransactionForm) error {
	return f.record("update transaction")
}

func (f *fakeAPI) DeleteTransaction(context.Context, string, int64) error {
	return f.record("delete transaction")
}

func TestSubmitCreatesThenRefetches(t *testing.T) {
	api := &fakeAPI{}
	c := NewCategoryController(api, nil)

	items, err := c.Submit(context.Background(), "tok", 0, core.CategoryForm{Name: "Salary", Type: core.Income})
	require.NoError(t, err)
	assert.Equal(t, []string{"create", "list"}, api.calls)
	require.Len(t, items, 1)
	assert.Equal(t, "Salary", items[0].Name)
}

func TestSubmitUpdatesWhenEditing(t *testing.T) {
	api := &fakeAPI{categories: []core.Category{{ID: 7, Name: "Food", Type: core.Expense}}}
	c := NewCategoryController(api, nil)

	items, err := c.Submit(context.Background(), "tok", 7, core.CategoryForm{Name: "Groceries", Type: core.Expense})
	require.NoError(t, err)
	assert.Equal(t, []string{"update", "list"}, api.calls)
	assert.Equal(t, "Groceries", items[0].Name)
}

func TestSubmitInvalidFormMakesNoCall(t *testing.T) {
	api := &fakeAPI{}
	c := NewCategoryController(api, nil)

	_, err := c.Submit(context.Background(), "tok", 0, core.CategoryForm{Name: "  ", Type: core.Income})

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.ErrorIs(t, err, core.ErrEmptyName)
	assert.Empty(t, api.calls)
}

func TestSubmitInvalidTransactionMakesNoCall(t *testing.T) {
	api := &fakeAPI{}
	c := NewTransactionController(api, nil)

	big := &core.Upload{Filename: "x.jpg", ContentType: "image/jpeg", Size: core.MaxImageSize + 1}
	_, err := c.Submit(context.Background(), "tok", 0, core.TransactionForm{
		CategoryID: 1, Type: core.Expense, Amount: "10", Date: "2025-01-01", Image: big,
	})
	assert.ErrorIs(t, err, core.ErrImageTooLarge)
	assert.Empty(t, api.calls)
}

func TestSubmitBackendFailureSkipsRefetch(t *testing.T) {
	boom := errors.New("boom")
	api := &fakeAPI{failWith: boom}
	c := NewCategoryController(api, nil)

	_, err := c.Submit(context.Background(), "tok", 0, core.CategoryForm{Name: "Food", Type: core.Expense})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"create"}, api.calls)
}

func TestFetchAllNeverNil(t *testing.T) {
	c := NewCategoryController(&fakeAPI{listNil: true}, nil)
	items, err := c.FetchAll(context.Background(), "tok")
	require.NoError(t, err)
	assert.NotNil(t, items)

	boom := errors.New("boom")
	c = NewCategoryController(&fakeAPI{failWith: boom}, nil)
	items, err = c.FetchAll(context.Background(), "tok")
	assert.ErrorIs(t, err, boom)
	assert.NotNil(t, items)
}

func TestRemoveRequiresConfirmation(t *testing.T) {
	api := &fakeAPI{categories: []core.Category{{ID: 1, Name: "Food", Type: core.Expense}}}
	c := NewCategoryController(api, nil)

	_, err := c.Remove(context.Background(), "tok", 1, false)
	assert.ErrorIs(t, err, ErrNotConfirmed)
	assert.Empty(t, api.calls)

	items, err := c.Remove(context.Background(), "tok", 1, true)
	require.NoError(t, err)
	assert.Equal(t, []string{"delete", "list"}, api.calls)
	assert.Empty(t, items)
}

func TestEditCopiesEntity(t *testing.T) {
	c := NewCategoryController(&fakeAPI{}, nil)
	items := []core.Category{{ID: 1, Name: "Salary", Type: core.Income}, {ID: 2, Name: "Food", Type: core.Expense}}

	form, ok := c.Edit(items, 2, core.CategoryFormFrom)
	require.True(t, ok)
	assert.Equal(t, core.CategoryForm{Name: "Food", Type: core.Expense}, form)

	form.Name = "changed"
	assert.Equal(t, "Food", items[1].Name)

	_, ok = c.Edit(items, 99, core.CategoryFormFrom)
	assert.False(t, ok)

	found, ok := c.Find(items, 1)
	require.True(t, ok)
	assert.Equal(t, "Salary", found.Name)
}
