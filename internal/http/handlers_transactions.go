package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/sync/errgroup"

	"easyfinance/internal/api"
	"easyfinance/internal/core"
	applog "easyfinance/internal/log"
	"easyfinance/internal/resource"
)

const resourceTransaction = "transaction"

// txRow is a transaction prepared for the table.
type txRow struct {
	core.Transaction
	CategoryLabel string
	ImageSrc      string
}

type transactionsPage struct {
	pageMeta
	Rows            []txRow
	TotalCount      int
	TypeFilter      string
	Search          string
	Form            core.TransactionForm
	EditingID       int64
	Types           []core.TxType
	CategoryOptions []core.Category
	HasCategories   bool
}

type categoryOptions struct {
	Options  []core.Category
	Selected int64
}

// loadTransactionData fetches transactions and categories concurrently.
// Both collections are always returned, empty on failure.
func (s *Server) loadTransactionData(ctx context.Context, tok string) ([]core.Transaction, []core.Category, error) {
	var (
		g             errgroup.Group
		txs           []core.Transaction
		cats          []core.Category
		txErr, catErr error
	)
	g.Go(func() error {
		txs, txErr = s.transactions.FetchAll(ctx, tok)
		return txErr
	})
	g.Go(func() error {
		cats, catErr = s.categories.FetchAll(ctx, tok)
		return catErr
	})
	if err := g.Wait(); err != nil {
		return txs, cats, errors.Join(txErr, catErr)
	}
	return txs, cats, nil
}

func (s *Server) newTransactionsPage(txs []core.Transaction, cats []core.Category, typeFilter, search string) transactionsPage {
	filtered := core.FilterTransactions(txs, cats, typeFilter, search)
	rows := make([]txRow, 0, len(filtered))
	for _, t := range filtered {
		rows = append(rows, txRow{
			Transaction:   t,
			CategoryLabel: core.CategoryLabel(t, cats),
			ImageSrc:      s.resolveImageURL(t.ImageURL),
		})
	}

	form := core.TransactionForm{Type: core.Income, Date: core.Date{Time: s.now()}.String()}
	return transactionsPage{
		pageMeta:        pageMeta{Title: "Transactions", Active: "/transactions", Authenticated: true},
		Rows:            rows,
		TotalCount:      len(txs),
		TypeFilter:      typeFilter,
		Search:          search,
		Form:            form,
		Types:           txTypes,
		CategoryOptions: core.FilterCategoriesByType(cats, form.Type),
		HasCategories:   len(cats) > 0,
	}
}

func (p *transactionsPage) setForm(form core.TransactionForm, editingID int64, cats []core.Category) {
	p.Form = form
	p.EditingID = editingID
	p.CategoryOptions = core.FilterCategoriesByType(cats, form.Type)
}

func (p transactionsPage) TypeSelect() typeSelect {
	return typeSelect{Types: p.Types, Selected: p.Form.Type}
}

func (p transactionsPage) CategorySelect() categoryOptions {
	return categoryOptions{Options: p.CategoryOptions, Selected: p.Form.CategoryID}
}

func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	txs, cats, err := s.loadTransactionData(ctx, token(r))
	if s.handleUnauthorized(w, r, err) {
		return
	}

	q := r.URL.Query()
	page := s.newTransactionsPage(txs, cats, q.Get("type"), sanitizeInput(q.Get("q")))
	if err != nil {
		s.backendFailed(ctx, applog.ComponentResource, applog.OpList, err)
		page.Error = api.MessageOf(err, "Could not load transactions.")
	}

	if v := q.Get("edit"); v != "" {
		id, ok := formID(v)
		form, found := s.transactions.Edit(txs, id, core.TransactionFormFrom)
		if !ok || !found {
			page.Error = "Transaction not found."
		} else {
			page.setForm(form, id, cats)
		}
	}

	s.render(w, r, http.StatusOK, pageTransactions, page)
}

// handleCategoryOptions renders the category <option> list for a
// transaction type. The form swaps it in when the type select changes.
func (s *Server) handleCategoryOptions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var txType core.TxType
	if v := strings.TrimSpace(q.Get("type")); v != "" {
		t, err := core.ParseTxType(v)
		if err != nil {
			s.renderError(w, r, http.StatusUnprocessableEntity, capitalize(err.Error())+".")
			return
		}
		txType = t
	}

	cats, err := s.categories.FetchAll(r.Context(), token(r))
	if s.handleUnauthorized(w, r, err) {
		return
	}
	if err != nil {
		s.backendFailed(r.Context(), applog.ComponentResource, applog.OpList, err)
	}

	var options []core.Category
	if txType != "" {
		options = core.FilterCategoriesByType(cats, txType)
	}
	selected, _ := formID(q.Get("category_id"))
	s.renderFragment(w, r, pageTransactions, "category_options", categoryOptions{
		Options:  options,
		Selected: selected,
	})
}

func (s *Server) handleSaveTransaction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := ParseMultipartForm(r); err != nil {
		if isTooLarge(err) {
			s.transactionFormFailed(w, r, 0, core.TransactionForm{Type: core.Income}, core.ErrImageTooLarge,
				http.StatusRequestEntityTooLarge)
			return
		}
		BadRequestError("Invalid request format").Write(w)
		return
	}
	if r.MultipartForm != nil {
		defer func() { _ = r.MultipartForm.RemoveAll() }()
	}

	editingID, ok := formID(r.PostForm.Get("editing_id"))
	if !ok {
		BadRequestError("Invalid transaction id").Write(w)
		return
	}
	categoryID, _ := formID(r.PostForm.Get("category_id"))
	upload, err := ReadUpload(r, "image")
	if err != nil {
		applog.FromContext(ctx).WarnContext(ctx, "Failed to read upload", "error", err)
		BadRequestError("Could not read the uploaded image").Write(w)
		return
	}

	form := core.TransactionForm{
		CategoryID:  categoryID,
		Type:        core.TxType(strings.ToLower(strings.TrimSpace(r.PostForm.Get("type")))),
		Amount:      strings.TrimSpace(r.PostForm.Get("amount")),
		Date:        strings.TrimSpace(r.PostForm.Get("date")),
		Description: sanitizeInput(r.PostForm.Get("description")),
		Image:       upload,
	}

	txs, err := s.transactions.Submit(ctx, token(r), editingID, form)
	if s.handleUnauthorized(w, r, err) {
		return
	}
	if err != nil {
		s.transactionFormFailed(w, r, editingID, form, err, 0)
		return
	}

	s.appMetrics.mutations.Add(1)
	requestLog(ctx).LogMutation(ctx, resourceTransaction, saveOp(editingID), editingID)

	cats, catErr := s.categories.FetchAll(ctx, token(r))
	if s.handleUnauthorized(w, r, catErr) {
		return
	}
	page := s.newTransactionsPage(txs, cats, "", "")
	page.Notice = "Transaction added."
	if editingID != 0 {
		page.Notice = "Transaction updated."
	}
	s.renderWith(w, r,
		NewHTMXResponse().TriggerSaved(resourceTransaction, editingID).TriggerSuccessNotification(page.Notice),
		pageTransactions, page)
}

// transactionFormFailed re-renders the page keeping what the user typed.
// The chosen image cannot be restored and has to be picked again. A zero
// status is derived from err.
func (s *Server) transactionFormFailed(w http.ResponseWriter, r *http.Request, editingID int64, form core.TransactionForm, err error, status int) {
	var msg string
	var verr *resource.ValidationError
	b := NewHTMXResponse()
	switch {
	case status != 0:
		msg = capitalize(err.Error())
	case errors.As(err, &verr):
		status = http.StatusUnprocessableEntity
		msg = capitalize(verr.Error())
	default:
		status = backendStatus(err)
		s.backendFailed(r.Context(), applog.ComponentResource, saveOp(editingID), err)
		msg = api.MessageOf(err, "Could not save the transaction.")
		b.TriggerErrorNotification(msg)
	}

	txs, cats, listErr := s.loadTransactionData(r.Context(), token(r))
	if s.handleUnauthorized(w, r, listErr) {
		return
	}
	page := s.newTransactionsPage(txs, cats, "", "")
	form.Image = nil
	page.setForm(form, editingID, cats)
	page.Error = msg
	s.renderWith(w, r, b.Status(status), pageTransactions, page)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		s.renderError(w, r, http.StatusNotFound, "Transaction not found.")
		return
	}
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}

	ctx := r.Context()
	confirmed := r.PostForm.Get("confirm") == "yes"
	txs, err := s.transactions.Remove(ctx, token(r), id, confirmed)
	if errors.Is(err, resource.ErrNotConfirmed) {
		s.confirmTransactionDelete(w, r, id)
		return
	}
	if s.handleUnauthorized(w, r, err) {
		return
	}

	if err != nil {
		s.backendFailed(ctx, applog.ComponentResource, applog.OpDelete, err)
		txs, cats, listErr := s.loadTransactionData(ctx, token(r))
		if s.handleUnauthorized(w, r, listErr) {
			return
		}
		page := s.newTransactionsPage(txs, cats, "", "")
		page.Error = api.MessageOf(err, "Could not delete the transaction.")
		s.renderWith(w, r,
			NewHTMXResponse().Status(backendStatus(err)).TriggerErrorNotification(page.Error),
			pageTransactions, page)
		return
	}

	s.appMetrics.mutations.Add(1)
	requestLog(ctx).LogMutation(ctx, resourceTransaction, applog.OpDelete, id)

	cats, catErr := s.categories.FetchAll(ctx, token(r))
	if s.handleUnauthorized(w, r, catErr) {
		return
	}
	page := s.newTransactionsPage(txs, cats, "", "")
	page.Notice = "Transaction deleted."
	s.renderWith(w, r,
		NewHTMXResponse().TriggerDeleted(resourceTransaction, id).TriggerSuccessNotification(page.Notice),
		pageTransactions, page)
}

func (s *Server) confirmTransactionDelete(w http.ResponseWriter, r *http.Request, id int64) {
	txs, cats, err := s.loadTransactionData(r.Context(), token(r))
	if s.handleUnauthorized(w, r, err) {
		return
	}
	t, found := s.transactions.Find(txs, id)
	if !found {
		if err != nil {
			s.backendFailed(r.Context(), applog.ComponentResource, applog.OpList, err)
			s.renderError(w, r, backendStatus(err), api.MessageOf(err, "Could not load transactions."))
			return
		}
		s.renderError(w, r, http.StatusNotFound, "Transaction not found.")
		return
	}

	label := core.CategoryLabel(t, cats)
	s.render(w, r, http.StatusOK, pageConfirm, confirmPage{
		pageMeta:  pageMeta{Title: "Delete transaction", Active: "/transactions", Authenticated: true},
		Kind:      "transaction",
		Label:     fmt.Sprintf("%s %s of %s (%s)", t.Date, t.Type, core.FormatAmount(t.Amount), label),
		Action:    fmt.Sprintf("/transactions/%d/delete", id),
		CancelURL: "/transactions",
	})
}
