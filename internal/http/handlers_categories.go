package http

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"easyfinance/internal/api"
	"easyfinance/internal/core"
	applog "easyfinance/internal/log"
	"easyfinance/internal/resource"
)

const resourceCategory = "category"

type categoriesPage struct {
	pageMeta
	Categories []core.Category
	Form       core.CategoryForm
	EditingID  int64
	Types      []core.TxType
}

var txTypes = []core.TxType{core.Income, core.Expense}

func newCategoriesPage(items []core.Category) categoriesPage {
	return categoriesPage{
		pageMeta:   pageMeta{Title: "Categories", Active: "/categories", Authenticated: true},
		Categories: items,
		Form:       core.CategoryForm{Type: core.Income},
		Types:      txTypes,
	}
}

func (p categoriesPage) TypeSelect() typeSelect {
	return typeSelect{Types: p.Types, Selected: p.Form.Type}
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	items, err := s.categories.FetchAll(r.Context(), token(r))
	if s.handleUnauthorized(w, r, err) {
		return
	}
	page := newCategoriesPage(items)
	if err != nil {
		s.backendFailed(r.Context(), applog.ComponentResource, applog.OpList, err)
		page.Error = api.MessageOf(err, "Could not load categories.")
	}

	if v := r.URL.Query().Get("edit"); v != "" {
		id, ok := formID(v)
		form, found := s.categories.Edit(items, id, core.CategoryFormFrom)
		if !ok || !found {
			page.Error = "Category not found."
		} else {
			page.Form = form
			page.EditingID = id
		}
	}

	s.render(w, r, http.StatusOK, pageCategories, page)
}

func (s *Server) handleSaveCategory(w http.ResponseWriter, r *http.Request) {
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}
	editingID, ok := formID(r.PostForm.Get("editing_id"))
	if !ok {
		BadRequestError("Invalid category id").Write(w)
		return
	}
	form := core.CategoryForm{
		Name: sanitizeInput(r.PostForm.Get("name")),
		Type: core.TxType(strings.ToLower(strings.TrimSpace(r.PostForm.Get("type")))),
	}

	ctx := r.Context()
	items, err := s.categories.Submit(ctx, token(r), editingID, form)
	if s.handleUnauthorized(w, r, err) {
		return
	}
	if err != nil {
		s.categoryFormFailed(w, r, editingID, form, err)
		return
	}

	notice := "Category added."
	if editingID != 0 {
		notice = "Category updated."
	}
	s.appMetrics.mutations.Add(1)
	requestLog(ctx).LogMutation(ctx, resourceCategory, saveOp(editingID), editingID)

	page := newCategoriesPage(items)
	page.Notice = notice
	s.renderWith(w, r,
		NewHTMXResponse().TriggerSaved(resourceCategory, editingID).TriggerSuccessNotification(notice),
		pageCategories, page)
}

// categoryFormFailed re-renders the page keeping what the user typed.
func (s *Server) categoryFormFailed(w http.ResponseWriter, r *http.Request, editingID int64, form core.CategoryForm, err error) {
	b := NewHTMXResponse().Status(http.StatusUnprocessableEntity)
	var msg string
	var verr *resource.ValidationError
	if errors.As(err, &verr) {
		msg = capitalize(verr.Error())
	} else {
		s.backendFailed(r.Context(), applog.ComponentResource, saveOp(editingID), err)
		msg = api.MessageOf(err, "Could not save the category.")
		b.Status(backendStatus(err)).TriggerErrorNotification(msg)
	}

	items, listErr := s.categories.FetchAll(r.Context(), token(r))
	if s.handleUnauthorized(w, r, listErr) {
		return
	}
	page := newCategoriesPage(items)
	page.Form = form
	page.EditingID = editingID
	page.Error = msg
	s.renderWith(w, r, b, pageCategories, page)
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		s.renderError(w, r, http.StatusNotFound, "Category not found.")
		return
	}
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}

	ctx := r.Context()
	confirmed := r.PostForm.Get("confirm") == "yes"
	items, err := s.categories.Remove(ctx, token(r), id, confirmed)
	if errors.Is(err, resource.ErrNotConfirmed) {
		s.confirmCategoryDelete(w, r, id)
		return
	}
	if s.handleUnauthorized(w, r, err) {
		return
	}
	if err != nil {
		s.backendFailed(ctx, applog.ComponentResource, applog.OpDelete, err)
		items, listErr := s.categories.FetchAll(ctx, token(r))
		if s.handleUnauthorized(w, r, listErr) {
			return
		}
		page := newCategoriesPage(items)
		page.Error = api.MessageOf(err, "Could not delete the category.")
		s.renderWith(w, r,
			NewHTMXResponse().Status(backendStatus(err)).TriggerErrorNotification(page.Error),
			pageCategories, page)
		return
	}

	s.appMetrics.mutations.Add(1)
	requestLog(ctx).LogMutation(ctx, resourceCategory, applog.OpDelete, id)
	page := newCategoriesPage(items)
	page.Notice = "Category deleted."
	s.renderWith(w, r,
		NewHTMXResponse().TriggerDeleted(resourceCategory, id).TriggerSuccessNotification(page.Notice),
		pageCategories, page)
}

type confirmPage struct {
	pageMeta
	Kind      string
	Label     string
	Action    string
	CancelURL string
}

func (s *Server) confirmCategoryDelete(w http.ResponseWriter, r *http.Request, id int64) {
	items, err := s.categories.FetchAll(r.Context(), token(r))
	if s.handleUnauthorized(w, r, err) {
		return
	}
	if err != nil {
		s.backendFailed(r.Context(), applog.ComponentResource, applog.OpList, err)
		s.renderError(w, r, backendStatus(err), api.MessageOf(err, "Could not load categories."))
		return
	}
	c, found := s.categories.Find(items, id)
	if !found {
		s.renderError(w, r, http.StatusNotFound, "Category not found.")
		return
	}
	s.render(w, r, http.StatusOK, pageConfirm, confirmPage{
		pageMeta:  pageMeta{Title: "Delete category", Active: "/categories", Authenticated: true},
		Kind:      "category",
		Label:     fmt.Sprintf("%s (%s)", c.Name, c.Type),
		Action:    fmt.Sprintf("/categories/%d/delete", id),
		CancelURL: "/categories",
	})
}

func saveOp(editingID int64) string {
	if editingID != 0 {
		return applog.OpUpdate
	}
	return applog.OpCreate
}
