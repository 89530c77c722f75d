package api

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"easyfinance/internal/core"
)

type categoryBody struct {
	Name string      `json:"name"`
	Type core.TxType `json:"type"`
}

func bodyOf(f core.CategoryForm) categoryBody {
	return categoryBody{Name: strings.TrimSpace(f.Name), Type: f.Type}
}

func categoryPath(id int64) string {
	return "/categories/" + strconv.FormatInt(id, 10)
}

func (c *Client) ListCategories(ctx context.Context, token string) ([]core.Category, error) {
	return getList[core.Category](ctx, c, "/categories", token, nil)
}

func (c *Client) CreateCategory(ctx context.Context, token string, f core.CategoryForm) error {
	return c.doJSON(ctx, http.MethodPost, "/categories", token, nil, bodyOf(f), nil)
}

func (c *Client) UpdateCategory(ctx context.Context, token string, id int64, f core.CategoryForm) error {
	return c.doJSON(ctx, http.MethodPut, categoryPath(id), token, nil, bodyOf(f), nil)
}

func (c *Client) DeleteCategory(ctx context.Context, token string, id int64) error {
	return c.doJSON(ctx, http.MethodDelete, categoryPath(id), token, nil, nil, nil)
}
