package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strconv"
	"strings"

	"easyfinance/internal/core"
)

func transactionPath(id int64) string {
	return "/transactions/" + strconv.FormatInt(id, 10)
}

func (c *Client) ListTransactions(ctx context.Context, token string) ([]core.Transaction, error) {
	return getList[core.Transaction](ctx, c, "/transactions", token, nil)
}

func (c *Client) CreateTransaction(ctx context.Context, token string, f core.TransactionForm) error {
	return c.sendTransaction(ctx, http.MethodPost, "/transactions", token, f)
}

func (c *Client) UpdateTransaction(ctx context.Context, token string, id int64, f core.TransactionForm) error {
	return c.sendTransaction(ctx, http.MethodPut, transactionPath(id), token, f)
}

func (c *Client) DeleteTransaction(ctx context.Context, token string, id int64) error {
	return c.doJSON(ctx, http.MethodDelete, transactionPath(id), token, nil, nil, nil)
}

func (c *Client) sendTransaction(ctx context.Context, method, path, token string, f core.TransactionForm) error {
	body, contentType, err := encodeTransaction(f)
	if err != nil {
		return err
	}
	resp, err := c.Do(ctx, Request{
		Method:      method,
		Path:        path,
		Body:        body,
		Token:       token,
		ContentType: contentType,
	})
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// encodeTransaction builds the multipart body with category_id, type,
// amount, date and the optional description and image parts.
func encodeTransaction(f core.TransactionForm) (io.Reader, string, error) {
	amount, err := core.ParseAmount(f.Amount)
	if err != nil {
		return nil, "", err
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	fields := [][2]string{
		{"category_id", strconv.FormatInt(f.CategoryID, 10)},
		{"type", f.Type.String()},
		{"amount", amount.String()},
		{"date", strings.TrimSpace(f.Date)},
	}
	if desc := strings.TrimSpace(f.Description); desc != "" {
		fields = append(fields, [2]string{"description", desc})
	}
	for _, kv := range fields {
		if err := mw.WriteField(kv[0], kv[1]); err != nil {
			return nil, "", fmt.Errorf("write field %s: %w", kv[0], err)
		}
	}

	if f.Image != nil && len(f.Image.Data) > 0 {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="image"; filename=%q`, imageFilename(f.Image)))
		h.Set("Content-Type", core.DetectImageType(*f.Image))
		part, err := mw.CreatePart(h)
		if err != nil {
			return nil, "", fmt.Errorf("create image part: %w", err)
		}
		if _, err := part.Write(f.Image.Data); err != nil {
			return nil, "", fmt.Errorf("write image part: %w", err)
		}
	}

	if err := mw.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart body: %w", err)
	}
	return &buf, mw.FormDataContentType(), nil
}

func imageFilename(u *core.Upload) string {
	name := strings.TrimSpace(u.Filename)
	if name == "" {
		return "receipt"
	}
	return strings.NewReplacer(`"`, "", "\\", "", "\r", "", "\n", "").Replace(name)
}
