package core

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	Income  TxType = "income"
	Expense TxType = "expense"
)

const dateLayout = "2006-01-02"

type (
	// TxType is the direction of money for categories and transactions.
	TxType string

	// Date is a calendar date as exchanged with the backend (YYYY-MM-DD).
	Date struct {
		time.Time
	}

	Category struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
		Type TxType `json:"type"`
	}

	// CategoryRef is the read-only category embedded in transaction list responses.
	CategoryRef struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
		Type TxType `json:"type,omitempty"`
	}

	Transaction struct {
		ID          int64           `json:"id"`
		CategoryID  int64           `json:"category_id"`
		Type        TxType          `json:"type"`
		Amount      decimal.Decimal `json:"amount"`
		Date        Date            `json:"date"`
		Description string          `json:"description"`
		ImageURL    string          `json:"image_url,omitempty"`
		Category    *CategoryRef    `json:"category,omitempty"`
	}

	CategoryForm struct {
		Name string
		Type TxType
	}

	// TransactionForm holds the raw values of the transaction form. Amount and
	// Date stay strings so a failed submit can re-render exactly what was typed.
	TransactionForm struct {
		CategoryID  int64
		Type        TxType
		Amount      string
		Date        string
		Description string
		Image       *Upload
	}

	Credentials struct {
		Email    string
		Password string
	}

	Registration struct {
		Name                 string
		Email                string
		Password             string
		PasswordConfirmation string
	}
)

var (
	ErrInvalidType       = errors.New("type must be income or expense")
	ErrEmptyName         = errors.New("name is required")
	ErrMissingCategory   = errors.New("category is required")
	ErrInvalidAmount     = errors.New("amount must be a positive number")
	ErrMissingAmount     = errors.New("amount is required")
	ErrMissingDate       = errors.New("date is required")
	ErrInvalidDate       = errors.New("date must be in YYYY-MM-DD format")
	ErrMissingCredential = errors.New("email and password are required")
	ErrMissingFields     = errors.New("all fields are required")
	ErrPasswordMismatch  = errors.New("password and confirmation do not match")
	ErrPasswordTooShort  = errors.New("password must be at least 6 characters")
)

// MinPasswordLength is the shortest password accepted by the register form.
const MinPasswordLength = 6

// ParseTxType accepts "income" or "expense" in any case.
func ParseTxType(s string) (TxType, error) {
	t := TxType(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", ErrInvalidType
	}
	return t, nil
}

func (t TxType) Valid() bool {
	return t == Income || t == Expense
}

func (t TxType) String() string {
	return string(t)
}

// NewDate creates a Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(dateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON accepts plain dates as well as full timestamps, which some
// backend serializers emit for date columns.
func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	s = strings.TrimSpace(s)
	if s == "" {
		*d = Date{}
		return nil
	}
	if t, err := time.Parse(dateLayout, s); err == nil {
		*d = Date{Time: t}
		return nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return ErrInvalidDate
	}
	*d = NewDate(t.Year(), int(t.Month()), t.Day())
	return nil
}

// CategoryName returns the embedded category name, if the backend resolved it.
func (t Transaction) CategoryName() string {
	if t.Category == nil {
		return ""
	}
	return t.Category.Name
}

func (f CategoryForm) Validate() error {
	if strings.TrimSpace(f.Name) == "" {
		return ErrEmptyName
	}
	if !f.Type.Valid() {
		return ErrInvalidType
	}
	return nil
}

func (f TransactionForm) Validate() error {
	if f.CategoryID <= 0 {
		return ErrMissingCategory
	}
	if !f.Type.Valid() {
		return ErrInvalidType
	}
	if strings.TrimSpace(f.Amount) == "" {
		return ErrMissingAmount
	}
	if _, err := ParseAmount(f.Amount); err != nil {
		return err
	}
	if strings.TrimSpace(f.Date) == "" {
		return ErrMissingDate
	}
	if _, err := ParseDate(f.Date); err != nil {
		return err
	}
	if f.Image != nil {
		if err := ValidateImage(*f.Image); err != nil {
			return err
		}
	}
	return nil
}

// TransactionFormFrom copies an existing transaction into form state.
func TransactionFormFrom(t Transaction) TransactionForm {
	return TransactionForm{
		CategoryID:  t.CategoryID,
		Type:        t.Type,
		Amount:      t.Amount.String(),
		Date:        t.Date.String(),
		Description: t.Description,
	}
}

// CategoryFormFrom copies an existing category into form state.
func CategoryFormFrom(c Category) CategoryForm {
	return CategoryForm{Name: c.Name, Type: c.Type}
}

func (c Credentials) Validate() error {
	if strings.TrimSpace(c.Email) == "" || c.Password == "" {
		return ErrMissingCredential
	}
	return nil
}

// Validate checks required fields first, then the confirmation, then length.
func (r Registration) Validate() error {
	if strings.TrimSpace(r.Name) == "" || strings.TrimSpace(r.Email) == "" ||
		r.Password == "" || r.PasswordConfirmation == "" {
		return ErrMissingFields
	}
	if r.Password != r.PasswordConfirmation {
		return ErrPasswordMismatch
	}
	if len(r.Password) < MinPasswordLength {
		return ErrPasswordTooShort
	}
	return nil
}
