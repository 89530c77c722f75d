package core

import "strings"

// FilterTransactions narrows an already fetched collection by type and by a
// case-insensitive substring of the category label or description. An empty
// or "all" type filter keeps every type. The input slice is not modified.
func FilterTransactions(items []Transaction, categories []Category, typeFilter, search string) []Transaction {
	typeFilter = strings.ToLower(strings.TrimSpace(typeFilter))
	needle := strings.ToLower(strings.TrimSpace(search))

	out := make([]Transaction, 0, len(items))
	for _, t := range items {
		if typeFilter != "" && typeFilter != "all" && string(t.Type) != typeFilter {
			continue
		}
		if needle != "" &&
			!strings.Contains(strings.ToLower(CategoryLabel(t, categories)), needle) &&
			!strings.Contains(strings.ToLower(t.Description), needle) {
			continue
		}
		out = append(out, t)
	}
	return out
}

// CategoryLabel names the category of t, falling back to the category list
// when the backend did not embed it.
func CategoryLabel(t Transaction, categories []Category) string {
	if name := t.CategoryName(); name != "" {
		return name
	}
	if c, ok := FindCategory(categories, t.CategoryID); ok {
		return c.Name
	}
	return ""
}

// FilterCategoriesByType returns the categories selectable for a transaction
// of type t.
func FilterCategoriesByType(categories []Category, t TxType) []Category {
	out := make([]Category, 0, len(categories))
	for _, c := range categories {
		if c.Type == t {
			out = append(out, c)
		}
	}
	return out
}

// FindCategory looks up a category by id.
func FindCategory(categories []Category, id int64) (Category, bool) {
	for _, c := range categories {
		if c.ID == id {
			return c, true
		}
	}
	return Category{}, false
}
