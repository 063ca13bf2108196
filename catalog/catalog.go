// Package catalog models the product catalog as a point-in-time snapshot:
// fetched per page load, filtered in memory, never kept consistent with the
// resource server in real time.
package catalog

import "strings"

type Product struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Description  string  `json:"description,omitempty"`
	Brand        string  `json:"brand,omitempty"`
	Size         string  `json:"size,omitempty"`
	Color        string  `json:"color,omitempty"`
	ImageURL     string  `json:"imageUrl,omitempty"`
	CategoryID   string  `json:"categoryId,omitempty"`
	CategoryName string  `json:"categoryName,omitempty"`
	Price        float64 `json:"price"`
	Stock        int     `json:"stock"`
}

type Category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// SoldOut reports whether the product can no longer be added to a cart.
func (p Product) SoldOut() bool {
	return p.Stock == 0
}

// Filter narrows a snapshot by a case-insensitive substring match on name or
// brand, and by category ID when one is selected. Pure and synchronous.
func Filter(products []Product, query, categoryID string) []Product {
	q := strings.ToLower(strings.TrimSpace(query))

	out := make([]Product, 0, len(products))
	for _, p := range products {
		if q != "" &&
			!strings.Contains(strings.ToLower(p.Name), q) &&
			!strings.Contains(strings.ToLower(p.Brand), q) {
			continue
		}
		if categoryID != "" && p.CategoryID != categoryID {
			continue
		}
		out = append(out, p)
	}
	return out
}

// FindByID looks a product up in a snapshot. Existence is only checked here,
// at render and checkout time, never at add-to-cart time.
func FindByID(products []Product, id string) (Product, bool) {
	for _, p := range products {
		if p.ID == id {
			return p, true
		}
	}
	return Product{}, false
}
