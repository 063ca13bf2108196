// Package cart holds the locally-owned shopping cart: an ordered sequence of
// line items persisted durably and cleared only after a confirmed order.
package cart

// Item is one cart line. Quantity is always positive; quantities only grow
// (duplicate adds increment, there is no decrement operation).
type Item struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// Items is the ordered cart contents.
type Items []Item

// Add increments the quantity of an existing line for productID or appends a
// new line with quantity 1, and returns the updated cart.
func (items Items) Add(productID string) Items {
	for i := range items {
		if items[i].ProductID == productID {
			items[i].Quantity++
			return items
		}
	}
	return append(items, Item{ProductID: productID, Quantity: 1})
}

// Count returns the number of line items, which is what the cart badge shows.
func (items Items) Count() int {
	return len(items)
}

// TotalQuantity returns the summed quantity across all lines.
func (items Items) TotalQuantity() int {
	total := 0
	for _, item := range items {
		total += item.Quantity
	}
	return total
}

// Normalize drops lines that violate the quantity invariant. Stored carts
// pass through it on load so a corrupt row cannot surface a quantity <= 0.
func (items Items) Normalize() Items {
	out := items[:0]
	for _, item := range items {
		if item.ProductID == "" || item.Quantity <= 0 {
			continue
		}
		out = append(out, item)
	}
	return out
}

// Clone returns an independent copy of the cart.
func (items Items) Clone() Items {
	if items == nil {
		return nil
	}
	out := make(Items, len(items))
	copy(out, items)
	return out
}
