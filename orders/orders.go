// Package orders is the client for the server-owned order resource. Orders
// are only read and created here, never mutated after creation — with the one
// exception of requesting a cancel while an order is still pending.
package orders

import "time"

// Order statuses as the resource server enumerates them.
const (
	StatusPending   = "PENDING"
	StatusConfirmed = "CONFIRMED"
	StatusShipped   = "SHIPPED"
	StatusCancelled = "CANCELLED"
)

type Item struct {
	ProductID   string  `json:"productId"`
	ProductName string  `json:"productName"`
	Quantity    int     `json:"quantity"`
	UnitPrice   float64 `json:"unitPrice"`
}

type Order struct {
	ID          string    `json:"id"`
	UserID      string    `json:"userId,omitempty"`
	Status      string    `json:"status"`
	TotalAmount float64   `json:"totalAmount"`
	Items       []Item    `json:"items"`
	CreatedAt   time.Time `json:"createdAt,omitempty"`
}

// ItemRequest is one line of a create-order request.
type ItemRequest struct {
	ProductID string `json:"productId" validate:"required"`
	Quantity  int    `json:"quantity" validate:"required,min=1"`
}

// CreateRequest is the body of POST /api/orders.
type CreateRequest struct {
	Items []ItemRequest `json:"items" validate:"required,min=1,dive"`
}

// Me is the authenticated user's profile as served by GET /api/me.
type Me struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
}
