package server

// In-app pages
const (
	RouteHome    = "/"
	RouteCart    = "/cart"
	RouteOrders  = "/orders"
	RouteAccount = "/account"
)

// Actions
const (
	RouteCartItems   = "/cart/items"
	RouteCheckout    = "/checkout"
	RouteOrderCancel = "/orders/{id}/cancel"
)

// Auth flow
const (
	RouteLogin    = "/auth/login"
	RouteLogout   = "/auth/logout"
	RouteCallback = "/callback"
)
