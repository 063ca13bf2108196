package server

import (
	"time"

	"github.com/rs/zerolog/log"

	"github.com/acheron-labs/voidmarket/catalog"
	"github.com/acheron-labs/voidmarket/orders"
)

// Message kinds rendered inline on the cart page.
const (
	messageSuccess = "success"
	messageError   = "error"
)

// navData is shared by every page: the nav bar state.
type navData struct {
	LoggedIn  bool
	CartCount int
	Year      int
}

type homeData struct {
	navData
	Products     []catalog.Product
	Categories   []catalog.Category
	Query        string
	CategoryID   string
	CatalogError bool
}

type cartLine struct {
	Name     string
	Brand    string
	Price    float64
	Quantity int
}

type cartData struct {
	navData
	Empty       bool
	Lines       []cartLine
	Total       float64
	Message     string
	MessageKind string
}

type ordersData struct {
	navData
	NeedsLogin bool
	LoadFailed bool
	Orders     []orders.Order
}

type accountData struct {
	navData
	NeedsLogin bool
	LoadFailed bool
	Me         *orders.Me
}

// nav reads the cart count from durable storage and the auth status from the
// session cell. Both are pure reads.
func (s *Server) nav(sessionID, cartID string) navData {
	items, err := s.carts.Get(cartID)
	if err != nil {
		log.Warn().Err(err).Msg("failed to load cart for nav")
	}
	return navData{
		LoggedIn:  s.flow.Authenticated(sessionID),
		CartCount: items.Count(),
		Year:      time.Now().Year(),
	}
}
