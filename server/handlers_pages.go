package server

import (
	"net/http"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/acheron-labs/voidmarket/catalog"
	errs "github.com/acheron-labs/voidmarket/internal/errors"
)

// HomeHandler renders the shop page from a fresh catalog snapshot. Products
// and categories are fetched concurrently; a fetch failure degrades to an
// empty grid with an inline error, retryable by reloading.
func (s *Server) HomeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := s.sessionID(w, r)
		cartID := s.cartID(w, r)

		var (
			products      []catalog.Product
			categories    []catalog.Category
			productsErr   error
			categoriesErr error
		)
		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			products, productsErr = s.catalog.Products(r.Context())
		}()
		go func() {
			defer wg.Done()
			categories, categoriesErr = s.catalog.Categories(r.Context())
		}()
		wg.Wait()

		if productsErr != nil || categoriesErr != nil {
			log.Warn().AnErr("products", productsErr).AnErr("categories", categoriesErr).
				Msg("catalog snapshot failed")
		}

		query := r.URL.Query().Get("q")
		categoryID := r.URL.Query().Get("category")

		s.render(w, "home", homeData{
			navData:      s.nav(sessionID, cartID),
			Products:     catalog.Filter(products, query, categoryID),
			Categories:   categories,
			Query:        query,
			CategoryID:   categoryID,
			CatalogError: productsErr != nil || categoriesErr != nil,
		})
	}
}

// CartPageHandler renders the cart. Line items are joined against the current
// catalog snapshot; lines whose product no longer exists are skipped at
// render time, never removed from storage.
func (s *Server) CartPageHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := s.sessionID(w, r)
		cartID := s.cartID(w, r)
		s.render(w, "cart", s.cartData(r, sessionID, cartID, "", ""))
	}
}

// OrdersPageHandler is gated: an unauthenticated visit renders a login prompt
// and issues no resource request at all.
func (s *Server) OrdersPageHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := s.sessionID(w, r)
		cartID := s.cartID(w, r)
		nav := s.nav(sessionID, cartID)

		if !nav.LoggedIn {
			s.render(w, "orders", ordersData{navData: nav, NeedsLogin: true})
			return
		}

		authHeader, _ := s.flow.AuthHeader(sessionID)
		list, err := s.orders.List(r.Context(), authHeader)
		if err != nil {
			log.Warn().Err(err).Msg("order listing failed")
			if errs.Is(err, errs.ErrUnauthorized) {
				// Token no longer accepted upstream: show the login
				// prompt, never retry automatically.
				s.render(w, "orders", ordersData{navData: nav, NeedsLogin: true})
				return
			}
			s.render(w, "orders", ordersData{navData: nav, LoadFailed: true})
			return
		}

		s.render(w, "orders", ordersData{navData: nav, Orders: list})
	}
}

// AccountPageHandler renders the authenticated user's profile, gated the same
// way as the orders page.
func (s *Server) AccountPageHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := s.sessionID(w, r)
		cartID := s.cartID(w, r)
		nav := s.nav(sessionID, cartID)

		if !nav.LoggedIn {
			s.render(w, "account", accountData{navData: nav, NeedsLogin: true})
			return
		}

		authHeader, _ := s.flow.AuthHeader(sessionID)
		me, err := s.orders.Profile(r.Context(), authHeader)
		if err != nil {
			log.Warn().Err(err).Msg("profile fetch failed")
			if errs.Is(err, errs.ErrUnauthorized) {
				s.render(w, "account", accountData{navData: nav, NeedsLogin: true})
				return
			}
			s.render(w, "account", accountData{navData: nav, LoadFailed: true})
			return
		}

		s.render(w, "account", accountData{navData: nav, Me: me})
	}
}

// cartData builds the cart view from durable storage plus a catalog snapshot.
func (s *Server) cartData(r *http.Request, sessionID, cartID, message, kind string) cartData {
	data := cartData{
		navData:     s.nav(sessionID, cartID),
		Message:     message,
		MessageKind: kind,
	}

	items, err := s.carts.Get(cartID)
	if err != nil {
		log.Warn().Err(err).Msg("failed to load cart")
	}
	if len(items) == 0 {
		data.Empty = true
		return data
	}

	products, err := s.catalog.Products(r.Context())
	if err != nil {
		log.Warn().Err(err).Msg("catalog snapshot failed for cart render")
	}

	for _, item := range items {
		product, ok := catalog.FindByID(products, item.ProductID)
		if !ok {
			continue
		}
		data.Lines = append(data.Lines, cartLine{
			Name:     product.Name,
			Brand:    product.Brand,
			Price:    product.Price,
			Quantity: item.Quantity,
		})
		data.Total += product.Price * float64(item.Quantity)
	}
	return data
}

func (s *Server) render(w http.ResponseWriter, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.renderer.Render(w, name, data); err != nil {
		log.Error().Err(err).Str("template", name).Msg("render failed")
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}
