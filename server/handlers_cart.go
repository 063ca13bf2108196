package server

import (
	"net/http"
	"net/url"

	"github.com/rs/zerolog/log"

	errs "github.com/acheron-labs/voidmarket/internal/errors"
	"github.com/acheron-labs/voidmarket/orders"
)

// AddToCartHandler appends or increments a cart line and persists the full
// cart. Product existence is not checked here; the cart page validates lines
// against the catalog at render time.
func (s *Server) AddToCartHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID := r.PostFormValue("productId")
		if productID == "" {
			http.Error(w, "productId is required", http.StatusBadRequest)
			return
		}

		cartID := s.cartID(w, r)
		items, err := s.carts.Get(cartID)
		if err != nil {
			log.Error().Err(err).Msg("failed to load cart")
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}

		if err := s.carts.Put(cartID, items.Add(productID)); err != nil {
			log.Error().Err(err).Msg("failed to persist cart")
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}

		http.Redirect(w, r, returnPath(r), http.StatusSeeOther)
	}
}

// CheckoutHandler places an order from the current cart. Only one checkout
// per session may be in flight; the cart is cleared solely on a confirmed
// order, and any failure leaves it byte-identical and retryable.
func (s *Server) CheckoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := s.sessionID(w, r)
		cartID := s.cartID(w, r)

		authHeader, ok := s.flow.AuthHeader(sessionID)
		if !ok {
			s.render(w, "cart", s.cartData(r, sessionID, cartID, "Please login to checkout.", messageError))
			return
		}

		if !s.beginCheckout(sessionID) {
			log.Warn().Err(errs.ErrCheckoutInFlight).Msg("checkout rejected")
			s.render(w, "cart", s.cartData(r, sessionID, cartID, "An order is already being placed.", messageError))
			return
		}
		defer s.endCheckout(sessionID)

		items, err := s.carts.Get(cartID)
		if err != nil {
			log.Error().Err(err).Msg("failed to load cart for checkout")
			s.render(w, "cart", s.cartData(r, sessionID, cartID, "Order failed. Please try again.", messageError))
			return
		}
		if len(items) == 0 {
			log.Debug().Err(errs.ErrEmptyCart).Msg("checkout skipped")
			s.render(w, "cart", s.cartData(r, sessionID, cartID, "", ""))
			return
		}

		req := orders.CreateRequest{}
		for _, item := range items {
			req.Items = append(req.Items, orders.ItemRequest{
				ProductID: item.ProductID,
				Quantity:  item.Quantity,
			})
		}

		if _, err := s.orders.Create(r.Context(), authHeader, req); err != nil {
			log.Warn().Err(err).Msg("order placement failed")
			message := "Order failed. Please try again."
			if errs.Is(err, errs.ErrUnauthorized) {
				message = "Please login to checkout."
			}
			s.render(w, "cart", s.cartData(r, sessionID, cartID, message, messageError))
			return
		}

		if err := s.carts.Delete(cartID); err != nil {
			// The order is confirmed; a stale cart is an annoyance, not a
			// reason to report failure.
			log.Error().Err(err).Msg("failed to clear cart after order")
		}

		s.render(w, "cart", s.cartData(r, sessionID, cartID, "Order placed!", messageSuccess))
	}
}

// CancelOrderHandler asks the resource server to cancel a pending order and
// returns to the order list either way.
func (s *Server) CancelOrderHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := s.sessionID(w, r)

		authHeader, ok := s.flow.AuthHeader(sessionID)
		if !ok {
			http.Redirect(w, r, RouteOrders, http.StatusSeeOther)
			return
		}

		if _, err := s.orders.Cancel(r.Context(), authHeader, r.PathValue("id")); err != nil {
			log.Warn().Err(err).Str("order", r.PathValue("id")).Msg("order cancel failed")
		}

		http.Redirect(w, r, RouteOrders, http.StatusSeeOther)
	}
}

func (s *Server) beginCheckout(sessionID string) bool {
	s.checkoutMu.Lock()
	defer s.checkoutMu.Unlock()
	if s.checkoutInFlight[sessionID] {
		return false
	}
	s.checkoutInFlight[sessionID] = true
	return true
}

func (s *Server) endCheckout(sessionID string) {
	s.checkoutMu.Lock()
	defer s.checkoutMu.Unlock()
	delete(s.checkoutInFlight, sessionID)
}

// returnPath keeps post-action redirects on-site: only the path of the
// referring page is used, never its host.
func returnPath(r *http.Request) string {
	ref, err := url.Parse(r.Referer())
	if err != nil || ref.Path == "" {
		return RouteHome
	}
	if ref.RawQuery != "" {
		return ref.Path + "?" + ref.RawQuery
	}
	return ref.Path
}
