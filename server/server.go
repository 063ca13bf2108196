// Package server is the session-gated storefront controller: it owns cart and
// catalog state per request, drives navigation between in-app pages, and gates
// server-mutating actions on authentication status.
package server

import (
	"fmt"
	"net/http"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/acheron-labs/voidmarket/auth"
	"github.com/acheron-labs/voidmarket/cart"
	"github.com/acheron-labs/voidmarket/catalog"
	"github.com/acheron-labs/voidmarket/internal/config"
	"github.com/acheron-labs/voidmarket/orders"
)

type Server struct {
	env      string // Environment (e.g., "DEV", "production")
	mux      *http.ServeMux
	routes   []string
	config   config.Config
	flow     *auth.Flow
	carts    cart.Repo
	catalog  *catalog.Client
	orders   *orders.Client
	renderer *Renderer

	// Single in-flight checkout per session, set before dispatch and
	// cleared on every exit path.
	checkoutMu       sync.Mutex
	checkoutInFlight map[string]bool
}

func New(cfg config.Config, flow *auth.Flow, carts cart.Repo, catalogClient *catalog.Client, ordersClient *orders.Client) (*Server, error) {
	if flow == nil {
		return nil, fmt.Errorf("[Server New] flow is required")
	}
	if carts == nil {
		return nil, fmt.Errorf("[Server New] cart repo is required")
	}
	if catalogClient == nil {
		return nil, fmt.Errorf("[Server New] catalog client is required")
	}
	if ordersClient == nil {
		return nil, fmt.Errorf("[Server New] orders client is required")
	}

	renderer, err := NewRenderer()
	if err != nil {
		return nil, fmt.Errorf("[Server New] failed to parse templates: %w", err)
	}

	s := &Server{
		mux:              http.NewServeMux(),
		config:           cfg,
		flow:             flow,
		carts:            carts,
		catalog:          catalogClient,
		orders:           ordersClient,
		renderer:         renderer,
		checkoutInFlight: make(map[string]bool),
	}
	s.env = cfg.GetEnv()

	if dir := cfg.GetTemplatesDir(); dir != "" && s.env == "DEV" {
		if err := renderer.WatchDir(dir); err != nil {
			log.Warn().Err(err).Str("dir", dir).Msg("template reload disabled")
		}
	}

	s.initRoutes()
	s.logRoutes()

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

func (s *Server) initRoutes() {
	html := s.HTMLMiddleware()

	// Pages
	s.RegisterRouteFunc("GET /{$}", ChainMiddleware(s.HomeHandler(), html...))
	s.RegisterRouteFunc("GET "+RouteCart, ChainMiddleware(s.CartPageHandler(), html...))
	s.RegisterRouteFunc("GET "+RouteOrders, ChainMiddleware(s.OrdersPageHandler(), html...))
	s.RegisterRouteFunc("GET "+RouteAccount, ChainMiddleware(s.AccountPageHandler(), html...))

	// Actions
	s.RegisterRouteFunc("POST "+RouteCartItems, ChainMiddleware(s.AddToCartHandler(), html...))
	s.RegisterRouteFunc("POST "+RouteCheckout, ChainMiddleware(s.CheckoutHandler(), html...))
	s.RegisterRouteFunc("POST "+RouteOrderCancel, ChainMiddleware(s.CancelOrderHandler(), html...))

	// Auth flow
	s.RegisterRouteFunc("GET "+RouteLogin, ChainMiddleware(s.LoginHandler(), html...))
	s.RegisterRouteFunc("GET "+RouteCallback, ChainMiddleware(s.CallbackHandler(), html...))
	s.RegisterRouteFunc("GET "+RouteLogout, ChainMiddleware(s.LogoutHandler(), html...))

	// Static assets
	s.RegisterRouteFunc("GET /static/", StaticFileHandler())
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return // Skip logging in non-development environments
	}
	for _, route := range s.routes {
		log.Debug().Str("route", route).Msg("registered")
	}
}

// Helper function to determine the scheme (http/https)
func getScheme(r *http.Request) string {
	if r.TLS != nil {
		return "https"
	}
	if scheme := r.Header.Get("X-Forwarded-Proto"); scheme != "" {
		return scheme
	}
	return "http"
}
