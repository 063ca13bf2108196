// Package authtest runs an in-process stand-in for the authorization server
// and the resource server, so the full redirect round trip and the gated
// resource calls can be exercised in tests without external services.
//
// The authorization leg issues single-use codes bound to a PKCE challenge and
// validates S256 on exchange; access tokens are HS256 JWTs. The resource leg
// serves products, categories, orders, and the profile endpoint, with
// switches to force failures and counters to assert which calls happened.
package authtest

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/acheron-labs/voidmarket/catalog"
	"github.com/acheron-labs/voidmarket/orders"
)

const (
	// Subject and claims minted into every access token.
	TestUserID    = "user-1"
	TestUserEmail = "john.doe@example.com"
	TestUserName  = "John Doe"

	tokenLifetime = time.Hour
)

type codeGrant struct {
	challenge   string
	method      string
	redirectURI string
	clientID    string
}

// Server is the combined fake. Zero-value switches mean everything succeeds.
type Server struct {
	httpSrv    *httptest.Server
	signingKey []byte

	mu          sync.Mutex
	codes       map[string]codeGrant
	calls       map[string]int
	products    []catalog.Product
	categories  []catalog.Category
	orders      []orders.Order
	orderStatus int           // non-zero forces POST /api/orders to that status
	orderGate   chan struct{} // when non-nil, POST /api/orders waits on it
	denyBearer  bool
}

// New starts the fake server with a seed catalog.
func New() *Server {
	key := make([]byte, 32)
	rand.Read(key)

	s := &Server{
		signingKey: key,
		codes:      make(map[string]codeGrant),
		calls:      make(map[string]int),
		products: []catalog.Product{
			{ID: "p1", Name: "Void Tee", Brand: "Nyx", Price: 19.99, Stock: 12, CategoryID: "c1", CategoryName: "Tops"},
			{ID: "p2", Name: "Abyss Hoodie", Brand: "Nyx", Price: 59.90, Stock: 3, CategoryID: "c1", CategoryName: "Tops"},
			{ID: "p3", Name: "Eclipse Boots", Brand: "Hekate", Price: 120.00, Stock: 0, CategoryID: "c2", CategoryName: "Footwear"},
		},
		categories: []catalog.Category{
			{ID: "c1", Name: "Tops"},
			{ID: "c2", Name: "Footwear"},
		},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /oauth2/authorize", s.handleAuthorize)
	mux.HandleFunc("POST /oauth2/token", s.handleToken)
	mux.HandleFunc("GET /connect/logout", s.handleLogout)
	mux.HandleFunc("GET /api/products", s.handleProducts)
	mux.HandleFunc("GET /api/categories", s.handleCategories)
	mux.HandleFunc("GET /api/orders", s.handleOrderList)
	mux.HandleFunc("POST /api/orders", s.handleOrderCreate)
	mux.HandleFunc("PATCH /api/orders/{id}/cancel", s.handleOrderCancel)
	mux.HandleFunc("GET /api/me", s.handleMe)

	s.httpSrv = httptest.NewServer(mux)
	return s
}

// URL is the base URL of the fake; it serves both the authorization endpoints
// and the /api resource endpoints.
func (s *Server) URL() string {
	return s.httpSrv.URL
}

// APIBaseURL is the resource API base, i.e. URL()+"/api".
func (s *Server) APIBaseURL() string {
	return s.httpSrv.URL + "/api"
}

func (s *Server) Close() {
	s.httpSrv.Close()
}

// Calls returns how many requests hit the given route, e.g. "/api/orders".
func (s *Server) Calls(route string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[route]
}

// FailOrderCreate forces POST /api/orders to return the given status.
// Zero restores normal behavior.
func (s *Server) FailOrderCreate(status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orderStatus = status
}

// BlockOrderCreate makes POST /api/orders wait until the returned release
// function is called, so a test can hold an order in flight.
func (s *Server) BlockOrderCreate() (release func()) {
	gate := make(chan struct{})
	s.mu.Lock()
	s.orderGate = gate
	s.mu.Unlock()
	return func() { close(gate) }
}

// DenyBearer makes every bearer-authenticated endpoint return 401 regardless
// of the presented token, simulating a never-renewed expired session.
func (s *Server) DenyBearer(deny bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.denyBearer = deny
}

// Orders returns a copy of the orders created so far.
func (s *Server) Orders() []orders.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]orders.Order, len(s.orders))
	copy(out, s.orders)
	return out
}

// SetProducts replaces the seed catalog.
func (s *Server) SetProducts(products []catalog.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products = products
}

func (s *Server) count(route string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls[route]++
}

// Authorize immediately grants a code, standing in for the login UI. The
// redirect goes back to redirect_uri with code and the echoed state.
func (s *Server) handleAuthorize(w http.ResponseWriter, r *http.Request) {
	s.count("/oauth2/authorize")
	q := r.URL.Query()

	if q.Get("response_type") != "code" || q.Get("client_id") == "" {
		http.Error(w, "invalid_request", http.StatusBadRequest)
		return
	}
	if q.Get("code_challenge") == "" || q.Get("code_challenge_method") != "S256" {
		// PKCE required for public clients
		http.Error(w, "invalid_request", http.StatusBadRequest)
		return
	}

	code := uuid.New().String()
	s.mu.Lock()
	s.codes[code] = codeGrant{
		challenge:   q.Get("code_challenge"),
		method:      q.Get("code_challenge_method"),
		redirectURI: q.Get("redirect_uri"),
		clientID:    q.Get("client_id"),
	}
	s.mu.Unlock()

	redirect, err := url.Parse(q.Get("redirect_uri"))
	if err != nil {
		http.Error(w, "invalid_request", http.StatusBadRequest)
		return
	}
	rq := redirect.Query()
	rq.Set("code", code)
	if state := q.Get("state"); state != "" {
		rq.Set("state", state)
	}
	redirect.RawQuery = rq.Encode()

	http.Redirect(w, r, redirect.String(), http.StatusFound)
}

func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	s.count("/oauth2/token")
	if err := r.ParseForm(); err != nil {
		tokenError(w, "invalid_request")
		return
	}
	if r.PostFormValue("grant_type") != "authorization_code" {
		tokenError(w, "unsupported_grant_type")
		return
	}

	code := r.PostFormValue("code")
	s.mu.Lock()
	grant, ok := s.codes[code]
	delete(s.codes, code) // single use
	s.mu.Unlock()
	if !ok {
		tokenError(w, "invalid_grant")
		return
	}

	if r.PostFormValue("redirect_uri") != grant.redirectURI ||
		r.PostFormValue("client_id") != grant.clientID {
		tokenError(w, "invalid_grant")
		return
	}
	if !checkCodeChallenge(grant.challenge, r.PostFormValue("code_verifier"), grant.method) {
		tokenError(w, "invalid_grant")
		return
	}

	token, err := s.mintToken()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"access_token": token,
		"token_type":   "Bearer",
		"expires_in":   int(tokenLifetime.Seconds()),
	})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.count("/connect/logout")
	target := r.URL.Query().Get("post_logout_redirect_uri")
	if target == "" {
		http.Error(w, "missing post_logout_redirect_uri", http.StatusBadRequest)
		return
	}
	http.Redirect(w, r, target, http.StatusFound)
}

func (s *Server) handleProducts(w http.ResponseWriter, r *http.Request) {
	s.count("/api/products")
	s.mu.Lock()
	products := make([]catalog.Product, len(s.products))
	copy(products, s.products)
	s.mu.Unlock()

	// Page wrapper, as the real product endpoint responds
	writeJSON(w, http.StatusOK, map[string]any{"content": products})
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	s.count("/api/categories")
	s.mu.Lock()
	categories := make([]catalog.Category, len(s.categories))
	copy(categories, s.categories)
	s.mu.Unlock()

	// Bare array, as the real category endpoint responds
	writeJSON(w, http.StatusOK, categories)
}

func (s *Server) handleOrderList(w http.ResponseWriter, r *http.Request) {
	s.count("/api/orders")
	if !s.authorized(r) {
		unauthorized(w)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"content": s.Orders()})
}

func (s *Server) handleOrderCreate(w http.ResponseWriter, r *http.Request) {
	s.count("/api/orders")
	if !s.authorized(r) {
		unauthorized(w)
		return
	}

	s.mu.Lock()
	forced := s.orderStatus
	gate := s.orderGate
	s.mu.Unlock()
	if gate != nil {
		<-gate
	}
	if forced != 0 {
		http.Error(w, "order failed", forced)
		return
	}

	var req orders.CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.Items) == 0 {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	order := orders.Order{
		ID:        uuid.New().String(),
		UserID:    TestUserID,
		Status:    orders.StatusPending,
		CreatedAt: time.Now().UTC(),
	}
	s.mu.Lock()
	for _, item := range req.Items {
		product, ok := catalog.FindByID(s.products, item.ProductID)
		if !ok || item.Quantity <= 0 {
			s.mu.Unlock()
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		order.Items = append(order.Items, orders.Item{
			ProductID:   product.ID,
			ProductName: product.Name,
			Quantity:    item.Quantity,
			UnitPrice:   product.Price,
		})
		order.TotalAmount += product.Price * float64(item.Quantity)
	}
	s.orders = append([]orders.Order{order}, s.orders...)
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, order)
}

func (s *Server) handleOrderCancel(w http.ResponseWriter, r *http.Request) {
	s.count("/api/orders/cancel")
	if !s.authorized(r) {
		unauthorized(w)
		return
	}

	id := r.PathValue("id")
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.orders {
		if s.orders[i].ID == id && s.orders[i].Status == orders.StatusPending {
			s.orders[i].Status = orders.StatusCancelled
			writeJSON(w, http.StatusOK, s.orders[i])
			return
		}
	}
	http.Error(w, "bad request", http.StatusBadRequest)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	s.count("/api/me")
	if !s.authorized(r) {
		unauthorized(w)
		return
	}

	writeJSON(w, http.StatusOK, orders.Me{
		ID:          TestUserID,
		Email:       TestUserEmail,
		DisplayName: TestUserName,
	})
}

func (s *Server) mintToken() (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":   TestUserID,
		"email": TestUserEmail,
		"name":  TestUserName,
		"iat":   now.Unix(),
		"exp":   now.Add(tokenLifetime).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.signingKey)
}

func (s *Server) authorized(r *http.Request) bool {
	s.mu.Lock()
	deny := s.denyBearer
	s.mu.Unlock()
	if deny {
		return false
	}

	header := r.Header.Get("Authorization")
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return false
	}

	_, err := jwt.Parse(parts[1], func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.signingKey, nil
	})
	return err == nil
}

func checkCodeChallenge(storedChallenge, verifier, method string) bool {
	switch method {
	case "S256":
		hash := sha256.Sum256([]byte(verifier))
		return base64.RawURLEncoding.EncodeToString(hash[:]) == storedChallenge
	case "plain", "":
		return storedChallenge == verifier
	}
	return false
}

func tokenError(w http.ResponseWriter, code string) {
	writeJSON(w, http.StatusBadRequest, map[string]string{"error": code})
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="api"`)
	http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
