package server_test

import (
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/acheron-labs/voidmarket/auth"
	"github.com/acheron-labs/voidmarket/auth/flowrepo"
	"github.com/acheron-labs/voidmarket/auth/sessionrepo"
	"github.com/acheron-labs/voidmarket/authtest"
	"github.com/acheron-labs/voidmarket/cart"
	"github.com/acheron-labs/voidmarket/catalog"
	"github.com/acheron-labs/voidmarket/internal/config"
	"github.com/acheron-labs/voidmarket/orders"
	"github.com/acheron-labs/voidmarket/server"
)

type testConfig struct {
	config.EnvVars
	config.OAuth
	config.Store
}

func (testConfig) GetEnv() string          { return "TEST" }
func (testConfig) GetTemplatesDir() string { return "" }

// fixture runs the storefront against the combined fake authorization and
// resource server, with a cookie-jar client standing in for the browser.
type fixture struct {
	authSrv *authtest.Server
	carts   *cart.InMemoryRepo
	base    string
	client  *http.Client
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	authSrv := authtest.New()
	t.Cleanup(authSrv.Close)

	// The storefront needs its own public URL before the flow can be built,
	// so start the listener first and attach the handler after.
	ts := httptest.NewUnstartedServer(http.NotFoundHandler())
	ts.Start()
	t.Cleanup(ts.Close)

	flow, err := auth.NewFlow(
		auth.Config{
			AuthServerURL: authSrv.URL(),
			ClientID:      "alt-shop_mobile",
			RedirectURI:   ts.URL + "/callback",
			Scopes:        []string{"openid", "profile", "email"},
		},
		auth.Repos{
			Pending:  flowrepo.NewInMemoryRepo(),
			Sessions: sessionrepo.NewInMemoryRepo(),
		},
	)
	require.NoError(t, err)

	carts := cart.NewInMemoryRepo()
	srv, err := server.New(testConfig{}, flow, carts,
		catalog.NewClient(authSrv.APIBaseURL()),
		orders.NewClient(authSrv.APIBaseURL()),
	)
	require.NoError(t, err)
	ts.Config.Handler = srv

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)

	return &fixture{
		authSrv: authSrv,
		carts:   carts,
		base:    ts.URL,
		client:  &http.Client{Jar: jar},
	}
}

func (f *fixture) get(t *testing.T, path string) string {
	t.Helper()

	resp, err := f.client.Get(f.base + path)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(body)
}

func (f *fixture) postForm(t *testing.T, path string, values url.Values) string {
	t.Helper()

	resp, err := f.client.PostForm(f.base+path, values)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(body)
}

// login drives the whole redirect chain: the login route hands off to the
// authorization server, which bounces straight back through the callback.
func (f *fixture) login(t *testing.T) {
	t.Helper()
	body := f.get(t, "/auth/login")
	require.Contains(t, body, "/auth/logout")
}

func (f *fixture) addToCart(t *testing.T, productID string) {
	t.Helper()
	f.postForm(t, "/cart/items", url.Values{"productId": {productID}})
}

// cartID reads the durable cart cookie the way the server minted it.
func (f *fixture) cartID(t *testing.T) string {
	t.Helper()

	base, err := url.Parse(f.base)
	require.NoError(t, err)
	for _, cookie := range f.client.Jar.Cookies(base) {
		if cookie.Name == "void_cart" {
			return cookie.Value
		}
	}
	t.Fatal("no cart cookie set")
	return ""
}

func TestHomePageRendersCatalog(t *testing.T) {
	f := newFixture(t)

	body := f.get(t, "/")
	require.Contains(t, body, "WEAR THE")
	require.Contains(t, body, "Void Tee")
	require.Contains(t, body, "Abyss Hoodie")
	require.Contains(t, body, "/auth/login")
}

func TestHomePageMarksSoldOutProducts(t *testing.T) {
	f := newFixture(t)

	body := f.get(t, "/")
	require.Contains(t, body, "SOLD OUT")
	require.Contains(t, body, `<button class="add-to-cart" disabled>Sold Out</button>`)
}

func TestHomePageFilters(t *testing.T) {
	f := newFixture(t)

	body := f.get(t, "/?category=c2")
	require.Contains(t, body, "Eclipse Boots")
	require.NotContains(t, body, "Void Tee")

	body = f.get(t, "/?q=abyss")
	require.Contains(t, body, "Abyss Hoodie")
	require.NotContains(t, body, "Eclipse Boots")
}

func TestHomePageDegradesWhenCatalogUnavailable(t *testing.T) {
	f := newFixture(t)
	f.authSrv.Close()

	body := f.get(t, "/")
	require.Contains(t, body, "Failed to load the catalog.")
	require.NotContains(t, body, "Void Tee")
}

func TestAddToCartMergesDuplicateLines(t *testing.T) {
	f := newFixture(t)

	f.addToCart(t, "p1")
	f.addToCart(t, "p1")

	body := f.get(t, "/cart")
	require.Contains(t, body, "Void Tee")
	require.Contains(t, body, "€19.99 &times; 2")
	require.Contains(t, body, `cart-count">1<`)
}

func TestAddToCartRequiresProductID(t *testing.T) {
	f := newFixture(t)

	resp, err := f.client.PostForm(f.base+"/cart/items", url.Values{})
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAddToCartReturnsToReferringPage(t *testing.T) {
	f := newFixture(t)

	form := url.Values{"productId": {"p1"}}
	req, err := http.NewRequest(http.MethodPost, f.base+"/cart/items", strings.NewReader(form.Encode()))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Referer", f.base+"/?q=void")

	resp, err := f.client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "/", resp.Request.URL.Path)
	require.Equal(t, "q=void", resp.Request.URL.RawQuery)
}

func TestUnauthenticatedOrdersPageMakesNoResourceCalls(t *testing.T) {
	f := newFixture(t)

	body := f.get(t, "/orders")
	require.Contains(t, body, "Please login to view orders.")
	require.Zero(t, f.authSrv.Calls("/api/orders"))
}

func TestUnauthenticatedAccountPageMakesNoResourceCalls(t *testing.T) {
	f := newFixture(t)

	body := f.get(t, "/account")
	require.Contains(t, body, "Please login to view your account.")
	require.Zero(t, f.authSrv.Calls("/api/me"))
}

func TestLoginRoundTrip(t *testing.T) {
	f := newFixture(t)

	resp, err := f.client.Get(f.base + "/auth/login")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// The callback redirect strips the authorization code from the visible URL.
	require.Equal(t, "/", resp.Request.URL.Path)
	require.Empty(t, resp.Request.URL.RawQuery)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), "/auth/logout")
	require.Equal(t, 1, f.authSrv.Calls("/oauth2/token"))
}

func TestLogoutEndsSession(t *testing.T) {
	f := newFixture(t)
	f.login(t)

	body := f.get(t, "/auth/logout")
	require.Contains(t, body, "/auth/login")
	require.NotContains(t, body, "/auth/logout")
	require.Equal(t, 1, f.authSrv.Calls("/connect/logout"))

	body = f.get(t, "/orders")
	require.Contains(t, body, "Please login to view orders.")
}

func TestOrdersPageAfterLogin(t *testing.T) {
	f := newFixture(t)
	f.login(t)

	body := f.get(t, "/orders")
	require.Contains(t, body, "No orders yet.")
}

func TestOrdersPageWhenTokenRejected(t *testing.T) {
	f := newFixture(t)
	f.login(t)
	f.authSrv.DenyBearer(true)

	body := f.get(t, "/orders")
	require.Contains(t, body, "Please login to view orders.")
}

func TestAccountPageShowsProfile(t *testing.T) {
	f := newFixture(t)
	f.login(t)

	body := f.get(t, "/account")
	require.Contains(t, body, authtest.TestUserName)
	require.Contains(t, body, authtest.TestUserEmail)
}

func TestCheckoutPlacesOrderAndClearsCart(t *testing.T) {
	f := newFixture(t)
	f.login(t)
	f.addToCart(t, "p1")
	f.addToCart(t, "p1")
	f.addToCart(t, "p2")

	body := f.postForm(t, "/checkout", url.Values{})
	require.Contains(t, body, "Order placed!")
	require.Contains(t, body, "Your cart is empty.")

	placed := f.authSrv.Orders()
	require.Len(t, placed, 1)
	require.Equal(t, orders.StatusPending, placed[0].Status)
	require.Len(t, placed[0].Items, 2)
	require.Equal(t, "p1", placed[0].Items[0].ProductID)
	require.Equal(t, 2, placed[0].Items[0].Quantity)
	require.InDelta(t, 99.88, placed[0].TotalAmount, 0.001)

	items, err := f.carts.Get(f.cartID(t))
	require.NoError(t, err)
	require.Empty(t, items)
}

func TestCheckoutFailureLeavesCartIntact(t *testing.T) {
	f := newFixture(t)
	f.login(t)
	f.addToCart(t, "p1")
	f.authSrv.FailOrderCreate(http.StatusInternalServerError)

	body := f.postForm(t, "/checkout", url.Values{})
	require.Contains(t, body, "Order failed. Please try again.")
	require.Empty(t, f.authSrv.Orders())

	items, err := f.carts.Get(f.cartID(t))
	require.NoError(t, err)
	require.Equal(t, cart.Items{{ProductID: "p1", Quantity: 1}}, items)

	// The same cart goes through once the server recovers.
	f.authSrv.FailOrderCreate(0)
	body = f.postForm(t, "/checkout", url.Values{})
	require.Contains(t, body, "Order placed!")
	require.Len(t, f.authSrv.Orders(), 1)
}

func TestCheckoutRequiresLogin(t *testing.T) {
	f := newFixture(t)
	f.addToCart(t, "p1")

	body := f.postForm(t, "/checkout", url.Values{})
	require.Contains(t, body, "Please login to checkout.")
	require.Zero(t, f.authSrv.Calls("/api/orders"))

	items, err := f.carts.Get(f.cartID(t))
	require.NoError(t, err)
	require.Equal(t, cart.Items{{ProductID: "p1", Quantity: 1}}, items)
}

func TestCheckoutWithRejectedTokenKeepsCart(t *testing.T) {
	f := newFixture(t)
	f.login(t)
	f.addToCart(t, "p1")
	f.authSrv.DenyBearer(true)

	body := f.postForm(t, "/checkout", url.Values{})
	require.Contains(t, body, "Please login to checkout.")
	require.Empty(t, f.authSrv.Orders())

	items, err := f.carts.Get(f.cartID(t))
	require.NoError(t, err)
	require.Equal(t, cart.Items{{ProductID: "p1", Quantity: 1}}, items)
}

func TestCheckoutWithEmptyCart(t *testing.T) {
	f := newFixture(t)
	f.login(t)

	body := f.postForm(t, "/checkout", url.Values{})
	require.Contains(t, body, "Your cart is empty.")
	require.Zero(t, f.authSrv.Calls("/api/orders"))
}

func TestCheckoutSingleInFlightPerSession(t *testing.T) {
	f := newFixture(t)
	f.login(t)
	f.addToCart(t, "p1")

	release := f.authSrv.BlockOrderCreate()

	type result struct {
		body string
		err  error
	}
	first := make(chan result, 1)
	go func() {
		resp, err := f.client.PostForm(f.base+"/checkout", url.Values{})
		if err != nil {
			first <- result{err: err}
			return
		}
		defer resp.Body.Close()
		body, err := io.ReadAll(resp.Body)
		first <- result{body: string(body), err: err}
	}()

	// Wait for the first checkout to reach the order endpoint.
	require.Eventually(t, func() bool {
		return f.authSrv.Calls("/api/orders") == 1
	}, 2*time.Second, 5*time.Millisecond)

	// A second submission from the same session bounces off the guard
	// without touching the order endpoint.
	body := f.postForm(t, "/checkout", url.Values{})
	require.Contains(t, body, "An order is already being placed.")
	require.Equal(t, 1, f.authSrv.Calls("/api/orders"))

	release()
	res := <-first
	require.NoError(t, res.err)
	require.Contains(t, res.body, "Order placed!")
	require.Len(t, f.authSrv.Orders(), 1)

	// The guard is released on exit: a later checkout goes through.
	f.addToCart(t, "p2")
	body = f.postForm(t, "/checkout", url.Values{})
	require.Contains(t, body, "Order placed!")
	require.Len(t, f.authSrv.Orders(), 2)
}

func TestCancelPendingOrder(t *testing.T) {
	f := newFixture(t)
	f.login(t)
	f.addToCart(t, "p1")
	f.postForm(t, "/checkout", url.Values{})

	placed := f.authSrv.Orders()
	require.Len(t, placed, 1)

	body := f.postForm(t, "/orders/"+placed[0].ID+"/cancel", url.Values{})
	require.Contains(t, body, "CANCELLED")
	require.Contains(t, body, "status-cancelled")
	require.Equal(t, orders.StatusCancelled, f.authSrv.Orders()[0].Status)
}

func TestStaticAssetsServed(t *testing.T) {
	f := newFixture(t)

	body := f.get(t, "/static/style.css")
	require.Contains(t, body, ".product-grid")
}
