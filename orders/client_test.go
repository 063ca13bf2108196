package orders_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	errs "github.com/acheron-labs/voidmarket/internal/errors"
	"github.com/acheron-labs/voidmarket/orders"
)

const testAuthHeader = "Bearer test-token"

func TestListDecodesPageWrapper(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/orders", r.URL.Path)
		require.Equal(t, testAuthHeader, r.Header.Get("Authorization"))
		fmt.Fprint(w, `{"content":[{"id":"o1","status":"PENDING","totalAmount":39.98}]}`)
	}))
	defer srv.Close()

	list, err := orders.NewClient(srv.URL).List(context.Background(), testAuthHeader)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, orders.StatusPending, list[0].Status)
	require.Equal(t, 39.98, list[0].TotalAmount)
}

func TestListDecodesBareArray(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[{"id":"o1","status":"SHIPPED"}]`)
	}))
	defer srv.Close()

	list, err := orders.NewClient(srv.URL).List(context.Background(), testAuthHeader)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, orders.StatusShipped, list[0].Status)
}

func TestUnauthorizedMapsToSentinel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	}))
	defer srv.Close()

	client := orders.NewClient(srv.URL)

	_, err := client.List(context.Background(), "")
	require.ErrorIs(t, err, errs.ErrUnauthorized)

	_, err = client.Profile(context.Background(), "")
	require.ErrorIs(t, err, errs.ErrUnauthorized)
}

func TestServerErrorMapsToUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	req := orders.CreateRequest{Items: []orders.ItemRequest{{ProductID: "p1", Quantity: 1}}}
	_, err := orders.NewClient(srv.URL).Create(context.Background(), testAuthHeader, req)
	require.ErrorIs(t, err, errs.ErrUnavailable)
}

func TestUnreachableServerMapsToUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	_, err := orders.NewClient(srv.URL).List(context.Background(), testAuthHeader)
	require.ErrorIs(t, err, errs.ErrUnavailable)
}

func TestCreateValidatesBeforeNetwork(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer srv.Close()

	client := orders.NewClient(srv.URL)

	tests := []struct {
		name string
		req  orders.CreateRequest
	}{
		{"no items", orders.CreateRequest{}},
		{"empty items", orders.CreateRequest{Items: []orders.ItemRequest{}}},
		{"zero quantity", orders.CreateRequest{Items: []orders.ItemRequest{{ProductID: "p1", Quantity: 0}}}},
		{"missing product", orders.CreateRequest{Items: []orders.ItemRequest{{Quantity: 1}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := client.Create(context.Background(), testAuthHeader, tt.req)
			require.ErrorIs(t, err, errs.ErrInvalidRequest)
		})
	}
	require.Zero(t, hits.Load())
}

func TestCreateDecodesOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req orders.CreateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Items, 1)
		require.Equal(t, "p1", req.Items[0].ProductID)
		require.Equal(t, 2, req.Items[0].Quantity)

		fmt.Fprint(w, `{"id":"o1","status":"PENDING","totalAmount":39.98,"items":[{"productId":"p1","productName":"Void Tee","quantity":2,"unitPrice":19.99}]}`)
	}))
	defer srv.Close()

	req := orders.CreateRequest{Items: []orders.ItemRequest{{ProductID: "p1", Quantity: 2}}}
	order, err := orders.NewClient(srv.URL).Create(context.Background(), testAuthHeader, req)
	require.NoError(t, err)
	require.Equal(t, "o1", order.ID)
	require.Equal(t, orders.StatusPending, order.Status)
	require.Len(t, order.Items, 1)
	require.Equal(t, "Void Tee", order.Items[0].ProductName)
}

func TestCancelUsesPatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPatch, r.Method)
		require.Equal(t, "/orders/o1/cancel", r.URL.Path)
		fmt.Fprint(w, `{"id":"o1","status":"CANCELLED"}`)
	}))
	defer srv.Close()

	order, err := orders.NewClient(srv.URL).Cancel(context.Background(), testAuthHeader, "o1")
	require.NoError(t, err)
	require.Equal(t, orders.StatusCancelled, order.Status)
}

func TestCancelUnknownOrderIsNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	_, err := orders.NewClient(srv.URL).Cancel(context.Background(), testAuthHeader, "o9")
	require.ErrorIs(t, err, errs.ErrNotFound)
}

func TestProfileDecodesMe(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/me", r.URL.Path)
		fmt.Fprint(w, `{"id":"user-1","email":"john.doe@example.com","displayName":"John Doe"}`)
	}))
	defer srv.Close()

	me, err := orders.NewClient(srv.URL).Profile(context.Background(), testAuthHeader)
	require.NoError(t, err)
	require.Equal(t, "John Doe", me.DisplayName)
	require.Equal(t, "john.doe@example.com", me.Email)
}
