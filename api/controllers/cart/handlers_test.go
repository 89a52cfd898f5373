package cart

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bayancosmetic/storefront/api/middleware"
	cartsvc "github.com/bayancosmetic/storefront/internal/cart"
	"github.com/bayancosmetic/storefront/pkg/logger"
)

type stubCart struct {
	cartsvc.Service

	sessionID string
	productID uuid.UUID
	qty       int
	code      string
	cleared   bool
}

func (s *stubCart) AddItem(ctx context.Context, sessionID string, productID uuid.UUID, qty int) (*cartsvc.View, error) {
	s.sessionID, s.productID, s.qty = sessionID, productID, qty
	return &cartsvc.View{ItemCount: qty}, nil
}

func (s *stubCart) UpdateItem(ctx context.Context, sessionID string, productID uuid.UUID, qty int) (*cartsvc.View, error) {
	s.sessionID, s.productID, s.qty = sessionID, productID, qty
	return &cartsvc.View{ItemCount: qty}, nil
}

func (s *stubCart) ApplyCoupon(ctx context.Context, sessionID, code string) (*cartsvc.View, error) {
	s.sessionID, s.code = sessionID, code
	return &cartsvc.View{}, nil
}

func (s *stubCart) Clear(ctx context.Context, sessionID string) error {
	s.sessionID = sessionID
	s.cleared = true
	return nil
}

func serveCart(svc cartsvc.Service, method, target, body string) *httptest.ResponseRecorder {
	logg := logger.New(logger.Options{ServiceName: "cart-test", Output: io.Discard})
	r := chi.NewRouter()
	r.Post("/cart/items", CartAddItem(svc, logg))
	r.Patch("/cart/items/{productId}", CartUpdateItem(svc, logg))
	r.Post("/cart/coupon", CartApplyCoupon(svc, logg))
	r.Delete("/cart", CartClear(svc, logg))

	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req = req.WithContext(middleware.WithCartSession(req.Context(), "shopper-0001"))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestCartAddItem(t *testing.T) {
	svc := &stubCart{}
	productID := uuid.New()

	rec := serveCart(svc, http.MethodPost, "/cart/items", `{"product_id":"`+productID.String()+`","quantity":3}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "shopper-0001", svc.sessionID)
	assert.Equal(t, productID, svc.productID)
	assert.Equal(t, 3, svc.qty)
}

func TestCartAddItemValidatesQuantity(t *testing.T) {
	cases := map[string]string{
		"zero":     `{"product_id":"` + uuid.NewString() + `","quantity":0}`,
		"too many": `{"product_id":"` + uuid.NewString() + `","quantity":100}`,
		"no id":    `{"quantity":1}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			svc := &stubCart{}
			rec := serveCart(svc, http.MethodPost, "/cart/items", body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Empty(t, svc.sessionID)
		})
	}
}

func TestCartUpdateItemAllowsZero(t *testing.T) {
	svc := &stubCart{}
	productID := uuid.New()

	rec := serveCart(svc, http.MethodPatch, "/cart/items/"+productID.String(), `{"quantity":0}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, productID, svc.productID)
	assert.Equal(t, 0, svc.qty)
}

func TestCartUpdateItemRejectsBadProductID(t *testing.T) {
	rec := serveCart(&stubCart{}, http.MethodPatch, "/cart/items/not-a-uuid", `{"quantity":1}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCartApplyCouponAndClear(t *testing.T) {
	svc := &stubCart{}

	rec := serveCart(svc, http.MethodPost, "/cart/coupon", `{"code":"welcome10"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "welcome10", svc.code)

	rec = serveCart(svc, http.MethodDelete, "/cart", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.True(t, svc.cleared)
}
