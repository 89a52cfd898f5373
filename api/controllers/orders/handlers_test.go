package orders

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bayancosmetic/storefront/api/middleware"
	internalorders "github.com/bayancosmetic/storefront/internal/orders"
	"github.com/bayancosmetic/storefront/pkg/enums"
	pkgerrors "github.com/bayancosmetic/storefront/pkg/errors"
	"github.com/bayancosmetic/storefront/pkg/logger"
	"github.com/bayancosmetic/storefront/pkg/pagination"
)

type recordingService struct {
	tracked string
	filters internalorders.ListFilters
	params  pagination.Params
	adminID uuid.UUID
	update  internalorders.UpdateInput
}

func (s *recordingService) Track(ctx context.Context, number string) (*internalorders.TrackingView, error) {
	s.tracked = number
	if number != "BC-1760000000000-AB12" {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return &internalorders.TrackingView{OrderNumber: number, Status: enums.OrderStatusPending}, nil
}

func (s *recordingService) Get(ctx context.Context, id uuid.UUID) (*internalorders.OrderView, error) {
	return &internalorders.OrderView{ID: id}, nil
}

func (s *recordingService) List(ctx context.Context, filters internalorders.ListFilters, params pagination.Params) (pagination.Page[internalorders.OrderView], error) {
	s.filters = filters
	s.params = params
	return pagination.Page[internalorders.OrderView]{}, nil
}

func (s *recordingService) Update(ctx context.Context, adminID, id uuid.UUID, input internalorders.UpdateInput) (*internalorders.OrderView, error) {
	s.adminID = adminID
	s.update = input
	return &internalorders.OrderView{ID: id}, nil
}

func newRouter(svc internalorders.Service) http.Handler {
	logg := logger.New(logger.Options{ServiceName: "orders-test", Output: io.Discard})
	r := chi.NewRouter()
	r.Get("/orders/track/{orderNumber}", Track(svc, logg))
	r.Get("/orders", AdminList(svc, logg))
	r.Patch("/orders/{orderId}", AdminUpdate(svc, logg))
	return r
}

func TestTrackUppercasesOrderNumber(t *testing.T) {
	svc := &recordingService{}
	rec := httptest.NewRecorder()
	newRouter(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/orders/track/bc-1760000000000-ab12", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "BC-1760000000000-AB12", svc.tracked)
}

func TestTrackUnknownOrder(t *testing.T) {
	rec := httptest.NewRecorder()
	newRouter(&recordingService{}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/orders/track/BC-1-ZZZZ", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAdminListParsesFilters(t *testing.T) {
	svc := &recordingService{}
	target := "/orders?status=SHIPPED&city=Rabat&coupon=WELCOME10&q=salma&from=2026-01-01&to=2026-01-31&limit=10&cursor=abc"

	rec := httptest.NewRecorder()
	newRouter(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	require.Equal(t, http.StatusOK, rec.Code)

	require.NotNil(t, svc.filters.Status)
	assert.Equal(t, enums.OrderStatusShipped, *svc.filters.Status)
	assert.Equal(t, "Rabat", svc.filters.City)
	assert.Equal(t, "WELCOME10", svc.filters.CouponCode)
	assert.Equal(t, "salma", svc.filters.Search)
	require.NotNil(t, svc.filters.From)
	require.NotNil(t, svc.filters.To)
	assert.True(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC).Equal(*svc.filters.From))
	assert.True(t, time.Date(2026, 1, 31, 23, 59, 59, int(time.Second-time.Nanosecond), time.UTC).Equal(*svc.filters.To))
	assert.Equal(t, 10, svc.params.Limit)
	assert.Equal(t, "abc", svc.params.Cursor)
}

func TestAdminListRejectsBadFilters(t *testing.T) {
	cases := map[string]string{
		"status": "/orders?status=lost",
		"date":   "/orders?from=01/02/2026",
		"limit":  "/orders?limit=1000",
	}
	for name, target := range cases {
		t.Run(name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			newRouter(&recordingService{}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestParseDateAcceptsRFC3339(t *testing.T) {
	ts, err := parseDate("2026-03-10T08:30:00+01:00", "from", false)
	require.NoError(t, err)
	assert.True(t, time.Date(2026, 3, 10, 7, 30, 0, 0, time.UTC).Equal(*ts))

	empty, err := parseDate("  ", "to", true)
	require.NoError(t, err)
	assert.Nil(t, empty)
}

func TestAdminUpdateRecordsActor(t *testing.T) {
	svc := &recordingService{}
	adminID := uuid.New()
	orderID := uuid.New()

	req := httptest.NewRequest(http.MethodPatch, "/orders/"+orderID.String(), strings.NewReader(`{"status":"Confirmed","notes":"called customer"}`))
	req = req.WithContext(middleware.WithAdminID(req.Context(), adminID.String()))
	rec := httptest.NewRecorder()
	newRouter(svc).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, adminID, svc.adminID)
	require.NotNil(t, svc.update.Status)
	assert.Equal(t, enums.OrderStatusConfirmed, *svc.update.Status)
	require.NotNil(t, svc.update.Notes)
	assert.Equal(t, "called customer", *svc.update.Notes)
}

func TestAdminUpdateSanitizesNotes(t *testing.T) {
	svc := &recordingService{}
	body := `{"notes":"  <b>rappeler</b> la cliente à 18h  "}`

	req := httptest.NewRequest(http.MethodPatch, "/orders/"+uuid.NewString(), strings.NewReader(body))
	req = req.WithContext(middleware.WithAdminID(req.Context(), uuid.NewString()))
	rec := httptest.NewRecorder()
	newRouter(svc).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, svc.update.Notes)
	assert.Equal(t, "b/brappeler/b la cliente à 18h", *svc.update.Notes)
}

func TestAdminUpdateRequiresAdmin(t *testing.T) {
	req := httptest.NewRequest(http.MethodPatch, "/orders/"+uuid.NewString(), strings.NewReader(`{"status":"confirmed"}`))
	rec := httptest.NewRecorder()
	newRouter(&recordingService{}).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
