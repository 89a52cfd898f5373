package routes

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bayancosmetic/storefront/internal/orders"
	"github.com/bayancosmetic/storefront/internal/shipping"
	pkgauth "github.com/bayancosmetic/storefront/pkg/auth"
	"github.com/bayancosmetic/storefront/pkg/config"
	"github.com/bayancosmetic/storefront/pkg/enums"
	"github.com/bayancosmetic/storefront/pkg/logger"
	"github.com/bayancosmetic/storefront/pkg/pagination"
)

var testJWT = config.JWTConfig{
	Secret:                 "router-secret",
	Issuer:                 "bayan-test",
	ExpirationMinutes:      15,
	RefreshTokenTTLMinutes: 60,
}

type stubSessions struct{}

func (stubSessions) HasSession(context.Context, string) (bool, error) {
	return true, nil
}

type stubPinger struct {
	err error
}

func (p stubPinger) Ping(context.Context) error {
	return p.err
}

type stubOrders struct {
	listed bool
}

func (s *stubOrders) Track(ctx context.Context, orderNumber string) (*orders.TrackingView, error) {
	return &orders.TrackingView{OrderNumber: orderNumber}, nil
}

func (s *stubOrders) Get(ctx context.Context, id uuid.UUID) (*orders.OrderView, error) {
	return &orders.OrderView{ID: id}, nil
}

func (s *stubOrders) List(ctx context.Context, filters orders.ListFilters, params pagination.Params) (pagination.Page[orders.OrderView], error) {
	s.listed = true
	return pagination.Page[orders.OrderView]{Items: []orders.OrderView{}}, nil
}

func (s *stubOrders) Update(ctx context.Context, adminID, id uuid.UUID, input orders.UpdateInput) (*orders.OrderView, error) {
	return &orders.OrderView{ID: id}, nil
}

type stubShipping struct{}

func (stubShipping) Cities(context.Context) ([]shipping.City, error) {
	return []shipping.City{{ID: uuid.New(), Name: "Casablanca", CostCents: 3000, IsActive: true}}, nil
}

func (stubShipping) CostFor(context.Context, string) (int64, bool, error) {
	return 0, false, nil
}

func (stubShipping) ListAll(context.Context) ([]shipping.City, error) {
	return nil, nil
}

func (stubShipping) Create(context.Context, shipping.CityInput) (*shipping.City, error) {
	return nil, errors.New("not implemented")
}

func (stubShipping) Update(context.Context, uuid.UUID, shipping.CityUpdate) (*shipping.City, error) {
	return nil, errors.New("not implemented")
}

func (stubShipping) Delete(context.Context, uuid.UUID) error {
	return nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", CORSOrigins: []string{"http://localhost:3000"}},
		JWT: testJWT,
	}
}

func newTestRouter(t *testing.T, deps Dependencies) http.Handler {
	t.Helper()
	if deps.Config == nil {
		deps.Config = testConfig()
	}
	deps.Logger = logger.New(logger.Options{ServiceName: "router-test", Output: io.Discard})
	if deps.Sessions == nil {
		deps.Sessions = stubSessions{}
	}
	return NewRouter(deps)
}

func bearer(t *testing.T, role enums.AdminRole) string {
	t.Helper()
	token, err := pkgauth.MintAccessToken(testJWT, time.Now(), pkgauth.AccessTokenPayload{
		AdminID: uuid.New(),
		Email:   "ops@bayan.ma",
		Role:    role,
		JTI:     uuid.NewString(),
	})
	require.NoError(t, err)
	return "Bearer " + token
}

func serve(handler http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestHealthRoutes(t *testing.T) {
	router := newTestRouter(t, Dependencies{DB: stubPinger{}})

	live := serve(router, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	assert.Equal(t, http.StatusOK, live.Code)
	assert.Equal(t, "test", live.Header().Get("X-Bayan-Env"))

	ready := serve(router, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusOK, ready.Code)
}

func TestHealthReadyReportsDatabaseFailure(t *testing.T) {
	router := newTestRouter(t, Dependencies{DB: stubPinger{err: errors.New("connection refused")}})

	rec := serve(router, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestMetricsMountedWhenProvided(t *testing.T) {
	metrics := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("# metrics"))
	})

	rec := serve(newTestRouter(t, Dependencies{Metrics: metrics}), httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "# metrics", rec.Body.String())

	rec = serve(newTestRouter(t, Dependencies{}), httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPublicShippingCities(t *testing.T) {
	router := newTestRouter(t, Dependencies{Shipping: stubShipping{}})

	rec := serve(router, httptest.NewRequest(http.MethodGet, "/api/v1/shipping/cities", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Casablanca")
}

func TestCartRoutesRequireSessionHeader(t *testing.T) {
	router := newTestRouter(t, Dependencies{})

	rec := serve(router, httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", strings.NewReader(`{}`))
	rec = serve(router, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdminRoutesRequireBearer(t *testing.T) {
	router := newTestRouter(t, Dependencies{Orders: &stubOrders{}})

	rec := serve(router, httptest.NewRequest(http.MethodGet, "/api/admin/v1/orders", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestStaffCanListOrders(t *testing.T) {
	svc := &stubOrders{}
	router := newTestRouter(t, Dependencies{Orders: svc})

	req := httptest.NewRequest(http.MethodGet, "/api/admin/v1/orders?status=pending", nil)
	req.Header.Set("Authorization", bearer(t, enums.AdminRoleStaff))
	rec := serve(router, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, svc.listed)
}

func TestStaffCannotManageCatalogSettings(t *testing.T) {
	router := newTestRouter(t, Dependencies{Shipping: stubShipping{}})

	cases := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/admin/v1/coupons"},
		{http.MethodGet, "/api/admin/v1/shipping"},
		{http.MethodGet, "/api/admin/v1/settings"},
		{http.MethodPut, "/api/admin/v1/products/" + uuid.NewString() + "/stock"},
	}
	for _, tc := range cases {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.path, strings.NewReader(`{}`))
			req.Header.Set("Authorization", bearer(t, enums.AdminRoleStaff))
			rec := serve(router, req)
			assert.Equal(t, http.StatusForbidden, rec.Code)
		})
	}
}

func TestAdminCanManageShipping(t *testing.T) {
	router := newTestRouter(t, Dependencies{Shipping: stubShipping{}})

	req := httptest.NewRequest(http.MethodGet, "/api/admin/v1/shipping", nil)
	req.Header.Set("Authorization", bearer(t, enums.AdminRoleAdmin))
	rec := serve(router, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCORSPreflight(t *testing.T) {
	router := newTestRouter(t, Dependencies{})

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/cart", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "X-Cart-Session")
	rec := serve(router, req)

	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
}
