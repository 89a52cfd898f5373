package orders

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/bayancosmetic/storefront/api/controllers"
	"github.com/bayancosmetic/storefront/api/responses"
	"github.com/bayancosmetic/storefront/api/validators"
	internalorders "github.com/bayancosmetic/storefront/internal/orders"
	"github.com/bayancosmetic/storefront/pkg/enums"
	pkgerrors "github.com/bayancosmetic/storefront/pkg/errors"
	"github.com/bayancosmetic/storefront/pkg/logger"
	"github.com/bayancosmetic/storefront/pkg/pagination"
)

const dateLayout = "2006-01-02"

// Track returns the public view of an order by its number.
func Track(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}
		number := strings.ToUpper(strings.TrimSpace(chi.URLParam(r, "orderNumber")))
		view, err := svc.Track(r.Context(), number)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

// AdminList pages through orders newest first.
func AdminList(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		filters, err := buildFilters(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := svc.List(r.Context(), filters, pagination.Params{
			Limit:  limit,
			Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

func AdminDetail(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}
		orderID, err := controllers.URLUUID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		view, err := svc.Get(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

const maxNotesLen = 1000

type updateOrderRequest struct {
	Status *string `json:"status,omitempty"`
	Notes  *string `json:"notes,omitempty" validate:"omitempty,max=1000"`
}

// AdminUpdate changes the order status and/or the internal notes.
func AdminUpdate(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}
		adminID, err := controllers.AdminID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := controllers.URLUUID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateOrderRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := internalorders.UpdateInput{Notes: validators.SanitizeOptional(payload.Notes, maxNotesLen)}
		if payload.Status != nil {
			status, err := enums.ParseOrderStatus(strings.ToLower(strings.TrimSpace(*payload.Status)))
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order status").
					WithDetails(map[string]string{"status": *payload.Status}))
				return
			}
			input.Status = &status
		}

		view, err := svc.Update(r.Context(), adminID, orderID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

func buildFilters(r *http.Request) (internalorders.ListFilters, error) {
	q := r.URL.Query()
	filters := internalorders.ListFilters{
		Search:     strings.TrimSpace(q.Get("q")),
		City:       strings.TrimSpace(q.Get("city")),
		CouponCode: strings.TrimSpace(q.Get("coupon")),
	}

	if raw := strings.TrimSpace(q.Get("status")); raw != "" {
		status, err := enums.ParseOrderStatus(strings.ToLower(raw))
		if err != nil {
			return filters, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status filter").
				WithDetails(map[string]string{"status": raw})
		}
		filters.Status = &status
	}

	from, err := parseDate(q.Get("from"), "from", false)
	if err != nil {
		return filters, err
	}
	to, err := parseDate(q.Get("to"), "to", true)
	if err != nil {
		return filters, err
	}
	filters.From = from
	filters.To = to
	return filters, nil
}

// parseDate accepts RFC3339 or a plain date; a plain "to" date covers the whole day.
func parseDate(raw, field string, endOfDay bool) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	if ts, err := time.Parse(time.RFC3339, raw); err == nil {
		ts = ts.UTC()
		return &ts, nil
	}
	day, err := time.Parse(dateLayout, raw)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid date filter").
			WithDetails(map[string]string{field: "must be YYYY-MM-DD or RFC3339"})
	}
	if endOfDay {
		day = day.Add(24*time.Hour - time.Nanosecond)
	}
	return &day, nil
}
