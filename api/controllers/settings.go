package controllers

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/bayancosmetic/storefront/api/responses"
	"github.com/bayancosmetic/storefront/internal/settings"
	"github.com/bayancosmetic/storefront/pkg/db/models"
	pkgerrors "github.com/bayancosmetic/storefront/pkg/errors"
	"github.com/bayancosmetic/storefront/pkg/logger"
)

const maxSettingBody = 4 << 10

// StorefrontSettings exposes the public storefront settings.
func StorefrontSettings(svc settings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "settings service unavailable"))
			return
		}
		responses.WriteSuccess(w, svc.Storefront(r.Context()))
	}
}

func AdminSettingsList(svc settings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "settings service unavailable"))
			return
		}
		rows, err := svc.List(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list settings"))
			return
		}
		out := make([]settingResponse, 0, len(rows))
		for i := range rows {
			out = append(out, newSettingResponse(&rows[i]))
		}
		responses.WriteSuccess(w, out)
	}
}

type settingResponse struct {
	Key       string          `json:"key"`
	Value     json.RawMessage `json:"value"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func newSettingResponse(row *models.Setting) settingResponse {
	return settingResponse{Key: row.Key, Value: row.Value, UpdatedAt: row.UpdatedAt}
}

type settingPayload struct {
	Value json.RawMessage `json:"value"`
}

// AdminSettingsPut stores {"value": ...} under the {key} path parameter.
func AdminSettingsPut(svc settings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "settings service unavailable"))
			return
		}
		key := strings.TrimSpace(chi.URLParam(r, "key"))

		var payload settingPayload
		decoder := json.NewDecoder(io.LimitReader(r.Body, maxSettingBody))
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&payload); err != nil || len(payload.Value) == 0 {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid request body").
				WithDetails(map[string]string{"value": "is required"}))
			return
		}

		setting, err := svc.Put(r.Context(), key, payload.Value)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newSettingResponse(setting))
	}
}
