// internal/handler/campaign_handler.go
package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	appErrors "github.com/ThisIsJeron/fluffyduck-sub000/internal/errors"
	"github.com/ThisIsJeron/fluffyduck-sub000/internal/middleware"
	"github.com/ThisIsJeron/fluffyduck-sub000/internal/service"
)

const dateLayout = "2006-01-02"

// CampaignHandler serves the read-only campaign views.
type CampaignHandler struct {
	Service *service.CampaignService
}

// NewCampaignHandler creates a new CampaignHandler with the given service
func NewCampaignHandler(svc *service.CampaignService) *CampaignHandler {
	return &CampaignHandler{Service: svc}
}

func respond(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func currentUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, ok := middleware.UserID(r.Context())
	if !ok {
		appErrors.WriteJSON(w, appErrors.Unauthorized("missing user"))
	}
	return id, ok
}

// GetCampaignHandlerWithStats returns a campaign with its dispatch stats
// and engagement metrics.
func (h *CampaignHandler) GetCampaignHandlerWithStats(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")

	details, err := h.Service.GetCampaignDetails(r.Context(), user, id)
	if err != nil {
		zerolog.Ctx(r.Context()).Debug().Err(err).Str("campaign_id", id).Msg("campaign lookup failed")
		appErrors.WriteJSON(w, err)
		return
	}
	respond(w, details)
}

func (h *CampaignHandler) DashboardHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	dashboard, err := h.Service.Dashboard(r.Context(), user)
	if err != nil {
		appErrors.WriteJSON(w, err)
		return
	}
	respond(w, dashboard)
}

// CalendarHandler lists campaigns active between ?from= and ?to=
// (YYYY-MM-DD, both inclusive). Missing bounds default to the current month.
func (h *CampaignHandler) CalendarHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	now := time.Now().UTC()
	if h.Service.Clock != nil {
		now = h.Service.Clock.Now().UTC()
	}
	from := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, -1)

	var err error
	if v := r.URL.Query().Get("from"); v != "" {
		if from, err = time.Parse(dateLayout, v); err != nil {
			appErrors.WriteJSON(w, appErrors.Validation("from must be a date like 2006-01-02"))
			return
		}
	}
	if v := r.URL.Query().Get("to"); v != "" {
		if to, err = time.Parse(dateLayout, v); err != nil {
			appErrors.WriteJSON(w, appErrors.Validation("to must be a date like 2006-01-02"))
			return
		}
	}

	campaigns, err := h.Service.Calendar(r.Context(), user, from, to)
	if err != nil {
		appErrors.WriteJSON(w, err)
		return
	}
	respond(w, map[string]interface{}{
		"from": from.Format(dateLayout),
		"to":   to.Format(dateLayout),
		"data": campaigns,
	})
}

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// HealthHandler reports 503 when the database cannot be reached.
func HealthHandler(db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := db.PingContext(ctx); err != nil {
			zerolog.Ctx(r.Context()).Error().Err(err).Msg("health check failed")
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			_ = json.NewEncoder(w).Encode(map[string]string{"status": "unavailable"})
			return
		}
		respond(w, map[string]string{"status": "ok"})
	}
}
