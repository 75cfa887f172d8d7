// internal/controller/campaign_controller.go
package controller

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	appErrors "github.com/ThisIsJeron/fluffyduck-sub000/internal/errors"
	"github.com/ThisIsJeron/fluffyduck-sub000/internal/middleware"
	"github.com/ThisIsJeron/fluffyduck-sub000/internal/service"
)

type CampaignController struct {
	CampaignService *service.CampaignService
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// userID returns the authenticated user or writes a 401.
func userID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, ok := middleware.UserID(r.Context())
	if !ok {
		appErrors.WriteJSON(w, appErrors.Unauthorized("missing user"))
	}
	return id, ok
}

func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		appErrors.WriteJSON(w, appErrors.Validation("invalid body"))
		return false
	}
	return true
}

func (c *CampaignController) CreateCampaign(w http.ResponseWriter, r *http.Request) {
	user, ok := userID(w, r)
	if !ok {
		return
	}
	var body service.CampaignInput
	if !decode(w, r, &body) {
		return
	}

	campaign, err := c.CampaignService.CreateCampaign(r.Context(), user, body)
	if err != nil {
		appErrors.WriteJSON(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, campaign)
}

func (c *CampaignController) ListCampaigns(w http.ResponseWriter, r *http.Request) {
	user, ok := userID(w, r)
	if !ok {
		return
	}
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("page_size"))
	status := r.URL.Query().Get("status")
	platform := r.URL.Query().Get("platform")

	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}

	campaigns, pagination, err := c.CampaignService.ListCampaigns(r.Context(), user, page, pageSize, status, platform)
	if err != nil {
		appErrors.WriteJSON(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"data":       campaigns,
		"pagination": pagination,
	})
}

func (c *CampaignController) UpdateCampaign(w http.ResponseWriter, r *http.Request) {
	user, ok := userID(w, r)
	if !ok {
		return
	}
	var body service.CampaignInput
	if !decode(w, r, &body) {
		return
	}

	campaign, err := c.CampaignService.UpdateCampaign(r.Context(), user, chi.URLParam(r, "id"), body)
	if err != nil {
		appErrors.WriteJSON(w, err)
		return
	}
	writeJSON(w, http.StatusOK, campaign)
}

func (c *CampaignController) DeleteCampaign(w http.ResponseWriter, r *http.Request) {
	user, ok := userID(w, r)
	if !ok {
		return
	}
	if err := c.CampaignService.DeleteCampaign(r.Context(), user, chi.URLParam(r, "id")); err != nil {
		appErrors.WriteJSON(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ExecuteCampaign queues the campaign's email dispatch and returns 202.
func (c *CampaignController) ExecuteCampaign(w http.ResponseWriter, r *http.Request) {
	user, ok := userID(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")

	result, err := c.CampaignService.ExecuteCampaign(r.Context(), user, id)
	if err != nil {
		zerolog.Ctx(r.Context()).Warn().Err(err).Str("campaign_id", id).Msg("execute failed")
		appErrors.WriteJSON(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, result)
}

func (c *CampaignController) ListDispatches(w http.ResponseWriter, r *http.Request) {
	user, ok := userID(w, r)
	if !ok {
		return
	}
	dispatches, err := c.CampaignService.ListDispatches(r.Context(), user, chi.URLParam(r, "id"))
	if err != nil {
		appErrors.WriteJSON(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"data": dispatches})
}

func (c *CampaignController) RecordMetrics(w http.ResponseWriter, r *http.Request) {
	user, ok := userID(w, r)
	if !ok {
		return
	}
	var body service.MetricsInput
	if !decode(w, r, &body) {
		return
	}

	metrics, err := c.CampaignService.RecordMetrics(r.Context(), user, chi.URLParam(r, "id"), body)
	if err != nil {
		appErrors.WriteJSON(w, err)
		return
	}
	writeJSON(w, http.StatusOK, metrics)
}

func (c *CampaignController) Analytics(w http.ResponseWriter, r *http.Request) {
	user, ok := userID(w, r)
	if !ok {
		return
	}
	report, err := c.CampaignService.Analytics(r.Context(), user, chi.URLParam(r, "id"))
	if err != nil {
		appErrors.WriteJSON(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// SuggestedTime takes an optional IANA timezone in ?tz=.
func (c *CampaignController) SuggestedTime(w http.ResponseWriter, r *http.Request) {
	user, ok := userID(w, r)
	if !ok {
		return
	}
	suggestion, err := c.CampaignService.SuggestPostingTime(r.Context(), user, chi.URLParam(r, "id"), r.URL.Query().Get("tz"))
	if err != nil {
		appErrors.WriteJSON(w, err)
		return
	}
	writeJSON(w, http.StatusOK, suggestion)
}
