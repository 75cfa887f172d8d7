package controller_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ThisIsJeron/fluffyduck-sub000/internal/controller"
	appErrors "github.com/ThisIsJeron/fluffyduck-sub000/internal/errors"
	"github.com/ThisIsJeron/fluffyduck-sub000/internal/middleware"
	"github.com/ThisIsJeron/fluffyduck-sub000/internal/model"
	"github.com/ThisIsJeron/fluffyduck-sub000/internal/service"
)

type testServer struct {
	router    chi.Router
	campaigns *MockCampaignRepo
	queue     *recordingQueue
}

func asUser(id string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if id != "" {
				r = r.WithContext(middleware.WithUserID(r.Context(), id))
			}
			next.ServeHTTP(w, r)
		})
	}
}

func newTestServer(user string, cs ...*model.Campaign) *testServer {
	ts := &testServer{campaigns: newCampaignRepo(cs...), queue: &recordingQueue{}}
	svc := &service.CampaignService{
		CampaignRepo: ts.campaigns,
		DispatchRepo: &MockDispatchRepo{},
		MetricsRepo:  &MockMetricsRepo{},
		Queue:        ts.queue,
		Clock:        clockwork.NewFakeClockAt(time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)),
		Recipient:    "owner@example.com",
	}
	ctrl := &controller.CampaignController{CampaignService: svc}

	r := chi.NewRouter()
	r.Use(asUser(user))
	r.Post("/campaigns", ctrl.CreateCampaign)
	r.Get("/campaigns", ctrl.ListCampaigns)
	r.Patch("/campaigns/{id}", ctrl.UpdateCampaign)
	r.Delete("/campaigns/{id}", ctrl.DeleteCampaign)
	r.Post("/campaigns/{id}/execute", ctrl.ExecuteCampaign)
	r.Get("/campaigns/{id}/dispatches", ctrl.ListDispatches)
	r.Put("/campaigns/{id}/metrics", ctrl.RecordMetrics)
	r.Get("/campaigns/{id}/analytics", ctrl.Analytics)
	r.Get("/campaigns/{id}/suggested-time", ctrl.SuggestedTime)
	ts.router = r
	return ts
}

func (ts *testServer) do(method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) appErrors.Response {
	t.Helper()
	var res appErrors.Response
	require.NoError(t, json.NewDecoder(w.Body).Decode(&res))
	return res
}

func captioned(id, user string) *model.Campaign {
	caption := "Two tacos, five bucks"
	return &model.Campaign{
		ID:        id,
		UserID:    user,
		Title:     "Taco Tuesday",
		Caption:   &caption,
		Platforms: []string{"Instagram"},
		Status:    model.StatusDraft,
	}
}

func TestCreateCampaign(t *testing.T) {
	ts := newTestServer("u1")

	w := ts.do(http.MethodPost, "/campaigns", `{
		"restaurant_name": "Duck Diner",
		"title": "Taco Tuesday",
		"description": "Half price tacos every Tuesday night",
		"platforms": ["Instagram", "Email"],
		"cadence": "weekly",
		"budget": "150.50"
	}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var created model.Campaign
	require.NoError(t, json.NewDecoder(w.Body).Decode(&created))
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "u1", created.UserID)
	assert.Equal(t, model.StatusDraft, created.Status)
	assert.Equal(t, "150.5", created.Budget.Decimal.String())
	assert.Len(t, ts.campaigns.campaigns, 1)
}

func TestCreateCampaignRejectsBadInput(t *testing.T) {
	ts := newTestServer("u1")

	w := ts.do(http.MethodPost, "/campaigns", `{"title":`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid body", decodeError(t, w).Error)

	w = ts.do(http.MethodPost, "/campaigns", `{"title": "Tacos", "platforms": ["MySpace"]}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	res := decodeError(t, w)
	assert.Equal(t, appErrors.KindValidation, res.Type)
	assert.Contains(t, res.Error, "MySpace")
}

func TestMissingUserIsUnauthorized(t *testing.T) {
	ts := newTestServer("")

	w := ts.do(http.MethodGet, "/campaigns", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestListCampaignsPagination(t *testing.T) {
	totalCampaigns := 25
	var campaigns []*model.Campaign
	for i := 1; i <= totalCampaigns; i++ {
		campaigns = append(campaigns, &model.Campaign{
			ID:        fmt.Sprintf("c-%02d", i),
			UserID:    "u1",
			Title:     "Campaign " + strconv.Itoa(i),
			Platforms: []string{"Instagram"},
			Status:    model.StatusDraft,
		})
	}
	// Noise that the filters must drop.
	campaigns = append(campaigns,
		&model.Campaign{ID: "x-1", UserID: "u1", Platforms: []string{"Email"}, Status: model.StatusDraft},
		&model.Campaign{ID: "x-2", UserID: "u1", Platforms: []string{"Instagram"}, Status: model.StatusPosted},
		&model.Campaign{ID: "x-3", UserID: "u2", Platforms: []string{"Instagram"}, Status: model.StatusDraft},
	)
	ts := newTestServer("u1", campaigns...)

	pageSize := 10
	totalPages := (totalCampaigns + pageSize - 1) / pageSize
	seen := map[string]bool{}

	for page := 1; page <= totalPages; page++ {
		w := ts.do(http.MethodGet, "/campaigns?page="+strconv.Itoa(page)+
			"&page_size="+strconv.Itoa(pageSize)+"&platform=Instagram&status=draft", "")
		require.Equal(t, http.StatusOK, w.Code)

		var res struct {
			Data       []model.Campaign `json:"data"`
			Pagination struct {
				Page       int `json:"page"`
				PageSize   int `json:"page_size"`
				TotalCount int `json:"total_count"`
				TotalPages int `json:"total_pages"`
			} `json:"pagination"`
		}
		require.NoError(t, json.NewDecoder(w.Body).Decode(&res))

		assert.Equal(t, page, res.Pagination.Page)
		assert.Equal(t, pageSize, res.Pagination.PageSize)
		assert.Equal(t, totalCampaigns, res.Pagination.TotalCount)
		assert.Equal(t, totalPages, res.Pagination.TotalPages)

		for _, c := range res.Data {
			assert.False(t, seen[c.ID], "duplicate campaign %s across pages", c.ID)
			seen[c.ID] = true
			assert.Equal(t, model.StatusDraft, c.Status)
			assert.Contains(t, c.Platforms, "Instagram")
		}
	}
	assert.Len(t, seen, totalCampaigns)
}

func TestUpdateCampaign(t *testing.T) {
	ts := newTestServer("u1", captioned("c1", "u1"))

	w := ts.do(http.MethodPatch, "/campaigns/c1", `{"title": "Taco Tuesday Deluxe"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Taco Tuesday Deluxe", ts.campaigns.campaigns["c1"].Title)

	w = ts.do(http.MethodPatch, "/campaigns/missing", `{"title": "Nope"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUpdateCampaignWhileSendingConflicts(t *testing.T) {
	c := captioned("c1", "u1")
	c.Status = model.StatusSending
	ts := newTestServer("u1", c)

	w := ts.do(http.MethodPatch, "/campaigns/c1", `{"title": "Too late"}`)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestDeleteCampaign(t *testing.T) {
	ts := newTestServer("u1", captioned("c1", "u1"), captioned("c2", "u2"))

	w := ts.do(http.MethodDelete, "/campaigns/c1", "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.NotContains(t, ts.campaigns.campaigns, "c1")

	w = ts.do(http.MethodDelete, "/campaigns/c2", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, ts.campaigns.campaigns, "c2")
}

func TestExecuteCampaign(t *testing.T) {
	ts := newTestServer("u1", captioned("c1", "u1"))

	w := ts.do(http.MethodPost, "/campaigns/c1/execute", "")
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())

	var res service.ExecuteResult
	require.NoError(t, json.NewDecoder(w.Body).Decode(&res))
	assert.Equal(t, "c1", res.CampaignID)
	assert.Equal(t, model.StatusSending, res.Status)
	assert.False(t, res.Reused)
	require.Len(t, ts.queue.jobs, 1)
	assert.Equal(t, res.DispatchID, ts.queue.jobs[0].DispatchID)

	// A second execute reuses the pending dispatch.
	w = ts.do(http.MethodPost, "/campaigns/c1/execute", "")
	require.Equal(t, http.StatusAccepted, w.Code)
	var again service.ExecuteResult
	require.NoError(t, json.NewDecoder(w.Body).Decode(&again))
	assert.True(t, again.Reused)
	assert.Equal(t, res.DispatchID, again.DispatchID)

	w = ts.do(http.MethodGet, "/campaigns/c1/dispatches", "")
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Data []model.Dispatch `json:"data"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&list))
	require.Len(t, list.Data, 1)
	assert.Equal(t, "owner@example.com", list.Data[0].Recipient)
}

func TestExecuteCampaignWithoutCaption(t *testing.T) {
	c := captioned("c1", "u1")
	c.Caption = nil
	ts := newTestServer("u1", c)

	w := ts.do(http.MethodPost, "/campaigns/c1/execute", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, ts.queue.jobs)
}

func TestMetricsAndAnalytics(t *testing.T) {
	ts := newTestServer("u1", captioned("c1", "u1"))

	w := ts.do(http.MethodPut, "/campaigns/c1/metrics",
		`{"likes": 40, "comments": 10, "shares": 10, "views": 500, "impressions": 1000}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = ts.do(http.MethodGet, "/campaigns/c1/analytics", "")
	require.Equal(t, http.StatusOK, w.Code)
	var report struct {
		EngagementRate   float64  `json:"engagement_rate"`
		AudienceResponse string   `json:"audience_response"`
		Recommendations  []string `json:"recommendations"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&report))
	assert.InDelta(t, 6.0, report.EngagementRate, 0.001)
	assert.NotEmpty(t, report.AudienceResponse)
	assert.NotEmpty(t, report.Recommendations)

	w = ts.do(http.MethodPut, "/campaigns/c1/metrics", `{"likes": -1}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSuggestedTime(t *testing.T) {
	ts := newTestServer("u1", captioned("c1", "u1"))

	w := ts.do(http.MethodGet, "/campaigns/c1/suggested-time?tz=America/New_York", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var res service.SuggestedTime
	require.NoError(t, json.NewDecoder(w.Body).Decode(&res))
	assert.Equal(t, "America/New_York", res.Timezone)
	assert.NotEmpty(t, res.BestHours)
	assert.False(t, res.PostAt.Before(time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)))

	w = ts.do(http.MethodGet, "/campaigns/c1/suggested-time?tz=Mars/Olympus", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestErrorBodyShape(t *testing.T) {
	ts := newTestServer("u1")

	w := ts.do(http.MethodGet, "/campaigns/nope/analytics", "")
	require.Equal(t, http.StatusNotFound, w.Code)
	var raw map[string]string
	require.NoError(t, json.NewDecoder(bytes.NewReader(w.Body.Bytes())).Decode(&raw))
	assert.Equal(t, "not_found", raw["type"])
	assert.Contains(t, raw["error"], "nope")
}
