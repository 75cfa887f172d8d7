package controller_test

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	appErrors "github.com/ThisIsJeron/fluffyduck-sub000/internal/errors"
	"github.com/ThisIsJeron/fluffyduck-sub000/internal/model"
	"github.com/ThisIsJeron/fluffyduck-sub000/internal/queue"
	"github.com/ThisIsJeron/fluffyduck-sub000/internal/repository"
)

type MockCampaignRepo struct {
	mu        sync.Mutex
	campaigns map[string]*model.Campaign
}

func newCampaignRepo(cs ...*model.Campaign) *MockCampaignRepo {
	r := &MockCampaignRepo{campaigns: map[string]*model.Campaign{}}
	for _, c := range cs {
		r.campaigns[c.ID] = c
	}
	return r
}

func (m *MockCampaignRepo) Create(_ context.Context, c *model.Campaign) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.campaigns[c.ID] = c
	return nil
}

func (m *MockCampaignRepo) GetByID(_ context.Context, id string) (*model.Campaign, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.campaigns[id]
	if !ok {
		return nil, appErrors.NewCampaignNotFound(id)
	}
	cp := *c
	return &cp, nil
}

func (m *MockCampaignRepo) Update(_ context.Context, c *model.Campaign) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *c
	m.campaigns[c.ID] = &cp
	return nil
}

func (m *MockCampaignRepo) UpdateStatus(_ context.Context, id, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.campaigns[id]
	if !ok {
		return appErrors.NewCampaignNotFound(id)
	}
	c.Status = status
	return nil
}

func (m *MockCampaignRepo) Delete(_ context.Context, userID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.campaigns[id]
	if !ok || c.UserID != userID {
		return appErrors.NewCampaignNotFound(id)
	}
	delete(m.campaigns, id)
	return nil
}

func (m *MockCampaignRepo) owned(userID string) []*model.Campaign {
	var out []*model.Campaign
	for _, c := range m.campaigns {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (m *MockCampaignRepo) ListCampaigns(_ context.Context, userID string, offset, limit int, status, platform string) ([]*model.Campaign, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var filtered []*model.Campaign
	for _, c := range m.owned(userID) {
		if status != "" && c.Status != status {
			continue
		}
		if platform != "" && !slices.Contains(c.Platforms, platform) {
			continue
		}
		filtered = append(filtered, c)
	}
	total := len(filtered)

	start := offset
	end := offset + limit
	if start > total {
		return []*model.Campaign{}, total, nil
	}
	if end > total {
		end = total
	}
	return filtered[start:end], total, nil
}

func (m *MockCampaignRepo) ListInRange(_ context.Context, userID string, from, to time.Time) ([]*model.Campaign, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*model.Campaign{}
	for _, c := range m.owned(userID) {
		if c.StartDate != nil && !c.StartDate.Before(from) && !c.StartDate.After(to) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *MockCampaignRepo) ListDue(context.Context, time.Time) ([]*model.Campaign, error) {
	return nil, nil
}

func (m *MockCampaignRepo) CountByStatus(_ context.Context, userID string) (map[string]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	counts := map[string]int{}
	for _, c := range m.owned(userID) {
		counts[c.Status]++
	}
	return counts, nil
}

var _ repository.CampaignRepositoryInterface = (*MockCampaignRepo)(nil)

type MockDispatchRepo struct {
	mu         sync.Mutex
	dispatches []*model.Dispatch
}

func (m *MockDispatchRepo) CreatePending(_ context.Context, d *model.Dispatch) (*model.Dispatch, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.dispatches {
		if existing.CampaignID == d.CampaignID && existing.Status == model.DispatchPending {
			return existing, false, nil
		}
	}
	d.Status = model.DispatchPending
	m.dispatches = append(m.dispatches, d)
	return d, true, nil
}

func (m *MockDispatchRepo) GetByID(_ context.Context, id string) (*model.Dispatch, error) {
	return nil, appErrors.NotFound("dispatch %s not found", id)
}

func (m *MockDispatchRepo) Claim(context.Context, string) (*model.Dispatch, bool, error) {
	return nil, false, nil
}

func (m *MockDispatchRepo) MarkSent(context.Context, string, string) error { return nil }

func (m *MockDispatchRepo) MarkFailed(context.Context, string, string, int) (int, error) { return 0, nil }

func (m *MockDispatchRepo) MarkExhausted(context.Context, string) error { return nil }

func (m *MockDispatchRepo) ListByCampaign(_ context.Context, campaignID string) ([]*model.Dispatch, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*model.Dispatch{}
	for _, d := range m.dispatches {
		if d.CampaignID == campaignID {
			out = append(out, d)
		}
	}
	return out, nil
}

func (m *MockDispatchRepo) Stats(_ context.Context, campaignID string) (model.DispatchStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var s model.DispatchStats
	for _, d := range m.dispatches {
		if d.CampaignID == campaignID {
			s.Total++
			s.Pending++
		}
	}
	return s, nil
}

type MockMetricsRepo struct {
	metrics map[string]model.CampaignMetrics
}

func (m *MockMetricsRepo) Upsert(_ context.Context, cm *model.CampaignMetrics) error {
	if m.metrics == nil {
		m.metrics = map[string]model.CampaignMetrics{}
	}
	cm.UpdatedAt = time.Now()
	m.metrics[cm.CampaignID] = *cm
	return nil
}

func (m *MockMetricsRepo) Get(_ context.Context, campaignID string) (*model.CampaignMetrics, error) {
	cm, ok := m.metrics[campaignID]
	if !ok {
		cm = model.CampaignMetrics{CampaignID: campaignID}
	}
	return &cm, nil
}

type MockMediaRepo struct {
	assets map[string]*model.MediaAsset
}

func (m *MockMediaRepo) Create(_ context.Context, a *model.MediaAsset) error {
	if m.assets == nil {
		m.assets = map[string]*model.MediaAsset{}
	}
	m.assets[a.ID] = a
	return nil
}

func (m *MockMediaRepo) GetByID(_ context.Context, userID, id string) (*model.MediaAsset, error) {
	a, ok := m.assets[id]
	if !ok || a.UserID != userID {
		return nil, appErrors.NotFound("media %s not found", id)
	}
	return a, nil
}

func (m *MockMediaRepo) ListByUser(_ context.Context, userID string) ([]*model.MediaAsset, error) {
	out := []*model.MediaAsset{}
	for _, a := range m.assets {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *MockMediaRepo) Delete(_ context.Context, userID, id string) error {
	if _, err := m.GetByID(context.Background(), userID, id); err != nil {
		return err
	}
	delete(m.assets, id)
	return nil
}

type recordingQueue struct {
	mu   sync.Mutex
	jobs []queue.DispatchJob
}

func (q *recordingQueue) Publish(_ context.Context, _ string, payload any) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.jobs = append(q.jobs, payload.(queue.DispatchJob))
	return nil
}

func (q *recordingQueue) Subscribe(string, queue.Handler) error { return nil }
func (q *recordingQueue) Close() error                          { return nil }
