package service_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/ThisIsJeron/fluffyduck-sub000/internal/ai"
	"github.com/ThisIsJeron/fluffyduck-sub000/internal/dispatch"
	appErrors "github.com/ThisIsJeron/fluffyduck-sub000/internal/errors"
	"github.com/ThisIsJeron/fluffyduck-sub000/internal/model"
	"github.com/ThisIsJeron/fluffyduck-sub000/internal/queue"
	"github.com/ThisIsJeron/fluffyduck-sub000/internal/repository"
)

// MockCampaignRepo keeps campaigns in memory.
type MockCampaignRepo struct {
	mu        sync.Mutex
	campaigns map[string]*model.Campaign
	statuses  []string
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
	c.CreatedAt = time.Now()
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
	if _, ok := m.campaigns[c.ID]; !ok {
		return appErrors.NewCampaignNotFound(c.ID)
	}
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
	m.statuses = append(m.statuses, status)
	return nil
}

func (m *MockCampaignRepo) statusHistory() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.statuses...)
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

func (m *MockCampaignRepo) sorted(userID string) []*model.Campaign {
	var out []*model.Campaign
	for _, c := range m.campaigns {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}

func (m *MockCampaignRepo) ListCampaigns(_ context.Context, userID string, offset, limit int, status, platform string) ([]*model.Campaign, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var all []*model.Campaign
	for _, c := range m.sorted(userID) {
		if status != "" && c.Status != status {
			continue
		}
		all = append(all, c)
	}

	start := offset
	end := offset + limit
	if start >= len(all) {
		return []*model.Campaign{}, len(all), nil
	}
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], len(all), nil
}

func (m *MockCampaignRepo) ListInRange(_ context.Context, userID string, from, to time.Time) ([]*model.Campaign, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*model.Campaign{}
	for _, c := range m.sorted(userID) {
		if c.StartDate == nil || c.StartDate.After(to) {
			continue
		}
		end := c.StartDate
		if c.EndDate != nil {
			end = c.EndDate
		}
		if end.Before(from) {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func (m *MockCampaignRepo) ListDue(context.Context, time.Time) ([]*model.Campaign, error) {
	return nil, errors.New("not used")
}

func (m *MockCampaignRepo) CountByStatus(_ context.Context, userID string) (map[string]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	counts := map[string]int{}
	for _, c := range m.sorted(userID) {
		counts[c.Status]++
	}
	return counts, nil
}

var _ repository.CampaignRepositoryInterface = (*MockCampaignRepo)(nil)

// MockDispatchRepo keeps dispatches in memory.
type MockDispatchRepo struct {
	mu         sync.Mutex
	dispatches map[string]*model.Dispatch
}

func newDispatchRepo(ds ...*model.Dispatch) *MockDispatchRepo {
	r := &MockDispatchRepo{dispatches: map[string]*model.Dispatch{}}
	for _, d := range ds {
		r.dispatches[d.ID] = d
	}
	return r
}

func (m *MockDispatchRepo) CreatePending(_ context.Context, d *model.Dispatch) (*model.Dispatch, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.dispatches {
		if existing.CampaignID == d.CampaignID && (existing.Status == model.DispatchPending || existing.Status == model.DispatchSending) {
			cp := *existing
			return &cp, false, nil
		}
	}
	d.Status = model.DispatchPending
	cp := *d
	m.dispatches[d.ID] = &cp
	return d, true, nil
}

func (m *MockDispatchRepo) GetByID(_ context.Context, id string) (*model.Dispatch, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.dispatches[id]
	if !ok {
		return nil, appErrors.NotFound("dispatch %s not found", id)
	}
	cp := *d
	return &cp, nil
}

func (m *MockDispatchRepo) Claim(_ context.Context, id string) (*model.Dispatch, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.dispatches[id]
	if !ok || d.Status != model.DispatchPending {
		return nil, false, nil
	}
	d.Status = model.DispatchSending
	cp := *d
	return &cp, true, nil
}

func (m *MockDispatchRepo) MarkSent(_ context.Context, id, result string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d := m.dispatches[id]
	if d.Status != model.DispatchSending {
		return fmt.Errorf("dispatch %s is not sending", id)
	}
	d.Status = model.DispatchSent
	d.Result = result
	return nil
}

func (m *MockDispatchRepo) MarkFailed(_ context.Context, id, lastError string, maxRetries int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d := m.dispatches[id]
	if d.Status != model.DispatchSending {
		return 0, fmt.Errorf("dispatch %s is not sending", id)
	}
	d.LastError = lastError
	d.RetryCount++
	d.Status = model.DispatchPending
	if d.RetryCount >= maxRetries {
		d.Status = model.DispatchFailed
	}
	return d.RetryCount, nil
}

func (m *MockDispatchRepo) MarkExhausted(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dispatches[id].Status = model.DispatchFailed
	return nil
}

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
		if d.CampaignID != campaignID {
			continue
		}
		s.Total++
		switch d.Status {
		case model.DispatchPending, model.DispatchSending:
			s.Pending++
		case model.DispatchSent:
			s.Sent++
		case model.DispatchFailed:
			s.Failed++
		}
	}
	return s, nil
}

var _ repository.DispatchRepositoryInterface = (*MockDispatchRepo)(nil)

type MockMetricsRepo struct {
	metrics map[string]model.CampaignMetrics
}

func newMetricsRepo() *MockMetricsRepo {
	return &MockMetricsRepo{metrics: map[string]model.CampaignMetrics{}}
}

func (m *MockMetricsRepo) Upsert(_ context.Context, cm *model.CampaignMetrics) error {
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
	err    error
}

func newMediaRepo(as ...*model.MediaAsset) *MockMediaRepo {
	r := &MockMediaRepo{assets: map[string]*model.MediaAsset{}}
	for _, a := range as {
		r.assets[a.ID] = a
	}
	return r
}

func (m *MockMediaRepo) Create(_ context.Context, a *model.MediaAsset) error {
	if m.err != nil {
		return m.err
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

// recordingQueue captures published jobs.
type recordingQueue struct {
	mu   sync.Mutex
	jobs []queue.DispatchJob
	err  error
}

func (q *recordingQueue) Publish(_ context.Context, topic string, payload any) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return q.err
	}
	if topic == queue.TopicCampaignDispatch {
		q.jobs = append(q.jobs, payload.(queue.DispatchJob))
	}
	return nil
}

func (q *recordingQueue) Subscribe(string, queue.Handler) error { return nil }
func (q *recordingQueue) Close() error                          { return nil }

// countingSender is a concurrency-safe sender that takes delay per message.
type countingSender struct {
	mu    sync.Mutex
	delay time.Duration
	sent  []dispatch.Message
}

func (s *countingSender) Name() string { return "counting" }

func (s *countingSender) Send(_ context.Context, msg dispatch.Message) (string, error) {
	time.Sleep(s.delay)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, msg)
	return "ok", nil
}

func (s *countingSender) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sent)
}

// stubSender succeeds unless err is set.
type stubSender struct {
	sent []dispatch.Message
	err  error
}

func (s *stubSender) Name() string { return "stub" }

func (s *stubSender) Send(_ context.Context, msg dispatch.Message) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	s.sent = append(s.sent, msg)
	return "ok", nil
}

type stubImages struct {
	urls []string
	err  error
}

func (s stubImages) GenerateImages(context.Context, ai.ImageRequest) ([]string, error) {
	return s.urls, s.err
}

type stubCaptions struct {
	err error
}

func (s stubCaptions) GenerateCaptions(ctx context.Context, req ai.CaptionRequest) ([]ai.Caption, error) {
	if s.err != nil {
		return nil, s.err
	}
	return ai.TemplateCaptioner{}.GenerateCaptions(ctx, req)
}

type stubModerator struct {
	flagged map[int]bool
}

func (s stubModerator) Moderate(_ context.Context, texts []string) ([]bool, error) {
	out := make([]bool, len(texts))
	for i := range texts {
		out[i] = s.flagged[i]
	}
	return out, nil
}

type memoryStore struct {
	objects map[string]string
	putErr  error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{objects: map[string]string{}}
}

func (s *memoryStore) Put(_ context.Context, key, _ string, r io.Reader, _ int64) (string, error) {
	if s.putErr != nil {
		return "", s.putErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	s.objects[key] = string(data)
	return "https://cdn.example.com/" + key, nil
}

func (s *memoryStore) Delete(_ context.Context, key string) error {
	delete(s.objects, key)
	return nil
}

func strPtr(s string) *string { return &s }

func timePtr(t time.Time) *time.Time { return &t }
