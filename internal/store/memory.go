package store

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"threatwatch/internal/alert"
	"threatwatch/internal/detection"
)

// MemoryStore keeps everything in process memory.
type MemoryStore struct {
	mu         sync.RWMutex
	detections []detection.Detection
	alerts     []alert.Alert
	alertIdx   map[string]int
	now        func() time.Time
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{alertIdx: map[string]int{}, now: time.Now}
}

func (m *MemoryStore) CreateDetection(_ context.Context, d detection.Detection) (string, error) {
	if d.ID == "" {
		d.ID = uuid.New().String()
	}
	m.mu.Lock()
	m.detections = append(m.detections, d)
	m.mu.Unlock()
	return d.ID, nil
}

func (m *MemoryStore) CreateAlert(_ context.Context, a alert.Alert) (string, error) {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.alertIdx[a.ID] = len(m.alerts)
	m.alerts = append(m.alerts, a)
	return a.ID, nil
}

func (m *MemoryStore) QueryDetections(_ context.Context, since time.Time) ([]detection.Detection, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []detection.Detection
	for _, d := range m.detections {
		if !d.Timestamp.Before(since) {
			out = append(out, d)
		}
	}
	return out, nil
}

func (m *MemoryStore) UpdateAlertStatus(_ context.Context, id string, status alert.Status) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i, ok := m.alertIdx[id]
	if !ok {
		return false, nil
	}
	updated, err := m.alerts[i].Transition(status, m.now().UTC())
	if err != nil {
		return false, err
	}
	m.alerts[i] = updated
	return true, nil
}

func (m *MemoryStore) ListAlerts(_ context.Context) ([]alert.Alert, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.alerts), nil
}
