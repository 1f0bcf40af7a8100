package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/lou463/Underscore-Resume-BETA01/internal/analysis"
	apperrors "github.com/lou463/Underscore-Resume-BETA01/pkg/errors"
)

// Memory keeps the most recent analyses in insertion order, evicting the
// oldest beyond its capacity.
type Memory struct {
	mu       sync.RWMutex
	capacity int
	order    []string
	byID     map[string]analysis.Analysis
}

func NewMemory(capacity int) *Memory {
	if capacity <= 0 {
		capacity = 1000
	}
	return &Memory{
		capacity: capacity,
		byID:     make(map[string]analysis.Analysis),
	}
}

func (m *Memory) Save(ctx context.Context, a *analysis.Analysis) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.byID[a.ID]; !exists {
		m.order = append(m.order, a.ID)
	}
	m.byID[a.ID] = *a
	for len(m.order) > m.capacity {
		delete(m.byID, m.order[0])
		m.order = m.order[1:]
	}
	return nil
}

func (m *Memory) Get(ctx context.Context, id string) (*analysis.Analysis, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrAnalysisNotFound, id)
	}
	return &a, nil
}

func (m *Memory) List(ctx context.Context, limit int) ([]analysis.Analysis, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]analysis.Analysis, 0, min(limit, len(m.order)))
	for i := len(m.order) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.byID[m.order[i]])
	}
	return out, nil
}
