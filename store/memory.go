package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"ventspace/models"
)

// Memory keeps topics in process memory behind a single mutex.
type Memory struct {
	mu     sync.Mutex
	topics map[string]*models.Topic
}

func NewMemory() *Memory {
	return &Memory{topics: make(map[string]*models.Topic)}
}

func (m *Memory) Insert(_ context.Context, t *models.Topic) (*models.Topic, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored := t.Clone()
	stored.ID = uuid.NewString()
	if stored.Votes == nil {
		stored.Votes = []models.Vote{}
	}
	if stored.Comments == nil {
		stored.Comments = []models.Comment{}
	}
	m.topics[stored.ID] = stored
	return stored.Clone(), nil
}

func (m *Memory) FindByID(_ context.Context, id string) (*models.Topic, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.topics[id]
	if !ok {
		return nil, notFound(id)
	}
	return t.Clone(), nil
}

func (m *Memory) FindRecent(_ context.Context, limit int) ([]*models.Topic, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	all := make([]*models.Topic, 0, len(m.topics))
	for _, t := range m.topics {
		all = append(all, t)
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].ID > all[j].ID
		}
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}

	out := make([]*models.Topic, len(all))
	for i, t := range all {
		out[i] = t.Clone()
	}
	return out, nil
}

func (m *Memory) ToggleVote(_ context.Context, id, voterID string, voteType models.VoteType) (*models.Topic, error) {
	return m.update(id, func(t *models.Topic) {
		t.Votes = toggle(t.Votes, voterID, voteType)
	})
}

func (m *Memory) AppendComment(_ context.Context, id string, c models.Comment) (*models.Topic, error) {
	return m.update(id, func(t *models.Topic) {
		t.Comments = append(t.Comments, c)
	})
}

func (m *Memory) IncrementReports(_ context.Context, id string) (*models.Topic, error) {
	return m.update(id, func(t *models.Topic) {
		t.ReportCount++
	})
}

func (m *Memory) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.topics[id]; !ok {
		return notFound(id)
	}
	delete(m.topics, id)
	return nil
}

func (m *Memory) EnsureIndexes(context.Context) error { return nil }

func (m *Memory) update(id string, fn func(*models.Topic)) (*models.Topic, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.topics[id]
	if !ok {
		return nil, notFound(id)
	}
	fn(t)
	return t.Clone(), nil
}

func notFound(id string) error {
	return fmt.Errorf("topic %q: %w", id, models.ErrNotFound)
}
