package repository

import (
	"context"
	"sort"
	"sync"

	reservationserrors "staybook/internal/reservations/errors"
	"staybook/internal/reservations/index"
	mongotx "staybook/pkg/db/mongo"
	"staybook/pkg/model"

	"github.com/google/uuid"
)

// MemoryRepository keeps reservations in process. Each resource has an
// interval tree over its active reservations so overlap queries do not scan.
type MemoryRepository struct {
	mu           sync.RWMutex
	policy       model.OverlapPolicy
	reservations map[string]*model.Reservation
	active       map[string]*index.Tree
}

func NewMemoryRepository(policy model.OverlapPolicy) *MemoryRepository {
	return &MemoryRepository{
		policy:       policy,
		reservations: make(map[string]*model.Reservation),
		active:       make(map[string]*index.Tree),
	}
}

func (m *MemoryRepository) FindActiveOverlapping(ctx context.Context, resourceID string, interval model.Interval, excludeID string) ([]*model.Reservation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	tree, ok := m.active[resourceID]
	if !ok {
		return nil, nil
	}

	ids := tree.Overlapping(interval, excludeID)
	out := make([]*model.Reservation, 0, len(ids))
	for _, id := range ids {
		out = append(out, m.reservations[id].Clone())
	}
	return out, nil
}

func (m *MemoryRepository) Create(ctx context.Context, reservation *model.Reservation) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if reservation.ID == "" {
		reservation.ID = uuid.NewString()
	}
	m.store(reservation.Clone())
	return nil
}

func (m *MemoryRepository) FindByID(ctx context.Context, id string) (*model.Reservation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	r, ok := m.reservations[id]
	if !ok {
		return nil, reservationserrors.ErrNotFound
	}
	return r.Clone(), nil
}

func (m *MemoryRepository) Update(ctx context.Context, reservation *model.Reservation) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.reservations[reservation.ID]; !ok {
		return reservationserrors.ErrNotFound
	}
	m.store(reservation.Clone())
	return nil
}

// store must be called with mu held.
func (m *MemoryRepository) store(r *model.Reservation) {
	if prev, ok := m.reservations[r.ID]; ok && prev.ResourceID != r.ResourceID {
		if tree, ok := m.active[prev.ResourceID]; ok {
			tree.Remove(prev.ID)
		}
	}
	m.reservations[r.ID] = r

	tree, ok := m.active[r.ResourceID]
	if !ok {
		tree = index.NewTree(m.policy)
		m.active[r.ResourceID] = tree
	}
	if r.Status().IsActive() {
		tree.Put(r.ID, r.Interval())
	} else {
		tree.Remove(r.ID)
	}
}

func (m *MemoryRepository) FindByResource(ctx context.Context, resourceID string, status *model.Status) ([]*model.Reservation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*model.Reservation
	for _, r := range m.reservations {
		if r.ResourceID != resourceID {
			continue
		}
		if status != nil && r.Status() != *status {
			continue
		}
		out = append(out, r.Clone())
	}
	sortByStart(out)
	return out, nil
}

func (m *MemoryRepository) FindElapsedConfirmed(ctx context.Context, today model.Date, limit int) ([]*model.Reservation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*model.Reservation
	for _, r := range m.reservations {
		if r.Status() == model.StatusConfirmed && !today.Before(r.EndDate) {
			out = append(out, r.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].EndDate.Equal(out[j].EndDate) {
			return out[i].EndDate.Before(out[j].EndDate)
		}
		return out[i].ID < out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Guard is a no-op: the memory store is only consistent under the
// in-process resource lock.
func (m *MemoryRepository) Guard(ctx context.Context, resourceID string) error {
	return ctx.Err()
}

func (m *MemoryRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return fn(ctx)
}

func sortByStart(rs []*model.Reservation) {
	sort.Slice(rs, func(i, j int) bool {
		if c := rs[i].StartDate.Compare(rs[j].StartDate); c != 0 {
			return c < 0
		}
		return rs[i].ID < rs[j].ID
	})
}
