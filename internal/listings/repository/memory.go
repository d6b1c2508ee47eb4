package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"

	listingserrors "staybook/internal/listings/errors"
	"staybook/pkg/model"

	"github.com/google/uuid"
)

// MemoryRepository serves listings from process memory. Used by the memory
// store backend and by tests.
type MemoryRepository struct {
	mu       sync.RWMutex
	listings map[string]model.Listing
}

func NewMemoryRepository(seed ...model.Listing) *MemoryRepository {
	m := &MemoryRepository{listings: make(map[string]model.Listing, len(seed))}
	for _, l := range seed {
		if l.ID == "" {
			l.ID = uuid.NewString()
		}
		m.listings[l.ID] = l
	}
	return m
}

func (m *MemoryRepository) Create(ctx context.Context, listing *model.Listing) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if listing.ID == "" {
		listing.ID = uuid.NewString()
	}
	m.listings[listing.ID] = *listing
	return nil
}

func (m *MemoryRepository) FindByID(ctx context.Context, id string) (*model.Listing, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	l, ok := m.listings[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", listingserrors.ErrNotFound, id)
	}
	return &l, nil
}

func (m *MemoryRepository) Search(ctx context.Context, criteria model.ListingCriteria) ([]*model.Listing, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	out := []*model.Listing{}
	for _, l := range m.listings {
		if criteria.Matches(&l) {
			l := l
			out = append(out, &l)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].PricePerNight != out[j].PricePerNight {
			return out[i].PricePerNight < out[j].PricePerNight
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}
