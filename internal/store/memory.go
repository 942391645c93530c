package store

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore implements Store with in-memory maps, for local development
// and tests.
type MemoryStore struct {
	mu       sync.RWMutex
	trades   map[string]*Trade
	losses   map[string]*Loss
	profiles map[string]*Profile
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		trades:   make(map[string]*Trade),
		losses:   make(map[string]*Loss),
		profiles: make(map[string]*Profile),
	}
}

// CreateTrade stores a trade record.
func (s *MemoryStore) CreateTrade(_ context.Context, trade *Trade) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *trade
	s.trades[trade.ID] = &cp
	return nil
}

// GetTrade retrieves a trade by ID.
func (s *MemoryStore) GetTrade(_ context.Context, tradeID string) (*Trade, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.trades[tradeID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *t
	return &cp, nil
}

// ListTrades returns an owner's trades ordered by date.
func (s *MemoryStore) ListTrades(_ context.Context, owner string) ([]*Trade, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Trade
	for _, t := range s.trades {
		if t.Owner == owner {
			cp := *t
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// DeleteTrade removes a trade by ID.
func (s *MemoryStore) DeleteTrade(_ context.Context, tradeID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.trades[tradeID]; !ok {
		return ErrNotFound
	}
	delete(s.trades, tradeID)
	return nil
}

// CreateLoss stores a loss record.
func (s *MemoryStore) CreateLoss(_ context.Context, loss *Loss) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *loss
	s.losses[loss.ID] = &cp
	return nil
}

// ListLosses returns an owner's recorded losses ordered by applying year.
func (s *MemoryStore) ListLosses(_ context.Context, owner string) ([]*Loss, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Loss
	for _, l := range s.losses {
		if l.Owner == owner {
			cp := *l
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].FY != out[j].FY {
			return out[i].FY < out[j].FY
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// DeleteLoss removes a loss by ID.
func (s *MemoryStore) DeleteLoss(_ context.Context, lossID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.losses[lossID]; !ok {
		return ErrNotFound
	}
	delete(s.losses, lossID)
	return nil
}

// CreateProfile stores a taxpayer profile.
func (s *MemoryStore) CreateProfile(_ context.Context, profile *Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *profile
	cp.Deductions = append([]string(nil), profile.Deductions...)
	s.profiles[profile.ID] = &cp
	return nil
}

// ListProfiles returns an owner's saved profiles ordered by name.
func (s *MemoryStore) ListProfiles(_ context.Context, owner string) ([]*Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Profile
	for _, p := range s.profiles {
		if p.Owner == owner {
			cp := *p
			cp.Deductions = append([]string(nil), p.Deductions...)
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// DeleteProfile removes a profile by ID.
func (s *MemoryStore) DeleteProfile(_ context.Context, profileID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.profiles[profileID]; !ok {
		return ErrNotFound
	}
	delete(s.profiles, profileID)
	return nil
}
