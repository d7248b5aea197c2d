package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rsehgal/wayfarer/internal/domain"
)

type ProfileStore struct {
	mu       sync.RWMutex
	profiles map[domain.UserID]*domain.UserProfile
	now      func() time.Time
}

func NewProfileStore() *ProfileStore {
	return &ProfileStore{
		profiles: make(map[domain.UserID]*domain.UserProfile),
		now:      time.Now,
	}
}

func (s *ProfileStore) GetProfile(ctx context.Context, id domain.UserID) (*domain.UserProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.profiles[id]
	if !ok {
		return nil, domain.ErrProfileNotFound
	}

	cp := *p
	return &cp, nil
}

func (s *ProfileStore) CreateProfile(ctx context.Context, profile *domain.UserProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.profiles[profile.ID]; exists {
		return errors.New("profile already exists")
	}

	cp := *profile
	now := s.now()
	cp.CreatedAt = now
	cp.UpdatedAt = now
	cp.LastLoginAt = now
	s.profiles[profile.ID] = &cp
	return nil
}

func (s *ProfileStore) UpdateLastLogin(ctx context.Context, id domain.UserID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.profiles[id]
	if !ok {
		return domain.ErrProfileNotFound
	}

	p.LastLoginAt = s.now()
	return nil
}

func (s *ProfileStore) UpdatePreferences(ctx context.Context, id domain.UserID, prefs domain.Preferences) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.profiles[id]
	if !ok {
		return domain.ErrProfileNotFound
	}

	p.Preferences = prefs
	p.UpdatedAt = s.now()
	return nil
}

func (s *ProfileStore) IncrementStat(ctx context.Context, id domain.UserID, stat string, delta int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.profiles[id]
	if !ok {
		return domain.ErrProfileNotFound
	}

	switch stat {
	case "tripsPlanned":
		p.Stats.TripsPlanned += delta
	case "tripsCompleted":
		p.Stats.TripsCompleted += delta
	case "destinationsVisited":
		p.Stats.DestinationsVisited += delta
	case "totalSpent":
		p.Stats.TotalSpent += float64(delta)
	case "messagesExchanged":
		p.Stats.MessagesExchanged += delta
	case "itinerariesGenerated":
		p.Stats.ItinerariesGenerated += delta
	case "bookingsCompleted":
		p.Stats.BookingsCompleted += delta
	default:
		return fmt.Errorf("unknown stat %q", stat)
	}

	p.UpdatedAt = s.now()
	return nil
}
