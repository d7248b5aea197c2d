package memory

import (
	"sync"

	"github.com/rsehgal/wayfarer/internal/domain"
)

// TripStore keeps the latest itinerary and booking per session, which
// is all the live-trip endpoint needs.
type TripStore struct {
	mu          sync.RWMutex
	itineraries map[domain.SessionID]*domain.Itinerary
	bookings    map[domain.SessionID]*domain.Booking
}

func NewTripStore() *TripStore {
	return &TripStore{
		itineraries: make(map[domain.SessionID]*domain.Itinerary),
		bookings:    make(map[domain.SessionID]*domain.Booking),
	}
}

func (s *TripStore) SaveItinerary(it *domain.Itinerary) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.itineraries[it.SessionID] = it
	return nil
}

func (s *TripStore) GetItineraryBySession(sessionID domain.SessionID) (*domain.Itinerary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	it, ok := s.itineraries[sessionID]
	if !ok {
		return nil, domain.ErrItineraryNotFound
	}
	return it, nil
}

func (s *TripStore) SaveBooking(b *domain.Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.bookings[b.SessionID] = b
	return nil
}

func (s *TripStore) GetBookingBySession(sessionID domain.SessionID) (*domain.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.bookings[sessionID]
	if !ok {
		return nil, domain.ErrBookingNotFound
	}
	return b, nil
}
