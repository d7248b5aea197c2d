package domain

import "time"

// BookingStatus is the lifecycle state of a checkout.
type BookingStatus string

const (
	BookingConfirmed BookingStatus = "confirmed"
	BookingCancelled BookingStatus = "cancelled"
)

// Itinerary is a generated day-by-day plan for one session.
type Itinerary struct {
	ID        ItineraryID `json:"id"`
	SessionID SessionID   `json:"session_id"`
	UserID    UserID      `json:"user_id"`

	CreatedAt time.Time `json:"created_at"`

	// Content is the agent-produced plan, structured text.
	Content string `json:"content"`

	// Preferences the plan was generated from, as sent by the client.
	Preferences map[string]any `json:"preferences"`
}

// Booking records a one-click checkout of a generated itinerary.
type Booking struct {
	ID          BookingID     `json:"id"`
	ItineraryID ItineraryID   `json:"itinerary_id"`
	SessionID   SessionID     `json:"session_id"`
	UserID      UserID        `json:"user_id"`
	Status      BookingStatus `json:"status"`
	CreatedAt   time.Time     `json:"created_at"`
}

// TripStore persists itineraries and bookings per session.
type TripStore interface {
	SaveItinerary(it *Itinerary) error
	GetItineraryBySession(sessionID SessionID) (*Itinerary, error)
	SaveBooking(b *Booking) error
	GetBookingBySession(sessionID SessionID) (*Booking, error)
}
