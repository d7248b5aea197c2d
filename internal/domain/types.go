package domain

import "time"

type SessionID string
type UserID string
type MessageID string
type ItineraryID string
type BookingID string

type Role string

const (
	RoleUser  Role = "user"
	RoleAgent Role = "agent"
)

// AuthProviderKind records which identity method created the account.
type AuthProviderKind string

const (
	AuthProviderEmail  AuthProviderKind = "email"
	AuthProviderGoogle AuthProviderKind = "google"
)

type AccountStatus string

const (
	StatusActive    AccountStatus = "active"
	StatusSuspended AccountStatus = "suspended"
	StatusDeleted   AccountStatus = "deleted"
)

type Timestamp = time.Time
