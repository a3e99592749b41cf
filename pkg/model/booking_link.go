package model

import "time"

// BookingLink grants unauthenticated booking access scoped to one client.
// The token is a bearer capability with no expiry; links are soft-deleted
// by flipping Active and reused while active. At most one link exists per
// client (unique index on client_id).
type BookingLink struct {
	ID          string    `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	ClientID    string    `json:"client_id" bson:"client_id" validate:"required,mongodb"`
	Token       string    `json:"token" bson:"token" validate:"required"`
	Active      bool      `json:"active" bson:"active"`
	AccessCount int64     `json:"access_count" bson:"access_count"`
	CreatedBy   string    `json:"created_by,omitempty" bson:"created_by,omitempty" validate:"omitempty,mongodb"`
	CreatedAt   time.Time `json:"created_at" bson:"created_at" validate:"omitempty"`
}

// BookingLinkStats is the staff-facing usage view of a link.
type BookingLinkStats struct {
	ClientID     string    `json:"client_id"`
	Token        string    `json:"token"`
	Active       bool      `json:"active"`
	AccessCount  int64     `json:"access_count"`
	BookingsMade int64     `json:"bookings_made"`
	CreatedAt    time.Time `json:"created_at"`
}
