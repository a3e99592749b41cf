package model

import (
	"time"
)

const (
	StatusScheduled  = "scheduled"
	StatusConfirmed  = "confirmed"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusCanceled   = "canceled"

	OriginStaff      = "staff"
	OriginPublicLink = "public_link"
)

// ActiveStatuses are the statuses that occupy a slot for conflict and
// availability purposes.
var ActiveStatuses = []string{StatusScheduled, StatusConfirmed, StatusInProgress}

type Appointment struct {
	ID             string    `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	ClientID       string    `json:"client_id,omitempty" bson:"client_id,omitempty" validate:"omitempty,mongodb"`
	ProfessionalID string    `json:"professional_id" bson:"professional_id" validate:"required,mongodb"`
	ServiceID      string    `json:"service_id" bson:"service_id" validate:"required,mongodb"`
	DateTime       time.Time `json:"date_time" bson:"date_time" validate:"required"`
	Duration       int       `json:"duration" bson:"duration" validate:"omitempty,min=5,max=480"`
	Price          float64   `json:"price" bson:"price" validate:"omitempty,min=0"`
	Status         string    `json:"status" bson:"status" validate:"required,oneof=scheduled confirmed in_progress completed canceled"`
	Notes          string    `json:"notes,omitempty" bson:"notes,omitempty" validate:"omitempty,max=1000"`
	Origin         string    `json:"origin" bson:"origin" validate:"required,oneof=staff public_link"`
	CreatedAt      time.Time `json:"created_at" bson:"created_at" validate:"omitempty"`
	UpdatedAt      time.Time `json:"updated_at" bson:"updated_at" validate:"omitempty"`
}

// AppointmentRequest is the wire form of a booking. DateTime is a string
// because inputs arrive as bare wall-clock timestamps, with an offset, or
// with a trailing Z; the timezone normalizer resolves all three.
type AppointmentRequest struct {
	ClientID       string `json:"client_id,omitempty" validate:"omitempty,mongodb"`
	ProfessionalID string `json:"professional_id" validate:"required,mongodb"`
	ServiceID      string `json:"service_id" validate:"required,mongodb"`
	DateTime       string `json:"date_time" validate:"required"`
	Notes          string `json:"notes,omitempty" validate:"omitempty,max=1000"`
}

type AppointmentUpdate struct {
	ClientID       string  `json:"client_id,omitempty" validate:"omitempty,mongodb"`
	ProfessionalID string  `json:"professional_id,omitempty" validate:"omitempty,mongodb"`
	ServiceID      string  `json:"service_id,omitempty" validate:"omitempty,mongodb"`
	DateTime       string  `json:"date_time,omitempty" validate:"omitempty"`
	Status         string  `json:"status,omitempty" validate:"omitempty,oneof=scheduled confirmed in_progress completed canceled"`
	Notes          *string `json:"notes,omitempty" validate:"omitempty,max=1000"`
}

// AppointmentExpanded is the read-side projection joining display names at
// read time. The names are never stored; a missing referent is rendered as
// a placeholder rather than failing the read.
type AppointmentExpanded struct {
	Appointment      `bson:",inline"`
	ClientName       string `json:"client_name" bson:"-"`
	ProfessionalName string `json:"professional_name" bson:"-"`
	ServiceName      string `json:"service_name" bson:"-"`
}

// IsActiveStatus reports whether status occupies a slot.
func IsActiveStatus(status string) bool {
	for _, s := range ActiveStatuses {
		if s == status {
			return true
		}
	}
	return false
}
