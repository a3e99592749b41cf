package model

import "time"

const (
	WaitlistWaiting   = "waiting"
	WaitlistContacted = "contacted"
	WaitlistScheduled = "scheduled"
	WaitlistCanceled  = "canceled"
)

type WaitlistEntry struct {
	ID        string    `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	ClientID  string    `json:"client_id" bson:"client_id" validate:"required,mongodb"`
	ServiceID string    `json:"service_id" bson:"service_id" validate:"required,mongodb"`
	Priority  int       `json:"priority" bson:"priority" validate:"required,min=1,max=5"`
	Notes     string    `json:"notes,omitempty" bson:"notes,omitempty" validate:"omitempty,max=1000"`
	Status    string    `json:"status" bson:"status" validate:"required,oneof=waiting contacted scheduled canceled"`
	CreatedAt time.Time `json:"created_at" bson:"created_at" validate:"omitempty"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at" validate:"omitempty"`
}

type WaitlistEntryUpdate struct {
	ClientID  string  `json:"client_id,omitempty" validate:"omitempty,mongodb"`
	ServiceID string  `json:"service_id,omitempty" validate:"omitempty,mongodb"`
	Priority  *int    `json:"priority,omitempty" validate:"omitempty,min=1,max=5"`
	Notes     *string `json:"notes,omitempty" validate:"omitempty,max=1000"`
	Status    string  `json:"status,omitempty" validate:"omitempty,oneof=waiting contacted scheduled canceled"`
}

type WaitlistEntryExpanded struct {
	WaitlistEntry `bson:",inline"`
	ClientName    string `json:"client_name" bson:"-"`
	ClientPhone   string `json:"client_phone" bson:"-"`
	ServiceName   string `json:"service_name" bson:"-"`
}
