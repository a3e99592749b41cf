package model

import "time"

// Service is a catalog entry: what the clinic offers, how long it takes and
// what it costs. Appointments copy duration and price from the service at
// booking time.
type Service struct {
	ID                   string    `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	Name                 string    `json:"name" bson:"name" validate:"required,min=2,max=100"`
	Kind                 string    `json:"kind" bson:"kind" validate:"required,min=2,max=50"`
	Description          string    `json:"description,omitempty" bson:"description,omitempty" validate:"omitempty,max=500"`
	Duration             int       `json:"duration" bson:"duration" validate:"required,min=5,max=480"`
	Price                float64   `json:"price" bson:"price" validate:"omitempty,min=0"`
	AllowedProfessionals []string  `json:"allowed_professionals" bson:"allowed_professionals" validate:"omitempty,dive,mongodb"`
	Active               bool      `json:"active" bson:"active"`
	CreatedAt            time.Time `json:"created_at" bson:"created_at" validate:"omitempty"`
	UpdatedAt            time.Time `json:"updated_at" bson:"updated_at" validate:"omitempty"`
}

type ServiceUpdate struct {
	Name                 string    `json:"name,omitempty" validate:"omitempty,min=2,max=100"`
	Kind                 string    `json:"kind,omitempty" validate:"omitempty,min=2,max=50"`
	Description          *string   `json:"description,omitempty" validate:"omitempty,max=500"`
	Duration             *int      `json:"duration,omitempty" validate:"omitempty,min=5,max=480"`
	Price                *float64  `json:"price,omitempty" validate:"omitempty,min=0"`
	AllowedProfessionals *[]string `json:"allowed_professionals,omitempty" validate:"omitempty,dive,mongodb"`
	Active               *bool     `json:"active,omitempty"`
}
