package model

import "time"

type Professional struct {
	ID           string    `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	Name         string    `json:"name" bson:"name" validate:"required,min=2,max=100"`
	Specialty    string    `json:"specialty" bson:"specialty" validate:"required,min=2,max=100"`
	Registration string    `json:"registration,omitempty" bson:"registration,omitempty" validate:"omitempty,max=50"`
	Phone        string    `json:"phone" bson:"phone" validate:"required,min=8,max=20"`
	Email        string    `json:"email,omitempty" bson:"email,omitempty" validate:"omitempty,email"`
	Active       bool      `json:"active" bson:"active"`
	CreatedAt    time.Time `json:"created_at" bson:"created_at" validate:"omitempty"`
	UpdatedAt    time.Time `json:"updated_at" bson:"updated_at" validate:"omitempty"`
}

type ProfessionalUpdate struct {
	Name         string  `json:"name,omitempty" validate:"omitempty,min=2,max=100"`
	Specialty    string  `json:"specialty,omitempty" validate:"omitempty,min=2,max=100"`
	Registration *string `json:"registration,omitempty" validate:"omitempty,max=50"`
	Phone        string  `json:"phone,omitempty" validate:"omitempty,min=8,max=20"`
	Email        string  `json:"email,omitempty" validate:"omitempty,email"`
	Active       *bool   `json:"active,omitempty"`
}
