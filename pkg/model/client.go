package model

import "time"

type Client struct {
	ID        string     `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	Name      string     `json:"name" bson:"name" validate:"required,min=2,max=100"`
	Email     string     `json:"email,omitempty" bson:"email,omitempty" validate:"omitempty,email"`
	Phone     string     `json:"phone" bson:"phone" validate:"required,min=8,max=20"`
	Document  string     `json:"document,omitempty" bson:"document,omitempty" validate:"omitempty,numeric,min=8,max=14"`
	BirthDate *time.Time `json:"birth_date,omitempty" bson:"birth_date,omitempty" validate:"omitempty"`
	Address   string     `json:"address,omitempty" bson:"address,omitempty" validate:"omitempty,max=200"`
	Notes     string     `json:"notes,omitempty" bson:"notes,omitempty" validate:"omitempty,max=1000"`
	Active    bool       `json:"active" bson:"active"`
	CreatedAt time.Time  `json:"created_at" bson:"created_at" validate:"omitempty"`
	UpdatedAt time.Time  `json:"updated_at" bson:"updated_at" validate:"omitempty"`
}

type ClientUpdate struct {
	Name      string     `json:"name,omitempty" validate:"omitempty,min=2,max=100"`
	Email     string     `json:"email,omitempty" validate:"omitempty,email"`
	Phone     string     `json:"phone,omitempty" validate:"omitempty,min=8,max=20"`
	Document  string     `json:"document,omitempty" validate:"omitempty,numeric,min=8,max=14"`
	BirthDate *time.Time `json:"birth_date,omitempty" validate:"omitempty"`
	Address   *string    `json:"address,omitempty" validate:"omitempty,max=200"`
	Notes     *string    `json:"notes,omitempty" validate:"omitempty,max=1000"`
	Active    *bool      `json:"active,omitempty"`
}
