package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Service описывает услугу, которую предлагает исполнитель.
type Service struct {
	ID          uuid.UUID       `db:"id" json:"id"`
	ProviderID  uuid.UUID       `db:"provider_id" json:"provider_id"`
	Name        string          `db:"name" json:"name"`
	Category    *string         `db:"category" json:"category,omitempty"`
	Description *string         `db:"description" json:"description,omitempty"`
	Price       decimal.Decimal `db:"price" json:"price"`
	Latitude    *float64        `db:"latitude" json:"latitude,omitempty"`
	Longitude   *float64        `db:"longitude" json:"longitude,omitempty"`
	IsActive    bool            `db:"is_active" json:"is_active"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
}
