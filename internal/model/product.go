package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is an item of the services catalog (groceries, coffee, shisha,
// cards...).  Type and Category are free text chosen by the admin panel.
type Product struct {
	ID        uint64          `json:"id"`
	Type      string          `json:"type"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Stock     int             `json:"stock"`
	Category  string          `json:"category"`
	Image     *string         `json:"image"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}
