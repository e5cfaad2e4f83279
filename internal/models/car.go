package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Car is a tracked vehicle owned by exactly one user.
type Car struct {
	ID            uuid.UUID       `json:"id"`
	Make          string          `json:"make"`
	Model         string          `json:"model"`
	Year          string          `json:"year"`
	PurchaseDate  time.Time       `json:"purchase_date"`
	PurchasePrice decimal.Decimal `json:"purchase_price"`
	VIN           string          `json:"vin"`
	Nickname      *string         `json:"nickname,omitempty"`
	OwnerID       int64           `json:"owner_id"`
}

// DefaultName is the name used when the car has no nickname.
func (c Car) DefaultName() string {
	return fmt.Sprintf("%s %s %s - %s", c.Year, c.Make, c.Model, c.VIN)
}

func (c Car) String() string {
	if c.Nickname != nil && *c.Nickname != "" {
		return *c.Nickname
	}
	return c.DefaultName()
}
