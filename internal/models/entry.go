package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EntryKind tags the concrete variant of an expense entry.
type EntryKind string

const (
	KindGasPurchase EntryKind = "gas-purchase"
	KindMaintenance EntryKind = "maintenance"
	KindToll        EntryKind = "toll"
)

// EntryKinds lists every entry variant in display order.
var EntryKinds = []EntryKind{KindGasPurchase, KindMaintenance, KindToll}

// ParseEntryKind maps a route segment to an EntryKind.
func ParseEntryKind(s string) (EntryKind, error) {
	for _, k := range EntryKinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown entry kind %q", s)
}

// Label is the human readable name of the kind.
func (k EntryKind) Label() string {
	switch k {
	case KindGasPurchase:
		return "Gas purchase"
	case KindMaintenance:
		return "Maintenance"
	case KindToll:
		return "Toll"
	}
	return string(k)
}

// ListSegment is the car-scoped list route segment for the kind.
func (k EntryKind) ListSegment() string {
	switch k {
	case KindGasPurchase:
		return "gas-purchases"
	case KindMaintenance:
		return "maintenances"
	case KindToll:
		return "tolls"
	}
	return string(k)
}

// EntryBase holds the fields shared by every expense entry.
// OwnerID is copied from the car when the entry is created and is never
// re-derived afterwards.
type EntryBase struct {
	ID       uuid.UUID     `json:"id"`
	Datetime time.Time     `json:"datetime"`
	CarID    uuid.NullUUID `json:"car_id"`
	OwnerID  int64         `json:"owner_id"`
}

// Base returns the shared fields.
func (b *EntryBase) Base() *EntryBase { return b }

// Entry is one of *GasPurchase, *Maintenance or *Toll.
type Entry interface {
	Base() *EntryBase
	Kind() EntryKind
	Cost() decimal.Decimal
}

// GasPurchase records a fill-up.
type GasPurchase struct {
	EntryBase
	Gallons         decimal.Decimal `json:"gallons"`
	CostPerGallon   decimal.Decimal `json:"cost_per_gallon"`
	OdometerReading int64           `json:"odometer_reading"`
}

// TotalCost is cost per gallon times gallons, without rounding.
func (g *GasPurchase) TotalCost() decimal.Decimal {
	return g.CostPerGallon.Mul(g.Gallons)
}

func (g *GasPurchase) Kind() EntryKind        { return KindGasPurchase }
func (g *GasPurchase) Cost() decimal.Decimal { return g.TotalCost() }

func (g *GasPurchase) String() string {
	return fmt.Sprintf("%s %s@%s", g.Datetime.Format(time.RFC3339), g.Gallons, g.CostPerGallon)
}

// Maintenance records a service event.
type Maintenance struct {
	EntryBase
	Amount          decimal.Decimal `json:"cost"`
	OdometerReading int64           `json:"odometer_reading"`
	Description     string          `json:"description"`
}

func (m *Maintenance) Kind() EntryKind        { return KindMaintenance }
func (m *Maintenance) Cost() decimal.Decimal { return m.Amount }

// Toll records a road toll.
type Toll struct {
	EntryBase
	Amount      decimal.Decimal `json:"cost"`
	Description string          `json:"description"`
}

func (t *Toll) Kind() EntryKind        { return KindToll }
func (t *Toll) Cost() decimal.Decimal { return t.Amount }

// NewEntry returns an empty entry of the given kind.
func NewEntry(kind EntryKind) Entry {
	switch kind {
	case KindGasPurchase:
		return &GasPurchase{}
	case KindMaintenance:
		return &Maintenance{}
	case KindToll:
		return &Toll{}
	}
	return nil
}
