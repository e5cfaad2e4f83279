// Package metrics computes derived values for a car from its expense entries.
// Every function is pure; callers load the records and pass them in.
package metrics

import (
	"cmp"
	"slices"

	"gas-tracker/internal/models"

	"github.com/shopspring/decimal"
)

// Records is a car together with all of its expense entries.
type Records struct {
	Car         models.Car
	Gas         []models.GasPurchase
	Maintenance []models.Maintenance
	Tolls       []models.Toll
}

// Summary holds the aggregate metrics shown on the car detail page.
type Summary struct {
	OperatingCost        decimal.Decimal
	TotalCostOfOwnership decimal.Decimal
	MilesDriven          int64
	AverageFuelEconomy   decimal.Decimal
	CostPerMile          decimal.Decimal
}

// Summarize computes every aggregate metric for r.
func Summarize(r Records) Summary {
	return Summary{
		OperatingCost:        OperatingCost(r),
		TotalCostOfOwnership: TotalCostOfOwnership(r),
		MilesDriven:          MilesDriven(r.Gas),
		AverageFuelEconomy:   AverageFuelEconomy(r.Gas),
		CostPerMile:          CostPerMile(r),
	}
}

// OperatingCost is the sum of every gas, maintenance and toll cost.
func OperatingCost(r Records) decimal.Decimal {
	total := decimal.Zero
	for i := range r.Gas {
		total = total.Add(r.Gas[i].TotalCost())
	}
	for _, m := range r.Maintenance {
		total = total.Add(m.Amount)
	}
	for _, t := range r.Tolls {
		total = total.Add(t.Amount)
	}
	return total
}

// TotalCostOfOwnership is the purchase price plus the operating cost.
func TotalCostOfOwnership(r Records) decimal.Decimal {
	return r.Car.PurchasePrice.Add(OperatingCost(r))
}

// MilesDriven is the span between the lowest and highest odometer reading
// across the gas purchases, or 0 when there are none.
func MilesDriven(gas []models.GasPurchase) int64 {
	if len(gas) == 0 {
		return 0
	}
	sorted := slices.Clone(gas)
	slices.SortFunc(sorted, func(a, b models.GasPurchase) int {
		return cmp.Compare(a.OdometerReading, b.OdometerReading)
	})
	return sorted[len(sorted)-1].OdometerReading - sorted[0].OdometerReading
}

// AverageFuelEconomy is miles driven over total gallons purchased.
// It is 0 when nothing was purchased.
func AverageFuelEconomy(gas []models.GasPurchase) decimal.Decimal {
	if len(gas) == 0 {
		return decimal.Zero
	}
	gallons := decimal.Zero
	for _, p := range gas {
		gallons = gallons.Add(p.Gallons)
	}
	if gallons.IsZero() {
		return decimal.Zero
	}
	return decimal.NewFromInt(MilesDriven(gas)).Div(gallons)
}

// CostPerMile is operating cost over miles driven. With no recorded mileage
// it falls back to the operating cost itself.
func CostPerMile(r Records) decimal.Decimal {
	miles := MilesDriven(r.Gas)
	cost := OperatingCost(r)
	if miles == 0 {
		return cost
	}
	return cost.Div(decimal.NewFromInt(miles))
}

// NextFillUp returns the purchase that ended the tank started by p: the
// sibling on the same car with the smallest odometer reading strictly
// greater than p's. Equal readings are broken by earliest datetime, then by
// lowest id. ok is false when p is the most recent fill-up.
func NextFillUp(p models.GasPurchase, siblings []models.GasPurchase) (next models.GasPurchase, ok bool) {
	for _, s := range siblings {
		if !sameCar(p, s) || s.OdometerReading <= p.OdometerReading {
			continue
		}
		if !ok || fillsBefore(s, next) {
			next, ok = s, true
		}
	}
	return next, ok
}

// TankFuelEconomy is the economy achieved during the tank that started at p
// and ended at the next fill-up: miles between the two readings over the
// gallons bought at the next fill-up. ok is false when there is no next
// fill-up or it recorded no gallons.
func TankFuelEconomy(p models.GasPurchase, siblings []models.GasPurchase) (mpg decimal.Decimal, ok bool) {
	next, found := NextFillUp(p, siblings)
	if !found || next.Gallons.IsZero() {
		return decimal.Zero, false
	}
	miles := decimal.NewFromInt(next.OdometerReading - p.OdometerReading)
	return miles.Div(next.Gallons), true
}

// TankFuelEconomies maps each purchase id to its tank fuel economy, leaving
// out purchases without one.
func TankFuelEconomies(page, siblings []models.GasPurchase) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(page))
	for _, p := range page {
		if mpg, ok := TankFuelEconomy(p, siblings); ok {
			out[p.ID.String()] = mpg
		}
	}
	return out
}

func sameCar(a, b models.GasPurchase) bool {
	return a.CarID.Valid && b.CarID.Valid && a.CarID.UUID == b.CarID.UUID
}

func fillsBefore(a, b models.GasPurchase) bool {
	if a.OdometerReading != b.OdometerReading {
		return a.OdometerReading < b.OdometerReading
	}
	if !a.Datetime.Equal(b.Datetime) {
		return a.Datetime.Before(b.Datetime)
	}
	return a.ID.String() < b.ID.String()
}
