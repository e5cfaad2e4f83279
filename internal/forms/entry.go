package forms

import (
	"net/url"
	"strconv"
	"strings"
	"time"

	"gas-tracker/internal/models"

	"github.com/google/uuid"
)

// EntryInput is the form of one expense entry kind.
type EntryInput interface {
	Kind() models.EntryKind
	// SelectedVehicle is the submitted car id.
	SelectedVehicle() string
	// Validate builds the entry. cars are the cars the acting user may
	// attach the entry to; loc is the user's timezone for the datetime.
	Validate(loc *time.Location, cars []models.Car) (models.Entry, FieldErrors)
}

// EntryFields are the inputs shared by every entry kind.
type EntryFields struct {
	Vehicle  string
	Datetime string
}

// SelectedVehicle returns the submitted car id.
func (f EntryFields) SelectedVehicle() string { return f.Vehicle }

func (f EntryFields) validate(fe FieldErrors, loc *time.Location, cars []models.Car) models.EntryBase {
	base := models.EntryBase{Datetime: parseDatetime(fe, "datetime", f.Datetime, loc)}

	raw := strings.TrimSpace(f.Vehicle)
	if raw == "" {
		fe.Add("vehicle", msgRequired)
		return base
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		fe.Add("vehicle", "Select a valid choice.")
		return base
	}
	for _, c := range cars {
		if c.ID == id {
			base.CarID = uuid.NullUUID{UUID: c.ID, Valid: true}
			base.OwnerID = c.OwnerID
			return base
		}
	}
	fe.Add("vehicle", "Select a valid choice.")
	return base
}

func entryFieldsFrom(v url.Values) EntryFields {
	return EntryFields{Vehicle: v.Get("vehicle"), Datetime: v.Get("datetime")}
}

func entryFieldsOf(b *models.EntryBase, loc *time.Location) EntryFields {
	f := EntryFields{}
	if b.CarID.Valid {
		f.Vehicle = b.CarID.UUID.String()
	}
	if !b.Datetime.IsZero() {
		if loc == nil {
			loc = time.UTC
		}
		f.Datetime = b.Datetime.In(loc).Format(DatetimeLayout)
	}
	return f
}

// GasPurchaseInput is the add-purchase and gas-purchase-update form.
type GasPurchaseInput struct {
	EntryFields
	OdometerReading string
	Gallons         string
	CostPerGallon   string
}

func (in GasPurchaseInput) Kind() models.EntryKind { return models.KindGasPurchase }

func (in GasPurchaseInput) Validate(loc *time.Location, cars []models.Car) (models.Entry, FieldErrors) {
	fe := FieldErrors{}
	p := &models.GasPurchase{
		EntryBase:       in.validate(fe, loc, cars),
		OdometerReading: parseOdometer(fe, "odometer_reading", in.OdometerReading),
		Gallons:         gallonsField.parse(fe, "gallons", in.Gallons),
		CostPerGallon:   gallonsField.parse(fe, "cost_per_gallon", in.CostPerGallon),
	}
	if fe.Any() {
		return nil, fe
	}
	return p, nil
}

// MaintenanceInput is the add-maintenance and maintenance-update form.
type MaintenanceInput struct {
	EntryFields
	OdometerReading string
	Description     string
	Cost            string
}

func (in MaintenanceInput) Kind() models.EntryKind { return models.KindMaintenance }

func (in MaintenanceInput) Validate(loc *time.Location, cars []models.Car) (models.Entry, FieldErrors) {
	fe := FieldErrors{}
	m := &models.Maintenance{
		EntryBase:       in.validate(fe, loc, cars),
		OdometerReading: parseOdometer(fe, "odometer_reading", in.OdometerReading),
		Description:     parseText(fe, "description", in.Description, 0),
		Amount:          costField.parse(fe, "cost", in.Cost),
	}
	if fe.Any() {
		return nil, fe
	}
	return m, nil
}

// TollInput is the add-toll and toll-update form.
type TollInput struct {
	EntryFields
	Description string
	Cost        string
}

func (in TollInput) Kind() models.EntryKind { return models.KindToll }

func (in TollInput) Validate(loc *time.Location, cars []models.Car) (models.Entry, FieldErrors) {
	fe := FieldErrors{}
	t := &models.Toll{
		EntryBase:   in.validate(fe, loc, cars),
		Description: parseText(fe, "description", in.Description, 0),
		Amount:      costField.parse(fe, "cost", in.Cost),
	}
	if fe.Any() {
		return nil, fe
	}
	return t, nil
}

// EntryInputFromForm reads a submitted entry form of the given kind.
func EntryInputFromForm(kind models.EntryKind, v url.Values) EntryInput {
	base := entryFieldsFrom(v)
	switch kind {
	case models.KindGasPurchase:
		return GasPurchaseInput{
			EntryFields:     base,
			OdometerReading: v.Get("odometer_reading"),
			Gallons:         v.Get("gallons"),
			CostPerGallon:   v.Get("cost_per_gallon"),
		}
	case models.KindMaintenance:
		return MaintenanceInput{
			EntryFields:     base,
			OdometerReading: v.Get("odometer_reading"),
			Description:     v.Get("description"),
			Cost:            v.Get("cost"),
		}
	case models.KindToll:
		return TollInput{
			EntryFields: base,
			Description: v.Get("description"),
			Cost:        v.Get("cost"),
		}
	}
	return nil
}

// EntryInputFromEntry pre-fills the form with a stored entry.
func EntryInputFromEntry(e models.Entry, loc *time.Location) EntryInput {
	base := entryFieldsOf(e.Base(), loc)
	switch e := e.(type) {
	case *models.GasPurchase:
		return GasPurchaseInput{
			EntryFields:     base,
			OdometerReading: strconv.FormatInt(e.OdometerReading, 10),
			Gallons:         e.Gallons.String(),
			CostPerGallon:   e.CostPerGallon.String(),
		}
	case *models.Maintenance:
		return MaintenanceInput{
			EntryFields:     base,
			OdometerReading: strconv.FormatInt(e.OdometerReading, 10),
			Description:     e.Description,
			Cost:            e.Amount.StringFixed(2),
		}
	case *models.Toll:
		return TollInput{
			EntryFields: base,
			Description: e.Description,
			Cost:        e.Amount.StringFixed(2),
		}
	}
	return nil
}

// BlankEntryInput is an empty form of the given kind with the vehicle and
// datetime pre-selected.
func BlankEntryInput(kind models.EntryKind, vehicle string, now time.Time, loc *time.Location) EntryInput {
	if loc == nil {
		loc = time.UTC
	}
	base := EntryFields{Vehicle: vehicle, Datetime: now.In(loc).Format(DatetimeLayout)}
	switch kind {
	case models.KindGasPurchase:
		return GasPurchaseInput{EntryFields: base}
	case models.KindMaintenance:
		return MaintenanceInput{EntryFields: base}
	case models.KindToll:
		return TollInput{EntryFields: base}
	}
	return nil
}
