package forms

import (
	"net/url"
	"testing"
	"time"

	"gas-tracker/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ownedCar = models.Car{ID: uuid.MustParse("0b9d2a7c-7f55-4d8e-a3a7-0f4a3c6f9e11"), OwnerID: 7}

func gasForm(gallons, costPerGallon string) url.Values {
	return url.Values{
		"vehicle":          {ownedCar.ID.String()},
		"datetime":         {"2024-06-01T09:30"},
		"odometer_reading": {"42000"},
		"gallons":          {gallons},
		"cost_per_gallon":  {costPerGallon},
	}
}

func TestGasPurchaseGallons(t *testing.T) {
	tests := []struct {
		name    string
		gallons string
		wantErr bool
	}{
		{"zero", "0", true},
		{"negative", "-1", true},
		{"not a number", "lots", true},
		{"too many places", "5.1234", true},
		{"too many digits", "1234", true},
		{"positive", "5", false},
		{"three places", "12.345", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := EntryInputFromForm(models.KindGasPurchase, gasForm(tt.gallons, "3.50"))
			entry, fe := in.Validate(time.UTC, []models.Car{ownedCar})
			if tt.wantErr {
				assert.Nil(t, entry)
				assert.Contains(t, fe, "gallons")
			} else {
				assert.Empty(t, fe)
				assert.NotNil(t, entry)
			}
		})
	}
}

func TestGasPurchaseTotalCostIsExact(t *testing.T) {
	in := EntryInputFromForm(models.KindGasPurchase, gasForm("5", "3.50"))
	entry, fe := in.Validate(time.UTC, []models.Car{ownedCar})
	require.Empty(t, fe)

	p, ok := entry.(*models.GasPurchase)
	require.True(t, ok)
	assert.Equal(t, "17.5", p.TotalCost().String())
	assert.True(t, decimal.RequireFromString("17.50").Equal(p.TotalCost()))
	assert.Equal(t, "17.50", p.TotalCost().StringFixed(2))
}

func TestGasPurchaseCopiesCarOwner(t *testing.T) {
	in := EntryInputFromForm(models.KindGasPurchase, gasForm("10", "3.199"))
	entry, fe := in.Validate(time.UTC, []models.Car{ownedCar})
	require.Empty(t, fe)

	base := entry.Base()
	assert.Equal(t, ownedCar.OwnerID, base.OwnerID)
	assert.True(t, base.CarID.Valid)
	assert.Equal(t, ownedCar.ID, base.CarID.UUID)
	assert.Equal(t, time.Date(2024, 6, 1, 9, 30, 0, 0, time.UTC), base.Datetime)
}

func TestEntryRejectsForeignVehicle(t *testing.T) {
	v := gasForm("10", "3.00")
	v.Set("vehicle", uuid.NewString())

	_, fe := EntryInputFromForm(models.KindGasPurchase, v).Validate(time.UTC, []models.Car{ownedCar})
	assert.Equal(t, "Select a valid choice.", fe["vehicle"])
}

func TestDatetimeUsesUserTimezone(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skip("timezone database not available")
	}
	entry, fe := EntryInputFromForm(models.KindGasPurchase, gasForm("10", "3.00")).Validate(loc, []models.Car{ownedCar})
	require.Empty(t, fe)
	assert.Equal(t, time.Date(2024, 6, 1, 13, 30, 0, 0, time.UTC), entry.Base().Datetime)
}

func TestMaintenanceAndToll(t *testing.T) {
	maint := url.Values{
		"vehicle":          {ownedCar.ID.String()},
		"datetime":         {"2024-06-02T10:00"},
		"odometer_reading": {"-5"},
		"description":      {""},
		"cost":             {"-0.01"},
	}
	_, fe := EntryInputFromForm(models.KindMaintenance, maint).Validate(time.UTC, []models.Car{ownedCar})
	assert.Contains(t, fe, "odometer_reading")
	assert.Contains(t, fe, "description")
	assert.Contains(t, fe, "cost")

	toll := url.Values{
		"vehicle":     {ownedCar.ID.String()},
		"datetime":    {"2024-06-02T10:00"},
		"description": {"Bay Bridge"},
		"cost":        {"0"},
	}
	entry, fe := EntryInputFromForm(models.KindToll, toll).Validate(time.UTC, []models.Car{ownedCar})
	require.Empty(t, fe)
	assert.Equal(t, models.KindToll, entry.Kind())
	assert.True(t, entry.Cost().IsZero())
}

func TestEntryInputRoundTrip(t *testing.T) {
	original := EntryInputFromForm(models.KindMaintenance, url.Values{
		"vehicle":          {ownedCar.ID.String()},
		"datetime":         {"2024-06-02T10:00"},
		"odometer_reading": {"51000"},
		"description":      {"Oil change"},
		"cost":             {"45.00"},
	})
	entry, fe := original.Validate(time.UTC, []models.Car{ownedCar})
	require.Empty(t, fe)

	assert.Equal(t, original, EntryInputFromEntry(entry, time.UTC))
}

func TestCarInput(t *testing.T) {
	valid := url.Values{
		"make":          {"Subaru"},
		"model":         {"Outback"},
		"year":          {"2019"},
		"purchase_date": {"2019-04-12"},
		"vin":           {"4S4BSANC5K3200000"},
		"nickname":      {"   "},
	}

	car, fe := CarInputFromForm(valid).Validate()
	require.Empty(t, fe)
	assert.Nil(t, car.Nickname, "blank nickname is stored as absent")
	assert.True(t, car.PurchasePrice.IsZero())
	assert.Equal(t, "2019 Subaru Outback - 4S4BSANC5K3200000", car.String())

	valid.Set("nickname", "  Blue  ")
	valid.Set("purchase_price", "27999.99")
	car, fe = CarInputFromForm(valid).Validate()
	require.Empty(t, fe)
	require.NotNil(t, car.Nickname)
	assert.Equal(t, "Blue", car.String())
	assert.Equal(t, "27999.99", car.PurchasePrice.StringFixed(2))

	for _, year := range []string{"19", "20190", "year"} {
		bad := url.Values{}
		for k, v := range valid {
			bad[k] = v
		}
		bad.Set("year", year)
		_, fe = CarInputFromForm(bad).Validate()
		assert.Equal(t, "Enter a valid year", fe["year"], "year %q", year)
	}

	_, fe = CarInputFromForm(url.Values{}).Validate()
	for _, field := range []string{"make", "model", "year", "purchase_date", "vin"} {
		assert.Contains(t, fe, field)
	}
}

func TestFieldErrorsError(t *testing.T) {
	fe := FieldErrors{}
	fe.Add("year", "Enter a valid year")
	fe.Add("make", msgRequired)
	fe.Add("make", "ignored")

	assert.Equal(t, "invalid input: make: This field is required.; year: Enter a valid year", fe.Error())
}
