package forms

import (
	"net/url"
	"strings"
	"unicode/utf8"

	"gas-tracker/internal/models"
)

// CarInput is the add-car and car-update form.
type CarInput struct {
	Make          string
	Model         string
	Year          string
	PurchaseDate  string
	PurchasePrice string
	VIN           string
	Nickname      string
}

// CarInputFromForm reads a submitted car form.
func CarInputFromForm(v url.Values) CarInput {
	return CarInput{
		Make:          v.Get("make"),
		Model:         v.Get("model"),
		Year:          v.Get("year"),
		PurchaseDate:  v.Get("purchase_date"),
		PurchasePrice: v.Get("purchase_price"),
		VIN:           v.Get("vin"),
		Nickname:      v.Get("nickname"),
	}
}

// CarInputFromCar pre-fills the form with a stored car.
func CarInputFromCar(c models.Car) CarInput {
	in := CarInput{
		Make:          c.Make,
		Model:         c.Model,
		Year:          c.Year,
		PurchaseDate:  c.PurchaseDate.Format(DateLayout),
		PurchasePrice: c.PurchasePrice.StringFixed(2),
		VIN:           c.VIN,
	}
	if c.Nickname != nil {
		in.Nickname = *c.Nickname
	}
	return in
}

// Validate returns the car described by the form. ID and owner are left for
// the caller to set.
func (in CarInput) Validate() (models.Car, FieldErrors) {
	fe := FieldErrors{}
	car := models.Car{
		Make:         parseText(fe, "make", in.Make, 30),
		Model:        parseText(fe, "model", in.Model, 30),
		PurchaseDate: parseDate(fe, "purchase_date", in.PurchaseDate),
		VIN:          parseText(fe, "vin", in.VIN, 17),
	}

	year := strings.TrimSpace(in.Year)
	if year == "" {
		fe.Add("year", msgRequired)
	} else if !yearPattern.MatchString(year) {
		fe.Add("year", "Enter a valid year")
	}
	car.Year = year

	// Purchase price is optional on the add form and defaults to zero.
	if strings.TrimSpace(in.PurchasePrice) != "" {
		car.PurchasePrice = priceField.parse(fe, "purchase_price", in.PurchasePrice)
	}

	if nick := strings.TrimSpace(in.Nickname); nick != "" {
		if utf8.RuneCountInString(nick) > 90 {
			fe.Add("nickname", "Ensure this value has at most 90 characters.")
		}
		car.Nickname = &nick
	}

	if fe.Any() {
		return models.Car{}, fe
	}
	return car, nil
}
