// Package forms holds the input schema of every create/update operation.
// Inputs carry the raw submitted strings so a rejected form can be shown
// again exactly as typed; Validate turns them into model values.
package forms

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

const (
	// DateLayout is the layout of <input type="date"> values.
	DateLayout = "2006-01-02"
	// DatetimeLayout is the layout of <input type="datetime-local"> values.
	DatetimeLayout = "2006-01-02T15:04"

	msgRequired = "This field is required."
)

var yearPattern = regexp.MustCompile(`^\d{4}$`)

// FieldErrors maps a form field name to its validation message.
type FieldErrors map[string]string

// Add records msg for field unless the field already has an error.
func (fe FieldErrors) Add(field, msg string) {
	if _, ok := fe[field]; !ok {
		fe[field] = msg
	}
}

// Any reports whether any field failed validation.
func (fe FieldErrors) Any() bool { return len(fe) > 0 }

func (fe FieldErrors) Error() string {
	fields := make([]string, 0, len(fe))
	for f := range fe {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, f+": "+fe[f])
	}
	return "invalid input: " + strings.Join(parts, "; ")
}

// decimalField describes the precision of a stored decimal column.
type decimalField struct {
	maxDigits int32
	places    int32
	positive  bool
}

var (
	priceField   = decimalField{maxDigits: 9, places: 2}
	costField    = decimalField{maxDigits: 10, places: 2}
	gallonsField = decimalField{maxDigits: 6, places: 3, positive: true}
)

func (f decimalField) parse(fe FieldErrors, name, raw string) decimal.Decimal {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		fe.Add(name, msgRequired)
		return decimal.Zero
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		fe.Add(name, "Enter a number.")
		return decimal.Zero
	}
	switch {
	case f.positive && !d.IsPositive():
		fe.Add(name, "Ensure this value is greater than 0.")
	case d.IsNegative():
		fe.Add(name, "Ensure this value is greater than or equal to 0.")
	case -d.Exponent() > f.places:
		fe.Add(name, fmt.Sprintf("Ensure that there are no more than %d decimal places.", f.places))
	case integerDigits(d) > f.maxDigits-f.places:
		fe.Add(name, fmt.Sprintf("Ensure that there are no more than %d digits before the decimal point.", f.maxDigits-f.places))
	}
	return d
}

func integerDigits(d decimal.Decimal) int32 {
	whole := d.Abs().Truncate(0)
	if whole.IsZero() {
		return 0
	}
	return int32(len(whole.String()))
}

func parseOdometer(fe FieldErrors, name, raw string) int64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		fe.Add(name, msgRequired)
		return 0
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		fe.Add(name, "Enter a whole number.")
		return 0
	}
	if n < 0 {
		fe.Add(name, "Ensure this value is greater than or equal to 0.")
	}
	return n
}

func parseText(fe FieldErrors, name, raw string, maxLen int) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		fe.Add(name, msgRequired)
		return ""
	}
	if maxLen > 0 && utf8.RuneCountInString(s) > maxLen {
		fe.Add(name, fmt.Sprintf("Ensure this value has at most %d characters.", maxLen))
	}
	return s
}

func parseDate(fe FieldErrors, name, raw string) time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		fe.Add(name, msgRequired)
		return time.Time{}
	}
	t, err := time.Parse(DateLayout, raw)
	if err != nil {
		fe.Add(name, "Enter a valid date.")
	}
	return t
}

func parseDatetime(fe FieldErrors, name, raw string, loc *time.Location) time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		fe.Add(name, msgRequired)
		return time.Time{}
	}
	if loc == nil {
		loc = time.UTC
	}
	for _, layout := range []string{DatetimeLayout, "2006-01-02T15:04:05", "2006-01-02 15:04"} {
		if t, err := time.ParseInLocation(layout, raw, loc); err == nil {
			return t.UTC()
		}
	}
	fe.Add(name, "Enter a valid date/time.")
	return time.Time{}
}
