// Package normalize coerces raw spreadsheet cell values into canonical
// scalars. Blank, whitespace-only, and NaN cells are uniformly absent;
// numbers lose their currency symbols and locale separators; civil dates
// become UTC ISO-8601 instants.
package normalize

import (
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/getpulpo/fleet-importer/internal/model"
)

// ISO8601Millis is the wire format for every date the importer submits.
const ISO8601Millis = "2006-01-02T15:04:05.000Z"

// dateLayouts are the accepted civil date formats, tried in order.
// The compact layout comes from the fuel feed (FEC_OPERAC).
var dateLayouts = []string{
	"02/01/2006",
	"2006-01-02",
	"20060102",
}

// String trims the cell and reports whether a value is present. "NaN" and
// "nan" literals leak out of spreadsheet tooling and count as absent.
func String(cell string) (string, bool) {
	s := strings.TrimSpace(cell)
	if s == "" || strings.EqualFold(s, "nan") {
		return "", false
	}
	return s, true
}

// RequiredString returns the trimmed cell or a NormalizationError when the
// value is absent.
func RequiredString(row model.RawRow, field string) (string, error) {
	s, ok := String(row.Cells[field])
	if !ok {
		return "", &model.NormalizationError{Field: field, Reason: "required value is missing"}
	}
	return s, nil
}

// Number parses a locale-formatted numeric cell. Currency symbols and
// spaces are stripped; "1.234,56" and "1,234.56" both parse. An absent or
// unparseable value reports ok=false, never zero.
func Number(cell string) (float64, bool) {
	s, ok := String(cell)
	if !ok {
		return 0, false
	}

	s = strings.NewReplacer("€", "", "$", "", " ", "", " ", "").Replace(s)

	lastComma := strings.LastIndex(s, ",")
	lastDot := strings.LastIndex(s, ".")
	switch {
	case lastComma >= 0 && lastDot >= 0:
		// The rightmost separator is the decimal mark.
		if lastComma > lastDot {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case lastComma >= 0:
		if strings.Count(s, ",") > 1 {
			s = strings.ReplaceAll(s, ",", "")
		} else {
			s = strings.Replace(s, ",", ".", 1)
		}
	case strings.Count(s, ".") > 1:
		s = strings.ReplaceAll(s, ".", "")
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// RequiredNumber parses a numeric cell or fails with a NormalizationError.
func RequiredNumber(row model.RawRow, field string) (float64, error) {
	f, ok := Number(row.Cells[field])
	if !ok {
		return 0, &model.NormalizationError{Field: field, Reason: "required numeric value is missing or unparseable"}
	}
	return f, nil
}

// NumberOr parses a numeric cell, returning def when absent or unparseable.
// Only callers with a documented default use this.
func NumberOr(cell string, def float64) float64 {
	if f, ok := Number(cell); ok {
		return f
	}
	return def
}

// Bool interprets the affirmative spellings found in the source sheets.
func Bool(cell string) bool {
	s, ok := String(cell)
	if !ok {
		return false
	}
	switch strings.ToLower(s) {
	case "true", "1", "si", "sí", "s", "yes", "y":
		return true
	}
	return false
}

// Dates converts civil timestamps from a fixed source timezone to UTC.
type Dates struct {
	loc *time.Location
}

// NewDates resolves the source civil timezone (e.g. "Europe/Madrid").
func NewDates(timezone string) (*Dates, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, eris.Wrapf(err, "normalize: load timezone %s", timezone)
	}
	return &Dates{loc: loc}, nil
}

// Date parses a civil date cell with an optional HH:MM time-of-day cell and
// returns the UTC instant serialized as ISO-8601 with millisecond
// precision. An already-ISO-8601 UTC value passes through unchanged
// (re-serialized), making normalization idempotent.
func (d *Dates) Date(dateCell, timeCell string) (string, bool) {
	ds, ok := String(dateCell)
	if !ok {
		return "", false
	}

	// Already normalized? Keep the same instant.
	if t, err := time.Parse(time.RFC3339, ds); err == nil {
		return t.UTC().Format(ISO8601Millis), true
	}

	var civil time.Time
	parsed := false
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, ds, d.loc); err == nil {
			civil = t
			parsed = true
			break
		}
	}
	if !parsed {
		return "", false
	}

	if hh, mm, ok := parseClock(timeCell); ok {
		civil = time.Date(civil.Year(), civil.Month(), civil.Day(), hh, mm, 0, 0, d.loc)
	}

	return civil.UTC().Format(ISO8601Millis), true
}

// RequiredDate is Date with a NormalizationError on absence or parse failure.
func (d *Dates) RequiredDate(row model.RawRow, dateField, timeField string) (string, error) {
	timeCell := ""
	if timeField != "" {
		timeCell = row.Cells[timeField]
	}
	iso, ok := d.Date(row.Cells[dateField], timeCell)
	if !ok {
		return "", &model.NormalizationError{Field: dateField, Reason: "required date is missing or unparseable"}
	}
	return iso, nil
}

// parseClock accepts "HH:MM" and the fuel feed's compact "HHMM".
func parseClock(cell string) (int, int, bool) {
	s, ok := String(cell)
	if !ok {
		return 0, 0, false
	}

	var hh, mm int
	var err error
	if h, m, found := strings.Cut(s, ":"); found {
		hh, err = strconv.Atoi(h)
		if err != nil {
			return 0, 0, false
		}
		mm, err = strconv.Atoi(m)
		if err != nil {
			return 0, 0, false
		}
	} else if len(s) == 4 {
		hh, _ = strconv.Atoi(s[:2])
		mm, err = strconv.Atoi(s[2:])
		if err != nil {
			return 0, 0, false
		}
	} else {
		return 0, 0, false
	}

	if hh < 0 || hh > 23 || mm < 0 || mm > 59 {
		return 0, 0, false
	}
	return hh, mm, true
}
