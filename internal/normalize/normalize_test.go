package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getpulpo/fleet-importer/internal/model"
)

func TestString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		cell   string
		want   string
		wantOK bool
	}{
		{"  hello  ", "hello", true},
		{"", "", false},
		{"   ", "", false},
		{"NaN", "", false},
		{"nan", "", false},
		{"0", "0", true},
	}
	for _, tt := range tests {
		got, ok := String(tt.cell)
		assert.Equal(t, tt.wantOK, ok, "cell %q", tt.cell)
		assert.Equal(t, tt.want, got, "cell %q", tt.cell)
	}
}

func TestNumber(t *testing.T) {
	t.Parallel()

	tests := []struct {
		cell   string
		want   float64
		wantOK bool
	}{
		{"1234.56", 1234.56, true},
		{"1.234,56", 1234.56, true},
		{"1,234.56", 1234.56, true},
		{"1.234.567", 1234567, true},
		{"12,5", 12.5, true},
		{"-42", -42, true},
		{"120,00 €", 120, true},
		{"$99.90", 99.9, true},
		{"", 0, false},
		{"NaN", 0, false},
		{"abc", 0, false},
	}
	for _, tt := range tests {
		got, ok := Number(tt.cell)
		assert.Equal(t, tt.wantOK, ok, "cell %q", tt.cell)
		if tt.wantOK {
			assert.InDelta(t, tt.want, got, 1e-9, "cell %q", tt.cell)
		}
	}
}

func TestRequiredFields(t *testing.T) {
	t.Parallel()

	row := model.RawRow{Index: 3, Cells: map[string]string{
		"Subtotal": "100,50",
		"Nombre":   "  ITV  ",
		"Vacio":    "   ",
	}}

	s, err := RequiredString(row, "Nombre")
	require.NoError(t, err)
	assert.Equal(t, "ITV", s)

	_, err = RequiredString(row, "Vacio")
	var normErr *model.NormalizationError
	require.ErrorAs(t, err, &normErr)
	assert.Equal(t, "Vacio", normErr.Field)

	f, err := RequiredNumber(row, "Subtotal")
	require.NoError(t, err)
	assert.InDelta(t, 100.5, f, 1e-9)

	_, err = RequiredNumber(row, "Missing")
	require.ErrorAs(t, err, &normErr)
}

func TestBool(t *testing.T) {
	t.Parallel()

	for _, cell := range []string{"Si", "sí", "TRUE", "1", "y"} {
		assert.True(t, Bool(cell), "cell %q", cell)
	}
	for _, cell := range []string{"", "No", "0", "false", "NaN"} {
		assert.False(t, Bool(cell), "cell %q", cell)
	}
}

func TestDate(t *testing.T) {
	t.Parallel()

	dates, err := NewDates("Europe/Madrid")
	require.NoError(t, err)

	t.Run("civil date converts to UTC", func(t *testing.T) {
		t.Parallel()
		// Madrid is UTC+1 in January.
		got, ok := dates.Date("15/01/2025", "")
		require.True(t, ok)
		assert.Equal(t, "2025-01-14T23:00:00.000Z", got)
	})

	t.Run("time of day applies", func(t *testing.T) {
		t.Parallel()
		got, ok := dates.Date("15/01/2025", "14:30")
		require.True(t, ok)
		assert.Equal(t, "2025-01-15T13:30:00.000Z", got)
	})

	t.Run("compact feed formats", func(t *testing.T) {
		t.Parallel()
		got, ok := dates.Date("20250115", "1430")
		require.True(t, ok)
		assert.Equal(t, "2025-01-15T13:30:00.000Z", got)
	})

	t.Run("iso dates are idempotent", func(t *testing.T) {
		t.Parallel()
		first, ok := dates.Date("15/01/2025", "14:30")
		require.True(t, ok)
		second, ok := dates.Date(first, "")
		require.True(t, ok)
		assert.Equal(t, first, second)
	})

	t.Run("summer time offset", func(t *testing.T) {
		t.Parallel()
		// Madrid is UTC+2 in July.
		got, ok := dates.Date("2025-07-01", "12:00")
		require.True(t, ok)
		assert.Equal(t, "2025-07-01T10:00:00.000Z", got)
	})

	t.Run("absent and garbage cells", func(t *testing.T) {
		t.Parallel()
		_, ok := dates.Date("", "")
		assert.False(t, ok)
		_, ok = dates.Date("NaN", "")
		assert.False(t, ok)
		_, ok = dates.Date("not a date", "")
		assert.False(t, ok)
	})

	t.Run("required date errors carry the field", func(t *testing.T) {
		t.Parallel()
		row := model.RawRow{Cells: map[string]string{"Fecha": "oops"}}
		_, err := dates.RequiredDate(row, "Fecha", "")
		var normErr *model.NormalizationError
		require.ErrorAs(t, err, &normErr)
		assert.Equal(t, "Fecha", normErr.Field)
	})
}

func TestParseClock(t *testing.T) {
	t.Parallel()

	tests := []struct {
		cell   string
		hh, mm int
		wantOK bool
	}{
		{"14:30", 14, 30, true},
		{"0805", 8, 5, true},
		{"23:59", 23, 59, true},
		{"24:00", 0, 0, false},
		{"12:60", 0, 0, false},
		{"9", 0, 0, false},
		{"", 0, 0, false},
	}
	for _, tt := range tests {
		hh, mm, ok := parseClock(tt.cell)
		assert.Equal(t, tt.wantOK, ok, "cell %q", tt.cell)
		if tt.wantOK {
			assert.Equal(t, tt.hh, hh, "cell %q", tt.cell)
			assert.Equal(t, tt.mm, mm, "cell %q", tt.cell)
		}
	}
}
