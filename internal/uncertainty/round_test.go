package uncertainty

import (
	"errors"
	"testing"

	"github.com/cockroachdb/apd/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(t *testing.T, s string) *apd.Decimal {
	t.Helper()
	d, err := Parse(s)
	require.NoError(t, err)
	return d
}

func TestRoundToUncertainty(t *testing.T) {
	tests := []struct {
		name        string
		value       string
		uncertainty string
		want        string
		places      int32
		multiple    string
	}{
		{"leading digit two keeps two digits", "291.9878225987628", "0.02595339539885377778", "291.988", 3, ""},
		{"leading digit five keeps one digit", "291.9878225987628", "0.595", "292.0", 1, ""},
		{"leading digit one", "3.14159", "0.0123", "3.142", 3, ""},
		{"leading digit three", "3.14159", "0.0312", "3.14", 2, ""},
		{"exact power of ten", "7.77777", "0.01", "7.778", 3, ""},
		{"just below one", "12.345", "0.99", "12.3", 1, ""},
		{"uncertainty above ten", "291.9878225987628", "11.32595339539885377778", "292", 0, "1"},
		{"uncertainty one", "291.9878225987628", "1", "292.0", 0, "0.1"},
		{"uncertainty below three", "291.9878225987628", "2.9", "292.0", 0, "0.1"},
		{"uncertainty three", "291.9878225987628", "3", "292", 0, "1"},
		{"hundreds with leading one", "1234.5", "150.05", "1230", 0, "10"},
		{"hundreds with leading five", "1234.5", "500.05", "1200", 0, "100"},
		{"half rounds away from zero", "2.45", "0.5", "2.5", 1, ""},
		{"negative half rounds away from zero", "-2.45", "0.5", "-2.5", 1, ""},
		{"value rounds to zero", "4", "500", "0", 0, "100"},
		{"value beyond the working precision", "1e40", "0.5", "10000000000000000000000000000000000000000.0", 1, ""},
		{"uncertainty far below the working precision", "5", "1e-40", "5.00000000000000000000000000000000000000000", 41, ""},
		{"long integer value", "123456789012345678901234567890123456789012345", "5", "123456789012345678901234567890123456789012345", 0, "1"},
		{"long integer uncertainty with leading two", "2999999999999999999999999999999999999999", "2999999999999999999999999999999999999999", "3000000000000000000000000000000000000000", 0, "100000000000000000000000000000000000000"},
		{"uncertainty longer than the working precision", "0.029999999999999999999999999999999999999999", "0.029999999999999999999999999999999999999999", "0.030", 3, ""},
		{"nines longer than the working precision", "0.09999999999999999999999999999999999999999", "0.09999999999999999999999999999999999999999", "0.10", 2, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := RoundToUncertainty(dec(t, tt.value), dec(t, tt.uncertainty))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
			assert.Equal(t, tt.places, got.Places)
			if tt.multiple == "" {
				assert.Nil(t, got.Multiple)
			} else {
				require.NotNil(t, got.Multiple)
				assert.Equal(t, tt.multiple, got.Multiple.Text('f'))
			}
		})
	}
}

func TestRoundToUncertainty_Invalid(t *testing.T) {
	value := dec(t, "1.5")

	for _, u := range []string{"0", "-0.1", "NaN", "Infinity", "-Infinity"} {
		_, err := RoundToUncertainty(value, dec(t, u))
		assert.True(t, errors.Is(err, ErrInvalidUncertainty), "uncertainty %s", u)
	}
	_, err := RoundToUncertainty(value, nil)
	assert.True(t, errors.Is(err, ErrInvalidUncertainty))

	_, err = RoundToUncertainty(dec(t, "NaN"), dec(t, "0.1"))
	assert.True(t, errors.Is(err, ErrInvalidValue))
	_, err = RoundToUncertainty(nil, dec(t, "0.1"))
	assert.True(t, errors.Is(err, ErrInvalidValue))
}

func TestRoundUncertainty(t *testing.T) {
	got, err := RoundUncertainty(dec(t, "0.02595339539885377778"))
	require.NoError(t, err)
	assert.Equal(t, "0.026", got.String())

	got, err = RoundUncertainty(dec(t, "0.4444"))
	require.NoError(t, err)
	assert.Equal(t, "0.4", got.String())

	got, err = RoundUncertainty(dec(t, "11.32595339539885377778"))
	require.NoError(t, err)
	assert.Equal(t, "11", got.String())
}

func TestSignificantIndex(t *testing.T) {
	tests := map[string]int32{
		"0.3259":  1,
		"0.00595": 3,
		"0.1":     1,
		"0.01":    2,
		"0.0999":  2,
		"0.9999":  1,
		"1e-40":   40,
		"0.09999999999999999999999999999999999999999": 2,
	}
	for in, want := range tests {
		got, err := SignificantIndex(dec(t, in))
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := SignificantIndex(dec(t, "1.5"))
	assert.True(t, errors.Is(err, ErrInvalidUncertainty))
}

func TestGenericRounding(t *testing.T) {
	tests := []struct {
		value string
		want  string
	}{
		{"1.23456", "1.235"},
		{"1.5", "1.500"},
		{"-1.2", "-1.200"},
		{"1.50001", "1.50"},
		{"9.999", "10.00"},
		{"42.25", "42.3"},
		{"100", "100.0"},
		{"100.5", "101"},
		{"-1234.5", "-1235"},
	}
	for _, tt := range tests {
		got, err := GenericRounding(dec(t, tt.value))
		require.NoError(t, err, tt.value)
		assert.Equal(t, tt.want, got.String(), tt.value)
	}

	_, err := GenericRounding(dec(t, "Infinity"))
	assert.True(t, errors.Is(err, ErrInvalidValue))
}

func TestNewCalculator(t *testing.T) {
	assert.Equal(t, uint32(DefaultPrecision), NewCalculator(0).Precision())

	c := NewCalculator(50)
	assert.Equal(t, uint32(50), c.Precision())
	got, err := c.RoundToUncertainty(dec(t, "291.9878225987628"), dec(t, "0.02595339539885377778"))
	require.NoError(t, err)
	assert.Equal(t, "291.988", got.String())
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "0.000", Format(dec(t, "-0.000")))
	assert.Equal(t, "0", Format(apd.New(0, 2)))
	assert.Equal(t, "290", Format(apd.New(29, 1)))
	assert.Equal(t, "", Format(nil))
}
