package uncertainty

import (
	"fmt"

	"github.com/cockroachdb/apd/v3"
)

var (
	oneAndHalf = apd.New(15, -1)
	hundred    = apd.New(100, 0)
)

// GenericRounding rounds a value that is shown without an uncertainty.
func GenericRounding(value *apd.Decimal) (Rounded, error) {
	return defaultCalculator.GenericRounding(value)
}

// GenericRounding picks the number of decimal places from the magnitude of
// value: 3 up to 1.5, 2 below 10, 1 up to 100 and none above.
func (c *Calculator) GenericRounding(value *apd.Decimal) (Rounded, error) {
	if !finite(value) {
		return Rounded{}, fmt.Errorf("%w: %s", ErrInvalidValue, describe(value))
	}

	abs := new(apd.Decimal).Abs(value)

	var places int32
	switch {
	case abs.Cmp(oneAndHalf) <= 0:
		places = 3
	case abs.Cmp(ten) < 0:
		places = 2
	case abs.Cmp(hundred) <= 0:
		places = 1
	default:
		places = 0
	}

	rounded, err := c.Round(value, places)
	if err != nil {
		return Rounded{}, err
	}
	return Rounded{Value: rounded, Places: places}, nil
}
