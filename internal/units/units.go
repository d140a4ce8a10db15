// Package units defines the closed set of spacing units and the rules that
// decide which unit a resolved pixel spacing is reported in.
//
// A unit is more than a suffix: it records how trustworthy the spacing is.
// From most to least trusted:
//
//	mm        spacing measured directly (plane geometry, ultrasound regions)
//	mm_man    spacing set or influenced by a manual calibration
//	mm_est    projection spacing corrected with an estimated magnification factor
//	mm_approx projection spacing corrected or calibrated at an unknown stage
//	mm_prj    projection spacing at the detector plane, magnification unknown
//	pix       no physical spacing available
package units

import (
	"fmt"
	"strings"
)

// Unit is the trust tag attached to a resolved pixel spacing.
type Unit int

const (
	// Pixel means no physical unit is available.
	Pixel Unit = iota
	// MMProjective is projection spacing with unknown magnification.
	MMProjective
	// MMApprox is spacing corrected or calibrated at some unknown stage.
	MMApprox
	// MMEstimated is spacing derived with an estimated magnification factor.
	MMEstimated
	// MMManual is spacing from a manual calibration.
	MMManual
	// MM is directly measured physical spacing.
	MM
)

// All lists every unit from most to least trusted.
var All = []Unit{MM, MMManual, MMEstimated, MMApprox, MMProjective, Pixel}

// String returns the wire name of the unit.
func (u Unit) String() string {
	switch u {
	case MM:
		return "mm"
	case MMManual:
		return "mm_man"
	case MMEstimated:
		return "mm_est"
	case MMApprox:
		return "mm_approx"
	case MMProjective:
		return "mm_prj"
	case Pixel:
		return "pix"
	default:
		return fmt.Sprintf("Unit(%d)", int(u))
	}
}

// Valid reports whether u is one of the defined units.
func (u Unit) Valid() bool {
	return u >= Pixel && u <= MM
}

// Trust returns the trust rank of the unit; higher is more trusted.
// Pixel has rank 0.
func (u Unit) Trust() int {
	if !u.Valid() {
		return -1
	}
	return int(u)
}

// Physical reports whether the unit describes a physical length.
func (u Unit) Physical() bool {
	return u.Valid() && u != Pixel
}

// MoreTrusted reports whether a is strictly more trusted than b.
func MoreTrusted(a, b Unit) bool {
	return a.Trust() > b.Trust()
}

// Parse converts a wire name like "mm_prj" into a Unit.
func Parse(s string) (Unit, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "mm":
		return MM, nil
	case "mm_man":
		return MMManual, nil
	case "mm_est":
		return MMEstimated, nil
	case "mm_approx":
		return MMApprox, nil
	case "mm_prj":
		return MMProjective, nil
	case "pix":
		return Pixel, nil
	default:
		return Pixel, fmt.Errorf("unknown unit %q", s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (u Unit) MarshalText() ([]byte, error) {
	if !u.Valid() {
		return nil, fmt.Errorf("invalid unit %d", int(u))
	}
	return []byte(u.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (u *Unit) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*u = parsed
	return nil
}
