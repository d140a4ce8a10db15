// Package spacing resolves the physical pixel spacing of an image and tags it
// with the unit describing how far it can be trusted.
package spacing

// CalibrationSource supplies manual calibration state by image ID.
type CalibrationSource interface {
	State(imageID string) (Calibration, bool)
}

// Resolver resolves pixel spacing for image descriptors.
type Resolver struct {
	calibrations CalibrationSource
	ultrasound   UltrasoundResolver
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithCalibrations makes stored calibrations override the descriptor's own state.
func WithCalibrations(src CalibrationSource) Option {
	return func(r *Resolver) {
		r.calibrations = src
	}
}

// WithUltrasound replaces the default ultrasound region resolver.
func WithUltrasound(u UltrasoundResolver) Option {
	return func(r *Resolver) {
		if u != nil {
			r.ultrasound = u
		}
	}
}

// NewResolver creates a resolver using RegionResolver for ultrasound images.
func NewResolver(opts ...Option) *Resolver {
	r := &Resolver{ultrasound: RegionResolver{}}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

var defaultResolver = NewResolver()

// Resolve resolves d with a resolver that has no calibration store.
func Resolve(d Descriptor, h *Handles) Result {
	return defaultResolver.Resolve(d, h)
}

// Resolve returns the spacing and unit of d. Handles are only needed for
// ultrasound images and may be nil. The result is scaled to the displayed
// dimensions when they differ from the stored ones. Resolve never fails;
// missing metadata yields a less trusted unit.
func (r *Resolver) Resolve(d Descriptor, h *Handles) Result {
	d = r.applyCalibration(d)

	var res Result
	switch {
	case h != nil && len(d.UltrasoundRegions) > 0:
		res = ultrasoundSpacing(r.ultrasound, d.UltrasoundRegions, *h)
	case d.Plane != nil && IsProjection(d.Plane.SOPClassUID):
		res = ProjectionSpacing(*d.Plane)
	case d.Plane != nil:
		res = planeSpacing(*d.Plane, PathPlane)
	default:
		res = planeSpacing(d.Image, PathImage)
	}

	return Rescale(res, d.Stored, d.Displayed)
}

func (r *Resolver) applyCalibration(d Descriptor) Descriptor {
	if r.calibrations == nil || d.ImageID == "" {
		return d
	}
	state, ok := r.calibrations.State(d.ImageID)
	if !ok {
		return d
	}

	if d.Plane != nil {
		p := *d.Plane
		p.Calibration = state
		d.Plane = &p
	}
	d.Image.Calibration = state
	return d
}
