package units

// Classify decides the unit of a resolved spacing.
//
// The first matching rule wins:
//  1. a calibration factor is present: MMManual
//  2. the calibration was reset: Pixel when the reset undid the first
//     calibration, MMManual when an earlier calibration still influences it
//  3. base when pixel spacing is present, Pixel otherwise
//
// Most callers pass MM as base; the projection radiograph cases pass their
// own base unit so that a calibration can still override it.
func Classify(hasPixelSpacing, hasCalibrationFactor, calibrationReset, isFirstCalibration bool, base Unit) Unit {
	if hasCalibrationFactor {
		return MMManual
	}

	if calibrationReset {
		if isFirstCalibration {
			return Pixel
		}
		return MMManual
	}

	if hasPixelSpacing {
		return base
	}
	return Pixel
}
