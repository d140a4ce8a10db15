package spacing

// SOPClass is a DICOM storage SOP class.
type SOPClass struct {
	Name string
	UID  string
}

// ProjectionRadiographClasses are the storage classes whose pixel spacing follows
// the projection radiograph rules (DICOM PS3.3 section 10.7.1).
var ProjectionRadiographClasses = []SOPClass{
	{"ComputedRadiographyImageStorage", "1.2.840.10008.5.1.4.1.1.1"},
	{"DigitalXRayImagePresentationStorage", "1.2.840.10008.5.1.4.1.1.1.1"},
	{"DigitalMammographyXRayImagePresentationStorage", "1.2.840.10008.5.1.4.1.1.1.2"},
	{"DigitalMammographyXRayImageProcessingStorage", "1.2.840.10008.5.1.4.1.1.1.2.1"},
	{"DigitalIntraOralXRayImagePresentationStorage", "1.2.840.10008.5.1.4.1.1.1.3"},
	{"DigitalIntraOralXRayImageProcessingStorage", "1.2.840.10008.5.1.4.1.1.1.3.1"},
	{"XRayAngiographicImageStorage", "1.2.840.10008.5.1.4.1.1.12.1"},
	{"EnhancedXAImageStorage", "1.2.840.10008.5.1.4.1.1.12.1.1"},
	{"XRayRadiofluoroscopicImageStorage", "1.2.840.10008.5.1.4.1.1.12.2"},
	{"EnhancedXRFImageStorage", "1.2.840.10008.5.1.4.1.1.12.2.1"},
}

var projectionUIDs = func() map[string]struct{} {
	m := make(map[string]struct{}, len(ProjectionRadiographClasses))
	for _, c := range ProjectionRadiographClasses {
		m[c.UID] = struct{}{}
	}
	return m
}()

// IsProjection reports whether uid is a projection radiograph storage class.
func IsProjection(uid string) bool {
	_, ok := projectionUIDs[uid]
	return ok
}
