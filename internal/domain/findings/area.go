package findings

import "strings"

// Area identifies the scientific discipline of a test. Catalog entries carry a
// free-text area string; it is normalized to an Area once at the boundary so
// the rest of the package can dispatch on a closed enum.
type Area string

const (
	AreaUnknown        Area = ""
	AreaNematology     Area = "nematology"
	AreaVirology       Area = "virology"
	AreaBacteriology   Area = "bacteriology"
	AreaPhytopathology Area = "phytopathology"
	AreaEarlyDetection Area = "early_detection"
)

// ClassifyArea maps a raw catalog area string to an Area using
// case-insensitive substring matching. Unmatched strings classify as
// AreaUnknown, which routes to the free-form findings fallback.
func ClassifyArea(raw string) Area {
	s := strings.ToLower(raw)
	switch {
	case strings.Contains(s, "nematolog"):
		return AreaNematology
	case strings.Contains(s, "virolog"):
		return AreaVirology
	case strings.Contains(s, "bacteriolog"):
		return AreaBacteriology
	case strings.Contains(s, "fitopatolog"):
		return AreaPhytopathology
	case strings.Contains(s, "deteccion"), strings.Contains(s, "precoz"):
		return AreaEarlyDetection
	default:
		return AreaUnknown
	}
}
