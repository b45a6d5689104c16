package catalog

import "fmt"

// specKeys maps the verbose keys stored by the catalog to the internal
// attribute keys used by weight and scoring configuration.
var specKeys = map[string]string{
	"Rear-Facing Camera MP":  "camera",
	"Front-Facing Camera MP": "front_camera",
	"RAM Memory (GB)":        "ram",
	"Screen Size (inch)":     "screen",
	"Weight (g)":             "weight",
	"Resolution (ppi)":       "resolution",
	"ROM (GB)":               "storage",
	"Battery Capacity (mAh)": "battery",
	"Processor Brand":        "processor",
}

var rawKeys = func() map[string]string {
	m := make(map[string]string, len(specKeys))
	for raw, internal := range specKeys {
		m[internal] = raw
	}
	return m
}()

var displayNames = map[string]string{
	"processor":         "Processor",
	"battery":           "Battery (mAh)",
	"camera":            "Camera (MP)",
	"front_camera":      "Front Camera (MP)",
	"storage":           "Storage (GB)",
	"screen":            "Screen (inches)",
	"weight":            "Weight (g)",
	"ram":               "RAM (GB)",
	"resolution":        "Resolution (ppi)",
	"energy_efficiency": "Energy Rating",
	"capacity":          "Capacity (L)",
	"features":          "Features",
	"warranty":          "Warranty (years)",
	"power":             "Power (W)",
	"price":             "Price",
}

var categoryNames = map[string]string{
	"smartphones":     "Smartphones",
	"laptops":         "Laptops",
	"home_appliances": "Home Appliances",
	"airpod":          "Airpods",
}

// InternalKey returns the internal attribute key for a raw catalog key. Unmapped
// keys are returned verbatim.
func InternalKey(raw string) string {
	if k, ok := specKeys[raw]; ok {
		return k
	}
	return raw
}

// RawKey returns the catalog key mapped to an internal key.
func RawKey(internal string) (string, bool) {
	raw, ok := rawKeys[internal]
	return raw, ok
}

// DisplayName returns the label for an attribute key, raw or internal.
// Unknown keys are their own label.
func DisplayName(key string) string {
	if name, ok := displayNames[InternalKey(key)]; ok {
		return name
	}
	return key
}

// CategoryDisplayName returns the label for a category identifier.
func CategoryDisplayName(category string) string {
	if name, ok := categoryNames[category]; ok {
		return name
	}
	return category
}

// FormatValue renders an attribute value for a comparison table.
func FormatValue(key string, v Value) string {
	if v.IsMissing() {
		return "N/A"
	}
	s := v.String()
	switch InternalKey(key) {
	case "weight":
		return s + "g"
	case "ram", "storage":
		return s + " GB"
	case "screen":
		return fmt.Sprintf("%s\"", s)
	case "camera", "front_camera":
		return s + " MP"
	}
	return s
}
