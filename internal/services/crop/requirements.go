package crop

import "strings"

// Range è [min, max]; in JSON un array di due elementi.
type Range [2]float64

type Requirements struct {
	TemperatureRange Range  `json:"temperature_range"`
	HumidityRange    Range  `json:"humidity_range"`
	PHRange          Range  `json:"ph_range"`
	RainfallRange    Range  `json:"rainfall_range"`
	Description      string `json:"description"`
}

var requirements = map[string]Requirements{
	"rice": {
		TemperatureRange: Range{20, 35},
		HumidityRange:    Range{70, 90},
		PHRange:          Range{5.5, 7.0},
		RainfallRange:    Range{150, 300},
		Description:      "Requires high water and humidity",
	},
	"wheat": {
		TemperatureRange: Range{15, 25},
		HumidityRange:    Range{50, 70},
		PHRange:          Range{6.0, 7.5},
		RainfallRange:    Range{50, 150},
		Description:      "Moderate climate requirements",
	},
	"cotton": {
		TemperatureRange: Range{25, 35},
		HumidityRange:    Range{60, 80},
		PHRange:          Range{5.8, 7.0},
		RainfallRange:    Range{100, 200},
		Description:      "Warm climate with moderate rainfall",
	},
	"maize": {
		TemperatureRange: Range{18, 32},
		HumidityRange:    Range{50, 80},
		PHRange:          Range{5.5, 7.5},
		RainfallRange:    Range{80, 200},
		Description:      "Adaptable to various conditions",
	},
}

var defaultRequirements = Requirements{
	TemperatureRange: Range{15, 35},
	HumidityRange:    Range{40, 90},
	PHRange:          Range{5.5, 8.0},
	RainfallRange:    Range{50, 300},
	Description:      "General crop requirements",
}

// RequirementsFor is case-insensitive; unknown crops get the general table.
func RequirementsFor(crop string) Requirements {
	if r, ok := requirements[strings.ToLower(strings.TrimSpace(crop))]; ok {
		return r
	}
	return defaultRequirements
}
