package market

import "strings"

// etichette del dataset prezzi egiziano
var cropLabels = map[string][]string{
	"wheat":     {"Wheat (قمح)"},
	"rice":      {"Rice (أرز)"},
	"maize":     {"Maize (ذرة صفراء)"},
	"corn":      {"Maize (ذرة صفراء)"},
	"cotton":    {"Cotton (قطن)"},
	"potato":    {"Potato (بطاطس)"},
	"tomato":    {"Tomato (طماطم)"},
	"onion":     {"Onion (بصل)"},
	"sugarcane": {"Sugar Beet (بنجر السكر)"}, // proxy
	"barley":    {"Wheat (قمح)"},             // proxy
}

// Labels returns the dataset labels for a crop name. Unknown names are
// matched verbatim against the dataset.
func Labels(crop string) []string {
	if l, ok := cropLabels[normalize(crop)]; ok {
		return l
	}
	return []string{strings.TrimSpace(crop)}
}

// costo di produzione stimato, EGP per tonnellata
var productionCost = map[string]float64{
	"wheat":     3000,
	"rice":      4000,
	"maize":     3500,
	"cotton":    8000,
	"potato":    2500,
	"tomato":    3000,
	"sugarcane": 2000,
	"barley":    2800,
}

const defaultProductionCost = 3000

func ProductionCost(crop string) float64 {
	if c, ok := productionCost[normalize(crop)]; ok {
		return c
	}
	return defaultProductionCost
}

var fallbackPrices = map[string]float64{
	"wheat":  10000,
	"rice":   13000,
	"maize":  12000,
	"cotton": 20000,
	"potato": 6000,
	"tomato": 5000,
}

const defaultFallbackPrice = 8000

func FallbackPrice(crop string) float64 {
	if p, ok := fallbackPrices[normalize(crop)]; ok {
		return p
	}
	return defaultFallbackPrice
}

func normalize(crop string) string {
	return strings.ToLower(strings.TrimSpace(crop))
}
