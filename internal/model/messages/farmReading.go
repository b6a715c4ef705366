package messages

import "time"

// FarmReading è pubblicato dal farm-simulator (o da un gateway di campo) su
// farm/readings/<farm>. Gli usi sono incrementali dall'ultima lettura.
type FarmReading struct {
	FarmID         string    `json:"farm_id"`
	AreaHa         float64   `json:"farm_area"`
	FertilizerUsed float64   `json:"fertilizer_used"` // t
	PesticideUsed  float64   `json:"pesticide_used"`  // kg
	WaterUsage     float64   `json:"water_usage"`     // m³
	Yield          float64   `json:"yield"`           // t, stima cumulativa
	Timestamp      time.Time `json:"timestamp"`
}
