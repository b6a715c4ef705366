package entities

// Analysis is one stored workflow run for a farm.
// Recommendations is kept as a JSON array in a TEXT column.
type Analysis struct {
	ID               int64   `db:"id" json:"id"`
	FarmID           int64   `db:"farm_id" json:"farm_id"`
	AnalysisType     string  `db:"analysis_type" json:"analysis_type"`
	Temperature      float64 `db:"temperature" json:"temperature"`
	Humidity         float64 `db:"humidity" json:"humidity"`
	PH               float64 `db:"ph" json:"ph"`
	Rainfall         float64 `db:"rainfall" json:"rainfall"`
	Nitrogen         float64 `db:"nitrogen" json:"nitrogen"`
	Phosphorus       float64 `db:"phosphorus" json:"phosphorus"`
	Potassium        float64 `db:"potassium" json:"potassium"`
	FertilizerUsed   float64 `db:"fertilizer_used" json:"fertilizer_used"`
	PesticideUsed    float64 `db:"pesticide_used" json:"pesticide_used"`
	Season           string  `db:"season" json:"season,omitempty"`
	Region           string  `db:"region" json:"region,omitempty"`
	PredictedYield   float64 `db:"predicted_yield" json:"predicted_yield"`
	PredictedRevenue float64 `db:"predicted_revenue" json:"predicted_revenue"`
	EfficiencyScore  float64 `db:"efficiency_score" json:"efficiency_score"`
	Recommendations  string  `db:"recommendations" json:"recommendations"`
	CreatedAt        string  `db:"created_at" json:"created_at"`
}
