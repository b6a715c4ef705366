package messages

import "time"

// EfficiencyScored is published by the analyzer for every scored window.
type EfficiencyScored struct {
	EventID          string             `json:"event_id"`
	FarmID           string             `json:"farm_id"`
	WindowStart      time.Time          `json:"window_start"`
	WindowEnd        time.Time          `json:"window_end"`
	Readings         int                `json:"readings"`
	FinalScore       float64            `json:"final_efficiency_score"`
	Rating           string             `json:"performance_rating"`
	NormalizedScores map[string]float64 `json:"normalized_scores"`
	Recommendations  []string           `json:"recommendations"`
	Degraded         bool               `json:"degraded,omitempty"`
	Timestamp        time.Time          `json:"timestamp"`
}
