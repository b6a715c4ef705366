package efficiency

import "math"

type Rating string

const (
	RatingExcellent Rating = "Excellent"
	RatingGood      Rating = "Good"
	RatingModerate  Rating = "Moderate"
	RatingPoor      Rating = "Poor"
	RatingVeryPoor  Rating = "Very Poor"
	// RatingUnknown is reserved for the degraded result.
	RatingUnknown Rating = "Unknown"
)

// FinalScore is the weighted mean of the weighted metrics present in scores,
// rounded to 3 decimals. With no weighted metric it is 0.
func FinalScore(scores Values) float64 {
	var weighted, total float64
	// ordine fisso: la somma in virgola mobile deve essere riproducibile
	for m := Metric(0); m < numMetrics; m++ {
		s, ok := scores[m]
		w := m.Weight()
		if !ok || w == 0 {
			continue
		}
		weighted += s * w
		total += w
	}
	if total <= 0 {
		return 0
	}
	return round3(weighted / total)
}

// RatingFor maps a final score to its tier; lower bounds are inclusive.
func RatingFor(score float64) Rating {
	switch {
	case score >= 0.8:
		return RatingExcellent
	case score >= 0.6:
		return RatingGood
	case score >= 0.4:
		return RatingModerate
	case score >= 0.2:
		return RatingPoor
	default:
		return RatingVeryPoor
	}
}

func round3(x float64) float64 {
	return math.Round(x*1000) / 1000
}
