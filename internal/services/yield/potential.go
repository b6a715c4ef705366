package yield

import "context"

type Potential struct {
	Prediction
	YieldPotential string  `json:"yield_potential"`
	PotentialRatio float64 `json:"potential_ratio"`
	AverageYield   float64 `json:"average_yield"`
}

// Potential predicts the yield of crop under in and grades it against the
// crop's average yield.
func (s *Service) Potential(ctx context.Context, crop string, in Input) Potential {
	in.CropType = crop
	p := s.Predict(ctx, in)
	avg := BaseYield(crop)
	ratio := p.PredictedYield / avg

	return Potential{
		Prediction:     p,
		YieldPotential: grade(ratio),
		PotentialRatio: ratio,
		AverageYield:   avg,
	}
}

func grade(ratio float64) string {
	switch {
	case ratio > 1.2:
		return "excellent"
	case ratio > 1.0:
		return "good"
	case ratio > 0.8:
		return "moderate"
	default:
		return "poor"
	}
}
