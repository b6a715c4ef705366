// Package crop consiglia la coltura adatta alle condizioni ambientali,
// usando il modello remoto quando disponibile e regole fisse altrimenti.
package crop

import (
	"context"

	"github.com/LeonardoBeccarini/agrisense/internal/logging"
	"github.com/LeonardoBeccarini/agrisense/internal/metrics"
	"github.com/LeonardoBeccarini/agrisense/internal/predictor"
)

const FallbackNote = "Using fallback recommendation (model not available)"

const topN = 3

type Conditions struct {
	Temperature float64 `json:"temperature" yaml:"temperature"`
	Humidity    float64 `json:"humidity" yaml:"humidity"`
	PH          float64 `json:"ph" yaml:"ph"`
	Rainfall    float64 `json:"rainfall" yaml:"rainfall"`
}

func (c Conditions) features() map[string]any {
	return map[string]any{
		"temperature": c.Temperature,
		"humidity":    c.Humidity,
		"ph":          c.PH,
		"rainfall":    c.Rainfall,
	}
}

type Candidate struct {
	Crop       string  `json:"crop"`
	Confidence float64 `json:"confidence"`
}

type Recommendation struct {
	RecommendedCrop    string             `json:"recommended_crop"`
	Confidence         float64            `json:"confidence"`
	TopRecommendations []Candidate        `json:"top_recommendations"`
	FeatureImportance  map[string]float64 `json:"feature_importance"`
	InputConditions    Conditions         `json:"input_conditions"`
	Note               string             `json:"note,omitempty"`
}

func (r Recommendation) Fallback() bool { return r.Note != "" }

type Service struct {
	model predictor.Predictor
}

// NewService accepts a nil model: every call then uses the rules.
func NewService(model predictor.Predictor) *Service {
	return &Service{model: model}
}

func (s *Service) Recommend(ctx context.Context, c Conditions) Recommendation {
	if s.model == nil {
		return fallback(c)
	}
	p, err := s.model.Predict(ctx, predictor.ModelCrop, c.features())
	if err != nil || (p.Label == "" && len(p.Probabilities) == 0) {
		metrics.PredictorFallbackTotal.WithLabelValues(predictor.ModelCrop).Inc()
		logging.Component("crop").Warn().Err(err).Msg("crop: model unavailable, using rules")
		return fallback(c)
	}

	ranked := p.Ranked()
	label := p.Label
	if label == "" {
		label = ranked[0].Label
	}
	top := make([]Candidate, 0, topN)
	for i := 0; i < len(ranked) && i < topN; i++ {
		top = append(top, Candidate{Crop: ranked[i].Label, Confidence: ranked[i].Probability})
	}
	fi := p.FeatureImportance
	if fi == nil {
		fi = map[string]float64{}
	}
	return Recommendation{
		RecommendedCrop:    label,
		Confidence:         p.Probabilities[label],
		TopRecommendations: top,
		FeatureImportance:  fi,
		InputConditions:    c,
	}
}

func fallback(c Conditions) Recommendation {
	pick, conf := "maize", 0.5
	switch {
	case c.Rainfall > 200:
		pick, conf = "rice", 0.7
	case c.Temperature > 30 && c.Humidity > 70:
		pick, conf = "cotton", 0.6
	case c.Temperature < 20 && c.Rainfall < 100:
		pick, conf = "wheat", 0.6
	}
	return Recommendation{
		RecommendedCrop: pick,
		Confidence:      conf,
		TopRecommendations: []Candidate{
			{Crop: pick, Confidence: conf},
			{Crop: "maize", Confidence: 0.4},
			{Crop: "cotton", Confidence: 0.3},
		},
		FeatureImportance: map[string]float64{},
		InputConditions:   c,
		Note:              FallbackNote,
	}
}
