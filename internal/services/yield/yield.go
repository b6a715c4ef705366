// Package yield stima la resa (t/ha) di una coltura.
package yield

import (
	"context"
	"math"
	"strings"

	"github.com/LeonardoBeccarini/agrisense/internal/logging"
	"github.com/LeonardoBeccarini/agrisense/internal/metrics"
	"github.com/LeonardoBeccarini/agrisense/internal/predictor"
)

const (
	FallbackNote = "Using fallback prediction (model not available)"

	ConfidenceHigh = "high"
	ConfidenceLow  = "low"

	defaultFertilizer = 100.0
	defaultRainfall   = 100.0

	modelStdError    = 0.1
	modelZ           = 1.96
	modelLevel       = 0.95
	fallbackLevel    = 0.7
	fallbackSpread   = 0.2
	maxFertFactor    = 2.0
	maxRainFactor    = 1.5
	fertReference    = 100.0
	rainReference    = 150.0
	defaultBaseYield = 20.0
)

// rese medie di riferimento (t/ha)
var baseYields = map[string]float64{
	"rice":      25,
	"wheat":     15,
	"maize":     20,
	"cotton":    12,
	"sugarcane": 70,
	"potato":    30,
	"tomato":    40,
}

func BaseYield(crop string) float64 {
	if v, ok := baseYields[strings.ToLower(strings.TrimSpace(crop))]; ok {
		return v
	}
	return defaultBaseYield
}

// Input: Fertilizer e Rainfall sono puntatori perché "assente" e "zero"
// producono stime diverse nel fallback.
type Input struct {
	N              float64  `json:"N"`
	P              float64  `json:"P"`
	K              float64  `json:"K"`
	SoilPH         float64  `json:"Soil_pH"`
	Temperature    float64  `json:"Temperature"`
	Humidity       float64  `json:"Humidity"`
	Rainfall       *float64 `json:"Rainfall,omitempty"`
	CropType       string   `json:"Crop_Type"`
	IrrigationType string   `json:"Irrigation_Type"`
	FertilizerUsed *float64 `json:"Fertilizer_Used,omitempty"`
	PesticideUsed  float64  `json:"Pesticide_Used"`
}

func Float(v float64) *float64 { return &v }

func valueOr(p *float64, d float64) float64 {
	if p == nil {
		return d
	}
	return *p
}

// features usa i nomi di colonna del dataset di training, completati dai
// default del preprocessore per i campi non raccolti dall'API.
func (in Input) features() map[string]any {
	return map[string]any{
		"N":               in.N,
		"P":               in.P,
		"K":               in.K,
		"Soil_pH":         in.SoilPH,
		"Soil_Moisture":   50.0,
		"Soil_Type":       "Loamy",
		"Organic_Carbon":  1.0,
		"Temperature":     in.Temperature,
		"Humidity":        in.Humidity,
		"Rainfall":        valueOr(in.Rainfall, 0),
		"Sunlight_Hours":  8.0,
		"Wind_Speed":      5.0,
		"Region":          "Nile Delta",
		"Altitude":        50.0,
		"Season":          "Summer",
		"Crop_Type":       in.CropType,
		"Irrigation_Type": in.IrrigationType,
		"Fertilizer_Used": valueOr(in.FertilizerUsed, 0),
		"Pesticide_Used":  in.PesticideUsed,
	}
}

type Interval struct {
	LowerBound      float64 `json:"lower_bound"`
	UpperBound      float64 `json:"upper_bound"`
	ConfidenceLevel float64 `json:"confidence_level"`
}

type Prediction struct {
	PredictedYield      float64            `json:"predicted_yield"`
	Interval            Interval           `json:"prediction_interval"`
	YieldPerHectare     float64            `json:"yield_per_hectare"`
	FeatureExplanations map[string]float64 `json:"feature_explanations"`
	EfficiencyMetrics   map[string]float64 `json:"efficiency_metrics"`
	ModelConfidence     string             `json:"model_confidence"`
	Note                string             `json:"note,omitempty"`
}

type Service struct {
	model predictor.Predictor
}

func NewService(model predictor.Predictor) *Service {
	return &Service{model: model}
}

func (s *Service) Predict(ctx context.Context, in Input) Prediction {
	if s.model == nil {
		return fallback(in)
	}
	p, err := s.model.Predict(ctx, predictor.ModelYield, in.features())
	if err != nil || math.IsNaN(p.Value) || math.IsInf(p.Value, 0) {
		metrics.PredictorFallbackTotal.WithLabelValues(predictor.ModelYield).Inc()
		logging.Component("yield").Warn().Err(err).Msg("yield: model unavailable, using base yields")
		return fallback(in)
	}

	v := p.Value
	se := v * modelStdError
	conf := ConfidenceLow
	if v > 0 {
		conf = ConfidenceHigh
	}
	fe := p.FeatureImportance
	if fe == nil {
		fe = map[string]float64{}
	}
	return Prediction{
		PredictedYield: v,
		Interval: Interval{
			LowerBound:      math.Max(0, v-modelZ*se),
			UpperBound:      v + modelZ*se,
			ConfidenceLevel: modelLevel,
		},
		YieldPerHectare:     v,
		FeatureExplanations: fe,
		EfficiencyMetrics:   Efficiency(in, v),
		ModelConfidence:     conf,
	}
}

func fallback(in Input) Prediction {
	fert := valueOr(in.FertilizerUsed, defaultFertilizer)
	rain := valueOr(in.Rainfall, defaultRainfall)
	v := BaseYield(in.CropType) * math.Min(maxFertFactor, fert/fertReference) * math.Min(maxRainFactor, rain/rainReference)

	return Prediction{
		PredictedYield: v,
		Interval: Interval{
			LowerBound:      v * (1 - fallbackSpread),
			UpperBound:      v * (1 + fallbackSpread),
			ConfidenceLevel: fallbackLevel,
		},
		YieldPerHectare:     v,
		FeatureExplanations: map[string]float64{},
		EfficiencyMetrics:   Efficiency(in, v),
		ModelConfidence:     ConfidenceLow,
		Note:                FallbackNote,
	}
}

// Efficiency riporta solo le metriche con denominatore positivo.
func Efficiency(in Input, v float64) map[string]float64 {
	out := map[string]float64{}
	if f := valueOr(in.FertilizerUsed, 0); f > 0 {
		out["fertilizer_efficiency"] = v / f
	}
	if r := valueOr(in.Rainfall, 0); r > 0 {
		out["water_efficiency"] = v / r
	}
	if npk := in.N + in.P + in.K; npk > 0 {
		out["npk_efficiency"] = v / npk
	}
	return out
}
