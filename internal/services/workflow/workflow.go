// Package workflow esegue il percorso completo per l'agricoltore:
// coltura consigliata, resa, ricavo, efficienza e insight.
package workflow

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/LeonardoBeccarini/agrisense/internal/logging"
	"github.com/LeonardoBeccarini/agrisense/internal/model"
	"github.com/LeonardoBeccarini/agrisense/internal/services/crop"
	"github.com/LeonardoBeccarini/agrisense/internal/services/efficiency"
	"github.com/LeonardoBeccarini/agrisense/internal/services/market"
	"github.com/LeonardoBeccarini/agrisense/internal/services/yield"
)

const (
	AnalysisType          = "comprehensive_workflow"
	defaultNutrient       = 50.0
	defaultIrrigationType = "Canal"
)

// Request: N, P, K e irrigation_type sono opzionali.
type Request struct {
	FarmID         *int64   `json:"farm_id,omitempty"`
	Temperature    float64  `json:"temperature"`
	Humidity       float64  `json:"humidity"`
	PH             float64  `json:"ph"`
	Rainfall       float64  `json:"rainfall"`
	FarmArea       float64  `json:"farm_area"`
	FertilizerUsed float64  `json:"fertilizer_used"`
	PesticideUsed  float64  `json:"pesticide_used"`
	WaterUsage     float64  `json:"water_usage"`
	N              *float64 `json:"N,omitempty"`
	P              *float64 `json:"P,omitempty"`
	K              *float64 `json:"K,omitempty"`
	IrrigationType string   `json:"irrigation_type,omitempty"`
	Season         string   `json:"season,omitempty"`
	Region         string   `json:"region,omitempty"`
}

type Result struct {
	RecommendedCrop   crop.Recommendation `json:"recommended_crop"`
	YieldPrediction   yield.Prediction    `json:"yield_prediction"`
	RevenuePrediction market.Revenue      `json:"revenue_prediction"`
	EfficiencyMetrics efficiency.Result   `json:"efficiency_metrics"`
	Insights          []string            `json:"insights"`
	AnalysisID        int64               `json:"analysis_id,omitempty"`
	Timestamp         time.Time           `json:"timestamp"`
}

// Store è la parte di persistence.Store usata per salvare le analisi.
type Store interface {
	GetFarm(ctx context.Context, id int64) (model.Farm, error)
	SaveAnalysis(ctx context.Context, a *model.Analysis) error
	AddInsight(ctx context.Context, in *model.Insight) error
}

type Service struct {
	crops    *crop.Service
	yields   *yield.Service
	market   *market.Service
	engine   *efficiency.Engine
	store    Store
	currency string
	now      func() time.Time
}

// NewService: store può essere nil, in tal caso farm_id viene ignorato.
func NewService(c *crop.Service, y *yield.Service, m *market.Service, e *efficiency.Engine, store Store, currency string) *Service {
	if currency == "" {
		currency = "EGP"
	}
	return &Service{crops: c, yields: y, market: m, engine: e, store: store, currency: currency, now: time.Now}
}

func valueOr(p *float64, d float64) float64 {
	if p == nil {
		return d
	}
	return *p
}

// Run executes the five steps in order. Only an invalid farm area or a
// failure to persist (including an unknown farm_id) is returned as an error.
func (s *Service) Run(ctx context.Context, req Request) (Result, error) {
	effIn := efficiency.Input{
		FarmArea:       req.FarmArea,
		FertilizerUsed: req.FertilizerUsed,
		PesticideUsed:  req.PesticideUsed,
		WaterUsage:     req.WaterUsage,
	}
	if err := effIn.Validate(); err != nil {
		return Result{}, err
	}
	if req.FarmID != nil && s.store != nil {
		if _, err := s.store.GetFarm(ctx, *req.FarmID); err != nil {
			return Result{}, err
		}
	}

	rec := s.crops.Recommend(ctx, crop.Conditions{
		Temperature: req.Temperature,
		Humidity:    req.Humidity,
		PH:          req.PH,
		Rainfall:    req.Rainfall,
	})

	irrigation := req.IrrigationType
	if irrigation == "" {
		irrigation = defaultIrrigationType
	}
	pred := s.yields.Predict(ctx, yield.Input{
		N:              valueOr(req.N, defaultNutrient),
		P:              valueOr(req.P, defaultNutrient),
		K:              valueOr(req.K, defaultNutrient),
		SoilPH:         req.PH,
		Temperature:    req.Temperature,
		Humidity:       req.Humidity,
		Rainfall:       yield.Float(req.Rainfall),
		CropType:       rec.RecommendedCrop,
		IrrigationType: irrigation,
		FertilizerUsed: yield.Float(req.FertilizerUsed),
		PesticideUsed:  req.PesticideUsed,
	})

	rev := s.market.Revenue(market.RevenueInput{
		CropType:       rec.RecommendedCrop,
		PredictedYield: pred.PredictedYield,
		FarmArea:       req.FarmArea,
	})

	effIn.Yield = pred.PredictedYield
	eff := s.engine.Evaluate(effIn)

	res := Result{
		RecommendedCrop:   rec,
		YieldPrediction:   pred,
		RevenuePrediction: rev,
		EfficiencyMetrics: eff.Result,
		Timestamp:         s.now().UTC(),
	}
	insights := Insights(rec, pred, rev, eff.Result, s.currency)
	res.Insights = make([]string, 0, len(insights))
	for _, in := range insights {
		res.Insights = append(res.Insights, in.Text)
	}

	if req.FarmID != nil && s.store != nil {
		id, err := s.persist(ctx, *req.FarmID, req, res, insights)
		if err != nil {
			return res, err
		}
		res.AnalysisID = id
	}
	return res, nil
}

func (s *Service) persist(ctx context.Context, farmID int64, req Request, res Result, insights []Insight) (int64, error) {
	recs, err := json.Marshal(res.EfficiencyMetrics.Recommendations)
	if err != nil {
		return 0, fmt.Errorf("encode recommendations: %w", err)
	}
	a := model.Analysis{
		FarmID:           farmID,
		AnalysisType:     AnalysisType,
		Temperature:      req.Temperature,
		Humidity:         req.Humidity,
		PH:               req.PH,
		Rainfall:         req.Rainfall,
		Nitrogen:         valueOr(req.N, defaultNutrient),
		Phosphorus:       valueOr(req.P, defaultNutrient),
		Potassium:        valueOr(req.K, defaultNutrient),
		FertilizerUsed:   req.FertilizerUsed,
		PesticideUsed:    req.PesticideUsed,
		Season:           req.Season,
		Region:           req.Region,
		PredictedYield:   res.YieldPrediction.PredictedYield,
		PredictedRevenue: res.RevenuePrediction.NetRevenue,
		EfficiencyScore:  res.EfficiencyMetrics.FinalScore,
		Recommendations:  string(recs),
	}
	if err := s.store.SaveAnalysis(ctx, &a); err != nil {
		return 0, err
	}
	for _, in := range insights {
		row := model.Insight{
			FarmID:      farmID,
			InsightType: in.Type,
			Title:       in.Title,
			Description: in.Text,
			ImpactLevel: in.Impact,
		}
		if err := s.store.AddInsight(ctx, &row); err != nil {
			return a.ID, err
		}
	}
	logging.Component("workflow").Info().Int64("farm_id", farmID).Int64("analysis_id", a.ID).
		Int("insights", len(insights)).Msg("workflow: analysis saved")
	return a.ID, nil
}

// groupThousands formatta n come 1,234,567.
func groupThousands(n float64) string {
	return message.NewPrinter(language.English).Sprintf("%.0f", n)
}
