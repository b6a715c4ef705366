package market

import "strings"

type RevenueInput struct {
	CropType       string  `json:"crop_type"`
	PredictedYield float64 `json:"predicted_yield"` // t/ha
	FarmArea       float64 `json:"farm_area"`       // ha
}

type Risk struct {
	RiskLevel       string  `json:"risk_level"`
	Volatility      float64 `json:"volatility"`
	TrendDirection  string  `json:"trend_direction"`
	TrendConfidence string  `json:"trend_confidence"`
	PriceStability  string  `json:"price_stability"`
}

type Scenario struct {
	PricePerTon  float64 `json:"price_per_ton"`
	GrossRevenue float64 `json:"gross_revenue"`
	NetRevenue   float64 `json:"net_revenue"`
}

type Scenarios struct {
	BestCase  Scenario `json:"best_case"`
	WorstCase Scenario `json:"worst_case"`
	Expected  Scenario `json:"expected"`
}

type Revenue struct {
	CropType             string     `json:"crop_type"`
	YieldPerHectare      float64    `json:"predicted_yield_per_hectare"`
	FarmArea             float64    `json:"farm_area"`
	TotalYieldTons       float64    `json:"total_yield_tons"`
	MarketPricePerTon    float64    `json:"market_price_per_ton"`
	GrossRevenue         float64    `json:"gross_revenue_egp"`
	EstimatedCosts       float64    `json:"estimated_costs_egp"`
	NetRevenue           float64    `json:"net_revenue_egp"`
	ProfitMargin         float64    `json:"profit_margin_percentage"`
	RevenuePerHectare    float64    `json:"revenue_per_hectare"`
	NetRevenuePerHectare float64    `json:"net_revenue_per_hectare"`
	PriceRisk            *Risk      `json:"price_risk_analysis,omitempty"`
	Scenarios            *Scenarios `json:"revenue_scenarios,omitempty"`
	Recommendations      []string   `json:"recommendations,omitempty"`
	Note                 string     `json:"note,omitempty"`
}

const (
	AdviceCutCosts    = "Consider optimizing production costs to improve profit margins"
	AdviceScale       = "Excellent profit margins - consider scaling production"
	AdviceHedge       = "High price volatility - consider hedging or forward contracts"
	AdviceWatchMarket = "Monitor market trends closely for optimal selling time"
	AdviceLongTerm    = "Price stability allows for longer-term planning"
	AdviceValueAdded  = "Strong revenue potential - consider value-added processing"
	AdviceDiversify   = "Consider crop diversification to improve revenue stability"

	lowMargin          = 10.0
	highMargin         = 30.0
	strongNetRevenue   = 100000.0
	weakNetRevenue     = 20000.0
	highVolatility     = 0.2
	mediumVolatility   = 0.1
	minWorstPriceShare = 0.5
)

// Revenue combina resa, superficie e prezzo corrente. Se il dataset non ha
// prezzi per la coltura si usa il prezzo di esempio, senza analisi del rischio.
func (s *Service) Revenue(in RevenueInput) Revenue {
	crop := strings.ToLower(strings.TrimSpace(in.CropType))
	price, err := s.Price(crop)
	if err != nil {
		return fallbackRevenue(in)
	}

	r := baseRevenue(crop, in, price.CurrentPrice)
	risk := analyzeRisk(price)
	sc := scenarios(r.TotalYieldTons, price.CurrentPrice, ProductionCost(crop), price.Statistics.PriceStd)
	r.PriceRisk = &risk
	r.Scenarios = &sc
	r.Recommendations = revenueAdvice(r.NetRevenue, r.ProfitMargin, risk.RiskLevel)
	return r
}

func fallbackRevenue(in RevenueInput) Revenue {
	r := baseRevenue(in.CropType, in, FallbackPrice(in.CropType))
	r.Note = FallbackRevenueNote
	return r
}

func baseRevenue(crop string, in RevenueInput, price float64) Revenue {
	total := in.PredictedYield * in.FarmArea
	gross := total * price
	cost := total * ProductionCost(crop)
	net := gross - cost

	r := Revenue{
		CropType:          crop,
		YieldPerHectare:   in.PredictedYield,
		FarmArea:          in.FarmArea,
		TotalYieldTons:    total,
		MarketPricePerTon: price,
		GrossRevenue:      gross,
		EstimatedCosts:    cost,
		NetRevenue:        net,
	}
	if gross > 0 {
		r.ProfitMargin = net / gross * 100
	}
	if in.FarmArea > 0 {
		r.RevenuePerHectare = gross / in.FarmArea
		r.NetRevenuePerHectare = net / in.FarmArea
	}
	return r
}

func analyzeRisk(p CropPrice) Risk {
	vol := p.Statistics.Volatility
	level := "low"
	switch {
	case vol > highVolatility:
		level = "high"
	case vol > mediumVolatility:
		level = "medium"
	}

	dir, conf := p.Trend.Trend, p.Trend.Confidence
	if conf == "" {
		conf = "low"
	}
	switch {
	case dir == TrendDecreasing && conf == "high":
		if level == "high" {
			level = "very_high"
		} else {
			level = "high"
		}
	case dir == TrendIncreasing && conf == "high":
		if level == "low" {
			level = "very_low"
		} else {
			level = "low"
		}
	}

	stability := "unstable"
	if vol < mediumVolatility {
		stability = "stable"
	}
	return Risk{
		RiskLevel:       level,
		Volatility:      vol,
		TrendDirection:  dir,
		TrendConfidence: conf,
		PriceStability:  stability,
	}
}

func scenarios(totalYield, price, costPerTon, std float64) Scenarios {
	at := func(p float64) Scenario {
		return Scenario{
			PricePerTon:  p,
			GrossRevenue: totalYield * p,
			NetRevenue:   totalYield * (p - costPerTon),
		}
	}
	worst := price - std
	if floor := price * minWorstPriceShare; worst < floor {
		worst = floor
	}
	return Scenarios{
		BestCase:  at(price + std),
		WorstCase: at(worst),
		Expected:  at(price),
	}
}

func revenueAdvice(net, margin float64, risk string) []string {
	var out []string
	switch {
	case margin < lowMargin:
		out = append(out, AdviceCutCosts)
	case margin > highMargin:
		out = append(out, AdviceScale)
	}
	switch risk {
	case "high":
		out = append(out, AdviceHedge, AdviceWatchMarket)
	case "low":
		out = append(out, AdviceLongTerm)
	}
	switch {
	case net > strongNetRevenue:
		out = append(out, AdviceValueAdded)
	case net < weakNetRevenue:
		out = append(out, AdviceDiversify)
	}
	return out
}
