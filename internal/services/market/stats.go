package market

import "math"

type Statistics struct {
	AveragePrice float64 `json:"average_price"`
	PriceStd     float64 `json:"price_std"`
	MinPrice     float64 `json:"min_price"`
	MaxPrice     float64 `json:"max_price"`
	DataPoints   int     `json:"data_points"`
	Volatility   float64 `json:"volatility"`
}

// Describe computes the statistics of a price series. The standard deviation
// is the sample one (n-1); a single point has std 0.
func Describe(xs []float64) Statistics {
	n := len(xs)
	if n == 0 {
		return Statistics{}
	}
	s := Statistics{MinPrice: xs[0], MaxPrice: xs[0], DataPoints: n}
	var sum float64
	for _, x := range xs {
		sum += x
		s.MinPrice = math.Min(s.MinPrice, x)
		s.MaxPrice = math.Max(s.MaxPrice, x)
	}
	s.AveragePrice = sum / float64(n)
	if n > 1 {
		var ss float64
		for _, x := range xs {
			d := x - s.AveragePrice
			ss += d * d
		}
		s.PriceStd = math.Sqrt(ss / float64(n-1))
	}
	if s.AveragePrice != 0 {
		s.Volatility = s.PriceStd / s.AveragePrice
	}
	return s
}

const (
	TrendIncreasing   = "increasing"
	TrendDecreasing   = "decreasing"
	TrendStable       = "stable"
	TrendInsufficient = "insufficient_data"

	trendWindow    = 90
	trendMinPoints = 30
	slopeThreshold = 0.1
)

type PriceTrend struct {
	Trend            string  `json:"trend"`
	Direction        string  `json:"direction,omitempty"`
	Slope            float64 `json:"slope"`
	RSquared         float64 `json:"r_squared"`
	PercentageChange float64 `json:"percentage_change"`
	Confidence       string  `json:"confidence,omitempty"`
}

// AnalyzeTrend fits a least-squares line through the last 90 prices against
// their index.
func AnalyzeTrend(xs []float64) PriceTrend {
	if len(xs) > trendWindow {
		xs = xs[len(xs)-trendWindow:]
	}
	if len(xs) < trendMinPoints {
		return PriceTrend{Trend: TrendInsufficient, Direction: "unknown"}
	}

	slope, r2 := linearFit(xs)
	t := PriceTrend{Trend: TrendStable, Slope: slope, RSquared: r2, Confidence: confidence(r2)}
	switch {
	case slope > slopeThreshold:
		t.Trend = TrendIncreasing
	case slope < -slopeThreshold:
		t.Trend = TrendDecreasing
	}
	if first := xs[0]; first != 0 {
		t.PercentageChange = (xs[len(xs)-1] - first) / first * 100
	}
	return t
}

func confidence(r2 float64) string {
	switch {
	case r2 > 0.7:
		return "high"
	case r2 > 0.4:
		return "medium"
	default:
		return "low"
	}
}

// linearFit regredisce ys su x = 0..n-1. Con ys costante r² vale 1.
func linearFit(ys []float64) (slope, r2 float64) {
	n := float64(len(ys))
	meanX := (n - 1) / 2
	var meanY float64
	for _, y := range ys {
		meanY += y
	}
	meanY /= n

	var sxy, sxx float64
	for i, y := range ys {
		dx := float64(i) - meanX
		sxy += dx * (y - meanY)
		sxx += dx * dx
	}
	if sxx == 0 {
		return 0, 0
	}
	slope = sxy / sxx
	intercept := meanY - slope*meanX

	var ssRes, ssTot float64
	for i, y := range ys {
		pred := intercept + slope*float64(i)
		ssRes += (y - pred) * (y - pred)
		ssTot += (y - meanY) * (y - meanY)
	}
	if ssTot == 0 {
		return slope, 1
	}
	return slope, 1 - ssRes/ssTot
}
