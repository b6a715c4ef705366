package efficiency

type Direction string

const (
	TrendImproving        Direction = "improving"
	TrendDeclining        Direction = "declining"
	TrendStable           Direction = "stable"
	TrendInsufficientData Direction = "insufficient_data"
)

const (
	recentWindow     = 3
	improvingFactor  = 1.1
	decliningFactor  = 0.9
	msgNoHistory     = "No historical data available"
	msgNeedMorePoint = "Need more data points"
)

type Trend struct {
	Trend                 Direction `json:"trend"`
	Message               string    `json:"message,omitempty"`
	RecentAverage         float64   `json:"recent_average"`
	EarlierAverage        float64   `json:"earlier_average"`
	ImprovementPercentage float64   `json:"improvement_percentage"`
	EfficiencyScores      []float64 `json:"efficiency_scores"`
}

// AnalyzeScores classifies a chronological series of final scores.
//
// recent is the mean of the last 3 points. earlier is the mean of everything
// before them, or of all but the last point when the series has 3 points or fewer.
func AnalyzeScores(scores []float64) Trend {
	n := len(scores)
	series := append([]float64(nil), scores...)
	if series == nil {
		series = []float64{}
	}
	switch {
	case n == 0:
		return Trend{Trend: TrendInsufficientData, Message: msgNoHistory, EfficiencyScores: series}
	case n < 2:
		return Trend{Trend: TrendInsufficientData, Message: msgNeedMorePoint, EfficiencyScores: series}
	}

	recentFrom := n - recentWindow
	if recentFrom < 0 {
		recentFrom = 0
	}
	recent := mean(series[recentFrom:])

	var earlier float64
	if n > recentWindow {
		earlier = mean(series[:n-recentWindow])
	} else {
		earlier = mean(series[:n-1])
	}

	t := Trend{
		Trend:            TrendStable,
		RecentAverage:    recent,
		EarlierAverage:   earlier,
		EfficiencyScores: series,
	}
	switch {
	case recent > earlier*improvingFactor:
		t.Trend = TrendImproving
	case recent < earlier*decliningFactor:
		t.Trend = TrendDeclining
	}
	if earlier > 0 {
		t.ImprovementPercentage = (recent - earlier) / earlier * 100
	}
	return t
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var s float64
	for _, x := range xs {
		s += x
	}
	return s / float64(len(xs))
}
