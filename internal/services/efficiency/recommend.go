package efficiency

const (
	AdviceDripIrrigation    = "Consider implementing drip irrigation to improve water efficiency"
	AdviceSoilMoisture      = "Monitor soil moisture to optimize irrigation scheduling"
	AdviceWaterModerate     = "Water usage is moderate - consider slight optimization"
	AdviceSoilTesting       = "Conduct soil testing to optimize fertilizer application"
	AdviceReduceFertilizer  = "Consider reducing fertilizer by 10-20% with precision agriculture"
	AdviceSplitApplications = "Fertilizer efficiency is moderate - consider split applications"
	AdviceIPM               = "Implement integrated pest management (IPM) practices"
	AdviceBiologicalControl = "Consider biological pest control methods"
	AdviceCropRotation      = "Consider crop rotation to improve soil health"
	AdvicePlantingDensity   = "Evaluate planting density and timing"
	AdviceMaintain          = "Farm efficiency is excellent - maintain current practices"
	AdviceDegraded          = "Unable to calculate efficiency - check input data"
)

const (
	lowScore      = 0.5
	moderateScore = 0.7

	highFertilizerPerAcre = 0.1
	highPesticidePerAcre  = 5.0
)

type rule struct {
	when   func(raw, scores Values) bool
	advice []string
}

func below(m Metric, limit float64) func(_, scores Values) bool {
	return func(_, scores Values) bool { return scores[m] < limit }
}

func between(m Metric, lo, hi float64) func(_, scores Values) bool {
	return func(_, scores Values) bool { s := scores[m]; return s >= lo && s < hi }
}

// rules è valutata in ordine; ogni regola è indipendente e le "else if"
// sono espresse come intervalli disgiunti.
var rules = []rule{
	{below(WaterEfficiency, lowScore), []string{AdviceDripIrrigation, AdviceSoilMoisture}},
	{between(WaterEfficiency, lowScore, moderateScore), []string{AdviceWaterModerate}},

	{below(FertilizerEfficiency, lowScore), []string{AdviceSoilTesting}},
	{func(raw, scores Values) bool {
		return scores[FertilizerEfficiency] < lowScore && raw[FertilizerPerAcre] > highFertilizerPerAcre
	}, []string{AdviceReduceFertilizer}},
	{between(FertilizerEfficiency, lowScore, moderateScore), []string{AdviceSplitApplications}},

	{below(PesticideEfficiency, lowScore), []string{AdviceIPM}},
	{func(raw, scores Values) bool {
		return scores[PesticideEfficiency] < lowScore && raw[PesticidePerAcre] > highPesticidePerAcre
	}, []string{AdviceBiologicalControl}},

	{below(YieldPerAcre, lowScore), []string{AdviceCropRotation, AdvicePlantingDensity}},
}

// Recommend applies the rule table in order. A metric missing from scores
// counts as 0. If nothing fires the single "maintain" advice is returned.
func Recommend(raw, scores Values) []string {
	var out []string
	for _, r := range rules {
		if r.when(raw, scores) {
			out = append(out, r.advice...)
		}
	}
	if len(out) == 0 {
		return []string{AdviceMaintain}
	}
	return out
}
