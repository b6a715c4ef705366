package efficiency

// Costanti di normalizzazione delle unità per l'input composito:
// fertilizzante (t) + pesticida (kg)/1000 + acqua (m³)/10000.
const (
	pesticideUnitDivisor = 1000
	waterUnitDivisor     = 10000
)

// Calculate derives the raw metrics. Every division is guarded and yields 0
// when its denominator is not positive.
func Calculate(in Input) Values {
	raw := make(Values, numMetrics)

	raw[YieldPerAcre] = ratio(in.Yield, in.FarmArea)
	raw[WaterEfficiency] = ratio(in.Yield, in.WaterUsage)
	raw[FertilizerEfficiency] = ratio(in.Yield, in.FertilizerUsed)
	raw[PesticideEfficiency] = ratio(in.Yield, in.PesticideUsed)

	totalInput := in.FertilizerUsed + in.PesticideUsed/pesticideUnitDivisor + in.WaterUsage/waterUnitDivisor
	raw[InputEfficiency] = ratio(in.Yield, totalInput)

	raw[FertilizerPerAcre] = ratio(in.FertilizerUsed, in.FarmArea)
	raw[PesticidePerAcre] = ratio(in.PesticideUsed, in.FarmArea)
	raw[WaterPerAcre] = ratio(in.WaterUsage, in.FarmArea)

	return raw
}

func ratio(num, den float64) float64 {
	if den > 0 {
		return num / den
	}
	return 0
}
