package efficiency

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func uniform(s float64) Values {
	return Values{
		YieldPerAcre:         s,
		WaterEfficiency:      s,
		FertilizerEfficiency: s,
		PesticideEfficiency:  s,
		InputEfficiency:      s,
	}
}

func TestRecommendOrdering(t *testing.T) {
	raw := Values{FertilizerPerAcre: 0.2, PesticidePerAcre: 6}
	got := Recommend(raw, uniform(0.3))
	want := []string{
		AdviceDripIrrigation,
		AdviceSoilMoisture,
		AdviceSoilTesting,
		AdviceReduceFertilizer,
		AdviceIPM,
		AdviceBiologicalControl,
		AdviceCropRotation,
		AdvicePlantingDensity,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Recommend mismatch (-want +got):\n%s", diff)
	}
}

func TestRecommend(t *testing.T) {
	tests := []struct {
		name   string
		raw    Values
		scores Values
		want   []string
	}{
		{
			name:   "all high",
			scores: uniform(0.9),
			want:   []string{AdviceMaintain},
		},
		{
			name:   "moderate band",
			scores: uniform(0.6),
			want:   []string{AdviceWaterModerate, AdviceSplitApplications},
		},
		{
			name:   "exactly 0.5 is moderate, 0.7 is fine",
			scores: Values{WaterEfficiency: 0.5, FertilizerEfficiency: 0.7, PesticideEfficiency: 0.7, YieldPerAcre: 0.7},
			want:   []string{AdviceWaterModerate},
		},
		{
			name:   "low fertilizer with light use",
			raw:    Values{FertilizerPerAcre: 0.1, PesticidePerAcre: 5},
			scores: Values{WaterEfficiency: 1, FertilizerEfficiency: 0.1, PesticideEfficiency: 0.2, YieldPerAcre: 1},
			want:   []string{AdviceSoilTesting, AdviceIPM},
		},
		{
			name:   "missing scores count as zero",
			raw:    Values{},
			scores: Values{},
			want: []string{
				AdviceDripIrrigation, AdviceSoilMoisture,
				AdviceSoilTesting,
				AdviceIPM,
				AdviceCropRotation, AdvicePlantingDensity,
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, Recommend(tt.raw, tt.scores)); diff != "" {
				t.Errorf("Recommend mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
