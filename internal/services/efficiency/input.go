package efficiency

import (
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"
)

var (
	ErrInvalidFarmArea = errors.New("invalid farm_area: must be greater than 0")
	ErrNegativeInput   = errors.New("invalid input: resource usage and yield must be non-negative")
)

// Input sono le cinque grandezze della fattoria da valutare.
type Input struct {
	FarmArea       float64 `json:"farm_area" yaml:"farm_area"`
	FertilizerUsed float64 `json:"fertilizer_used" yaml:"fertilizer_used"`
	PesticideUsed  float64 `json:"pesticide_used" yaml:"pesticide_used"`
	WaterUsage     float64 `json:"water_usage" yaml:"water_usage"`
	Yield          float64 `json:"yield" yaml:"yield"`
}

// Validate è il controllo di frontiera: area > 0, il resto non negativo.
// L'Engine non lo richiede; le divisioni sono comunque protette.
func (in Input) Validate() error {
	if !(in.FarmArea > 0) {
		return ErrInvalidFarmArea
	}
	if in.FertilizerUsed < 0 || in.PesticideUsed < 0 || in.WaterUsage < 0 || in.Yield < 0 {
		return ErrNegativeInput
	}
	return nil
}

// Sanitize sostituisce i valori non finiti con 0.
func (in Input) Sanitize() Input {
	return Input{
		FarmArea:       finiteOrZero(in.FarmArea),
		FertilizerUsed: finiteOrZero(in.FertilizerUsed),
		PesticideUsed:  finiteOrZero(in.PesticideUsed),
		WaterUsage:     finiteOrZero(in.WaterUsage),
		Yield:          finiteOrZero(in.Yield),
	}
}

// ParseInput coerces a loosely typed record (JSON object, form values).
// Missing or unparsable fields become 0.
func ParseInput(fields map[string]any) Input {
	return Input{
		FarmArea:       ToFloat(fields["farm_area"]),
		FertilizerUsed: ToFloat(fields["fertilizer_used"]),
		PesticideUsed:  ToFloat(fields["pesticide_used"]),
		WaterUsage:     ToFloat(fields["water_usage"]),
		Yield:          ToFloat(fields["yield"]),
	}
}

// UnmarshalJSON accetta numeri o stringhe numeriche per ogni campo.
func (in *Input) UnmarshalJSON(b []byte) error {
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return err
	}
	*in = ParseInput(m)
	return nil
}

// ToFloat converte numero, stringa o bool in float64 finito; altrimenti 0.
func ToFloat(v any) float64 {
	var f float64
	switch x := v.(type) {
	case float64:
		f = x
	case float32:
		f = float64(x)
	case int:
		f = float64(x)
	case int64:
		f = float64(x)
	case int32:
		f = float64(x)
	case json.Number:
		f, _ = x.Float64()
	case string:
		p, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0
		}
		f = p
	case bool:
		if x {
			f = 1
		}
	default:
		return 0
	}
	return finiteOrZero(f)
}

func finiteOrZero(f float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}
