// Package predictor parla con il servizio di modelli ML via gRPC.
//
// Il payload è un google.protobuf.Struct, così non serve codice generato:
//
//	request:  {"model": "crop", "features": {...}}
//	response: {"label": "rice", "value": 0, "probabilities": {...}, "feature_importance": {...}}
package predictor

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"google.golang.org/protobuf/types/known/structpb"
)

const (
	ServiceName   = "agrisense.model.v1.Predictor"
	PredictMethod = "/" + ServiceName + "/Predict"

	ModelCrop  = "crop"
	ModelYield = "yield"
)

var ErrNoModel = errors.New("predictor: no model configured")

// Predictor is implemented by the gRPC client and by test fakes.
type Predictor interface {
	Predict(ctx context.Context, model string, features map[string]any) (Prediction, error)
}

type Prediction struct {
	Label             string             `json:"label,omitempty"`
	Value             float64            `json:"value"`
	Probabilities     map[string]float64 `json:"probabilities,omitempty"`
	FeatureImportance map[string]float64 `json:"feature_importance,omitempty"`
}

// Ranked returns the class probabilities sorted by descending probability,
// ties broken by label.
func (p Prediction) Ranked() []ClassProbability {
	out := make([]ClassProbability, 0, len(p.Probabilities))
	for l, pr := range p.Probabilities {
		out = append(out, ClassProbability{Label: l, Probability: pr})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Probability != out[j].Probability {
			return out[i].Probability > out[j].Probability
		}
		return out[i].Label < out[j].Label
	})
	return out
}

type ClassProbability struct {
	Label       string  `json:"crop"`
	Probability float64 `json:"probability"`
}

func encodeRequest(model string, features map[string]any) (*structpb.Struct, error) {
	f, err := structpb.NewStruct(features)
	if err != nil {
		return nil, fmt.Errorf("encode features: %w", err)
	}
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"model":    structpb.NewStringValue(model),
		"features": structpb.NewStructValue(f),
	}}, nil
}

func decodeResponse(s *structpb.Struct) Prediction {
	var p Prediction
	if s == nil {
		return p
	}
	f := s.GetFields()
	p.Label = f["label"].GetStringValue()
	p.Value = f["value"].GetNumberValue()
	p.Probabilities = numberMap(f["probabilities"].GetStructValue())
	p.FeatureImportance = numberMap(f["feature_importance"].GetStructValue())
	return p
}

func numberMap(s *structpb.Struct) map[string]float64 {
	if s == nil || len(s.GetFields()) == 0 {
		return nil
	}
	out := make(map[string]float64, len(s.GetFields()))
	for k, v := range s.GetFields() {
		if _, ok := v.GetKind().(*structpb.Value_NumberValue); ok {
			out[k] = v.GetNumberValue()
		}
	}
	return out
}
