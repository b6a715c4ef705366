package app

import (
	"github.com/goccy/go-json"

	"github.com/LeonardoBeccarini/agrisense/internal/model"
	"github.com/LeonardoBeccarini/agrisense/internal/services/crop"
	"github.com/LeonardoBeccarini/agrisense/internal/services/efficiency"
	"github.com/LeonardoBeccarini/agrisense/internal/services/market"
	"github.com/LeonardoBeccarini/agrisense/internal/services/workflow"
	"github.com/LeonardoBeccarini/agrisense/internal/services/yield"
)

// Number accetta sia numeri JSON sia stringhe numeriche ("12.5").
// Valori non convertibili diventano 0.
type Number float64

func (n *Number) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*n = Number(efficiency.ToFloat(v))
	return nil
}

func (n *Number) value() float64 {
	if n == nil {
		return 0
	}
	return float64(*n)
}

func (n *Number) ptr() *float64 {
	if n == nil {
		return nil
	}
	v := float64(*n)
	return &v
}

type EfficiencyRequest struct {
	FarmArea       *Number `json:"farm_area" validate:"required,gt=0"`
	FertilizerUsed *Number `json:"fertilizer_used" validate:"required,gte=0"`
	PesticideUsed  *Number `json:"pesticide_used" validate:"required,gte=0"`
	WaterUsage     *Number `json:"water_usage" validate:"required,gte=0"`
	Yield          *Number `json:"yield" validate:"required,gte=0"`
}

func (r EfficiencyRequest) Input() efficiency.Input {
	return efficiency.Input{
		FarmArea:       r.FarmArea.value(),
		FertilizerUsed: r.FertilizerUsed.value(),
		PesticideUsed:  r.PesticideUsed.value(),
		WaterUsage:     r.WaterUsage.value(),
		Yield:          r.Yield.value(),
	}
}

type CropRequest struct {
	Temperature *Number `json:"temperature" validate:"required"`
	Humidity    *Number `json:"humidity" validate:"required,gte=0,lte=100"`
	PH          *Number `json:"ph" validate:"required,gte=0,lte=14"`
	Rainfall    *Number `json:"rainfall" validate:"required,gte=0"`
}

func (r CropRequest) Conditions() crop.Conditions {
	return crop.Conditions{
		Temperature: r.Temperature.value(),
		Humidity:    r.Humidity.value(),
		PH:          r.PH.value(),
		Rainfall:    r.Rainfall.value(),
	}
}

// soilFeatures sono i campi del modello di resa comuni a predict-yield e
// yield-potential.
type soilFeatures struct {
	N              *Number `json:"N" validate:"required,gte=0"`
	P              *Number `json:"P" validate:"required,gte=0"`
	K              *Number `json:"K" validate:"required,gte=0"`
	SoilPH         *Number `json:"Soil_pH" validate:"required,gte=0,lte=14"`
	Temperature    *Number `json:"Temperature" validate:"required"`
	Humidity       *Number `json:"Humidity" validate:"required,gte=0,lte=100"`
	Rainfall       *Number `json:"Rainfall" validate:"required,gte=0"`
	IrrigationType string  `json:"Irrigation_Type" validate:"required"`
	FertilizerUsed *Number `json:"Fertilizer_Used" validate:"omitempty,gte=0"`
	PesticideUsed  *Number `json:"Pesticide_Used" validate:"omitempty,gte=0"`
}

func (s soilFeatures) input(cropType string) yield.Input {
	return yield.Input{
		N:              s.N.value(),
		P:              s.P.value(),
		K:              s.K.value(),
		SoilPH:         s.SoilPH.value(),
		Temperature:    s.Temperature.value(),
		Humidity:       s.Humidity.value(),
		Rainfall:       s.Rainfall.ptr(),
		CropType:       cropType,
		IrrigationType: s.IrrigationType,
		FertilizerUsed: s.FertilizerUsed.ptr(),
		PesticideUsed:  s.PesticideUsed.value(),
	}
}

type YieldRequest struct {
	soilFeatures
	CropType string `json:"Crop_Type" validate:"required"`
}

func (r YieldRequest) Input() yield.Input { return r.input(r.CropType) }

type YieldPotentialRequest struct {
	soilFeatures
	Crop string `json:"crop" validate:"required"`
}

type RevenueRequest struct {
	CropType       string  `json:"crop_type" validate:"required"`
	PredictedYield *Number `json:"predicted_yield" validate:"required,gte=0"`
	FarmArea       *Number `json:"farm_area" validate:"required,gt=0"`
}

func (r RevenueRequest) Input() market.RevenueInput {
	return market.RevenueInput{
		CropType:       r.CropType,
		PredictedYield: r.PredictedYield.value(),
		FarmArea:       r.FarmArea.value(),
	}
}

type WorkflowRequest struct {
	FarmID         *int64  `json:"farm_id" validate:"omitempty,gt=0"`
	Temperature    *Number `json:"temperature" validate:"required"`
	Humidity       *Number `json:"humidity" validate:"required,gte=0,lte=100"`
	PH             *Number `json:"ph" validate:"required,gte=0,lte=14"`
	Rainfall       *Number `json:"rainfall" validate:"required,gte=0"`
	FarmArea       *Number `json:"farm_area" validate:"required,gt=0"`
	FertilizerUsed *Number `json:"fertilizer_used" validate:"required,gte=0"`
	PesticideUsed  *Number `json:"pesticide_used" validate:"required,gte=0"`
	WaterUsage     *Number `json:"water_usage" validate:"required,gte=0"`
	N              *Number `json:"N" validate:"omitempty,gte=0"`
	P              *Number `json:"P" validate:"omitempty,gte=0"`
	K              *Number `json:"K" validate:"omitempty,gte=0"`
	IrrigationType string  `json:"irrigation_type"`
	Season         string  `json:"season"`
	Region         string  `json:"region"`
}

func (r WorkflowRequest) Request() workflow.Request {
	return workflow.Request{
		FarmID:         r.FarmID,
		Temperature:    r.Temperature.value(),
		Humidity:       r.Humidity.value(),
		PH:             r.PH.value(),
		Rainfall:       r.Rainfall.value(),
		FarmArea:       r.FarmArea.value(),
		FertilizerUsed: r.FertilizerUsed.value(),
		PesticideUsed:  r.PesticideUsed.value(),
		WaterUsage:     r.WaterUsage.value(),
		N:              r.N.ptr(),
		P:              r.P.ptr(),
		K:              r.K.ptr(),
		IrrigationType: r.IrrigationType,
		Season:         r.Season,
		Region:         r.Region,
	}
}

type FarmRequest struct {
	Name           string  `json:"name" validate:"required,max=200"`
	Location       string  `json:"location" validate:"required,max=200"`
	AreaHectares   *Number `json:"area_hectares" validate:"required,gt=0"`
	UserID         int64   `json:"user_id" validate:"gte=0"`
	CropType       string  `json:"crop_type"`
	SoilType       string  `json:"soil_type"`
	IrrigationType string  `json:"irrigation_type"`
	Status         string  `json:"status" validate:"omitempty,oneof=active inactive"`
}

func (r FarmRequest) apply(f *model.Farm) {
	f.Name = r.Name
	f.Location = r.Location
	f.AreaHectares = r.AreaHectares.value()
	f.CropType = r.CropType
	f.SoilType = r.SoilType
	f.IrrigationType = r.IrrigationType
	if r.Status != "" {
		f.Status = model.FarmStatus(r.Status)
	}
}

type InsightRequest struct {
	InsightType string `json:"insight_type" validate:"required"`
	Title       string `json:"title" validate:"required"`
	Description string `json:"description"`
	ImpactLevel string `json:"impact_level" validate:"omitempty,oneof=low medium high"`
	Status      string `json:"status" validate:"omitempty,oneof=pending done"`
}
