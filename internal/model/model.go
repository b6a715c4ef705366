package model

import (
	"github.com/LeonardoBeccarini/agrisense/internal/model/entities"
	"github.com/LeonardoBeccarini/agrisense/internal/model/messages"
)

// Alias per esporre tipi comuni ai servizi

type (
	User             = entities.User
	Farm             = entities.Farm
	FarmStatus       = entities.FarmStatus
	Analysis         = entities.Analysis
	Insight          = entities.Insight
	PricePoint       = entities.PricePoint
	FarmReading      = messages.FarmReading
	EfficiencyScored = messages.EfficiencyScored
)

const (
	FarmActive   = entities.FarmActive
	FarmInactive = entities.FarmInactive
)
