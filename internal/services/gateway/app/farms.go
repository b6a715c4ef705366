package app

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/LeonardoBeccarini/agrisense/internal/model"
	"github.com/LeonardoBeccarini/agrisense/internal/services/efficiency"
)

var errStoreUnavailable = errors.New("farm store unavailable")

func farmID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid farm id %q", chi.URLParam(r, "id"))
	}
	return id, nil
}

// withFarm risolve {id} e verifica che la farm esista prima di chiamare fn.
func (g *Gateway) withFarm(fn func(w http.ResponseWriter, r *http.Request, f model.Farm)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if g.deps.Store == nil {
			respondError(w, r, errStoreUnavailable)
			return
		}
		id, err := farmID(r)
		if err != nil {
			respondError(w, r, err)
			return
		}
		f, err := g.deps.Store.GetFarm(r.Context(), id)
		if err != nil {
			respondError(w, r, err)
			return
		}
		fn(w, r, f)
	}
}

func (g *Gateway) handleListFarms(w http.ResponseWriter, r *http.Request) {
	if g.deps.Store == nil {
		respondError(w, r, errStoreUnavailable)
		return
	}
	farms, err := g.deps.Store.ListFarms(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, "Farms retrieved", farms)
}

func (g *Gateway) handleCreateFarm(w http.ResponseWriter, r *http.Request) {
	if g.deps.Store == nil {
		respondError(w, r, errStoreUnavailable)
		return
	}
	var req FarmRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	f := model.Farm{UserID: req.UserID}
	if f.UserID == 0 {
		f.UserID = g.defaultUserID
	} else if _, err := g.deps.Store.GetUser(r.Context(), f.UserID); err != nil {
		respondError(w, r, err)
		return
	}
	req.apply(&f)
	if err := g.deps.Store.CreateFarm(r.Context(), &f); err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusCreated, "Farm created successfully", map[string]int64{"farm_id": f.ID})
}

func (g *Gateway) handleGetFarm(w http.ResponseWriter, r *http.Request) {
	g.withFarm(func(w http.ResponseWriter, _ *http.Request, f model.Farm) {
		respond(w, http.StatusOK, "Farm retrieved", f)
	})(w, r)
}

func (g *Gateway) handleUpdateFarm(w http.ResponseWriter, r *http.Request) {
	g.withFarm(func(w http.ResponseWriter, r *http.Request, f model.Farm) {
		var req FarmRequest
		if err := decodeJSON(r, &req); err != nil {
			respondError(w, r, err)
			return
		}
		req.apply(&f)
		if err := g.deps.Store.UpdateFarm(r.Context(), &f); err != nil {
			respondError(w, r, err)
			return
		}
		updated, err := g.deps.Store.GetFarm(r.Context(), f.ID)
		if err != nil {
			respondError(w, r, err)
			return
		}
		respond(w, http.StatusOK, "Farm updated", updated)
	})(w, r)
}

func (g *Gateway) handleDeleteFarm(w http.ResponseWriter, r *http.Request) {
	if g.deps.Store == nil {
		respondError(w, r, errStoreUnavailable)
		return
	}
	id, err := farmID(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if err := g.deps.Store.DeleteFarm(r.Context(), id); err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, "Farm deleted", map[string]int64{"farm_id": id})
}

func (g *Gateway) handleFarmPredictions(w http.ResponseWriter, r *http.Request) {
	g.withFarm(func(w http.ResponseWriter, r *http.Request, f model.Farm) {
		analyses, err := g.deps.Store.FarmAnalyses(r.Context(), f.ID)
		if err != nil {
			respondError(w, r, err)
			return
		}
		respond(w, http.StatusOK, "Farm predictions retrieved", analyses)
	})(w, r)
}

func (g *Gateway) handleFarmInsights(w http.ResponseWriter, r *http.Request) {
	g.withFarm(func(w http.ResponseWriter, r *http.Request, f model.Farm) {
		insights, err := g.deps.Store.FarmInsights(r.Context(), f.ID)
		if err != nil {
			respondError(w, r, err)
			return
		}
		respond(w, http.StatusOK, "Farm insights retrieved", insights)
	})(w, r)
}

func (g *Gateway) handleAddInsight(w http.ResponseWriter, r *http.Request) {
	g.withFarm(func(w http.ResponseWriter, r *http.Request, f model.Farm) {
		var req InsightRequest
		if err := decodeJSON(r, &req); err != nil {
			respondError(w, r, err)
			return
		}
		in := model.Insight{
			FarmID:      f.ID,
			InsightType: req.InsightType,
			Title:       req.Title,
			Description: req.Description,
			ImpactLevel: req.ImpactLevel,
			Status:      req.Status,
		}
		if err := g.deps.Store.AddInsight(r.Context(), &in); err != nil {
			respondError(w, r, err)
			return
		}
		respond(w, http.StatusCreated, "Insight added", in)
	})(w, r)
}

// handleFarmTrend analizza i punteggi salvati dal più vecchio al più recente.
func (g *Gateway) handleFarmTrend(w http.ResponseWriter, r *http.Request) {
	g.withFarm(func(w http.ResponseWriter, r *http.Request, f model.Farm) {
		analyses, err := g.deps.Store.FarmAnalyses(r.Context(), f.ID)
		if err != nil {
			respondError(w, r, err)
			return
		}
		scores := make([]float64, len(analyses))
		for i, a := range analyses {
			scores[len(analyses)-1-i] = a.EfficiencyScore
		}
		respond(w, http.StatusOK, "Efficiency trend analyzed", map[string]any{
			"farm_id": f.ID,
			"trend":   efficiency.AnalyzeScores(scores),
		})
	})(w, r)
}
