package app

import (
	"context"
	"math"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/LeonardoBeccarini/agrisense/internal/logging"
	"github.com/LeonardoBeccarini/agrisense/internal/model"
	"github.com/LeonardoBeccarini/agrisense/internal/services/persistence"
)

const (
	SourceLive  = "live"
	SourceCache = "cache"
	SourceNone  = "none"

	streamFarmPrefix = "farm-"
)

// scoreCache conserva l'ultima risposta valida dello score store, servita
// quando l'upstream fallisce o il breaker è aperto.
type scoreCache struct {
	mu     sync.RWMutex
	scores []persistence.ScorePoint
	at     time.Time
}

func (c *scoreCache) set(s []persistence.ScorePoint) {
	c.mu.Lock()
	c.scores = append([]persistence.ScorePoint(nil), s...)
	c.at = time.Now()
	c.mu.Unlock()
}

func (c *scoreCache) get() ([]persistence.ScorePoint, time.Time, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.at.IsZero() {
		return nil, time.Time{}, false
	}
	return append([]persistence.ScorePoint(nil), c.scores...), c.at, true
}

type DashboardFarm struct {
	model.Farm
	LatestScore *persistence.ScorePoint `json:"latest_score,omitempty"`
}

type DashboardData struct {
	Farms        []DashboardFarm          `json:"farms"`
	StreamScores []persistence.ScorePoint `json:"stream_scores"`
	Stats        map[string]float64       `json:"stats"`
	Source       string                   `json:"source"`
	CachedAt     string                   `json:"cached_at,omitempty"`
}

// StreamFarmID è l'id con cui il simulatore pubblica le letture della farm.
func StreamFarmID(id int64) string { return streamFarmPrefix + strconv.FormatInt(id, 10) }

func parseStreamFarmID(s string) (int64, bool) {
	if !strings.HasPrefix(s, streamFarmPrefix) {
		return 0, false
	}
	id, err := strconv.ParseInt(strings.TrimPrefix(s, streamFarmPrefix), 10, 64)
	return id, err == nil
}

func (g *Gateway) handleDashboard(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), g.cfg.UpstreamTimeout)
	defer cancel()

	var (
		farms    []model.Farm
		latest   []persistence.ScorePoint
		scoreErr error
	)
	// Fetch in parallelo: solo l'errore dello store è fatale
	var eg errgroup.Group
	eg.Go(func() error {
		if g.deps.Store == nil {
			farms = []model.Farm{}
			return nil
		}
		var err error
		farms, err = g.deps.Store.ListFarms(ctx)
		return err
	})
	eg.Go(func() error {
		scoreErr = g.scores.GetJSON(ctx, &latest)
		return nil
	})
	if err := eg.Wait(); err != nil {
		respondError(w, r, err)
		return
	}

	data := DashboardData{
		Farms:        make([]DashboardFarm, 0, len(farms)),
		StreamScores: []persistence.ScorePoint{},
		Stats:        map[string]float64{},
		Source:       SourceNone,
	}
	switch {
	case scoreErr == nil && g.scores.Configured():
		g.lastScores.set(latest)
		data.StreamScores, data.Source = latest, SourceLive
	case scoreErr != nil:
		logging.Component("gateway").Warn().Err(scoreErr).Msg("gateway: score store unavailable")
		if cached, at, ok := g.lastScores.get(); ok {
			data.StreamScores, data.Source = cached, SourceCache
			data.CachedAt = at.UTC().Format(time.RFC3339)
		}
	}
	if data.StreamScores == nil {
		data.StreamScores = []persistence.ScorePoint{}
	}
	sort.Slice(data.StreamScores, func(i, j int) bool {
		return data.StreamScores[i].FarmID < data.StreamScores[j].FarmID
	})

	byFarm := make(map[int64]*persistence.ScorePoint, len(data.StreamScores))
	for i := range data.StreamScores {
		if id, ok := parseStreamFarmID(data.StreamScores[i].FarmID); ok {
			byFarm[id] = &data.StreamScores[i]
		}
	}
	for _, f := range farms {
		data.Farms = append(data.Farms, DashboardFarm{Farm: f, LatestScore: byFarm[f.ID]})
	}
	data.Stats = scoreStats(data.StreamScores)
	data.Stats["farms"] = float64(len(farms))

	w.Header().Set("X-Data-Source", data.Source)
	respond(w, http.StatusOK, "Dashboard data retrieved", data)
}

// Statistiche punteggi per la UI
func scoreStats(scores []persistence.ScorePoint) map[string]float64 {
	stats := map[string]float64{}
	n := len(scores)
	if n == 0 {
		return stats
	}
	var sum float64
	minv, maxv := math.MaxFloat64, -math.MaxFloat64
	for _, s := range scores {
		v := s.FinalScore
		sum += v
		minv = math.Min(minv, v)
		maxv = math.Max(maxv, v)
	}
	stats["mean"] = math.Round(sum/float64(n)*1000) / 1000
	stats["min"] = minv
	stats["max"] = maxv
	stats["streaming_farms"] = float64(n)
	return stats
}
