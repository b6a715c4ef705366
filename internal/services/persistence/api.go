package persistence

import (
	"context"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

var farmIDPattern = regexp.MustCompile(`^[A-Za-z0-9_.:-]{1,64}$`)

type scoreQueryParams struct {
	Minutes   int
	Limit     int
	TimeoutMS int
}

func parseScoreQuery(r *http.Request, defMin, defLim, defTOms int) scoreQueryParams {
	q := r.URL.Query()
	get := func(k string, def, min, max int) int {
		if v := strings.TrimSpace(q.Get(k)); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				if n < min {
					return min
				}
				if max > 0 && n > max {
					return max
				}
				return n
			}
		}
		return def
	}
	return scoreQueryParams{
		Minutes:   get("minutes", defMin, 1, 7*24*60),
		Limit:     get("limit", defLim, 1, 500),
		TimeoutMS: get("timeout_ms", defTOms, 200, 5000),
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// NewHTTPMux espone le API di lettura dei punteggi.
//
//	GET /scores/latest?source=auto|influx|cache&minutes=1440
//	GET /scores/history?farm_id=farm-1&minutes=1440&limit=100
func NewHTTPMux(svc *Service, health, ready http.Handler) *http.ServeMux {
	mux := http.NewServeMux()
	if health != nil {
		mux.Handle("/healthz", health)
	}
	if ready != nil {
		mux.Handle("/readyz", ready)
	}

	mux.HandleFunc("/scores/latest", func(w http.ResponseWriter, r *http.Request) {
		source := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("source")))
		if source == "" {
			source = "auto"
		}
		p := parseScoreQuery(r, 24*60, 0, 2000)

		ctx, cancel := context.WithTimeout(r.Context(), time.Duration(p.TimeoutMS)*time.Millisecond)
		defer cancel()

		var list []ScorePoint
		used := ""
		if source == "influx" || source == "auto" {
			var err error
			list, err = svc.QueryLatestFromInflux(ctx, p.Minutes)
			if err == nil && len(list) > 0 {
				used = "influx"
			} else if err != nil {
				w.Header().Set("X-Error", "influx-query-error")
			}
		}
		if used == "" {
			list = svc.LatestCache()
			used = "cache"
		}
		w.Header().Set("X-Data-Source", used)
		writeJSON(w, http.StatusOK, list)
	})

	mux.HandleFunc("/scores/history", func(w http.ResponseWriter, r *http.Request) {
		farmID := strings.TrimSpace(r.URL.Query().Get("farm_id"))
		if !farmIDPattern.MatchString(farmID) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid farm_id"})
			return
		}
		p := parseScoreQuery(r, 24*60, 100, 2000)

		ctx, cancel := context.WithTimeout(r.Context(), time.Duration(p.TimeoutMS)*time.Millisecond)
		defer cancel()

		list, err := svc.QueryHistory(ctx, farmID, p.Minutes, p.Limit)
		used := "influx"
		if err != nil {
			w.Header().Set("X-Error", "influx-query-error")
			list = svc.CachedHistory(farmID)
			used = "cache"
		}
		w.Header().Set("X-Data-Source", used)
		writeJSON(w, http.StatusOK, list)
	})

	return mux
}
