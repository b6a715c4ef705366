package app

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/LeonardoBeccarini/agrisense/internal/logging"
	"github.com/LeonardoBeccarini/agrisense/internal/services/market"
)

func (g *Gateway) handleMarketPrice(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSpace(r.URL.Query().Get("crop"))
	if name == "" {
		respond(w, http.StatusOK, "Market prices retrieved", g.deps.Market.AllPrices())
		return
	}
	p, err := g.deps.Market.Price(name)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, "Market price retrieved", p)
}

func (g *Gateway) handlePredictRevenue(w http.ResponseWriter, r *http.Request) {
	var req RevenueRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, "Revenue prediction generated", g.deps.Market.Revenue(req.Input()))
}

// handleImportPrices accetta un CSV (Date,Crop,Price_per_Ton_EGP) come body o come campo
// multipart "file", lo salva nello store e ricarica lo storico in memoria.
func (g *Gateway) handleImportPrices(w http.ResponseWriter, r *http.Request) {
	if g.deps.Store == nil {
		respondError(w, r, errStoreUnavailable)
		return
	}
	body, closeFn, err := csvBody(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	defer closeFn()

	points, err := market.ParseCSV(io.LimitReader(body, maxBodyBytes))
	if err != nil {
		respondError(w, r, fmt.Errorf("invalid price CSV: %w", err))
		return
	}
	n, err := g.deps.Store.ImportMarketPrices(r.Context(), points)
	if err != nil {
		respondError(w, r, err)
		return
	}
	all, err := g.deps.Store.MarketPrices(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	g.deps.Market.Reload(all)
	logging.Component("gateway").Info().Int("imported", n).Int("total", len(all)).Msg("gateway: market prices imported")

	respond(w, http.StatusOK, "Market prices imported", map[string]int{
		"imported": n,
		"total":    len(all),
	})
}

func csvBody(r *http.Request) (io.Reader, func(), error) {
	noop := func() {}
	mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mt != "multipart/form-data" {
		return r.Body, noop, nil
	}
	if err := r.ParseMultipartForm(maxBodyBytes); err != nil {
		return nil, noop, fmt.Errorf("invalid multipart body: %w", err)
	}
	f, _, err := r.FormFile("file")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, noop, errors.New("validation failed: missing required field: file")
		}
		return nil, noop, fmt.Errorf("invalid multipart body: %w", err)
	}
	return f, func() { _ = f.Close() }, nil
}
