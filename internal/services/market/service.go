// Package market fornisce prezzi di mercato, trend e previsioni di ricavo.
package market

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/LeonardoBeccarini/agrisense/internal/logging"
	"github.com/LeonardoBeccarini/agrisense/internal/model/entities"
)

const (
	SampleNote          = "Using sample price data"
	FallbackRevenueNote = "Using fallback revenue prediction"

	historyDays        = 30
	fallbackStdShare   = 0.1
	fallbackVolatility = 0.1
)

var ErrNoPriceData = errors.New("price data not found")

type HistoryPoint struct {
	Date  string  `json:"date"`
	Price float64 `json:"price"`
}

type CropPrice struct {
	Crop         string         `json:"crop"`
	CurrentPrice float64        `json:"current_price"`
	PriceDate    string         `json:"price_date"`
	Statistics   Statistics     `json:"statistics"`
	Trend        PriceTrend     `json:"trend"`
	PriceHistory []HistoryPoint `json:"price_history,omitempty"`
	Note         string         `json:"note,omitempty"`
}

type LatestPrice struct {
	CurrentPrice float64 `json:"current_price"`
	PriceDate    string  `json:"price_date,omitempty"`
}

type Summary struct {
	TotalCropsTracked      int     `json:"total_crops_tracked"`
	AverageMarketPrice     float64 `json:"average_market_price"`
	PriceVolatilityAverage float64 `json:"price_volatility_average"`
	HighestPricedCrop      string  `json:"highest_priced_crop"`
	LowestPricedCrop       string  `json:"lowest_priced_crop"`
}

type AllPrices struct {
	AllCrops      map[string]LatestPrice `json:"all_crops"`
	MarketSummary *Summary               `json:"market_summary,omitempty"`
	LastUpdated   string                 `json:"last_updated,omitempty"`
	Note          string                 `json:"note,omitempty"`
}

// Service è sicuro per l'uso concorrente; Reload sostituisce lo storico.
type Service struct {
	mu   sync.RWMutex
	hist history
	now  func() time.Time
}

func NewService(points []entities.PricePoint) *Service {
	return &Service{hist: newHistory(points), now: time.Now}
}

// Reload replaces the price history, e.g. after an import into the store.
func (s *Service) Reload(points []entities.PricePoint) {
	h := newHistory(points)
	s.mu.Lock()
	s.hist = h
	s.mu.Unlock()
	logging.Component("market").Info().Int("crops", len(h.labels)).Msg("market: price history reloaded")
}

// Price returns the latest price, statistics, trend and recent history for
// crop. With no dataset loaded it serves the sample prices; a crop missing
// from a loaded dataset yields ErrNoPriceData.
func (s *Service) Price(crop string) (CropPrice, error) {
	s.mu.RLock()
	h := s.hist
	s.mu.RUnlock()

	if h.empty() {
		return s.samplePrice(crop), nil
	}
	obs := h.lookup(Labels(crop))
	if len(obs) == 0 {
		return CropPrice{}, fmt.Errorf("%w for %s", ErrNoPriceData, crop)
	}
	last := obs[len(obs)-1]
	ps := prices(obs)

	from := len(obs) - historyDays
	if from < 0 {
		from = 0
	}
	recent := make([]HistoryPoint, 0, len(obs)-from)
	for _, o := range obs[from:] {
		recent = append(recent, HistoryPoint{Date: o.date.Format(dateLayout), Price: o.price})
	}
	return CropPrice{
		Crop:         crop,
		CurrentPrice: last.price,
		PriceDate:    last.date.Format(dateLayout),
		Statistics:   Describe(ps),
		Trend:        AnalyzeTrend(ps),
		PriceHistory: recent,
	}, nil
}

func (s *Service) samplePrice(crop string) CropPrice {
	p := FallbackPrice(crop)
	return CropPrice{
		Crop:         crop,
		CurrentPrice: p,
		PriceDate:    s.now().Format(time.RFC3339),
		Statistics: Statistics{
			AveragePrice: p,
			PriceStd:     p * fallbackStdShare,
			Volatility:   fallbackVolatility,
		},
		Trend: PriceTrend{Trend: TrendStable, Direction: TrendStable},
		Note:  SampleNote,
	}
}

// AllPrices returns the latest price of every dataset label and a summary.
func (s *Service) AllPrices() AllPrices {
	s.mu.RLock()
	h := s.hist
	s.mu.RUnlock()

	if h.empty() {
		all := make(map[string]LatestPrice, len(fallbackPrices))
		for c, p := range fallbackPrices {
			all[c] = LatestPrice{CurrentPrice: p}
		}
		return AllPrices{AllCrops: all, Note: SampleNote}
	}

	all := make(map[string]LatestPrice, len(h.labels))
	sum := Summary{TotalCropsTracked: len(h.labels)}
	var hi, lo = math.Inf(-1), math.Inf(1)
	for _, label := range h.labels {
		obs := h.series[label]
		last := obs[len(obs)-1]
		all[label] = LatestPrice{CurrentPrice: last.price, PriceDate: last.date.Format(dateLayout)}

		st := Describe(prices(obs))
		sum.AverageMarketPrice += st.AveragePrice
		sum.PriceVolatilityAverage += st.Volatility
		if st.AveragePrice > hi {
			hi, sum.HighestPricedCrop = st.AveragePrice, label
		}
		if st.AveragePrice < lo {
			lo, sum.LowestPricedCrop = st.AveragePrice, label
		}
	}
	n := float64(len(h.labels))
	sum.AverageMarketPrice /= n
	sum.PriceVolatilityAverage /= n

	return AllPrices{
		AllCrops:      all,
		MarketSummary: &sum,
		LastUpdated:   s.now().Format(time.RFC3339),
	}
}
