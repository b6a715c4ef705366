package market

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/LeonardoBeccarini/agrisense/internal/model/entities"
)

const dateLayout = "2006-01-02"

var csvColumns = []string{"Date", "Crop", "Price_per_Ton_EGP"}

// ParseCSV legge lo storico prezzi (Date, Crop, Price_per_Ton_EGP).
// Le righe con data o prezzo non validi vengono scartate.
func ParseCSV(r io.Reader) ([]entities.PricePoint, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read price header: %w", err)
	}
	idx := make(map[string]int, len(csvColumns))
	for i, h := range header {
		idx[strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))] = i
	}
	for _, c := range csvColumns {
		if _, ok := idx[c]; !ok {
			return nil, fmt.Errorf("invalid price dataset: missing column %s", c)
		}
	}

	var out []entities.PricePoint
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read price row: %w", err)
		}
		if len(rec) < len(header) {
			continue
		}
		d, ok := parseDate(rec[idx["Date"]])
		if !ok {
			continue
		}
		p, err := strconv.ParseFloat(strings.TrimSpace(rec[idx["Price_per_Ton_EGP"]]), 64)
		if err != nil || math.IsNaN(p) || math.IsInf(p, 0) {
			continue
		}
		crop := strings.TrimSpace(rec[idx["Crop"]])
		if crop == "" {
			continue
		}
		out = append(out, entities.PricePoint{Crop: crop, PricePerTon: p, Date: d.Format(dateLayout)})
	}
	return out, nil
}

func LoadCSV(path string) ([]entities.PricePoint, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ParseCSV(f)
}

func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{dateLayout, time.RFC3339, "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

type observation struct {
	date  time.Time
	price float64
}

// history: serie per etichetta, ordinate per data.
type history struct {
	series map[string][]observation
	labels []string
}

func newHistory(points []entities.PricePoint) history {
	h := history{series: make(map[string][]observation)}
	for _, p := range points {
		d, ok := parseDate(p.Date)
		if !ok {
			continue
		}
		h.series[p.Crop] = append(h.series[p.Crop], observation{date: d, price: p.PricePerTon})
	}
	for label, s := range h.series {
		sort.SliceStable(s, func(i, j int) bool { return s[i].date.Before(s[j].date) })
		h.labels = append(h.labels, label)
	}
	sort.Strings(h.labels)
	return h
}

func (h history) empty() bool { return len(h.series) == 0 }

// lookup merges the series of all labels, in date order.
func (h history) lookup(labels []string) []observation {
	var out []observation
	for _, l := range labels {
		out = append(out, h.series[l]...)
	}
	if len(labels) > 1 {
		sort.SliceStable(out, func(i, j int) bool { return out[i].date.Before(out[j].date) })
	}
	return out
}

func prices(obs []observation) []float64 {
	out := make([]float64, len(obs))
	for i, o := range obs {
		out[i] = o.price
	}
	return out
}
