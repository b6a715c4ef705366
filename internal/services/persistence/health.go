package persistence

import (
	"context"
	"net/http"
	"time"
)

type connChecker interface {
	IsConnectionOpen() bool
}

type pinger interface {
	Ping(ctx context.Context) (bool, error)
}

type healthHandler struct {
	mqtt   connChecker
	influx pinger
	svc    *Service
}

func NewHealthHandler(m connChecker, i pinger, svc *Service) http.Handler {
	return &healthHandler{mqtt: m, influx: i, svc: svc}
}

func influxUp(ctx context.Context, p pinger) bool {
	if p == nil {
		return false
	}
	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	ok, err := p.Ping(ctx)
	return ok && err == nil
}

func (h *healthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	type status struct {
		Status          string  `json:"status"`
		MQTTConnected   bool    `json:"mqtt_connected"`
		InfluxOK        bool    `json:"influx_ok"`
		LastWriteErrorS float64 `json:"last_write_error_age_sec"`
	}
	age := h.svc.LastErrorAge()
	st := status{
		MQTTConnected:   h.mqtt != nil && h.mqtt.IsConnectionOpen(),
		InfluxOK:        influxUp(r.Context(), h.influx),
		LastWriteErrorS: age.Seconds(),
	}

	// ok se deps ok e nessun errore recente di scrittura
	switch {
	case st.MQTTConnected && st.InfluxOK && age > 30*time.Second:
		st.Status = "ok"
	case st.MQTTConnected || st.InfluxOK:
		st.Status = "degraded"
	default:
		st.Status = "down"
	}
	writeJSON(w, http.StatusOK, st)
}

// Handler /readyz: 200 solo se tutte le dipendenze sono ok.
type readyHandler struct {
	mqtt     connChecker
	influx   pinger
	svc      *Service
	minError time.Duration
}

func NewReadyHandler(m connChecker, i pinger, svc *Service, minOkErrorAge time.Duration) http.Handler {
	return &readyHandler{mqtt: m, influx: i, svc: svc, minError: minOkErrorAge}
}

func (h *readyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ready := h.mqtt != nil && h.mqtt.IsConnectionOpen() &&
		influxUp(r.Context(), h.influx) &&
		h.svc.LastErrorAge() > h.minError
	code := http.StatusOK
	if !ready {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, map[string]bool{"ready": ready})
}
