package app

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/LeonardoBeccarini/agrisense/internal/logging"
)

type envelope struct {
	Status    string `json:"status"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
	Data      any    `json:"data,omitempty"`
}

const maxBodyBytes = 5 << 20

var errEmptyBody = errors.New("invalid request: empty JSON body")

func writeEnvelope(w http.ResponseWriter, code int, env envelope) {
	env.Timestamp = time.Now().UTC().Format(time.RFC3339)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(env)
}

func respond(w http.ResponseWriter, code int, message string, data any) {
	writeEnvelope(w, code, envelope{Status: "success", Message: message, Data: data})
}

// respondError sceglie lo status HTTP dalle parole chiave del messaggio.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	code := StatusFor(err)
	if code >= http.StatusInternalServerError {
		logging.Component("gateway").Error().Err(err).Str("path", r.URL.Path).
			Str("request_id", RequestIDFrom(r.Context())).Msg("request failed")
	}
	writeEnvelope(w, code, envelope{Status: "error", Message: err.Error()})
}

// StatusFor maps an error to an HTTP status from keywords in its message:
// "not found" 404, "permission"/"unauthorized" 403, "validation"/"invalid"
// 400, anything else 500.
func StatusFor(err error) int {
	if err == nil {
		return http.StatusOK
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "not found"):
		return http.StatusNotFound
	case strings.Contains(msg, "permission"), strings.Contains(msg, "unauthorized"):
		return http.StatusForbidden
	case strings.Contains(msg, "validation"), strings.Contains(msg, "invalid"):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// decodeJSON legge il body in dst e lo valida.
func decodeJSON(r *http.Request, dst any) error {
	b, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}
	if len(bytes.TrimSpace(b)) == 0 {
		return errEmptyBody
	}
	if err := json.Unmarshal(b, dst); err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return validateStruct(dst)
}
