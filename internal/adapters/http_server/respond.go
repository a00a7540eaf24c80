package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"owner_portal/internal/app"
	"owner_portal/internal/domain"
)

// apiError is the stable JSON error envelope for every failure the API
// returns. Details carry the vendor's own message and are withheld in prod.
type apiError struct {
	Error errorBody `json:"error"`
}

type errorBody struct {
	Message string `json:"message"`
	Status  int    `json:"status"`
	Details string `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("write JSON response failed")
	}
}

// writeRaw forwards an upstream JSON body untouched.
func writeRaw(w http.ResponseWriter, status int, body json.RawMessage) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Msg("write raw response failed")
	}
}

func (h *Handlers) writeError(w http.ResponseWriter, status int, msg, details string) {
	if h.Env != "dev" && h.Env != "development" {
		details = ""
	}
	writeJSON(w, status, apiError{Error: errorBody{Message: msg, Status: status, Details: details}})
}

// writeServiceError maps service-layer failures to HTTP statuses: validation
// → 400, missing records → 404, bad credentials → 401, vendor errors per
// kind, anything else → generic 500.
func (h *Handlers) writeServiceError(w http.ResponseWriter, err error) {
	var ve *app.ValidationError
	if errors.As(err, &ve) {
		h.writeError(w, http.StatusBadRequest, ve.Error(), "")
		return
	}
	if errors.Is(err, domain.ErrNotFound) {
		h.writeError(w, http.StatusNotFound, "not found", "")
		return
	}
	if errors.Is(err, domain.ErrInvalidCredentials) {
		h.writeError(w, http.StatusUnauthorized, "invalid credentials", "")
		return
	}
	if errors.Is(err, domain.ErrEstimateUnavailable) {
		h.writeError(w, http.StatusServiceUnavailable, "income estimate unavailable", "")
		return
	}
	if verr := domain.AsVendorError(err); verr != nil {
		h.writeError(w, vendorStatus(verr.Kind), verr.Message, verr.VendorMessage)
		return
	}
	log.Error().Err(err).Msg("unhandled service error")
	h.writeError(w, http.StatusInternalServerError, "internal server error", err.Error())
}

func vendorStatus(kind domain.VendorErrorKind) int {
	switch kind {
	case domain.VendorNotFound:
		return http.StatusNotFound
	case domain.VendorRateLimit:
		return http.StatusTooManyRequests
	case domain.VendorUnavailable:
		return http.StatusServiceUnavailable
	case domain.VendorTimeout:
		return http.StatusGatewayTimeout
	default: // auth, network, no_response, protocol
		return http.StatusBadGateway
	}
}
