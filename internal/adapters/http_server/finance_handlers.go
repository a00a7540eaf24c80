package httpserver

import (
	"context"
	"encoding/json"
	"net/http"

	"owner_portal/internal/app"
	"owner_portal/internal/domain"
)

// internalSourceHeader guards the internal webhook; only the reservation
// pipeline sets it.
const (
	internalSourceHeader = "x-internal-source"
	internalSourceValue  = "securestay.ai"
)

func (h *Handlers) financeConsolidated(w http.ResponseWriter, r *http.Request) {
	h.financeReport(w, r, h.Q.ConsolidatedReport)
}

func (h *Handlers) listingFinancials(w http.ResponseWriter, r *http.Request) {
	h.financeReport(w, r, h.Q.ListingFinancials)
}

func (h *Handlers) financeReport(w http.ResponseWriter, r *http.Request, run func(ctx context.Context, req app.ReportRequest) (json.RawMessage, error)) {
	var req app.ReportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "malformed JSON body", "")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.writeError(w, http.StatusBadRequest, "fromDate and toDate are required", "")
		return
	}

	body, err := run(r.Context(), req)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeRaw(w, http.StatusOK, body)
}

func (h *Handlers) newReservation(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get(internalSourceHeader) != internalSourceValue {
		h.writeError(w, http.StatusForbidden, "forbidden", "")
		return
	}

	var ev domain.ReservationEvent
	if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
		h.writeError(w, http.StatusBadRequest, "malformed JSON body", "")
		return
	}
	if err := h.validate.Struct(ev); err != nil {
		h.writeError(w, http.StatusBadRequest, "listingMapId is required", "")
		return
	}

	if err := h.Hooks.HandleNewReservation(r.Context(), ev); err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handlers) partnershipInfo(w http.ResponseWriter, r *http.Request) {
	rows, err := h.Repo.PartnershipForUser(r.Context(), userID(r.Context()))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	if rows == nil {
		rows = []domain.PartnershipEarning{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"result": rows})
}

type estimateRequest struct {
	Address string                 `json:"address" validate:"required"`
	Details domain.PropertyDetails `json:"details"`
}

func (h *Handlers) incomeEstimate(w http.ResponseWriter, r *http.Request) {
	var req estimateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "malformed JSON body", "")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.writeError(w, http.StatusBadRequest, "address is required", "")
		return
	}

	est, err := h.Estimator.EstimateIncome(r.Context(), req.Address, req.Details)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"result": est})
}
