// internal/adapters/http_server/handlers.go
package httpserver

import (
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"owner_portal/internal/app"
	"owner_portal/internal/domain"
)

type Handlers struct {
	Q         *app.QueryService
	Auth      *app.AuthService
	Hooks     *app.WebhookService
	Estimator domain.IncomeEstimator
	Repo      domain.UserRepository

	Env       string
	StaticDir string
	Started   time.Time

	validate *validator.Validate
}

func (s *Server) MountHandlers(h *Handlers) {
	if h.validate == nil {
		h.validate = validator.New()
	}
	if h.Started.IsZero() {
		h.Started = time.Now()
	}

	s.mux.Get("/health", h.health)

	s.mux.Route("/api", func(r chi.Router) {
		r.Post("/auth/login", h.login)

		r.Group(func(pr chi.Router) {
			pr.Use(h.requireAuth)
			pr.Get("/auth/me", h.me)
			pr.Post("/auth/fcm-token", h.registerFCMToken)
			pr.Get("/getpartnershipinfo", h.partnershipInfo)
		})

		r.Group(func(rr chi.Router) {
			rr.Use(h.optionalAuth)
			rr.Get("/listings", h.listings)
			rr.Get("/listings/{id}", h.listingByID)
			rr.Get("/reservations", h.reservations)
			rr.Get("/reservations/{id}", h.reservationByID)
			rr.Get("/calendar", h.calendar)
		})

		r.Post("/finance/report/consolidated", h.financeConsolidated)
		r.Post("/finance/report/listingFinancials", h.listingFinancials)

		r.Post("/new-reservation", h.newReservation)
		r.Post("/income-estimate", h.incomeEstimate)

		r.NotFound(func(w http.ResponseWriter, r *http.Request) {
			h.writeError(w, http.StatusNotFound, "route not found: "+r.URL.Path, "")
		})
	})

	// everything else is the bundled front-end
	s.mux.NotFound(h.static)
}

func (h *Handlers) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":      "ok",
		"timestamp":   time.Now().UTC().Format(time.RFC3339),
		"uptime":      int64(time.Since(h.Started).Seconds()),
		"environment": h.Env,
	})
}

func (h *Handlers) listings(w http.ResponseWriter, r *http.Request) {
	body, err := h.Q.Listings(r.Context())
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeRaw(w, http.StatusOK, body)
}

func (h *Handlers) listingByID(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "id must be a number", "")
		return
	}
	body, err := h.Q.ListingByID(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeRaw(w, http.StatusOK, body)
}

func (h *Handlers) reservations(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	body, err := h.Q.Reservations(r.Context(), app.ReservationsParams{
		ListingID:        q.Get("listingId"),
		ArrivalStartDate: q.Get("arrivalStartDate"),
		DepartureEndDate: q.Get("departureEndDate"),
		Status:           q.Get("status"),
		Search:           q.Get("search"),
		Limit:            q.Get("limit"),
		Offset:           q.Get("offset"),
		ActingUserID:     h.actingHostawayID(r),
	})
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeRaw(w, http.StatusOK, body)
}

func (h *Handlers) reservationByID(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "id must be a number", "")
		return
	}
	body, err := h.Q.ReservationByID(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeRaw(w, http.StatusOK, body)
}

func (h *Handlers) calendar(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	body, err := h.Q.Calendar(r.Context(), q.Get("listingId"), q.Get("startDate"), q.Get("endDate"))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeRaw(w, http.StatusOK, body)
}

// static serves the bundled front-end. Unknown paths fall back to
// index.html so the SPA router can take over.
func (h *Handlers) static(w http.ResponseWriter, r *http.Request) {
	if h.StaticDir == "" {
		http.NotFound(w, r)
		return
	}
	clean := filepath.Clean(strings.TrimPrefix(r.URL.Path, "/"))
	if clean == "." || strings.HasPrefix(clean, "..") {
		clean = "index.html"
	}
	path := filepath.Join(h.StaticDir, clean)
	if st, err := os.Stat(path); err != nil || st.IsDir() {
		path = filepath.Join(h.StaticDir, "index.html")
	}
	http.ServeFile(w, r, path)
}
