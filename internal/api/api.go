package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"donation-service/internal/middleware"
	"donation-service/internal/model"
	"donation-service/internal/repository"
	"donation-service/internal/service"
)

// WrappedResponse is the envelope for donation listings.
type WrappedResponse struct {
	Data   []model.EnrichedDonation `json:"data"`
	Offset int                      `json:"offset"`
	Limit  int                      `json:"limit"`
}

type ApiServer struct {
	svc service.DonationService
}

func NewApiServer(svc service.DonationService) *ApiServer {
	return &ApiServer{
		svc: svc,
	}
}

// Router builds the HTTP surface. The enrichment mode travels as the
// "schema" query parameter on every route; donations cannot be removed,
// so DELETE answers 405 explicitly.
func (s *ApiServer) Router() *mux.Router {
	router := mux.NewRouter()
	router.Use(middleware.LoggingMiddleware(middleware.Logger))

	router.HandleFunc("/donations", s.handleCreateDonation).Methods("POST")
	router.HandleFunc("/donations", s.handleFindDonations).Methods("GET")
	router.HandleFunc("/donations/{id}", s.handleGetDonation).Methods("GET")
	router.HandleFunc("/donations/{id}", s.handleUpdateDonation).Methods("PUT")
	router.HandleFunc("/donations/{id}", s.handlePatchDonation).Methods("PATCH")
	router.HandleFunc("/donations/{id}", s.handleDeleteDonation).Methods("DELETE")

	return router
}

func requestMode(r *http.Request) service.Mode {
	return service.Mode(r.URL.Query().Get("schema"))
}

func (s *ApiServer) handleCreateDonation(w http.ResponseWriter, r *http.Request) {
	logger := middleware.FromContext(r.Context())

	var donation model.Donation
	if err := json.NewDecoder(r.Body).Decode(&donation); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "Invalid donation payload"})
		return
	}

	created, err := s.svc.Create(r.Context(), donation, requestMode(r))
	if err != nil {
		logger.Error("Error creating donation", "error", err)
		writeJSON(w, statusFor(err), map[string]any{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusCreated, created)
}

func (s *ApiServer) handleFindDonations(w http.ResponseWriter, r *http.Request) {
	logger := middleware.FromContext(r.Context())

	offsetParam := r.URL.Query().Get("offset")
	offset := 0
	if offsetParam != "" {
		parsed, err := strconv.Atoi(offsetParam)
		if err != nil || parsed < 0 {
			logger.Error("Invalid offset parameter", "offset", offsetParam)
			writeJSON(w, http.StatusBadRequest, map[string]any{"error": "Invalid offset parameter"})
			return
		}
		offset = parsed
	}

	filter := repository.DonationFilter{
		DonorAddress: r.URL.Query().Get("donorAddress"),
		OwnerID:      r.URL.Query().Get("ownerId"),
		Offset:       offset,
	}

	donations, err := s.svc.Find(r.Context(), filter, requestMode(r))
	if err != nil {
		logger.Error("Error fetching donations", "error", err)
		writeJSON(w, statusFor(err), map[string]any{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, WrappedResponse{Data: donations, Offset: offset, Limit: repository.PageSize})
}

func (s *ApiServer) handleGetDonation(w http.ResponseWriter, r *http.Request) {
	logger := middleware.FromContext(r.Context())

	donation, err := s.svc.Get(r.Context(), mux.Vars(r)["id"], requestMode(r))
	if err != nil {
		logger.Error("Error fetching donation", "error", err)
		writeJSON(w, statusFor(err), map[string]any{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, donation)
}

func (s *ApiServer) handleUpdateDonation(w http.ResponseWriter, r *http.Request) {
	logger := middleware.FromContext(r.Context())

	var donation model.Donation
	if err := json.NewDecoder(r.Body).Decode(&donation); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "Invalid donation payload"})
		return
	}

	updated, err := s.svc.Update(r.Context(), mux.Vars(r)["id"], donation, requestMode(r))
	if err != nil {
		logger.Error("Error updating donation", "error", err)
		writeJSON(w, statusFor(err), map[string]any{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, updated)
}

func (s *ApiServer) handlePatchDonation(w http.ResponseWriter, r *http.Request) {
	logger := middleware.FromContext(r.Context())

	var fields map[string]any
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "Invalid patch payload"})
		return
	}

	updated, err := s.svc.Patch(r.Context(), mux.Vars(r)["id"], fields, requestMode(r))
	if err != nil {
		logger.Error("Error patching donation", "error", err)
		writeJSON(w, statusFor(err), map[string]any{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, updated)
}

func (s *ApiServer) handleDeleteDonation(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusMethodNotAllowed, map[string]any{"error": "Donations cannot be removed"})
}

func statusFor(err error) int {
	var validation *service.ValidationError
	switch {
	case errors.As(err, &validation):
		return http.StatusBadRequest
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusUnprocessableEntity
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	return json.NewEncoder(w).Encode(v)
}
