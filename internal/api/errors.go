package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"stealthcompany.com/clinicdesk/internal/dal"
)

// genericInternalError is the only detail a caller sees for a 500; the full
// error goes to the operational log.
const genericInternalError = "Internal server error"

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}

// writeError writes a JSON error body.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeDomainError maps a model error onto the HTTP taxonomy: not-found 404,
// duplicate attachment 409, billing-before-prescription 400, everything else
// a generic 500.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, dal.ErrPatientNotFound):
		writeError(w, http.StatusNotFound, "Patient not found")
	case errors.Is(err, dal.ErrVisitNotFound):
		writeError(w, http.StatusNotFound, "Visit not found")
	case errors.Is(err, dal.ErrAlreadyPrescribed):
		writeError(w, http.StatusConflict, "Prescription already exists for this visit")
	case errors.Is(err, dal.ErrAlreadyBilled):
		writeError(w, http.StatusConflict, "Bill already exists for this visit")
	case errors.Is(err, dal.ErrNoPrescription):
		writeError(w, http.StatusBadRequest, "Prescription must be added before generating bill")
	default:
		log.Error().Err(err).Msg("Unhandled store error")
		writeError(w, http.StatusInternalServerError, genericInternalError)
	}
}

// domainErrorResult labels an error for the business metrics.
func domainErrorResult(err error) string {
	switch {
	case errors.Is(err, dal.ErrPatientNotFound), errors.Is(err, dal.ErrVisitNotFound):
		return "not_found"
	case errors.Is(err, dal.ErrAlreadyPrescribed), errors.Is(err, dal.ErrAlreadyBilled):
		return "conflict"
	case errors.Is(err, dal.ErrNoPrescription):
		return "precondition_failed"
	default:
		return "error"
	}
}
