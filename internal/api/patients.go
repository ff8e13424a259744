package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"stealthcompany.com/clinicdesk/internal/dal"
	"stealthcompany.com/clinicdesk/internal/metrics"
)

// RegisterPatient creates the patient record and its first visit in one go.
// The token is issued before either document exists; if the counter write
// fails nothing is created.
func (s *Server) RegisterPatient(w http.ResponseWriter, r *http.Request) {
	var req RegisterPatientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Warn().Err(err).Msg("Failed to decode registration request")
		metrics.RecordRegistration("invalid_json")
		writeError(w, http.StatusBadRequest, "Invalid JSON format")
		return
	}
	if err := validateRequest(&req); err != nil {
		log.Warn().Err(err).Msg("Registration validation failed")
		metrics.RecordRegistration("validation_failed")
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	uid, _ := GetUserFromContext(r.Context())

	token, err := s.Tokens.Next(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to issue visit token")
		metrics.RecordRegistration("error")
		writeError(w, http.StatusInternalServerError, genericInternalError)
		return
	}
	metrics.RecordVisitToken(token)

	patient, err := s.Patients.Create(r.Context(), dal.Patient{
		Name:       strings.TrimSpace(req.Name),
		Age:        *req.Age,
		BloodGroup: req.BloodGroup,
		Contact:    strings.TrimSpace(req.Contact),
		Disease:    strings.TrimSpace(req.Disease),
		CreatedBy:  uid,
	})
	if err != nil {
		log.Error().Err(err).Msg("Failed to create patient")
		metrics.RecordRegistration("error")
		writeError(w, http.StatusInternalServerError, genericInternalError)
		return
	}

	visit, err := s.Visits.Register(r.Context(), patient.ID, token, uid)
	if err != nil {
		log.Error().Err(err).Str("patientId", patient.ID).Msg("Failed to create visit")
		metrics.RecordRegistration("error")
		writeDomainError(w, err)
		return
	}

	metrics.RecordRegistration("success")
	writeJSON(w, http.StatusCreated, RegisterPatientResponse{
		Message:   "Patient registered successfully",
		PatientID: patient.ID,
		VisitID:   visit.ID,
		Token:     visit.Token,
		Patient:   patient,
	})
}

// ListPatients returns all patients, newest registration first.
func (s *Server) ListPatients(w http.ResponseWriter, r *http.Request) {
	patients, err := s.Patients.List(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to list patients")
		writeError(w, http.StatusInternalServerError, genericInternalError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"patients": patients})
}

// GetPatient returns a single patient by id.
func (s *Server) GetPatient(w http.ResponseWriter, r *http.Request) {
	patientID := mux.Vars(r)["patientId"]
	patient, err := s.Patients.GetByID(r.Context(), patientID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"patient": patient})
}

// PatientHistory returns the patient plus all their visits, newest first.
func (s *Server) PatientHistory(w http.ResponseWriter, r *http.Request) {
	patientID := mux.Vars(r)["patientId"]
	patient, err := s.Patients.GetByID(r.Context(), patientID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	visits, err := s.Visits.ListByPatient(r.Context(), patientID)
	if err != nil {
		log.Error().Err(err).Str("patientId", patientID).Msg("Failed to list patient visits")
		writeError(w, http.StatusInternalServerError, genericInternalError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"patient": patient,
		"visits":  visits,
	})
}

// SearchPatients finds patients by case-insensitive name prefix. Queries
// shorter than two characters are rejected rather than matching everyone.
func (s *Server) SearchPatients(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("query"))
	if len(query) < 2 {
		writeError(w, http.StatusBadRequest, "Search query must be at least 2 characters")
		return
	}
	patients, err := s.Patients.Search(r.Context(), query)
	if err != nil {
		log.Error().Err(err).Str("query", query).Msg("Patient search failed")
		writeError(w, http.StatusInternalServerError, genericInternalError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"patients": patients})
}
