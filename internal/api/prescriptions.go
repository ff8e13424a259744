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

// AddPrescription attaches a prescription to a visit. Exactly-once: a second
// call for the same visit gets a conflict.
func (s *Server) AddPrescription(w http.ResponseWriter, r *http.Request) {
	var req AddPrescriptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Warn().Err(err).Msg("Failed to decode prescription request")
		metrics.RecordPrescription("invalid_json")
		writeError(w, http.StatusBadRequest, "Invalid JSON format")
		return
	}
	if err := validateRequest(&req); err != nil {
		log.Warn().Err(err).Str("visitId", req.VisitID).Msg("Prescription validation failed")
		metrics.RecordPrescription("validation_failed")
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	uid, _ := GetUserFromContext(r.Context())

	medicines := make([]dal.Medicine, 0, len(req.Medicines))
	for _, m := range req.Medicines {
		medicines = append(medicines, dal.Medicine{
			Name:         strings.TrimSpace(m.Name),
			Dosage:       strings.TrimSpace(m.Dosage),
			Instructions: strings.TrimSpace(m.Instructions),
		})
	}

	rx, err := s.Visits.AttachPrescription(r.Context(), req.VisitID, medicines, strings.TrimSpace(req.Notes), uid)
	if err != nil {
		metrics.RecordPrescription(domainErrorResult(err))
		writeDomainError(w, err)
		return
	}

	metrics.RecordPrescription("success")
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"message":      "Prescription added successfully",
		"prescription": rx,
	})
}

// GetVisitPrescription returns the prescription attached to a visit.
func (s *Server) GetVisitPrescription(w http.ResponseWriter, r *http.Request) {
	visitID := mux.Vars(r)["visitId"]
	visit, err := s.Visits.GetByID(r.Context(), visitID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if visit.Prescription == nil {
		writeError(w, http.StatusNotFound, "No prescription for this visit")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"prescription": visit.Prescription,
		"visit":        visitRef(visit),
	})
}

// GetPatientPrescriptions returns the patient's prescription history, newest
// first.
func (s *Server) GetPatientPrescriptions(w http.ResponseWriter, r *http.Request) {
	patientID := mux.Vars(r)["patientId"]
	patient, err := s.Patients.GetByID(r.Context(), patientID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	prescriptions, err := s.Visits.PrescriptionsByPatient(r.Context(), patientID)
	if err != nil {
		log.Error().Err(err).Str("patientId", patientID).Msg("Failed to list prescriptions")
		writeError(w, http.StatusInternalServerError, genericInternalError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"patient":       patient,
		"prescriptions": prescriptions,
	})
}

// GetPendingVisits lists the doctor's queue: registered visits awaiting
// examination, oldest first.
func (s *Server) GetPendingVisits(w http.ResponseWriter, r *http.Request) {
	visits, err := s.Visits.PendingQueue(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to list pending visits")
		writeError(w, http.StatusInternalServerError, genericInternalError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"visits": visits})
}
