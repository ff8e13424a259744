package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"stealthcompany.com/clinicdesk/internal/metrics"
)

// GenerateBill attaches a bill to a visit. Requires a prescription first and
// only ever succeeds once per visit.
func (s *Server) GenerateBill(w http.ResponseWriter, r *http.Request) {
	var req GenerateBillRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Warn().Err(err).Msg("Failed to decode billing request")
		metrics.RecordBill("invalid_json", 0)
		writeError(w, http.StatusBadRequest, "Invalid JSON format")
		return
	}
	if err := validateRequest(&req); err != nil {
		log.Warn().Err(err).Str("visitId", req.VisitID).Msg("Billing validation failed")
		metrics.RecordBill("validation_failed", 0)
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	uid, _ := GetUserFromContext(r.Context())

	bill, err := s.Visits.AttachBilling(r.Context(), req.VisitID, req.Amount, strings.TrimSpace(req.Description), uid)
	if err != nil {
		metrics.RecordBill(domainErrorResult(err), 0)
		writeDomainError(w, err)
		return
	}

	metrics.RecordBill("success", bill.Amount)
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "Bill generated successfully",
		"bill":    bill,
	})
}

// GetVisitBill returns the bill attached to a visit.
func (s *Server) GetVisitBill(w http.ResponseWriter, r *http.Request) {
	visitID := mux.Vars(r)["visitId"]
	visit, err := s.Visits.GetByID(r.Context(), visitID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if visit.Billing == nil {
		writeError(w, http.StatusNotFound, "No bill for this visit")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"bill":  visit.Billing,
		"visit": visitRef(visit),
	})
}

// GetPatientBills returns the patient's billing history, newest first.
func (s *Server) GetPatientBills(w http.ResponseWriter, r *http.Request) {
	patientID := mux.Vars(r)["patientId"]
	patient, err := s.Patients.GetByID(r.Context(), patientID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	bills, err := s.Visits.BillsByPatient(r.Context(), patientID)
	if err != nil {
		log.Error().Err(err).Str("patientId", patientID).Msg("Failed to list bills")
		writeError(w, http.StatusInternalServerError, genericInternalError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"patient": patient,
		"bills":   bills,
	})
}

// GetCompletedVisits lists the receptionist's queue: examined visits still
// awaiting a bill, oldest first.
func (s *Server) GetCompletedVisits(w http.ResponseWriter, r *http.Request) {
	visits, err := s.Visits.BillingQueue(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to list completed visits")
		writeError(w, http.StatusInternalServerError, genericInternalError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"visits": visits})
}

// GetBillingSummary aggregates all bills plus today's subset.
func (s *Server) GetBillingSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := s.Visits.BillingSummary(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to compute billing summary")
		writeError(w, http.StatusInternalServerError, genericInternalError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"summary": summary})
}
