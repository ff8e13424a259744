package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"stealthcompany.com/clinicdesk/internal/dal"
	"stealthcompany.com/clinicdesk/internal/metrics"
)

// Server wires the HTTP handlers to the domain models. The store behind the
// models is the only stateful collaborator; the server itself holds no
// per-request state.
type Server struct {
	Patients *dal.PatientModel
	Visits   *dal.VisitModel
	Tokens   *dal.TokenModel
	Users    *dal.UserModel
}

// NewServer builds the domain models on top of the given store.
func NewServer(store dal.Store) *Server {
	patients := dal.NewPatientModel(store)
	return &Server{
		Patients: patients,
		Visits:   dal.NewVisitModel(store, patients),
		Tokens:   dal.NewTokenModel(store),
		Users:    dal.NewUserModel(store),
	}
}

// SetupRoutes configures and returns the HTTP router
func (s *Server) SetupRoutes() *mux.Router {
	r := mux.NewRouter()

	// Add middleware to all routes
	r.Use(recoveryMiddleware)
	r.Use(metrics.MetricsMiddleware)
	r.Use(s.AuthMiddleware)

	staff := RequireRole(dal.RoleDoctor, dal.RoleReceptionist)
	doctor := RequireRole(dal.RoleDoctor)
	receptionist := RequireRole(dal.RoleReceptionist)

	// Patient routes. Search is registered before the {patientId} routes so
	// "search" never resolves as a patient id.
	r.HandleFunc("/patients/search", staff(s.SearchPatients)).Methods("GET")
	r.HandleFunc("/patients", receptionist(s.RegisterPatient)).Methods("POST")
	r.HandleFunc("/patients", staff(s.ListPatients)).Methods("GET")
	r.HandleFunc("/patients/{patientId}", staff(s.GetPatient)).Methods("GET")
	r.HandleFunc("/patients/{patientId}/history", staff(s.PatientHistory)).Methods("GET")

	// Prescription routes
	r.HandleFunc("/prescriptions", doctor(s.AddPrescription)).Methods("POST")
	r.HandleFunc("/prescriptions/pending", doctor(s.GetPendingVisits)).Methods("GET")
	r.HandleFunc("/prescriptions/visit/{visitId}", staff(s.GetVisitPrescription)).Methods("GET")
	r.HandleFunc("/prescriptions/patient/{patientId}", staff(s.GetPatientPrescriptions)).Methods("GET")

	// Billing routes
	r.HandleFunc("/billing", receptionist(s.GenerateBill)).Methods("POST")
	r.HandleFunc("/billing/completed", receptionist(s.GetCompletedVisits)).Methods("GET")
	r.HandleFunc("/billing/summary", receptionist(s.GetBillingSummary)).Methods("GET")
	r.HandleFunc("/billing/visit/{visitId}", staff(s.GetVisitBill)).Methods("GET")
	r.HandleFunc("/billing/patient/{patientId}", staff(s.GetPatientBills)).Methods("GET")

	// Token counter routes
	r.HandleFunc("/tokens/current", staff(s.GetCurrentToken)).Methods("GET")
	r.HandleFunc("/tokens/reset", receptionist(s.ResetToken)).Methods("POST")

	// Health check endpoint (no auth)
	r.HandleFunc(HealthPath, s.HealthHandler).Methods("GET")

	// Prometheus metrics endpoint
	r.Handle(MetricsPath, promhttp.Handler()).Methods("GET")

	// Unknown routes answer JSON like everything else
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		writeError(w, http.StatusNotFound, "Route not found")
	})

	return r
}

// recoveryMiddleware converts panics into generic 500s so a single bad
// request cannot take the process down.
func recoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				log.Error().
					Interface("panic", rec).
					Str("path", r.URL.Path).
					Msg("Recovered from handler panic")
				writeError(w, http.StatusInternalServerError, genericInternalError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
