package api

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"

	"stealthcompany.com/clinicdesk/internal/metrics"
)

// GetCurrentToken returns the last issued visit token without mutating the
// counter. Zero means no token has been issued yet.
func (s *Server) GetCurrentToken(w http.ResponseWriter, r *http.Request) {
	token, err := s.Tokens.Current(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to read token counter")
		writeError(w, http.StatusInternalServerError, genericInternalError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"token": token})
}

// ResetToken overwrites the counter. Operational recovery only; resetting
// below an issued value breaks token uniqueness, so the caller owns the
// consequences.
func (s *Server) ResetToken(w http.ResponseWriter, r *http.Request) {
	var req ResetTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON format")
		return
	}
	if err := validateRequest(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	uid, _ := GetUserFromContext(r.Context())
	if err := s.Tokens.Reset(r.Context(), req.Value); err != nil {
		log.Error().Err(err).Str("uid", uid).Msg("Failed to reset token counter")
		writeError(w, http.StatusInternalServerError, genericInternalError)
		return
	}
	log.Warn().Int64("value", req.Value).Str("uid", uid).Msg("Token counter reset via API")
	metrics.RecordVisitToken(req.Value)
	writeJSON(w, http.StatusOK, map[string]int64{"token": req.Value})
}
