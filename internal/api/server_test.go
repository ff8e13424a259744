package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/require"

	"stealthcompany.com/clinicdesk/internal/dal"
)

// newTestServer wires the full router against an in-memory store with two
// seeded staff profiles, so handler tests go through auth, role checks and
// routing exactly like production traffic.
func newTestServer(t *testing.T) (*Server, *dal.MemoryStore, *mux.Router) {
	t.Helper()
	store := dal.NewMemoryStore()
	seedUser(t, store, "doc-1", dal.RoleDoctor)
	seedUser(t, store, "desk-1", dal.RoleReceptionist)
	server := NewServer(store)
	return server, store, server.SetupRoutes()
}

func seedUser(t *testing.T, store dal.Store, uid, role string) {
	t.Helper()
	err := store.Upsert(context.Background(), dal.CollectionUsers, uid, dal.UserProfile{
		UID:       uid,
		Role:      role,
		CreatedAt: time.Now().UTC(),
	})
	require.NoError(t, err)
}

// bearerFor mints a structurally valid token for the uid. Signature
// verification is off in tests (no AUTH_JWT_SECRET), matching the deployment
// where the identity provider terminates in front of the service.
func bearerFor(t *testing.T, uid string) string {
	t.Helper()
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &JWTClaims{
		Sub:               uid,
		Iat:               now.Add(-time.Minute).Unix(),
		Exp:               now.Add(time.Hour).Unix(),
		PreferredUsername: uid,
	})
	signed, err := token.SignedString([]byte("test-only"))
	require.NoError(t, err)
	return BearerPrefix + signed
}

// expiredBearer mints a token whose exp is already in the past.
func expiredBearer(t *testing.T, uid string) string {
	t.Helper()
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &JWTClaims{
		Sub: uid,
		Iat: now.Add(-2 * time.Hour).Unix(),
		Exp: now.Add(-time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte("test-only"))
	require.NoError(t, err)
	return BearerPrefix + signed
}

func doRequest(t *testing.T, router *mux.Router, method, path, auth string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if auth != "" {
		req.Header.Set(AuthorizationHeader, auth)
	}
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
	return out
}

// registerPatientReq is the canonical valid registration payload used across
// the handler tests.
func registerPatientReq() map[string]interface{} {
	return map[string]interface{}{
		"name":       "Asha Rao",
		"age":        30,
		"bloodGroup": "O+",
		"contact":    "9998887777",
		"disease":    "fever",
	}
}

// registerPatient drives a full registration and returns patientId, visitId
// and the issued token.
func registerPatient(t *testing.T, router *mux.Router) (string, string, int64) {
	t.Helper()
	rr := doRequest(t, router, http.MethodPost, "/patients", bearerFor(t, "desk-1"), registerPatientReq())
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	body := decodeBody(t, rr)
	return body["patientId"].(string), body["visitId"].(string), int64(body["token"].(float64))
}

// attachPrescription drives a prescription attachment for a visit.
func attachPrescription(t *testing.T, router *mux.Router, visitID string) {
	t.Helper()
	rr := doRequest(t, router, http.MethodPost, "/prescriptions", bearerFor(t, "doc-1"), map[string]interface{}{
		"visitId": visitID,
		"medicines": []map[string]string{
			{"name": "Paracetamol", "dosage": "500mg", "instructions": "twice daily"},
		},
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
}
