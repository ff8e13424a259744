package api

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterPatientIssuesFirstToken(t *testing.T) {
	_, _, router := newTestServer(t)

	rr := doRequest(t, router, http.MethodPost, "/patients", bearerFor(t, "desk-1"), registerPatientReq())
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	body := decodeBody(t, rr)
	assert.Equal(t, float64(1), body["token"])
	assert.NotEmpty(t, body["patientId"])
	assert.NotEmpty(t, body["visitId"])

	patient := body["patient"].(map[string]interface{})
	assert.Equal(t, "Asha Rao", patient["name"])

	// The created visit starts registered.
	visitID := body["visitId"].(string)
	rr = doRequest(t, router, http.MethodGet, "/patients/"+body["patientId"].(string)+"/history", bearerFor(t, "doc-1"), nil)
	require.Equal(t, http.StatusOK, rr.Code)
	visits := decodeBody(t, rr)["visits"].([]interface{})
	require.Len(t, visits, 1)
	visit := visits[0].(map[string]interface{})
	assert.Equal(t, visitID, visit["id"])
	assert.Equal(t, "registered", visit["status"])
}

func TestRegisterPatientTokensIncrement(t *testing.T) {
	_, _, router := newTestServer(t)

	for want := int64(1); want <= 3; want++ {
		_, _, token := registerPatient(t, router)
		assert.Equal(t, want, token)
	}
}

func TestRegisterPatientValidation(t *testing.T) {
	_, _, router := newTestServer(t)

	tests := []struct {
		name           string
		mutate         func(map[string]interface{})
		expectedStatus int
	}{
		{
			name:           "Valid payload succeeds",
			mutate:         func(m map[string]interface{}) {},
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "Boundary age with rare blood group succeeds",
			mutate:         func(m map[string]interface{}) { m["age"] = 150; m["bloodGroup"] = "O-" },
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "Age zero succeeds",
			mutate:         func(m map[string]interface{}) { m["age"] = 0 },
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "Negative age fails",
			mutate:         func(m map[string]interface{}) { m["age"] = -1 },
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "Age above bound fails",
			mutate:         func(m map[string]interface{}) { m["age"] = 151 },
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "Unknown blood group fails",
			mutate:         func(m map[string]interface{}) { m["bloodGroup"] = "X+" },
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "Missing name fails",
			mutate:         func(m map[string]interface{}) { delete(m, "name") },
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "Single-character name fails",
			mutate:         func(m map[string]interface{}) { m["name"] = "A" },
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "Short contact fails",
			mutate:         func(m map[string]interface{}) { m["contact"] = "12345" },
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "Contact with letters fails",
			mutate:         func(m map[string]interface{}) { m["contact"] = "99988x7777" },
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "Contact with phone punctuation succeeds",
			mutate:         func(m map[string]interface{}) { m["contact"] = "+91 999-888" },
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "Missing disease fails",
			mutate:         func(m map[string]interface{}) { delete(m, "disease") },
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload := registerPatientReq()
			tt.mutate(payload)
			rr := doRequest(t, router, http.MethodPost, "/patients", bearerFor(t, "desk-1"), payload)
			assert.Equal(t, tt.expectedStatus, rr.Code, rr.Body.String())
		})
	}
}

func TestRegisterPatientInvalidJSON(t *testing.T) {
	_, _, router := newTestServer(t)

	rr := doRequest(t, router, http.MethodPost, "/patients", bearerFor(t, "desk-1"), "not an object")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestGetPatient(t *testing.T) {
	_, _, router := newTestServer(t)
	patientID, _, _ := registerPatient(t, router)

	rr := doRequest(t, router, http.MethodGet, "/patients/"+patientID, bearerFor(t, "doc-1"), nil)
	require.Equal(t, http.StatusOK, rr.Code)
	patient := decodeBody(t, rr)["patient"].(map[string]interface{})
	assert.Equal(t, patientID, patient["id"])

	rr = doRequest(t, router, http.MethodGet, "/patients/no-such-id", bearerFor(t, "doc-1"), nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestListPatients(t *testing.T) {
	_, _, router := newTestServer(t)
	registerPatient(t, router)
	registerPatient(t, router)

	rr := doRequest(t, router, http.MethodGet, "/patients", bearerFor(t, "desk-1"), nil)
	require.Equal(t, http.StatusOK, rr.Code)
	patients := decodeBody(t, rr)["patients"].([]interface{})
	assert.Len(t, patients, 2)
}

func TestSearchPatients(t *testing.T) {
	_, _, router := newTestServer(t)
	registerPatient(t, router)

	rr := doRequest(t, router, http.MethodGet, "/patients/search?query=As", bearerFor(t, "desk-1"), nil)
	require.Equal(t, http.StatusOK, rr.Code)
	patients := decodeBody(t, rr)["patients"].([]interface{})
	require.Len(t, patients, 1)
	assert.Equal(t, "Asha Rao", patients[0].(map[string]interface{})["name"])
}

func TestSearchPatientsQueryTooShort(t *testing.T) {
	_, _, router := newTestServer(t)

	for _, query := range []string{"", "A", "%20%20"} {
		rr := doRequest(t, router, http.MethodGet, fmt.Sprintf("/patients/search?query=%s", query), bearerFor(t, "desk-1"), nil)
		assert.Equal(t, http.StatusBadRequest, rr.Code, "query %q", query)
	}
}
