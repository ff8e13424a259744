package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetCurrentToken(t *testing.T) {
	_, _, router := newTestServer(t)

	// No token issued yet.
	rr := doRequest(t, router, http.MethodGet, "/tokens/current", bearerFor(t, "doc-1"), nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, float64(0), decodeBody(t, rr)["token"])

	registerPatient(t, router)

	rr = doRequest(t, router, http.MethodGet, "/tokens/current", bearerFor(t, "desk-1"), nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, float64(1), decodeBody(t, rr)["token"])
}

func TestResetToken(t *testing.T) {
	_, _, router := newTestServer(t)
	registerPatient(t, router)

	rr := doRequest(t, router, http.MethodPost, "/tokens/reset", bearerFor(t, "desk-1"), map[string]interface{}{"value": 100})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	// The next registration continues from the reset value.
	_, _, token := registerPatient(t, router)
	assert.Equal(t, int64(101), token)
}

func TestResetTokenNegativeValue(t *testing.T) {
	_, _, router := newTestServer(t)

	rr := doRequest(t, router, http.MethodPost, "/tokens/reset", bearerFor(t, "desk-1"), map[string]interface{}{"value": -5})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
