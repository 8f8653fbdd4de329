package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/kujifair/kuji-backend/internal/services"
	"github.com/kujifair/kuji-backend/pkg/fairness"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func verifyRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	handler := NewVerifyHandler(services.NewVerificationService())
	router.POST("/api/v1/verify", handler.Verify)
	return router
}

func postVerify(t *testing.T, router *gin.Engine, body map[string]interface{}) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/verify", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)
	return recorder
}

func TestVerifyEndpointMatch(t *testing.T) {
	router := verifyRouter()
	expected := fairness.DrawHash("abc123", 42)

	recorder := postVerify(t, router, map[string]interface{}{
		"seed":         "abc123",
		"nonce":        42,
		"expectedHash": expected,
	})
	require.Equal(t, http.StatusOK, recorder.Code)

	var response struct {
		Success bool `json:"success"`
		Data    struct {
			RandomValue float64 `json:"randomValue"`
			HashMatch   bool    `json:"hashMatch"`
			TxidHash    string  `json:"txidHash"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &response))
	assert.True(t, response.Success)
	assert.True(t, response.Data.HashMatch)
	assert.Equal(t, expected, response.Data.TxidHash)
	assert.Equal(t, fairness.DeriveRandom("abc123", 42), response.Data.RandomValue)
}

func TestVerifyEndpointMismatchIsStillOK(t *testing.T) {
	router := verifyRouter()

	recorder := postVerify(t, router, map[string]interface{}{
		"seed":         "abc123",
		"nonce":        42,
		"expectedHash": fairness.DrawHash("abc123", 43),
	})
	require.Equal(t, http.StatusOK, recorder.Code)

	var response struct {
		Data struct {
			HashMatch bool `json:"hashMatch"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &response))
	assert.False(t, response.Data.HashMatch)
}

func TestVerifyEndpointStringNonce(t *testing.T) {
	router := verifyRouter()

	recorder := postVerify(t, router, map[string]interface{}{
		"seed":         "abc123",
		"nonce":        "42",
		"expectedHash": fairness.DrawHash("abc123", 42),
	})
	require.Equal(t, http.StatusOK, recorder.Code)
}

func TestVerifyEndpointRejectsMalformedInput(t *testing.T) {
	router := verifyRouter()

	cases := []struct {
		name string
		body map[string]interface{}
	}{
		{"missing seed", map[string]interface{}{"nonce": 42, "expectedHash": "deadbeef"}},
		{"missing nonce", map[string]interface{}{"seed": "abc123", "expectedHash": "deadbeef"}},
		{"missing expectedHash", map[string]interface{}{"seed": "abc123", "nonce": 42}},
		{"fractional nonce", map[string]interface{}{"seed": "abc123", "nonce": 4.5, "expectedHash": "deadbeef"}},
		{"non-numeric nonce", map[string]interface{}{"seed": "abc123", "nonce": "forty-two", "expectedHash": "deadbeef"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			recorder := postVerify(t, router, tc.body)
			assert.Equal(t, http.StatusBadRequest, recorder.Code)
		})
	}
}
