package handlers

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keygate-io/keygate/internal/application/verification"
	apperrors "github.com/keygate-io/keygate/internal/shared/errors"
	"github.com/keygate-io/keygate/internal/shared/logger"
)

type fakeVerifier struct {
	result  *verification.VerifyResult
	err     error
	lastReq verification.VerifyRequest
}

func (f *fakeVerifier) Verify(_ context.Context, req verification.VerifyRequest) (*verification.VerifyResult, error) {
	f.lastReq = req
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func testLogger() logger.Interface {
	return logger.NewLoggerWithSlog(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func performVerify(t *testing.T, verifier *fakeVerifier, body string) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)

	engine := gin.New()
	handler := NewVerifyHandler(verifier, testLogger())
	engine.POST("/api/client/verify", handler.Verify)

	req := httptest.NewRequest("POST", "/api/client/verify", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Real-IP", "203.0.113.7")
	req.RemoteAddr = "10.0.0.1:1234"

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func TestVerify_SuccessEnvelope(t *testing.T) {
	verifier := &fakeVerifier{
		result: &verification.VerifyResult{
			Outcome:         verification.OutcomeSuccessfulAuthentication,
			Token:           "token-00001",
			Description:     "vip build",
			Version:         "1.4.2",
			Clientname:      "alice",
			DiscordUsername: "unknown",
			DiscordID:       "unknown",
			Expires:         "never",
		},
	}

	w := performVerify(t, verifier, `{"product":"loader","licensekey":"AAAAA-BBBBB-CCCCC-DDDDD-EEEEE","hwid":"hw-1","version":"1.4.2"}`)

	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "SUCCESSFUL_AUTHENTICATION", body["status_msg"])
	assert.Equal(t, "success", body["status_overview"])
	assert.Equal(t, float64(200), body["status_code"])
	assert.Equal(t, "token-00001", body["status_id"])
	assert.Equal(t, "alice", body["clientname"])
	assert.Equal(t, "1.4.2", body["version"])
	assert.Equal(t, "unknown", body["discord_username"])
	assert.Equal(t, "never", body["expires"])

	assert.Equal(t, "loader", verifier.lastReq.ProductName)
	assert.Equal(t, "hw-1", verifier.lastReq.HWID)
	assert.Equal(t, "203.0.113.7", verifier.lastReq.IP, "handler resolves the proxy-aware IP")
}

func TestVerify_RejectionStaysHTTP200(t *testing.T) {
	verifier := &fakeVerifier{
		result: &verification.VerifyResult{Outcome: verification.OutcomeExpiredLicenseKey},
	}

	w := performVerify(t, verifier, `{"product":"loader","licensekey":"bad"}`)

	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "EXPIRED_LICENSEKEY", body["status_msg"])
	assert.Equal(t, "failed", body["status_overview"])
	assert.Equal(t, float64(410), body["status_code"])
	assert.NotContains(t, body, "status_id")
	assert.NotContains(t, body, "clientname")
}

func TestVerify_MalformedBodyRejectsDownstream(t *testing.T) {
	verifier := &fakeVerifier{
		result: &verification.VerifyResult{Outcome: verification.OutcomeFailedAuthentication},
	}

	w := performVerify(t, verifier, `{not json`)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, verifier.lastReq.ProductName)
	assert.Empty(t, verifier.lastReq.LicenseKey)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "FAILED_AUTHENTICATION", body["status_msg"])
}

func TestVerify_InternalErrorIs500(t *testing.T) {
	verifier := &fakeVerifier{err: apperrors.NewInternalError("store unavailable")}

	w := performVerify(t, verifier, `{"product":"loader","licensekey":"key"}`)

	require.Equal(t, http.StatusInternalServerError, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, false, body["success"])
}
