package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/keygate-io/keygate/internal/application/verification"
	"github.com/keygate-io/keygate/internal/shared/logger"
	"github.com/keygate-io/keygate/internal/shared/utils"
)

// Verifier runs the verification pipeline for a client request.
type Verifier interface {
	Verify(ctx context.Context, req verification.VerifyRequest) (*verification.VerifyResult, error)
}

// VerifyHandler serves the public client verification endpoint.
type VerifyHandler struct {
	verifier Verifier
	logger   logger.Interface
}

// NewVerifyHandler creates a new verify handler instance
func NewVerifyHandler(verifier Verifier, logger logger.Interface) *VerifyHandler {
	return &VerifyHandler{verifier: verifier, logger: logger}
}

type verifyRequest struct {
	Product    string `json:"product"`
	LicenseKey string `json:"licensekey"`
	HWID       string `json:"hwid"`
	Version    string `json:"version"`
}

// verifyResponse is the outcome envelope. Policy rejections and successes
// alike travel in the body under HTTP 200; only transport failures use
// other HTTP codes.
type verifyResponse struct {
	StatusMsg      string `json:"status_msg"`
	StatusOverview string `json:"status_overview"`
	StatusCode     int    `json:"status_code"`

	StatusID        string `json:"status_id,omitempty"`
	Description     string `json:"description,omitempty"`
	Version         string `json:"version,omitempty"`
	Clientname      string `json:"clientname,omitempty"`
	DiscordUsername string `json:"discord_username,omitempty"`
	DiscordID       string `json:"discord_id,omitempty"`
	Expires         string `json:"expires,omitempty"`
}

// Verify handles POST /api/client/verify
func (h *VerifyHandler) Verify(c *gin.Context) {
	var req verifyRequest
	// Malformed or empty bodies leave the fields blank and reject downstream
	// as FAILED_AUTHENTICATION, matching missing-field requests.
	_ = c.ShouldBindJSON(&req)

	result, err := h.verifier.Verify(c.Request.Context(), verification.VerifyRequest{
		ProductName: req.Product,
		LicenseKey:  req.LicenseKey,
		HWID:        req.HWID,
		Version:     req.Version,
		IP:          ClientIP(c),
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	resp := verifyResponse{
		StatusMsg:      string(result.Outcome),
		StatusOverview: result.Outcome.Overview(),
		StatusCode:     result.Outcome.Code(),
	}
	if result.Outcome.Success() {
		resp.StatusID = result.Token
		resp.Description = result.Description
		resp.Version = result.Version
		resp.Clientname = result.Clientname
		resp.DiscordUsername = result.DiscordUsername
		resp.DiscordID = result.DiscordID
		resp.Expires = result.Expires
	}

	c.JSON(http.StatusOK, resp)
}
