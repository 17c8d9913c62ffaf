package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/keygate-io/keygate/internal/domain/blacklist"
	"github.com/keygate-io/keygate/internal/shared/errors"
	"github.com/keygate-io/keygate/internal/shared/logger"
	"github.com/keygate-io/keygate/internal/shared/utils"
)

// BlacklistHandler serves the dev API blacklist endpoints.
type BlacklistHandler struct {
	blacklist blacklist.Repository
	logger    logger.Interface
}

// NewBlacklistHandler creates a new blacklist handler instance
func NewBlacklistHandler(bl blacklist.Repository, logger logger.Interface) *BlacklistHandler {
	return &BlacklistHandler{blacklist: bl, logger: logger}
}

type createBlacklistRequest struct {
	Value     string `json:"value" binding:"required"`
	Kind      string `json:"kind" binding:"required,oneof=ip hwid"`
	CreatedBy string `json:"created_by"`
}

type blacklistEntryResponse struct {
	ID        uint      `json:"id"`
	Value     string    `json:"value"`
	Kind      string    `json:"kind"`
	CreatedBy string    `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
}

// Create handles POST /api/dev/blacklist
func (h *BlacklistHandler) Create(c *gin.Context) {
	var req createBlacklistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponseWithError(c, utils.BindingError(err))
		return
	}

	createdBy := req.CreatedBy
	if createdBy == "" {
		createdBy = "DevAPI"
	}

	entry, err := blacklist.NewEntry(req.Value, blacklist.Kind(req.Kind), createdBy)
	if err != nil {
		utils.ErrorResponseWithError(c, errors.NewValidationError(err.Error()))
		return
	}

	if err := h.blacklist.Create(c.Request.Context(), entry); err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.CreatedResponse(c, gin.H{"entry": toBlacklistResponse(entry)}, "Value successfully blacklisted")
}

// List handles GET /api/dev/blacklist
func (h *BlacklistHandler) List(c *gin.Context) {
	entries, err := h.blacklist.List(c.Request.Context())
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	out := make([]blacklistEntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, toBlacklistResponse(e))
	}

	utils.SuccessResponse(c, http.StatusOK, "Blacklist successfully fetched", gin.H{
		"count":   len(out),
		"entries": out,
	})
}

// Delete handles DELETE /api/dev/blacklist/:id
func (h *BlacklistHandler) Delete(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		utils.ErrorResponseWithError(c, errors.NewValidationError("invalid blacklist entry ID"))
		return
	}

	if err := h.blacklist.Delete(c.Request.Context(), uint(id)); err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Blacklist entry deleted", nil)
}

func toBlacklistResponse(e *blacklist.Entry) blacklistEntryResponse {
	return blacklistEntryResponse{
		ID:        e.ID(),
		Value:     e.Value(),
		Kind:      string(e.Kind()),
		CreatedBy: e.CreatedBy(),
		CreatedAt: e.CreatedAt(),
	}
}
