package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	applicense "github.com/keygate-io/keygate/internal/application/license"
	"github.com/keygate-io/keygate/internal/shared/errors"
	"github.com/keygate-io/keygate/internal/shared/logger"
	"github.com/keygate-io/keygate/internal/shared/utils"
)

// LicenseManager exposes the dev API license operations.
type LicenseManager interface {
	Create(ctx context.Context, in applicense.CreateLicenseInput) (*applicense.LicenseDTO, error)
	List(ctx context.Context, filter applicense.ListFilter) ([]applicense.LicenseDTO, error)
	Delete(ctx context.Context, key string) (*applicense.LicenseDTO, error)
}

// LicenseHandler serves the dev API license endpoints.
type LicenseHandler struct {
	licenses LicenseManager
	logger   logger.Interface
}

// NewLicenseHandler creates a new license handler instance
func NewLicenseHandler(licenses LicenseManager, logger logger.Interface) *LicenseHandler {
	return &LicenseHandler{licenses: licenses, logger: logger}
}

type createLicenseRequest struct {
	Product             string   `json:"product" binding:"required"`
	Clientname          string   `json:"clientname" binding:"required,min=3,max=100"`
	DiscordID           *string  `json:"discord_id"`
	Description         *string  `json:"description" binding:"omitnil,max=400"`
	Expires             bool     `json:"expires"`
	ExpiresType         string   `json:"expires_type" binding:"omitempty,oneof=days date times"`
	ExpiresDays         int      `json:"expires_days"`
	ExpiresDate         string   `json:"expires_date"`
	ExpiresTimes        uint64   `json:"expires_times"`
	ExpiresStartOnFirst bool     `json:"expires_start_on_first"`
	ExpiresDeleteAfter  bool     `json:"expires_delete_after"`
	IPCap               *int     `json:"ip_cap" binding:"omitnil,min=1"`
	IPExpires           *int     `json:"ip_expires" binding:"omitnil,min=1"`
	HWIDCap             *int     `json:"hwid_cap" binding:"omitnil,min=1"`
	HWIDExpires         *int     `json:"hwid_expires" binding:"omitnil,min=1"`
	GeoLock             *string  `json:"ip_geo_lock" binding:"omitnil,len=2"`
	PreloadedIPs        []string `json:"pre_ips_list"`
	CreatedBy           string   `json:"created_by"`
}

// Create handles POST /api/dev/licenses
func (h *LicenseHandler) Create(c *gin.Context) {
	var req createLicenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponseWithError(c, utils.BindingError(err))
		return
	}

	dto, err := h.licenses.Create(c.Request.Context(), applicense.CreateLicenseInput{
		Product:             req.Product,
		Clientname:          req.Clientname,
		DiscordID:           req.DiscordID,
		Description:         req.Description,
		Expires:             req.Expires,
		ExpiresType:         req.ExpiresType,
		ExpiresDays:         req.ExpiresDays,
		ExpiresDate:         req.ExpiresDate,
		ExpiresTimes:        req.ExpiresTimes,
		ExpiresStartOnFirst: req.ExpiresStartOnFirst,
		ExpiresDeleteAfter:  req.ExpiresDeleteAfter,
		IPCap:               req.IPCap,
		IPExpires:           req.IPExpires,
		HWIDCap:             req.HWIDCap,
		HWIDExpires:         req.HWIDExpires,
		GeoLock:             req.GeoLock,
		PreloadedIPs:        req.PreloadedIPs,
		CreatedBy:           req.CreatedBy,
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.CreatedResponse(c, gin.H{"license": dto}, "Licensekey successfully added")
}

// List handles GET /api/dev/licenses with optional query filters
func (h *LicenseHandler) List(c *gin.Context) {
	filter := applicense.ListFilter{
		LicenseKey:  c.Query("license"),
		Clientname:  c.Query("clientname"),
		ProductName: c.Query("product"),
	}

	licenses, err := h.licenses.List(c.Request.Context(), filter)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	if len(licenses) == 0 {
		utils.SuccessResponse(c, http.StatusOK, "No matches found", gin.H{
			"count":    0,
			"licenses": []applicense.LicenseDTO{},
		})
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Licenses successfully fetched", gin.H{
		"count":    len(licenses),
		"licenses": licenses,
	})
}

// Delete handles DELETE /api/dev/licenses?license=<plaintext key>
func (h *LicenseHandler) Delete(c *gin.Context) {
	key := c.Query("license")
	if key == "" {
		utils.ErrorResponseWithError(c, errors.NewValidationError("no license provided"))
		return
	}

	dto, err := h.licenses.Delete(c.Request.Context(), key)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "License successfully deleted", gin.H{"license": dto})
}
