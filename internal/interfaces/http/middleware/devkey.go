package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/keygate-io/keygate/internal/infrastructure/auth"
	"github.com/keygate-io/keygate/internal/infrastructure/repository"
	"github.com/keygate-io/keygate/internal/shared/constants"
	"github.com/keygate-io/keygate/internal/shared/logger"
	"github.com/keygate-io/keygate/internal/shared/utils"
)

// DevKeyAuth guards the dev API. The Authorization header carries a plaintext
// secret key which is bcrypt-compared against every stored secret key hash;
// only hashes are persisted, so there is no indexed lookup.
func DevKeyAuth(keys repository.APIKeyRepository, hasher *auth.BcryptKeyHasher, log logger.Interface) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := strings.TrimSpace(c.GetHeader("Authorization"))
		header = strings.TrimPrefix(header, "Bearer ")
		if header == "" {
			utils.ErrorResponse(c, http.StatusUnauthorized, "missing API key")
			c.Abort()
			return
		}

		stored, err := keys.ListByKind(c.Request.Context(), repository.APIKeyKindSecret)
		if err != nil {
			log.Errorw("failed to load API keys", "error", err)
			utils.ErrorResponse(c, http.StatusInternalServerError, "Internal server error occurred")
			c.Abort()
			return
		}

		for _, key := range stored {
			if hasher.Verify(header, key.KeyHash) == nil {
				c.Set(constants.ContextKeyAPIKeyID, key.ID)
				if err := keys.TouchLastUsed(c.Request.Context(), key.ID); err != nil {
					log.Warnw("failed to touch API key", "id", key.ID, "error", err)
				}
				c.Next()
				return
			}
		}

		utils.ErrorResponse(c, http.StatusUnauthorized, "invalid API key")
		c.Abort()
	}
}
