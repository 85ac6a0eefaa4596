package app

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yx-elite/social-media-content-generator/app/billing"
	"github.com/yx-elite/social-media-content-generator/app/logging"
	"github.com/yx-elite/social-media-content-generator/app/models"
)

// respondError maps domain errors to a status and a client-safe message.
// Internal failures are logged and reported as "internal error".
func respondError(c *gin.Context, err error) {
	status, message := statusFor(err)
	log := logging.FromContext(c.Request.Context())
	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.FullPath()).Int("status", status).Msg("request failed")
	} else {
		log.Info().Err(err).Str("path", c.FullPath()).Int("status", status).Msg("request rejected")
	}
	c.AbortWithStatusJSON(status, gin.H{"error": message})
}

func statusFor(err error) (int, string) {
	var verr models.ValidationError
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest, verr.Error()
	case errors.Is(err, models.ErrInsufficientPoints):
		return http.StatusBadRequest, "Insufficient points"
	case errors.Is(err, models.ErrMissingImage):
		return http.StatusBadRequest, models.ErrMissingImage.Error()
	case errors.Is(err, models.ErrSignatureVerification):
		return http.StatusBadRequest, "signature verification failed"
	case errors.Is(err, billing.ErrNoCustomer):
		return http.StatusBadRequest, billing.ErrNoCustomer.Error()
	case errors.Is(err, models.ErrUnknownUser), errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound, "user not found"
	case errors.Is(err, errForbidden):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, models.ErrProviderTimeout):
		return http.StatusGatewayTimeout, "generation timed out"
	case errors.Is(err, models.ErrProviderError):
		return http.StatusBadGateway, "generation failed"
	default:
		return http.StatusInternalServerError, "internal error"
	}
}
