package app

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yx-elite/social-media-content-generator/app/models"
	"github.com/yx-elite/social-media-content-generator/auth"
)

// Health is a public health check endpoint.
func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}

// Me returns the authenticated user's balance and current subscription.
func (s *Server) Me(c *gin.Context) {
	claims, ok := auth.ClaimsFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing auth context"})
		return
	}

	user, err := s.store.GetUser(c.Request.Context(), claims.Subject)
	if err != nil {
		respondError(c, err)
		return
	}

	var subscription *models.Subscription
	sub, err := s.store.GetSubscriptionByUser(c.Request.Context(), user.ID)
	switch {
	case err == nil:
		subscription = &sub
	case !errors.Is(err, models.ErrNotFound):
		respondError(c, err)
		return
	}

	plan := models.PlanFree
	if subscription != nil && subscription.Status != models.StatusCanceled {
		plan = subscription.Plan
	}

	email := user.Email
	if email == "" {
		email = readStringClaim(claims.Raw, "email")
	}
	c.JSON(http.StatusOK, gin.H{
		"id":           user.ID,
		"email":        email,
		"name":         user.Name,
		"points":       user.Points,
		"plan":         plan,
		"subscription": subscription,
	})
}
