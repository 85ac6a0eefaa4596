package app

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yx-elite/social-media-content-generator/app/models"
)

// GetPoints returns the caller's current balance.
func (s *Server) GetPoints(c *gin.Context) {
	userID := c.Query("userId")
	if err := authorize(c, userID); err != nil {
		respondError(c, err)
		return
	}

	balance, err := s.guard.Balance(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"points": balance})
}

type debitRequest struct {
	UserID string `json:"userId"`
	Points *int   `json:"points"`
}

// DebitPoints applies a non-positive delta. A debit that would go below zero
// is refused with "Insufficient points" and leaves the balance unchanged.
func (s *Server) DebitPoints(c *gin.Context) {
	var req debitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, models.Invalid("body", "invalid request"))
		return
	}
	if err := authorize(c, req.UserID); err != nil {
		respondError(c, err)
		return
	}
	if req.Points == nil {
		respondError(c, models.Invalid("points", "is required"))
		return
	}

	balance, err := s.guard.Debit(c.Request.Context(), req.UserID, *req.Points)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"balance": balance})
}
