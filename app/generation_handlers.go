package app

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yx-elite/social-media-content-generator/app/generation"
	"github.com/yx-elite/social-media-content-generator/app/models"
)

type generateRequest struct {
	UserID      string `json:"userId"`
	Prompt      string `json:"prompt"`
	ContentType string `json:"contentType"`
	ImageData   string `json:"imageData"`
	RequestID   string `json:"requestId"`
}

type generateResponse struct {
	ID       string   `json:"id"`
	Content  []string `json:"content"`
	Balance  *int     `json:"balance,omitempty"`
	Charged  bool     `json:"charged"`
	Replayed bool     `json:"replayed"`
}

// images arrive inline as data URIs
const maxGenerateBodyBytes = 10 << 20

// Generate runs a charged generation for the caller.
func (s *Server) Generate(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxGenerateBodyBytes)

	var req generateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, models.Invalid("body", "invalid request"))
		return
	}
	if err := authorize(c, req.UserID); err != nil {
		respondError(c, err)
		return
	}
	requestID := req.RequestID
	if requestID == "" {
		requestID = c.GetHeader("Idempotency-Key")
	}

	res, err := s.generator.Generate(c.Request.Context(), generation.Request{
		UserID:      req.UserID,
		RequestID:   requestID,
		Prompt:      req.Prompt,
		ContentType: req.ContentType,
		ImageData:   req.ImageData,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, generateResponse{
		ID:       res.ID,
		Content:  res.Content,
		Balance:  res.Balance,
		Charged:  res.Charged,
		Replayed: res.Replayed,
	})
}

type historyItem struct {
	ID          string             `json:"id"`
	Prompt      string             `json:"prompt"`
	ContentType models.ContentType `json:"contentType"`
	Content     []string           `json:"content"`
	ImageData   string             `json:"imageData,omitempty"`
	CreatedAt   time.Time          `json:"createdAt"`
}

// History lists the caller's latest generations, newest first.
func (s *Server) History(c *gin.Context) {
	userID := c.Query("userId")
	if err := authorize(c, userID); err != nil {
		respondError(c, err)
		return
	}
	limit, err := parseLimit(c.Query("limit"))
	if err != nil {
		respondError(c, err)
		return
	}

	rows, err := s.generator.History(c.Request.Context(), userID, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	history := make([]historyItem, 0, len(rows))
	for _, r := range rows {
		history = append(history, historyItem{
			ID:          r.ID,
			Prompt:      r.Prompt,
			ContentType: r.ContentType,
			Content:     r.Parts(),
			ImageData:   r.ImageData,
			CreatedAt:   r.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, gin.H{"history": history})
}
