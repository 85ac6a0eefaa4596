package app

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yx-elite/social-media-content-generator/app/models"
	"github.com/yx-elite/social-media-content-generator/auth"
)

const (
	defaultHistoryLimit = 10
	maxHistoryLimit     = 50
	maxBodyBytes        = int64(65536)
)

var errForbidden = errors.New("caller may not act for this user")

// converts string to int safely
func parsePositiveInt(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	if n <= 0 {
		return 0, fmt.Errorf("%d is not positive", n)
	}
	return n, nil
}

// parseLimit reads the history page size, defaulting to 10.
func parseLimit(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return defaultHistoryLimit, nil
	}
	n, err := parsePositiveInt(raw)
	if err != nil || n > maxHistoryLimit {
		return 0, models.Invalid("limit", fmt.Sprintf("must be between 1 and %d", maxHistoryLimit))
	}
	return n, nil
}

// authorize checks the path/body user id against the session subject.
func authorize(c *gin.Context, userID string) error {
	if userID == "" {
		return models.Invalid("userId", "is required")
	}
	if !auth.CanActAs(c.Request.Context(), userID) {
		return errForbidden
	}
	return nil
}

func readStringClaim(raw map[string]any, key string) string {
	if raw == nil {
		return ""
	}
	val, ok := raw[key]
	if !ok {
		return ""
	}
	if s, ok := val.(string); ok {
		return strings.TrimSpace(s)
	}
	return ""
}
