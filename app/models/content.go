package models

import (
	"strings"
	"time"
)

// ContentSeparator joins the parts of a generation in storage.
const ContentSeparator = "\n\n"

type ContentType string

const (
	ContentTwitter   ContentType = "twitter"
	ContentInstagram ContentType = "instagram"
	ContentLinkedIn  ContentType = "linkedin"
)

// ParseContentType accepts the three supported platforms, case-insensitively.
func ParseContentType(s string) (ContentType, bool) {
	switch ContentType(strings.ToLower(strings.TrimSpace(s))) {
	case ContentTwitter:
		return ContentTwitter, true
	case ContentInstagram:
		return ContentInstagram, true
	case ContentLinkedIn:
		return ContentLinkedIn, true
	}
	return "", false
}

type GeneratedContent struct {
	ID            string      `json:"id" db:"id"`
	UserID        string      `json:"userId" db:"user_id"`
	RequestID     string      `json:"requestId,omitempty" db:"request_id"`
	Prompt        string      `json:"prompt" db:"prompt"`
	ContentType   ContentType `json:"contentType" db:"content_type"`
	Content       string      `json:"content" db:"content"`
	ImageData     string      `json:"imageData,omitempty" db:"image_data"`
	PointsCharged int         `json:"pointsCharged" db:"points_charged"`
	CreatedAt     time.Time   `json:"createdAt" db:"created_at"`
}

// Parts splits the stored body back into the sequence that was generated.
func (g GeneratedContent) Parts() []string {
	if g.ContentType != ContentTwitter {
		return []string{g.Content}
	}
	return strings.Split(g.Content, ContentSeparator)
}
