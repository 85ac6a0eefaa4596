package app

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yx-elite/social-media-content-generator/app/logging"
	"github.com/yx-elite/social-media-content-generator/app/metrics"
	"github.com/yx-elite/social-media-content-generator/app/models"
	"github.com/yx-elite/social-media-content-generator/app/points"
)

// identityEvent is the subset of a Clerk webhook we read.
type identityEvent struct {
	Type string `json:"type"`
	Data struct {
		ID                    string `json:"id"`
		PrimaryEmailAddressID string `json:"primary_email_address_id"`
		EmailAddresses        []struct {
			ID           string `json:"id"`
			EmailAddress string `json:"email_address"`
		} `json:"email_addresses"`
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
	} `json:"data"`
}

// primaryEmail prefers the address Clerk marks primary, then the first one.
func (e identityEvent) primaryEmail() string {
	for _, a := range e.Data.EmailAddresses {
		if a.ID != "" && a.ID == e.Data.PrimaryEmailAddressID {
			return strings.TrimSpace(a.EmailAddress)
		}
	}
	if len(e.Data.EmailAddresses) > 0 {
		return strings.TrimSpace(e.Data.EmailAddresses[0].EmailAddress)
	}
	return ""
}

func (e identityEvent) fullName() string {
	return strings.TrimSpace(e.Data.FirstName + " " + e.Data.LastName)
}

// IdentityWebhook creates or refreshes users from Svix-signed Clerk events.
// New users start with the signup bonus and get a welcome email job.
func (s *Server) IdentityWebhook(c *gin.Context) {
	if s.webhooks == nil {
		respondError(c, errors.New("identity webhook secret not configured"))
		return
	}
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxBodyBytes))
	if err != nil {
		respondError(c, models.Invalid("body", "invalid payload"))
		return
	}
	if err := s.webhooks.Verify(body, c.Request.Header); err != nil {
		metrics.WebhookEventsTotal.WithLabelValues("identity", "unknown", "rejected").Inc()
		respondError(c, err)
		return
	}

	var evt identityEvent
	if err := json.Unmarshal(body, &evt); err != nil {
		respondError(c, models.Invalid("body", "unreadable event"))
		return
	}

	ctx := c.Request.Context()
	log := logging.FromContext(ctx)
	if evt.Type != "user.created" && evt.Type != "user.updated" {
		metrics.WebhookEventsTotal.WithLabelValues("identity", evt.Type, "ignored").Inc()
		c.JSON(http.StatusOK, gin.H{"status": "ignored"})
		return
	}

	email := evt.primaryEmail()
	if evt.Data.ID == "" || email == "" {
		log.Warn().Str("event_type", evt.Type).Str("user_id", evt.Data.ID).Msg("identity event without user id or email ignored")
		metrics.WebhookEventsTotal.WithLabelValues("identity", evt.Type, "ignored").Inc()
		c.JSON(http.StatusOK, gin.H{"status": "ignored"})
		return
	}

	user, created, err := s.store.UpsertUser(ctx, models.User{
		ID:    evt.Data.ID,
		Email: email,
		Name:  evt.fullName(),
	}, points.SignupBonus)
	if err != nil {
		metrics.WebhookEventsTotal.WithLabelValues("identity", evt.Type, "failed").Inc()
		respondError(c, err)
		return
	}

	if created {
		metrics.PointsGrantedTotal.WithLabelValues("signup_bonus").Add(float64(points.SignupBonus))
		err := s.notifier.Publish(ctx, models.QueueMessage{
			Kind:      models.QueueWelcomeEmail,
			UserID:    user.ID,
			Email:     user.Email,
			Name:      user.Name,
			Points:    user.Points,
			CreatedAt: time.Now().UTC(),
		})
		if err != nil {
			log.Error().Err(err).Str("user_id", user.ID).Msg("publish welcome job")
		}
	}

	log.Info().Str("user_id", user.ID).Bool("created", created).Msg("user synced from identity provider")
	metrics.WebhookEventsTotal.WithLabelValues("identity", evt.Type, "processed").Inc()
	c.JSON(http.StatusOK, gin.H{"status": "processed", "created": created})
}
