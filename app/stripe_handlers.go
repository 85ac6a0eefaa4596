package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v79"

	"github.com/yx-elite/social-media-content-generator/app/billing"
	"github.com/yx-elite/social-media-content-generator/app/logging"
	"github.com/yx-elite/social-media-content-generator/app/metrics"
	"github.com/yx-elite/social-media-content-generator/app/models"
)

type checkoutRequest struct {
	PriceID string `json:"priceId"`
	UserID  string `json:"userId"`
}

// CreateCheckoutSession starts a Stripe Checkout Session for the caller.
func (s *Server) CreateCheckoutSession(c *gin.Context) {
	var req checkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, models.Invalid("body", "invalid request"))
		return
	}
	if err := authorize(c, req.UserID); err != nil {
		respondError(c, err)
		return
	}

	sessionID, err := s.checkout.CreateSession(c.Request.Context(), req.UserID, req.PriceID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sessionId": sessionID})
}

type portalRequest struct {
	UserID string `json:"userId"`
}

// CreatePortalSession creates a Stripe Customer Portal session for the caller.
func (s *Server) CreatePortalSession(c *gin.Context) {
	var req portalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, models.Invalid("body", "invalid request"))
		return
	}
	if err := authorize(c, req.UserID); err != nil {
		respondError(c, err)
		return
	}

	url, err := s.checkout.PortalURL(c.Request.Context(), req.UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url})
}

// GetSubscription returns the latest subscription, or null for free users.
func (s *Server) GetSubscription(c *gin.Context) {
	userID := c.Param("userId")
	if err := authorize(c, userID); err != nil {
		respondError(c, err)
		return
	}

	sub, err := s.store.GetSubscriptionByUser(c.Request.Context(), userID)
	if errors.Is(err, models.ErrNotFound) {
		c.JSON(http.StatusOK, gin.H{"subscription": nil})
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"subscription": sub})
}

// StripeWebhook reconciles subscription purchases and changes into plans
// and points. Unhandled event types are acknowledged.
func (s *Server) StripeWebhook(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxBodyBytes))
	if err != nil {
		respondError(c, models.Invalid("body", "invalid payload"))
		return
	}

	event, err := billing.ConstructEvent(body, c.GetHeader("Stripe-Signature"), s.cfg.Stripe.WebhookSecret)
	if err != nil {
		metrics.WebhookEventsTotal.WithLabelValues("stripe", "unknown", "rejected").Inc()
		respondError(c, err)
		return
	}

	ctx := c.Request.Context()
	log := logging.FromContext(ctx).With().Str("event_id", event.ID).Str("event_type", string(event.Type)).Logger()
	ctx = log.WithContext(ctx)

	var res billing.Result
	switch event.Type {
	case stripe.EventTypeCheckoutSessionCompleted:
		res, err = s.checkoutCompleted(ctx, event)
	case stripe.EventTypeCustomerSubscriptionUpdated, stripe.EventTypeCustomerSubscriptionDeleted:
		var change billing.SubscriptionChanged
		change, err = billing.SubscriptionChangeFromEvent(event)
		if err == nil {
			res, err = s.reconciler.SubscriptionChanged(ctx, change)
		}
	default:
		log.Debug().Msg("stripe event ignored")
		metrics.WebhookEventsTotal.WithLabelValues("stripe", string(event.Type), "ignored").Inc()
		c.JSON(http.StatusOK, gin.H{"status": "ignored"})
		return
	}
	if err != nil {
		metrics.WebhookEventsTotal.WithLabelValues("stripe", string(event.Type), "failed").Inc()
		respondError(c, err)
		return
	}

	outcome := "processed"
	if res.Duplicate {
		outcome = "duplicate"
	}
	metrics.WebhookEventsTotal.WithLabelValues("stripe", string(event.Type), outcome).Inc()
	c.JSON(http.StatusOK, gin.H{"status": outcome})
}

// checkoutCompleted looks up the purchased price on the subscription, since
// the session payload does not carry line items.
func (s *Server) checkoutCompleted(ctx context.Context, event stripe.Event) (billing.Result, error) {
	userID, subscriptionID, customerID, err := billing.CheckoutSessionFromEvent(event)
	if err != nil {
		return billing.Result{}, err
	}

	info, err := s.billing.GetSubscription(ctx, subscriptionID)
	if err != nil {
		return billing.Result{}, fmt.Errorf("retrieve subscription %s: %w", subscriptionID, err)
	}
	if customerID == "" {
		customerID = info.CustomerID
	}

	return s.reconciler.Reconcile(ctx, billing.CheckoutCompleted{
		EventID:                event.ID,
		ExternalUserID:         userID,
		ExternalSubscriptionID: subscriptionID,
		ExternalCustomerID:     customerID,
		PriceID:                info.PriceID,
		Status:                 info.Status,
		PeriodStart:            info.PeriodStart,
		PeriodEnd:              info.PeriodEnd,
	})
}
