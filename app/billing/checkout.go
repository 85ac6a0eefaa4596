package billing

import (
	"context"
	"errors"
	"fmt"

	"github.com/yx-elite/social-media-content-generator/app/models"
	"github.com/yx-elite/social-media-content-generator/app/store"
)

var ErrNoCustomer = errors.New("stripe customer missing for user")

// Checkout starts Stripe-hosted flows for a user.
type Checkout struct {
	store    store.Store
	provider Provider
	baseURL  string
}

func NewCheckout(s store.Store, p Provider, baseURL string) *Checkout {
	return &Checkout{store: s, provider: p, baseURL: baseURL}
}

// CreateSession returns the Stripe checkout session id. The success URL
// carries the session id back to the dashboard.
func (c *Checkout) CreateSession(ctx context.Context, userID, priceID string) (string, error) {
	if userID == "" {
		return "", models.Invalid("userId", "is required")
	}
	if priceID == "" {
		return "", models.Invalid("priceId", "is required")
	}

	customerID, err := c.ensureCustomer(ctx, userID)
	if err != nil {
		return "", err
	}

	return c.provider.CreateCheckoutSession(ctx, CheckoutParams{
		UserID:     userID,
		CustomerID: customerID,
		PriceID:    priceID,
		SuccessURL: c.baseURL + "/dashboard?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:  c.baseURL + "/pricing",
	})
}

// PortalURL opens the Stripe customer portal for a user who has paid before.
func (c *Checkout) PortalURL(ctx context.Context, userID string) (string, error) {
	if userID == "" {
		return "", models.Invalid("userId", "is required")
	}
	u, err := c.store.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return "", models.ErrUnknownUser
		}
		return "", err
	}
	if u.StripeCustomerID == "" {
		return "", ErrNoCustomer
	}
	return c.provider.CreatePortalSession(ctx, u.StripeCustomerID, c.baseURL+"/pricing")
}

// ensureCustomer finds or creates the Stripe customer for a user and stores
// its id so later checkouts and the portal reuse it.
func (c *Checkout) ensureCustomer(ctx context.Context, userID string) (string, error) {
	u, err := c.store.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return "", models.ErrUnknownUser
		}
		return "", err
	}
	if u.StripeCustomerID != "" {
		return u.StripeCustomerID, nil
	}

	customerID, err := c.provider.CreateCustomer(ctx, u)
	if err != nil {
		return "", fmt.Errorf("create stripe customer: %w", err)
	}
	if err := c.store.SetStripeCustomer(ctx, userID, customerID); err != nil {
		return "", fmt.Errorf("store stripe customer: %w", err)
	}
	return customerID, nil
}
