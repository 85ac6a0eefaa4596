package billing

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/client"
	"github.com/stripe/stripe-go/v79/webhook"

	"github.com/yx-elite/social-media-content-generator/app/models"
)

// Provider is the slice of Stripe the app uses.
type Provider interface {
	CreateCustomer(ctx context.Context, u models.User) (string, error)
	CreateCheckoutSession(ctx context.Context, p CheckoutParams) (string, error)
	CreatePortalSession(ctx context.Context, customerID, returnURL string) (string, error)
	GetSubscription(ctx context.Context, id string) (SubscriptionInfo, error)
}

type CheckoutParams struct {
	UserID     string
	CustomerID string
	PriceID    string
	SuccessURL string
	CancelURL  string
}

type SubscriptionInfo struct {
	ID          string
	CustomerID  string
	PriceID     string
	Status      models.SubscriptionStatus
	PeriodStart time.Time
	PeriodEnd   time.Time
}

// StripeProvider uses one client.API built at startup instead of the
// package-level stripe.Key.
type StripeProvider struct {
	api *client.API
}

func NewStripeProvider(secretKey string) *StripeProvider {
	return &StripeProvider{api: client.New(secretKey, nil)}
}

func (s *StripeProvider) CreateCustomer(ctx context.Context, u models.User) (string, error) {
	params := &stripe.CustomerParams{
		Email: stripe.String(u.Email),
		Metadata: map[string]string{
			"user_id": u.ID,
		},
	}
	if u.Name != "" {
		params.Name = stripe.String(u.Name)
	}
	params.Context = ctx

	cust, err := s.api.Customers.New(params)
	if err != nil {
		return "", err
	}
	return cust.ID, nil
}

func (s *StripeProvider) CreateCheckoutSession(ctx context.Context, p CheckoutParams) (string, error) {
	params := &stripe.CheckoutSessionParams{
		Mode:               stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		ClientReferenceID:  stripe.String(p.UserID),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(p.PriceID),
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL: stripe.String(p.SuccessURL),
		CancelURL:  stripe.String(p.CancelURL),
	}
	if p.CustomerID != "" {
		params.Customer = stripe.String(p.CustomerID)
	}
	params.Context = ctx

	sess, err := s.api.CheckoutSessions.New(params)
	if err != nil {
		return "", err
	}
	return sess.ID, nil
}

func (s *StripeProvider) CreatePortalSession(ctx context.Context, customerID, returnURL string) (string, error) {
	params := &stripe.BillingPortalSessionParams{
		Customer:  stripe.String(customerID),
		ReturnURL: stripe.String(returnURL),
	}
	params.Context = ctx

	sess, err := s.api.BillingPortalSessions.New(params)
	if err != nil {
		return "", err
	}
	return sess.URL, nil
}

func (s *StripeProvider) GetSubscription(ctx context.Context, id string) (SubscriptionInfo, error) {
	params := &stripe.SubscriptionParams{}
	params.Context = ctx

	sub, err := s.api.Subscriptions.Get(id, params)
	if err != nil {
		return SubscriptionInfo{}, err
	}
	return subscriptionInfo(sub)
}

func subscriptionInfo(sub *stripe.Subscription) (SubscriptionInfo, error) {
	if sub == nil || sub.Items == nil || len(sub.Items.Data) == 0 || sub.Items.Data[0].Price == nil {
		return SubscriptionInfo{}, models.Invalid("subscription", "no items")
	}
	info := SubscriptionInfo{
		ID:          sub.ID,
		PriceID:     sub.Items.Data[0].Price.ID,
		Status:      models.SubscriptionStatus(sub.Status),
		PeriodStart: unixTime(sub.CurrentPeriodStart),
		PeriodEnd:   unixTime(sub.CurrentPeriodEnd),
	}
	if sub.Customer != nil {
		info.CustomerID = sub.Customer.ID
	}
	return info, nil
}

func unixTime(sec int64) time.Time {
	if sec == 0 {
		return time.Time{}
	}
	return time.Unix(sec, 0).UTC()
}

// ConstructEvent verifies the Stripe-Signature header against the endpoint secret.
func ConstructEvent(payload []byte, sigHeader, secret string) (stripe.Event, error) {
	if sigHeader == "" {
		return stripe.Event{}, fmt.Errorf("missing Stripe-Signature header: %w", models.ErrSignatureVerification)
	}
	event, err := webhook.ConstructEventWithOptions(
		payload,
		sigHeader,
		secret,
		webhook.ConstructEventOptions{
			IgnoreAPIVersionMismatch: true,
		},
	)
	if err != nil {
		return stripe.Event{}, fmt.Errorf("%w: %v", models.ErrSignatureVerification, err)
	}
	return event, nil
}

// CheckoutSessionFromEvent pulls the fields the reconciler needs out of a
// checkout.session.completed payload.
func CheckoutSessionFromEvent(event stripe.Event) (userID, subscriptionID, customerID string, err error) {
	var sess stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
		return "", "", "", models.Invalid("session", "unreadable payload")
	}
	if sess.Subscription != nil {
		subscriptionID = sess.Subscription.ID
	}
	if sess.Customer != nil {
		customerID = sess.Customer.ID
	}
	if sess.ClientReferenceID == "" || subscriptionID == "" {
		return "", "", "", models.Invalid("session", "missing userId or subscriptionId")
	}
	return sess.ClientReferenceID, subscriptionID, customerID, nil
}

// SubscriptionChangeFromEvent reads a customer.subscription.* payload.
func SubscriptionChangeFromEvent(event stripe.Event) (SubscriptionChanged, error) {
	var sub stripe.Subscription
	if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
		return SubscriptionChanged{}, models.Invalid("subscription", "unreadable payload")
	}
	if sub.ID == "" {
		return SubscriptionChanged{}, models.Invalid("subscription", "missing id")
	}
	change := SubscriptionChanged{
		EventID:                event.ID,
		ExternalSubscriptionID: sub.ID,
		Status:                 models.SubscriptionStatus(sub.Status),
		PeriodStart:            unixTime(sub.CurrentPeriodStart),
		PeriodEnd:              unixTime(sub.CurrentPeriodEnd),
		Deleted:                event.Type == "customer.subscription.deleted",
	}
	if sub.Items != nil && len(sub.Items.Data) > 0 && sub.Items.Data[0].Price != nil {
		change.PriceID = sub.Items.Data[0].Price.ID
	}
	return change, nil
}
