package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/yx-elite/social-media-content-generator/app/logging"
	"github.com/yx-elite/social-media-content-generator/app/models"
	"github.com/yx-elite/social-media-content-generator/app/points"
	"github.com/yx-elite/social-media-content-generator/app/store"
)

const eventProvider = "stripe"

// CheckoutCompleted is a verified checkout.session.completed event, already
// joined with the subscription it created.
type CheckoutCompleted struct {
	EventID                string
	ExternalUserID         string
	ExternalSubscriptionID string
	ExternalCustomerID     string
	PriceID                string
	Status                 models.SubscriptionStatus
	PeriodStart            time.Time
	PeriodEnd              time.Time
}

// SubscriptionChanged is a customer.subscription.updated/deleted event.
type SubscriptionChanged struct {
	EventID                string
	ExternalSubscriptionID string
	PriceID                string
	Status                 models.SubscriptionStatus
	PeriodStart            time.Time
	PeriodEnd              time.Time
	Deleted                bool
}

type Result struct {
	Subscription  models.Subscription
	PointsGranted int
	Balance       int
	Duplicate     bool
}

type Reconciler struct {
	store  store.Store
	prices PriceTable
}

func NewReconciler(s store.Store, prices PriceTable) *Reconciler {
	return &Reconciler{store: s, prices: prices}
}

// Reconcile records the subscription and grants the plan's points as one
// transaction. A replayed event id is acknowledged without side effects.
func (r *Reconciler) Reconcile(ctx context.Context, evt CheckoutCompleted) (Result, error) {
	if evt.ExternalUserID == "" {
		return Result{}, models.Invalid("client_reference_id", "is required")
	}
	if evt.ExternalSubscriptionID == "" {
		return Result{}, models.Invalid("subscription", "is required")
	}

	ent := r.prices.Resolve(evt.PriceID)
	status := evt.Status
	if status == "" {
		status = models.StatusActive
	}

	var res Result
	err := r.store.WithinTx(ctx, func(tx store.Store) error {
		if evt.EventID != "" {
			if err := tx.MarkEventProcessed(ctx, eventProvider, evt.EventID); err != nil {
				return err
			}
		}

		if _, err := tx.GetUser(ctx, evt.ExternalUserID); err != nil {
			if errors.Is(err, models.ErrNotFound) {
				return models.ErrUnknownUser
			}
			return err
		}

		sub, err := tx.UpsertSubscription(ctx, models.Subscription{
			UserID:                 evt.ExternalUserID,
			ExternalSubscriptionID: evt.ExternalSubscriptionID,
			ExternalCustomerID:     evt.ExternalCustomerID,
			Plan:                   ent.Plan,
			Status:                 status,
			CurrentPeriodStart:     evt.PeriodStart,
			CurrentPeriodEnd:       evt.PeriodEnd,
		})
		if err != nil {
			return fmt.Errorf("upsert subscription %s: %w", evt.ExternalSubscriptionID, err)
		}
		if evt.ExternalCustomerID != "" {
			if err := tx.SetStripeCustomer(ctx, evt.ExternalUserID, evt.ExternalCustomerID); err != nil {
				return fmt.Errorf("remember stripe customer: %w", err)
			}
		}

		balance, err := points.NewGuard(tx).Grant(ctx, evt.ExternalUserID, ent.Points, string(ent.Plan))
		if err != nil {
			return fmt.Errorf("grant %d points: %w", ent.Points, err)
		}

		res = Result{Subscription: sub, PointsGranted: ent.Points, Balance: balance}
		return nil
	})
	if errors.Is(err, models.ErrDuplicate) {
		logging.FromContext(ctx).Info().Str("event_id", evt.EventID).Msg("stripe event already processed")
		return Result{Duplicate: true}, nil
	}
	if err != nil {
		return Result{}, err
	}

	logging.FromContext(ctx).Info().
		Str("user_id", evt.ExternalUserID).
		Str("subscription_id", evt.ExternalSubscriptionID).
		Str("plan", string(ent.Plan)).
		Int("points_granted", ent.Points).
		Int("balance", res.Balance).
		Msg("subscription reconciled")
	return res, nil
}

// SubscriptionChanged tracks status and period changes of a subscription we
// already know. It never moves points. Unknown subscriptions are ignored.
func (r *Reconciler) SubscriptionChanged(ctx context.Context, evt SubscriptionChanged) (Result, error) {
	if evt.ExternalSubscriptionID == "" {
		return Result{}, models.Invalid("subscription", "is required")
	}

	var res Result
	err := r.store.WithinTx(ctx, func(tx store.Store) error {
		if evt.EventID != "" {
			if err := tx.MarkEventProcessed(ctx, eventProvider, evt.EventID); err != nil {
				return err
			}
		}

		sub, err := tx.GetSubscriptionByExternalID(ctx, evt.ExternalSubscriptionID)
		if err != nil {
			return err
		}

		if evt.Deleted {
			sub.Status = models.StatusCanceled
			sub.Plan = models.PlanFree
		} else {
			if evt.Status != "" {
				sub.Status = evt.Status
			}
			if r.prices.Knows(evt.PriceID) {
				sub.Plan = r.prices.Resolve(evt.PriceID).Plan
			}
		}
		if !evt.PeriodStart.IsZero() {
			sub.CurrentPeriodStart = evt.PeriodStart
		}
		if !evt.PeriodEnd.IsZero() {
			sub.CurrentPeriodEnd = evt.PeriodEnd
		}

		sub, err = tx.UpsertSubscription(ctx, sub)
		if err != nil {
			return err
		}
		res = Result{Subscription: sub}
		return nil
	})
	switch {
	case errors.Is(err, models.ErrDuplicate):
		return Result{Duplicate: true}, nil
	case errors.Is(err, models.ErrNotFound):
		logging.FromContext(ctx).Warn().
			Str("subscription_id", evt.ExternalSubscriptionID).
			Msg("subscription change for unknown subscription ignored")
		return Result{}, nil
	case err != nil:
		return Result{}, err
	}
	return res, nil
}
