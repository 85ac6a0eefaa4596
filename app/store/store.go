// Package store persists users, point balances, subscriptions and generation history.
package store

import (
	"context"

	"github.com/yx-elite/social-media-content-generator/app/models"
)

// Store is the ledger persistence boundary. Balance changes are single atomic
// deltas; callers never read-modify-write the points column.
type Store interface {
	GetUser(ctx context.Context, id string) (models.User, error)
	// UpsertUser inserts with initialPoints or updates email/name only.
	UpsertUser(ctx context.Context, u models.User, initialPoints int) (models.User, bool, error)
	SetStripeCustomer(ctx context.Context, userID, customerID string) error

	// AddPoints applies an unconditional delta and returns the new balance.
	AddPoints(ctx context.Context, userID string, delta int) (int, error)
	// SpendPoints decrements only if the balance covers amount, in one statement.
	// It returns models.ErrInsufficientPoints when it does not.
	SpendPoints(ctx context.Context, userID string, amount int) (int, error)

	GetSubscriptionByUser(ctx context.Context, userID string) (models.Subscription, error)
	GetSubscriptionByExternalID(ctx context.Context, externalID string) (models.Subscription, error)
	// UpsertSubscription is keyed by ExternalSubscriptionID.
	UpsertSubscription(ctx context.Context, s models.Subscription) (models.Subscription, error)

	// SaveContent returns models.ErrDuplicate and the existing row when
	// (UserID, RequestID) was already stored.
	SaveContent(ctx context.Context, c models.GeneratedContent) (models.GeneratedContent, error)
	FindContentByRequest(ctx context.Context, userID, requestID string) (models.GeneratedContent, error)
	ListContent(ctx context.Context, userID string, limit int) ([]models.GeneratedContent, error)

	// MarkEventProcessed returns models.ErrDuplicate for a replayed webhook event.
	MarkEventProcessed(ctx context.Context, provider, eventID string) error

	// WithinTx runs fn against a transactional view of the store. fn's error
	// rolls everything back.
	WithinTx(ctx context.Context, fn func(Store) error) error
}
