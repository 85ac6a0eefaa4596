// Package points enforces the non-negative point balance for spends and grants.
package points

import (
	"context"
	"errors"

	"github.com/yx-elite/social-media-content-generator/app/metrics"
	"github.com/yx-elite/social-media-content-generator/app/models"
	"github.com/yx-elite/social-media-content-generator/app/store"
)

const (
	// GenerationCost is debited once per successful generation.
	GenerationCost = 5
	// SignupBonus is granted when the identity provider reports a new user.
	SignupBonus = 150
)

type Guard struct {
	store store.Store
}

func NewGuard(s store.Store) *Guard {
	return &Guard{store: s}
}

func (g *Guard) Balance(ctx context.Context, userID string) (int, error) {
	if userID == "" {
		return 0, models.Invalid("userId", "is required")
	}
	u, err := g.store.GetUser(ctx, userID)
	if err != nil {
		return 0, unknownUser(err)
	}
	return u.Points, nil
}

// Spend debits amount and returns the new balance. The early balance read
// only fails fast; the store's conditional update is what keeps the balance
// from going negative under concurrent spends.
func (g *Guard) Spend(ctx context.Context, userID string, amount int) (int, error) {
	if amount <= 0 {
		return 0, models.Invalid("amount", "must be positive")
	}
	balance, err := g.Balance(ctx, userID)
	if err != nil {
		return 0, err
	}
	if balance-amount < 0 {
		metrics.SpendRejectedTotal.Inc()
		return balance, models.ErrInsufficientPoints
	}

	balance, err = g.store.SpendPoints(ctx, userID, amount)
	if err != nil {
		if errors.Is(err, models.ErrInsufficientPoints) {
			metrics.SpendRejectedTotal.Inc()
			return 0, err
		}
		return 0, unknownUser(err)
	}
	metrics.PointsSpentTotal.Add(float64(amount))
	return balance, nil
}

// Grant credits amount unconditionally. reason labels the metric only.
func (g *Guard) Grant(ctx context.Context, userID string, amount int, reason string) (int, error) {
	if amount < 0 {
		return 0, models.Invalid("amount", "must not be negative")
	}
	if userID == "" {
		return 0, models.Invalid("userId", "is required")
	}
	if amount == 0 {
		return g.Balance(ctx, userID)
	}

	balance, err := g.store.AddPoints(ctx, userID, amount)
	if err != nil {
		return 0, unknownUser(err)
	}
	metrics.PointsGrantedTotal.WithLabelValues(reason).Add(float64(amount))
	return balance, nil
}

// Debit applies a client-supplied non-positive delta, the shape used by the
// points endpoint. A zero delta just reports the balance.
func (g *Guard) Debit(ctx context.Context, userID string, delta int) (int, error) {
	if delta > 0 {
		return 0, models.Invalid("points", "must be zero or negative")
	}
	if delta == 0 {
		return g.Balance(ctx, userID)
	}
	return g.Spend(ctx, userID, -delta)
}

func unknownUser(err error) error {
	if errors.Is(err, models.ErrNotFound) {
		return models.ErrUnknownUser
	}
	return err
}
