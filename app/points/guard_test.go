package points

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yx-elite/social-media-content-generator/app/models"
	"github.com/yx-elite/social-media-content-generator/app/store"
)

func newGuard(t *testing.T, balance int) (*Guard, *store.Memory) {
	t.Helper()
	m := store.NewMemory()
	_, _, err := m.UpsertUser(context.Background(), models.User{ID: "user_1", Email: "a@example.com"}, balance)
	require.NoError(t, err)
	return NewGuard(m), m
}

func TestSpendWithinBalance(t *testing.T) {
	for _, tc := range []struct {
		balance, amount int
	}{
		{10, 1}, {10, 10}, {150, 5}, {5, 5},
	} {
		g, _ := newGuard(t, tc.balance)
		got, err := g.Spend(context.Background(), "user_1", tc.amount)
		require.NoError(t, err)
		assert.Equal(t, tc.balance-tc.amount, got)
	}
}

func TestSpendOverBalanceLeavesBalance(t *testing.T) {
	for _, tc := range []struct {
		balance, amount int
	}{
		{0, 1}, {4, 5}, {10, 11},
	} {
		g, _ := newGuard(t, tc.balance)
		_, err := g.Spend(context.Background(), "user_1", tc.amount)
		require.ErrorIs(t, err, models.ErrInsufficientPoints)

		balance, err := g.Balance(context.Background(), "user_1")
		require.NoError(t, err)
		assert.Equal(t, tc.balance, balance)
	}
}

func TestSpendScenarioTenFiveZero(t *testing.T) {
	ctx := context.Background()
	g, _ := newGuard(t, 10)

	balance, err := g.Spend(ctx, "user_1", 5)
	require.NoError(t, err)
	assert.Equal(t, 5, balance)

	balance, err = g.Spend(ctx, "user_1", 5)
	require.NoError(t, err)
	assert.Equal(t, 0, balance)

	_, err = g.Spend(ctx, "user_1", 5)
	require.ErrorIs(t, err, models.ErrInsufficientPoints)

	balance, err = g.Balance(ctx, "user_1")
	require.NoError(t, err)
	assert.Equal(t, 0, balance)
}

func TestGrantThenSpendRoundTrip(t *testing.T) {
	ctx := context.Background()
	g, _ := newGuard(t, 42)

	after, err := g.Grant(ctx, "user_1", 100, "test")
	require.NoError(t, err)
	assert.Equal(t, 142, after)

	back, err := g.Spend(ctx, "user_1", 100)
	require.NoError(t, err)
	assert.Equal(t, 42, back)
}

func TestGrantZeroIsNoop(t *testing.T) {
	g, _ := newGuard(t, 7)
	balance, err := g.Grant(context.Background(), "user_1", 0, "test")
	require.NoError(t, err)
	assert.Equal(t, 7, balance)
}

func TestUnknownUser(t *testing.T) {
	ctx := context.Background()
	g, _ := newGuard(t, 10)

	_, err := g.Spend(ctx, "ghost", 5)
	assert.ErrorIs(t, err, models.ErrUnknownUser)
	_, err = g.Grant(ctx, "ghost", 5, "test")
	assert.ErrorIs(t, err, models.ErrUnknownUser)
	_, err = g.Balance(ctx, "ghost")
	assert.ErrorIs(t, err, models.ErrUnknownUser)
}

func TestInvalidAmounts(t *testing.T) {
	ctx := context.Background()
	g, _ := newGuard(t, 10)

	var verr models.ValidationError
	_, err := g.Spend(ctx, "user_1", 0)
	assert.ErrorAs(t, err, &verr)
	_, err = g.Grant(ctx, "user_1", -1, "test")
	assert.ErrorAs(t, err, &verr)
	_, err = g.Debit(ctx, "user_1", 5)
	assert.ErrorAs(t, err, &verr)
}

func TestDebit(t *testing.T) {
	ctx := context.Background()
	g, _ := newGuard(t, 10)

	balance, err := g.Debit(ctx, "user_1", -5)
	require.NoError(t, err)
	assert.Equal(t, 5, balance)

	balance, err = g.Debit(ctx, "user_1", 0)
	require.NoError(t, err)
	assert.Equal(t, 5, balance)

	_, err = g.Debit(ctx, "user_1", -6)
	assert.ErrorIs(t, err, models.ErrInsufficientPoints)
}
