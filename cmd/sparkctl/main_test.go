package main

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yx-elite/social-media-content-generator/app/models"
	"github.com/yx-elite/social-media-content-generator/app/store"
)

func run(t *testing.T, st store.Store, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	open := func(context.Context) (store.Store, func() error, error) {
		return st, func() error { return nil }, nil
	}
	cmd := newRootCmd(open, &out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func seeded(t *testing.T) *store.Memory {
	t.Helper()
	m := store.NewMemory()
	_, _, err := m.UpsertUser(context.Background(), models.User{ID: "user_1", Email: "a@example.com"}, 150)
	require.NoError(t, err)
	return m
}

func TestBalanceCmd(t *testing.T) {
	out, err := run(t, seeded(t), "balance", "user_1")
	require.NoError(t, err)
	assert.Equal(t, "user_1\t150\n", out)

	_, err = run(t, seeded(t), "balance", "ghost")
	assert.ErrorIs(t, err, models.ErrUnknownUser)
}

func TestGrantCmd(t *testing.T) {
	m := seeded(t)
	out, err := run(t, m, "grant", "user_1", "25", "--reason", "support")
	require.NoError(t, err)
	assert.Contains(t, out, "balance 175")

	_, err = run(t, m, "grant", "user_1", "-5")
	assert.Error(t, err)
	_, err = run(t, m, "grant", "user_1", "lots")
	assert.Error(t, err)

	u, err := m.GetUser(context.Background(), "user_1")
	require.NoError(t, err)
	assert.Equal(t, 175, u.Points)
}

func TestSpendCmd(t *testing.T) {
	m := seeded(t)
	out, err := run(t, m, "spend", "user_1", "5")
	require.NoError(t, err)
	assert.Contains(t, out, "balance 145")

	_, err = run(t, m, "spend", "user_1", "500")
	assert.ErrorIs(t, err, models.ErrInsufficientPoints)
	_, err = run(t, m, "spend", "user_1", "0")
	assert.Error(t, err)
	_, err = run(t, m, "spend", "ghost", "5")
	assert.ErrorIs(t, err, models.ErrUnknownUser)

	u, err := m.GetUser(context.Background(), "user_1")
	require.NoError(t, err)
	assert.Equal(t, 145, u.Points)
}

func TestHistoryCmd(t *testing.T) {
	m := seeded(t)
	for _, id := range []string{"c1", "c2", "c3"} {
		_, err := m.SaveContent(context.Background(), models.GeneratedContent{
			ID: id, UserID: "user_1", Prompt: "prompt " + id, ContentType: models.ContentLinkedIn, PointsCharged: 5,
		})
		require.NoError(t, err)
	}

	out, err := run(t, m, "history", "user_1", "--limit", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "prompt c3")
	assert.Contains(t, out, "prompt c2")
	assert.NotContains(t, out, "prompt c1")

	_, err = run(t, m, "history", "user_1", "--limit", "0")
	assert.Error(t, err)
}
