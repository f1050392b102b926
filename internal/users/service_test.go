package users

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jirivrbic-boss/extroworld/pkg/db/dbtest"
	"github.com/jirivrbic-boss/extroworld/pkg/db/models"
	"github.com/jirivrbic-boss/extroworld/pkg/enums"
	pkgerrors "github.com/jirivrbic-boss/extroworld/pkg/errors"
	"github.com/jirivrbic-boss/extroworld/pkg/outbox"
)

func newUserService(t *testing.T) (Service, func() []models.OutboxEvent) {
	t.Helper()
	client := dbtest.Client(t)
	svc, err := NewService(ServiceParams{
		Repo:   NewRepository(client.DB()),
		Tx:     client,
		Outbox: outbox.NewService(outbox.NewRepository(client.DB()), nil),
	})
	require.NoError(t, err)
	events := func() []models.OutboxEvent {
		var rows []models.OutboxEvent
		require.NoError(t, client.DB().Order("created_at ASC").Find(&rows).Error)
		return rows
	}
	return svc, events
}

func TestEnsureCreatesOnceAndBackfillsEmail(t *testing.T) {
	ctx := context.Background()
	svc, _ := newUserService(t)

	first, err := svc.Ensure(ctx, "uid-1", "")
	require.NoError(t, err)
	assert.Equal(t, int64(0), first.LoyaltyPoints)
	assert.Empty(t, first.Email)

	second, err := svc.Ensure(ctx, "uid-1", "Jan@Example.cz ")
	require.NoError(t, err)
	assert.Equal(t, "jan@example.cz", second.Email)

	third, err := svc.Ensure(ctx, "uid-1", "other@example.cz")
	require.NoError(t, err)
	assert.Equal(t, "jan@example.cz", third.Email)
}

func TestEnsureRequiresUser(t *testing.T) {
	svc, _ := newUserService(t)
	_, err := svc.Ensure(context.Background(), " ", "a@b.cz")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))
}

func TestAdjustPointsClampsAtZero(t *testing.T) {
	ctx := context.Background()
	svc, events := newUserService(t)

	_, err := svc.Ensure(ctx, "uid-1", "a@b.cz")
	require.NoError(t, err)

	user, err := svc.AdjustPoints(ctx, "uid-1", 1200)
	require.NoError(t, err)
	assert.Equal(t, int64(1200), user.LoyaltyPoints)

	user, err = svc.AdjustPoints(ctx, "uid-1", -5000)
	require.NoError(t, err)
	assert.Equal(t, int64(0), user.LoyaltyPoints)

	rows := events()
	require.Len(t, rows, 2)
	assert.Equal(t, enums.EventLoyaltyPointsMoved, rows[0].EventType)
	assert.Equal(t, "uid-1", rows[0].AggregateID)
}

func TestAdjustPointsUnknownUser(t *testing.T) {
	svc, events := newUserService(t)
	_, err := svc.AdjustPoints(context.Background(), "ghost", 10)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
	assert.Empty(t, events())

	_, err = svc.AdjustPoints(context.Background(), "ghost", 0)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestListUsers(t *testing.T) {
	ctx := context.Background()
	svc, _ := newUserService(t)
	for _, id := range []string{"a", "b", "c"} {
		_, err := svc.Ensure(ctx, id, id+"@example.cz")
		require.NoError(t, err)
	}

	page, err := svc.List(ctx, 2, 0)
	require.NoError(t, err)
	assert.Len(t, page.Items, 2)
	assert.Equal(t, int64(3), page.Total)

	page, err = svc.List(ctx, 2, 2)
	require.NoError(t, err)
	assert.Len(t, page.Items, 1)
}
