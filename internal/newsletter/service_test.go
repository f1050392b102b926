package newsletter

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jirivrbic-boss/extroworld/pkg/db/dbtest"
	pkgerrors "github.com/jirivrbic-boss/extroworld/pkg/errors"
)

func newTestService(t *testing.T) Service {
	t.Helper()
	svc, err := NewService(NewRepository(dbtest.Open(t)), nil)
	require.NoError(t, err)
	return svc
}

func TestSubscribeNormalizesAndStores(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	got, err := svc.Subscribe(ctx, SubscribeInput{
		Email:            "  Jana@Example.CZ ",
		Segments:         []string{"Women", "kids", "women"},
		ConsentMarketing: true,
		ConsentProfiling: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "jana@example.cz", got.Email)
	assert.Equal(t, []string{"women", "kids"}, got.Segments)
	assert.Equal(t, "web", got.Source)

	list, err := svc.List(ctx, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), list.Total)
	require.Len(t, list.Items, 1)
	assert.Equal(t, got.ID, list.Items[0].ID)
	assert.Equal(t, defaultListLimit, list.Limit)
}

func TestSubscribeRejectsInvalidSignups(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	cases := map[string]SubscribeInput{
		"bad email":       {Email: "nope", Segments: []string{"men"}, ConsentMarketing: true, ConsentProfiling: true},
		"no segments":     {Email: "a@b.cz", ConsentMarketing: true, ConsentProfiling: true},
		"unknown segment": {Email: "a@b.cz", Segments: []string{"pets"}, ConsentMarketing: true, ConsentProfiling: true},
		"one consent":     {Email: "a@b.cz", Segments: []string{"men"}, ConsentMarketing: true},
	}
	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Subscribe(ctx, input)
			assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), "got %v", err)
		})
	}

	list, err := svc.List(ctx, 10, 0)
	require.NoError(t, err)
	assert.Zero(t, list.Total)
}
