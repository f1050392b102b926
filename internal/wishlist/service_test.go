package wishlist

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jirivrbic-boss/extroworld/internal/catalog"
	"github.com/jirivrbic-boss/extroworld/pkg/db/dbtest"
	pkgerrors "github.com/jirivrbic-boss/extroworld/pkg/errors"
)

type stubCatalog map[string]bool

func (s stubCatalog) GetProduct(_ context.Context, id string) (catalog.Product, error) {
	if s[id] {
		return catalog.Product{ID: id}, nil
	}
	return catalog.Product{}, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
}

func newWishlistService(t *testing.T) Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		WishlistRepo: NewRepository(dbtest.Open(t)),
		Catalog:      stubCatalog{"prod_tee": true, "prod_cap": true},
	})
	require.NoError(t, err)
	return svc
}

func TestAddItemIsIdempotent(t *testing.T) {
	ctx := context.Background()
	svc := newWishlistService(t)

	require.NoError(t, svc.AddItem(ctx, "user-1", "prod_tee"))
	require.NoError(t, svc.AddItem(ctx, "user-1", "prod_tee"))
	require.NoError(t, svc.AddItem(ctx, "user-1", "prod_cap"))
	require.NoError(t, svc.AddItem(ctx, "user-2", "prod_tee"))

	ids, err := svc.GetWishlistIDs(ctx, "user-1")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"prod_tee", "prod_cap"}, ids.ProductIDs)

	status, err := svc.Contains(ctx, "user-1", "prod_cap")
	require.NoError(t, err)
	assert.True(t, status.Liked)
}

func TestAddItemUnknownProduct(t *testing.T) {
	svc := newWishlistService(t)
	err := svc.AddItem(context.Background(), "user-1", "prod_gone")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestRemoveItem(t *testing.T) {
	ctx := context.Background()
	svc := newWishlistService(t)

	require.NoError(t, svc.AddItem(ctx, "user-1", "prod_tee"))
	require.NoError(t, svc.RemoveItem(ctx, "user-1", "prod_tee"))
	require.NoError(t, svc.RemoveItem(ctx, "user-1", "prod_tee"))

	status, err := svc.Contains(ctx, "user-1", "prod_tee")
	require.NoError(t, err)
	assert.False(t, status.Liked)

	ids, err := svc.GetWishlistIDs(ctx, "user-1")
	require.NoError(t, err)
	assert.Empty(t, ids.ProductIDs)
	assert.NotNil(t, ids.ProductIDs)
}

func TestWishlistRequiresUser(t *testing.T) {
	svc := newWishlistService(t)
	_, err := svc.GetWishlistIDs(context.Background(), " ")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))
}
