package cart

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jirivrbic-boss/extroworld/pkg/enums"
)

type fakeKV struct {
	values map[string]string
	ttls   map[string]time.Duration
}

func newFakeKV() *fakeKV {
	return &fakeKV{values: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (f *fakeKV) Get(_ context.Context, key string) (string, error) {
	v, ok := f.values[key]
	if !ok {
		return "", redis.Nil
	}
	return v, nil
}

func (f *fakeKV) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	f.values[key] = value.(string)
	f.ttls[key] = ttl
	return nil
}

func (f *fakeKV) Del(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(f.values, k)
	}
	return nil
}

func (f *fakeKV) CartKey(owner string) string { return "xw:cart:" + owner }

func TestRedisStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	kv := newFakeKV()
	store, err := NewRedisStore(kv, time.Hour)
	require.NoError(t, err)

	fresh, err := store.Load(ctx, "user-1")
	require.NoError(t, err)
	assert.True(t, fresh.IsEmpty())
	assert.Equal(t, enums.ShippingMethodPickup, fresh.ShippingMethod)

	state, err := Reduce(fresh, AddItem{Item: LineItem{ProductID: "tee", Price: 500, Quantity: 2}})
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, "user-1", state))
	assert.Equal(t, time.Hour, kv.ttls["xw:cart:user-1"])

	loaded, err := store.Load(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, state, loaded)

	require.NoError(t, store.Delete(ctx, "user-1"))
	_, ok := kv.values["xw:cart:user-1"]
	assert.False(t, ok)
}

func TestRedisStoreRepairsLegacyDocument(t *testing.T) {
	kv := newFakeKV()
	kv.values["xw:cart:user-1"] = `{"items":[{"productId":"tee","price":100,"quantity":1}],"shippingMethod":"","discount":{"percent":150}}`
	store, err := NewRedisStore(kv, 0)
	require.NoError(t, err)

	state, err := store.Load(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, SchemaVersion, state.Schema)
	assert.Equal(t, enums.ShippingMethodPickup, state.ShippingMethod)
	assert.Nil(t, state.Discount)
	assert.Len(t, state.Items, 1)
}

func TestServiceApplyPersists(t *testing.T) {
	ctx := context.Background()
	svc, err := NewService(NewMemoryStore(), nil)
	require.NoError(t, err)

	_, err = svc.Apply(ctx, "user-1", AddItem{Item: LineItem{ProductID: "tee", Price: 300, Quantity: 1}})
	require.NoError(t, err)
	_, err = svc.Apply(ctx, "user-2", AddItem{Item: LineItem{ProductID: "cap", Price: 200, Quantity: 1}})
	require.NoError(t, err)

	state, err := svc.Get(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, state.Items, 1)
	assert.Equal(t, "tee", state.Items[0].ProductID)

	require.NoError(t, svc.Clear(ctx, "user-1"))
	state, err = svc.Get(ctx, "user-1")
	require.NoError(t, err)
	assert.True(t, state.IsEmpty())

	other, err := svc.Get(ctx, "user-2")
	require.NoError(t, err)
	assert.Len(t, other.Items, 1)

	_, err = svc.Get(ctx, "")
	assert.Error(t, err)
}
