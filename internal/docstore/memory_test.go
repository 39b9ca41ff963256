package docstore

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryGetPutDelete(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()

	_, err := store.Get(ctx, "", "journeys", "j1")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.Put(ctx, "", "journeys", "j1", []byte("one")))
	b, err := store.Get(ctx, "", "journeys", "j1")
	require.NoError(t, err)
	assert.Equal(t, []byte("one"), b)

	// flat and partitioned addresses are distinct documents
	require.NoError(t, store.Put(ctx, "alice", "journeys", "j1", []byte("two")))
	b, err = store.Get(ctx, "", "journeys", "j1")
	require.NoError(t, err)
	assert.Equal(t, []byte("one"), b)

	require.NoError(t, store.Delete(ctx, "", "journeys", "j1"))
	_, err = store.Get(ctx, "", "journeys", "j1")
	assert.ErrorIs(t, err, ErrNotFound)

	// deleting a missing document is not an error
	assert.NoError(t, store.Delete(ctx, "", "journeys", "gone"))
}

func TestMemoryCreateIsAtMostOnce(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()

	created, err := store.Create(ctx, "alice", "user_badges", "tour_1", []byte("first"))
	require.NoError(t, err)
	assert.True(t, created)

	created, err = store.Create(ctx, "alice", "user_badges", "tour_1", []byte("second"))
	require.NoError(t, err)
	assert.False(t, created)

	// the losing write must not clobber the winner
	b, err := store.Get(ctx, "alice", "user_badges", "tour_1")
	require.NoError(t, err)
	assert.Equal(t, []byte("first"), b)
}

func TestMemoryListScopesByOwner(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()

	require.NoError(t, store.Put(ctx, "", "journeys", "f1", []byte("flat")))
	require.NoError(t, store.Put(ctx, "alice", "journeys", "a1", []byte("a")))
	require.NoError(t, store.Put(ctx, "alice", "journeys", "a2", []byte("a")))
	require.NoError(t, store.Put(ctx, "bob", "journeys", "b1", []byte("b")))
	require.NoError(t, store.Put(ctx, "alice", "user_badges", "x", []byte("other collection")))

	flat, err := store.List(ctx, "", "journeys")
	require.NoError(t, err)
	require.Len(t, flat, 1)
	assert.Equal(t, "f1", flat[0].ID)

	alice, err := store.List(ctx, "alice", "journeys")
	require.NoError(t, err)
	assert.Len(t, alice, 2)

	owners, err := store.ListOwners(ctx, "journeys")
	require.NoError(t, err)
	assert.Equal(t, []string{"alice", "bob"}, owners)
}

func TestMemoryBatchWrite(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()

	require.NoError(t, store.Put(ctx, "", "journeys", "stale", []byte("x")))

	err := store.BatchWrite(ctx, []Op{
		{Kind: OpPut, OwnerID: "alice", Collection: "journeys", ID: "a1", Data: []byte("a")},
		{Kind: OpPut, OwnerID: "alice", Collection: "journeys", ID: "a2", Data: []byte("b")},
		{Kind: OpDelete, Collection: "journeys", ID: "stale"},
	})
	require.NoError(t, err)

	_, err = store.Get(ctx, "", "journeys", "stale")
	assert.ErrorIs(t, err, ErrNotFound)

	docs, err := store.List(ctx, "alice", "journeys")
	require.NoError(t, err)
	assert.Len(t, docs, 2)
}

func TestMemoryBatchWriteRejectsOversizedBatch(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()

	ops := make([]Op, MaxBatchOps+1)
	for i := range ops {
		ops[i] = Op{Kind: OpPut, Collection: "journeys", ID: fmt.Sprintf("j%d", i), Data: []byte("x")}
	}

	err := store.BatchWrite(ctx, ops)
	require.ErrorIs(t, err, ErrBatchTooLarge)

	// the rejection happens before any write
	docs, err := store.List(ctx, "", "journeys")
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestMemoryRejectsReservedSeparator(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()

	err := store.Put(ctx, "a:b", "journeys", "j1", []byte("x"))
	require.ErrorIs(t, err, ErrInvalidKey)

	_, err = store.Create(ctx, "alice", "user_badges", "tour:1", []byte("x"))
	require.ErrorIs(t, err, ErrInvalidKey)

	_, err = store.Get(ctx, "alice", "jour:neys", "j1")
	require.ErrorIs(t, err, ErrInvalidKey)

	err = store.Delete(ctx, "a:b", "journeys", "j1")
	require.ErrorIs(t, err, ErrInvalidKey)

	_, err = store.List(ctx, "a:b", "journeys")
	require.ErrorIs(t, err, ErrInvalidKey)

	_, err = store.ListOwners(ctx, "jour:neys")
	require.ErrorIs(t, err, ErrInvalidKey)

	// a batch with one bad op fails before any write
	err = store.BatchWrite(ctx, []Op{
		{Kind: OpPut, OwnerID: "alice", Collection: "journeys", ID: "ok", Data: []byte("x")},
		{Kind: OpPut, OwnerID: "a:b", Collection: "journeys", ID: "bad", Data: []byte("x")},
	})
	require.ErrorIs(t, err, ErrInvalidKey)

	docs, err := store.List(ctx, "alice", "journeys")
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	type payload struct {
		Name  string `msgpack:"name"`
		Count int    `msgpack:"count"`
	}

	b, err := Encode(payload{Name: "harbor", Count: 3})
	require.NoError(t, err)

	var out payload
	require.NoError(t, Decode(b, &out))
	assert.Equal(t, payload{Name: "harbor", Count: 3}, out)
}
