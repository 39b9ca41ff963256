package services

import (
	"context"
	"testing"

	"wayfarer/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotificationFlagsLifecycle(t *testing.T) {
	ctx := context.Background()
	injector, _ := newTestContainer(t)
	state, err := NewNotificationState(injector)
	require.NoError(t, err)

	flags, err := state.Flags(ctx, "alice")
	require.NoError(t, err)
	assert.False(t, flags.Badge)
	assert.False(t, flags.News)
	assert.False(t, flags.Privacy)

	require.NoError(t, state.MarkBadgeUnread(ctx, "alice"))
	require.NoError(t, state.MarkNewsUnread(ctx, "alice"))

	flags, err = state.Flags(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, flags.Badge)
	assert.True(t, flags.News)
	assert.False(t, flags.Privacy)

	require.NoError(t, state.Acknowledge(ctx, "alice", "badge"))

	flags, err = state.Flags(ctx, "alice")
	require.NoError(t, err)
	assert.False(t, flags.Badge)
	assert.True(t, flags.News)

	// flags are per user
	flags, err = state.Flags(ctx, "bob")
	require.NoError(t, err)
	assert.False(t, flags.News)
}

func TestNotificationAcknowledgeRejectsUnknownKind(t *testing.T) {
	ctx := context.Background()
	injector, _ := newTestContainer(t)
	state, err := NewNotificationState(injector)
	require.NoError(t, err)

	require.Error(t, state.Acknowledge(ctx, "alice", "everything"))
	require.Error(t, state.MarkBadgeUnread(ctx, ""))
}

func TestNotificationObservers(t *testing.T) {
	ctx := context.Background()
	injector, _ := newTestContainer(t)
	state, err := NewNotificationState(injector)
	require.NoError(t, err)

	var gotOwner string
	var gotFlags models.NotificationFlags
	state.Subscribe(func(ownerID string, flags models.NotificationFlags) {
		gotOwner = ownerID
		gotFlags = flags
	})

	// a panicking observer must not take down the update or its neighbors
	state.Subscribe(func(ownerID string, flags models.NotificationFlags) {
		panic("bad observer")
	})

	require.NoError(t, state.MarkPrivacyUnread(ctx, "alice"))

	assert.Equal(t, "alice", gotOwner)
	assert.True(t, gotFlags.Privacy)
}
