package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"wayfarer/internal/docstore"
	"wayfarer/internal/models"

	"github.com/hiendaovinh/toolkit/pkg/errorx"
	"github.com/samber/do"
)

// NotificationState holds the per-user "has unread update" flags that the
// app previously toggled through ad-hoc globals. Flags persist in the doc
// store; in-process observers get told about changes for live UI pushes.
type NotificationState struct {
	store docstore.Store

	mu        sync.RWMutex
	observers []func(ownerID string, flags models.NotificationFlags)
}

func NewNotificationState(container *do.Injector) (*NotificationState, error) {
	store, err := do.Invoke[docstore.Store](container)
	if err != nil {
		return nil, err
	}

	return &NotificationState{store: store}, nil
}

// Subscribe registers an observer for flag changes. Observers run
// synchronously on the mutating goroutine and must not block.
func (state *NotificationState) Subscribe(fn func(ownerID string, flags models.NotificationFlags)) {
	state.mu.Lock()
	defer state.mu.Unlock()
	state.observers = append(state.observers, fn)
}

func (state *NotificationState) Flags(ctx context.Context, ownerID string) (models.NotificationFlags, error) {
	var flags models.NotificationFlags
	if ownerID == "" {
		return flags, errorx.Wrap(errors.New("empty owner id"), errorx.Invalid)
	}

	b, err := state.store.Get(ctx, "", COLLECTION_NOTIFICATIONS, ownerID)
	if errors.Is(err, docstore.ErrNotFound) {
		return flags, nil
	}
	if err != nil {
		return flags, fmt.Errorf("load notification flags for user %q: %w", ownerID, err)
	}

	err = docstore.Decode(b, &flags)
	return flags, err
}

func (state *NotificationState) MarkBadgeUnread(ctx context.Context, ownerID string) error {
	return state.update(ctx, ownerID, func(flags *models.NotificationFlags) { flags.Badge = true })
}

func (state *NotificationState) MarkNewsUnread(ctx context.Context, ownerID string) error {
	return state.update(ctx, ownerID, func(flags *models.NotificationFlags) { flags.News = true })
}

func (state *NotificationState) MarkPrivacyUnread(ctx context.Context, ownerID string) error {
	return state.update(ctx, ownerID, func(flags *models.NotificationFlags) { flags.Privacy = true })
}

// Acknowledge clears one flag kind: "badge", "news" or "privacy".
func (state *NotificationState) Acknowledge(ctx context.Context, ownerID, kind string) error {
	switch kind {
	case "badge":
		return state.update(ctx, ownerID, func(flags *models.NotificationFlags) { flags.Badge = false })
	case "news":
		return state.update(ctx, ownerID, func(flags *models.NotificationFlags) { flags.News = false })
	case "privacy":
		return state.update(ctx, ownerID, func(flags *models.NotificationFlags) { flags.Privacy = false })
	default:
		return errorx.Wrap(fmt.Errorf("unknown notification kind %q", kind), errorx.Invalid)
	}
}

func (state *NotificationState) update(ctx context.Context, ownerID string, mutate func(*models.NotificationFlags)) error {
	if ownerID == "" {
		return errorx.Wrap(errors.New("empty owner id"), errorx.Invalid)
	}

	flags, err := state.Flags(ctx, ownerID)
	if err != nil {
		return err
	}

	mutate(&flags)
	flags.UpdatedAt = time.Now().UTC()

	b, err := docstore.Encode(flags)
	if err != nil {
		return err
	}

	if err := state.store.Put(ctx, "", COLLECTION_NOTIFICATIONS, ownerID, b); err != nil {
		return fmt.Errorf("save notification flags for user %q: %w", ownerID, err)
	}

	state.mu.RLock()
	observers := state.observers
	state.mu.RUnlock()
	for _, fn := range observers {
		func() {
			defer func() {
				if r := recover(); r != nil {
					log.Println("notification observer panic:", r)
				}
			}()
			fn(ownerID, flags)
		}()
	}

	return nil
}
