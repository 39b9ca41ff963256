package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"wayfarer/internal/docstore"
	"wayfarer/internal/models"
	"wayfarer/internal/pkg/caching"

	"github.com/hiendaovinh/toolkit/pkg/errorx"
	"github.com/samber/do"
)

// ServiceBadge evaluates gamification triggers against the static badge
// catalog and awards badges at most once per (user, badge). The grant itself
// rides the store's create-if-absent write, so concurrent calls for the same
// pair cannot double-award.
type ServiceBadge struct {
	container     *do.Injector
	store         docstore.Store
	cache         caching.Cache
	readonlyCache caching.ReadOnlyCache
	notifications *NotificationState
}

func NewServiceBadge(container *do.Injector) (*ServiceBadge, error) {
	store, err := do.Invoke[docstore.Store](container)
	if err != nil {
		return nil, err
	}

	cache, err := do.Invoke[caching.Cache](container)
	if err != nil {
		return nil, err
	}

	readonlyCache, err := do.Invoke[caching.ReadOnlyCache](container)
	if err != nil {
		return nil, err
	}

	notifications, err := do.Invoke[*NotificationState](container)
	if err != nil {
		return nil, err
	}

	return &ServiceBadge{container, store, cache, readonlyCache, notifications}, nil
}

// CheckConditions maps one trigger event to the badges it newly earns.
// Already-held badges are skipped without error, so callers may retry the
// whole operation freely.
func (service *ServiceBadge) CheckConditions(ctx context.Context, userID string, trigger models.TriggerType, metadata models.TriggerMetadata) ([]models.Badge, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, errorx.Wrap(errors.New("empty user id"), errorx.Invalid)
	}

	var candidates []string

	switch trigger {
	case models.TriggerFirstLogin:
		candidates = append(candidates, BADGE_FIRST_LOGIN)

	case models.TriggerTourCompleted:
		n := metadata.Int("completedToursCount")
		for _, rule := range tourMilestones {
			if n >= rule.Threshold {
				// highest earned tier only
				candidates = append(candidates, rule.BadgeID)
				break
			}
		}

	case models.TriggerQuizCompleted:
		n := metadata.Int("quizCorrectAnswers")
		for _, rule := range quizMilestones {
			if n >= rule.Threshold {
				candidates = append(candidates, rule.BadgeID)
				break
			}
		}

	case models.TriggerLocationSpecific:
		place := strings.ToLower(metadata.String("placeName") + " " + metadata.String("placeId"))
		for _, rule := range locationBadges {
			if strings.Contains(place, rule.Token) {
				candidates = append(candidates, rule.BadgeID)
				break
			}
		}

	case models.TriggerShareJourney:
		// accepted but not wired to any rule yet

	default:
		return nil, errorx.Wrap(fmt.Errorf("unknown trigger type %q", trigger), errorx.Invalid)
	}

	var awarded []models.Badge
	for _, badgeID := range candidates {
		created, err := service.AwardBadge(ctx, userID, badgeID)
		if err != nil {
			return awarded, err
		}
		if created {
			awarded = append(awarded, badgeByID[badgeID])
		}
	}

	return awarded, nil
}

// AwardBadge grants badgeID to userID once. It reports false without error
// when the user already holds the badge.
func (service *ServiceBadge) AwardBadge(ctx context.Context, userID, badgeID string) (bool, error) {
	if strings.TrimSpace(userID) == "" {
		return false, errorx.Wrap(errors.New("empty user id"), errorx.Invalid)
	}
	if strings.TrimSpace(badgeID) == "" {
		return false, errorx.Wrap(errors.New("empty badge id"), errorx.Invalid)
	}
	if _, ok := badgeByID[badgeID]; !ok {
		return false, errorx.Wrap(fmt.Errorf("badge %q not in catalog", badgeID), errorx.NotExist)
	}

	grant := models.UserBadge{
		UserID:    userID,
		BadgeID:   badgeID,
		AwardedAt: time.Now().UTC(),
	}
	b, err := docstore.Encode(grant)
	if err != nil {
		return false, err
	}

	created, err := service.store.Create(ctx, userID, COLLECTION_USER_BADGES, badgeID, b)
	if err != nil {
		return false, fmt.Errorf("award badge %q to user %q: %w", badgeID, userID, err)
	}
	if !created {
		log.Printf("badge %q already owned by user %q", badgeID, userID)
		return false, nil
	}

	log.Printf("awarded badge %q to user %q at %s", badgeID, userID, grant.AwardedAt.Format(time.RFC3339))

	//nolint:errcheck
	service.cache.Delete(ctx, DBKeyUserBadges(userID))

	if err := service.notifications.MarkBadgeUnread(ctx, userID); err != nil {
		log.Println("mark badge unread:", err)
	}

	return true, nil
}

func (service *ServiceBadge) HasUserBadge(ctx context.Context, userID, badgeID string) (bool, error) {
	if strings.TrimSpace(userID) == "" || strings.TrimSpace(badgeID) == "" {
		return false, errorx.Wrap(errors.New("empty user or badge id"), errorx.Invalid)
	}

	_, err := service.store.Get(ctx, userID, COLLECTION_USER_BADGES, badgeID)
	if errors.Is(err, docstore.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check badge %q for user %q: %w", badgeID, userID, err)
	}
	return true, nil
}

// GetUserBadges returns the user's grants joined with catalog definitions,
// newest first.
func (service *ServiceBadge) GetUserBadges(ctx context.Context, userID string) ([]models.UserBadgeView, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, errorx.Wrap(errors.New("empty user id"), errorx.Invalid)
	}

	callback := func() ([]models.UserBadgeView, error) {
		docs, err := service.store.List(ctx, userID, COLLECTION_USER_BADGES)
		if err != nil {
			return nil, fmt.Errorf("list badges for user %q: %w", userID, err)
		}

		grants, err := docstore.DecodeAll[models.UserBadge](docs)
		if err != nil {
			return nil, err
		}

		views := make([]models.UserBadgeView, 0, len(grants))
		for _, grant := range grants {
			badge, ok := badgeByID[grant.BadgeID]
			if !ok {
				// grant for a retired definition; keep the record, skip the view
				continue
			}
			views = append(views, models.UserBadgeView{Badge: badge, AwardedAt: grant.AwardedAt})
		}

		sort.Slice(views, func(i, j int) bool {
			return views[i].AwardedAt.After(views[j].AwardedAt)
		})

		return views, nil
	}

	return caching.UseCacheWithRO(ctx, service.readonlyCache, service.cache, DBKeyUserBadges(userID), CACHE_TTL_1_MIN, callback)
}
