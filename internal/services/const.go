package services

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrMigrationLock = errors.New("journey migration locked")
var ErrUserLock = errors.New("user locked")

const (
	CONFIG_TRIGGER_RATE_LIMIT_PER_MINUTE  = "TRIGGER_RATE_LIMIT_PER_MINUTE"
	CONFIG_WEATHER_ENRICHMENT             = "WEATHER_ENRICHMENT"
	CONFIG_CRONJOB_TIME_RECONCILE_JOURNEY = "CRONJOB_TIME_RECONCILE_JOURNEY"

	WEATHER_ENRICHMENT_ON = "on"

	TRIGGER_RATE_LIMIT_DEFAULT_PER_MINUTE = 30

	CRONJOB_TIME_RECONCILE_DEFAULT = "@every 1h"

	CACHE_TTL_15_SECONDS = 15 * time.Second
	CACHE_TTL_1_MIN      = 1 * time.Minute
	CACHE_TTL_5_MINS     = 5 * time.Minute
	CACHE_TTL_15_MINS    = 15 * time.Minute
	CACHE_TTL_1_HOUR     = 1 * time.Hour

	// document collections
	COLLECTION_JOURNEYS      = "journeys"
	COLLECTION_USER_BADGES   = "user_badges"
	COLLECTION_JOURNEY_STATS = "journey_stats"
	COLLECTION_NOTIFICATIONS = "notifications"
)

func LockKeyUserCreate(userID string) string {
	return fmt.Sprintf("lock:user-create:%s", userID)
}

func LockKeyJourneyMigration() string {
	return "lock:journey-migration"
}

// db
func DBKeyUser(userID string) string {
	return fmt.Sprintf("user:%s", userID)
}

func DBKeyConfig(key string) string {
	return fmt.Sprintf("config:%s", strings.ToLower(key))
}

func DBKeyUserBadges(userID string) string {
	return fmt.Sprintf("user_badges:%s", userID)
}

func DBKeyUserJourneys(ownerID string) string {
	return fmt.Sprintf("journeys:%s", ownerID)
}

func DBKeyJourneyStats(ownerID string) string {
	return fmt.Sprintf("journey_stats:%s", ownerID)
}

func LimitKeyUserTrigger(userID string) string {
	return fmt.Sprintf("limit:trigger:%s", userID)
}
