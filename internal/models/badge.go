package models

import (
	"strconv"
	"time"
)

type BadgeType string

const (
	BadgeTypeGrowthMilestone        BadgeType = "growth-milestone"
	BadgeTypeTaskAchievement        BadgeType = "task-achievement"
	BadgeTypeExplorationAchievement BadgeType = "exploration-achievement"
	BadgeTypeSocialShare            BadgeType = "social-share"
	BadgeTypeEventLimited           BadgeType = "event-limited"
	BadgeTypeLocationLimited        BadgeType = "location-limited"
)

type DisplayType string

const (
	DisplayTypeModal DisplayType = "modal"
	DisplayTypeChat  DisplayType = "chat"
)

type TriggerType string

const (
	TriggerFirstLogin       TriggerType = "first_login"
	TriggerTourCompleted    TriggerType = "tour_completed"
	TriggerQuizCompleted    TriggerType = "quiz_completed"
	TriggerShareJourney     TriggerType = "share_journey"
	TriggerLocationSpecific TriggerType = "location_specific"
)

// Badge is a static achievement definition. The catalog is version-controlled
// code, never inferred at runtime.
type Badge struct {
	ID          string      `json:"id"`
	Type        BadgeType   `json:"type"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	DisplayType DisplayType `json:"display_type"`
	Condition   string      `json:"condition"`
	Trigger     string      `json:"trigger"`
}

// UserBadge records a grant. At most one exists per (user, badge); it is
// created once and never mutated.
type UserBadge struct {
	UserID    string    `json:"user_id" msgpack:"user_id"`
	BadgeID   string    `json:"badge_id" msgpack:"badge_id"`
	AwardedAt time.Time `json:"awarded_at" msgpack:"awarded_at"`
}

type UserBadgeView struct {
	Badge
	AwardedAt time.Time `json:"awarded_at"`
}

// TriggerMetadata is the loosely-typed bag supplied by the app layer.
// Missing fields default to neutral values.
type TriggerMetadata map[string]any

func (m TriggerMetadata) Int(key string) int {
	if m == nil {
		return 0
	}
	switch v := m[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	case string:
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0
		}
		return n
	default:
		return 0
	}
}

func (m TriggerMetadata) String(key string) string {
	if m == nil {
		return ""
	}
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}
