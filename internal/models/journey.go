package models

import (
	"strings"
	"time"
)

// TimeRange bounds a visit within a day, zero-padded "HH:MM" strings so that
// lexicographic order is chronological order.
type TimeRange struct {
	Start string `json:"start" msgpack:"start"`
	End   string `json:"end" msgpack:"end"`
}

// Journey is a user-authored record of a single place visit on a given day.
// Date is always the canonical YYYY-MM-DD form; OwnerID stays populated even
// in the owner-partitioned layout so records survive a rollback unchanged.
type Journey struct {
	ID        string    `json:"id" msgpack:"id"`
	OwnerID   string    `json:"owner_id" msgpack:"owner_id"`
	Date      string    `json:"date" msgpack:"date"`
	Title     string    `json:"title" msgpack:"title"`
	PlaceName string    `json:"place_name" msgpack:"place_name"`
	Photos    []string  `json:"photos" msgpack:"photos"`
	Weather   string    `json:"weather" msgpack:"weather"`
	Content   string    `json:"content" msgpack:"content"`
	TimeRange TimeRange `json:"time_range" msgpack:"time_range"`
	UpdatedAt time.Time `json:"updated_at" msgpack:"updated_at"`
}

// IdentityKey is the upsert identity: a user has at most one journey per
// (date, place). Place names compare case-insensitively after trimming.
func (j *Journey) IdentityKey() string {
	return j.Date + "|" + strings.ToLower(strings.TrimSpace(j.PlaceName))
}

// JourneyInput is the save payload from the app layer. Date is intentionally
// untyped: clients have historically sent epoch pairs, ISO strings, raw
// numbers and native dates, and all of them are normalized on the way in.
type JourneyInput struct {
	Date      any       `json:"date"`
	Title     string    `json:"title"`
	PlaceName string    `json:"place_name"`
	Photos    []string  `json:"photos"`
	Weather   string    `json:"weather"`
	Content   string    `json:"content"`
	TimeRange TimeRange `json:"time_range"`
}

// JourneyStats is the denormalized per-owner stat. It is always recomputed
// from the owner's subcollection, never incremented in place, so re-running a
// migration chunk cannot drift it.
type JourneyStats struct {
	OwnerID     string    `json:"owner_id" msgpack:"owner_id"`
	Journeys    int       `json:"journeys" msgpack:"journeys"`
	LastDate    string    `json:"last_date" msgpack:"last_date"`
	RecountedAt time.Time `json:"recounted_at" msgpack:"recounted_at"`
}

// NotificationFlags carries the per-user "has unread update" markers that
// used to live in ad-hoc globals.
type NotificationFlags struct {
	Badge     bool      `json:"badge" msgpack:"badge"`
	News      bool      `json:"news" msgpack:"news"`
	Privacy   bool      `json:"privacy" msgpack:"privacy"`
	UpdatedAt time.Time `json:"updated_at" msgpack:"updated_at"`
}
