// Package canondate reduces the timestamp shapes found in saved records to a
// single canonical calendar date. Clients have produced epoch pairs, ISO
// strings, raw second/millisecond numbers and native dates over time, and a
// malformed date must never block a save, so Normalize is total: anything it
// cannot decode resolves to today.
package canondate

import (
	"fmt"
	"log"
	"math"
	"strconv"
	"strings"
	"time"
)

// Layout is the canonical date form. Zero-padded, so lexicographic order is
// chronological order. All slicing is UTC.
const Layout = "2006-01-02"

// Decoded epoch values outside [0, maxEpochMillis] (year 2100) are rejected.
const (
	maxEpochMillis  = 4_102_444_800_000
	secondThreshold = 9_999_999_999
)

// EpochPair mirrors the {seconds, nanoseconds} timestamp shape used by the
// hosted document store's SDK exports.
type EpochPair struct {
	Seconds     int64 `json:"seconds" msgpack:"seconds"`
	Nanoseconds int64 `json:"nanoseconds" msgpack:"nanoseconds"`
}

// Dateable is anything carrying its own conversion to a native time, such as
// SDK timestamp wrappers.
type Dateable interface {
	ToDate() time.Time
}

// Normalize converts input to a canonical YYYY-MM-DD string. It never fails:
// unparseable or out-of-range inputs resolve to today's UTC date with a
// logged warning. Precedence: epoch pair, ISO-8601 string with a T
// separator, numeric epoch (seconds up to 9,999,999,999, milliseconds
// beyond), native time, Dateable, then generic date parsing.
func Normalize(input any) string {
	switch v := input.(type) {
	case nil:
		return fallback(input)
	case EpochPair:
		return fromMillis(input, v.Seconds*1000+v.Nanoseconds/int64(time.Millisecond))
	case *EpochPair:
		if v == nil {
			return fallback(input)
		}
		return fromMillis(input, v.Seconds*1000+v.Nanoseconds/int64(time.Millisecond))
	case map[string]any:
		if secs, ok := mapSeconds(v); ok {
			return fromMillis(input, secs*1000)
		}
		return fallback(input)
	case string:
		if strings.Contains(v, "T") {
			return fromISO(v)
		}
		return parseLoose(v)
	case int:
		return fromEpochNumber(input, int64(v))
	case int64:
		return fromEpochNumber(input, v)
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fallback(input)
		}
		return fromEpochNumber(input, int64(v))
	case time.Time:
		return fromMillis(input, v.UnixMilli())
	case *time.Time:
		if v == nil {
			return fallback(input)
		}
		return fromMillis(input, v.UnixMilli())
	case Dateable:
		return fromMillis(input, v.ToDate().UnixMilli())
	default:
		return parseLoose(fmt.Sprint(input))
	}
}

func mapSeconds(m map[string]any) (int64, bool) {
	for _, key := range []string{"seconds", "_seconds"} {
		switch s := m[key].(type) {
		case int64:
			return s, true
		case int:
			return int64(s), true
		case float64:
			if math.IsNaN(s) || math.IsInf(s, 0) {
				return 0, false
			}
			return int64(s), true
		}
	}
	return 0, false
}

func fromEpochNumber(input any, n int64) string {
	if n <= secondThreshold {
		return fromMillis(input, n*1000)
	}
	return fromMillis(input, n)
}

func fromMillis(input any, ms int64) string {
	if ms < 0 || ms > maxEpochMillis {
		return fallback(input)
	}
	return time.UnixMilli(ms).UTC().Format(Layout)
}

func fromISO(s string) string {
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return fromMillis(s, t.UnixMilli())
		}
	}
	return fallback(s)
}

func parseLoose(s string) string {
	s = strings.TrimSpace(s)
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return fromEpochNumber(s, n)
	}
	for _, layout := range []string{Layout, "2006/01/02", "02 Jan 2006", time.RFC1123, time.RFC822} {
		if t, err := time.Parse(layout, s); err == nil {
			return fromMillis(s, t.UnixMilli())
		}
	}
	return fallback(s)
}

func fallback(input any) string {
	today := time.Now().UTC().Format(Layout)
	log.Printf("canondate: unusable timestamp %v (%T), defaulting to %s", input, input, today)
	return today
}
