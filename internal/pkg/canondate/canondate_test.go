package canondate

import (
	"math"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var datePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

func TestNormalizeKnownValues(t *testing.T) {
	utc := time.Date(2024, 9, 14, 13, 44, 0, 0, time.UTC)

	cases := []struct {
		name  string
		input any
		want  string
	}{
		{"iso date", "2024-09-14", "2024-09-14"},
		{"iso datetime", "2024-09-14T13:44:00Z", "2024-09-14"},
		{"iso datetime no zone", "2024-09-14T13:44:00", "2024-09-14"},
		{"slash date", "2024/09/14", "2024-09-14"},
		{"epoch zero", 0, "1970-01-01"},
		{"epoch one day", 86400, "1970-01-02"},
		{"epoch seconds", 1_000_000_000, "2001-09-09"},
		{"epoch millis", int64(1_000_000_000_000), "2001-09-09"},
		{"epoch float seconds", float64(1_000_000_000), "2001-09-09"},
		{"numeric string", "1000000000", "2001-09-09"},
		{"native time", utc, "2024-09-14"},
		{"native time pointer", &utc, "2024-09-14"},
		{"epoch pair", EpochPair{Seconds: 1_000_000_000}, "2001-09-09"},
		{"epoch pair pointer", &EpochPair{Seconds: 1_000_000_000}, "2001-09-09"},
		{"seconds map", map[string]any{"seconds": int64(1_000_000_000)}, "2001-09-09"},
		{"underscore seconds map", map[string]any{"_seconds": float64(1_000_000_000)}, "2001-09-09"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Normalize(tc.input))
		})
	}
}

func TestNormalizeDayBoundaryIsUTC(t *testing.T) {
	// 2024-09-14 23:30 in UTC-5 is already the 15th in UTC
	loc := time.FixedZone("UTC-5", -5*60*60)
	local := time.Date(2024, 9, 14, 23, 30, 0, 0, loc)

	assert.Equal(t, "2024-09-15", Normalize(local))
}

func TestNormalizeFallsBackToToday(t *testing.T) {
	today := time.Now().UTC().Format(Layout)

	inputs := []any{
		nil,
		"",
		"not a date",
		"2024-13-45",
		math.NaN(),
		math.Inf(1),
		-1,
		int64(4_102_444_800_001), // past year 2100
		(*EpochPair)(nil),
		(*time.Time)(nil),
		map[string]any{"nanoseconds": int64(5)},
		struct{ X int }{42},
	}

	for _, input := range inputs {
		assert.Equal(t, today, Normalize(input), "input %v (%T)", input, input)
	}
}

func TestNormalizeIsTotal(t *testing.T) {
	inputs := []any{
		"2024-09-14", "garbage", "", nil, 0, -7, 1_700_000_000, math.NaN(),
		[]string{"x"}, map[string]any{}, EpochPair{Seconds: -1}, time.Now(),
	}

	for _, input := range inputs {
		got := Normalize(input)
		require.Regexp(t, datePattern, got, "input %v (%T)", input, input)
	}
}

type sdkStamp struct{ t time.Time }

func (s sdkStamp) ToDate() time.Time { return s.t }

func TestNormalizeDateable(t *testing.T) {
	stamp := sdkStamp{t: time.Date(2023, 2, 1, 8, 0, 0, 0, time.UTC)}
	assert.Equal(t, "2023-02-01", Normalize(stamp))
}
