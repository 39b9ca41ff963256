package services

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"wayfarer/internal/models"
	"wayfarer/internal/pkg/caching"

	"github.com/gojek/heimdall/v7/httpclient"
	"github.com/samber/do"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
)

func TestUpsertMergesByDateAndPlace(t *testing.T) {
	ctx := context.Background()
	injector, _ := newTestContainer(t)
	service := invokeJourney(t, injector)

	first, err := service.Upsert(ctx, "alice", &models.JourneyInput{
		Date:      "2024-09-14",
		PlaceName: "Harbor",
		Title:     "morning walk",
	})
	require.NoError(t, err)
	require.NotEmpty(t, first.ID)

	// same day, same place (case and spacing vary): replaces in place
	second, err := service.Upsert(ctx, "alice", &models.JourneyInput{
		Date:      "2024-09-14",
		PlaceName: "  harbor ",
		Title:     "evening walk",
	})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	journeys, err := service.ListByOwner(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, journeys, 1)
	assert.Equal(t, "evening walk", journeys[0].Title)
	assert.Equal(t, "Harbor", journeys[0].PlaceName)

	// different place on the same day is a separate record
	third, err := service.Upsert(ctx, "alice", &models.JourneyInput{
		Date:      "2024-09-14",
		PlaceName: "Old Town",
	})
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, third.ID)

	journeys, err = service.ListByOwner(ctx, "alice")
	require.NoError(t, err)
	assert.Len(t, journeys, 2)
}

func TestUpsertNormalizesDateShapes(t *testing.T) {
	ctx := context.Background()
	injector, _ := newTestContainer(t)
	service := invokeJourney(t, injector)

	// epoch seconds and the ISO string for the same instant merge together
	first, err := service.Upsert(ctx, "alice", &models.JourneyInput{
		Date:      1726318800, // 2024-09-14T13:00:00Z
		PlaceName: "Harbor",
	})
	require.NoError(t, err)
	assert.Equal(t, "2024-09-14", first.Date)

	second, err := service.Upsert(ctx, "alice", &models.JourneyInput{
		Date:      "2024-09-14T18:30:00Z",
		PlaceName: "Harbor",
	})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
}

func TestUpsertValidation(t *testing.T) {
	ctx := context.Background()
	injector, _ := newTestContainer(t)
	service := invokeJourney(t, injector)

	_, err := service.Upsert(ctx, "", &models.JourneyInput{PlaceName: "Harbor"})
	require.Error(t, err)

	_, err = service.Upsert(ctx, "alice", &models.JourneyInput{PlaceName: "  "})
	require.Error(t, err)

	_, err = service.Upsert(ctx, "alice", nil)
	require.Error(t, err)
}

func TestListByOwnerSortsNewestFirst(t *testing.T) {
	ctx := context.Background()
	injector, _ := newTestContainer(t)
	service := invokeJourney(t, injector)

	inputs := []models.JourneyInput{
		{Date: "2024-09-13", PlaceName: "Old Town", TimeRange: models.TimeRange{Start: "10:00", End: "11:00"}},
		{Date: "2024-09-14", PlaceName: "Harbor", TimeRange: models.TimeRange{Start: "07:49", End: "09:00"}},
		{Date: "2024-09-14", PlaceName: "Observatory", TimeRange: models.TimeRange{Start: "13:44", End: "15:00"}},
	}
	for i := range inputs {
		_, err := service.Upsert(ctx, "alice", &inputs[i])
		require.NoError(t, err)
	}

	journeys, err := service.ListByOwner(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, journeys, 3)

	assert.Equal(t, "2024-09-14", journeys[0].Date)
	assert.Equal(t, "13:44", journeys[0].TimeRange.Start)
	assert.Equal(t, "2024-09-14", journeys[1].Date)
	assert.Equal(t, "07:49", journeys[1].TimeRange.Start)
	assert.Equal(t, "2024-09-13", journeys[2].Date)
}

func TestListByDate(t *testing.T) {
	ctx := context.Background()
	injector, _ := newTestContainer(t)
	service := invokeJourney(t, injector)

	_, err := service.Upsert(ctx, "alice", &models.JourneyInput{Date: "2024-09-13", PlaceName: "Old Town"})
	require.NoError(t, err)
	_, err = service.Upsert(ctx, "alice", &models.JourneyInput{Date: "2024-09-14", PlaceName: "Harbor"})
	require.NoError(t, err)

	matched, err := service.ListByDate(ctx, "alice", "2024-09-14")
	require.NoError(t, err)
	require.Len(t, matched, 1)
	assert.Equal(t, "Harbor", matched[0].PlaceName)

	matched, err = service.ListByDate(ctx, "alice", "2024-09-20")
	require.NoError(t, err)
	assert.Empty(t, matched)
}

func TestRemove(t *testing.T) {
	ctx := context.Background()
	injector, _ := newTestContainer(t)
	service := invokeJourney(t, injector)

	journey, err := service.Upsert(ctx, "alice", &models.JourneyInput{Date: "2024-09-14", PlaceName: "Harbor"})
	require.NoError(t, err)

	require.NoError(t, service.Remove(ctx, "alice", journey.ID))

	journeys, err := service.ListByOwner(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, journeys)

	err = service.Remove(ctx, "alice", journey.ID)
	require.Error(t, err)
}

func TestStatsAreRecomputed(t *testing.T) {
	ctx := context.Background()
	injector, _ := newTestContainer(t)
	service := invokeJourney(t, injector)

	stats, err := service.Stats(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Journeys)

	_, err = service.Upsert(ctx, "alice", &models.JourneyInput{Date: "2024-09-13", PlaceName: "Old Town"})
	require.NoError(t, err)
	journey, err := service.Upsert(ctx, "alice", &models.JourneyInput{Date: "2024-09-14", PlaceName: "Harbor"})
	require.NoError(t, err)

	stats, err = service.Stats(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Journeys)
	assert.Equal(t, "2024-09-14", stats.LastDate)

	require.NoError(t, service.Remove(ctx, "alice", journey.ID))

	stats, err = service.Stats(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Journeys)
	assert.Equal(t, "2024-09-13", stats.LastDate)
}

func TestRecountAllStats(t *testing.T) {
	ctx := context.Background()
	injector, _ := newTestContainer(t)
	service := invokeJourney(t, injector)

	_, err := service.Upsert(ctx, "alice", &models.JourneyInput{Date: "2024-09-13", PlaceName: "Old Town"})
	require.NoError(t, err)
	_, err = service.Upsert(ctx, "bob", &models.JourneyInput{Date: "2024-09-14", PlaceName: "Harbor"})
	require.NoError(t, err)

	owners, err := service.RecountAllStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, owners)
}

func TestStatsServedFromCacheUntilRecount(t *testing.T) {
	ctx := context.Background()
	injector, store := newTestContainer(t)
	service := invokeJourney(t, injector)

	saved, err := service.Upsert(ctx, "alice", &models.JourneyInput{Date: "2024-09-14", PlaceName: "Harbor"})
	require.NoError(t, err)

	stats, err := service.Stats(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, 1, stats.Journeys)

	// the stat document vanishing underneath does not evict the cached read
	require.NoError(t, store.Delete(ctx, "", COLLECTION_JOURNEY_STATS, "alice"))
	stats, err = service.Stats(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Journeys)

	// a recount rewrites the document and drops the cached entry
	require.NoError(t, store.Delete(ctx, "alice", COLLECTION_JOURNEYS, saved.ID))
	require.NoError(t, service.RecountStats(ctx, "alice"))
	stats, err = service.Stats(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Journeys)
}

func TestUpsertWeatherEnrichmentGatedByConfig(t *testing.T) {
	var hits atomic.Int64
	fake := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if strings.Contains(r.URL.Path, "search") {
			fmt.Fprint(w, `{"results":[{"latitude":1,"longitude":2}]}`)
			return
		}
		fmt.Fprint(w, `{"current_weather":{"weathercode":0}}`)
	}))
	defer fake.Close()

	ctx := context.Background()
	injector, _ := newTestContainer(t)
	do.ProvideValue(injector, &ServiceWeather{
		client:          httpclient.NewClient(),
		geocodingURL:    fake.URL,
		forecastBaseURL: fake.URL,
	})
	do.ProvideNamedValue[*bun.DB](injector, "db-readonly", nil)
	do.Provide(injector, func(i *do.Injector) (*ServiceConfig, error) {
		return NewServiceConfig(injector)
	})

	// seed the config cache directly so lookups never reach the database
	cache, err := do.Invoke[caching.Cache](injector)
	require.NoError(t, err)
	require.NoError(t, cache.Set(ctx, DBKeyConfig(CONFIG_WEATHER_ENRICHMENT), "off", time.Minute))

	service := invokeJourney(t, injector)

	saved, err := service.Upsert(ctx, "alice", &models.JourneyInput{Date: "2024-09-14", PlaceName: "Harbor"})
	require.NoError(t, err)
	assert.Empty(t, saved.Weather)
	assert.EqualValues(t, 0, hits.Load(), "enrichment disabled: no weather calls expected")

	require.NoError(t, cache.Set(ctx, DBKeyConfig(CONFIG_WEATHER_ENRICHMENT), WEATHER_ENRICHMENT_ON, time.Minute))

	saved, err = service.Upsert(ctx, "alice", &models.JourneyInput{Date: "2024-09-15", PlaceName: "Harbor"})
	require.NoError(t, err)
	assert.Equal(t, "clear", saved.Weather)
	assert.Positive(t, hits.Load())
}
