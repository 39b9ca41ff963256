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
	"wayfarer/internal/pkg/canondate"

	"github.com/google/uuid"
	"github.com/hiendaovinh/toolkit/pkg/errorx"
	"github.com/samber/do"
)

// ServiceJourney maintains the canonical list of a user's journey records.
// All mutation is owner-scoped; records merge by (date, place) identity so a
// second save for the same day and place replaces the first instead of
// producing a duplicate card.
type ServiceJourney struct {
	container     *do.Injector
	store         docstore.Store
	cache         caching.Cache
	readonlyCache caching.ReadOnlyCache
	weather       *ServiceWeather
	config        *ServiceConfig
}

func NewServiceJourney(container *do.Injector) (*ServiceJourney, error) {
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

	// weather enrichment is optional; the service runs without it
	weather, _ := do.Invoke[*ServiceWeather](container)
	config, _ := do.Invoke[*ServiceConfig](container)

	return &ServiceJourney{container, store, cache, readonlyCache, weather, config}, nil
}

// Upsert persists a journey for ownerID. An existing record with the same
// (date, place) identity is replaced in place under its original id; a new
// record gets a fresh id. Latest write wins.
func (service *ServiceJourney) Upsert(ctx context.Context, ownerID string, input *models.JourneyInput) (*models.Journey, error) {
	if strings.TrimSpace(ownerID) == "" {
		return nil, errorx.Wrap(errors.New("empty owner id"), errorx.Invalid)
	}
	if input == nil || strings.TrimSpace(input.PlaceName) == "" {
		return nil, errorx.Wrap(errors.New("empty place name"), errorx.Invalid)
	}

	journey := &models.Journey{
		OwnerID:   ownerID,
		Date:      canondate.Normalize(input.Date),
		Title:     input.Title,
		PlaceName: input.PlaceName,
		Photos:    input.Photos,
		Weather:   input.Weather,
		Content:   input.Content,
		TimeRange: input.TimeRange,
		UpdatedAt: time.Now().UTC(),
	}

	existing, err := service.listByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	for _, record := range existing {
		if record.IdentityKey() == journey.IdentityKey() {
			journey.ID = record.ID
			break
		}
	}
	if journey.ID == "" {
		journey.ID = uuid.NewString()
	}

	if journey.Weather == "" && service.weather != nil && service.weatherEnabled(ctx) {
		label, err := service.weather.CurrentByPlace(ctx, journey.PlaceName)
		if err != nil {
			log.Printf("weather lookup for %q: %v", journey.PlaceName, err)
		} else {
			journey.Weather = label
		}
	}

	b, err := docstore.Encode(journey)
	if err != nil {
		return nil, err
	}

	if err := service.store.Put(ctx, ownerID, COLLECTION_JOURNEYS, journey.ID, b); err != nil {
		return nil, fmt.Errorf("save journey %q for user %q: %w", journey.ID, ownerID, err)
	}

	//nolint:errcheck
	service.cache.Delete(ctx, DBKeyUserJourneys(ownerID))

	if err := service.RecountStats(ctx, ownerID); err != nil {
		log.Println("recount journey stats:", err)
	}

	return journey, nil
}

// weatherEnabled consults the runtime WEATHER_ENRICHMENT switch, off unless
// set to "on". Containers without a config table fall back to enabled: wiring
// a weather service there is already an explicit opt-in.
func (service *ServiceJourney) weatherEnabled(ctx context.Context) bool {
	if service.config == nil {
		return true
	}
	value, err := service.config.GetStringConfig(ctx, CONFIG_WEATHER_ENRICHMENT, "off")
	if err != nil {
		return false
	}
	return value == WEATHER_ENRICHMENT_ON
}

// ListByOwner returns the owner's journeys newest first: descending date,
// then descending start time within a date.
func (service *ServiceJourney) ListByOwner(ctx context.Context, ownerID string) ([]models.Journey, error) {
	if strings.TrimSpace(ownerID) == "" {
		return nil, errorx.Wrap(errors.New("empty owner id"), errorx.Invalid)
	}

	callback := func() ([]models.Journey, error) {
		return service.listByOwner(ctx, ownerID)
	}

	return caching.UseCacheWithRO(ctx, service.readonlyCache, service.cache, DBKeyUserJourneys(ownerID), CACHE_TTL_1_MIN, callback)
}

func (service *ServiceJourney) listByOwner(ctx context.Context, ownerID string) ([]models.Journey, error) {
	docs, err := service.store.List(ctx, ownerID, COLLECTION_JOURNEYS)
	if err != nil {
		return nil, fmt.Errorf("list journeys for user %q: %w", ownerID, err)
	}

	journeys, err := docstore.DecodeAll[models.Journey](docs)
	if err != nil {
		return nil, err
	}

	sort.Slice(journeys, func(i, j int) bool {
		if journeys[i].Date != journeys[j].Date {
			// canonical dates are zero-padded, lexicographic == chronological
			return journeys[i].Date > journeys[j].Date
		}
		return journeys[i].TimeRange.Start > journeys[j].TimeRange.Start
	})

	return journeys, nil
}

func (service *ServiceJourney) ListByDate(ctx context.Context, ownerID string, date any) ([]models.Journey, error) {
	journeys, err := service.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	day := canondate.Normalize(date)
	var matched []models.Journey
	for _, journey := range journeys {
		if journey.Date == day {
			matched = append(matched, journey)
		}
	}

	return matched, nil
}

func (service *ServiceJourney) Remove(ctx context.Context, ownerID, id string) error {
	if strings.TrimSpace(ownerID) == "" {
		return errorx.Wrap(errors.New("empty owner id"), errorx.Invalid)
	}
	if strings.TrimSpace(id) == "" {
		return errorx.Wrap(errors.New("empty journey id"), errorx.Invalid)
	}

	if _, err := service.store.Get(ctx, ownerID, COLLECTION_JOURNEYS, id); errors.Is(err, docstore.ErrNotFound) {
		return errorx.Wrap(fmt.Errorf("journey %q not found", id), errorx.NotExist)
	} else if err != nil {
		return fmt.Errorf("load journey %q for user %q: %w", id, ownerID, err)
	}

	if err := service.store.Delete(ctx, ownerID, COLLECTION_JOURNEYS, id); err != nil {
		return fmt.Errorf("delete journey %q for user %q: %w", id, ownerID, err)
	}

	//nolint:errcheck
	service.cache.Delete(ctx, DBKeyUserJourneys(ownerID))

	if err := service.RecountStats(ctx, ownerID); err != nil {
		log.Println("recount journey stats:", err)
	}

	return nil
}

// Stats returns the denormalized per-owner journey stat document.
func (service *ServiceJourney) Stats(ctx context.Context, ownerID string) (*models.JourneyStats, error) {
	if strings.TrimSpace(ownerID) == "" {
		return nil, errorx.Wrap(errors.New("empty owner id"), errorx.Invalid)
	}

	callback := func() (models.JourneyStats, error) {
		return service.loadStats(ctx, ownerID)
	}

	stats, err := caching.UseCache(ctx, service.cache, DBKeyJourneyStats(ownerID), CACHE_TTL_1_MIN, callback)
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

func (service *ServiceJourney) loadStats(ctx context.Context, ownerID string) (models.JourneyStats, error) {
	b, err := service.store.Get(ctx, "", COLLECTION_JOURNEY_STATS, ownerID)
	if errors.Is(err, docstore.ErrNotFound) {
		return models.JourneyStats{OwnerID: ownerID}, nil
	}
	if err != nil {
		return models.JourneyStats{}, fmt.Errorf("load journey stats for user %q: %w", ownerID, err)
	}

	var stats models.JourneyStats
	if err := docstore.Decode(b, &stats); err != nil {
		return models.JourneyStats{}, err
	}
	return stats, nil
}

// RecountStats recomputes the owner's stat document from the subcollection.
// Recomputing instead of incrementing keeps the stat correct under retries
// and repeated migration chunks.
func (service *ServiceJourney) RecountStats(ctx context.Context, ownerID string) error {
	journeys, err := service.listByOwner(ctx, ownerID)
	if err != nil {
		return err
	}

	stats := models.JourneyStats{
		OwnerID:     ownerID,
		Journeys:    len(journeys),
		RecountedAt: time.Now().UTC(),
	}
	if len(journeys) > 0 {
		stats.LastDate = journeys[0].Date
	}

	b, err := docstore.Encode(stats)
	if err != nil {
		return err
	}

	if err := service.store.Put(ctx, "", COLLECTION_JOURNEY_STATS, ownerID, b); err != nil {
		return fmt.Errorf("save journey stats for user %q: %w", ownerID, err)
	}

	//nolint:errcheck
	service.cache.Delete(ctx, DBKeyJourneyStats(ownerID))

	return nil
}

// RecountAllStats reconciles every owner's stat document. The cron binary
// runs this on a schedule.
func (service *ServiceJourney) RecountAllStats(ctx context.Context) (int, error) {
	owners, err := service.store.ListOwners(ctx, COLLECTION_JOURNEYS)
	if err != nil {
		return 0, fmt.Errorf("list journey owners: %w", err)
	}

	for _, ownerID := range owners {
		if err := service.RecountStats(ctx, ownerID); err != nil {
			return 0, err
		}
	}

	return len(owners), nil
}
