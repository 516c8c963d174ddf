package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/parcelworks/landscout/internal/core"
	"github.com/parcelworks/landscout/internal/domain/geo"
	"github.com/parcelworks/landscout/internal/domain/model"
)

// tract cache keys round box edges to 4 places (~11 m) so repeated loads of
// the same analysis area share one entry.
const tractKeyPlaces = 4

// DemographicsServiceOptions holds the dependencies for creating a DemographicsService.
type DemographicsServiceOptions struct {
	Client   core.DemographicsClient // Required: census data client
	Cache    core.CacheRepository    // Optional: tract response cache
	CacheTTL time.Duration           // Optional: TTL for cached responses
	Logger   *slog.Logger            // Optional: structured logger
}

// DemographicsService loads tract-level demographics for a bounding box with
// a read-through cache in front of the census API.
type DemographicsService struct {
	client   core.DemographicsClient
	cache    core.CacheRepository
	cacheTTL time.Duration
	logger   *slog.Logger
}

// NewDemographicsService constructs a new DemographicsService.
func NewDemographicsService(opts DemographicsServiceOptions) (*DemographicsService, error) {
	if opts.Client == nil {
		return nil, errors.New("DemographicsClient is required")
	}

	cacheTTL := opts.CacheTTL
	if cacheTTL <= 0 {
		cacheTTL = time.Hour
	}

	var logger *slog.Logger
	if opts.Logger != nil {
		logger = opts.Logger.With("component", "demographics_service")
	}

	return &DemographicsService{
		client:   opts.Client,
		cache:    opts.Cache,
		cacheTTL: cacheTTL,
		logger:   logger,
	}, nil
}

// Load returns the tracts intersecting the box, from cache when possible.
func (s *DemographicsService) Load(ctx context.Context, box model.BoundingBox) ([]model.TractRecord, error) {
	if err := box.Validate(); err != nil {
		return nil, fmt.Errorf("load demographics: %w", err)
	}

	key := tractCacheKey(box)
	if tracts, found := s.cachedTracts(ctx, key); found {
		if s.logger != nil {
			s.logger.DebugContext(ctx, "tract cache hit", "key", key, "count", len(tracts))
		}
		return tracts, nil
	}

	tracts, err := s.client.FetchTracts(ctx, box)
	if err != nil {
		return nil, fmt.Errorf("fetch tracts: %w", err)
	}

	s.storeTracts(ctx, key, tracts)
	return tracts, nil
}

func (s *DemographicsService) cachedTracts(ctx context.Context, key string) ([]model.TractRecord, bool) {
	if s.cache == nil {
		return nil, false
	}
	cached, err := s.cache.Get(ctx, key)
	if err != nil || cached == nil {
		return nil, false
	}
	var tracts []model.TractRecord
	if err := json.Unmarshal(cached, &tracts); err != nil {
		return nil, false
	}
	return tracts, true
}

func (s *DemographicsService) storeTracts(ctx context.Context, key string, tracts []model.TractRecord) {
	if s.cache == nil {
		return
	}
	encoded, err := json.Marshal(tracts)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, encoded, s.cacheTTL); err != nil && s.logger != nil {
		s.logger.DebugContext(ctx, "tract cache write failed", "key", key, "error", err)
	}
}

func tractCacheKey(box model.BoundingBox) string {
	rounded := geo.RoundBoxKey(box, tractKeyPlaces)
	return fmt.Sprintf("tracts:%.4f,%.4f,%.4f,%.4f",
		rounded.MinLat, rounded.MinLng, rounded.MaxLat, rounded.MaxLng)
}
