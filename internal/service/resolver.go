// Package service provides business logic services for the landscout task system.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/parcelworks/landscout/internal/core"
	"github.com/parcelworks/landscout/internal/domain/geo"
	"github.com/parcelworks/landscout/internal/domain/model"
	"github.com/parcelworks/landscout/internal/observability/statsd"
)

// DefaultMaxRadiusMeters bounds the outward search when the caller does not
// specify a radius.
const DefaultMaxRadiusMeters = 500

// ResolverServiceOptions holds the dependencies for creating a ResolverService.
type ResolverServiceOptions struct {
	Geocoder        core.Geocoder         // Required: reverse geocode + validation vendor
	Enricher        core.Enricher         // Required: parcel enrichment vendor
	Credentials     core.CredentialSource // Required: vendor credential source
	MaxRadiusMeters float64               // Optional: search bound, default 500
	Logger          *slog.Logger          // Optional: structured logger
	Metrics         statsd.Sink           // Optional: metrics sink (StatsD-compatible)
}

// ResolverService resolves a coordinate to its property owner record. It tries
// the queried point first and then walks concentric probe rings outward until
// a probe yields an owner name or a usable street address.
type ResolverService struct {
	geocoder    core.Geocoder
	enricher    core.Enricher
	credentials core.CredentialSource
	maxRadius   float64
	logger      *slog.Logger
	metrics     statsd.Sink
}

// NewResolverService constructs a new ResolverService.
func NewResolverService(opts ResolverServiceOptions) (*ResolverService, error) {
	if opts.Geocoder == nil {
		return nil, errors.New("Geocoder is required")
	}
	if opts.Enricher == nil {
		return nil, errors.New("Enricher is required")
	}
	if opts.Credentials == nil {
		return nil, errors.New("CredentialSource is required")
	}

	maxRadius := opts.MaxRadiusMeters
	if maxRadius <= 0 {
		maxRadius = DefaultMaxRadiusMeters
	}

	var logger *slog.Logger
	if opts.Logger != nil {
		logger = opts.Logger.With("component", "resolver_service")
	}

	return &ResolverService{
		geocoder:    opts.Geocoder,
		enricher:    opts.Enricher,
		credentials: opts.Credentials,
		maxRadius:   maxRadius,
		logger:      logger,
		metrics:     opts.Metrics,
	}, nil
}

// probeOutcome is the result of resolving one probe point. A nil record means
// the probe found nothing usable; err is informational only.
type probeOutcome struct {
	point  model.Coordinate
	record *model.OwnerRecord
	err    error
}

// Resolve finds the owner record for a coordinate. The returned Resolution is
// never nil on a nil error: when the entire search comes up empty it carries
// whatever partial data the direct attempt produced.
func (s *ResolverService) Resolve(ctx context.Context, origin model.Coordinate) (*model.Resolution, error) {
	creds, err := s.credentials.VendorCredentials(ctx)
	if err != nil {
		return nil, fmt.Errorf("load vendor credentials: %w", err)
	}
	if !creds.Configured() {
		return nil, core.ErrVendorNotConfigured
	}

	start := time.Now()

	// Direct attempt at the queried point. A full record here skips the ring
	// search entirely.
	direct := s.resolvePoint(ctx, origin)
	if direct.err != nil && isContextCancellation(direct.err) {
		return nil, direct.err
	}
	if direct.record.HasOwner() {
		s.emitResolveMetric("direct", time.Since(start))
		return &model.Resolution{Origin: origin, Record: direct.record}, nil
	}

	for _, radius := range geo.DefaultRingRadii(s.maxRadius) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		accepted, err := s.searchRing(ctx, origin, radius)
		if err != nil {
			return nil, err
		}
		if accepted != nil {
			s.emitResolveMetric("ring", time.Since(start))
			return &model.Resolution{
				Origin:   origin,
				Record:   accepted.record,
				Distance: geo.Distance(origin, accepted.point),
			}, nil
		}
	}

	// Search exhausted. Fall back to whatever the direct attempt produced so
	// callers always get a resolution to work with.
	s.emitResolveMetric("exhausted", time.Since(start))
	return &model.Resolution{Origin: origin, Record: direct.record}, nil
}

// searchRing probes all points of one ring concurrently, waits for every probe
// to finish, and then scans outcomes in probe order. Owner-name hits win over
// street-only hits regardless of which probe finished first.
func (s *ResolverService) searchRing(
	ctx context.Context,
	origin model.Coordinate,
	radius float64,
) (*probeOutcome, error) {
	points := geo.RingProbes(origin, radius)
	outcomes := make([]probeOutcome, len(points))

	g, probeCtx := errgroup.WithContext(ctx)
	for i, point := range points {
		g.Go(func() error {
			outcomes[i] = s.resolvePoint(probeCtx, point)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	for i := range outcomes {
		if outcomes[i].record.HasOwner() {
			return &outcomes[i], nil
		}
	}
	for i := range outcomes {
		if outcomes[i].record.HasPropertyStreet() {
			return &outcomes[i], nil
		}
	}

	if s.logger != nil {
		s.logger.DebugContext(ctx, "ring exhausted without a usable probe",
			"radius_meters", radius,
			"probes", len(points),
		)
	}
	return nil, nil
}

// resolvePoint runs the reverse-geocode, validate, enrich chain for one point.
// Vendor failures are absorbed into the outcome so a flaky probe never sinks
// the ring it belongs to.
func (s *ResolverService) resolvePoint(ctx context.Context, point model.Coordinate) probeOutcome {
	outcome := probeOutcome{point: point}

	candidates, err := s.geocoder.ReverseGeocode(ctx, point)
	if err != nil {
		outcome.err = err
		s.logProbeFailure(ctx, point, "reverse geocode", err)
		return outcome
	}

	var candidate *model.Address
	for i := range candidates {
		if !candidates[i].Empty() {
			candidate = &candidates[i]
			break
		}
	}
	if candidate == nil {
		return outcome
	}

	standardized, err := s.geocoder.ValidateAddress(ctx, *candidate)
	if err != nil {
		outcome.err = err
		s.logProbeFailure(ctx, point, "validate address", err)
		return outcome
	}

	record, err := s.enricher.Enrich(ctx, *standardized)
	if err != nil {
		outcome.err = err
		s.logProbeFailure(ctx, point, "enrich", err)
		// Preserve the address as a partial: an enrichment outage should not
		// discard what the geocoder already told us.
		outcome.record = &model.OwnerRecord{PropertyAddress: standardized.Address}
		return outcome
	}

	outcome.record = record
	return outcome
}

func (s *ResolverService) logProbeFailure(ctx context.Context, point model.Coordinate, stage string, err error) {
	if s.logger == nil || isContextCancellation(err) {
		return
	}
	s.logger.DebugContext(ctx, "probe failed",
		"stage", stage,
		"lat", point.Lat,
		"lng", point.Lng,
		"error", err,
	)
}

func (s *ResolverService) emitResolveMetric(outcome string, elapsed time.Duration) {
	if s.metrics == nil {
		return
	}
	tags := map[string]string{"outcome": outcome}
	s.metrics.Count("resolver.resolve", 1, tags)
	s.metrics.Timing("resolver.resolve_duration", elapsed, tags)
}
