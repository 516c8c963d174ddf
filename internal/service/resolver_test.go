package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/parcelworks/landscout/internal/core"
	"github.com/parcelworks/landscout/internal/domain/geo"
	"github.com/parcelworks/landscout/internal/domain/model"
	"github.com/parcelworks/landscout/internal/mocks"
)

var resolveOrigin = model.Coordinate{Lat: 40.7128, Lng: -74.0060}

// newResolverFixture wires a resolver against strict mocks with configured
// credentials. The strict controller is what proves call-count properties:
// any vendor call without an expectation fails the test.
func newResolverFixture(t *testing.T) (*ResolverService, *mocks.MockGeocoder, *mocks.MockEnricher) {
	t.Helper()

	ctrl := gomock.NewController(t)
	geocoder := mocks.NewMockGeocoder(ctrl)
	enricher := mocks.NewMockEnricher(ctrl)
	creds := mocks.NewMockCredentialSource(ctrl)
	creds.EXPECT().VendorCredentials(gomock.Any()).Return(core.VendorCredentials{
		GeocoderKey:   "geo-key",
		EnrichmentKey: "enrich-key",
	}, nil).AnyTimes()

	svc, err := NewResolverService(ResolverServiceOptions{
		Geocoder:    geocoder,
		Enricher:    enricher,
		Credentials: creds,
	})
	require.NoError(t, err)
	return svc, geocoder, enricher
}

func expectEmptyProbes(geocoder *mocks.MockGeocoder, points []model.Coordinate) {
	for _, point := range points {
		geocoder.EXPECT().ReverseGeocode(gomock.Any(), point).Return(nil, nil)
	}
}

func expectResolvedOwner(
	geocoder *mocks.MockGeocoder,
	enricher *mocks.MockEnricher,
	point model.Coordinate,
	owner string,
) {
	addr := model.Address{Street: "742 Evergreen Ter", City: "Springfield", State: "OR", Zip: "97477"}
	standardized := &model.StandardizedAddress{Address: addr, Location: point}
	geocoder.EXPECT().ReverseGeocode(gomock.Any(), point).Return([]model.Address{addr}, nil)
	geocoder.EXPECT().ValidateAddress(gomock.Any(), addr).Return(standardized, nil)
	enricher.EXPECT().Enrich(gomock.Any(), *standardized).Return(&model.OwnerRecord{
		OwnerNames:      []string{owner},
		PropertyAddress: addr,
	}, nil)
}

func TestResolveDirectOwnerHitSkipsRings(t *testing.T) {
	svc, geocoder, enricher := newResolverFixture(t)
	expectResolvedOwner(geocoder, enricher, resolveOrigin, "Jane Doe")

	res, err := svc.Resolve(context.Background(), resolveOrigin)
	require.NoError(t, err)
	require.NotNil(t, res)
	require.NotNil(t, res.Record)
	assert.Equal(t, []string{"Jane Doe"}, res.Record.OwnerNames)
	assert.Equal(t, resolveOrigin, res.Origin)
	assert.Zero(t, res.Distance)
	// No ring probe expectations were registered, so the strict mock has
	// already proven the ring search never started.
}

func TestResolveSecondRingHitStopsExpansion(t *testing.T) {
	svc, geocoder, enricher := newResolverFixture(t)

	geocoder.EXPECT().ReverseGeocode(gomock.Any(), resolveOrigin).Return(nil, nil)
	expectEmptyProbes(geocoder, geo.RingProbes(resolveOrigin, 100))

	mid := geo.RingProbes(resolveOrigin, 250)
	for i, point := range mid {
		if i == 3 {
			expectResolvedOwner(geocoder, enricher, point, "Acme Holdings LLC")
			continue
		}
		geocoder.EXPECT().ReverseGeocode(gomock.Any(), point).Return(nil, nil)
	}

	res, err := svc.Resolve(context.Background(), resolveOrigin)
	require.NoError(t, err)
	require.NotNil(t, res.Record)
	assert.Equal(t, []string{"Acme Holdings LLC"}, res.Record.OwnerNames)
	assert.InDelta(t, 250, res.Distance, 1.0)
	// The 500 m ring has no expectations: probing it would fail the test.
}

func TestResolveOwnerBeatsLowerIndexStreetHit(t *testing.T) {
	svc, geocoder, enricher := newResolverFixture(t)

	geocoder.EXPECT().ReverseGeocode(gomock.Any(), resolveOrigin).Return(nil, nil)

	inner := geo.RingProbes(resolveOrigin, 100)
	for i, point := range inner {
		switch i {
		case 1:
			// Street-only probe at a lower index than the owner hit.
			addr := model.Address{Street: "10 Side St", City: "Springfield", State: "OR", Zip: "97477"}
			standardized := &model.StandardizedAddress{Address: addr, Location: point}
			geocoder.EXPECT().ReverseGeocode(gomock.Any(), point).Return([]model.Address{addr}, nil)
			geocoder.EXPECT().ValidateAddress(gomock.Any(), addr).Return(standardized, nil)
			enricher.EXPECT().Enrich(gomock.Any(), *standardized).
				Return(&model.OwnerRecord{PropertyAddress: addr}, nil)
		case 5:
			expectResolvedOwner(geocoder, enricher, point, "Jane Doe")
		default:
			geocoder.EXPECT().ReverseGeocode(gomock.Any(), point).Return(nil, nil)
		}
	}

	res, err := svc.Resolve(context.Background(), resolveOrigin)
	require.NoError(t, err)
	require.NotNil(t, res.Record)
	assert.True(t, res.Record.HasOwner())
	assert.Equal(t, []string{"Jane Doe"}, res.Record.OwnerNames)
}

func TestResolveExhaustedFallsBackToDirectPartial(t *testing.T) {
	svc, geocoder, enricher := newResolverFixture(t)

	// Direct attempt geocodes and validates but enrichment is down, leaving a
	// street-only partial behind.
	addr := model.Address{Street: "1 Harbor Way", City: "Oakland", State: "CA", Zip: "94607"}
	standardized := &model.StandardizedAddress{Address: addr, Location: resolveOrigin}
	geocoder.EXPECT().ReverseGeocode(gomock.Any(), resolveOrigin).Return([]model.Address{addr}, nil)
	geocoder.EXPECT().ValidateAddress(gomock.Any(), addr).Return(standardized, nil)
	enricher.EXPECT().Enrich(gomock.Any(), *standardized).Return(nil, errors.New("vendor outage"))

	for _, radius := range []float64{100, 250, 500} {
		expectEmptyProbes(geocoder, geo.RingProbes(resolveOrigin, radius))
	}

	res, err := svc.Resolve(context.Background(), resolveOrigin)
	require.NoError(t, err)
	require.NotNil(t, res)
	require.NotNil(t, res.Record)
	assert.False(t, res.Record.HasOwner())
	assert.Equal(t, "1 Harbor Way", res.Record.PropertyAddress.Street)
	assert.Zero(t, res.Distance)
}

func TestResolveNothingFoundStillReturnsResolution(t *testing.T) {
	svc, geocoder, _ := newResolverFixture(t)

	geocoder.EXPECT().ReverseGeocode(gomock.Any(), resolveOrigin).Return(nil, nil)
	for _, radius := range []float64{100, 250, 500} {
		expectEmptyProbes(geocoder, geo.RingProbes(resolveOrigin, radius))
	}

	res, err := svc.Resolve(context.Background(), resolveOrigin)
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.False(t, res.Record.HasOwner())
	assert.Equal(t, resolveOrigin, res.Origin)
}

func TestResolveProbeFailuresDoNotSinkTheRing(t *testing.T) {
	svc, geocoder, enricher := newResolverFixture(t)

	geocoder.EXPECT().ReverseGeocode(gomock.Any(), resolveOrigin).Return(nil, nil)

	inner := geo.RingProbes(resolveOrigin, 100)
	for i, point := range inner {
		switch i {
		case 0, 2, 4:
			geocoder.EXPECT().ReverseGeocode(gomock.Any(), point).
				Return(nil, errors.New("rate limited"))
		case 6:
			expectResolvedOwner(geocoder, enricher, point, "Harbor Trust")
		default:
			geocoder.EXPECT().ReverseGeocode(gomock.Any(), point).Return(nil, nil)
		}
	}

	res, err := svc.Resolve(context.Background(), resolveOrigin)
	require.NoError(t, err)
	require.NotNil(t, res.Record)
	assert.Equal(t, []string{"Harbor Trust"}, res.Record.OwnerNames)
}

func TestResolveMissingCredentials(t *testing.T) {
	ctrl := gomock.NewController(t)
	geocoder := mocks.NewMockGeocoder(ctrl)
	enricher := mocks.NewMockEnricher(ctrl)
	creds := mocks.NewMockCredentialSource(ctrl)
	creds.EXPECT().VendorCredentials(gomock.Any()).Return(core.VendorCredentials{
		GeocoderKey: "geo-key", // enrichment key absent
	}, nil)

	svc, err := NewResolverService(ResolverServiceOptions{
		Geocoder:    geocoder,
		Enricher:    enricher,
		Credentials: creds,
	})
	require.NoError(t, err)

	res, err := svc.Resolve(context.Background(), resolveOrigin)
	require.ErrorIs(t, err, core.ErrVendorNotConfigured)
	assert.Nil(t, res)
	// No geocoder or enricher expectations: the strict mock proves neither
	// vendor was contacted.
}

func TestResolveCredentialSourceError(t *testing.T) {
	ctrl := gomock.NewController(t)
	creds := mocks.NewMockCredentialSource(ctrl)
	creds.EXPECT().VendorCredentials(gomock.Any()).
		Return(core.VendorCredentials{}, errors.New("secret store unavailable"))

	svc, err := NewResolverService(ResolverServiceOptions{
		Geocoder:    mocks.NewMockGeocoder(ctrl),
		Enricher:    mocks.NewMockEnricher(ctrl),
		Credentials: creds,
	})
	require.NoError(t, err)

	_, err = svc.Resolve(context.Background(), resolveOrigin)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load vendor credentials")
}

func TestNewResolverServiceValidation(t *testing.T) {
	ctrl := gomock.NewController(t)

	_, err := NewResolverService(ResolverServiceOptions{
		Enricher:    mocks.NewMockEnricher(ctrl),
		Credentials: mocks.NewMockCredentialSource(ctrl),
	})
	require.Error(t, err)

	_, err = NewResolverService(ResolverServiceOptions{
		Geocoder:    mocks.NewMockGeocoder(ctrl),
		Credentials: mocks.NewMockCredentialSource(ctrl),
	})
	require.Error(t, err)

	_, err = NewResolverService(ResolverServiceOptions{
		Geocoder: mocks.NewMockGeocoder(ctrl),
		Enricher: mocks.NewMockEnricher(ctrl),
	})
	require.Error(t, err)
}
