package propertyapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parcelworks/landscout/internal/cache"
	"github.com/parcelworks/landscout/internal/core"
	"github.com/parcelworks/landscout/internal/domain/model"
)

type staticCreds struct {
	creds core.VendorCredentials
	err   error
}

func (s staticCreds) VendorCredentials(_ context.Context) (core.VendorCredentials, error) {
	return s.creds, s.err
}

func fullCreds() staticCreds {
	return staticCreds{creds: core.VendorCredentials{GeocoderKey: "geo-key", EnrichmentKey: "parcel-key"}}
}

func TestReverseGeocodeParsesAddresses(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/reverse", r.URL.Path)
		assert.Equal(t, "geo-key", r.URL.Query().Get("api_key"))
		assert.Equal(t, "40.712800,-74.006000", r.URL.Query().Get("point"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"results": [
				{"address": {"street": "123 Main St", "city": "New York", "state": "NY", "zip": "10001"}},
				{"address": {"street": "", "city": "", "state": "", "zip": ""}},
				{"address": {"street": "125 Main St", "city": "New York", "state": "NY", "zip": "10001"}}
			]
		}`))
	}))
	defer server.Close()

	client, err := NewClient(ClientOptions{BaseURL: server.URL, Credentials: fullCreds()})
	require.NoError(t, err)

	addresses, err := client.ReverseGeocode(context.Background(), model.Coordinate{Lat: 40.7128, Lng: -74.006})
	require.NoError(t, err)
	require.Len(t, addresses, 2)
	assert.Equal(t, "123 Main St", addresses[0].Street)
	assert.Equal(t, "125 Main St", addresses[1].Street)
}

func TestReverseGeocodeMissingKey(t *testing.T) {
	t.Parallel()

	client, err := NewClient(ClientOptions{
		BaseURL:     "http://unused.invalid",
		Credentials: staticCreds{creds: core.VendorCredentials{EnrichmentKey: "parcel-key"}},
	})
	require.NoError(t, err)

	_, err = client.ReverseGeocode(context.Background(), model.Coordinate{Lat: 1, Lng: 2})
	assert.ErrorIs(t, err, core.ErrVendorNotConfigured)
}

func TestReverseGeocodeUsesCache(t *testing.T) {
	t.Parallel()

	var calls atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte(`{"results": [{"address": {"street": "1 Elm St", "city": "Boston", "state": "MA", "zip": "02101"}}]}`))
	}))
	defer server.Close()

	store := cache.NewBounded(cache.DefaultConfig())
	client, err := NewClient(ClientOptions{
		BaseURL:     server.URL,
		Credentials: fullCreds(),
		Cache:       store,
		CacheTTL:    time.Minute,
	})
	require.NoError(t, err)

	ctx := context.Background()
	coord := model.Coordinate{Lat: 42.3601, Lng: -71.0589}

	first, err := client.ReverseGeocode(ctx, coord)
	require.NoError(t, err)
	second, err := client.ReverseGeocode(ctx, coord)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, int64(1), calls.Load())
}

func TestReverseGeocodeServerError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client, err := NewClient(ClientOptions{BaseURL: server.URL, Credentials: fullCreds()})
	require.NoError(t, err)

	_, err = client.ReverseGeocode(context.Background(), model.Coordinate{Lat: 1, Lng: 2})
	assert.ErrorIs(t, err, ErrVendorStatus)
}

func TestValidateAddress(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/addresses/validate", r.URL.Path)
		_, _ = w.Write([]byte(`{
			"result": {
				"street": "123 MAIN ST", "city": "NEW YORK", "state": "NY", "zip": "10001-0001",
				"lat": 40.7128, "lng": -74.006
			}
		}`))
	}))
	defer server.Close()

	client, err := NewClient(ClientOptions{BaseURL: server.URL, Credentials: fullCreds()})
	require.NoError(t, err)

	std, err := client.ValidateAddress(context.Background(), model.Address{Street: "123 main st", City: "new york", State: "ny", Zip: "10001"})
	require.NoError(t, err)
	assert.Equal(t, "123 MAIN ST", std.Street)
	assert.InDelta(t, 40.7128, std.Location.Lat, 1e-9)
	assert.InDelta(t, -74.006, std.Location.Lng, 1e-9)
}

func TestEnrichExtractsAttributes(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/parcels", r.URL.Path)
		assert.Equal(t, "parcel-key", r.URL.Query().Get("api_key"))
		_, _ = w.Write([]byte(`{
			"parcel": {
				"apn": "012-345-678",
				"owner": {
					"names": ["ACME HOLDINGS LLC"],
					"is_company": true,
					"mailing_address": {"street": "PO Box 9", "city": "Dover", "state": "DE", "zip": "19901"}
				},
				"situs_address": {"street": "55 Oak Ave", "city": "Dover", "state": "DE", "zip": "19901"},
				"land_use": "Single Family Residential",
				"lot_size_acres": 0.21,
				"assessment": {"market_value": 385000},
				"structure": {"year_built": 1987}
			}
		}`))
	}))
	defer server.Close()

	client, err := NewClient(ClientOptions{BaseURL: server.URL, Credentials: fullCreds()})
	require.NoError(t, err)

	record, err := client.Enrich(context.Background(), model.StandardizedAddress{
		Address: model.Address{Street: "55 Oak Ave", City: "Dover", State: "DE", Zip: "19901"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"ACME HOLDINGS LLC"}, record.OwnerNames)
	assert.True(t, record.IsCompany)
	assert.Equal(t, "012-345-678", record.ParcelID)
	assert.Equal(t, "Single Family Residential", record.LandUse)
	assert.InDelta(t, 0.21, record.LotSizeAcres, 1e-9)
	assert.InDelta(t, 385000, record.MarketValue, 1e-9)
	assert.Equal(t, 1987, record.YearBuilt)
	assert.Equal(t, "PO Box 9", record.MailingAddress.Street)
	assert.Equal(t, "55 Oak Ave", record.PropertyAddress.Street)
}

func TestEnrichMissingFieldsDefaultToZero(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"parcel": {"apn": "999"}}`))
	}))
	defer server.Close()

	client, err := NewClient(ClientOptions{BaseURL: server.URL, Credentials: fullCreds()})
	require.NoError(t, err)

	addr := model.StandardizedAddress{
		Address: model.Address{Street: "1 Bare Rd", City: "Nowhere", State: "KS", Zip: "66002"},
	}
	record, err := client.Enrich(context.Background(), addr)
	require.NoError(t, err)
	assert.Empty(t, record.OwnerNames)
	assert.False(t, record.HasOwner())
	assert.Equal(t, "999", record.ParcelID)
	assert.Zero(t, record.YearBuilt)
	// situs address absent from the payload falls back to the query address
	assert.Equal(t, addr.Address, record.PropertyAddress)
}

func TestEnrichMissingKey(t *testing.T) {
	t.Parallel()

	client, err := NewClient(ClientOptions{
		BaseURL:     "http://unused.invalid",
		Credentials: staticCreds{creds: core.VendorCredentials{GeocoderKey: "geo-key"}},
	})
	require.NoError(t, err)

	_, err = client.Enrich(context.Background(), model.StandardizedAddress{})
	assert.ErrorIs(t, err, core.ErrVendorNotConfigured)
}
