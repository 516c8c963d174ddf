// Package propertyapi implements the reverse-geocoding and parcel-enrichment
// vendor surface over its HTTP API.
package propertyapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/parcelworks/landscout/internal/core"
	"github.com/parcelworks/landscout/internal/domain/model"
)

// ErrVendorStatus is returned when the vendor responds with a non-2xx status.
var ErrVendorStatus = errors.New("vendor returned non-success status")

// ClientOptions groups dependencies for Client.
type ClientOptions struct {
	BaseURL        string                // Required: vendor API base URL
	Credentials    core.CredentialSource // Required: per-call API keys
	Cache          core.CacheRepository  // Optional: reverse-geocode result cache
	CacheTTL       time.Duration         // Optional: TTL for cached lookups
	RequestTimeout time.Duration         // Optional: per-call timeout, default 10s
	HTTPClient     *http.Client          // Optional: override for tests
	Logger         *slog.Logger          // Optional: structured logger
}

// Client calls the property vendor's reverse geocode, address validation and
// parcel enrichment endpoints. It implements core.Geocoder and core.Enricher.
type Client struct {
	baseURL     string
	credentials core.CredentialSource
	cache       core.CacheRepository
	cacheTTL    time.Duration
	timeout     time.Duration
	http        *http.Client
	logger      *slog.Logger
	extract     *extractor
}

// NewClient constructs a vendor client.
func NewClient(opts ClientOptions) (*Client, error) {
	if opts.BaseURL == "" {
		return nil, errors.New("vendor base URL is required")
	}
	if opts.Credentials == nil {
		return nil, errors.New("credential source is required")
	}

	timeout := opts.RequestTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}
	cacheTTL := opts.CacheTTL
	if cacheTTL <= 0 {
		cacheTTL = 15 * time.Minute
	}

	var logger *slog.Logger
	if opts.Logger != nil {
		logger = opts.Logger.With("component", "property_vendor")
	}

	return &Client{
		baseURL:     opts.BaseURL,
		credentials: opts.Credentials,
		cache:       opts.Cache,
		cacheTTL:    cacheTTL,
		timeout:     timeout,
		http:        httpClient,
		logger:      logger,
		extract:     newExtractor(),
	}, nil
}

// ReverseGeocode returns candidate addresses for a coordinate. Results are
// cached by rounded coordinate to bound request volume against the vendor.
func (c *Client) ReverseGeocode(ctx context.Context, coord model.Coordinate) ([]model.Address, error) {
	key := reverseGeocodeKey(coord)
	if cached, found := c.cachedAddresses(ctx, key); found {
		return cached, nil
	}

	creds, err := c.credentials.VendorCredentials(ctx)
	if err != nil {
		return nil, err
	}
	if creds.GeocoderKey == "" {
		return nil, core.ErrVendorNotConfigured
	}

	query := url.Values{}
	query.Set("point", formatCoord(coord.Lat)+","+formatCoord(coord.Lng))
	query.Set("api_key", creds.GeocoderKey)

	body, err := c.get(ctx, "/v1/reverse", query)
	if err != nil {
		return nil, fmt.Errorf("reverse geocode (%s, %s): %w",
			formatCoord(coord.Lat), formatCoord(coord.Lng), err)
	}

	addresses, err := c.extract.addresses(body)
	if err != nil {
		return nil, fmt.Errorf("parse reverse geocode response: %w", err)
	}

	c.storeAddresses(ctx, key, addresses)
	return addresses, nil
}

// ValidateAddress standardizes an address and returns its geocode.
func (c *Client) ValidateAddress(ctx context.Context, addr model.Address) (*model.StandardizedAddress, error) {
	creds, err := c.credentials.VendorCredentials(ctx)
	if err != nil {
		return nil, err
	}
	if creds.GeocoderKey == "" {
		return nil, core.ErrVendorNotConfigured
	}

	payload, err := json.Marshal(map[string]string{
		"street": addr.Street,
		"city":   addr.City,
		"state":  addr.State,
		"zip":    addr.Zip,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal validate request: %w", err)
	}

	query := url.Values{}
	query.Set("api_key", creds.GeocoderKey)

	body, err := c.post(ctx, "/v1/addresses/validate", query, payload)
	if err != nil {
		return nil, fmt.Errorf("validate address %q: %w", addr.Street, err)
	}

	standardized, err := c.extract.standardizedAddress(body)
	if err != nil {
		return nil, fmt.Errorf("parse validate response: %w", err)
	}
	return standardized, nil
}

// Enrich fetches the owner/parcel attribute bag for a standardized address.
// Missing or unparseable vendor fields default to empty/zero, never error.
func (c *Client) Enrich(ctx context.Context, addr model.StandardizedAddress) (*model.OwnerRecord, error) {
	creds, err := c.credentials.VendorCredentials(ctx)
	if err != nil {
		return nil, err
	}
	if creds.EnrichmentKey == "" {
		return nil, core.ErrVendorNotConfigured
	}

	query := url.Values{}
	query.Set("street", addr.Street)
	query.Set("city", addr.City)
	query.Set("state", addr.State)
	query.Set("zip", addr.Zip)
	query.Set("api_key", creds.EnrichmentKey)

	body, err := c.get(ctx, "/v1/parcels", query)
	if err != nil {
		return nil, fmt.Errorf("enrich %q: %w", addr.Street, err)
	}

	record := c.extract.ownerRecord(body)
	if record.PropertyAddress.Empty() {
		record.PropertyAddress = addr.Address
	}
	return record, nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	return c.do(ctx, http.MethodGet, path, query, nil)
}

func (c *Client) post(ctx context.Context, path string, query url.Values, body []byte) ([]byte, error) {
	return c.do(ctx, http.MethodPost, path, query, body)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body []byte) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("vendor request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("read vendor response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %d", ErrVendorStatus, resp.StatusCode)
	}
	return payload, nil
}

func (c *Client) cachedAddresses(ctx context.Context, key string) ([]model.Address, bool) {
	if c.cache == nil {
		return nil, false
	}
	cached, err := c.cache.Get(ctx, key)
	if err != nil || cached == nil {
		return nil, false
	}
	var addresses []model.Address
	if err := json.Unmarshal(cached, &addresses); err != nil {
		return nil, false
	}
	return addresses, true
}

func (c *Client) storeAddresses(ctx context.Context, key string, addresses []model.Address) {
	if c.cache == nil {
		return
	}
	encoded, err := json.Marshal(addresses)
	if err != nil {
		return
	}
	// Best effort: a cache write failure only costs a future duplicate fetch.
	if err := c.cache.Set(ctx, key, encoded, c.cacheTTL); err != nil && c.logger != nil {
		c.logger.DebugContext(ctx, "cache reverse geocode result failed", "key", key, "error", err)
	}
}

// reverseGeocodeKey rounds coordinates to ~11 cm so nearby probes reuse
// cached results without colliding across distinct parcels.
func reverseGeocodeKey(coord model.Coordinate) string {
	return "revgeo:" + strconv.FormatFloat(coord.Lat, 'f', 6, 64) +
		"," + strconv.FormatFloat(coord.Lng, 'f', 6, 64)
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}
