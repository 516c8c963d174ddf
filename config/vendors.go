package config

import (
	"strings"
	"time"
)

// VendorConfig contains credentials and endpoints for the property vendor and
// the census data API. Vendor keys have no defaults: a blank key keeps the
// resolver in its not-configured state instead of calling out with bad auth.
type VendorConfig struct {
	// GeocoderKey authenticates reverse-geocode and validation calls.
	GeocoderKey string `env:"VENDOR_GEOCODER_KEY"`

	// EnrichmentKey authenticates parcel enrichment calls.
	EnrichmentKey string `env:"VENDOR_ENRICHMENT_KEY"`

	// PropertyBaseURL is the property vendor API root.
	PropertyBaseURL string `env:"VENDOR_PROPERTY_BASE_URL" envDefault:"https://api.propertydata.example.com"`

	// CensusBaseURL is the census data API root.
	CensusBaseURL string `env:"VENDOR_CENSUS_BASE_URL" envDefault:"https://api.censusdata.example.gov"`

	// RequestTimeout caps each vendor HTTP call.
	RequestTimeout time.Duration `env:"VENDOR_REQUEST_TIMEOUT" envDefault:"10s"`
}

// Sanitize applies guardrails to vendor configuration values.
func (v *VendorConfig) Sanitize() {
	v.GeocoderKey = strings.TrimSpace(v.GeocoderKey)
	v.EnrichmentKey = strings.TrimSpace(v.EnrichmentKey)
	v.PropertyBaseURL = strings.TrimRight(strings.TrimSpace(v.PropertyBaseURL), "/")
	v.CensusBaseURL = strings.TrimRight(strings.TrimSpace(v.CensusBaseURL), "/")
	if v.RequestTimeout <= 0 {
		v.RequestTimeout = 10 * time.Second
	}
}
