// Package mocks provides mock implementations for testing the landscout task system.
//
// This package uses go.uber.org/mock (gomock) to generate type-safe mocks for the core interfaces.
// The mocks are generated using go:generate directives and provide a fluent API for setting up test expectations.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	defer ctrl.Finish()
//	mockGeocoder := mocks.NewMockGeocoder(ctrl)
//	mockGeocoder.EXPECT().ReverseGeocode(gomock.Any(), gomock.Any()).Return(addresses, nil)
package mocks

// Generate mock for Geocoder interface from internal/core package.
// This creates MockGeocoder with methods for all Geocoder interface methods:
// ReverseGeocode, ValidateAddress
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=geocoder_mock.go github.com/parcelworks/landscout/internal/core Geocoder

// Generate mock for Enricher interface from internal/core package.
// This creates MockEnricher with methods for all Enricher interface methods:
// Enrich
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=enricher_mock.go github.com/parcelworks/landscout/internal/core Enricher

// Generate mock for DemographicsClient interface from internal/core package.
// This creates MockDemographicsClient with methods for all DemographicsClient interface methods:
// FetchTracts
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=demographics_client_mock.go github.com/parcelworks/landscout/internal/core DemographicsClient

// Generate mock for CredentialSource interface from internal/core package.
// This creates MockCredentialSource with methods for all CredentialSource interface methods:
// VendorCredentials
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=credential_source_mock.go github.com/parcelworks/landscout/internal/core CredentialSource
