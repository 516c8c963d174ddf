package service

import (
	"context"
	"sync"

	"github.com/parcelworks/landscout/config"
	"github.com/parcelworks/landscout/internal/core"
)

// ConfigCredentialSource serves vendor credentials injected from
// configuration. Reload swaps keys at runtime so rotated credentials take
// effect without a restart.
type ConfigCredentialSource struct {
	mu    sync.RWMutex
	creds core.VendorCredentials
}

// NewConfigCredentialSource constructs a credential source from vendor config.
func NewConfigCredentialSource(cfg config.VendorConfig) *ConfigCredentialSource {
	s := &ConfigCredentialSource{}
	s.Reload(cfg)
	return s
}

// VendorCredentials implements core.CredentialSource.
func (s *ConfigCredentialSource) VendorCredentials(_ context.Context) (core.VendorCredentials, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.creds, nil
}

// Reload replaces the held credentials with the given config's keys.
func (s *ConfigCredentialSource) Reload(cfg config.VendorConfig) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creds = core.VendorCredentials{
		GeocoderKey:   cfg.GeocoderKey,
		EnrichmentKey: cfg.EnrichmentKey,
	}
}
