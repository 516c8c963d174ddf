package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ServiceMode represents the available service modes.
type ServiceMode string

const (
	// ServiceModeEngine runs the task engine.
	ServiceModeEngine ServiceMode = "engine"
	// ServiceModeReaper runs the task reaper for cleanup.
	ServiceModeReaper ServiceMode = "reaper"
)

// ValidServiceModes returns all valid service mode names.
func ValidServiceModes() []ServiceMode {
	return []ServiceMode{
		ServiceModeEngine,
		ServiceModeReaper,
	}
}

// ParseServices parses a comma-delimited string of service names and returns the enabled services.
// It validates that all service names are valid and returns an error if any are invalid.
func ParseServices(servicesStr string) (map[ServiceMode]bool, error) {
	services := make(map[ServiceMode]bool)

	if servicesStr == "" {
		return services, errors.New("at least one service must be specified")
	}

	parts := strings.Split(servicesStr, ",")
	for _, part := range parts {
		serviceName := strings.TrimSpace(part)
		if serviceName == "" {
			continue
		}

		mode := ServiceMode(serviceName)
		switch mode {
		case ServiceModeEngine, ServiceModeReaper:
			services[mode] = true
		default:
			return nil, fmt.Errorf(
				"invalid service name: %q (valid options: engine, reaper)",
				serviceName,
			)
		}
	}

	if len(services) == 0 {
		return nil, errors.New("at least one valid service must be specified")
	}

	return services, nil
}

// EngineConfig contains task engine configuration.
type EngineConfig struct {
	// MaxConcurrent is the number of tasks allowed to run at once.
	MaxConcurrent int `env:"ENGINE_MAX_CONCURRENT" envDefault:"2"`

	// PollInterval is the pending-task sweep interval.
	PollInterval time.Duration `env:"ENGINE_POLL_INTERVAL" envDefault:"15s"`

	// BatchItemDelay is the pause between batch enrichment items.
	BatchItemDelay time.Duration `env:"ENGINE_BATCH_ITEM_DELAY" envDefault:"500ms"`
}

// Sanitize applies guardrails to engine configuration values.
func (e *EngineConfig) Sanitize() {
	if e.MaxConcurrent < 1 {
		e.MaxConcurrent = 1
	}
	if e.PollInterval < time.Second {
		e.PollInterval = time.Second
	}
	if e.BatchItemDelay < 0 {
		e.BatchItemDelay = 0
	}
}

// ResolverConfig contains coordinate resolver configuration.
type ResolverConfig struct {
	// MaxRadiusMeters bounds the outward ring search.
	MaxRadiusMeters float64 `env:"RESOLVER_MAX_RADIUS_METERS" envDefault:"500"`
}

// Sanitize applies guardrails to resolver configuration values.
func (r *ResolverConfig) Sanitize() {
	if r.MaxRadiusMeters <= 0 {
		r.MaxRadiusMeters = 500
	}
}

// ReaperConfig contains task reaper service configuration.
type ReaperConfig struct {
	// Interval is the reaper tick interval.
	Interval time.Duration `env:"REAPER_INTERVAL" envDefault:"5m"`

	// RetentionAge is how long terminal tasks are kept before deletion.
	RetentionAge time.Duration `env:"REAPER_RETENTION_AGE" envDefault:"24h"`
}

// Sanitize applies guardrails to reaper configuration values.
func (r *ReaperConfig) Sanitize() {
	// Enforce minimum intervals to prevent excessive database load
	if r.Interval < 1*time.Minute {
		r.Interval = 1 * time.Minute
	}
	if r.RetentionAge < 1*time.Hour {
		r.RetentionAge = 1 * time.Hour
	}
}
