package config

import (
	"testing"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseServices(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    map[ServiceMode]bool
		wantErr bool
	}{
		{
			name:  "single service",
			input: "engine",
			want:  map[ServiceMode]bool{ServiceModeEngine: true},
		},
		{
			name:  "multiple services",
			input: "engine,reaper",
			want:  map[ServiceMode]bool{ServiceModeEngine: true, ServiceModeReaper: true},
		},
		{
			name:  "whitespace tolerated",
			input: " engine , reaper ",
			want:  map[ServiceMode]bool{ServiceModeEngine: true, ServiceModeReaper: true},
		},
		{
			name:    "empty string",
			input:   "",
			wantErr: true,
		},
		{
			name:    "invalid name",
			input:   "engine,web",
			wantErr: true,
		},
		{
			name:    "only commas",
			input:   ",,",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseServices(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAppConfigDefaults(t *testing.T) {
	var cfg AppConfig
	require.NoError(t, env.Parse(&cfg))
	cfg.Sanitize()

	assert.Equal(t, DriverPostgres, cfg.Database.Driver)
	assert.Equal(t, 2, cfg.Engine.MaxConcurrent)
	assert.Equal(t, 500.0, cfg.Resolver.MaxRadiusMeters)
	assert.Equal(t, 24*time.Hour, cfg.Reaper.RetentionAge)
	assert.Equal(t, 1024, cfg.Cache.Capacity)
	assert.True(t, cfg.IsEngineEnabled())
	assert.False(t, cfg.IsReaperEnabled())
}

func TestAppConfigFromEnv(t *testing.T) {
	t.Setenv("SERVICES", "engine,reaper")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DB_SQLITE_PATH", ":memory:")
	t.Setenv("ENGINE_MAX_CONCURRENT", "4")
	t.Setenv("VENDOR_GEOCODER_KEY", "  geo-key  ")

	var cfg AppConfig
	require.NoError(t, env.Parse(&cfg))
	cfg.Sanitize()

	assert.Equal(t, DriverSQLite, cfg.Database.Driver)
	assert.Equal(t, ":memory:", cfg.Database.SQLitePath)
	assert.Equal(t, 4, cfg.Engine.MaxConcurrent)
	assert.Equal(t, "geo-key", cfg.Vendors.GeocoderKey)
	assert.True(t, cfg.IsEngineEnabled())
	assert.True(t, cfg.IsReaperEnabled())
}

func TestEngineConfigSanitize(t *testing.T) {
	cfg := EngineConfig{MaxConcurrent: 0, PollInterval: 10 * time.Millisecond, BatchItemDelay: -1}
	cfg.Sanitize()

	assert.Equal(t, 1, cfg.MaxConcurrent)
	assert.Equal(t, time.Second, cfg.PollInterval)
	assert.Equal(t, time.Duration(0), cfg.BatchItemDelay)
}

func TestReaperConfigSanitize(t *testing.T) {
	cfg := ReaperConfig{Interval: time.Second, RetentionAge: time.Minute}
	cfg.Sanitize()

	assert.Equal(t, time.Minute, cfg.Interval)
	assert.Equal(t, time.Hour, cfg.RetentionAge)
}

func TestResolverConfigSanitize(t *testing.T) {
	cfg := ResolverConfig{MaxRadiusMeters: -10}
	cfg.Sanitize()
	assert.Equal(t, 500.0, cfg.MaxRadiusMeters)
}

func TestVendorConfigSanitize(t *testing.T) {
	cfg := VendorConfig{
		GeocoderKey:     " key ",
		PropertyBaseURL: "https://vendor.example.com/ ",
		RequestTimeout:  -1,
	}
	cfg.Sanitize()

	assert.Equal(t, "key", cfg.GeocoderKey)
	assert.Equal(t, "https://vendor.example.com", cfg.PropertyBaseURL)
	assert.Equal(t, 10*time.Second, cfg.RequestTimeout)
}

func TestNotificationsSanitizeDisablesSinksWithoutTargets(t *testing.T) {
	cfg := ObservabilityNotificationsConfig{
		Enabled: true,
		Slack:   SlackNotificationConfig{Enabled: true},
		PagerDuty: PagerDutyNotificationConfig{
			Enabled:    true,
			RoutingKey: "rk",
		},
	}
	cfg.Sanitize()

	assert.False(t, cfg.Slack.Enabled, "slack without webhook should be disabled")
	assert.True(t, cfg.PagerDuty.Enabled)
}

func TestDetectDevModeFromAppEnv(t *testing.T) {
	t.Setenv("APP_ENV", "development")

	var cfg AppConfig
	require.NoError(t, env.Parse(&cfg))
	cfg.Sanitize()

	assert.True(t, cfg.IsDev)
}

func TestPostgresDSN(t *testing.T) {
	cfg := DBConfig{
		Host: "db.internal", Port: 5433, User: "svc", Password: "pw",
		Name: "tasks", SSLMode: "require",
	}
	assert.Equal(t, "postgres://svc:pw@db.internal:5433/tasks?sslmode=require", cfg.PostgresDSN())
}
