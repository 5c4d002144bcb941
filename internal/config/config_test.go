package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDefaultMatchesDocumentedValues(t *testing.T) {
	c := Default()

	assert.Equal(t, 100, c.RateLimitPerMinute)
	assert.Equal(t, 20, c.RateLimitBurst)
	assert.Equal(t, 1000, c.RateLimitPerHour)
	assert.Equal(t, "DEFAULT_GROUP", c.NacosGroup)
	assert.True(t, c.AuthRequired)
	assert.False(t, c.DefaultUserIDAllowed)
	assert.NoError(t, c.Validate())
}

func TestFromEnvOverridesDefaults(t *testing.T) {
	t.Setenv("RATE_LIMIT_PER_MINUTE", "50")
	t.Setenv("RATE_LIMIT_BURST", "5")
	t.Setenv("RATE_LIMIT_PER_HOUR", "500")
	t.Setenv("CONTEXT_CACHE_TTL_HOURS", "2")
	t.Setenv("CONTEXT_CACHE_PRESSURE_THRESHOLD", "250")
	t.Setenv("TOKEN_CACHE_TTL_SECONDS", "60")
	t.Setenv("AUTH_REQUIRED", "false")
	t.Setenv("DEFAULT_USER_ID_ALLOWED", "true")

	c := FromEnv()

	assert.Equal(t, 50, c.RateLimitPerMinute)
	assert.Equal(t, 5, c.RateLimitBurst)
	assert.Equal(t, 500, c.RateLimitPerHour)
	assert.Equal(t, 2*time.Hour, c.ContextCacheTTL)
	assert.Equal(t, 250, c.ContextCachePressureThreshold)
	assert.Equal(t, 60*time.Second, c.TokenCacheTTL)
	assert.False(t, c.AuthRequired)
	assert.True(t, c.DefaultUserIDAllowed)
	assert.NoError(t, c.Validate())
}

func TestFromEnvIgnoresMalformedValues(t *testing.T) {
	t.Setenv("RATE_LIMIT_PER_MINUTE", "not-a-number")

	c := FromEnv()

	assert.Equal(t, Default().RateLimitPerMinute, c.RateLimitPerMinute)
}

func TestValidateRejectsOutOfRangeValues(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*Config)
		errorMsg string
	}{
		{
			name:     "rate_limit_per_minute zero",
			mutate:   func(c *Config) { c.RateLimitPerMinute = 0 },
			errorMsg: "rate_limit_per_minute must be at least 1",
		},
		{
			name:     "rate_limit_burst zero",
			mutate:   func(c *Config) { c.RateLimitBurst = 0 },
			errorMsg: "rate_limit_burst must be at least 1",
		},
		{
			name:     "rate_limit_per_hour below per-minute",
			mutate:   func(c *Config) { c.RateLimitPerHour = 1 },
			errorMsg: "must be >= rate_limit_per_minute",
		},
		{
			name:     "context_cache_ttl non-positive",
			mutate:   func(c *Config) { c.ContextCacheTTL = 0 },
			errorMsg: "context_cache_ttl must be positive",
		},
		{
			name:     "context_cache_pressure_threshold zero",
			mutate:   func(c *Config) { c.ContextCachePressureThreshold = 0 },
			errorMsg: "context_cache_pressure_threshold must be at least 1",
		},
		{
			name:     "token_cache_ttl non-positive",
			mutate:   func(c *Config) { c.TokenCacheTTL = 0 },
			errorMsg: "token_cache_ttl must be positive",
		},
		{
			name: "auth disabled without explicit default user id",
			mutate: func(c *Config) {
				c.AuthRequired = false
				c.DefaultUserIDAllowed = false
			},
			errorMsg: "AUTH_REQUIRED=false requires DEFAULT_USER_ID_ALLOWED=true",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			tt.mutate(c)
			err := c.Validate()
			assert.Error(t, err)
			assert.Contains(t, err.Error(), tt.errorMsg)
		})
	}
}

func TestFromEnvDefaultsNacosDataID(t *testing.T) {
	os.Unsetenv("NACOS_DATA_ID")
	c := FromEnv()
	assert.Equal(t, "conductor.yaml", c.NacosDataID)
}
