package config

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type serviceConfig struct {
	Port     int     `env:"TEST_CFG_PORT" envDefault:"8010"`
	Upstream string  `env:"TEST_CFG_UPSTREAM,required"`
	Rate     float64 `env:"TEST_CFG_RATE" envDefault:"0.5"`
}

func (c *serviceConfig) Validate() error {
	if c.Rate > 1 {
		return errors.New("rate above one")
	}
	return nil
}

type plainConfig struct {
	Port int `env:"TEST_CFG_PORT" envDefault:"8010"`
}

func TestLoad_DefaultsAndEnv(t *testing.T) {
	t.Setenv("TEST_CFG_UPSTREAM", "http://catalog")

	var cfg serviceConfig
	require.NoError(t, Load(&cfg))
	assert.Equal(t, 8010, cfg.Port)
	assert.Equal(t, "http://catalog", cfg.Upstream)
	assert.InDelta(t, 0.5, cfg.Rate, 1e-9)

	t.Setenv("TEST_CFG_PORT", "9090")
	require.NoError(t, Load(&cfg))
	assert.Equal(t, 9090, cfg.Port)
}

func TestLoad_RunsValidate(t *testing.T) {
	t.Setenv("TEST_CFG_UPSTREAM", "http://catalog")
	t.Setenv("TEST_CFG_RATE", "2")

	var cfg serviceConfig
	err := Load(&cfg)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid config: rate above one")
}

func TestLoad_ReportsEveryBadVariable(t *testing.T) {
	t.Setenv("TEST_CFG_PORT", "eighty")

	var cfg serviceConfig
	err := Load(&cfg)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse config")
	assert.Contains(t, err.Error(), "TEST_CFG_UPSTREAM")
	assert.Contains(t, err.Error(), "eighty")
}

func TestLoad_WithoutValidator(t *testing.T) {
	var cfg plainConfig
	require.NoError(t, Load(&cfg))
	assert.Equal(t, 8010, cfg.Port)
}
