package db

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stacklok/catalog-sync/internal/config"
)

func TestNewPool_InvalidConfig(t *testing.T) {
	t.Setenv("CATALOG_SYNC_DATABASE_PASSWORD", "secret")

	tests := []struct {
		name          string
		cfg           *config.DatabaseConfig
		errorContains string
	}{
		{
			name:          "nil config",
			cfg:           nil,
			errorContains: "database configuration is required",
		},
		{
			name: "invalid lifetime",
			cfg: &config.DatabaseConfig{
				Host: "localhost", Port: 5432, User: "u", Database: "d",
				ConnMaxLifetime: "forever",
			},
			errorContains: "connMaxLifetime",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pool, err := NewPool(context.Background(), tt.cfg)
			require.Error(t, err)
			assert.Nil(t, pool)
			assert.Contains(t, err.Error(), tt.errorContains)
		})
	}
}

func TestNewPool_MissingPassword(t *testing.T) {
	t.Setenv("CATALOG_SYNC_DATABASE_PASSWORD", "")

	_, err := NewPool(context.Background(), &config.DatabaseConfig{
		Host: "localhost", Port: 5432, User: "u", Database: "d",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to build connection string")
}
