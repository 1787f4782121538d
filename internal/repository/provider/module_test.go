package provider_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gefpower/windprep/internal/core/config"
	"github.com/gefpower/windprep/internal/repository/inmemory"
	"github.com/gefpower/windprep/internal/repository/provider"
)

func TestNewRunRepository_DefaultsToInMemory(t *testing.T) {
	repo, err := provider.NewRunRepository(provider.RepositoryParams{
		Config: config.NewConfig(),
	})
	require.NoError(t, err)

	_, ok := repo.(*inmemory.InMemoryRunRepository)
	assert.True(t, ok, "no metadata_db_ref should select the in-memory repository")
}

func TestNewRunRepository_UnknownRefFails(t *testing.T) {
	cfg := config.NewConfig()
	cfg.Windprep.Batch.MetadataDBRef = "nowhere"

	_, err := provider.NewRunRepository(provider.RepositoryParams{Config: cfg})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nowhere")
}
