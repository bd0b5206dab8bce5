package container

import (
	"testing"

	"chat-relay/internal/store"
	"chat-relay/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestEnv(t testing.TB) {
	t.Helper()
	t.Setenv("PORT", "3001")
	t.Setenv("OPENAI_API_KEY", "sk-test")
}

func TestBuildContainer(t *testing.T) {
	setupTestEnv(t)

	container, err := BuildContainer()
	require.NoError(t, err)
	require.NotNil(t, container)
}

func TestBuildContainerConfigManagerResolution(t *testing.T) {
	setupTestEnv(t)

	container, err := BuildContainer()
	require.NoError(t, err)

	err = container.Invoke(func(cm types.ConfigManager) {
		assert.NotNil(t, cm)
		assert.Equal(t, 3001, cm.GetEffectiveServerConfig().Port)
	})
	require.NoError(t, err)
}

func TestBuildContainerStoreResolution(t *testing.T) {
	setupTestEnv(t)

	container, err := BuildContainer()
	require.NoError(t, err)

	err = container.Invoke(func(st store.Store) {
		assert.NotNil(t, st)
		defer st.Close()
	})
	require.NoError(t, err)
}

func TestBuildContainerSingleton(t *testing.T) {
	setupTestEnv(t)

	container, err := BuildContainer()
	require.NoError(t, err)

	var cm1, cm2 types.ConfigManager
	require.NoError(t, container.Invoke(func(cm types.ConfigManager) { cm1 = cm }))
	require.NoError(t, container.Invoke(func(cm types.ConfigManager) { cm2 = cm }))
	assert.Same(t, cm1, cm2)
}

func TestBuildContainerCustomConfig(t *testing.T) {
	setupTestEnv(t)
	t.Setenv("HOST", "127.0.0.1")
	t.Setenv("MAX_CONCURRENT_REQUESTS", "200")
	t.Setenv("RELAY_FLUSH_THRESHOLD", "64")

	container, err := BuildContainer()
	require.NoError(t, err)

	err = container.Invoke(func(cm types.ConfigManager) {
		assert.Equal(t, "127.0.0.1", cm.GetEffectiveServerConfig().Host)
		assert.Equal(t, 200, cm.GetPerformanceConfig().MaxConcurrentRequests)
		assert.Equal(t, 64, cm.GetRelayConfig().FlushThreshold)
	})
	require.NoError(t, err)
}
