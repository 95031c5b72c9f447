package runner_test

import (
	"context"
	"testing"

	"volaticloud/internal/enum"
	"volaticloud/internal/runner"

	_ "volaticloud/internal/docker"
	_ "volaticloud/internal/kubernetes"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFactoryCreate(t *testing.T) {
	factory := runner.NewFactory()
	ctx := context.Background()

	t.Run("DockerMissingHost", func(t *testing.T) {
		rt, err := factory.Create(ctx, enum.RunnerDocker, map[string]interface{}{
			"network": "bridge",
		})
		assert.Error(t, err)
		assert.Nil(t, rt)
	})

	t.Run("LocalIsAlwaysStubbed", func(t *testing.T) {
		rt, err := factory.Create(ctx, enum.RunnerLocal, map[string]interface{}{})
		require.NoError(t, err)
		require.NotNil(t, rt)
		assert.Equal(t, "local", rt.Type())

		err = rt.HealthCheck(ctx)
		assert.Error(t, err)
	})

	t.Run("UnsupportedType", func(t *testing.T) {
		rt, err := factory.Create(ctx, enum.RunnerType("invalid"), map[string]interface{}{})
		assert.Error(t, err)
		assert.Nil(t, rt)
		assert.Contains(t, err.Error(), "no runtime creator registered")
	})
}

func TestFactoryCreateBacktestRunner(t *testing.T) {
	factory := runner.NewFactory()
	ctx := context.Background()

	t.Run("LocalReturnsMock", func(t *testing.T) {
		r, err := factory.CreateBacktestRunner(ctx, enum.RunnerLocal, map[string]interface{}{})
		require.NoError(t, err)
		require.NotNil(t, r)
		assert.Equal(t, "mock", r.Type())
	})

	t.Run("UnsupportedType", func(t *testing.T) {
		r, err := factory.CreateBacktestRunner(ctx, enum.RunnerType("invalid"), map[string]interface{}{})
		assert.Error(t, err)
		assert.Nil(t, r)
	})
}

func TestFactoryCreateDataDownloader(t *testing.T) {
	factory := runner.NewFactory()
	ctx := context.Background()

	t.Run("LocalUnsupported", func(t *testing.T) {
		dl, err := factory.CreateDataDownloader(ctx, enum.RunnerLocal, map[string]interface{}{})
		assert.Error(t, err)
		assert.Nil(t, dl)
	})

	t.Run("UnsupportedType", func(t *testing.T) {
		dl, err := factory.CreateDataDownloader(ctx, enum.RunnerType("invalid"), map[string]interface{}{})
		assert.Error(t, err)
		assert.Nil(t, dl)
	})
}

func TestNewFactory(t *testing.T) {
	assert.NotNil(t, runner.NewFactory())
}
