package runner

import (
	"context"
	"fmt"

	"volaticloud/internal/enum"
)

// Factory creates Runtime, BacktestRunner and DataDownloader instances based
// on runner type and configuration. Docker and Kubernetes register their
// creators from their own package's init() via RegisterRuntimeCreator et al.,
// which avoids an import cycle back into this package. Local is built
// directly since it has no satellite package of its own.
type Factory struct{}

// NewFactory creates a new runtime factory
func NewFactory() *Factory {
	return &Factory{}
}

// Create creates a Runtime instance based on the given type and configuration
func (f *Factory) Create(ctx context.Context, runnerType enum.RunnerType, configData map[string]interface{}) (Runtime, error) {
	if runnerType == enum.RunnerLocal {
		return NewLocalRuntime(), nil
	}

	creator, err := GetRuntimeCreator(runnerType)
	if err != nil {
		return nil, err
	}
	return creator(ctx, configData)
}

// CreateBacktestRunner creates a BacktestRunner instance based on the given type and configuration
func (f *Factory) CreateBacktestRunner(ctx context.Context, runnerType enum.RunnerType, configData map[string]interface{}) (BacktestRunner, error) {
	if runnerType == enum.RunnerLocal {
		return &MockBacktestRunner{}, nil
	}

	creator, err := GetBacktestRunnerCreator(runnerType)
	if err != nil {
		return nil, err
	}
	return creator(ctx, configData)
}

// CreateDataDownloader creates a DataDownloader instance for the given runner
// type. Local has no data-download support since it never holds a
// historical-data volume of its own.
func (f *Factory) CreateDataDownloader(ctx context.Context, runnerType enum.RunnerType, configData map[string]interface{}) (DataDownloader, error) {
	if runnerType == enum.RunnerLocal {
		return nil, fmt.Errorf("local runtime does not support data download")
	}

	creator, err := GetDataDownloaderCreator(runnerType)
	if err != nil {
		return nil, err
	}
	return creator(ctx, configData)
}
