package runner

import (
	"fmt"

	"volaticloud/internal/enum"
)

// ValidateConfig validates runner configuration based on runner type. Docker
// and Kubernetes delegate to validators their packages register at init()
// time; Local is rejected with a "not yet supported" error.
func ValidateConfig(runnerType enum.RunnerType, configData map[string]interface{}) error {
	if configData == nil {
		return fmt.Errorf("config cannot be nil")
	}

	if runnerType == enum.RunnerLocal {
		return fmt.Errorf("local runner is not yet supported")
	}

	validator, err := GetConfigValidator(runnerType)
	if err != nil {
		return err
	}
	return validator(configData)
}
