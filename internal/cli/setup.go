package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/envctl/envctl/pkg/backup/store"
	"github.com/envctl/envctl/pkg/envfile"
	"github.com/envctl/envctl/pkg/monitor"
	"github.com/envctl/envctl/pkg/policy"
)

// resolveProjectDir returns the project directory, honoring the flag
// and the ENVCTL_PROJECT_DIR environment variable.
func resolveProjectDir() string {
	if dir := viper.GetString("project_dir"); dir != "" {
		return dir
	}
	return "."
}

// loadPolicy returns the active rule policy, honoring --policy and
// ENVCTL_POLICY.
func loadPolicy() (*policy.Policy, error) {
	path := policyPath
	if path == "" {
		path = viper.GetString("policy")
	}
	if path == "" {
		return policy.Default(), nil
	}
	return policy.Load(path)
}

// newLogger builds the CLI logger. Diagnostics go to stderr so stdout
// stays parseable.
func newLogger() (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{"stderr"}
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	return cfg.Build()
}

// newManager wires a file manager over the configured project
// directory.
func newManager() (*envfile.Manager, error) {
	pol, err := loadPolicy()
	if err != nil {
		return nil, err
	}
	logger, err := newLogger()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return envfile.NewManager(resolveProjectDir(), pol, logger), nil
}

// newMonitor wires a monitor over the configured project directory.
func newMonitor() (*monitor.Monitor, error) {
	pol, err := loadPolicy()
	if err != nil {
		return nil, err
	}
	logger, err := newLogger()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return monitor.New(monitor.Options{
		Dir:    resolveProjectDir(),
		Policy: pol,
		Logger: logger,
	}), nil
}

// createStore builds an offsite store from --store and the repeatable
// --store-config key=value pairs.
func createStore(storeType string, storeConfig []string) (store.Store, error) {
	cfg := make(map[string]string)
	for _, kv := range storeConfig {
		parts := strings.SplitN(kv, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid store config %q (expected key=value)", kv)
		}
		cfg[parts[0]] = parts[1]
	}
	return store.Create(store.Config{Type: storeType, Config: cfg})
}
