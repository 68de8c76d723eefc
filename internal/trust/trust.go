// Package trust points child analyzers at a CA bundle. It changes process-wide
// state and runs at most once per process.
package trust

import (
	"fmt"
	"os"
	"sync"

	"github.com/ContractForgeEVM/contractforge/internal/logging"
)

var envVars = []string{"SSL_CERT_FILE", "REQUESTS_CA_BUNDLE"}

var (
	once    sync.Once
	initErr error
)

// Install exports bundle as the trust store for child processes. Only the first
// call has any effect; later calls return its result. An empty bundle keeps
// the inherited environment.
func Install(bundle string) error {
	once.Do(func() { initErr = install(bundle) })
	return initErr
}

func install(bundle string) error {
	if bundle == "" {
		return nil
	}
	if _, err := os.Stat(bundle); err != nil {
		return fmt.Errorf("ca bundle: %w", err)
	}
	for _, k := range envVars {
		if err := os.Setenv(k, bundle); err != nil {
			return err
		}
	}
	logging.Logger.Debugw("trust store installed", "bundle", bundle)
	return nil
}
