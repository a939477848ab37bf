package bootstrap

import (
	"fmt"

	"github.com/go-authgate/basicgate/internal/config"
)

// validateAllConfiguration validates all configuration settings
func validateAllConfiguration(cfg *config.Config) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if cfg.DatabaseDriver == config.DatabaseDriverPostgres && cfg.DatabaseDSN == "" {
		return fmt.Errorf("invalid configuration: DATABASE_DSN is required for postgres")
	}
	return nil
}
