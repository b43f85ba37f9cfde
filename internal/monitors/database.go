package monitors

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
)

const defaultDatabaseTimeout = 5 * time.Second

// CheckDatabase pings the pool behind database.
func CheckDatabase(ctx context.Context, database *gorm.DB) error {
	ctx, cancel := context.WithTimeout(ctx, defaultDatabaseTimeout)
	defer cancel()

	sqlDB, err := database.DB()

	if err != nil {
		return fmt.Errorf("failed to get database handle: %v", err)
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %v", err)
	}

	return nil
}
