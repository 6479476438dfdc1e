package repo

import (
	"context"
	"fmt"
)

// Ping runs SELECT 1 through the pool.
func (r *GormRepo) Ping(ctx context.Context) error {
	var result int
	if err := r.DB.WithContext(ctx).Raw("SELECT 1").Scan(&result).Error; err != nil {
		return err
	}
	if result != 1 {
		return fmt.Errorf("health check returned %d", result)
	}
	return nil
}
