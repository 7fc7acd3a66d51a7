// internal/storage/store.go
package storage

import (
	"context"

	"mcp-calorie-ledger/internal/models"
)

// Store is the string-keyed day-record store the ledger writes through.
// Get returns (nil, nil) when no record exists for the key.
type Store interface {
	Get(ctx context.Context, key string) (*models.DayRecord, error)
	Put(ctx context.Context, key string, rec *models.DayRecord) error
	Close() error
}
