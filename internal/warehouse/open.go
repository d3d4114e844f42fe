package warehouse

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/ascentvc/diligence-cli/internal/config"
)

// Open builds the configured warehouse backend.
func Open(ctx context.Context, cfg config.WarehouseConfig) (Warehouse, error) {
	switch cfg.Driver {
	case "postgres", "":
		if cfg.DatabaseURL == "" {
			return nil, eris.New("warehouse: database_url is required for the postgres driver")
		}
		return NewPostgres(ctx, cfg.DatabaseURL, nil)
	case "sqlite":
		dsn := cfg.Dataset
		if dsn == "" {
			dsn = "diligence.db"
		}
		return NewSQLite(dsn)
	default:
		return nil, eris.Errorf("warehouse: unknown driver %q", cfg.Driver)
	}
}
