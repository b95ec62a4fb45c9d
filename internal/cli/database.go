package cli

import (
	"path/filepath"

	"github.com/mrlokans/bookshelf/internal/config"
	"github.com/mrlokans/bookshelf/internal/database"
	"github.com/mrlokans/bookshelf/internal/logging"
)

// openDatabase connects with the configured settings. dbPath, when set,
// overrides the sqlite file.
func openDatabase(cfg *config.Config, dbPath string) (*database.Database, error) {
	dbCfg := cfg.Database
	if dbPath != "" {
		abs, err := filepath.Abs(dbPath)
		if err != nil {
			return nil, err
		}
		dbCfg.Type = config.DatabaseSQLite
		dbCfg.Path = abs
	}
	return database.NewDatabase(dbCfg, logging.GormLogger(cfg.Logging))
}
