package database

import (
	"context"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/bookshelf/internal/config"
	"github.com/mrlokans/bookshelf/internal/entities"
)

// Database owns the process-wide connection pool. It is created once in the
// entrypoint and handed to repositories and services by reference.
type Database struct {
	DB *gorm.DB
}

// NewDatabase connects using cfg and migrates the schema.
func NewDatabase(cfg config.Database, gormLogger logger.Interface) (*Database, error) {
	db, err := Connect(cfg, gormLogger)
	if err != nil {
		return nil, err
	}

	if err := Migrate(db); err != nil {
		closeDB(db)
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &Database{DB: db}, nil
}

// Connect opens a connection for the configured database type.
func Connect(cfg config.Database, gormLogger logger.Interface) (*gorm.DB, error) {
	dialector, err := dialectorFor(cfg)
	if err != nil {
		return nil, err
	}

	if gormLogger == nil {
		gormLogger = logger.Default.LogMode(logger.Warn)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:                                   gormLogger,
		TranslateError:                           true,
		DisableForeignKeyConstraintWhenMigrating: cfg.Type == config.DatabaseSQLite,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying SQL DB: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	log.WithField("type", cfg.Type).Info("Connected to database")
	return db, nil
}

func dialectorFor(cfg config.Database) (gorm.Dialector, error) {
	switch cfg.Type {
	case config.DatabaseSQLite, "":
		if cfg.Path == "" {
			return nil, fmt.Errorf("database path is required for sqlite")
		}
		return sqlite.Open(sqliteDSN(cfg.Path)), nil
	case config.DatabasePostgres:
		if cfg.URL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required for postgres")
		}
		return postgres.Open(cfg.URL), nil
	case config.DatabaseMySQL:
		if cfg.URL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required for mysql")
		}
		return mysql.Open(cfg.URL), nil
	default:
		return nil, fmt.Errorf("unsupported database type: %s", cfg.Type)
	}
}

// sqliteDSN enables WAL and immediate write locks so concurrent requests
// wait on the busy timeout instead of failing with SQLITE_BUSY.
func sqliteDSN(path string) string {
	if path == ":memory:" || strings.Contains(path, "?") {
		return path
	}
	return path + "?_journal=WAL&_busy_timeout=5000&_txlock=immediate"
}

// Migrate creates or updates all tables.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&entities.User{},
		&entities.Book{},
		&entities.LibraryEntry{},
		&entities.Review{},
		&entities.ReviewVote{},
		&entities.AuditEvent{},
	)
	if err != nil {
		return err
	}
	return backfillBookSearchText(db)
}

// backfillBookSearchText fills search_text for rows written before the
// column existed.
func backfillBookSearchText(db *gorm.DB) error {
	var batch []entities.Book
	return db.Where("search_text IS NULL OR search_text = ''").
		FindInBatches(&batch, 200, func(*gorm.DB, int) error {
			for _, b := range batch {
				err := db.Model(&entities.Book{}).Where("id = ?", b.ID).
					UpdateColumn("search_text", entities.BookSearchText(b.Title, b.Author, b.Description)).Error
				if err != nil {
					return fmt.Errorf("backfill search text of book %d: %w", b.ID, err)
				}
			}
			return nil
		}).Error
}

// Ping verifies the connection is alive.
func (d *Database) Ping(ctx context.Context) error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (d *Database) Close() error {
	return closeDB(d.DB)
}

func closeDB(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
