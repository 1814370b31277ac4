package database

import (
	"context"
	"strings"
	"time"

	"studio-backend/internal/domain"

	"github.com/glebarez/sqlite"
	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	sqlitePrefix = "sqlite:"
	// foreign keys are off by default in SQLite; the cascades in the schema need them.
	sqliteForeignKeys = "_pragma=foreign_keys(1)"
)

// newLogger reports slow queries and errors to w. Lookups that find nothing are an expected
// answer (first booking from an email, first event for an intent), not an error.
func newLogger(w logger.Writer) logger.Interface {
	return logger.New(w, logger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  logger.Warn,
		IgnoreRecordNotFoundError: true,
	})
}

// zerologWriter sends GORM's messages to the global logger at warn level.
type zerologWriter struct{}

func (zerologWriter) Printf(format string, args ...interface{}) {
	log.Warn().Str("component", "gorm").Msgf(format, args...)
}

// Open opens a GORM DB from DSN. A "sqlite:<path>" DSN opens a local SQLite file (or
// "sqlite::memory:") for development; anything else is treated as a Postgres URL.
// PreferSimpleProtocol disables prepared statement caching to avoid 42P05
// ("prepared statement already exists") behind poolers such as PgBouncer.
func Open(dsn string) (*gorm.DB, error) {
	cfg := &gorm.Config{Logger: newLogger(zerologWriter{})}
	if strings.HasPrefix(dsn, sqlitePrefix) {
		db, err := gorm.Open(sqlite.Open(sqliteDSN(strings.TrimPrefix(dsn, sqlitePrefix))), cfg)
		if err != nil {
			return nil, err
		}
		// SQLite allows a single writer; one connection also keeps ":memory:" databases shared.
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
		return db, nil
	}
	return gorm.Open(postgres.New(postgres.Config{
		DSN:                  dsn,
		PreferSimpleProtocol: true,
	}), cfg)
}

func sqliteDSN(path string) string {
	if strings.Contains(path, "?") {
		return path + "&" + sqliteForeignKeys
	}
	return path + "?" + sqliteForeignKeys
}

// AutoMigrate creates or updates the booking tables.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&domain.AdminUser{}, &domain.Client{}, &domain.Project{}, &domain.Payment{})
}

// Close releases the underlying connection pool.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// GormPing checks the database is reachable.
func GormPing(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
