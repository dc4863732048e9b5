package core

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"axiapac.com/timeclock/model"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type LogLevel int

const (
	LogLevelSilent LogLevel = iota + 1
	LogLevelError
	LogLevelWarn
	LogLevelInfo
)

// ParseLogLevel maps a config value ("silent", "error", "warn", "info") to a
// LogLevel. Unknown values fall back to warn.
func ParseLogLevel(s string) LogLevel {
	switch strings.ToLower(s) {
	case "silent":
		return LogLevelSilent
	case "error":
		return LogLevelError
	case "info", "debug":
		return LogLevelInfo
	default:
		return LogLevelWarn
	}
}

func (l LogLevel) gormLevel() logger.LogLevel {
	switch l {
	case LogLevelError:
		return logger.Error
	case LogLevelWarn:
		return logger.Warn
	case LogLevelInfo:
		return logger.Info
	case LogLevelSilent:
		return logger.Silent
	default:
		return logger.Warn
	}
}

// DatabaseManager owns the connection pool shared by the stores.
type DatabaseManager struct {
	DB       *gorm.DB
	SqlDB    *sql.DB
	LogLevel LogLevel
}

// New opens a MySQL pool with up to maxConnection connections.
func New(dsn string, maxConnection int, level LogLevel) (*DatabaseManager, error) {
	return Open(mysql.Open(dsn), maxConnection, level)
}

// Open wraps any gorm dialector; tests pass an in-memory sqlite dialector.
func Open(dialector gorm.Dialector, maxConnection int, level LogLevel) (*DatabaseManager, error) {
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(level.gormLevel()),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open gorm: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to open pool: %w", err)
	}
	sqlDB.SetMaxOpenConns(maxConnection)
	sqlDB.SetMaxIdleConns(maxConnection)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping pool: %w", err)
	}

	return &DatabaseManager{DB: db, SqlDB: sqlDB, LogLevel: level}, nil
}

// Close closes the pool
func (dm *DatabaseManager) Close() error {
	return dm.SqlDB.Close()
}

// Exec runs fn inside a transaction bound to ctx.
func (dm *DatabaseManager) Exec(ctx context.Context, fn func(db *gorm.DB) error) error {
	return dm.DB.WithContext(ctx).Transaction(fn)
}

// Migrate creates or updates the tables owned by this service.
func (dm *DatabaseManager) Migrate(ctx context.Context) error {
	return dm.DB.WithContext(ctx).AutoMigrate(
		&model.Staff{},
		&model.Device{},
		&model.Enrollment{},
		&model.ShiftPolicy{},
		&model.PunchEvent{},
		&model.AttendanceRecord{},
		&model.SyncRun{},
	)
}
