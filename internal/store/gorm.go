package store

import (
	"fmt"
	"time"

	"github.com/salesdeck/insight-console/internal/config"
	"github.com/sirupsen/logrus"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	PostgresType = "pgsql"
	SqliteType   = "sqlite"
)

// InitDB opens the history database: postgres when configured, sqlite otherwise.
func InitDB(cfg *config.Config) (*gorm.DB, error) {
	db, err := gorm.Open(dialector(cfg), &gorm.Config{
		Logger:         newLogger(cfg.Service.LogLevel),
		TranslateError: true,
	})
	if err != nil {
		zap.S().Named("gorm").Errorw("failed to connect database", "type", cfg.Database.Type, "error", err)
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to configure connections: %w", err)
	}

	if cfg.Database.Type != PostgresType {
		// one writer at a time; in-memory databases also live in a single connection
		sqlDB.SetMaxOpenConns(1)
		zap.S().Named("gorm").Infow("using sqlite history database", "name", cfg.Database.Name)
		return db, nil
	}

	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetMaxOpenConns(20)
	sqlDB.SetConnMaxIdleTime(5 * time.Minute)

	var version string
	if err := db.Raw("SELECT version()").Scan(&version).Error; err != nil {
		return nil, fmt.Errorf("failed to query postgres version: %w", err)
	}
	zap.S().Named("gorm").Infow("using postgres history database", "version", version)
	return db, nil
}

func dialector(cfg *config.Config) gorm.Dialector {
	if cfg.Database.Type != PostgresType {
		return sqlite.Open(cfg.Database.Name)
	}
	dsn := fmt.Sprintf("host=%s user=%s password=%s port=%s",
		cfg.Database.Hostname,
		cfg.Database.User,
		cfg.Database.Password,
		cfg.Database.Port,
	)
	if cfg.Database.Name != "" {
		dsn = fmt.Sprintf("%s dbname=%s", dsn, cfg.Database.Name)
	}
	return postgres.Open(dsn)
}

// newLogger routes gorm logs through logrus, printing every query at debug level.
func newLogger(level string) logger.Interface {
	l := logrus.New()
	lvl := logger.Warn
	if level == "debug" {
		l.SetLevel(logrus.DebugLevel)
		lvl = logger.Info
	}
	return logger.New(l, logger.Config{
		SlowThreshold:             time.Second,
		LogLevel:                  lvl,
		IgnoreRecordNotFoundError: true,
		ParameterizedQueries:      true,
		Colorful:                  false,
	})
}
