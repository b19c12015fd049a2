package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var log = logrus.New()

func init() {
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetLevel(logrus.InfoLevel)
}

const maxConnectAttempts = 5

// InitDatabase opens the configured database and verifies the connection with
// a ping. Transient failures are retried with exponential backoff so the
// service survives a database that comes up slower than it does.
func InitDatabase(cfg DatabaseConfig) (*gorm.DB, error) {
	driver := cfg.NormalizedDriver()
	if driver != "postgres" && driver != "sqlite" {
		return nil, fmt.Errorf("unsupported database driver: %s (supported: postgres, sqlite)", driver)
	}

	log.WithFields(logrus.Fields{
		"db_driver": driver,
		"db_host":   cfg.Host,
		"db_name":   cfg.Name,
		"db_path":   cfg.Path,
	}).Info("Initializing database connection")

	var lastErr error
	for attempt := 1; attempt <= maxConnectAttempts; attempt++ {
		db, err := openDatabase(driver, cfg)
		if err == nil {
			return db, nil
		}
		lastErr = err

		log.WithFields(logrus.Fields{
			"attempt":      attempt,
			"max_attempts": maxConnectAttempts,
			"error":        err.Error(),
		}).Warn("Database connection attempt failed")

		if attempt < maxConnectAttempts {
			// 1s, 2s, 4s, 8s between attempts
			delay := time.Duration(1<<(attempt-1)) * time.Second
			log.WithField("delay", delay).Info("Retrying database connection")
			time.Sleep(delay)
		}
	}

	return nil, fmt.Errorf("failed to connect to database after %d attempts: %w", maxConnectAttempts, lastErr)
}

// openDatabase performs a single connection attempt and pings the result
func openDatabase(driver string, cfg DatabaseConfig) (*gorm.DB, error) {
	var db *gorm.DB
	var err error

	switch driver {
	case "postgres":
		log.WithField("dsn_host", cfg.Host).Debug("Connecting to PostgreSQL")
		db, err = gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{})
	case "sqlite":
		log.WithField("db_path", cfg.Path).Debug("Connecting to SQLite")
		db, err = gorm.Open(sqlite.Open(cfg.DSN()), &gorm.Config{})
	default:
		return nil, fmt.Errorf("unsupported database driver: %s (supported: postgres, sqlite)", driver)
	}
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	configureConnectionPool(sqlDB)
	log.WithField("db_driver", driver).Info("Database initialized successfully")
	return db, nil
}

// configureConnectionPool sets up connection pool parameters
func configureConnectionPool(sqlDB *sql.DB) {
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)

	log.WithFields(logrus.Fields{
		"max_open_conns":    25,
		"max_idle_conns":    5,
		"conn_max_lifetime": "5m",
	}).Debug("Connection pool configured")
}
