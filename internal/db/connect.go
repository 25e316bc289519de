package db

import (
	"errors"
	"fmt"
	"log"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/diewo77/icash/internal/config"
)

// ErrConnectionUnavailable is returned once the bounded retry loop is
// exhausted without a usable connection.
var ErrConnectionUnavailable = errors.New("database unavailable")

// Connect opens the postgres store, retrying a bounded number of times so the
// service can start while the database container is still coming up.
func Connect(cfg config.Config) (*gorm.DB, error) {
	dsn := BuildDSN(cfg)
	if dsn == "" {
		return nil, fmt.Errorf("database DSN is empty; set DATABASE_DSN or DB_NAME/DB_USER")
	}

	logLevel := logger.Silent
	if config.ParseBool("DB_DEBUG", false) {
		logLevel = logger.Info
	}
	gormCfg := &gorm.Config{Logger: logger.Default.LogMode(logLevel)}

	retries := cfg.ConnectRetries
	if retries < 1 {
		retries = 1
	}
	var conn *gorm.DB
	var err error
	for i := 0; i < retries; i++ {
		conn, err = gorm.Open(postgres.Open(dsn), gormCfg)
		if err == nil {
			if pingErr := conn.Exec("SELECT 1").Error; pingErr == nil {
				log.Printf("[db] connected using %s", MaskDSN(dsn))
				return conn, nil
			} else {
				err = pingErr
			}
		}
		if i < retries-1 {
			log.Printf("[db] not ready (attempt %d/%d): %v; retrying in %s", i+1, retries, err, cfg.ConnectDelay)
			time.Sleep(cfg.ConnectDelay)
		}
	}
	return nil, fmt.Errorf("%w: %v", ErrConnectionUnavailable, err)
}
