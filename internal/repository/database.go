package repository

import (
	"fmt"
	"time"

	"github.com/fadilmartias/cv-matcher/internal/model"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type PoolConfig struct {
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
}

func DevelopmentPool() PoolConfig {
	return PoolConfig{MaxIdleConns: 5, MaxOpenConns: 10, ConnMaxLifetime: 30 * time.Minute}
}

func ProductionPool() PoolConfig {
	return PoolConfig{MaxIdleConns: 20, MaxOpenConns: 200, ConnMaxLifetime: time.Hour}
}

// Open connects to postgres and sizes the pool.
func Open(dsn string, pool PoolConfig) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("could not connect to database: %w", err)
	}
	pgDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("could not get database instance: %w", err)
	}
	pgDB.SetMaxIdleConns(pool.MaxIdleConns)
	pgDB.SetMaxOpenConns(pool.MaxOpenConns)
	pgDB.SetConnMaxLifetime(pool.ConnMaxLifetime)
	return db, nil
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(model.Models()...); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	return nil
}
