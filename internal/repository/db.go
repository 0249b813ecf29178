package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"CaseSync/internal/config"
	"CaseSync/internal/model"

	_ "github.com/jackc/pgx/v4/stdlib"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Models lists every table in dependency order for AutoMigrate.
func Models() []any {
	return []any{
		&model.Hospital{},
		&model.Case{},
		&model.Bid{},
		&model.Award{},
		&model.IngestionLog{},
	}
}

// OpenPostgres connects with the configured pool, creating the target
// database first when it does not exist yet.
func OpenPostgres(cfg *config.DatabaseConfig, log *logrus.Logger) (*gorm.DB, error) {
	gormCfg := &gorm.Config{
		Logger:         logger.Default.LogMode(GormLogLevel(cfg.LogLevel)),
		TranslateError: true,
	}

	db, err := gorm.Open(postgres.Open(cfg.DSN), gormCfg)
	if err != nil {
		if !strings.Contains(err.Error(), "does not exist") && !strings.Contains(err.Error(), "3D000") {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		log.Info("target database missing, creating it")
		if e := ensureDatabaseExists(cfg.DSN); e != nil {
			return nil, fmt.Errorf("create database: %w", e)
		}
		if db, err = gorm.Open(postgres.Open(cfg.DSN), gormCfg); err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql db: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	return db, nil
}

// Migrate creates missing tables and indexes.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}

// ensureDatabaseExists connects to the postgres maintenance database and
// creates the DSN's database if absent. dsn must be in URL form.
func ensureDatabaseExists(dsn string) error {
	u, err := url.Parse(dsn)
	if err != nil {
		return err
	}
	dbname := strings.TrimSpace(strings.TrimPrefix(u.Path, "/"))
	if dbname == "" || dbname == "postgres" {
		return nil
	}
	u.Path = "/postgres"

	db, err := sql.Open("pgx", u.String())
	if err != nil {
		return err
	}
	defer db.Close()

	err = db.QueryRow("SELECT 1 FROM pg_database WHERE datname = $1", dbname).Scan(new(int))
	if errors.Is(err, sql.ErrNoRows) {
		_, err = db.Exec(`CREATE DATABASE "` + strings.ReplaceAll(dbname, `"`, `""`) + `"`)
	}
	return err
}

// GormLogLevel maps a config string onto gorm's logger levels.
func GormLogLevel(level string) logger.LogLevel {
	switch strings.ToLower(level) {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "info":
		return logger.Info
	default:
		return logger.Warn
	}
}
