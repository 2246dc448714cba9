package database

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/url"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver for database/sql
	"github.com/jinzhu/gorm"
	_ "github.com/jinzhu/gorm/dialects/postgres" // Postgres dialect
	"github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"mealdesk/internal/config"
	"mealdesk/internal/models"
)

const pingTimeout = 5 * time.Second

// Open connects to the relational store selected by cfg.Driver, configures the
// pool and migrates the schema.
func Open(ctx context.Context, cfg config.StoreConfig) (*gorm.DB, error) {
	var (
		db  *gorm.DB
		err error
	)
	switch cfg.Driver {
	case config.DriverSQLite:
		db, err = gorm.Open("sqlite3", cfg.URL)
	case config.DriverPostgres:
		var dsn string
		dsn, err = postgresDSN(cfg.URL, cfg.Key)
		if err == nil {
			db, err = gorm.Open("postgres", dsn)
		}
	case config.DriverPGX:
		var sqlDB *sql.DB
		sqlDB, err = connectPGX(ctx, cfg)
		if err == nil {
			db, err = gorm.Open("postgres", sqlDB)
		}
	default:
		return nil, fmt.Errorf("driver %q is not a relational store", cfg.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.Driver, err)
	}

	configurePool(db.DB(), cfg)
	if err := Migrate(db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func configurePool(sqlDB *sql.DB, cfg config.StoreConfig) {
	if cfg.Driver == config.DriverSQLite && strings.Contains(cfg.URL, ":memory:") {
		// every pooled connection would otherwise get its own empty database
		sqlDB.SetMaxOpenConns(1)
		return
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
}

// Migrate creates or updates the meals, drinks, profiles, orders and credentials tables
func Migrate(db *gorm.DB) error {
	for _, table := range []string{models.KindMeal.Table(), models.KindDrink.Table()} {
		if err := db.Table(table).AutoMigrate(&models.CatalogItem{}).Error; err != nil {
			return fmt.Errorf("migrate %s: %w", table, err)
		}
	}
	if err := db.AutoMigrate(&models.User{}, &models.Order{}, &models.Credential{}).Error; err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// dsnQuoter escapes a value for a single-quoted lib/pq DSN field
var dsnQuoter = strings.NewReplacer(`\`, `\\`, `'`, `\'`)

// postgresDSN turns a postgres:// URL into a lib/pq connection string and adds
// the access key as the password. Key/value DSNs pass through.
func postgresDSN(raw, key string) (string, error) {
	dsn := raw
	if strings.HasPrefix(raw, "postgres://") || strings.HasPrefix(raw, "postgresql://") {
		parsed, err := pq.ParseURL(raw)
		if err != nil {
			return "", fmt.Errorf("parse postgres url: %w", err)
		}
		dsn = parsed
	}
	if key != "" {
		dsn += " password='" + dsnQuoter.Replace(key) + "'"
	}
	return dsn, nil
}

// pgxURL adds the access key to a postgres URL for the pgx driver.
func pgxURL(raw, key string) (string, error) {
	if key == "" {
		return raw, nil
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("parse postgres url: %w", err)
	}
	if u.Scheme == "" {
		return raw + " password=" + key, nil
	}
	user := ""
	if u.User != nil {
		user = u.User.Username()
	}
	u.User = url.UserPassword(user, key)
	return u.String(), nil
}

// connectPGX opens the pgx stdlib driver and pings until the server answers
// or the retries run out.
func connectPGX(ctx context.Context, cfg config.StoreConfig) (*sql.DB, error) {
	dsn, err := pgxURL(cfg.URL, cfg.Key)
	if err != nil {
		return nil, err
	}
	retries := cfg.ConnectRetries
	if retries <= 0 {
		retries = 1
	}

	var lastErr error
	for i := 1; i <= retries; i++ {
		db, err := sql.Open("pgx", dsn)
		if err == nil {
			pctx, cancel := context.WithTimeout(ctx, pingTimeout)
			err = db.PingContext(pctx)
			cancel()
			if err == nil {
				return db, nil
			}
			db.Close()
		}
		lastErr = err
		log.Printf("postgres not ready (attempt %d/%d): %v", i, retries, err)

		if i == retries {
			break
		}
		select {
		case <-time.After(cfg.RetryDelay):
		case <-ctx.Done():
			return nil, fmt.Errorf("connect canceled: %w", ctx.Err())
		}
	}
	return nil, fmt.Errorf("connect after %d attempts: %w", retries, lastErr)
}
