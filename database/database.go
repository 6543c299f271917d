// Package database opens the configured store and prepares its indexes or
// schema so unique email and fish-name constraints hold at the store level.
package database

import (
	"context"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"mach-lagbe/config"
	"mach-lagbe/repository"
	"mach-lagbe/repository/memstore"
	"mach-lagbe/repository/mongostore"
	"mach-lagbe/repository/mysqlstore"
)

const connectTimeout = 10 * time.Second

// OpenStore connects to the store selected by STORE_DRIVER.
func OpenStore(ctx context.Context, cfg *config.Config, log *logrus.Logger) (repository.Store, error) {
	switch cfg.StoreDriver {
	case "mongo", "mongodb":
		store, err := ConnectMongo(ctx, cfg)
		if err != nil {
			return nil, err
		}
		log.WithField("database", cfg.MongoDatabase).Info("MongoDB connected")
		return store, nil
	case "mysql":
		store, err := ConnectMySQL(ctx, cfg)
		if err != nil {
			return nil, err
		}
		log.WithField("database", cfg.DBName).Info("MySQL connected")
		return store, nil
	case "memory":
		log.Warn("Using in-memory store, data is lost on restart")
		return memstore.New(), nil
	default:
		return nil, fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
	}
}

// ConnectMongo dials MongoDB and ensures the unique indexes exist.
func ConnectMongo(ctx context.Context, cfg *config.Config) (*mongostore.MongoDB, error) {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return nil, fmt.Errorf("connect mongodb: %w", err)
	}
	store := mongostore.New(client, cfg.MongoDatabase)
	if err := store.Ping(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}

	indexes := []struct {
		coll  *mongo.Collection
		model mongo.IndexModel
	}{
		{store.UsersColl, mongo.IndexModel{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)}},
		{store.FishColl, mongo.IndexModel{Keys: bson.D{{Key: "name", Value: 1}}, Options: options.Index().SetUnique(true)}},
		{store.FishColl, mongo.IndexModel{Keys: bson.D{{Key: "isActive", Value: 1}, {Key: "createdAt", Value: -1}}}},
		{store.OrdersColl, mongo.IndexModel{Keys: bson.D{{Key: "user.id", Value: 1}, {Key: "createdAt", Value: -1}}}},
	}
	for _, idx := range indexes {
		if _, err := idx.coll.Indexes().CreateOne(ctx, idx.model); err != nil {
			_ = client.Disconnect(context.Background())
			return nil, fmt.Errorf("create index on %s: %w", idx.coll.Name(), err)
		}
	}
	return store, nil
}

// MySQLDSN builds the driver DSN from config.
func MySQLDSN(cfg *config.Config) string {
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true&loc=UTC&charset=utf8mb4",
		cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBPort, cfg.DBName)
}

// Schema is applied idempotently at startup. Unique columns use a binary
// collation so "rohu" and "Rohu" are distinct, as in the other stores.
var Schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id CHAR(24) NOT NULL PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		email VARCHAR(191) COLLATE utf8mb4_bin NOT NULL,
		password VARCHAR(255) NOT NULL,
		phone VARCHAR(64) NOT NULL DEFAULT '',
		address TEXT NOT NULL,
		role VARCHAR(16) NOT NULL DEFAULT 'customer',
		avatar VARCHAR(512) NOT NULL DEFAULT '',
		created_at DATETIME(3) NOT NULL,
		updated_at DATETIME(3) NOT NULL,
		UNIQUE KEY uniq_users_email (email)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS fish (
		id CHAR(24) NOT NULL PRIMARY KEY,
		name VARCHAR(191) COLLATE utf8mb4_bin NOT NULL,
		description TEXT NOT NULL,
		price_per_kg DOUBLE NOT NULL,
		category VARCHAR(16) NOT NULL,
		availability VARCHAR(16) NOT NULL,
		stock INT NOT NULL DEFAULT 0,
		image_url VARCHAR(512) NOT NULL DEFAULT '',
		is_active TINYINT(1) NOT NULL DEFAULT 1,
		created_at DATETIME(3) NOT NULL,
		updated_at DATETIME(3) NOT NULL,
		UNIQUE KEY uniq_fish_name (name),
		KEY idx_fish_active_created (is_active, created_at)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS orders (
		id CHAR(24) NOT NULL PRIMARY KEY,
		items JSON NOT NULL,
		total DOUBLE NOT NULL,
		user_id CHAR(24) NOT NULL,
		user_name VARCHAR(255) NOT NULL,
		user_email VARCHAR(191) NOT NULL,
		status VARCHAR(16) NOT NULL DEFAULT 'pending',
		created_at DATETIME(3) NOT NULL,
		updated_at DATETIME(3) NOT NULL,
		KEY idx_orders_user_created (user_id, created_at)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

// Migrate applies Schema in order.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	for _, stmt := range Schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}

// ConnectMySQL opens the pool, verifies it and applies Schema.
func ConnectMySQL(ctx context.Context, cfg *config.Config) (*mysqlstore.Store, error) {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	db, err := sqlx.ConnectContext(ctx, "mysql", MySQLDSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("connect mysql: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := Migrate(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return mysqlstore.New(db), nil
}
