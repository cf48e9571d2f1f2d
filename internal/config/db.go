package config

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// DBConfig holds database connection parameters
type DBConfig struct {
	DSN string
}

// LoadDBConfig loads database configuration from environment variables
func LoadDBConfig() (*DBConfig, error) {
	dbHost := os.Getenv("DB_HOST")
	dbPort := os.Getenv("DB_PORT")
	dbUser := os.Getenv("DB_USER")
	dbPassword := os.Getenv("DB_PASSWORD")
	dbName := os.Getenv("DB_NAME")

	if dbHost == "" || dbPort == "" || dbUser == "" || dbName == "" {
		return nil, fmt.Errorf("database environment variables not set (DB_HOST, DB_PORT, DB_USER, DB_PASSWORD, DB_NAME)")
	}

	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		dbHost, dbPort, dbUser, dbPassword, dbName)

	return &DBConfig{DSN: dsn}, nil
}

// LoadLockTimeout reads the row-lock wait limit from the environment.
// Zero means no limit: a payment blocks until the account row is free.
func LoadLockTimeout() time.Duration {
	raw := os.Getenv("LOCK_TIMEOUT_MS")
	if raw == "" {
		return 3 * time.Second
	}
	ms, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || ms < 0 {
		log.Printf("Invalid LOCK_TIMEOUT_MS %q, defaulting to 3000: %v", raw, err)
		return 3 * time.Second
	}
	return time.Duration(ms) * time.Millisecond
}

// ConnectDB establishes a connection to the PostgreSQL database
func ConnectDB(cfg *DBConfig) (*pgxpool.Pool, error) {
	var pool *pgxpool.Pool
	var err error

	// Retry connecting to the database a few times
	maxRetries := 5
	retryInterval := 5 * time.Second

	for i := 0; i < maxRetries; i++ {
		pool, err = pgxpool.New(context.Background(), cfg.DSN)
		if err == nil {
			err = pool.Ping(context.Background())
			if err == nil {
				log.Println("Successfully connected to PostgreSQL!")
				return pool, nil
			}
		}
		log.Printf("Failed to connect to database (attempt %d/%d): %v. Retrying in %v...", i+1, maxRetries, err, retryInterval)
		time.Sleep(retryInterval)
	}
	return nil, fmt.Errorf("unable to connect to database after %d attempts: %w", maxRetries, err)
}

// AutoMigrate creates tables if they don't exist.
// The unique constraint on account.login is load-bearing: registration relies
// on it instead of a read-then-insert check, and the balance check backs the
// non-negative invariant at the storage layer.
func AutoMigrate(db *pgxpool.Pool) error {
	sql := `
	CREATE TABLE IF NOT EXISTS account (
		id BIGSERIAL PRIMARY KEY,
		login TEXT UNIQUE NOT NULL,
		password_hash TEXT NOT NULL,
		balance BIGINT NOT NULL CHECK (balance >= 0),
		first_name TEXT,
		last_name TEXT,
		patronymic TEXT,
		email TEXT,
		gender TEXT CHECK (gender IN ('male', 'female')),
		birthday DATE
	);

	CREATE TABLE IF NOT EXISTS payment (
		id BIGSERIAL PRIMARY KEY,
		date TIMESTAMP WITH TIME ZONE NOT NULL,
		phone TEXT NOT NULL,
		amount BIGINT NOT NULL CHECK (amount > 0), -- in minor units
		account_id BIGINT NOT NULL REFERENCES account(id)
	);

	-- History queries filter by account and page by id
	CREATE INDEX IF NOT EXISTS idx_payment_account_id ON payment(account_id);
	`
	_, err := db.Exec(context.Background(), sql)
	if err != nil {
		return fmt.Errorf("unable to apply migrations: %w", err)
	}

	log.Println("AutoMigrate applied successfully")
	return nil
}
