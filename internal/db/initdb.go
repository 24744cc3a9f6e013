// internal/db/initdb.go
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/url"
	"strings"

	"github.com/lib/pq"
)

// CreateDatabaseIfNotExists connects to the server's "postgres" database and
// creates the database named in connString when it is missing.
func CreateDatabaseIfNotExists(ctx context.Context, connString string) error {
	dbName, err := extractDBName(connString)
	if err != nil {
		return fmt.Errorf("failed to parse connection string: %w", err)
	}

	rootConnStr, err := replaceDBName(connString, "postgres")
	if err != nil {
		return fmt.Errorf("failed to create root connection string: %w", err)
	}

	db, err := sql.Open("postgres", rootConnStr)
	if err != nil {
		return fmt.Errorf("failed to connect to postgres: %w", err)
	}
	defer db.Close()

	return ensureDatabase(ctx, db, dbName)
}

func ensureDatabase(ctx context.Context, db *sql.DB, dbName string) error {
	var exists int
	err := db.QueryRowContext(ctx, "SELECT 1 FROM pg_database WHERE datname = $1", dbName).Scan(&exists)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("failed to check if database exists: %w", err)
	}
	if exists == 1 {
		return nil
	}

	log.Printf("Creating database: %s", dbName)
	// CREATE DATABASE does not accept bind parameters.
	if _, err := db.ExecContext(ctx, "CREATE DATABASE "+pq.QuoteIdentifier(dbName)); err != nil {
		return fmt.Errorf("failed to create database: %w", err)
	}
	log.Printf("Database %s created successfully", dbName)
	return nil
}

func isURL(connString string) bool {
	return strings.HasPrefix(connString, "postgres://") || strings.HasPrefix(connString, "postgresql://")
}

// extractDBName extracts the database name from a URL or key=value connection string.
func extractDBName(connString string) (string, error) {
	if isURL(connString) {
		u, err := url.Parse(connString)
		if err != nil {
			return "", fmt.Errorf("failed to parse connection URL: %w", err)
		}
		name := strings.TrimPrefix(u.Path, "/")
		if name == "" {
			return "", fmt.Errorf("connection URL has no database name")
		}
		return name, nil
	}

	for _, pair := range strings.Fields(connString) {
		if strings.HasPrefix(pair, "dbname=") {
			return strings.TrimPrefix(pair, "dbname="), nil
		}
	}

	return "", fmt.Errorf("could not find database name in connection string")
}

func replaceDBName(connString, newName string) (string, error) {
	if isURL(connString) {
		u, err := url.Parse(connString)
		if err != nil {
			return "", err
		}
		u.Path = "/" + newName
		return u.String(), nil
	}

	var result []string
	for _, pair := range strings.Fields(connString) {
		if strings.HasPrefix(pair, "dbname=") {
			result = append(result, "dbname="+newName)
		} else {
			result = append(result, pair)
		}
	}
	return strings.Join(result, " "), nil
}
