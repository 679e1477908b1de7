package database

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"regexp"
	"time"

	"github.com/Wilson-Creek-Communications/sonar-utilities/internal/types"

	_ "github.com/sijms/go-ora/v2"
)

// DefaultTable receives the exported device locations.
const DefaultTable = "AIRCONTROL_LOCATIONS"

var tableName = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_$#]{0,127}$`)

// dsn builds a properly encoded connection string for Oracle Autonomous Database
func dsn(username, password, host, port, service string, walletLocation string) string {
	if walletLocation != "" {
		// Use wallet-based mTLS connection
		return fmt.Sprintf(
			"oracle://%s:%s@%s:%s/%s?ssl=true&wallet_location=%s",
			url.PathEscape(username), url.PathEscape(password), host, port, service, url.PathEscape(walletLocation))
	}

	// Fallback to standard connection without wallet
	return (&url.URL{
		Scheme:   "oracle",
		User:     url.UserPassword(username, password), // escapes automatically
		Host:     host + ":" + port,
		Path:     "/" + service, // keep full service name
		RawQuery: "ssl=true",    // ADB requires TCPS on 1522
	}).String()
}

// DBConfig holds database connection configuration
type DBConfig struct {
	Host           string
	Port           string
	Service        string
	Username       string
	Password       string
	WalletLocation string
	Table          string
}

// Database holds the database connection and configuration
type Database struct {
	db     *sql.DB
	config DBConfig
}

// NewDatabase opens and pings the Oracle connection.
func NewDatabase(ctx context.Context, config DBConfig) (*Database, error) {
	if config.Table == "" {
		config.Table = DefaultTable
	}
	if !tableName.MatchString(config.Table) {
		return nil, fmt.Errorf("invalid table name %q", config.Table)
	}

	db, err := sql.Open("oracle", dsn(config.Username, config.Password, config.Host, config.Port, config.Service, config.WalletLocation))
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	// Test the connection
	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Database{
		db:     db,
		config: config,
	}, nil
}

// Close closes the database connection
func (d *Database) Close() error {
	return d.db.Close()
}

func deleteQuery(table string) string {
	return "DELETE FROM " + table
}

func insertQuery(table string) string {
	return "INSERT INTO " + table + " (MAC, LONGITUDE, LATITUDE) VALUES (:1, :2, :3)"
}

// ReplaceLocations swaps the table contents for points in one transaction.
func (d *Database) ReplaceLocations(ctx context.Context, points []types.CorrelatedPoint) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, deleteQuery(d.config.Table)); err != nil {
		return fmt.Errorf("failed to clear %s: %w", d.config.Table, err)
	}

	stmt, err := tx.PrepareContext(ctx, insertQuery(d.config.Table))
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, p := range points {
		if _, err := stmt.ExecContext(ctx, p.MAC, p.Coordinate.Longitude, p.Coordinate.Latitude); err != nil {
			return fmt.Errorf("failed to insert %s: %w", p.MAC, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit locations: %w", err)
	}
	return nil
}
