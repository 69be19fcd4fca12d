package database

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
	_ "github.com/sijms/go-ora/v2"
	"go.uber.org/zap"
)

// dsn builds a properly encoded connection string for Oracle Autonomous Database
func dsn(username, password, host, port, service string, walletLocation string) string {
	if walletLocation != "" {
		// Use wallet-based mTLS connection
		return fmt.Sprintf(
			"oracle://%s:%s@%s:%s/%s?ssl=true&wallet_location=%s",
			url.PathEscape(username), url.PathEscape(password), host, port, service, url.PathEscape(walletLocation))
	}

	return (&url.URL{
		Scheme:   "oracle",
		User:     url.UserPassword(username, password),
		Host:     host + ":" + port,
		Path:     "/" + service,
		RawQuery: "ssl=true", // ADB requires TCPS on 1522
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
}

// Database wraps a SQL connection used both to read valuation grids and to
// append audit rows.
type Database struct {
	db *sql.DB
}

// NewDatabase opens an Oracle connection and pings it.
func NewDatabase(ctx context.Context, config DBConfig) (*Database, error) {
	connStr := dsn(config.Username, config.Password, config.Host, config.Port, config.Service, config.WalletLocation)

	zap.L().Info("connecting to oracle",
		zap.String("host", config.Host),
		zap.String("service", config.Service),
		zap.Bool("wallet", config.WalletLocation != ""),
	)

	db, err := sql.Open("oracle", connStr)
	if err != nil {
		return nil, eris.Wrap(err, "database: open")
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, eris.Wrap(err, "database: ping")
	}

	return &Database{db: db}, nil
}

// FromDB wraps an already open connection.
func FromDB(db *sql.DB) *Database {
	return &Database{db: db}
}

// Close closes the database connection
func (d *Database) Close() error {
	return d.db.Close()
}

// QueryGrid runs query and returns its result as a text grid whose first row
// holds the column names. NULLs become empty cells.
func (d *Database) QueryGrid(ctx context.Context, query string, args ...any) ([][]string, error) {
	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "database: query grid")
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, eris.Wrap(err, "database: read columns")
	}

	grid := [][]string{cols}
	vals := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range vals {
		ptrs[i] = &vals[i]
	}

	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, eris.Wrap(err, "database: scan row")
		}
		line := make([]string, len(cols))
		for i, v := range vals {
			line[i] = cellText(v)
		}
		grid = append(grid, line)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "database: iterate rows")
	}

	zap.L().Debug("grid loaded from database", zap.Int("rows", len(grid)-1), zap.Int("columns", len(cols)))
	return grid, nil
}

// Exec runs a statement that returns no rows.
func (d *Database) Exec(ctx context.Context, query string, args ...any) error {
	if _, err := d.db.ExecContext(ctx, query, args...); err != nil {
		return eris.Wrap(err, "database: exec")
	}
	return nil
}

func cellText(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case []byte:
		return string(t)
	case string:
		return t
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case time.Time:
		return t.Format(time.RFC3339)
	default:
		return fmt.Sprint(t)
	}
}
