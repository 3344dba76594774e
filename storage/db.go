package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// DB is a small helper over database/sql for table-agnostic CRUD.
// Queries are written with ? placeholders and rebound for Postgres.
type DB struct {
	conn   *sql.DB
	driver string
}

// OpenDB opens a handle for driver ("sqlite" or "postgres").
func OpenDB(driver, dsn string) (*DB, error) {
	var sqlDriver string
	switch driver {
	case DriverSQLite, "":
		driver = DriverSQLite
		sqlDriver = "sqlite3"
	case DriverPostgres:
		sqlDriver = "pgx"
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", driver)
	}

	conn, err := sql.Open(sqlDriver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// one handle per run
	conn.SetMaxOpenConns(1)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return &DB{conn: conn, driver: driver}, nil
}

// Conn exposes the underlying *sql.DB (used by migrations).
func (d *DB) Conn() *sql.DB {
	return d.conn
}

func (d *DB) Driver() string {
	return d.driver
}

// Rebind rewrites ? placeholders to $n when talking to Postgres.
// Question marks inside single-quoted literals are left alone.
func (d *DB) Rebind(query string) string {
	if d.driver != DriverPostgres {
		return query
	}

	var b strings.Builder
	n := 0
	inQuote := false
	for _, r := range query {
		switch {
		case r == '\'':
			inQuote = !inQuote
			b.WriteRune(r)
		case r == '?' && !inQuote:
			n++
			b.WriteString("$" + strconv.Itoa(n))
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Execute runs a statement and returns the number of affected rows.
func (d *DB) Execute(ctx context.Context, query string, args ...any) (int64, error) {
	res, err := d.conn.ExecContext(ctx, d.Rebind(query), args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// FetchOne returns the first row of the query, or nil when there is none.
func (d *DB) FetchOne(ctx context.Context, query string, args ...any) (map[string]any, error) {
	rows, err := d.FetchAll(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

// FetchAll returns every row of the query as a column->value map.
func (d *DB) FetchAll(ctx context.Context, query string, args ...any) ([]map[string]any, error) {
	rows, err := d.conn.QueryContext(ctx, d.Rebind(query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	result := make([]map[string]any, 0)
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}

		row := make(map[string]any, len(columns))
		for i, col := range columns {
			if b, ok := values[i].([]byte); ok {
				row[col] = string(b)
				continue
			}
			row[col] = values[i]
		}
		result = append(result, row)
	}
	return result, rows.Err()
}

// Insert adds one row built from fields and returns its id.
func (d *DB) Insert(ctx context.Context, table string, fields map[string]any) (int64, error) {
	if len(fields) == 0 {
		return 0, errors.New("insert: no fields")
	}
	columns, args, err := sortedColumns(table, fields)
	if err != nil {
		return 0, err
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", ")
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", table, strings.Join(columns, ", "), placeholders)

	if d.driver == DriverPostgres {
		var id int64
		if err := d.conn.QueryRowContext(ctx, d.Rebind(query+" RETURNING id"), args...).Scan(&id); err != nil {
			return 0, err
		}
		return id, nil
	}

	res, err := d.conn.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// Update sets fields on the rows matching where and returns the affected count.
func (d *DB) Update(ctx context.Context, table string, fields map[string]any, where string, whereArgs ...any) (int64, error) {
	if len(fields) == 0 {
		return 0, errors.New("update: no fields")
	}
	columns, args, err := sortedColumns(table, fields)
	if err != nil {
		return 0, err
	}

	sets := make([]string, len(columns))
	for i, col := range columns {
		sets[i] = col + " = ?"
	}
	query := fmt.Sprintf("UPDATE %s SET %s WHERE %s", table, strings.Join(sets, ", "), where)
	return d.Execute(ctx, query, append(args, whereArgs...)...)
}

// Delete removes the rows matching where and returns the affected count.
func (d *DB) Delete(ctx context.Context, table string, where string, whereArgs ...any) (int64, error) {
	if !identifierPattern.MatchString(table) {
		return 0, fmt.Errorf("invalid table name %q", table)
	}
	return d.Execute(ctx, fmt.Sprintf("DELETE FROM %s WHERE %s", table, where), whereArgs...)
}

func (d *DB) Close() error {
	if d.conn == nil {
		return nil
	}
	return d.conn.Close()
}

// sortedColumns validates identifiers and orders columns for stable SQL text.
func sortedColumns(table string, fields map[string]any) ([]string, []any, error) {
	if !identifierPattern.MatchString(table) {
		return nil, nil, fmt.Errorf("invalid table name %q", table)
	}

	columns := make([]string, 0, len(fields))
	for col := range fields {
		if !identifierPattern.MatchString(col) {
			return nil, nil, fmt.Errorf("invalid column name %q", col)
		}
		columns = append(columns, col)
	}
	sort.Strings(columns)

	args := make([]any, len(columns))
	for i, col := range columns {
		args[i] = fields[col]
	}
	return columns, args, nil
}
