// Package sqlite stores each table in an embedded SQLite database, one SQL
// table per store with TEXT columns and a hidden ordering column.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/mamadbah2/medshop/internal/domain/models"
	"github.com/mamadbah2/medshop/internal/repository"
)

const rowColumn = "_row"

var identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Repository implements repository.TableRepository on SQLite.
type Repository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

// Verify interface compliance
var _ repository.TableRepository = (*Repository)(nil)

// Connect opens a SQLite database using the provided DSN.
func Connect(dsn string, logger *zap.Logger) (*Repository, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	db, err := sqlx.Connect("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect sqlite %s: %w", dsn, err)
	}
	db.SetMaxOpenConns(1)
	return &Repository{db: db, logger: logger}, nil
}

// Close releases the database handle.
func (r *Repository) Close() error {
	return r.db.Close()
}

// Exists reports whether the store's SQL table exists.
func (r *Repository) Exists(ctx context.Context, id models.StoreID) (bool, error) {
	var n int
	err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`, string(id))
	if err != nil {
		return false, fmt.Errorf("lookup table %s: %w", id, err)
	}
	return n > 0, nil
}

type columnInfo struct {
	CID        int            `db:"cid"`
	Name       string         `db:"name"`
	Type       string         `db:"type"`
	NotNull    int            `db:"notnull"`
	Default    sql.NullString `db:"dflt_value"`
	PrimaryKey int            `db:"pk"`
}

func (r *Repository) columns(ctx context.Context, q sqlx.QueryerContext, id models.StoreID) ([]string, error) {
	var info []columnInfo
	if err := sqlx.SelectContext(ctx, q, &info, fmt.Sprintf(`PRAGMA table_info(%s)`, quote(string(id)))); err != nil {
		return nil, fmt.Errorf("describe table %s: %w", id, err)
	}
	fields := make([]string, 0, len(info))
	for _, c := range info {
		if c.Name == rowColumn {
			continue
		}
		fields = append(fields, c.Name)
	}
	return fields, nil
}

// ReadTable selects every row in insertion order.
func (r *Repository) ReadTable(ctx context.Context, id models.StoreID) (models.Table, error) {
	if err := checkIdentifier(string(id)); err != nil {
		return models.Table{}, err
	}
	fields, err := r.columns(ctx, r.db, id)
	if err != nil {
		return models.Table{}, err
	}
	if len(fields) == 0 {
		return models.Table{}, fmt.Errorf("table %s does not exist", id)
	}

	query := fmt.Sprintf(`SELECT %s FROM %s ORDER BY %s`, quoteAll(fields), quote(string(id)), quote(rowColumn))
	rows, err := r.db.QueryxContext(ctx, query)
	if err != nil {
		return models.Table{}, fmt.Errorf("select %s: %w", id, err)
	}
	defer rows.Close()

	table := models.NewTable(fields...)
	for rows.Next() {
		cells := make([]sql.NullString, len(fields))
		dest := make([]any, len(fields))
		for i := range cells {
			dest[i] = &cells[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return models.Table{}, fmt.Errorf("scan %s: %w", id, err)
		}
		row := make([]string, len(fields))
		for i, c := range cells {
			row[i] = c.String
		}
		table.Rows = append(table.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return models.Table{}, fmt.Errorf("iterate %s: %w", id, err)
	}
	return table, nil
}

// WriteTable rewrites the SQL table inside one transaction. Columns are only
// ever added, mirroring the additive schema of the other drivers.
func (r *Repository) WriteTable(ctx context.Context, id models.StoreID, table models.Table) error {
	if err := checkIdentifier(string(id)); err != nil {
		return err
	}
	for _, f := range table.Fields {
		if err := checkIdentifier(f); err != nil {
			return err
		}
		if f == rowColumn {
			return fmt.Errorf("field name %s is reserved", rowColumn)
		}
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin write %s: %w", id, err)
	}
	defer tx.Rollback()

	create := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (%s INTEGER PRIMARY KEY)`, quote(string(id)), quote(rowColumn))
	if _, err := tx.ExecContext(ctx, create); err != nil {
		return fmt.Errorf("create table %s: %w", id, err)
	}

	existing, err := r.columns(ctx, tx, id)
	if err != nil {
		return err
	}
	have := make(map[string]bool, len(existing))
	for _, f := range existing {
		have[f] = true
	}
	for _, f := range table.Fields {
		if have[f] {
			continue
		}
		alter := fmt.Sprintf(`ALTER TABLE %s ADD COLUMN %s TEXT`, quote(string(id)), quote(f))
		if _, err := tx.ExecContext(ctx, alter); err != nil {
			return fmt.Errorf("add column %s.%s: %w", id, f, err)
		}
	}

	if _, err := tx.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s`, quote(string(id)))); err != nil {
		return fmt.Errorf("clear table %s: %w", id, err)
	}

	if len(table.Fields) > 0 {
		placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(table.Fields)+1), ", ")
		insert := fmt.Sprintf(`INSERT INTO %s (%s, %s) VALUES (%s)`, quote(string(id)), quote(rowColumn), quoteAll(table.Fields), placeholders)
		stmt, err := tx.PreparexContext(ctx, insert)
		if err != nil {
			return fmt.Errorf("prepare insert %s: %w", id, err)
		}
		defer stmt.Close()

		for i, row := range table.Rows {
			args := make([]any, 0, len(table.Fields)+1)
			args = append(args, i)
			for j := range table.Fields {
				v := ""
				if j < len(row) {
					v = row[j]
				}
				args = append(args, v)
			}
			if _, err := stmt.ExecContext(ctx, args...); err != nil {
				return fmt.Errorf("insert row %d into %s: %w", i, id, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit write %s: %w", id, err)
	}
	r.logger.Debug("table written", zap.String("store", string(id)), zap.Int("rows", len(table.Rows)))
	return nil
}

func checkIdentifier(name string) error {
	if !identifier.MatchString(name) {
		return fmt.Errorf("invalid identifier %q", name)
	}
	return nil
}

func quote(name string) string { return `"` + name + `"` }

func quoteAll(names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = quote(n)
	}
	return strings.Join(quoted, ", ")
}
