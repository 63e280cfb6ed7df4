package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/lib/pq"

	"meters/internal/domain"
)

// ReadingRepo stores readings with one BIGINT column per reading type. It is
// also the ColumnStore for those columns.
type ReadingRepo struct {
	db *DB
}

// NewReadingRepo creates a reading repository on d.
func NewReadingRepo(d *DB) *ReadingRepo {
	return &ReadingRepo{db: d}
}

var _ domain.ReadingRepository = (*ReadingRepo)(nil)
var _ domain.ColumnStore = (*ReadingRepo)(nil)

// Save inserts a reading and returns its ID.
func (r *ReadingRepo) Save(ctx context.Context, rd domain.Reading) (int64, error) {
	keys := make([]string, 0, len(rd.Values))
	for k := range rd.Values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	cols := []string{"username", "month", "year", "created_at"}
	args := []any{rd.Username, rd.Month, rd.Year, rd.CreatedAt.UTC()}
	for _, k := range keys {
		cols = append(cols, pq.QuoteIdentifier(k))
		args = append(args, rd.Values[k])
	}
	placeholders := make([]string, len(cols))
	for i := range cols {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}

	query := fmt.Sprintf("INSERT INTO readings (%s) VALUES (%s) RETURNING id",
		strings.Join(cols, ", "), strings.Join(placeholders, ", "))

	var id int64
	if err := r.db.sql.QueryRowContext(ctx, query, args...).Scan(&id); err != nil {
		if hasCode(err, codeUniqueViolation) {
			return 0, domain.ErrReadingExists
		}
		return 0, err
	}
	return id, nil
}

// FindByUsername returns a user's readings ordered by period.
func (r *ReadingRepo) FindByUsername(ctx context.Context, username string) ([]domain.Reading, error) {
	return r.query(ctx, "SELECT * FROM readings WHERE username = $1 ORDER BY year, month", username)
}

// FindByUsernameMonthYear returns the reading for one period, or nil.
func (r *ReadingRepo) FindByUsernameMonthYear(ctx context.Context, username string, month, year int) (*domain.Reading, error) {
	items, err := r.query(ctx,
		"SELECT * FROM readings WHERE username = $1 AND month = $2 AND year = $3 ORDER BY id LIMIT 1",
		username, month, year)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, nil
	}
	return &items[0], nil
}

// FindAll returns every reading ordered by user and period.
func (r *ReadingRepo) FindAll(ctx context.Context) ([]domain.Reading, error) {
	return r.query(ctx, "SELECT * FROM readings ORDER BY username, year, month")
}

// query scans rows whose value columns are only known at run time. NULL
// values are left out of Reading.Values.
func (r *ReadingRepo) query(ctx context.Context, query string, args ...any) ([]domain.Reading, error) {
	rows, err := r.db.sql.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close() //nolint:errcheck

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var out []domain.Reading
	for rows.Next() {
		var (
			rd        domain.Reading
			createdAt time.Time
		)
		values := make(map[string]*sql.NullInt64)
		dest := make([]any, len(cols))
		for i, c := range cols {
			switch c {
			case "id":
				dest[i] = &rd.ID
			case "username":
				dest[i] = &rd.Username
			case "month":
				dest[i] = &rd.Month
			case "year":
				dest[i] = &rd.Year
			case "created_at":
				dest[i] = &createdAt
			default:
				v := new(sql.NullInt64)
				values[c] = v
				dest[i] = v
			}
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}

		rd.CreatedAt = createdAt
		rd.Values = make(map[string]int64, len(values))
		for c, v := range values {
			if v.Valid {
				rd.Values[c] = v.Int64
			}
		}
		out = append(out, rd)
	}
	return out, rows.Err()
}

// AddColumn adds a reading type column.
func (r *ReadingRepo) AddColumn(ctx context.Context, name string) error {
	col := pq.QuoteIdentifier(name)
	stmt := fmt.Sprintf("ALTER TABLE readings ADD COLUMN %s BIGINT CHECK (%s >= 0)", col, col)
	_, err := r.db.sql.ExecContext(ctx, stmt)
	if hasCode(err, codeDuplicateColumn) {
		return domain.ErrTypeExists
	}
	return err
}

// DropColumn removes a reading type column and its values.
func (r *ReadingRepo) DropColumn(ctx context.Context, name string) error {
	_, err := r.db.sql.ExecContext(ctx, "ALTER TABLE readings DROP COLUMN "+pq.QuoteIdentifier(name))
	if hasCode(err, codeUndefinedColumn) {
		return domain.ErrTypeNotFound
	}
	return err
}

// ListColumns returns the reading type columns, sorted.
func (r *ReadingRepo) ListColumns(ctx context.Context) ([]string, error) {
	rows, err := r.db.sql.QueryContext(ctx,
		`SELECT column_name FROM information_schema.columns
		 WHERE table_schema = current_schema() AND table_name = 'readings' AND NOT (column_name = ANY($1))
		 ORDER BY column_name`,
		pq.Array(domain.ReservedColumns),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close() //nolint:errcheck

	var out []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
