package postgres

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"meters/internal/domain"
)

func newMock(t *testing.T) (*DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})
	return NewFromSQL(db), mock
}

var userCols = []string{"id", "username", "password_hash", "salt", "role", "created_at"}

func TestGetByUsername_Found(t *testing.T) {
	d, mock := newMock(t)
	created := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	mock.ExpectQuery(`^SELECT id, username, password_hash, salt, role, created_at FROM users WHERE username = \$1$`).
		WithArgs("alice").
		WillReturnRows(sqlmock.NewRows(userCols).AddRow(int64(7), "alice", "hash", "salt", "ADMIN", created))

	u, err := d.GetByUsername(context.Background(), "alice")
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, int64(7), u.ID)
	assert.Equal(t, domain.RoleAdmin, u.Role)
	assert.Equal(t, "salt", u.Salt)
	assert.Equal(t, created, u.CreatedAt)
}

func TestGetByUsername_NotFound(t *testing.T) {
	d, mock := newMock(t)
	mock.ExpectQuery(`^SELECT .* FROM users WHERE username = \$1$`).
		WithArgs("ghost").
		WillReturnError(sql.ErrNoRows)

	u, err := d.GetByUsername(context.Background(), "ghost")
	assert.NoError(t, err)
	assert.Nil(t, u)
}

func TestCreateUser(t *testing.T) {
	q := `^INSERT INTO users \(username, password_hash, salt, role, created_at\) VALUES \(\$1, \$2, \$3, \$4, \$5\) RETURNING id$`

	t.Run("success", func(t *testing.T) {
		d, mock := newMock(t)
		mock.ExpectQuery(q).
			WithArgs("bob", "h", "s", "USER", sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(3)))

		u, err := d.Create(context.Background(), domain.User{Username: "bob", PasswordHash: "h", Salt: "s", Role: domain.RoleUser})
		require.NoError(t, err)
		assert.Equal(t, int64(3), u.ID)
	})

	t.Run("unique violation", func(t *testing.T) {
		d, mock := newMock(t)
		mock.ExpectQuery(q).WillReturnError(&pq.Error{Code: codeUniqueViolation})

		_, err := d.Create(context.Background(), domain.User{Username: "bob", Role: domain.RoleUser})
		assert.ErrorIs(t, err, domain.ErrConflict)
	})

	t.Run("db error", func(t *testing.T) {
		d, mock := newMock(t)
		mock.ExpectQuery(q).WillReturnError(errors.New("db down"))

		_, err := d.Create(context.Background(), domain.User{Username: "bob", Role: domain.RoleUser})
		assert.EqualError(t, err, "db down")
	})
}

func TestUpdateRole(t *testing.T) {
	q := `^UPDATE users SET role = \$1 WHERE username = \$2$`

	d, mock := newMock(t)
	mock.ExpectExec(q).WithArgs("ADMIN", "bob").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q).WithArgs("ADMIN", "ghost").WillReturnResult(sqlmock.NewResult(0, 0))

	assert.NoError(t, d.UpdateRole(context.Background(), "bob", domain.RoleAdmin))
	assert.ErrorIs(t, d.UpdateRole(context.Background(), "ghost", domain.RoleAdmin), domain.ErrNotFound)
}

func TestListUsers(t *testing.T) {
	d, mock := newMock(t)
	mock.ExpectQuery(`^SELECT .* FROM users ORDER BY id$`).
		WillReturnRows(sqlmock.NewRows(userCols).
			AddRow(int64(1), "a", "h", "s", "USER", time.Now()).
			AddRow(int64(2), "b", "h", "s", "ADMIN", time.Now()))

	users, err := d.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, users, 2)
}

func TestReadingSave_QuotesColumns(t *testing.T) {
	d, mock := newMock(t)
	repo := NewReadingRepo(d)

	q := regexp.QuoteMeta(`INSERT INTO readings (username, month, year, created_at, "cold_water", "heating") VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`)
	mock.ExpectQuery("^"+q+"$").
		WithArgs("alice", 3, 2024, sqlmock.AnyArg(), int64(5), int64(10)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(11)))

	id, err := repo.Save(context.Background(), domain.Reading{
		Username: "alice", Month: 3, Year: 2024,
		Values:    map[string]int64{"heating": 10, "cold_water": 5},
		CreatedAt: time.Now(),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(11), id)
}

func TestReadingSave_DuplicatePeriod(t *testing.T) {
	d, mock := newMock(t)
	mock.ExpectQuery(`^INSERT INTO readings`).WillReturnError(&pq.Error{Code: codeUniqueViolation})

	_, err := NewReadingRepo(d).Save(context.Background(), domain.Reading{
		Username: "alice", Month: 3, Year: 2024,
		Values: map[string]int64{"heating": 10},
	})
	assert.ErrorIs(t, err, domain.ErrReadingExists)
}

func TestReadingFind_DynamicColumns(t *testing.T) {
	d, mock := newMock(t)
	repo := NewReadingRepo(d)
	created := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)

	cols := []string{"id", "username", "month", "year", "created_at", "heating", "gas"}
	mock.ExpectQuery(`^SELECT \* FROM readings WHERE username = \$1 ORDER BY year, month$`).
		WithArgs("alice").
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow(int64(1), "alice", int64(2), int64(2024), created, int64(10), nil).
			AddRow(int64(2), "alice", int64(3), int64(2024), created, int64(15), int64(4)))

	items, err := repo.FindByUsername(context.Background(), "alice")
	require.NoError(t, err)
	require.Len(t, items, 2)

	assert.Equal(t, map[string]int64{"heating": 10}, items[0].Values)
	assert.Equal(t, map[string]int64{"heating": 15, "gas": 4}, items[1].Values)
	assert.Equal(t, 3, items[1].Month)
	assert.Equal(t, created, items[1].CreatedAt)
}

func TestReadingFindByPeriod_None(t *testing.T) {
	d, mock := newMock(t)
	mock.ExpectQuery(`^SELECT \* FROM readings WHERE username = \$1 AND month = \$2 AND year = \$3`).
		WithArgs("alice", 7, 2024).
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "month", "year", "created_at"}))

	r, err := NewReadingRepo(d).FindByUsernameMonthYear(context.Background(), "alice", 7, 2024)
	assert.NoError(t, err)
	assert.Nil(t, r)
}

func TestColumnStore(t *testing.T) {
	t.Run("add", func(t *testing.T) {
		d, mock := newMock(t)
		mock.ExpectExec("^"+regexp.QuoteMeta(`ALTER TABLE readings ADD COLUMN "gas" BIGINT CHECK ("gas" >= 0)`)+"$").
			WillReturnResult(sqlmock.NewResult(0, 0))
		assert.NoError(t, NewReadingRepo(d).AddColumn(context.Background(), "gas"))
	})

	t.Run("add duplicate", func(t *testing.T) {
		d, mock := newMock(t)
		mock.ExpectExec(`^ALTER TABLE readings ADD COLUMN`).WillReturnError(&pq.Error{Code: codeDuplicateColumn})
		assert.ErrorIs(t, NewReadingRepo(d).AddColumn(context.Background(), "gas"), domain.ErrConflict)
	})

	t.Run("drop", func(t *testing.T) {
		d, mock := newMock(t)
		mock.ExpectExec("^"+regexp.QuoteMeta(`ALTER TABLE readings DROP COLUMN "gas"`)+"$").
			WillReturnResult(sqlmock.NewResult(0, 0))
		assert.NoError(t, NewReadingRepo(d).DropColumn(context.Background(), "gas"))
	})

	t.Run("drop missing", func(t *testing.T) {
		d, mock := newMock(t)
		mock.ExpectExec(`^ALTER TABLE readings DROP COLUMN`).WillReturnError(&pq.Error{Code: codeUndefinedColumn})
		assert.ErrorIs(t, NewReadingRepo(d).DropColumn(context.Background(), "gas"), domain.ErrNotFound)
	})

	t.Run("list", func(t *testing.T) {
		d, mock := newMock(t)
		mock.ExpectQuery(`(?s)^SELECT column_name FROM information_schema.columns.*table_name = 'readings'.*ORDER BY column_name$`).
			WithArgs(sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows([]string{"column_name"}).AddRow("cold_water").AddRow("heating"))

		cols, err := NewReadingRepo(d).ListColumns(context.Background())
		require.NoError(t, err)
		assert.Equal(t, []string{"cold_water", "heating"}, cols)
	})
}

func TestAuditRepo(t *testing.T) {
	d, mock := newMock(t)
	repo := NewAuditRepo(d)
	now := time.Date(2024, 3, 5, 12, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`^INSERT INTO audit_entries \(username, recorded_at, action\) VALUES \(\$1, \$2, \$3\) RETURNING id$`).
		WithArgs("alice", now, "user registered").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(1)))
	mock.ExpectQuery(`^SELECT id, username, recorded_at, action FROM audit_entries ORDER BY recorded_at DESC, id DESC$`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "recorded_at", "action"}).
			AddRow(int64(1), "alice", now, "user registered"))

	id, err := repo.Save(context.Background(), domain.AuditEntry{Username: "alice", Timestamp: now, Action: "user registered"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)

	entries, err := repo.FindAll(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "alice", entries[0].Username)
}
