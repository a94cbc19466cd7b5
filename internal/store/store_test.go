package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maihuoche/Medoo/internal/ir"
	"github.com/maihuoche/Medoo/internal/queryir"
	"github.com/maihuoche/Medoo/internal/querysql"
	"github.com/maihuoche/Medoo/internal/quote"
)

const usersSchema = `
CREATE TABLE users (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	name       TEXT NOT NULL,
	age        INTEGER,
	email      TEXT,
	deleted_at TEXT
)`

// createTestStore opens a file-backed SQLite store with the users table.
func createTestStore(t *testing.T, cfg Config) *Store {
	t.Helper()
	if cfg.DSN == "" {
		cfg.DSN = filepath.Join(t.TempDir(), "test.db")
	}
	s, err := Open(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func seedUsers(t *testing.T, s *Store) {
	t.Helper()
	ctx := context.Background()
	_, err := s.Exec(ctx, usersSchema, nil)
	require.NoError(t, err)

	users := []struct {
		name string
		age  int64
	}{
		{"ada", 36},
		{"bob", 17},
		{"cy", 52},
	}
	for i, u := range users {
		id, err := s.Insert(ctx, queryir.Insert{Table: "users", Data: []queryir.Assignment{
			queryir.Set("name", ir.Text(u.name)),
			queryir.Set("age", ir.Int(u.age)),
		}})
		require.NoError(t, err)
		assert.Equal(t, int64(i+1), id)
	}
}

func TestOpen_CreatesDatabaseWithPragmas(t *testing.T) {
	path := filepath.Join(t.TempDir(), "medoo.db")
	s := createTestStore(t, Config{DSN: path})

	_, err := os.Stat(path)
	require.NoError(t, err, "database file was not created")
	assert.Equal(t, DriverSQLite, s.Driver())

	tests := []struct {
		pragma   string
		expected string
	}{
		{"journal_mode", "wal"},
		{"synchronous", "1"},
		{"busy_timeout", "5000"},
		{"foreign_keys", "1"},
	}
	for _, tt := range tests {
		t.Run(tt.pragma, func(t *testing.T) {
			var value string
			require.NoError(t, s.DB().QueryRow("PRAGMA "+tt.pragma).Scan(&value))
			assert.Equal(t, tt.expected, value)
		})
	}
}

func TestOpen_Errors(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		msg  string
	}{
		{"empty dsn", Config{Driver: "sqlite3"}, "dsn is required"},
		{"unknown driver", Config{Driver: "oracle", DSN: "x"}, "unsupported driver"},
		{"bad quote style", Config{DSN: ":memory:", Quote: "square"}, "invalid quote style"},
		{"bad mysql dsn", Config{Driver: "mysql", DSN: "not-a-dsn"}, "invalid mysql dsn"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Open(context.Background(), tt.cfg)
			require.Error(t, err)
			assert.Nil(t, s)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestNormalizeDriver(t *testing.T) {
	tests := map[string]string{
		"":        DriverSQLite,
		"sqlite":  DriverSQLite,
		"SQLite3": DriverSQLite,
		"mysql":   DriverMySQL,
		"MariaDB": DriverMySQL,
		"pg":      "pg",
	}
	for in, want := range tests {
		assert.Equal(t, want, normalizeDriver(in), in)
	}
}

func TestStore_SelectAndGet(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t, Config{})
	seedUsers(t, s)

	res, err := s.Select(ctx, queryir.Select{
		Table:   queryir.Table("users"),
		Columns: queryir.Columns("name", "age"),
		Where:   queryir.And(queryir.Filter("age", queryir.Compare{Op: queryir.OpGtEq, Value: ir.Int(18)})),
		OrderBy: []queryir.Ordering{{Column: "age", Desc: true}},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"name", "age"}, res.Columns)
	assert.Equal(t, [][]any{{"cy", int64(52)}, {"ada", int64(36)}}, res.Rows)
	assert.Equal(t, "SELECT `name`, `age` FROM `users` WHERE `age` >= ? ORDER BY `age` DESC", s.Last().SQL)

	row, ok, err := s.Get(ctx, queryir.Select{
		Table:   queryir.Table("users"),
		Columns: queryir.Columns("id", "name", "deleted_at"),
		Where:   queryir.And(queryir.Filter("name", queryir.Equals{Value: ir.Text("bob")})),
	})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, Row{"id": int64(2), "name": "bob", "deleted_at": nil}, row)
	assert.Equal(t, "SELECT `id`, `name`, `deleted_at` FROM `users` WHERE `name` = ? LIMIT 1", s.Last().SQL)

	_, ok, err = s.Get(ctx, queryir.Select{
		Table:   queryir.Table("users"),
		Columns: queryir.Columns("id"),
		Where:   queryir.And(queryir.Filter("name", queryir.Equals{Value: ir.Text("nobody")})),
	})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStore_SelectEmptyResult(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t, Config{})
	seedUsers(t, s)

	res, err := s.Select(ctx, queryir.Select{
		Table:   queryir.Table("users"),
		Columns: queryir.Columns("*"),
		Where:   queryir.And(queryir.Filter("id", queryir.In{Values: []ir.Value{}})),
	})
	require.NoError(t, err)
	assert.Equal(t, 0, res.Len())
	assert.NotNil(t, res.Rows)
	assert.Equal(t, []Row{}, res.Maps())
}

func TestStore_Scalars(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t, Config{})
	seedUsers(t, s)

	users := queryir.Select{Table: queryir.Table("users")}
	adults := queryir.Select{
		Table: queryir.Table("users"),
		Where: queryir.And(queryir.Filter("age", queryir.Compare{Op: queryir.OpGtEq, Value: ir.Int(18)})),
	}

	has, err := s.Has(ctx, adults)
	require.NoError(t, err)
	assert.True(t, has)

	has, err = s.Has(ctx, queryir.Select{
		Table: queryir.Table("users"),
		Where: queryir.And(queryir.Filter("age", queryir.Compare{Op: queryir.OpGt, Value: ir.Int(100)})),
	})
	require.NoError(t, err)
	assert.False(t, has)

	n, err := s.Count(ctx, users, "")
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	n, err = s.Count(ctx, adults, "id")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.Equal(t, "SELECT COUNT(`id`) FROM `users` WHERE `age` >= ?", s.Last().SQL)

	n, err = s.Count(ctx, users, "deleted_at")
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)

	maxAge, err := s.Aggregate(ctx, users, queryir.Max, "age")
	require.NoError(t, err)
	assert.Equal(t, int64(52), maxAge)

	sum, err := s.Aggregate(ctx, adults, queryir.Sum, "age")
	require.NoError(t, err)
	assert.Equal(t, int64(88), sum)

	none, err := s.Aggregate(ctx, queryir.Select{
		Table: queryir.Table("users"),
		Where: queryir.And(queryir.Filter("id", queryir.Equals{Value: ir.Int(99)})),
	}, queryir.Min, "age")
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestStore_UpdateAndDelete(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t, Config{})
	seedUsers(t, s)

	n, err := s.Update(ctx, queryir.Update{
		Table: "users",
		Data:  []queryir.Assignment{queryir.Set("email", ir.Text("minor@example.com"))},
		Where: queryir.And(queryir.Filter("age", queryir.Compare{Op: queryir.OpLt, Value: ir.Int(18)})),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	row, ok, err := s.Get(ctx, queryir.Select{
		Table:   queryir.Table("users"),
		Columns: queryir.Columns("email"),
		Where:   queryir.And(queryir.Filter("name", queryir.Equals{Value: ir.Text("bob")})),
	})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "minor@example.com", row["email"])

	n, err = s.Delete(ctx, queryir.Delete{
		Table: "users",
		Where: queryir.And(queryir.Filter("age", queryir.Between{Low: ir.Int(30), High: ir.Int(60)})),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	left, err := s.Count(ctx, queryir.Select{Table: queryir.Table("users")}, "")
	require.NoError(t, err)
	assert.Equal(t, int64(1), left)
}

func TestStore_NullAndBlobValues(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t, Config{})
	_, err := s.Exec(ctx, "CREATE TABLE files (id INTEGER PRIMARY KEY, body BLOB, note TEXT)", nil)
	require.NoError(t, err)

	_, err = s.Insert(ctx, queryir.Insert{Table: "files", Data: []queryir.Assignment{
		queryir.Set("body", ir.NewRaw([]byte("abc"))),
		queryir.Set("note", nil),
	}})
	require.NoError(t, err)

	has, err := s.Has(ctx, queryir.Select{
		Table: queryir.Table("files"),
		Where: queryir.And(queryir.Filter("note", queryir.IsNull{})),
	})
	require.NoError(t, err)
	assert.True(t, has)

	row, ok, err := s.Get(ctx, queryir.Select{Table: queryir.Table("files"), Columns: queryir.Columns("body", "note")})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "abc", row["body"])
	assert.Nil(t, row["note"])
}

func TestStore_TablePrefixAndQuoteStyle(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t, Config{Prefix: "app_", Quote: quote.DoubleQuote})
	_, err := s.Exec(ctx, `CREATE TABLE app_tags (id INTEGER PRIMARY KEY, label TEXT)`, nil)
	require.NoError(t, err)

	_, err = s.Insert(ctx, queryir.Insert{Table: "tags", Data: []queryir.Assignment{queryir.Set("label", ir.Text("go"))}})
	require.NoError(t, err)
	assert.Equal(t, `INSERT INTO "app_tags" ("label") VALUES (?)`, s.Last().SQL)

	res, err := s.Select(ctx, queryir.Select{
		Table:   queryir.Aliased("t", "tags"),
		Columns: queryir.Columns("t.label"),
	})
	require.NoError(t, err)
	assert.Equal(t, [][]any{{"go"}}, res.Rows)
	assert.Equal(t, `SELECT "t"."label" FROM "app_tags" AS "t"`, s.Last().SQL)
}

func TestStore_CompileErrorsSurface(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t, Config{})
	seedUsers(t, s)
	before := s.Last()

	_, err := s.Select(ctx, queryir.Select{Table: queryir.Table("users"), Columns: []queryir.ColumnSpec{}})
	require.Error(t, err)
	assert.True(t, querysql.IsInvalidInput(err))

	_, err = s.Update(ctx, queryir.Update{Table: "users"})
	require.Error(t, err)
	assert.True(t, querysql.IsInvalidInput(err))

	_, err = s.Insert(ctx, queryir.Insert{Table: "", Data: []queryir.Assignment{queryir.Set("a", ir.Int(1))}})
	require.Error(t, err)
	assert.True(t, querysql.IsInvalidInput(err))

	assert.Equal(t, before, s.Last())
}

func TestStore_DriverErrorsWrap(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t, Config{})

	_, err := s.Select(ctx, queryir.Select{Table: queryir.Table("missing"), Columns: queryir.Columns("*")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "select: query:")
	assert.False(t, querysql.IsInvalidInput(err))
}

func TestStore_Run(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t, Config{})
	seedUsers(t, s)

	out, err := s.Run(ctx, queryir.Insert{Table: "users", Data: []queryir.Assignment{queryir.Set("name", ir.Text("dee"))}})
	require.NoError(t, err)
	assert.Equal(t, int64(4), out.LastInsertID)
	assert.Nil(t, out.Result)
	assert.Equal(t, ir.MustFingerprint(out.SQL, []ir.Value{ir.Text("dee")}), out.Fingerprint)

	out, err = s.Run(ctx, &queryir.Select{Table: queryir.Table("users"), Columns: queryir.Columns("name"), Limit: &queryir.Limit{Count: 2, Offset: 1}})
	require.NoError(t, err)
	require.NotNil(t, out.Result)
	assert.Equal(t, [][]any{{"bob"}, {"cy"}}, out.Result.Rows)
	assert.Equal(t, "SELECT `name` FROM `users` LIMIT 2 OFFSET 1", out.SQL)

	out, err = s.Run(ctx, queryir.Exists{Select: queryir.Select{Table: queryir.Table("users")}})
	require.NoError(t, err)
	assert.Equal(t, []string{"has"}, out.Result.Columns)

	out, err = s.Run(ctx, queryir.Update{
		Table: "users",
		Data:  []queryir.Assignment{queryir.Set("age", ir.Int(1))},
		Where: queryir.And(queryir.Filter("age", queryir.IsNull{})),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), out.Affected)

	out, err = s.Run(ctx, queryir.Delete{Table: "users"})
	require.NoError(t, err)
	assert.Equal(t, int64(4), out.Affected)

	_, err = s.Run(ctx, nil)
	require.Error(t, err)
	assert.True(t, querysql.IsInvalidInput(err))
}

func TestStore_Action(t *testing.T) {
	ctx := context.Background()
	insertDee := queryir.Insert{Table: "users", Data: []queryir.Assignment{queryir.Set("name", ir.Text("dee"))}}
	count := func(t *testing.T, s *Store) int64 {
		t.Helper()
		n, err := s.Count(ctx, queryir.Select{Table: queryir.Table("users")}, "")
		require.NoError(t, err)
		return n
	}

	t.Run("commit", func(t *testing.T) {
		s := createTestStore(t, Config{})
		seedUsers(t, s)

		err := s.Action(ctx, func(tx *Store) error {
			_, err := tx.Insert(ctx, insertDee)
			return err
		})
		require.NoError(t, err)
		assert.Equal(t, int64(4), count(t, s))
	})

	t.Run("error rolls back", func(t *testing.T) {
		s := createTestStore(t, Config{})
		seedUsers(t, s)
		boom := errors.New("boom")

		err := s.Action(ctx, func(tx *Store) error {
			if _, err := tx.Insert(ctx, insertDee); err != nil {
				return err
			}
			return boom
		})
		require.ErrorIs(t, err, boom)
		assert.Equal(t, int64(3), count(t, s))
	})

	t.Run("rollback request", func(t *testing.T) {
		s := createTestStore(t, Config{})
		seedUsers(t, s)

		err := s.Action(ctx, func(tx *Store) error {
			if _, err := tx.Delete(ctx, queryir.Delete{Table: "users"}); err != nil {
				return err
			}
			return ErrRollback
		})
		require.NoError(t, err)
		assert.Equal(t, int64(3), count(t, s))
	})

	t.Run("nested", func(t *testing.T) {
		s := createTestStore(t, Config{})

		err := s.Action(ctx, func(tx *Store) error {
			return tx.Action(ctx, func(*Store) error { return nil })
		})
		require.ErrorIs(t, err, ErrNestedAction)
	})

	t.Run("panic rolls back", func(t *testing.T) {
		s := createTestStore(t, Config{})
		seedUsers(t, s)

		assert.Panics(t, func() {
			_ = s.Action(ctx, func(tx *Store) error {
				if _, err := tx.Insert(ctx, insertDee); err != nil {
					return err
				}
				panic("kaboom")
			})
		})
		assert.Equal(t, int64(3), count(t, s))
	})

	t.Run("tx store close is a no-op", func(t *testing.T) {
		s := createTestStore(t, Config{})

		err := s.Action(ctx, func(tx *Store) error {
			return tx.Close()
		})
		require.NoError(t, err)
		require.NoError(t, s.DB().PingContext(ctx))
	})
}
