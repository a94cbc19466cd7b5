//go:build integration

package store

import (
	"context"
	"log"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/mariadb"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/maihuoche/Medoo/internal/ir"
	"github.com/maihuoche/Medoo/internal/queryir"
)

// Shared container, lazily started by the first test that needs it.
var (
	sharedMariaDB    *mariadb.MariaDBContainer
	sharedMariaDBDSN string
	mariadbOnce      sync.Once
)

func TestMain(m *testing.M) {
	code := m.Run()

	if sharedMariaDB != nil {
		_ = sharedMariaDB.Terminate(context.Background())
	}
	os.Exit(code)
}

// mariaDBDSN returns the DSN of the shared MariaDB container.
func mariaDBDSN(t *testing.T) string {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping MariaDB integration test in short mode")
	}

	mariadbOnce.Do(func() {
		ctx := context.Background()

		container, err := mariadb.Run(ctx,
			"docker.io/mariadb:11",
			mariadb.WithDatabase("medoo_test"),
			mariadb.WithUsername("test"),
			mariadb.WithPassword("test"),
			testcontainers.WithWaitStrategy(
				wait.ForLog("mariadbd: ready for connections").
					WithStartupTimeout(60*time.Second),
			),
		)
		if err != nil {
			log.Fatalf("Failed to start mariadb container: %v", err)
		}

		dsn, err := container.ConnectionString(ctx)
		if err != nil {
			log.Fatalf("Failed to get connection string: %v", err)
		}

		sharedMariaDB = container
		sharedMariaDBDSN = dsn
	})

	return sharedMariaDBDSN
}

func TestMariaDB_RoundTrip(t *testing.T) {
	ctx := context.Background()

	s, err := Open(ctx, Config{Driver: "mariadb", DSN: mariaDBDSN(t), Prefix: "it_"})
	require.NoError(t, err)
	defer s.Close()
	assert.Equal(t, DriverMySQL, s.Driver())

	_, err = s.Exec(ctx, "DROP TABLE IF EXISTS it_accounts", nil)
	require.NoError(t, err)
	_, err = s.Exec(ctx, `CREATE TABLE it_accounts (
		id      BIGINT AUTO_INCREMENT PRIMARY KEY,
		owner   VARCHAR(64) NOT NULL,
		balance BIGINT NOT NULL,
		closed  BOOLEAN NOT NULL DEFAULT FALSE
	)`, nil)
	require.NoError(t, err)

	for _, owner := range []string{"ada", "bob", "cy"} {
		_, err := s.Insert(ctx, queryir.Insert{Table: "accounts", Data: []queryir.Assignment{
			queryir.Set("owner", ir.Text(owner)),
			queryir.Set("balance", ir.Int(100)),
		}})
		require.NoError(t, err)
	}

	err = s.Action(ctx, func(tx *Store) error {
		if _, err := tx.Update(ctx, queryir.Update{
			Table: "accounts",
			Data:  []queryir.Assignment{queryir.Set("balance", ir.Int(40))},
			Where: queryir.And(queryir.Filter("owner", queryir.Equals{Value: ir.Text("ada")})),
		}); err != nil {
			return err
		}
		_, err := tx.Update(ctx, queryir.Update{
			Table: "accounts",
			Data:  []queryir.Assignment{queryir.Set("balance", ir.Int(160))},
			Where: queryir.And(queryir.Filter("owner", queryir.Equals{Value: ir.Text("bob")})),
		})
		return err
	})
	require.NoError(t, err)

	res, err := s.Select(ctx, queryir.Select{
		Table:   queryir.Aliased("a", "accounts"),
		Columns: queryir.Columns("a.owner", "a.balance"),
		Where: queryir.And(
			queryir.Filter("a.closed", queryir.Equals{Value: ir.Bool(false)}),
			queryir.Or(
				queryir.Filter("a.balance", queryir.Compare{Op: queryir.OpGt, Value: ir.Int(150)}),
				queryir.Filter("a.owner", queryir.Compare{Op: queryir.OpLike, Value: ir.Text("a%")}),
			),
		),
		OrderBy: []queryir.Ordering{{Column: "a.owner"}},
	})
	require.NoError(t, err)
	assert.Equal(t, [][]any{{"ada", int64(40)}, {"bob", int64(160)}}, res.Rows)

	has, err := s.Has(ctx, queryir.Select{
		Table: queryir.Table("accounts"),
		Where: queryir.And(queryir.Filter("balance", queryir.Between{Low: ir.Int(90), High: ir.Int(110)})),
	})
	require.NoError(t, err)
	assert.True(t, has)

	total, err := s.Count(ctx, queryir.Select{Table: queryir.Table("accounts")}, "")
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)

	n, err := s.Delete(ctx, queryir.Delete{
		Table: "accounts",
		Where: queryir.And(queryir.Filter("owner", queryir.In{Values: []ir.Value{ir.Text("cy")}, Negate: true})),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}
