package querysql

import (
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/require"

	"github.com/maihuoche/Medoo/internal/ir"
	"github.com/maihuoche/Medoo/internal/queryir"
	"github.com/maihuoche/Medoo/internal/quote"
	"github.com/maihuoche/Medoo/internal/testutil"
)

// goldenStatements are compiled and compared against
// testdata/golden/{name}.golden. Regenerate with:
//
//	go test ./internal/querysql -run TestGolden -update
var goldenStatements = []struct {
	name   string
	prefix string
	stmt   queryir.Statement
}{
	{
		name: "select_join_where",
		stmt: queryir.Select{
			Table:   queryir.Aliased("u", "users"),
			Columns: []queryir.ColumnSpec{queryir.Col("u.id"), queryir.As("author", "u.name"), queryir.Col("p.title")},
			Joins: []queryir.JoinSpec{
				{
					Table: queryir.Aliased("p", "posts"),
					Kind:  queryir.LeftJoin,
					On: queryir.And(
						queryir.On("u.id", "p.user_id"),
						queryir.Filter("p.status", queryir.In{Values: []ir.Value{ir.Text("draft"), ir.Text("live")}}),
					),
				},
				{
					Table: queryir.Aliased("c", "comments"),
					Kind:  "outer",
					On:    queryir.And(queryir.On("p.id", "c.post_id")),
				},
			},
			Where: queryir.And(
				queryir.Filter("u.age", queryir.Compare{Op: queryir.OpGtEq, Value: ir.Int(18)}),
				queryir.Or(
					queryir.Filter("u.deleted_at", queryir.IsNull{}),
					queryir.Filter("u.role", queryir.Equals{Value: ir.Text("admin")}),
				),
			),
			OrderBy: []queryir.Ordering{{Column: "u.id", Desc: true}},
			Limit:   &queryir.Limit{Count: 20, Offset: 40},
		},
	},
	{
		name:   "select_grouped_prefixed",
		prefix: "app_",
		stmt: queryir.Select{
			Table:   queryir.Table("orders"),
			Columns: []queryir.ColumnSpec{queryir.Col("user_id"), queryir.As("n", "id")},
			Where: queryir.And(
				queryir.Filter("created_at", queryir.Between{Low: ir.Text("2024-01-01"), High: ir.Text("2024-12-31")}),
				queryir.Filter("status", queryir.In{Values: []ir.Value{ir.Text("void")}, Negate: true}),
			),
			GroupBy: []queryir.ColumnRef{"user_id"},
			Having:  queryir.And(queryir.Filter("user_id", queryir.Compare{Op: queryir.OpNotEq, Value: ir.Int(0)})),
		},
	},
	{
		name: "insert_mixed_values",
		stmt: queryir.Insert{
			Table: "files",
			Data: []queryir.Assignment{
				queryir.Set("name", ir.Text("report.pdf")),
				queryir.Set("size", ir.Int(2048)),
				queryir.Set("ratio", ir.Float(0.75)),
				queryir.Set("public", ir.Bool(false)),
				queryir.Set("checksum", ir.Raw{0x01, 0x02, 0x03}),
				queryir.Set("deleted_at", ir.Null{}),
			},
		},
	},
	{
		name: "update_nested_where",
		stmt: queryir.Update{
			Table: "accounts",
			Data: []queryir.Assignment{
				queryir.Set("status", ir.Text("locked")),
				queryir.Set("attempts", ir.Int(0)),
			},
			Where: queryir.And(
				queryir.Filter("attempts", queryir.Compare{Op: queryir.OpGt, Value: ir.Int(5)}),
				queryir.Or(
					queryir.Filter("email", queryir.Compare{Op: queryir.OpLike, Value: ir.Text("%@example.com")}),
					queryir.And(
						queryir.Filter("role", queryir.Equals{Value: ir.Text("guest")}),
						queryir.Filter("verified_at", queryir.IsNotNull{}),
					),
				),
			),
		},
	},
	{
		name: "delete_not_between",
		stmt: queryir.Delete{
			Table: "events",
			Where: queryir.And(queryir.Filter("x", queryir.Between{Low: ir.Int(1), High: ir.Int(10), Negate: true})),
		},
	},
	{
		name: "has_exists",
		stmt: queryir.Exists{Select: queryir.Select{
			Table: queryir.Table("users"),
			Where: queryir.And(queryir.Filter("email", queryir.Equals{Value: ir.Text("a@b.c")})),
		}},
	},
}

func TestGolden(t *testing.T) {
	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)

	for _, tt := range goldenStatements {
		t.Run(tt.name, func(t *testing.T) {
			c := NewSQLCompiler(quote.New(quote.Backtick, tt.prefix))

			sql, params, err := c.Compile(tt.stmt)
			require.NoError(t, err)
			testutil.RequireAligned(t, sql, params)

			paramsJSON, err := ir.MarshalCanonical(params)
			require.NoError(t, err)

			g.Assert(t, tt.name, []byte(sql+"\n"+string(paramsJSON)+"\n"))
		})
	}
}
