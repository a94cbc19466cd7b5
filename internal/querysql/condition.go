package querysql

import (
	"fmt"
	"strings"

	"github.com/maihuoche/Medoo/internal/ir"
	"github.com/maihuoche/Medoo/internal/queryir"
)

// compileClause compiles a top-level condition (WHERE, HAVING or ON).
// The top level is never wrapped in parentheses; nested groups are.
// Returns "" when the condition is nil or compiles to nothing.
func (c *SQLCompiler) compileClause(cond queryir.ConditionExpr) (string, []ir.Value, error) {
	if cond == nil {
		return "", nil, nil
	}
	return c.compileCondition(cond)
}

// compileCondition compiles one node of a filter tree.
// Returns (sql, params, error). Params are in placeholder order.
// CRITICAL: Values are NEVER interpolated - always ? placeholders.
// A nil pointer node compiles to nothing, like a nil interface.
func (c *SQLCompiler) compileCondition(cond queryir.ConditionExpr) (string, []ir.Value, error) {
	switch expr := queryir.DerefCondition(cond).(type) {
	case queryir.Leaf:
		return c.compileLeaf(expr)
	case queryir.Group:
		return c.compileGroup(expr)
	case queryir.ColumnEquals:
		return c.compileColumnEquals(expr), nil, nil
	case nil:
		return "", nil, nil
	default:
		return "", nil, fmt.Errorf("unsupported condition type: %T", cond)
	}
}

// compileGroup joins the non-empty fragments of the children with the
// group operator. Children are compiled strictly left to right and their
// params appended in the same order.
func (c *SQLCompiler) compileGroup(g queryir.Group) (string, []ir.Value, error) {
	op := g.Op
	if op == "" {
		op = queryir.AND
	}
	if op != queryir.AND && op != queryir.OR {
		return "", nil, invalidInput("condition", "unsupported logical operator %q", g.Op)
	}

	var sqlParts []string
	var allParams []ir.Value

	for i, child := range g.Children {
		sql, params, err := c.compileCondition(child)
		if err != nil {
			return "", nil, fmt.Errorf("%s[%d]: %w", op, i, err)
		}
		if sql == "" {
			continue
		}
		if isGroup(child) {
			sql = "(" + sql + ")"
		}
		sqlParts = append(sqlParts, sql)
		allParams = append(allParams, params...)
	}

	return strings.Join(sqlParts, " "+string(op)+" "), allParams, nil
}

// compileLeaf compiles a column test.
func (c *SQLCompiler) compileLeaf(leaf queryir.Leaf) (string, []ir.Value, error) {
	if leaf.Column == "" {
		return "", nil, invalidInput("condition", "empty column name")
	}
	column := c.quoter.QuoteColumn(string(leaf.Column))

	switch p := queryir.DerefPredicate(leaf.Predicate).(type) {
	case queryir.Equals:
		return column + " = ?", []ir.Value{bindValue(p.Value)}, nil
	case queryir.Compare:
		return c.compileCompare(column, p)
	case queryir.IsNull:
		return column + " IS NULL", nil, nil
	case queryir.IsNotNull:
		return column + " IS NOT NULL", nil, nil
	case queryir.In:
		return compileIn(column, p), inParams(p), nil
	case queryir.Between:
		return compileBetween(column, p), []ir.Value{bindValue(p.Low), bindValue(p.High)}, nil
	case nil:
		return "", nil, invalidInput("condition", "column %q has no predicate", leaf.Column)
	default:
		return "", nil, fmt.Errorf("unsupported predicate type: %T", leaf.Predicate)
	}
}

func (c *SQLCompiler) compileCompare(column string, cmp queryir.Compare) (string, []ir.Value, error) {
	op, ok := queryir.ParseCompareOp(string(cmp.Op))
	if !ok {
		return "", nil, invalidInput("condition", "unsupported comparison operator %q", cmp.Op)
	}
	return column + " " + string(op) + " ?", []ir.Value{bindValue(cmp.Value)}, nil
}

// compileIn emits one placeholder per value. A zero-value list still
// compiles, to "col IN ()".
func compileIn(column string, in queryir.In) string {
	keyword := " IN "
	if in.Negate {
		keyword = " NOT IN "
	}
	return column + keyword + "(" + placeholders(len(in.Values)) + ")"
}

func inParams(in queryir.In) []ir.Value {
	if len(in.Values) == 0 {
		return nil
	}
	params := make([]ir.Value, len(in.Values))
	for i, v := range in.Values {
		params[i] = bindValue(v)
	}
	return params
}

func compileBetween(column string, b queryir.Between) string {
	if b.Negate {
		return column + " NOT BETWEEN ? AND ?"
	}
	return column + " BETWEEN ? AND ?"
}

func (c *SQLCompiler) compileColumnEquals(eq queryir.ColumnEquals) string {
	return c.quoter.QuoteColumn(string(eq.Left)) + " = " + c.quoter.QuoteColumn(string(eq.Right))
}

// placeholders returns n comma-separated "?" markers.
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat("?, ", n-1) + "?"
}

// bindValue maps an absent value to SQL NULL.
func bindValue(v ir.Value) ir.Value {
	if v == nil {
		return ir.Null{}
	}
	return v
}

func isGroup(cond queryir.ConditionExpr) bool {
	_, ok := queryir.DerefCondition(cond).(queryir.Group)
	return ok
}
