package querysql

import (
	"strings"

	"github.com/maihuoche/Medoo/internal/queryir"
)

// compileTable compiles a table reference.
//
// A single name quotes via the quoter (prefix applied). A list quotes every
// name, joins with ", ", and when any entry is aliased appends " AS " plus
// the aliases in the same relative order. The alias list is positional:
//
//	{u: users, p: posts} → `users`, `posts` AS `u`, `p`
func (c *SQLCompiler) compileTable(t queryir.TableSpec) (string, error) {
	if len(t) == 0 {
		return "", invalidInput("table", "table reference is empty")
	}

	names := make([]string, 0, len(t))
	var aliases []string
	for _, ref := range t {
		if ref.Name == "" {
			return "", invalidInput("table", "table name is empty")
		}
		names = append(names, c.quoter.QuoteTable(ref.Name))
		if ref.Alias != "" {
			aliases = append(aliases, c.quoter.QuoteIdent(ref.Alias))
		}
	}

	sql := strings.Join(names, ", ")
	if len(aliases) > 0 {
		sql += " AS " + strings.Join(aliases, ", ")
	}
	return sql, nil
}

// compileColumns compiles a select list.
//
// The single-entry list ["*"] compiles to a bare * only when there are no
// joins; with joins it is rejected so that columns must be qualified.
// Qualified wildcards such as "users.*" are always allowed.
func (c *SQLCompiler) compileColumns(cols []queryir.ColumnSpec, hasJoins bool) (string, error) {
	if len(cols) == 0 {
		return "", invalidInput("columns", "column list is empty")
	}
	if queryir.IsWildcard(cols) {
		if hasJoins {
			return "", errWildcardWithJoin()
		}
		return queryir.Wildcard, nil
	}

	parts := make([]string, 0, len(cols))
	for i, col := range cols {
		if col.Expr == "" {
			return "", invalidInput("columns", "column %d is empty", i)
		}
		if col.Expr == queryir.Wildcard && hasJoins {
			return "", errWildcardWithJoin()
		}
		sql := c.quoter.QuoteColumn(string(col.Expr))
		if col.Alias != "" {
			sql += " AS " + c.quoter.QuoteIdent(col.Alias)
		}
		parts = append(parts, sql)
	}

	return strings.Join(parts, ", "), nil
}

// compileColumnList quotes a plain column list (GROUP BY, INSERT keys).
func (c *SQLCompiler) compileColumnList(cols []queryir.ColumnRef) string {
	parts := make([]string, len(cols))
	for i, col := range cols {
		parts[i] = c.quoter.QuoteColumn(string(col))
	}
	return strings.Join(parts, ", ")
}

func errWildcardWithJoin() *CompileError {
	return &CompileError{
		Code:    ErrCodeWildcardWithJoin,
		Message: `"*" is not allowed with joins; qualify the columns (e.g. "users.*")`,
		Field:   "columns",
	}
}
