package querysql

import (
	"fmt"
	"strings"

	"github.com/maihuoche/Medoo/internal/ir"
	"github.com/maihuoche/Medoo/internal/queryir"
)

// compileJoins compiles the join list in input order.
// Each fragment carries its own leading space: " LEFT JOIN `t` ON ...".
// Params follow join order.
func (c *SQLCompiler) compileJoins(joins []queryir.JoinSpec) (string, []ir.Value, error) {
	var sb strings.Builder
	var allParams []ir.Value

	for i, j := range joins {
		sql, params, err := c.compileJoin(j)
		if err != nil {
			return "", nil, fmt.Errorf("join[%d]: %w", i, err)
		}
		sb.WriteString(sql)
		allParams = append(allParams, params...)
	}

	return sb.String(), allParams, nil
}

// compileJoin compiles a single JoinSpec.
// Unrecognized kinds silently become INNER. An absent or empty ON
// condition omits the ON keyword, whatever the kind.
func (c *SQLCompiler) compileJoin(j queryir.JoinSpec) (string, []ir.Value, error) {
	kind := queryir.ParseJoinKind(string(j.Kind))

	table, err := c.compileTable(j.Table)
	if err != nil {
		return "", nil, err
	}

	sql := " " + string(kind) + " JOIN " + table

	on, params, err := c.compileClause(j.On)
	if err != nil {
		return "", nil, fmt.Errorf("on: %w", err)
	}
	if on == "" {
		return sql, nil, nil
	}

	return sql + " ON " + on, params, nil
}
