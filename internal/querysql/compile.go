package querysql

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/maihuoche/Medoo/internal/ir"
	"github.com/maihuoche/Medoo/internal/queryir"
	"github.com/maihuoche/Medoo/internal/quote"
)

// SQLCompiler compiles queryir statements to parameterized SQL.
//
// CRITICAL: All values are parameterized (never interpolated). The only
// literals inlined into SQL text are quoted identifiers and LIMIT/OFFSET
// integers.
//
// CRITICAL: The params slice returned with every statement is in the exact
// left-to-right order of the ? placeholders in the SQL text.
//
// An SQLCompiler is safe for concurrent use. Compilation itself shares no
// state; only the last-compiled snapshot is guarded.
type SQLCompiler struct {
	quoter quote.Quoter

	mu   sync.Mutex
	last Snapshot
}

// Snapshot is the most recent successful compilation, kept for
// introspection and debugging.
type Snapshot struct {
	SQL         string
	Params      []ir.Value
	Fingerprint string
}

// NewSQLCompiler creates a compiler using q for identifiers.
// A nil quoter selects backtick quoting with no table prefix.
func NewSQLCompiler(q quote.Quoter) *SQLCompiler {
	if q == nil {
		q = quote.Default()
	}
	return &SQLCompiler{quoter: q}
}

// Quoter returns the identifier quoter in use.
func (c *SQLCompiler) Quoter() quote.Quoter {
	return c.quoter
}

// Compile converts a statement to parameterized SQL.
// Returns (sql, params, error). On error no SQL is returned and the
// last-compiled snapshot is unchanged.
func (c *SQLCompiler) Compile(stmt queryir.Statement) (string, []ir.Value, error) {
	sql, params, err := c.compile(stmt)
	if err != nil {
		return "", nil, err
	}
	c.record(sql, params)
	return sql, params, nil
}

func (c *SQLCompiler) compile(stmt queryir.Statement) (string, []ir.Value, error) {
	if stmt == nil {
		return "", nil, errNilStatement()
	}

	switch s := stmt.(type) {
	case queryir.Select:
		return c.compileSelect(s)
	case *queryir.Select:
		if s == nil {
			return "", nil, errNilStatement()
		}
		return c.compileSelect(*s)
	case queryir.Exists:
		return c.compileExists(s)
	case *queryir.Exists:
		if s == nil {
			return "", nil, errNilStatement()
		}
		return c.compileExists(*s)
	case queryir.Insert:
		return c.compileInsert(s)
	case *queryir.Insert:
		if s == nil {
			return "", nil, errNilStatement()
		}
		return c.compileInsert(*s)
	case queryir.Update:
		return c.compileUpdate(s)
	case *queryir.Update:
		if s == nil {
			return "", nil, errNilStatement()
		}
		return c.compileUpdate(*s)
	case queryir.Delete:
		return c.compileDelete(s)
	case *queryir.Delete:
		if s == nil {
			return "", nil, errNilStatement()
		}
		return c.compileDelete(*s)
	default:
		return "", nil, fmt.Errorf("unsupported statement type: %T", stmt)
	}
}

// CompileSelect compiles SELECT columns FROM table [joins] [WHERE where].
// where and joins may be nil.
func (c *SQLCompiler) CompileSelect(table queryir.TableSpec, columns []queryir.ColumnSpec, where queryir.ConditionExpr, joins ...queryir.JoinSpec) (string, []ir.Value, error) {
	return c.Compile(queryir.Select{
		Table:   table,
		Columns: columns,
		Where:   where,
		Joins:   joins,
	})
}

// CompileInsert compiles INSERT INTO table (keys...) VALUES (?, ...).
func (c *SQLCompiler) CompileInsert(table string, data []queryir.Assignment) (string, []ir.Value, error) {
	return c.Compile(queryir.Insert{Table: table, Data: data})
}

// CompileUpdate compiles UPDATE table SET col = ?, ... [WHERE where].
func (c *SQLCompiler) CompileUpdate(table string, data []queryir.Assignment, where queryir.ConditionExpr) (string, []ir.Value, error) {
	return c.Compile(queryir.Update{Table: table, Data: data, Where: where})
}

// CompileDelete compiles DELETE FROM table [WHERE where].
func (c *SQLCompiler) CompileDelete(table string, where queryir.ConditionExpr) (string, []ir.Value, error) {
	return c.Compile(queryir.Delete{Table: table, Where: where})
}

// LastCompiled returns the most recent successful compilation.
// The zero Snapshot is returned before the first one.
func (c *SQLCompiler) LastCompiled() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap := c.last
	if snap.Params != nil {
		snap.Params = append([]ir.Value(nil), snap.Params...)
	}
	return snap
}

func (c *SQLCompiler) record(sql string, params []ir.Value) {
	// Non-finite floats have no canonical form; the snapshot just goes
	// without a fingerprint.
	fp, err := ir.Fingerprint(sql, params)
	if err != nil {
		fp = ""
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.last = Snapshot{
		SQL:         sql,
		Params:      append([]ir.Value(nil), params...),
		Fingerprint: fp,
	}
}

// compileSelect assembles
//
//	SELECT cols FROM table[ joins][ WHERE ...][ GROUP BY ...][ HAVING ...][ ORDER BY ...][ LIMIT n[ OFFSET m]]
//
// Param order: join ON values, then WHERE, then HAVING.
func (c *SQLCompiler) compileSelect(q queryir.Select) (string, []ir.Value, error) {
	selectClause, err := c.compileSelectList(q)
	if err != nil {
		return "", nil, err
	}

	from, joinSQL, whereSQL, params, err := c.compileSource(q)
	if err != nil {
		return "", nil, err
	}

	var sb strings.Builder
	sb.WriteString("SELECT ")
	sb.WriteString(selectClause)
	sb.WriteString(" FROM ")
	sb.WriteString(from)
	sb.WriteString(joinSQL)
	sb.WriteString(whereSQL)

	if len(q.GroupBy) > 0 {
		sb.WriteString(" GROUP BY ")
		sb.WriteString(c.compileColumnList(q.GroupBy))
	}

	havingSQL, havingParams, err := c.compileClause(q.Having)
	if err != nil {
		return "", nil, fmt.Errorf("compile having: %w", err)
	}
	if havingSQL != "" {
		sb.WriteString(" HAVING ")
		sb.WriteString(havingSQL)
		params = append(params, havingParams...)
	}

	if len(q.OrderBy) > 0 {
		sb.WriteString(" ORDER BY ")
		sb.WriteString(c.compileOrderBy(q.OrderBy))
	}

	if q.Limit != nil {
		limitSQL, err := compileLimit(*q.Limit)
		if err != nil {
			return "", nil, err
		}
		sb.WriteString(limitSQL)
	}

	return sb.String(), params, nil
}

// compileExists assembles SELECT EXISTS(SELECT 1 FROM ...) AS `has`.
// Only the table, joins and WHERE of the inner select are used.
func (c *SQLCompiler) compileExists(e queryir.Exists) (string, []ir.Value, error) {
	from, joinSQL, whereSQL, params, err := c.compileSource(e.Select)
	if err != nil {
		return "", nil, err
	}

	sql := "SELECT EXISTS(SELECT 1 FROM " + from + joinSQL + whereSQL + ") AS " + c.quoter.QuoteIdent("has")
	return sql, params, nil
}

// compileSource compiles FROM, joins and WHERE, in that order, so join
// params precede WHERE params.
func (c *SQLCompiler) compileSource(q queryir.Select) (from, joins, where string, params []ir.Value, err error) {
	from, err = c.compileTable(q.Table)
	if err != nil {
		return "", "", "", nil, err
	}

	joins, joinParams, err := c.compileJoins(q.Joins)
	if err != nil {
		return "", "", "", nil, fmt.Errorf("compile joins: %w", err)
	}
	params = append(params, joinParams...)

	whereSQL, whereParams, err := c.compileClause(q.Where)
	if err != nil {
		return "", "", "", nil, fmt.Errorf("compile where: %w", err)
	}
	if whereSQL != "" {
		where = " WHERE " + whereSQL
		params = append(params, whereParams...)
	}

	return from, joins, where, params, nil
}

// compileSelectList returns either the aggregate expression or the column list.
func (c *SQLCompiler) compileSelectList(q queryir.Select) (string, error) {
	if q.Aggregate == nil {
		return c.compileColumns(q.Columns, len(q.Joins) > 0)
	}

	fn, ok := queryir.ParseAggregateFunc(string(q.Aggregate.Func))
	if !ok {
		return "", invalidInput("aggregate", "unsupported aggregate %q", q.Aggregate.Func)
	}

	col := q.Aggregate.Column
	if col == "" || col == queryir.Wildcard {
		if fn != queryir.Count {
			return "", invalidInput("aggregate", "%s requires a column", fn)
		}
		return string(fn) + "(*)", nil
	}
	return string(fn) + "(" + c.quoter.QuoteColumn(string(col)) + ")", nil
}

func (c *SQLCompiler) compileOrderBy(order []queryir.Ordering) string {
	parts := make([]string, len(order))
	for i, o := range order {
		parts[i] = c.quoter.QuoteColumn(string(o.Column))
		if o.Desc {
			parts[i] += " DESC"
		} else {
			parts[i] += " ASC"
		}
	}
	return strings.Join(parts, ", ")
}

// compileLimit inlines LIMIT/OFFSET as integers. OFFSET 0 is omitted.
func compileLimit(l queryir.Limit) (string, error) {
	if l.Count < 0 || l.Offset < 0 {
		return "", invalidInput("limit", "limit and offset must be non-negative (got %d, %d)", l.Count, l.Offset)
	}
	sql := " LIMIT " + strconv.FormatInt(l.Count, 10)
	if l.Offset > 0 {
		sql += " OFFSET " + strconv.FormatInt(l.Offset, 10)
	}
	return sql, nil
}

// compileInsert assembles INSERT INTO `t` (`a`, `b`) VALUES (?, ?).
// Keys and values keep input order.
func (c *SQLCompiler) compileInsert(q queryir.Insert) (string, []ir.Value, error) {
	if q.Table == "" {
		return "", nil, invalidInput("table", "table name is empty")
	}
	if len(q.Data) == 0 {
		return "", nil, invalidInput("data", "insert data is empty")
	}

	keys := make([]queryir.ColumnRef, len(q.Data))
	params := make([]ir.Value, len(q.Data))
	for i, a := range q.Data {
		if a.Column == "" {
			return "", nil, invalidInput("data", "column %d is empty", i)
		}
		keys[i] = a.Column
		params[i] = bindValue(a.Value)
	}

	sql := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		c.quoter.QuoteTable(q.Table),
		c.compileColumnList(keys),
		placeholders(len(q.Data)))

	return sql, params, nil
}

// compileUpdate assembles UPDATE `t` SET `a` = ?, `b` = ?[ WHERE ...].
// Param order: SET values in input order, then WHERE.
func (c *SQLCompiler) compileUpdate(q queryir.Update) (string, []ir.Value, error) {
	if q.Table == "" {
		return "", nil, invalidInput("table", "table name is empty")
	}
	if len(q.Data) == 0 {
		return "", nil, invalidInput("data", "update data is empty")
	}

	sets := make([]string, len(q.Data))
	params := make([]ir.Value, 0, len(q.Data))
	for i, a := range q.Data {
		if a.Column == "" {
			return "", nil, invalidInput("data", "column %d is empty", i)
		}
		sets[i] = c.quoter.QuoteColumn(string(a.Column)) + " = ?"
		params = append(params, bindValue(a.Value))
	}

	whereSQL, whereParams, err := c.compileClause(q.Where)
	if err != nil {
		return "", nil, fmt.Errorf("compile where: %w", err)
	}

	sql := "UPDATE " + c.quoter.QuoteTable(q.Table) + " SET " + strings.Join(sets, ", ")
	if whereSQL != "" {
		sql += " WHERE " + whereSQL
		params = append(params, whereParams...)
	}

	return sql, params, nil
}

// compileDelete assembles DELETE FROM `t`[ WHERE ...].
func (c *SQLCompiler) compileDelete(q queryir.Delete) (string, []ir.Value, error) {
	if q.Table == "" {
		return "", nil, invalidInput("table", "table name is empty")
	}

	whereSQL, params, err := c.compileClause(q.Where)
	if err != nil {
		return "", nil, fmt.Errorf("compile where: %w", err)
	}

	sql := "DELETE FROM " + c.quoter.QuoteTable(q.Table)
	if whereSQL == "" {
		return sql, nil, nil
	}
	return sql + " WHERE " + whereSQL, params, nil
}
