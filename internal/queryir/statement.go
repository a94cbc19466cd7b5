package queryir

import (
	"strings"

	"github.com/maihuoche/Medoo/internal/ir"
)

// Statement is a complete statement description.
//
// This is a sealed interface - only types in this package implement it.
// Statement types:
//   - Select: SELECT, optionally aggregated
//   - Exists: SELECT EXISTS(...) over a Select's FROM/JOIN/WHERE
//   - Insert, Update, Delete
type Statement interface {
	statementNode()
}

// Select describes a SELECT statement.
//
// Parameter order follows clause order: join ON values, then WHERE, then
// HAVING.
type Select struct {
	Table     TableSpec
	Columns   []ColumnSpec
	Joins     []JoinSpec
	Where     ConditionExpr // nil = no WHERE
	GroupBy   []ColumnRef
	Having    ConditionExpr // nil = no HAVING
	OrderBy   []Ordering
	Limit     *Limit
	Aggregate *Aggregate // replaces Columns when set
}

func (Select) statementNode() {}

// Exists describes SELECT EXISTS(SELECT 1 FROM ... ). Only the inner
// Select's table, joins and WHERE are used.
type Exists struct {
	Select Select
}

func (Exists) statementNode() {}

// Insert describes INSERT INTO table (...) VALUES (...).
type Insert struct {
	Table string
	Data  []Assignment
}

func (Insert) statementNode() {}

// Update describes UPDATE table SET ... [WHERE ...].
type Update struct {
	Table string
	Data  []Assignment
	Where ConditionExpr
}

func (Update) statementNode() {}

// Delete describes DELETE FROM table [WHERE ...].
type Delete struct {
	Table string
	Where ConditionExpr
}

func (Delete) statementNode() {}

// Assignment is one entry of an ordered column → value mapping.
type Assignment struct {
	Column ColumnRef
	Value  ir.Value
}

// Set creates an Assignment.
func Set(column string, value ir.Value) Assignment {
	return Assignment{Column: ColumnRef(column), Value: value}
}

// Ordering is one ORDER BY term.
type Ordering struct {
	Column ColumnRef
	Desc   bool
}

// Limit is LIMIT Count [OFFSET Offset]. Offset 0 is omitted.
type Limit struct {
	Count  int64
	Offset int64
}

// AggregateFunc names a supported aggregate.
type AggregateFunc string

const (
	Count AggregateFunc = "COUNT"
	Max   AggregateFunc = "MAX"
	Min   AggregateFunc = "MIN"
	Avg   AggregateFunc = "AVG"
	Sum   AggregateFunc = "SUM"
)

// ParseAggregateFunc normalizes an aggregate name.
func ParseAggregateFunc(name string) (AggregateFunc, bool) {
	switch f := AggregateFunc(strings.ToUpper(strings.TrimSpace(name))); f {
	case Count, Max, Min, Avg, Sum:
		return f, true
	default:
		return "", false
	}
}

// Aggregate selects FUNC(column) instead of a column list.
// COUNT over an empty column or "*" counts rows.
type Aggregate struct {
	Func   AggregateFunc
	Column ColumnRef
}
