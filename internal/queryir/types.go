package queryir

import (
	"strings"

	"github.com/maihuoche/Medoo/internal/ir"
)

// Separator splits a qualifier from a column name in a ColumnRef.
const Separator = "."

// Wildcard is the select-everything column marker.
const Wildcard = "*"

// ColumnRef is a column name, optionally qualified: "name" or "qualifier.name".
type ColumnRef string

// Split returns the qualifier and name. The split happens at the first
// separator only; ok is false for unqualified references.
func (c ColumnRef) Split() (qualifier, name string, ok bool) {
	return strings.Cut(string(c), Separator)
}

// Qualified reports whether the reference carries a qualifier.
func (c ColumnRef) Qualified() bool {
	return strings.Contains(string(c), Separator)
}

// ColumnSpec is one entry of a select list.
// An empty Alias means the column is emitted as-is.
type ColumnSpec struct {
	Alias string
	Expr  ColumnRef
}

// Col creates an unaliased ColumnSpec.
func Col(expr string) ColumnSpec {
	return ColumnSpec{Expr: ColumnRef(expr)}
}

// As creates an aliased ColumnSpec: expr AS alias.
func As(alias, expr string) ColumnSpec {
	return ColumnSpec{Alias: alias, Expr: ColumnRef(expr)}
}

// Columns creates an unaliased column list in the given order.
func Columns(exprs ...string) []ColumnSpec {
	cols := make([]ColumnSpec, len(exprs))
	for i, e := range exprs {
		cols[i] = Col(e)
	}
	return cols
}

// IsWildcard reports whether cols is exactly the single unaliased "*" list.
func IsWildcard(cols []ColumnSpec) bool {
	return len(cols) == 1 && cols[0].Alias == "" && cols[0].Expr == Wildcard
}

// TableRef is one entry of a table reference. Alias is empty when the
// entry carries no alias.
type TableRef struct {
	Alias string
	Name  string
}

// TableSpec is an ordered list of table references. A single unaliased
// entry is "a single name"; otherwise entries form an alias → name mapping
// whose order is output order.
type TableSpec []TableRef

// Table creates a TableSpec for a single table name.
func Table(name string) TableSpec {
	return TableSpec{{Name: name}}
}

// Aliased creates a TableSpec for one table under an alias.
func Aliased(alias, name string) TableSpec {
	return TableSpec{{Alias: alias, Name: name}}
}

// HasAlias reports whether any entry carries an alias.
func (t TableSpec) HasAlias() bool {
	for _, ref := range t {
		if ref.Alias != "" {
			return true
		}
	}
	return false
}

// JoinKind selects the JOIN keyword.
type JoinKind string

const (
	InnerJoin JoinKind = "INNER"
	LeftJoin  JoinKind = "LEFT"
	RightJoin JoinKind = "RIGHT"
	FullJoin  JoinKind = "FULL"
	CrossJoin JoinKind = "CROSS"
)

// ParseJoinKind normalizes a join-kind token. Unrecognized or empty tokens
// silently become InnerJoin.
func ParseJoinKind(token string) JoinKind {
	switch k := JoinKind(strings.ToUpper(strings.TrimSpace(token))); k {
	case InnerJoin, LeftJoin, RightJoin, FullJoin, CrossJoin:
		return k
	default:
		return InnerJoin
	}
}

// JoinSpec describes one JOIN clause. On may be nil.
type JoinSpec struct {
	Table TableSpec
	Kind  JoinKind
	On    ConditionExpr
}

// ConditionExpr is a node of a filter tree.
//
// This is a sealed interface - only types in this package implement it.
// Condition types:
//   - Leaf: column + predicate
//   - Group: AND / OR over ordered children
//   - ColumnEquals: column = column (binds nothing)
type ConditionExpr interface {
	conditionNode()
}

// Leaf tests one column with one predicate.
type Leaf struct {
	Column    ColumnRef
	Predicate Predicate
}

func (Leaf) conditionNode() {}

// LogicOp combines the children of a Group.
type LogicOp string

const (
	AND LogicOp = "AND"
	OR  LogicOp = "OR"
)

// Group combines ordered children with one logical operator.
// Children are compiled strictly left to right.
type Group struct {
	Op       LogicOp
	Children []ConditionExpr
}

func (Group) conditionNode() {}

// ColumnEquals compares two column references: left = right.
type ColumnEquals struct {
	Left  ColumnRef
	Right ColumnRef
}

func (ColumnEquals) conditionNode() {}

// Filter creates a Leaf.
func Filter(column string, p Predicate) Leaf {
	return Leaf{Column: ColumnRef(column), Predicate: p}
}

// And creates an AND group.
func And(children ...ConditionExpr) Group {
	return Group{Op: AND, Children: children}
}

// Or creates an OR group.
func Or(children ...ConditionExpr) Group {
	return Group{Op: OR, Children: children}
}

// On creates a column-to-column equality.
func On(left, right string) ColumnEquals {
	return ColumnEquals{Left: ColumnRef(left), Right: ColumnRef(right)}
}

// Predicate is the test applied to a Leaf's column.
//
// This is a sealed interface - only types in this package implement it.
type Predicate interface {
	predicateNode()
}

// Equals binds one value: column = ?
type Equals struct {
	Value ir.Value
}

func (Equals) predicateNode() {}

// CompareOp is a binary comparison other than equality.
type CompareOp string

const (
	OpNotEq   CompareOp = "!="
	OpGt      CompareOp = ">"
	OpGtEq    CompareOp = ">="
	OpLt      CompareOp = "<"
	OpLtEq    CompareOp = "<="
	OpLike    CompareOp = "LIKE"
	OpNotLike CompareOp = "NOT LIKE"
)

// ParseCompareOp normalizes an operator token. "<>" is accepted as "!=".
func ParseCompareOp(token string) (CompareOp, bool) {
	switch op := CompareOp(strings.ToUpper(strings.Join(strings.Fields(token), " "))); op {
	case OpNotEq, OpGt, OpGtEq, OpLt, OpLtEq, OpLike, OpNotLike:
		return op, true
	case "<>":
		return OpNotEq, true
	default:
		return "", false
	}
}

// Compare binds one value: column <op> ?
type Compare struct {
	Op    CompareOp
	Value ir.Value
}

func (Compare) predicateNode() {}

// IsNull tests column IS NULL.
type IsNull struct{}

func (IsNull) predicateNode() {}

// IsNotNull tests column IS NOT NULL.
type IsNotNull struct{}

func (IsNotNull) predicateNode() {}

// In binds every value in order: column [NOT ]IN (?, ...).
type In struct {
	Values []ir.Value
	Negate bool
}

func (In) predicateNode() {}

// Between binds Low then High: column [NOT ]BETWEEN ? AND ?
type Between struct {
	Low    ir.Value
	High   ir.Value
	Negate bool
}

func (Between) predicateNode() {}

// DerefCondition returns the value form of c. Pointer forms are
// dereferenced; a nil pointer yields nil.
func DerefCondition(c ConditionExpr) ConditionExpr {
	switch v := c.(type) {
	case *Leaf:
		if v == nil {
			return nil
		}
		return *v
	case *Group:
		if v == nil {
			return nil
		}
		return *v
	case *ColumnEquals:
		if v == nil {
			return nil
		}
		return *v
	}
	return c
}

// DerefPredicate returns the value form of p. Pointer forms are
// dereferenced; a nil pointer yields nil.
func DerefPredicate(p Predicate) Predicate {
	switch v := p.(type) {
	case *Equals:
		if v == nil {
			return nil
		}
		return *v
	case *Compare:
		if v == nil {
			return nil
		}
		return *v
	case *IsNull:
		if v == nil {
			return nil
		}
		return *v
	case *IsNotNull:
		if v == nil {
			return nil
		}
		return *v
	case *In:
		if v == nil {
			return nil
		}
		return *v
	case *Between:
		if v == nil {
			return nil
		}
		return *v
	}
	return p
}
