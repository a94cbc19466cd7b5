package queryir

import (
	"fmt"

	"github.com/maihuoche/Medoo/internal/ir"
)

// ValidationResult contains advisory findings about a statement.
//
// Findings never block compilation. They flag descriptions that compile
// deterministically but probably do not mean what the caller intended.
type ValidationResult struct {
	// Clean is true when no warnings were produced.
	Clean bool

	// Warnings lists findings in traversal order.
	Warnings []string
}

// Validate walks a statement and reports suspicious shapes:
//  1. UPDATE / DELETE without WHERE (touches every row)
//  2. IN / NOT IN with zero values (always false / always true)
//  3. Equals against NULL (never true; use IsNull)
//  4. Empty groups (compile to nothing)
//  5. BETWEEN with a NULL bound
//
// Validate is a pure function with no side effects.
func Validate(stmt Statement) ValidationResult {
	v := &validator{
		warnings: []string{},
	}
	v.validateStatement(stmt)

	return ValidationResult{
		Clean:    len(v.warnings) == 0,
		Warnings: v.warnings,
	}
}

// validator accumulates warnings during traversal.
type validator struct {
	warnings []string
}

func (v *validator) addWarning(format string, args ...any) {
	v.warnings = append(v.warnings, fmt.Sprintf(format, args...))
}

func (v *validator) validateStatement(s Statement) {
	if s == nil {
		v.addWarning("nil statement")
		return
	}

	switch stmt := s.(type) {
	case Select:
		v.validateSelect(stmt)
	case *Select:
		if stmt == nil {
			v.addWarning("nil statement")
			return
		}
		v.validateSelect(*stmt)
	case Exists:
		v.validateSelect(stmt.Select)
	case *Exists:
		if stmt == nil {
			v.addWarning("nil statement")
			return
		}
		v.validateSelect(stmt.Select)
	case Insert, *Insert:
		// Nothing advisory; emptiness is a compile error.
	case Update:
		v.validateWrite("UPDATE", stmt.Table, stmt.Where)
	case *Update:
		if stmt == nil {
			v.addWarning("nil statement")
			return
		}
		v.validateWrite("UPDATE", stmt.Table, stmt.Where)
	case Delete:
		v.validateWrite("DELETE", stmt.Table, stmt.Where)
	case *Delete:
		if stmt == nil {
			v.addWarning("nil statement")
			return
		}
		v.validateWrite("DELETE", stmt.Table, stmt.Where)
	default:
		v.addWarning("unknown statement type: %T", s)
	}
}

func (v *validator) validateSelect(sel Select) {
	for i, j := range sel.Joins {
		if j.On != nil {
			v.validateCondition(fmt.Sprintf("join[%d].on", i), j.On)
		}
	}
	if sel.Where != nil {
		v.validateCondition("where", sel.Where)
	}
	if sel.Having != nil {
		v.validateCondition("having", sel.Having)
	}
}

func (v *validator) validateWrite(kind, table string, where ConditionExpr) {
	where = DerefCondition(where)
	if where == nil || isEmptyGroup(where) {
		v.addWarning("%s on %q has no WHERE clause and affects every row", kind, table)
		return
	}
	v.validateCondition("where", where)
}

func (v *validator) validateCondition(path string, c ConditionExpr) {
	switch cond := DerefCondition(c).(type) {
	case Leaf:
		v.validateLeaf(path, cond)
	case Group:
		v.validateGroup(path, cond)
	case ColumnEquals:
		// Column comparisons bind nothing.
	case nil:
		// Nil nodes compile to nothing.
	default:
		v.addWarning("%s: unknown condition type: %T", path, c)
	}
}

func (v *validator) validateGroup(path string, g Group) {
	if len(g.Children) == 0 {
		v.addWarning("%s: empty %s group compiles to nothing", path, g.Op)
		return
	}
	for i, child := range g.Children {
		v.validateCondition(fmt.Sprintf("%s.%s[%d]", path, g.Op, i), child)
	}
}

func (v *validator) validateLeaf(path string, leaf Leaf) {
	switch p := DerefPredicate(leaf.Predicate).(type) {
	case Equals:
		if isNull(p.Value) {
			v.addWarning("%s: %s = NULL is never true; use IS NULL", path, leaf.Column)
		}
	case In:
		if len(p.Values) == 0 {
			if p.Negate {
				v.addWarning("%s: %s NOT IN () with no values", path, leaf.Column)
			} else {
				v.addWarning("%s: %s IN () with no values matches nothing", path, leaf.Column)
			}
		}
	case Between:
		if isNull(p.Low) || isNull(p.High) {
			v.addWarning("%s: %s BETWEEN with a NULL bound is never true", path, leaf.Column)
		}
	case nil:
		v.addWarning("%s: %s has no predicate", path, leaf.Column)
	}
}

func isNull(val ir.Value) bool {
	_, ok := val.(ir.Null)
	return ok || val == nil
}

func isEmptyGroup(c ConditionExpr) bool {
	g, ok := DerefCondition(c).(Group)
	return ok && len(g.Children) == 0
}
