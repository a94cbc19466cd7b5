package compiler

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/maihuoche/Medoo/internal/ir"
	"github.com/maihuoche/Medoo/internal/queryir"
)

// condContext says where a condition mapping appears. Column-to-column
// equality is only recognized in ON clauses; in WHERE a dotted string is
// an ordinary bound value.
type condContext int

const (
	condWhere condContext = iota
	condOn
)

// groupKeyPattern matches AND / OR group keys. A " #comment" suffix keeps
// sibling groups unique within one mapping: "AND #1", "AND #2".
var groupKeyPattern = regexp.MustCompile(`(?i)^\s*(AND|OR)\s*(#.*)?$`)

// suffixPattern matches "column[op]" keys.
var suffixPattern = regexp.MustCompile(`^(.+?)\s*\[([^\[\]]+)\]$`)

// decodeWhere decodes an optional condition. A nil node yields a nil
// condition; an empty mapping yields an empty group. A clause holding one
// named group ({AND: [...]}) is that group, so it compiles without outer
// parentheses.
func decodeWhere(n *Node, path string, ctx condContext) (queryir.ConditionExpr, error) {
	if n == nil || n.Kind == NullNode {
		return nil, nil
	}
	g, err := decodeGroup(queryir.AND, n, path, ctx)
	if err != nil {
		return nil, err
	}
	if len(g.Children) == 1 {
		if inner, ok := g.Children[0].(queryir.Group); ok {
			return inner, nil
		}
	}
	return g, nil
}

// decodeGroup decodes a mapping (one child per field, in order) or a list
// of mappings. A list item with a single field becomes that field's
// condition directly; larger items become AND groups.
func decodeGroup(op queryir.LogicOp, n *Node, path string, ctx condContext) (queryir.Group, error) {
	g := queryir.Group{Op: op}

	switch n.Kind {
	case MapNode:
		for _, f := range n.Fields {
			child, err := decodeField(f, path, ctx)
			if err != nil {
				return g, err
			}
			g.Children = append(g.Children, child)
		}
	case ListNode:
		for i, item := range n.Items {
			at := fmt.Sprintf("%s[%d]", path, i)
			if item.Kind != MapNode {
				return g, errorAt(item, at, "condition list items must be mappings, got %s", item.Kind)
			}
			if len(item.Fields) == 1 {
				child, err := decodeField(item.Fields[0], at, ctx)
				if err != nil {
					return g, err
				}
				g.Children = append(g.Children, child)
				continue
			}
			child, err := decodeGroup(queryir.AND, item, at, ctx)
			if err != nil {
				return g, err
			}
			g.Children = append(g.Children, child)
		}
	default:
		return g, errorAt(n, path, "condition must be a mapping or a list of mappings, got %s", n.Kind)
	}
	return g, nil
}

func decodeField(f Field, path string, ctx condContext) (queryir.ConditionExpr, error) {
	at := path + "." + f.Key

	if m := groupKeyPattern.FindStringSubmatch(f.Key); m != nil {
		return decodeGroup(queryir.LogicOp(strings.ToUpper(m[1])), f.Value, at, ctx)
	}

	column := strings.TrimSpace(f.Key)
	if m := suffixPattern.FindStringSubmatch(column); m != nil {
		return decodeSuffixed(strings.TrimSpace(m[1]), strings.TrimSpace(m[2]), f.Value, at)
	}
	if column == "" {
		return nil, errorAt(f.Value, path, "column name must not be empty")
	}

	switch f.Value.Kind {
	case NullNode:
		return queryir.Filter(column, queryir.IsNull{}), nil

	case ScalarNode:
		if s, ok := f.Value.Text(); ok && ctx == condOn && isQualified(column) && isQualified(s) {
			return queryir.On(column, s), nil
		}
		v, err := scalarValue(f.Value, at)
		if err != nil {
			return nil, err
		}
		return queryir.Filter(column, queryir.Equals{Value: v}), nil

	case ListNode:
		if len(f.Value.Items) > 0 {
			if token, ok := f.Value.Items[0].Text(); ok {
				if op, ok := parseOperator(token); ok {
					return decodeOperator(column, op, f.Value.Items[1:], f.Value, at)
				}
			}
		}
		values, err := scalarValues(f.Value.Items, at)
		if err != nil {
			return nil, err
		}
		return queryir.Filter(column, queryir.In{Values: values}), nil

	default:
		return nil, errorAt(f.Value, at, "unexpected mapping for column %q (group keys are AND / OR)", column)
	}
}

func isQualified(s string) bool {
	return strings.Contains(s, queryir.Separator)
}

// operator is a normalized operator token.
type operator string

const (
	opEq         operator = "="
	opIn         operator = "IN"
	opNotIn      operator = "NOT IN"
	opBetween    operator = "BETWEEN"
	opNotBetween operator = "NOT BETWEEN"
	opIsNull     operator = "IS NULL"
	opIsNotNull  operator = "IS NOT NULL"
)

// parseOperator recognizes list-head operator tokens, case-insensitively.
// Comparison tokens normalize to their queryir.CompareOp spelling.
func parseOperator(token string) (operator, bool) {
	op := operator(strings.ToUpper(strings.Join(strings.Fields(token), " ")))
	switch op {
	case opEq, opIn, opNotIn, opBetween, opNotBetween, opIsNull, opIsNotNull:
		return op, true
	}
	if cmp, ok := queryir.ParseCompareOp(string(op)); ok {
		return operator(cmp), true
	}
	return "", false
}

// decodeOperator builds the predicate for [OP, operands...].
func decodeOperator(column string, op operator, operands []*Node, n *Node, path string) (queryir.ConditionExpr, error) {
	switch op {
	case opIsNull, opIsNotNull:
		if len(operands) != 0 {
			return nil, errorAt(n, path, "%s takes no operands, got %d", op, len(operands))
		}
		if op == opIsNull {
			return queryir.Filter(column, queryir.IsNull{}), nil
		}
		return queryir.Filter(column, queryir.IsNotNull{}), nil

	case opIn, opNotIn:
		// [IN, [1, 2, 3]] is accepted alongside [IN, 1, 2, 3].
		if len(operands) == 1 && operands[0].Kind == ListNode {
			operands = operands[0].Items
		}
		values, err := scalarValues(operands, path)
		if err != nil {
			return nil, err
		}
		return queryir.Filter(column, queryir.In{Values: values, Negate: op == opNotIn}), nil

	case opBetween, opNotBetween:
		if len(operands) != 2 {
			return nil, errorAt(n, path, "%s takes two operands, got %d", op, len(operands))
		}
		values, err := scalarValues(operands, path)
		if err != nil {
			return nil, err
		}
		return queryir.Filter(column, queryir.Between{Low: values[0], High: values[1], Negate: op == opNotBetween}), nil
	}

	if len(operands) != 1 {
		return nil, errorAt(n, path, "%s takes one operand, got %d", op, len(operands))
	}
	v, err := scalarValue(operands[0], path+"[1]")
	if err != nil {
		return nil, err
	}
	return comparison(column, op, v, n, path)
}

// comparison builds =, != and ordering predicates. NULL operands become
// IS NULL / IS NOT NULL.
func comparison(column string, op operator, v ir.Value, n *Node, path string) (queryir.ConditionExpr, error) {
	_, isNull := v.(ir.Null)

	if op == opEq {
		if isNull {
			return queryir.Filter(column, queryir.IsNull{}), nil
		}
		return queryir.Filter(column, queryir.Equals{Value: v}), nil
	}

	cmp := queryir.CompareOp(op)
	if isNull {
		if cmp == queryir.OpNotEq {
			return queryir.Filter(column, queryir.IsNotNull{}), nil
		}
		return nil, errorAt(n, path, "%s cannot compare against null", cmp)
	}
	return queryir.Filter(column, queryir.Compare{Op: cmp, Value: v}), nil
}

// decodeSuffixed handles the "column[op]" key form:
//
//	age[>]: 18            comparison (also >=, <, <=)
//	id[!]: 5              != ; a list means NOT IN, null means IS NOT NULL
//	name[~]: foo          LIKE, wrapped as %foo% unless it has wildcards
//	name[!~]: foo         NOT LIKE
//	age[<>]: [18, 30]     BETWEEN
//	age[><]: [18, 30]     NOT BETWEEN
func decodeSuffixed(column, suffix string, n *Node, path string) (queryir.ConditionExpr, error) {
	if column == "" {
		return nil, errorAt(n, path, "column name must not be empty")
	}

	switch suffix {
	case "!":
		switch n.Kind {
		case NullNode:
			return queryir.Filter(column, queryir.IsNotNull{}), nil
		case ListNode:
			values, err := scalarValues(n.Items, path)
			if err != nil {
				return nil, err
			}
			return queryir.Filter(column, queryir.In{Values: values, Negate: true}), nil
		}
		v, err := scalarValue(n, path)
		if err != nil {
			return nil, err
		}
		return queryir.Filter(column, queryir.Compare{Op: queryir.OpNotEq, Value: v}), nil

	case "<>", "><":
		if n.Kind != ListNode || len(n.Items) != 2 {
			return nil, errorAt(n, path, "[%s] takes a [low, high] pair", suffix)
		}
		values, err := scalarValues(n.Items, path)
		if err != nil {
			return nil, err
		}
		return queryir.Filter(column, queryir.Between{Low: values[0], High: values[1], Negate: suffix == "><"}), nil

	case "~", "!~":
		v, err := scalarValue(n, path)
		if err != nil {
			return nil, err
		}
		if s, ok := v.(ir.Text); ok {
			v = ir.Text(likePattern(string(s)))
		}
		op := queryir.OpLike
		if suffix == "!~" {
			op = queryir.OpNotLike
		}
		return queryir.Filter(column, queryir.Compare{Op: op, Value: v}), nil

	case ">", ">=", "<", "<=":
		v, err := scalarValue(n, path)
		if err != nil {
			return nil, err
		}
		return comparison(column, operator(suffix), v, n, path)

	default:
		return nil, errorAt(n, path, "unknown operator suffix [%s]", suffix)
	}
}

// likePattern wraps s in % unless it already carries a LIKE wildcard.
func likePattern(s string) string {
	if strings.ContainsAny(s, "%_") {
		return s
	}
	return "%" + s + "%"
}

func scalarValues(items []*Node, path string) ([]ir.Value, error) {
	values := make([]ir.Value, 0, len(items))
	for i, item := range items {
		v, err := scalarValue(item, fmt.Sprintf("%s[%d]", path, i))
		if err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return values, nil
}
