package compiler

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/maihuoche/Medoo/internal/ir"
	"github.com/maihuoche/Medoo/internal/queryir"
)

// StatementKind names the top-level key a description was written under.
type StatementKind string

const (
	KindSelect StatementKind = "select"
	KindGet    StatementKind = "get"
	KindHas    StatementKind = "has"
	KindCount  StatementKind = "count"
	KindMax    StatementKind = "max"
	KindMin    StatementKind = "min"
	KindAvg    StatementKind = "avg"
	KindSum    StatementKind = "sum"
	KindInsert StatementKind = "insert"
	KindUpdate StatementKind = "update"
	KindDelete StatementKind = "delete"
)

// StatementKinds lists every accepted top-level key.
var StatementKinds = []StatementKind{
	KindSelect, KindGet, KindHas,
	KindCount, KindMax, KindMin, KindAvg, KindSum,
	KindInsert, KindUpdate, KindDelete,
}

// Reads reports whether statements of this kind return rows.
func (k StatementKind) Reads() bool {
	switch k {
	case KindInsert, KindUpdate, KindDelete:
		return false
	}
	return true
}

// Description is one decoded statement.
type Description struct {
	// Name is the optional "name" key; empty when absent.
	Name string

	Kind      StatementKind
	Statement queryir.Statement
	Pos       Position
}

// Decode converts a description tree into typed statements.
//
// The root is either one statement mapping or a list of them:
//
//	name: active_users        # optional
//	select:
//	  table: users
//	  columns: [id, name]
//	  where: {active: true, age: [">=", 18]}
//
// Every operator string is resolved here; nothing downstream of Decode
// inspects loosely-typed values.
func Decode(root *Node) ([]Description, error) {
	if root == nil {
		return nil, &CompileError{Field: "$", Message: "empty description"}
	}

	switch root.Kind {
	case MapNode:
		d, err := decodeEntry(root, "$")
		if err != nil {
			return nil, err
		}
		return []Description{d}, nil
	case ListNode:
		if len(root.Items) == 0 {
			return nil, errorAt(root, "$", "statement list is empty")
		}
		out := make([]Description, 0, len(root.Items))
		for i, item := range root.Items {
			d, err := decodeEntry(item, fmt.Sprintf("$[%d]", i))
			if err != nil {
				return nil, err
			}
			out = append(out, d)
		}
		return out, nil
	default:
		return nil, errorAt(root, "$", "description must be a mapping or a list of mappings, got %s", root.Kind)
	}
}

// DecodeFile parses data by file extension and decodes it.
func DecodeFile(data []byte, filename string) ([]Description, error) {
	root, err := Parse(data, filename)
	if err != nil {
		return nil, err
	}
	return Decode(root)
}

func decodeEntry(n *Node, path string) (Description, error) {
	if n.Kind != MapNode {
		return Description{}, errorAt(n, path, "statement must be a mapping, got %s", n.Kind)
	}

	d := Description{Pos: n.Pos}
	var body *Node
	for _, f := range n.Fields {
		if f.Key == "name" {
			name, ok := f.Value.Text()
			if !ok {
				return Description{}, errorAt(f.Value, path+".name", "name must be a string")
			}
			d.Name = name
			continue
		}
		kind, ok := parseStatementKind(f.Key)
		if !ok {
			return Description{}, errorAt(f.Value, path, "unknown key %q (want one of %v)", f.Key, StatementKinds)
		}
		if body != nil {
			return Description{}, errorAt(f.Value, path, "more than one statement in one entry (%s and %s)", d.Kind, kind)
		}
		d.Kind, body = kind, f.Value
	}
	if body == nil {
		return Description{}, errorAt(n, path, "no statement key (want one of %v)", StatementKinds)
	}

	stmt, err := decodeStatement(d.Kind, body, path+"."+string(d.Kind))
	if err != nil {
		return Description{}, err
	}
	d.Statement = stmt
	return d, nil
}

func parseStatementKind(key string) (StatementKind, bool) {
	k := StatementKind(strings.ToLower(strings.TrimSpace(key)))
	for _, known := range StatementKinds {
		if k == known {
			return k, true
		}
	}
	return "", false
}

var (
	selectKeys    = []string{"table", "columns", "join", "where", "group", "having", "order", "limit"}
	getKeys       = []string{"table", "columns", "join", "where", "group", "having", "order"}
	hasKeys       = []string{"table", "join", "where"}
	aggregateKeys = []string{"table", "column", "join", "where"}
	insertKeys    = []string{"table", "data"}
	updateKeys    = []string{"table", "data", "where"}
	deleteKeys    = []string{"table", "where"}
)

func decodeStatement(kind StatementKind, body *Node, path string) (queryir.Statement, error) {
	if body.Kind != MapNode {
		return nil, errorAt(body, path, "statement body must be a mapping, got %s", body.Kind)
	}

	switch kind {
	case KindSelect:
		if err := checkKeys(body, path, selectKeys); err != nil {
			return nil, err
		}
		return decodeSelect(body, path)

	case KindGet:
		if err := checkKeys(body, path, getKeys); err != nil {
			return nil, err
		}
		sel, err := decodeSelect(body, path)
		if err != nil {
			return nil, err
		}
		sel.Limit = &queryir.Limit{Count: 1}
		return sel, nil

	case KindHas:
		if err := checkKeys(body, path, hasKeys); err != nil {
			return nil, err
		}
		sel, err := decodeSource(body, path)
		if err != nil {
			return nil, err
		}
		return queryir.Exists{Select: sel}, nil

	case KindCount, KindMax, KindMin, KindAvg, KindSum:
		if err := checkKeys(body, path, aggregateKeys); err != nil {
			return nil, err
		}
		return decodeAggregate(kind, body, path)

	case KindInsert:
		if err := checkKeys(body, path, insertKeys); err != nil {
			return nil, err
		}
		table, err := decodeSingleTable(body, path)
		if err != nil {
			return nil, err
		}
		data, err := decodeData(body.Lookup("data"), path+".data")
		if err != nil {
			return nil, err
		}
		return queryir.Insert{Table: table, Data: data}, nil

	case KindUpdate:
		if err := checkKeys(body, path, updateKeys); err != nil {
			return nil, err
		}
		table, err := decodeSingleTable(body, path)
		if err != nil {
			return nil, err
		}
		data, err := decodeData(body.Lookup("data"), path+".data")
		if err != nil {
			return nil, err
		}
		where, err := decodeWhere(body.Lookup("where"), path+".where", condWhere)
		if err != nil {
			return nil, err
		}
		return queryir.Update{Table: table, Data: data, Where: where}, nil

	case KindDelete:
		if err := checkKeys(body, path, deleteKeys); err != nil {
			return nil, err
		}
		table, err := decodeSingleTable(body, path)
		if err != nil {
			return nil, err
		}
		where, err := decodeWhere(body.Lookup("where"), path+".where", condWhere)
		if err != nil {
			return nil, err
		}
		return queryir.Delete{Table: table, Where: where}, nil

	default:
		return nil, errorAt(body, path, "unsupported statement kind %q", kind)
	}
}

func checkKeys(n *Node, path string, allowed []string) error {
	for _, f := range n.Fields {
		ok := false
		for _, a := range allowed {
			if f.Key == a {
				ok = true
				break
			}
		}
		if !ok {
			return errorAt(f.Value, path, "unknown key %q (allowed: %s)", f.Key, strings.Join(allowed, ", "))
		}
	}
	return nil
}

// decodeSource decodes table, join and where: the parts shared by every
// reading statement.
func decodeSource(body *Node, path string) (queryir.Select, error) {
	var sel queryir.Select

	tableNode := body.Lookup("table")
	if tableNode == nil {
		return sel, errorAt(body, path, "table is required")
	}
	table, err := decodeTable(tableNode, path+".table")
	if err != nil {
		return sel, err
	}
	sel.Table = table

	if joinNode := body.Lookup("join"); joinNode != nil {
		joins, err := decodeJoins(joinNode, path+".join", table)
		if err != nil {
			return sel, err
		}
		sel.Joins = joins
	}

	sel.Where, err = decodeWhere(body.Lookup("where"), path+".where", condWhere)
	if err != nil {
		return sel, err
	}
	return sel, nil
}

func decodeSelect(body *Node, path string) (queryir.Select, error) {
	sel, err := decodeSource(body, path)
	if err != nil {
		return sel, err
	}

	if colNode := body.Lookup("columns"); colNode != nil {
		sel.Columns, err = decodeColumns(colNode, path+".columns")
		if err != nil {
			return sel, err
		}
	} else {
		sel.Columns = queryir.Columns(queryir.Wildcard)
	}

	if groupNode := body.Lookup("group"); groupNode != nil {
		sel.GroupBy, err = decodeColumnRefs(groupNode, path+".group")
		if err != nil {
			return sel, err
		}
	}

	sel.Having, err = decodeWhere(body.Lookup("having"), path+".having", condWhere)
	if err != nil {
		return sel, err
	}

	if orderNode := body.Lookup("order"); orderNode != nil {
		sel.OrderBy, err = decodeOrder(orderNode, path+".order")
		if err != nil {
			return sel, err
		}
	}

	if limitNode := body.Lookup("limit"); limitNode != nil {
		sel.Limit, err = decodeLimit(limitNode, path+".limit")
		if err != nil {
			return sel, err
		}
	}

	return sel, nil
}

func decodeAggregate(kind StatementKind, body *Node, path string) (queryir.Statement, error) {
	sel, err := decodeSource(body, path)
	if err != nil {
		return nil, err
	}

	fn, _ := queryir.ParseAggregateFunc(string(kind))
	agg := &queryir.Aggregate{Func: fn}

	if colNode := body.Lookup("column"); colNode != nil {
		col, ok := colNode.Text()
		if !ok || strings.TrimSpace(col) == "" {
			return nil, errorAt(colNode, path+".column", "column must be a non-empty string")
		}
		agg.Column = queryir.ColumnRef(strings.TrimSpace(col))
	} else if kind != KindCount {
		return nil, errorAt(body, path, "%s requires a column", kind)
	}

	sel.Aggregate = agg
	return sel, nil
}

// aliasPattern matches the "name(alias)" shorthand.
var aliasPattern = regexp.MustCompile(`^\s*([^()\s]+)\s*\(\s*([^()\s]+)\s*\)\s*$`)

// splitAlias splits "users(u)" into ("users", "u"). Plain names return an
// empty alias.
func splitAlias(s string) (name, alias string) {
	if m := aliasPattern.FindStringSubmatch(s); m != nil {
		return m[1], m[2]
	}
	return strings.TrimSpace(s), ""
}

// decodeTable accepts a name ("users"), the shorthand "users(u)", an
// alias mapping ({u: users, p: posts}) or a list mixing both forms.
func decodeTable(n *Node, path string) (queryir.TableSpec, error) {
	var spec queryir.TableSpec

	add := func(alias, name string, at *Node) error {
		if name == "" {
			return errorAt(at, path, "table name must not be empty")
		}
		spec = append(spec, queryir.TableRef{Alias: alias, Name: name})
		return nil
	}

	addMapping := func(m *Node) error {
		for _, f := range m.Fields {
			name, ok := f.Value.Text()
			if !ok {
				return errorAt(f.Value, path+"."+f.Key, "table name must be a string")
			}
			if err := add(strings.TrimSpace(f.Key), strings.TrimSpace(name), f.Value); err != nil {
				return err
			}
		}
		return nil
	}

	switch n.Kind {
	case ScalarNode:
		s, ok := n.Text()
		if !ok {
			return nil, errorAt(n, path, "table must be a string")
		}
		name, alias := splitAlias(s)
		if err := add(alias, name, n); err != nil {
			return nil, err
		}
	case MapNode:
		if err := addMapping(n); err != nil {
			return nil, err
		}
	case ListNode:
		for i, item := range n.Items {
			switch item.Kind {
			case ScalarNode:
				s, ok := item.Text()
				if !ok {
					return nil, errorAt(item, fmt.Sprintf("%s[%d]", path, i), "table must be a string")
				}
				name, alias := splitAlias(s)
				if err := add(alias, name, item); err != nil {
					return nil, err
				}
			case MapNode:
				if err := addMapping(item); err != nil {
					return nil, err
				}
			default:
				return nil, errorAt(item, fmt.Sprintf("%s[%d]", path, i), "unexpected %s in table list", item.Kind)
			}
		}
	default:
		return nil, errorAt(n, path, "table must be a string, mapping or list, got %s", n.Kind)
	}

	if len(spec) == 0 {
		return nil, errorAt(n, path, "table must not be empty")
	}
	return spec, nil
}

// decodeSingleTable reads the unaliased table of a write statement.
func decodeSingleTable(body *Node, path string) (string, error) {
	n := body.Lookup("table")
	if n == nil {
		return "", errorAt(body, path, "table is required")
	}
	name, ok := n.Text()
	if !ok || strings.TrimSpace(name) == "" {
		return "", errorAt(n, path+".table", "table must be a non-empty string")
	}
	return strings.TrimSpace(name), nil
}

// decodeColumns accepts "*", a single column, a list of columns and
// {alias: expr} mappings, or one alias mapping. "expr(alias)" is
// shorthand for {alias: expr}.
func decodeColumns(n *Node, path string) ([]queryir.ColumnSpec, error) {
	var cols []queryir.ColumnSpec

	addString := func(s string) {
		expr, alias := splitAlias(s)
		cols = append(cols, queryir.As(alias, expr))
	}
	addMapping := func(m *Node, at string) error {
		for _, f := range m.Fields {
			expr, ok := f.Value.Text()
			if !ok {
				return errorAt(f.Value, at+"."+f.Key, "column expression must be a string")
			}
			cols = append(cols, queryir.As(strings.TrimSpace(f.Key), strings.TrimSpace(expr)))
		}
		return nil
	}

	switch n.Kind {
	case ScalarNode:
		s, ok := n.Text()
		if !ok {
			return nil, errorAt(n, path, "column must be a string")
		}
		addString(s)
	case MapNode:
		if err := addMapping(n, path); err != nil {
			return nil, err
		}
	case ListNode:
		for i, item := range n.Items {
			at := fmt.Sprintf("%s[%d]", path, i)
			switch item.Kind {
			case ScalarNode:
				s, ok := item.Text()
				if !ok {
					return nil, errorAt(item, at, "column must be a string")
				}
				addString(s)
			case MapNode:
				if err := addMapping(item, at); err != nil {
					return nil, err
				}
			default:
				return nil, errorAt(item, at, "unexpected %s in column list", item.Kind)
			}
		}
	default:
		return nil, errorAt(n, path, "columns must be a string, mapping or list, got %s", n.Kind)
	}

	if len(cols) == 0 {
		return nil, errorAt(n, path, "column list must not be empty")
	}
	for i, c := range cols {
		if c.Expr == "" {
			return nil, errorAt(n, path, "column %d is empty", i)
		}
	}
	return cols, nil
}

func decodeColumnRefs(n *Node, path string) ([]queryir.ColumnRef, error) {
	items := []*Node{n}
	if n.Kind == ListNode {
		items = n.Items
	}

	refs := make([]queryir.ColumnRef, 0, len(items))
	for i, item := range items {
		s, ok := item.Text()
		if !ok || strings.TrimSpace(s) == "" {
			return nil, errorAt(item, fmt.Sprintf("%s[%d]", path, i), "column must be a non-empty string")
		}
		refs = append(refs, queryir.ColumnRef(strings.TrimSpace(s)))
	}
	return refs, nil
}

// decodeOrder accepts "col", ["a", {b: DESC}] or {a: ASC, b: DESC}.
func decodeOrder(n *Node, path string) ([]queryir.Ordering, error) {
	var order []queryir.Ordering

	addMapping := func(m *Node, at string) error {
		for _, f := range m.Fields {
			dir, ok := f.Value.Text()
			if !ok {
				return errorAt(f.Value, at+"."+f.Key, "direction must be ASC or DESC")
			}
			switch strings.ToUpper(strings.TrimSpace(dir)) {
			case "ASC":
				order = append(order, queryir.Ordering{Column: queryir.ColumnRef(f.Key)})
			case "DESC":
				order = append(order, queryir.Ordering{Column: queryir.ColumnRef(f.Key), Desc: true})
			default:
				return errorAt(f.Value, at+"."+f.Key, "direction must be ASC or DESC, got %q", dir)
			}
		}
		return nil
	}

	switch n.Kind {
	case ScalarNode:
		s, ok := n.Text()
		if !ok {
			return nil, errorAt(n, path, "order column must be a string")
		}
		order = append(order, queryir.Ordering{Column: queryir.ColumnRef(strings.TrimSpace(s))})
	case MapNode:
		if err := addMapping(n, path); err != nil {
			return nil, err
		}
	case ListNode:
		for i, item := range n.Items {
			at := fmt.Sprintf("%s[%d]", path, i)
			switch item.Kind {
			case ScalarNode:
				s, ok := item.Text()
				if !ok {
					return nil, errorAt(item, at, "order column must be a string")
				}
				order = append(order, queryir.Ordering{Column: queryir.ColumnRef(strings.TrimSpace(s))})
			case MapNode:
				if err := addMapping(item, at); err != nil {
					return nil, err
				}
			default:
				return nil, errorAt(item, at, "unexpected %s in order list", item.Kind)
			}
		}
	default:
		return nil, errorAt(n, path, "order must be a string, mapping or list, got %s", n.Kind)
	}
	return order, nil
}

// decodeLimit accepts a count (10) or an [offset, count] pair ([20, 10]).
func decodeLimit(n *Node, path string) (*queryir.Limit, error) {
	switch n.Kind {
	case ScalarNode:
		count, err := nonNegativeInt(n, path)
		if err != nil {
			return nil, err
		}
		return &queryir.Limit{Count: count}, nil
	case ListNode:
		if len(n.Items) != 2 {
			return nil, errorAt(n, path, "limit list must be [offset, count], got %d items", len(n.Items))
		}
		offset, err := nonNegativeInt(n.Items[0], path+"[0]")
		if err != nil {
			return nil, err
		}
		count, err := nonNegativeInt(n.Items[1], path+"[1]")
		if err != nil {
			return nil, err
		}
		return &queryir.Limit{Count: count, Offset: offset}, nil
	default:
		return nil, errorAt(n, path, "limit must be an integer or [offset, count], got %s", n.Kind)
	}
}

func nonNegativeInt(n *Node, path string) (int64, error) {
	i, ok := n.Scalar.(int64)
	if n.Kind != ScalarNode || !ok {
		return 0, errorAt(n, path, "expected an integer")
	}
	if i < 0 {
		return 0, errorAt(n, path, "expected a non-negative integer, got %d", i)
	}
	return i, nil
}

// decodeData reads an ordered column → value mapping. Lists and mappings
// are stored as canonical JSON text.
func decodeData(n *Node, path string) ([]queryir.Assignment, error) {
	if n == nil {
		return nil, &CompileError{Field: path, Message: "data is required"}
	}
	if n.Kind != MapNode {
		return nil, errorAt(n, path, "data must be a mapping, got %s", n.Kind)
	}
	if len(n.Fields) == 0 {
		return nil, errorAt(n, path, "data must not be empty")
	}

	data := make([]queryir.Assignment, 0, len(n.Fields))
	for _, f := range n.Fields {
		col := strings.TrimSpace(f.Key)
		if col == "" {
			return nil, errorAt(f.Value, path, "column name must not be empty")
		}

		var val ir.Value
		switch f.Value.Kind {
		case ListNode, MapNode:
			encoded, err := ir.MarshalCanonical(f.Value.Native())
			if err != nil {
				return nil, errorAt(f.Value, path+"."+col, "encode value: %v", err)
			}
			val = ir.Text(encoded)
		default:
			v, err := scalarValue(f.Value, path+"."+col)
			if err != nil {
				return nil, err
			}
			val = v
		}
		data = append(data, queryir.Set(col, val))
	}
	return data, nil
}

// scalarValue converts a null or scalar node to a bind value.
func scalarValue(n *Node, path string) (ir.Value, error) {
	switch n.Kind {
	case NullNode:
		return ir.Null{}, nil
	case ScalarNode:
		v, err := ir.FromAny(n.Scalar)
		if err != nil {
			return nil, errorAt(n, path, "%v", err)
		}
		return v, nil
	default:
		return nil, errorAt(n, path, "expected a scalar value, got %s", n.Kind)
	}
}
