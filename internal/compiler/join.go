package compiler

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/maihuoche/Medoo/internal/queryir"
)

var joinKeys = []string{"table", "kind", "on"}

// joinMarkerPattern matches "[>]posts" style join keys.
var joinMarkerPattern = regexp.MustCompile(`^\s*\[([^\[\]]*)\]\s*(.+)$`)

// joinMarkers maps bracket markers to join kinds. Unknown markers fall
// back to INNER like unknown kind names do.
var joinMarkers = map[string]queryir.JoinKind{
	">":  queryir.LeftJoin,
	"<":  queryir.RightJoin,
	"<>": queryir.FullJoin,
	"><": queryir.InnerJoin,
}

// decodeJoins accepts either a list of {table, kind, on} mappings or a
// mapping keyed by bracket markers:
//
//	join:
//	  - {table: {p: posts}, kind: LEFT, on: {"u.id": "p.user_id"}}
//
//	join:
//	  "[>]posts(p)": {id: user_id}     # users.id = p.user_id
//
// In the marker form every string value names a column; unqualified keys
// are qualified with the base table and unqualified values with the
// joined table.
func decodeJoins(n *Node, path string, base queryir.TableSpec) ([]queryir.JoinSpec, error) {
	switch n.Kind {
	case ListNode:
		joins := make([]queryir.JoinSpec, 0, len(n.Items))
		for i, item := range n.Items {
			j, err := decodeJoinEntry(item, fmt.Sprintf("%s[%d]", path, i))
			if err != nil {
				return nil, err
			}
			joins = append(joins, j)
		}
		return joins, nil
	case MapNode:
		joins := make([]queryir.JoinSpec, 0, len(n.Fields))
		for _, f := range n.Fields {
			j, err := decodeJoinMarker(f, path, base)
			if err != nil {
				return nil, err
			}
			joins = append(joins, j)
		}
		return joins, nil
	default:
		return nil, errorAt(n, path, "join must be a list or a mapping, got %s", n.Kind)
	}
}

func decodeJoinEntry(n *Node, path string) (queryir.JoinSpec, error) {
	var j queryir.JoinSpec
	if n.Kind != MapNode {
		return j, errorAt(n, path, "join entry must be a mapping, got %s", n.Kind)
	}
	if err := checkKeys(n, path, joinKeys); err != nil {
		return j, err
	}

	tableNode := n.Lookup("table")
	if tableNode == nil {
		return j, errorAt(n, path, "join table is required")
	}
	table, err := decodeTable(tableNode, path+".table")
	if err != nil {
		return j, err
	}
	j.Table = table

	j.Kind = queryir.InnerJoin
	if kindNode := n.Lookup("kind"); kindNode != nil {
		kind, ok := kindNode.Text()
		if !ok {
			return j, errorAt(kindNode, path+".kind", "join kind must be a string")
		}
		j.Kind = queryir.ParseJoinKind(kind)
	}

	j.On, err = decodeWhere(n.Lookup("on"), path+".on", condOn)
	if err != nil {
		return j, err
	}
	return j, nil
}

func decodeJoinMarker(f Field, path string, base queryir.TableSpec) (queryir.JoinSpec, error) {
	var j queryir.JoinSpec
	at := path + "." + f.Key

	m := joinMarkerPattern.FindStringSubmatch(f.Key)
	if m == nil {
		return j, errorAt(f.Value, at, "join key must look like \"[>]table\"")
	}
	kind, ok := joinMarkers[strings.TrimSpace(m[1])]
	if !ok {
		kind = queryir.InnerJoin
	}
	name, alias := splitAlias(m[2])
	if name == "" {
		return j, errorAt(f.Value, at, "join table must not be empty")
	}
	j.Kind = kind
	j.Table = queryir.TableSpec{{Alias: alias, Name: name}}

	switch f.Value.Kind {
	case NullNode:
		return j, nil
	case MapNode:
	default:
		return j, errorAt(f.Value, at, "join condition must be a mapping, got %s", f.Value.Kind)
	}

	left := refName(base)
	right := alias
	if right == "" {
		right = name
	}

	on := queryir.Group{Op: queryir.AND}
	for _, cf := range f.Value.Fields {
		if col, ok := cf.Value.Text(); ok && !groupKeyPattern.MatchString(cf.Key) && !suffixPattern.MatchString(cf.Key) {
			on.Children = append(on.Children, queryir.On(qualify(left, cf.Key), qualify(right, col)))
			continue
		}
		child, err := decodeField(cf, at, condOn)
		if err != nil {
			return j, err
		}
		on.Children = append(on.Children, child)
	}
	j.On = on
	return j, nil
}

// refName is the name a table is referenced by in qualified columns.
func refName(t queryir.TableSpec) string {
	if len(t) == 0 {
		return ""
	}
	if t[0].Alias != "" {
		return t[0].Alias
	}
	return t[0].Name
}

func qualify(table, column string) string {
	column = strings.TrimSpace(column)
	if table == "" || isQualified(column) {
		return column
	}
	return table + queryir.Separator + column
}
