package compiler

import (
	"fmt"
	"path/filepath"
	"strings"
)

// NodeKind classifies a Node.
type NodeKind int

const (
	NullNode NodeKind = iota
	ScalarNode
	ListNode
	MapNode
)

func (k NodeKind) String() string {
	switch k {
	case NullNode:
		return "null"
	case ScalarNode:
		return "scalar"
	case ListNode:
		return "list"
	case MapNode:
		return "mapping"
	default:
		return fmt.Sprintf("NodeKind(%d)", int(k))
	}
}

// Node is a source-format-neutral description tree. Mappings keep their
// source field order, which is what makes placeholder order predictable
// for descriptions written by hand.
type Node struct {
	Kind NodeKind

	// Scalar holds bool, int64, float64, string or []byte for ScalarNode.
	Scalar any

	// Items holds list elements for ListNode.
	Items []*Node

	// Fields holds mapping entries for MapNode, in source order.
	Fields []Field

	Pos Position
}

// Field is one mapping entry.
type Field struct {
	Key   string
	Value *Node
}

// Lookup returns the value under key, or nil.
func (n *Node) Lookup(key string) *Node {
	if n == nil || n.Kind != MapNode {
		return nil
	}
	for _, f := range n.Fields {
		if f.Key == key {
			return f.Value
		}
	}
	return nil
}

// Text returns the scalar as a string when it is one.
func (n *Node) Text() (string, bool) {
	if n == nil || n.Kind != ScalarNode {
		return "", false
	}
	s, ok := n.Scalar.(string)
	return s, ok
}

// Native converts the node to plain Go values. Mappings become
// map[string]any, so field order is lost.
func (n *Node) Native() any {
	if n == nil {
		return nil
	}
	switch n.Kind {
	case ScalarNode:
		return n.Scalar
	case ListNode:
		out := make([]any, len(n.Items))
		for i, item := range n.Items {
			out[i] = item.Native()
		}
		return out
	case MapNode:
		out := make(map[string]any, len(n.Fields))
		for _, f := range n.Fields {
			out[f.Key] = f.Value.Native()
		}
		return out
	default:
		return nil
	}
}

// Parse reads a description from data. The format is chosen by the file
// extension: .cue for CUE, .yaml / .yml for YAML.
func Parse(data []byte, filename string) (*Node, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".cue":
		return ParseCUE(data, filename)
	case ".yaml", ".yml":
		return ParseYAML(data, filename)
	default:
		return nil, &CompileError{
			Field:   "file",
			Message: fmt.Sprintf("unsupported description format %q (want .cue, .yaml or .yml)", filepath.Ext(filename)),
			Pos:     Position{Filename: filename},
		}
	}
}

// SupportedExt reports whether Parse accepts files with this name.
func SupportedExt(filename string) bool {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".cue", ".yaml", ".yml":
		return true
	}
	return false
}
