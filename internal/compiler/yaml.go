package compiler

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/spf13/cast"
	"gopkg.in/yaml.v3"
)

// ParseYAML decodes a single YAML document into a Node. Mapping order is
// preserved by walking yaml.Node rather than decoding into Go maps.
func ParseYAML(data []byte, filename string) (*Node, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &CompileError{
			Field:   "yaml",
			Message: err.Error(),
			Pos:     Position{Filename: filename},
		}
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, &CompileError{
			Field:   "yaml",
			Message: "empty document",
			Pos:     Position{Filename: filename},
		}
	}
	return fromYAML(doc.Content[0], filename, "$")
}

func fromYAML(y *yaml.Node, filename, path string) (*Node, error) {
	n := &Node{Pos: Position{Filename: filename, Line: y.Line, Column: y.Column}}

	switch y.Kind {
	case yaml.AliasNode:
		return fromYAML(y.Alias, filename, path)

	case yaml.ScalarNode:
		val, err := yamlScalar(y)
		if err != nil {
			return nil, &CompileError{Field: path, Message: err.Error(), Pos: n.Pos}
		}
		if val == nil {
			n.Kind = NullNode
			return n, nil
		}
		n.Kind, n.Scalar = ScalarNode, val
		return n, nil

	case yaml.SequenceNode:
		n.Kind = ListNode
		for i, item := range y.Content {
			child, err := fromYAML(item, filename, fmt.Sprintf("%s[%d]", path, i))
			if err != nil {
				return nil, err
			}
			n.Items = append(n.Items, child)
		}
		return n, nil

	case yaml.MappingNode:
		n.Kind = MapNode
		for i := 0; i+1 < len(y.Content); i += 2 {
			k, v := y.Content[i], y.Content[i+1]
			if k.Kind != yaml.ScalarNode {
				return nil, &CompileError{
					Field:   path,
					Message: "mapping keys must be scalars",
					Pos:     Position{Filename: filename, Line: k.Line, Column: k.Column},
				}
			}
			child, err := fromYAML(v, filename, path+"."+k.Value)
			if err != nil {
				return nil, err
			}
			n.Fields = append(n.Fields, Field{Key: k.Value, Value: child})
		}
		return n, nil

	default:
		return nil, &CompileError{Field: path, Message: fmt.Sprintf("unsupported YAML node kind %d", y.Kind), Pos: n.Pos}
	}
}

// yamlScalar resolves a scalar by its YAML tag. Returns nil for null.
func yamlScalar(y *yaml.Node) (any, error) {
	switch y.ShortTag() {
	case "!!null":
		return nil, nil
	case "!!bool":
		return cast.ToBoolE(y.Value)
	case "!!int":
		if i, err := cast.ToInt64E(y.Value); err == nil {
			return i, nil
		}
		var i int64
		if err := y.Decode(&i); err != nil {
			return nil, fmt.Errorf("invalid integer %q: %w", y.Value, err)
		}
		return i, nil
	case "!!float":
		if f, err := cast.ToFloat64E(y.Value); err == nil {
			return f, nil
		}
		var f float64
		if err := y.Decode(&f); err != nil {
			return nil, fmt.Errorf("invalid float %q: %w", y.Value, err)
		}
		return f, nil
	case "!!binary":
		b, err := base64.StdEncoding.DecodeString(strings.Join(strings.Fields(y.Value), ""))
		if err != nil {
			return nil, fmt.Errorf("invalid binary: %w", err)
		}
		return b, nil
	default:
		return y.Value, nil
	}
}
