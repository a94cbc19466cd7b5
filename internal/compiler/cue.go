package compiler

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

// ParseCUE compiles a single CUE file and converts its root struct.
// Uses CUE SDK's Go API directly (not CLI subprocess).
func ParseCUE(data []byte, filename string) (*Node, error) {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(data, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, formatCUEError("cue", err)
	}
	return FromCUE(v)
}

// FromCUE converts a concrete CUE value into a Node. Struct fields keep
// their declaration order; definitions and hidden fields are skipped.
func FromCUE(v cue.Value) (*Node, error) {
	return fromCUE(v, "$")
}

func fromCUE(v cue.Value, path string) (*Node, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(path, err)
	}

	n := &Node{Pos: positionOf(v.Pos())}

	switch kind := v.Kind(); kind {
	case cue.NullKind:
		n.Kind = NullNode
		return n, nil

	case cue.BoolKind:
		b, err := v.Bool()
		if err != nil {
			return nil, formatCUEError(path, err)
		}
		n.Kind, n.Scalar = ScalarNode, b
		return n, nil

	case cue.IntKind:
		i, err := v.Int64()
		if err != nil {
			return nil, &CompileError{Field: path, Message: fmt.Sprintf("integer out of range: %v", err), Pos: n.Pos}
		}
		n.Kind, n.Scalar = ScalarNode, i
		return n, nil

	case cue.FloatKind:
		f, err := v.Float64()
		if err != nil {
			return nil, formatCUEError(path, err)
		}
		n.Kind, n.Scalar = ScalarNode, f
		return n, nil

	case cue.StringKind:
		s, err := v.String()
		if err != nil {
			return nil, formatCUEError(path, err)
		}
		n.Kind, n.Scalar = ScalarNode, s
		return n, nil

	case cue.BytesKind:
		b, err := v.Bytes()
		if err != nil {
			return nil, formatCUEError(path, err)
		}
		n.Kind, n.Scalar = ScalarNode, b
		return n, nil

	case cue.ListKind:
		iter, err := v.List()
		if err != nil {
			return nil, formatCUEError(path, err)
		}
		n.Kind = ListNode
		for i := 0; iter.Next(); i++ {
			item, err := fromCUE(iter.Value(), fmt.Sprintf("%s[%d]", path, i))
			if err != nil {
				return nil, err
			}
			n.Items = append(n.Items, item)
		}
		return n, nil

	case cue.StructKind:
		iter, err := v.Fields()
		if err != nil {
			return nil, formatCUEError(path, err)
		}
		n.Kind = MapNode
		for iter.Next() {
			key := iter.Selector().Unquoted()
			val, err := fromCUE(iter.Value(), path+"."+key)
			if err != nil {
				return nil, err
			}
			n.Fields = append(n.Fields, Field{Key: key, Value: val})
		}
		return n, nil

	default:
		return nil, &CompileError{
			Field:   path,
			Message: fmt.Sprintf("value must be concrete (got %v)", v.IncompleteKind()),
			Pos:     n.Pos,
		}
	}
}
