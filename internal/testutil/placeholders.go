package testutil

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/maihuoche/Medoo/internal/ir"
)

// CountPlaceholders counts ? markers in sql, skipping any that appear
// inside quoted identifiers (`...` or "...") or string literals ('...').
func CountPlaceholders(sql string) int {
	n := 0
	scanPlaceholders(sql, func(int) { n++ })
	return n
}

// Interpolate substitutes params[i] for the i-th ? marker, left to right,
// producing a readable statement for assertions and debug output.
//
// The result is NEVER meant to be executed. It returns an error when the
// placeholder count and len(params) differ.
func Interpolate(sql string, params []ir.Value) (string, error) {
	var positions []int
	scanPlaceholders(sql, func(pos int) { positions = append(positions, pos) })
	if len(positions) != len(params) {
		return "", fmt.Errorf("placeholder count %d does not match param count %d", len(positions), len(params))
	}

	var sb strings.Builder
	last := 0
	for i, pos := range positions {
		sb.WriteString(sql[last:pos])
		sb.WriteString(Literal(params[i]))
		last = pos + 1
	}
	sb.WriteString(sql[last:])
	return sb.String(), nil
}

// Literal renders a value as a SQL literal for display.
func Literal(v ir.Value) string {
	switch val := v.(type) {
	case nil, ir.Null:
		return "NULL"
	case ir.Bool:
		if val {
			return "TRUE"
		}
		return "FALSE"
	case ir.Int:
		return strconv.FormatInt(int64(val), 10)
	case ir.Float:
		return strconv.FormatFloat(float64(val), 'g', -1, 64)
	case ir.Text:
		return "'" + strings.ReplaceAll(string(val), "'", "''") + "'"
	case ir.Raw:
		return "X'" + strings.ToUpper(hex.EncodeToString(val)) + "'"
	default:
		return fmt.Sprintf("%v", v)
	}
}

// RequireAligned fails the test unless sql has exactly len(params)
// placeholders.
func RequireAligned(t testing.TB, sql string, params []ir.Value) {
	t.Helper()
	require.Equal(t, len(params), CountPlaceholders(sql),
		"placeholder/param mismatch in %q", sql)
}

// RequireInterpolated fails the test unless substituting params into sql
// yields expected.
func RequireInterpolated(t testing.TB, expected, sql string, params []ir.Value) {
	t.Helper()
	got, err := Interpolate(sql, params)
	require.NoError(t, err)
	require.Equal(t, expected, got)
}

func scanPlaceholders(sql string, visit func(pos int)) {
	var quote byte
	for i := 0; i < len(sql); i++ {
		ch := sql[i]
		if quote != 0 {
			if ch == quote {
				// A doubled quote is an escaped quote character.
				if i+1 < len(sql) && sql[i+1] == quote {
					i++
					continue
				}
				quote = 0
			}
			continue
		}
		switch ch {
		case '`', '"', '\'':
			quote = ch
		case '?':
			visit(i)
		}
	}
}
