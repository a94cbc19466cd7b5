package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maihuoche/Medoo/internal/ir"
)

func TestCountPlaceholders(t *testing.T) {
	tests := []struct {
		name     string
		sql      string
		expected int
	}{
		{"none", "SELECT * FROM `users`", 0},
		{"simple", "SELECT * FROM `users` WHERE `id` = ?", 1},
		{"in list", "`id` IN (?, ?, ?)", 3},
		{"inside backticks", "SELECT `a?b` FROM `t` WHERE `c` = ?", 1},
		{"inside double quotes", `SELECT "a?" FROM "t" WHERE "c" = ?`, 1},
		{"escaped quote", "SELECT `a``?` FROM `t` WHERE `x` = ?", 1},
		{"string literal", "SELECT '?' FROM t WHERE x = ?", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, CountPlaceholders(tt.sql))
		})
	}
}

func TestInterpolate(t *testing.T) {
	got, err := Interpolate(
		"SELECT `a?` FROM `t` WHERE `x` = ? AND `y` IN (?, ?) AND `z` = ? AND `w` = ?",
		[]ir.Value{ir.Text("it's"), ir.Int(1), ir.Float(2.5), ir.Null{}, ir.Raw{0xde, 0xad}},
	)
	require.NoError(t, err)
	assert.Equal(t,
		"SELECT `a?` FROM `t` WHERE `x` = 'it''s' AND `y` IN (1, 2.5) AND `z` = NULL AND `w` = X'DEAD'",
		got)
}

func TestInterpolateMismatch(t *testing.T) {
	_, err := Interpolate("`x` = ? AND `y` = ?", []ir.Value{ir.Int(1)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "placeholder count 2 does not match param count 1")
}

func TestLiteral(t *testing.T) {
	assert.Equal(t, "TRUE", Literal(ir.Bool(true)))
	assert.Equal(t, "FALSE", Literal(ir.Bool(false)))
	assert.Equal(t, "NULL", Literal(nil))
	assert.Equal(t, "-7", Literal(ir.Int(-7)))
}
