package quote

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuoteColumn(t *testing.T) {
	q := Default()

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"simple", "id", "`id`"},
		{"qualified", "users.id", "`users`.`id`"},
		{"splits at first separator only", "a.b.c", "`a`.`b.c`"},
		{"embedded backtick", "we`ird", "`we``ird`"},
		{"embedded backtick in both segments", "t`1.c`2", "`t``1`.`c``2`"},
		{"bare wildcard", "*", "*"},
		{"qualified wildcard", "users.*", "`users`.*"},
		{"empty", "", "``"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, q.QuoteColumn(tt.input))
		})
	}
}

func TestQuoteTablePrefix(t *testing.T) {
	q := New(Backtick, "app_")

	assert.Equal(t, "`app_users`", q.QuoteTable("users"))
	assert.Equal(t, "app_", q.Prefix())
	// Prefix is inserted before escaping.
	assert.Equal(t, "`app_we``ird`", q.QuoteTable("we`ird"))
	// Column qualifiers are not prefixed.
	assert.Equal(t, "`users`.`id`", q.QuoteColumn("users.id"))
}

func TestQuoteIdentDoublesEveryOccurrenceOnce(t *testing.T) {
	q := Default()

	for n := 1; n <= 4; n++ {
		name := "a" + strings.Repeat("`", n) + "b"
		quoted := q.QuoteIdent(name)
		inner := quoted[1 : len(quoted)-1]

		assert.Equal(t, 2*n, strings.Count(inner, "`"), "input %q", name)
		assert.Equal(t, name, strings.ReplaceAll(inner, "``", "`"), "unescaping restores input")
	}
}

func TestDoubleQuoteStyle(t *testing.T) {
	q := New(DoubleQuote, "p_")

	assert.Equal(t, `"p_users"`, q.QuoteTable("users"))
	assert.Equal(t, `"u"."na""me"`, q.QuoteColumn(`u.na"me`))
	// Backticks are ordinary characters in ANSI quoting.
	assert.Equal(t, "\"a`b\"", q.QuoteIdent("a`b"))
}

func TestZeroValueIdentifier(t *testing.T) {
	var q Identifier
	assert.Equal(t, "`x`", q.QuoteTable("x"))
	assert.Equal(t, Backtick, q.Style())
}

func TestParseStyle(t *testing.T) {
	tests := []struct {
		input    string
		expected Style
	}{
		{"", Backtick},
		{"backtick", Backtick},
		{"MySQL", Backtick},
		{"double", DoubleQuote},
		{" ANSI ", DoubleQuote},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			s, err := ParseStyle(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, s)
		})
	}

	_, err := ParseStyle("bracket")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid quote style")
}

func TestIdentifierSatisfiesQuoter(t *testing.T) {
	var _ Quoter = Default()
	var _ Quoter = &Identifier{}
}
