// Package quote provides identifier quoting strategies.
//
// Compilers only see the Quoter interface, so an alternate quoting or
// escaping convention can be substituted without touching them.
package quote

import (
	"fmt"
	"strings"
)

// Quoter quotes table and column identifiers.
type Quoter interface {
	// QuoteTable applies the table prefix and quotes the result.
	QuoteTable(name string) string

	// QuoteColumn quotes a column reference. A qualified name
	// ("users.id") is split at the first separator and each segment is
	// quoted independently.
	QuoteColumn(name string) string

	// QuoteIdent quotes a single identifier segment with no prefix.
	QuoteIdent(segment string) string
}

// Style selects the quote character.
type Style string

const (
	// Backtick quotes identifiers MySQL-style: `name`.
	Backtick Style = "backtick"
	// DoubleQuote quotes identifiers ANSI-style: "name".
	DoubleQuote Style = "double"
)

// ValidStyles lists the accepted style names.
var ValidStyles = []Style{Backtick, DoubleQuote}

// ParseStyle maps a configuration string to a Style.
func ParseStyle(s string) (Style, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "backtick", "`", "mysql":
		return Backtick, nil
	case "double", `"`, "ansi":
		return DoubleQuote, nil
	default:
		return "", fmt.Errorf("invalid quote style %q: must be one of %v", s, ValidStyles)
	}
}

// Char returns the quote character for the style.
func (s Style) Char() string {
	if s == DoubleQuote {
		return `"`
	}
	return "`"
}

// Separator splits a qualifier from a column name.
const Separator = "."

// Wildcard is left unquoted when it appears as a column segment.
const Wildcard = "*"

// Identifier is the default Quoter: a quote character plus a table prefix.
// The zero value quotes with backticks and no prefix.
type Identifier struct {
	style  Style
	prefix string
}

// New creates an Identifier quoter.
func New(style Style, prefix string) *Identifier {
	return &Identifier{style: style, prefix: prefix}
}

// Default returns a backtick quoter with no table prefix.
func Default() *Identifier {
	return New(Backtick, "")
}

// Prefix returns the configured table prefix.
func (q *Identifier) Prefix() string {
	return q.prefix
}

// Style returns the configured quote style.
func (q *Identifier) Style() Style {
	if q.style == "" {
		return Backtick
	}
	return q.style
}

// QuoteIdent wraps segment in the quote character, doubling any embedded
// quote characters.
func (q *Identifier) QuoteIdent(segment string) string {
	c := q.Style().Char()
	return c + strings.ReplaceAll(segment, c, c+c) + c
}

// QuoteTable prepends the prefix as unquoted text, then quotes.
// "users" with prefix "app_" yields `app_users`.
func (q *Identifier) QuoteTable(name string) string {
	return q.QuoteIdent(q.prefix + name)
}

// QuoteColumn quotes "name" or "qualifier.name".
// Only the first separator splits; "a.b.c" becomes `a`.`b.c`.
func (q *Identifier) QuoteColumn(name string) string {
	if name == Wildcard {
		return Wildcard
	}
	qualifier, column, ok := strings.Cut(name, Separator)
	if !ok {
		return q.QuoteIdent(name)
	}
	return q.quoteSegment(qualifier) + Separator + q.quoteSegment(column)
}

func (q *Identifier) quoteSegment(segment string) string {
	if segment == Wildcard {
		return Wildcard
	}
	return q.QuoteIdent(segment)
}
