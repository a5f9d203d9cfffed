package relational

import (
	"strconv"
	"strings"
)

// Dialect describes how a backend differs from the shared SQL.
type Dialect struct {
	// Name identifies the backend in errors.
	Name string

	// Numbered selects $1-style bind markers instead of ?.
	Numbered bool
}

// Supported dialects.
var (
	SQLite   = Dialect{Name: "sqlite"}
	Postgres = Dialect{Name: "postgres", Numbered: true}
)

// Rebind rewrites ? bind markers for the dialect.
// Queries must not contain a literal question mark.
func (d Dialect) Rebind(query string) string {
	if !d.Numbered {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 16)
	n := 0
	for _, r := range query {
		if r != '?' {
			b.WriteRune(r)
			continue
		}
		n++
		b.WriteByte('$')
		b.WriteString(strconv.Itoa(n))
	}
	return b.String()
}
