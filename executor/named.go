package executor

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// BindStyle is the positional placeholder syntax a driver expects.
type BindStyle int

const (
	// BindQuestion rewrites :name to "?" (MySQL, SQLite, generic).
	BindQuestion BindStyle = iota
	// BindDollar rewrites :name to "$1".."$n" (PostgreSQL).
	BindDollar
	// BindAt rewrites :name to "@p1".."@pn" (SQL Server).
	BindAt
)

// rewriteNamed converts a query with :name placeholders into the driver's
// positional syntax and orders the argument values to match. Named tokens
// inside single- or double-quoted runs are left alone, as is the "::" cast
// syntax. A referenced name missing from args is an error.
func rewriteNamed(query string, style BindStyle, args map[string]any) (string, []any, error) {
	var sb strings.Builder
	sb.Grow(len(query))

	var values []any
	runes := []rune(query)
	var quote rune

	for i := 0; i < len(runes); i++ {
		r := runes[i]

		if quote != 0 {
			sb.WriteRune(r)
			if r == quote {
				quote = 0
			}
			continue
		}
		switch r {
		case '\'', '"':
			quote = r
			sb.WriteRune(r)
			continue
		case ':':
			// "::" is a cast, not a placeholder.
			if i+1 < len(runes) && runes[i+1] == ':' {
				sb.WriteString("::")
				i++
				continue
			}
			start := i + 1
			end := start
			for end < len(runes) && isNameRune(runes[end]) {
				end++
			}
			if end == start {
				sb.WriteRune(r)
				continue
			}
			name := string(runes[start:end])
			value, ok := args[name]
			if !ok {
				return "", nil, fmt.Errorf("kurubind: no value bound for placeholder :%s", name)
			}
			values = append(values, value)
			switch style {
			case BindDollar:
				sb.WriteString("$" + strconv.Itoa(len(values)))
			case BindAt:
				sb.WriteString("@p" + strconv.Itoa(len(values)))
			default:
				sb.WriteString("?")
			}
			i = end - 1
			continue
		}
		sb.WriteRune(r)
	}

	return sb.String(), values, nil
}

func isNameRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
