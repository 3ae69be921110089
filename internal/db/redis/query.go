package redis

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/kailas-cloud/signalsearch/internal/domain/search/filter"
)

// buildFilter renders an expression as a RediSearch pre-filter: must clauses
// intersect, should clauses form one OR group, must-not clauses are negated.
func buildFilter(expr filter.Expression) string {
	if expr.IsEmpty() {
		return ""
	}

	var parts []string
	for _, c := range expr.Must() {
		parts = append(parts, condition(c))
	}
	if should := expr.Should(); len(should) > 0 {
		alts := make([]string, len(should))
		for i, c := range should {
			alts[i] = condition(c)
		}
		parts = append(parts, "("+strings.Join(alts, " | ")+")")
	}
	for _, c := range expr.MustNot() {
		parts = append(parts, "-"+condition(c))
	}
	return strings.Join(parts, " ")
}

func condition(c filter.Condition) string {
	var sb strings.Builder
	sb.WriteString("@")
	sb.WriteString(c.Key())
	sb.WriteString(":")

	switch {
	case c.IsMatch():
		sb.WriteString("{")
		for i, v := range c.Values() {
			if i > 0 {
				sb.WriteString(" | ")
			}
			sb.WriteString(escape(v, true))
		}
		sb.WriteString("}")
	case c.IsRange():
		lo, hi := bounds(*c.Range())
		sb.WriteString("[" + lo + " " + hi + "]")
	default:
		return ""
	}
	return sb.String()
}

// bounds renders a range as RediSearch numeric bounds; "(" marks an exclusive edge.
func bounds(r filter.Range) (lo, hi string) {
	lo, hi = "-inf", "+inf"
	switch {
	case r.GT() != nil:
		lo = "(" + number(*r.GT())
	case r.GTE() != nil:
		lo = number(*r.GTE())
	}
	switch {
	case r.LT() != nil:
		hi = "(" + number(*r.LT())
	case r.LTE() != nil:
		hi = number(*r.LTE())
	}
	return lo, hi
}

func number(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// textClause tokenizes query into an OR of terms, optionally fuzzy and scoped to fields.
func textClause(query string, fields []string, fuzzy bool) string {
	terms := tokenize(query)
	if len(terms) == 0 {
		return ""
	}
	for i, t := range terms {
		if fuzzy {
			terms[i] = fuzzyTerm(t)
		} else {
			terms[i] = escape(t, false)
		}
	}
	body := "(" + strings.Join(terms, " | ") + ")"
	if len(fields) == 0 {
		return body
	}
	return "@" + strings.Join(fields, "|") + ":" + body
}

// fuzzyTerm sizes the Levenshtein distance by term length: exact up to 2 runes,
// distance 1 up to 5, distance 2 beyond.
func fuzzyTerm(t string) string {
	e := escape(t, false)
	switch n := utf8.RuneCountInString(t); {
	case n <= 2:
		return e
	case n <= 5:
		return "%" + e + "%"
	default:
		return "%%" + e + "%%"
	}
}

// tokenize lowercases s and splits it into letter/digit runs.
func tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// escape backslash-escapes every rune the query parser treats as syntax.
// Spaces are escaped only inside tag values.
func escape(s string, tag bool) string {
	var sb strings.Builder
	sb.Grow(len(s))
	for _, r := range s {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), r == '_':
		case r == ' ' && !tag:
		default:
			sb.WriteByte('\\')
		}
		sb.WriteRune(r)
	}
	return sb.String()
}
