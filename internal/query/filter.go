// Package query implements the in-process filter and sort applied to local
// replica contents. The filter grammar is deliberately tiny: equality clauses
// of the form field="value" joined by &&. It must not grow OR or negation
// without revisiting the deletion-detection scoping that relies on
// recognizing single-owner filters.
package query

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/studentorg/dashsync/internal/models"
)

// Clause is one field="value" equality test.
type Clause struct {
	Field string
	Value string
}

// Filter is a parsed conjunction of clauses. An empty Filter matches
// everything.
type Filter struct {
	Clauses []Clause
}

var clauseRe = regexp.MustCompile(`^\s*([A-Za-z_][A-Za-z0-9_.]*)\s*=\s*"((?:[^"\\]|\\.)*)"\s*$`)

// ParseFilter parses the mini-grammar. Anything outside it (OR, negation,
// comparison operators, unquoted values) is an error; callers treat an
// unparseable filter as opaque and disable deletion detection.
func ParseFilter(s string) (Filter, error) {
	var f Filter
	if strings.TrimSpace(s) == "" {
		return f, nil
	}
	for _, part := range strings.Split(s, "&&") {
		m := clauseRe.FindStringSubmatch(part)
		if m == nil {
			return Filter{}, fmt.Errorf("unsupported filter clause: %q", strings.TrimSpace(part))
		}
		value := strings.ReplaceAll(m[2], `\"`, `"`)
		f.Clauses = append(f.Clauses, Clause{Field: m[1], Value: value})
	}
	return f, nil
}

// SingleClause returns the lone clause when the filter has exactly one, which
// is the shape deletion-detection scoping cares about.
func (f Filter) SingleClause() (Clause, bool) {
	if len(f.Clauses) == 1 {
		return f.Clauses[0], true
	}
	return Clause{}, false
}

// Empty reports whether the filter matches everything.
func (f Filter) Empty() bool { return len(f.Clauses) == 0 }

// Match tests a record against every clause. Field values are compared by
// their string form, so bools and numbers can be matched by their JSON
// rendering.
func (f Filter) Match(rec models.Record) bool {
	for _, c := range f.Clauses {
		v, ok := rec[c.Field]
		if !ok {
			return false
		}
		if stringify(v) != c.Value {
			return false
		}
	}
	return true
}

// Apply returns the records matching f, preserving order.
func (f Filter) Apply(recs []models.Record) []models.Record {
	if f.Empty() {
		return recs
	}
	out := make([]models.Record, 0, len(recs))
	for _, r := range recs {
		if f.Match(r) {
			out = append(out, r)
		}
	}
	return out
}

func stringify(v any) string {
	switch value := v.(type) {
	case string:
		return value
	case bool:
		if value {
			return "true"
		}
		return "false"
	case float64:
		return strconv.FormatFloat(value, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", value)
	}
}
