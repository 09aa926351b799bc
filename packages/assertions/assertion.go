package assertions

import (
	"encoding/json"
	"fmt"
	"strings"
)

type Operator int

const (
	OpEquals Operator = iota
	OpNotEquals
	OpGreaterThan
	OpGreaterOrEqual
	OpLessThan
	OpLessOrEqual
	OpContains
	OpNotContains
	OpStartsWith
	OpEndsWith
	OpMatches
	OpExists
	OpNotExists
	OpLength
	OpIncludes
	OpNotIncludes
	OpIn
	OpNotIn
	OpType
	OpEach
	OpSchema
)

var operatorNames = map[Operator]string{
	OpEquals:         "==",
	OpNotEquals:      "!=",
	OpGreaterThan:    ">",
	OpGreaterOrEqual: ">=",
	OpLessThan:       "<",
	OpLessOrEqual:    "<=",
	OpContains:       "contains",
	OpNotContains:    "!contains",
	OpStartsWith:     "startsWith",
	OpEndsWith:       "endsWith",
	OpMatches:        "matches",
	OpExists:         "exists",
	OpNotExists:      "!exists",
	OpLength:         "length",
	OpIncludes:       "includes",
	OpNotIncludes:    "!includes",
	OpIn:             "in",
	OpNotIn:          "!in",
	OpType:           "type",
	OpEach:           "each",
	OpSchema:         "schema",
}

func (op Operator) String() string {
	if name, ok := operatorNames[op]; ok {
		return name
	}
	return "unknown"
}

// ParseOperator matches operator names case-insensitively.
func ParseOperator(s string) (Operator, bool) {
	for op, name := range operatorNames {
		if strings.EqualFold(name, s) {
			return op, true
		}
	}
	return OpEquals, false
}

// Assertion is a single check against a response.
type Assertion struct {
	Subject  string
	Operator Operator
	Expected any
}

func (a *Assertion) String() string {
	if a.Operator == OpExists || a.Operator == OpNotExists {
		return a.Subject + " " + a.Operator.String()
	}
	return fmt.Sprintf("%s %s %v", a.Subject, a.Operator, a.Expected)
}

// Parse reads an expression such as `status == 200` or
// `header content-type contains json`. The expected value is decoded as JSON
// when possible and kept as a string otherwise.
func Parse(expr string) (*Assertion, error) {
	fields := strings.Fields(expr)
	if len(fields) == 0 {
		return nil, fmt.Errorf("empty assertion")
	}

	subject := fields[0]
	rest := fields[1:]
	if strings.EqualFold(subject, "header") && len(rest) > 0 {
		if _, isOp := ParseOperator(rest[0]); !isOp {
			subject = "header " + rest[0]
			rest = rest[1:]
		}
	}

	if len(rest) == 0 {
		return nil, fmt.Errorf("assertion %q: missing operator", expr)
	}
	op, ok := ParseOperator(rest[0])
	if !ok {
		return nil, fmt.Errorf("assertion %q: unknown operator: %s", expr, rest[0])
	}

	a := &Assertion{Subject: subject, Operator: op}
	if op == OpExists || op == OpNotExists {
		return a, nil
	}

	raw := strings.TrimSpace(strings.Join(rest[1:], " "))
	if raw == "" {
		return nil, fmt.Errorf("assertion %q: missing expected value", expr)
	}
	a.Expected = parseExpected(raw, op)
	return a, nil
}

func parseExpected(raw string, op Operator) any {
	// Paths and patterns are never JSON.
	if op == OpSchema || op == OpMatches {
		return strings.Trim(raw, `"`)
	}
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err == nil {
		return v
	}
	return raw
}

// ParseAll parses every expression, stopping at the first error.
func ParseAll(exprs []string) ([]*Assertion, error) {
	out := make([]*Assertion, 0, len(exprs))
	for _, expr := range exprs {
		a, err := Parse(expr)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}
