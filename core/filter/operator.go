// Package filter implements the declarative query-filter DSL: resource authors
// declare typed filter fields once, and each request's flat list of
// (field, operator, value) entries is validated against those declarations and
// compiled into predicates folded into a query.QueryDSL.
//
// A field is declared with a query kind that decides how the entries for that
// field are interpreted:
//
//   - Compare: exactly one entry with a comparison operator (eq, ne, lt, ...)
//   - Interval: exactly two entries, a lower bound (gt/ge) and an upper bound (lt/le)
//   - Include: exactly one in/not_in entry whose value is a list
//   - Option: exactly one option entry acting as a presence switch
//
// Typical use:
//
//	users := filter.Define("users").
//		Field("age", filter.KindInterval, schema.FieldTypeInteger, query.Field("age")).
//		Field("name", filter.KindCompare, schema.FieldTypeString, query.Field("name")).
//		MustBuild()
//
//	facade, err := filter.NewFacade(users, entries, nil)
//	if err != nil {
//		return err
//	}
//	stmt, err := facade.Apply(&query.QueryDSL{})
package filter

import (
	"fmt"
	"strings"
)

// Operator is the operator of a raw filter entry.
type Operator string

// Supported entry operators.
const (
	OperatorEq     Operator = "eq"
	OperatorNe     Operator = "ne"
	OperatorLt     Operator = "lt"
	OperatorLe     Operator = "le"
	OperatorGt     Operator = "gt"
	OperatorGe     Operator = "ge"
	OperatorIn     Operator = "in"
	OperatorNotIn  Operator = "not_in"
	OperatorLike   Operator = "like"
	OperatorILike  Operator = "ilike"
	OperatorIsNull Operator = "is_null"
	OperatorNot    Operator = "not"
	OperatorOption Operator = "option"
)

// Operators lists every supported operator.
var Operators = []Operator{
	OperatorEq, OperatorNe, OperatorLt, OperatorLe, OperatorGt, OperatorGe,
	OperatorIn, OperatorNotIn, OperatorLike, OperatorILike, OperatorIsNull,
	OperatorNot, OperatorOption,
}

// OperatorSet is a set of operators used to check what a query kind accepts.
type OperatorSet map[Operator]struct{}

func newOperatorSet(ops ...Operator) OperatorSet {
	set := make(OperatorSet, len(ops))
	for _, op := range ops {
		set[op] = struct{}{}
	}
	return set
}

// Contains reports whether op is in the set.
func (s OperatorSet) Contains(op Operator) bool {
	_, ok := s[op]
	return ok
}

var (
	// CompareOperators are accepted by Compare fields.
	CompareOperators = newOperatorSet(
		OperatorEq, OperatorNe, OperatorLt, OperatorLe, OperatorGt, OperatorGe,
		OperatorLike, OperatorILike, OperatorIsNull,
	)
	// MoreOperators open an interval from below.
	MoreOperators = newOperatorSet(OperatorGt, OperatorGe)
	// LessOperators close an interval from above.
	LessOperators = newOperatorSet(OperatorLt, OperatorLe)
	// IncludeOperators are accepted by Include fields.
	IncludeOperators = newOperatorSet(OperatorIn, OperatorNotIn)
)

// symbolic wire names still accepted from older clients
var operatorAliases = map[string]Operator{
	"==":     OperatorEq,
	"!=":     OperatorNe,
	"<":      OperatorLt,
	"<=":     OperatorLe,
	">":      OperatorGt,
	">=":     OperatorGe,
	"isnull": OperatorIsNull,
}

// IsValid reports whether o is a supported operator.
func (o Operator) IsValid() bool {
	for _, op := range Operators {
		if op == o {
			return true
		}
	}
	return false
}

// ParseOperator resolves an operator from its canonical name or its legacy
// symbolic form.
func ParseOperator(s string) (Operator, error) {
	s = strings.TrimSpace(s)
	if op := Operator(strings.ToLower(s)); op.IsValid() {
		return op, nil
	}
	if op, ok := operatorAliases[s]; ok {
		return op, nil
	}
	return "", fmt.Errorf("invalid operator %q", s)
}
