package filter

import (
	"errors"
	"fmt"
	"slices"

	"github.com/asaidimu/go-sieve/core/query"
	"github.com/asaidimu/go-sieve/utils"
	"go.uber.org/zap"
)

// FacadeOptions configures a Facade.
type FacadeOptions struct {
	// Validate runs the Validator when the facade is created.
	Validate bool
	// Logger receives debug output about compiled predicates. Nil disables logging.
	Logger *zap.Logger
}

// DefaultFacadeOptions validates entries on creation.
func DefaultFacadeOptions() *FacadeOptions {
	return &FacadeOptions{Validate: true}
}

// predicateRule maps an entry value to the comparator applied to the target
// expression. emit is false when the entry contributes no predicate.
type predicateRule func(value any) (op query.ComparisonOperator, arg query.FilterValue, emit bool)

func comparator(op query.ComparisonOperator) predicateRule {
	return func(value any) (query.ComparisonOperator, query.FilterValue, bool) {
		return op, value, true
	}
}

func wildcard(op query.ComparisonOperator) predicateRule {
	return func(value any) (query.ComparisonOperator, query.FilterValue, bool) {
		return op, fmt.Sprintf("%%%v%%", value), true
	}
}

var operatorRules = map[Operator]predicateRule{
	OperatorEq:    comparator(query.ComparisonOperatorEq),
	OperatorNe:    comparator(query.ComparisonOperatorNeq),
	OperatorLt:    comparator(query.ComparisonOperatorLt),
	OperatorLe:    comparator(query.ComparisonOperatorLte),
	OperatorGt:    comparator(query.ComparisonOperatorGt),
	OperatorGe:    comparator(query.ComparisonOperatorGte),
	OperatorIn:    comparator(query.ComparisonOperatorIn),
	OperatorNotIn: comparator(query.ComparisonOperatorNin),
	OperatorNot:   comparator(query.ComparisonOperatorIsNot),
	OperatorLike:  wildcard(query.ComparisonOperatorLike),
	OperatorILike: wildcard(query.ComparisonOperatorILike),
	OperatorIsNull: func(value any) (query.ComparisonOperator, query.FilterValue, bool) {
		if query.Truthy(value) {
			return query.ComparisonOperatorIsNull, nil, true
		}
		return query.ComparisonOperatorNotNull, nil, true
	},
	OperatorOption: func(value any) (query.ComparisonOperator, query.FilterValue, bool) {
		return query.ComparisonOperatorIsTrue, nil, query.Truthy(value)
	},
}

func init() {
	for _, op := range Operators {
		if _, ok := operatorRules[op]; !ok {
			panic(fmt.Sprintf("filter: operator %q has no predicate rule", op))
		}
	}
}

// Facade validates one request's entries, exposes their interpreted values
// and compiles them into a statement. A Facade is not safe for concurrent use.
type Facade struct {
	def     *Definition
	entries []Entry
	values  map[string]any
	logger  *zap.Logger
}

// NewFacade prepares entries for compilation against def. The entries slice
// is copied; overwriting values through Values does not affect the caller's slice.
func NewFacade(def *Definition, entries []Entry, opts *FacadeOptions) (*Facade, error) {
	if def == nil {
		return nil, errors.New("filter definition is nil")
	}
	if opts == nil {
		opts = DefaultFacadeOptions()
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	f := &Facade{
		def:     def,
		entries: slices.Clone(entries),
		values:  make(map[string]any, len(def.order)),
		logger:  logger,
	}
	if opts.Validate {
		if err := NewValidator(def, logger).Validate(f.entries); err != nil {
			return nil, err
		}
	}
	f.interpret()
	return f, nil
}

// interpret computes the semantic value of every declared field. Fields with
// no entries, or whose entries cannot be interpreted, hold nil.
func (f *Facade) interpret() {
	_, groups := utils.GroupBy(f.entries, func(e Entry) string { return e.Field })
	for _, field := range f.def.Fields() {
		group, ok := groups[field.Name]
		if !ok {
			f.values[field.Name] = nil
			continue
		}
		value, err := field.Kind.InterpretValue(group)
		if err != nil {
			f.logger.Debug("Cannot interpret filter value",
				zap.String("field", field.Name),
				zap.Error(err),
			)
			value = nil
		}
		f.values[field.Name] = value
	}
}

// Definition returns the definition the facade compiles against.
func (f *Facade) Definition() *Definition {
	return f.def
}

// Entries returns a copy of the current entries, including values
// overwritten through Values.
func (f *Facade) Entries() []Entry {
	return slices.Clone(f.entries)
}

// Apply folds the predicates of every entry into a copy of base and returns
// it. Fields named in exclude are skipped. base is not modified.
func (f *Facade) Apply(base *query.QueryDSL, exclude ...string) (*query.QueryDSL, error) {
	stmt := base.Clone()
	fields, groups := utils.GroupBy(f.entries, func(e Entry) string { return e.Field })

	compiled := 0
	for _, name := range fields {
		if slices.Contains(exclude, name) {
			continue
		}
		field, ok := f.def.Field(name)
		if !ok {
			return nil, newFieldError(name, ErrUnknownField, "not declared by %q", f.def.Name())
		}
		predicates, err := f.compile(field, groups[name])
		if err != nil {
			return nil, err
		}
		for _, p := range predicates {
			fold(stmt, field.Clause, p)
		}
		compiled += len(predicates)
	}

	f.logger.Debug("Compiled filter predicates",
		zap.String("definition", f.def.Name()),
		zap.Int("entries", len(f.entries)),
		zap.Int("predicates", compiled),
		zap.Strings("excluded", exclude),
	)
	return stmt, nil
}

func (f *Facade) compile(field FieldDefinition, group []Entry) ([]query.QueryFilter, error) {
	if field.Kind == KindOption {
		value, err := field.Kind.InterpretValue(group)
		if err != nil {
			return nil, err
		}
		if !query.Truthy(value) {
			return nil, nil
		}
		return []query.QueryFilter{field.Target.Predicate()}, nil
	}

	predicates := make([]query.QueryFilter, 0, len(group))
	for _, e := range group {
		rule, ok := operatorRules[e.Operator]
		if !ok {
			return nil, newFieldError(e.Field, ErrOperatorMismatch, "unsupported operator %q", e.Operator)
		}
		op, arg, emit := rule(e.Value)
		if !emit {
			continue
		}
		predicates = append(predicates, field.Target.Compare(op, arg))
	}
	return predicates, nil
}

// fold adds predicate to the clause of stmt in place.
func fold(stmt *query.QueryDSL, clause Clause, predicate query.QueryFilter) {
	switch clause {
	case ClauseWhere:
		stmt.AddFilter(predicate)
	case ClauseHaving:
		stmt.AddHaving(predicate)
	default:
		panic(fmt.Sprintf("filter: unknown clause %s", clause))
	}
}
