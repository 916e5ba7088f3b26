package filter

import (
	"errors"
	"fmt"
	"slices"
	"sort"

	"github.com/asaidimu/go-sieve/core/query"
	"github.com/asaidimu/go-sieve/core/schema"
)

// Clause selects where a field's predicates land in the statement.
type Clause int

const (
	// ClauseWhere filters rows before aggregation.
	ClauseWhere Clause = iota
	// ClauseHaving filters groups after aggregation.
	ClauseHaving
)

func (c Clause) String() string {
	switch c {
	case ClauseWhere:
		return "where"
	case ClauseHaving:
		return "having"
	default:
		return fmt.Sprintf("clause(%d)", int(c))
	}
}

// ParseClause resolves "where" or "having". An empty name means ClauseWhere.
func ParseClause(name string) (Clause, error) {
	switch name {
	case "", "where":
		return ClauseWhere, nil
	case "having":
		return ClauseHaving, nil
	}
	return 0, fmt.Errorf("unknown clause %q", name)
}

// FieldDefinition declares one filterable field.
type FieldDefinition struct {
	Name        string
	Kind        Kind
	ValueType   schema.FieldType
	Target      query.Expression
	Clause      Clause
	Description string
}

// ValidatorFunc is a user validator bound to a field. It is called once per
// entry of the field's group and fails validation by returning an error.
type ValidatorFunc func(def *Definition, entry Entry) error

// FieldOption customizes a field declaration.
type FieldOption func(*FieldDefinition)

// WithClause places the field's predicates in clause.
func WithClause(clause Clause) FieldOption {
	return func(f *FieldDefinition) {
		f.Clause = clause
	}
}

// WithDescription documents the field.
func WithDescription(description string) FieldOption {
	return func(f *FieldDefinition) {
		f.Description = description
	}
}

// Definition is the immutable set of filter fields of one resource. It is
// safe for concurrent use.
type Definition struct {
	name       string
	fields     map[string]FieldDefinition
	order      []string
	validators map[string][]ValidatorFunc
}

// Name returns the resource name the definition was declared for.
func (d *Definition) Name() string {
	return d.name
}

// Field looks up a field declaration by name.
func (d *Definition) Field(name string) (FieldDefinition, bool) {
	f, ok := d.fields[name]
	return f, ok
}

// Fields returns the field declarations in declaration order.
func (d *Definition) Fields() []FieldDefinition {
	fields := make([]FieldDefinition, 0, len(d.order))
	for _, name := range d.order {
		fields = append(fields, d.fields[name])
	}
	return fields
}

// Validators returns the user validators bound to a field, in registration order.
func (d *Definition) Validators(name string) []ValidatorFunc {
	return slices.Clone(d.validators[name])
}

type boundValidator struct {
	field string
	fn    ValidatorFunc
}

// Builder collects field declarations and validators for a Definition.
type Builder struct {
	name       string
	fields     []FieldDefinition
	validators []boundValidator
}

// Define starts a definition for the named resource.
func Define(name string) *Builder {
	return &Builder{name: name}
}

// Field declares a field of the given kind and value type compiled against target.
func (b *Builder) Field(name string, kind Kind, valueType schema.FieldType, target query.Expression, opts ...FieldOption) *Builder {
	f := FieldDefinition{
		Name:      name,
		Kind:      kind,
		ValueType: valueType,
		Target:    target,
		Clause:    ClauseWhere,
	}
	for _, opt := range opts {
		opt(&f)
	}
	b.fields = append(b.fields, f)
	return b
}

// Validator binds fn to the named field.
func (b *Builder) Validator(field string, fn ValidatorFunc) *Builder {
	b.validators = append(b.validators, boundValidator{field: field, fn: fn})
	return b
}

// Build checks the declarations and returns the definition.
func (b *Builder) Build() (*Definition, error) {
	def := &Definition{
		name:       b.name,
		fields:     make(map[string]FieldDefinition, len(b.fields)),
		validators: make(map[string][]ValidatorFunc),
	}

	var errs []error
	for _, f := range b.fields {
		switch {
		case f.Name == "":
			errs = append(errs, errors.New("field name must not be empty"))
			continue
		case f.Kind == nil:
			errs = append(errs, fmt.Errorf("field %q: query kind is required", f.Name))
		case f.Target == nil:
			errs = append(errs, fmt.Errorf("field %q: target expression is required", f.Name))
		case !f.ValueType.IsValid():
			errs = append(errs, fmt.Errorf("field %q: invalid value type %q", f.Name, f.ValueType))
		case f.Clause != ClauseWhere && f.Clause != ClauseHaving:
			errs = append(errs, fmt.Errorf("field %q: invalid clause %s", f.Name, f.Clause))
		}
		if _, dup := def.fields[f.Name]; dup {
			errs = append(errs, fmt.Errorf("field %q declared more than once", f.Name))
			continue
		}
		def.fields[f.Name] = f
		def.order = append(def.order, f.Name)
	}

	for _, v := range b.validators {
		if _, ok := def.fields[v.field]; !ok {
			errs = append(errs, fmt.Errorf("validator bound to undeclared field %q", v.field))
			continue
		}
		if v.fn == nil {
			errs = append(errs, fmt.Errorf("field %q: nil validator", v.field))
			continue
		}
		def.validators[v.field] = append(def.validators[v.field], v.fn)
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("invalid filter definition %q: %w", b.name, errors.Join(errs...))
	}
	return def, nil
}

// MustBuild is like Build but panics on an invalid definition.
func (b *Builder) MustBuild() *Definition {
	def, err := b.Build()
	if err != nil {
		panic(err)
	}
	return def
}

// DefineFromSchema declares a field for every column of a table schema,
// targeting the column of the same name. kinds overrides the query kind per
// column; columns without an override are Compare fields.
func DefineFromSchema(sc *schema.SchemaDefinition, kinds map[string]Kind) (*Definition, error) {
	if sc == nil {
		return nil, errors.New("schema definition is nil")
	}
	names := make([]string, 0, len(sc.Fields))
	for name := range sc.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	b := Define(sc.Name)
	for _, name := range names {
		column := sc.Fields[name]
		kind, ok := kinds[name]
		if !ok {
			kind = KindCompare
		}
		var opts []FieldOption
		if column.Description != nil {
			opts = append(opts, WithDescription(*column.Description))
		}
		b.Field(name, kind, column.Type, query.Field(name), opts...)
	}
	for name := range kinds {
		if _, ok := sc.Fields[name]; !ok {
			return nil, fmt.Errorf("schema %q has no field %q", sc.Name, name)
		}
	}
	return b.Build()
}
