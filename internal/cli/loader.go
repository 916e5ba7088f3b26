package cli

import (
	"bytes"
	"fmt"
	"os"

	"github.com/asaidimu/go-sieve/core/filter"
	"github.com/asaidimu/go-sieve/core/query"
	"github.com/asaidimu/go-sieve/core/schema"
	"gopkg.in/yaml.v3"
)

// DefinitionFile is the YAML layout of a filter definition.
//
//	name: users
//	table:
//	  name: users
//	  fields:
//	    age: {name: age, type: integer}
//	fields:
//	  - name: age
//	    kind: interval
type DefinitionFile struct {
	Name   string                   `yaml:"name"`
	Table  *schema.SchemaDefinition `yaml:"table"`
	Fields []FieldSpec              `yaml:"fields"`
}

// FieldSpec declares one filter field. Type defaults to the type of the
// targeted column, Target to the field name. Aggregate turns the target into
// an aggregate expression over the column, aliased by Alias.
type FieldSpec struct {
	Name        string `yaml:"name"`
	Kind        string `yaml:"kind"`
	Type        string `yaml:"type"`
	Target      string `yaml:"target"`
	Aggregate   string `yaml:"aggregate"`
	Alias       string `yaml:"alias"`
	Clause      string `yaml:"clause"`
	Description string `yaml:"description"`
}

// RequestFile is the YAML layout of a filter request: the entries a user
// submitted and the statement they are folded into.
type RequestFile struct {
	GroupBy      []string        `yaml:"group_by"`
	Aggregations []AggregateSpec `yaml:"aggregations"`
	Sort         []SortSpec      `yaml:"sort"`
	Entries      []EntrySpec     `yaml:"entries"`
}

// AggregateSpec is an aggregation of the base statement.
type AggregateSpec struct {
	Type  string `yaml:"type"`
	Field string `yaml:"field"`
	Alias string `yaml:"alias"`
}

// SortSpec is an ordering of the base statement.
type SortSpec struct {
	Field     string `yaml:"field"`
	Direction string `yaml:"direction"`
}

// EntrySpec is a raw filter entry as written in a request file.
type EntrySpec struct {
	Field    string `yaml:"field"`
	Operator string `yaml:"operator"`
	Value    any    `yaml:"value"`
}

// Loaded is a definition file resolved into its runtime form.
type Loaded struct {
	Definition *filter.Definition
	Table      *schema.SchemaDefinition
}

// Request is a request file resolved against a definition.
type Request struct {
	Base    *query.QueryDSL
	Entries []filter.Entry
}

func decodeFile(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	return nil
}

// LoadDefinition reads a definition file. When the file has no fields every
// column of the table becomes a Compare field.
func LoadDefinition(path string) (*Loaded, error) {
	var file DefinitionFile
	if err := decodeFile(path, &file); err != nil {
		return nil, err
	}
	return file.Resolve()
}

// Resolve builds the filter definition described by the file.
func (file *DefinitionFile) Resolve() (*Loaded, error) {
	if file.Table != nil && file.Table.Name == "" {
		file.Table.Name = file.Name
	}
	if len(file.Fields) == 0 {
		if file.Table == nil {
			return nil, fmt.Errorf("definition %q declares neither fields nor a table", file.Name)
		}
		def, err := filter.DefineFromSchema(file.Table, nil)
		if err != nil {
			return nil, err
		}
		return &Loaded{Definition: def, Table: file.Table}, nil
	}

	b := filter.Define(file.Name)
	for _, spec := range file.Fields {
		kind, err := filter.KindByName(spec.Kind)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", spec.Name, err)
		}
		clause, err := filter.ParseClause(spec.Clause)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", spec.Name, err)
		}

		column := spec.Target
		if column == "" {
			column = spec.Name
		}
		valueType := schema.FieldType(spec.Type)
		if valueType == "" {
			valueType = schema.FieldTypeAny
			if file.Table != nil {
				if col := file.Table.FindField(column); col != nil {
					valueType = col.Type
				}
			}
		}

		var target query.Expression = query.Field(column)
		if spec.Aggregate != "" {
			agg := query.Aggregate(query.AggregationType(spec.Aggregate), column)
			if spec.Alias != "" {
				agg = agg.As(spec.Alias)
			}
			target = agg
		}

		opts := []filter.FieldOption{filter.WithClause(clause)}
		if spec.Description != "" {
			opts = append(opts, filter.WithDescription(spec.Description))
		}
		b.Field(spec.Name, kind, valueType, target, opts...)
	}

	def, err := b.Build()
	if err != nil {
		return nil, err
	}
	return &Loaded{Definition: def, Table: file.Table}, nil
}

// LoadRequest reads a request file and coerces entry values to the value
// types of the fields they name.
func (l *Loaded) LoadRequest(path string) (*Request, error) {
	var file RequestFile
	if err := decodeFile(path, &file); err != nil {
		return nil, err
	}
	return l.Resolve(&file)
}

// Resolve turns a request file into entries and a base statement.
func (l *Loaded) Resolve(file *RequestFile) (*Request, error) {
	base := &query.QueryDSL{GroupBy: file.GroupBy}
	for _, agg := range file.Aggregations {
		expr := query.Aggregate(query.AggregationType(agg.Type), agg.Field)
		if agg.Alias != "" {
			expr = expr.As(agg.Alias)
		}
		base.Aggregations = append(base.Aggregations, expr.Aggregation)
	}
	for _, s := range file.Sort {
		direction := query.SortDirection(s.Direction)
		if direction == "" {
			direction = query.SortDirectionAsc
		}
		base.Sort = append(base.Sort, query.SortConfiguration{Field: s.Field, Direction: direction})
	}

	entries := make([]filter.Entry, 0, len(file.Entries))
	for i, spec := range file.Entries {
		op, err := filter.ParseOperator(spec.Operator)
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		value := spec.Value
		if field, ok := l.Definition.Field(spec.Field); ok && op != filter.OperatorIsNull {
			if value, err = schema.CoerceValue(value, field.ValueType); err != nil {
				return nil, fmt.Errorf("entry %d (%s): %w", i, spec.Field, err)
			}
		}
		entries = append(entries, filter.Entry{Field: spec.Field, Operator: op, Value: value})
	}
	return &Request{Base: base, Entries: entries}, nil
}
