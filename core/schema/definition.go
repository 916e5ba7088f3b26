// Package schema describes the value types filter fields are declared with and the
// table layouts compiled filters are evaluated against.
package schema

import "time"

// LogicalOperator for combining conditions.
type LogicalOperator string

const (
	LogicalAnd LogicalOperator = "and" // All conditions must be true
	LogicalOr  LogicalOperator = "or"  // At least one condition must be true
)

// FieldType represents the value types a filter field or a table column can be
// declared with.
type FieldType string

const (
	FieldTypeString   FieldType = "string"   // Text data
	FieldTypeNumber   FieldType = "number"   // Any integer or floating point value
	FieldTypeInteger  FieldType = "integer"  // Integer values only
	FieldTypeBoolean  FieldType = "boolean"  // True/false values
	FieldTypeDateTime FieldType = "datetime" // Date with a wall clock, YYYY-MM-DD HH:MM:SS on the wire
	FieldTypeDate     FieldType = "date"     // Calendar date, YYYY-MM-DD on the wire
	FieldTypeTime     FieldType = "time"     // Time of day, HH:MM:SS on the wire
	FieldTypeAny      FieldType = "any"      // No type restriction
)

var fieldTypes = map[FieldType]struct{}{
	FieldTypeString:   {},
	FieldTypeNumber:   {},
	FieldTypeInteger:  {},
	FieldTypeBoolean:  {},
	FieldTypeDateTime: {},
	FieldTypeDate:     {},
	FieldTypeTime:     {},
	FieldTypeAny:      {},
}

// IsValid reports whether t is one of the declared field types.
func (t FieldType) IsValid() bool {
	_, ok := fieldTypes[t]
	return ok
}

// Matches reports whether the runtime type of value is acceptable for t.
// Temporal types all accept time.Time; the distinction between them only
// matters when coercing wire strings.
func (t FieldType) Matches(value any) bool {
	switch t {
	case FieldTypeAny:
		return true
	case FieldTypeString:
		_, ok := value.(string)
		return ok
	case FieldTypeBoolean:
		_, ok := value.(bool)
		return ok
	case FieldTypeInteger:
		return isInteger(value)
	case FieldTypeNumber:
		return isInteger(value) || isFloat(value)
	case FieldTypeDateTime, FieldTypeDate, FieldTypeTime:
		_, ok := value.(time.Time)
		return ok
	default:
		return false
	}
}

func isInteger(value any) bool {
	switch value.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return true
	}
	return false
}

func isFloat(value any) bool {
	switch value.(type) {
	case float32, float64:
		return true
	}
	return false
}

// IndexType represents index types for optimizing different query patterns.
type IndexType string

const (
	IndexTypeNormal  IndexType = "normal"  // General-purpose index
	IndexTypeUnique  IndexType = "unique"  // Unique index
	IndexTypePrimary IndexType = "primary" // Primary key index (implies unique)
)

// FieldDefinition describes a single column of a table.
type FieldDefinition struct {
	Name string    `json:"name" yaml:"name"`
	Type FieldType `json:"type" yaml:"type"`
	// Required indicates if the column is NOT NULL.
	Required *bool `json:"required,omitempty" yaml:"required,omitempty"`
	// Unique indicates if the column must have unique values.
	Unique *bool `json:"unique,omitempty" yaml:"unique,omitempty"`
	// Default provides a default value for the column.
	Default     any     `json:"default,omitempty" yaml:"default,omitempty"`
	Description *string `json:"description,omitempty" yaml:"description,omitempty"`
}

// IndexDefinition describes an index over one or more columns.
type IndexDefinition struct {
	Name   string    `json:"name" yaml:"name"`
	Fields []string  `json:"fields" yaml:"fields"`
	Type   IndexType `json:"type" yaml:"type"`
	Unique *bool     `json:"unique,omitempty" yaml:"unique,omitempty"`
	Order  *string   `json:"order,omitempty" yaml:"order,omitempty"`
}

// SchemaDefinition describes a table that filters are compiled against.
type SchemaDefinition struct {
	Name        string                      `json:"name" yaml:"name"`
	Description *string                     `json:"description,omitempty" yaml:"description,omitempty"`
	Fields      map[string]*FieldDefinition `json:"fields" yaml:"fields"`
	Indexes     []IndexDefinition           `json:"indexes,omitempty" yaml:"indexes,omitempty"`
}

// FindField returns the field with the given name, or nil.
func (s *SchemaDefinition) FindField(name string) *FieldDefinition {
	if field, ok := s.Fields[name]; ok {
		return field
	}
	for _, field := range s.Fields {
		if field.Name == name {
			return field
		}
	}
	return nil
}

// Document represents a single record/row of data.
type Document map[string]any
