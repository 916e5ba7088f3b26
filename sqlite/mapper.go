package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/asaidimu/go-sieve/core/persistence"
	"github.com/asaidimu/go-sieve/core/schema"
)

// DefaultInteractorOptions returns a set of sensible default options for the
// SQLite interactor.
func DefaultInteractorOptions() *persistence.InteractorOptions {
	return &persistence.InteractorOptions{
		IfNotExists:   true, // Prevent errors if a table already exists.
		CreateIndexes: true, // Automatically create indexes defined in the schema.
	}
}

// getTableName constructs the full, quoted table name by applying the configured
// table prefix to the base name.
func (i *SQLiteInteractor) getTableName(baseName string) string {
	return quoteIdentifier(i.options.TablePrefix + baseName)
}

// CreateCollection generates and executes the DDL statements to create a table
// and its associated indexes.
func (i *SQLiteInteractor) CreateCollection(sc schema.SchemaDefinition) error {
	if i.options.DropIfExists {
		if err := i.DropCollection(sc.Name); err != nil {
			return err
		}
	}

	sqlStatements, err := i.CreateTableSQL(sc)
	if err != nil {
		return fmt.Errorf("failed to generate SQL for table %s: %w", sc.Name, err)
	}

	for _, stmt := range sqlStatements {
		if _, err := i.runner().Exec(stmt); err != nil {
			return fmt.Errorf("failed to execute SQL statement '%s': %w", stmt, err)
		}
	}

	if i.options.CreateIndexes {
		for _, index := range sc.Indexes {
			if err := i.CreateIndex(sc.Name, index); err != nil {
				return err
			}
		}
	}
	return nil
}

// CreateTableSQL generates the DDL SQL statements required to create a table from a
// schema definition. Columns are emitted in name order.
func (i *SQLiteInteractor) CreateTableSQL(sc schema.SchemaDefinition) ([]string, error) {
	if len(sc.Fields) == 0 {
		return nil, fmt.Errorf("schema %s defines no fields", sc.Name)
	}
	var sb strings.Builder
	sb.WriteString("CREATE TABLE ")
	if i.options.IfNotExists {
		sb.WriteString("IF NOT EXISTS ")
	}
	sb.WriteString(i.getTableName(sc.Name) + " (\n")

	var primaryKeys []string
	for _, index := range sc.Indexes {
		if index.Type == schema.IndexTypePrimary && len(index.Fields) > 0 {
			primaryKeys = index.Fields
			break
		}
	}

	names := make([]string, 0, len(sc.Fields))
	for name := range sc.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	var columns []string
	for _, name := range names {
		columnDef, err := buildColumnDefinition(name, sc.Fields[name])
		if err != nil {
			return nil, fmt.Errorf("error on field '%s': %w", name, err)
		}
		columns = append(columns, "    "+columnDef)
	}
	sb.WriteString(strings.Join(columns, ",\n"))

	if len(primaryKeys) > 0 {
		quotedPKs := make([]string, len(primaryKeys))
		for n, pk := range primaryKeys {
			quotedPKs[n] = quoteIdentifier(pk)
		}
		sb.WriteString(",\n    PRIMARY KEY (" + strings.Join(quotedPKs, ", ") + ")")
	}

	sb.WriteString("\n);")
	return []string{sb.String()}, nil
}

// buildColumnDefinition constructs the DDL string for a single column, including its
// name, data type, and any constraints.
func buildColumnDefinition(fieldName string, field *schema.FieldDefinition) (string, error) {
	parts := []string{quoteIdentifier(fieldName), GetColumnType(field.Type)}

	if field.Required != nil && *field.Required {
		parts = append(parts, "NOT NULL")
	}
	if field.Default != nil {
		defVal, err := formatDefaultValue(field.Default, field.Type)
		if err != nil {
			return "", err
		}
		parts = append(parts, "DEFAULT "+defVal)
	}
	if field.Unique != nil && *field.Unique {
		parts = append(parts, "UNIQUE")
	}
	return strings.Join(parts, " "), nil
}

// GetColumnType maps a schema.FieldType to its corresponding SQLite column type.
// Temporal values are stored as text in their wire layout.
func GetColumnType(fieldType schema.FieldType) string {
	switch fieldType {
	case schema.FieldTypeString, schema.FieldTypeDateTime, schema.FieldTypeDate, schema.FieldTypeTime:
		return "TEXT"
	case schema.FieldTypeNumber:
		return "REAL"
	case schema.FieldTypeInteger, schema.FieldTypeBoolean:
		return "INTEGER"
	default:
		return "BLOB"
	}
}

// formatDefaultValue formats a default value into a string suitable for use in a SQL DDL statement.
func formatDefaultValue(value any, fieldType schema.FieldType) (string, error) {
	if value == nil {
		return "NULL", nil
	}
	quote := func(s string) string {
		return "'" + strings.ReplaceAll(s, "'", "''") + "'"
	}
	switch fieldType {
	case schema.FieldTypeString:
		return quote(fmt.Sprintf("%v", value)), nil
	case schema.FieldTypeNumber, schema.FieldTypeInteger:
		return fmt.Sprintf("%v", value), nil
	case schema.FieldTypeBoolean:
		if b, ok := value.(bool); ok && b {
			return "1", nil
		}
		return "0", nil
	case schema.FieldTypeDateTime, schema.FieldTypeDate, schema.FieldTypeTime:
		if t, ok := value.(time.Time); ok {
			return quote(formatTemporal(t, fieldType)), nil
		}
		return quote(fmt.Sprintf("%v", value)), nil
	default:
		return "", fmt.Errorf("unsupported type for default value: %s", fieldType)
	}
}

// CreateIndex generates and executes a DDL statement to create an index on a table.
func (i *SQLiteInteractor) CreateIndex(collection string, index schema.IndexDefinition) error {
	sqlIndex, err := CreateIndexSQL(i.getTableName(collection), index)
	if err != nil {
		return fmt.Errorf("failed to generate SQL for index %s: %w", index.Name, err)
	}
	if sqlIndex == "" {
		return nil
	}
	if _, err := i.runner().Exec(sqlIndex); err != nil {
		return fmt.Errorf("failed to execute create index statement: %w", err)
	}
	return nil
}

// CreateIndexSQL generates the DDL SQL string for creating an index. Primary
// indexes are part of the table definition and yield an empty statement.
func CreateIndexSQL(collection string, index schema.IndexDefinition) (string, error) {
	if index.Type == schema.IndexTypePrimary {
		return "", nil
	}
	if len(index.Fields) == 0 {
		return "", fmt.Errorf("index %s has no fields", index.Name)
	}

	var sb strings.Builder
	sb.WriteString("CREATE ")
	if (index.Unique != nil && *index.Unique) || index.Type == schema.IndexTypeUnique {
		sb.WriteString("UNIQUE ")
	}
	sb.WriteString("INDEX IF NOT EXISTS ")
	indexName := index.Name
	if indexName == "" {
		unquotedTableName := strings.Trim(collection, `"`)
		indexName = fmt.Sprintf("idx_%s_%s", unquotedTableName, strings.Join(index.Fields, "_"))
	}
	sb.WriteString(quoteIdentifier(indexName))
	sb.WriteString(fmt.Sprintf(" ON %s (", collection))

	var fieldParts []string
	for _, field := range index.Fields {
		part := quoteIdentifier(field)
		if index.Order != nil && strings.ToUpper(*index.Order) == "DESC" {
			part += " DESC"
		}
		fieldParts = append(fieldParts, part)
	}
	sb.WriteString(strings.Join(fieldParts, ", ") + ");")
	return sb.String(), nil
}

// DropCollection drops a table from the database.
func (i *SQLiteInteractor) DropCollection(collection string) error {
	fullTableName := i.getTableName(collection)
	if _, err := i.runner().Exec(fmt.Sprintf("DROP TABLE IF EXISTS %s;", fullTableName)); err != nil {
		return fmt.Errorf("failed to drop table %s: %w", fullTableName, err)
	}
	return nil
}

// CollectionExists checks if a table exists in the database.
func (i *SQLiteInteractor) CollectionExists(collection string) (bool, error) {
	fullUnquotedName := i.options.TablePrefix + collection
	var name string
	err := i.runner().QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name = ?;", fullUnquotedName).Scan(&name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
