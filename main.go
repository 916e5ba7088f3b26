package main

import (
	"encoding/json"
	"fmt"
	"log"

	"github.com/asaidimu/go-sieve/core/filter"
	"github.com/asaidimu/go-sieve/core/query"
	"github.com/asaidimu/go-sieve/core/schema"
	"github.com/asaidimu/go-sieve/sqlite"
	"go.uber.org/zap"
)

const (
	userSchemaJSON = `{
		"name": "users",
		"description": "Schema for user profiles",
		"fields": {
			"id":        {"name": "id", "type": "integer"},
			"name":      {"name": "name", "type": "string", "required": true},
			"email":     {"name": "email", "type": "string", "required": true, "unique": true},
			"age":       {"name": "age", "type": "integer"},
			"is_active": {"name": "is_active", "type": "boolean", "default": true}
		},
		"indexes": [
			{"name": "pk_user_id", "fields": ["id"], "type": "primary"}
		]
	}`

	// Entries as a client would submit them, using the symbolic operator names.
	requestJSON = `[
		{"field": "age", "operator": ">=", "value": 18},
		{"field": "age", "operator": "<", "value": 30},
		{"field": "name", "operator": "ilike", "value": "smith"},
		{"field": "active", "operator": "option", "value": true}
	]`
)

var users = []schema.Document{
	{"id": int64(1), "name": "Alice Smith", "email": "alice@example.com", "age": int64(30), "is_active": true},
	{"id": int64(2), "name": "Bob Smith", "email": "bob@example.com", "age": int64(22), "is_active": true},
	{"id": int64(3), "name": "Carol Smithers", "email": "carol@example.com", "age": int64(41), "is_active": true},
	{"id": int64(4), "name": "Dave Jones", "email": "dave@example.com", "age": int64(25), "is_active": true},
	{"id": int64(5), "name": "Erin Smith", "email": "erin@example.com", "age": int64(27), "is_active": false},
}

func main() {
	logger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	var userSchema schema.SchemaDefinition
	if err := json.Unmarshal([]byte(userSchemaJSON), &userSchema); err != nil {
		log.Fatalf("Failed to unmarshal user schema JSON: %v", err)
	}

	definition := filter.Define("users").
		Field("age", filter.KindInterval, schema.FieldTypeInteger, query.Field("age")).
		Field("name", filter.KindCompare, schema.FieldTypeString, query.Field("name")).
		Field("email", filter.KindInclude, schema.FieldTypeString, query.Field("email")).
		Field("active", filter.KindOption, schema.FieldTypeBoolean, query.Field("is_active")).
		MustBuild()

	var entries []filter.Entry
	if err := json.Unmarshal([]byte(requestJSON), &entries); err != nil {
		log.Fatalf("Failed to decode request: %v", err)
	}

	facade, err := filter.NewFacade(definition, entries, &filter.FacadeOptions{Validate: true, Logger: logger})
	if err != nil {
		log.Fatalf("Request rejected: %v", err)
	}

	generator, err := sqlite.NewSqliteQuery(&userSchema)
	if err != nil {
		log.Fatalf("Failed to create query generator: %v", err)
	}
	processor := query.NewDataProcessor(logger)

	run := func(title string) {
		stmt, err := facade.Apply(query.NewQueryBuilder().OrderByAsc("name").Build())
		if err != nil {
			log.Fatalf("Failed to apply filters: %v", err)
		}
		sql, params, err := generator.GenerateSelectSQL(stmt)
		if err != nil {
			log.Fatalf("Failed to generate SQL: %v", err)
		}
		rows, err := processor.ProcessRows(users, stmt)
		if err != nil {
			log.Fatalf("Failed to filter users: %v", err)
		}

		fmt.Printf("\n%s (age %v)\n  %s %v\n", title, facade.Values().Get("age"), sql, params)
		for _, row := range rows {
			fmt.Printf("  - %s, %d\n", row["name"], row["age"])
		}
	}

	run("Smiths in their twenties")

	// Move the age window up a decade and run the same request again.
	window := facade.Values().Get("age").(filter.Interval)
	shifted, err := window.Shift(int64(10))
	if err != nil {
		log.Fatalf("Failed to shift interval: %v", err)
	}
	if err := facade.Values().Set("age", shifted); err != nil {
		log.Fatalf("Failed to set age: %v", err)
	}
	run("Smiths in their thirties")

	fmt.Println("\nEntries after the shift:")
	for _, entry := range facade.Entries() {
		fmt.Printf("  %s\n", entry)
	}
}
