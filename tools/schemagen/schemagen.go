// Package main generates a JSON Schema skeleton for the report wire format.
//
// The committed schema in pkg/report/report-schema.json is curated by hand:
// value ranges, enums, and nullability carry constraints reflection cannot
// see. After changing the wire structs, regenerate the skeleton and diff it
// against the committed schema to catch missing or renamed fields.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/Sumatoshi-tech/archgate/pkg/report"
)

// Schema represents a JSON Schema node.
type Schema struct {
	Schema               string             `json:"$schema,omitempty"`
	Title                string             `json:"title,omitempty"`
	Description          string             `json:"description,omitempty"`
	Type                 any                `json:"type,omitempty"`
	Properties           map[string]*Schema `json:"properties,omitempty"`
	Items                *Schema            `json:"items,omitempty"`
	Required             []string           `json:"required,omitempty"`
	Ref                  string             `json:"$ref,omitempty"`
	Definitions          map[string]*Schema `json:"definitions,omitempty"`
	AdditionalProperties *bool              `json:"additionalProperties,omitempty"`
	Format               string             `json:"format,omitempty"`
}

var outputDir string

func main() {
	flag.StringVar(&outputDir, "o", "docs/schemas", "Output directory for the generated skeleton")
	flag.Parse()

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "Error creating output directory: %v\n", err)
		os.Exit(1)
	}

	schema := generateSchema(&report.Document{})

	if err := writeSchema("report", schema); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing report schema: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Generated report schema skeleton")
}

func generateSchema(v any) *Schema {
	t := reflect.TypeOf(v)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	defs := make(map[string]*Schema)
	props, required := structToProperties(t, defs)

	closed := false

	schema := &Schema{
		Schema:               "http://json-schema.org/draft-07/schema#",
		Title:                "Archgate Audit Report",
		Description:          "JSON schema skeleton for the audit report document",
		Type:                 "object",
		Properties:           props,
		Required:             required,
		AdditionalProperties: &closed,
	}

	if len(defs) > 0 {
		schema.Definitions = defs
	}

	return schema
}

func structToProperties(t reflect.Type, defs map[string]*Schema) (map[string]*Schema, []string) {
	props := make(map[string]*Schema)

	var required []string

	for i := range t.NumField() {
		field := t.Field(i)

		jsonTag := field.Tag.Get("json")
		if jsonTag == "-" || jsonTag == "" {
			continue
		}

		parts := strings.Split(jsonTag, ",")
		jsonName := parts[0]
		isOmitempty := len(parts) > 1 && parts[1] == "omitempty"

		props[jsonName] = typeToSchema(field.Type, defs)

		if !isOmitempty {
			required = append(required, jsonName)
		}
	}

	return props, required
}

func typeToSchema(t reflect.Type, defs map[string]*Schema) *Schema {
	switch t.Kind() {
	case reflect.String:
		return &Schema{Type: "string"}

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return &Schema{Type: "integer"}

	case reflect.Float32, reflect.Float64:
		return &Schema{Type: "number"}

	case reflect.Bool:
		return &Schema{Type: "boolean"}

	case reflect.Slice:
		return &Schema{Type: "array", Items: typeToSchema(t.Elem(), defs)}

	case reflect.Struct:
		if t == reflect.TypeOf(time.Time{}) {
			return &Schema{Type: "string", Format: "date-time"}
		}

		defName := t.Name()
		if defName == "" {
			props, required := structToProperties(t, defs)

			return &Schema{Type: "object", Properties: props, Required: required}
		}

		if _, exists := defs[defName]; !exists {
			// Reserve the slot first so self-referential structs terminate.
			defs[defName] = &Schema{}

			props, required := structToProperties(t, defs)
			closed := false
			defs[defName] = &Schema{
				Type:                 "object",
				Properties:           props,
				Required:             required,
				AdditionalProperties: &closed,
			}
		}

		return &Schema{Ref: "#/definitions/" + defName}

	case reflect.Ptr:
		// Pointers are nullable on the wire.
		inner := typeToSchema(t.Elem(), defs)
		if inner.Ref != "" {
			return inner
		}

		inner.Type = nullable(inner.Type)

		return inner

	default:
		return &Schema{Type: "object"}
	}
}

func nullable(typ any) any {
	name, ok := typ.(string)
	if !ok {
		return typ
	}

	return []string{name, "null"}
}

func writeSchema(name string, schema *Schema) error {
	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}

	data = append(data, '\n')

	path := filepath.Join(outputDir, name+".json")

	return os.WriteFile(path, data, 0o644)
}
