package engine

import (
	"fmt"
	"sort"
	"strings"
)

// GenerateDDL renders a Postgres `CREATE TABLE` script for every model,
// scalar-list auxiliary table, and relation join table in schema. It
// replaces a prior ffi.GenerateMigration Rust hop: the migration engine's
// correctness is out of scope for this package, but emitting DDL from
// already-loaded metadata is plain Go and belongs here next to the schema
// types it reads.
func GenerateDDL(schema *Schema) string {
	var b strings.Builder

	var modelNames []string
	for name := range schema.Models {
		modelNames = append(modelNames, name)
	}
	sort.Strings(modelNames)

	for _, name := range modelNames {
		model := schema.Models[name]
		writeModelTable(&b, model)
		for _, fieldName := range model.FieldOrder {
			if model.Fields[fieldName].IsList {
				writeScalarListTable(&b, model, model.Fields[fieldName])
			}
		}
	}

	var relNames []string
	for name := range schema.Relations {
		relNames = append(relNames, name)
	}
	sort.Strings(relNames)

	for _, name := range relNames {
		rel := schema.Relations[name]
		if rel.Inline == NotInlined {
			writeJoinTable(&b, rel)
		}
	}

	return b.String()
}

func writeModelTable(b *strings.Builder, model *Model) {
	fmt.Fprintf(b, "CREATE TABLE %q (\n", model.Name)
	cols := make([]string, 0, len(model.FieldOrder)+len(model.RelationOrder))
	for _, name := range model.FieldOrder {
		field := model.Fields[name]
		if field.IsList {
			continue // backed by an auxiliary table, not a column
		}
		cols = append(cols, "    "+columnDDL(field))
	}
	for _, name := range model.RelationOrder {
		rf := model.Relations[name]
		if !rf.InlinedInParent() {
			continue // FK column lives on the opposite model's table, or there's a join table
		}
		cols = append(cols, "    "+inlineFKColumnDDL(rf))
	}
	b.WriteString(strings.Join(cols, ",\n"))
	b.WriteString("\n);\n\n")
}

// inlineFKColumnDDL renders the physical foreign-key column a model's
// own table carries for an inlined relation field.
func inlineFKColumnDDL(rf *RelationField) string {
	related := rf.RelatedModel()
	var b strings.Builder
	fmt.Fprintf(&b, "%q UUID", rf.relation.InlineColumn)
	if rf.IsRequired {
		b.WriteString(" NOT NULL")
	}
	fmt.Fprintf(&b, " REFERENCES %q(%q)", related.Name, idColumn(related))
	if rf.relation.InlineUnique {
		b.WriteString(" UNIQUE")
	}
	return b.String()
}

func columnDDL(field *Field) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%q %s", field.Name, pgType(field.Type))
	if field.PrimaryKey {
		b.WriteString(" PRIMARY KEY")
	}
	if field.Unique && !field.PrimaryKey {
		b.WriteString(" UNIQUE")
	}
	if !field.Nullable && !field.PrimaryKey {
		b.WriteString(" NOT NULL")
	}
	if field.Default != nil {
		fmt.Fprintf(&b, " DEFAULT %v", *field.Default)
	}
	return b.String()
}

func pgType(t FieldType) string {
	switch t {
	case FieldTypeUUID:
		return "UUID"
	case FieldTypeString:
		return "TEXT"
	case FieldTypeInt:
		return "INTEGER"
	case FieldTypeDecimal:
		return "NUMERIC"
	case FieldTypeBool:
		return "BOOLEAN"
	case FieldTypeTimestamp:
		return "TIMESTAMPTZ"
	default:
		return "TEXT"
	}
}

func writeScalarListTable(b *strings.Builder, model *Model, field *Field) {
	table := field.ScalarListTable(model)
	fmt.Fprintf(b, "CREATE TABLE %q (\n", table)
	fmt.Fprintf(b, "    %q UUID NOT NULL REFERENCES %q(%q),\n", "nodeId", model.Name, idColumn(model))
	b.WriteString("    \"position\" INTEGER NOT NULL,\n")
	fmt.Fprintf(b, "    %q %s NOT NULL,\n", "value", pgType(field.Type))
	b.WriteString("    PRIMARY KEY (\"nodeId\", \"position\")\n")
	b.WriteString(");\n\n")
}

func writeJoinTable(b *strings.Builder, rel *Relation) {
	fmt.Fprintf(b, "CREATE TABLE %q (\n", rel.TableName)
	fmt.Fprintf(b, "    %q UUID NOT NULL,\n", rel.ColumnA)
	fmt.Fprintf(b, "    %q UUID NOT NULL,\n", rel.ColumnB)
	fmt.Fprintf(b, "    PRIMARY KEY (%q, %q)\n", rel.ColumnA, rel.ColumnB)
	b.WriteString(");\n\n")
}

func idColumn(model *Model) string {
	if f := model.IDField(); f != nil {
		return f.Name
	}
	return "id"
}
