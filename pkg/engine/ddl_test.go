package engine

import (
	"strings"
	"testing"
)

func ddlTestSchema() *Schema {
	s := &Schema{
		Models: map[string]*Model{
			"User": {
				Name:       "User",
				FieldOrder: []string{"id", "email"},
				Fields: map[string]*Field{
					"id":    {Name: "id", Type: FieldTypeUUID, PrimaryKey: true},
					"email": {Name: "email", Type: FieldTypeString, Unique: true},
				},
				RelationOrder: []string{"orders"},
				Relations: map[string]*RelationField{
					"orders": {Name: "orders", ModelName: "User", RelatedModelName: "Order", OppositeName: "user", IsList: true},
				},
			},
			"Order": {
				Name:       "Order",
				FieldOrder: []string{"id", "total"},
				Fields: map[string]*Field{
					"id":    {Name: "id", Type: FieldTypeUUID, PrimaryKey: true},
					"total": {Name: "total", Type: FieldTypeDecimal},
				},
				RelationOrder: []string{"user", "tags"},
				Relations: map[string]*RelationField{
					"user": {Name: "user", ModelName: "Order", RelatedModelName: "User", OppositeName: "orders", IsRequired: true},
					"tags": {Name: "tags", ModelName: "Order", RelatedModelName: "Tag", OppositeName: "orders", IsList: true},
				},
			},
			"Tag": {
				Name:       "Tag",
				FieldOrder: []string{"id", "label"},
				Fields: map[string]*Field{
					"id":    {Name: "id", Type: FieldTypeUUID, PrimaryKey: true},
					"label": {Name: "label", Type: FieldTypeString},
				},
				RelationOrder: []string{"orders"},
				Relations: map[string]*RelationField{
					"orders": {Name: "orders", ModelName: "Tag", RelatedModelName: "Order", OppositeName: "tags", IsList: true},
				},
			},
		},
		Relations: map[string]*Relation{
			"userOnOrder": {
				Name: "userOnOrder", ModelAName: "Order", ModelBName: "User",
				Inline: Inlined, InlineModel: "Order", InlineColumn: "userId", InlineUnique: false,
			},
			"tagsOnOrder": {
				Name: "tagsOnOrder", ModelAName: "Order", ModelBName: "Tag",
				Inline: NotInlined, TableName: "_tagsOnOrder", ColumnA: "A", ColumnB: "B",
			},
		},
	}
	s.Models["User"].Relations["orders"].RelationName = "userOnOrder"
	s.Models["Order"].Relations["user"].RelationName = "userOnOrder"
	s.Models["Order"].Relations["tags"].RelationName = "tagsOnOrder"
	s.Models["Tag"].Relations["orders"].RelationName = "tagsOnOrder"
	s.Bind()
	return s
}

func TestGenerateDDL_InlineForeignKey(t *testing.T) {
	ddl := GenerateDDL(ddlTestSchema())

	if !strings.Contains(ddl, `CREATE TABLE "Order"`) {
		t.Fatalf("expected an Order table, got:\n%s", ddl)
	}
	if !strings.Contains(ddl, `"userId" UUID NOT NULL REFERENCES "User"("id")`) {
		t.Errorf("expected Order to carry the inline userId FK column, got:\n%s", ddl)
	}
}

func TestGenerateDDL_JoinTable(t *testing.T) {
	ddl := GenerateDDL(ddlTestSchema())

	if !strings.Contains(ddl, `CREATE TABLE "_tagsOnOrder"`) {
		t.Fatalf("expected a join table for the Order/Tag relation, got:\n%s", ddl)
	}
	if !strings.Contains(ddl, `"A" UUID NOT NULL`) || !strings.Contains(ddl, `"B" UUID NOT NULL`) {
		t.Errorf("expected join table with A/B columns, got:\n%s", ddl)
	}
}

func TestGenerateDDL_ScalarListGetsAuxiliaryTable(t *testing.T) {
	schema := ddlTestSchema()
	schema.Models["Tag"].Fields["aliases"] = &Field{Name: "aliases", Type: FieldTypeString, IsList: true}
	schema.Models["Tag"].FieldOrder = append(schema.Models["Tag"].FieldOrder, "aliases")

	ddl := GenerateDDL(schema)

	if !strings.Contains(ddl, `CREATE TABLE "Tag_aliases"`) {
		t.Errorf("expected an auxiliary table for the scalar-list field, got:\n%s", ddl)
	}

	tagTableStart := strings.Index(ddl, `CREATE TABLE "Tag" (`)
	tagTableEnd := strings.Index(ddl[tagTableStart:], ");")
	tagTableDDL := ddl[tagTableStart : tagTableStart+tagTableEnd]
	if strings.Contains(tagTableDDL, `"aliases"`) {
		t.Errorf("aliases must not also appear as a column on Tag itself, got:\n%s", tagTableDDL)
	}
}
