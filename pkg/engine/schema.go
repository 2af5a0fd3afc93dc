package engine

import "encoding/json"

// Schema is the read-only, already-loaded model metadata the mutation
// core is handed by its caller. Producing it (parsing .cham files,
// resolving relation pairs) is the schema loader's job, not the core's;
// see internal/schema.
type Schema struct {
	Models    map[string]*Model    `json:"models"`
	Relations map[string]*Relation `json:"relations"`
}

// Model represents one physical table and its scalar + relation fields.
type Model struct {
	Name string `json:"name"`

	// FieldOrder preserves declaration order; builders rely on it for
	// deterministic column ordering.
	FieldOrder []string          `json:"field_order"`
	Fields     map[string]*Field `json:"fields"`

	RelationOrder []string                  `json:"relation_order"`
	Relations     map[string]*RelationField `json:"relations"`

	schema *Schema
}

// Field represents a scalar column. IsList marks a scalar-list field
// backed by an auxiliary `{model}_{field}` table instead of a column.
type Field struct {
	Name       string       `json:"name"`
	Type       FieldType    `json:"field_type"`
	Nullable   bool         `json:"nullable"`
	Unique     bool         `json:"unique"`
	PrimaryKey bool         `json:"primary_key"`
	IsList     bool         `json:"is_list"`
	Default    *interface{} `json:"default,omitempty"`
}

// FieldType represents the scalar type of a field.
type FieldType string

const (
	FieldTypeUUID      FieldType = "UUID"
	FieldTypeString    FieldType = "String"
	FieldTypeInt       FieldType = "Int"
	FieldTypeDecimal   FieldType = "Decimal"
	FieldTypeBool      FieldType = "Bool"
	FieldTypeTimestamp FieldType = "Timestamp"
)

// InlineSide identifies which side of a relation carries a physical
// foreign-key column, when the relation isn't represented by a
// dedicated join table.
type InlineSide int

const (
	// NotInlined means the relation owns a dedicated join table (`A`,`B` columns).
	NotInlined InlineSide = iota
	// Inlined means one model's table carries the other's id directly.
	Inlined
)

// Relation is the physical representation shared by a pair of opposite
// RelationFields.
type Relation struct {
	Name       string `json:"name"`
	ModelAName string `json:"model_a"`
	ModelBName string `json:"model_b"`

	// Dedicated join-table representation (used when Inline == NotInlined).
	TableName string `json:"table_name,omitempty"`
	ColumnA   string `json:"column_a,omitempty"`
	ColumnB   string `json:"column_b,omitempty"`

	// Inlined foreign-key representation.
	Inline        InlineSide `json:"inline"`
	InlineModel   string     `json:"inline_model,omitempty"`  // which model's table carries the column
	InlineColumn  string     `json:"inline_column,omitempty"` // the column name
	InlineUnique  bool       `json:"inline_unique,omitempty"` // true for 1-1 inlined relations
}

// RelationTable returns the dedicated join table name, if any.
func (r *Relation) RelationTable() string { return r.TableName }

// RelationField describes one end of a relation as it appears on a
// model (e.g. User.posts and its opposite Post.author).
type RelationField struct {
	Name             string `json:"name"`
	ModelName        string `json:"model"`
	RelatedModelName string `json:"related_model"`
	OppositeName     string `json:"opposite"`
	IsList           bool   `json:"is_list"`
	IsRequired       bool   `json:"is_required"`
	RelationName     string `json:"relation_name"`

	relation *Relation
	schema   *Schema
}

// ── Schema accessors ───────────────────────────────────────────────

// GetModel returns a model by name, or nil if not found.
func (s *Schema) GetModel(name string) *Model {
	if m, ok := s.Models[name]; ok {
		return m
	}
	return nil
}

// GetEntity is kept as an alias of GetModel for callers still speaking
// the "entity" vocabulary used elsewhere (the CLI, mostly).
func (s *Schema) GetEntity(name string) *Model { return s.GetModel(name) }

// FieldsRequiringModel returns every RelationField, anywhere in the
// schema, whose related model is m and which is declared required.
// This drives the Integrity Guard (component D).
func (s *Schema) FieldsRequiringModel(m *Model) []*RelationField {
	var out []*RelationField
	for _, model := range s.Models {
		for _, name := range model.RelationOrder {
			rf := model.Relations[name]
			if rf.RelatedModelName == m.Name && rf.IsRequired {
				out = append(out, rf)
			}
		}
	}
	return out
}

// bind resolves back-references (schema/model pointers, relation
// lookups by name) after a Schema is deserialized or hand-built.
// Schema and model loading lives outside this module's scope; bind is
// the one seam every constructor (JSON, the .cham parser, tests) must
// call before handing a Schema to the mutation core.
func (s *Schema) Bind() {
	for _, m := range s.Models {
		m.schema = s
		for _, rf := range m.Relations {
			rf.schema = s
			rf.relation = s.Relations[rf.RelationName]
		}
	}
}

// ── Model accessors ────────────────────────────────────────────────

// IDField returns the model's identifier field.
func (m *Model) IDField() *Field {
	for _, name := range m.FieldOrder {
		if f := m.Fields[name]; f.PrimaryKey {
			return f
		}
	}
	return nil
}

// FindScalar looks up a scalar field by name.
func (m *Model) FindScalar(name string) *Field {
	return m.Fields[name]
}

// Schema returns the schema this model belongs to.
func (m *Model) Schema() *Schema { return m.schema }

// ScalarListTable returns the auxiliary table name backing a
// scalar-list field: `{model}_{field}`.
func (f *Field) ScalarListTable(model *Model) string {
	return model.Name + "_" + f.Name
}

// ── RelationField accessors ────────────────────────────────────────

func (rf *RelationField) Model() *Model        { return rf.schema.GetModel(rf.ModelName) }
func (rf *RelationField) RelatedModel() *Model { return rf.schema.GetModel(rf.RelatedModelName) }

// RelatedField returns this relation field's opposite.
func (rf *RelationField) RelatedField() *RelationField {
	return rf.RelatedModel().Relations[rf.OppositeName]
}

func (rf *RelationField) Relation() *Relation { return rf.relation }

// RelationColumn returns the join-table column that refers to rf's own
// model (used only when Relation() is a dedicated join table).
func (rf *RelationField) RelationColumn() string {
	r := rf.relation
	if r.ModelAName == rf.ModelName {
		return r.ColumnA
	}
	return r.ColumnB
}

// OppositeColumn returns the join-table column that refers to the
// related model.
func (rf *RelationField) OppositeColumn() string {
	r := rf.relation
	if r.ModelAName == rf.ModelName {
		return r.ColumnB
	}
	return r.ColumnA
}

// InlinedInChild reports whether the foreign key lives on the related
// (nested/child) model's table — the common 1-n shape, e.g. Post.authorId
// referencing User when traversing from User.posts.
func (rf *RelationField) InlinedInChild() bool {
	return rf.relation.Inline == Inlined && rf.relation.InlineModel == rf.RelatedModelName
}

// InlinedInParent reports whether the foreign key lives on rf's own
// model's table — the reversed 1-1 shape.
func (rf *RelationField) InlinedInParent() bool {
	return rf.relation.Inline == Inlined && rf.relation.InlineModel == rf.ModelName
}

// Neither reports a dedicated join-table relation (n-m, or 1-n modeled
// without an inline column).
func (rf *RelationField) Neither() bool {
	return rf.relation.Inline == NotInlined
}

// InlineFKColumn returns the table/column pair a physical foreign key
// occupies, from whichever model's table actually carries it.
func (rf *RelationField) InlineFKColumn() (table, column string, ok bool) {
	if rf.relation.Inline != Inlined {
		return "", "", false
	}
	return rf.relation.InlineModel, rf.relation.InlineColumn, true
}

// ParseSchemaJSON parses a JSON string into a Schema.
func ParseSchemaJSON(jsonStr string) (*Schema, error) {
	var schema Schema
	if err := json.Unmarshal([]byte(jsonStr), &schema); err != nil {
		return nil, err
	}
	schema.Bind()
	return &schema, nil
}

// ToJSON converts a Schema to JSON string.
func (s *Schema) ToJSON() (string, error) {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}
