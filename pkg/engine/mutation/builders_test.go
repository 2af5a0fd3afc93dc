package mutation

import (
	"testing"

	"github.com/chameleon-db/chameleondb/chameleon/pkg/engine"
	"github.com/google/uuid"
)

// testSchema wires a small Author/Post/Category graph exercising both
// relation shapes the builders branch on: Post.author is inlined (FK on
// Post), Post.categories is a dedicated join table.
func testSchema() *engine.Schema {
	schema := &engine.Schema{
		Models: map[string]*engine.Model{
			"Author": {
				Name:       "Author",
				FieldOrder: []string{"id", "name"},
				Fields: map[string]*engine.Field{
					"id":   {Name: "id", Type: engine.FieldTypeUUID, PrimaryKey: true},
					"name": {Name: "name", Type: engine.FieldTypeString},
				},
				RelationOrder: []string{"posts"},
				Relations: map[string]*engine.RelationField{
					"posts": {Name: "posts", ModelName: "Author", RelatedModelName: "Post", OppositeName: "author", IsList: true, IsRequired: false, RelationName: "AuthorPosts"},
				},
			},
			"Post": {
				Name:       "Post",
				FieldOrder: []string{"id", "title", "labels"},
				Fields: map[string]*engine.Field{
					"id":     {Name: "id", Type: engine.FieldTypeUUID, PrimaryKey: true},
					"title":  {Name: "title", Type: engine.FieldTypeString},
					"labels": {Name: "labels", Type: engine.FieldTypeString, IsList: true},
				},
				RelationOrder: []string{"author", "categories"},
				Relations: map[string]*engine.RelationField{
					"author":     {Name: "author", ModelName: "Post", RelatedModelName: "Author", OppositeName: "posts", IsList: false, IsRequired: true, RelationName: "AuthorPosts"},
					"categories": {Name: "categories", ModelName: "Post", RelatedModelName: "Category", OppositeName: "posts", IsList: true, IsRequired: false, RelationName: "PostCategories"},
				},
			},
			"Category": {
				Name:       "Category",
				FieldOrder: []string{"id", "name"},
				Fields: map[string]*engine.Field{
					"id":   {Name: "id", Type: engine.FieldTypeUUID, PrimaryKey: true},
					"name": {Name: "name", Type: engine.FieldTypeString},
				},
				RelationOrder: []string{"posts"},
				Relations: map[string]*engine.RelationField{
					"posts": {Name: "posts", ModelName: "Category", RelatedModelName: "Post", OppositeName: "categories", IsList: true, IsRequired: false, RelationName: "PostCategories"},
				},
			},
		},
		Relations: map[string]*engine.Relation{
			"AuthorPosts": {
				Name: "AuthorPosts", ModelAName: "Author", ModelBName: "Post",
				Inline: engine.Inlined, InlineModel: "Post", InlineColumn: "authorId",
			},
			"PostCategories": {
				Name: "PostCategories", ModelAName: "Category", ModelBName: "Post",
				TableName: "_PostCategories", ColumnA: "A", ColumnB: "B", Inline: engine.NotInlined,
			},
		},
	}
	schema.Bind()
	return schema
}

func mustUUID(t *testing.T) Identifier {
	t.Helper()
	return Identifier{Kind: IdentifierUUID, UUID: uuid.New()}
}

// CreateNodeStmt must be pure: identical inputs produce identical SQL
// and argument order, independent of the caller's map iteration order.
func TestCreateNodeStmt_Deterministic(t *testing.T) {
	schema := testSchema()
	model := schema.GetModel("Post")
	id := mustUUID(t)
	fields := map[string]interface{}{"title": "hello", "labels": nil}

	first := CreateNodeStmt(model, id, fields)
	second := CreateNodeStmt(model, id, fields)

	if first.SQL != second.SQL {
		t.Fatalf("SQL not stable across calls:\n%s\n%s", first.SQL, second.SQL)
	}
	for i := range first.Args {
		if first.Args[i] != second.Args[i] {
			t.Fatalf("args diverged at %d: %v != %v", i, first.Args[i], second.Args[i])
		}
	}
}

func TestCreateNodeStmt_ColumnOrderFollowsFieldOrder(t *testing.T) {
	schema := testSchema()
	model := schema.GetModel("Post")
	id := mustUUID(t)
	// Map iteration order is randomized by Go; FieldOrder is id, title,
	// labels — the id column (appended by the builder) must still sort
	// before "title" in the emitted SQL.
	fields := map[string]interface{}{"title": "hello"}

	ins := CreateNodeStmt(model, id, fields)
	idPos := indexOf(ins.SQL, `"id"`)
	titlePos := indexOf(ins.SQL, `"title"`)
	if idPos < 0 || titlePos < 0 || idPos > titlePos {
		t.Fatalf("expected id column before title, got SQL: %s", ins.SQL)
	}
	if ins.IDField != "id" {
		t.Errorf("expected IDField 'id', got %q", ins.IDField)
	}
}

func indexOf(s, sub string) int {
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return i
		}
	}
	return -1
}

func TestUpdateOneStmt(t *testing.T) {
	schema := testSchema()
	model := schema.GetModel("Post")
	id := mustUUID(t)

	upd := UpdateOneStmt(model, id, map[string]interface{}{"title": "new title"})
	if upd.Args[len(upd.Args)-1] != id.Value() {
		t.Errorf("expected id to be the last bound argument, got %v", upd.Args)
	}
	if indexOf(upd.SQL, `WHERE "id" = $`) < 0 {
		t.Errorf("expected WHERE on id column, got SQL: %s", upd.SQL)
	}
}

func TestUpdateManyStmt_FiltersChunkOpIn(t *testing.T) {
	schema := testSchema()
	model := schema.GetModel("Post")

	filter := Filter{Field: "title", Op: OpIn, Value: []interface{}{"a", "b", "c"}}
	upd := UpdateManyStmt(model, []Filter{filter}, map[string]interface{}{"title": "x"})

	if indexOf(upd.SQL, `"title" IN (`) < 0 {
		t.Errorf("expected IN clause, got SQL: %s", upd.SQL)
	}
	if len(upd.Args) != 4 { // 1 SET value + 3 IN values
		t.Errorf("expected 4 args, got %d: %v", len(upd.Args), upd.Args)
	}
}

func TestDeleteManyStmts_OrdersJoinTableBeforeModel(t *testing.T) {
	schema := testSchema()
	model := schema.GetModel("Post")
	ids := []Identifier{mustUUID(t), mustUUID(t)}

	stmts := DeleteManyStmts(model, ids)
	if len(stmts) == 0 {
		t.Fatal("expected at least one delete statement")
	}

	joinIdx, scalarIdx, modelIdx := -1, -1, -1
	for i, s := range stmts {
		switch {
		case indexOf(s.SQL, `"_PostCategories"`) >= 0:
			joinIdx = i
		case indexOf(s.SQL, `"Post_labels"`) >= 0:
			scalarIdx = i
		case indexOf(s.SQL, `FROM "Post"`) >= 0:
			modelIdx = i
		}
	}
	if joinIdx < 0 || scalarIdx < 0 || modelIdx < 0 {
		t.Fatalf("missing expected delete statement among: %+v", stmts)
	}
	if !(joinIdx < modelIdx && scalarIdx < modelIdx) {
		t.Errorf("expected join-table and scalar-list deletes before the model delete, got order: join=%d scalar=%d model=%d", joinIdx, scalarIdx, modelIdx)
	}
}

func TestCreateRelationStmt_InlinedInChild(t *testing.T) {
	schema := testSchema()
	author := schema.GetModel("Author")
	rf := author.Relations["posts"]
	parent := mustUUID(t)
	child := mustUUID(t)

	w := CreateRelationStmt(rf, parent, child)
	if indexOf(w.SQL, `UPDATE "Post" SET "authorId" = $1 WHERE "id" = $2`) < 0 {
		t.Errorf("unexpected SQL: %s", w.SQL)
	}
	if w.Args[0] != parent.Value() || w.Args[1] != child.Value() {
		t.Errorf("unexpected args: %v", w.Args)
	}
}

func TestCreateRelationStmt_JoinTable(t *testing.T) {
	schema := testSchema()
	post := schema.GetModel("Post")
	rf := post.Relations["categories"]
	parent := mustUUID(t) // a Post id
	child := mustUUID(t)  // a Category id

	w := CreateRelationStmt(rf, parent, child)
	if indexOf(w.SQL, `INSERT INTO "_PostCategories"`) < 0 {
		t.Errorf("unexpected SQL: %s", w.SQL)
	}
	// Category is ModelA, so column A must receive the child (Category) id.
	if w.Args[0] != child.Value() || w.Args[1] != parent.Value() {
		t.Errorf("expected (child, parent) column order for A/B, got %v", w.Args)
	}
}

func TestClearRelationByParentStmt_InlinedInChild(t *testing.T) {
	schema := testSchema()
	author := schema.GetModel("Author")
	rf := author.Relations["posts"]
	parent := mustUUID(t)

	w := ClearRelationByParentStmt(rf, parent)
	if indexOf(w.SQL, `UPDATE "Post" SET "authorId" = NULL WHERE "authorId" = $1`) < 0 {
		t.Errorf("unexpected SQL: %s", w.SQL)
	}
}

func TestScalarListRoundTrip(t *testing.T) {
	schema := testSchema()
	model := schema.GetModel("Post")
	field := model.FindScalar("labels")
	id := mustUUID(t)

	del := DeleteScalarListValuesStmt(model, field, id)
	if indexOf(del.SQL, `DELETE FROM "Post_labels"`) < 0 {
		t.Errorf("unexpected delete SQL: %s", del.SQL)
	}

	ins := CreateScalarListValueStmt(model, field, id, []interface{}{"a", "b"})
	if indexOf(ins.SQL, `VALUES ($1, $2, $3), ($4, $5, $6)`) < 0 {
		t.Errorf("unexpected insert SQL: %s", ins.SQL)
	}

	empty := CreateScalarListValueStmt(model, field, id, nil)
	if empty.SQL != "" {
		t.Errorf("expected no-op for empty list, got SQL: %s", empty.SQL)
	}
}

// A Pending integer id must be left off the column list entirely and
// the statement must ask for it back via RETURNING, rather than binding
// a zero value that every such create would otherwise collide on.
func TestCreateNodeStmt_PendingIntIDOmitsColumnAndReturns(t *testing.T) {
	schema := &engine.Schema{
		Models: map[string]*engine.Model{
			"Counter": {
				Name:       "Counter",
				FieldOrder: []string{"id", "label"},
				Fields: map[string]*engine.Field{
					"id":    {Name: "id", Type: engine.FieldTypeInt, PrimaryKey: true},
					"label": {Name: "label", Type: engine.FieldTypeString},
				},
			},
		},
		Relations: map[string]*engine.Relation{},
	}
	schema.Bind()
	model := schema.GetModel("Counter")

	ins := CreateNodeStmt(model, Identifier{Kind: IdentifierInt, Pending: true}, map[string]interface{}{"label": "x"})
	if indexOf(ins.SQL, `"id"`) >= 0 {
		t.Errorf("expected id column to be omitted, got SQL: %s", ins.SQL)
	}
	if indexOf(ins.SQL, `RETURNING "id"`) < 0 {
		t.Errorf("expected RETURNING id clause, got SQL: %s", ins.SQL)
	}
	if !ins.Returning {
		t.Error("expected Returning to be true")
	}
	if len(ins.Args) != 1 || ins.Args[0] != "x" {
		t.Errorf("expected only the label arg to be bound, got %v", ins.Args)
	}
}

// A caller-supplied integer id must still bind normally, with no
// RETURNING clause.
func TestCreateNodeStmt_ProvidedIntIDSkipsReturning(t *testing.T) {
	schema := &engine.Schema{
		Models: map[string]*engine.Model{
			"Counter": {
				Name:       "Counter",
				FieldOrder: []string{"id", "label"},
				Fields: map[string]*engine.Field{
					"id":    {Name: "id", Type: engine.FieldTypeInt, PrimaryKey: true},
					"label": {Name: "label", Type: engine.FieldTypeString},
				},
			},
		},
		Relations: map[string]*engine.Relation{},
	}
	schema.Bind()
	model := schema.GetModel("Counter")

	ins := CreateNodeStmt(model, IntIdentifier(7), map[string]interface{}{"label": "x"})
	if indexOf(ins.SQL, `"id"`) < 0 {
		t.Errorf("expected id column to be present, got SQL: %s", ins.SQL)
	}
	if indexOf(ins.SQL, "RETURNING") >= 0 {
		t.Errorf("expected no RETURNING clause, got SQL: %s", ins.SQL)
	}
	if ins.Returning {
		t.Error("expected Returning to be false")
	}
}

func TestChunkIdentifiers(t *testing.T) {
	ids := make([]Identifier, MaxChunkSize+1)
	for i := range ids {
		ids[i] = IntIdentifier(int64(i))
	}
	chunks := ChunkIdentifiers(ids)
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}
	if len(chunks[0]) != MaxChunkSize || len(chunks[1]) != 1 {
		t.Errorf("unexpected chunk sizes: %d, %d", len(chunks[0]), len(chunks[1]))
	}
}
