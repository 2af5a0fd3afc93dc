package mutation

import (
	"context"
	"fmt"
	"strings"
	"testing"
)

// newExecutorFake builds a routed fakeQuerier for executor tests: Exec calls
// are appended to a log for assertions on statement order (the fixed
// nine-group nested dispatch order), Query calls are answered by the
// first matching substring rule.
type queryRule struct {
	contains string
	rows     []map[string]interface{}
	err      error
}

func newExecutorFake(rules []queryRule) (*fakeQuerier, *[]string) {
	var execLog []string
	fq := &fakeQuerier{
		onExec: func(sql string, args []interface{}) (int64, error) {
			execLog = append(execLog, sql)
			return 1, nil
		},
		onQuery: func(sql string, args []interface{}) ([]map[string]interface{}, error) {
			for _, r := range rules {
				if strings.Contains(sql, r.contains) {
					return r.rows, r.err
				}
			}
			return nil, fmt.Errorf("unrouted query in test: %s", sql)
		},
	}
	return fq, &execLog
}

// A top-level create of an Author with one nested Post create must
// insert the Author, then insert the Post with authorId folded straight
// into its column list — Post.author is inlined on Post's own table, so
// nestedCreates never issues a separate relation-wiring statement.
func TestExecutor_CreateWithNestedCreate(t *testing.T) {
	schema := testSchema()
	fq, execLog := newExecutorFake(nil)
	tx := newTestTransaction(fq, schema)

	m := TopLevelMutation{
		Kind:  KindCreateNode,
		Model: "Author",
		Args:  NodeArgs{Fields: map[string]interface{}{"name": "Ada"}},
		Nested: []NestedMutations{
			{
				RelationField: "posts",
				Creates: []CreateNode{
					{Model: "Post", Args: NodeArgs{Fields: map[string]interface{}{"title": "Hello"}}},
				},
			},
		},
	}

	res, err := Execute(context.Background(), tx, nil, schema, m)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Affected != 1 {
		t.Errorf("expected affected 1, got %d", res.Affected)
	}

	log := *execLog
	if len(log) != 2 {
		t.Fatalf("expected 2 exec statements, got %d: %v", len(log), log)
	}
	if indexOf(log[0], `INSERT INTO "Author"`) < 0 {
		t.Errorf("expected first statement to insert Author, got: %s", log[0])
	}
	if indexOf(log[1], `INSERT INTO "Post"`) < 0 {
		t.Errorf("expected second statement to insert Post, got: %s", log[1])
	}
	if indexOf(log[1], `"authorId"`) < 0 {
		t.Errorf("expected Post insert to carry authorId, got: %s", log[1])
	}
}

// Deleting an Author that still has a connected (required) Post must
// fail the Integrity Guard before any delete statement runs.
func TestExecutor_DeleteOne_RelationViolation(t *testing.T) {
	schema := testSchema()
	authorID := mustUUID(t)

	rules := []queryRule{
		{contains: `FROM "Author"`, rows: []map[string]interface{}{{"id": authorID.Value()}}},
		{contains: `FROM "Post"`, rows: []map[string]interface{}{{"id": mustUUID(t).Value()}}},
	}
	fq, execLog := newExecutorFake(rules)
	tx := newTestTransaction(fq, schema)

	m := TopLevelMutation{
		Kind:     KindDeleteNode,
		Model:    "Author",
		Selector: NodeSelector{Field: "id", Value: authorID.Value()},
	}

	_, err := Execute(context.Background(), tx, nil, schema, m)
	rv, ok := err.(*RelationViolation)
	if !ok {
		t.Fatalf("expected *RelationViolation, got %T: %v", err, err)
	}
	if rv.RelationName != "AuthorPosts" {
		t.Errorf("unexpected relation name: %s", rv.RelationName)
	}
	if len(*execLog) != 0 {
		t.Errorf("expected no delete statements to run, got: %v", *execLog)
	}
}

// Deleting an Author with no connected Post succeeds and issues exactly
// the one delete statement Author's shape needs (no join tables, no
// scalar-list tables on Author).
func TestExecutor_DeleteOne_Success(t *testing.T) {
	schema := testSchema()
	authorID := mustUUID(t)

	rules := []queryRule{
		{contains: `FROM "Author"`, rows: []map[string]interface{}{{"id": authorID.Value()}}},
		{contains: `FROM "Post"`, rows: nil},
	}
	fq, execLog := newExecutorFake(rules)
	tx := newTestTransaction(fq, schema)

	m := TopLevelMutation{
		Kind:     KindDeleteNode,
		Model:    "Author",
		Selector: NodeSelector{Field: "id", Value: authorID.Value()},
	}

	res, err := Execute(context.Background(), tx, nil, schema, m)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Affected != 1 {
		t.Errorf("expected affected 1, got %d", res.Affected)
	}
	log := *execLog
	if len(log) != 1 || indexOf(log[0], `DELETE FROM "Author"`) < 0 {
		t.Fatalf("expected exactly one Author delete, got: %v", log)
	}
}

// Nested delete of a Post under a connected Author: since Post has no
// required incoming relation, the guard never probes, and all three
// of Post's delete statements (join table, scalar list, model row) run.
func TestExecutor_NestedDelete_Success(t *testing.T) {
	schema := testSchema()
	authorID := mustUUID(t)
	postID := mustUUID(t)

	rules := []queryRule{
		{contains: `FROM "Author" WHERE "id"`, rows: []map[string]interface{}{{"id": authorID.Value()}}},
		{contains: `FROM "Post" WHERE "authorId" = $1 AND "title" = $2`, rows: []map[string]interface{}{{"id": postID.Value()}}},
	}
	fq, execLog := newExecutorFake(rules)
	tx := newTestTransaction(fq, schema)

	m := TopLevelMutation{
		Kind:     KindUpdateNode,
		Model:    "Author",
		Selector: NodeSelector{Field: "id", Value: authorID.Value()},
		Nested: []NestedMutations{
			{
				RelationField: "posts",
				Deletes: []DeleteNode{
					{Model: "Post", Selector: NodeSelector{Field: "title", Value: "Hello"}},
				},
			},
		},
	}

	_, err := Execute(context.Background(), tx, nil, schema, m)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	log := *execLog
	if len(log) != 3 {
		t.Fatalf("expected 3 delete statements for Post, got %d: %v", len(log), log)
	}
	var sawJoin, sawScalar, sawModel bool
	for _, sql := range log {
		switch {
		case indexOf(sql, `"_PostCategories"`) >= 0:
			sawJoin = true
		case indexOf(sql, `"Post_labels"`) >= 0:
			sawScalar = true
		case indexOf(sql, `FROM "Post"`) >= 0:
			sawModel = true
		}
	}
	if !sawJoin || !sawScalar || !sawModel {
		t.Errorf("expected join/scalar/model deletes, got: %v", log)
	}
}

// A nested delete whose selector matches nothing connected to the
// parent surfaces NodesNotConnected enriched with the parent's
// identity, not a bare "not found".
func TestExecutor_NestedDelete_NotConnected(t *testing.T) {
	schema := testSchema()
	authorID := mustUUID(t)

	rules := []queryRule{
		{contains: `FROM "Author" WHERE "id"`, rows: []map[string]interface{}{{"id": authorID.Value()}}},
		{contains: `FROM "Post" WHERE "authorId"`, rows: nil},
	}
	fq, _ := newExecutorFake(rules)
	tx := newTestTransaction(fq, schema)

	m := TopLevelMutation{
		Kind:     KindUpdateNode,
		Model:    "Author",
		Selector: NodeSelector{Field: "id", Value: authorID.Value()},
		Nested: []NestedMutations{
			{
				RelationField: "posts",
				Deletes: []DeleteNode{
					{Model: "Post", Selector: NodeSelector{Field: "title", Value: "Missing"}},
				},
			},
		},
	}

	_, err := Execute(context.Background(), tx, nil, schema, m)
	nc, ok := err.(*NodesNotConnected)
	if !ok {
		t.Fatalf("expected *NodesNotConnected, got %T: %v", err, err)
	}
	if nc.ParentWhere == "" {
		t.Error("expected ParentWhere to be enriched with the parent's identity")
	}
	if indexOf(nc.ParentWhere, "Author.id") < 0 {
		t.Errorf("expected ParentWhere to reference Author.id, got: %s", nc.ParentWhere)
	}
}

// A disconnect that would strand Post's required author link raises
// RelationViolation before the disconnect write runs.
func TestExecutor_NestedDisconnect_RequiredCheckBlocks(t *testing.T) {
	schema := testSchema()
	authorID := mustUUID(t)
	postID := mustUUID(t)

	rules := []queryRule{
		{contains: `FROM "Author" WHERE "id"`, rows: []map[string]interface{}{{"id": authorID.Value()}}},
		// FindIDByParent for the disconnect selector.
		{contains: `FROM "Post" WHERE "authorId" = $1 AND "title" = $2`, rows: []map[string]interface{}{{"id": postID.Value()}}},
		// RequiredCheck's own FindIDByParent (no selector) still finds a partner.
		{contains: `FROM "Post" WHERE "authorId" = $1 LIMIT 1`, rows: []map[string]interface{}{{"id": postID.Value()}}},
	}
	fq, execLog := newExecutorFake(rules)
	tx := newTestTransaction(fq, schema)

	m := TopLevelMutation{
		Kind:     KindUpdateNode,
		Model:    "Author",
		Selector: NodeSelector{Field: "id", Value: authorID.Value()},
		Nested: []NestedMutations{
			{
				RelationField: "posts",
				Disconnects:   []NodeSelector{{Field: "title", Value: "Hello"}},
			},
		},
	}

	_, err := Execute(context.Background(), tx, nil, schema, m)
	if _, ok := err.(*RelationViolation); !ok {
		t.Fatalf("expected *RelationViolation, got %T: %v", err, err)
	}
	if len(*execLog) != 0 {
		t.Errorf("expected no write statements before the violation, got: %v", *execLog)
	}
}

// Unknown entity/relation names surface the package's own validation
// error taxonomy rather than a generic error.
func TestExecutor_UnknownEntity(t *testing.T) {
	schema := testSchema()
	fq, _ := newExecutorFake(nil)
	tx := newTestTransaction(fq, schema)

	m := TopLevelMutation{Kind: KindCreateNode, Model: "Nope", Args: NodeArgs{}}
	_, err := Execute(context.Background(), tx, nil, schema, m)
	if _, ok := err.(*UnknownEntityError); !ok {
		t.Fatalf("expected *UnknownEntityError, got %T: %v", err, err)
	}
}

func TestExecutor_UnknownRelationField(t *testing.T) {
	schema := testSchema()
	fq, _ := newExecutorFake(nil)
	tx := newTestTransaction(fq, schema)

	m := TopLevelMutation{
		Kind:  KindCreateNode,
		Model: "Author",
		Args:  NodeArgs{Fields: map[string]interface{}{"name": "Ada"}},
		Nested: []NestedMutations{
			{RelationField: "nope", Creates: []CreateNode{{Model: "Post"}}},
		},
	}
	_, err := Execute(context.Background(), tx, nil, schema, m)
	if _, ok := err.(*UnknownFieldError); !ok {
		t.Fatalf("expected *UnknownFieldError, got %T: %v", err, err)
	}
}
