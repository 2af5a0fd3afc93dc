package mutation

import (
	"context"
	"testing"
)

// Author.posts is IsList (one author, many posts), opposite Post.author
// is required+single — exactly the shape RequiredCheck guards: moving a
// post to a different author would strand the old author's required
// link if that old author had no other recourse. Since Post.author is
// the single-valued direction and Author.posts is the list direction,
// RequiredCheck is evaluated from the list side's rf (Author.posts).

func TestRequiredCheck_SkipsWhenOppositeNotRequired(t *testing.T) {
	schema := testSchema()
	post := schema.GetModel("Post")
	rf := post.Relations["categories"] // opposite (Category.posts) is not required

	called := false
	fq := &fakeQuerier{onQuery: func(sql string, args []interface{}) ([]map[string]interface{}, error) {
		called = true
		return nil, nil
	}}
	tx := newTestTransaction(fq, schema)

	if err := RequiredCheck(context.Background(), tx, rf, mustUUID(t)); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
	if called {
		t.Error("expected no probe when opposite side is not required")
	}
}

func TestRequiredCheck_ProbesWhenOppositeIsRequiredSingle(t *testing.T) {
	schema := testSchema()
	author := schema.GetModel("Author")
	rf := author.Relations["posts"] // opposite (Post.author) is required but single, not list

	// Post.author IsRequired=true, IsList=false -> this is the "required
	// single" case the check must NOT skip. To exercise the "opposite is
	// list" skip branch we need a relation field whose opposite is both
	// required AND list, which the fixture schema doesn't model (a
	// required list is meaningless for "has one partner" semantics) —
	// so this test instead documents the other skip condition using the
	// categories relation, and this one simply confirms the posts/author
	// pair drives the probe.
	probed := false
	fq := &fakeQuerier{onQuery: func(sql string, args []interface{}) ([]map[string]interface{}, error) {
		probed = true
		return nil, nil
	}}
	tx := newTestTransaction(fq, schema)

	if err := RequiredCheck(context.Background(), tx, rf, mustUUID(t)); err != nil {
		t.Fatalf("expected nil (no existing partner), got %v", err)
	}
	if !probed {
		t.Error("expected RequiredCheck to probe since Post.author is required and single")
	}
}

func TestRequiredCheck_RaisesViolationWhenPartnerExists(t *testing.T) {
	schema := testSchema()
	author := schema.GetModel("Author")
	rf := author.Relations["posts"]

	fq := &fakeQuerier{onQuery: func(sql string, args []interface{}) ([]map[string]interface{}, error) {
		return []map[string]interface{}{{"id": mustUUID(t).Value()}}, nil
	}}
	tx := newTestTransaction(fq, schema)

	err := RequiredCheck(context.Background(), tx, rf, mustUUID(t))
	rv, ok := err.(*RelationViolation)
	if !ok {
		t.Fatalf("expected *RelationViolation, got %T: %v", err, err)
	}
	if rv.RelationName != "AuthorPosts" {
		t.Errorf("unexpected relation name: %s", rv.RelationName)
	}
}

func TestRequiredCheck_NoPartner_NoViolation(t *testing.T) {
	schema := testSchema()
	author := schema.GetModel("Author")
	rf := author.Relations["posts"]

	fq := &fakeQuerier{onQuery: func(sql string, args []interface{}) ([]map[string]interface{}, error) {
		return nil, nil
	}}
	tx := newTestTransaction(fq, schema)

	if err := RequiredCheck(context.Background(), tx, rf, mustUUID(t)); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
}

func TestParentRemoval_NoopWhenRelationIsList(t *testing.T) {
	schema := testSchema()
	author := schema.GetModel("Author")
	rf := author.Relations["posts"] // IsList: true

	called := false
	fq := &fakeQuerier{onExec: func(sql string, args []interface{}) (int64, error) {
		called = true
		return 0, nil
	}}
	tx := newTestTransaction(fq, schema)

	if err := ParentRemoval(context.Background(), tx, rf, mustUUID(t)); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
	if called {
		t.Error("expected no write for a list-valued relation field")
	}
}

func TestParentRemoval_ClearsSingleValued(t *testing.T) {
	schema := testSchema()
	post := schema.GetModel("Post")
	rf := post.Relations["author"] // IsList: false

	var gotSQL string
	fq := &fakeQuerier{onExec: func(sql string, args []interface{}) (int64, error) {
		gotSQL = sql
		return 1, nil
	}}
	tx := newTestTransaction(fq, schema)

	if err := ParentRemoval(context.Background(), tx, rf, mustUUID(t)); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
	if indexOf(gotSQL, `SET "authorId" = NULL`) < 0 {
		t.Errorf("expected authorId clear, got SQL: %s", gotSQL)
	}
}

func TestChildRemoval_NoopWhenOppositeIsList(t *testing.T) {
	schema := testSchema()
	author := schema.GetModel("Author")
	rf := author.Relations["posts"] // opposite (Post.author) is not a list

	// Using categories instead: Post.categories opposite is Category.posts (IsList: true)
	post := schema.GetModel("Post")
	catRF := post.Relations["categories"]

	called := false
	fq := &fakeQuerier{onExec: func(sql string, args []interface{}) (int64, error) {
		called = true
		return 0, nil
	}}
	tx := newTestTransaction(fq, schema)

	if err := ChildRemoval(context.Background(), tx, catRF, mustUUID(t)); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
	if called {
		t.Error("expected no write when opposite side is list-valued")
	}

	_ = rf
}

func TestChildRemoval_ClearsWhenOppositeIsSingle(t *testing.T) {
	schema := testSchema()
	author := schema.GetModel("Author")
	rf := author.Relations["posts"] // opposite Post.author is single-valued

	var gotSQL string
	fq := &fakeQuerier{onExec: func(sql string, args []interface{}) (int64, error) {
		gotSQL = sql
		return 1, nil
	}}
	tx := newTestTransaction(fq, schema)

	if err := ChildRemoval(context.Background(), tx, rf, mustUUID(t)); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
	if indexOf(gotSQL, `"authorId" = NULL`) < 0 {
		t.Errorf("expected clear-by-child write, got SQL: %s", gotSQL)
	}
}

func TestRemovalByParent_AlwaysClears(t *testing.T) {
	schema := testSchema()
	author := schema.GetModel("Author")
	rf := author.Relations["posts"]

	called := false
	fq := &fakeQuerier{onExec: func(sql string, args []interface{}) (int64, error) {
		called = true
		return 1, nil
	}}
	tx := newTestTransaction(fq, schema)

	if err := RemovalByParent(context.Background(), tx, rf, mustUUID(t)); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
	if !called {
		t.Error("expected a write regardless of list-ness")
	}
}

func TestRemovalByChild_AlwaysClears(t *testing.T) {
	schema := testSchema()
	post := schema.GetModel("Post")
	rf := post.Relations["categories"]

	called := false
	fq := &fakeQuerier{onExec: func(sql string, args []interface{}) (int64, error) {
		called = true
		return 1, nil
	}}
	tx := newTestTransaction(fq, schema)

	if err := RemovalByChild(context.Background(), tx, rf, mustUUID(t)); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
	if !called {
		t.Error("expected a write")
	}
}

func TestRemovalByParentAndChild(t *testing.T) {
	schema := testSchema()
	post := schema.GetModel("Post")
	rf := post.Relations["categories"]

	var gotSQL string
	fq := &fakeQuerier{onExec: func(sql string, args []interface{}) (int64, error) {
		gotSQL = sql
		return 1, nil
	}}
	tx := newTestTransaction(fq, schema)

	if err := RemovalByParentAndChild(context.Background(), tx, rf, mustUUID(t), mustUUID(t)); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
	if indexOf(gotSQL, `"_PostCategories"`) < 0 {
		t.Errorf("expected join-table delete, got SQL: %s", gotSQL)
	}
}

func TestEnsureConnected_Found(t *testing.T) {
	schema := testSchema()
	author := schema.GetModel("Author")
	rf := author.Relations["posts"]
	childID := mustUUID(t)

	fq := &fakeQuerier{onQuery: func(sql string, args []interface{}) ([]map[string]interface{}, error) {
		return []map[string]interface{}{{"id": childID.Value()}}, nil
	}}
	tx := newTestTransaction(fq, schema)

	if err := EnsureConnected(context.Background(), tx, rf, mustUUID(t), childID); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
}

func TestEnsureConnected_NotFound(t *testing.T) {
	schema := testSchema()
	author := schema.GetModel("Author")
	rf := author.Relations["posts"]

	fq := &fakeQuerier{onQuery: func(sql string, args []interface{}) ([]map[string]interface{}, error) {
		return nil, nil
	}}
	tx := newTestTransaction(fq, schema)

	err := EnsureConnected(context.Background(), tx, rf, mustUUID(t), mustUUID(t))
	if _, ok := err.(*NodesNotConnected); !ok {
		t.Fatalf("expected *NodesNotConnected, got %T: %v", err, err)
	}
}

func TestEnsureParentIsConnected_Found(t *testing.T) {
	schema := testSchema()
	author := schema.GetModel("Author")
	rf := author.Relations["posts"]

	fq := &fakeQuerier{onQuery: func(sql string, args []interface{}) ([]map[string]interface{}, error) {
		return []map[string]interface{}{{"id": mustUUID(t).Value()}}, nil
	}}
	tx := newTestTransaction(fq, schema)

	if err := EnsureParentIsConnected(context.Background(), tx, rf, mustUUID(t)); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
}

func TestEnsureParentIsConnected_NotFound(t *testing.T) {
	schema := testSchema()
	author := schema.GetModel("Author")
	rf := author.Relations["posts"]

	fq := &fakeQuerier{onQuery: func(sql string, args []interface{}) ([]map[string]interface{}, error) {
		return nil, nil
	}}
	tx := newTestTransaction(fq, schema)

	err := EnsureParentIsConnected(context.Background(), tx, rf, mustUUID(t))
	if _, ok := err.(*NodesNotConnected); !ok {
		t.Fatalf("expected *NodesNotConnected, got %T: %v", err, err)
	}
}
