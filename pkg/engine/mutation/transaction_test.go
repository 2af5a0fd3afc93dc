package mutation

import (
	"context"
	"testing"

	"github.com/chameleon-db/chameleondb/chameleon/pkg/engine"
)

func intPKSchema() *engine.Schema {
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
	return schema
}

// Transaction.Insert must adopt the id the database assigns via
// RETURNING, not the zero-valued placeholder the caller built the
// statement with.
func TestTransaction_Insert_AdoptsReturnedID(t *testing.T) {
	schema := intPKSchema()
	model := schema.GetModel("Counter")

	fq := &fakeQuerier{
		onQuery: func(sql string, args []interface{}) ([]map[string]interface{}, error) {
			return []map[string]interface{}{{"id": int64(42)}}, nil
		},
	}
	tx := newTestTransaction(fq, schema)

	placeholder := Identifier{Kind: IdentifierInt, Pending: true}
	ins := CreateNodeStmt(model, placeholder, map[string]interface{}{"label": "x"})

	adopted, err := tx.Insert(context.Background(), ins, placeholder)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if adopted.Kind != IdentifierInt || adopted.Int != 42 {
		t.Errorf("expected adopted id 42, got %+v", adopted)
	}
}

// A non-pending id must take the plain Exec path and echo the id the
// caller already had, with no Query call.
func TestTransaction_Insert_NonPendingUsesExec(t *testing.T) {
	schema := intPKSchema()
	model := schema.GetModel("Counter")

	var execRan bool
	fq := &fakeQuerier{
		onExec: func(sql string, args []interface{}) (int64, error) {
			execRan = true
			return 1, nil
		},
		onQuery: func(sql string, args []interface{}) ([]map[string]interface{}, error) {
			t.Fatal("expected no Query call for a non-pending insert")
			return nil, nil
		},
	}
	tx := newTestTransaction(fq, schema)

	id := IntIdentifier(7)
	ins := CreateNodeStmt(model, id, map[string]interface{}{"label": "x"})

	got, err := tx.Insert(context.Background(), ins, id)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !execRan {
		t.Error("expected Exec to run")
	}
	if got.Int != 7 {
		t.Errorf("expected echoed id 7, got %+v", got)
	}
}
