package mutation

import (
	"context"
	"fmt"

	"github.com/chameleon-db/chameleondb/chameleon/internal/journal"
	"github.com/chameleon-db/chameleondb/chameleon/pkg/engine"
)

// Mutation Executor: walks one TopLevelMutation depth first,
// dispatching each nested edge's operations in a fixed sibling-group
// order — creates, updates, deletes, upserts, connects, sets,
// disconnects, update_manys, delete_manys. Every Write/Insert/Update/
// Delete the traversal produces runs against the single Transaction
// the caller opened, so a failure partway through is rolled back whole.

// Execute runs one TopLevelMutation to completion against tx, logging
// one journal entry for the whole call (success or failure), the same
// one-entry-per-operation convention the migrate/journal commands use.
func Execute(ctx context.Context, tx *Transaction, log *journal.Logger, schema *engine.Schema, m TopLevelMutation) (result MutationResult, err error) {
	defer func() {
		if log == nil {
			return
		}
		status := "ok"
		if err != nil {
			status = "error"
		}
		_ = log.Log("mutate", status, map[string]interface{}{
			"kind":  int(m.Kind),
			"model": m.Model,
		}, err)
	}()

	switch m.Kind {
	case KindCreateNode:
		return executeCreate(ctx, tx, schema, m.Model, m.Args, m.Nested)
	case KindUpdateNode:
		return executeUpdate(ctx, tx, schema, m.Model, m.Selector, m.Args, m.Nested)
	case KindUpsertNode:
		return executeUpsert(ctx, tx, schema, m.Model, *m.Upsert)
	case KindUpdateNodes:
		return executeUpdateMany(ctx, tx, schema, m.Model, m.Filters, m.Args)
	case KindDeleteNode:
		return executeDeleteOne(ctx, tx, schema, m.Model, m.Selector)
	case KindDeleteNodes:
		return executeDeleteMany(ctx, tx, schema, m.Model, m.Filters)
	case KindResetData:
		return MutationResult{}, tx.Truncate(ctx)
	default:
		return MutationResult{}, fmt.Errorf("unknown mutation kind %d", m.Kind)
	}
}

// ExecuteRaw runs caller-supplied SQL directly against the open
// transaction — an escape hatch for reads/administration the mutation
// tree has no vocabulary for.
func ExecuteRaw(ctx context.Context, tx *Transaction, sql string, args ...interface{}) (rows, error) {
	return tx.q.Query(ctx, sql, args...)
}

func modelOf(schema *engine.Schema, name string) (*engine.Model, error) {
	model := schema.GetModel(name)
	if model == nil {
		return nil, &UnknownEntityError{Entity: name, Available: modelNames(schema)}
	}
	return model, nil
}

func modelNames(schema *engine.Schema) []string {
	var names []string
	for n := range schema.Models {
		names = append(names, n)
	}
	return names
}

// executeCreate inserts one new row (assigning a fresh identifier) and
// processes its nested mutations with the new row as parent.
func executeCreate(ctx context.Context, tx *Transaction, schema *engine.Schema, modelName string, args NodeArgs, nested []NestedMutations) (MutationResult, error) {
	model, err := modelOf(schema, modelName)
	if err != nil {
		return MutationResult{}, err
	}
	id := NewUUIDIdentifier()
	if kind := idKind(model.IDField()); kind != IdentifierUUID {
		id = existingOrGenerated(kind, args.Fields[model.IDField().Name])
	}

	ins := CreateNodeStmt(model, id, args.Fields)
	adopted, err := tx.Insert(ctx, ins, id)
	if err != nil {
		return MutationResult{}, err
	}
	id = adopted
	if err := writeScalarLists(ctx, tx, model, id, args.ListFields); err != nil {
		return MutationResult{}, err
	}
	if err := processNested(ctx, tx, schema, model, id, nested); err != nil {
		return MutationResult{}, err
	}
	return MutationResult{ID: id, Affected: 1}, nil
}

// existingOrGenerated lets a caller-supplied string id pass through
// untouched (this engine never auto-generates those). An integer id
// with no caller-supplied value is marked Pending instead: the insert
// omits the column and adopts the database-assigned value afterward.
func existingOrGenerated(kind IdentifierKind, provided interface{}) Identifier {
	if provided == nil {
		if kind == IdentifierInt {
			return Identifier{Kind: kind, Pending: true}
		}
		return Identifier{Kind: kind}
	}
	id, err := IdentifierFromValue(kind, provided)
	if err != nil {
		return Identifier{Kind: kind}
	}
	return id
}

func writeScalarLists(ctx context.Context, tx *Transaction, model *engine.Model, id Identifier, lists map[string][]interface{}) error {
	for name, values := range lists {
		field := model.FindScalar(name)
		if field == nil || !field.IsList {
			continue
		}
		if _, err := tx.Delete(ctx, DeleteScalarListValuesStmt(model, field, id)); err != nil {
			return err
		}
		if err := tx.Write(ctx, CreateScalarListValueStmt(model, field, id, values)); err != nil {
			return err
		}
	}
	return nil
}

func executeUpdate(ctx context.Context, tx *Transaction, schema *engine.Schema, modelName string, sel NodeSelector, args NodeArgs, nested []NestedMutations) (MutationResult, error) {
	model, err := modelOf(schema, modelName)
	if err != nil {
		return MutationResult{}, err
	}
	id, err := tx.FindID(ctx, model, sel)
	if err != nil {
		return MutationResult{}, err
	}
	affected := int64(0)
	if len(args.Fields) > 0 {
		affected, err = tx.Update(ctx, UpdateOneStmt(model, id, args.Fields))
		if err != nil {
			return MutationResult{}, err
		}
	}
	if err := writeScalarLists(ctx, tx, model, id, args.ListFields); err != nil {
		return MutationResult{}, err
	}
	if err := processNested(ctx, tx, schema, model, id, nested); err != nil {
		return MutationResult{}, err
	}
	return MutationResult{ID: id, Affected: affected}, nil
}

func executeUpsert(ctx context.Context, tx *Transaction, schema *engine.Schema, modelName string, up UpsertNode) (MutationResult, error) {
	model, err := modelOf(schema, modelName)
	if err != nil {
		return MutationResult{}, err
	}
	if _, err := tx.FindID(ctx, model, up.Selector); err != nil {
		if _, ok := err.(*NodeNotFoundForWhere); !ok {
			return MutationResult{}, err
		}
		return executeCreate(ctx, tx, schema, modelName, up.Create.Args, up.Create.Nested)
	}
	return executeUpdate(ctx, tx, schema, modelName, up.Selector, up.Update.Args, up.Update.Nested)
}

func executeUpdateMany(ctx context.Context, tx *Transaction, schema *engine.Schema, modelName string, filters []Filter, args NodeArgs) (MutationResult, error) {
	model, err := modelOf(schema, modelName)
	if err != nil {
		return MutationResult{}, err
	}
	var ids []Identifier
	if len(args.ListFields) > 0 {
		ids, err = tx.FilterIDs(ctx, model, filters)
		if err != nil {
			return MutationResult{}, err
		}
	}
	affected, err := tx.Update(ctx, UpdateManyStmt(model, filters, args.Fields))
	if err != nil {
		return MutationResult{}, err
	}
	for _, id := range ids {
		if err := writeScalarLists(ctx, tx, model, id, args.ListFields); err != nil {
			return MutationResult{}, err
		}
	}
	return MutationResult{Affected: affected}, nil
}

func executeDeleteOne(ctx context.Context, tx *Transaction, schema *engine.Schema, modelName string, sel NodeSelector) (MutationResult, error) {
	model, err := modelOf(schema, modelName)
	if err != nil {
		return MutationResult{}, err
	}
	id, err := tx.FindID(ctx, model, sel)
	if err != nil {
		return MutationResult{}, err
	}
	record, err := tx.FindRecord(ctx, model, id)
	if err != nil {
		return MutationResult{}, err
	}
	if err := CheckRelationViolations(ctx, tx, model, []Identifier{id}); err != nil {
		return MutationResult{}, err
	}
	affected := int64(0)
	for _, stmt := range DeleteManyStmts(model, []Identifier{id}) {
		n, err := tx.Delete(ctx, stmt)
		if err != nil {
			return MutationResult{}, err
		}
		if stmt.SQL != "" && len(stmt.Args) > 0 {
			affected += n
		}
	}
	return MutationResult{ID: id, Affected: 1, Record: record}, nil
}

func executeDeleteMany(ctx context.Context, tx *Transaction, schema *engine.Schema, modelName string, filters []Filter) (MutationResult, error) {
	model, err := modelOf(schema, modelName)
	if err != nil {
		return MutationResult{}, err
	}
	ids, err := tx.FilterIDs(ctx, model, filters)
	if err != nil {
		return MutationResult{}, err
	}
	if err := CheckRelationViolations(ctx, tx, model, ids); err != nil {
		return MutationResult{}, err
	}
	var affected int64
	for _, stmt := range DeleteManyStmts(model, ids) {
		n, err := tx.Delete(ctx, stmt)
		if err != nil {
			return MutationResult{}, err
		}
		affected += n
	}
	return MutationResult{Affected: affected}, nil
}

// processNested dispatches one parent row's nested mutations in the
// fixed group order: creates, updates, deletes, upserts, connects,
// sets, disconnects, update_manys, delete_manys.
func processNested(ctx context.Context, tx *Transaction, schema *engine.Schema, model *engine.Model, parentID Identifier, nested []NestedMutations) error {
	for _, nm := range nested {
		if err := nestedCreates(ctx, tx, schema, model, parentID, nm); err != nil {
			return err
		}
	}
	for _, nm := range nested {
		if err := nestedUpdates(ctx, tx, schema, model, parentID, nm); err != nil {
			return err
		}
	}
	for _, nm := range nested {
		if err := nestedDeletes(ctx, tx, schema, model, parentID, nm); err != nil {
			return err
		}
	}
	for _, nm := range nested {
		if err := nestedUpserts(ctx, tx, schema, model, parentID, nm); err != nil {
			return err
		}
	}
	for _, nm := range nested {
		if err := nestedConnects(ctx, tx, model, parentID, nm); err != nil {
			return err
		}
	}
	for _, nm := range nested {
		if err := nestedSets(ctx, tx, model, parentID, nm); err != nil {
			return err
		}
	}
	for _, nm := range nested {
		if err := nestedDisconnects(ctx, tx, model, parentID, nm); err != nil {
			return err
		}
	}
	for _, nm := range nested {
		if err := nestedUpdateManys(ctx, tx, model, parentID, nm); err != nil {
			return err
		}
	}
	for _, nm := range nested {
		if err := nestedDeleteManys(ctx, tx, model, parentID, nm); err != nil {
			return err
		}
	}
	return nil
}

func relationFieldOf(model *engine.Model, name string) (*engine.RelationField, error) {
	rf, ok := model.Relations[name]
	if !ok {
		return nil, &UnknownFieldError{Entity: model.Name, Field: name, Available: relationNames(model)}
	}
	return rf, nil
}

func relationNames(model *engine.Model) []string {
	return append([]string{}, model.RelationOrder...)
}

func nestedCreates(ctx context.Context, tx *Transaction, schema *engine.Schema, model *engine.Model, parentID Identifier, nm NestedMutations) error {
	if len(nm.Creates) == 0 {
		return nil
	}
	rf, err := relationFieldOf(model, nm.RelationField)
	if err != nil {
		return err
	}
	if !rf.IsList {
		if err := ParentRemoval(ctx, tx, rf, parentID); err != nil {
			return err
		}
	}
	// When the FK is inlined on the child's own table, fold it straight
	// into the child's create args so the INSERT carries it from the
	// start — required, this is the only way a NOT NULL FK can ever be
	// satisfied; otherwise the row would briefly exist with no parent.
	if rf.InlinedInChild() {
		_, col, _ := rf.RelatedField().InlineFKColumn()
		for _, create := range nm.Creates {
			args := withForeignKey(create.Args, col, parentID.Value())
			if _, err := executeCreate(ctx, tx, schema, rf.RelatedModelName, args, create.Nested); err != nil {
				return err
			}
		}
		return nil
	}
	for _, create := range nm.Creates {
		res, err := executeCreate(ctx, tx, schema, rf.RelatedModelName, create.Args, create.Nested)
		if err != nil {
			return err
		}
		if err := tx.Write(ctx, CreateRelationStmt(rf, parentID, res.ID)); err != nil {
			return err
		}
	}
	return nil
}

// withForeignKey returns a copy of args with column set to value,
// leaving the caller's original Fields map untouched.
func withForeignKey(args NodeArgs, column string, value interface{}) NodeArgs {
	fields := make(map[string]interface{}, len(args.Fields)+1)
	for k, v := range args.Fields {
		fields[k] = v
	}
	fields[column] = value
	return NodeArgs{Fields: fields, ListFields: args.ListFields}
}

func nestedUpdates(ctx context.Context, tx *Transaction, schema *engine.Schema, model *engine.Model, parentID Identifier, nm NestedMutations) error {
	if len(nm.Updates) == 0 {
		return nil
	}
	rf, err := relationFieldOf(model, nm.RelationField)
	if err != nil {
		return err
	}
	for _, upd := range nm.Updates {
		childID, err := tx.FindIDByParent(ctx, rf, parentID, &upd.Selector)
		if err != nil {
			return err
		}
		if _, err := executeUpdate(ctx, tx, schema, rf.RelatedModelName, NodeSelector{Field: rf.RelatedModel().IDField().Name, Value: childID.Value()}, upd.Args, upd.Nested); err != nil {
			return err
		}
	}
	return nil
}

func nestedUpserts(ctx context.Context, tx *Transaction, schema *engine.Schema, model *engine.Model, parentID Identifier, nm NestedMutations) error {
	if len(nm.Upserts) == 0 {
		return nil
	}
	rf, err := relationFieldOf(model, nm.RelationField)
	if err != nil {
		return err
	}
	for _, up := range nm.Upserts {
		_, err := tx.FindIDByParent(ctx, rf, parentID, &up.Selector)
		if err != nil {
			if _, ok := err.(*NodesNotConnected); !ok {
				return err
			}
			if !rf.IsList {
				if err := ParentRemoval(ctx, tx, rf, parentID); err != nil {
					return err
				}
			}
			res, err := executeCreate(ctx, tx, schema, rf.RelatedModelName, up.Create.Args, up.Create.Nested)
			if err != nil {
				return err
			}
			if err := tx.Write(ctx, CreateRelationStmt(rf, parentID, res.ID)); err != nil {
				return err
			}
			continue
		}
		if _, err := executeUpdate(ctx, tx, schema, rf.RelatedModelName, up.Selector, up.Update.Args, up.Update.Nested); err != nil {
			return err
		}
	}
	return nil
}

func nestedDeletes(ctx context.Context, tx *Transaction, schema *engine.Schema, model *engine.Model, parentID Identifier, nm NestedMutations) error {
	if len(nm.Deletes) == 0 {
		return nil
	}
	rf, err := relationFieldOf(model, nm.RelationField)
	if err != nil {
		return err
	}
	childModel := rf.RelatedModel()
	for _, del := range nm.Deletes {
		childID, err := tx.FindIDByParent(ctx, rf, parentID, &del.Selector)
		if err != nil {
			if nc, ok := err.(*NodesNotConnected); ok {
				nc.ParentWhere = fmt.Sprintf("%s.id = %s", model.Name, parentID.Repr())
				return nc
			}
			return err
		}
		if err := CheckRelationViolations(ctx, tx, childModel, []Identifier{childID}); err != nil {
			return err
		}
		for _, stmt := range DeleteManyStmts(childModel, []Identifier{childID}) {
			if _, err := tx.Delete(ctx, stmt); err != nil {
				return err
			}
		}
	}
	return nil
}

func nestedConnects(ctx context.Context, tx *Transaction, model *engine.Model, parentID Identifier, nm NestedMutations) error {
	if len(nm.Connects) == 0 {
		return nil
	}
	rf, err := relationFieldOf(model, nm.RelationField)
	if err != nil {
		return err
	}
	if err := RequiredCheck(ctx, tx, rf, parentID); err != nil {
		return err
	}
	childModel := rf.RelatedModel()
	for _, sel := range nm.Connects {
		childID, err := tx.FindID(ctx, childModel, sel)
		if err != nil {
			return err
		}
		if err := EnsureConnected(ctx, tx, rf, parentID, childID); err == nil {
			continue // already connected; connect is idempotent
		} else if _, ok := err.(*NodesNotConnected); !ok {
			return err
		}
		if !rf.IsList {
			if err := ParentRemoval(ctx, tx, rf, parentID); err != nil {
				return err
			}
		}
		if !rf.RelatedField().IsList {
			if err := ChildRemoval(ctx, tx, rf, childID); err != nil {
				return err
			}
		}
		if err := tx.Write(ctx, CreateRelationStmt(rf, parentID, childID)); err != nil {
			return err
		}
	}
	return nil
}

func nestedSets(ctx context.Context, tx *Transaction, model *engine.Model, parentID Identifier, nm NestedMutations) error {
	if len(nm.Sets) == 0 {
		return nil
	}
	rf, err := relationFieldOf(model, nm.RelationField)
	if err != nil {
		return err
	}
	if err := RequiredCheck(ctx, tx, rf, parentID); err != nil {
		return err
	}
	if err := RemovalByParent(ctx, tx, rf, parentID); err != nil {
		return err
	}
	childModel := rf.RelatedModel()
	for _, sel := range nm.Sets {
		childID, err := tx.FindID(ctx, childModel, sel)
		if err != nil {
			return err
		}
		if !rf.RelatedField().IsList {
			if err := ChildRemoval(ctx, tx, rf, childID); err != nil {
				return err
			}
		}
		if err := tx.Write(ctx, CreateRelationStmt(rf, parentID, childID)); err != nil {
			return err
		}
	}
	return nil
}

func nestedDisconnects(ctx context.Context, tx *Transaction, model *engine.Model, parentID Identifier, nm NestedMutations) error {
	if len(nm.Disconnects) == 0 {
		return nil
	}
	rf, err := relationFieldOf(model, nm.RelationField)
	if err != nil {
		return err
	}
	for _, sel := range nm.Disconnects {
		childID, err := tx.FindIDByParent(ctx, rf, parentID, &sel)
		if err != nil {
			return err
		}
		if err := RequiredCheck(ctx, tx, rf, parentID); err != nil {
			return err
		}
		if err := RemovalByParentAndChild(ctx, tx, rf, parentID, childID); err != nil {
			return err
		}
	}
	return nil
}

func nestedUpdateManys(ctx context.Context, tx *Transaction, model *engine.Model, parentID Identifier, nm NestedMutations) error {
	if len(nm.UpdateManys) == 0 {
		return nil
	}
	rf, err := relationFieldOf(model, nm.RelationField)
	if err != nil {
		return err
	}
	childModel := rf.RelatedModel()
	for _, um := range nm.UpdateManys {
		ids, err := tx.FilterIDsByParents(ctx, rf, []Identifier{parentID}, um.Filters)
		if err != nil {
			return err
		}
		if len(ids) == 0 {
			continue
		}
		for _, chunk := range ChunkIdentifiers(ids) {
			restrict := Filter{Field: childModel.IDField().Name, Op: OpIn, Value: identifierValues(chunk)}
			if _, err := tx.Update(ctx, UpdateManyStmt(childModel, []Filter{restrict}, um.Args.Fields)); err != nil {
				return err
			}
		}
		if len(um.Args.ListFields) > 0 {
			for _, id := range ids {
				if err := writeScalarLists(ctx, tx, childModel, id, um.Args.ListFields); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func nestedDeleteManys(ctx context.Context, tx *Transaction, model *engine.Model, parentID Identifier, nm NestedMutations) error {
	if len(nm.DeleteManys) == 0 {
		return nil
	}
	rf, err := relationFieldOf(model, nm.RelationField)
	if err != nil {
		return err
	}
	childModel := rf.RelatedModel()
	for _, dm := range nm.DeleteManys {
		ids, err := tx.FilterIDsByParents(ctx, rf, []Identifier{parentID}, dm.Filters)
		if err != nil {
			return err
		}
		if len(ids) == 0 {
			continue
		}
		if err := CheckRelationViolations(ctx, tx, childModel, ids); err != nil {
			return err
		}
		for _, stmt := range DeleteManyStmts(childModel, ids) {
			if _, err := tx.Delete(ctx, stmt); err != nil {
				return err
			}
		}
	}
	return nil
}
