package mutation

import (
	"context"

	"github.com/chameleon-db/chameleondb/chameleon/pkg/engine"
)

// Nested Action Policy: for a given nested edge — a parent row, a
// relation field, and an action kind — derives the small reusable
// (probe, write) pair the executor composes per its dispatch table.
// Each function here runs its probe/write directly against the
// Transaction Facade rather than returning it unevaluated, since
// nothing in this module needs to inspect a probe without also
// running it.

// RequiredCheck raises RelationViolation when rf's opposite side is
// required and single-valued, and parentID currently has a connected
// partner that replacing/removing would strand.
func RequiredCheck(ctx context.Context, tx *Transaction, rf *engine.RelationField, parentID Identifier) error {
	opposite := rf.RelatedField()
	if !opposite.IsRequired || opposite.IsList {
		return nil
	}
	err := EnsureParentIsConnected(ctx, tx, rf, parentID)
	if err == nil {
		rel := rf.Relation()
		return &RelationViolation{RelationName: rel.Name, ModelAName: rel.ModelAName, ModelBName: rel.ModelBName}
	}
	if _, ok := err.(*NodesNotConnected); ok {
		return nil
	}
	return err
}

// ParentRemoval detaches parentID from its current partner, when this
// side of rf is single-valued ("replace partner" semantics).
func ParentRemoval(ctx context.Context, tx *Transaction, rf *engine.RelationField, parentID Identifier) error {
	if rf.IsList {
		return nil
	}
	return tx.Write(ctx, ClearRelationByParentStmt(rf, parentID))
}

// ChildRemoval detaches childID from its current partner, when rf's
// opposite side is single-valued.
func ChildRemoval(ctx context.Context, tx *Transaction, rf *engine.RelationField, childID Identifier) error {
	if rf.RelatedField().IsList {
		return nil
	}
	return RemovalByChild(ctx, tx, rf, childID)
}

// RemovalByParent detaches every child currently connected to
// parentID (used by `set` and by selector-less `disconnect`).
func RemovalByParent(ctx context.Context, tx *Transaction, rf *engine.RelationField, parentID Identifier) error {
	return tx.Write(ctx, ClearRelationByParentStmt(rf, parentID))
}

// RemovalByChild detaches childID from whatever it is currently
// connected to.
func RemovalByChild(ctx context.Context, tx *Transaction, rf *engine.RelationField, childID Identifier) error {
	return tx.Write(ctx, ClearRelationByChildStmt(rf, childID))
}

// RemovalByParentAndChild detaches exactly the (parent, child) pair.
func RemovalByParentAndChild(ctx context.Context, tx *Transaction, rf *engine.RelationField, parentID, childID Identifier) error {
	return tx.Write(ctx, ClearRelationStmt(rf, parentID, childID))
}

// EnsureConnected verifies (parentID, childID) is an existing pair
// along rf, returning NodesNotConnected otherwise.
func EnsureConnected(ctx context.Context, tx *Transaction, rf *engine.RelationField, parentID, childID Identifier) error {
	sel := NodeSelector{Field: rf.RelatedModel().IDField().Name, Value: childID.Value()}
	_, err := tx.FindIDByParent(ctx, rf, parentID, &sel)
	return err
}

// EnsureParentIsConnected verifies parentID has any partner along rf,
// returning NodesNotConnected otherwise.
func EnsureParentIsConnected(ctx context.Context, tx *Transaction, rf *engine.RelationField, parentID Identifier) error {
	_, err := tx.FindIDByParent(ctx, rf, parentID, nil)
	return err
}
