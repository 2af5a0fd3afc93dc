package mutation

import (
	"context"
	"fmt"

	"github.com/chameleon-db/chameleondb/chameleon/pkg/engine"
)

// Integrity Guard: before a destructive operation against model's rows,
// verify no other model requires one of them to stay connected.

// CheckRelationViolations reports a RelationViolation if deleting any
// row in ids would strand a required relation on the other side.
func CheckRelationViolations(ctx context.Context, tx *Transaction, model *engine.Model, ids []Identifier) error {
	if len(ids) == 0 {
		return nil
	}
	for _, rf := range model.Schema().FieldsRequiringModel(model) {
		for _, chunk := range ChunkIdentifiers(ids) {
			sql, kind, args := relationViolationProbe(rf, chunk)
			found, err := tx.SelectIDs(ctx, kind, sql, args...)
			if err != nil {
				return err
			}
			if len(found) > 0 {
				rel := rf.Relation()
				return &RelationViolation{
					RelationName: rel.Name,
					ModelAName:   rel.ModelAName,
					ModelBName:   rel.ModelBName,
				}
			}
		}
	}
	return nil
}

// relationViolationProbe builds the SELECT whose non-emptiness means
// rf's required relation would be stranded by removing one of ids
// (ids belong to rf.RelatedModel(), the model under deletion).
func relationViolationProbe(rf *engine.RelationField, ids []Identifier) (sql string, kind IdentifierKind, args []interface{}) {
	values := identifierValues(ids)
	placeholders := placeholderList(len(values))

	if rf.Neither() {
		rel := rf.Relation()
		sql = fmt.Sprintf(
			`SELECT %q FROM %q WHERE %q IN (%s) AND %q IS NOT NULL`,
			rf.OppositeColumn(), rel.RelationTable(), rf.OppositeColumn(), placeholders, rf.RelationColumn(),
		)
		return sql, idKind(rf.RelatedModel().IDField()), values
	}

	// required ⇒ the FK sits on rf's own model (InlinedInParent relative
	// to rf), referencing the model under deletion.
	table, col, _ := rf.InlineFKColumn()
	idField := rf.Model().IDField()
	sql = fmt.Sprintf(`SELECT %q FROM %q WHERE %q IN (%s)`, idField.Name, table, col, placeholders)
	return sql, idKind(idField), values
}

func placeholderList(n int) string {
	s := ""
	for i := 0; i < n; i++ {
		if i > 0 {
			s += ", "
		}
		s += fmt.Sprintf("$%d", i+1)
	}
	return s
}
