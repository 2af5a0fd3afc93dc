package mutation

import (
	"fmt"
	"sort"
	"strings"

	"github.com/chameleon-db/chameleondb/chameleon/pkg/engine"
)

// Statement Builder: pure functions mapping (model, args, ids) to SQL
// statement ASTs. None of these touch a database — building the same
// inputs twice always produces the same SQL text and argument list,
// which is exactly why they live apart from the Transaction Facade
// that actually runs them.

// Insert/Update/Delete/Write are the statement ASTs every builder
// function returns: `$1..$n` pgx-style placeholders plus the ordered
// values to bind, following the same generateInsertSQL
// placeholder-numbering convention throughout.
type Insert struct {
	SQL       string
	Args      []interface{}
	Table     string
	IDField   string // RETURNING column, "" if the builder doesn't need it back
	Returning bool   // true when SQL carries a RETURNING clause to adopt a generated id
}

type Update struct {
	SQL  string
	Args []interface{}
}

type Delete struct {
	SQL  string
	Args []interface{}
}

type Write struct {
	SQL  string
	Args []interface{}
}

// orderedFieldNames returns keys deterministically: FieldOrder first
// (for known scalar columns), then any remainder sorted — keeps column
// order stable across calls even when the caller's map iterates
// differently each time.
func orderedFieldNames(model *engine.Model, fields map[string]interface{}) []string {
	var names []string
	seen := map[string]bool{}
	for _, n := range model.FieldOrder {
		if _, ok := fields[n]; ok {
			names = append(names, n)
			seen[n] = true
		}
	}
	var rest []string
	for n := range fields {
		if !seen[n] {
			rest = append(rest, n)
		}
	}
	sort.Strings(rest)
	return append(names, rest...)
}

// CreateNodeStmt builds the INSERT for one model row. id is always
// supplied by the caller (the executor assigns it before building, so
// client-generated and server-generated ids follow the same path) —
// except when id.Pending, meaning no id is known yet: the id column is
// left out of the column list entirely and a RETURNING clause is
// appended so Transaction.Insert can read back whatever the database's
// own sequence assigns.
func CreateNodeStmt(model *engine.Model, id Identifier, fields map[string]interface{}) Insert {
	idField := model.IDField()
	all := map[string]interface{}{}
	for k, v := range fields {
		all[k] = v
	}
	if id.Pending {
		delete(all, idField.Name)
	} else {
		all[idField.Name] = id.Value()
	}

	names := orderedFieldNames(model, all)
	cols := make([]string, len(names))
	placeholders := make([]string, len(names))
	args := make([]interface{}, len(names))
	for i, n := range names {
		cols[i] = fmt.Sprintf("%q", n)
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = all[n]
	}

	sql := fmt.Sprintf(
		`INSERT INTO %q (%s) VALUES (%s)`,
		model.Name, strings.Join(cols, ", "), strings.Join(placeholders, ", "),
	)
	if id.Pending {
		sql += fmt.Sprintf(" RETURNING %q", idField.Name)
	}
	return Insert{SQL: sql, Args: args, Table: model.Name, IDField: idField.Name, Returning: id.Pending}
}

// CreateScalarListValueStmt inserts one row per list element into the
// field's auxiliary `{model}_{field}` table (nodeId, position, value).
func CreateScalarListValueStmt(model *engine.Model, field *engine.Field, nodeID Identifier, values []interface{}) Write {
	table := field.ScalarListTable(model)
	if len(values) == 0 {
		return Write{SQL: "", Args: nil}
	}
	var rows []string
	args := make([]interface{}, 0, len(values)*3)
	for i, v := range values {
		base := len(args)
		rows = append(rows, fmt.Sprintf("($%d, $%d, $%d)", base+1, base+2, base+3))
		args = append(args, nodeID.Value(), i, v)
	}
	sql := fmt.Sprintf(
		`INSERT INTO %q ("nodeId", "position", "value") VALUES %s`,
		table, strings.Join(rows, ", "),
	)
	return Write{SQL: sql, Args: args}
}

// DeleteScalarListValuesStmt clears every row of nodeID's scalar list
// before CreateScalarListValueStmt re-inserts — the replace-then-insert
// semantics list fields use throughout.
func DeleteScalarListValuesStmt(model *engine.Model, field *engine.Field, nodeID Identifier) Delete {
	table := field.ScalarListTable(model)
	sql := fmt.Sprintf(`DELETE FROM %q WHERE "nodeId" = $1`, table)
	return Delete{SQL: sql, Args: []interface{}{nodeID.Value()}}
}

// UpdateOneStmt builds the UPDATE for a single row identified by id.
func UpdateOneStmt(model *engine.Model, id Identifier, fields map[string]interface{}) Update {
	idField := model.IDField()
	names := orderedFieldNames(model, fields)
	sets := make([]string, len(names))
	args := make([]interface{}, 0, len(names)+1)
	for i, n := range names {
		sets[i] = fmt.Sprintf("%q = $%d", n, i+1)
		args = append(args, fields[n])
	}
	args = append(args, id.Value())
	sql := fmt.Sprintf(
		`UPDATE %q SET %s WHERE %q = $%d`,
		model.Name, strings.Join(sets, ", "), idField.Name, len(args),
	)
	return Update{SQL: sql, Args: args}
}

// UpdateManyStmt builds the UPDATE for every row matching filters.
func UpdateManyStmt(model *engine.Model, filters []Filter, fields map[string]interface{}) Update {
	names := orderedFieldNames(model, fields)
	sets := make([]string, len(names))
	args := make([]interface{}, 0, len(names)+len(filters))
	for i, n := range names {
		sets[i] = fmt.Sprintf("%q = $%d", n, i+1)
		args = append(args, fields[n])
	}

	where, args := appendFilterClause(filters, args)
	sql := fmt.Sprintf(`UPDATE %q SET %s WHERE %s`, model.Name, strings.Join(sets, ", "), where)
	return Update{SQL: sql, Args: args}
}

// appendFilterClause renders filters as an AND-joined WHERE clause,
// continuing placeholder numbering from len(args)+1. An OpIn filter's
// values all bind into one `IN (...)` clause; appendFilterClause itself
// never splits them across statements, so a caller deriving a filter's
// id set from a large parent set (nestedUpdateManys) must chunk with
// ChunkIdentifiers first and call this once per chunk.
func appendFilterClause(filters []Filter, args []interface{}) (string, []interface{}) {
	if len(filters) == 0 {
		return "TRUE", args
	}
	var clauses []string
	for _, f := range filters {
		switch f.Op {
		case OpIn:
			values, _ := f.Value.([]interface{})
			if len(values) == 0 {
				clauses = append(clauses, "FALSE")
				continue
			}
			placeholders := make([]string, len(values))
			for i, v := range values {
				args = append(args, v)
				placeholders[i] = fmt.Sprintf("$%d", len(args))
			}
			clauses = append(clauses, fmt.Sprintf("%q IN (%s)", f.Field, strings.Join(placeholders, ", ")))
		default:
			args = append(args, f.Value)
			clauses = append(clauses, fmt.Sprintf("%q %s $%d", f.Field, sqlOperator(f.Op), len(args)))
		}
	}
	return strings.Join(clauses, " AND "), args
}

func sqlOperator(op FilterOp) string {
	switch op {
	case OpEq:
		return "="
	case OpNeq:
		return "<>"
	case OpGt:
		return ">"
	case OpGte:
		return ">="
	case OpLt:
		return "<"
	case OpLte:
		return "<="
	case "like":
		return "LIKE"
	default:
		return "="
	}
}

// DeleteManyStmts emits deletions in dependency order for the given
// ids: relation-table rows referencing them first, then scalar-list
// rows, then the model rows themselves — chunked at MaxChunkSize.
func DeleteManyStmts(model *engine.Model, ids []Identifier) []Delete {
	var stmts []Delete
	schema := model.Schema()

	for _, chunk := range ChunkIdentifiers(ids) {
		values := identifierValues(chunk)

		// Every relation field of every model whose relation is a
		// dedicated join table and touches this model gets its rows
		// referencing these ids cleared first.
		for _, m := range sortedModels(schema) {
			for _, name := range m.RelationOrder {
				rf := m.Relations[name]
				if !rf.Neither() {
					continue
				}
				if rf.ModelName != model.Name && rf.RelatedModelName != model.Name {
					continue
				}
				col := rf.RelationColumn()
				if rf.ModelName != model.Name {
					col = rf.OppositeColumn()
				}
				table := rf.Relation().RelationTable()
				stmts = append(stmts, inClauseDelete(table, col, values))
			}
		}

		for _, fieldName := range model.FieldOrder {
			field := model.Fields[fieldName]
			if field.IsList {
				table := field.ScalarListTable(model)
				stmts = append(stmts, inClauseDelete(table, "nodeId", values))
			}
		}

		idField := model.IDField()
		stmts = append(stmts, inClauseDelete(model.Name, idField.Name, values))
	}

	return dedupeDeletes(stmts)
}

func inClauseDelete(table, column string, values []interface{}) Delete {
	placeholders := make([]string, len(values))
	for i := range values {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}
	sql := fmt.Sprintf(`DELETE FROM %q WHERE %q IN (%s)`, table, column, strings.Join(placeholders, ", "))
	return Delete{SQL: sql, Args: values}
}

// dedupeDeletes drops statements with no placeholders bound — an empty
// chunk of ids produces no useful DELETE — and repeats of a statement
// with the same SQL and arguments, as when a join table is reached
// from both of its relation fields.
func dedupeDeletes(stmts []Delete) []Delete {
	var out []Delete
	seen := map[string]bool{}
	for _, s := range stmts {
		if len(s.Args) == 0 {
			continue
		}
		key := s.SQL + fmt.Sprintf("%#v", s.Args)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, s)
	}
	return out
}

func identifierValues(ids []Identifier) []interface{} {
	values := make([]interface{}, len(ids))
	for i, id := range ids {
		values[i] = id.Value()
	}
	return values
}

func sortedModels(schema *engine.Schema) []*engine.Model {
	var names []string
	for n := range schema.Models {
		names = append(names, n)
	}
	sort.Strings(names)
	models := make([]*engine.Model, len(names))
	for i, n := range names {
		models[i] = schema.Models[n]
	}
	return models
}

// CreateRelationStmt connects parentID and childID along rf: an INSERT
// into the dedicated join table (canonical A/B side ordering) if
// Neither(), otherwise an UPDATE setting the inlined FK column on
// whichever model's table actually carries it.
func CreateRelationStmt(rf *engine.RelationField, parentID, childID Identifier) Write {
	if rf.Neither() {
		rel := rf.Relation()
		table := rel.RelationTable()
		// rf.RelationColumn() names the column referring to rf's own
		// model (the parent side of this traversal); OppositeColumn()
		// refers to the related (child) model.
		cols := map[string]Identifier{
			rf.RelationColumn(): parentID,
			rf.OppositeColumn(): childID,
		}
		sql := fmt.Sprintf(`INSERT INTO %q (%q, %q) VALUES ($1, $2)`, table, rel.ColumnA, rel.ColumnB)
		args := []interface{}{cols[rel.ColumnA].Value(), cols[rel.ColumnB].Value()}
		return Write{SQL: sql, Args: args}
	}

	if rf.InlinedInChild() {
		table, col, _ := rf.RelatedField().InlineFKColumn()
		idField := rf.RelatedModel().IDField()
		sql := fmt.Sprintf(`UPDATE %q SET %q = $1 WHERE %q = $2`, table, col, idField.Name)
		return Write{SQL: sql, Args: []interface{}{parentID.Value(), childID.Value()}}
	}

	// InlinedInParent: the FK lives on rf's own model.
	table, col, _ := rf.InlineFKColumn()
	idField := rf.Model().IDField()
	sql := fmt.Sprintf(`UPDATE %q SET %q = $1 WHERE %q = $2`, table, col, idField.Name)
	return Write{SQL: sql, Args: []interface{}{childID.Value(), parentID.Value()}}
}

// ClearRelationStmt detaches the specific (parentID, childID) pair
// along rf: a targeted join-table DELETE, or NULLing out whichever
// side's inline FK column points at the other.
func ClearRelationStmt(rf *engine.RelationField, parentID, childID Identifier) Write {
	if rf.Neither() {
		rel := rf.Relation()
		table := rel.RelationTable()
		sql := fmt.Sprintf(`DELETE FROM %q WHERE %q = $1 AND %q = $2`, table, rf.RelationColumn(), rf.OppositeColumn())
		return Write{SQL: sql, Args: []interface{}{parentID.Value(), childID.Value()}}
	}
	if rf.InlinedInChild() {
		table, col, _ := rf.RelatedField().InlineFKColumn()
		idField := rf.RelatedModel().IDField()
		sql := fmt.Sprintf(`UPDATE %q SET %q = NULL WHERE %q = $1 AND %q = $2`, table, col, idField.Name, col)
		return Write{SQL: sql, Args: []interface{}{childID.Value(), parentID.Value()}}
	}
	table, col, _ := rf.InlineFKColumn()
	idField := rf.Model().IDField()
	sql := fmt.Sprintf(`UPDATE %q SET %q = NULL WHERE %q = $1 AND %q = $2`, table, col, idField.Name, col)
	return Write{SQL: sql, Args: []interface{}{parentID.Value(), childID.Value()}}
}

// ClearRelationByParentStmt detaches every child currently connected
// to parentID along rf (used by `set` and parentless `disconnect`).
func ClearRelationByParentStmt(rf *engine.RelationField, parentID Identifier) Write {
	if rf.Neither() {
		table := rf.Relation().RelationTable()
		sql := fmt.Sprintf(`DELETE FROM %q WHERE %q = $1`, table, rf.RelationColumn())
		return Write{SQL: sql, Args: []interface{}{parentID.Value()}}
	}
	if rf.InlinedInChild() {
		table, col, _ := rf.RelatedField().InlineFKColumn()
		sql := fmt.Sprintf(`UPDATE %q SET %q = NULL WHERE %q = $1`, table, col, col)
		return Write{SQL: sql, Args: []interface{}{parentID.Value()}}
	}
	table, col, _ := rf.InlineFKColumn()
	idField := rf.Model().IDField()
	sql := fmt.Sprintf(`UPDATE %q SET %q = NULL WHERE %q = $1`, table, col, idField.Name)
	return Write{SQL: sql, Args: []interface{}{parentID.Value()}}
}

// ClearRelationByChildStmt detaches childID from whatever it's
// currently connected to along rf.
func ClearRelationByChildStmt(rf *engine.RelationField, childID Identifier) Write {
	if rf.Neither() {
		table := rf.Relation().RelationTable()
		sql := fmt.Sprintf(`DELETE FROM %q WHERE %q = $1`, table, rf.OppositeColumn())
		return Write{SQL: sql, Args: []interface{}{childID.Value()}}
	}
	if rf.InlinedInChild() {
		table, col, _ := rf.RelatedField().InlineFKColumn()
		idField := rf.RelatedModel().IDField()
		sql := fmt.Sprintf(`UPDATE %q SET %q = NULL WHERE %q = $1`, table, col, idField.Name)
		return Write{SQL: sql, Args: []interface{}{childID.Value()}}
	}
	table, col, _ := rf.InlineFKColumn()
	sql := fmt.Sprintf(`UPDATE %q SET %q = NULL WHERE %q = $1`, table, col, col)
	return Write{SQL: sql, Args: []interface{}{childID.Value()}}
}
