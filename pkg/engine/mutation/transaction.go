package mutation

import (
	"context"
	"fmt"
	"strings"

	"github.com/chameleon-db/chameleondb/chameleon/pkg/engine"
	"github.com/jackc/pgx/v5"
)

// querier is the subset of pgx.Tx the Transaction Facade depends on.
// Narrowing the dependency to an interface (rather than *pgx.Tx
// directly) is what lets this package's own tests exercise the facade
// against a small hand-rolled fake instead of a real Postgres
// connection — the same row-scanning shape Connector.Query already
// assumes, just behind a seam.
type querier interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (rows, error)
}

// CommandTag mirrors the one pgconn method the facade needs, so the
// fake querier in tests doesn't have to construct a real pgconn.CommandTag.
type CommandTag interface {
	RowsAffected() int64
}

// rows mirrors the handful of pgx.Rows methods the facade actually
// calls (Close/Next/Values/Err — the same ones Connector.Query already
// used), so a test fake never has to construct a real
// pgconn.FieldDescription to satisfy the full pgx.Rows surface.
type rows interface {
	Close()
	Next() bool
	Values() ([]interface{}, error)
	Err() error
}

// Transaction is the single-connection write façade: every Statement
// Builder output (Insert/Update/Delete/Write) and every Integrity
// Guard probe runs through it, and it is the only component in this
// package that touches a live connection.
type Transaction struct {
	q      querier
	schema *engine.Schema
	pgxTx  pgx.Tx // non-nil when backed by a real pgx.Tx; nil under the fake
}

// pgxQuerier adapts pgx.Tx's Exec/Query signatures (which return the
// concrete pgconn.CommandTag, not our local CommandTag interface) to
// the querier interface above.
type pgxQuerier struct{ tx pgx.Tx }

func (p pgxQuerier) Exec(ctx context.Context, sql string, args ...interface{}) (CommandTag, error) {
	return p.tx.Exec(ctx, sql, args...)
}

func (p pgxQuerier) Query(ctx context.Context, sql string, args ...interface{}) (rows, error) {
	return p.tx.Query(ctx, sql, args...)
}

// NewTransaction wraps an already-begun pgx.Tx.
func NewTransaction(tx pgx.Tx, schema *engine.Schema) *Transaction {
	return &Transaction{q: pgxQuerier{tx}, schema: schema, pgxTx: tx}
}

// newTestTransaction is used by this package's own tests to swap in a
// fake querier without a live database.
func newTestTransaction(q querier, schema *engine.Schema) *Transaction {
	return &Transaction{q: q, schema: schema}
}

func (t *Transaction) Commit(ctx context.Context) error {
	if t.pgxTx == nil {
		return nil
	}
	return t.pgxTx.Commit(ctx)
}

func (t *Transaction) Rollback(ctx context.Context) error {
	if t.pgxTx == nil {
		return nil
	}
	return t.pgxTx.Rollback(ctx)
}

// Insert runs an Insert statement, returning the row's id. When ins
// carries a RETURNING clause (id.Pending at build time) the id bound by
// the caller is ignored and the value the database actually assigned
// is read back and adopted instead.
func (t *Transaction) Insert(ctx context.Context, ins Insert, id Identifier) (Identifier, error) {
	if ins.Returning {
		res, err := t.q.Query(ctx, ins.SQL, ins.Args...)
		if err != nil {
			return Identifier{}, fmt.Errorf("insert into %s: %w", ins.Table, err)
		}
		defer res.Close()
		if !res.Next() {
			return Identifier{}, fmt.Errorf("insert into %s: RETURNING produced no row", ins.Table)
		}
		values, err := res.Values()
		if err != nil {
			return Identifier{}, err
		}
		if len(values) == 0 {
			return Identifier{}, fmt.Errorf("insert into %s: RETURNING produced no columns", ins.Table)
		}
		adopted, err := IdentifierFromValue(IdentifierInt, values[0])
		if err != nil {
			return Identifier{}, err
		}
		return adopted, res.Err()
	}
	if _, err := t.q.Exec(ctx, ins.SQL, ins.Args...); err != nil {
		return Identifier{}, fmt.Errorf("insert into %s: %w", ins.Table, err)
	}
	return id, nil
}

// Update runs an Update statement, returning rows affected.
func (t *Transaction) Update(ctx context.Context, upd Update) (int64, error) {
	tag, err := t.q.Exec(ctx, upd.SQL, upd.Args...)
	if err != nil {
		return 0, fmt.Errorf("update: %w", err)
	}
	return tag.RowsAffected(), nil
}

// Delete runs a Delete statement, returning rows affected.
func (t *Transaction) Delete(ctx context.Context, del Delete) (int64, error) {
	tag, err := t.q.Exec(ctx, del.SQL, del.Args...)
	if err != nil {
		return 0, fmt.Errorf("delete: %w", err)
	}
	return tag.RowsAffected(), nil
}

// Write runs a relation/list Write statement, ignoring rows affected.
func (t *Transaction) Write(ctx context.Context, w Write) error {
	if w.SQL == "" {
		return nil
	}
	if _, err := t.q.Exec(ctx, w.SQL, w.Args...); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	return nil
}

// SelectIDs runs an arbitrary SQL probe and returns every value of its
// first result column as an Identifier of the given kind. This backs
// both the Integrity Guard's relation-violation probes and the Nested
// Action Policy's required/connected checks — they differ only in the
// SQL text, never in how the result is consumed.
func (t *Transaction) SelectIDs(ctx context.Context, kind IdentifierKind, sql string, args ...interface{}) ([]Identifier, error) {
	rows, err := t.q.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("select ids: %w", err)
	}
	defer rows.Close()

	var ids []Identifier
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, err
		}
		if len(values) == 0 {
			continue
		}
		id, err := IdentifierFromValue(kind, values[0])
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return ids, nil
}

// FindID resolves a NodeSelector to a single id, or NodeNotFoundForWhere.
func (t *Transaction) FindID(ctx context.Context, model *engine.Model, sel NodeSelector) (Identifier, error) {
	idField := model.IDField()
	sql := fmt.Sprintf(`SELECT %q FROM %q WHERE %q = $1 LIMIT 1`, idField.Name, model.Name, sel.Field)
	ids, err := t.SelectIDs(ctx, idKind(idField), sql, sel.Value)
	if err != nil {
		return Identifier{}, err
	}
	if len(ids) == 0 {
		return Identifier{}, &NodeNotFoundForWhere{Model: model.Name, Field: sel.Field, Value: sel.Value}
	}
	return ids[0], nil
}

// FindIDByParent resolves the single child connected to parentID along
// rf (optionally narrowed by selector), or NodesNotConnected.
func (t *Transaction) FindIDByParent(ctx context.Context, rf *engine.RelationField, parentID Identifier, sel *NodeSelector) (Identifier, error) {
	childModel := rf.RelatedModel()
	childIDField := childModel.IDField()

	var sql string
	args := []interface{}{parentID.Value()}

	if rf.Neither() {
		rel := rf.Relation()
		sql = fmt.Sprintf(
			`SELECT c.%q FROM %q c JOIN %q r ON r.%q = c.%q WHERE r.%q = $1`,
			childIDField.Name, childModel.Name, rel.RelationTable(),
			rf.OppositeColumn(), childIDField.Name, rf.RelationColumn(),
		)
	} else if rf.InlinedInChild() {
		_, col, _ := rf.RelatedField().InlineFKColumn()
		sql = fmt.Sprintf(`SELECT %q FROM %q WHERE %q = $1`, childIDField.Name, childModel.Name, col)
	} else {
		table, col, _ := rf.InlineFKColumn()
		sql = fmt.Sprintf(
			`SELECT %q FROM %q WHERE %q = (SELECT %q FROM %q WHERE %q = $1)`,
			childIDField.Name, childModel.Name, childIDField.Name, col, table, rf.Model().IDField().Name,
		)
	}

	if sel != nil {
		sql += fmt.Sprintf(` AND %q = $2`, sel.Field)
		args = append(args, sel.Value)
	}
	sql += " LIMIT 1"

	ids, err := t.SelectIDs(ctx, idKind(childIDField), sql, args...)
	if err != nil {
		return Identifier{}, err
	}
	if len(ids) == 0 {
		return Identifier{}, &NodesNotConnected{RelationName: rf.Relation().Name}
	}
	return ids[0], nil
}

// FindRecord fetches a full row by id. Columns are listed explicitly
// from model.FieldOrder (rather than read back via the driver's result
// metadata) so zipping names to values never depends on the
// query engine's column-description support.
func (t *Transaction) FindRecord(ctx context.Context, model *engine.Model, id Identifier) (map[string]interface{}, error) {
	idField := model.IDField()
	cols := make([]string, len(model.FieldOrder))
	for i, name := range model.FieldOrder {
		cols[i] = fmt.Sprintf("%q", name)
	}
	sql := fmt.Sprintf(`SELECT %s FROM %q WHERE %q = $1`, strings.Join(cols, ", "), model.Name, idField.Name)
	res, err := t.q.Query(ctx, sql, id.Value())
	if err != nil {
		return nil, err
	}
	defer res.Close()

	if !res.Next() {
		return nil, &NodeNotFoundForWhere{Model: model.Name, Field: idField.Name, Value: id.Repr()}
	}
	values, err := res.Values()
	if err != nil {
		return nil, err
	}
	record := map[string]interface{}{}
	for i, name := range model.FieldOrder {
		if i < len(values) {
			record[name] = values[i]
		}
	}
	return record, res.Err()
}

// FilterIDs returns every id of model matching filters.
func (t *Transaction) FilterIDs(ctx context.Context, model *engine.Model, filters []Filter) ([]Identifier, error) {
	idField := model.IDField()
	where, args := appendFilterClause(filters, nil)
	sql := fmt.Sprintf(`SELECT %q FROM %q WHERE %s`, idField.Name, model.Name, where)
	return t.SelectIDs(ctx, idKind(idField), sql, args...)
}

// FilterIDsByParents returns every child id connected to any of
// parentIDs along rf, optionally narrowed by filter.
func (t *Transaction) FilterIDsByParents(ctx context.Context, rf *engine.RelationField, parentIDs []Identifier, filters []Filter) ([]Identifier, error) {
	childModel := rf.RelatedModel()
	childIDField := childModel.IDField()
	values := identifierValues(parentIDs)
	placeholders := make([]string, len(values))
	for i := range values {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}

	var sql string
	if rf.Neither() {
		rel := rf.Relation()
		sql = fmt.Sprintf(
			`SELECT c.%q FROM %q c JOIN %q r ON r.%q = c.%q WHERE r.%q IN (%s)`,
			childIDField.Name, childModel.Name, rel.RelationTable(),
			rf.OppositeColumn(), childIDField.Name, rf.RelationColumn(), strings.Join(placeholders, ", "),
		)
	} else if rf.InlinedInChild() {
		_, col, _ := rf.RelatedField().InlineFKColumn()
		sql = fmt.Sprintf(`SELECT %q FROM %q WHERE %q IN (%s)`, childIDField.Name, childModel.Name, col, strings.Join(placeholders, ", "))
	} else {
		table, col, _ := rf.InlineFKColumn()
		sql = fmt.Sprintf(
			`SELECT %q FROM %q WHERE %q IN (SELECT %q FROM %q WHERE %q IN (%s))`,
			childIDField.Name, childModel.Name, childIDField.Name, col, table, rf.Model().IDField().Name, strings.Join(placeholders, ", "),
		)
	}

	args := values
	if len(filters) > 0 {
		where, withFilters := appendFilterClause(filters, args)
		sql = fmt.Sprintf(`SELECT %q FROM (%s) AS matched WHERE %s`, childIDField.Name, sql, where)
		args = withFilters
	}

	return t.SelectIDs(ctx, idKind(childIDField), sql, args...)
}

// Truncate disables foreign-key enforcement for the duration and
// removes every row from every model and relation table, then
// restores enforcement — ResetData's only job.
func (t *Transaction) Truncate(ctx context.Context) error {
	if _, err := t.q.Exec(ctx, "SET CONSTRAINTS ALL DEFERRED"); err != nil {
		return err
	}

	var tables []string
	for name := range t.schema.Models {
		tables = append(tables, name)
	}
	for _, rel := range t.schema.Relations {
		if rel.Inline == engine.NotInlined {
			tables = append(tables, rel.RelationTable())
		}
	}
	for _, model := range t.schema.Models {
		for _, fieldName := range model.FieldOrder {
			if model.Fields[fieldName].IsList {
				tables = append(tables, model.Fields[fieldName].ScalarListTable(model))
			}
		}
	}

	if len(tables) == 0 {
		_, err := t.q.Exec(ctx, "SET CONSTRAINTS ALL IMMEDIATE")
		return err
	}
	quoted := make([]string, len(tables))
	for i, t := range tables {
		quoted[i] = fmt.Sprintf("%q", t)
	}
	sql := fmt.Sprintf("TRUNCATE TABLE %s CASCADE", strings.Join(quoted, ", "))
	if _, err := t.q.Exec(ctx, sql); err != nil {
		return err
	}
	_, err := t.q.Exec(ctx, "SET CONSTRAINTS ALL IMMEDIATE")
	return err
}

func idKind(field *engine.Field) IdentifierKind {
	switch field.Type {
	case engine.FieldTypeUUID:
		return IdentifierUUID
	case engine.FieldTypeInt:
		return IdentifierInt
	default:
		return IdentifierString
	}
}
