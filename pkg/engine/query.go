package engine

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// --- Query types (mirror Rust Query AST) ---

/*
	 type FilterValue struct {
		Type  string      `json:"type"`
		Value interface{} `json:"value"`
	}
*/
type FilterValue map[string]interface{}

type FilterCondition struct {
	Field FieldPath   `json:"field"`
	Op    string      `json:"op"` // "Eq", "Neq", "Gt", etc.
	Value FilterValue `json:"value"`
}

type FieldPath struct {
	Segments []string `json:"segments"`
}

type FilterExpr struct {
	Condition *FilterCondition `json:"Condition,omitempty"`
	Binary    *BinaryExpr      `json:"Binary,omitempty"`
}

type BinaryExpr struct {
	Left  FilterExpr `json:"left"`
	Op    string     `json:"op"` // "And", "Or"
	Right FilterExpr `json:"right"`
}

type IncludePath struct {
	Path []string `json:"path"`
}

type OrderByClause struct {
	Field     string `json:"field"`
	Direction string `json:"direction"` // "Asc", "Desc"
}

// QueryJSON is the serialization format matching Rust's Query
type QueryJSON struct {
	Entity   string          `json:"entity"`
	Filters  []FilterExpr    `json:"filters"`
	Includes []IncludePath   `json:"includes"`
	OrderBy  []OrderByClause `json:"order_by"`
	Limit    *uint64         `json:"limit"`
	Offset   *uint64         `json:"offset"`
}

// GeneratedSQL mirrors Rust's GeneratedSQL
type GeneratedSQL struct {
	MainQuery    string     `json:"main_query"`
	EagerQueries [][]string `json:"eager_queries"`
}

type EagerQuery struct {
	Relation string `json:"0"`
	SQL      string `json:"1"`
}

// Row is one scanned database row, keyed by column name.
type Row map[string]interface{}

// String reads field as a string, returning "" if absent or of another type.
func (r Row) String(field string) string {
	s, _ := r[field].(string)
	return s
}

// Int reads field as an int, accepting any of the numeric types the
// pgx driver and the fakeQuerier test helpers hand back.
func (r Row) Int(field string) int {
	switch v := r[field].(type) {
	case int:
		return v
	case int32:
		return int(v)
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}

// QueryResult is what a QueryBuilder.Execute call returns: the main
// query's rows plus every eager-loaded relation's rows, keyed by
// relation name.
type QueryResult struct {
	Entity    string
	Rows      []Row
	Relations map[string][]Row
}

// Count returns the number of rows the main query matched.
func (qr *QueryResult) Count() int {
	if qr == nil {
		return 0
	}
	return len(qr.Rows)
}

// --- Query Builder ---

// QueryBuilder provides a chainable API for building queries
type QueryBuilder struct {
	engine     *Engine
	query      QueryJSON
	debugLevel *DebugLevel
}

// Query starts a new query for the given entity
func (e *Engine) Query(entity string) *QueryBuilder {
	return &QueryBuilder{
		engine: e,
		query: QueryJSON{
			Entity:   entity,
			Filters:  []FilterExpr{},
			Includes: []IncludePath{},
			OrderBy:  []OrderByClause{},
		},
	}
}

// Filter adds a filter condition
// field: "email"; a dotted path such as "orders.total" compiles to its
// last segment as a column of the queried entity (relations are not navigated)
// op: "eq", "neq", "gt", "gte", "lt", "lte", "like"
// value: string, int, float, or bool
func (qb *QueryBuilder) Filter(field string, op string, value interface{}) *QueryBuilder {
	rustOp := goOpToRust(op)

	qb.query.Filters = append(qb.query.Filters, FilterExpr{
		Condition: &FilterCondition{
			Field: parseFieldPath(field),
			Op:    rustOp,
			Value: goValueToFilter(value),
		},
	})
	return qb
}

// Include adds eager loading for a relation
// Supports nested paths: "orders", "orders.items"
func (qb *QueryBuilder) Include(path string) *QueryBuilder {
	qb.query.Includes = append(qb.query.Includes, IncludePath{
		Path: splitPath(path),
	})
	return qb
}

// OrderBy adds a sort clause
// direction: "asc" or "desc"
func (qb *QueryBuilder) OrderBy(field string, direction string) *QueryBuilder {
	dir := "Asc"
	if direction == "desc" {
		dir = "Desc"
	}
	qb.query.OrderBy = append(qb.query.OrderBy, OrderByClause{
		Field:     field,
		Direction: dir,
	})
	return qb
}

// Limit sets the maximum number of results
func (qb *QueryBuilder) Limit(n uint64) *QueryBuilder {
	qb.query.Limit = &n
	return qb
}

// Offset sets the number of results to skip
func (qb *QueryBuilder) Offset(n uint64) *QueryBuilder {
	qb.query.Offset = &n
	return qb
}

// Debug enables SQL-level debug logging for this query only, overriding
// the engine's own debug level.
func (qb *QueryBuilder) Debug() *QueryBuilder {
	lvl := DebugSQL
	qb.debugLevel = &lvl
	return qb
}

// DebugTrace enables full query-trace debug logging for this query only.
func (qb *QueryBuilder) DebugTrace() *QueryBuilder {
	lvl := DebugTrace
	qb.debugLevel = &lvl
	return qb
}

// getDebugContext resolves the DebugContext this query should log
// through: its own override if set via Debug()/DebugTrace(), else the
// engine's.
func (qb *QueryBuilder) getDebugContext() *DebugContext {
	if qb.debugLevel == nil {
		return qb.engine.Debug
	}
	dc := *qb.engine.Debug
	dc.Level = *qb.debugLevel
	return &dc
}

// ToSQL generates SQL without executing. Translation happens natively
// in this package now — a prior Rust FFI hop generated this same
// main_query/eager_queries shape, replaced here by the same quoting and
// relation-traversal conventions the mutation core's Transaction Facade
// already uses (see pkg/engine/mutation/transaction.go's FindIDByParent).
func (qb *QueryBuilder) ToSQL() (*GeneratedSQL, error) {
	if qb.engine.schema == nil {
		return nil, fmt.Errorf("no schema loaded")
	}
	model := qb.engine.schema.GetModel(qb.query.Entity)
	if model == nil {
		return nil, fmt.Errorf("unknown entity %q", qb.query.Entity)
	}

	for _, f := range qb.query.Filters {
		if c := f.Condition; c != nil {
			switch c.Op {
			case "Eq", "Neq", "Gt", "Gte", "Lt", "Lte", "Like", "In":
			default:
				return nil, fmt.Errorf("unknown filter operator %q", c.Op)
			}
		}
	}

	mainSQL := fmt.Sprintf(`SELECT * FROM %q`, model.Name)
	if where := compileFilterExprs(qb.query.Filters); where != "" {
		mainSQL += " WHERE " + where
	}
	if len(qb.query.OrderBy) > 0 {
		clauses := make([]string, len(qb.query.OrderBy))
		for i, ob := range qb.query.OrderBy {
			dir := "ASC"
			if ob.Direction == "Desc" {
				dir = "DESC"
			}
			clauses[i] = fmt.Sprintf("%q %s", ob.Field, dir)
		}
		mainSQL += " ORDER BY " + strings.Join(clauses, ", ")
	}
	if qb.query.Limit != nil {
		mainSQL += fmt.Sprintf(" LIMIT %d", *qb.query.Limit)
	}
	if qb.query.Offset != nil {
		mainSQL += fmt.Sprintf(" OFFSET %d", *qb.query.Offset)
	}

	var eager [][]string
	for _, inc := range qb.query.Includes {
		if len(inc.Path) == 0 {
			continue
		}
		cur := model
		var rf *RelationField
		for _, relName := range inc.Path {
			next, ok := cur.Relations[relName]
			if !ok {
				return nil, fmt.Errorf("unknown relation %q on entity %s", relName, cur.Name)
			}
			rf = next
			cur = next.RelatedModel()
		}
		relName := inc.Path[len(inc.Path)-1]
		eager = append(eager, []string{relName, compileEagerQuery(rf)})
	}

	return &GeneratedSQL{MainQuery: mainSQL, EagerQueries: eager}, nil
}

// compileEagerQuery builds the SELECT fetching every row of rf's
// related model connected to the `$PARENT_IDS` the Executor substitutes
// in — one shape per relation representation, mirroring
// Transaction.FindIDByParent's branching in the mutation package.
func compileEagerQuery(rf *RelationField) string {
	childModel := rf.RelatedModel()
	if rf.Neither() {
		rel := rf.Relation()
		return fmt.Sprintf(
			`SELECT c.* FROM %q c JOIN %q r ON r.%q = c.%q WHERE r.%q IN ($PARENT_IDS)`,
			childModel.Name, rel.RelationTable(), rf.OppositeColumn(), childModel.IDField().Name, rf.RelationColumn(),
		)
	}
	if rf.InlinedInChild() {
		_, col, _ := rf.RelatedField().InlineFKColumn()
		return fmt.Sprintf(`SELECT * FROM %q WHERE %q IN ($PARENT_IDS)`, childModel.Name, col)
	}
	table, col, _ := rf.InlineFKColumn()
	return fmt.Sprintf(
		`SELECT * FROM %q WHERE %q IN (SELECT %q FROM %q WHERE %q IN ($PARENT_IDS))`,
		childModel.Name, childModel.IDField().Name, col, table, rf.Model().IDField().Name,
	)
}

// compileFilterExprs ANDs every top-level filter expression (the
// QueryBuilder's own Filter() method only ever appends Condition nodes;
// Binary is compiled recursively for completeness).
func compileFilterExprs(exprs []FilterExpr) string {
	var clauses []string
	for _, e := range exprs {
		if c := compileFilterExpr(e); c != "" {
			clauses = append(clauses, c)
		}
	}
	return strings.Join(clauses, " AND ")
}

func compileFilterExpr(e FilterExpr) string {
	if e.Condition != nil {
		return compileCondition(e.Condition)
	}
	if e.Binary != nil {
		left := compileFilterExpr(e.Binary.Left)
		right := compileFilterExpr(e.Binary.Right)
		op := "AND"
		if e.Binary.Op == "Or" {
			op = "OR"
		}
		return fmt.Sprintf("(%s %s %s)", left, op, right)
	}
	return ""
}

func compileCondition(c *FilterCondition) string {
	if len(c.Field.Segments) == 0 {
		return ""
	}
	col := c.Field.Segments[len(c.Field.Segments)-1]
	if c.Op == "In" {
		values, _ := c.Value["In"].([]interface{})
		if len(values) == 0 {
			return "FALSE"
		}
		literals := make([]string, len(values))
		for i, v := range values {
			literals[i] = sqlLiteral(v)
		}
		return fmt.Sprintf("%q IN (%s)", col, strings.Join(literals, ", "))
	}
	return fmt.Sprintf("%q %s %s", col, sqlOperatorFromRust(c.Op), filterValueLiteral(c.Value))
}

func sqlOperatorFromRust(op string) string {
	switch op {
	case "Eq":
		return "="
	case "Neq":
		return "<>"
	case "Gt":
		return ">"
	case "Gte":
		return ">="
	case "Lt":
		return "<"
	case "Lte":
		return "<="
	case "Like":
		return "LIKE"
	default:
		return "="
	}
}

// filterValueLiteral renders a tagged FilterValue ({"String": "x"},
// {"Int": 3}, ...) as a SQL literal.
func filterValueLiteral(fv FilterValue) string {
	for kind, v := range fv {
		switch kind {
		case "Null":
			return "NULL"
		case "Bool":
			if b, ok := v.(bool); ok && b {
				return "TRUE"
			}
			return "FALSE"
		default:
			return sqlLiteral(v)
		}
	}
	return "NULL"
}

func sqlLiteral(v interface{}) string {
	switch val := v.(type) {
	case string:
		return "'" + strings.ReplaceAll(val, "'", "''") + "'"
	case nil:
		return "NULL"
	default:
		return fmt.Sprintf("%v", val)
	}
}

// Execute generates SQL and runs it against the database
func (qb *QueryBuilder) Execute(ctx context.Context) (*QueryResult, error) {
	if qb.engine.executor == nil {
		return nil, fmt.Errorf("not connected to database, call Engine.Connect() first")
	}
	start := time.Now()
	result, err := qb.engine.executor.Execute(ctx, qb)
	if err == nil {
		dc := qb.getDebugContext()
		mainSQL := qb.query.Entity
		if generated, genErr := qb.ToSQL(); genErr == nil {
			mainSQL = generated.MainQuery
			dc.LogSQL(mainSQL)
		}
		dc.LogQuery(mainSQL, time.Since(start), len(result.Rows))
	}
	return result, err
}

// --- Helpers ---
func parseFieldPath(path string) FieldPath {
	return FieldPath{Segments: splitPath(path)}
}

func splitPath(path string) []string {
	segments := []string{}
	current := ""
	for _, ch := range path {
		if ch == '.' {
			if current != "" {
				segments = append(segments, current)
				current = ""
			}
		} else {
			current += string(ch)
		}
	}
	if current != "" {
		segments = append(segments, current)
	}
	return segments
}

func goOpToRust(op string) string {
	ops := map[string]string{
		"eq":   "Eq",
		"neq":  "Neq",
		"gt":   "Gt",
		"gte":  "Gte",
		"lt":   "Lt",
		"lte":  "Lte",
		"like": "Like",
		"in":   "In",
	}
	if rustOp, ok := ops[op]; ok {
		return rustOp
	}
	return op
}

func goValueToFilter(value interface{}) FilterValue {
	switch v := value.(type) {
	case string:
		return FilterValue{"String": v}
	case int:
		return FilterValue{"Int": v}
	case int64:
		return FilterValue{"Int": v}
	case float64:
		return FilterValue{"Float": v}
	case bool:
		return FilterValue{"Bool": v}
	case nil:
		return FilterValue{"Null": nil}
	default:
		return FilterValue{"String": fmt.Sprintf("%v", v)}
	}
}
