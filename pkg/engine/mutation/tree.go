package mutation

// This file defines the mutation tree: the typed shape a caller builds
// to describe a nested create/update/upsert/delete, and which the
// executor (executor.go) walks depth-first. Field and type names
// (CreateNode, NodeSelector, NestedMutations, ...) come straight from
// the Prisma query-engine's nested-write vocabulary.

// NodeSelector identifies a single row by one field/value pair — the
// `where` clause of a connect, nested update, or nested delete.
type NodeSelector struct {
	Field string
	Value interface{}
}

// FilterOp is the comparison a Filter applies.
type FilterOp string

const (
	OpEq  FilterOp = "eq"
	OpNeq FilterOp = "neq"
	OpGt  FilterOp = "gt"
	OpGte FilterOp = "gte"
	OpLt  FilterOp = "lt"
	OpLte FilterOp = "lte"
	OpIn  FilterOp = "in"
)

// Filter is one condition of an update_many/delete_many's WHERE clause.
type Filter struct {
	Field string
	Op    FilterOp
	Value interface{}
}

// NodeArgs is the flat scalar payload of a create/update: plain fields
// plus scalar-list fields (replace-then-insert semantics).
type NodeArgs struct {
	Fields     map[string]interface{}
	ListFields map[string][]interface{}
}

// CreateNode describes one nested (or top-level) create.
type CreateNode struct {
	Model  string
	Args   NodeArgs
	Nested []NestedMutations
}

// UpdateNode describes one nested (or top-level) update, targeting a
// single row by selector.
type UpdateNode struct {
	Model    string
	Selector NodeSelector
	Args     NodeArgs
	Nested   []NestedMutations
}

// UpsertNode: update if Selector matches, else create.
type UpsertNode struct {
	Model    string
	Selector NodeSelector
	Create   CreateNode
	Update   UpdateNode
}

// DeleteNode describes one nested (or top-level) delete by selector.
type DeleteNode struct {
	Model    string
	Selector NodeSelector
}

// UpdateManyNode updates every row matching Filters.
type UpdateManyNode struct {
	Model   string
	Filters []Filter
	Args    NodeArgs
}

// DeleteManyNode deletes every row matching Filters.
type DeleteManyNode struct {
	Model   string
	Filters []Filter
}

// NestedMutations groups every nested operation declared for one
// relation field of a parent node. Execution order across groups is
// fixed: creates, updates, deletes, upserts, connects, sets,
// disconnects, update_manys, delete_manys.
type NestedMutations struct {
	RelationField string

	Creates     []CreateNode
	Updates     []UpdateNode
	Upserts     []UpsertNode
	Deletes     []DeleteNode
	Connects    []NodeSelector
	Sets        []NodeSelector
	Disconnects []NodeSelector
	UpdateManys []UpdateManyNode
	DeleteManys []DeleteManyNode
}

// TopLevelKind discriminates the root of a mutation tree.
type TopLevelKind int

const (
	KindCreateNode TopLevelKind = iota
	KindUpdateNode
	KindUpsertNode
	KindUpdateNodes
	KindDeleteNode
	KindDeleteNodes
	KindResetData
)

// TopLevelMutation is the root of a mutation tree handed to Execute.
// Only the fields relevant to Kind are populated.
type TopLevelMutation struct {
	Kind  TopLevelKind
	Model string

	Selector NodeSelector // CreateNode fallback n/a; UpdateNode/DeleteNode/UpsertNode
	Filters  []Filter     // UpdateNodes/DeleteNodes

	Args   NodeArgs // CreateNode/UpdateNode/UpdateNodes
	Nested []NestedMutations

	Upsert *UpsertNode // KindUpsertNode
}

// MutationResult is what Execute returns for any TopLevelMutation kind.
// Only the field(s) matching Kind are meaningful.
type MutationResult struct {
	ID       Identifier
	Affected int64
	Record   map[string]interface{}
}
