package mutation

import (
	"context"
	"fmt"

	"github.com/chameleon-db/chameleondb/chameleon/internal/journal"
	"github.com/chameleon-db/chameleondb/chameleon/pkg/engine"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Factory implements engine.MutationFactory on top of the nested
// mutation core: every flat Insert/Update/Delete the engine's own
// Insert/Update/Delete methods hand out is really a one-level
// TopLevelMutation run through Execute inside its own transaction.
// This replaces an earlier pkg/mutation package whose Factory returned
// an engine.MutationBuilder type the rest of the codebase never defined.
type Factory struct {
	pool   *pgxpool.Pool
	schema *engine.Schema
	log    *journal.Logger
}

// NewFactory builds a Factory bound to a live pool and the engine's
// loaded schema.
func NewFactory(pool *pgxpool.Pool, schema *engine.Schema, log *journal.Logger) *Factory {
	return &Factory{pool: pool, schema: schema, log: log}
}

func (f *Factory) NewInsert(entity string) engine.InsertMutation {
	return &insertBuilder{factory: f, entity: entity, fields: map[string]interface{}{}}
}

func (f *Factory) NewUpdate(entity string) engine.UpdateMutation {
	return &updateBuilder{factory: f, entity: entity, fields: map[string]interface{}{}}
}

func (f *Factory) NewDelete(entity string) engine.DeleteMutation {
	return &deleteBuilder{factory: f, entity: entity}
}

func (f *Factory) run(ctx context.Context, m TopLevelMutation) (MutationResult, error) {
	pgxTx, err := f.pool.Begin(ctx)
	if err != nil {
		return MutationResult{}, fmt.Errorf("begin transaction: %w", err)
	}
	tx := NewTransaction(pgxTx, f.schema)

	res, err := Execute(ctx, tx, f.log, f.schema, m)
	if err != nil {
		_ = tx.Rollback(ctx)
		return MutationResult{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return MutationResult{}, fmt.Errorf("commit transaction: %w", err)
	}
	return res, nil
}

func toFilters(raw []rawFilter) []Filter {
	filters := make([]Filter, len(raw))
	for i, r := range raw {
		filters[i] = Filter{Field: r.field, Op: FilterOp(r.operator), Value: r.value}
	}
	return filters
}

type rawFilter struct {
	field    string
	operator string
	value    interface{}
}

// ── InsertMutation ──────────────────────────────────────────────────

type insertBuilder struct {
	factory *Factory
	entity  string
	fields  map[string]interface{}
}

func (b *insertBuilder) Set(field string, value interface{}) engine.InsertMutation {
	b.fields[field] = value
	return b
}

func (b *insertBuilder) Execute(ctx context.Context) (*engine.InsertResult, error) {
	m := TopLevelMutation{Kind: KindCreateNode, Model: b.entity, Args: NodeArgs{Fields: b.fields}}
	res, err := b.factory.run(ctx, m)
	if err != nil {
		return nil, err
	}
	return &engine.InsertResult{ID: res.ID.Value(), Affected: int(res.Affected)}, nil
}

// ── UpdateMutation ──────────────────────────────────────────────────

type updateBuilder struct {
	factory *Factory
	entity  string
	fields  map[string]interface{}
	filters []rawFilter
}

func (b *updateBuilder) Set(field string, value interface{}) engine.UpdateMutation {
	b.fields[field] = value
	return b
}

func (b *updateBuilder) Filter(field, operator string, value interface{}) engine.UpdateMutation {
	b.filters = append(b.filters, rawFilter{field, operator, value})
	return b
}

func (b *updateBuilder) Execute(ctx context.Context) (*engine.UpdateResult, error) {
	m := TopLevelMutation{
		Kind:    KindUpdateNodes,
		Model:   b.entity,
		Filters: toFilters(b.filters),
		Args:    NodeArgs{Fields: b.fields},
	}
	res, err := b.factory.run(ctx, m)
	if err != nil {
		return nil, err
	}
	return &engine.UpdateResult{Affected: int(res.Affected)}, nil
}

// ── DeleteMutation ──────────────────────────────────────────────────

type deleteBuilder struct {
	factory *Factory
	entity  string
	filters []rawFilter
}

func (b *deleteBuilder) Filter(field, operator string, value interface{}) engine.DeleteMutation {
	b.filters = append(b.filters, rawFilter{field, operator, value})
	return b
}

func (b *deleteBuilder) Execute(ctx context.Context) (*engine.DeleteResult, error) {
	m := TopLevelMutation{Kind: KindDeleteNodes, Model: b.entity, Filters: toFilters(b.filters)}
	res, err := b.factory.run(ctx, m)
	if err != nil {
		return nil, err
	}
	return &engine.DeleteResult{Affected: int(res.Affected)}, nil
}
