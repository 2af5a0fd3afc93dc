package mutation

import "context"

// fakeQuerier is a hand-rolled stand-in for a pgx.Tx, used by this
// package's own tests to exercise the Transaction Facade, Integrity
// Guard, Nested Action Policy, and Executor without a live Postgres
// connection. Each test supplies small closures describing how the
// handful of statements it cares about should respond, rather than
// this fake re-deriving SQL semantics generically — the Statement
// Builder functions already have their own purity tests
// (builders_test.go); these tests are about the control flow wired on
// top of them.
type fakeQuerier struct {
	onExec  func(sql string, args []interface{}) (int64, error)
	onQuery func(sql string, args []interface{}) ([]map[string]interface{}, error)
}

type fakeCommandTag struct{ n int64 }

func (t fakeCommandTag) RowsAffected() int64 { return t.n }

func (f *fakeQuerier) Exec(ctx context.Context, sql string, args ...interface{}) (CommandTag, error) {
	if f.onExec == nil {
		return fakeCommandTag{0}, nil
	}
	n, err := f.onExec(sql, args)
	return fakeCommandTag{n}, err
}

func (f *fakeQuerier) Query(ctx context.Context, sql string, args ...interface{}) (rows, error) {
	if f.onQuery == nil {
		return &fakeRows{}, nil
	}
	out, err := f.onQuery(sql, args)
	if err != nil {
		return nil, err
	}
	return &fakeRows{rows: out}, nil
}

// fakeRows implements the package's own minimal `rows` interface over
// an in-memory slice of single-column (or full-record) maps keyed by
// column name — enough for SelectIDs (reads the first value of each
// row) and FindRecord (reads every model field by name).
type fakeRows struct {
	rows []map[string]interface{}
	pos  int
}

func (r *fakeRows) Close()     {}
func (r *fakeRows) Err() error { return nil }

func (r *fakeRows) Next() bool {
	if r.pos >= len(r.rows) {
		return false
	}
	r.pos++
	return true
}

func (r *fakeRows) Values() ([]interface{}, error) {
	row := r.rows[r.pos-1]
	cols := make([]string, 0, len(row))
	for c := range row {
		cols = append(cols, c)
	}
	values := make([]interface{}, len(cols))
	for i, c := range cols {
		values[i] = row[c]
	}
	return values, nil
}
