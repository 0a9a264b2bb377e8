package batch

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/chmatch/internal/model"
)

// fakeResolver records the names it was asked to resolve and can cancel
// the run mid-flight to exercise row-boundary cancellation.
type fakeResolver struct {
	names        []string
	outcomes     map[string]model.Outcome
	cancelOnCall int // 1-based call number after which cancel fires
	cancel       context.CancelFunc
}

func (f *fakeResolver) Resolve(_ context.Context, raw string) model.Outcome {
	f.names = append(f.names, raw)
	if f.cancel != nil && len(f.names) == f.cancelOnCall {
		f.cancel()
	}
	if out, ok := f.outcomes[raw]; ok {
		return out
	}
	return model.Outcome{Status: model.OutcomeMatched, Score: 100, QueryUsed: raw}
}

func rowsFor(names ...string) []model.Row {
	rows := make([]model.Row, 0, len(names))
	for _, n := range names {
		rows = append(rows, model.Row{"company_name": n, "id": n})
	}
	return rows
}

func TestRun_Completes(t *testing.T) {
	t.Parallel()

	fake := &fakeResolver{
		outcomes: map[string]model.Outcome{
			"B": {Status: model.OutcomeUnmatched, Score: 50},
		},
	}
	var progress [][2]int
	runner := New(fake,
		WithRowInterval(0),
		WithProgress(func(done, total int) { progress = append(progress, [2]int{done, total}) }),
	)

	got := runner.Run(context.Background(), rowsFor("A", "B", "C"), "company_name")

	assert.Equal(t, model.RunCompleted, got.Status)
	assert.Equal(t, 3, got.Total)
	assert.Equal(t, 3, got.Processed)
	assert.NotEmpty(t, got.RunID)
	assert.Equal(t, 2, got.MatchedCount())
	assert.Equal(t, []string{"A", "B", "C"}, fake.names)
	assert.Equal(t, [][2]int{{1, 3}, {2, 3}, {3, 3}}, progress)
}

func TestRun_OrderPreserved(t *testing.T) {
	t.Parallel()

	fake := &fakeResolver{}
	runner := New(fake, WithRowInterval(0))

	got := runner.Run(context.Background(), rowsFor("first", "second", "third"), "company_name")

	require.Len(t, got.Results, 3)
	assert.Equal(t, "first", got.Results[0].Row["id"])
	assert.Equal(t, "second", got.Results[1].Row["id"])
	assert.Equal(t, "third", got.Results[2].Row["id"])
}

func TestRun_CancelledAtRowBoundary(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Cancellation fires during the second resolution. The second row
	// still finishes, rows three through five are never started.
	fake := &fakeResolver{cancelOnCall: 2, cancel: cancel}
	runner := New(fake, WithRowInterval(0))

	got := runner.Run(ctx, rowsFor("A", "B", "C", "D", "E"), "company_name")

	assert.Equal(t, model.RunCancelled, got.Status)
	assert.Equal(t, 5, got.Total)
	assert.Equal(t, 2, got.Processed)
	require.Len(t, got.Results, 2)
	assert.Equal(t, "A", got.Results[0].Row["id"])
	assert.Equal(t, "B", got.Results[1].Row["id"])
	assert.Equal(t, []string{"A", "B"}, fake.names)
	// The in-flight outcome is kept intact.
	assert.Equal(t, model.OutcomeMatched, got.Results[1].Outcome.Status)
}

func TestRun_CancelledBeforeStart(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	fake := &fakeResolver{}
	runner := New(fake, WithRowInterval(0))

	got := runner.Run(ctx, rowsFor("A", "B"), "company_name")

	assert.Equal(t, model.RunCancelled, got.Status)
	assert.Zero(t, got.Processed)
	assert.Empty(t, got.Results)
	assert.Empty(t, fake.names)
}

func TestRun_MissingColumnFailsRowOnly(t *testing.T) {
	t.Parallel()

	fake := &fakeResolver{}
	runner := New(fake, WithRowInterval(0))

	rows := []model.Row{
		{"company_name": "A"},
		{"other": "no name here"},
		{"company_name": "C"},
	}
	got := runner.Run(context.Background(), rows, "company_name")

	assert.Equal(t, model.RunCompleted, got.Status)
	require.Len(t, got.Results, 3)
	assert.Equal(t, model.OutcomeFailed, got.Results[1].Outcome.Status)
	assert.Equal(t, "missing name column: company_name", got.Results[1].Outcome.Err)
	// The registry is never consulted for the bad row.
	assert.Equal(t, []string{"A", "C"}, fake.names)
}

func TestRun_EmptyNameFailsRowOnly(t *testing.T) {
	t.Parallel()

	fake := &fakeResolver{}
	runner := New(fake, WithRowInterval(0))

	rows := []model.Row{
		{"company_name": "A"},
		{"company_name": "   "},
	}
	got := runner.Run(context.Background(), rows, "company_name")

	assert.Equal(t, model.RunCompleted, got.Status)
	require.Len(t, got.Results, 2)
	assert.Equal(t, model.OutcomeFailed, got.Results[1].Outcome.Status)
	assert.Equal(t, "empty name", got.Results[1].Outcome.Err)
	assert.Equal(t, []string{"A"}, fake.names)
}

func TestRun_EmptyInput(t *testing.T) {
	t.Parallel()

	fake := &fakeResolver{}
	runner := New(fake, WithRowInterval(0))

	got := runner.Run(context.Background(), nil, "company_name")

	assert.Equal(t, model.RunCompleted, got.Status)
	assert.Zero(t, got.Total)
	assert.Zero(t, got.Processed)
	assert.Empty(t, got.Results)
}
