package model

// Row is one record from the input table, keyed by column header.
type Row map[string]string

// Get returns the value at the given column, "" if absent.
func (r Row) Get(column string) string { return r[column] }

// RunStatus is the batch state machine: idle → running → completed|cancelled.
type RunStatus string

const (
	RunIdle      RunStatus = "idle"
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed"
	RunCancelled RunStatus = "cancelled"
)

// RowResult pairs an input row with its resolution outcome.
type RowResult struct {
	Row     Row     `json:"row"`
	Outcome Outcome `json:"outcome"`
}

// BatchResult is the final state of one batch run. On cancellation,
// Results holds the prefix of the input processed so far.
type BatchResult struct {
	RunID     string      `json:"run_id"`
	Status    RunStatus   `json:"status"`
	Total     int         `json:"total"`
	Processed int         `json:"processed"`
	Results   []RowResult `json:"results"`
}

// MatchedCount returns how many rows resolved to an accepted candidate.
func (b *BatchResult) MatchedCount() int {
	n := 0
	for _, r := range b.Results {
		if r.Outcome.Matched() {
			n++
		}
	}
	return n
}
