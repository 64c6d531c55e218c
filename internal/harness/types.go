package harness

// TraceEvent records one step of a scenario run. Entries are named by label.
type TraceEvent struct {
	Step       int      `json:"step"`
	Op         string   `json:"op"` // "settle" or "execute"
	Slot       string   `json:"slot"`
	Emitted    []string `json:"emitted,omitempty"`
	Eliminated []string `json:"eliminated,omitempty"`
	Triggered  []string `json:"triggered,omitempty"`
	Taken      []string `json:"taken,omitempty"`
	GasUsed    uint64   `json:"gas_used,omitempty"`
	PoolSize   int      `json:"pool_size"`
}

// Trace operations.
const (
	OpSettle  = "settle"
	OpExecute = "execute"
)

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall test success.
	// True if all expect clauses and assertions match.
	Pass bool `json:"pass"`

	// Trace contains one event per step.
	Trace []TraceEvent `json:"trace"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// FinalPool lists the stored labels in priority order.
	FinalPool []string `json:"final_pool"`

	// Hash is the final integrity hash in hex.
	Hash string `json:"hash"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:      true,
		Trace:     []TraceEvent{},
		Errors:    []string{},
		FinalPool: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
