package harness

// Trace event types besides the step kinds.
const (
	EventChange = "change"
)

// TraceEvent is one observation.
type TraceEvent struct {
	Type   string   `json:"type"`
	Seq    int64    `json:"seq"`
	IDs    []string `json:"ids"`
	Loaded *bool    `json:"loaded,omitempty"` // step events only
}

// Result is the outcome of a scenario run.
type Result struct {
	// Pass is true when every expectation held.
	Pass bool `json:"pass"`

	// Trace lists change and step events in order.
	Trace []TraceEvent `json:"trace"`

	// Errors lists failed expectations. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError records a failed expectation and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

func (r *Result) addEvent(ev TraceEvent) {
	if ev.IDs == nil {
		ev.IDs = []string{}
	}
	r.Trace = append(r.Trace, ev)
}
