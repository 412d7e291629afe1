package bulk

import (
	"fmt"

	"github.com/Veraticus/ledgerflow/internal/model"
)

// Outcome is the result of the store call for one id.
type Outcome struct {
	Err error
	// Record is the store's copy after the call: the updated or created
	// record. It is nil for deletes and skipped ids.
	Record  *model.Transaction
	ID      string
	Skipped bool
}

// OK reports whether the call succeeded or was skipped.
func (o Outcome) OK() bool { return o.Err == nil }

// Result holds one outcome per target, in target order.
type Result struct {
	Op       Operation
	Policy   Policy
	Outcomes []Outcome
}

// Succeeded returns the outcomes whose call went through, including skips.
func (r Result) Succeeded() []Outcome {
	var out []Outcome
	for _, o := range r.Outcomes {
		if o.OK() {
			out = append(out, o)
		}
	}
	return out
}

// Failed returns the outcomes whose call was rejected.
func (r Result) Failed() []Outcome {
	var out []Outcome
	for _, o := range r.Outcomes {
		if !o.OK() {
			out = append(out, o)
		}
	}
	return out
}

// Applicable returns the outcomes local state should reflect under the policy.
func (r Result) Applicable() []Outcome {
	if r.Policy == AllOrNothing && len(r.Failed()) > 0 {
		return nil
	}
	return r.Succeeded()
}

// BatchError reports the ids of a batch whose calls failed.
type BatchError struct {
	errs   []error
	Op     Operation
	Failed []string
	Total  int
}

func newBatchError(op Operation, total int, failed []Outcome) *BatchError {
	be := &BatchError{Op: op, Total: total}
	for _, o := range failed {
		be.Failed = append(be.Failed, o.ID)
		be.errs = append(be.errs, o.Err)
	}
	return be
}

func (e *BatchError) Error() string {
	msg := fmt.Sprintf("%s failed for %d of %d records", e.Op, len(e.Failed), e.Total)
	if len(e.errs) > 0 {
		msg += ": " + e.errs[0].Error()
	}
	return msg
}

// Unwrap exposes every per-id error so errors.Is sees the store failures.
func (e *BatchError) Unwrap() []error { return e.errs }
