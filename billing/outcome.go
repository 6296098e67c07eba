package billing

// OutcomeStatus is the result of a best-effort side effect.
type OutcomeStatus string

const (
	OutcomeApplied OutcomeStatus = "applied"
	OutcomeSkipped OutcomeStatus = "skipped"
	OutcomeFailed  OutcomeStatus = "failed"
)

// Outcome records what happened to one side effect of a reconciliation.
// Failures never abort the booking; they are surfaced here and in the logs.
type Outcome struct {
	Step   string        `json:"step"`
	Status OutcomeStatus `json:"status"`
	Reason string        `json:"reason,omitempty"`
}

func Applied(step string) Outcome {
	return Outcome{Step: step, Status: OutcomeApplied}
}

func Skipped(step, reason string) Outcome {
	return Outcome{Step: step, Status: OutcomeSkipped, Reason: reason}
}

func Failed(step string, err error) Outcome {
	o := Outcome{Step: step, Status: OutcomeFailed}
	if err != nil {
		o.Reason = err.Error()
	}
	return o
}
