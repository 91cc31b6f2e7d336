package subscription

// Event outcomes reported to a Recorder.
const (
	OutcomeApplied  = "applied"
	OutcomeIgnored  = "ignored"
	OutcomeFailed   = "failed"
	OutcomeRejected = "rejected"
)

// Redirect flows reported to a Recorder.
const (
	FlowCheckout = "checkout"
	FlowUpdate   = "update"
	FlowCancel   = "cancel"
	FlowPortal   = "portal"
)

// Recorder receives counters for processed events and issued redirects.
type Recorder interface {
	RecordBillingEvent(kind EventKind, outcome string)
	RecordRedirect(flow string)
}

type noopRecorder struct{}

func (noopRecorder) RecordBillingEvent(EventKind, string) {}
func (noopRecorder) RecordRedirect(string)                {}
