package order

// Status is an order's position in the fulfillment pipeline.
type Status string

const (
	StatusPending     Status = "pending"
	StatusNegotiation Status = "negotiation"
	StatusApproved    Status = "approved"
	StatusPaid        Status = "paid"
	StatusProducing   Status = "producing"
	StatusShipped     Status = "shipped"
	StatusDelivered   Status = "delivered"

	// StatusCancelled is absorbing: reachable from any state via an explicit
	// cancel action, never via the forward/back pipeline affordances.
	StatusCancelled Status = "cancelled"
)

// Pipeline is the ordered fulfillment sequence. Cancelled is not part of it.
var Pipeline = [...]Status{
	StatusPending,
	StatusNegotiation,
	StatusApproved,
	StatusPaid,
	StatusProducing,
	StatusShipped,
	StatusDelivered,
}

func pipelineIndex(s Status) int {
	for i, st := range Pipeline {
		if st == s {
			return i
		}
	}
	return -1
}

// Known reports whether s is a pipeline status or cancelled.
func (s Status) Known() bool {
	return s == StatusCancelled || pipelineIndex(s) >= 0
}

// Locked reports whether item edits on an order in this status require an
// elevated principal.
func (s Status) Locked() bool {
	switch s {
	case StatusPaid, StatusProducing, StatusShipped, StatusDelivered:
		return true
	}
	return false
}

// NextStatus returns the pipeline entry immediately after s. The second
// return is false when s is terminal (delivered), cancelled, or unrecognized.
func NextStatus(s Status) (Status, bool) {
	i := pipelineIndex(s)
	if i < 0 || i == len(Pipeline)-1 {
		return "", false
	}
	return Pipeline[i+1], true
}

// PreviousStatus returns the pipeline entry immediately before s. The second
// return is false when s is initial (pending), cancelled, or unrecognized.
func PreviousStatus(s Status) (Status, bool) {
	i := pipelineIndex(s)
	if i <= 0 {
		return "", false
	}
	return Pipeline[i-1], true
}
