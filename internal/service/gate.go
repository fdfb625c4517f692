package service

// Mode is the caller-supplied enrichment parameter. The set of
// recognized values is open ended: anything outside the three known
// modes means no enrichment.
type Mode string

const (
	ModeDonorDetails        Mode = "includeDonorDetails"
	ModeTypeDetails         Mode = "includeTypeDetails"
	ModeTypeAndDonorDetails Mode = "includeTypeAndDonorDetails"
)

// JoinPlan says which joins run for one request: the payer's donor
// record, the full type-detail resolution, both, or neither.
type JoinPlan struct {
	Donor       bool
	TypeDetails bool
}

// SelectJoins interprets an enrichment mode. Unknown or empty modes
// yield the zero plan; that is not an error, the donation is simply
// returned unmodified.
func SelectJoins(mode Mode) JoinPlan {
	switch mode {
	case ModeDonorDetails:
		return JoinPlan{Donor: true}
	case ModeTypeDetails:
		return JoinPlan{TypeDetails: true}
	case ModeTypeAndDonorDetails:
		return JoinPlan{Donor: true, TypeDetails: true}
	default:
		return JoinPlan{}
	}
}
