package model

// Outcome is the classification of a candidate pair
type Outcome int

const (
	NoMatch Outcome = iota
	CloseMatch
	Identical
)

func (o Outcome) String() string {
	switch o {
	case Identical:
		return "identical"
	case CloseMatch:
		return "close_match"
	default:
		return "no_match"
	}
}

// Decision is the outcome for one unordered pair and the rule that produced it
type Decision struct {
	Outcome Outcome
	Rule    string
}

// Assertion is a link written back to the graph
type Assertion struct {
	Subject string  `json:"subject"`
	Object  string  `json:"object"`
	Kind    Kind    `json:"kind"`
	Outcome Outcome `json:"outcome"`
	Rule    string  `json:"rule,omitempty"`
}
