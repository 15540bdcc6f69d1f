package entities

import "time"

type BallotChoice string

const (
	ChoiceYes     BallotChoice = "YES"
	ChoiceNo      BallotChoice = "NO"
	ChoiceAbstain BallotChoice = "ABSTAIN"
)

func (c BallotChoice) Valid() bool {
	switch c {
	case ChoiceYes, ChoiceNo, ChoiceAbstain:
		return true
	default:
		return false
	}
}

// Ballot is one recorded choice for a vote. (VoteID, CastFor) is the
// uniqueness identity: a proxy ballot consumes the represented member's
// voting right, not the proxy's. Ballots are append-only.
type Ballot struct {
	BallotID string
	VoteID   string
	CastBy   string
	CastFor  string
	Choice   BallotChoice
	CastAt   time.Time
}

// IsProxy reports whether the ballot was cast on behalf of another member.
func (b Ballot) IsProxy() bool {
	return b.CastBy != b.CastFor
}
