package entities

import (
	"math"
	"time"
)

type VoteType string

const (
	VoteTypeSimple    VoteType = "SIMPLE"
	VoteTypeTwoThirds VoteType = "TWO_THIRDS"
	VoteTypeUnanimous VoteType = "UNANIMOUS"
)

func (t VoteType) Valid() bool {
	switch t {
	case VoteTypeSimple, VoteTypeTwoThirds, VoteTypeUnanimous:
		return true
	default:
		return false
	}
}

type VoteStatus string

const (
	VoteStatusDraft  VoteStatus = "DRAFT"
	VoteStatusActive VoteStatus = "ACTIVE"
	VoteStatusClosed VoteStatus = "CLOSED"
)

type Outcome string

const (
	OutcomePending  Outcome = ""
	OutcomePassed   Outcome = "PASSED"
	OutcomeFailed   Outcome = "FAILED"
	OutcomeNoQuorum Outcome = "NO_QUORUM"
)

// Vote is one governance decision scoped to a group. The eligibility
// snapshot and aggregate counters are owned by the vote row; ballots live in
// their own append-only store keyed by (vote_id, cast_for).
type Vote struct {
	VoteID      string
	GroupID     string
	Title       string
	Description string
	VoteType    VoteType
	AllowProxy  bool
	StartDate   time.Time
	EndDate     time.Time
	Status      VoteStatus
	Outcome     Outcome

	// EligibleVoters is frozen at creation; membership changes during an
	// active vote cannot add or remove voting rights.
	EligibleVoters []string

	TotalEligibleVoters int
	TotalVotesCast      int
	YesVotes            int
	NoVotes             int
	AbstainVotes        int

	CreatedBy string
	CreatedAt time.Time
	UpdatedAt time.Time
	ClosedAt  *time.Time
}

// IsEligible reports whether memberID is part of the frozen snapshot.
func (v Vote) IsEligible(memberID string) bool {
	for _, id := range v.EligibleVoters {
		if id == memberID {
			return true
		}
	}
	return false
}

// WindowContains reports whether now falls inside [StartDate, EndDate).
// Cast-time checks use this independently of the status field, so a ballot
// arriving after EndDate fails even when the sweep has not closed the vote
// yet.
func (v Vote) WindowContains(now time.Time) bool {
	return !now.Before(v.StartDate) && now.Before(v.EndDate)
}

// Tally is the aggregate view rendered with every vote read.
type Tally struct {
	YesVotes          int
	NoVotes           int
	AbstainVotes      int
	TotalVotesCast    int
	TotalEligible     int
	YesPercentage     int
	NoPercentage      int
	AbstainPercentage int
	TurnoutPercentage int
}

// LiveTally derives the tally from the vote's counters. Percentages are
// computed against ballots cast, matching the resolution denominator.
func (v Vote) LiveTally() Tally {
	tally := Tally{
		YesVotes:       v.YesVotes,
		NoVotes:        v.NoVotes,
		AbstainVotes:   v.AbstainVotes,
		TotalVotesCast: v.TotalVotesCast,
		TotalEligible:  v.TotalEligibleVoters,
	}
	tally.YesPercentage = percentage(v.YesVotes, v.TotalVotesCast)
	tally.NoPercentage = percentage(v.NoVotes, v.TotalVotesCast)
	tally.AbstainPercentage = percentage(v.AbstainVotes, v.TotalVotesCast)
	tally.TurnoutPercentage = percentage(v.TotalVotesCast, v.TotalEligibleVoters)
	return tally
}

// ResolveOutcome evaluates the majority rule against ballots actually cast.
// Abstentions never count toward either side; a vote with zero ballots is
// NO_QUORUM regardless of rule.
func ResolveOutcome(voteType VoteType, yes int, no int, abstain int) Outcome {
	totalCast := yes + no + abstain
	if totalCast == 0 {
		return OutcomeNoQuorum
	}
	switch voteType {
	case VoteTypeSimple:
		if yes > no {
			return OutcomePassed
		}
	case VoteTypeTwoThirds:
		if yes > 0 && yes >= ceilTwoThirds(yes+no) {
			return OutcomePassed
		}
	case VoteTypeUnanimous:
		if no == 0 && yes > 0 {
			return OutcomePassed
		}
	}
	return OutcomeFailed
}

// ceilTwoThirds returns ceil(2*n/3) without floating point.
func ceilTwoThirds(n int) int {
	if n <= 0 {
		return 0
	}
	return (2*n + 2) / 3
}

func percentage(count int, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(count) / float64(total) * 100))
}
