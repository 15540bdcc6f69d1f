package entities

import (
	"testing"
	"time"
)

func TestResolveOutcomeSimple(t *testing.T) {
	cases := []struct {
		name    string
		yes     int
		no      int
		abstain int
		want    Outcome
	}{
		{"majority passes", 3, 2, 0, OutcomePassed},
		{"tie fails", 2, 2, 0, OutcomeFailed},
		{"minority fails", 1, 3, 0, OutcomeFailed},
		{"abstain only fails", 0, 0, 3, OutcomeFailed},
		{"abstain does not help yes", 1, 1, 5, OutcomeFailed},
		{"single yes passes", 1, 0, 0, OutcomePassed},
		{"no ballots is no quorum", 0, 0, 0, OutcomeNoQuorum},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ResolveOutcome(VoteTypeSimple, tc.yes, tc.no, tc.abstain)
			if got != tc.want {
				t.Fatalf("ResolveOutcome(SIMPLE, %d, %d, %d) = %s, want %s",
					tc.yes, tc.no, tc.abstain, got, tc.want)
			}
		})
	}
}

func TestResolveOutcomeTwoThirds(t *testing.T) {
	cases := []struct {
		name    string
		yes     int
		no      int
		abstain int
		want    Outcome
	}{
		// ceil(2/3 * 3) = 2
		{"two of three passes", 2, 1, 0, OutcomePassed},
		{"one of three fails", 1, 2, 0, OutcomeFailed},
		// ceil(2/3 * 5) = 4
		{"three of five fails", 3, 2, 0, OutcomeFailed},
		{"four of five passes", 4, 1, 0, OutcomePassed},
		// ceil(2/3 * 6) = 4
		{"four of six passes", 4, 2, 0, OutcomePassed},
		{"abstentions excluded from denominator", 2, 1, 10, OutcomePassed},
		{"abstain only fails", 0, 0, 4, OutcomeFailed},
		{"single yes passes", 1, 0, 0, OutcomePassed},
		{"no ballots is no quorum", 0, 0, 0, OutcomeNoQuorum},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ResolveOutcome(VoteTypeTwoThirds, tc.yes, tc.no, tc.abstain)
			if got != tc.want {
				t.Fatalf("ResolveOutcome(TWO_THIRDS, %d, %d, %d) = %s, want %s",
					tc.yes, tc.no, tc.abstain, got, tc.want)
			}
		})
	}
}

func TestResolveOutcomeUnanimous(t *testing.T) {
	cases := []struct {
		name    string
		yes     int
		no      int
		abstain int
		want    Outcome
	}{
		{"all yes passes", 4, 0, 0, OutcomePassed},
		{"yes with abstain passes", 2, 0, 2, OutcomePassed},
		{"single no fails", 5, 1, 0, OutcomeFailed},
		{"abstain only fails", 0, 0, 3, OutcomeFailed},
		{"no ballots is no quorum", 0, 0, 0, OutcomeNoQuorum},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ResolveOutcome(VoteTypeUnanimous, tc.yes, tc.no, tc.abstain)
			if got != tc.want {
				t.Fatalf("ResolveOutcome(UNANIMOUS, %d, %d, %d) = %s, want %s",
					tc.yes, tc.no, tc.abstain, got, tc.want)
			}
		})
	}
}

func TestWindowContains(t *testing.T) {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	end := start.Add(24 * time.Hour)
	vote := Vote{StartDate: start, EndDate: end}

	if vote.WindowContains(start.Add(-time.Second)) {
		t.Fatalf("window must exclude instants before start")
	}
	if !vote.WindowContains(start) {
		t.Fatalf("window must include the start instant")
	}
	if !vote.WindowContains(end.Add(-time.Second)) {
		t.Fatalf("window must include instants before end")
	}
	if vote.WindowContains(end) {
		t.Fatalf("window must exclude the end instant")
	}
}

func TestLiveTallyPercentages(t *testing.T) {
	vote := Vote{
		YesVotes:            2,
		NoVotes:             1,
		AbstainVotes:        1,
		TotalVotesCast:      4,
		TotalEligibleVoters: 8,
	}
	tally := vote.LiveTally()
	if tally.YesPercentage != 50 {
		t.Fatalf("yes percentage = %d, want 50", tally.YesPercentage)
	}
	if tally.NoPercentage != 25 {
		t.Fatalf("no percentage = %d, want 25", tally.NoPercentage)
	}
	if tally.TurnoutPercentage != 50 {
		t.Fatalf("turnout percentage = %d, want 50", tally.TurnoutPercentage)
	}

	empty := Vote{TotalEligibleVoters: 5}
	if got := empty.LiveTally().YesPercentage; got != 0 {
		t.Fatalf("empty tally yes percentage = %d, want 0", got)
	}
}

func TestIsEligible(t *testing.T) {
	vote := Vote{EligibleVoters: []string{"member-1", "member-2"}}
	if !vote.IsEligible("member-1") {
		t.Fatalf("member-1 should be eligible")
	}
	if vote.IsEligible("member-3") {
		t.Fatalf("member-3 should not be eligible")
	}
}
