package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"chamahub/contexts/group-governance/voting-engine/domain/entities"
	domainerrors "chamahub/contexts/group-governance/voting-engine/domain/errors"
)

func activeVote(voteID string, start time.Time, end time.Time, voters ...string) entities.Vote {
	return entities.Vote{
		VoteID:              voteID,
		GroupID:             "group-1",
		Title:               "Approve loan disbursement",
		Description:         "Disburse the March loan to member applications",
		VoteType:            entities.VoteTypeSimple,
		StartDate:           start,
		EndDate:             end,
		Status:              entities.VoteStatusActive,
		EligibleVoters:      voters,
		TotalEligibleVoters: len(voters),
		CreatedBy:           "admin-1",
		CreatedAt:           start,
		UpdatedAt:           start,
	}
}

func TestCastBallotAtomicInvariants(t *testing.T) {
	now := time.Now().UTC()
	store := NewStore([]entities.Vote{
		activeVote("vote-1", now.Add(-time.Hour), now.Add(time.Hour), "member-1", "member-2"),
	})
	ctx := context.Background()

	updated, err := store.CastBallot(ctx, entities.Ballot{
		BallotID: "ballot-1",
		VoteID:   "vote-1",
		CastBy:   "member-1",
		CastFor:  "member-1",
		Choice:   entities.ChoiceYes,
		CastAt:   now,
	})
	if err != nil {
		t.Fatalf("cast ballot failed: %v", err)
	}
	if updated.YesVotes != 1 || updated.TotalVotesCast != 1 {
		t.Fatalf("counters not incremented: yes=%d total=%d", updated.YesVotes, updated.TotalVotesCast)
	}

	_, err = store.CastBallot(ctx, entities.Ballot{
		BallotID: "ballot-2",
		VoteID:   "vote-1",
		CastBy:   "member-1",
		CastFor:  "member-1",
		Choice:   entities.ChoiceNo,
		CastAt:   now,
	})
	if !errors.Is(err, domainerrors.ErrAlreadyVoted) {
		t.Fatalf("duplicate cast: got %v, want ErrAlreadyVoted", err)
	}

	vote, err := store.GetVote(ctx, "vote-1")
	if err != nil {
		t.Fatalf("get vote failed: %v", err)
	}
	if vote.TotalVotesCast != 1 || vote.NoVotes != 0 {
		t.Fatalf("failed cast must not move counters: total=%d no=%d", vote.TotalVotesCast, vote.NoVotes)
	}
}

func TestCastBallotWindowRecheck(t *testing.T) {
	now := time.Now().UTC()
	store := NewStore([]entities.Vote{
		activeVote("vote-1", now.Add(-2*time.Hour), now.Add(-time.Hour), "member-1"),
	})

	// Status is still ACTIVE because no sweep has run, but the window is over.
	_, err := store.CastBallot(context.Background(), entities.Ballot{
		BallotID: "ballot-1",
		VoteID:   "vote-1",
		CastBy:   "member-1",
		CastFor:  "member-1",
		Choice:   entities.ChoiceYes,
		CastAt:   now,
	})
	if !errors.Is(err, domainerrors.ErrVoteNotOpen) {
		t.Fatalf("post-window cast: got %v, want ErrVoteNotOpen", err)
	}
}

func TestCastBallotConcurrentDistinctVoters(t *testing.T) {
	now := time.Now().UTC()
	const voters = 50
	memberIDs := make([]string, 0, voters)
	for i := 0; i < voters; i++ {
		memberIDs = append(memberIDs, "member-"+string(rune('A'+i%26))+string(rune('0'+i/26)))
	}
	store := NewStore([]entities.Vote{
		activeVote("vote-1", now.Add(-time.Hour), now.Add(time.Hour), memberIDs...),
	})

	var wg sync.WaitGroup
	for i, memberID := range memberIDs {
		wg.Add(1)
		go func(i int, memberID string) {
			defer wg.Done()
			choice := entities.ChoiceYes
			if i%2 == 1 {
				choice = entities.ChoiceNo
			}
			_, err := store.CastBallot(context.Background(), entities.Ballot{
				BallotID: "ballot-" + memberID,
				VoteID:   "vote-1",
				CastBy:   memberID,
				CastFor:  memberID,
				Choice:   choice,
				CastAt:   now,
			})
			if err != nil {
				t.Errorf("cast for %s failed: %v", memberID, err)
			}
		}(i, memberID)
	}
	wg.Wait()

	vote, err := store.GetVote(context.Background(), "vote-1")
	if err != nil {
		t.Fatalf("get vote failed: %v", err)
	}
	if vote.TotalVotesCast != voters {
		t.Fatalf("expected %d ballots, got %d", voters, vote.TotalVotesCast)
	}
	if vote.YesVotes+vote.NoVotes+vote.AbstainVotes != voters {
		t.Fatalf("counters disagree with total: %d+%d+%d != %d",
			vote.YesVotes, vote.NoVotes, vote.AbstainVotes, voters)
	}
}

func TestCastBallotConcurrentSameVoter(t *testing.T) {
	now := time.Now().UTC()
	store := NewStore([]entities.Vote{
		activeVote("vote-1", now.Add(-time.Hour), now.Add(time.Hour), "member-1"),
	})

	const attempts = 50
	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := store.CastBallot(context.Background(), entities.Ballot{
				BallotID: "ballot-" + string(rune('a'+i%26)) + string(rune('a'+i/26)),
				VoteID:   "vote-1",
				CastBy:   "member-1",
				CastFor:  "member-1",
				Choice:   entities.ChoiceYes,
				CastAt:   now,
			})
			if err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			} else if !errors.Is(err, domainerrors.ErrAlreadyVoted) {
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	if succeeded != 1 {
		t.Fatalf("expected exactly one winning cast, got %d", succeeded)
	}
	vote, _ := store.GetVote(context.Background(), "vote-1")
	if vote.TotalVotesCast != 1 || vote.YesVotes != 1 {
		t.Fatalf("counters moved more than once: total=%d yes=%d", vote.TotalVotesCast, vote.YesVotes)
	}
}

func TestTransitionStatusExactlyOnce(t *testing.T) {
	now := time.Now().UTC()
	vote := activeVote("vote-1", now.Add(-2*time.Hour), now.Add(-time.Hour), "member-1")
	vote.YesVotes = 1
	vote.TotalVotesCast = 1
	store := NewStore([]entities.Vote{vote})

	const sweepers = 20
	var wg sync.WaitGroup
	var mu sync.Mutex
	wins := 0
	for i := 0; i < sweepers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, won, err := store.TransitionStatus(
				context.Background(),
				"vote-1",
				[]entities.VoteStatus{entities.VoteStatusActive},
				entities.VoteStatusClosed,
				now,
			)
			if err != nil {
				t.Errorf("transition failed: %v", err)
				return
			}
			if won {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if wins != 1 {
		t.Fatalf("expected exactly one transition winner, got %d", wins)
	}
	closed, _ := store.GetVote(context.Background(), "vote-1")
	if closed.Status != entities.VoteStatusClosed {
		t.Fatalf("vote not closed: %s", closed.Status)
	}
	if closed.Outcome != entities.OutcomePassed {
		t.Fatalf("outcome = %s, want PASSED", closed.Outcome)
	}
	if closed.ClosedAt == nil {
		t.Fatalf("closed_at not set")
	}
}

func TestTransitionStatusResolvesNoQuorum(t *testing.T) {
	now := time.Now().UTC()
	store := NewStore([]entities.Vote{
		activeVote("vote-1", now.Add(-2*time.Hour), now.Add(-time.Hour), "member-1"),
	})

	closed, won, err := store.TransitionStatus(
		context.Background(),
		"vote-1",
		[]entities.VoteStatus{entities.VoteStatusActive},
		entities.VoteStatusClosed,
		now,
	)
	if err != nil || !won {
		t.Fatalf("transition failed: won=%v err=%v", won, err)
	}
	if closed.Outcome != entities.OutcomeNoQuorum {
		t.Fatalf("outcome = %s, want NO_QUORUM", closed.Outcome)
	}
}

func TestListVotesByGroupPaging(t *testing.T) {
	now := time.Now().UTC()
	seed := make([]entities.Vote, 0, 5)
	for i := 0; i < 5; i++ {
		vote := activeVote("vote-"+string(rune('1'+i)), now.Add(-time.Hour), now.Add(time.Hour), "member-1")
		vote.CreatedAt = now.Add(time.Duration(i) * time.Minute)
		seed = append(seed, vote)
	}
	store := NewStore(seed)

	page, total, err := store.ListVotesByGroup(context.Background(), "group-1", "", 2, 0)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if total != 5 {
		t.Fatalf("total = %d, want 5", total)
	}
	if len(page) != 2 {
		t.Fatalf("page size = %d, want 2", len(page))
	}
	// Newest first.
	if page[0].VoteID != "vote-5" {
		t.Fatalf("first item = %s, want vote-5", page[0].VoteID)
	}

	filtered, _, err := store.ListVotesByGroup(context.Background(), "group-1", entities.VoteStatusClosed, 10, 0)
	if err != nil {
		t.Fatalf("filtered list failed: %v", err)
	}
	if len(filtered) != 0 {
		t.Fatalf("expected no closed votes, got %d", len(filtered))
	}
}

func TestSnapshotIsolation(t *testing.T) {
	now := time.Now().UTC()
	store := NewStore([]entities.Vote{
		activeVote("vote-1", now.Add(-time.Hour), now.Add(time.Hour), "member-1"),
	})

	vote, err := store.GetVote(context.Background(), "vote-1")
	if err != nil {
		t.Fatalf("get vote failed: %v", err)
	}
	vote.EligibleVoters[0] = "mutated"

	again, _ := store.GetVote(context.Background(), "vote-1")
	if again.EligibleVoters[0] != "member-1" {
		t.Fatalf("stored snapshot was mutated through a returned copy")
	}
}
