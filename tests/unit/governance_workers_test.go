package unit

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"chamahub/contexts/group-governance/voting-engine/application/workers"
	"chamahub/contexts/group-governance/voting-engine/domain/entities"
	"chamahub/contexts/group-governance/voting-engine/ports"
	httptransport "chamahub/contexts/group-governance/voting-engine/transport/http"
)

// recordingBus is a synchronous in-process bus for worker tests: Publish
// invokes matching handlers inline, so assertions run with no sleeps.
type recordingBus struct {
	mu        sync.Mutex
	handlers  map[string][]func(context.Context, ports.EventEnvelope) error
	published []publishedEvent
}

type publishedEvent struct {
	Topic string
	Event ports.EventEnvelope
}

func newRecordingBus() *recordingBus {
	return &recordingBus{handlers: map[string][]func(context.Context, ports.EventEnvelope) error{}}
}

func (b *recordingBus) Publish(ctx context.Context, topic string, event ports.EventEnvelope) error {
	b.mu.Lock()
	b.published = append(b.published, publishedEvent{Topic: topic, Event: event})
	handlers := append([]func(context.Context, ports.EventEnvelope) error(nil), b.handlers[topic]...)
	b.mu.Unlock()
	for _, handler := range handlers {
		if err := handler(ctx, event); err != nil {
			return err
		}
	}
	return nil
}

func (b *recordingBus) Subscribe(
	_ context.Context,
	topic string,
	_ string,
	handler func(context.Context, ports.EventEnvelope) error,
) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[topic] = append(b.handlers[topic], handler)
	return nil
}

func (b *recordingBus) topics() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	topics := make([]string, 0, len(b.published))
	for _, p := range b.published {
		topics = append(topics, p.Topic)
	}
	return topics
}

func TestGovernanceLifecycleSweeper(t *testing.T) {
	module, store, clock := newGovernanceFixture(t)
	ctx := context.Background()

	activeStart := clock.Now()
	active, err := module.Handler.CreateVoteHandler(ctx, "group-1", "admin-1", "idem-sweep-active", httptransport.CreateVoteRequest{
		Title:       "Increase monthly contribution",
		Description: "Raise the monthly contribution by 500",
		VoteType:    "SIMPLE",
		StartDate:   activeStart.Format(time.RFC3339),
		EndDate:     activeStart.Add(24 * time.Hour).Format(time.RFC3339),
	})
	if err != nil {
		t.Fatalf("create active vote failed: %v", err)
	}

	draftStart := clock.Now().Add(12 * time.Hour)
	draft, err := module.Handler.CreateVoteHandler(ctx, "group-1", "admin-1", "idem-sweep-draft", httptransport.CreateVoteRequest{
		Title:       "Elect new treasurer",
		Description: "Annual treasurer election",
		VoteType:    "SIMPLE",
		StartDate:   draftStart.Format(time.RFC3339),
		EndDate:     draftStart.Add(24 * time.Hour).Format(time.RFC3339),
	})
	if err != nil {
		t.Fatalf("create draft vote failed: %v", err)
	}
	if draft.Status != "DRAFT" {
		t.Fatalf("draft vote status = %s, want DRAFT", draft.Status)
	}

	if _, err := module.Handler.CastBallotHandler(ctx, active.VoteID, "member-1", "idem-sweep-cast", httptransport.CastBallotRequest{Choice: "YES"}); err != nil {
		t.Fatalf("cast failed: %v", err)
	}

	sweeper := workers.LifecycleSweeper{
		Votes:     store,
		UseCase:   module.Votes,
		Clock:     clock,
		BatchSize: 10,
	}

	// Nothing is due yet.
	if err := sweeper.RunOnce(ctx); err != nil {
		t.Fatalf("sweep failed: %v", err)
	}
	got, err := store.GetVote(ctx, draft.VoteID)
	if err != nil {
		t.Fatalf("get draft failed: %v", err)
	}
	if got.Status != entities.VoteStatusDraft {
		t.Fatalf("premature activation: status = %s", got.Status)
	}

	// Past the draft's start date: it activates, the active vote stays open.
	clock.Advance(13 * time.Hour)
	if err := sweeper.RunOnce(ctx); err != nil {
		t.Fatalf("sweep failed: %v", err)
	}
	got, err = store.GetVote(ctx, draft.VoteID)
	if err != nil {
		t.Fatalf("get draft failed: %v", err)
	}
	if got.Status != entities.VoteStatusActive {
		t.Fatalf("draft not activated: status = %s", got.Status)
	}

	// Past both end dates: both close and resolve.
	clock.Advance(48 * time.Hour)
	if err := sweeper.RunOnce(ctx); err != nil {
		t.Fatalf("sweep failed: %v", err)
	}
	closedActive, err := store.GetVote(ctx, active.VoteID)
	if err != nil {
		t.Fatalf("get vote failed: %v", err)
	}
	if closedActive.Status != entities.VoteStatusClosed || closedActive.Outcome != entities.OutcomePassed {
		t.Fatalf("active vote = %s/%s, want CLOSED/PASSED", closedActive.Status, closedActive.Outcome)
	}
	closedDraft, err := store.GetVote(ctx, draft.VoteID)
	if err != nil {
		t.Fatalf("get vote failed: %v", err)
	}
	if closedDraft.Status != entities.VoteStatusClosed || closedDraft.Outcome != entities.OutcomeNoQuorum {
		t.Fatalf("ballot-less vote = %s/%s, want CLOSED/NO_QUORUM", closedDraft.Status, closedDraft.Outcome)
	}
}

func TestGovernanceOutboxRelay(t *testing.T) {
	module, store, clock := newGovernanceFixture(t)
	ctx := context.Background()

	vote := createActiveVote(t, module, clock, "SIMPLE", false)
	if _, err := module.Handler.CastBallotHandler(ctx, vote.VoteID, "member-1", "idem-relay-1", httptransport.CastBallotRequest{Choice: "YES"}); err != nil {
		t.Fatalf("cast failed: %v", err)
	}

	bus := newRecordingBus()
	relay := workers.OutboxRelay{
		Outbox:    store,
		Publisher: bus,
		Clock:     clock,
		BatchSize: 10,
	}
	if err := relay.RunOnce(ctx); err != nil {
		t.Fatalf("relay failed: %v", err)
	}

	topics := bus.topics()
	want := map[string]bool{
		"governance.vote.created":   false,
		"governance.vote.activated": false,
		"governance.ballot.cast":    false,
	}
	for _, topic := range topics {
		if _, ok := want[topic]; ok {
			want[topic] = true
		}
	}
	for topic, seen := range want {
		if !seen {
			t.Fatalf("topic %s never published (got %v)", topic, topics)
		}
	}

	pending, err := store.ListPendingOutbox(ctx, 10)
	if err != nil {
		t.Fatalf("list pending failed: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("pending outbox = %d rows after relay, want 0", len(pending))
	}

	// A second cycle finds nothing and publishes nothing new.
	if err := relay.RunOnce(ctx); err != nil {
		t.Fatalf("second relay failed: %v", err)
	}
	if len(bus.topics()) != len(topics) {
		t.Fatalf("relay republished marked rows")
	}
}

func TestGovernanceMembershipConsumer(t *testing.T) {
	module, store, clock := newGovernanceFixture(t)
	ctx := context.Background()

	before := createActiveVote(t, module, clock, "SIMPLE", false)
	if before.Tally.TotalEligible != 4 {
		t.Fatalf("snapshot = %d eligible, want 4", before.Tally.TotalEligible)
	}

	bus := newRecordingBus()
	consumer := workers.MembershipConsumer{
		Subscriber: bus,
		Dedup:      store,
		Projection: store,
		DedupTTL:   time.Hour,
	}
	if err := consumer.Start(ctx); err != nil {
		t.Fatalf("consumer start failed: %v", err)
	}

	joined := membershipEvent(t, "evt-1", "group.member.joined", "group-1", "member-4")
	if err := bus.Publish(ctx, "group.member.joined", joined); err != nil {
		t.Fatalf("publish joined failed: %v", err)
	}

	// The frozen snapshot of the existing vote is untouched.
	got, err := module.Handler.GetVoteHandler(ctx, before.VoteID)
	if err != nil {
		t.Fatalf("get vote failed: %v", err)
	}
	if got.Tally.TotalEligible != 4 {
		t.Fatalf("existing snapshot changed to %d eligible", got.Tally.TotalEligible)
	}

	// New votes see the updated projection.
	start := clock.Now()
	after, err := module.Handler.CreateVoteHandler(ctx, "group-1", "admin-1", "idem-after-join", httptransport.CreateVoteRequest{
		Title:       "Adopt welfare policy",
		Description: "Welfare support policy for members",
		VoteType:    "SIMPLE",
		StartDate:   start.Format(time.RFC3339),
		EndDate:     start.Add(24 * time.Hour).Format(time.RFC3339),
	})
	if err != nil {
		t.Fatalf("create vote failed: %v", err)
	}
	if after.Tally.TotalEligible != 5 {
		t.Fatalf("post-join snapshot = %d eligible, want 5", after.Tally.TotalEligible)
	}

	// Replaying the same event id is a deduplicated no-op.
	if err := bus.Publish(ctx, "group.member.joined", joined); err != nil {
		t.Fatalf("replay publish failed: %v", err)
	}

	left := membershipEvent(t, "evt-2", "group.member.left", "group-1", "member-4")
	if err := bus.Publish(ctx, "group.member.left", left); err != nil {
		t.Fatalf("publish left failed: %v", err)
	}
	members, err := store.ListActiveMembers(ctx, "group-1")
	if err != nil {
		t.Fatalf("list members failed: %v", err)
	}
	for _, member := range members {
		if member == "member-4" {
			t.Fatalf("departed member still in projection: %v", members)
		}
	}
}

func membershipEvent(t *testing.T, eventID string, eventType string, groupID string, memberID string) ports.EventEnvelope {
	t.Helper()
	data, err := json.Marshal(map[string]string{
		"group_id":  groupID,
		"member_id": memberID,
	})
	if err != nil {
		t.Fatalf("marshal event payload: %v", err)
	}
	return ports.EventEnvelope{
		EventID:       eventID,
		EventType:     eventType,
		OccurredAt:    time.Now().UTC(),
		SourceService: "group-membership",
		SchemaVersion: 1,
		Data:          data,
	}
}
