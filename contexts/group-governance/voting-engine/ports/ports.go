package ports

import (
	"context"
	"time"

	"chamahub/contexts/group-governance/voting-engine/domain/entities"
	contractsv1 "chamahub/contracts/gen/events/v1"
)

// VoteRepository persists votes with their eligibility snapshot and
// aggregate counters.
type VoteRepository interface {
	CreateVote(ctx context.Context, vote entities.Vote) error
	GetVote(ctx context.Context, voteID string) (entities.Vote, error)
	ListVotesByGroup(
		ctx context.Context,
		groupID string,
		status entities.VoteStatus,
		limit int,
		offset int,
	) ([]entities.Vote, int, error)

	// ListVotesDueTransition returns DRAFT votes whose start date and ACTIVE
	// votes whose end date have been reached at now.
	ListVotesDueTransition(ctx context.Context, now time.Time, limit int) ([]entities.Vote, error)

	// TransitionStatus is an atomic compare-and-set on the status column.
	// When to is CLOSED the final outcome is resolved from the vote's
	// counters inside the same atomic unit and persisted with the
	// transition. The boolean reports whether this caller won the
	// transition; a lost race returns the current vote with false and no
	// error, so concurrent sweepers close a vote exactly once.
	TransitionStatus(
		ctx context.Context,
		voteID string,
		from []entities.VoteStatus,
		to entities.VoteStatus,
		now time.Time,
	) (entities.Vote, bool, error)

	// RecordOutcome re-drives a missing resolution on an already-CLOSED
	// vote. It only writes when the stored outcome is still pending.
	RecordOutcome(ctx context.Context, voteID string, outcome entities.Outcome) (entities.Vote, error)
}

// BallotStore owns the at-most-one-ballot-per-voter invariant. CastBallot is
// a single atomic unit: it re-checks vote status and the [start, end) window
// against ballot.CastAt, enforces (vote_id, cast_for) uniqueness, persists
// the ballot, and increments the matching vote counters. Under concurrent
// casts for the same voter exactly one call succeeds; the rest fail with
// ErrAlreadyVoted and the counters move by exactly one.
type BallotStore interface {
	CastBallot(ctx context.Context, ballot entities.Ballot) (entities.Vote, error)
	GetBallot(ctx context.Context, voteID string, castFor string) (entities.Ballot, bool, error)
	ListBallots(ctx context.Context, voteID string) ([]entities.Ballot, error)
}

// MembershipDirectory is the external group-membership collaborator. The
// engine reads it exactly once per vote, at creation, to freeze the
// eligibility snapshot.
type MembershipDirectory interface {
	ListActiveMembers(ctx context.Context, groupID string) ([]string, error)
}

// Authorization is the external capability collaborator.
type Authorization interface {
	HasGroupAdminCapability(ctx context.Context, userID string, groupID string) (bool, error)
	HasProxyDelegation(ctx context.Context, delegateID string, memberID string, groupID string) (bool, error)
}

type IdempotencyRecord struct {
	Key         string
	RequestHash string
	VoteID      string
	ExpiresAt   time.Time
}

type IdempotencyStore interface {
	Get(ctx context.Context, key string, now time.Time) (IdempotencyRecord, bool, error)
	Put(ctx context.Context, record IdempotencyRecord) error
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}

// EventEnvelope reuses the canonical cross-runtime envelope contract.
type EventEnvelope = contractsv1.Envelope

// OutboxWriter appends an event inside the same store as the state change.
type OutboxWriter interface {
	AppendOutbox(ctx context.Context, envelope EventEnvelope) error
}

type OutboxMessage struct {
	OutboxID     string
	EventType    string
	PartitionKey string
	Payload      []byte
	CreatedAt    time.Time
}

// OutboxRepository models worker-side outbox polling/acknowledgement.
type OutboxRepository interface {
	ListPendingOutbox(ctx context.Context, limit int) ([]OutboxMessage, error)
	MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error
}

// EventDedupStore provides idempotent processing guarantees for consumed
// events.
type EventDedupStore interface {
	ReserveEvent(ctx context.Context, eventID string, payloadHash string, expiresAt time.Time) (bool, error)
}

// EventPublisher publishes canonical envelopes to a topic.
type EventPublisher interface {
	Publish(ctx context.Context, topic string, event EventEnvelope) error
}

// EventSubscriber registers a topic consumer callback.
type EventSubscriber interface {
	Subscribe(
		ctx context.Context,
		topic string,
		consumerGroup string,
		handler func(context.Context, EventEnvelope) error,
	) error
}

// MembershipProjectionWriter maintains the local read model of group
// membership fed by membership-service events. Projection updates never
// touch the eligibility snapshot of existing votes.
type MembershipProjectionWriter interface {
	UpsertGroupMember(ctx context.Context, groupID string, memberID string, active bool) error
}
