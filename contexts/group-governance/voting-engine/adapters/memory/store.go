package memory

import (
	"bytes"
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"

	"chamahub/contexts/group-governance/voting-engine/domain/entities"
	domainerrors "chamahub/contexts/group-governance/voting-engine/domain/errors"
	"chamahub/contexts/group-governance/voting-engine/ports"

	"github.com/google/uuid"
)

type outboxRecord struct {
	message   ports.OutboxMessage
	published bool
}

type dedupRecord struct {
	payloadHash string
	expiresAt   time.Time
}

type ballotKey struct {
	voteID  string
	castFor string
}

type memberKey struct {
	groupID  string
	memberID string
}

type delegationKey struct {
	groupID    string
	delegateID string
	memberID   string
}

// Store is the in-memory adapter used by tests and local wiring. All
// cross-entity invariants (ballot uniqueness, counter consistency, one-way
// close) are enforced under a single mutex, which makes it the reference
// behavior for the postgres adapter's transactions.
type Store struct {
	mu sync.RWMutex

	votes       map[string]entities.Vote
	ballots     map[ballotKey]entities.Ballot
	idempotency map[string]ports.IdempotencyRecord
	outbox      map[string]outboxRecord
	eventDedup  map[string]dedupRecord

	members     map[memberKey]bool
	admins      map[memberKey]bool
	delegations map[delegationKey]bool
}

func NewStore(seed []entities.Vote) *Store {
	votes := make(map[string]entities.Vote, len(seed))
	for _, vote := range seed {
		votes[vote.VoteID] = cloneVote(vote)
	}
	return &Store{
		votes:       votes,
		ballots:     make(map[ballotKey]entities.Ballot),
		idempotency: make(map[string]ports.IdempotencyRecord),
		outbox:      make(map[string]outboxRecord),
		eventDedup:  make(map[string]dedupRecord),
		members:     make(map[memberKey]bool),
		admins:      make(map[memberKey]bool),
		delegations: make(map[delegationKey]bool),
	}
}

// Seed helpers for tests and local wiring.

func (s *Store) SetGroupMember(groupID string, memberID string, active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.members[memberKey{strings.TrimSpace(groupID), strings.TrimSpace(memberID)}] = active
}

func (s *Store) SetGroupAdmin(groupID string, userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.admins[memberKey{strings.TrimSpace(groupID), strings.TrimSpace(userID)}] = true
}

func (s *Store) SetDelegation(groupID string, delegateID string, memberID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delegations[delegationKey{
		groupID:    strings.TrimSpace(groupID),
		delegateID: strings.TrimSpace(delegateID),
		memberID:   strings.TrimSpace(memberID),
	}] = true
}

// VoteRepository

func (s *Store) CreateVote(_ context.Context, vote entities.Vote) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	voteID := strings.TrimSpace(vote.VoteID)
	if _, exists := s.votes[voteID]; exists {
		return domainerrors.ErrConflict
	}
	s.votes[voteID] = cloneVote(vote)
	return nil
}

func (s *Store) GetVote(_ context.Context, voteID string) (entities.Vote, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	vote, ok := s.votes[strings.TrimSpace(voteID)]
	if !ok {
		return entities.Vote{}, domainerrors.ErrVoteNotFound
	}
	return cloneVote(vote), nil
}

func (s *Store) ListVotesByGroup(
	_ context.Context,
	groupID string,
	status entities.VoteStatus,
	limit int,
	offset int,
) ([]entities.Vote, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	groupID = strings.TrimSpace(groupID)
	matches := make([]entities.Vote, 0)
	for _, vote := range s.votes {
		if vote.GroupID != groupID {
			continue
		}
		if status != "" && vote.Status != status {
			continue
		}
		matches = append(matches, cloneVote(vote))
	}
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].CreatedAt.Equal(matches[j].CreatedAt) {
			return matches[i].VoteID > matches[j].VoteID
		}
		return matches[i].CreatedAt.After(matches[j].CreatedAt)
	})

	total := len(matches)
	if offset >= total {
		return []entities.Vote{}, total, nil
	}
	matches = matches[offset:]
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, total, nil
}

func (s *Store) ListVotesDueTransition(_ context.Context, now time.Time, limit int) ([]entities.Vote, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now = now.UTC()
	due := make([]entities.Vote, 0)
	for _, vote := range s.votes {
		switch vote.Status {
		case entities.VoteStatusDraft:
			if !now.Before(vote.StartDate) {
				due = append(due, cloneVote(vote))
			}
		case entities.VoteStatusActive:
			if !now.Before(vote.EndDate) {
				due = append(due, cloneVote(vote))
			}
		}
	}
	sort.Slice(due, func(i, j int) bool {
		return due[i].CreatedAt.Before(due[j].CreatedAt)
	})
	if limit > 0 && len(due) > limit {
		due = due[:limit]
	}
	return due, nil
}

func (s *Store) TransitionStatus(
	_ context.Context,
	voteID string,
	from []entities.VoteStatus,
	to entities.VoteStatus,
	now time.Time,
) (entities.Vote, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := strings.TrimSpace(voteID)
	vote, ok := s.votes[key]
	if !ok {
		return entities.Vote{}, false, domainerrors.ErrVoteNotFound
	}

	eligible := false
	for _, status := range from {
		if vote.Status == status {
			eligible = true
			break
		}
	}
	if !eligible || vote.Status == to {
		// Lost race or no-op; the caller gets current state.
		return cloneVote(vote), false, nil
	}

	vote.Status = to
	vote.UpdatedAt = now.UTC()
	if to == entities.VoteStatusClosed {
		closedAt := now.UTC()
		vote.ClosedAt = &closedAt
		vote.Outcome = entities.ResolveOutcome(vote.VoteType, vote.YesVotes, vote.NoVotes, vote.AbstainVotes)
	}
	s.votes[key] = vote
	return cloneVote(vote), true, nil
}

func (s *Store) RecordOutcome(_ context.Context, voteID string, outcome entities.Outcome) (entities.Vote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := strings.TrimSpace(voteID)
	vote, ok := s.votes[key]
	if !ok {
		return entities.Vote{}, domainerrors.ErrVoteNotFound
	}
	if vote.Status == entities.VoteStatusClosed && vote.Outcome == entities.OutcomePending {
		vote.Outcome = outcome
		s.votes[key] = vote
	}
	return cloneVote(vote), nil
}

// BallotStore

func (s *Store) CastBallot(_ context.Context, ballot entities.Ballot) (entities.Vote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	voteID := strings.TrimSpace(ballot.VoteID)
	vote, ok := s.votes[voteID]
	if !ok {
		return entities.Vote{}, domainerrors.ErrVoteNotFound
	}
	if vote.Status != entities.VoteStatusActive || !vote.WindowContains(ballot.CastAt) {
		return entities.Vote{}, domainerrors.ErrVoteNotOpen
	}

	key := ballotKey{voteID: voteID, castFor: strings.TrimSpace(ballot.CastFor)}
	if _, exists := s.ballots[key]; exists {
		return entities.Vote{}, domainerrors.ErrAlreadyVoted
	}

	s.ballots[key] = ballot
	switch ballot.Choice {
	case entities.ChoiceYes:
		vote.YesVotes++
	case entities.ChoiceNo:
		vote.NoVotes++
	case entities.ChoiceAbstain:
		vote.AbstainVotes++
	}
	vote.TotalVotesCast++
	vote.UpdatedAt = ballot.CastAt.UTC()
	s.votes[voteID] = vote
	return cloneVote(vote), nil
}

func (s *Store) GetBallot(_ context.Context, voteID string, castFor string) (entities.Ballot, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ballot, ok := s.ballots[ballotKey{
		voteID:  strings.TrimSpace(voteID),
		castFor: strings.TrimSpace(castFor),
	}]
	return ballot, ok, nil
}

func (s *Store) ListBallots(_ context.Context, voteID string) ([]entities.Ballot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	voteID = strings.TrimSpace(voteID)
	items := make([]entities.Ballot, 0)
	for key, ballot := range s.ballots {
		if key.voteID == voteID {
			items = append(items, ballot)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].CastAt.Equal(items[j].CastAt) {
			return items[i].BallotID < items[j].BallotID
		}
		return items[i].CastAt.Before(items[j].CastAt)
	})
	return items, nil
}

// MembershipDirectory / Authorization

func (s *Store) ListActiveMembers(_ context.Context, groupID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	groupID = strings.TrimSpace(groupID)
	members := make([]string, 0)
	for key, active := range s.members {
		if key.groupID == groupID && active {
			members = append(members, key.memberID)
		}
	}
	sort.Strings(members)
	return members, nil
}

func (s *Store) HasGroupAdminCapability(_ context.Context, userID string, groupID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.admins[memberKey{strings.TrimSpace(groupID), strings.TrimSpace(userID)}], nil
}

func (s *Store) HasProxyDelegation(_ context.Context, delegateID string, memberID string, groupID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.delegations[delegationKey{
		groupID:    strings.TrimSpace(groupID),
		delegateID: strings.TrimSpace(delegateID),
		memberID:   strings.TrimSpace(memberID),
	}], nil
}

func (s *Store) UpsertGroupMember(_ context.Context, groupID string, memberID string, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.members[memberKey{strings.TrimSpace(groupID), strings.TrimSpace(memberID)}] = active
	return nil
}

// IdempotencyStore

func (s *Store) Get(_ context.Context, key string, now time.Time) (ports.IdempotencyRecord, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key = strings.TrimSpace(key)
	record, exists := s.idempotency[key]
	if !exists {
		return ports.IdempotencyRecord{}, false, nil
	}
	if !record.ExpiresAt.After(now.UTC()) {
		delete(s.idempotency, key)
		return ports.IdempotencyRecord{}, false, nil
	}
	return record, true, nil
}

func (s *Store) Put(_ context.Context, record ports.IdempotencyRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := strings.TrimSpace(record.Key)
	existing, exists := s.idempotency[key]
	if exists {
		if existing.RequestHash != record.RequestHash || existing.VoteID != record.VoteID {
			return domainerrors.ErrIdempotencyConflict
		}
		return nil
	}
	s.idempotency[key] = ports.IdempotencyRecord{
		Key:         key,
		RequestHash: strings.TrimSpace(record.RequestHash),
		VoteID:      strings.TrimSpace(record.VoteID),
		ExpiresAt:   record.ExpiresAt.UTC(),
	}
	return nil
}

// Outbox

func (s *Store) AppendOutbox(_ context.Context, envelope ports.EventEnvelope) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	payload, err := json.Marshal(envelope)
	if err != nil {
		return err
	}
	outboxID := strings.TrimSpace(envelope.EventID)
	if outboxID == "" {
		outboxID = uuid.NewString()
	}
	if existing, ok := s.outbox[outboxID]; ok {
		if !bytes.Equal(existing.message.Payload, payload) {
			return domainerrors.ErrConflict
		}
		return nil
	}
	createdAt := envelope.OccurredAt.UTC()
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	s.outbox[outboxID] = outboxRecord{
		message: ports.OutboxMessage{
			OutboxID:     outboxID,
			EventType:    strings.TrimSpace(envelope.EventType),
			PartitionKey: strings.TrimSpace(envelope.PartitionKey),
			Payload:      payload,
			CreatedAt:    createdAt,
		},
	}
	return nil
}

func (s *Store) ListPendingOutbox(_ context.Context, limit int) ([]ports.OutboxMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 100
	}
	items := make([]ports.OutboxMessage, 0, len(s.outbox))
	for _, row := range s.outbox {
		if row.published {
			continue
		}
		items = append(items, row.message)
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (s *Store) MarkOutboxPublished(_ context.Context, outboxID string, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.outbox[strings.TrimSpace(outboxID)]
	if !ok {
		return domainerrors.ErrConflict
	}
	row.published = true
	s.outbox[strings.TrimSpace(outboxID)] = row
	return nil
}

// EventDedupStore

func (s *Store) ReserveEvent(
	_ context.Context,
	eventID string,
	payloadHash string,
	expiresAt time.Time,
) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := strings.TrimSpace(eventID)
	existing, ok := s.eventDedup[key]
	if ok {
		if !existing.expiresAt.IsZero() && time.Now().UTC().After(existing.expiresAt.UTC()) {
			delete(s.eventDedup, key)
		} else {
			if existing.payloadHash != strings.TrimSpace(payloadHash) {
				return false, domainerrors.ErrConflict
			}
			return true, nil
		}
	}

	s.eventDedup[key] = dedupRecord{
		payloadHash: strings.TrimSpace(payloadHash),
		expiresAt:   expiresAt.UTC(),
	}
	return false, nil
}

// Clock / IDGenerator

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

func cloneVote(vote entities.Vote) entities.Vote {
	clone := vote
	clone.EligibleVoters = append([]string(nil), vote.EligibleVoters...)
	if vote.ClosedAt != nil {
		closedAt := *vote.ClosedAt
		clone.ClosedAt = &closedAt
	}
	return clone
}

var _ ports.VoteRepository = (*Store)(nil)
var _ ports.BallotStore = (*Store)(nil)
var _ ports.MembershipDirectory = (*Store)(nil)
var _ ports.Authorization = (*Store)(nil)
var _ ports.IdempotencyStore = (*Store)(nil)
var _ ports.OutboxWriter = (*Store)(nil)
var _ ports.OutboxRepository = (*Store)(nil)
var _ ports.EventDedupStore = (*Store)(nil)
var _ ports.MembershipProjectionWriter = (*Store)(nil)
var _ ports.Clock = (*Store)(nil)
var _ ports.IDGenerator = (*Store)(nil)
