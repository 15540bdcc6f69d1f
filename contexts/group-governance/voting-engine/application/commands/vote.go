package commands

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log/slog"
	"sort"
	"strings"
	"time"

	application "chamahub/contexts/group-governance/voting-engine/application"
	"chamahub/contexts/group-governance/voting-engine/domain/entities"
	domainerrors "chamahub/contexts/group-governance/voting-engine/domain/errors"
	"chamahub/contexts/group-governance/voting-engine/ports"
)

const (
	maxTitleLength       = 200
	maxDescriptionLength = 2000
)

// CreateVoteCommand is the write-model input for vote creation.
type CreateVoteCommand struct {
	GroupID        string
	RequestedBy    string
	IdempotencyKey string
	Title          string
	Description    string
	VoteType       entities.VoteType
	AllowProxy     bool
	StartDate      time.Time
	EndDate        time.Time
}

// CreateVoteResult returns the persisted vote and a replay marker the
// transport layer maps to API semantics.
type CreateVoteResult struct {
	Vote     entities.Vote
	Replayed bool
}

// CastBallotCommand records one choice for an eligible voter. CastFor
// defaults to CastBy when empty; a differing CastFor is a proxy cast.
type CastBallotCommand struct {
	VoteID         string
	CastBy         string
	CastFor        string
	Choice         entities.BallotChoice
	IdempotencyKey string
}

type CastBallotResult struct {
	Vote     entities.Vote
	Ballot   entities.Ballot
	Replayed bool
}

// CloseVoteCommand requests an explicit admin close before the end date.
type CloseVoteCommand struct {
	VoteID         string
	RequestedBy    string
	IdempotencyKey string
}

type CloseVoteResult struct {
	Vote     entities.Vote
	Replayed bool
}

// VoteUseCase orchestrates governance vote commands: creation with a frozen
// eligibility snapshot, atomic ballot casting, one-way lifecycle
// transitions, and outbox event emission.
type VoteUseCase struct {
	Votes          ports.VoteRepository
	Ballots        ports.BallotStore
	Membership     ports.MembershipDirectory
	Authorization  ports.Authorization
	Idempotency    ports.IdempotencyStore
	Outbox         ports.OutboxWriter
	Clock          ports.Clock
	IDGen          ports.IDGenerator
	IdempotencyTTL time.Duration
	Logger         *slog.Logger
}

// CreateVote validates the time window, resolves the eligibility snapshot
// exactly once, and persists the vote as DRAFT or directly ACTIVE. The
// method is replay-safe via idempotency key + request hash validation.
func (uc VoteUseCase) CreateVote(ctx context.Context, cmd CreateVoteCommand) (CreateVoteResult, error) {
	logger := application.ResolveLogger(uc.Logger)

	groupID := strings.TrimSpace(cmd.GroupID)
	requestedBy := strings.TrimSpace(cmd.RequestedBy)
	title := strings.TrimSpace(cmd.Title)
	description := strings.TrimSpace(cmd.Description)

	if groupID == "" || requestedBy == "" ||
		title == "" || len(title) > maxTitleLength ||
		description == "" || len(description) > maxDescriptionLength ||
		!cmd.VoteType.Valid() {
		logger.Warn("vote create validation failed",
			"event", "governance_vote_create_validation_failed",
			"module", "group-governance/voting-engine",
			"layer", "application",
			"group_id", groupID,
			"requested_by", requestedBy,
		)
		return CreateVoteResult{}, domainerrors.ErrInvalidVoteInput
	}
	if strings.TrimSpace(cmd.IdempotencyKey) == "" {
		return CreateVoteResult{}, domainerrors.ErrIdempotencyKeyRequired
	}

	now := uc.now()
	requestHash := hashCreateVoteCommand(cmd)
	if record, found, err := uc.Idempotency.Get(ctx, cmd.IdempotencyKey, now); err != nil {
		return CreateVoteResult{}, err
	} else if found {
		if record.RequestHash != requestHash {
			return CreateVoteResult{}, domainerrors.ErrIdempotencyConflict
		}
		vote, err := uc.Votes.GetVote(ctx, record.VoteID)
		if err != nil {
			return CreateVoteResult{}, err
		}
		return CreateVoteResult{Vote: vote, Replayed: true}, nil
	}

	startDate := cmd.StartDate.UTC()
	endDate := cmd.EndDate.UTC()
	if !endDate.After(startDate) {
		return CreateVoteResult{}, domainerrors.ErrInvalidTimeRange
	}
	if startDate.Before(now) {
		return CreateVoteResult{}, domainerrors.ErrInvalidStartDate
	}

	isAdmin, err := uc.Authorization.HasGroupAdminCapability(ctx, requestedBy, groupID)
	if err != nil {
		return CreateVoteResult{}, err
	}
	if !isAdmin {
		return CreateVoteResult{}, domainerrors.ErrNotAuthorized
	}

	eligible, err := uc.snapshotEligibility(ctx, groupID)
	if err != nil {
		return CreateVoteResult{}, err
	}
	if len(eligible) == 0 {
		return CreateVoteResult{}, domainerrors.ErrNoEligibleVoters
	}

	status := entities.VoteStatusDraft
	if !startDate.After(now) {
		status = entities.VoteStatusActive
	}

	voteID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return CreateVoteResult{}, err
	}
	vote := entities.Vote{
		VoteID:              voteID,
		GroupID:             groupID,
		Title:               title,
		Description:         description,
		VoteType:            cmd.VoteType,
		AllowProxy:          cmd.AllowProxy,
		StartDate:           startDate,
		EndDate:             endDate,
		Status:              status,
		Outcome:             entities.OutcomePending,
		EligibleVoters:      eligible,
		TotalEligibleVoters: len(eligible),
		CreatedBy:           requestedBy,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	if err := uc.Votes.CreateVote(ctx, vote); err != nil {
		return CreateVoteResult{}, err
	}

	if err := uc.appendVoteEvent(ctx, "governance.vote.created", vote, now, nil); err != nil {
		return CreateVoteResult{}, err
	}
	if status == entities.VoteStatusActive {
		if err := uc.appendVoteEvent(ctx, "governance.vote.activated", vote, now, nil); err != nil {
			return CreateVoteResult{}, err
		}
	}
	if err := uc.Idempotency.Put(ctx, ports.IdempotencyRecord{
		Key:         strings.TrimSpace(cmd.IdempotencyKey),
		RequestHash: requestHash,
		VoteID:      vote.VoteID,
		ExpiresAt:   now.Add(uc.resolveIdempotencyTTL()),
	}); err != nil {
		return CreateVoteResult{}, err
	}

	logger.Info("vote created",
		"event", "governance_vote_created",
		"module", "group-governance/voting-engine",
		"layer", "application",
		"vote_id", vote.VoteID,
		"group_id", vote.GroupID,
		"vote_type", string(vote.VoteType),
		"status", string(vote.Status),
		"eligible_voters", vote.TotalEligibleVoters,
	)
	return CreateVoteResult{Vote: vote}, nil
}

// CastBallot enforces the casting preconditions in order: vote open, time
// window, eligibility (incl. proxy delegation), then hands the atomic
// insert-and-increment to the ballot store, which is where the
// at-most-one-ballot invariant is decided.
func (uc VoteUseCase) CastBallot(ctx context.Context, cmd CastBallotCommand) (CastBallotResult, error) {
	logger := application.ResolveLogger(uc.Logger)

	voteID := strings.TrimSpace(cmd.VoteID)
	castBy := strings.TrimSpace(cmd.CastBy)
	castFor := strings.TrimSpace(cmd.CastFor)
	if castFor == "" {
		castFor = castBy
	}
	if voteID == "" || castBy == "" || !cmd.Choice.Valid() {
		logger.Warn("ballot cast validation failed",
			"event", "governance_ballot_cast_validation_failed",
			"module", "group-governance/voting-engine",
			"layer", "application",
			"vote_id", voteID,
			"cast_by", castBy,
		)
		return CastBallotResult{}, domainerrors.ErrInvalidVoteInput
	}
	if strings.TrimSpace(cmd.IdempotencyKey) == "" {
		return CastBallotResult{}, domainerrors.ErrIdempotencyKeyRequired
	}

	now := uc.now()
	requestHash := hashCastBallotCommand(cmd, castFor)
	if record, found, err := uc.Idempotency.Get(ctx, cmd.IdempotencyKey, now); err != nil {
		return CastBallotResult{}, err
	} else if found {
		if record.RequestHash != requestHash {
			return CastBallotResult{}, domainerrors.ErrIdempotencyConflict
		}
		vote, err := uc.Votes.GetVote(ctx, record.VoteID)
		if err != nil {
			return CastBallotResult{}, err
		}
		ballot, _, err := uc.Ballots.GetBallot(ctx, record.VoteID, castFor)
		if err != nil {
			return CastBallotResult{}, err
		}
		return CastBallotResult{Vote: vote, Ballot: ballot, Replayed: true}, nil
	}

	vote, err := uc.Votes.GetVote(ctx, voteID)
	if err != nil {
		return CastBallotResult{}, err
	}
	if vote.Status != entities.VoteStatusActive {
		return CastBallotResult{}, domainerrors.ErrVoteNotOpen
	}
	if !vote.WindowContains(now) {
		return CastBallotResult{}, domainerrors.ErrVoteNotOpen
	}
	if err := uc.checkEligibility(ctx, vote, castBy, castFor); err != nil {
		return CastBallotResult{}, err
	}

	ballotID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return CastBallotResult{}, err
	}
	ballot := entities.Ballot{
		BallotID: ballotID,
		VoteID:   vote.VoteID,
		CastBy:   castBy,
		CastFor:  castFor,
		Choice:   cmd.Choice,
		CastAt:   now,
	}

	// The store re-checks status and window against CastAt inside the same
	// atomic unit that inserts the ballot, closing the race between "vote
	// logically ended" and "status field not yet swept".
	updated, err := uc.Ballots.CastBallot(ctx, ballot)
	if err != nil {
		return CastBallotResult{}, err
	}

	if err := uc.appendVoteEvent(ctx, "governance.ballot.cast", updated, now, map[string]any{
		"ballot_id": ballot.BallotID,
		"cast_by":   ballot.CastBy,
		"cast_for":  ballot.CastFor,
		"choice":    string(ballot.Choice),
		"proxy":     ballot.IsProxy(),
	}); err != nil {
		return CastBallotResult{}, err
	}
	if err := uc.Idempotency.Put(ctx, ports.IdempotencyRecord{
		Key:         strings.TrimSpace(cmd.IdempotencyKey),
		RequestHash: requestHash,
		VoteID:      vote.VoteID,
		ExpiresAt:   now.Add(uc.resolveIdempotencyTTL()),
	}); err != nil {
		return CastBallotResult{}, err
	}

	logger.Info("ballot cast",
		"event", "governance_ballot_cast",
		"module", "group-governance/voting-engine",
		"layer", "application",
		"vote_id", vote.VoteID,
		"ballot_id", ballot.BallotID,
		"cast_by", ballot.CastBy,
		"cast_for", ballot.CastFor,
		"choice", string(ballot.Choice),
		"total_votes_cast", updated.TotalVotesCast,
	)
	return CastBallotResult{Vote: updated, Ballot: ballot}, nil
}

// CloseVote is the explicit admin-triggered close. Closing is one-way and
// exactly-once: a concurrent sweep or close that already won leaves this
// call returning the closed vote unchanged.
func (uc VoteUseCase) CloseVote(ctx context.Context, cmd CloseVoteCommand) (CloseVoteResult, error) {
	logger := application.ResolveLogger(uc.Logger)

	voteID := strings.TrimSpace(cmd.VoteID)
	requestedBy := strings.TrimSpace(cmd.RequestedBy)
	if voteID == "" || requestedBy == "" {
		return CloseVoteResult{}, domainerrors.ErrInvalidVoteInput
	}
	if strings.TrimSpace(cmd.IdempotencyKey) == "" {
		return CloseVoteResult{}, domainerrors.ErrIdempotencyKeyRequired
	}

	now := uc.now()
	requestHash := hashCloseVoteCommand(cmd)
	if record, found, err := uc.Idempotency.Get(ctx, cmd.IdempotencyKey, now); err != nil {
		return CloseVoteResult{}, err
	} else if found {
		if record.RequestHash != requestHash {
			return CloseVoteResult{}, domainerrors.ErrIdempotencyConflict
		}
		vote, err := uc.Votes.GetVote(ctx, record.VoteID)
		if err != nil {
			return CloseVoteResult{}, err
		}
		return CloseVoteResult{Vote: vote, Replayed: true}, nil
	}

	vote, err := uc.Votes.GetVote(ctx, voteID)
	if err != nil {
		return CloseVoteResult{}, err
	}
	isAdmin, err := uc.Authorization.HasGroupAdminCapability(ctx, requestedBy, vote.GroupID)
	if err != nil {
		return CloseVoteResult{}, err
	}
	if !isAdmin {
		return CloseVoteResult{}, domainerrors.ErrNotAuthorized
	}

	closed, won, err := uc.Votes.TransitionStatus(
		ctx,
		vote.VoteID,
		[]entities.VoteStatus{entities.VoteStatusDraft, entities.VoteStatusActive},
		entities.VoteStatusClosed,
		now,
	)
	if err != nil {
		return CloseVoteResult{}, err
	}
	if won {
		if err := uc.appendVoteEvent(ctx, "governance.vote.closed", closed, now, map[string]any{
			"closed_by": requestedBy,
			"early":     now.Before(closed.EndDate),
		}); err != nil {
			return CloseVoteResult{}, err
		}
	}
	if err := uc.Idempotency.Put(ctx, ports.IdempotencyRecord{
		Key:         strings.TrimSpace(cmd.IdempotencyKey),
		RequestHash: requestHash,
		VoteID:      closed.VoteID,
		ExpiresAt:   now.Add(uc.resolveIdempotencyTTL()),
	}); err != nil {
		return CloseVoteResult{}, err
	}

	logger.Info("vote closed",
		"event", "governance_vote_closed",
		"module", "group-governance/voting-engine",
		"layer", "application",
		"vote_id", closed.VoteID,
		"group_id", closed.GroupID,
		"outcome", string(closed.Outcome),
		"closed_by", requestedBy,
		"won_transition", won,
	)
	return CloseVoteResult{Vote: closed}, nil
}

// AdvanceLifecycle drives time-based transitions. It is idempotent and safe
// under concurrent invocation: both transitions go through the repository's
// compare-and-set, so a vote becomes CLOSED exactly once no matter how many
// sweepers race. A CLOSED vote whose outcome write was lost gets its
// resolution re-derived, since resolution is a pure function of the
// persisted counters.
func (uc VoteUseCase) AdvanceLifecycle(ctx context.Context, voteID string) (entities.Vote, error) {
	logger := application.ResolveLogger(uc.Logger)

	vote, err := uc.Votes.GetVote(ctx, strings.TrimSpace(voteID))
	if err != nil {
		return entities.Vote{}, err
	}
	now := uc.now()

	if vote.Status == entities.VoteStatusDraft && !now.Before(vote.StartDate) {
		activated, won, err := uc.Votes.TransitionStatus(
			ctx,
			vote.VoteID,
			[]entities.VoteStatus{entities.VoteStatusDraft},
			entities.VoteStatusActive,
			now,
		)
		if err != nil {
			return entities.Vote{}, err
		}
		if won {
			if err := uc.appendVoteEvent(ctx, "governance.vote.activated", activated, now, nil); err != nil {
				return entities.Vote{}, err
			}
			logger.Info("vote activated",
				"event", "governance_vote_activated",
				"module", "group-governance/voting-engine",
				"layer", "application",
				"vote_id", activated.VoteID,
				"group_id", activated.GroupID,
			)
		}
		vote = activated
	}

	if vote.Status == entities.VoteStatusActive && !now.Before(vote.EndDate) {
		closed, won, err := uc.Votes.TransitionStatus(
			ctx,
			vote.VoteID,
			[]entities.VoteStatus{entities.VoteStatusActive},
			entities.VoteStatusClosed,
			now,
		)
		if err != nil {
			return entities.Vote{}, err
		}
		if won {
			if err := uc.appendVoteEvent(ctx, "governance.vote.closed", closed, now, map[string]any{
				"early": false,
			}); err != nil {
				return entities.Vote{}, err
			}
			logger.Info("vote closed by sweep",
				"event", "governance_vote_swept_closed",
				"module", "group-governance/voting-engine",
				"layer", "application",
				"vote_id", closed.VoteID,
				"group_id", closed.GroupID,
				"outcome", string(closed.Outcome),
			)
		}
		vote = closed
	}

	if vote.Status == entities.VoteStatusClosed && vote.Outcome == entities.OutcomePending {
		resolved, err := uc.Votes.RecordOutcome(ctx, vote.VoteID,
			entities.ResolveOutcome(vote.VoteType, vote.YesVotes, vote.NoVotes, vote.AbstainVotes))
		if err != nil {
			return entities.Vote{}, err
		}
		vote = resolved
	}

	return vote, nil
}

func (uc VoteUseCase) snapshotEligibility(ctx context.Context, groupID string) ([]string, error) {
	members, err := uc.Membership.ListActiveMembers(ctx, groupID)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{}, len(members))
	snapshot := make([]string, 0, len(members))
	for _, member := range members {
		member = strings.TrimSpace(member)
		if member == "" {
			continue
		}
		if _, ok := seen[member]; ok {
			continue
		}
		seen[member] = struct{}{}
		snapshot = append(snapshot, member)
	}
	sort.Strings(snapshot)
	return snapshot, nil
}

func (uc VoteUseCase) checkEligibility(
	ctx context.Context,
	vote entities.Vote,
	castBy string,
	castFor string,
) error {
	if !vote.IsEligible(castFor) {
		return domainerrors.ErrNotEligible
	}
	if castBy == castFor {
		return nil
	}
	if !vote.AllowProxy {
		return domainerrors.ErrNotEligible
	}
	delegated, err := uc.Authorization.HasProxyDelegation(ctx, castBy, castFor, vote.GroupID)
	if err != nil {
		return err
	}
	if !delegated {
		return domainerrors.ErrNotEligible
	}
	return nil
}

func (uc VoteUseCase) now() time.Time {
	now := time.Now().UTC()
	if uc.Clock != nil {
		now = uc.Clock.Now().UTC()
	}
	return now
}

func (uc VoteUseCase) resolveIdempotencyTTL() time.Duration {
	if uc.IdempotencyTTL <= 0 {
		return 7 * 24 * time.Hour
	}
	return uc.IdempotencyTTL
}

func (uc VoteUseCase) appendVoteEvent(
	ctx context.Context,
	eventType string,
	vote entities.Vote,
	occurredAt time.Time,
	metadata map[string]any,
) error {
	// Outbox is optional for pure read/test wiring, so nil is treated as
	// no-op.
	if uc.Outbox == nil {
		return nil
	}
	eventID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return err
	}
	data := map[string]any{
		"vote_id":          vote.VoteID,
		"group_id":         vote.GroupID,
		"vote_type":        string(vote.VoteType),
		"status":           string(vote.Status),
		"outcome":          string(vote.Outcome),
		"total_votes_cast": vote.TotalVotesCast,
		"total_eligible":   vote.TotalEligibleVoters,
		"occurred_at":      occurredAt.Format(time.RFC3339),
	}
	for key, value := range metadata {
		data[key] = value
	}

	envelope, err := newGovernanceEnvelope(eventID, eventType, vote.VoteID, occurredAt, data)
	if err != nil {
		return err
	}
	if err := uc.Outbox.AppendOutbox(ctx, envelope); err != nil && !errors.Is(err, domainerrors.ErrConflict) {
		return err
	}
	return nil
}

func hashCreateVoteCommand(cmd CreateVoteCommand) string {
	payload := map[string]string{
		"group_id":     strings.TrimSpace(cmd.GroupID),
		"requested_by": strings.TrimSpace(cmd.RequestedBy),
		"title":        strings.TrimSpace(cmd.Title),
		"vote_type":    string(cmd.VoteType),
		"start_date":   cmd.StartDate.UTC().Format(time.RFC3339),
		"end_date":     cmd.EndDate.UTC().Format(time.RFC3339),
		"op":           "create_vote",
	}
	return hashPayload(payload)
}

func hashCastBallotCommand(cmd CastBallotCommand, castFor string) string {
	payload := map[string]string{
		"vote_id":  strings.TrimSpace(cmd.VoteID),
		"cast_by":  strings.TrimSpace(cmd.CastBy),
		"cast_for": castFor,
		"choice":   string(cmd.Choice),
		"op":       "cast_ballot",
	}
	return hashPayload(payload)
}

func hashCloseVoteCommand(cmd CloseVoteCommand) string {
	payload := map[string]string{
		"vote_id":      strings.TrimSpace(cmd.VoteID),
		"requested_by": strings.TrimSpace(cmd.RequestedBy),
		"op":           "close_vote",
	}
	return hashPayload(payload)
}

func hashPayload(payload map[string]string) string {
	raw, _ := json.Marshal(payload)
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}
