package queries

import (
	"context"
	"strings"

	"chamahub/contexts/group-governance/voting-engine/domain/entities"
	domainerrors "chamahub/contexts/group-governance/voting-engine/domain/errors"
	"chamahub/contexts/group-governance/voting-engine/ports"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// VoteQueryUseCase serves read paths. The live tally is derived from the
// vote's persisted counters, never recomputed from dates by the reader.
type VoteQueryUseCase struct {
	Votes   ports.VoteRepository
	Ballots ports.BallotStore
}

func (uc VoteQueryUseCase) GetVote(ctx context.Context, voteID string) (entities.Vote, error) {
	return uc.Votes.GetVote(ctx, strings.TrimSpace(voteID))
}

// ListVotes returns a page of group votes ordered by creation, newest
// first, with the total match count for pagination.
func (uc VoteQueryUseCase) ListVotes(
	ctx context.Context,
	groupID string,
	statusFilter string,
	limit int,
	offset int,
) ([]entities.Vote, int, error) {
	groupID = strings.TrimSpace(groupID)
	if groupID == "" {
		return nil, 0, domainerrors.ErrInvalidVoteInput
	}

	var status entities.VoteStatus
	switch strings.ToUpper(strings.TrimSpace(statusFilter)) {
	case "":
		status = ""
	case string(entities.VoteStatusDraft):
		status = entities.VoteStatusDraft
	case string(entities.VoteStatusActive):
		status = entities.VoteStatusActive
	case string(entities.VoteStatusClosed):
		status = entities.VoteStatusClosed
	default:
		return nil, 0, domainerrors.ErrInvalidVoteInput
	}

	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return uc.Votes.ListVotesByGroup(ctx, groupID, status, limit, offset)
}

// ListBallots returns the vote's ballots ordered by cast time ascending.
func (uc VoteQueryUseCase) ListBallots(ctx context.Context, voteID string) ([]entities.Ballot, error) {
	voteID = strings.TrimSpace(voteID)
	if _, err := uc.Votes.GetVote(ctx, voteID); err != nil {
		return nil, err
	}
	return uc.Ballots.ListBallots(ctx, voteID)
}
