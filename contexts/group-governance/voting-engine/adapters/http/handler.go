package httpadapter

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"chamahub/contexts/group-governance/voting-engine/application/commands"
	"chamahub/contexts/group-governance/voting-engine/application/queries"
	"chamahub/contexts/group-governance/voting-engine/domain/entities"
	domainerrors "chamahub/contexts/group-governance/voting-engine/domain/errors"
	httptransport "chamahub/contexts/group-governance/voting-engine/transport/http"
)

type Handler struct {
	Votes   commands.VoteUseCase
	Queries queries.VoteQueryUseCase
	Logger  *slog.Logger
}

// CreateVoteHandler creates a governance vote for a group.
// @Summary Create a governance vote
// @Description Creates a DRAFT or ACTIVE vote with a frozen eligibility snapshot of the group's active members.
// @Tags group-governance
// @Accept json
// @Produce json
// @Param X-User-Id header string true "Acting user id"
// @Param Idempotency-Key header string true "Idempotency key"
// @Param group_id path string true "Group id"
// @Param request body httptransport.CreateVoteRequest true "Vote payload"
// @Success 201 {object} httptransport.VoteResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Failure 403 {object} httptransport.ErrorResponse
// @Failure 409 {object} httptransport.ErrorResponse
// @Failure 422 {object} httptransport.ErrorResponse
// @Failure 500 {object} httptransport.ErrorResponse
// @Router /api/governance/v1/groups/{group_id}/votes [post]
func (h Handler) CreateVoteHandler(
	ctx context.Context,
	groupID string,
	userID string,
	idempotencyKey string,
	req httptransport.CreateVoteRequest,
) (httptransport.VoteResponse, error) {
	startDate, err := parseTimestamp(req.StartDate)
	if err != nil {
		return httptransport.VoteResponse{}, domainerrors.ErrInvalidVoteInput
	}
	endDate, err := parseTimestamp(req.EndDate)
	if err != nil {
		return httptransport.VoteResponse{}, domainerrors.ErrInvalidVoteInput
	}
	result, err := h.Votes.CreateVote(ctx, commands.CreateVoteCommand{
		GroupID:        groupID,
		RequestedBy:    userID,
		IdempotencyKey: idempotencyKey,
		Title:          req.Title,
		Description:    req.Description,
		VoteType:       entities.VoteType(strings.TrimSpace(req.VoteType)),
		AllowProxy:     req.AllowProxy,
		StartDate:      startDate,
		EndDate:        endDate,
	})
	if err != nil {
		return httptransport.VoteResponse{}, err
	}
	return mapVote(result.Vote, result.Replayed), nil
}

// GetVoteHandler returns a vote with its live tally.
// @Summary Get a vote
// @Tags group-governance
// @Produce json
// @Param vote_id path string true "Vote id"
// @Success 200 {object} httptransport.VoteResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Failure 500 {object} httptransport.ErrorResponse
// @Router /api/governance/v1/votes/{vote_id} [get]
func (h Handler) GetVoteHandler(ctx context.Context, voteID string) (httptransport.VoteResponse, error) {
	vote, err := h.Queries.GetVote(ctx, voteID)
	if err != nil {
		return httptransport.VoteResponse{}, err
	}
	return mapVote(vote, false), nil
}

// ListVotesHandler pages through a group's votes, newest first.
// @Summary List group votes
// @Tags group-governance
// @Produce json
// @Param group_id path string true "Group id"
// @Param status query string false "Status filter: DRAFT,ACTIVE,CLOSED"
// @Param limit query int false "Page size (max 100)"
// @Param offset query int false "Page offset"
// @Success 200 {object} httptransport.VoteListResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Failure 500 {object} httptransport.ErrorResponse
// @Router /api/governance/v1/groups/{group_id}/votes [get]
func (h Handler) ListVotesHandler(
	ctx context.Context,
	groupID string,
	statusFilter string,
	limit int,
	offset int,
) (httptransport.VoteListResponse, error) {
	votes, total, err := h.Queries.ListVotes(ctx, groupID, statusFilter, limit, offset)
	if err != nil {
		return httptransport.VoteListResponse{}, err
	}
	items := make([]httptransport.VoteResponse, 0, len(votes))
	for _, vote := range votes {
		items = append(items, mapVote(vote, false))
	}
	if limit <= 0 {
		limit = len(items)
	}
	if offset < 0 {
		offset = 0
	}
	return httptransport.VoteListResponse{
		Items:  items,
		Total:  total,
		Limit:  limit,
		Offset: offset,
	}, nil
}

// CastBallotHandler records one choice for an eligible voter.
// @Summary Cast a ballot
// @Description Records YES, NO, or ABSTAIN for the acting member, or for another member via proxy delegation.
// @Tags group-governance
// @Accept json
// @Produce json
// @Param X-User-Id header string true "Acting user id"
// @Param Idempotency-Key header string true "Idempotency key"
// @Param vote_id path string true "Vote id"
// @Param request body httptransport.CastBallotRequest true "Ballot payload"
// @Success 201 {object} httptransport.CastBallotResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Failure 403 {object} httptransport.ErrorResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Failure 409 {object} httptransport.ErrorResponse
// @Failure 500 {object} httptransport.ErrorResponse
// @Router /api/governance/v1/votes/{vote_id}/ballots [post]
func (h Handler) CastBallotHandler(
	ctx context.Context,
	voteID string,
	userID string,
	idempotencyKey string,
	req httptransport.CastBallotRequest,
) (httptransport.CastBallotResponse, error) {
	result, err := h.Votes.CastBallot(ctx, commands.CastBallotCommand{
		VoteID:         voteID,
		CastBy:         userID,
		CastFor:        req.CastFor,
		Choice:         entities.BallotChoice(strings.ToUpper(strings.TrimSpace(req.Choice))),
		IdempotencyKey: idempotencyKey,
	})
	if err != nil {
		return httptransport.CastBallotResponse{}, err
	}
	return httptransport.CastBallotResponse{
		Ballot:   mapBallot(result.Ballot),
		Tally:    mapTally(result.Vote.LiveTally()),
		Replayed: result.Replayed,
	}, nil
}

// ListBallotsHandler returns the vote's ballots ordered by cast time.
// @Summary List ballots for a vote
// @Tags group-governance
// @Produce json
// @Param vote_id path string true "Vote id"
// @Success 200 {object} httptransport.BallotListResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Failure 500 {object} httptransport.ErrorResponse
// @Router /api/governance/v1/votes/{vote_id}/ballots [get]
func (h Handler) ListBallotsHandler(ctx context.Context, voteID string) (httptransport.BallotListResponse, error) {
	ballots, err := h.Queries.ListBallots(ctx, voteID)
	if err != nil {
		return httptransport.BallotListResponse{}, err
	}
	items := make([]httptransport.BallotResponse, 0, len(ballots))
	for _, ballot := range ballots {
		items = append(items, mapBallot(ballot))
	}
	return httptransport.BallotListResponse{
		VoteID: strings.TrimSpace(voteID),
		Items:  items,
	}, nil
}

// CloseVoteHandler closes a vote early and resolves its outcome.
// @Summary Close a vote
// @Tags group-governance
// @Produce json
// @Param X-User-Id header string true "Acting user id"
// @Param Idempotency-Key header string true "Idempotency key"
// @Param vote_id path string true "Vote id"
// @Success 200 {object} httptransport.VoteResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Failure 403 {object} httptransport.ErrorResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Failure 409 {object} httptransport.ErrorResponse
// @Failure 500 {object} httptransport.ErrorResponse
// @Router /api/governance/v1/votes/{vote_id}/close [post]
func (h Handler) CloseVoteHandler(
	ctx context.Context,
	voteID string,
	userID string,
	idempotencyKey string,
) (httptransport.VoteResponse, error) {
	result, err := h.Votes.CloseVote(ctx, commands.CloseVoteCommand{
		VoteID:         voteID,
		RequestedBy:    userID,
		IdempotencyKey: idempotencyKey,
	})
	if err != nil {
		return httptransport.VoteResponse{}, err
	}
	return mapVote(result.Vote, result.Replayed), nil
}

func mapVote(vote entities.Vote, replayed bool) httptransport.VoteResponse {
	resp := httptransport.VoteResponse{
		VoteID:      vote.VoteID,
		GroupID:     vote.GroupID,
		Title:       vote.Title,
		Description: vote.Description,
		VoteType:    string(vote.VoteType),
		AllowProxy:  vote.AllowProxy,
		StartDate:   vote.StartDate.UTC().Format(time.RFC3339),
		EndDate:     vote.EndDate.UTC().Format(time.RFC3339),
		Status:      string(vote.Status),
		Outcome:     string(vote.Outcome),
		Tally:       mapTally(vote.LiveTally()),
		CreatedBy:   vote.CreatedBy,
		CreatedAt:   vote.CreatedAt.UTC().Format(time.RFC3339),
		Replayed:    replayed,
	}
	if vote.ClosedAt != nil {
		resp.ClosedAt = vote.ClosedAt.UTC().Format(time.RFC3339)
	}
	return resp
}

func mapBallot(ballot entities.Ballot) httptransport.BallotResponse {
	return httptransport.BallotResponse{
		BallotID: ballot.BallotID,
		VoteID:   ballot.VoteID,
		CastBy:   ballot.CastBy,
		CastFor:  ballot.CastFor,
		Choice:   string(ballot.Choice),
		Proxy:    ballot.IsProxy(),
		CastAt:   ballot.CastAt.UTC().Format(time.RFC3339),
	}
}

func mapTally(tally entities.Tally) httptransport.TallyResponse {
	return httptransport.TallyResponse{
		YesVotes:          tally.YesVotes,
		NoVotes:           tally.NoVotes,
		AbstainVotes:      tally.AbstainVotes,
		TotalVotesCast:    tally.TotalVotesCast,
		TotalEligible:     tally.TotalEligible,
		YesPercentage:     tally.YesPercentage,
		NoPercentage:      tally.NoPercentage,
		AbstainPercentage: tally.AbstainPercentage,
		TurnoutPercentage: tally.TurnoutPercentage,
	}
}

func parseTimestamp(value string) (time.Time, error) {
	return time.Parse(time.RFC3339, strings.TrimSpace(value))
}
