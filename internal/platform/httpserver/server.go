package httpserver

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	votingengine "chamahub/contexts/group-governance/voting-engine"
	governanceerrors "chamahub/contexts/group-governance/voting-engine/domain/errors"
	governancehttp "chamahub/contexts/group-governance/voting-engine/transport/http"

	httpSwagger "github.com/swaggo/http-swagger"
	_ "chamahub/internal/platform/httpserver/docs"
)

type Server struct {
	mux        *http.ServeMux
	logger     *slog.Logger
	addr       string
	governance votingengine.Module
}

func New(governance votingengine.Module, logger *slog.Logger, addr string) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if addr == "" {
		addr = ":8080"
	}

	s := &Server{
		mux:        http.NewServeMux(),
		logger:     logger,
		addr:       addr,
		governance: governance,
	}
	s.registerRoutes()
	return s
}

func (s *Server) Start() error {
	s.logger.Info("http server starting",
		"event", "http_server_starting",
		"module", "internal/platform/httpserver",
		"layer", "platform",
		"addr", s.addr,
	)
	return http.ListenAndServe(s.addr, s.mux)
}

// Mux exposes the configured routes for test harnesses.
func (s *Server) Mux() *http.ServeMux {
	return s.mux
}

func (s *Server) registerRoutes() {
	s.mux.Handle("/swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	s.mux.HandleFunc("POST /api/governance/v1/groups/{group_id}/votes", s.handleCreateVote)
	s.mux.HandleFunc("GET /api/governance/v1/groups/{group_id}/votes", s.handleListVotes)
	s.mux.HandleFunc("GET /api/governance/v1/votes/{vote_id}", s.handleGetVote)
	s.mux.HandleFunc("POST /api/governance/v1/votes/{vote_id}/ballots", s.handleCastBallot)
	s.mux.HandleFunc("GET /api/governance/v1/votes/{vote_id}/ballots", s.handleListBallots)
	s.mux.HandleFunc("POST /api/governance/v1/votes/{vote_id}/close", s.handleCloseVote)
}

func (s *Server) handleCreateVote(w http.ResponseWriter, r *http.Request) {
	userID := strings.TrimSpace(r.Header.Get("X-User-Id"))
	if userID == "" {
		writeGovernanceError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}

	var req governancehttp.CreateVoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeGovernanceError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.governance.Handler.CreateVoteHandler(
		r.Context(),
		r.PathValue("group_id"),
		userID,
		r.Header.Get("Idempotency-Key"),
		req,
	)
	if err != nil {
		writeGovernanceDomainError(w, err)
		return
	}
	status := http.StatusCreated
	if resp.Replayed {
		status = http.StatusOK
	}
	writeJSON(w, status, resp)
}

func (s *Server) handleListVotes(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	limit := 0
	if limitRaw := query.Get("limit"); limitRaw != "" {
		parsed, err := strconv.Atoi(limitRaw)
		if err != nil {
			writeGovernanceError(w, http.StatusBadRequest, "invalid_limit", "limit must be an integer")
			return
		}
		limit = parsed
	}
	offset := 0
	if offsetRaw := query.Get("offset"); offsetRaw != "" {
		parsed, err := strconv.Atoi(offsetRaw)
		if err != nil {
			writeGovernanceError(w, http.StatusBadRequest, "invalid_offset", "offset must be an integer")
			return
		}
		offset = parsed
	}

	resp, err := s.governance.Handler.ListVotesHandler(
		r.Context(),
		r.PathValue("group_id"),
		query.Get("status"),
		limit,
		offset,
	)
	if err != nil {
		writeGovernanceDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetVote(w http.ResponseWriter, r *http.Request) {
	resp, err := s.governance.Handler.GetVoteHandler(r.Context(), r.PathValue("vote_id"))
	if err != nil {
		writeGovernanceDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCastBallot(w http.ResponseWriter, r *http.Request) {
	userID := strings.TrimSpace(r.Header.Get("X-User-Id"))
	if userID == "" {
		writeGovernanceError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}

	var req governancehttp.CastBallotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeGovernanceError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.governance.Handler.CastBallotHandler(
		r.Context(),
		r.PathValue("vote_id"),
		userID,
		r.Header.Get("Idempotency-Key"),
		req,
	)
	if err != nil {
		writeGovernanceDomainError(w, err)
		return
	}
	status := http.StatusCreated
	if resp.Replayed {
		status = http.StatusOK
	}
	writeJSON(w, status, resp)
}

func (s *Server) handleListBallots(w http.ResponseWriter, r *http.Request) {
	resp, err := s.governance.Handler.ListBallotsHandler(r.Context(), r.PathValue("vote_id"))
	if err != nil {
		writeGovernanceDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCloseVote(w http.ResponseWriter, r *http.Request) {
	userID := strings.TrimSpace(r.Header.Get("X-User-Id"))
	if userID == "" {
		writeGovernanceError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}

	resp, err := s.governance.Handler.CloseVoteHandler(
		r.Context(),
		r.PathValue("vote_id"),
		userID,
		r.Header.Get("Idempotency-Key"),
	)
	if err != nil {
		writeGovernanceDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeGovernanceDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, governanceerrors.ErrInvalidVoteInput),
		errors.Is(err, governanceerrors.ErrInvalidTimeRange),
		errors.Is(err, governanceerrors.ErrInvalidStartDate):
		writeGovernanceError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, governanceerrors.ErrIdempotencyKeyRequired):
		writeGovernanceError(w, http.StatusBadRequest, "idempotency_key_required", err.Error())
	case errors.Is(err, governanceerrors.ErrNotAuthorized):
		writeGovernanceError(w, http.StatusForbidden, "not_authorized", err.Error())
	case errors.Is(err, governanceerrors.ErrNotEligible):
		writeGovernanceError(w, http.StatusForbidden, "not_eligible", err.Error())
	case errors.Is(err, governanceerrors.ErrVoteNotFound):
		writeGovernanceError(w, http.StatusNotFound, "vote_not_found", err.Error())
	case errors.Is(err, governanceerrors.ErrVoteNotOpen):
		writeGovernanceError(w, http.StatusConflict, "vote_not_open", err.Error())
	case errors.Is(err, governanceerrors.ErrAlreadyVoted):
		writeGovernanceError(w, http.StatusConflict, "already_voted", err.Error())
	case errors.Is(err, governanceerrors.ErrIdempotencyConflict),
		errors.Is(err, governanceerrors.ErrConflict):
		writeGovernanceError(w, http.StatusConflict, "conflict", err.Error())
	case errors.Is(err, governanceerrors.ErrNoEligibleVoters):
		writeGovernanceError(w, http.StatusUnprocessableEntity, "no_eligible_voters", err.Error())
	default:
		writeGovernanceError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeGovernanceError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, governancehttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
