package httpserver

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	votingengine "chamahub/contexts/group-governance/voting-engine"
	"chamahub/contexts/group-governance/voting-engine/adapters/memory"
	governancehttp "chamahub/contexts/group-governance/voting-engine/transport/http"
)

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time {
	return c.now
}

func newGovernanceTestServer() (*Server, *memory.Store, fixedClock) {
	store := memory.NewStore(nil)
	clock := fixedClock{now: time.Date(2026, 4, 10, 9, 0, 0, 0, time.UTC)}
	module := votingengine.NewModule(votingengine.Dependencies{
		Votes:          store,
		Ballots:        store,
		Membership:     store,
		Authorization:  store,
		Idempotency:    store,
		Outbox:         store,
		Clock:          clock,
		IDGen:          store,
		IdempotencyTTL: 24 * time.Hour,
	})
	module.Store = store

	store.SetGroupAdmin("group-1", "admin-1")
	store.SetGroupMember("group-1", "admin-1", true)
	store.SetGroupMember("group-1", "member-1", true)
	store.SetGroupMember("group-1", "member-2", true)

	return New(module, nil, ":0"), store, clock
}

func createVoteViaAPI(t *testing.T, server *Server, clock fixedClock, idempotencyKey string) governancehttp.VoteResponse {
	t.Helper()
	body, _ := json.Marshal(governancehttp.CreateVoteRequest{
		Title:       "Approve land purchase",
		Description: "Buy the plot next to the market",
		VoteType:    "SIMPLE",
		StartDate:   clock.Now().Format(time.RFC3339),
		EndDate:     clock.Now().Add(48 * time.Hour).Format(time.RFC3339),
	})
	req := httptest.NewRequest(http.MethodPost, "/api/governance/v1/groups/group-1/votes", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-Id", "admin-1")
	req.Header.Set("Idempotency-Key", idempotencyKey)

	rr := httptest.NewRecorder()
	server.mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d body=%s", rr.Code, rr.Body.String())
	}
	var resp governancehttp.VoteResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp
}

func TestGovernanceCreateVoteRequiresUser(t *testing.T) {
	server, _, clock := newGovernanceTestServer()
	body, _ := json.Marshal(governancehttp.CreateVoteRequest{
		Title:       "Approve land purchase",
		Description: "Buy the plot next to the market",
		VoteType:    "SIMPLE",
		StartDate:   clock.Now().Format(time.RFC3339),
		EndDate:     clock.Now().Add(48 * time.Hour).Format(time.RFC3339),
	})
	req := httptest.NewRequest(http.MethodPost, "/api/governance/v1/groups/group-1/votes", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Idempotency-Key", "idem-1")

	rr := httptest.NewRecorder()
	server.mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestGovernanceCreateVoteRequiresIdempotencyKey(t *testing.T) {
	server, _, clock := newGovernanceTestServer()
	body, _ := json.Marshal(governancehttp.CreateVoteRequest{
		Title:       "Approve land purchase",
		Description: "Buy the plot next to the market",
		VoteType:    "SIMPLE",
		StartDate:   clock.Now().Format(time.RFC3339),
		EndDate:     clock.Now().Add(48 * time.Hour).Format(time.RFC3339),
	})
	req := httptest.NewRequest(http.MethodPost, "/api/governance/v1/groups/group-1/votes", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-Id", "admin-1")

	rr := httptest.NewRecorder()
	server.mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestGovernanceCreateVoteRejectsMalformedJSON(t *testing.T) {
	server, _, _ := newGovernanceTestServer()
	req := httptest.NewRequest(http.MethodPost, "/api/governance/v1/groups/group-1/votes", bytes.NewReader([]byte("{not json")))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-Id", "admin-1")
	req.Header.Set("Idempotency-Key", "idem-1")

	rr := httptest.NewRecorder()
	server.mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestGovernanceCreateVoteForbiddenForNonAdmin(t *testing.T) {
	server, _, clock := newGovernanceTestServer()
	body, _ := json.Marshal(governancehttp.CreateVoteRequest{
		Title:       "Approve land purchase",
		Description: "Buy the plot next to the market",
		VoteType:    "SIMPLE",
		StartDate:   clock.Now().Format(time.RFC3339),
		EndDate:     clock.Now().Add(48 * time.Hour).Format(time.RFC3339),
	})
	req := httptest.NewRequest(http.MethodPost, "/api/governance/v1/groups/group-1/votes", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-Id", "member-1")
	req.Header.Set("Idempotency-Key", "idem-1")

	rr := httptest.NewRecorder()
	server.mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestGovernanceCreateVoteReplayReturnsOK(t *testing.T) {
	server, _, clock := newGovernanceTestServer()
	first := createVoteViaAPI(t, server, clock, "idem-replay")

	body, _ := json.Marshal(governancehttp.CreateVoteRequest{
		Title:       "Approve land purchase",
		Description: "Buy the plot next to the market",
		VoteType:    "SIMPLE",
		StartDate:   clock.Now().Format(time.RFC3339),
		EndDate:     clock.Now().Add(48 * time.Hour).Format(time.RFC3339),
	})
	req := httptest.NewRequest(http.MethodPost, "/api/governance/v1/groups/group-1/votes", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-Id", "admin-1")
	req.Header.Set("Idempotency-Key", "idem-replay")

	rr := httptest.NewRecorder()
	server.mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 for replay, got %d body=%s", rr.Code, rr.Body.String())
	}
	var resp governancehttp.VoteResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.Replayed || resp.VoteID != first.VoteID {
		t.Fatalf("expected replay of %s, got %s (replayed=%v)", first.VoteID, resp.VoteID, resp.Replayed)
	}
}

func TestGovernanceCastAndGetVote(t *testing.T) {
	server, _, clock := newGovernanceTestServer()
	vote := createVoteViaAPI(t, server, clock, "idem-cg")

	body, _ := json.Marshal(governancehttp.CastBallotRequest{Choice: "YES"})
	req := httptest.NewRequest(http.MethodPost, "/api/governance/v1/votes/"+vote.VoteID+"/ballots", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-Id", "member-1")
	req.Header.Set("Idempotency-Key", "idem-cg-cast")

	rr := httptest.NewRecorder()
	server.mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d body=%s", rr.Code, rr.Body.String())
	}
	var cast governancehttp.CastBallotResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &cast); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if cast.Ballot.Choice != "YES" || cast.Tally.TotalVotesCast != 1 {
		t.Fatalf("unexpected cast response: %+v", cast)
	}

	getReq := httptest.NewRequest(http.MethodGet, "/api/governance/v1/votes/"+vote.VoteID, nil)
	getRR := httptest.NewRecorder()
	server.mux.ServeHTTP(getRR, getReq)
	if getRR.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", getRR.Code, getRR.Body.String())
	}
	var got governancehttp.VoteResponse
	if err := json.Unmarshal(getRR.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got.Tally.YesVotes != 1 {
		t.Fatalf("tally yes = %d, want 1", got.Tally.YesVotes)
	}
}

func TestGovernanceDuplicateBallotConflicts(t *testing.T) {
	server, _, clock := newGovernanceTestServer()
	vote := createVoteViaAPI(t, server, clock, "idem-dup")

	for i, wantStatus := range []int{http.StatusCreated, http.StatusConflict} {
		body, _ := json.Marshal(governancehttp.CastBallotRequest{Choice: "NO"})
		req := httptest.NewRequest(http.MethodPost, "/api/governance/v1/votes/"+vote.VoteID+"/ballots", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-User-Id", "member-1")
		req.Header.Set("Idempotency-Key", "idem-dup-cast-"+string(rune('a'+i)))

		rr := httptest.NewRecorder()
		server.mux.ServeHTTP(rr, req)
		if rr.Code != wantStatus {
			t.Fatalf("attempt %d: expected %d, got %d body=%s", i, wantStatus, rr.Code, rr.Body.String())
		}
	}
}

func TestGovernanceGetMissingVoteReturns404(t *testing.T) {
	server, _, _ := newGovernanceTestServer()
	req := httptest.NewRequest(http.MethodGet, "/api/governance/v1/votes/vote-missing", nil)

	rr := httptest.NewRecorder()
	server.mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestGovernanceListVotesAndBallots(t *testing.T) {
	server, _, clock := newGovernanceTestServer()
	vote := createVoteViaAPI(t, server, clock, "idem-list")

	listReq := httptest.NewRequest(http.MethodGet, "/api/governance/v1/groups/group-1/votes?status=ACTIVE&limit=10", nil)
	listRR := httptest.NewRecorder()
	server.mux.ServeHTTP(listRR, listReq)
	if listRR.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", listRR.Code, listRR.Body.String())
	}
	var list governancehttp.VoteListResponse
	if err := json.Unmarshal(listRR.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if list.Total != 1 || len(list.Items) != 1 || list.Items[0].VoteID != vote.VoteID {
		t.Fatalf("unexpected list: %+v", list)
	}

	badReq := httptest.NewRequest(http.MethodGet, "/api/governance/v1/groups/group-1/votes?limit=abc", nil)
	badRR := httptest.NewRecorder()
	server.mux.ServeHTTP(badRR, badReq)
	if badRR.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad limit, got %d", badRR.Code)
	}

	ballotsReq := httptest.NewRequest(http.MethodGet, "/api/governance/v1/votes/"+vote.VoteID+"/ballots", nil)
	ballotsRR := httptest.NewRecorder()
	server.mux.ServeHTTP(ballotsRR, ballotsReq)
	if ballotsRR.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", ballotsRR.Code, ballotsRR.Body.String())
	}
	var ballots governancehttp.BallotListResponse
	if err := json.Unmarshal(ballotsRR.Body.Bytes(), &ballots); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if ballots.VoteID != vote.VoteID || len(ballots.Items) != 0 {
		t.Fatalf("unexpected ballots: %+v", ballots)
	}
}

func TestGovernanceCloseVote(t *testing.T) {
	server, _, clock := newGovernanceTestServer()
	vote := createVoteViaAPI(t, server, clock, "idem-close")

	req := httptest.NewRequest(http.MethodPost, "/api/governance/v1/votes/"+vote.VoteID+"/close", nil)
	req.Header.Set("X-User-Id", "admin-1")
	req.Header.Set("Idempotency-Key", "idem-close-op")

	rr := httptest.NewRecorder()
	server.mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}
	var closed governancehttp.VoteResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &closed); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if closed.Status != "CLOSED" || closed.Outcome != "NO_QUORUM" {
		t.Fatalf("closed vote = %s/%s, want CLOSED/NO_QUORUM", closed.Status, closed.Outcome)
	}
}
