package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	contractsv1 "univote/contracts/gen/events/v1"
	electionservice "univote/contexts/campus-elections/election-service"
	"univote/contexts/campus-elections/election-service/adapters/security"
	"univote/contexts/campus-elections/election-service/application/commands"
	"univote/contexts/campus-elections/election-service/application/workers"
	"univote/contexts/campus-elections/election-service/ports"
	electionhttp "univote/contexts/campus-elections/election-service/transport/http"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	return newTestServerWith(t, nil)
}

func newTestServerWith(t *testing.T, configure func(*electionservice.Module)) *Server {
	t.Helper()
	tokens, err := security.NewJWTIssuer("test-secret-0123456789", "univote-test")
	if err != nil {
		t.Fatalf("jwt issuer: %v", err)
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	module := electionservice.NewInMemoryModule(security.BcryptHasher{Cost: 4}, tokens, logger)
	if _, err := module.Admins.SeedAdmins(context.Background(), []commands.AdminSeed{
		{Username: "root", Password: "root-pass", FirstName: "Ada", Role: "super_admin"},
	}); err != nil {
		t.Fatalf("seed admins: %v", err)
	}
	if configure != nil {
		configure(&module)
	}
	return New(module, logger, ":0")
}

func doJSON(t *testing.T, server *Server, method string, path string, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	server.Handler().ServeHTTP(rr, req)
	return rr
}

func decodeBody[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %T: %v body=%s", out, err, rr.Body.String())
	}
	return out
}

func adminToken(t *testing.T, server *Server) string {
	t.Helper()
	rr := doJSON(t, server, http.MethodPost, "/api/v1/admins/login", "", electionhttp.AdminLoginRequest{
		Username: "root",
		Password: "root-pass",
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("admin login: expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}
	return decodeBody[electionhttp.SessionResponse](t, rr).Token
}

func createVoter(t *testing.T, server *Server, token string, req electionhttp.VoterRequest) electionhttp.VoterResponse {
	t.Helper()
	rr := doJSON(t, server, http.MethodPost, "/api/v1/voters", token, req)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create voter: expected 201, got %d body=%s", rr.Code, rr.Body.String())
	}
	return decodeBody[electionhttp.VoterResponse](t, rr)
}

func voterToken(t *testing.T, server *Server, voter electionhttp.VoterResponse) string {
	t.Helper()
	rr := doJSON(t, server, http.MethodPost, "/api/v1/voters/login", "", electionhttp.VoterLoginRequest{
		FirstName:    voter.FirstName,
		LastName:     voter.LastName,
		Email:        voter.Email,
		UniversityID: voter.UniversityID,
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("voter login: expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}
	return decodeBody[electionhttp.SessionResponse](t, rr).Token
}

func TestProtectedRoutesRequireBearerToken(t *testing.T) {
	server := newTestServer(t)
	for _, path := range []string{
		"/api/v1/elections",
		"/api/v1/voters",
		"/api/v1/results?electionId=e1",
	} {
		rr := doJSON(t, server, http.MethodGet, path, "", nil)
		if rr.Code != http.StatusUnauthorized {
			t.Fatalf("%s: expected 401, got %d body=%s", path, rr.Code, rr.Body.String())
		}
		if rr.Header().Get("X-Request-Id") == "" {
			t.Fatalf("%s: expected request id header", path)
		}
	}

	rr := doJSON(t, server, http.MethodGet, "/api/v1/elections", "not-a-jwt", nil)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for garbage token, got %d", rr.Code)
	}
	if body := decodeBody[electionhttp.ErrorResponse](t, rr); body.Code != "unauthenticated" {
		t.Fatalf("unexpected error body: %+v", body)
	}
}

func TestAdminLoginRejectsBadPassword(t *testing.T) {
	server := newTestServer(t)
	rr := doJSON(t, server, http.MethodPost, "/api/v1/admins/login", "", electionhttp.AdminLoginRequest{
		Username: "root",
		Password: "wrong",
	})
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestVoterCannotCallAdminRoutes(t *testing.T) {
	server := newTestServer(t)
	admin := adminToken(t, server)
	voter := createVoter(t, server, admin, electionhttp.VoterRequest{
		FirstName: "Bo", LastName: "Voter", Email: "bo@uni.test", UniversityID: "U100",
	})
	token := voterToken(t, server, voter)

	cases := []struct {
		method string
		path   string
		body   any
	}{
		{method: http.MethodGet, path: "/api/v1/voters"},
		{method: http.MethodPost, path: "/api/v1/elections", body: electionhttp.ElectionRequest{
			Name: "Guild", StartTime: "2025-03-01T08:00:00Z", EndTime: "2025-03-01T18:00:00Z",
		}},
		{method: http.MethodDelete, path: "/api/v1/voters/" + voter.ID},
	}
	for _, tc := range cases {
		rr := doJSON(t, server, tc.method, tc.path, token, tc.body)
		if rr.Code != http.StatusForbidden {
			t.Fatalf("%s %s: expected 403, got %d body=%s", tc.method, tc.path, rr.Code, rr.Body.String())
		}
	}
}

func TestSelfRegisteredVoterWaitsForApproval(t *testing.T) {
	server := newTestServer(t)
	admin := adminToken(t, server)

	rr := doJSON(t, server, http.MethodPost, "/api/v1/voters/register", "", electionhttp.VoterRequest{
		FirstName: "Cy", LastName: "Self", Email: "cy@uni.test", UniversityID: "U200", Password: "pw",
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("register: expected 201, got %d body=%s", rr.Code, rr.Body.String())
	}
	registered := decodeBody[electionhttp.VoterResponse](t, rr)
	if registered.Approved {
		t.Fatal("expected self-registered voter to start unapproved")
	}

	login := electionhttp.VoterLoginRequest{FirstName: "cy", LastName: "SELF", Email: "Cy@uni.test", UniversityID: "U200"}
	if rr := doJSON(t, server, http.MethodPost, "/api/v1/voters/login", "", login); rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403 pending, got %d body=%s", rr.Code, rr.Body.String())
	}

	rr = doJSON(t, server, http.MethodPut, "/api/v1/voters/"+registered.ID+"/approve?approved=true", admin, nil)
	if rr.Code != http.StatusOK || !decodeBody[electionhttp.VoterResponse](t, rr).Approved {
		t.Fatalf("approve: got %d body=%s", rr.Code, rr.Body.String())
	}
	if rr := doJSON(t, server, http.MethodPost, "/api/v1/voters/login", "", login); rr.Code != http.StatusOK {
		t.Fatalf("expected 200 after approval, got %d body=%s", rr.Code, rr.Body.String())
	}

	unknown := electionhttp.VoterLoginRequest{FirstName: "No", LastName: "One", Email: "no@uni.test", UniversityID: "U999"}
	if rr := doJSON(t, server, http.MethodPost, "/api/v1/voters/login", "", unknown); rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown voter, got %d", rr.Code)
	}
	if rr := doJSON(t, server, http.MethodPut, "/api/v1/voters/"+registered.ID+"/approve?approved=maybe", admin, nil); rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad approved flag, got %d", rr.Code)
	}
}

func TestElectionVoteFlow(t *testing.T) {
	server := newTestServer(t)
	admin := adminToken(t, server)

	rr := doJSON(t, server, http.MethodPost, "/api/v1/elections", admin, electionhttp.ElectionRequest{
		Name:      "Guild 2025",
		StartTime: "2025-03-01T09:30",
		EndTime:   "2025-03-01T17:00",
		TimeZone:  "Africa/Kampala",
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("create election: expected 201, got %d body=%s", rr.Code, rr.Body.String())
	}
	election := decodeBody[electionhttp.ElectionResponse](t, rr)
	if election.Status != "upcoming" || election.StartTime != "2025-03-01T06:30:00Z" {
		t.Fatalf("unexpected election: %+v", election)
	}

	runner := createVoter(t, server, admin, electionhttp.VoterRequest{
		FirstName: "Ra", LastName: "Runner", Email: "ra@uni.test", UniversityID: "U300",
	})
	backer := createVoter(t, server, admin, electionhttp.VoterRequest{
		FirstName: "Ba", LastName: "Backer", Email: "ba@uni.test", UniversityID: "U301",
	})
	runnerToken := voterToken(t, server, runner)
	backerToken := voterToken(t, server, backer)

	apply := electionhttp.ApplyCandidateRequest{
		Voter:     electionhttp.EntityRef{ID: runner.ID},
		Elections: electionhttp.EntityRef{ID: election.ID},
		Post:      "president",
		Bio:       "steady hands",
	}
	rr = doJSON(t, server, http.MethodPost, "/api/v1/candidates", runnerToken, apply)
	if rr.Code != http.StatusCreated {
		t.Fatalf("apply: expected 201, got %d body=%s", rr.Code, rr.Body.String())
	}
	candidate := decodeBody[electionhttp.CandidateResponse](t, rr)
	if candidate.Approved || candidate.Voter == nil || candidate.Voter.ID != runner.ID {
		t.Fatalf("unexpected candidate: %+v", candidate)
	}
	if rr := doJSON(t, server, http.MethodPost, "/api/v1/candidates", runnerToken, apply); rr.Code != http.StatusConflict {
		t.Fatalf("expected 409 duplicate application, got %d", rr.Code)
	}

	vote := electionhttp.CastVoteRequest{VoterID: backer.ID, CandidateID: candidate.CandidateID, ElectionID: election.ID}
	if rr := doJSON(t, server, http.MethodPost, "/api/v1/votes", backerToken, vote); rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 before activation, got %d body=%s", rr.Code, rr.Body.String())
	}

	if rr := doJSON(t, server, http.MethodPatch, "/api/v1/candidates/"+candidate.CandidateID, admin, map[string]bool{"approved": true}); rr.Code != http.StatusOK {
		t.Fatalf("approve candidate: got %d body=%s", rr.Code, rr.Body.String())
	}
	if rr := doJSON(t, server, http.MethodPatch, "/api/v1/candidates/"+candidate.CandidateID, admin, map[string]string{}); rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without approved flag, got %d", rr.Code)
	}
	if rr := doJSON(t, server, http.MethodPatch, "/api/v1/elections/"+election.ID+"/status", admin, electionhttp.ElectionStatusRequest{Status: "active"}); rr.Code != http.StatusOK {
		t.Fatalf("activate: got %d body=%s", rr.Code, rr.Body.String())
	}

	rr = doJSON(t, server, http.MethodPost, "/api/v1/votes", backerToken, vote)
	if rr.Code != http.StatusCreated {
		t.Fatalf("cast vote: expected 201, got %d body=%s", rr.Code, rr.Body.String())
	}
	if cast := decodeBody[electionhttp.VoteResponse](t, rr); cast.Post != "president" || cast.Replayed {
		t.Fatalf("unexpected vote: %+v", cast)
	}
	if rr := doJSON(t, server, http.MethodPost, "/api/v1/votes", backerToken, vote); rr.Code != http.StatusConflict {
		t.Fatalf("expected 409 duplicate vote, got %d", rr.Code)
	}
	missing := vote
	missing.ElectionID = "missing"
	if rr := doJSON(t, server, http.MethodPost, "/api/v1/votes", backerToken, missing); rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for unknown election, got %d", rr.Code)
	}

	rr = doJSON(t, server, http.MethodGet, "/api/v1/votes/me?electionId="+election.ID, backerToken, nil)
	if rr.Code != http.StatusOK || !decodeBody[electionhttp.HasVotedResponse](t, rr).HasVoted {
		t.Fatalf("has voted: got %d body=%s", rr.Code, rr.Body.String())
	}

	rr = doJSON(t, server, http.MethodGet, "/api/v1/results?electionId="+election.ID, runnerToken, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("results: got %d body=%s", rr.Code, rr.Body.String())
	}
	tally := decodeBody[electionhttp.TallyResponse](t, rr)
	if tally.TotalVotes != 1 || len(tally.Items) != 1 || tally.Items[0].Votes != 1 || tally.Items[0].Percentage != 100 {
		t.Fatalf("unexpected tally: %+v", tally)
	}

	if rr := doJSON(t, server, http.MethodDelete, "/api/v1/elections/"+election.ID, admin, nil); rr.Code != http.StatusNoContent {
		t.Fatalf("delete election: got %d body=%s", rr.Code, rr.Body.String())
	}
	if rr := doJSON(t, server, http.MethodGet, "/api/v1/elections/"+election.ID, admin, nil); rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", rr.Code)
	}
}

func TestCastVoteReplaysIdempotencyKey(t *testing.T) {
	server := newTestServer(t)
	admin := adminToken(t, server)
	rr := doJSON(t, server, http.MethodPost, "/api/v1/elections", admin, electionhttp.ElectionRequest{
		Name: "Guild", StartTime: "2025-03-01T08:00:00Z", EndTime: "2025-03-01T18:00:00Z", Status: "active",
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("create election: got %d body=%s", rr.Code, rr.Body.String())
	}
	election := decodeBody[electionhttp.ElectionResponse](t, rr)
	runner := createVoter(t, server, admin, electionhttp.VoterRequest{FirstName: "Ru", LastName: "N", Email: "ru@uni.test", UniversityID: "U400"})
	backer := createVoter(t, server, admin, electionhttp.VoterRequest{FirstName: "Be", LastName: "K", Email: "be@uni.test", UniversityID: "U401"})

	rr = doJSON(t, server, http.MethodPost, "/api/v1/candidates", voterToken(t, server, runner), electionhttp.ApplyCandidateRequest{
		Voter: electionhttp.EntityRef{ID: runner.ID}, Elections: electionhttp.EntityRef{ID: election.ID}, Post: "president", Bio: "b",
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("apply: got %d body=%s", rr.Code, rr.Body.String())
	}
	candidate := decodeBody[electionhttp.CandidateResponse](t, rr)
	if rr := doJSON(t, server, http.MethodPatch, "/api/v1/candidates/"+candidate.CandidateID, admin, map[string]bool{"approved": true}); rr.Code != http.StatusOK {
		t.Fatalf("approve candidate: got %d", rr.Code)
	}

	token := voterToken(t, server, backer)
	send := func() *httptest.ResponseRecorder {
		raw, _ := json.Marshal(electionhttp.CastVoteRequest{VoterID: backer.ID, CandidateID: candidate.CandidateID, ElectionID: election.ID})
		req := httptest.NewRequest(http.MethodPost, "/api/v1/votes", bytes.NewReader(raw))
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("Idempotency-Key", "ballot-42")
		out := httptest.NewRecorder()
		server.Handler().ServeHTTP(out, req)
		return out
	}
	first := send()
	if first.Code != http.StatusCreated {
		t.Fatalf("first vote: got %d body=%s", first.Code, first.Body.String())
	}
	second := send()
	if second.Code != http.StatusOK || !decodeBody[electionhttp.VoteResponse](t, second).Replayed {
		t.Fatalf("expected replayed 200, got %d body=%s", second.Code, second.Body.String())
	}
}

func TestMalformedBodyIsBadRequest(t *testing.T) {
	server := newTestServer(t)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/admins/login", bytes.NewReader([]byte(`{`)))
	rr := httptest.NewRecorder()
	server.Handler().ServeHTTP(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestOversizedBodyIsRejected(t *testing.T) {
	server := newTestServer(t)
	body := `{"username":"` + strings.Repeat("a", maxBodyBytes+1) + `","password":"x"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/admins/login", strings.NewReader(body))
	rr := httptest.NewRecorder()
	server.Handler().ServeHTTP(rr, req)
	if rr.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d body=%s", rr.Code, rr.Body.String())
	}
	if got := decodeBody[electionhttp.ErrorResponse](t, rr); got.Code != "request_too_large" {
		t.Fatalf("unexpected error body: %+v", got)
	}
}

func TestAdminManagementRoutes(t *testing.T) {
	server := newTestServer(t)
	token := adminToken(t, server)

	rr := doJSON(t, server, http.MethodPost, "/api/v1/admins", token, electionhttp.AdminRequest{
		Username: "ops", Password: "ops-pass", FirstName: "Op", Email: "OPS@uni.test",
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("create admin: expected 201, got %d body=%s", rr.Code, rr.Body.String())
	}
	created := decodeBody[electionhttp.AdminResponse](t, rr)
	if created.ID == "" || created.Role != "admin" || created.Email != "ops@uni.test" {
		t.Fatalf("unexpected admin: %+v", created)
	}
	if rr := doJSON(t, server, http.MethodPost, "/api/v1/admins", token, electionhttp.AdminRequest{Username: "OPS", Password: "x"}); rr.Code != http.StatusConflict {
		t.Fatalf("expected 409 for taken username, got %d", rr.Code)
	}
	if rr := doJSON(t, server, http.MethodPost, "/api/v1/admins", token, electionhttp.AdminRequest{Username: "nopass"}); rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without password, got %d", rr.Code)
	}

	rr = doJSON(t, server, http.MethodGet, "/api/v1/admins", token, nil)
	if rr.Code != http.StatusOK || len(decodeBody[[]electionhttp.AdminResponse](t, rr)) != 2 {
		t.Fatalf("list admins: got %d body=%s", rr.Code, rr.Body.String())
	}
	if rr := doJSON(t, server, http.MethodGet, "/api/v1/admins/"+created.ID, token, nil); rr.Code != http.StatusOK {
		t.Fatalf("get admin: got %d", rr.Code)
	}

	rr = doJSON(t, server, http.MethodPut, "/api/v1/admins/"+created.ID, token, electionhttp.AdminRequest{
		Username: "operations", FirstName: "Op", Role: "super_admin",
	})
	if rr.Code != http.StatusOK || decodeBody[electionhttp.AdminResponse](t, rr).Username != "operations" {
		t.Fatalf("update admin: got %d body=%s", rr.Code, rr.Body.String())
	}
	login := doJSON(t, server, http.MethodPost, "/api/v1/admins/login", "", electionhttp.AdminLoginRequest{Username: "operations", Password: "ops-pass"})
	if login.Code != http.StatusOK {
		t.Fatalf("expected password kept across update, got %d", login.Code)
	}

	self := decodeBody[electionhttp.SessionResponse](t, doJSON(t, server, http.MethodPost, "/api/v1/admins/login", "", electionhttp.AdminLoginRequest{Username: "root", Password: "root-pass"}))
	if rr := doJSON(t, server, http.MethodDelete, "/api/v1/admins/"+self.SubjectID, token, nil); rr.Code != http.StatusConflict {
		t.Fatalf("expected 409 deleting own account, got %d", rr.Code)
	}
	if rr := doJSON(t, server, http.MethodDelete, "/api/v1/admins/"+created.ID, token, nil); rr.Code != http.StatusNoContent {
		t.Fatalf("delete admin: got %d body=%s", rr.Code, rr.Body.String())
	}
	if rr := doJSON(t, server, http.MethodGet, "/api/v1/admins/"+created.ID, token, nil); rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", rr.Code)
	}

	voter := createVoter(t, server, token, electionhttp.VoterRequest{FirstName: "Vi", LastName: "V", Email: "vi@uni.test", UniversityID: "U500"})
	if rr := doJSON(t, server, http.MethodGet, "/api/v1/admins", voterToken(t, server, voter), nil); rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for voter, got %d", rr.Code)
	}
}

func TestGetVoterAndCandidateRoutes(t *testing.T) {
	server := newTestServer(t)
	admin := adminToken(t, server)
	rr := doJSON(t, server, http.MethodPost, "/api/v1/elections", admin, electionhttp.ElectionRequest{
		Name: "Guild", StartTime: "2025-03-01T08:00:00Z", EndTime: "2025-03-01T18:00:00Z",
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("create election: got %d body=%s", rr.Code, rr.Body.String())
	}
	election := decodeBody[electionhttp.ElectionResponse](t, rr)
	first := createVoter(t, server, admin, electionhttp.VoterRequest{FirstName: "Fi", LastName: "R", Email: "fi@uni.test", UniversityID: "U600"})
	second := createVoter(t, server, admin, electionhttp.VoterRequest{FirstName: "Se", LastName: "C", Email: "se@uni.test", UniversityID: "U601"})
	token := voterToken(t, server, first)

	rr = doJSON(t, server, http.MethodGet, "/api/v1/voters/"+first.ID, token, nil)
	if rr.Code != http.StatusOK || decodeBody[electionhttp.VoterResponse](t, rr).UniversityID != "U600" {
		t.Fatalf("get self: got %d body=%s", rr.Code, rr.Body.String())
	}
	if rr := doJSON(t, server, http.MethodGet, "/api/v1/voters/"+second.ID, token, nil); rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403 reading another voter, got %d", rr.Code)
	}
	if rr := doJSON(t, server, http.MethodGet, "/api/v1/voters/"+second.ID, admin, nil); rr.Code != http.StatusOK {
		t.Fatalf("admin get voter: got %d", rr.Code)
	}

	rr = doJSON(t, server, http.MethodPost, "/api/v1/candidates", token, electionhttp.ApplyCandidateRequest{
		Voter: electionhttp.EntityRef{ID: first.ID}, Elections: electionhttp.EntityRef{ID: election.ID}, Post: "president", Bio: "b",
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("apply: got %d body=%s", rr.Code, rr.Body.String())
	}
	candidate := decodeBody[electionhttp.CandidateResponse](t, rr)
	rr = doJSON(t, server, http.MethodGet, "/api/v1/candidates/"+candidate.CandidateID, token, nil)
	if rr.Code != http.StatusOK || decodeBody[electionhttp.CandidateResponse](t, rr).Post != "president" {
		t.Fatalf("get candidate: got %d body=%s", rr.Code, rr.Body.String())
	}
	if rr := doJSON(t, server, http.MethodGet, "/api/v1/candidates/missing", token, nil); rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown candidate, got %d", rr.Code)
	}
}

func TestTurnoutRoute(t *testing.T) {
	consumer := workers.NewTurnoutConsumer(nil, nil)
	server := newTestServerWith(t, func(module *electionservice.Module) {
		module.Handler.Turnout = consumer
	})
	admin := adminToken(t, server)
	rr := doJSON(t, server, http.MethodPost, "/api/v1/elections", admin, electionhttp.ElectionRequest{
		Name: "Guild", StartTime: "2025-03-01T08:00:00Z", EndTime: "2025-03-01T18:00:00Z",
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("create election: got %d body=%s", rr.Code, rr.Body.String())
	}
	election := decodeBody[electionhttp.ElectionResponse](t, rr)

	data, _ := json.Marshal(map[string]string{"election_id": election.ID, "candidate_id": "c1"})
	if err := consumer.Handle(context.Background(), ports.EventEnvelope{
		EventID:       "evt-1",
		EventType:     contractsv1.EventVoteCast,
		OccurredAt:    time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC),
		SchemaVersion: 1,
		Data:          data,
	}); err != nil {
		t.Fatalf("handle vote event: %v", err)
	}

	rr = doJSON(t, server, http.MethodGet, "/api/v1/turnout?electionId="+election.ID, admin, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("turnout: got %d body=%s", rr.Code, rr.Body.String())
	}
	if got := decodeBody[electionhttp.TurnoutResponse](t, rr); got.Turnout != 1 || got.ElectionID != election.ID {
		t.Fatalf("unexpected turnout: %+v", got)
	}
	if rr := doJSON(t, server, http.MethodGet, "/api/v1/turnout?electionId=missing", admin, nil); rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown election, got %d", rr.Code)
	}
	if rr := doJSON(t, server, http.MethodGet, "/api/v1/turnout", admin, nil); rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without electionId, got %d", rr.Code)
	}
}

func TestTurnoutRouteWithoutProjection(t *testing.T) {
	server := newTestServer(t)
	rr := doJSON(t, server, http.MethodGet, "/api/v1/turnout?electionId=e1", adminToken(t, server), nil)
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d body=%s", rr.Code, rr.Body.String())
	}
}
