package bootstrap

import (
	"context"
	"testing"
	"time"

	"univote/contexts/campus-elections/election-service/adapters/memory"
	"univote/contexts/campus-elections/election-service/application/commands"
	"univote/contexts/campus-elections/election-service/domain/entities"
	"univote/contexts/campus-elections/election-service/ports"
	"univote/internal/platform/config"
)

func TestNormalizeAddr(t *testing.T) {
	cases := map[string]string{
		"":      ":8080",
		"9090":  ":9090",
		":7070": ":7070",
		" 81 ":  ":81",
	}
	for in, want := range cases {
		if got := normalizeAddr(in); got != want {
			t.Fatalf("normalizeAddr(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestModuleDependenciesRequireSecret(t *testing.T) {
	if _, err := moduleDependencies(config.Config{}, nil); err == nil {
		t.Fatal("expected missing JWT secret to fail")
	}
	deps, err := moduleDependencies(config.Config{
		JWTSecret:       "0123456789abcdef0123",
		ServiceName:     "univote",
		SessionTTL:      time.Hour,
		DefaultTimeZone: "UTC",
	}, nil)
	if err != nil {
		t.Fatalf("module dependencies: %v", err)
	}
	if deps.Tokens == nil || deps.Hasher == nil || deps.SessionTTL != time.Hour || deps.IdempotencyTTL != idempotencyTTL {
		t.Fatalf("unexpected dependencies: %+v", deps)
	}
}

func TestEventPipelineRelaysOutboxIntoTurnout(t *testing.T) {
	store := memory.NewStore()
	deps, err := moduleDependencies(config.Config{
		JWTSecret:       "0123456789abcdef0123",
		ServiceName:     "univote",
		DefaultTimeZone: "UTC",
	}, nil)
	if err != nil {
		t.Fatalf("module dependencies: %v", err)
	}
	bindMemoryStore(&deps, store)
	if deps.Votes == nil || deps.Clock == nil || deps.IDGen == nil {
		t.Fatalf("memory store not bound: %+v", deps)
	}
	pipeline := newEventPipeline(config.Config{OutboxPollInterval: 10 * time.Millisecond}, store, store, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- pipeline.run(ctx) }()

	admin := entities.Principal{ID: "admin-1", Role: entities.RoleAdmin}
	elections := commands.ElectionUseCase{Elections: store, Clock: store, IDGen: store}
	election, err := elections.CreateElection(ctx, admin, commands.ElectionCommand{
		Name:      "Guild",
		StartTime: "2025-03-01T08:00:00Z",
		EndTime:   "2025-03-01T18:00:00Z",
		Status:    "active",
	})
	if err != nil {
		t.Fatalf("create election: %v", err)
	}
	voter := entities.Voter{VoterID: "v1", FirstName: "A", LastName: "B", Email: "a@uni.test", UniversityID: "U1", Approved: true}
	if err := store.CreateVoter(ctx, voter); err != nil {
		t.Fatalf("create voter: %v", err)
	}
	candidate := entities.Candidate{CandidateID: "c1", VoterID: "v1", ElectionID: election.ElectionID, Post: "president", Bio: "b", Approved: true}
	if err := store.CreateCandidate(ctx, candidate, ports.EventEnvelope{}); err != nil {
		t.Fatalf("create candidate: %v", err)
	}
	ballots := commands.BallotUseCase{Votes: store, Elections: store, Candidates: store, Voters: store, Clock: store, IDGen: store}
	if _, err := ballots.CastVote(ctx, entities.Principal{ID: "v1", Role: entities.RoleVoter}, commands.CastVoteCommand{
		VoterID: "v1", CandidateID: "c1", ElectionID: election.ElectionID,
	}); err != nil {
		t.Fatalf("cast vote: %v", err)
	}

	deadline := time.Now().Add(3 * time.Second)
	for pipeline.turnout.Turnout(election.ElectionID) != 1 {
		if time.Now().After(deadline) {
			t.Fatal("turnout projection never saw the vote")
		}
		time.Sleep(10 * time.Millisecond)
	}
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("pipeline stopped with error: %v", err)
	}
}
