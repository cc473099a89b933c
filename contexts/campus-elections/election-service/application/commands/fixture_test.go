package commands_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"univote/contexts/campus-elections/election-service/adapters/memory"
	"univote/contexts/campus-elections/election-service/application/commands"
	"univote/contexts/campus-elections/election-service/application/queries"
	"univote/contexts/campus-elections/election-service/domain/entities"
	"univote/contexts/campus-elections/election-service/ports"
)

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time {
	return c.now
}

type prefixHasher struct{}

func (prefixHasher) Hash(plain string) (string, error) {
	return "hashed:" + plain, nil
}

func (prefixHasher) Compare(hash string, plain string) bool {
	return hash == "hashed:"+plain
}

// pipeTokens encodes the principal verbatim so tests can assert on it
// without a signing key.
type pipeTokens struct{}

func (pipeTokens) Issue(principal entities.Principal, _ time.Time) (string, error) {
	return string(principal.Role) + "|" + principal.ID + "|" + principal.DisplayName, nil
}

func (pipeTokens) Parse(token string) (entities.Principal, error) {
	parts := strings.SplitN(token, "|", 3)
	if len(parts) != 3 {
		return entities.Principal{}, errors.New("malformed token")
	}
	return entities.Principal{Role: entities.Role(parts[0]), ID: parts[1], DisplayName: parts[2]}, nil
}

var adminActor = entities.Principal{ID: "admin-1", Role: entities.RoleAdmin, DisplayName: "root"}

func voterActor(voter entities.Voter) entities.Principal {
	return entities.Principal{ID: voter.VoterID, Role: entities.RoleVoter, DisplayName: voter.FullName()}
}

type fixture struct {
	store     *memory.Store
	now       time.Time
	sessions  commands.SessionUseCase
	voters    commands.VoterUseCase
	admins    commands.AdminUseCase
	elections commands.ElectionUseCase
	candidacy commands.CandidacyUseCase
	ballots   commands.BallotUseCase
	tallies   queries.TallyUseCase
	listings  queries.CandidateQueries
}

func newFixture(strict bool) fixture {
	store := memory.NewStore()
	now := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	clock := fixedClock{now: now}
	return fixture{
		store: store,
		now:   now,
		sessions: commands.SessionUseCase{
			Voters: store,
			Admins: store,
			Hasher: prefixHasher{},
			Tokens: pipeTokens{},
			Clock:  clock,
		},
		voters: commands.VoterUseCase{
			Voters: store,
			Hasher: prefixHasher{},
			Clock:  clock,
			IDGen:  store,
		},
		admins: commands.AdminUseCase{
			Admins: store,
			Hasher: prefixHasher{},
			Clock:  clock,
			IDGen:  store,
		},
		elections: commands.ElectionUseCase{
			Elections:         store,
			Clock:             clock,
			IDGen:             store,
			StrictTransitions: strict,
		},
		candidacy: commands.CandidacyUseCase{
			Candidates: store,
			Elections:  store,
			Voters:     store,
			Clock:      clock,
			IDGen:      store,
		},
		ballots: commands.BallotUseCase{
			Votes:       store,
			Elections:   store,
			Candidates:  store,
			Voters:      store,
			Idempotency: store,
			Clock:       clock,
			IDGen:       store,
		},
		tallies: queries.TallyUseCase{
			Elections:  store,
			Candidates: store,
			Votes:      store,
		},
		listings: queries.CandidateQueries{
			Candidates: store,
			Elections:  store,
		},
	}
}

func (f fixture) approvedVoter(t *testing.T, first string, universityID string) entities.Voter {
	t.Helper()
	voter, err := f.voters.CreateVoter(context.Background(), adminActor, commands.VoterInput{
		FirstName:    first,
		LastName:     "Tester",
		Email:        strings.ToLower(first) + "@uni.test",
		UniversityID: universityID,
	})
	if err != nil {
		t.Fatalf("create voter %s: %v", first, err)
	}
	return voter
}

func (f fixture) election(t *testing.T, name string, status entities.ElectionStatus) entities.Election {
	t.Helper()
	election, err := f.elections.CreateElection(context.Background(), adminActor, commands.ElectionCommand{
		Name:      name,
		StartTime: "2025-03-01T08:00:00Z",
		EndTime:   "2025-03-01T18:00:00Z",
		Status:    string(status),
	})
	if err != nil {
		t.Fatalf("create election %s: %v", name, err)
	}
	return election
}

func (f fixture) candidate(t *testing.T, voter entities.Voter, electionID string, post string, approved bool) entities.Candidate {
	t.Helper()
	listing, err := f.candidacy.Apply(context.Background(), voterActor(voter), commands.ApplyCommand{
		VoterID:    voter.VoterID,
		ElectionID: electionID,
		Post:       post,
		Bio:        "manifesto",
	})
	if err != nil {
		t.Fatalf("apply %s for %s: %v", voter.FirstName, post, err)
	}
	if !approved {
		return listing.Candidate
	}
	candidate, err := f.candidacy.SetCandidateApproval(context.Background(), adminActor, listing.Candidate.CandidateID, true)
	if err != nil {
		t.Fatalf("approve candidate: %v", err)
	}
	return candidate
}

func countEvents(t *testing.T, outbox ports.OutboxRepository, eventType string) int {
	t.Helper()
	rows, err := outbox.ListPendingOutbox(context.Background(), 1000)
	if err != nil {
		t.Fatalf("list outbox: %v", err)
	}
	count := 0
	for _, row := range rows {
		if row.EventType == eventType {
			count++
		}
	}
	return count
}
