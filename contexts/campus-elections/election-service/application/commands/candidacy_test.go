package commands_test

import (
	"context"
	"errors"
	"testing"

	contractsv1 "univote/contracts/gen/events/v1"
	"univote/contexts/campus-elections/election-service/application/commands"
	"univote/contexts/campus-elections/election-service/domain/entities"
	domainerrors "univote/contexts/campus-elections/election-service/domain/errors"
)

func TestApplyCreatesPendingCandidateRegardlessOfStatus(t *testing.T) {
	f := newFixture(false)
	voter := f.approvedVoter(t, "La", "U900")
	for _, status := range []entities.ElectionStatus{
		entities.ElectionStatusUpcoming,
		entities.ElectionStatusActive,
		entities.ElectionStatusCompleted,
	} {
		election := f.election(t, "Guild "+string(status), status)
		listing, err := f.candidacy.Apply(context.Background(), voterActor(voter), commands.ApplyCommand{
			VoterID:    voter.VoterID,
			ElectionID: election.ElectionID,
			Post:       " president ",
			Bio:        "vote for me",
		})
		if err != nil {
			t.Fatalf("apply to %s election: %v", status, err)
		}
		if listing.Candidate.Approved || listing.Candidate.Post != "president" || !listing.Candidate.RegisteredAt.Equal(f.now) {
			t.Fatalf("unexpected candidate: %+v", listing.Candidate)
		}
		if listing.Voter.VoterID != voter.VoterID || listing.Voter.Email != voter.Email {
			t.Fatalf("unexpected voter summary: %+v", listing.Voter)
		}
	}
	if got := countEvents(t, f.store, contractsv1.EventCandidateApplied); got != 3 {
		t.Fatalf("expected three applied events, got %d", got)
	}
}

func TestApplyRejections(t *testing.T) {
	f := newFixture(false)
	voter := f.approvedVoter(t, "Mo", "U901")
	other := f.approvedVoter(t, "Nu", "U902")
	election := f.election(t, "Guild", entities.ElectionStatusUpcoming)
	f.candidate(t, voter, election.ElectionID, "president", false)

	cases := []struct {
		name  string
		actor entities.Principal
		cmd   commands.ApplyCommand
		want  error
	}{
		{
			name:  "applying for someone else",
			actor: voterActor(other),
			cmd:   commands.ApplyCommand{VoterID: voter.VoterID, ElectionID: election.ElectionID, Post: "treasurer", Bio: "b"},
			want:  domainerrors.ErrForbidden,
		},
		{
			name:  "admin cannot apply",
			actor: adminActor,
			cmd:   commands.ApplyCommand{VoterID: voter.VoterID, ElectionID: election.ElectionID, Post: "treasurer", Bio: "b"},
			want:  domainerrors.ErrForbidden,
		},
		{
			name:  "missing bio",
			actor: voterActor(voter),
			cmd:   commands.ApplyCommand{VoterID: voter.VoterID, ElectionID: election.ElectionID, Post: "treasurer"},
			want:  domainerrors.ErrValidation,
		},
		{
			name:  "unknown election",
			actor: voterActor(voter),
			cmd:   commands.ApplyCommand{VoterID: voter.VoterID, ElectionID: "missing", Post: "treasurer", Bio: "b"},
			want:  domainerrors.ErrValidation,
		},
		{
			name:  "duplicate post",
			actor: voterActor(voter),
			cmd:   commands.ApplyCommand{VoterID: voter.VoterID, ElectionID: election.ElectionID, Post: "president", Bio: "again"},
			want:  domainerrors.ErrDuplicateApplication,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := f.candidacy.Apply(context.Background(), tc.actor, tc.cmd); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}

	_, err := f.candidacy.Apply(context.Background(), voterActor(voter), commands.ApplyCommand{
		VoterID: voter.VoterID, ElectionID: "missing", Post: "treasurer", Bio: "b",
	})
	if !errors.Is(err, domainerrors.ErrElectionNotFound) {
		t.Fatalf("expected wrapped not-found cause, got %v", err)
	}
	f.candidate(t, voter, election.ElectionID, "treasurer", false)
}

func TestApplyRequiresApprovedVoter(t *testing.T) {
	f := newFixture(false)
	ctx := context.Background()
	election := f.election(t, "Guild", entities.ElectionStatusUpcoming)
	registered, err := f.voters.RegisterVoter(ctx, commands.VoterInput{
		FirstName: "Pe", LastName: "Tester", Email: "pe@uni.test", UniversityID: "U906", Password: "pw",
	})
	if err != nil {
		t.Fatalf("register voter: %v", err)
	}
	_, err = f.candidacy.Apply(ctx, voterActor(registered), commands.ApplyCommand{
		VoterID: registered.VoterID, ElectionID: election.ElectionID, Post: "president", Bio: "b",
	})
	if !errors.Is(err, domainerrors.ErrPendingApproval) {
		t.Fatalf("expected pending approval, got %v", err)
	}
	if got := countEvents(t, f.store, contractsv1.EventCandidateApplied); got != 0 {
		t.Fatalf("expected no applied event, got %d", got)
	}
}

func TestCandidateApprovalIsIdempotent(t *testing.T) {
	f := newFixture(false)
	voter := f.approvedVoter(t, "Ol", "U903")
	election := f.election(t, "Guild", entities.ElectionStatusUpcoming)
	candidate := f.candidate(t, voter, election.ElectionID, "president", false)

	var last entities.Candidate
	for i := 0; i < 2; i++ {
		approved, err := f.candidacy.SetCandidateApproval(context.Background(), adminActor, candidate.CandidateID, true)
		if err != nil {
			t.Fatalf("approve (attempt %d): %v", i+1, err)
		}
		if i > 0 && approved != last {
			t.Fatalf("expected identical state after second approval: %+v vs %+v", approved, last)
		}
		last = approved
	}
	if !last.Approved {
		t.Fatal("expected approved candidate")
	}
	if got := countEvents(t, f.store, contractsv1.EventCandidateApprovalChanged); got != 1 {
		t.Fatalf("expected a single approval event, got %d", got)
	}
	if _, err := f.candidacy.SetCandidateApproval(context.Background(), voterActor(voter), candidate.CandidateID, false); !errors.Is(err, domainerrors.ErrForbidden) {
		t.Fatalf("expected forbidden for voter, got %v", err)
	}
	if _, err := f.candidacy.SetCandidateApproval(context.Background(), adminActor, "missing", true); !errors.Is(err, domainerrors.ErrCandidateNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestDeleteCandidateCascadesVotes(t *testing.T) {
	f := newFixture(false)
	election := f.election(t, "Guild", entities.ElectionStatusActive)
	runner := f.approvedVoter(t, "Pa", "U904")
	backer := f.approvedVoter(t, "Qu", "U905")
	candidate := f.candidate(t, runner, election.ElectionID, "president", true)
	if _, err := f.ballots.CastVote(context.Background(), voterActor(backer), commands.CastVoteCommand{
		VoterID: backer.VoterID, CandidateID: candidate.CandidateID, ElectionID: election.ElectionID,
	}); err != nil {
		t.Fatalf("cast vote: %v", err)
	}

	if err := f.candidacy.DeleteCandidate(context.Background(), adminActor, candidate.CandidateID); err != nil {
		t.Fatalf("delete candidate: %v", err)
	}
	if err := f.candidacy.DeleteCandidate(context.Background(), adminActor, candidate.CandidateID); !errors.Is(err, domainerrors.ErrCandidateNotFound) {
		t.Fatalf("expected not found on second delete, got %v", err)
	}
	tally, err := f.tallies.Tally(context.Background(), election.ElectionID)
	if err != nil {
		t.Fatalf("tally: %v", err)
	}
	if tally.TotalVotes != 0 || len(tally.Items) != 0 {
		t.Fatalf("expected empty tally after cascade, got %+v", tally)
	}
	if err := f.voters.DeleteVoter(context.Background(), adminActor, backer.VoterID); err != nil {
		t.Fatalf("expected backer deletable once their vote is gone: %v", err)
	}
}
