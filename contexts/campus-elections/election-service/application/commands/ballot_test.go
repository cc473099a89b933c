package commands_test

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	contractsv1 "univote/contracts/gen/events/v1"
	"univote/contexts/campus-elections/election-service/adapters/memory"
	"univote/contexts/campus-elections/election-service/application/commands"
	"univote/contexts/campus-elections/election-service/domain/entities"
	domainerrors "univote/contexts/campus-elections/election-service/domain/errors"
	"univote/contexts/campus-elections/election-service/ports"
)

func TestBallotLifecycleScenario(t *testing.T) {
	f := newFixture(false)
	ctx := context.Background()
	election := f.election(t, "Guild", entities.ElectionStatusUpcoming)
	runner := f.approvedVoter(t, "Ra", "U1000")
	rival := f.approvedVoter(t, "Sa", "U1001")
	backer := f.approvedVoter(t, "Ta", "U1002")

	chosen := f.candidate(t, runner, election.ElectionID, "president", false)
	f.candidate(t, rival, election.ElectionID, "president", false)

	if _, err := f.elections.SetElectionStatus(ctx, adminActor, election.ElectionID, "active"); err != nil {
		t.Fatalf("activate election: %v", err)
	}
	if _, err := f.candidacy.SetCandidateApproval(ctx, adminActor, chosen.CandidateID, true); err != nil {
		t.Fatalf("approve candidate: %v", err)
	}
	result, err := f.ballots.CastVote(ctx, voterActor(backer), commands.CastVoteCommand{
		VoterID:     backer.VoterID,
		CandidateID: chosen.CandidateID,
		ElectionID:  election.ElectionID,
	})
	if err != nil {
		t.Fatalf("cast vote: %v", err)
	}
	if result.Replayed || result.Vote.Post != "president" || !result.Vote.CastAt.Equal(f.now) {
		t.Fatalf("unexpected vote result: %+v", result)
	}

	tally, err := f.tallies.Tally(ctx, election.ElectionID)
	if err != nil {
		t.Fatalf("tally: %v", err)
	}
	if tally.TotalVotes != 1 || len(tally.Items) != 2 {
		t.Fatalf("unexpected tally: %+v", tally)
	}
	if tally.Items[0].Candidate.Candidate.CandidateID != chosen.CandidateID || tally.Items[0].Votes != 1 || tally.Items[0].Percentage != 100 {
		t.Fatalf("expected chosen candidate first with all votes, got %+v", tally.Items[0])
	}
	if tally.Items[1].Votes != 0 || tally.Items[1].Percentage != 0 {
		t.Fatalf("expected rival zero-filled, got %+v", tally.Items[1])
	}
	if got := countEvents(t, f.store, contractsv1.EventVoteCast); got != 1 {
		t.Fatalf("expected one vote event, got %d", got)
	}
}

func TestSecondVoteInSameElectionIsDuplicate(t *testing.T) {
	f := newFixture(false)
	ctx := context.Background()
	election := f.election(t, "Guild", entities.ElectionStatusActive)
	first := f.candidate(t, f.approvedVoter(t, "Ua", "U1100"), election.ElectionID, "president", true)
	second := f.candidate(t, f.approvedVoter(t, "Va", "U1101"), election.ElectionID, "treasurer", true)
	backer := f.approvedVoter(t, "Wa", "U1102")

	if _, err := f.ballots.CastVote(ctx, voterActor(backer), commands.CastVoteCommand{
		VoterID: backer.VoterID, CandidateID: first.CandidateID, ElectionID: election.ElectionID,
	}); err != nil {
		t.Fatalf("first vote: %v", err)
	}
	_, err := f.ballots.CastVote(ctx, voterActor(backer), commands.CastVoteCommand{
		VoterID: backer.VoterID, CandidateID: second.CandidateID, ElectionID: election.ElectionID,
	})
	if !errors.Is(err, domainerrors.ErrDuplicateVote) {
		t.Fatalf("expected duplicate vote across posts, got %v", err)
	}

	tally, err := f.tallies.Tally(ctx, election.ElectionID)
	if err != nil {
		t.Fatalf("tally: %v", err)
	}
	counts := map[string]int{}
	for _, item := range tally.Items {
		counts[item.Candidate.Candidate.CandidateID] = item.Votes
	}
	if tally.TotalVotes != 1 || counts[first.CandidateID] != 1 || counts[second.CandidateID] != 0 {
		t.Fatalf("expected only the first vote counted, got %+v", counts)
	}
	voted, err := f.tallies.HasVoted(ctx, backer.VoterID, election.ElectionID)
	if err != nil || !voted {
		t.Fatalf("expected has-voted true, got %v err=%v", voted, err)
	}
}

func TestCastVoteEligibility(t *testing.T) {
	f := newFixture(false)
	active := f.election(t, "Active", entities.ElectionStatusActive)
	upcoming := f.election(t, "Upcoming", entities.ElectionStatusUpcoming)
	completed := f.election(t, "Completed", entities.ElectionStatusCompleted)
	runner := f.approvedVoter(t, "Xa", "U1200")
	backer := f.approvedVoter(t, "Ya", "U1201")

	approvedActive := f.candidate(t, runner, active.ElectionID, "president", true)
	pendingActive := f.candidate(t, runner, active.ElectionID, "secretary", false)
	approvedUpcoming := f.candidate(t, runner, upcoming.ElectionID, "president", true)
	approvedCompleted := f.candidate(t, runner, completed.ElectionID, "president", true)

	cases := []struct {
		name       string
		actor      entities.Principal
		electionID string
		candidate  string
		want       error
		reason     string
	}{
		{name: "upcoming election", actor: voterActor(backer), electionID: upcoming.ElectionID, candidate: approvedUpcoming.CandidateID, want: domainerrors.ErrNotEligible, reason: "election is upcoming"},
		{name: "completed election", actor: voterActor(backer), electionID: completed.ElectionID, candidate: approvedCompleted.CandidateID, want: domainerrors.ErrNotEligible, reason: "election is completed"},
		{name: "inactive election with foreign candidate", actor: voterActor(backer), electionID: upcoming.ElectionID, candidate: approvedActive.CandidateID, want: domainerrors.ErrNotEligible, reason: "election is upcoming"},
		{name: "unapproved candidate", actor: voterActor(backer), electionID: active.ElectionID, candidate: pendingActive.CandidateID, want: domainerrors.ErrNotEligible, reason: "candidate is not approved"},
		{name: "candidate of another election", actor: voterActor(backer), electionID: active.ElectionID, candidate: approvedUpcoming.CandidateID, want: domainerrors.ErrNotEligible, reason: "candidate is not standing in this election"},
		{name: "unknown election", actor: voterActor(backer), electionID: "missing", candidate: approvedActive.CandidateID, want: domainerrors.ErrNotEligible, reason: "election not found"},
		{name: "unknown candidate", actor: voterActor(backer), electionID: active.ElectionID, candidate: "missing", want: domainerrors.ErrCandidateNotFound},
		{name: "admin cannot vote", actor: adminActor, electionID: active.ElectionID, candidate: approvedActive.CandidateID, want: domainerrors.ErrForbidden},
		{name: "voting as someone else", actor: voterActor(runner), electionID: active.ElectionID, candidate: approvedActive.CandidateID, want: domainerrors.ErrForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.ballots.CastVote(context.Background(), tc.actor, commands.CastVoteCommand{
				VoterID:     backer.VoterID,
				CandidateID: tc.candidate,
				ElectionID:  tc.electionID,
			})
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
			if tc.reason != "" && !strings.Contains(err.Error(), tc.reason) {
				t.Fatalf("expected reason %q, got %q", tc.reason, err.Error())
			}
		})
	}

	voted, err := f.tallies.HasVoted(context.Background(), backer.VoterID, active.ElectionID)
	if err != nil || voted {
		t.Fatalf("expected no vote stored after rejections, voted=%v err=%v", voted, err)
	}
}

func TestCastVoteRejectsDeletedVoter(t *testing.T) {
	f := newFixture(false)
	ctx := context.Background()
	election := f.election(t, "Guild", entities.ElectionStatusActive)
	chosen := f.candidate(t, f.approvedVoter(t, "Fa", "U1600"), election.ElectionID, "president", true)
	backer := f.approvedVoter(t, "Ga", "U1601")

	if err := f.voters.DeleteVoter(ctx, adminActor, backer.VoterID); err != nil {
		t.Fatalf("delete voter: %v", err)
	}
	_, err := f.ballots.CastVote(ctx, voterActor(backer), commands.CastVoteCommand{
		VoterID: backer.VoterID, CandidateID: chosen.CandidateID, ElectionID: election.ElectionID,
	})
	if !errors.Is(err, domainerrors.ErrVoterNotFound) {
		t.Fatalf("expected voter not found, got %v", err)
	}
	if got := countEvents(t, f.store, contractsv1.EventVoteCast); got != 0 {
		t.Fatalf("expected no vote event, got %d", got)
	}
}

func TestCastVoteRequiresApprovedVoter(t *testing.T) {
	f := newFixture(false)
	ctx := context.Background()
	election := f.election(t, "Guild", entities.ElectionStatusActive)
	chosen := f.candidate(t, f.approvedVoter(t, "Ha", "U1700"), election.ElectionID, "president", true)

	registered, err := f.voters.RegisterVoter(ctx, commands.VoterInput{
		FirstName: "Ia", LastName: "Tester", Email: "ia@uni.test", UniversityID: "U1701", Password: "pw",
	})
	if err != nil {
		t.Fatalf("register voter: %v", err)
	}
	revoked := f.approvedVoter(t, "Ja", "U1702")
	if _, err := f.voters.SetVoterApproval(ctx, adminActor, revoked.VoterID, false); err != nil {
		t.Fatalf("revoke approval: %v", err)
	}

	for _, voter := range []entities.Voter{registered, revoked} {
		_, err := f.ballots.CastVote(ctx, voterActor(voter), commands.CastVoteCommand{
			VoterID: voter.VoterID, CandidateID: chosen.CandidateID, ElectionID: election.ElectionID,
		})
		if !errors.Is(err, domainerrors.ErrPendingApproval) {
			t.Fatalf("expected pending approval for %s, got %v", voter.FirstName, err)
		}
	}
	tally, err := f.tallies.Tally(ctx, election.ElectionID)
	if err != nil || tally.TotalVotes != 0 {
		t.Fatalf("expected empty tally, got %+v err=%v", tally, err)
	}
}

// brokenEventStore drops the timestamp from the first vote event it stores,
// which the store refuses, so the whole vote write must fail.
type brokenEventStore struct {
	*memory.Store
	failures int
}

func (s *brokenEventStore) CreateVote(
	ctx context.Context,
	vote entities.Vote,
	idempotency *ports.IdempotencyRecord,
	event ports.EventEnvelope,
) error {
	if s.failures > 0 {
		s.failures--
		event.OccurredAt = time.Time{}
	}
	return s.Store.CreateVote(ctx, vote, idempotency, event)
}

func TestCastVoteOutboxFailureStoresNothing(t *testing.T) {
	f := newFixture(false)
	ctx := context.Background()
	election := f.election(t, "Guild", entities.ElectionStatusActive)
	chosen := f.candidate(t, f.approvedVoter(t, "Ka", "U1800"), election.ElectionID, "president", true)
	backer := f.approvedVoter(t, "La", "U1801")

	votes := &brokenEventStore{Store: f.store, failures: 1}
	ballots := f.ballots
	ballots.Votes = votes
	cmd := commands.CastVoteCommand{
		VoterID:        backer.VoterID,
		CandidateID:    chosen.CandidateID,
		ElectionID:     election.ElectionID,
		IdempotencyKey: "ballot-outbox",
	}

	if _, err := ballots.CastVote(ctx, voterActor(backer), cmd); err == nil {
		t.Fatal("expected the vote write to fail with its event")
	}
	voted, err := f.tallies.HasVoted(ctx, backer.VoterID, election.ElectionID)
	if err != nil || voted {
		t.Fatalf("expected no vote after failed write, voted=%v err=%v", voted, err)
	}
	if _, found, _ := f.store.Get(ctx, cmd.IdempotencyKey, f.now); found {
		t.Fatal("expected no idempotency record after failed write")
	}

	result, err := ballots.CastVote(ctx, voterActor(backer), cmd)
	if err != nil {
		t.Fatalf("retry: %v", err)
	}
	if result.Replayed {
		t.Fatalf("expected a fresh vote on retry, got %+v", result)
	}
	if got := countEvents(t, f.store, contractsv1.EventVoteCast); got != 1 {
		t.Fatalf("expected exactly one vote event, got %d", got)
	}
}

func TestCastVoteIdempotencyKey(t *testing.T) {
	f := newFixture(false)
	ctx := context.Background()
	election := f.election(t, "Guild", entities.ElectionStatusActive)
	first := f.candidate(t, f.approvedVoter(t, "Za", "U1300"), election.ElectionID, "president", true)
	second := f.candidate(t, f.approvedVoter(t, "Ab", "U1301"), election.ElectionID, "president", true)
	backer := f.approvedVoter(t, "Bb", "U1302")

	cmd := commands.CastVoteCommand{
		VoterID:        backer.VoterID,
		CandidateID:    first.CandidateID,
		ElectionID:     election.ElectionID,
		IdempotencyKey: "ballot-1",
	}
	original, err := f.ballots.CastVote(ctx, voterActor(backer), cmd)
	if err != nil {
		t.Fatalf("cast vote: %v", err)
	}
	replay, err := f.ballots.CastVote(ctx, voterActor(backer), cmd)
	if err != nil {
		t.Fatalf("replay vote: %v", err)
	}
	if !replay.Replayed || replay.Vote.VoteID != original.Vote.VoteID {
		t.Fatalf("expected replay of %s, got %+v", original.Vote.VoteID, replay)
	}

	changed := cmd
	changed.CandidateID = second.CandidateID
	if _, err := f.ballots.CastVote(ctx, voterActor(backer), changed); !errors.Is(err, domainerrors.ErrIdempotencyConflict) {
		t.Fatalf("expected idempotency conflict, got %v", err)
	}
	if got := countEvents(t, f.store, contractsv1.EventVoteCast); got != 1 {
		t.Fatalf("expected replay to emit no event, got %d vote events", got)
	}
}

func TestTallyPercentagesSumToHundred(t *testing.T) {
	f := newFixture(false)
	ctx := context.Background()
	election := f.election(t, "Guild", entities.ElectionStatusActive)
	a := f.candidate(t, f.approvedVoter(t, "Cc", "U1400"), election.ElectionID, "president", true)
	b := f.candidate(t, f.approvedVoter(t, "Dd", "U1401"), election.ElectionID, "president", true)
	f.candidate(t, f.approvedVoter(t, "Ee", "U1402"), election.ElectionID, "president", true)

	empty, err := f.tallies.Tally(ctx, election.ElectionID)
	if err != nil {
		t.Fatalf("empty tally: %v", err)
	}
	for _, item := range empty.Items {
		if item.Votes != 0 || item.Percentage != 0 || math.IsNaN(item.Percentage) {
			t.Fatalf("expected zeroed item without votes, got %+v", item)
		}
	}

	picks := []entities.Candidate{a, a, b}
	for i, pick := range picks {
		backer := f.approvedVoter(t, "Voter"+string(rune('A'+i)), "U15"+string(rune('0'+i)))
		if _, err := f.ballots.CastVote(ctx, voterActor(backer), commands.CastVoteCommand{
			VoterID: backer.VoterID, CandidateID: pick.CandidateID, ElectionID: election.ElectionID,
		}); err != nil {
			t.Fatalf("cast vote %d: %v", i, err)
		}
	}
	tally, err := f.tallies.Tally(ctx, election.ElectionID)
	if err != nil {
		t.Fatalf("tally: %v", err)
	}
	sum := 0.0
	for _, item := range tally.Items {
		sum += item.Percentage
	}
	if math.Abs(sum-100) > 1e-9 {
		t.Fatalf("expected percentages to sum to 100, got %f", sum)
	}
	if tally.Items[0].Candidate.Candidate.CandidateID != a.CandidateID || tally.Items[0].Votes != 2 {
		t.Fatalf("expected leader first, got %+v", tally.Items[0])
	}
	if _, err := f.tallies.Tally(ctx, "missing"); !errors.Is(err, domainerrors.ErrElectionNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
