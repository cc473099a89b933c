package commands

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	contractsv1 "univote/contracts/gen/events/v1"
	application "univote/contexts/campus-elections/election-service/application"
	"univote/contexts/campus-elections/election-service/domain/entities"
	domainerrors "univote/contexts/campus-elections/election-service/domain/errors"
	"univote/contexts/campus-elections/election-service/domain/services"
	"univote/contexts/campus-elections/election-service/ports"
)

type CastVoteCommand struct {
	VoterID        string
	CandidateID    string
	ElectionID     string
	IdempotencyKey string
}

// CastVoteResult reports the stored vote and whether it was replayed from an
// earlier request carrying the same idempotency key.
type CastVoteResult struct {
	Vote     entities.Vote
	Replayed bool
}

// BallotUseCase accepts ballots. The one-vote-per-voter-per-election rule and
// the final eligibility check are enforced by VoteRepository.CreateVote, not
// by the reads before the write.
type BallotUseCase struct {
	Votes          ports.VoteRepository
	Elections      ports.ElectionRepository
	Candidates     ports.CandidateRepository
	Voters         ports.VoterRepository
	Idempotency    ports.IdempotencyStore
	Clock          ports.Clock
	IDGen          ports.IDGenerator
	IdempotencyTTL time.Duration
	Logger         *slog.Logger
}

func (uc BallotUseCase) CastVote(
	ctx context.Context,
	actor entities.Principal,
	cmd CastVoteCommand,
) (CastVoteResult, error) {
	logger := application.ResolveLogger(uc.Logger)
	cmd = CastVoteCommand{
		VoterID:        strings.TrimSpace(cmd.VoterID),
		CandidateID:    strings.TrimSpace(cmd.CandidateID),
		ElectionID:     strings.TrimSpace(cmd.ElectionID),
		IdempotencyKey: strings.TrimSpace(cmd.IdempotencyKey),
	}
	logger.Info("vote cast processing started",
		"event", "election_vote_cast_started",
		"module", "campus-elections/election-service",
		"layer", "application",
		"voter_id", cmd.VoterID,
		"election_id", cmd.ElectionID,
		"candidate_id", cmd.CandidateID,
	)
	if cmd.VoterID == "" || cmd.CandidateID == "" || cmd.ElectionID == "" {
		return CastVoteResult{}, domainerrors.ErrValidation
	}
	if err := services.RequireSelf(actor, cmd.VoterID); err != nil {
		logger.Warn("vote cast actor rejected",
			"event", "election_vote_cast_forbidden",
			"module", "campus-elections/election-service",
			"layer", "application",
			"voter_id", cmd.VoterID,
			"actor_id", actor.ID,
		)
		return CastVoteResult{}, err
	}

	now := resolveNow(uc.Clock)
	requestHash := hashCastVoteCommand(cmd)
	if replayed, ok, err := uc.replay(ctx, cmd, requestHash, now); err != nil || ok {
		return replayed, err
	}

	candidate, err := uc.checkEligibility(ctx, cmd)
	if err != nil {
		logger.Warn("vote cast not eligible",
			"event", "election_vote_cast_not_eligible",
			"module", "campus-elections/election-service",
			"layer", "application",
			"voter_id", cmd.VoterID,
			"election_id", cmd.ElectionID,
			"candidate_id", cmd.CandidateID,
			"error", err.Error(),
		)
		return CastVoteResult{}, err
	}

	voteID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return CastVoteResult{}, err
	}
	vote := entities.Vote{
		VoteID:      voteID,
		VoterID:     cmd.VoterID,
		CandidateID: candidate.CandidateID,
		ElectionID:  cmd.ElectionID,
		Post:        candidate.Post,
		CastAt:      now,
	}
	event, err := newEnvelope(ctx, uc.IDGen, contractsv1.EventVoteCast, vote.ElectionID, now, map[string]any{
		"vote_id":      vote.VoteID,
		"voter_id":     vote.VoterID,
		"candidate_id": vote.CandidateID,
		"election_id":  vote.ElectionID,
		"post":         vote.Post,
	})
	if err != nil {
		return CastVoteResult{}, err
	}
	var record *ports.IdempotencyRecord
	if cmd.IdempotencyKey != "" && uc.Idempotency != nil {
		record = &ports.IdempotencyRecord{
			Key:         cmd.IdempotencyKey,
			RequestHash: requestHash,
			VoteID:      vote.VoteID,
			ExpiresAt:   now.Add(uc.resolveIdempotencyTTL()),
		}
	}
	if err := uc.Votes.CreateVote(ctx, vote, record, event); err != nil {
		if errors.Is(err, domainerrors.ErrDuplicateVote) {
			// A concurrent request with the same key may have won the race.
			if replayed, ok, replayErr := uc.replay(ctx, cmd, requestHash, now); replayErr == nil && ok {
				return replayed, nil
			}
			logger.Warn("vote cast duplicate rejected",
				"event", "election_vote_cast_duplicate",
				"module", "campus-elections/election-service",
				"layer", "application",
				"voter_id", cmd.VoterID,
				"election_id", cmd.ElectionID,
			)
		}
		return CastVoteResult{}, err
	}

	logger.Info("vote cast",
		"event", "election_vote_cast",
		"module", "campus-elections/election-service",
		"layer", "application",
		"vote_id", vote.VoteID,
		"voter_id", vote.VoterID,
		"election_id", vote.ElectionID,
		"candidate_id", vote.CandidateID,
	)
	return CastVoteResult{Vote: vote}, nil
}

// replay returns the vote stored under cmd's idempotency key, if any. A key
// reused for a different ballot fails with ErrIdempotencyConflict.
func (uc BallotUseCase) replay(
	ctx context.Context,
	cmd CastVoteCommand,
	requestHash string,
	now time.Time,
) (CastVoteResult, bool, error) {
	if cmd.IdempotencyKey == "" || uc.Idempotency == nil {
		return CastVoteResult{}, false, nil
	}
	logger := application.ResolveLogger(uc.Logger)
	record, found, err := uc.Idempotency.Get(ctx, cmd.IdempotencyKey, now)
	if err != nil {
		logger.Error("vote cast idempotency lookup failed",
			"event", "election_vote_cast_idempotency_lookup_failed",
			"module", "campus-elections/election-service",
			"layer", "application",
			"voter_id", cmd.VoterID,
			"error", err.Error(),
		)
		return CastVoteResult{}, false, err
	}
	if !found {
		return CastVoteResult{}, false, nil
	}
	if record.RequestHash != requestHash {
		logger.Warn("vote cast idempotency conflict",
			"event", "election_vote_cast_idempotency_conflict",
			"module", "campus-elections/election-service",
			"layer", "application",
			"voter_id", cmd.VoterID,
		)
		return CastVoteResult{}, false, domainerrors.ErrIdempotencyConflict
	}
	vote, err := uc.Votes.GetVote(ctx, record.VoteID)
	if err != nil {
		return CastVoteResult{}, false, err
	}
	logger.Info("vote cast replayed",
		"event", "election_vote_cast_replayed",
		"module", "campus-elections/election-service",
		"layer", "application",
		"vote_id", vote.VoteID,
		"voter_id", vote.VoterID,
	)
	return CastVoteResult{Vote: vote, Replayed: true}, true, nil
}

// checkEligibility resolves the election, candidate and voter in that order
// and applies services.CheckBallot, so the caller gets a specific reason
// before any write is attempted.
func (uc BallotUseCase) checkEligibility(ctx context.Context, cmd CastVoteCommand) (entities.Candidate, error) {
	election, err := uc.Elections.GetElection(ctx, cmd.ElectionID)
	if err != nil {
		if errors.Is(err, domainerrors.ErrElectionNotFound) {
			return entities.Candidate{}, fmt.Errorf("%w: %w", domainerrors.ErrNotEligible, err)
		}
		return entities.Candidate{}, err
	}
	if err := services.CheckElectionOpen(election); err != nil {
		return entities.Candidate{}, err
	}
	candidate, err := uc.Candidates.GetCandidate(ctx, cmd.CandidateID)
	if err != nil {
		return entities.Candidate{}, err
	}
	voter, err := uc.Voters.GetVoter(ctx, cmd.VoterID)
	if err != nil {
		return entities.Candidate{}, err
	}
	if err := services.CheckBallot(election, candidate, voter); err != nil {
		return entities.Candidate{}, err
	}
	return candidate, nil
}

func (uc BallotUseCase) resolveIdempotencyTTL() time.Duration {
	if uc.IdempotencyTTL <= 0 {
		return 7 * 24 * time.Hour
	}
	return uc.IdempotencyTTL
}

func hashCastVoteCommand(cmd CastVoteCommand) string {
	payload := map[string]string{
		"voter_id":     cmd.VoterID,
		"candidate_id": cmd.CandidateID,
		"election_id":  cmd.ElectionID,
		"op":           "cast_vote",
	}
	raw, _ := json.Marshal(payload)
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}
