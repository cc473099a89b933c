package commands

import (
	"context"
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

type ApplyCommand struct {
	VoterID    string
	ElectionID string
	Post       string
	Bio        string
}

// CandidacyUseCase accepts applications from voters and lets admins approve
// or remove candidates.
type CandidacyUseCase struct {
	Candidates ports.CandidateRepository
	Elections  ports.ElectionRepository
	Voters     ports.VoterRepository
	Clock      ports.Clock
	IDGen      ports.IDGenerator
	Logger     *slog.Logger
}

// Apply records a pending application from an approved voter. Applications
// are accepted in any election status; a second application for the same
// post is rejected.
func (uc CandidacyUseCase) Apply(
	ctx context.Context,
	actor entities.Principal,
	cmd ApplyCommand,
) (entities.CandidateListing, error) {
	logger := application.ResolveLogger(uc.Logger)
	cmd = ApplyCommand{
		VoterID:    strings.TrimSpace(cmd.VoterID),
		ElectionID: strings.TrimSpace(cmd.ElectionID),
		Post:       strings.TrimSpace(cmd.Post),
		Bio:        strings.TrimSpace(cmd.Bio),
	}
	if err := services.RequireSelf(actor, cmd.VoterID); err != nil {
		return entities.CandidateListing{}, err
	}
	if cmd.ElectionID == "" || cmd.Post == "" || cmd.Bio == "" {
		logger.Warn("candidate application validation failed",
			"event", "election_candidate_apply_validation_failed",
			"module", "campus-elections/election-service",
			"layer", "application",
			"voter_id", cmd.VoterID,
			"election_id", cmd.ElectionID,
		)
		return entities.CandidateListing{}, domainerrors.ErrValidation
	}

	if _, err := uc.Elections.GetElection(ctx, cmd.ElectionID); err != nil {
		if errors.Is(err, domainerrors.ErrElectionNotFound) {
			return entities.CandidateListing{}, fmt.Errorf("%w: %w", domainerrors.ErrValidation, err)
		}
		return entities.CandidateListing{}, err
	}
	voter, err := uc.Voters.GetVoter(ctx, cmd.VoterID)
	if err != nil {
		return entities.CandidateListing{}, err
	}
	if !voter.Approved {
		logger.Warn("candidate application from unapproved voter",
			"event", "election_candidate_apply_pending_approval",
			"module", "campus-elections/election-service",
			"layer", "application",
			"voter_id", cmd.VoterID,
		)
		return entities.CandidateListing{}, fmt.Errorf("%w: voter %s cannot apply yet", domainerrors.ErrPendingApproval, voter.VoterID)
	}

	candidateID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return entities.CandidateListing{}, err
	}
	now := resolveNow(uc.Clock)
	candidate := entities.Candidate{
		CandidateID:  candidateID,
		VoterID:      voter.VoterID,
		ElectionID:   cmd.ElectionID,
		Post:         cmd.Post,
		Bio:          cmd.Bio,
		Approved:     false,
		RegisteredAt: now,
		UpdatedAt:    now,
	}
	event, err := uc.candidateEvent(ctx, contractsv1.EventCandidateApplied, candidate, now, nil)
	if err != nil {
		return entities.CandidateListing{}, err
	}
	if err := uc.Candidates.CreateCandidate(ctx, candidate, event); err != nil {
		logger.Warn("candidate application rejected",
			"event", "election_candidate_apply_rejected",
			"module", "campus-elections/election-service",
			"layer", "application",
			"voter_id", cmd.VoterID,
			"election_id", cmd.ElectionID,
			"post", cmd.Post,
			"error", err.Error(),
		)
		return entities.CandidateListing{}, err
	}
	logger.Info("candidate applied",
		"event", "election_candidate_applied",
		"module", "campus-elections/election-service",
		"layer", "application",
		"candidate_id", candidate.CandidateID,
		"voter_id", candidate.VoterID,
		"election_id", candidate.ElectionID,
		"post", candidate.Post,
	)
	return entities.CandidateListing{Candidate: candidate, Voter: voter.Summary()}, nil
}

// SetCandidateApproval is idempotent; re-applying the current flag writes
// nothing and emits no event.
func (uc CandidacyUseCase) SetCandidateApproval(
	ctx context.Context,
	actor entities.Principal,
	candidateID string,
	approved bool,
) (entities.Candidate, error) {
	logger := application.ResolveLogger(uc.Logger)
	if err := services.RequireRole(actor, entities.RoleAdmin); err != nil {
		return entities.Candidate{}, err
	}
	candidate, err := uc.Candidates.GetCandidate(ctx, strings.TrimSpace(candidateID))
	if err != nil {
		return entities.Candidate{}, err
	}
	if candidate.Approved == approved {
		return candidate, nil
	}

	now := resolveNow(uc.Clock)
	candidate.Approved = approved
	candidate.UpdatedAt = now
	event, err := uc.candidateEvent(ctx, contractsv1.EventCandidateApprovalChanged, candidate, now, map[string]any{
		"changed_by": actor.ID,
	})
	if err != nil {
		return entities.Candidate{}, err
	}
	if err := uc.Candidates.UpdateCandidate(ctx, candidate, event); err != nil {
		return entities.Candidate{}, err
	}
	logger.Info("candidate approval changed",
		"event", "election_candidate_approval_changed",
		"module", "campus-elections/election-service",
		"layer", "application",
		"candidate_id", candidate.CandidateID,
		"approved", approved,
		"actor_id", actor.ID,
	)
	return candidate, nil
}

// DeleteCandidate removes the candidate together with every vote cast for it.
func (uc CandidacyUseCase) DeleteCandidate(ctx context.Context, actor entities.Principal, candidateID string) error {
	logger := application.ResolveLogger(uc.Logger)
	if err := services.RequireRole(actor, entities.RoleAdmin); err != nil {
		return err
	}
	candidate, err := uc.Candidates.GetCandidate(ctx, strings.TrimSpace(candidateID))
	if err != nil {
		return err
	}
	event, err := uc.candidateEvent(ctx, contractsv1.EventCandidateDeleted, candidate, resolveNow(uc.Clock), map[string]any{
		"deleted_by": actor.ID,
	})
	if err != nil {
		return err
	}
	if err := uc.Candidates.DeleteCandidateCascade(ctx, candidate.CandidateID, event); err != nil {
		return err
	}
	logger.Info("candidate deleted",
		"event", "election_candidate_deleted",
		"module", "campus-elections/election-service",
		"layer", "application",
		"candidate_id", candidate.CandidateID,
		"election_id", candidate.ElectionID,
		"actor_id", actor.ID,
	)
	return nil
}

func (uc CandidacyUseCase) candidateEvent(
	ctx context.Context,
	eventType string,
	candidate entities.Candidate,
	occurredAt time.Time,
	metadata map[string]any,
) (ports.EventEnvelope, error) {
	data := map[string]any{
		"candidate_id": candidate.CandidateID,
		"voter_id":     candidate.VoterID,
		"election_id":  candidate.ElectionID,
		"post":         candidate.Post,
		"approved":     candidate.Approved,
	}
	for key, value := range metadata {
		data[key] = value
	}
	return newEnvelope(ctx, uc.IDGen, eventType, candidate.ElectionID, occurredAt, data)
}
