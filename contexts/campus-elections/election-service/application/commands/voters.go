package commands

import (
	"context"
	"log/slog"
	"strings"

	application "univote/contexts/campus-elections/election-service/application"
	"univote/contexts/campus-elections/election-service/domain/entities"
	domainerrors "univote/contexts/campus-elections/election-service/domain/errors"
	"univote/contexts/campus-elections/election-service/domain/services"
	"univote/contexts/campus-elections/election-service/ports"
)

// VoterInput carries registry fields. Password is optional; when empty on
// update the stored hash is kept.
type VoterInput struct {
	FirstName    string
	LastName     string
	Email        string
	UniversityID string
	Password     string
}

// VoterUseCase maintains the voter registry: self registration, admin
// creation and edits, approval, and deletion.
type VoterUseCase struct {
	Voters ports.VoterRepository
	Hasher ports.PasswordHasher
	Clock  ports.Clock
	IDGen  ports.IDGenerator
	Logger *slog.Logger
}

// RegisterVoter is the self-service path. The voter cannot log in until an
// admin approves the registration.
func (uc VoterUseCase) RegisterVoter(ctx context.Context, input VoterInput) (entities.Voter, error) {
	return uc.create(ctx, input, false)
}

// CreateVoter is the admin path; the voter is approved immediately.
func (uc VoterUseCase) CreateVoter(ctx context.Context, actor entities.Principal, input VoterInput) (entities.Voter, error) {
	if err := services.RequireRole(actor, entities.RoleAdmin); err != nil {
		return entities.Voter{}, err
	}
	return uc.create(ctx, input, true)
}

func (uc VoterUseCase) UpdateVoter(
	ctx context.Context,
	actor entities.Principal,
	voterID string,
	input VoterInput,
) (entities.Voter, error) {
	logger := application.ResolveLogger(uc.Logger)
	if err := services.RequireRole(actor, entities.RoleAdmin); err != nil {
		return entities.Voter{}, err
	}
	input = normalizeVoterInput(input)
	if err := validateVoterInput(input); err != nil {
		return entities.Voter{}, err
	}

	voter, err := uc.Voters.GetVoter(ctx, strings.TrimSpace(voterID))
	if err != nil {
		return entities.Voter{}, err
	}
	voter.FirstName = input.FirstName
	voter.LastName = input.LastName
	voter.Email = input.Email
	voter.UniversityID = input.UniversityID
	if input.Password != "" {
		hash, err := uc.Hasher.Hash(input.Password)
		if err != nil {
			return entities.Voter{}, err
		}
		voter.PasswordHash = hash
	}
	voter.UpdatedAt = resolveNow(uc.Clock)
	if err := uc.Voters.UpdateVoter(ctx, voter); err != nil {
		return entities.Voter{}, err
	}
	logger.Info("voter updated",
		"event", "election_voter_updated",
		"module", "campus-elections/election-service",
		"layer", "application",
		"voter_id", voter.VoterID,
		"actor_id", actor.ID,
	)
	return voter, nil
}

// SetVoterApproval is idempotent: re-applying the current flag is a no-op
// that still returns the voter.
func (uc VoterUseCase) SetVoterApproval(
	ctx context.Context,
	actor entities.Principal,
	voterID string,
	approved bool,
) (entities.Voter, error) {
	logger := application.ResolveLogger(uc.Logger)
	if err := services.RequireRole(actor, entities.RoleAdmin); err != nil {
		return entities.Voter{}, err
	}
	voter, err := uc.Voters.GetVoter(ctx, strings.TrimSpace(voterID))
	if err != nil {
		return entities.Voter{}, err
	}
	if voter.Approved == approved {
		return voter, nil
	}
	voter.Approved = approved
	voter.UpdatedAt = resolveNow(uc.Clock)
	if err := uc.Voters.UpdateVoter(ctx, voter); err != nil {
		return entities.Voter{}, err
	}
	logger.Info("voter approval changed",
		"event", "election_voter_approval_changed",
		"module", "campus-elections/election-service",
		"layer", "application",
		"voter_id", voter.VoterID,
		"approved", approved,
		"actor_id", actor.ID,
	)
	return voter, nil
}

// DeleteVoter refuses while candidates or votes still reference the voter.
func (uc VoterUseCase) DeleteVoter(ctx context.Context, actor entities.Principal, voterID string) error {
	logger := application.ResolveLogger(uc.Logger)
	if err := services.RequireRole(actor, entities.RoleAdmin); err != nil {
		return err
	}
	voterID = strings.TrimSpace(voterID)
	if err := uc.Voters.DeleteVoter(ctx, voterID); err != nil {
		logger.Warn("voter delete rejected",
			"event", "election_voter_delete_rejected",
			"module", "campus-elections/election-service",
			"layer", "application",
			"voter_id", voterID,
			"error", err.Error(),
		)
		return err
	}
	logger.Info("voter deleted",
		"event", "election_voter_deleted",
		"module", "campus-elections/election-service",
		"layer", "application",
		"voter_id", voterID,
		"actor_id", actor.ID,
	)
	return nil
}

func (uc VoterUseCase) create(ctx context.Context, input VoterInput, approved bool) (entities.Voter, error) {
	logger := application.ResolveLogger(uc.Logger)
	input = normalizeVoterInput(input)
	if err := validateVoterInput(input); err != nil {
		logger.Warn("voter registration validation failed",
			"event", "election_voter_create_validation_failed",
			"module", "campus-elections/election-service",
			"layer", "application",
			"university_id", input.UniversityID,
		)
		return entities.Voter{}, err
	}

	voterID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return entities.Voter{}, err
	}
	hash := ""
	if input.Password != "" {
		hash, err = uc.Hasher.Hash(input.Password)
		if err != nil {
			return entities.Voter{}, err
		}
	}
	now := resolveNow(uc.Clock)
	voter := entities.Voter{
		VoterID:      voterID,
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		Email:        input.Email,
		UniversityID: input.UniversityID,
		PasswordHash: hash,
		Approved:     approved,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := uc.Voters.CreateVoter(ctx, voter); err != nil {
		return entities.Voter{}, err
	}
	logger.Info("voter created",
		"event", "election_voter_created",
		"module", "campus-elections/election-service",
		"layer", "application",
		"voter_id", voter.VoterID,
		"approved", approved,
	)
	return voter, nil
}

func normalizeVoterInput(input VoterInput) VoterInput {
	return VoterInput{
		FirstName:    strings.TrimSpace(input.FirstName),
		LastName:     strings.TrimSpace(input.LastName),
		Email:        strings.ToLower(strings.TrimSpace(input.Email)),
		UniversityID: strings.TrimSpace(input.UniversityID),
		Password:     input.Password,
	}
}

func validateVoterInput(input VoterInput) error {
	if input.FirstName == "" ||
		input.LastName == "" ||
		input.UniversityID == "" ||
		!strings.Contains(input.Email, "@") {
		return domainerrors.ErrValidation
	}
	return nil
}
