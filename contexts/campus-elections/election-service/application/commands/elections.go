package commands

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	contractsv1 "univote/contracts/gen/events/v1"
	application "univote/contexts/campus-elections/election-service/application"
	"univote/contexts/campus-elections/election-service/domain/entities"
	domainerrors "univote/contexts/campus-elections/election-service/domain/errors"
	"univote/contexts/campus-elections/election-service/domain/services"
	"univote/contexts/campus-elections/election-service/domain/valueobjects"
	"univote/contexts/campus-elections/election-service/ports"
)

// ElectionCommand is shared by create and update. StartTime and EndTime are
// RFC 3339 strings or local date-times interpreted in TimeZone.
type ElectionCommand struct {
	Name        string
	Description string
	StartTime   string
	EndTime     string
	TimeZone    string
	Status      string
}

// ElectionUseCase owns the election lifecycle. Status changes are explicit
// admin actions; StrictTransitions limits them to upcoming -> active ->
// completed.
type ElectionUseCase struct {
	Elections         ports.ElectionRepository
	Clock             ports.Clock
	IDGen             ports.IDGenerator
	StrictTransitions bool
	DefaultLocation   *time.Location
	Logger            *slog.Logger
}

func (uc ElectionUseCase) CreateElection(
	ctx context.Context,
	actor entities.Principal,
	cmd ElectionCommand,
) (entities.Election, error) {
	logger := application.ResolveLogger(uc.Logger)
	if err := services.RequireRole(actor, entities.RoleAdmin); err != nil {
		return entities.Election{}, err
	}
	draft, err := uc.validate(cmd)
	if err != nil {
		logger.Warn("election create validation failed",
			"event", "election_create_validation_failed",
			"module", "campus-elections/election-service",
			"layer", "application",
			"actor_id", actor.ID,
			"error", err.Error(),
		)
		return entities.Election{}, err
	}

	electionID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return entities.Election{}, err
	}
	now := resolveNow(uc.Clock)
	draft.ElectionID = electionID
	draft.CreatedAt = now
	draft.UpdatedAt = now
	event, err := uc.electionEvent(ctx, contractsv1.EventElectionCreated, draft, now, map[string]any{
		"created_by": actor.ID,
	})
	if err != nil {
		return entities.Election{}, err
	}
	if err := uc.Elections.CreateElection(ctx, draft, event); err != nil {
		return entities.Election{}, err
	}
	logger.Info("election created",
		"event", "election_created",
		"module", "campus-elections/election-service",
		"layer", "application",
		"election_id", draft.ElectionID,
		"status", string(draft.Status),
		"actor_id", actor.ID,
	)
	return draft, nil
}

// UpdateElection replaces the editable fields. An empty Status keeps the
// current one; a non-empty Status goes through the same transition rules as
// SetElectionStatus.
func (uc ElectionUseCase) UpdateElection(
	ctx context.Context,
	actor entities.Principal,
	electionID string,
	cmd ElectionCommand,
) (entities.Election, error) {
	logger := application.ResolveLogger(uc.Logger)
	if err := services.RequireRole(actor, entities.RoleAdmin); err != nil {
		return entities.Election{}, err
	}
	current, err := uc.Elections.GetElection(ctx, strings.TrimSpace(electionID))
	if err != nil {
		return entities.Election{}, err
	}
	draft, err := uc.validate(cmd)
	if err != nil {
		return entities.Election{}, err
	}
	if strings.TrimSpace(cmd.Status) == "" {
		draft.Status = current.Status
	} else if err := uc.checkTransition(current.Status, draft.Status); err != nil {
		return entities.Election{}, err
	}

	now := resolveNow(uc.Clock)
	current.Name = draft.Name
	current.Description = draft.Description
	current.StartTime = draft.StartTime
	current.EndTime = draft.EndTime
	current.Status = draft.Status
	current.UpdatedAt = now
	event, err := uc.electionEvent(ctx, contractsv1.EventElectionUpdated, current, now, map[string]any{
		"updated_by": actor.ID,
	})
	if err != nil {
		return entities.Election{}, err
	}
	if err := uc.Elections.UpdateElection(ctx, current, event); err != nil {
		return entities.Election{}, err
	}
	logger.Info("election updated",
		"event", "election_updated",
		"module", "campus-elections/election-service",
		"layer", "application",
		"election_id", current.ElectionID,
		"actor_id", actor.ID,
	)
	return current, nil
}

// SetElectionStatus lower-cases and validates the requested status. In the
// default permissive mode any known status may be set at any time.
func (uc ElectionUseCase) SetElectionStatus(
	ctx context.Context,
	actor entities.Principal,
	electionID string,
	rawStatus string,
) (entities.Election, error) {
	logger := application.ResolveLogger(uc.Logger)
	if err := services.RequireRole(actor, entities.RoleAdmin); err != nil {
		return entities.Election{}, err
	}
	status, ok := entities.ParseElectionStatus(rawStatus)
	if !ok {
		logger.Warn("election status validation failed",
			"event", "election_status_validation_failed",
			"module", "campus-elections/election-service",
			"layer", "application",
			"election_id", strings.TrimSpace(electionID),
			"status", string(status),
		)
		return entities.Election{}, domainerrors.ErrValidation
	}

	election, err := uc.Elections.GetElection(ctx, strings.TrimSpace(electionID))
	if err != nil {
		return entities.Election{}, err
	}
	from := election.Status
	if err := uc.checkTransition(from, status); err != nil {
		logger.Warn("election status transition rejected",
			"event", "election_status_transition_rejected",
			"module", "campus-elections/election-service",
			"layer", "application",
			"election_id", election.ElectionID,
			"from_status", string(from),
			"to_status", string(status),
		)
		return entities.Election{}, err
	}
	if from == status {
		return election, nil
	}

	now := resolveNow(uc.Clock)
	election.Status = status
	election.UpdatedAt = now
	event, err := uc.electionEvent(ctx, contractsv1.EventElectionStatusChanged, election, now, map[string]any{
		"from_status": string(from),
		"to_status":   string(status),
		"changed_by":  actor.ID,
	})
	if err != nil {
		return entities.Election{}, err
	}
	if err := uc.Elections.UpdateElection(ctx, election, event); err != nil {
		return entities.Election{}, err
	}
	logger.Info("election status changed",
		"event", "election_status_changed",
		"module", "campus-elections/election-service",
		"layer", "application",
		"election_id", election.ElectionID,
		"from_status", string(from),
		"to_status", string(status),
		"actor_id", actor.ID,
	)
	return election, nil
}

// DeleteElection cascades: the election's votes and candidates are removed
// and the election itself is soft-deleted, all in one store operation
// together with the election.deleted event.
func (uc ElectionUseCase) DeleteElection(ctx context.Context, actor entities.Principal, electionID string) error {
	logger := application.ResolveLogger(uc.Logger)
	if err := services.RequireRole(actor, entities.RoleAdmin); err != nil {
		return err
	}
	election, err := uc.Elections.GetElection(ctx, strings.TrimSpace(electionID))
	if err != nil {
		return err
	}
	now := resolveNow(uc.Clock)
	deleted := election
	deleted.Deleted = true
	event, err := uc.electionEvent(ctx, contractsv1.EventElectionDeleted, deleted, now, map[string]any{
		"deleted_by": actor.ID,
	})
	if err != nil {
		return err
	}
	if err := uc.Elections.DeleteElectionCascade(ctx, election.ElectionID, now, event); err != nil {
		logger.Error("election delete failed",
			"event", "election_delete_failed",
			"module", "campus-elections/election-service",
			"layer", "application",
			"election_id", election.ElectionID,
			"error", err.Error(),
		)
		return err
	}
	logger.Info("election deleted",
		"event", "election_deleted",
		"module", "campus-elections/election-service",
		"layer", "application",
		"election_id", election.ElectionID,
		"actor_id", actor.ID,
	)
	return nil
}

func (uc ElectionUseCase) validate(cmd ElectionCommand) (entities.Election, error) {
	name := strings.TrimSpace(cmd.Name)
	if name == "" {
		return entities.Election{}, fmt.Errorf("%w: name is required", domainerrors.ErrValidation)
	}
	start, err := valueobjects.ParseTimestamp(cmd.StartTime, cmd.TimeZone, uc.DefaultLocation)
	if err != nil {
		return entities.Election{}, fmt.Errorf("%w: start time: %v", domainerrors.ErrValidation, err)
	}
	end, err := valueobjects.ParseTimestamp(cmd.EndTime, cmd.TimeZone, uc.DefaultLocation)
	if err != nil {
		return entities.Election{}, fmt.Errorf("%w: end time: %v", domainerrors.ErrValidation, err)
	}
	if !end.After(start) {
		return entities.Election{}, fmt.Errorf("%w: end time must be after start time", domainerrors.ErrValidation)
	}

	status := entities.ElectionStatusUpcoming
	if strings.TrimSpace(cmd.Status) != "" {
		parsed, ok := entities.ParseElectionStatus(cmd.Status)
		if !ok {
			return entities.Election{}, fmt.Errorf("%w: unknown status %q", domainerrors.ErrValidation, parsed)
		}
		status = parsed
	}
	return entities.Election{
		Name:        name,
		Description: strings.TrimSpace(cmd.Description),
		StartTime:   start,
		EndTime:     end,
		Status:      status,
	}, nil
}

func (uc ElectionUseCase) checkTransition(from entities.ElectionStatus, to entities.ElectionStatus) error {
	if !uc.StrictTransitions {
		return nil
	}
	if !from.CanAdvanceTo(to) {
		return domainerrors.ErrInvalidTransition
	}
	return nil
}

func (uc ElectionUseCase) electionEvent(
	ctx context.Context,
	eventType string,
	election entities.Election,
	occurredAt time.Time,
	metadata map[string]any,
) (ports.EventEnvelope, error) {
	data := map[string]any{
		"election_id": election.ElectionID,
		"name":        election.Name,
		"status":      string(election.Status),
		"start_time":  election.StartTime.UTC().Format(time.RFC3339),
		"end_time":    election.EndTime.UTC().Format(time.RFC3339),
		"deleted":     election.Deleted,
	}
	for key, value := range metadata {
		data[key] = value
	}
	return newEnvelope(ctx, uc.IDGen, eventType, election.ElectionID, occurredAt, data)
}
