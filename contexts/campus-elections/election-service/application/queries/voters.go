package queries

import (
	"context"
	"strings"

	"univote/contexts/campus-elections/election-service/domain/entities"
	"univote/contexts/campus-elections/election-service/domain/services"
	"univote/contexts/campus-elections/election-service/ports"
)

type VoterQueries struct {
	Voters ports.VoterRepository
}

func (q VoterQueries) ListVoters(ctx context.Context, actor entities.Principal) ([]entities.Voter, error) {
	if err := services.RequireRole(actor, entities.RoleAdmin); err != nil {
		return nil, err
	}
	return q.Voters.ListVoters(ctx)
}

// GetVoter lets admins read any voter and voters read themselves.
func (q VoterQueries) GetVoter(ctx context.Context, actor entities.Principal, voterID string) (entities.Voter, error) {
	voterID = strings.TrimSpace(voterID)
	if !services.Authorize(actor, entities.RoleAdmin) {
		if err := services.RequireSelf(actor, voterID); err != nil {
			return entities.Voter{}, err
		}
	}
	return q.Voters.GetVoter(ctx, voterID)
}
