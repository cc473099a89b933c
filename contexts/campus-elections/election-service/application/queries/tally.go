package queries

import (
	"context"
	"strings"

	"univote/contexts/campus-elections/election-service/domain/entities"
	domainerrors "univote/contexts/campus-elections/election-service/domain/errors"
	"univote/contexts/campus-elections/election-service/domain/services"
	"univote/contexts/campus-elections/election-service/ports"
)

// TallyUseCase aggregates committed votes. Results reflect every vote stored
// before the read; no stronger ordering is promised.
type TallyUseCase struct {
	Elections  ports.ElectionRepository
	Candidates ports.CandidateRepository
	Votes      ports.VoteRepository
}

func (uc TallyUseCase) Tally(ctx context.Context, electionID string) (entities.Tally, error) {
	electionID = strings.TrimSpace(electionID)
	if electionID == "" {
		return entities.Tally{}, domainerrors.ErrValidation
	}
	if _, err := uc.Elections.GetElection(ctx, electionID); err != nil {
		return entities.Tally{}, err
	}
	candidates, err := uc.Candidates.ListCandidatesByElection(ctx, electionID)
	if err != nil {
		return entities.Tally{}, err
	}
	votes, err := uc.Votes.ListVotesByElection(ctx, electionID)
	if err != nil {
		return entities.Tally{}, err
	}
	return services.BuildTally(electionID, candidates, votes), nil
}

// HasVoted lets a client disable its voting control once a ballot is in.
func (uc TallyUseCase) HasVoted(ctx context.Context, voterID string, electionID string) (bool, error) {
	_, found, err := uc.Votes.FindVote(ctx, strings.TrimSpace(voterID), strings.TrimSpace(electionID))
	return found, err
}
