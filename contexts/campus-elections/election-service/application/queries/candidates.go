package queries

import (
	"context"
	"strings"

	"univote/contexts/campus-elections/election-service/domain/entities"
	domainerrors "univote/contexts/campus-elections/election-service/domain/errors"
	"univote/contexts/campus-elections/election-service/ports"
)

type CandidateQueries struct {
	Candidates ports.CandidateRepository
	Elections  ports.ElectionRepository
}

// ListByElection returns approved and pending candidates alike. Callers label
// or filter them; only approved ones can receive votes.
func (q CandidateQueries) ListByElection(ctx context.Context, electionID string) ([]entities.CandidateListing, error) {
	electionID = strings.TrimSpace(electionID)
	if electionID == "" {
		return nil, domainerrors.ErrValidation
	}
	if _, err := q.Elections.GetElection(ctx, electionID); err != nil {
		return nil, err
	}
	return q.Candidates.ListCandidatesByElection(ctx, electionID)
}

func (q CandidateQueries) GetCandidate(ctx context.Context, candidateID string) (entities.Candidate, error) {
	return q.Candidates.GetCandidate(ctx, strings.TrimSpace(candidateID))
}
