package queries

import (
	"context"
	"strings"

	"univote/contexts/campus-elections/election-service/domain/entities"
	"univote/contexts/campus-elections/election-service/ports"
)

type ElectionQueries struct {
	Elections ports.ElectionRepository
}

// ListElections returns non-deleted elections ordered by start time, then
// creation time, then id.
func (q ElectionQueries) ListElections(ctx context.Context) ([]entities.Election, error) {
	return q.Elections.ListElections(ctx)
}

func (q ElectionQueries) GetElection(ctx context.Context, electionID string) (entities.Election, error) {
	return q.Elections.GetElection(ctx, strings.TrimSpace(electionID))
}
