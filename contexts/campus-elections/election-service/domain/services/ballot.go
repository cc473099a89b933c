package services

import (
	"fmt"

	"univote/contexts/campus-elections/election-service/domain/entities"
	domainerrors "univote/contexts/campus-elections/election-service/domain/errors"
)

// CheckBallot decides whether voter may vote for candidate in election. The
// election is checked first, so an inactive election is reported whatever
// the candidate state. Every refusal wraps ErrNotEligible or
// ErrPendingApproval with the reason.
func CheckBallot(election entities.Election, candidate entities.Candidate, voter entities.Voter) error {
	if err := CheckElectionOpen(election); err != nil {
		return err
	}
	if candidate.ElectionID != election.ElectionID {
		return fmt.Errorf("%w: candidate is not standing in this election", domainerrors.ErrNotEligible)
	}
	if !candidate.Approved {
		return fmt.Errorf("%w: candidate is not approved", domainerrors.ErrNotEligible)
	}
	if !voter.Approved {
		return fmt.Errorf("%w: voter %s cannot vote yet", domainerrors.ErrPendingApproval, voter.VoterID)
	}
	return nil
}

// CheckElectionOpen is the election half of CheckBallot. Callers run it
// before resolving the candidate and the voter.
func CheckElectionOpen(election entities.Election) error {
	if election.Deleted {
		return fmt.Errorf("%w: %w", domainerrors.ErrNotEligible, domainerrors.ErrElectionNotFound)
	}
	if !election.AcceptsVotes() {
		return fmt.Errorf("%w: election is %s", domainerrors.ErrNotEligible, election.Status)
	}
	return nil
}
