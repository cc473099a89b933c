package services

import (
	"sort"

	"univote/contexts/campus-elections/election-service/domain/entities"
)

// BuildTally counts votes per candidate. Every candidate appears in the
// result, zero-filled, and votes pointing at unknown candidates are ignored.
// Items are ordered by vote count descending, then registration order.
func BuildTally(
	electionID string,
	candidates []entities.CandidateListing,
	votes []entities.Vote,
) entities.Tally {
	counts := make(map[string]int, len(candidates))
	for _, candidate := range candidates {
		counts[candidate.Candidate.CandidateID] = 0
	}
	total := 0
	for _, vote := range votes {
		if vote.ElectionID != electionID {
			continue
		}
		if _, ok := counts[vote.CandidateID]; !ok {
			continue
		}
		counts[vote.CandidateID]++
		total++
	}

	items := make([]entities.TallyItem, 0, len(candidates))
	for _, candidate := range candidates {
		count := counts[candidate.Candidate.CandidateID]
		items = append(items, entities.TallyItem{
			Candidate:  candidate,
			Votes:      count,
			Percentage: Percentage(count, total),
		})
	}
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Votes != items[j].Votes {
			return items[i].Votes > items[j].Votes
		}
		left, right := items[i].Candidate.Candidate, items[j].Candidate.Candidate
		if !left.RegisteredAt.Equal(right.RegisteredAt) {
			return left.RegisteredAt.Before(right.RegisteredAt)
		}
		return left.CandidateID < right.CandidateID
	})

	return entities.Tally{
		ElectionID: electionID,
		TotalVotes: total,
		Items:      items,
	}
}

// Percentage returns count/total*100, or 0 for an empty election.
func Percentage(count int, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(count) / float64(total) * 100
}
