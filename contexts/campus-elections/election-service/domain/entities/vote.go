package entities

import "time"

type Vote struct {
	VoteID      string
	VoterID     string
	CandidateID string
	ElectionID  string
	Post        string
	CastAt      time.Time
}

type TallyItem struct {
	Candidate  CandidateListing
	Votes      int
	Percentage float64
}

type Tally struct {
	ElectionID string
	TotalVotes int
	Items      []TallyItem
}
