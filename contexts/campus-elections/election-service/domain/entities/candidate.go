package entities

import "time"

type Candidate struct {
	CandidateID  string
	VoterID      string
	ElectionID   string
	Post         string
	Bio          string
	Approved     bool
	RegisteredAt time.Time
	UpdatedAt    time.Time
}

// CandidateListing is a candidate joined with the voter that applied.
type CandidateListing struct {
	Candidate Candidate
	Voter     VoterSummary
}
