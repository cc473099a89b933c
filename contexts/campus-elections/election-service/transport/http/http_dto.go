package http

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type VoterLoginRequest struct {
	FirstName    string `json:"firstName"`
	LastName     string `json:"lastName"`
	Email        string `json:"email"`
	UniversityID string `json:"universityId"`
}

type AdminLoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type SessionResponse struct {
	Token     string         `json:"token"`
	ExpiresAt string         `json:"expiresAt"`
	Role      string         `json:"role"`
	SubjectID string         `json:"subjectId"`
	Name      string         `json:"name"`
	Voter     *VoterResponse `json:"voter,omitempty"`
	Admin     *AdminResponse `json:"admin,omitempty"`
}

type VoterRequest struct {
	FirstName    string `json:"firstName"`
	LastName     string `json:"lastName"`
	Email        string `json:"email"`
	UniversityID string `json:"universityId"`
	Password     string `json:"password,omitempty"`
}

type VoterResponse struct {
	ID           string `json:"id"`
	FirstName    string `json:"firstName"`
	LastName     string `json:"lastName"`
	Email        string `json:"email"`
	UniversityID string `json:"universityId"`
	Approved     bool   `json:"approved"`
	CreatedAt    string `json:"createdAt,omitempty"`
}

type AdminResponse struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	CreatedAt string `json:"createdAt,omitempty"`
}

// AdminRequest creates or updates an admin. Password may be left empty on
// update to keep the current one.
type AdminRequest struct {
	Username  string `json:"username"`
	Password  string `json:"password,omitempty"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Role      string `json:"role,omitempty"`
}

// ElectionRequest keeps the snake_case keys election payloads have always
// used on the wire. TimeZone applies only to offset-less timestamps.
type ElectionRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
	TimeZone    string `json:"time_zone,omitempty"`
	Status      string `json:"status,omitempty"`
}

type ElectionStatusRequest struct {
	Status string `json:"status"`
}

type ElectionResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
	Status      string `json:"status"`
}

type EntityRef struct {
	ID string `json:"id"`
}

// ApplyCandidateRequest nests the voter and election references the way
// the candidate form submits them.
type ApplyCandidateRequest struct {
	Voter     EntityRef `json:"voter"`
	Elections EntityRef `json:"elections"`
	Post      string    `json:"post"`
	Bio       string    `json:"bio"`
}

type CandidateApprovalRequest struct {
	Approved *bool `json:"approved"`
}

type CandidateVoter struct {
	ID           string `json:"id"`
	FirstName    string `json:"firstName"`
	LastName     string `json:"lastName"`
	Email        string `json:"email"`
	UniversityID string `json:"universityId"`
}

type CandidateResponse struct {
	CandidateID  string          `json:"candidateId"`
	ElectionID   string          `json:"electionId"`
	Post         string          `json:"post"`
	Bio          string          `json:"bio"`
	Approved     bool            `json:"approved"`
	RegisteredAt string          `json:"registeredAt"`
	Voter        *CandidateVoter `json:"voter,omitempty"`
}

type CastVoteRequest struct {
	VoterID     string `json:"voterId"`
	CandidateID string `json:"candidateId"`
	ElectionID  string `json:"electionId"`
}

type VoteResponse struct {
	VoteID      string `json:"voteId"`
	VoterID     string `json:"voterId"`
	CandidateID string `json:"candidateId"`
	ElectionID  string `json:"electionId"`
	Post        string `json:"post"`
	CastAt      string `json:"castAt"`
	Replayed    bool   `json:"replayed"`
}

type TallyItem struct {
	Candidate  CandidateResponse `json:"candidate"`
	Votes      int               `json:"votes"`
	Percentage float64           `json:"percentage"`
}

type TallyResponse struct {
	ElectionID string      `json:"electionId"`
	TotalVotes int         `json:"totalVotes"`
	Items      []TallyItem `json:"items"`
}

type HasVotedResponse struct {
	VoterID    string `json:"voterId"`
	ElectionID string `json:"electionId"`
	HasVoted   bool   `json:"hasVoted"`
}

type TurnoutResponse struct {
	ElectionID string `json:"electionId"`
	Turnout    int    `json:"turnout"`
}
