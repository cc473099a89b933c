package httpadapter

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"time"

	"univote/contexts/campus-elections/election-service/application/commands"
	"univote/contexts/campus-elections/election-service/application/queries"
	"univote/contexts/campus-elections/election-service/domain/entities"
	"univote/contexts/campus-elections/election-service/ports"
	httptransport "univote/contexts/campus-elections/election-service/transport/http"
)

// ErrTurnoutUnavailable is returned when this process does not host the
// turnout projection.
var ErrTurnoutUnavailable = errors.New("turnout projection is not served by this process")

// Handler maps transport DTOs onto use cases. The caller resolves the bearer
// token into a principal before any method here runs.
type Handler struct {
	Sessions         commands.SessionUseCase
	Voters           commands.VoterUseCase
	Elections        commands.ElectionUseCase
	Candidacy        commands.CandidacyUseCase
	Ballots          commands.BallotUseCase
	Admins           commands.AdminUseCase
	VoterQueries     queries.VoterQueries
	ElectionQueries  queries.ElectionQueries
	CandidateQueries queries.CandidateQueries
	Tallies          queries.TallyUseCase
	Turnout          ports.TurnoutReader
	Logger           *slog.Logger
}

func (h Handler) ResolvePrincipal(ctx context.Context, token string) (entities.Principal, error) {
	return h.Sessions.ResolvePrincipal(ctx, token)
}

func (h Handler) VoterLoginHandler(ctx context.Context, req httptransport.VoterLoginRequest) (httptransport.SessionResponse, error) {
	session, err := h.Sessions.AuthenticateVoter(ctx, commands.VoterCredentials{
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Email:        req.Email,
		UniversityID: req.UniversityID,
	})
	if err != nil {
		return httptransport.SessionResponse{}, err
	}
	return mapSession(session), nil
}

func (h Handler) AdminLoginHandler(ctx context.Context, req httptransport.AdminLoginRequest) (httptransport.SessionResponse, error) {
	session, err := h.Sessions.AuthenticateAdmin(ctx, commands.AdminCredentials{
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		return httptransport.SessionResponse{}, err
	}
	return mapSession(session), nil
}

func (h Handler) RegisterVoterHandler(ctx context.Context, req httptransport.VoterRequest) (httptransport.VoterResponse, error) {
	voter, err := h.Voters.RegisterVoter(ctx, voterInput(req))
	if err != nil {
		return httptransport.VoterResponse{}, err
	}
	return mapVoter(voter), nil
}

func (h Handler) CreateVoterHandler(
	ctx context.Context,
	actor entities.Principal,
	req httptransport.VoterRequest,
) (httptransport.VoterResponse, error) {
	voter, err := h.Voters.CreateVoter(ctx, actor, voterInput(req))
	if err != nil {
		return httptransport.VoterResponse{}, err
	}
	return mapVoter(voter), nil
}

func (h Handler) UpdateVoterHandler(
	ctx context.Context,
	actor entities.Principal,
	voterID string,
	req httptransport.VoterRequest,
) (httptransport.VoterResponse, error) {
	voter, err := h.Voters.UpdateVoter(ctx, actor, voterID, voterInput(req))
	if err != nil {
		return httptransport.VoterResponse{}, err
	}
	return mapVoter(voter), nil
}

func (h Handler) SetVoterApprovalHandler(
	ctx context.Context,
	actor entities.Principal,
	voterID string,
	approved bool,
) (httptransport.VoterResponse, error) {
	voter, err := h.Voters.SetVoterApproval(ctx, actor, voterID, approved)
	if err != nil {
		return httptransport.VoterResponse{}, err
	}
	return mapVoter(voter), nil
}

func (h Handler) DeleteVoterHandler(ctx context.Context, actor entities.Principal, voterID string) error {
	return h.Voters.DeleteVoter(ctx, actor, voterID)
}

func (h Handler) ListVotersHandler(ctx context.Context, actor entities.Principal) ([]httptransport.VoterResponse, error) {
	voters, err := h.VoterQueries.ListVoters(ctx, actor)
	if err != nil {
		return nil, err
	}
	items := make([]httptransport.VoterResponse, 0, len(voters))
	for _, voter := range voters {
		items = append(items, mapVoter(voter))
	}
	return items, nil
}

func (h Handler) GetVoterHandler(
	ctx context.Context,
	actor entities.Principal,
	voterID string,
) (httptransport.VoterResponse, error) {
	voter, err := h.VoterQueries.GetVoter(ctx, actor, voterID)
	if err != nil {
		return httptransport.VoterResponse{}, err
	}
	return mapVoter(voter), nil
}

func (h Handler) ListAdminsHandler(ctx context.Context, actor entities.Principal) ([]httptransport.AdminResponse, error) {
	admins, err := h.Admins.ListAdmins(ctx, actor)
	if err != nil {
		return nil, err
	}
	items := make([]httptransport.AdminResponse, 0, len(admins))
	for _, admin := range admins {
		items = append(items, mapAdmin(admin))
	}
	return items, nil
}

func (h Handler) GetAdminHandler(
	ctx context.Context,
	actor entities.Principal,
	adminID string,
) (httptransport.AdminResponse, error) {
	admin, err := h.Admins.GetAdmin(ctx, actor, adminID)
	if err != nil {
		return httptransport.AdminResponse{}, err
	}
	return mapAdmin(admin), nil
}

func (h Handler) CreateAdminHandler(
	ctx context.Context,
	actor entities.Principal,
	req httptransport.AdminRequest,
) (httptransport.AdminResponse, error) {
	admin, err := h.Admins.CreateAdmin(ctx, actor, adminInput(req))
	if err != nil {
		return httptransport.AdminResponse{}, err
	}
	return mapAdmin(admin), nil
}

func (h Handler) UpdateAdminHandler(
	ctx context.Context,
	actor entities.Principal,
	adminID string,
	req httptransport.AdminRequest,
) (httptransport.AdminResponse, error) {
	admin, err := h.Admins.UpdateAdmin(ctx, actor, adminID, adminInput(req))
	if err != nil {
		return httptransport.AdminResponse{}, err
	}
	return mapAdmin(admin), nil
}

func (h Handler) DeleteAdminHandler(ctx context.Context, actor entities.Principal, adminID string) error {
	return h.Admins.DeleteAdmin(ctx, actor, adminID)
}

func (h Handler) ListElectionsHandler(ctx context.Context) ([]httptransport.ElectionResponse, error) {
	elections, err := h.ElectionQueries.ListElections(ctx)
	if err != nil {
		return nil, err
	}
	items := make([]httptransport.ElectionResponse, 0, len(elections))
	for _, election := range elections {
		items = append(items, mapElection(election))
	}
	return items, nil
}

func (h Handler) GetElectionHandler(ctx context.Context, electionID string) (httptransport.ElectionResponse, error) {
	election, err := h.ElectionQueries.GetElection(ctx, electionID)
	if err != nil {
		return httptransport.ElectionResponse{}, err
	}
	return mapElection(election), nil
}

func (h Handler) CreateElectionHandler(
	ctx context.Context,
	actor entities.Principal,
	req httptransport.ElectionRequest,
) (httptransport.ElectionResponse, error) {
	election, err := h.Elections.CreateElection(ctx, actor, electionCommand(req))
	if err != nil {
		return httptransport.ElectionResponse{}, err
	}
	return mapElection(election), nil
}

func (h Handler) UpdateElectionHandler(
	ctx context.Context,
	actor entities.Principal,
	electionID string,
	req httptransport.ElectionRequest,
) (httptransport.ElectionResponse, error) {
	election, err := h.Elections.UpdateElection(ctx, actor, electionID, electionCommand(req))
	if err != nil {
		return httptransport.ElectionResponse{}, err
	}
	return mapElection(election), nil
}

func (h Handler) SetElectionStatusHandler(
	ctx context.Context,
	actor entities.Principal,
	electionID string,
	req httptransport.ElectionStatusRequest,
) (httptransport.ElectionResponse, error) {
	election, err := h.Elections.SetElectionStatus(ctx, actor, electionID, req.Status)
	if err != nil {
		return httptransport.ElectionResponse{}, err
	}
	return mapElection(election), nil
}

func (h Handler) DeleteElectionHandler(ctx context.Context, actor entities.Principal, electionID string) error {
	return h.Elections.DeleteElection(ctx, actor, electionID)
}

func (h Handler) ListCandidatesHandler(ctx context.Context, electionID string) ([]httptransport.CandidateResponse, error) {
	listings, err := h.CandidateQueries.ListByElection(ctx, electionID)
	if err != nil {
		return nil, err
	}
	items := make([]httptransport.CandidateResponse, 0, len(listings))
	for _, listing := range listings {
		items = append(items, mapListing(listing))
	}
	return items, nil
}

func (h Handler) GetCandidateHandler(ctx context.Context, candidateID string) (httptransport.CandidateResponse, error) {
	candidate, err := h.CandidateQueries.GetCandidate(ctx, candidateID)
	if err != nil {
		return httptransport.CandidateResponse{}, err
	}
	return mapCandidate(candidate), nil
}

func (h Handler) ApplyCandidateHandler(
	ctx context.Context,
	actor entities.Principal,
	req httptransport.ApplyCandidateRequest,
) (httptransport.CandidateResponse, error) {
	listing, err := h.Candidacy.Apply(ctx, actor, commands.ApplyCommand{
		VoterID:    req.Voter.ID,
		ElectionID: req.Elections.ID,
		Post:       req.Post,
		Bio:        req.Bio,
	})
	if err != nil {
		return httptransport.CandidateResponse{}, err
	}
	return mapListing(listing), nil
}

func (h Handler) SetCandidateApprovalHandler(
	ctx context.Context,
	actor entities.Principal,
	candidateID string,
	approved bool,
) (httptransport.CandidateResponse, error) {
	candidate, err := h.Candidacy.SetCandidateApproval(ctx, actor, candidateID, approved)
	if err != nil {
		return httptransport.CandidateResponse{}, err
	}
	return mapCandidate(candidate), nil
}

func (h Handler) DeleteCandidateHandler(ctx context.Context, actor entities.Principal, candidateID string) error {
	return h.Candidacy.DeleteCandidate(ctx, actor, candidateID)
}

func (h Handler) CastVoteHandler(
	ctx context.Context,
	actor entities.Principal,
	idempotencyKey string,
	req httptransport.CastVoteRequest,
) (httptransport.VoteResponse, error) {
	result, err := h.Ballots.CastVote(ctx, actor, commands.CastVoteCommand{
		VoterID:        req.VoterID,
		CandidateID:    req.CandidateID,
		ElectionID:     req.ElectionID,
		IdempotencyKey: idempotencyKey,
	})
	if err != nil {
		return httptransport.VoteResponse{}, err
	}
	return httptransport.VoteResponse{
		VoteID:      result.Vote.VoteID,
		VoterID:     result.Vote.VoterID,
		CandidateID: result.Vote.CandidateID,
		ElectionID:  result.Vote.ElectionID,
		Post:        result.Vote.Post,
		CastAt:      formatTime(result.Vote.CastAt),
		Replayed:    result.Replayed,
	}, nil
}

func (h Handler) HasVotedHandler(
	ctx context.Context,
	actor entities.Principal,
	electionID string,
) (httptransport.HasVotedResponse, error) {
	voted, err := h.Tallies.HasVoted(ctx, actor.ID, electionID)
	if err != nil {
		return httptransport.HasVotedResponse{}, err
	}
	return httptransport.HasVotedResponse{
		VoterID:    actor.ID,
		ElectionID: electionID,
		HasVoted:   voted,
	}, nil
}

func (h Handler) TallyHandler(ctx context.Context, electionID string) (httptransport.TallyResponse, error) {
	tally, err := h.Tallies.Tally(ctx, electionID)
	if err != nil {
		return httptransport.TallyResponse{}, err
	}
	items := make([]httptransport.TallyItem, 0, len(tally.Items))
	for _, item := range tally.Items {
		items = append(items, httptransport.TallyItem{
			Candidate:  mapListing(item.Candidate),
			Votes:      item.Votes,
			Percentage: math.Round(item.Percentage*10) / 10,
		})
	}
	return httptransport.TallyResponse{
		ElectionID: tally.ElectionID,
		TotalVotes: tally.TotalVotes,
		Items:      items,
	}, nil
}

// TurnoutHandler reads the event-fed projection, which may trail the tally
// while the outbox relay catches up.
func (h Handler) TurnoutHandler(ctx context.Context, electionID string) (httptransport.TurnoutResponse, error) {
	if h.Turnout == nil {
		return httptransport.TurnoutResponse{}, ErrTurnoutUnavailable
	}
	election, err := h.ElectionQueries.GetElection(ctx, electionID)
	if err != nil {
		return httptransport.TurnoutResponse{}, err
	}
	return httptransport.TurnoutResponse{
		ElectionID: election.ElectionID,
		Turnout:    h.Turnout.Turnout(election.ElectionID),
	}, nil
}

func voterInput(req httptransport.VoterRequest) commands.VoterInput {
	return commands.VoterInput{
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Email:        req.Email,
		UniversityID: req.UniversityID,
		Password:     req.Password,
	}
}

func electionCommand(req httptransport.ElectionRequest) commands.ElectionCommand {
	return commands.ElectionCommand{
		Name:        req.Name,
		Description: req.Description,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		TimeZone:    req.TimeZone,
		Status:      req.Status,
	}
}

func mapSession(session commands.Session) httptransport.SessionResponse {
	resp := httptransport.SessionResponse{
		Token:     session.Token,
		ExpiresAt: formatTime(session.ExpiresAt),
		Role:      string(session.Principal.Role),
		SubjectID: session.Principal.ID,
		Name:      session.Principal.DisplayName,
	}
	if session.Voter != nil {
		voter := mapVoter(*session.Voter)
		resp.Voter = &voter
	}
	if session.Admin != nil {
		admin := mapAdmin(*session.Admin)
		resp.Admin = &admin
	}
	return resp
}

func adminInput(req httptransport.AdminRequest) commands.AdminInput {
	return commands.AdminInput{
		Username:  req.Username,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Role:      req.Role,
	}
}

func mapAdmin(admin entities.Admin) httptransport.AdminResponse {
	return httptransport.AdminResponse{
		ID:        admin.AdminID,
		Username:  admin.Username,
		FirstName: admin.FirstName,
		LastName:  admin.LastName,
		Email:     admin.Email,
		Role:      string(admin.Role),
		CreatedAt: formatTime(admin.CreatedAt),
	}
}

func mapVoter(voter entities.Voter) httptransport.VoterResponse {
	return httptransport.VoterResponse{
		ID:           voter.VoterID,
		FirstName:    voter.FirstName,
		LastName:     voter.LastName,
		Email:        voter.Email,
		UniversityID: voter.UniversityID,
		Approved:     voter.Approved,
		CreatedAt:    formatTime(voter.CreatedAt),
	}
}

func mapElection(election entities.Election) httptransport.ElectionResponse {
	return httptransport.ElectionResponse{
		ID:          election.ElectionID,
		Name:        election.Name,
		Description: election.Description,
		StartTime:   formatTime(election.StartTime),
		EndTime:     formatTime(election.EndTime),
		Status:      string(election.Status),
	}
}

func mapCandidate(candidate entities.Candidate) httptransport.CandidateResponse {
	return httptransport.CandidateResponse{
		CandidateID:  candidate.CandidateID,
		ElectionID:   candidate.ElectionID,
		Post:         candidate.Post,
		Bio:          candidate.Bio,
		Approved:     candidate.Approved,
		RegisteredAt: formatTime(candidate.RegisteredAt),
	}
}

func mapListing(listing entities.CandidateListing) httptransport.CandidateResponse {
	resp := mapCandidate(listing.Candidate)
	resp.Voter = &httptransport.CandidateVoter{
		ID:           listing.Voter.VoterID,
		FirstName:    listing.Voter.FirstName,
		LastName:     listing.Voter.LastName,
		Email:        listing.Voter.Email,
		UniversityID: listing.Voter.UniversityID,
	}
	return resp
}

func formatTime(value time.Time) string {
	if value.IsZero() {
		return ""
	}
	return value.UTC().Format(time.RFC3339)
}
