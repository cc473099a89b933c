package electionservice

import (
	"log/slog"
	"time"

	httpadapter "univote/contexts/campus-elections/election-service/adapters/http"
	"univote/contexts/campus-elections/election-service/adapters/memory"
	"univote/contexts/campus-elections/election-service/application/commands"
	"univote/contexts/campus-elections/election-service/application/queries"
	"univote/contexts/campus-elections/election-service/ports"
)

type Module struct {
	Handler httpadapter.Handler
	Admins  commands.AdminUseCase
	Store   *memory.Store
}

type Dependencies struct {
	Voters            ports.VoterRepository
	Admins            ports.AdminRepository
	Elections         ports.ElectionRepository
	Candidates        ports.CandidateRepository
	Votes             ports.VoteRepository
	Idempotency       ports.IdempotencyStore
	Turnout           ports.TurnoutReader
	Hasher            ports.PasswordHasher
	Tokens            ports.TokenIssuer
	Clock             ports.Clock
	IDGen             ports.IDGenerator
	SessionTTL        time.Duration
	IdempotencyTTL    time.Duration
	StrictTransitions bool
	DefaultLocation   *time.Location
	Logger            *slog.Logger
}

func NewModule(deps Dependencies) Module {
	sessions := commands.SessionUseCase{
		Voters:     deps.Voters,
		Admins:     deps.Admins,
		Hasher:     deps.Hasher,
		Tokens:     deps.Tokens,
		Clock:      deps.Clock,
		SessionTTL: deps.SessionTTL,
		Logger:     deps.Logger,
	}
	voters := commands.VoterUseCase{
		Voters: deps.Voters,
		Hasher: deps.Hasher,
		Clock:  deps.Clock,
		IDGen:  deps.IDGen,
		Logger: deps.Logger,
	}
	elections := commands.ElectionUseCase{
		Elections:         deps.Elections,
		Clock:             deps.Clock,
		IDGen:             deps.IDGen,
		StrictTransitions: deps.StrictTransitions,
		DefaultLocation:   deps.DefaultLocation,
		Logger:            deps.Logger,
	}
	candidacy := commands.CandidacyUseCase{
		Candidates: deps.Candidates,
		Elections:  deps.Elections,
		Voters:     deps.Voters,
		Clock:      deps.Clock,
		IDGen:      deps.IDGen,
		Logger:     deps.Logger,
	}
	ballots := commands.BallotUseCase{
		Votes:          deps.Votes,
		Elections:      deps.Elections,
		Candidates:     deps.Candidates,
		Voters:         deps.Voters,
		Idempotency:    deps.Idempotency,
		Clock:          deps.Clock,
		IDGen:          deps.IDGen,
		IdempotencyTTL: deps.IdempotencyTTL,
		Logger:         deps.Logger,
	}
	admins := commands.AdminUseCase{
		Admins: deps.Admins,
		Hasher: deps.Hasher,
		Clock:  deps.Clock,
		IDGen:  deps.IDGen,
		Logger: deps.Logger,
	}
	return Module{
		Handler: httpadapter.Handler{
			Sessions:         sessions,
			Voters:           voters,
			Elections:        elections,
			Candidacy:        candidacy,
			Ballots:          ballots,
			Admins:           admins,
			VoterQueries:     queries.VoterQueries{Voters: deps.Voters},
			ElectionQueries:  queries.ElectionQueries{Elections: deps.Elections},
			CandidateQueries: queries.CandidateQueries{Candidates: deps.Candidates, Elections: deps.Elections},
			Tallies: queries.TallyUseCase{
				Elections:  deps.Elections,
				Candidates: deps.Candidates,
				Votes:      deps.Votes,
			},
			Turnout: deps.Turnout,
			Logger:  deps.Logger,
		},
		Admins: admins,
	}
}

// NewInMemoryModule wires every port to one memory store. Hasher and Tokens
// still come from the caller since the store does not sign or hash.
func NewInMemoryModule(hasher ports.PasswordHasher, tokens ports.TokenIssuer, logger *slog.Logger) Module {
	store := memory.NewStore()
	module := NewModule(Dependencies{
		Voters:         store,
		Admins:         store,
		Elections:      store,
		Candidates:     store,
		Votes:          store,
		Idempotency:    store,
		Hasher:         hasher,
		Tokens:         tokens,
		Clock:          store,
		IDGen:          store,
		SessionTTL:     12 * time.Hour,
		IdempotencyTTL: 24 * time.Hour,
		Logger:         logger,
	})
	module.Store = store
	return module
}
