package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"univote/contexts/campus-elections/election-service/adapters/remote"
	domainerrors "univote/contexts/campus-elections/election-service/domain/errors"
	httptransport "univote/contexts/campus-elections/election-service/transport/http"
	"univote/internal/platform/config"
)

const (
	exitOK       = 0
	exitRejected = 1
	exitUsage    = 2
	exitRetry    = 3
)

const usage = `usage: votectl [-url URL] [-timeout D] [-token T] <command> [flags]

commands:
  admin-login        -username -password
  voter-login        -first -last -email -university-id
  register           -first -last -email -university-id -password
  voters
  voter              -voter
  create-voter       -first -last -email -university-id
  approve-voter      -voter [-approved=false]
  delete-voter       -voter
  admins
  create-admin       -username -password [-first -last -email -role]
  delete-admin       -admin
  elections
  election           -election
  create-election    -name -start -end [-description -time-zone -status]
  election-status    -election -status
  delete-election    -election
  candidates         -election
  candidate          -candidate
  apply              -voter -election -post -bio
  approve-candidate  -candidate [-approved=false]
  delete-candidate   -candidate
  vote               -voter -candidate -election [-key]
  has-voted          -election
  results            -election
  turnout            -election
`

// Command-line collaborator for the election API.
// Exit codes: 1 the API rejected the request, 2 bad usage, 3 timeout or
// network failure that is safe to retry.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdout io.Writer, stderr io.Writer) int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitUsage
	}

	global := flag.NewFlagSet("votectl", flag.ContinueOnError)
	global.SetOutput(stderr)
	global.Usage = func() { fmt.Fprint(stderr, usage) }
	baseURL := global.String("url", cfg.APIBaseURL, "election API base URL")
	timeout := global.Duration("timeout", cfg.ClientTimeout, "per-request timeout")
	token := global.String("token", os.Getenv("VOTECTL_TOKEN"), "bearer token")
	if err := global.Parse(args); err != nil {
		return exitUsage
	}
	rest := global.Args()
	if len(rest) == 0 {
		global.Usage()
		return exitUsage
	}

	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	client := remote.NewClient(*baseURL, *timeout, logger).WithToken(*token)

	result, err := dispatch(ctx, client, rest[0], rest[1:], stderr)
	if err != nil {
		return report(stderr, err)
	}
	if result != nil {
		encoder := json.NewEncoder(stdout)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(result); err != nil {
			fmt.Fprintln(stderr, err)
			return exitRejected
		}
	}
	return exitOK
}

var errUsage = errors.New("usage")

func dispatch(ctx context.Context, client *remote.Client, command string, args []string, stderr io.Writer) (any, error) {
	fs := flag.NewFlagSet(command, flag.ContinueOnError)
	fs.SetOutput(stderr)
	str := func(name string, help string) *string { return fs.String(name, "", help) }

	switch command {
	case "admin-login":
		username, password := str("username", "admin username"), str("password", "admin password")
		if err := parse(fs, args, username, password); err != nil {
			return nil, err
		}
		return client.AdminLogin(ctx, httptransport.AdminLoginRequest{Username: *username, Password: *password})

	case "voter-login":
		first, last, email, uid := str("first", "first name"), str("last", "last name"), str("email", "email"), str("university-id", "university id")
		if err := parse(fs, args, first, last, email, uid); err != nil {
			return nil, err
		}
		return client.VoterLogin(ctx, httptransport.VoterLoginRequest{FirstName: *first, LastName: *last, Email: *email, UniversityID: *uid})

	case "register":
		first, last, email, uid := str("first", "first name"), str("last", "last name"), str("email", "email"), str("university-id", "university id")
		password := str("password", "password")
		if err := parse(fs, args, first, last, email, uid); err != nil {
			return nil, err
		}
		return client.RegisterVoter(ctx, httptransport.VoterRequest{
			FirstName: *first, LastName: *last, Email: *email, UniversityID: *uid, Password: *password,
		})

	case "voters":
		if err := parse(fs, args); err != nil {
			return nil, err
		}
		return client.ListVoters(ctx)

	case "voter":
		voter := str("voter", "voter id")
		if err := parse(fs, args, voter); err != nil {
			return nil, err
		}
		return client.GetVoter(ctx, *voter)

	case "create-voter":
		first, last, email, uid := str("first", "first name"), str("last", "last name"), str("email", "email"), str("university-id", "university id")
		if err := parse(fs, args, first, last, email, uid); err != nil {
			return nil, err
		}
		return client.CreateVoter(ctx, httptransport.VoterRequest{
			FirstName: *first, LastName: *last, Email: *email, UniversityID: *uid,
		})

	case "approve-voter":
		voter := str("voter", "voter id")
		approved := fs.Bool("approved", true, "approval flag")
		if err := parse(fs, args, voter); err != nil {
			return nil, err
		}
		return client.SetVoterApproval(ctx, *voter, *approved)

	case "delete-voter":
		voter := str("voter", "voter id")
		if err := parse(fs, args, voter); err != nil {
			return nil, err
		}
		return nil, client.DeleteVoter(ctx, *voter)

	case "admins":
		if err := parse(fs, args); err != nil {
			return nil, err
		}
		return client.ListAdmins(ctx)

	case "create-admin":
		username, password := str("username", "admin username"), str("password", "admin password")
		first, last, email, role := str("first", "first name"), str("last", "last name"), str("email", "email"), str("role", "admin or super_admin")
		if err := parse(fs, args, username, password); err != nil {
			return nil, err
		}
		return client.CreateAdmin(ctx, httptransport.AdminRequest{
			Username: *username, Password: *password, FirstName: *first, LastName: *last, Email: *email, Role: *role,
		})

	case "delete-admin":
		admin := str("admin", "admin id")
		if err := parse(fs, args, admin); err != nil {
			return nil, err
		}
		return nil, client.DeleteAdmin(ctx, *admin)

	case "elections":
		if err := parse(fs, args); err != nil {
			return nil, err
		}
		return client.ListElections(ctx)

	case "election":
		election := str("election", "election id")
		if err := parse(fs, args, election); err != nil {
			return nil, err
		}
		return client.GetElection(ctx, *election)

	case "create-election":
		name, start, end := str("name", "election name"), str("start", "start time, RFC 3339 or local"), str("end", "end time")
		description, zone, status := str("description", "description"), str("time-zone", "IANA zone for local times"), str("status", "initial status")
		if err := parse(fs, args, name, start, end); err != nil {
			return nil, err
		}
		return client.CreateElection(ctx, httptransport.ElectionRequest{
			Name: *name, Description: *description, StartTime: *start, EndTime: *end, TimeZone: *zone, Status: *status,
		})

	case "delete-election":
		election := str("election", "election id")
		if err := parse(fs, args, election); err != nil {
			return nil, err
		}
		return nil, client.DeleteElection(ctx, *election)

	case "election-status":
		election, status := str("election", "election id"), str("status", "upcoming, active or completed")
		if err := parse(fs, args, election, status); err != nil {
			return nil, err
		}
		return client.SetElectionStatus(ctx, *election, *status)

	case "candidates":
		election := str("election", "election id")
		if err := parse(fs, args, election); err != nil {
			return nil, err
		}
		return client.ListCandidates(ctx, *election)

	case "candidate":
		candidate := str("candidate", "candidate id")
		if err := parse(fs, args, candidate); err != nil {
			return nil, err
		}
		return client.GetCandidate(ctx, *candidate)

	case "apply":
		voter, election, post, bio := str("voter", "voter id"), str("election", "election id"), str("post", "post"), str("bio", "bio")
		if err := parse(fs, args, voter, election, post, bio); err != nil {
			return nil, err
		}
		return client.ApplyCandidate(ctx, httptransport.ApplyCandidateRequest{
			Voter:     httptransport.EntityRef{ID: *voter},
			Elections: httptransport.EntityRef{ID: *election},
			Post:      *post,
			Bio:       *bio,
		})

	case "approve-candidate":
		candidate := str("candidate", "candidate id")
		approved := fs.Bool("approved", true, "approval flag")
		if err := parse(fs, args, candidate); err != nil {
			return nil, err
		}
		return client.SetCandidateApproval(ctx, *candidate, *approved)

	case "delete-candidate":
		candidate := str("candidate", "candidate id")
		if err := parse(fs, args, candidate); err != nil {
			return nil, err
		}
		return nil, client.DeleteCandidate(ctx, *candidate)

	case "vote":
		voter, candidate, election := str("voter", "voter id"), str("candidate", "candidate id"), str("election", "election id")
		key := str("key", "idempotency key; reuse it when retrying")
		if err := parse(fs, args, voter, candidate, election); err != nil {
			return nil, err
		}
		return client.CastVote(ctx, httptransport.CastVoteRequest{
			VoterID: *voter, CandidateID: *candidate, ElectionID: *election,
		}, *key)

	case "has-voted":
		election := str("election", "election id")
		if err := parse(fs, args, election); err != nil {
			return nil, err
		}
		return client.HasVoted(ctx, *election)

	case "results":
		election := str("election", "election id")
		if err := parse(fs, args, election); err != nil {
			return nil, err
		}
		return client.Tally(ctx, *election)

	case "turnout":
		election := str("election", "election id")
		if err := parse(fs, args, election); err != nil {
			return nil, err
		}
		return client.Turnout(ctx, *election)

	default:
		fmt.Fprintf(stderr, "unknown command %q\n%s", command, usage)
		return nil, errUsage
	}
}

// parse reads args and requires every listed flag to be non-blank.
func parse(fs *flag.FlagSet, args []string, required ...*string) error {
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	for _, value := range required {
		if strings.TrimSpace(*value) == "" {
			fmt.Fprintf(fs.Output(), "%s: missing required flag\n", fs.Name())
			fs.PrintDefaults()
			return errUsage
		}
	}
	return nil
}

func report(stderr io.Writer, err error) int {
	switch {
	case errors.Is(err, errUsage):
		return exitUsage
	case errors.Is(err, domainerrors.ErrTimeout), errors.Is(err, domainerrors.ErrNetwork):
		fmt.Fprintf(stderr, "request failed, safe to retry: %v\n", err)
		return exitRetry
	default:
		fmt.Fprintf(stderr, "request rejected: %v\n", err)
		return exitRejected
	}
}
