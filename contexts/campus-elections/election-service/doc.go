// Package electionservice implements the campus election service inside the
// campus-elections context.
//
// The module owns voter and admin sessions, the election lifecycle, candidate
// applications and ballot casting with per-election tallies. Business rules
// stay in the application and domain layers; persistence, token signing and
// event publication sit behind ports so the same use cases run against the
// in-memory store in tests and against PostgreSQL in the API process.
package electionservice
