package postgresadapter

import (
	"fmt"
	"testing"
	"time"

	"univote/contexts/campus-elections/election-service/domain/entities"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestViolatesConstraintMatchesNamedIndexOnly(t *testing.T) {
	voteDup := fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505", ConstraintName: uniqueVoteVoterElection})
	pkDup := &pgconn.PgError{Code: "23505", ConstraintName: "votes_pkey"}
	fkErr := &pgconn.PgError{Code: "23503", ConstraintName: uniqueVoteVoterElection}

	if !violatesConstraint(voteDup, uniqueVoteVoterElection) {
		t.Fatal("expected wrapped unique violation to match")
	}
	if violatesConstraint(pkDup, uniqueVoteVoterElection) {
		t.Fatal("primary key violation must not map to duplicate vote")
	}
	if !isUniqueViolation(pkDup) {
		t.Fatal("expected primary key violation to be a unique violation")
	}
	if violatesConstraint(fkErr, uniqueVoteVoterElection) || isUniqueViolation(fkErr) {
		t.Fatal("foreign key error must not be a unique violation")
	}
}

func TestModelMappingNormalizesToUTC(t *testing.T) {
	zone := time.FixedZone("EAT", 3*60*60)
	start := time.Date(2025, 3, 1, 9, 0, 0, 0, zone)
	election := entities.Election{
		ElectionID: "e1",
		Name:       "Guild",
		StartTime:  start,
		EndTime:    start.Add(8 * time.Hour),
		Status:     entities.ElectionStatusActive,
	}
	row := electionModelFromEntity(election)
	if row.StartTime.Location() != time.UTC || row.Status != "active" {
		t.Fatalf("unexpected row: %+v", row)
	}
	back := row.toEntity()
	if !back.StartTime.Equal(start) || back.Status != entities.ElectionStatusActive {
		t.Fatalf("unexpected entity: %+v", back)
	}

	listing := candidateListingRow{
		CandidateID:       "c1",
		VoterID:           "v1",
		ElectionID:        "e1",
		VoterFirstName:    "Ada",
		VoterUniversityID: "U1",
	}.toEntity()
	if listing.Voter.VoterID != "v1" || listing.Voter.FirstName != "Ada" || listing.Candidate.ElectionID != "e1" {
		t.Fatalf("unexpected listing: %+v", listing)
	}
}
