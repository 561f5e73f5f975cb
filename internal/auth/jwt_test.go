package auth

import (
	"testing"
	"time"
)

var testIdentity = Identity{
	ID:     "stud-1",
	Name:   "Ama Owusu",
	Number: "CSC/0030/22",
	Email:  "ama@students.example.edu",
	Role:   RoleStudent,
}

func TestIssueParseRoundTrip(t *testing.T) {
	token, exp, err := Issue(testIdentity, "campusattend", "secret", time.Hour)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if !exp.After(time.Now()) {
		t.Error("expiry should be in the future")
	}

	claims, err := Parse(token, "secret", "campusattend")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got := claims.Identity(); got != testIdentity {
		t.Errorf("identity = %+v, want %+v", got, testIdentity)
	}
}

func TestParseRejectsWrongKey(t *testing.T) {
	token, _, err := Issue(testIdentity, "campusattend", "secret", time.Hour)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := Parse(token, "other-secret", "campusattend"); err == nil {
		t.Error("token signed with another key should be rejected")
	}
}

func TestParseRejectsIssuerMismatch(t *testing.T) {
	token, _, err := Issue(testIdentity, "someone-else", "secret", time.Hour)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := Parse(token, "secret", "campusattend"); err == nil {
		t.Error("issuer mismatch should be rejected")
	}
}

func TestParseRejectsExpired(t *testing.T) {
	token, _, err := Issue(testIdentity, "campusattend", "secret", -time.Minute)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := Parse(token, "secret", "campusattend"); err == nil {
		t.Error("expired token should be rejected")
	}
}

func TestParseRejectsUnknownRole(t *testing.T) {
	id := testIdentity
	id.Role = "superuser"
	token, _, err := Issue(id, "campusattend", "secret", time.Hour)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := Parse(token, "secret", "campusattend"); err == nil {
		t.Error("unknown role should be rejected")
	}
}
