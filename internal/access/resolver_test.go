package access

import (
	"context"
	"errors"
	"testing"
	"time"

	"casecall-platform/internal/config"
	"casecall-platform/internal/directory"
	"casecall-platform/internal/session"
)

func testSetup(t *testing.T) (*Resolver, *session.Manager, *directory.MemoryRepo) {
	t.Helper()
	m, err := session.NewManager(config.AuthConfig{JWTSecret: "test-secret", SessionTTL: time.Hour})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	dir := directory.NewMemoryRepo()
	r := NewResolver(dir,
		session.ClientValidator(m),
		session.ConsultantValidator(m),
		session.DelegateValidator(m),
	)
	return r, m, dir
}

func issue(t *testing.T, m *session.Manager, kind session.Kind, principal, employer string) string {
	t.Helper()
	tok, err := m.Issue(time.Now(), kind, principal, employer)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	return tok
}

func TestResolver_ClientOwnsCase(t *testing.T) {
	r, m, dir := testSetup(t)
	dir.PutCase(directory.Case{CaseID: "c1", ClientID: "cl-1", ConsultantID: "co-1"})

	p, err := r.Resolve(context.Background(), "c1", issue(t, m, session.KindClient, "cl-1", ""))
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if p.Role != RoleClient || p.ID != "cl-1" {
		t.Fatalf("unexpected principal: %+v", p)
	}
}

func TestResolver_ConsultantAssignedToCase(t *testing.T) {
	r, m, dir := testSetup(t)
	dir.PutCase(directory.Case{CaseID: "c1", ClientID: "cl-1", ConsultantID: "co-1"})

	p, err := r.Resolve(context.Background(), "c1", issue(t, m, session.KindConsultant, "co-1", ""))
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if p.Role != RoleConsultant {
		t.Fatalf("expected consultant role, got %+v", p)
	}
}

func TestResolver_DelegateNeedsEmployerAndAssignment(t *testing.T) {
	r, m, dir := testSetup(t)
	dir.PutCase(directory.Case{CaseID: "c1", ClientID: "cl-1", ConsultantID: "co-1", DelegateID: "de-1"})

	p, err := r.Resolve(context.Background(), "c1", issue(t, m, session.KindDelegate, "de-1", "co-1"))
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if p.Role != RoleDelegate {
		t.Fatalf("expected delegate role, got %+v", p)
	}

	// Right delegate, wrong employer.
	_, err = r.Resolve(context.Background(), "c1", issue(t, m, session.KindDelegate, "de-1", "co-other"))
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}

	// Employed by the right consultant but not assigned to the case.
	_, err = r.Resolve(context.Background(), "c1", issue(t, m, session.KindDelegate, "de-2", "co-1"))
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestResolver_UnassignedConsultantForbidden(t *testing.T) {
	r, m, dir := testSetup(t)
	dir.PutCase(directory.Case{CaseID: "c1", ClientID: "cl-1", ConsultantID: "co-1"})

	_, err := r.Resolve(context.Background(), "c1", issue(t, m, session.KindConsultant, "co-2", ""))
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestResolver_NoCredentialUnauthorized(t *testing.T) {
	r, _, dir := testSetup(t)
	dir.PutCase(directory.Case{CaseID: "c1", ClientID: "cl-1", ConsultantID: "co-1"})

	_, err := r.Resolve(context.Background(), "c1", "")
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}

	_, err = r.Resolve(context.Background(), "c1", "garbage")
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestResolver_UnknownCase(t *testing.T) {
	r, m, _ := testSetup(t)

	_, err := r.Resolve(context.Background(), "missing", issue(t, m, session.KindClient, "cl-1", ""))
	if !errors.Is(err, directory.ErrCaseNotFound) {
		t.Fatalf("expected ErrCaseNotFound, got %v", err)
	}
}

// A credential never resolves to more than one role for the same case:
// the validators are kind-exclusive and resolution stops at first match.
func TestResolver_RoleExclusivity(t *testing.T) {
	r, m, dir := testSetup(t)
	// Pathological directory where one id shows up everywhere.
	dir.PutCase(directory.Case{CaseID: "c1", ClientID: "p-1", ConsultantID: "p-1", DelegateID: "p-1"})

	p, err := r.Resolve(context.Background(), "c1", issue(t, m, session.KindClient, "p-1", ""))
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if p.Role != RoleClient {
		t.Fatalf("client session must resolve to client role, got %q", p.Role)
	}

	p, err = r.Resolve(context.Background(), "c1", issue(t, m, session.KindConsultant, "p-1", ""))
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if p.Role != RoleConsultant {
		t.Fatalf("consultant session must resolve to consultant role, got %q", p.Role)
	}
}
