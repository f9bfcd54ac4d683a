package access

import (
	"context"
	"errors"

	"casecall-platform/internal/directory"
	"casecall-platform/internal/session"
)

var (
	// ErrUnauthorized: no validator could resolve the credential at all.
	ErrUnauthorized = errors.New("access: unauthorized")
	// ErrForbidden: the credential resolved to a real principal, but that
	// principal is not a participant of the case.
	ErrForbidden = errors.New("access: forbidden")
)

// Principal is the canonical case-scoped identity every relay operation
// works with. No operation trusts a caller-declared role.
type Principal struct {
	ID   string `json:"principalId"`
	Role string `json:"role"`
}

// Resolver is the single authorization chokepoint. It maps an inbound
// credential plus a case to exactly one principal/role, or refuses.
type Resolver struct {
	dir         directory.Repository
	clients     session.Validator
	consultants session.Validator
	delegates   session.Validator
}

func NewResolver(dir directory.Repository, clients, consultants, delegates session.Validator) *Resolver {
	return &Resolver{
		dir:         dir,
		clients:     clients,
		consultants: consultants,
		delegates:   delegates,
	}
}

// Resolve authorizes a credential against a case.
//
// Resolution order: the case's own client, then the assigned consultant,
// then a delegate employed by that consultant and assigned to the case.
// First match wins. Unknown case -> directory.ErrCaseNotFound.
func (r *Resolver) Resolve(ctx context.Context, caseID, credential string) (Principal, error) {
	cse, err := r.dir.FindCase(ctx, caseID)
	if err != nil {
		return Principal{}, err
	}
	return r.ResolveForCase(ctx, cse, credential)
}

// ResolveForCase is Resolve for callers that already hold the case,
// e.g. room operations that looked the case up via the room.
func (r *Resolver) ResolveForCase(ctx context.Context, cse directory.Case, credential string) (Principal, error) {
	if credential == "" {
		return Principal{}, ErrUnauthorized
	}

	resolved := false

	if res, ok := r.clients.Resolve(ctx, credential); ok {
		resolved = true
		if res.PrincipalID == cse.ClientID {
			return Principal{ID: res.PrincipalID, Role: RoleClient}, nil
		}
	}

	if res, ok := r.consultants.Resolve(ctx, credential); ok {
		resolved = true
		if res.PrincipalID == cse.ConsultantID {
			return Principal{ID: res.PrincipalID, Role: RoleConsultant}, nil
		}
	}

	if res, ok := r.delegates.Resolve(ctx, credential); ok {
		resolved = true
		if res.EmployerID == cse.ConsultantID && res.PrincipalID == cse.DelegateID {
			return Principal{ID: res.PrincipalID, Role: RoleDelegate}, nil
		}
	}

	if resolved {
		return Principal{}, ErrForbidden
	}
	return Principal{}, ErrUnauthorized
}
