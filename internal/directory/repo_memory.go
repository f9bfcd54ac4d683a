package directory

import (
	"context"
	"sync"
)

// MemoryRepo is an in-memory case directory for tests and local runs.
type MemoryRepo struct {
	mu       sync.Mutex
	cases    map[string]Case
	contacts map[string]Contact
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		cases:    map[string]Case{},
		contacts: map[string]Contact{},
	}
}

func (r *MemoryRepo) PutCase(c Case) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cases[c.CaseID] = c
}

func (r *MemoryRepo) PutContact(c Contact) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.contacts[c.PrincipalID] = c
}

func (r *MemoryRepo) FindCase(ctx context.Context, caseID string) (Case, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.cases[caseID]
	if !ok {
		return Case{}, ErrCaseNotFound
	}
	return c, nil
}

func (r *MemoryRepo) ContactFor(ctx context.Context, principalID string) (Contact, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.contacts[principalID]
	if !ok {
		return Contact{}, ErrContactNotFound
	}
	return c, nil
}
