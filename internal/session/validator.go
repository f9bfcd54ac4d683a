package session

import (
	"context"
	"time"
)

// Resolution is the outcome of offering a credential to one validator.
// EmployerID is populated only by the delegate validator.
type Resolution struct {
	PrincipalID string
	EmployerID  string
}

// Validator resolves an inbound credential to a principal, or reports
// that the credential does not belong to its population. ok=false is
// not an error; the caller simply tries the next validator.
type Validator interface {
	Resolve(ctx context.Context, credential string) (Resolution, bool)
}

// kindValidator binds a Manager to one session kind.
type kindValidator struct {
	m     *Manager
	kind  Kind
	clock func() time.Time
}

func (v kindValidator) Resolve(_ context.Context, credential string) (Resolution, bool) {
	if credential == "" {
		return Resolution{}, false
	}
	claims, err := v.m.Verify(credential, v.kind, v.clock())
	if err != nil {
		return Resolution{}, false
	}
	return Resolution{PrincipalID: claims.PrincipalID, EmployerID: claims.EmployerID}, true
}

// ClientValidator resolves client session credentials.
func ClientValidator(m *Manager) Validator {
	return kindValidator{m: m, kind: KindClient, clock: time.Now}
}

// ConsultantValidator resolves consultant session credentials.
func ConsultantValidator(m *Manager) Validator {
	return kindValidator{m: m, kind: KindConsultant, clock: time.Now}
}

// DelegateValidator resolves delegate session credentials; resolutions
// carry the employing consultant id.
func DelegateValidator(m *Manager) Validator {
	return kindValidator{m: m, kind: KindDelegate, clock: time.Now}
}
