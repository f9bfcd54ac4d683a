package directory

// Case is the external record owning the client/consultant/delegate
// relationship. The relay only reads it for authorization and for
// resolving the missed-call follower; case CRUD lives elsewhere.
type Case struct {
	CaseID       string `json:"case_id" db:"case_id"`
	Title        string `json:"title" db:"title"`
	ClientID     string `json:"client_id" db:"client_id"`
	ConsultantID string `json:"consultant_id" db:"consultant_id"`

	// DelegateID is set when the consultant has delegated this case to a
	// team member. Empty means no delegation.
	DelegateID string `json:"delegate_id,omitempty" db:"delegate_id"`
}

// FollowerID is the case's currently responsible contact: the delegate
// when one is assigned, otherwise the consultant.
func (c Case) FollowerID() string {
	if c.DelegateID != "" {
		return c.DelegateID
	}
	return c.ConsultantID
}

// Contact is the notification target for a principal.
type Contact struct {
	PrincipalID string `json:"principal_id" db:"principal_id"`
	Name        string `json:"name" db:"name"`
	Email       string `json:"email" db:"email"`
}
