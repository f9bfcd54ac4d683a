package session

import "github.com/golang-jwt/jwt/v5"

// Kind tags which participant population a session token belongs to.
// A token carries exactly one kind; validators for other kinds treat it
// as unresolvable rather than invalid.
type Kind string

const (
	KindClient     Kind = "client"
	KindConsultant Kind = "consultant"
	KindDelegate   Kind = "delegate"
)

// Claims are the only supported JWT claims shape for this service.
//
// PrincipalID identifies the client, consultant, or delegate account.
// EmployerID is set only on delegate sessions and names the consultant
// firm the delegate works for; authorization needs it to tie a delegate
// to a case through the case's assigned consultant.
type Claims struct {
	jwt.RegisteredClaims

	PrincipalID string `json:"principal_id"`
	SessionKind Kind   `json:"session_kind"`
	EmployerID  string `json:"employer_id,omitempty"`
}
