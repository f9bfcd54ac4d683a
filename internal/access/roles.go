package access

// Role names. Keep these stable; they appear in API responses and in
// the call-event log.
const (
	RoleClient     = "client"
	RoleConsultant = "consultant"
	RoleDelegate   = "delegate"
)

// CanJoin reports whether a role may answer an incoming call. Clients
// never join; they only originate.
func CanJoin(role string) bool {
	return role == RoleConsultant || role == RoleDelegate
}
