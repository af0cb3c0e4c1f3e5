package domain

// UserRole is the closed enumeration of actor roles. Role checks happen in
// exactly one place (the authorization guard) so UI-level and
// enforcement-level lists cannot drift.
type UserRole string

const (
	RoleAdmin        UserRole = "ADMIN"
	RoleAccounting   UserRole = "ACCOUNTING"
	RolePlanning     UserRole = "PLANNING"
	RoleCounterparty UserRole = "COUNTERPARTY" // external customer/supplier user
)

// privilegedRoles is the creation set: roles allowed to create, send and
// delete documents on behalf of the sender party.
var privilegedRoles = map[UserRole]bool{
	RoleAdmin:      true,
	RoleAccounting: true,
	RolePlanning:   true,
}

// IsPrivileged reports whether the role belongs to the privileged creation set.
func (r UserRole) IsPrivileged() bool {
	return privilegedRoles[r]
}

// User represents an authenticated actor.
type User struct {
	UserID       string   `json:"userID"` // Primary key (UUID)
	Username     string   `json:"username"`
	Name         string   `json:"name"`
	PasswordHash string   `json:"-"`
	Role         UserRole `json:"role"`
	PartyID      *string  `json:"partyID,omitempty"` // party this user acts for, if any
	AuditFields
}
