package models

// User represents an authenticated actor of the application.
type User struct {
	UserID       string  `db:"user_id"` // Primary key (UUID)
	Username     string  `db:"username"`
	Name         string  `db:"name"`
	PasswordHash string  `db:"password_hash"`
	Role         string  `db:"role"`
	PartyID      *string `db:"party_id"`
	AuditFields
}
