package models

// Party is the database shape of a reconciliation party. The tax number
// carries a unique constraint; concurrent inserts resolve first-writer-wins.
type Party struct {
	PartyID      string `db:"party_id"` // Primary key (UUID)
	TaxNumber    string `db:"tax_number"`
	DisplayName  string `db:"display_name"`
	ContactEmail string `db:"contact_email"`
	ContactPhone string `db:"contact_phone"`
	AuditFields
}
