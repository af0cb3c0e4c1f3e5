package models

import "time"

// ApprovalToken is the database shape of a single-use approval credential.
type ApprovalToken struct {
	Token          string     `db:"token"` // Primary key
	DocumentNumber string     `db:"document_number"`
	Consumed       bool       `db:"consumed"`
	ConsumedAt     *time.Time `db:"consumed_at"`
	Consents       []string   `db:"consents"`
	IssuedAt       time.Time  `db:"issued_at"`
}
