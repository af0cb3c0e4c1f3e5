package domain

// Party is one side of a reconciliation document, keyed by its national tax
// number (10 digits for corporations, 11 for individuals).
type Party struct {
	PartyID      string `json:"partyID"` // Primary key (UUID)
	TaxNumber    string `json:"taxNumber"`
	DisplayName  string `json:"displayName"`
	ContactEmail string `json:"contactEmail"`
	ContactPhone string `json:"contactPhone"`
	AuditFields
}

// ValidTaxNumber reports whether s is exactly 10 or 11 digits.
func ValidTaxNumber(s string) bool {
	if len(s) != 10 && len(s) != 11 {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
