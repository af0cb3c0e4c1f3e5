package domain

import "time"

// Consent flag names that must all be recorded before a public approve or
// reject is permitted.
const (
	ConsentKVKK  = "kvkk"
	ConsentTerms = "terms"
)

// RequiredConsents is the fixed set of consent flags the public gateway checks.
var RequiredConsents = []string{ConsentKVKK, ConsentTerms}

// KnownConsent reports whether the flag name is one the gateway understands.
func KnownConsent(flag string) bool {
	for _, required := range RequiredConsents {
		if flag == required {
			return true
		}
	}
	return false
}

// ApprovalToken is a single-use credential that lets an unauthenticated
// external party approve or reject exactly one document. Once consumed it
// never resolves to an actionable state again.
type ApprovalToken struct {
	Token          string     `json:"token"` // opaque, unguessable value
	DocumentNumber string     `json:"documentNumber"`
	Consumed       bool       `json:"consumed"`
	ConsumedAt     *time.Time `json:"consumedAt,omitempty"`
	Consents       []string   `json:"consents"` // recorded consent flags
	IssuedAt       time.Time  `json:"issuedAt"`
}

// HasAllConsents reports whether every required consent flag is recorded.
func (t *ApprovalToken) HasAllConsents() bool {
	have := make(map[string]bool, len(t.Consents))
	for _, c := range t.Consents {
		have[c] = true
	}
	for _, required := range RequiredConsents {
		if !have[required] {
			return false
		}
	}
	return true
}

// MissingConsents lists required consent flags not yet recorded.
func (t *ApprovalToken) MissingConsents() []string {
	have := make(map[string]bool, len(t.Consents))
	for _, c := range t.Consents {
		have[c] = true
	}
	missing := make([]string, 0)
	for _, required := range RequiredConsents {
		if !have[required] {
			missing = append(missing, required)
		}
	}
	return missing
}
