package utils

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// NewDocumentNumber generates a human-readable, globally unique document
// number derived from the current date and a random component, e.g.
// MTB-20250131-9F3C21AB.
func NewDocumentNumber(now time.Time) string {
	random := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:8]
	return fmt.Sprintf("MTB-%s-%s", now.UTC().Format("20060102"), random)
}
