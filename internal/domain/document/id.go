package document

import (
	"fmt"
	"regexp"
)

var idRegex = regexp.MustCompile(`^[a-zA-Z0-9_:.-]+$`)

// MaxSourceSize is the maximum encoded size of one indexed document.
const MaxSourceSize = 10 << 20 // 10MB

// ValidateID checks a document identifier: 1-256 chars of [a-zA-Z0-9_:.-].
func ValidateID(id string) error {
	if id == "" {
		return fmt.Errorf("document ID is required")
	}
	if len(id) > 256 {
		return fmt.Errorf("document ID too long (max 256)")
	}
	if !idRegex.MatchString(id) {
		return fmt.Errorf("document ID %q must be alphanumeric with _ : . -", id)
	}
	return nil
}
