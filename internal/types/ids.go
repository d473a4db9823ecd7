package types

import (
	"encoding/hex"
	"fmt"

	"github.com/google/uuid"
)

// CaseID identifies one case in the data-access collaborator.
// String alias keeps JSON and SQL representations plain.
type CaseID string

// NewCaseID generates a UUIDv7 case identifier.
// Panics on clock regression (uuid.Must); acceptable for ID generation.
func NewCaseID() CaseID {
	return CaseID(uuid.Must(uuid.NewV7()).String())
}

// ParseCaseID validates and converts a string to CaseID.
func ParseCaseID(s string) (CaseID, error) {
	if _, err := uuid.Parse(s); err != nil {
		return "", fmt.Errorf("%w %q: %v", ErrInvalidCaseID, s, err)
	}
	return CaseID(s), nil
}

// NewMessageID generates a hyphen-free UUIDv7 identifier for batch and
// message wrappers, optionally prefixed with the sender.
func NewMessageID(prefix string) string {
	id := uuid.Must(uuid.NewV7())
	s := hex.EncodeToString(id[:])
	if prefix == "" {
		return s
	}
	return prefix + "-" + s
}
