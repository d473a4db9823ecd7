package validation

import (
	"context"
	"strings"

	"github.com/solatis/casekeeper/internal/types"
)

// CaseLoader fetches a persisted case. Implementations return an error
// wrapping types.ErrCaseNotFound for unknown IDs.
type CaseLoader interface {
	LoadCase(ctx context.Context, id types.CaseID) (*types.Case, error)
}

// ResolveProfile picks the profile for a validation call: an explicit
// request wins, then the profile persisted on the case, then inference from
// the receiver identifier. inferred is true only in the last case.
func ResolveProfile(explicit, persisted types.Profile, receiverID string) (p types.Profile, inferred bool) {
	if explicit != "" {
		return explicit, false
	}
	if persisted != "" {
		return persisted, false
	}
	if strings.Contains(strings.ToUpper(receiverID), "MFDS") {
		return types.ProfileMFDS, true
	}
	return types.ProfileFDA, true
}
