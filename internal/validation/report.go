// Package validation evaluates the rule catalog against a case and builds
// the pass/fail report for one regulatory profile.
//
// The ICH baseline validator runs every ICH rule. Regional validators wrap
// the baseline: they run it first, then append the issues of their own
// profile's rules. Rule conditions go through the same evaluator export
// policy uses, so a field the exporter marks with nullFlavor is exactly a
// field the validator reports.
package validation

import (
	"github.com/solatis/casekeeper/internal/types"
)

// Issue is one failed rule, copied from the catalog entry plus the path of
// the offending field for this case.
type Issue struct {
	Code     string        `json:"code"`
	Message  string        `json:"message"`
	Path     string        `json:"path"`
	Section  types.Section `json:"section"`
	Blocking bool          `json:"blocking"`
}

// Report is the outcome of one validation call. Build it with NewReport;
// its counters are derived from Issues and must not be edited.
type Report struct {
	Profile          types.Profile `json:"profile"`
	CaseID           types.CaseID  `json:"caseId,omitempty"`
	OK               bool          `json:"ok"`
	BlockingCount    int           `json:"blockingCount"`
	NonBlockingCount int           `json:"nonBlockingCount"`
	Issues           []Issue       `json:"issues"`
	CatalogVersion   string        `json:"catalogVersion"`
	ProfileInferred  bool          `json:"profileInferred,omitempty"`
}

// NewReport counts issues and derives OK. The issue slice is copied.
func NewReport(profile types.Profile, caseID types.CaseID, issues []Issue, catalogVersion string) *Report {
	r := &Report{
		Profile:        profile,
		CaseID:         caseID,
		Issues:         append([]Issue{}, issues...),
		CatalogVersion: catalogVersion,
	}
	for _, is := range r.Issues {
		if is.Blocking {
			r.BlockingCount++
		} else {
			r.NonBlockingCount++
		}
	}
	r.OK = r.BlockingCount == 0
	return r
}

// Blocking returns the blocking issues in report order.
func (r *Report) Blocking() []Issue {
	var out []Issue
	for _, is := range r.Issues {
		if is.Blocking {
			out = append(out, is)
		}
	}
	return out
}

// Codes returns the issue codes in report order.
func (r *Report) Codes() []string {
	out := make([]string, len(r.Issues))
	for i, is := range r.Issues {
		out[i] = is.Code
	}
	return out
}
