// Package api is the engine facade collaborators call: export, patch,
// parse and validate cases, and query the rule catalog. It owns start-up
// self-checks, logging and metrics; the codec and validator stay pure.
package api

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/solatis/casekeeper/internal/core/config"
	"github.com/solatis/casekeeper/internal/core/metrics"
	"github.com/solatis/casekeeper/internal/icsr"
	"github.com/solatis/casekeeper/internal/rules"
	"github.com/solatis/casekeeper/internal/types"
	"github.com/solatis/casekeeper/internal/validation"
	"github.com/solatis/casekeeper/internal/xmlpath"
)

// Service wires the codec and validator to a case loader.
// Safe for concurrent use; all shared state is read-only.
type Service struct {
	loader         validation.CaseLoader
	log            zerolog.Logger
	metrics        *metrics.Collector
	defaultProfile types.Profile
}

// NewService verifies the rule catalog against the codec's export policy
// and sizes the expression cache. loader may be nil when no case store is
// configured; metrics may be nil to disable instrumentation.
func NewService(cfg *config.Config, loader validation.CaseLoader, logger zerolog.Logger, m *metrics.Collector) (*Service, error) {
	if cfg == nil {
		return nil, fmt.Errorf("cfg cannot be nil")
	}
	if err := rules.SelfCheck(icsr.DirectiveCodes()); err != nil {
		return nil, fmt.Errorf("rule catalog self-check failed: %w", err)
	}
	if err := xmlpath.SetCacheSize(cfg.Engine.PathCacheSize); err != nil {
		return nil, fmt.Errorf("failed to size expression cache: %w", err)
	}

	logger.Debug().
		Str("catalog_version", rules.CatalogVersion()).
		Int("rules", len(rules.AllRules())).
		Msg("engine ready")

	return &Service{
		loader:         loader,
		log:            logger,
		metrics:        m,
		defaultProfile: cfg.Engine.DefaultProfile,
	}, nil
}

// observe finishes one facade call: metrics plus a debug line.
func (s *Service) observe(op string, section types.Section, profile types.Profile, started time.Time, err error) {
	s.metrics.Observe(op, section, started, err)
	ev := s.log.Debug()
	if err != nil {
		ev = s.log.Warn().Err(err)
	}
	ev.Str("operation", op).
		Str("section", string(section)).
		Str("profile", string(profile)).
		Dur("elapsed", time.Since(started)).
		Msg("engine call")
}

// ExportSection renders one record into a fresh skeleton.
func (s *Service) ExportSection(profile types.Profile, rec types.SectionRecord) (out []byte, err error) {
	defer func(start time.Time) { s.observe("export_section", sectionOf(rec), profile, start, err) }(time.Now())
	if rec == nil {
		return nil, fmt.Errorf("record cannot be nil")
	}
	return icsr.ExportSection(profile, rec)
}

// ExportCase renders every section of c into a fresh document.
func (s *Service) ExportCase(profile types.Profile, c *types.Case) (out []byte, err error) {
	defer func(start time.Time) { s.observe("export_case", "", profile, start, err) }(time.Now())
	return icsr.ExportCase(profile, c)
}

// PatchSection writes one record into an existing document.
func (s *Service) PatchSection(raw []byte, profile types.Profile, rec types.SectionRecord) (out []byte, err error) {
	defer func(start time.Time) { s.observe("patch", sectionOf(rec), profile, start, err) }(time.Now())
	if rec == nil {
		return nil, fmt.Errorf("record cannot be nil")
	}
	return icsr.Patch(raw, icsr.NewPatch(profile, rec))
}

// PatchList writes every occurrence of a repeating section, correlating
// with the occurrences already in the document.
func (s *Service) PatchList(raw []byte, profile types.Profile, section types.Section, recs []types.SectionRecord) (out []byte, err error) {
	defer func(start time.Time) { s.observe("patch", section, profile, start, err) }(time.Now())
	p, err := icsr.NewListPatch(profile, section, recs)
	if err != nil {
		return nil, err
	}
	return icsr.Patch(raw, p)
}

// PatchCase writes every section of c into an existing document.
func (s *Service) PatchCase(raw []byte, profile types.Profile, c *types.Case) (out []byte, err error) {
	defer func(start time.Time) { s.observe("patch_case", "", profile, start, err) }(time.Now())
	return icsr.PatchCase(raw, profile, c)
}

// ParseSection reads the normalized values of one section.
func (s *Service) ParseSection(raw []byte, section types.Section, profile types.Profile) (values []types.Values, ok bool, err error) {
	defer func(start time.Time) { s.observe("parse", section, profile, start, err) }(time.Now())
	return icsr.ParseSection(raw, section, profile)
}

// ParseCase reads every handled section into a case.
func (s *Service) ParseCase(raw []byte, profile types.Profile) (c *types.Case, err error) {
	defer func(start time.Time) { s.observe("parse_case", "", profile, start, err) }(time.Now())
	return icsr.ParseCase(raw, profile)
}

// CheckStructure runs the structural conformance check.
func (s *Service) CheckStructure(raw []byte) (err error) {
	defer func(start time.Time) { s.observe("check_structure", "", "", start, err) }(time.Now())
	return icsr.CheckStructure(raw)
}

// ResolveProfile picks the validation profile for c: explicit, then the
// case's own profile, then the configured default, then inference from
// the receiver identifier.
func (s *Service) ResolveProfile(explicit types.Profile, c *types.Case) (types.Profile, bool) {
	persisted, receiver := types.Profile(""), ""
	if c != nil {
		persisted, receiver = c.Profile, c.ReceiverIdentifier()
	}
	p, inferred := validation.ResolveProfile(explicit, persisted, receiver)
	if inferred && s.defaultProfile != "" {
		return s.defaultProfile, false
	}
	return p, inferred
}

// Validate checks c under the resolved profile.
func (s *Service) Validate(explicit types.Profile, c *types.Case) (report *validation.Report, err error) {
	profile, inferred := s.ResolveProfile(explicit, c)
	defer func(start time.Time) { s.observe("validate", "", profile, start, err) }(time.Now())

	if inferred {
		s.log.Warn().
			Str("profile", string(profile)).
			Str("receiver", receiverOf(c)).
			Msg("validation profile inferred from receiver identifier")
	}

	report, err = validation.Validate(profile, c)
	if err != nil {
		return nil, err
	}
	report.ProfileInferred = inferred
	s.metrics.Issues(profile, report.BlockingCount, report.NonBlockingCount)
	return report, nil
}

// ValidateCaseByID loads a case from the configured loader and validates it.
func (s *Service) ValidateCaseByID(ctx context.Context, id types.CaseID, explicit types.Profile) (*validation.Report, error) {
	c, err := s.LoadCase(ctx, id)
	if err != nil {
		return nil, err
	}
	report, err := s.Validate(explicit, c)
	if err != nil {
		return nil, err
	}
	if report.CaseID == "" {
		report.CaseID = id
	}
	return report, nil
}

// LoadCase fetches a case from the configured loader.
func (s *Service) LoadCase(ctx context.Context, id types.CaseID) (*types.Case, error) {
	if s.loader == nil {
		return nil, fmt.Errorf("no case store configured")
	}
	c, err := s.loader.LoadCase(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load case %s: %w", id, err)
	}
	if c == nil {
		return nil, fmt.Errorf("%w: %s", types.ErrCaseNotFound, id)
	}
	return c, nil
}

func sectionOf(rec types.SectionRecord) types.Section {
	if rec == nil {
		return ""
	}
	return rec.Section()
}

func receiverOf(c *types.Case) string {
	if c == nil {
		return ""
	}
	return c.ReceiverIdentifier()
}
