package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/solatis/casekeeper/internal/types"
)

// ErrNoDocument indicates the case has never been exported.
var ErrNoDocument = errors.New("no exported document for case")

// CaseStore persists cases as one JSON payload per section record and keeps
// the last exported document of each case.
type CaseStore struct {
	q   *Queries
	now func() time.Time
}

type caseRow struct {
	CaseID    string `db:"case_id"`
	Profile   string `db:"profile"`
	CreatedAt string `db:"created_at"`
	UpdatedAt string `db:"updated_at"`
}

type sectionRow struct {
	Section string `db:"section"`
	Seq     int    `db:"seq"`
	Payload string `db:"payload"`
}

type documentRow struct {
	CaseID     string `db:"case_id"`
	Profile    string `db:"profile"`
	Document   string `db:"document"`
	ExportedAt string `db:"exported_at"`
}

// Document is the last exported XML of a case.
type Document struct {
	CaseID     types.CaseID
	Profile    types.Profile
	Raw        []byte
	ExportedAt time.Time
}

// NewCaseStore loads the named queries for db. Migrations must already be
// applied.
func NewCaseStore(db *sqlx.DB) (*CaseStore, error) {
	q, err := LoadQueries(db)
	if err != nil {
		return nil, err
	}
	return &CaseStore{q: q, now: time.Now}, nil
}

// LoadCase returns the case stored under id. Unknown IDs yield an error
// wrapping types.ErrCaseNotFound.
func (s *CaseStore) LoadCase(ctx context.Context, id types.CaseID) (*types.Case, error) {
	var row caseRow
	if err := s.q.Get(ctx, &row, "get-case", string(id)); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", types.ErrCaseNotFound, id)
		}
		return nil, fmt.Errorf("failed to load case %s: %w", id, err)
	}

	var rows []sectionRow
	if err := s.q.Select(ctx, &rows, "list-case-sections", string(id)); err != nil {
		return nil, fmt.Errorf("failed to load sections of case %s: %w", id, err)
	}

	c := &types.Case{ID: types.CaseID(row.CaseID), Profile: types.Profile(row.Profile)}
	bySection := make(map[types.Section][]types.SectionRecord)
	for _, r := range rows {
		section := types.Section(r.Section)
		rec, err := types.NewRecord(section)
		if err != nil {
			return nil, fmt.Errorf("case %s: %w", id, err)
		}
		if err := json.Unmarshal([]byte(r.Payload), rec); err != nil {
			return nil, fmt.Errorf("case %s: invalid %s payload %d: %w", id, section, r.Seq, err)
		}
		bySection[section] = append(bySection[section], rec)
	}
	for section, recs := range bySection {
		if err := c.SetRecords(section, recs); err != nil {
			return nil, fmt.Errorf("case %s: %w", id, err)
		}
	}
	return c, nil
}

// SaveCase stores c, replacing every section it held before. A case
// without ID gets a new one; the stored ID is returned.
func (s *CaseStore) SaveCase(ctx context.Context, c *types.Case) (types.CaseID, error) {
	if c.Profile != "" {
		if _, err := types.ParseProfile(string(c.Profile)); err != nil {
			return "", err
		}
	}
	id := c.ID
	if id == "" {
		id = types.NewCaseID()
	}
	now := s.now().UTC().Format(time.RFC3339)

	err := s.q.InTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := s.q.Exec(ctx, tx, "insert-case", string(id), string(c.Profile), now, now); err != nil {
			return fmt.Errorf("failed to save case: %w", err)
		}
		if _, err := s.q.Exec(ctx, tx, "delete-case-sections", string(id)); err != nil {
			return fmt.Errorf("failed to clear sections: %w", err)
		}
		for _, section := range types.Sections {
			for seq, rec := range c.Records(section) {
				payload, err := json.Marshal(rec)
				if err != nil {
					return fmt.Errorf("failed to encode %s %d: %w", section, seq, err)
				}
				if _, err := s.q.Exec(ctx, tx, "insert-case-section", string(id), string(section), seq, string(payload)); err != nil {
					return fmt.Errorf("failed to save %s %d: %w", section, seq, err)
				}
			}
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

// SaveDocument records raw as the last document exported for id.
func (s *CaseStore) SaveDocument(ctx context.Context, id types.CaseID, profile types.Profile, raw []byte) error {
	now := s.now().UTC().Format(time.RFC3339)
	if _, err := s.q.Exec(ctx, nil, "upsert-case-document", string(id), string(profile), string(raw), now); err != nil {
		return fmt.Errorf("failed to save document for case %s: %w", id, err)
	}
	return nil
}

// LoadDocument returns the last document exported for id, or an error
// wrapping ErrNoDocument.
func (s *CaseStore) LoadDocument(ctx context.Context, id types.CaseID) (*Document, error) {
	var row documentRow
	if err := s.q.Get(ctx, &row, "get-case-document", string(id)); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrNoDocument, id)
		}
		return nil, fmt.Errorf("failed to load document for case %s: %w", id, err)
	}
	exported, err := time.Parse(time.RFC3339, row.ExportedAt)
	if err != nil {
		return nil, fmt.Errorf("case %s: invalid export time %q: %w", id, row.ExportedAt, err)
	}
	return &Document{
		CaseID:     types.CaseID(row.CaseID),
		Profile:    types.Profile(row.Profile),
		Raw:        []byte(row.Document),
		ExportedAt: exported,
	}, nil
}
