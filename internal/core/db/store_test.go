package db

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solatis/casekeeper/internal/types"
)

func openTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := Open(context.Background(), "sqlite://"+filepath.Join(t.TempDir(), "cases.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, MigrateUp(context.Background(), db))
	return db
}

func testCase() *types.Case {
	day := func(m time.Month, d int) time.Time { return time.Date(2024, m, d, 0, 0, 0, 0, time.UTC) }
	return &types.Case{
		Profile:       types.ProfileFDA,
		MessageHeader: &types.MessageHeader{BatchNumber: "B-1", MessageIdentifier: "M-1", MessageDate: day(3, 1)},
		SafetyReport: &types.SafetyReport{
			SenderSafetyReportID:    "US-1",
			CreationDate:            day(2, 28),
			FulfilExpeditedCriteria: types.Bool(true),
		},
		PrimarySources: []types.PrimarySource{
			{GivenName: "Ada", PrimaryForRegulatory: "1"},
			{Organization: "General Hospital"},
		},
		Reactions: []types.Reaction{
			{ID: "r-1", PrimarySourceReaction: "rash", Outcome: "2"},
			{ID: "r-2", PrimarySourceReaction: "fever", Hospitalization: types.Bool(false)},
		},
		Drugs:     []types.Drug{{ProductName: "Examplinib"}},
		Narrative: &types.Narrative{CaseNarrative: "n"},
	}
}

func TestMigrateUp_Idempotent(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, MigrateUp(context.Background(), db))

	statuses, err := MigrateStatus(context.Background(), db)
	require.NoError(t, err)
	require.NotEmpty(t, statuses)
	for _, s := range statuses {
		assert.True(t, s.Applied, "migration %s", s.ID)
		assert.NotNil(t, s.AppliedAt, "migration %s", s.ID)
		assert.Len(t, s.Checksum, 64)
	}
	assert.Equal(t, "001_initial_schema.sql", statuses[0].ID)
}

func TestOpen_UnsupportedScheme(t *testing.T) {
	_, err := Open(context.Background(), "mysql://localhost/cases")
	assert.ErrorContains(t, err, "unsupported database scheme")
}

func TestSplitStatements(t *testing.T) {
	got := splitStatements("-- header; with semicolon\nCREATE TABLE a (x INT);\n  -- note\nCREATE TABLE b (y INT);\n")
	assert.Equal(t, []string{"CREATE TABLE a (x INT)", "CREATE TABLE b (y INT)"}, got)
}

func TestMigrateUp_ChecksumMismatch(t *testing.T) {
	db := openTestDB(t)
	_, err := db.Exec("UPDATE migrations SET checksum = 'tampered'")
	require.NoError(t, err)

	err = MigrateUp(context.Background(), db)
	assert.ErrorContains(t, err, "checksum mismatch for migration 001_initial_schema.sql")
}

func TestCaseStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store, err := NewCaseStore(openTestDB(t))
	require.NoError(t, err)

	want := testCase()
	id, err := store.SaveCase(ctx, want)
	require.NoError(t, err)
	require.NotEmpty(t, id)

	got, err := store.LoadCase(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, got.ID)
	assert.Equal(t, types.ProfileFDA, got.Profile)
	for _, s := range types.Sections {
		assert.Equal(t, want.SectionValues(s), got.SectionValues(s), "section %s", s)
	}
	assert.Nil(t, got.Patient)
}

func TestCaseStore_SaveReplacesSections(t *testing.T) {
	ctx := context.Background()
	store, err := NewCaseStore(openTestDB(t))
	require.NoError(t, err)

	c := testCase()
	c.ID = "case-1"
	_, err = store.SaveCase(ctx, c)
	require.NoError(t, err)

	c.Reactions = c.Reactions[:1]
	c.Narrative = nil
	c.Profile = types.ProfileMFDS
	_, err = store.SaveCase(ctx, c)
	require.NoError(t, err)

	got, err := store.LoadCase(ctx, "case-1")
	require.NoError(t, err)
	assert.Len(t, got.Reactions, 1)
	assert.Nil(t, got.Narrative)
	assert.Equal(t, types.ProfileMFDS, got.Profile)
}

func TestCaseStore_Errors(t *testing.T) {
	ctx := context.Background()
	store, err := NewCaseStore(openTestDB(t))
	require.NoError(t, err)

	_, err = store.LoadCase(ctx, "missing")
	assert.ErrorIs(t, err, types.ErrCaseNotFound)

	_, err = store.SaveCase(ctx, &types.Case{Profile: "EMA"})
	assert.ErrorIs(t, err, types.ErrUnknownProfile)

	_, err = store.LoadDocument(ctx, "missing")
	assert.ErrorIs(t, err, ErrNoDocument)
}

func TestCaseStore_Documents(t *testing.T) {
	ctx := context.Background()
	store, err := NewCaseStore(openTestDB(t))
	require.NoError(t, err)
	fixed := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return fixed }

	id, err := store.SaveCase(ctx, testCase())
	require.NoError(t, err)

	require.NoError(t, store.SaveDocument(ctx, id, types.ProfileFDA, []byte("<a/>")))
	require.NoError(t, store.SaveDocument(ctx, id, types.ProfileICH, []byte("<b/>")))

	doc, err := store.LoadDocument(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, doc.CaseID)
	assert.Equal(t, types.ProfileICH, doc.Profile)
	assert.Equal(t, []byte("<b/>"), doc.Raw)
	assert.True(t, fixed.Equal(doc.ExportedAt))

	// Documents reference a stored case.
	assert.Error(t, store.SaveDocument(ctx, "unknown", types.ProfileICH, []byte("<a/>")))
}
