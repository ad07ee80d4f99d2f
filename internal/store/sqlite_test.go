package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/username/workday-scheduler/internal/calendar"
	"github.com/username/workday-scheduler/pkg/dateutil"
)

func newTestSQLite(t *testing.T, country string) *SQLite {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "db", "holidays.db"), country, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleHolidays() []calendar.Holiday {
	return []calendar.Holiday{
		{Date: dateutil.MustParse("2025-12-25"), Name: "Christmas Day", Type: calendar.TypePublic},
		{Date: dateutil.MustParse("2025-01-01"), Name: "New Year's Day", Type: calendar.TypePublic},
		{Date: dateutil.MustParse("2025-07-03"), Name: "Short day", Type: calendar.TypeShortened, IsWorkingDay: true, Description: "pre-holiday"},
	}
}

func TestSQLite_UpsertAndFetch(t *testing.T) {
	s := newTestSQLite(t, "")
	ctx := context.Background()

	n, err := s.Upsert(ctx, sampleHolidays())
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	all, err := s.FetchAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)

	assert.Equal(t, dateutil.MustParse("2025-01-01"), all[0].Date, "sorted by date")
	assert.Equal(t, calendar.DefaultCountry, all[0].CountryCode)
	assert.True(t, all[1].IsWorkingDay)
	assert.Equal(t, "pre-holiday", all[1].Description)
	assert.Equal(t, "Christmas Day", all[2].Name)
}

func TestSQLite_UpsertReplaces(t *testing.T) {
	s := newTestSQLite(t, "USA")
	ctx := context.Background()

	_, err := s.Upsert(ctx, sampleHolidays())
	require.NoError(t, err)

	_, err = s.Upsert(ctx, []calendar.Holiday{
		{Date: dateutil.MustParse("2025-12-25"), Name: "Christmas", Type: calendar.TypeCompany},
	})
	require.NoError(t, err)

	all, err := s.FetchAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "Christmas", all[2].Name)
	assert.Equal(t, calendar.TypeCompany, all[2].Type)
}

func TestSQLite_UpsertDuplicateDates(t *testing.T) {
	s := newTestSQLite(t, "USA")
	ctx := context.Background()

	n, err := s.Upsert(ctx, []calendar.Holiday{
		{Date: dateutil.MustParse("2025-12-25"), Name: "Christmas Eve observed"},
		{Date: dateutil.MustParse("2025-12-25"), Name: "Christmas Day"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	all, err := s.FetchAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "Christmas Day", all[0].Name, "last record wins")
}

func TestSQLite_FetchRange(t *testing.T) {
	s := newTestSQLite(t, "")
	ctx := context.Background()

	_, err := s.Upsert(ctx, sampleHolidays())
	require.NoError(t, err)

	got, err := s.FetchRange(ctx, dateutil.MustParse("2025-01-01"), dateutil.MustParse("2025-07-03"))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "New Year's Day", got[0].Name)
	assert.Equal(t, "Short day", got[1].Name)

	got, err = s.FetchRange(ctx, dateutil.MustParse("2025-02-01"), dateutil.MustParse("2025-06-30"))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSQLite_CountryScope(t *testing.T) {
	s := newTestSQLite(t, "USA")
	ctx := context.Background()

	_, err := s.Upsert(ctx, []calendar.Holiday{
		{Date: dateutil.MustParse("2025-01-01"), Name: "New Year's Day"},
		{Date: dateutil.MustParse("2025-01-07"), Name: "Orthodox Christmas", CountryCode: "RUS"},
	})
	require.NoError(t, err)

	all, err := s.FetchAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "New Year's Day", all[0].Name)
	assert.Equal(t, calendar.TypePublic, all[0].Type, "empty type defaults to public")
}

func TestSQLite_UpsertSkipsUndated(t *testing.T) {
	s := newTestSQLite(t, "")

	n, err := s.Upsert(context.Background(), []calendar.Holiday{{Name: "no date"}})
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestSQLite_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "holidays.db")
	ctx := context.Background()

	s, err := NewSQLite(path, "", zap.NewNop())
	require.NoError(t, err)
	_, err = s.Upsert(ctx, sampleHolidays())
	require.NoError(t, err)
	require.NoError(t, s.Close())

	reopened, err := NewSQLite(path, "", zap.NewNop())
	require.NoError(t, err)
	defer reopened.Close()

	all, err := reopened.FetchAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}
