package services

import (
	"context"
	"testing"
	"time"

	"battle-pass-service/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetActiveSeasonWindow(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)

	a := mustSeason(t, db, 1, "Season A", date(2024, 1, 1), date(2024, 2, 1))
	b := mustSeason(t, db, 1, "Season B", date(2024, 2, 1), date(2024, 3, 1))
	mustSeason(t, db, 2, "Other realm", date(2024, 1, 1), date(2025, 1, 1))

	cases := []struct {
		name string
		now  time.Time
		want uint64
	}{
		{"MidB", date(2024, 2, 15), b.ID},
		{"MidA", date(2024, 1, 15), a.ID},
		{"BoundaryBelongsToLater", date(2024, 2, 1), b.ID},
		{"StartInclusive", date(2024, 1, 1), a.ID},
		{"AfterAll", date(2024, 3, 15), 0},
		{"EndExclusive", date(2024, 3, 1), 0},
		{"BeforeAll", date(2023, 12, 31), 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			season, err := newTestRegistry(db, tc.now).GetActiveSeason(ctx, 1)
			require.NoError(t, err)
			if tc.want == 0 {
				assert.Nil(t, season)
				return
			}
			require.NotNil(t, season)
			assert.Equal(t, tc.want, season.ID)
			assert.True(t, season.IsActive)
		})
	}
}

func TestSelectActiveSeasonOverlapPrefersNewest(t *testing.T) {
	now := date(2024, 5, 10)
	seasons := []models.Season{
		{ID: 1, StartDate: date(2024, 5, 1), EndDate: date(2024, 6, 1), Timestamps: models.Timestamps{CreatedAt: date(2024, 4, 1)}},
		{ID: 2, StartDate: date(2024, 5, 5), EndDate: date(2024, 5, 20), Timestamps: models.Timestamps{CreatedAt: date(2024, 4, 20)}},
		{ID: 3, StartDate: date(2024, 4, 1), EndDate: date(2024, 7, 1), Timestamps: models.Timestamps{CreatedAt: date(2024, 4, 20)}},
		{ID: 4, StartDate: date(2024, 6, 1), EndDate: date(2024, 7, 1), Timestamps: models.Timestamps{CreatedAt: date(2024, 4, 30)}},
	}

	active := SelectActiveSeason(seasons, now)
	require.NotNil(t, active)
	assert.Equal(t, uint64(3), active.ID, "same created_at falls back to the larger id")
	assert.False(t, seasons[2].IsActive, "input must not be modified")

	assert.Nil(t, SelectActiveSeason(nil, now))
}

func TestListSeasons(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	mustSeason(t, db, 1, "Later", date(2024, 3, 1), date(2024, 4, 1))
	mustSeason(t, db, 1, "Earlier", date(2024, 1, 1), date(2024, 2, 1))

	seasons, err := newTestRegistry(db, date(2024, 3, 10)).ListSeasons(ctx, 1)
	require.NoError(t, err)
	require.Len(t, seasons, 2)
	assert.Equal(t, "Earlier", seasons[0].Name)
	assert.False(t, seasons[0].IsActive)
	assert.True(t, seasons[1].IsActive)

	empty, err := newTestRegistry(db, date(2024, 3, 10)).ListSeasons(ctx, 99)
	require.NoError(t, err)
	assert.Empty(t, empty)

	_, err = newTestRegistry(db, date(2024, 3, 10)).ListSeasons(ctx, 0)
	var validationErr *ValidationError
	assert.ErrorAs(t, err, &validationErr)
}

func TestCreateSeason(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	registry := newTestRegistry(db, date(2024, 1, 10))

	t.Run("Valid", func(t *testing.T) {
		season, err := registry.CreateSeason(ctx, 1, "  Rise of the Lich King ", date(2024, 1, 1), date(2024, 2, 1))
		require.NoError(t, err)
		assert.NotZero(t, season.ID)
		assert.Equal(t, "Rise of the Lich King", season.Name)
		assert.Equal(t, "rise-of-the-lich-king", season.Slug)
		assert.True(t, season.IsActive)
	})

	invalid := []struct {
		name       string
		season     string
		start, end time.Time
		field      string
	}{
		{"BlankName", "   ", date(2024, 5, 1), date(2024, 6, 1), "name"},
		{"StartEqualsEnd", "S", date(2024, 5, 1), date(2024, 5, 1), "end_date"},
		{"StartAfterEnd", "S", date(2024, 6, 1), date(2024, 5, 1), "end_date"},
		{"Overlap", "S", date(2024, 1, 20), date(2024, 3, 1), "start_date"},
	}
	for _, tc := range invalid {
		t.Run(tc.name, func(t *testing.T) {
			_, err := registry.CreateSeason(ctx, 1, tc.season, tc.start, tc.end)
			var validationErr *ValidationError
			require.ErrorAs(t, err, &validationErr)
			assert.Equal(t, tc.field, validationErr.Field)
		})
	}

	t.Run("AdjacentWindowsAllowed", func(t *testing.T) {
		_, err := registry.CreateSeason(ctx, 1, "Next", date(2024, 2, 1), date(2024, 3, 1))
		require.NoError(t, err)
	})

	t.Run("OverlapInOtherRealmAllowed", func(t *testing.T) {
		_, err := registry.CreateSeason(ctx, 2, "Elsewhere", date(2024, 1, 1), date(2024, 2, 1))
		require.NoError(t, err)
	})
}

func TestUpdateSeason(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	registry := newTestRegistry(db, date(2024, 1, 10))

	first := mustSeason(t, db, 1, "First", date(2024, 1, 1), date(2024, 2, 1))
	second := mustSeason(t, db, 1, "Second", date(2024, 2, 1), date(2024, 3, 1))

	t.Run("PartialName", func(t *testing.T) {
		name := "Renamed"
		updated, err := registry.UpdateSeason(ctx, 1, first.ID, SeasonUpdate{Name: &name})
		require.NoError(t, err)
		assert.Equal(t, "Renamed", updated.Name)
		assert.Equal(t, "renamed", updated.Slug)
		assert.True(t, updated.StartDate.Equal(first.StartDate))
		assert.True(t, updated.EndDate.Equal(first.EndDate))
	})

	t.Run("MergedDatesValidated", func(t *testing.T) {
		end := date(2023, 12, 1)
		_, err := registry.UpdateSeason(ctx, 1, first.ID, SeasonUpdate{EndDate: &end})
		var validationErr *ValidationError
		require.ErrorAs(t, err, &validationErr)
		assert.Equal(t, "end_date", validationErr.Field)
	})

	t.Run("BlankNameRejected", func(t *testing.T) {
		blank := ""
		_, err := registry.UpdateSeason(ctx, 1, first.ID, SeasonUpdate{Name: &blank})
		var validationErr *ValidationError
		require.ErrorAs(t, err, &validationErr)
		assert.Equal(t, "name", validationErr.Field)
	})

	t.Run("OverlapWithSibling", func(t *testing.T) {
		end := date(2024, 2, 10)
		_, err := registry.UpdateSeason(ctx, 1, first.ID, SeasonUpdate{EndDate: &end})
		var validationErr *ValidationError
		require.ErrorAs(t, err, &validationErr)
		assert.Equal(t, "start_date", validationErr.Field)
	})

	t.Run("ShiftOwnWindow", func(t *testing.T) {
		start := date(2024, 2, 5)
		updated, err := registry.UpdateSeason(ctx, 1, second.ID, SeasonUpdate{StartDate: &start})
		require.NoError(t, err)
		assert.True(t, updated.StartDate.Equal(start))
	})

	t.Run("WrongRealm", func(t *testing.T) {
		name := "x"
		_, err := registry.UpdateSeason(ctx, 2, first.ID, SeasonUpdate{Name: &name})
		var notFound *NotFoundError
		assert.ErrorAs(t, err, &notFound)
	})

	t.Run("UnknownID", func(t *testing.T) {
		name := "x"
		_, err := registry.UpdateSeason(ctx, 1, 4242, SeasonUpdate{Name: &name})
		var notFound *NotFoundError
		assert.ErrorAs(t, err, &notFound)
	})
}

func TestGetSeason(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	registry := newTestRegistry(db, date(2024, 1, 10))
	season := mustSeason(t, db, 1, "S", date(2024, 1, 1), date(2024, 2, 1))

	got, err := registry.GetSeason(ctx, 1, season.ID)
	require.NoError(t, err)
	assert.Equal(t, season.ID, got.ID)
	assert.True(t, got.IsActive)

	_, err = registry.GetSeason(ctx, 2, season.ID)
	var notFound *NotFoundError
	assert.ErrorAs(t, err, &notFound)
}
