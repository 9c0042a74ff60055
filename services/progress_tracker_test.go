package services

import (
	"context"
	"testing"

	"battle-pass-service/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetProgress(t *testing.T) {
	ctx := context.Background()
	f := newClaimFixture(t, 5, 40, 80)
	f.oracle.setLevel(45)

	t.Run("ZeroState", func(t *testing.T) {
		progress, err := f.tracker.GetProgress(ctx, f.request(5).key())
		require.NoError(t, err)
		assert.Equal(t, 45, progress.CharacterLevel)
		require.NotNil(t, progress.ClaimedRewardIDs)
		assert.Empty(t, progress.ClaimedRewardIDs)
	})

	t.Run("AfterClaims", func(t *testing.T) {
		_, err := f.engine.Claim(ctx, f.request(40))
		require.NoError(t, err)
		_, err = f.engine.Claim(ctx, f.request(5))
		require.NoError(t, err)

		progress, err := f.tracker.GetProgress(ctx, f.request(5).key())
		require.NoError(t, err)
		assert.ElementsMatch(t, []uint64{f.rewards[5].ID, f.rewards[40].ID}, progress.ClaimedRewardIDs)
	})

	t.Run("OtherCharacterUnaffected", func(t *testing.T) {
		key := f.request(5).key()
		key.CharacterID = 101
		progress, err := f.tracker.GetProgress(ctx, key)
		require.NoError(t, err)
		assert.Empty(t, progress.ClaimedRewardIDs)
	})

	t.Run("UnknownSeason", func(t *testing.T) {
		key := f.request(5).key()
		key.SeasonID = 999
		_, err := f.tracker.GetProgress(ctx, key)
		var notFound *NotFoundError
		assert.ErrorAs(t, err, &notFound)
	})

	t.Run("MissingCharacter", func(t *testing.T) {
		key := f.request(5).key()
		key.CharacterID = 0
		_, err := f.tracker.GetProgress(ctx, key)
		var validationErr *ValidationError
		require.ErrorAs(t, err, &validationErr)
		assert.Equal(t, "character_id", validationErr.Field)
	})
}

func TestLadder(t *testing.T) {
	ctx := context.Background()
	f := newClaimFixture(t, 5, 40, 80)
	f.oracle.setLevel(45)

	_, err := f.engine.Claim(ctx, f.request(5))
	require.NoError(t, err)

	key := f.request(5).key()
	key.SeasonID = 0
	view, err := f.tracker.Ladder(ctx, key)
	require.NoError(t, err)

	assert.Equal(t, f.season.ID, view.Season.ID)
	assert.True(t, view.Season.IsActive)
	assert.Equal(t, 45, view.CharacterLevel)
	require.Len(t, view.Slots, models.MaxRewardLevel)

	assert.True(t, view.Slots[4].Claimed)
	assert.False(t, view.Slots[4].Claimable)
	assert.True(t, view.Slots[39].Claimable)
	assert.False(t, view.Slots[79].Unlocked)
	assert.False(t, view.Slots[0].Claimable)

	t.Run("RecomputedAfterCatalogEdit", func(t *testing.T) {
		extra := mustReward(t, f.db, f.season.ID, 10)
		view, err := f.tracker.Ladder(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, extra.ID, view.Slots[9].RewardID)
		assert.True(t, view.Slots[9].Claimable)
	})

	t.Run("NoActiveSeason", func(t *testing.T) {
		key := key
		key.RealmID = 77
		_, err := f.tracker.Ladder(ctx, key)
		var notFound *NotFoundError
		assert.ErrorAs(t, err, &notFound)
	})
}
