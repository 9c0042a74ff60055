package services

import (
	"testing"

	"battle-pass-service/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildLadder(t *testing.T) {
	t.Run("SparseCatalogStillHas80Slots", func(t *testing.T) {
		rewards := []models.BattlePassReward{
			{ID: 10, Level: 5, Name: "Mount"},
			{ID: 11, Level: 40, Name: "Pet"},
			{ID: 12, Level: 80, Name: "Title"},
		}

		slots := BuildLadder(rewards, 50, nil)

		require.Len(t, slots, models.MaxRewardLevel)
		for i, slot := range slots {
			assert.Equal(t, i+1, slot.Level)
			switch slot.Level {
			case 5, 40, 80:
				assert.NotZero(t, slot.RewardID, "level %d", slot.Level)
				require.NotNil(t, slot.Reward)
				assert.Equal(t, slot.Level, slot.Reward.Level)
			default:
				assert.Zero(t, slot.RewardID, "level %d", slot.Level)
				assert.Nil(t, slot.Reward)
				assert.False(t, slot.Claimable, "level %d", slot.Level)
			}
		}
		assert.True(t, slots[4].Claimable)
		assert.True(t, slots[39].Claimable)
		assert.False(t, slots[79].Claimable, "level 80 is still locked at level 50")
	})

	t.Run("EmptyCatalog", func(t *testing.T) {
		slots := BuildLadder(nil, 80, nil)
		require.Len(t, slots, models.MaxRewardLevel)
		for _, slot := range slots {
			assert.True(t, slot.Unlocked)
			assert.False(t, slot.Claimable)
		}
	})

	t.Run("ClaimedIsNotClaimable", func(t *testing.T) {
		rewards := []models.BattlePassReward{{ID: 7, Level: 3}}
		slots := BuildLadder(rewards, 10, []uint64{7, 999})

		assert.True(t, slots[2].Claimed)
		assert.False(t, slots[2].Claimable)
	})

	t.Run("DuplicateLevelLowestIDWins", func(t *testing.T) {
		rewards := []models.BattlePassReward{
			{ID: 30, Level: 2, Name: "later"},
			{ID: 20, Level: 2, Name: "earlier"},
		}
		slots := BuildLadder(rewards, 1, nil)
		assert.Equal(t, uint64(20), slots[1].RewardID)
		assert.Equal(t, "earlier", slots[1].Reward.Name)
	})

	t.Run("OutOfRangeLevelsIgnored", func(t *testing.T) {
		rewards := []models.BattlePassReward{{ID: 1, Level: 0}, {ID: 2, Level: 81}, {ID: 3, Level: -4}}
		slots := BuildLadder(rewards, 80, nil)
		require.Len(t, slots, models.MaxRewardLevel)
		for _, slot := range slots {
			assert.Zero(t, slot.RewardID)
		}
	})

	t.Run("SlotsDoNotAliasInput", func(t *testing.T) {
		rewards := []models.BattlePassReward{{ID: 1, Level: 1, Name: "before"}}
		slots := BuildLadder(rewards, 1, nil)
		rewards[0].Name = "after"
		assert.Equal(t, "before", slots[0].Reward.Name)
	})
}

// A level once reached stays unlocked no matter how the rest of the catalog changes.
func TestBuildLadderMonotonicUnlock(t *testing.T) {
	base := []models.BattlePassReward{
		{ID: 1, Level: 10},
		{ID: 2, Level: 20},
		{ID: 3, Level: 30},
	}
	edited := []models.BattlePassReward{
		{ID: 1, Level: 10},
		{ID: 3, Level: 30},
		{ID: 4, Level: 15},
		{ID: 5, Level: 79},
	}

	for charLevel := 0; charLevel <= models.MaxRewardLevel; charLevel++ {
		before := BuildLadder(base, charLevel, nil)
		after := BuildLadder(edited, charLevel, nil)
		higher := BuildLadder(edited, charLevel+1, nil)
		for i := range before {
			if before[i].Unlocked {
				assert.True(t, after[i].Unlocked, "char level %d, slot %d re-locked after catalog edit", charLevel, i+1)
				assert.True(t, higher[i].Unlocked, "char level %d, slot %d re-locked after level up", charLevel, i+1)
			}
		}
	}
}
