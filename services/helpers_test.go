package services

import (
	"testing"
	"time"

	"battle-pass-service/database"
	"battle-pass-service/models"
	"battle-pass-service/utils"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.OpenMemory(uuid.NewString())
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })
	return db
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func newTestRegistry(db *gorm.DB, now time.Time) *SeasonRegistry {
	registry := NewSeasonRegistry(db, nil, utils.NewDiscardLogger())
	registry.Now = fixedClock(now)
	return registry
}

func newTestCatalog(db *gorm.DB, now time.Time) *RewardCatalog {
	return NewRewardCatalog(db, newTestRegistry(db, now), nil, utils.NewDiscardLogger())
}

func mustSeason(t *testing.T, db *gorm.DB, realmID uint64, name string, start, end time.Time) models.Season {
	t.Helper()
	season := models.Season{RealmID: realmID, Name: name, Slug: seasonSlug(name), StartDate: start, EndDate: end}
	require.NoError(t, db.Create(&season).Error)
	return season
}

func mustReward(t *testing.T, db *gorm.DB, seasonID uint64, level int) models.BattlePassReward {
	t.Helper()
	reward := models.BattlePassReward{SeasonID: seasonID, Level: level, Name: "Reward", CoreItemID: int64(1000 + level)}
	require.NoError(t, db.Create(&reward).Error)
	return reward
}
