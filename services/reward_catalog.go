package services

import (
	"context"
	"errors"
	"sort"

	"battle-pass-service/models"
	"battle-pass-service/utils"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// RewardInput describes a new catalog entry.
type RewardInput struct {
	SeasonID   uint64 `json:"season_id" validate:"required"`
	Level      int    `json:"level" validate:"required,min=1,max=80"`
	Name       string `json:"name" validate:"required"`
	ImageURL   string `json:"image_url"`
	CoreItemID int64  `json:"core_item_id" validate:"required,gt=0"`
	WowheadID  *int64 `json:"wowhead_id" validate:"omitempty,gt=0"`
}

// RewardUpdate is a partial update. WowheadID distinguishes "not sent" from an explicit null that clears it.
type RewardUpdate struct {
	Level      *int            `json:"level" validate:"omitempty,min=1,max=80"`
	Name       *string         `json:"name"`
	ImageURL   *string         `json:"image_url"`
	CoreItemID *int64          `json:"core_item_id" validate:"omitempty,gt=0"`
	WowheadID  Optional[int64] `json:"wowhead_id"`
}

type RewardCatalog struct {
	DB      *gorm.DB
	Seasons *SeasonRegistry
	Cache   CatalogCache
	Log     *logrus.Entry
}

func NewRewardCatalog(db *gorm.DB, seasons *SeasonRegistry, cache CatalogCache, log *logrus.Entry) *RewardCatalog {
	if cache == nil {
		cache = NopCatalogCache{}
	}
	return &RewardCatalog{DB: db, Seasons: seasons, Cache: cache, Log: log}
}

// ListRewards returns the season's rewards sorted by level. The season must belong to the realm.
func (c *RewardCatalog) ListRewards(ctx context.Context, realmID, seasonID uint64) ([]models.BattlePassReward, error) {
	if _, err := c.Seasons.GetSeason(ctx, realmID, seasonID); err != nil {
		return nil, err
	}
	return c.seasonRewards(ctx, seasonID)
}

// GetReward returns a reward whose season belongs to the realm.
func (c *RewardCatalog) GetReward(ctx context.Context, realmID, id uint64) (*models.BattlePassReward, error) {
	if realmID == 0 {
		return nil, newValidationError("realm_id", "is required")
	}
	if id == 0 {
		return nil, newValidationError("reward_id", "is required")
	}
	reward, err := findRealmReward(c.DB.WithContext(ctx), realmID, id)
	if err != nil {
		return nil, storeError("get reward", "reward", id, err)
	}
	return reward, nil
}

func (c *RewardCatalog) CreateReward(ctx context.Context, realmID uint64, in RewardInput) (*models.BattlePassReward, error) {
	if realmID == 0 {
		return nil, newValidationError("realm_id", "is required")
	}
	if in.SeasonID == 0 {
		return nil, newValidationError("season_id", "is required")
	}
	reward := models.BattlePassReward{
		SeasonID:   in.SeasonID,
		Level:      in.Level,
		Name:       normalizeName(in.Name),
		ImageURL:   in.ImageURL,
		CoreItemID: in.CoreItemID,
		WowheadID:  in.WowheadID,
	}
	if err := validateReward(&reward); err != nil {
		return nil, err
	}

	err := c.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var season models.Season
		if err := tx.Where("id = ? AND realm_id = ?", in.SeasonID, realmID).First(&season).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &NotFoundError{Resource: "season", ID: in.SeasonID}
			}
			return err
		}

		var count int64
		if err := tx.Model(&models.BattlePassReward{}).Where("season_id = ?", in.SeasonID).Count(&count).Error; err != nil {
			return err
		}
		if count >= models.MaxRewardLevel {
			return newValidationError("season_id", "season already holds %d rewards", models.MaxRewardLevel)
		}
		if err := checkLevelFree(tx, in.SeasonID, reward.Level, 0); err != nil {
			return err
		}
		return tx.Create(&reward).Error
	})
	if err != nil {
		return nil, rewardWriteError("create reward", in.SeasonID, reward.Level, err)
	}

	c.Cache.InvalidateRewards(ctx, in.SeasonID)
	utils.WithRequest(c.Log, ctx).WithFields(logrus.Fields{
		"season_id": in.SeasonID,
		"reward_id": reward.ID,
		"level":     reward.Level,
	}).Info("[CATALOG] reward created")
	return &reward, nil
}

// UpdateReward applies a partial update under the same invariants as CreateReward.
func (c *RewardCatalog) UpdateReward(ctx context.Context, realmID, id uint64, upd RewardUpdate) (*models.BattlePassReward, error) {
	if realmID == 0 {
		return nil, newValidationError("realm_id", "is required")
	}
	if id == 0 {
		return nil, newValidationError("reward_id", "is required")
	}

	var reward *models.BattlePassReward
	err := c.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if reward, err = findRealmReward(tx, realmID, id); err != nil {
			return err
		}

		if upd.Level != nil {
			reward.Level = *upd.Level
		}
		if upd.Name != nil {
			reward.Name = normalizeName(*upd.Name)
		}
		if upd.ImageURL != nil {
			reward.ImageURL = *upd.ImageURL
		}
		if upd.CoreItemID != nil {
			reward.CoreItemID = *upd.CoreItemID
		}
		if upd.WowheadID.Set {
			reward.WowheadID = upd.WowheadID.Value
		}
		if err := validateReward(reward); err != nil {
			return err
		}
		if upd.Level != nil {
			if err := checkLevelFree(tx, reward.SeasonID, reward.Level, reward.ID); err != nil {
				return err
			}
		}
		return tx.Save(reward).Error
	})
	if err != nil {
		level := 0
		if upd.Level != nil {
			level = *upd.Level
		}
		return nil, rewardWriteError("update reward", id, level, err)
	}

	c.Cache.InvalidateRewards(ctx, reward.SeasonID)
	utils.WithRequest(c.Log, ctx).WithFields(logrus.Fields{
		"season_id": reward.SeasonID,
		"reward_id": reward.ID,
	}).Info("[CATALOG] reward updated")
	return reward, nil
}

// DeleteReward removes the catalog entry. Claims referencing it are left untouched.
func (c *RewardCatalog) DeleteReward(ctx context.Context, realmID, id uint64) error {
	if realmID == 0 {
		return newValidationError("realm_id", "is required")
	}
	if id == 0 {
		return newValidationError("reward_id", "is required")
	}

	var reward *models.BattlePassReward
	err := c.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if reward, err = findRealmReward(tx, realmID, id); err != nil {
			return err
		}
		return tx.Delete(&models.BattlePassReward{}, reward.ID).Error
	})
	if err != nil {
		return storeError("delete reward", "reward", id, err)
	}

	c.Cache.InvalidateRewards(ctx, reward.SeasonID)
	utils.WithRequest(c.Log, ctx).WithFields(logrus.Fields{
		"season_id": reward.SeasonID,
		"reward_id": id,
	}).Info("[CATALOG] reward deleted")
	return nil
}

func (c *RewardCatalog) seasonRewards(ctx context.Context, seasonID uint64) ([]models.BattlePassReward, error) {
	if rewards, ok := c.Cache.Rewards(ctx, seasonID); ok {
		return rewards, nil
	}
	rewards := []models.BattlePassReward{}
	if err := c.DB.WithContext(ctx).Where("season_id = ?", seasonID).Find(&rewards).Error; err != nil {
		return nil, storeError("list rewards", "season", seasonID, err)
	}
	sort.SliceStable(rewards, func(i, j int) bool {
		if rewards[i].Level != rewards[j].Level {
			return rewards[i].Level < rewards[j].Level
		}
		return rewards[i].ID < rewards[j].ID
	})
	c.Cache.StoreRewards(ctx, seasonID, rewards)
	return rewards, nil
}

func findRealmReward(db *gorm.DB, realmID, id uint64) (*models.BattlePassReward, error) {
	var reward models.BattlePassReward
	err := db.Joins("JOIN seasons ON seasons.id = battle_pass_rewards.season_id").
		Where("battle_pass_rewards.id = ? AND seasons.realm_id = ?", id, realmID).
		First(&reward).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &NotFoundError{Resource: "reward", ID: id}
	}
	if err != nil {
		return nil, err
	}
	return &reward, nil
}

func checkLevelFree(tx *gorm.DB, seasonID uint64, level int, exceptID uint64) error {
	var taken models.BattlePassReward
	err := tx.Where("season_id = ? AND level = ? AND id <> ?", seasonID, level, exceptID).Limit(1).Find(&taken).Error
	if err != nil {
		return err
	}
	if taken.ID != 0 {
		return newValidationError("level", "level %d already holds reward %d", level, taken.ID)
	}
	return nil
}

func validateReward(reward *models.BattlePassReward) error {
	if reward.Level < models.MinRewardLevel || reward.Level > models.MaxRewardLevel {
		return newValidationError("level", "must be between %d and %d", models.MinRewardLevel, models.MaxRewardLevel)
	}
	if reward.Name == "" {
		return newValidationError("name", "must not be blank")
	}
	if reward.CoreItemID <= 0 {
		return newValidationError("core_item_id", "must be positive")
	}
	if reward.WowheadID != nil && *reward.WowheadID <= 0 {
		return newValidationError("wowhead_id", "must be positive when set")
	}
	return nil
}

// rewardWriteError maps a unique-index violation that slipped past checkLevelFree to a ValidationError.
func rewardWriteError(op string, id uint64, level int, err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return newValidationError("level", "level %d is already taken in this season", level)
	}
	return storeError(op, "reward", id, err)
}
