package models

const (
	// MinRewardLevel and MaxRewardLevel bound the ladder; a season has one reward slot per level.
	MinRewardLevel = 1
	MaxRewardLevel = 80
)

// BattlePassReward is the benefit configured at one level of a season's ladder.
// Rows are hard-deleted by admins; claims keep the reward id so history survives catalog edits.
type BattlePassReward struct {
	ID         uint64 `json:"id" gorm:"primaryKey;autoIncrement"`
	SeasonID   uint64 `json:"season_id" gorm:"not null;uniqueIndex:idx_bp_reward_season_level"`
	Level      int    `json:"level" gorm:"not null;uniqueIndex:idx_bp_reward_season_level;check:level >= 1 AND level <= 80"`
	Name       string `json:"name" gorm:"not null"`
	ImageURL   string `json:"image_url" gorm:"type:text"`
	CoreItemID int64  `json:"core_item_id" gorm:"not null"`
	WowheadID  *int64 `json:"wowhead_id"` // optional external reference

	Timestamps
}

// TableName keeps the catalog table name stable regardless of struct renames.
func (BattlePassReward) TableName() string {
	return "battle_pass_rewards"
}
