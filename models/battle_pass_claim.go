package models

import "time"

// BattlePassClaim records that a character received a reward in a season.
// The unique index over the full key is what makes a claim at-most-once.
type BattlePassClaim struct {
	ID          string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	RealmID     uint64    `gorm:"not null;uniqueIndex:idx_bp_claim_key,priority:1" json:"realm_id"`
	AccountID   uint64    `gorm:"not null;uniqueIndex:idx_bp_claim_key,priority:2" json:"account_id"`
	CharacterID uint64    `gorm:"not null;uniqueIndex:idx_bp_claim_key,priority:3" json:"character_id"`
	SeasonID    uint64    `gorm:"not null;uniqueIndex:idx_bp_claim_key,priority:4" json:"season_id"`
	RewardID    uint64    `gorm:"not null;uniqueIndex:idx_bp_claim_key,priority:5" json:"reward_id"`
	RewardLevel int       `gorm:"not null" json:"reward_level"` // snapshot, the reward row may be edited later
	ClaimedAt   time.Time `gorm:"not null" json:"claimed_at"`
}

func (BattlePassClaim) TableName() string {
	return "battle_pass_claims"
}
