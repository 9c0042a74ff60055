package services

import "battle-pass-service/models"

// LadderSlot is one rung of the season ladder as shown to a player.
// Levels without a configured reward have RewardID 0 and a nil Reward and are never claimable.
type LadderSlot struct {
	Level     int                      `json:"level"`
	RewardID  uint64                   `json:"reward_id"`
	Reward    *models.BattlePassReward `json:"reward"`
	Unlocked  bool                     `json:"unlocked"`
	Claimed   bool                     `json:"claimed"`
	Claimable bool                     `json:"claimable"`
}

// BuildLadder projects a season catalog onto the fixed 1..80 ladder for a character.
// It always returns MaxRewardLevel slots. If stored data holds several rewards on one level
// the lowest id wins; rewards outside the level range are ignored.
func BuildLadder(rewards []models.BattlePassReward, characterLevel int, claimedIDs []uint64) []LadderSlot {
	byLevel := make(map[int]*models.BattlePassReward, len(rewards))
	for i := range rewards {
		r := &rewards[i]
		if r.Level < models.MinRewardLevel || r.Level > models.MaxRewardLevel {
			continue
		}
		if cur, ok := byLevel[r.Level]; ok && cur.ID <= r.ID {
			continue
		}
		byLevel[r.Level] = r
	}

	claimed := make(map[uint64]struct{}, len(claimedIDs))
	for _, id := range claimedIDs {
		claimed[id] = struct{}{}
	}

	slots := make([]LadderSlot, 0, models.MaxRewardLevel)
	for level := models.MinRewardLevel; level <= models.MaxRewardLevel; level++ {
		slot := LadderSlot{
			Level:    level,
			Unlocked: characterLevel >= level,
		}
		if r, ok := byLevel[level]; ok {
			reward := *r
			slot.RewardID = reward.ID
			slot.Reward = &reward
			_, slot.Claimed = claimed[reward.ID]
		}
		slot.Claimable = slot.RewardID > 0 && slot.Unlocked && !slot.Claimed
		slots = append(slots, slot)
	}
	return slots
}
