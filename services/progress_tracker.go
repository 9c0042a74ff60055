package services

import (
	"context"

	"battle-pass-service/models"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// ProgressKey identifies one character's progress through one season.
type ProgressKey struct {
	RealmID     uint64
	AccountID   uint64
	CharacterID uint64
	SeasonID    uint64
}

func (k ProgressKey) validate() error {
	switch {
	case k.RealmID == 0:
		return newValidationError("realm_id", "is required")
	case k.AccountID == 0:
		return newValidationError("account_id", "is required")
	case k.CharacterID == 0:
		return newValidationError("character_id", "is required")
	case k.SeasonID == 0:
		return newValidationError("season_id", "is required")
	}
	return nil
}

// Progress is a character's level snapshot and claim history for a season.
type Progress struct {
	CharacterLevel   int      `json:"character_level"`
	ClaimedRewardIDs []uint64 `json:"claimed_reward_ids"`
}

// LadderView is the season ladder for one character.
type LadderView struct {
	Season         *models.Season `json:"season"`
	CharacterLevel int            `json:"character_level"`
	Slots          []LadderSlot   `json:"slots"`
}

type ProgressTracker struct {
	DB         *gorm.DB
	Characters CharacterOracle
	Seasons    *SeasonRegistry
	Catalog    *RewardCatalog
	Log        *logrus.Entry
}

func NewProgressTracker(db *gorm.DB, characters CharacterOracle, seasons *SeasonRegistry, catalog *RewardCatalog, log *logrus.Entry) *ProgressTracker {
	return &ProgressTracker{DB: db, Characters: characters, Seasons: seasons, Catalog: catalog, Log: log}
}

// GetProgress returns the character's current level and claimed rewards. No claims yet is the zero state.
func (p *ProgressTracker) GetProgress(ctx context.Context, key ProgressKey) (*Progress, error) {
	if err := key.validate(); err != nil {
		return nil, err
	}
	if _, err := p.Seasons.GetSeason(ctx, key.RealmID, key.SeasonID); err != nil {
		return nil, err
	}

	level, err := p.Characters.CharacterLevel(ctx, key.RealmID, key.AccountID, key.CharacterID)
	if err != nil {
		return nil, err
	}
	claimed, err := p.claimedRewardIDs(ctx, key)
	if err != nil {
		return nil, err
	}
	return &Progress{CharacterLevel: level, ClaimedRewardIDs: claimed}, nil
}

// Ladder composes catalog and progress into the 80-slot view. A zero SeasonID means the
// realm's active season. The view is rebuilt on every call.
func (p *ProgressTracker) Ladder(ctx context.Context, key ProgressKey) (*LadderView, error) {
	var (
		season *models.Season
		err    error
	)
	if key.SeasonID == 0 {
		if key.RealmID == 0 {
			return nil, newValidationError("realm_id", "is required")
		}
		if season, err = p.Seasons.GetActiveSeason(ctx, key.RealmID); err != nil {
			return nil, err
		}
		if season == nil {
			return nil, &NotFoundError{Resource: "active season for realm", ID: key.RealmID}
		}
		key.SeasonID = season.ID
	} else if season, err = p.Seasons.GetSeason(ctx, key.RealmID, key.SeasonID); err != nil {
		return nil, err
	}

	progress, err := p.GetProgress(ctx, key)
	if err != nil {
		return nil, err
	}
	rewards, err := p.Catalog.seasonRewards(ctx, season.ID)
	if err != nil {
		return nil, err
	}
	return &LadderView{
		Season:         season,
		CharacterLevel: progress.CharacterLevel,
		Slots:          BuildLadder(rewards, progress.CharacterLevel, progress.ClaimedRewardIDs),
	}, nil
}

func (p *ProgressTracker) claimedRewardIDs(ctx context.Context, key ProgressKey) ([]uint64, error) {
	ids := []uint64{}
	err := p.DB.WithContext(ctx).Model(&models.BattlePassClaim{}).
		Where("realm_id = ? AND account_id = ? AND character_id = ? AND season_id = ?",
			key.RealmID, key.AccountID, key.CharacterID, key.SeasonID).
		Order("claimed_at ASC, reward_id ASC").
		Pluck("reward_id", &ids).Error
	if err != nil {
		return nil, storeError("read progress", "progress", key, err)
	}
	return ids, nil
}
