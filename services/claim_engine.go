package services

import (
	"context"
	"errors"
	"time"

	"battle-pass-service/models"
	"battle-pass-service/utils"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ClaimRequest names the reward a character wants to claim.
type ClaimRequest struct {
	RealmID     uint64 `json:"realm_id" validate:"required"`
	AccountID   uint64 `json:"account_id" validate:"required"`
	CharacterID uint64 `json:"character_id" validate:"required"`
	SeasonID    uint64 `json:"season_id" validate:"required"`
	RewardID    uint64 `json:"reward_id" validate:"required"`
}

func (r ClaimRequest) key() ProgressKey {
	return ProgressKey{RealmID: r.RealmID, AccountID: r.AccountID, CharacterID: r.CharacterID, SeasonID: r.SeasonID}
}

// ClaimResult is returned for a committed claim. GrantStatus is pending when the benefit
// service could not be reached yet; the replay worker finishes delivery.
type ClaimResult struct {
	ClaimID     string             `json:"claim_id"`
	RewardID    uint64             `json:"reward_id"`
	Level       int                `json:"level"`
	ClaimedAt   time.Time          `json:"claimed_at"`
	GrantID     string             `json:"grant_id"`
	GrantStatus models.GrantStatus `json:"grant_status"`
}

// ClaimEngine performs the UNLOCKED_UNCLAIMED -> CLAIMED transition exactly once per
// (realm, account, character, season, reward).
type ClaimEngine struct {
	DB         *gorm.DB
	Characters CharacterOracle
	Grants     *GrantDispatcher
	Events     ClaimPublisher
	Metrics    *Metrics
	Log        *logrus.Entry
	Now        func() time.Time
}

func NewClaimEngine(db *gorm.DB, characters CharacterOracle, grants *GrantDispatcher, events ClaimPublisher, metrics *Metrics, log *logrus.Entry) *ClaimEngine {
	if events == nil {
		events = NopClaimPublisher{}
	}
	return &ClaimEngine{DB: db, Characters: characters, Grants: grants, Events: events, Metrics: metrics, Log: log, Now: time.Now}
}

func (e *ClaimEngine) now() time.Time {
	if e.Now == nil {
		return time.Now().UTC()
	}
	return e.Now().UTC()
}

// Claim checks every precondition against the store and records the claim with its grant outbox row
// in one transaction. The insert is conditional on the claim key, so of two concurrent identical
// claims exactly one commits and the other gets ClaimError already-claimed.
func (e *ClaimEngine) Claim(ctx context.Context, req ClaimRequest) (*ClaimResult, error) {
	result, err := e.claim(ctx, req)
	e.Metrics.ObserveClaim(err)
	return result, err
}

func (e *ClaimEngine) claim(ctx context.Context, req ClaimRequest) (*ClaimResult, error) {
	if err := req.key().validate(); err != nil {
		return nil, err
	}
	if req.RewardID == 0 {
		return nil, newValidationError("reward_id", "is required")
	}
	log := utils.WithRequest(e.Log, ctx).WithFields(logrus.Fields{
		"realm_id":     req.RealmID,
		"account_id":   req.AccountID,
		"character_id": req.CharacterID,
		"season_id":    req.SeasonID,
		"reward_id":    req.RewardID,
	})

	// Level comes from the oracle before the transaction so no network call holds a lock.
	level, err := e.Characters.CharacterLevel(ctx, req.RealmID, req.AccountID, req.CharacterID)
	if err != nil {
		return nil, err
	}

	now := e.now()
	claim := models.BattlePassClaim{
		ID:          uuid.NewString(),
		RealmID:     req.RealmID,
		AccountID:   req.AccountID,
		CharacterID: req.CharacterID,
		SeasonID:    req.SeasonID,
		RewardID:    req.RewardID,
		ClaimedAt:   now,
	}
	var grant models.BenefitGrant

	err = e.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		seasons, err := loadRealmSeasons(tx, req.RealmID)
		if err != nil {
			return err
		}
		if !containsSeason(seasons, req.SeasonID) {
			return &NotFoundError{Resource: "season", ID: req.SeasonID}
		}
		active := SelectActiveSeason(seasons, now)
		if active == nil || active.ID != req.SeasonID {
			return &ClaimError{Reason: ClaimSeasonMismatch, RewardID: req.RewardID, Detail: "season is not active"}
		}

		var reward models.BattlePassReward
		if err := tx.Where("id = ?", req.RewardID).First(&reward).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &NotFoundError{Resource: "reward", ID: req.RewardID}
			}
			return err
		}
		if reward.SeasonID != req.SeasonID {
			return &ClaimError{Reason: ClaimSeasonMismatch, RewardID: req.RewardID, Detail: "reward belongs to another season"}
		}
		if level < reward.Level {
			return &ClaimError{Reason: ClaimNotUnlocked, RewardID: req.RewardID, Detail: "requires a higher character level"}
		}

		claim.RewardLevel = reward.Level
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&claim)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return &ClaimError{Reason: ClaimAlreadyClaimed, RewardID: req.RewardID}
		}

		grant = models.BenefitGrant{
			ID:          uuid.NewString(),
			ClaimID:     claim.ID,
			RealmID:     req.RealmID,
			AccountID:   req.AccountID,
			CharacterID: req.CharacterID,
			CoreItemID:  reward.CoreItemID,
			WowheadID:   reward.WowheadID,
			Status:      models.GrantStatusPending,
		}
		return tx.Create(&grant).Error
	})
	if err != nil {
		err = storeError("claim reward", "reward", req.RewardID, err)
		var claimErr *ClaimError
		if errors.As(err, &claimErr) {
			log.WithField("reason", claimErr.Reason).Info("[CLAIM] rejected")
		}
		return nil, err
	}
	log.WithField("claim_id", claim.ID).Info("[CLAIM] recorded")

	// The claim is committed; delivery problems leave the grant pending for the replay worker.
	if e.Grants != nil {
		_ = e.Grants.Deliver(ctx, &grant)
	}
	if err := e.Events.PublishClaimed(ctx, ClaimedEvent{
		ClaimID:     claim.ID,
		RealmID:     claim.RealmID,
		AccountID:   claim.AccountID,
		CharacterID: claim.CharacterID,
		SeasonID:    claim.SeasonID,
		RewardID:    claim.RewardID,
		Level:       claim.RewardLevel,
		ClaimedAt:   claim.ClaimedAt,
	}); err != nil {
		log.WithError(err).Warn("[CLAIM] failed to publish event")
	}

	return &ClaimResult{
		ClaimID:     claim.ID,
		RewardID:    claim.RewardID,
		Level:       claim.RewardLevel,
		ClaimedAt:   claim.ClaimedAt,
		GrantID:     grant.ID,
		GrantStatus: grant.Status,
	}, nil
}

func containsSeason(seasons []models.Season, id uint64) bool {
	for i := range seasons {
		if seasons[i].ID == id {
			return true
		}
	}
	return false
}
