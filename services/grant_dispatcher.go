package services

import (
	"context"
	"time"

	"battle-pass-service/models"
	"battle-pass-service/utils"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const defaultGrantMaxAttempts = 10

// GrantDispatcher delivers benefit grants from the outbox and records the outcome.
// Both the claim path and the replay worker go through it.
type GrantDispatcher struct {
	DB          *gorm.DB
	Granter     BenefitGranter
	MaxAttempts int
	Metrics     *Metrics
	Log         *logrus.Entry
	Now         func() time.Time
}

func NewGrantDispatcher(db *gorm.DB, granter BenefitGranter, maxAttempts int, metrics *Metrics, log *logrus.Entry) *GrantDispatcher {
	if maxAttempts < 1 {
		maxAttempts = defaultGrantMaxAttempts
	}
	return &GrantDispatcher{DB: db, Granter: granter, MaxAttempts: maxAttempts, Metrics: metrics, Log: log, Now: time.Now}
}

func (d *GrantDispatcher) now() time.Time {
	if d.Now == nil {
		return time.Now().UTC()
	}
	return d.Now().UTC()
}

// Deliver sends one grant and persists its new status. The returned error is the delivery error, if any.
func (d *GrantDispatcher) Deliver(ctx context.Context, grant *models.BenefitGrant) error {
	log := utils.WithRequest(d.Log, ctx).WithFields(logrus.Fields{
		"grant_id": grant.ID,
		"claim_id": grant.ClaimID,
	})

	deliverErr := d.Granter.Grant(ctx, *grant)
	grant.Attempts++
	updates := map[string]any{"attempts": gorm.Expr("attempts + 1")}

	if deliverErr == nil {
		now := d.now()
		grant.Status = models.GrantStatusDelivered
		grant.DeliveredAt = &now
		grant.LastError = ""
		updates["status"] = models.GrantStatusDelivered
		updates["delivered_at"] = now
		updates["last_error"] = ""
		d.Metrics.ObserveGrant("delivered")
		log.Info("[GRANT] delivered")
	} else {
		grant.LastError = deliverErr.Error()
		updates["last_error"] = grant.LastError
		if grant.Attempts >= d.MaxAttempts {
			grant.Status = models.GrantStatusFailed
			updates["status"] = models.GrantStatusFailed
			d.Metrics.ObserveGrant("failed")
			log.WithError(deliverErr).WithField("attempts", grant.Attempts).Error("[GRANT] giving up")
		} else {
			d.Metrics.ObserveGrant("retry")
			log.WithError(deliverErr).WithField("attempts", grant.Attempts).Warn("[GRANT] delivery failed, will retry")
		}
	}

	// Delivered is terminal; a concurrent replay must not flip it back.
	res := d.DB.WithContext(ctx).Model(&models.BenefitGrant{}).
		Where("id = ? AND status <> ?", grant.ID, models.GrantStatusDelivered).
		Updates(updates)
	if res.Error != nil {
		log.WithError(res.Error).Error("[GRANT] failed to record delivery outcome")
		if deliverErr == nil {
			return storeError("record grant", "grant", grant.ID, res.Error)
		}
	}
	return deliverErr
}

// ReplayPending retries up to limit pending grants, oldest first.
func (d *GrantDispatcher) ReplayPending(ctx context.Context, limit int) (delivered, failed int, err error) {
	if limit <= 0 {
		limit = 100
	}
	var pending []models.BenefitGrant
	if err := d.DB.WithContext(ctx).
		Where("status = ?", models.GrantStatusPending).
		Order("created_at ASC, id ASC").
		Limit(limit).
		Find(&pending).Error; err != nil {
		return 0, 0, storeError("list pending grants", "grant", "pending", err)
	}

	for i := range pending {
		if ctx.Err() != nil {
			return delivered, failed, ctx.Err()
		}
		if d.Deliver(ctx, &pending[i]) == nil {
			delivered++
		} else {
			failed++
		}
	}
	return delivered, failed, nil
}

// ListGrants returns grants filtered by status (all when empty), newest first.
func (d *GrantDispatcher) ListGrants(ctx context.Context, status models.GrantStatus, limit int) ([]models.BenefitGrant, error) {
	switch status {
	case "", models.GrantStatusPending, models.GrantStatusDelivered, models.GrantStatusFailed:
	default:
		return nil, newValidationError("status", "unknown grant status %q", status)
	}
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	grants := []models.BenefitGrant{}
	query := d.DB.WithContext(ctx).Order("created_at DESC, id DESC").Limit(limit)
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if err := query.Find(&grants).Error; err != nil {
		return nil, storeError("list grants", "grant", status, err)
	}
	return grants, nil
}

// Requeue puts a failed grant back to pending with a fresh attempt budget.
func (d *GrantDispatcher) Requeue(ctx context.Context, id string) (*models.BenefitGrant, error) {
	var grant models.BenefitGrant
	err := d.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", id).First(&grant).Error; err != nil {
			return err
		}
		if grant.Status == models.GrantStatusDelivered {
			return newValidationError("status", "grant %s was already delivered", id)
		}
		grant.Status = models.GrantStatusPending
		grant.Attempts = 0
		return tx.Model(&grant).Updates(map[string]any{
			"status":   models.GrantStatusPending,
			"attempts": 0,
		}).Error
	})
	if err != nil {
		return nil, storeError("requeue grant", "grant", id, err)
	}
	utils.WithRequest(d.Log, ctx).WithField("grant_id", id).Info("[GRANT] requeued")
	return &grant, nil
}
