package models

import "time"

// GrantStatus tracks delivery of the in-game benefit behind a claim.
type GrantStatus string

const (
	GrantStatusPending   GrantStatus = "pending"
	GrantStatusDelivered GrantStatus = "delivered"
	GrantStatusFailed    GrantStatus = "failed" // gave up after max attempts; an admin can requeue
)

// BenefitGrant is the outbox row written in the same transaction as its claim.
// The claim id doubles as the idempotency key sent to the benefit service, so replays never double-grant.
type BenefitGrant struct {
	ID          string      `gorm:"primaryKey;type:varchar(36)" json:"id"`
	ClaimID     string      `gorm:"uniqueIndex;not null;type:varchar(36)" json:"claim_id"`
	RealmID     uint64      `gorm:"not null" json:"realm_id"`
	AccountID   uint64      `gorm:"not null" json:"account_id"`
	CharacterID uint64      `gorm:"not null;index" json:"character_id"`
	CoreItemID  int64       `gorm:"not null" json:"core_item_id"`
	WowheadID   *int64      `json:"wowhead_id,omitempty"`
	Status      GrantStatus `gorm:"type:varchar(16);not null;default:'pending';index" json:"status"`
	Attempts    int         `gorm:"not null;default:0" json:"attempts"`
	LastError   string      `gorm:"type:text" json:"last_error,omitempty"`
	DeliveredAt *time.Time  `json:"delivered_at,omitempty"`

	Timestamps
}

func (BenefitGrant) TableName() string {
	return "benefit_grants"
}
