package services

import (
	"context"
	"fmt"
	"net/http"

	"battle-pass-service/models"
	"battle-pass-service/utils"

	"github.com/sirupsen/logrus"
)

// BenefitGranter delivers the in-game item behind a claim. Implementations must be idempotent on grant.ClaimID.
type BenefitGranter interface {
	Grant(ctx context.Context, grant models.BenefitGrant) error
}

// BenefitClient posts grants to the benefit service.
type BenefitClient struct {
	caller serviceCaller
	log    *logrus.Entry
}

type grantRequest struct {
	RealmID        uint64 `json:"realm_id"`
	AccountID      uint64 `json:"account_id"`
	CharacterID    uint64 `json:"character_id"`
	CoreItemID     int64  `json:"core_item_id"`
	WowheadID      *int64 `json:"wowhead_id,omitempty"`
	IdempotencyKey string `json:"idempotency_key"`
}

func NewBenefitClient(baseURL, token string, client *http.Client, log *logrus.Entry) *BenefitClient {
	if client == nil {
		client = utils.NewHTTPClient(0)
	}
	return &BenefitClient{
		caller: serviceCaller{BaseURL: baseURL, Token: token, Client: client},
		log:    log,
	}
}

// Grant posts the benefit. A 409 means the key was already delivered and counts as success.
func (c *BenefitClient) Grant(ctx context.Context, grant models.BenefitGrant) error {
	body := grantRequest{
		RealmID:        grant.RealmID,
		AccountID:      grant.AccountID,
		CharacterID:    grant.CharacterID,
		CoreItemID:     grant.CoreItemID,
		WowheadID:      grant.WowheadID,
		IdempotencyKey: grant.ClaimID,
	}
	headers := map[string]string{"Idempotency-Key": grant.ClaimID}

	status, env, err := c.caller.do(ctx, http.MethodPost, "/grants", body, headers)
	if err != nil {
		return &ServiceUnavailableError{Op: "benefit grant", Err: err}
	}

	switch {
	case status >= 200 && status < 300:
		return nil
	case status == http.StatusConflict:
		utils.WithRequest(c.log, ctx).WithField("claim_id", grant.ClaimID).Info("[GRANT] already delivered upstream")
		return nil
	case status >= 500 || status == http.StatusTooManyRequests:
		return &ServiceUnavailableError{Op: "benefit grant", Err: fmt.Errorf("status %d: %s", status, env.describe(status))}
	default:
		return fmt.Errorf("benefit grant rejected with %d: %s", status, env.describe(status))
	}
}
