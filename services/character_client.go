package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"battle-pass-service/utils"

	"github.com/sirupsen/logrus"
)

// CharacterOracle supplies the authoritative level of a character.
type CharacterOracle interface {
	CharacterLevel(ctx context.Context, realmID, accountID, characterID uint64) (int, error)
}

// CharacterClient reads character levels from the character service.
type CharacterClient struct {
	caller serviceCaller
	log    *logrus.Entry
}

type characterResponse struct {
	CharacterID uint64 `json:"character_id"`
	Level       int    `json:"level"`
}

func NewCharacterClient(baseURL, token string, client *http.Client, log *logrus.Entry) *CharacterClient {
	if client == nil {
		client = utils.NewHTTPClient(0)
	}
	return &CharacterClient{
		caller: serviceCaller{BaseURL: baseURL, Token: token, Client: client},
		log:    log,
	}
}

// CharacterLevel calls GET /characters/{id}; a 404 means the character does not belong to the account.
func (c *CharacterClient) CharacterLevel(ctx context.Context, realmID, accountID, characterID uint64) (int, error) {
	query := url.Values{}
	query.Set("realm_id", strconv.FormatUint(realmID, 10))
	query.Set("account_id", strconv.FormatUint(accountID, 10))
	path := fmt.Sprintf("/characters/%d?%s", characterID, query.Encode())

	status, env, err := c.caller.do(ctx, http.MethodGet, path, nil, nil)
	if err != nil {
		return 0, &ServiceUnavailableError{Op: "character lookup", Err: err}
	}

	switch {
	case status == http.StatusNotFound:
		return 0, &NotFoundError{Resource: "character", ID: characterID}
	case status >= 500 || status == http.StatusTooManyRequests:
		utils.WithRequest(c.log, ctx).WithFields(logrus.Fields{
			"status":       status,
			"character_id": characterID,
		}).Warn("[CHARACTER] lookup failed")
		return 0, &ServiceUnavailableError{Op: "character lookup", Err: fmt.Errorf("status %d: %s", status, env.describe(status))}
	case status != http.StatusOK:
		return 0, fmt.Errorf("character lookup returned %d: %s", status, env.describe(status))
	}

	var out characterResponse
	if err := json.Unmarshal(env.Data, &out); err != nil {
		return 0, fmt.Errorf("failed to decode character: %w", err)
	}
	if out.Level < 0 {
		return 0, fmt.Errorf("character %d reported negative level %d", characterID, out.Level)
	}
	return out.Level, nil
}
