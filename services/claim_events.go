package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ClaimedChannel is the pub/sub channel other services listen on for battle pass claims.
const ClaimedChannel = "battlepass-reward-claimed"

// ClaimedEvent is published after a claim commits.
type ClaimedEvent struct {
	ClaimID     string    `json:"claim_id"`
	RealmID     uint64    `json:"realm_id"`
	AccountID   uint64    `json:"account_id"`
	CharacterID uint64    `json:"character_id"`
	SeasonID    uint64    `json:"season_id"`
	RewardID    uint64    `json:"reward_id"`
	Level       int       `json:"level"`
	ClaimedAt   time.Time `json:"claimed_at"`
}

// ClaimPublisher announces committed claims. Publishing is best effort.
type ClaimPublisher interface {
	PublishClaimed(ctx context.Context, event ClaimedEvent) error
}

type NopClaimPublisher struct{}

func (NopClaimPublisher) PublishClaimed(context.Context, ClaimedEvent) error { return nil }

type redisClaimPublisher struct {
	client *redis.Client
}

// NewRedisClaimPublisher publishes claim events on ClaimedChannel.
func NewRedisClaimPublisher(client *redis.Client) ClaimPublisher {
	return &redisClaimPublisher{client: client}
}

func (p *redisClaimPublisher) PublishClaimed(ctx context.Context, event ClaimedEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	if err := p.client.Publish(ctx, ClaimedChannel, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish to Redis: %w", err)
	}
	return nil
}
