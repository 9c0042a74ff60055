// handlers/battlepass_routes.go
package handlers

import (
	"battle-pass-service/middleware"
	"battle-pass-service/services"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// BattlePassHandler serves the player-facing battle pass routes.
type BattlePassHandler struct {
	Seasons  *services.SeasonRegistry
	Catalog  *services.RewardCatalog
	Progress *services.ProgressTracker
	Claims   *services.ClaimEngine
	Log      *logrus.Entry
}

func SetupBattlePassRoutes(router fiber.Router, h *BattlePassHandler) {
	// Gateway forwards /api/v1/battlepass/* -> /battlepass/*
	bp := router.Group("/battlepass", middleware.UserContextMiddleware(h.Log))

	bp.Get("/season", h.GetActiveSeason)
	bp.Get("/rewards", h.ListRewards)
	bp.Get("/progress", h.GetProgress)
	bp.Get("/ladder", h.GetLadder)
	bp.Post("/claim", h.Claim)
}

// GetActiveSeason answers 204 when the realm has no live season.
func (h *BattlePassHandler) GetActiveSeason(c *fiber.Ctx) error {
	realmID, err := uintParam(c.Query("realm_id"), "realm_id", true)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	season, err := h.Seasons.GetActiveSeason(c.UserContext(), realmID)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	if season == nil {
		return c.SendStatus(fiber.StatusNoContent)
	}
	return ok(c, fiber.StatusOK, season, "active season")
}

func (h *BattlePassHandler) ListRewards(c *fiber.Ctx) error {
	ids, err := queryIDs(c, "realm_id", "season_id")
	if err != nil {
		return respondError(c, h.Log, err)
	}
	rewards, err := h.Catalog.ListRewards(c.UserContext(), ids["realm_id"], ids["season_id"])
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return ok(c, fiber.StatusOK, rewards, "rewards")
}

func (h *BattlePassHandler) GetProgress(c *fiber.Ctx) error {
	ids, err := queryIDs(c, "realm_id", "account_id", "character_id", "season_id")
	if err != nil {
		return respondError(c, h.Log, err)
	}
	if !ownsAccount(c, ids["account_id"]) {
		return forbidden(c)
	}

	progress, err := h.Progress.GetProgress(c.UserContext(), services.ProgressKey{
		RealmID:     ids["realm_id"],
		AccountID:   ids["account_id"],
		CharacterID: ids["character_id"],
		SeasonID:    ids["season_id"],
	})
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return ok(c, fiber.StatusOK, progress, "progress")
}

// GetLadder returns the 80-slot ladder; season_id defaults to the active season.
func (h *BattlePassHandler) GetLadder(c *fiber.Ctx) error {
	ids, err := queryIDs(c, "realm_id", "account_id", "character_id")
	if err != nil {
		return respondError(c, h.Log, err)
	}
	seasonID, err := uintParam(c.Query("season_id"), "season_id", false)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	if !ownsAccount(c, ids["account_id"]) {
		return forbidden(c)
	}

	view, err := h.Progress.Ladder(c.UserContext(), services.ProgressKey{
		RealmID:     ids["realm_id"],
		AccountID:   ids["account_id"],
		CharacterID: ids["character_id"],
		SeasonID:    seasonID,
	})
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return ok(c, fiber.StatusOK, view, "ladder")
}

func (h *BattlePassHandler) Claim(c *fiber.Ctx) error {
	var req services.ClaimRequest
	if err := bindJSON(c, &req); err != nil {
		return respondError(c, h.Log, err)
	}
	if !ownsAccount(c, req.AccountID) {
		return forbidden(c)
	}

	result, err := h.Claims.Claim(c.UserContext(), req)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return ok(c, fiber.StatusCreated, result, "reward claimed")
}
