// handlers/admin_routes.go
package handlers

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"battle-pass-service/middleware"
	"battle-pass-service/models"
	"battle-pass-service/services"
	"battle-pass-service/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const maxImageSize = 5 * 1024 * 1024

var allowedImageExts = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".webp": true,
	".gif":  true,
}

// AdminHandler serves season and catalog curation plus grant operations.
type AdminHandler struct {
	Seasons *services.SeasonRegistry
	Catalog *services.RewardCatalog
	Grants  *services.GrantDispatcher
	Images  utils.ImageStore
	Log     *logrus.Entry
}

type createSeasonRequest struct {
	RealmID   uint64    `json:"realm_id" validate:"required"`
	Name      string    `json:"name" validate:"required"`
	StartDate time.Time `json:"start_date" validate:"required"`
	EndDate   time.Time `json:"end_date" validate:"required,gtfield=StartDate"`
}

type createRewardRequest struct {
	RealmID uint64 `json:"realm_id" validate:"required"`
	services.RewardInput
}

func SetupAdminRoutes(router fiber.Router, h *AdminHandler) {
	admin := router.Group("/admin",
		middleware.UserContextMiddleware(h.Log),
		middleware.RequireRole(middleware.RoleAdmin, h.Log),
	)

	admin.Get("/seasons", h.ListSeasons)
	admin.Post("/seasons", h.CreateSeason)
	admin.Put("/seasons/:id", h.UpdateSeason)

	admin.Get("/rewards", h.ListRewards)
	admin.Post("/rewards", h.CreateReward)
	admin.Post("/rewards/image", h.UploadRewardImage)
	admin.Put("/rewards/:id", h.UpdateReward)
	admin.Delete("/rewards/:id", h.DeleteReward)

	admin.Get("/grants", h.ListGrants)
	admin.Post("/grants/:id/retry", h.RetryGrant)
}

func (h *AdminHandler) ListSeasons(c *fiber.Ctx) error {
	realmID, err := uintParam(c.Query("realm_id"), "realm_id", true)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	seasons, err := h.Seasons.ListSeasons(c.UserContext(), realmID)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return ok(c, fiber.StatusOK, seasons, "seasons")
}

func (h *AdminHandler) CreateSeason(c *fiber.Ctx) error {
	var req createSeasonRequest
	if err := bindJSON(c, &req); err != nil {
		return respondError(c, h.Log, err)
	}
	season, err := h.Seasons.CreateSeason(c.UserContext(), req.RealmID, req.Name, req.StartDate, req.EndDate)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return ok(c, fiber.StatusCreated, season, "season created")
}

// UpdateSeason takes the realm from ?realm_id and only the supplied body fields.
func (h *AdminHandler) UpdateSeason(c *fiber.Ctx) error {
	realmID, err := uintParam(c.Query("realm_id"), "realm_id", true)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	id, err := uintParam(c.Params("id"), "id", true)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	var upd services.SeasonUpdate
	if err := bindJSON(c, &upd); err != nil {
		return respondError(c, h.Log, err)
	}

	season, err := h.Seasons.UpdateSeason(c.UserContext(), realmID, id, upd)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return ok(c, fiber.StatusOK, season, "season updated")
}

func (h *AdminHandler) ListRewards(c *fiber.Ctx) error {
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

func (h *AdminHandler) CreateReward(c *fiber.Ctx) error {
	var req createRewardRequest
	if err := bindJSON(c, &req); err != nil {
		return respondError(c, h.Log, err)
	}
	reward, err := h.Catalog.CreateReward(c.UserContext(), req.RealmID, req.RewardInput)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return ok(c, fiber.StatusCreated, reward, "reward created")
}

func (h *AdminHandler) UpdateReward(c *fiber.Ctx) error {
	realmID, err := uintParam(c.Query("realm_id"), "realm_id", true)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	id, err := uintParam(c.Params("id"), "id", true)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	var upd services.RewardUpdate
	if err := bindJSON(c, &upd); err != nil {
		return respondError(c, h.Log, err)
	}

	reward, err := h.Catalog.UpdateReward(c.UserContext(), realmID, id, upd)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return ok(c, fiber.StatusOK, reward, "reward updated")
}

func (h *AdminHandler) DeleteReward(c *fiber.Ctx) error {
	realmID, err := uintParam(c.Query("realm_id"), "realm_id", true)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	id, err := uintParam(c.Params("id"), "id", true)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	if err := h.Catalog.DeleteReward(c.UserContext(), realmID, id); err != nil {
		return respondError(c, h.Log, err)
	}
	return ok(c, fiber.StatusOK, fiber.Map{"id": id}, "reward deleted")
}

// UploadRewardImage stores a reward image under the season's slug and returns its URL
// for use as image_url on create or update.
func (h *AdminHandler) UploadRewardImage(c *fiber.Ctx) error {
	realmID, err := uintParam(c.FormValue("realm_id"), "realm_id", true)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	seasonID, err := uintParam(c.FormValue("season_id"), "season_id", true)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return respondError(c, h.Log, &services.ValidationError{Field: "file", Message: "is required"})
	}
	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	if !allowedImageExts[ext] {
		return respondError(c, h.Log, &services.ValidationError{Field: "file", Message: fmt.Sprintf("unsupported image type %q", ext)})
	}
	if fileHeader.Size > maxImageSize {
		return respondError(c, h.Log, &services.ValidationError{Field: "file", Message: "image exceeds 5MB"})
	}

	season, err := h.Seasons.GetSeason(c.UserContext(), realmID, seasonID)
	if err != nil {
		return respondError(c, h.Log, err)
	}

	key := fmt.Sprintf("battlepass/%d/%s/%s%s", realmID, season.Slug, uuid.NewString(), ext)
	url, err := h.Images.Save(c.UserContext(), fileHeader, key)
	if err != nil {
		return respondError(c, h.Log, &services.ServiceUnavailableError{Op: "image upload", Err: err})
	}

	utils.WithRequest(h.Log, c.UserContext()).WithFields(logrus.Fields{
		"season_id": seasonID,
		"key":       key,
	}).Info("[CATALOG] reward image uploaded")
	return ok(c, fiber.StatusCreated, fiber.Map{"image_url": url}, "image uploaded")
}

func (h *AdminHandler) ListGrants(c *fiber.Ctx) error {
	status := models.GrantStatus(strings.ToLower(c.Query("status")))
	grants, err := h.Grants.ListGrants(c.UserContext(), status, c.QueryInt("limit", 100))
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return ok(c, fiber.StatusOK, grants, "grants")
}

// RetryGrant requeues a grant and attempts delivery right away. A failed attempt still
// leaves it pending for the replay worker.
func (h *AdminHandler) RetryGrant(c *fiber.Ctx) error {
	grant, err := h.Grants.Requeue(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, h.Log, err)
	}
	message := "grant delivered"
	if deliverErr := h.Grants.Deliver(c.UserContext(), grant); deliverErr != nil {
		message = "grant requeued, delivery failed: " + deliverErr.Error()
	}
	return ok(c, fiber.StatusOK, grant, message)
}
