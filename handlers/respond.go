// handlers/respond.go
package handlers

import (
	"errors"
	"strconv"
	"strings"

	"battle-pass-service/middleware"
	"battle-pass-service/services"
	"battle-pass-service/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// ok writes the success envelope.
func ok(c *fiber.Ctx, status int, data any, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"data":    data,
		"message": message,
	})
}

// fail writes the error envelope with the request id so a failed call can be traced.
func fail(c *fiber.Ctx, status int, code, message string, extra fiber.Map) error {
	body := fiber.Map{
		"data":       nil,
		"error":      code,
		"message":    message,
		"request_id": middleware.GetRequestID(c),
	}
	for k, v := range extra {
		body[k] = v
	}
	return c.Status(status).JSON(body)
}

// respondError maps the service error taxonomy onto HTTP statuses.
func respondError(c *fiber.Ctx, log *logrus.Entry, err error) error {
	var (
		validationErr *services.ValidationError
		notFoundErr   *services.NotFoundError
		claimErr      *services.ClaimError
		unavailErr    *services.ServiceUnavailableError
	)
	switch {
	case errors.As(err, &validationErr):
		return fail(c, fiber.StatusBadRequest, "validation_error", validationErr.Error(), fiber.Map{"field": validationErr.Field})
	case errors.As(err, &notFoundErr):
		return fail(c, fiber.StatusNotFound, "not_found", notFoundErr.Error(), nil)
	case errors.As(err, &claimErr):
		status := fiber.StatusUnprocessableEntity
		if claimErr.Reason == services.ClaimAlreadyClaimed {
			status = fiber.StatusConflict
		}
		return fail(c, status, string(claimErr.Reason), claimErr.Error(), fiber.Map{"reward_id": claimErr.RewardID})
	case errors.As(err, &unavailErr):
		utils.WithRequest(log, c.UserContext()).WithError(err).Warn("[HTTP] dependency unavailable")
		return fail(c, fiber.StatusServiceUnavailable, "service_unavailable", "a backing service is unavailable, try again", nil)
	default:
		utils.WithRequest(log, c.UserContext()).WithError(err).WithField("path", c.Path()).Error("[HTTP] unhandled error")
		return fail(c, fiber.StatusInternalServerError, "internal_error", "internal server error", nil)
	}
}

// uintParam parses a positive id from the query string or route params.
func uintParam(raw, field string, required bool) (uint64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		if required {
			return 0, &services.ValidationError{Field: field, Message: "is required"}
		}
		return 0, nil
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, &services.ValidationError{Field: field, Message: "must be a positive integer"}
	}
	return id, nil
}

// queryIDs reads the named ids from the query string; all are required.
func queryIDs(c *fiber.Ctx, names ...string) (map[string]uint64, error) {
	out := make(map[string]uint64, len(names))
	for _, name := range names {
		id, err := uintParam(c.Query(name), name, true)
		if err != nil {
			return nil, err
		}
		out[name] = id
	}
	return out, nil
}

// ownsAccount lets players act only on their own account; admins may act on any.
func ownsAccount(c *fiber.Ctx, accountID uint64) bool {
	if middleware.HasRole(c, middleware.RoleAdmin) {
		return true
	}
	return middleware.UserID(c) == strconv.FormatUint(accountID, 10)
}

func forbidden(c *fiber.Ctx) error {
	return fail(c, fiber.StatusForbidden, "forbidden", "account does not belong to the caller", nil)
}
