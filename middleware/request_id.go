package middleware

import (
	"battle-pass-service/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
)

const localRequestID = "requestid"

// RequestID accepts the caller's X-Request-ID or mints one and echoes it on the response.
func RequestID() fiber.Handler {
	return requestid.New(requestid.Config{
		Header:     utils.RequestIDHeader,
		Generator:  uuid.NewString,
		ContextKey: localRequestID,
	})
}

// RequestContext copies the correlation id into the request's user context so services
// log it and forward it to collaborators. Must run after RequestID.
func RequestContext() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if id := GetRequestID(c); id != "" {
			c.SetUserContext(utils.WithRequestID(c.UserContext(), id))
		}
		return c.Next()
	}
}

// GetRequestID returns the correlation id of the current request.
func GetRequestID(c *fiber.Ctx) string {
	id, _ := c.Locals(localRequestID).(string)
	return id
}
