package middleware

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const (
	SessionHeader = "X-Session-ID"
	SessionCookie = "matcher_session"
	sessionLocal  = "session_id"
)

// SessionID resolves the caller's session from the X-Session-ID header or the
// session cookie, issuing a new cookie when neither is present.
func SessionID(ttl time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := strings.TrimSpace(c.Get(SessionHeader))
		if id == "" {
			id = strings.TrimSpace(c.Cookies(SessionCookie))
		}
		if id == "" {
			id = uuid.NewString()
			c.Cookie(&fiber.Cookie{
				Name:     SessionCookie,
				Value:    id,
				Expires:  time.Now().Add(ttl),
				HTTPOnly: true,
				SameSite: fiber.CookieSameSiteLaxMode,
			})
		}
		c.Locals(sessionLocal, id)
		return c.Next()
	}
}

func GetSessionID(c *fiber.Ctx) string {
	id, _ := c.Locals(sessionLocal).(string)
	return id
}
