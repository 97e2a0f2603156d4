package middleware

import (
	"time"

	"starmatch/internal/session"

	"github.com/gofiber/fiber/v2"
)

const (
	SessionCookie = "starmatch_session"
	SessionKey    = "session" // Key for storing the *session.Session in fiber.Ctx locals
)

// Sessions attaches the visitor's session, creating one when the request
// carries no live session id. The cookie is re-issued on every request so
// its lifetime slides with the server-side idle timeout.
func Sessions(registry *session.Registry, secure bool, ttl time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess, _ := registry.GetOrCreate(c.Cookies(SessionCookie))
		c.Cookie(&fiber.Cookie{
			Name:     SessionCookie,
			Value:    sess.ID,
			Path:     "/",
			MaxAge:   int(ttl.Seconds()),
			HTTPOnly: true,
			Secure:   secure,
			SameSite: fiber.CookieSameSiteLaxMode,
		})
		c.Locals(SessionKey, sess)
		return c.Next()
	}
}

// CurrentSession returns the session attached by Sessions.
func CurrentSession(c *fiber.Ctx) *session.Session {
	sess, _ := c.Locals(SessionKey).(*session.Session)
	return sess
}
