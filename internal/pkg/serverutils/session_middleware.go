package serverutils

import (
	"pdf-rag-be/internal/repository/contract"
	"pdf-rag-be/pkg/metrics"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const (
	SessionHeader      = "x-session-id"
	SessionIdLocalsKey = "session_id"
)

// SessionMiddleware resolves the caller's session from the x-session-id
// header, minting a fresh id when the header is absent. Every request slides
// the session TTL forward, and the resolved id is echoed back so first-time
// callers learn theirs.
func SessionMiddleware(sessions contract.SessionStore, m *metrics.Metrics) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		sessionId := ctx.Get(SessionHeader)
		if sessionId == "" {
			sessionId = uuid.New().String()
			if m != nil {
				m.SessionsCreatedTotal.Inc()
			}
		}

		if err := sessions.Touch(ctx.Context(), sessionId); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to touch session")
		}

		ctx.Locals(SessionIdLocalsKey, sessionId)
		ctx.Set(SessionHeader, sessionId)
		return ctx.Next()
	}
}

// SessionId reads the session id resolved by SessionMiddleware.
func SessionId(ctx *fiber.Ctx) string {
	id, _ := ctx.Locals(SessionIdLocalsKey).(string)
	return id
}
