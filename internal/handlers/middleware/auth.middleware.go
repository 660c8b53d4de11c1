package middleware

import (
	"context"
	"strings"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"nannyhub/internal/policy"
)

// AuthContextKey is used to store auth info in context
type AuthContextKey string

const (
	ActorKey      AuthContextKey = "actor"
	ActorKeyFiber string         = "Actor"
)

// RequireAuth validates the bearer token and loads the acting user. Tokens are
// issued elsewhere; the subject claim carries the user id.
func (m *Middleware) RequireAuth() fiber.Handler {
	secret := []byte(m.Config.AuthJWTSecret)

	return func(c *fiber.Ctx) error {
		log := logger.New("middleware").TraceFromContext(c.UserContext()).Function("RequireAuth")

		authHeader := c.Get("Authorization")
		if authHeader == "" {
			log.Info("missing authorization header")
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Authorization header required",
			})
		}

		tokenParts := strings.Split(authHeader, " ")
		if len(tokenParts) != 2 || strings.ToLower(tokenParts[0]) != "bearer" || tokenParts[1] == "" {
			log.Info("invalid authorization header format")
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid authorization header format",
			})
		}

		userID, err := parseSubject(tokenParts[1], secret)
		if err != nil {
			log.Info("token validation failed", "error", err.Error())
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid token",
			})
		}

		user, err := m.userRepo.GetByID(c.UserContext(), m.DB.SQL, userID)
		if err != nil || !user.IsActive {
			log.Info("user not found or inactive", "userID", userID)
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "User not found",
			})
		}

		actor := policy.ActorFromUser(user)
		c.Locals(ActorKeyFiber, actor)

		// Keep the trace id set by TraceID on the user context.
		ctx := context.WithValue(c.UserContext(), ActorKey, actor)
		c.SetUserContext(ctx)

		log.Debug("user authenticated", "userID", user.ID, "role", user.Role)
		return c.Next()
	}
}

func parseSubject(raw string, secret []byte) (uuid.UUID, error) {
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return uuid.Nil, err
	}

	return uuid.Parse(claims.Subject)
}

// GetActor reports the authenticated actor, if any.
func GetActor(c *fiber.Ctx) (policy.Actor, bool) {
	actor, ok := c.Locals(ActorKeyFiber).(policy.Actor)
	return actor, ok
}
