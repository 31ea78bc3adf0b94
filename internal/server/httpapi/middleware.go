package httpapi

import (
	"strings"
	"time"

	"github.com/dmitrijs2005/carmarket/internal/common"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

const accountIDKey = "account_id"

func corsMiddleware(origins string) fiber.Handler {
	origins = strings.TrimSpace(origins)
	if origins == "" {
		origins = "*"
	}

	return cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowCredentials: false,
	})
}

// observe logs every request and records its metrics.
func (s *Server) observe() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		if err != nil {
			// let the error handler write the response before we read the status
			_ = c.App().ErrorHandler(c, err)
			err = nil
		}

		status := c.Response().StatusCode()
		latency := time.Since(start)
		route := c.Route().Path

		s.metrics.recordRequest(c.Method(), route, status, latency)
		s.log.Info(c.UserContext(), "request",
			"method", c.Method(), "path", c.Path(), "status", status, "latency", latency)
		return err
	}
}

// rateLimitAuth limits signup and login per client IP. A nil storage keeps
// counters in process memory.
func (s *Server) rateLimitAuth(limit int, storage fiber.Storage) fiber.Handler {
	if limit <= 0 {
		return func(c *fiber.Ctx) error { return c.Next() }
	}

	return limiter.New(limiter.Config{
		Max:        limit,
		Expiration: time.Minute,
		Storage:    storage,
		KeyGenerator: func(c *fiber.Ctx) string {
			return "auth:" + c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			s.metrics.recordRateLimitHit(c.Route().Path)
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "too many requests"})
		},
	})
}

// requireAuth accepts "Authorization: Bearer <token>" and stores the
// token's account id in the request locals.
func (s *Server) requireAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, ok := strings.CutPrefix(c.Get(common.AuthorizationHeaderName), common.BearerPrefix)
		if !ok || strings.TrimSpace(token) == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "missing bearer token"})
		}

		accountID, err := s.tokens.Verify(strings.TrimSpace(token))
		if err != nil {
			return s.fail(c, err)
		}

		c.Locals(accountIDKey, accountID)
		return c.Next()
	}
}

func accountID(c *fiber.Ctx) string {
	id, _ := c.Locals(accountIDKey).(string)
	return id
}
