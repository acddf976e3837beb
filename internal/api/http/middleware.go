package http

import (
	"context"
	"runtime/debug"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"go.uber.org/zap"

	"github.com/spec-kit/villa-web/internal/api/http/handlers"
	"github.com/spec-kit/villa-web/internal/observability"
	"github.com/spec-kit/villa-web/internal/web"
	apperrors "github.com/spec-kit/villa-web/pkg/util/errorutil"
)

// RegisterMiddlewares attaches global middlewares such as error handling and logging.
func RegisterMiddlewares(app *fiber.App, logger *zap.Logger, metrics *observability.Metrics, renderer *web.Renderer, timeout time.Duration) {
	if timeout > 0 {
		app.Use(requestTimeoutMiddleware(timeout))
	}
	app.Use(securityHeadersMiddleware())
	app.Use(errorHandlingMiddleware(logger, metrics, renderer))
	app.Use(observability.RequestLogger(logger, metrics))
}

// LoginLimiter throttles sign-in attempts per client address.
func LoginLimiter(perMinute int) fiber.Handler {
	if perMinute <= 0 {
		return func(c *fiber.Ctx) error { return c.Next() }
	}
	return limiter.New(limiter.Config{
		Max:        perMinute,
		Expiration: time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return apperrors.NewTooManyRequests("too many sign-in attempts, wait a minute")
		},
	})
}

func requestTimeoutMiddleware(timeout time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), timeout)
		defer cancel()
		c.SetUserContext(ctx)
		return c.Next()
	}
}

func securityHeadersMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Set(fiber.HeaderXContentTypeOptions, "nosniff")
		c.Set(fiber.HeaderXFrameOptions, "DENY")
		c.Set(fiber.HeaderReferrerPolicy, "strict-origin-when-cross-origin")
		c.Set(fiber.HeaderContentSecurityPolicy, "default-src 'self'; style-src 'self' 'unsafe-inline'; img-src 'self' data: https:;")
		if c.Protocol() == "https" {
			c.Set(fiber.HeaderStrictTransportSecurity, "max-age=31536000; includeSubDomains")
		}
		return c.Next()
	}
}

func errorHandlingMiddleware(logger *zap.Logger, metrics *observability.Metrics, renderer *web.Renderer) fiber.Handler {
	return func(c *fiber.Ctx) (err error) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("panic recovered", zap.Any("panic", r), zap.ByteString("stack", debug.Stack()))
				err = apperrors.NewInternalError(nil)
			}
			if err != nil {
				domainErr := apperrors.ToDomainError(err)
				metrics.RecordError(c.Path(), c.Method(), domainErr.Code)
				if domainErr.HTTPStatus >= 500 {
					logger.Error("request failed", zap.Error(domainErr))
				}
				if wantsJSON(c) {
					writeJSONError(c, domainErr)
				} else {
					writeHTMLError(c, renderer, logger, domainErr)
				}
				err = nil
			}
		}()
		return c.Next()
	}
}

func wantsJSON(c *fiber.Ctx) bool {
	return strings.Contains(c.Get(fiber.HeaderAccept), fiber.MIMEApplicationJSON)
}

func writeJSONError(c *fiber.Ctx, domainErr *apperrors.DomainError) {
	response := fiber.Map{"error": fiber.Map{
		"code":    domainErr.Code,
		"message": domainErr.Message,
	}}
	if len(domainErr.Details) > 0 {
		response["error"].(fiber.Map)["details"] = domainErr.Details
	}
	c.Status(domainErr.HTTPStatus)
	_ = c.JSON(response)
}

func writeHTMLError(c *fiber.Ctx, renderer *web.Renderer, logger *zap.Logger, domainErr *apperrors.DomainError) {
	page := handlers.NewPage(c, "Something went wrong")
	messages, _ := domainErr.Details["messages"].([]string)
	page.Data = fiber.Map{
		"Status":   domainErr.HTTPStatus,
		"Message":  domainErr.Message,
		"Messages": messages,
	}
	if err := renderer.Send(c, domainErr.HTTPStatus, "error", page); err != nil {
		logger.Error("error page failed to render", zap.Error(err))
		c.Status(domainErr.HTTPStatus)
		_ = c.SendString(domainErr.Message)
	}
}
