package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/tenancy-gateway/internal/application/usage"
	"github.com/jhoicas/tenancy-gateway/pkg/logger"
)

// UsageGuard reserva el consumo antes del handler y lo libera si la respuesta no es 2xx.
func UsageGuard(guard *usage.Guard, log *logger.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		in := usage.DetectIntent(c.Method(), c.Path(), int64(c.Request().Header.ContentLength()))
		if !in.Any() {
			return c.Next()
		}
		res, err := guard.Reserve(c.UserContext(), GetTenantContext(c).StoreID, in)
		if err != nil {
			return respondError(c, log, err)
		}

		err = c.Next()
		if status := c.Response().StatusCode(); err != nil || status < 200 || status >= 300 {
			// Release ya registra el fallo
			_ = guard.Release(c.UserContext(), res)
		}
		return err
	}
}
