package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/proxy"

	"github.com/jhoicas/tenancy-gateway/internal/application/tenancy"
	"github.com/jhoicas/tenancy-gateway/internal/domain"
	"github.com/jhoicas/tenancy-gateway/internal/domain/entity"
	"github.com/jhoicas/tenancy-gateway/pkg/logger"
)

// Headers con el filtro obligatorio que recibe el backend de comercio.
const (
	HeaderStoreID        = "x-store-id"
	HeaderSalesChannelID = "x-sales-channel-id"
)

// CommerceCollections colecciones del backend que se reenvían bajo el prefijo admin.
var CommerceCollections = []string{"products", "orders", "uploads", "customers", "collections"}

var collectionKinds = map[string]string{
	"products":    entity.ResourceProduct,
	"orders":      entity.ResourceOrder,
	"customers":   entity.ResourceCustomer,
	"collections": entity.ResourceCollection,
}

// CommerceHandler proxy inverso hacia el backend de comercio con el filtro de tenant inyectado.
type CommerceHandler struct {
	baseURL     string
	token       string
	adminPrefix string
	access      *tenancy.AccessValidator
	log         *logger.Logger
}

// NewCommerceHandler construye el proxy. access puede ser nil (sin verificación por recurso).
func NewCommerceHandler(baseURL, token, adminPrefix string, access *tenancy.AccessValidator, log *logger.Logger) *CommerceHandler {
	return &CommerceHandler{
		baseURL:     strings.TrimSuffix(baseURL, "/"),
		token:       token,
		adminPrefix: strings.TrimSuffix(adminPrefix, "/"),
		access:      access,
		log:         log,
	}
}

// Forward reenvía la petición. En rutas /<colección>/<id> verifica antes la pertenencia del recurso.
func (h *CommerceHandler) Forward(c *fiber.Ctx) error {
	filter, ok := GetFilter(c)
	if !ok && !isSuperAdmin(c) {
		return respondError(c, h.log, domain.ErrTenantContextRequired)
	}

	if kind, id := h.resourceFromPath(c.Path()); kind != "" && id != "" && h.access != nil {
		if err := h.access.ValidateTenantAccess(c.UserContext(), GetTenantContext(c), isSuperAdmin(c), id, kind); err != nil {
			return respondError(c, h.log, err)
		}
	}

	req := &c.Request().Header
	req.Del(HeaderTenantID)
	req.Del(HeaderPublishableKey)
	req.Del(HeaderStoreID)
	req.Del(HeaderSalesChannelID)
	if filter.StoreID != "" {
		req.Set(HeaderStoreID, filter.StoreID)
	}
	if filter.SalesChannelID != "" {
		req.Set(HeaderSalesChannelID, filter.SalesChannelID)
	}
	if h.token != "" {
		req.Set(fiber.HeaderAuthorization, "Bearer "+h.token)
	}

	if err := proxy.Do(c, h.baseURL+c.OriginalURL()); err != nil {
		h.log.Error().Err(err).Str("path", c.Path()).Msg("fallo al reenviar al backend de comercio")
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"code": "UPSTREAM_UNAVAILABLE", "message": "backend de comercio no disponible"})
	}
	c.Response().Header.Del(fiber.HeaderServer)
	return nil
}

// resourceFromPath /admin/products/prod_1/variants -> ("product", "prod_1").
func (h *CommerceHandler) resourceFromPath(path string) (kind, id string) {
	if len(path) < len(h.adminPrefix) || !strings.EqualFold(path[:len(h.adminPrefix)], h.adminPrefix) {
		return "", ""
	}
	parts := strings.Split(strings.Trim(path[len(h.adminPrefix):], "/"), "/")
	if len(parts) < 2 {
		return "", ""
	}
	// El router no distingue mayúsculas: /admin/PRODUCTS llega aquí igual.
	kind, ok := collectionKinds[strings.ToLower(parts[0])]
	if !ok {
		return "", ""
	}
	return kind, parts[1]
}
