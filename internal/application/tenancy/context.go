package tenancy

import (
	"net"
	"strings"
)

// Context identidad de tenant resuelta para una petición. Nunca se persiste.
// Campos vacíos significan "sin acceso a tenant".
type Context struct {
	ID             string
	StoreID        string
	SalesChannelID string
	IsAdmin        bool
	IsStorefront   bool
	Strategy       string // estrategia que resolvió el tenant
}

// Resolved informa si alguna estrategia encontró tenant.
func (c Context) Resolved() bool {
	return c.StoreID != ""
}

// Filter predicado obligatorio para la capa de datos aguas abajo.
type Filter struct {
	StoreID        string `json:"store_id"`
	SalesChannelID string `json:"sales_channel_id"`
}

// Filter deriva el filtro de consulta del contexto.
func (c Context) Filter() Filter {
	return Filter{StoreID: c.StoreID, SalesChannelID: c.SalesChannelID}
}

// NormalizeHost quita el puerto y pasa a minúsculas.
func NormalizeHost(host string) string {
	host = strings.TrimSpace(host)
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	return strings.TrimSuffix(strings.ToLower(host), ".")
}

// ExtractSubdomainFromHost devuelve la primera etiqueta cuando el host tiene más de dos.
//
//	shop1.example.com      -> "shop1", true
//	example.com            -> "", false
//	shop1.example.com:3000 -> "shop1", true
func ExtractSubdomainFromHost(host string) (string, bool) {
	host = NormalizeHost(host)
	if host == "" {
		return "", false
	}
	parts := strings.Split(host, ".")
	if len(parts) <= 2 || parts[0] == "" {
		return "", false
	}
	return parts[0], true
}
