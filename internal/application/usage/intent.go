package usage

import (
	"net/http"
	"strings"

	"github.com/jhoicas/tenancy-gateway/internal/domain/entity"
)

const mebibyte = 1 << 20

// Recursos con techo de plan.
const (
	ResourceProducts = "products"
	ResourceOrders   = "orders"
	ResourceStorage  = "storage"
)

// Intent qué contadores va a incrementar una escritura.
type Intent struct {
	IncrementProducts bool
	IncrementOrders   bool
	IncrementStorage  bool
	StorageMB         int64
}

// Any informa si la petición consume algún recurso.
func (i Intent) Any() bool {
	return i.IncrementProducts || i.IncrementOrders || i.IncrementStorage
}

// Delta incremento correspondiente a la intención.
func (i Intent) Delta() entity.Usage {
	var d entity.Usage
	if i.IncrementProducts {
		d.Products = 1
	}
	if i.IncrementOrders {
		d.Orders = 1
	}
	if i.IncrementStorage {
		d.StorageMB = i.StorageMB
	}
	return d
}

// DetectIntent sólo los POST a colecciones consumen cuota (sin distinguir mayúsculas):
//
//	POST …/products -> un producto
//	POST …/orders   -> una orden
//	POST …/uploads  -> ceil(content-length / 1 MiB) MB
func DetectIntent(method, path string, contentLength int64) Intent {
	if !strings.EqualFold(method, http.MethodPost) {
		return Intent{}
	}
	last := path
	if i := strings.IndexByte(last, '?'); i >= 0 {
		last = last[:i]
	}
	last = strings.TrimSuffix(last, "/")
	if i := strings.LastIndexByte(last, '/'); i >= 0 {
		last = last[i+1:]
	}

	switch strings.ToLower(last) {
	case "products":
		return Intent{IncrementProducts: true}
	case "orders":
		return Intent{IncrementOrders: true}
	case "uploads":
		return Intent{IncrementStorage: true, StorageMB: StorageMB(contentLength)}
	}
	return Intent{}
}

// StorageMB redondea hacia arriba a MB enteros; tamaños desconocidos (<0) cuentan como 0.
func StorageMB(contentLength int64) int64 {
	if contentLength <= 0 {
		return 0
	}
	return (contentLength + mebibyte - 1) / mebibyte
}
