package commerce

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/jhoicas/tenancy-gateway/internal/application/tenancy"
	"github.com/jhoicas/tenancy-gateway/pkg/config"
)

var _ tenancy.ResourceOwnerLookup = (*OwnerLookup)(nil)

// OwnerLookup consulta al backend de comercio (GraphQL admin) la tienda dueña de un recurso.
type OwnerLookup struct {
	http *resty.Client
}

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type graphQLResponse struct {
	Data   map[string]json.RawMessage `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

type ownedResource struct {
	ID      string `json:"id"`
	StoreID string `json:"storeId"`
}

// NewOwnerLookup construye el cliente GraphQL con el token de servicio.
func NewOwnerLookup(cfg config.CommerceConfig) *OwnerLookup {
	c := resty.New().
		SetBaseURL(cfg.URL).
		SetTimeout(5*time.Second).
		SetRetryCount(1).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
	if cfg.Token != "" {
		c.SetAuthToken(cfg.Token)
	}
	return &OwnerLookup{http: c}
}

// ResourceStoreID devuelve found=false cuando el backend no conoce el recurso.
// kind ya viene validado (product, order, customer, collection).
func (l *OwnerLookup) ResourceStoreID(ctx context.Context, kind, id string) (string, bool, error) {
	field := strings.ToLower(kind)
	query := fmt.Sprintf(`query Owner($id: ID!) { %s(id: $id) { id storeId } }`, field)

	var out graphQLResponse
	resp, err := l.http.R().
		SetContext(ctx).
		SetBody(graphQLRequest{Query: query, Variables: map[string]any{"id": id}}).
		SetResult(&out).
		Post("/graphql")
	if err != nil {
		return "", false, fmt.Errorf("commerce: llamada GraphQL fallida: %w", err)
	}
	if resp.IsError() {
		return "", false, fmt.Errorf("commerce: HTTP %d", resp.StatusCode())
	}
	if len(out.Errors) > 0 {
		return "", false, fmt.Errorf("commerce: %s", out.Errors[0].Message)
	}

	raw, ok := out.Data[field]
	if !ok || len(raw) == 0 || string(raw) == "null" {
		return "", false, nil
	}
	var res ownedResource
	if err := json.Unmarshal(raw, &res); err != nil {
		return "", false, fmt.Errorf("commerce: decodificar %s: %w", field, err)
	}
	return res.StoreID, true, nil
}
