package dto

// ErrorResponse cuerpo de error HTTP.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// LimitDetails datos para que el cliente sugiera un upgrade de plan.
type LimitDetails struct {
	Resource     string `json:"resource"`
	CurrentUsage int64  `json:"currentUsage"`
	Limit        int64  `json:"limit"`
	Plan         string `json:"plan"`
	Upgrade      string `json:"upgrade"`
}

// LimitErrorResponse ErrorResponse con los detalles del techo alcanzado.
type LimitErrorResponse struct {
	Code    string       `json:"code"`
	Message string       `json:"message"`
	Details LimitDetails `json:"details"`
}

// ReceivedResponse acuse de recibo de un webhook.
type ReceivedResponse struct {
	Received bool `json:"received"`
}
