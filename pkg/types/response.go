package types

type SuccessEnvelope struct {
	Data any `json:"data"`
}

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// CatalogErrorDetails carries the normalized catalog failure to the client.
// StatusCode is 0 when the catalog could not be reached.
type CatalogErrorDetails struct {
	StatusCode   int  `json:"statusCode"`
	Payload      any  `json:"payload,omitempty"`
	ResponseCode *int `json:"responseCode,omitempty"`
}
