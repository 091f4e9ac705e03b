// Package types holds wire shapes shared between the HTTP layer and services.
package types

// DataBody is every 2xx payload: {"data": ...}.
type DataBody struct {
	Data any `json:"data"`
}

// ErrorBody is every non-2xx payload: {"error": {...}}.
type ErrorBody struct {
	Error PublicError `json:"error"`
}

// PublicError carries only what a client may see. Details is set for codes
// whose metadata allows it.
type PublicError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}
