package api

import (
	"encoding/json"
)

// InvokeRequest carries one entry point invocation. Deposit is a decimal
// string so large amounts survive JSON clients.
type InvokeRequest struct {
	Caller  string          `json:"caller"`
	Deposit string          `json:"deposit,omitempty"`
	Args    json.RawMessage `json:"args,omitempty"`
}

type InvokeResponse struct {
	Result json.RawMessage `json:"result"`
}

type MethodsResponse struct {
	Contract    string   `json:"contract"`
	ViewMethods []string `json:"view_methods"`
	CallMethods []string `json:"call_methods"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
