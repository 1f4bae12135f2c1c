package dto

import "encoding/json"

// Envelope wraps every API response.
type Envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Results json.RawMessage `json:"results"`
}
