package source

import (
	"errors"
	"fmt"
)

// ErrPermanent marks failures that retrying cannot fix, such as an API
// error code or a response that does not decode.
var ErrPermanent = errors.New("permanent upstream error")

// RiskControlError is returned when the API refuses further requests until
// the client cools down.
type RiskControlError struct {
	Code    int
	Message string
}

func (e *RiskControlError) Error() string {
	return fmt.Sprintf("risk control (code %d): %s", e.Code, e.Message)
}

// APIError is an error code reported inside the API envelope.
type APIError struct {
	Code    int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Code, e.Message)
}

// Is makes every APIError match ErrPermanent.
func (e *APIError) Is(target error) bool {
	return target == ErrPermanent
}
