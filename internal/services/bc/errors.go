package bc

import "fmt"

// AuthError means no usable token could be obtained; the run cannot proceed.
type AuthError struct {
	Reason string
	Err    error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("auth failed: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("auth failed: %s", e.Reason)
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// ApiError is a non-2xx response from the Business Central API.
type ApiError struct {
	Status int
	Body   string
}

func (e *ApiError) Error() string {
	return fmt.Sprintf("API request failed: %d - %s", e.Status, e.Body)
}
