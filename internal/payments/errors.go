package payments

import "fmt"

// DeclineError carries the gateway's own rejection back to the caller: the
// raw response code and text are preserved for support diagnostics while
// Message is the customer-facing translation.
type DeclineError struct {
	Code         string
	ResponseText string
	Message      string
}

func (e *DeclineError) Error() string {
	return fmt.Sprintf("payment declined (code %s): %s", e.Code, e.ResponseText)
}
