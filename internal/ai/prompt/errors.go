package prompt

import (
	"context"
	"errors"
	"fmt"
	"net"
)

var (
	ErrProviderUnavailable = errors.New("ai provider unavailable")
	ErrInferenceTimeout    = errors.New("ai inference timeout")
	ErrInvalidResponse     = errors.New("ai provider returned invalid response")
	ErrResponseBlocked     = errors.New("model declined to respond")
	ErrEmptyResponse       = errors.New("API returned an empty response.")
)

// CallError maps a transport-level failure from a provider SDK to a sentinel error.
func CallError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("AI analysis failed. Details: %w: %v", ErrInferenceTimeout, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("AI analysis failed. Details: %w: %v", ErrInferenceTimeout, err)
	}
	return fmt.Errorf("AI analysis failed. Details: %w: %v", ErrProviderUnavailable, err)
}

// Blocked reports a reply that carried no content, with the provider's stated reason.
func Blocked(reason string) error {
	return fmt.Errorf("AI analysis failed! Reason: %w (%s)", ErrResponseBlocked, reason)
}
