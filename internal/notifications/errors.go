package notifications

import (
	"errors"
	"fmt"
)

// ErrDeliveryFailed marks mail transport failures. It is distinct from
// the resolver's not-found errors: by the time delivery starts the
// document exists.
var ErrDeliveryFailed = errors.New("delivery failed")

// DeliveryError wraps a transport failure with the intended recipient.
type DeliveryError struct {
	To  string
	Err error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("error sending email to %s: %v", e.To, e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }

// Is lets errors.Is match any DeliveryError against ErrDeliveryFailed.
func (e *DeliveryError) Is(target error) bool { return target == ErrDeliveryFailed }
