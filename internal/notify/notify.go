// Package notify delivers an archive's authentication code to its recipient
// through a TextBelt-style SMS gateway.
//
// A gateway reply is classified purely by text: it succeeded when the body
// contains SuccessMarker. The HTTP status code is ignored, so an HTML error
// page, a curl diagnostic or an empty body all count as failures.
package notify

import (
	"bytes"
	"context"
	"errors"
	"fmt"
)

const (
	// DefaultGatewayURL is the public TextBelt endpoint.
	DefaultGatewayURL = "http://textbelt.com/text"

	// SuccessMarker is the literal a successful gateway reply contains.
	SuccessMarker = `"success": true`
)

// ErrNotDelivered is returned when the gateway did not confirm delivery.
var ErrNotDelivered = errors.New("authentication code not delivered")

// Request is one code delivery.
type Request struct {
	// ID correlates log entries for this delivery; it is not sent.
	ID string
	// Number is the recipient's phone number, passed on unvalidated.
	Number   string
	Filename string
	Code     string
}

// Message renders the SMS text.
func (r Request) Message() string {
	return fmt.Sprintf("2Factor Auth Code for %s: %s", r.Filename, r.Code)
}

// Notifier delivers a Request.
type Notifier interface {
	// Notify returns nil once the gateway confirmed delivery and an error
	// wrapping ErrNotDelivered when it did not.
	Notify(ctx context.Context, req Request) error
}

// IsSuccess reports whether a gateway reply confirms delivery.
func IsSuccess(reply []byte) bool {
	return bytes.Contains(reply, []byte(SuccessMarker))
}

// snippet shortens a reply for log output.
func snippet(reply []byte) string {
	const limit = 120
	s := string(bytes.TrimSpace(reply))
	if len(s) > limit {
		return s[:limit] + "..."
	}
	return s
}
