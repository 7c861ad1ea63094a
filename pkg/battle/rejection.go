package battle

import (
	"errors"
	"fmt"
)

// Severity selects the outbound notice type used to report a rejection.
type Severity int

const (
	// SeverityWarning marks rule violations: wrong turn, missing resources,
	// illegal targets. Reported as a "warning" message.
	SeverityWarning Severity = iota
	// SeverityError marks malformed requests: bad indexes, unknown
	// identifiers. Reported as an "error" message.
	SeverityError
)

// Rejection is returned when an action is refused. The room is left
// untouched and the message is delivered to the acting player only.
type Rejection struct {
	Severity Severity
	Message  string
}

func (r *Rejection) Error() string {
	return r.Message
}

func rejectWarning(format string, args ...interface{}) *Rejection {
	return &Rejection{Severity: SeverityWarning, Message: fmt.Sprintf(format, args...)}
}

func rejectError(format string, args ...interface{}) *Rejection {
	return &Rejection{Severity: SeverityError, Message: fmt.Sprintf(format, args...)}
}

// AsRejection unwraps err as a Rejection if it is one.
func AsRejection(err error) (*Rejection, bool) {
	rejection := &Rejection{}
	if errors.As(err, &rejection) {
		return rejection, true
	}
	return nil, false
}
