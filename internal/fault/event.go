// Package fault models errors raised while serving REST requests as tagged
// events. An Event carries the error kind, its payload (intended status or
// constraint violations), and an acknowledgment flag the dispatch layer uses
// to stop further propagation.
//
// Events are produced by Classify (from arbitrary Go errors) or by the
// New* constructors, and are consumed by the errmap package.
package fault

// Kind tags the variant of an Event.
type Kind int

const (
	// KindUnknown is the zero value; no mapper handles it.
	KindUnknown Kind = iota
	// KindGeneric covers any failure without a more specific kind.
	KindGeneric
	// KindValidation is a uniqueness/business validation failure.
	KindValidation
	// KindWebRequest carries the HTTP status the raiser intended.
	KindWebRequest
	// KindConstraintViolation carries per-attribute violations.
	KindConstraintViolation
)

// String returns the lowercase label used in logs and metrics.
func (k Kind) String() string {
	switch k {
	case KindGeneric:
		return "generic"
	case KindValidation:
		return "validation"
	case KindWebRequest:
		return "web_request"
	case KindConstraintViolation:
		return "constraint_violation"
	default:
		return "unknown"
	}
}

// Event is a raised error plus the metadata a handler needs.
//
// Fields other than the acknowledgment flag are set at construction and must
// not be modified afterwards. An Event lives for the duration of one failed
// request.
type Event struct {
	Kind       Kind
	Err        error
	Status     int         // only for KindWebRequest
	Violations []Violation // only for KindConstraintViolation

	handled bool
}

// Message returns the error message, or "" when the event has no error.
func (e *Event) Message() string {
	if e == nil || e.Err == nil {
		return ""
	}
	return e.Err.Error()
}

// MarkHandled acknowledges the event. Repeated calls have no further effect.
func (e *Event) MarkHandled() {
	if e != nil {
		e.handled = true
	}
}

// Handled reports whether MarkHandled has been called.
func (e *Event) Handled() bool {
	return e != nil && e.handled
}

// NewGeneric wraps err as a generic failure. err may be nil.
func NewGeneric(err error) *Event {
	return &Event{Kind: KindGeneric, Err: err}
}

// NewValidation wraps err as a validation failure.
func NewValidation(err error) *Event {
	return &Event{Kind: KindValidation, Err: err}
}

// NewWebRequest wraps err as a web request failure with the given status.
func NewWebRequest(status int, err error) *Event {
	return &Event{Kind: KindWebRequest, Err: err, Status: status}
}

// NewConstraintViolation wraps a set of violations. The slice is copied.
func NewConstraintViolation(err error, violations []Violation) *Event {
	vs := make([]Violation, len(violations))
	copy(vs, violations)
	return &Event{Kind: KindConstraintViolation, Err: err, Violations: vs}
}
