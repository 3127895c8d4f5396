// Package errmap translates fault events into HTTP error responses.
//
// A Mapper holds a fixed table from fault.Kind to handler. Each handler is a
// pure function of the event: it reads the payload, builds a fresh Response
// and never performs I/O. Map acknowledges the event once a handler matched.
//
//	| kind                 | status         | body                          |
//	|----------------------|----------------|-------------------------------|
//	| generic              | 400            | {"error": <message>}          |
//	| validation           | 409            | {"email": "Email taken"}      |
//	| web_request          | event status   | none                          |
//	| constraint_violation | 400            | {<path>: <message>, ...}      |
//
// Events of any other kind, and responses whose status falls outside
// 100-599, are left to the caller's default handling.
package errmap

import (
	"net/http"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/tbourn/go-rest-errors/internal/fault"
)

// Response is the status and body to send for a handled event. A nil Body
// means the response carries no entity.
type Response struct {
	Status int
	Body   map[string]string
}

// HandlerFunc builds the response for one event kind.
type HandlerFunc func(lg *zerolog.Logger, evt *fault.Event) Response

// Mapper dispatches events to the handler registered for their kind.
// The table is read-only after New, so a Mapper is safe for concurrent use.
type Mapper struct {
	handlers map[fault.Kind]HandlerFunc
}

// New returns a Mapper with the four standard handlers.
func New() *Mapper {
	return &Mapper{
		handlers: map[fault.Kind]HandlerFunc{
			fault.KindGeneric:             handleGeneric,
			fault.KindValidation:          handleValidation,
			fault.KindWebRequest:          handleWebRequest,
			fault.KindConstraintViolation: handleConstraintViolation,
		},
	}
}

// Handles reports whether k has a registered handler.
func (m *Mapper) Handles(k fault.Kind) bool {
	_, ok := m.handlers[k]
	return ok
}

// Map builds the response for evt and marks it handled. It returns false,
// leaving evt unacknowledged, when evt is nil, no handler matches its kind or
// the handler produced a status outside 100-599 (e.g. a zero-value
// fault.WebRequestError). A nil lg logs through the global logger.
func (m *Mapper) Map(lg *zerolog.Logger, evt *fault.Event) (Response, bool) {
	if evt == nil {
		return Response{}, false
	}
	h, ok := m.handlers[evt.Kind]
	if !ok {
		return Response{}, false
	}
	if lg == nil {
		lg = &log.Logger
	}
	resp := h(lg, evt)
	if !validStatus(resp.Status) {
		lg.Warn().
			Str("kind", evt.Kind.String()).
			Int("status", resp.Status).
			Msg("unmappable status")
		return Response{}, false
	}
	evt.MarkHandled()
	return resp, true
}

func validStatus(code int) bool {
	return code >= 100 && code <= 599
}

func handleGeneric(_ *zerolog.Logger, evt *fault.Event) Response {
	return Response{
		Status: http.StatusBadRequest,
		Body:   map[string]string{"error": evt.Message()},
	}
}

// handleValidation ignores the event payload: the only validation failure
// raised by the application is the unique email constraint.
func handleValidation(_ *zerolog.Logger, _ *fault.Event) Response {
	return Response{
		Status: http.StatusConflict,
		Body:   map[string]string{"email": "Email taken"},
	}
}

func handleWebRequest(_ *zerolog.Logger, evt *fault.Event) Response {
	return Response{Status: evt.Status}
}

func handleConstraintViolation(lg *zerolog.Logger, evt *fault.Event) Response {
	return Response{
		Status: http.StatusBadRequest,
		Body:   violationBody(lg, evt.Violations),
	}
}

// violationBody keys each message by its attribute path. On duplicate paths
// the later violation wins; callers must not rely on which one that is.
func violationBody(lg *zerolog.Logger, vs []fault.Violation) map[string]string {
	lg.Debug().Int("violations", len(vs)).Msg("validation completed")

	body := make(map[string]string, len(vs))
	for _, v := range vs {
		body[v.Path] = v.Message
	}
	return body
}
