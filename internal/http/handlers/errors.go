// Package handlers defines HTTP-layer error codes for responses that do not
// go through the fault mapper.
//
// Mapped faults (generic, validation, web request and constraint violation
// failures raised inside the REST group) are rendered by RestErrors with the
// body errmap produces. Everything else (unknown routes and methods, panics,
// events no handler claims) uses the ErrorResponse envelope with one of these
// codes.
//
// Example response:
//
//	{
//	  "request_id": "e1b9be03-4999-4289-9f03-999b042d65d6",
//	  "code": "not_found",
//	  "message": "route not found"
//	}
package handlers

const (
	ErrCodeNotFound         = "not_found"
	ErrCodeMethodNotAllowed = "method_not_allowed"
	ErrCodeInternal         = "internal_error"
)
