// Package docs registers the OpenAPI description served by the Swagger UI.
//
// The document is maintained by hand, not by swag init. It has no paths of
// its own: resources mounted into the REST group reference the shared
// "responses" below, whose schemas describe the mapped error bodies.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {},
    "responses": {
        "GenericError": {
            "description": "Generic failure",
            "schema": {
                "$ref": "#/definitions/GenericErrorBody"
            }
        },
        "EmailTaken": {
            "description": "Validation failure",
            "schema": {
                "$ref": "#/definitions/EmailTakenBody"
            }
        },
        "ConstraintViolations": {
            "description": "Constraint violations keyed by attribute path",
            "schema": {
                "$ref": "#/definitions/ConstraintViolationBody"
            }
        },
        "InternalError": {
            "description": "Unmapped failure",
            "schema": {
                "$ref": "#/definitions/handlers.ErrorResponse"
            }
        }
    },
    "definitions": {
        "handlers.ErrorResponse": {
            "type": "object",
            "properties": {
                "code": {
                    "type": "string",
                    "example": "not_found"
                },
                "message": {
                    "type": "string",
                    "example": "route not found"
                },
                "request_id": {
                    "type": "string",
                    "example": "123e4567-e89b-12d3-a456-426614174000"
                }
            }
        },
        "GenericErrorBody": {
            "description": "400 for a generic failure",
            "type": "object",
            "properties": {
                "error": {
                    "type": "string",
                    "example": "bad id"
                }
            }
        },
        "EmailTakenBody": {
            "description": "409 for a validation failure",
            "type": "object",
            "properties": {
                "email": {
                    "type": "string",
                    "example": "Email taken"
                }
            }
        },
        "ConstraintViolationBody": {
            "description": "400 for constraint violations, keyed by attribute path",
            "type": "object",
            "additionalProperties": {
                "type": "string"
            },
            "example": {
                "email": "must be a well-formed email address",
                "name": "must not be blank"
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "REST error responses",
	Description:      "Error response shapes returned by the REST API.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
