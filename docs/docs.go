// Package docs holds the OpenAPI description served under /swagger
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {
            "name": "Print Bridge Support"
        },
        "license": {
            "name": "MIT",
            "url": "https://opensource.org/licenses/MIT"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/print": {
            "post": {
                "security": [{"BearerAuth": []}],
                "description": "Accepts a JSON order or sale document, a base64 image (optionally a data URI), raw image bytes, or a form field \"data\" holding either.",
                "consumes": ["application/json", "text/plain", "image/png", "image/jpeg", "application/x-www-form-urlencoded", "multipart/form-data"],
                "produces": ["application/json"],
                "tags": ["Print"],
                "summary": "Print a job",
                "parameters": [
                    {"type": "integer", "enum": [58, 80], "description": "Paper width for images", "name": "paper_width", "in": "query"},
                    {"type": "boolean", "description": "Kick the cash drawer after an image", "name": "open_cash", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "Job printed", "schema": {"$ref": "#/definitions/utils.APIResponse"}},
                    "400": {"description": "Empty body or invalid base64", "schema": {"$ref": "#/definitions/utils.APIResponse"}},
                    "413": {"description": "Body too large", "schema": {"$ref": "#/definitions/utils.APIResponse"}},
                    "429": {"description": "Printer busy", "schema": {"$ref": "#/definitions/utils.APIResponse"}},
                    "500": {"description": "Image could not be decoded", "schema": {"$ref": "#/definitions/utils.APIResponse"}},
                    "503": {"description": "Printer unavailable", "schema": {"$ref": "#/definitions/utils.APIResponse"}}
                }
            }
        },
        "/api/v1/print/test": {
            "post": {
                "security": [{"BearerAuth": []}],
                "description": "Prints accented characters, the active codepage and a currency sample",
                "produces": ["application/json"],
                "tags": ["Print"],
                "summary": "Print a test page",
                "parameters": [
                    {"type": "integer", "enum": [58, 80], "description": "Paper width", "name": "paper_width", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "Test page printed", "schema": {"$ref": "#/definitions/utils.APIResponse"}},
                    "429": {"description": "Printer busy", "schema": {"$ref": "#/definitions/utils.APIResponse"}},
                    "503": {"description": "Printer unavailable", "schema": {"$ref": "#/definitions/utils.APIResponse"}}
                }
            }
        },
        "/api/v1/printer": {
            "get": {
                "security": [{"BearerAuth": []}],
                "description": "Transport type, connection state and job counters",
                "produces": ["application/json"],
                "tags": ["Print"],
                "summary": "Printer status",
                "responses": {
                    "200": {"description": "Printer status", "schema": {"$ref": "#/definitions/utils.APIResponse"}}
                }
            }
        },
        "/api/v1/printers": {
            "get": {
                "security": [{"BearerAuth": []}],
                "description": "USB printers (class 7 or a known ESC/POS vendor) and serial ports",
                "produces": ["application/json"],
                "tags": ["Discovery"],
                "summary": "List printers",
                "parameters": [
                    {"enum": ["all", "usb", "serial"], "type": "string", "default": "all", "description": "Scanner type", "name": "type", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "Printer scan completed", "schema": {"$ref": "#/definitions/utils.APIResponse"}},
                    "400": {"description": "Unknown scanner type", "schema": {"$ref": "#/definitions/utils.APIResponse"}}
                }
            }
        },
        "/api/v1/printers/scanners": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Discovery"],
                "summary": "Available scanners",
                "responses": {
                    "200": {"description": "Scanners", "schema": {"$ref": "#/definitions/utils.APIResponse"}}
                }
            }
        },
        "/ws/jobs": {
            "get": {
                "description": "WebSocket stream of job_received, job_printed, job_failed and printer events",
                "tags": ["Events"],
                "summary": "Job event stream",
                "parameters": [
                    {"type": "string", "description": "Bearer token when auth is enabled", "name": "token", "in": "query"}
                ],
                "responses": {
                    "101": {"description": "Switching Protocols", "schema": {"type": "string"}}
                }
            }
        },
        "/health": {
            "get": {
                "description": "Service version, uptime, printer transport state and job counters",
                "produces": ["application/json"],
                "tags": ["Health"],
                "summary": "Health check",
                "responses": {
                    "200": {"description": "Service is up", "schema": {"$ref": "#/definitions/handler.HealthResponse"}}
                }
            }
        },
        "/ready": {
            "get": {
                "description": "Ready when a printer transport is configured",
                "produces": ["application/json"],
                "tags": ["Health"],
                "summary": "Readiness check",
                "responses": {
                    "200": {"description": "Service is ready"},
                    "503": {"description": "Service is not ready"}
                }
            }
        },
        "/live": {
            "get": {
                "description": "Check if service is alive",
                "produces": ["application/json"],
                "tags": ["Health"],
                "summary": "Liveness check",
                "responses": {
                    "200": {"description": "Service is alive"}
                }
            }
        }
    },
    "definitions": {
        "handler.CheckResult": {
            "type": "object",
            "properties": {
                "data": {"type": "object", "additionalProperties": true},
                "message": {"type": "string"},
                "status": {"type": "string"}
            }
        },
        "handler.HealthResponse": {
            "type": "object",
            "properties": {
                "checks": {"type": "object", "additionalProperties": {"$ref": "#/definitions/handler.CheckResult"}},
                "service": {"type": "string"},
                "status": {"type": "string"},
                "timestamp": {"type": "string"},
                "uptime": {"type": "string"},
                "version": {"type": "string"}
            }
        },
        "utils.APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "details": {"type": "string"},
                "message": {"type": "string"}
            }
        },
        "utils.APIResponse": {
            "type": "object",
            "properties": {
                "data": {},
                "error": {"$ref": "#/definitions/utils.APIError"},
                "message": {"type": "string"},
                "request_id": {"type": "string"},
                "success": {"type": "boolean"},
                "timestamp": {"type": "string"}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "description": "Type \"Bearer\" followed by a space and JWT token.",
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Print Bridge API",
	Description:      "Local ESC/POS bridge that turns order, sale and image jobs into receipts",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
