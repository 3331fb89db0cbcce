// Package docs registers the OpenAPI document served under /swagger.
// Keep it in step with the @Router annotations in pkg/api/handlers.
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
    "paths": {
        "/health": {
            "get": {
                "description": "Returns the health of the API and the panel link",
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "Health check",
                "responses": {
                    "200": {"description": "Panel link is running", "schema": {"$ref": "#/definitions/types.HealthResponse"}},
                    "503": {"description": "Panel link is down", "schema": {"$ref": "#/definitions/types.HealthResponse"}}
                }
            }
        },
        "/devices": {
            "get": {
                "description": "Lists zones and partitions with their labels and last reported flags",
                "produces": ["application/json"],
                "tags": ["devices"],
                "summary": "List devices",
                "parameters": [
                    {"enum": ["zone", "partition"], "type": "string", "description": "Only devices of this kind", "name": "kind", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.ListDevicesResponse"}},
                    "400": {"description": "Unknown kind", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            }
        },
        "/devices/{kind}/{id}": {
            "get": {
                "description": "Returns one zone or partition",
                "produces": ["application/json"],
                "tags": ["devices"],
                "summary": "Get a device",
                "parameters": [
                    {"type": "string", "description": "zone or partition", "name": "kind", "in": "path", "required": true},
                    {"type": "integer", "description": "Device number", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.DeviceResponse"}},
                    "404": {"description": "Unknown device", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            },
            "patch": {
                "description": "Sets the label shown for a zone or partition",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["devices"],
                "summary": "Rename a device",
                "parameters": [
                    {"type": "string", "description": "zone or partition", "name": "kind", "in": "path", "required": true},
                    {"type": "integer", "description": "Device number", "name": "id", "in": "path", "required": true},
                    {"description": "New label", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/types.RenameDeviceRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.DeviceResponse"}},
                    "400": {"description": "Invalid label", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "404": {"description": "Unknown device", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            }
        },
        "/devices/{kind}/{id}/attributes/{attribute}": {
            "get": {
                "description": "Returns the last reported value of one status flag",
                "produces": ["application/json"],
                "tags": ["devices"],
                "summary": "Query an attribute",
                "parameters": [
                    {"type": "string", "description": "zone or partition", "name": "kind", "in": "path", "required": true},
                    {"type": "integer", "description": "Device number", "name": "id", "in": "path", "required": true},
                    {"type": "string", "description": "Attribute name, e.g. fault or armed", "name": "attribute", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.AttributeResponse"}},
                    "404": {"description": "Unknown device or attribute", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "503": {"description": "Panel not connected", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            }
        },
        "/commands": {
            "post": {
                "description": "Queues a function key (stay, exit, chime...) or a 4 or 6 digit user code",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["commands"],
                "summary": "Send a keypad command",
                "parameters": [
                    {"description": "Command to send", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/types.CommandRequest"}}
                ],
                "responses": {
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/types.CommandResponse"}},
                    "400": {"description": "Invalid command", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "503": {"description": "Panel not connected", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "504": {"description": "Command queue full", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            }
        },
        "/events": {
            "get": {
                "description": "Returns recorded attribute changes, newest first",
                "produces": ["application/json"],
                "tags": ["events"],
                "summary": "Event history",
                "parameters": [
                    {"type": "string", "description": "zone or partition", "name": "kind", "in": "query"},
                    {"type": "integer", "description": "Device number", "name": "id", "in": "query"},
                    {"type": "string", "description": "Attribute name", "name": "attribute", "in": "query"},
                    {"type": "string", "description": "RFC 3339 timestamp", "name": "since", "in": "query"},
                    {"type": "integer", "description": "Maximum number of events (default 100)", "name": "limit", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.ListEventsResponse"}},
                    "400": {"description": "Invalid filter", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "503": {"description": "History not stored", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            }
        },
        "/events/stream": {
            "get": {
                "description": "Server-Sent Events stream of attribute changes",
                "produces": ["text/event-stream"],
                "tags": ["events"],
                "summary": "Subscribe to live events",
                "responses": {
                    "200": {"description": "SSE event stream", "schema": {"type": "string"}}
                }
            }
        },
        "/events/ws": {
            "get": {
                "description": "Upgrades to a WebSocket that receives one JSON message per attribute change",
                "tags": ["events"],
                "summary": "Live events over WebSocket",
                "responses": {
                    "101": {"description": "Switching protocols", "schema": {"type": "string"}}
                }
            }
        }
    },
    "definitions": {
        "device.Attribute": {
            "type": "object",
            "properties": {
                "changed": {"type": "string"},
                "known": {"type": "boolean"},
                "name": {"type": "string"},
                "value": {"type": "boolean"}
            }
        },
        "device.Device": {
            "type": "object",
            "properties": {
                "attributes": {"type": "array", "items": {"$ref": "#/definitions/device.Attribute"}},
                "id": {"type": "integer"},
                "kind": {"type": "string", "enum": ["zone", "partition"]},
                "name": {"type": "string"}
            }
        },
        "db.EventRecord": {
            "type": "object",
            "properties": {
                "seq": {"type": "integer"},
                "session": {"type": "string"},
                "kind": {"type": "string"},
                "id": {"type": "integer"},
                "attribute": {"type": "string"},
                "value": {"type": "boolean"},
                "timestamp": {"type": "string"}
            }
        },
        "types.AttributeResponse": {
            "type": "object",
            "properties": {
                "kind": {"type": "string"},
                "id": {"type": "integer"},
                "changed": {"type": "string"},
                "known": {"type": "boolean"},
                "name": {"type": "string"},
                "value": {"type": "boolean"}
            }
        },
        "types.CommandRequest": {
            "type": "object",
            "required": ["command"],
            "properties": {
                "command": {"type": "string", "example": "stay"}
            }
        },
        "types.CommandResponse": {
            "type": "object",
            "properties": {
                "status": {"type": "string"},
                "timestamp": {"type": "string"}
            }
        },
        "types.DeviceResponse": {
            "type": "object",
            "properties": {
                "device": {"$ref": "#/definitions/device.Device"}
            }
        },
        "types.ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {"type": "string"},
                "message": {"type": "string"}
            }
        },
        "types.HealthResponse": {
            "type": "object",
            "properties": {
                "controller": {"type": "string"},
                "link_error": {"type": "string"},
                "session": {"type": "string"},
                "status": {"type": "string"},
                "timestamp": {"type": "string"}
            }
        },
        "types.ListDevicesResponse": {
            "type": "object",
            "properties": {
                "count": {"type": "integer"},
                "devices": {"type": "array", "items": {"$ref": "#/definitions/device.Device"}}
            }
        },
        "types.ListEventsResponse": {
            "type": "object",
            "properties": {
                "count": {"type": "integer"},
                "events": {"type": "array", "items": {"$ref": "#/definitions/db.EventRecord"}}
            }
        },
        "types.RenameDeviceRequest": {
            "type": "object",
            "required": ["name"],
            "properties": {
                "name": {"type": "string"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{"http", "https"},
	Title:            "nxbridge API",
	Description:      "REST API for an NX-587E equipped alarm panel",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
