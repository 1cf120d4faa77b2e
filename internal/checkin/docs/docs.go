// Package docs registers the OpenAPI document served under /swagger/.
// Regenerate with: swag init -g cmd/checkin/docs.go -o internal/checkin/docs
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "paths": {
        "/api/events/{eventID}/guests/{guestID}/checkin": {
            "post": {"tags": ["Check-in"], "summary": "Check in a guest", "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "eventID", "in": "path", "required": true, "type": "integer"},
                    {"name": "guestID", "in": "path", "required": true, "type": "integer"},
                    {"name": "request", "in": "body", "schema": {"$ref": "#/definitions/GiftsRequest"}}
                ],
                "responses": {"200": {"description": "Checked in"}, "404": {"description": "Not found"}, "409": {"description": "Conflict"}}}
        },
        "/api/events/{eventID}/guests/{guestID}/undo": {
            "post": {"tags": ["Check-in"], "summary": "Undo a check-in", "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "eventID", "in": "path", "required": true, "type": "integer"},
                    {"name": "guestID", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {"200": {"description": "Undone"}, "409": {"description": "Not checked in"}}}
        },
        "/api/events/{eventID}/guests/{guestID}/clear": {
            "post": {"tags": ["Check-in"], "summary": "Clear a check-in", "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "eventID", "in": "path", "required": true, "type": "integer"},
                    {"name": "guestID", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {"200": {"description": "Cleared"}, "409": {"description": "Not checked in"}}}
        },
        "/api/events/{eventID}/guests/{guestID}/gifts": {
            "put": {"tags": ["Check-in"], "summary": "Replace a guest's gifts", "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "eventID", "in": "path", "required": true, "type": "integer"},
                    {"name": "guestID", "in": "path", "required": true, "type": "integer"},
                    {"name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/GiftsRequest"}}
                ],
                "responses": {"200": {"description": "Updated"}, "409": {"description": "Conflict"}}}
        },
        "/api/events/{eventID}/guests/{guestID}": {
            "get": {"tags": ["Check-in"], "summary": "Guest check-in state", "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "eventID", "in": "path", "required": true, "type": "integer"},
                    {"name": "guestID", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {"200": {"description": "State"}, "404": {"description": "Not found"}}}
        },
        "/api/events/{eventID}/notes": {
            "post": {"tags": ["Activity"], "summary": "Record an operator note", "security": [{"BearerAuth": []}],
                "parameters": [{"name": "eventID", "in": "path", "required": true, "type": "integer"}],
                "responses": {"201": {"description": "Recorded"}, "400": {"description": "Invalid"}}}
        },
        "/api/events/{eventID}/inventory": {
            "get": {"tags": ["Inventory"], "summary": "List event inventory", "security": [{"BearerAuth": []}],
                "parameters": [{"name": "eventID", "in": "path", "required": true, "type": "integer"}],
                "responses": {"200": {"description": "Items"}}},
            "post": {"tags": ["Inventory"], "summary": "Create an inventory item", "security": [{"BearerAuth": []}],
                "parameters": [{"name": "eventID", "in": "path", "required": true, "type": "integer"}],
                "responses": {"201": {"description": "Created"}, "403": {"description": "Forbidden"}, "409": {"description": "Duplicate"}}}
        },
        "/api/inventory/{itemID}": {
            "get": {"tags": ["Inventory"], "summary": "Get inventory item", "security": [{"BearerAuth": []}],
                "parameters": [{"name": "itemID", "in": "path", "required": true, "type": "integer"}],
                "responses": {"200": {"description": "Item"}, "404": {"description": "Not found"}}}
        },
        "/api/inventory/{itemID}/adjust": {
            "patch": {"tags": ["Inventory"], "summary": "Adjust on-hand quantity", "security": [{"BearerAuth": []}],
                "parameters": [{"name": "itemID", "in": "path", "required": true, "type": "integer"}],
                "responses": {"200": {"description": "Adjusted"}, "409": {"description": "Insufficient"}}}
        },
        "/api/inventory/{itemID}/reconcile": {
            "patch": {"tags": ["Inventory"], "summary": "Record post-event count", "security": [{"BearerAuth": []}],
                "parameters": [{"name": "itemID", "in": "path", "required": true, "type": "integer"}],
                "responses": {"200": {"description": "Recorded"}}}
        },
        "/api/events/{eventID}/analytics": {
            "get": {"tags": ["Analytics"], "summary": "Event dashboard analytics", "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "eventID", "in": "path", "required": true, "type": "integer"},
                    {"name": "start", "in": "query", "type": "string", "format": "date-time"},
                    {"name": "end", "in": "query", "type": "string", "format": "date-time"},
                    {"name": "granularity", "in": "query", "type": "string", "enum": ["minute", "hour", "day"]},
                    {"name": "group_by", "in": "query", "type": "string", "enum": ["category", "style", "product"]}
                ],
                "responses": {"200": {"description": "Snapshot"}, "503": {"description": "Retry later"}}}
        },
        "/api/events/{eventID}/activity": {
            "get": {"tags": ["Activity"], "summary": "Event activity log", "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "eventID", "in": "path", "required": true, "type": "integer"},
                    {"name": "type", "in": "query", "type": "string"},
                    {"name": "limit", "in": "query", "type": "integer", "maximum": 500}
                ],
                "responses": {"200": {"description": "Entries, newest first"}}}
        },
        "/api/events/{eventID}/stream": {
            "get": {"tags": ["Analytics"], "summary": "Dashboard change stream (WebSocket)", "security": [{"BearerAuth": []}],
                "parameters": [{"name": "eventID", "in": "path", "required": true, "type": "integer"}],
                "responses": {"101": {"description": "Switching Protocols"}}}
        },
        "/health": {
            "get": {"tags": ["Health"], "summary": "Health check",
                "responses": {"200": {"description": "Healthy"}, "503": {"description": "Database unavailable"}}}
        }
    },
    "definitions": {
        "GiftSelection": {
            "type": "object",
            "properties": {
                "item_id": {"type": "integer"},
                "quantity": {"type": "integer", "minimum": 1},
                "is_default": {"type": "boolean"}
            }
        },
        "GiftsRequest": {
            "type": "object",
            "properties": {
                "gift_selections": {"type": "array", "items": {"$ref": "#/definitions/GiftSelection"}},
                "notes": {"type": "string"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Check-in Service API",
	Description:      "Event check-in and gift allocation ledger",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
