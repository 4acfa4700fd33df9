// Package docs holds the generated Swagger spec for lootwatchd's REST
// API. Normally produced by `swag init` from the @-annotations in
// internal/httpapi; checked in here so the /swagger/ route has
// something to serve without a build-time code-generation step.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "{{.Title}}",
        "description": "{{.Description}}",
        "contact": {
            "name": "lootwatch",
            "url": "https://github.com/lootwatch/lootwatchd"
        },
        "license": {
            "name": "MIT License",
            "url": "https://opensource.org/licenses/MIT"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/runs": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Runs"],
                "summary": "List runs for the active scope",
                "responses": {
                    "200": {"description": "OK"},
                    "409": {"description": "no active player scope"}
                }
            }
        },
        "/runs/summary": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Runs"],
                "summary": "Summarize runs for the active scope over an optional time range",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/inventory": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Inventory"],
                "summary": "List the active scope's current inventory",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/prices": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Prices"],
                "summary": "List every local price known for the active scope",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/stats/history": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Stats"],
                "summary": "Cached hourly price-history buckets for a TypeId",
                "parameters": [
                    {"name": "typeId", "in": "query", "required": true, "type": "integer"},
                    {"name": "sinceHours", "in": "query", "required": false, "type": "integer"}
                ],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/cloud/status": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Cloud"],
                "summary": "Report whether cloud sync is configured and running",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/settings": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Settings"],
                "summary": "List whitelisted settings",
                "responses": {"200": {"description": "OK"}}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0.0",
	Host:             "localhost:8787",
	BasePath:         "/api",
	Schemes:          []string{},
	Title:            "lootwatchd API",
	Description:      "Local HTTP API for the loot-tracking daemon: run history, inventory, pricing, and cloud-sync control.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
