// Package docs registers the admin API swagger document for gin-swagger.
// Regenerate with `swag init -g cmd/viralrecipes/main.go`.
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
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "paths": {
        "/status": {"get": {"tags": ["system"], "summary": "System status", "produces": ["application/json"], "responses": {"200": {"description": "OK"}}}},
        "/cycles": {"get": {"tags": ["system"], "summary": "Recent cycle statistics", "produces": ["application/json"], "parameters": [{"type": "integer", "name": "limit", "in": "query"}], "responses": {"200": {"description": "OK"}}}},
        "/system/start": {"post": {"tags": ["system"], "summary": "Start the cycle loop", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}, "409": {"description": "Conflict"}}}},
        "/system/stop": {"post": {"tags": ["system"], "summary": "Stop the cycle loop", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}, "409": {"description": "Conflict"}}}},
        "/system/cycle": {"post": {"tags": ["system"], "summary": "Run one cycle now", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}, "409": {"description": "Conflict"}}}},
        "/recipes": {"get": {"tags": ["recipes"], "summary": "List processed recipes", "produces": ["application/json"], "parameters": [
            {"type": "integer", "name": "page", "in": "query"},
            {"type": "integer", "name": "page_size", "in": "query"},
            {"type": "string", "name": "category", "in": "query"},
            {"type": "string", "name": "status", "in": "query"},
            {"type": "string", "name": "tag", "in": "query"}
        ], "responses": {"200": {"description": "OK"}}}},
        "/recipes/top": {"get": {"tags": ["recipes"], "summary": "Top published recipes", "parameters": [{"type": "integer", "name": "limit", "in": "query"}], "responses": {"200": {"description": "OK"}}}},
        "/recipes/{slug}": {"get": {"tags": ["recipes"], "summary": "Get recipe by slug", "parameters": [{"type": "string", "name": "slug", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}}},
        "/pending": {"get": {"tags": ["pending"], "summary": "List recipes awaiting approval", "responses": {"200": {"description": "OK"}}}},
        "/pending/{id}/approve": {"post": {"tags": ["pending"], "summary": "Approve and publish a pending recipe", "security": [{"BearerAuth": []}], "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}, "409": {"description": "Conflict"}, "502": {"description": "Bad Gateway"}}}},
        "/pending/{id}/reject": {"post": {"tags": ["pending"], "summary": "Reject a pending recipe", "security": [{"BearerAuth": []}], "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}, "409": {"description": "Conflict"}}}}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "Viral Recipes Admin API",
	Description:      "Monitor cycles, browse processed recipes and review the approval queue",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
