// Package docs registers the Swagger document served at /swagger.
// Regenerate with: swag init -g cmd/api/main.go
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "termsOfService": "http://swagger.io/terms/",
        "contact": {
            "name": "API Support",
            "url": "http://www.swagger.io/support",
            "email": "support@swagger.io"
        },
        "license": {
            "name": "Apache 2.0",
            "url": "http://www.apache.org/licenses/LICENSE-2.0.html"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/health": {
            "get": {"tags": ["Health"], "summary": "Health Check", "responses": {"200": {"description": "OK"}, "503": {"description": "Service Unavailable"}}}
        },
        "/debts": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["Debts"], "summary": "List Debts", "responses": {"200": {"description": "OK"}}},
            "post": {"security": [{"BearerAuth": []}], "tags": ["Debts"], "summary": "Create Debt", "responses": {"201": {"description": "Created"}, "400": {"description": "Bad Request"}, "409": {"description": "Conflict"}}}
        },
        "/debts/summary": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["Debts"], "summary": "Debt Summary", "parameters": [{"type": "string", "name": "month", "in": "query"}], "responses": {"200": {"description": "OK"}}}
        },
        "/debts/{debt_id}": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["Debts"], "summary": "Show Debt", "parameters": [{"type": "string", "name": "debt_id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}},
            "patch": {"security": [{"BearerAuth": []}], "tags": ["Debts"], "summary": "Update Debt", "parameters": [{"type": "string", "name": "debt_id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}, "409": {"description": "Conflict"}}},
            "delete": {"security": [{"BearerAuth": []}], "tags": ["Debts"], "summary": "Delete Debt", "parameters": [{"type": "string", "name": "debt_id", "in": "path", "required": true}], "responses": {"204": {"description": "No Content"}, "409": {"description": "Conflict"}}}
        },
        "/debts/{debt_id}/payments": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["Payments"], "summary": "Payment History", "parameters": [{"type": "string", "name": "debt_id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}}},
            "post": {"security": [{"BearerAuth": []}], "tags": ["Payments"], "summary": "Apply Payment", "parameters": [{"type": "string", "name": "debt_id", "in": "path", "required": true}], "responses": {"201": {"description": "Created"}, "400": {"description": "Bad Request"}, "404": {"description": "Not Found"}, "409": {"description": "Conflict"}}}
        },
        "/debts/{debt_id}/payments/{payment_id}/undo": {
            "post": {"security": [{"BearerAuth": []}], "tags": ["Payments"], "summary": "Undo Payment", "parameters": [{"type": "string", "name": "debt_id", "in": "path", "required": true}, {"type": "string", "name": "payment_id", "in": "path", "required": true}, {"type": "string", "name": "month", "in": "query"}], "responses": {"200": {"description": "OK"}, "409": {"description": "Conflict"}}}
        },
        "/payments": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["Payments"], "summary": "Payments for Month", "parameters": [{"type": "string", "name": "month", "in": "query"}], "responses": {"200": {"description": "OK"}}}
        },
        "/projection": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["Projection"], "summary": "Payoff Projection", "parameters": [{"type": "number", "name": "budget", "in": "query"}], "responses": {"200": {"description": "OK"}}}
        },
        "/exports/ledger": {
            "get": {"security": [{"BearerAuth": []}], "produces": ["application/octet-stream"], "tags": ["Exports"], "summary": "Export Ledger", "parameters": [{"type": "string", "default": "csv", "name": "format", "in": "query"}, {"type": "number", "name": "budget", "in": "query"}], "responses": {"200": {"description": "OK"}}}
        },
        "/expense-debts": {
            "post": {"security": [{"BearerAuth": []}], "tags": ["Expense Debts"], "summary": "Sync Expense Debt", "responses": {"200": {"description": "OK"}, "201": {"description": "Created"}}}
        },
        "/jobs/status": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["Jobs"], "summary": "Job Status", "responses": {"200": {"description": "OK"}}}
        }
    },
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/api/v1",
	Schemes:          []string{"http"},
	Title:            "Debt Ledger API",
	Description:      "Debt tracking, payment ledger and payoff projection",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
