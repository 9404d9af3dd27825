// Package docs holds the OpenAPI document served at /swagger.
// Regenerate with: swag init -g cmd/api/main.go -o docs
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
    "paths": {
        "/auth/signup": {"post": {"tags": ["auth"], "summary": "Sign up", "responses": {"201": {"description": "Created"}, "400": {"description": "Bad Request"}, "403": {"description": "Forbidden"}, "409": {"description": "Conflict"}}}},
        "/auth/signin": {"post": {"tags": ["auth"], "summary": "Sign in", "responses": {"200": {"description": "OK"}, "401": {"description": "Unauthorized"}}}},
        "/auth/signout": {"post": {"security": [{"SessionAuth": []}], "tags": ["auth"], "summary": "Sign out", "responses": {"204": {"description": "No Content"}}}},
        "/auth/magic-link": {"post": {"tags": ["auth"], "summary": "Request a new magic link", "responses": {"202": {"description": "Accepted"}, "400": {"description": "Bad Request"}}}},
        "/auth/callback": {
            "get": {"tags": ["auth"], "summary": "Resolve a magic-link callback from its query string", "responses": {"200": {"description": "OK"}}},
            "post": {"tags": ["auth"], "summary": "Resolve a magic-link callback from the full URL", "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}}}
        },
        "/set-password": {
            "get": {"tags": ["auth"], "summary": "Check access to the set-password page", "responses": {"200": {"description": "OK"}}},
            "post": {"tags": ["auth"], "summary": "Set the account password", "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}, "401": {"description": "Unauthorized"}}}
        },
        "/customer-dashboard": {"get": {"security": [{"SessionAuth": []}], "tags": ["customer"], "summary": "Customer dashboard", "responses": {"200": {"description": "OK"}, "302": {"description": "Found"}}}},
        "/employee-dashboard": {"get": {"security": [{"SessionAuth": []}], "tags": ["staff"], "summary": "Employee dashboard", "responses": {"200": {"description": "OK"}, "302": {"description": "Found"}}}},
        "/api/customer/profile": {"get": {"security": [{"SessionAuth": []}], "tags": ["customer"], "summary": "Current customer's profile", "responses": {"200": {"description": "OK"}}}},
        "/api/customer/warranty": {"get": {"security": [{"SessionAuth": []}], "tags": ["customer"], "summary": "Current customer's warranty summary", "responses": {"200": {"description": "OK"}}}},
        "/api/customer/warranty/document": {"get": {"security": [{"SessionAuth": []}], "produces": ["text/plain"], "tags": ["customer"], "summary": "Download the warranty agreement", "responses": {"200": {"description": "OK"}}}},
        "/api/customer/services": {
            "get": {"security": [{"SessionAuth": []}], "tags": ["customer"], "summary": "List the customer's service requests", "responses": {"200": {"description": "OK"}}},
            "post": {"security": [{"SessionAuth": []}], "tags": ["customer"], "summary": "Schedule a service visit", "responses": {"201": {"description": "Created"}, "400": {"description": "Bad Request"}}}
        },
        "/api/customer/services/{id}": {"patch": {"security": [{"SessionAuth": []}], "tags": ["customer"], "summary": "Reschedule an upcoming visit", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}}},
        "/api/customer/services/{id}/cancel": {"post": {"security": [{"SessionAuth": []}], "tags": ["customer"], "summary": "Cancel an upcoming visit", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}}},
        "/api/staff/customers": {
            "get": {"security": [{"SessionAuth": []}], "tags": ["staff"], "summary": "List customers, newest first", "responses": {"200": {"description": "OK"}}},
            "post": {"security": [{"SessionAuth": []}], "tags": ["staff"], "summary": "Create a customer record and invite the customer", "responses": {"201": {"description": "Created"}, "400": {"description": "Bad Request"}, "502": {"description": "Bad Gateway"}}}
        },
        "/api/staff/customers/{id}": {
            "get": {"security": [{"SessionAuth": []}], "tags": ["staff"], "summary": "Get a customer record", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}},
            "patch": {"security": [{"SessionAuth": []}], "tags": ["staff"], "summary": "Update a customer record", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}}
        },
        "/api/staff/invitations": {"post": {"security": [{"SessionAuth": []}], "tags": ["staff"], "summary": "Invite a customer", "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}, "502": {"description": "Bad Gateway"}}}},
        "/health": {"get": {"tags": ["health"], "summary": "Liveness probe", "responses": {"200": {"description": "OK"}}}},
        "/health/ready": {"get": {"tags": ["health"], "summary": "Readiness probe", "responses": {"200": {"description": "OK"}, "503": {"description": "Service Unavailable"}}}}
    },
    "securityDefinitions": {
        "SessionAuth": {
            "description": "Portal session id as \"Bearer <id>\". Browsers use the portal_session cookie instead.",
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "GreenView Customer Portal API",
	Description:      "Sign-up, magic-link sign-in, first-login password setup and the customer and staff dashboards.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
