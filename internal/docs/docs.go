// Package docs registers the OpenAPI description served under /swagger.
// Keep it in sync with the @Router annotations in cmd/inventory-service.
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
        "/healthz": {"get": {"summary": "Liveness and load state", "responses": {"200": {"description": "ok"}, "503": {"description": "loading"}}}},
        "/products": {
            "get": {"summary": "List all products", "produces": ["application/json"], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ListResponse"}}}},
            "post": {
                "summary": "Create one product or a batch",
                "consumes": ["application/json"],
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/ProductInput"}}],
                "responses": {"201": {"description": "Created"}, "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/HTTPError"}}, "503": {"description": "Loading"}}
            },
            "delete": {
                "summary": "Delete every product after a confirmed challenge",
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/Challenge"}}],
                "responses": {"204": {"description": "No Content"}, "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/HTTPError"}}}
            }
        },
        "/products/view": {"get": {
            "summary": "Filtered, sorted and paginated table view",
            "parameters": [
                {"type": "integer", "name": "page", "in": "query"},
                {"type": "integer", "name": "per_page", "in": "query"},
                {"type": "string", "name": "sort", "in": "query"},
                {"type": "string", "name": "dir", "in": "query", "enum": ["asc", "desc"]}
            ],
            "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/HTTPError"}}}
        }},
        "/products/{id}": {
            "get": {"summary": "Get product by id", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/Product"}}, "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/HTTPError"}}}},
            "put": {"summary": "Replace a product", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}, {"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/ProductInput"}}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/Product"}}, "400": {"description": "Bad Request"}, "404": {"description": "Not Found"}}},
            "delete": {"summary": "Delete a product", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"204": {"description": "No Content"}, "404": {"description": "Not Found"}}}
        },
        "/products/wipe/challenge": {"post": {"summary": "Issue a delete-all challenge phrase", "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/Challenge"}}}}},
        "/products/import": {"post": {"summary": "Import products from CSV", "consumes": ["multipart/form-data", "text/csv"], "parameters": [{"type": "file", "name": "file", "in": "formData"}], "responses": {"201": {"description": "Created"}, "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/HTTPError"}}}}},
        "/products/export.csv": {"get": {"summary": "Export products as CSV", "produces": ["text/csv"], "parameters": [{"type": "string", "name": "fields", "in": "query"}], "responses": {"200": {"description": "OK"}}}},
        "/products/clipboard": {"get": {"summary": "Products as clipboard text", "produces": ["text/plain"], "parameters": [{"type": "string", "name": "fields", "in": "query"}, {"type": "string", "name": "ids", "in": "query"}], "responses": {"200": {"description": "OK"}}}},
        "/stats": {"get": {"summary": "Inventory summary", "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/Summary"}}}}},
        "/charts": {"get": {"summary": "Chart series", "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ChartData"}}}}},
        "/layout": {"get": {"summary": "Column layout and render order", "responses": {"200": {"description": "OK"}}}}
    },
    "definitions": {
        "HTTPError": {"type": "object", "properties": {"error": {"type": "string", "example": "product not found"}, "fields": {"type": "array", "items": {"type": "object"}}}},
        "Product": {"type": "object", "properties": {
            "id": {"type": "string"}, "brand": {"type": "string"}, "name": {"type": "string"},
            "price": {"type": "string", "example": "19.99"}, "quantity": {"type": "integer"},
            "condition": {"type": "string", "example": "New"}, "category": {"type": "string"},
            "cost": {"type": "string", "example": "5"}, "profit": {"type": "string", "example": "14.99"}
        }},
        "ProductInput": {"type": "object", "properties": {
            "brand": {"type": "string", "example": "Acme"}, "name": {"type": "string", "example": "Widget"},
            "price": {"type": "string", "example": "19.99"}, "quantity": {"type": "integer", "example": 3},
            "condition": {"type": "string", "example": "New"}, "category": {"type": "string", "example": "Tools"},
            "cost": {"type": "string", "example": "5.00"}
        }},
        "ListResponse": {"type": "object", "properties": {"items": {"type": "array", "items": {"$ref": "#/definitions/Product"}}, "count": {"type": "integer"}}},
        "Challenge": {"type": "object", "properties": {"challenge_id": {"type": "string"}, "phrase": {"type": "string", "example": "jade-fox-lamp"}}},
        "Summary": {"type": "object", "properties": {
            "total_items": {"type": "integer"}, "total_value": {"type": "string"}, "total_cost": {"type": "string"},
            "total_profit": {"type": "string"}, "average_price": {"type": "string"}, "categories": {"type": "integer"}
        }},
        "ChartData": {"type": "object", "properties": {"value_by_category": {"type": "array", "items": {"type": "object"}}, "quantity_by_condition": {"type": "array", "items": {"type": "object"}}}}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Profitory inventory API",
	Description:      "Resale inventory with derived profit, table views, CSV import and export.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
