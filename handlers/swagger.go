package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterSwagger registers minimal Swagger/OpenAPI endpoints for the users service.
// - GET /swagger/index.html  -> a small HTML page that loads the OpenAPI JSON
// - GET /swagger/doc.json    -> machine-readable OpenAPI JSON
func RegisterSwagger(rg *gin.Engine) {
	rg.GET("/swagger/index.html", func(c *gin.Context) {
		c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(swaggerHTML))
	})

	rg.GET("/swagger/doc.json", func(c *gin.Context) {
		c.Data(http.StatusOK, "application/json; charset=utf-8", []byte(swaggerJSON))
	})
}

const swaggerHTML = `<!doctype html>
<html>
  <head>
    <meta charset="utf-8" />
    <title>go-users - Swagger</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@4/swagger-ui.css" />
  </head>
  <body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@4/swagger-ui-bundle.js"></script>
    <script>
      window.ui = SwaggerUIBundle({
        url: '/swagger/doc.json',
        dom_id: '#swagger-ui',
      })
    </script>
  </body>
</html>`

const swaggerJSON = `{
  "openapi": "3.0.0",
  "info": { "title": "go-users", "version": "v0.1.0" },
  "components": {
    "schemas": {
      "User": { "type": "object", "required": ["email"], "additionalProperties": true, "properties": { "id": {"type":"string"}, "email": {"type":"string","format":"email"}, "createdAt": {"type":"string","format":"date-time"}, "updatedAt": {"type":"string","format":"date-time"} } },
      "Error": { "type": "object", "properties": { "error": {"type":"string"} } }
    }
  },
  "paths": {
    "/users": {
      "get": {
        "summary": "List users; other query keys are equality filters",
        "parameters": [
          { "name": "limit", "in": "query", "schema": {"type":"integer","default":10,"minimum":1,"maximum":100} },
          { "name": "offset", "in": "query", "schema": {"type":"integer","default":0,"minimum":0} },
          { "name": "sort", "in": "query", "schema": {"type":"string"}, "example": "email -createdAt" }
        ],
        "responses": { "200": { "description": "users", "content": { "application/json": { "schema": {"type":"array","items":{"$ref":"#/components/schemas/User"}} } } }, "400": { "description": "bad request", "content": { "application/json": { "schema": {"$ref":"#/components/schemas/Error"} } } } }
      },
      "post": {
        "summary": "Create a user",
        "requestBody": { "content": { "application/json": { "schema": {"$ref":"#/components/schemas/User"} } } },
        "responses": { "201": { "description": "created" }, "400": { "description": "rejected" } }
      }
    },
    "/users/{id}": {
      "parameters": [ { "name": "id", "in": "path", "required": true, "schema": {"type":"string"} } ],
      "get": { "summary": "Get a user", "responses": { "200": { "description": "user" }, "404": { "description": "not found" }, "400": { "description": "error" } } },
      "put": { "summary": "Update a user, creating it with this id when missing", "requestBody": { "content": { "application/json": { "schema": {"type":"object"} } } }, "responses": { "200": { "description": "updated" }, "201": { "description": "created" }, "400": { "description": "rejected, or body carries an id" } } },
      "delete": { "summary": "Delete a user", "responses": { "204": { "description": "deleted" }, "404": { "description": "not found" }, "400": { "description": "error" } } }
    },
    "/health": { "get": { "summary": "Liveness check", "responses": { "200": { "description": "healthy" } } } },
    "/ready": { "get": { "summary": "Readiness check", "responses": { "200": { "description": "ready" }, "503": { "description": "not ready" } } } },
    "/metrics": { "get": { "summary": "Prometheus metrics", "responses": { "200": { "description": "exposition" } } } }
  }
}`
