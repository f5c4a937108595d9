package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterSwagger serves the API description.
// - GET /swagger/index.html  -> Swagger UI loading doc.json
// - GET /swagger/doc.json    -> OpenAPI document
func RegisterSwagger(rg gin.IRouter) {
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
    <title>notes — Swagger</title>
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
  "info": { "title": "notes", "version": "v0.1.0" },
  "components": {
    "schemas": {
      "NoteForm": {"type":"object","required":["text"],"properties":{"title":{"type":"string","maxLength":100},"text":{"type":"string"},"slug":{"type":"string","maxLength":100,"pattern":"^[A-Za-z0-9_-]+$"}}},
      "FormError": {"type":"object","properties":{"form":{"$ref":"#/components/schemas/NoteForm"},"errors":{"type":"object","additionalProperties":{"type":"string"}}}}
    }
  },
  "paths": {
    "/": { "get": { "summary": "Home page", "responses": { "200": { "description": "home" } } } },
    "/notes/": { "get": { "summary": "Current user's notes", "responses": { "200": { "description": "object_list" }, "302": { "description": "login required" } } } },
    "/add/": {
      "get": { "summary": "Empty note form", "responses": { "200": { "description": "form" } } },
      "post": {
        "summary": "Create a note",
        "requestBody": { "content": { "application/x-www-form-urlencoded": { "schema": {"$ref":"#/components/schemas/NoteForm"} }, "application/json": { "schema": {"$ref":"#/components/schemas/NoteForm"} } } },
        "responses": { "302": { "description": "created, redirect to /done/; anonymous callers go to /auth/login" }, "400": { "description": "form errors", "content": { "application/json": { "schema": {"$ref":"#/components/schemas/FormError"} } } } }
      }
    },
    "/note/{slug}/": { "get": { "summary": "Note detail", "responses": { "200": { "description": "note" }, "404": { "description": "unknown or not yours" } } } },
    "/edit/{slug}/": {
      "get": { "summary": "Edit form", "responses": { "200": { "description": "form" }, "404": { "description": "unknown or not yours" } } },
      "post": { "summary": "Update a note", "responses": { "302": { "description": "updated" }, "400": { "description": "form errors" }, "404": { "description": "unknown or not yours" } } }
    },
    "/delete/{slug}/": {
      "get": { "summary": "Delete confirmation", "responses": { "200": { "description": "note" }, "404": { "description": "unknown or not yours" } } },
      "post": { "summary": "Delete a note", "responses": { "302": { "description": "deleted" }, "404": { "description": "unknown or not yours" } } },
      "delete": { "summary": "Delete a note", "responses": { "302": { "description": "deleted" }, "404": { "description": "unknown or not yours" } } }
    },
    "/export/{slug}/": { "post": { "summary": "Export a note to object storage", "responses": { "200": { "description": "presigned url" }, "404": { "description": "unknown or not yours" }, "503": { "description": "storage not configured" } } } },
    "/done/": { "get": { "summary": "Success page", "responses": { "200": { "description": "success" } } } },
    "/auth/login": {
      "get": { "summary": "Login form descriptor", "parameters": [{"name":"next","in":"query","schema":{"type":"string"}}], "responses": { "200": { "description": "form" } } },
      "post": {
        "summary": "Password login or authorization code exchange",
        "requestBody": { "content": { "application/json": { "schema": {"type":"object","properties":{"mode":{"type":"string","enum":["password","auth_code"]},"username":{"type":"string"},"password":{"type":"string"},"code":{"type":"string"},"redirect_uri":{"type":"string"},"next":{"type":"string"}}}}}},
        "responses": { "200": { "description": "tokens returned, access_token cookie set" }, "401": { "description": "authentication failed" } }
      }
    },
    "/auth/refresh": {
      "post": { "summary": "Refresh access token", "requestBody": { "content": { "application/json": { "schema": {"type":"object","properties":{"refresh_token":{"type":"string"}}}}}}, "responses": { "200": { "description": "new access token" }, "401": { "description": "invalid refresh" } } }
    },
    "/auth/logout": {
      "post": { "summary": "Logout and revoke tokens", "requestBody": { "content": { "application/json": { "schema": {"type":"object","properties":{"refresh_token":{"type":"string"}}}}}}, "responses": { "200": { "description": "logged out" } } }
    },
    "/api/v1/me": {
      "get": { "summary": "Current user", "responses": { "200": { "description": "user" } } },
      "delete": { "summary": "Delete account and all notes", "responses": { "204": { "description": "deleted" } } }
    },
    "/health": { "get": { "summary": "Liveness check", "responses": { "200": { "description": "healthy" } } } },
    "/ready": { "get": { "summary": "Readiness check", "responses": { "200": { "description": "ready" }, "503": { "description": "not ready" } } } },
    "/metrics": { "get": { "summary": "Prometheus metrics", "responses": { "200": { "description": "metrics" } } } }
  }
}`
