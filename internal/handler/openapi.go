package handler

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/deppfellow/expenses-api/internal/server"
	"github.com/deppfellow/expenses-api/static"
	"github.com/labstack/echo/v4"
)

// OpenAPIHandler serves the OpenAPI document and the docs UI, both embedded
// in the binary.
type OpenAPIHandler struct {
	Handler
}

func NewOpenAPIHandler(s *server.Server) *OpenAPIHandler {
	return &OpenAPIHandler{
		Handler: NewHandler(s),
	}
}

// ServeOpenAPIUI serves the docs page, which loads /openapi.json.
//
// Cache-Control is "no-cache" so clients pick up doc changes immediately.
func (h *OpenAPIHandler) ServeOpenAPIUI(c echo.Context) error {
	page, err := static.Files.ReadFile(static.OpenAPIUI)
	if err != nil {
		return fmt.Errorf("failed to read OpenAPI UI template: %w", err)
	}

	c.Response().Header().Set("Cache-Control", "no-cache")

	return c.HTMLBlob(http.StatusOK, page)
}

// ServeOpenAPISpec serves the OpenAPI document with info.title and
// info.version taken from the api config.
func (h *OpenAPIHandler) ServeOpenAPISpec(c echo.Context) error {
	raw, err := static.Files.ReadFile(static.OpenAPISpec)
	if err != nil {
		return fmt.Errorf("failed to read OpenAPI document: %w", err)
	}

	var doc map[string]interface{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("failed to parse OpenAPI document: %w", err)
	}

	info, _ := doc["info"].(map[string]interface{})
	if info == nil {
		info = map[string]interface{}{}
		doc["info"] = info
	}
	info["title"] = h.server.Config.API.Title
	info["version"] = h.server.Config.API.Version

	c.Response().Header().Set("Cache-Control", "no-cache")

	return c.JSON(http.StatusOK, doc)
}
