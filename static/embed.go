// Package static embeds the API documentation served by the docs routes.
package static

import "embed"

const (
	OpenAPISpec = "openapi.json"
	OpenAPIUI   = "openapi.html"
)

//go:embed openapi.json openapi.html
var Files embed.FS
