// Package api holds the OpenAPI document for the JSON relay surface.
package api

import _ "embed"

// OpenAPISpec is the raw YAML OpenAPI document.
//
//go:embed openapi.yaml
var OpenAPISpec []byte
