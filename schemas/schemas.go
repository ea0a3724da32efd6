// Package schemas embeds the HTTP API contract served by apps/browser.
package schemas

import _ "embed"

// OpenAPISpec is the OpenAPI 3 document describing the browse API.
//
//go:embed openapi.yaml
var OpenAPISpec []byte
