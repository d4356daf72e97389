// Package api embeds the OpenAPI document served at /api/schema/.
package api

import _ "embed"

//go:embed openapi.yml
var OpenAPI []byte
