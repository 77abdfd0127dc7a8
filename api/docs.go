// Package api holds the OpenAPI document served at /openapi.json.
package api

import _ "embed"

// OpenAPI is the Swagger 2.0 description of the users API.
//
//go:embed swagger/users.swagger.json
var OpenAPI []byte
