// Package spec serves the OpenAPI description of the HTTP API.
package spec

import (
	_ "embed"
	"net/http"
	"strconv"
)

//go:embed openapi.yaml
var openapi []byte

// OpenAPIHandler serves the embedded document for the Swagger UI.
func OpenAPIHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if len(openapi) == 0 {
			http.Error(w, "openapi spec not available", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/yaml")
		w.Header().Set("Content-Length", strconv.Itoa(len(openapi)))
		w.Header().Set("Cache-Control", "public, max-age=300")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(openapi)
	}
}
