package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/dafibh/tripsaver/tripsaver-backend/docs"
	"github.com/labstack/echo/v4"
	"github.com/swaggo/swag"
)

// OpenAPI3Spec is the subset of an OpenAPI 3.0 document produced from the swag output
type OpenAPI3Spec struct {
	OpenAPI    string         `json:"openapi"`
	Info       map[string]any `json:"info"`
	Servers    []Server       `json:"servers"`
	Paths      map[string]any `json:"paths"`
	Components map[string]any `json:"components,omitempty"`
}

// Server represents an OpenAPI 3.0 server
type Server struct {
	URL         string `json:"url"`
	Description string `json:"description"`
}

// transformRefs rewrites #/definitions/ refs to #/components/schemas/ and
// converts non-body Swagger 2.0 parameters to OpenAPI 3.0 form.
func transformRefs(data any) any {
	switch v := data.(type) {
	case map[string]any:
		if _, hasIn := v["in"]; hasIn {
			if _, hasName := v["name"]; hasName {
				return transformParameter(v)
			}
		}
		result := make(map[string]any, len(v))
		for key, value := range v {
			if ref, ok := value.(string); ok && key == "$ref" {
				result[key] = strings.Replace(ref, "#/definitions/", "#/components/schemas/", 1)
				continue
			}
			result[key] = transformRefs(value)
		}
		return result
	case []any:
		result := make([]any, len(v))
		for i, item := range v {
			result[i] = transformRefs(item)
		}
		return result
	default:
		return data
	}
}

// transformParameter moves type fields of a path or query parameter into a schema object
func transformParameter(param map[string]any) map[string]any {
	if param["in"] == "body" {
		return param
	}

	result := make(map[string]any)
	for _, field := range []string{"name", "in", "description", "required"} {
		if val, ok := param[field]; ok {
			result[field] = val
		}
	}

	schema := make(map[string]any)
	for _, field := range []string{"type", "format", "enum", "default", "minimum", "maximum", "items"} {
		if val, ok := param[field]; ok {
			schema[field] = transformRefs(val)
		}
	}
	if len(schema) > 0 {
		result["schema"] = schema
	}
	return result
}

// NewOpenAPI3Handler serves the swag document converted to OpenAPI 3.0 with the given servers
func NewOpenAPI3Handler(servers []Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		doc, err := swag.ReadDoc(docs.SwaggerInfo.InstanceName())
		if err != nil {
			return NewInternalError(c, "Failed to read API document")
		}

		var swagger2 map[string]any
		if err := json.Unmarshal([]byte(doc), &swagger2); err != nil {
			return NewInternalError(c, "Failed to parse API document")
		}

		info, _ := swagger2["info"].(map[string]any)
		paths, _ := swagger2["paths"].(map[string]any)

		components := make(map[string]any)
		if secDefs, ok := swagger2["securityDefinitions"].(map[string]any); ok {
			components["securitySchemes"] = secDefs
		}
		if definitions, ok := swagger2["definitions"].(map[string]any); ok {
			components["schemas"] = transformRefs(definitions)
		}

		transformed, _ := transformRefs(paths).(map[string]any)
		return c.JSON(http.StatusOK, OpenAPI3Spec{
			OpenAPI:    "3.0.3",
			Info:       info,
			Servers:    servers,
			Paths:      transformed,
			Components: components,
		})
	}
}
