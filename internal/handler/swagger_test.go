package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransformRefs(t *testing.T) {
	in := map[string]any{
		"schema": map[string]any{"$ref": "#/definitions/domain.Trip"},
		"parameters": []any{
			map[string]any{"name": "id", "in": "path", "required": true, "type": "integer"},
			map[string]any{"name": "request", "in": "body", "schema": map[string]any{"type": "object"}},
		},
	}

	out := transformRefs(in).(map[string]any)

	assert.Equal(t, "#/components/schemas/domain.Trip", out["schema"].(map[string]any)["$ref"])
	params := out["parameters"].([]any)
	pathParam := params[0].(map[string]any)
	assert.Equal(t, map[string]any{"type": "integer"}, pathParam["schema"])
	assert.NotContains(t, pathParam, "type")
	assert.Equal(t, "body", params[1].(map[string]any)["in"])
}

func TestOpenAPI3Handler(t *testing.T) {
	e := echo.New()
	h := NewOpenAPI3Handler([]Server{{URL: "http://localhost:8080/api/v1", Description: "Local"}})

	req := httptest.NewRequest(http.MethodGet, "/openapi.json", nil)
	rec := httptest.NewRecorder()
	require.NoError(t, h(e.NewContext(req, rec)))
	require.Equal(t, http.StatusOK, rec.Code)

	var spec OpenAPI3Spec
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &spec))
	assert.Equal(t, "3.0.3", spec.OpenAPI)
	assert.Len(t, spec.Servers, 1)
	assert.Contains(t, spec.Paths, "/trips/{id}")
	assert.Contains(t, spec.Components, "schemas")
	assert.NotContains(t, rec.Body.String(), "#/definitions/")
}
