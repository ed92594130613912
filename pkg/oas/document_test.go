package oas

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const petstoreYAML = `
openapi: 3.0.3
info:
  title: Petstore
  version: "1.0"
paths:
  /pets/{id}:
    get:
      operationId: getPet
      parameters:
        - {name: id, in: path, required: true, schema: {type: string}}
      responses:
        "200":
          description: ok
          content:
            application/json:
              schema:
                $ref: '#/components/schemas/Pet'
        404:
          description: missing
components:
  schemas:
    Pet:
      type: object
      required: [name]
      properties:
        name: {type: string}
        born: {type: string, format: date, example: 2020-01-02}
        tag: {type: string, nullable: true, default: ~}
`

func TestParse_PreservesKeyOrder(t *testing.T) {
	doc, err := Parse([]byte(petstoreYAML))
	require.NoError(t, err)

	assert.Equal(t, "3.0.3", doc.Version())
	assert.False(t, doc.Is31())
	assert.Equal(t, "Petstore", doc.Title())
	assert.Equal(t, []string{"openapi", "info", "paths", "components"}, doc.Root.Keys())

	responses, err := doc.Lookup("#/paths/~1pets~1{id}/get/responses")
	require.NoError(t, err)
	assert.Equal(t, []string{"200", "404"}, responses.(*Map).Keys())

	pet, err := doc.Lookup("#/components/schemas/Pet/properties")
	require.NoError(t, err)
	assert.Equal(t, []string{"name", "born", "tag"}, pet.(*Map).Keys())
}

func TestParse_ScalarTypes(t *testing.T) {
	doc, err := Parse([]byte(petstoreYAML))
	require.NoError(t, err)

	born, err := doc.Lookup("#/components/schemas/Pet/properties/born/example")
	require.NoError(t, err)
	assert.Equal(t, "2020-01-02", born, "timestamps stay strings")

	tag, err := doc.Lookup("#/components/schemas/Pet/properties/tag")
	require.NoError(t, err)
	v, ok := tag.(*Map).Get("default")
	assert.True(t, ok)
	assert.Nil(t, v)
}

func TestParse_JSONInput(t *testing.T) {
	doc, err := Parse([]byte(`{"openapi":"3.1.0","paths":{"/b":{},"/a":{}},"x":{"n":1.5,"i":2}}`))
	require.NoError(t, err)

	assert.True(t, doc.Is31())
	assert.Equal(t, []string{"/b", "/a"}, doc.Paths().Keys())

	n, _ := doc.Lookup("#/x/n")
	i, _ := doc.Lookup("#/x/i")
	assert.Equal(t, 1.5, n)
	assert.Equal(t, 2, i)
}

func TestParse_MergeKeys(t *testing.T) {
	doc, err := Parse([]byte(`
openapi: 3.0.0
base: &base
  a: 1
  b: 2
derived:
  <<: *base
  b: 3
`))
	require.NoError(t, err)

	derived, err := doc.Lookup("#/derived")
	require.NoError(t, err)
	m := derived.(*Map)
	a, _ := m.Get("a")
	b, _ := m.Get("b")
	assert.Equal(t, 1, a)
	assert.Equal(t, 3, b)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"not an object", "- a\n- b\n"},
		{"no version", "info: {title: x}\n"},
		{"bad yaml", "openapi: [\n"},
		{"swagger 1", "swagger: '1.2'\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.input))
			assert.Error(t, err)
		})
	}
}

func TestParse_Swagger2Conversion(t *testing.T) {
	doc, err := Parse([]byte(`
swagger: "2.0"
info: {title: Legacy, version: "1"}
produces: [application/json]
paths:
  /users:
    get:
      responses:
        "200":
          description: ok
          schema:
            $ref: '#/definitions/User'
definitions:
  User:
    type: object
    properties:
      id: {type: integer}
`))
	require.NoError(t, err)
	assert.True(t, doc.Converted)
	assert.NotEmpty(t, doc.Version())

	schema, err := doc.Lookup("#/paths/~1users/get/responses/200/content/application~1json/schema")
	require.NoError(t, err)
	ref, ok := RefOf(schema)
	require.True(t, ok)
	assert.Equal(t, "#/components/schemas/User", ref)

	resolved, err := doc.ResolveRef(schema)
	require.NoError(t, err)
	assert.True(t, resolved.(*Map).Has("properties"))
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "api.yaml")
	require.NoError(t, os.WriteFile(path, []byte(petstoreYAML), 0o644))

	doc, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, path, doc.Name)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	doc, err := Parse([]byte(petstoreYAML))
	require.NoError(t, err)
	assert.NoError(t, doc.Validate(context.Background()))

	bad, err := Parse([]byte(`
openapi: 3.0.3
info: {title: x, version: "1"}
paths:
  /a:
    get:
      responses:
        "200":
          description: ok
          content:
            application/json:
              schema:
                $ref: '#/components/schemas/Missing'
`))
	require.NoError(t, err)
	assert.Error(t, bad.Validate(context.Background()))
}

func TestMap_MarshalJSON(t *testing.T) {
	m := NewMap()
	m.Set("z", 1)
	m.Set("a", "<b>&")
	inner := NewMap()
	inner.Set("y", []any{true, nil})
	m.Set("m", inner)
	m.Set("z", 2)

	data, err := json.Marshal(m)
	require.NoError(t, err)
	assert.Equal(t, `{"z":2,"a":"<b>&","m":{"y":[true,null]}}`, string(data))

	var nilMap *Map
	data, err = json.Marshal(nilMap)
	require.NoError(t, err)
	assert.Equal(t, "null", string(data))
}

func TestMap_CloneAndPlain(t *testing.T) {
	m := NewMap()
	m.Set("a", 1)
	c := m.Clone()
	c.Set("b", 2)
	assert.Equal(t, 1, m.Len())
	assert.Equal(t, 2, c.Len())

	plain := Plain(c)
	assert.Equal(t, map[string]any{"a": 1, "b": 2}, plain)

	back := FromPlain(map[string]any{"b": 1, "a": []any{map[string]any{"c": 3}}}).(*Map)
	assert.Equal(t, []string{"a", "b"}, back.Keys())
}
