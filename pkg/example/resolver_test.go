package example

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getmockd/oasmock/pkg/ai"
	"github.com/getmockd/oasmock/pkg/mockerr"
	"github.com/getmockd/oasmock/pkg/oas"
	"github.com/getmockd/oasmock/pkg/prng"
	"github.com/getmockd/oasmock/pkg/sample"
)

const fixtureYAML = `
openapi: 3.0.3
info: {title: fixtures, version: "1"}
paths: {}
components:
  schemas:
    Pet:
      type: object
      required: [id, name]
      xml: {name: pet}
      properties:
        id: {type: integer, minimum: 1, maximum: 9}
        name: {type: string, xml: {attribute: true}}
    Documented:
      type: object
      example: {id: 1, name: doc}
  examples:
    Cat:
      value: {id: 2, name: cat}
x-fixtures:
  static:
    example: {hello: world}
    schema: {$ref: "#/components/schemas/Pet"}
  text:
    example: plain text
  falsy:
    example: false
  named:
    examples:
      dog: {value: {id: 1, name: dog}}
      cat: {$ref: "#/components/examples/Cat"}
      empty: {summary: nothing}
  broken:
    examples:
      ghost: {$ref: "#/components/examples/Ghost"}
  schemaExample:
    schema: {$ref: "#/components/schemas/Documented"}
  schemaOnly:
    schema: {$ref: "#/components/schemas/Pet"}
  nothing:
    description: none
`

func loadFixtures(t *testing.T) *oas.Document {
	t.Helper()
	doc, err := oas.Parse([]byte(fixtureYAML))
	require.NoError(t, err)
	return doc
}

func fixture(t *testing.T, doc *oas.Document, name string) *oas.Map {
	t.Helper()
	v, err := doc.Lookup("#/x-fixtures/" + name)
	require.NoError(t, err)
	m, ok := v.(*oas.Map)
	require.True(t, ok)
	return m
}

func input(content *oas.Map, mediaType string) *Input {
	return &Input{
		Path:      "/pets.get.responses.200.content." + mediaType,
		MediaType: mediaType,
		Content:   content,
		Seed:      42,
		Rand:      prng.New(42),
		Request:   ai.RequestContext{Method: "GET", URI: "/pets/1"},
	}
}

type fakeProvider struct {
	text  string
	err   error
	calls int
	last  *ai.ExampleRequest
}

func (p *fakeProvider) GenerateExample(_ context.Context, req *ai.ExampleRequest) (*ai.ExampleResponse, error) {
	p.calls++
	p.last = req
	if p.err != nil {
		return nil, p.err
	}
	return &ai.ExampleResponse{Text: p.text}, nil
}

func (p *fakeProvider) Name() string { return "fake" }

func TestResolve_StaticExampleWins(t *testing.T) {
	doc := loadFixtures(t)
	r := &Resolver{Doc: doc}

	res, err := r.Resolve(context.Background(), input(fixture(t, doc, "static"), "application/json"))
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"hello\": \"world\"\n}", res.Body)
	assert.Empty(t, res.Warning)
}

func TestResolve_StaticValues(t *testing.T) {
	doc := loadFixtures(t)
	r := &Resolver{Doc: doc}

	res, err := r.Resolve(context.Background(), input(fixture(t, doc, "text"), "text/plain"))
	require.NoError(t, err)
	assert.Equal(t, "plain text", res.Body)

	// A false example is still an example.
	res, err = r.Resolve(context.Background(), input(fixture(t, doc, "falsy"), "application/json"))
	require.NoError(t, err)
	assert.Equal(t, "false", res.Body)
}

func TestResolve_NamedExamples(t *testing.T) {
	doc := loadFixtures(t)
	r := &Resolver{Doc: doc}
	content := fixture(t, doc, "named")

	t.Run("by name", func(t *testing.T) {
		in := input(content, "application/json")
		in.Example = "dog"
		res, err := r.Resolve(context.Background(), in)
		require.NoError(t, err)
		assert.Equal(t, "{\n  \"id\": 1,\n  \"name\": \"dog\"\n}", res.Body)
		assert.Empty(t, res.Warning)
	})

	t.Run("reference entry", func(t *testing.T) {
		in := input(content, "application/json")
		in.Example = "cat"
		res, err := r.Resolve(context.Background(), in)
		require.NoError(t, err)
		assert.Equal(t, "{\n  \"id\": 2,\n  \"name\": \"cat\"\n}", res.Body)
	})

	t.Run("entry without value", func(t *testing.T) {
		in := input(content, "application/json")
		in.Example = "empty"
		res, err := r.Resolve(context.Background(), in)
		require.NoError(t, err)
		assert.Empty(t, res.Body)
	})

	t.Run("unknown name falls back with warning", func(t *testing.T) {
		in := input(content, "application/json")
		in.Example = "bird"
		res, err := r.Resolve(context.Background(), in)
		require.NoError(t, err)
		assert.Equal(t, "requested example 'bird' not found, random one chosen", res.Warning)
	})

	t.Run("unknown name with explicit status and accept", func(t *testing.T) {
		in := input(content, "application/json")
		in.Example = "bird"
		in.Status = "200"
		in.Accept = "application/json"
		_, err := r.Resolve(context.Background(), in)
		var nerr *mockerr.NegotiationError
		require.ErrorAs(t, err, &nerr)
		assert.Equal(t, "requested example 'bird' not found, valid ones are: dog,cat,empty", err.Error())
		assert.Equal(t, 400, mockerr.StatusCode(err))
	})

	t.Run("random pick is reproducible", func(t *testing.T) {
		a, err := r.Resolve(context.Background(), input(content, "application/json"))
		require.NoError(t, err)
		b, err := r.Resolve(context.Background(), input(content, "application/json"))
		require.NoError(t, err)
		assert.Equal(t, a.Body, b.Body)
	})

	t.Run("unresolvable entry", func(t *testing.T) {
		_, err := r.Resolve(context.Background(), input(fixture(t, doc, "broken"), "application/json"))
		var rerr *oas.ReferenceError
		require.ErrorAs(t, err, &rerr)
		assert.Contains(t, err.Error(), "ghost")
		assert.Equal(t, 500, mockerr.StatusCode(err))
	})
}

func TestResolve_SchemaExample(t *testing.T) {
	doc := loadFixtures(t)
	r := &Resolver{Doc: doc}

	res, err := r.Resolve(context.Background(), input(fixture(t, doc, "schemaExample"), "application/json"))
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"id\": 1,\n  \"name\": \"doc\"\n}", res.Body)
}

func TestResolve_SchemaFallback(t *testing.T) {
	doc := loadFixtures(t)
	r := &Resolver{Doc: doc}
	content := fixture(t, doc, "schemaOnly")
	schema, _ := content.Get("schema")

	for _, mt := range []string{"application/json", "application/xml", "application/yaml"} {
		t.Run(mt, func(t *testing.T) {
			want, err := sample.ForMediaType(mt, doc, schema, 42)
			require.NoError(t, err)

			res, err := r.Resolve(context.Background(), input(content, mt))
			require.NoError(t, err)
			assert.Equal(t, want, res.Body)
			assert.Empty(t, res.Warning)
		})
	}
}

func TestResolve_NothingFound(t *testing.T) {
	doc := loadFixtures(t)
	r := &Resolver{Doc: doc}

	res, err := r.Resolve(context.Background(), input(fixture(t, doc, "nothing"), "application/json"))
	require.NoError(t, err)
	assert.Empty(t, res.Body)
	assert.Equal(t, "no example or schema found for /pets.get.responses.200.content.application/json", res.Warning)

	res, err = r.Resolve(context.Background(), input(nil, "application/json"))
	require.NoError(t, err)
	assert.Equal(t, "no content found for /pets.get.responses.200.content.application/json", res.Warning)
}

func TestResolve_FuzzWithoutSchema(t *testing.T) {
	doc := loadFixtures(t)
	r := &Resolver{Doc: doc}
	content := fixture(t, doc, "text")

	tests := []struct {
		name   string
		status string
		accept string
		hint   string
	}{
		{name: "both", status: "200", accept: "text/plain", hint: "try different values for the 'mock-status' and 'accept' headers"},
		{name: "status only", status: "200", hint: "try different value for the 'accept' header"},
		{name: "accept only", accept: "text/plain", hint: "try different value for the 'mock-status' header"},
		{name: "neither", hint: "try setting the 'mock-status' and 'accept' header"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := input(content, "text/plain")
			in.Fuzz = true
			in.Status = tt.status
			in.Accept = tt.accept
			_, err := r.Resolve(context.Background(), in)
			var gerr *mockerr.GenerationError
			require.ErrorAs(t, err, &gerr)
			assert.True(t, strings.HasPrefix(err.Error(), "cannot fuzz response, no schema found for /pets.get"))
			assert.True(t, strings.HasSuffix(err.Error(), tt.hint), err.Error())
			assert.Equal(t, 400, mockerr.StatusCode(err))
		})
	}
}

func TestResolve_FuzzIgnoresStaticExample(t *testing.T) {
	doc := loadFixtures(t)
	r := &Resolver{Doc: doc}
	content := fixture(t, doc, "static")
	schema, _ := content.Get("schema")

	in := input(content, "application/json")
	in.Fuzz = true
	res, err := r.Resolve(context.Background(), in)
	require.NoError(t, err)

	want, err := sample.JSONText(doc, schema, 42)
	require.NoError(t, err)
	assert.Equal(t, want, res.Body)
}

func TestResolve_AIProvider(t *testing.T) {
	doc := loadFixtures(t)
	content := fixture(t, doc, "schemaOnly")
	schema, _ := content.Get("schema")

	t.Run("json uses structured schema without xml", func(t *testing.T) {
		p := &fakeProvider{text: `{"id": 3, "name": "Rex"}`}
		r := &Resolver{Doc: doc, Provider: p, Verifier: NewSchemaVerifier(nil)}

		in := input(content, "application/json")
		in.Fuzz = true
		res, err := r.Resolve(context.Background(), in)
		require.NoError(t, err)
		assert.Equal(t, `{"id": 3, "name": "Rex"}`, res.Body)
		assert.Empty(t, res.Warning)

		require.Equal(t, 1, p.calls)
		assert.Equal(t, ai.FormatJSON, p.last.Format)
		assert.Equal(t, ai.Seed(42), p.last.Seed)
		assert.Contains(t, p.last.Prompt, "URL Path: /pets/1")
		m, ok := p.last.ResponseSchema.(*oas.Map)
		require.True(t, ok)
		assert.False(t, m.Has("xml"))
		assert.False(t, m.Has("$ref"))
	})

	t.Run("xml embeds annotated schema in prompt", func(t *testing.T) {
		p := &fakeProvider{text: `<pet name="Rex"><id>3</id></pet>`}
		r := &Resolver{Doc: doc, Provider: p, Verifier: NewSchemaVerifier(nil)}

		in := input(content, "application/xml")
		in.Fuzz = true
		res, err := r.Resolve(context.Background(), in)
		require.NoError(t, err)
		assert.Equal(t, `<pet name="Rex"><id>3</id></pet>`, res.Body)
		assert.Equal(t, ai.FormatXML, p.last.Format)
		assert.Nil(t, p.last.ResponseSchema)
		assert.Contains(t, p.last.Prompt, `"attribute": true`)
	})

	fallbacks := []struct {
		name      string
		mediaType string
		provider  *fakeProvider
		calls     int
	}{
		{name: "provider error", mediaType: "application/json", provider: &fakeProvider{err: errors.New("boom")}, calls: 1},
		{name: "schema mismatch", mediaType: "application/json", provider: &fakeProvider{text: `{"id": "x"}`}, calls: 1},
		{name: "not json", mediaType: "application/json", provider: &fakeProvider{text: "sure! here you go"}, calls: 1},
		{name: "broken xml", mediaType: "application/xml", provider: &fakeProvider{text: "<pet name=>"}, calls: 1},
		{name: "unsupported media type", mediaType: "application/yaml", provider: &fakeProvider{text: "id: 1"}, calls: 0},
	}

	for _, tt := range fallbacks {
		t.Run("falls back on "+tt.name, func(t *testing.T) {
			r := &Resolver{Doc: doc, Provider: tt.provider, Verifier: NewSchemaVerifier(nil)}
			in := input(content, tt.mediaType)
			in.Fuzz = true

			res, err := r.Resolve(context.Background(), in)
			require.NoError(t, err)
			assert.Equal(t, FallbackWarning, res.Warning)
			assert.Equal(t, tt.calls, tt.provider.calls)

			want, err := sample.ForMediaType(tt.mediaType, doc, schema, 42)
			require.NoError(t, err)
			assert.Equal(t, want, res.Body)
		})
	}

	t.Run("not consulted without forced fuzz", func(t *testing.T) {
		p := &fakeProvider{text: "{}"}
		r := &Resolver{Doc: doc, Provider: p}
		_, err := r.Resolve(context.Background(), input(content, "application/json"))
		require.NoError(t, err)
		assert.Zero(t, p.calls)
	})
}
