package ai

import (
	"encoding/json"
	"strings"

	"github.com/getmockd/oasmock/pkg/util"
)

// systemPrompt is sent to chat-style providers ahead of the user prompt.
const systemPrompt = `You are an API mock server that produces realistic example responses.
Respond with the requested document only: no explanations, no markdown formatting, no code blocks.`

const jsonInstructions = "Generate a realistic and meaningful JSON response that strictly adheres to the provided JSON schema. " +
	"The response content should be contextually relevant to the following request details. " +
	"Ensure all constraints, types, and required fields are respected. " +
	"Do not include any surrounding text or explanations."

const xmlInstructions = "Generate a realistic and meaningful XML document that strictly adheres to the provided OpenAPI schema. " +
	"The response content should be contextually relevant to the following request details. " +
	"Do not include any surrounding text, explanations, or context, just the XML document. " +
	"Interpret the XML field according to the following rules:"

var xmlHints = []string{
	"The outermost element should be defined by the top-level schema/object.",
	"Object properties become child elements unless 'xml/attribute' is true, in which case they become XML attributes.",
	"The 'xml/name' field overrides the default JSON property name for elements or attributes.",
	"For arrays (type: array):",
	"  - If 'xml/wrapped' is true on the array schema, create a wrapper element defined by the array's 'xml/name'.",
	"  - Child array items should use the 'xml/name' defined in the 'items' schema, or default to the array property name.",
}

// RequestContext describes the incoming mock request an example is for.
type RequestContext struct {
	Method string
	URI    string
	Body   string
}

func (rc RequestContext) String() string {
	var b strings.Builder
	b.WriteString("REQUEST CONTEXT:\n")
	b.WriteString("  - Method: " + rc.Method + "\n")
	b.WriteString("  - URL Path: " + rc.URI + "\n")
	b.WriteString("  - Body: " + util.TruncateBody(rc.Body, util.MaxBodySize))
	return b.String()
}

// BuildJSONPrompt builds the prompt for a JSON example. The schema travels
// separately as ExampleRequest.ResponseSchema.
func BuildJSONPrompt(rc RequestContext) string {
	return jsonInstructions + "\n\n" + rc.String()
}

// BuildXMLPrompt builds the prompt for an XML example. XML has no structured
// output mode, so the schema is embedded in the prompt text.
func BuildXMLPrompt(schemaJSON string, rc RequestContext) string {
	return xmlInstructions + "\n\n" + strings.Join(xmlHints, "\n") + "\n\n" + rc.String() + "\n\nSCHEMA:\n" + schemaJSON
}

// inlineSchema appends the response schema to the prompt for providers that
// cannot enforce it natively.
func inlineSchema(req *ExampleRequest) string {
	if req.ResponseSchema == nil {
		return req.Prompt
	}
	data, err := json.MarshalIndent(req.ResponseSchema, "", "  ")
	if err != nil {
		return req.Prompt
	}
	return req.Prompt + "\n\nSCHEMA:\n" + string(data)
}

// stripCodeBlocks removes markdown code block formatting from a response.
func stripCodeBlocks(s string) string {
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, "```") {
		// Drop the opening fence together with its language tag.
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		} else {
			s = strings.TrimPrefix(s, "```")
		}
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}

	return strings.TrimSpace(s)
}
