package docs

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestSwaggerDoc_ResponsesResolve(t *testing.T) {
	var doc struct {
		Responses map[string]struct {
			Schema struct {
				Ref string `json:"$ref"`
			} `json:"schema"`
		} `json:"responses"`
		Definitions map[string]json.RawMessage `json:"definitions"`
	}
	if err := json.Unmarshal([]byte(SwaggerInfo.ReadDoc()), &doc); err != nil {
		t.Fatalf("doc is not JSON: %v", err)
	}

	for _, name := range []string{"GenericError", "EmailTaken", "ConstraintViolations", "InternalError"} {
		resp, ok := doc.Responses[name]
		if !ok {
			t.Fatalf("response %q missing", name)
		}
		def := strings.TrimPrefix(resp.Schema.Ref, "#/definitions/")
		if _, ok := doc.Definitions[def]; !ok {
			t.Fatalf("response %q points at unknown definition %q", name, resp.Schema.Ref)
		}
	}
	for name := range doc.Definitions {
		if strings.HasPrefix(name, "errmap.") {
			t.Fatalf("definition %q names a Go type errmap does not declare", name)
		}
	}
}
