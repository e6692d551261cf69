package translation

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed response.schema.json
var responseSchemaJSON string

var (
	compileOnce       sync.Once
	compiledSchema    *jsonschema.Schema
	compiledSchemaErr error
)

type apiResponse struct {
	ResponseData struct {
		TranslatedText string `json:"translatedText"`
	} `json:"responseData"`
	ResponseStatus  any    `json:"responseStatus"`
	ResponseDetails string `json:"responseDetails"`
}

// decodeResponse validates body against the response schema and extracts
// responseData.translatedText.
func decodeResponse(body []byte) (string, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return "", fmt.Errorf("%w: decode body: %w", ErrMalformedResponse, err)
	}

	schema, err := loadSchema()
	if err != nil {
		return "", fmt.Errorf("%w: load schema: %w", ErrMalformedResponse, err)
	}
	if err := schema.Validate(doc); err != nil {
		return "", fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}

	var parsed apiResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("%w: unmarshal body: %w", ErrMalformedResponse, err)
	}

	// MyMemory reports quota and language errors with HTTP 200 and a non-200 responseStatus.
	if parsed.ResponseStatus != nil {
		status := strings.TrimSpace(fmt.Sprint(parsed.ResponseStatus))
		if status != "" && status != "200" {
			return "", fmt.Errorf("%w: status %s: %s", ErrRejected, status, strings.TrimSpace(parsed.ResponseDetails))
		}
	}
	return parsed.ResponseData.TranslatedText, nil
}

func loadSchema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiler.Draft = jsonschema.Draft2020

		if err := compiler.AddResource("response.schema.json", strings.NewReader(responseSchemaJSON)); err != nil {
			compiledSchemaErr = fmt.Errorf("add schema resource: %w", err)
			return
		}
		compiledSchema, compiledSchemaErr = compiler.Compile("response.schema.json")
	})
	return compiledSchema, compiledSchemaErr
}
